package model

import "time"

// HistoryKind tags a history entry with the operation that produced it.
type HistoryKind string

const (
	KindDeposit        HistoryKind = "DEPOSITO"
	KindWithdraw       HistoryKind = "SAQUE"
	KindTransfer       HistoryKind = "TRANSFERENCIA"
	KindRent           HistoryKind = "PAGAMENTO_ALUGUEL"
	KindBuyProperty    HistoryKind = "COMPRA_PROPRIEDADE"
	KindSellProperty   HistoryKind = "VENDA_PROPRIEDADE"
	KindMortgage       HistoryKind = "HIPOTECA_PROPRIEDADE"
	KindBuyHouse       HistoryKind = "COMPRA_CASA"
	KindSellHouse      HistoryKind = "VENDA_CASA"
	KindSwapProperty   HistoryKind = "TROCA_PROPRIEDADE"
	KindCollectFromAll HistoryKind = "RECEBER_DE_TODOS"
)

// HistoryEntry is one line of a session's append-only ledger.  Entries are
// ordered by ID and never updated.
type HistoryEntry struct {
	ID        int64       `json:"id"`
	SessionID int64       `json:"sessionId"`
	At        time.Time   `json:"data"`
	Kind      HistoryKind `json:"tipo"`
	Detail    string      `json:"detalhes"`
}
