package service

import (
	"context"
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/sgp-controller/internal/apperr"
	"github.com/iliyamo/sgp-controller/internal/model"
	"github.com/iliyamo/sgp-controller/internal/rent"
	"github.com/iliyamo/sgp-controller/internal/repository"
)

// CollectAmount is what every other player pays the collector in a
// collect-from-all operation.
const CollectAmount = 500

// Deposit credits a player from the bank.
type Deposit struct {
	PlayerID  int64
	SessionID int64
	Amount    int64
}

func (c Deposit) session() int64 { return c.SessionID }

func (c Deposit) validate() error {
	if err := requireID(c.PlayerID, "userId"); err != nil {
		return err
	}
	if err := requireID(c.SessionID, "sessionId"); err != nil {
		return err
	}
	return requireAmount(c.Amount)
}

func (c Deposit) apply(ctx context.Context, tx repository.Tx) (outcome, error) {
	p, err := loadPlayer(ctx, tx, c.SessionID, c.PlayerID)
	if err != nil {
		return outcome{}, err
	}
	if err := credit(ctx, tx, p, c.Amount); err != nil {
		return outcome{}, err
	}
	return outcome{
		kind:    model.KindDeposit,
		detail:  fmt.Sprintf("%s depositou R$ %d", p.Name, c.Amount),
		message: fmt.Sprintf("Depósito de R$ %d para o jogador %s realizado com sucesso!", c.Amount, p.Name),
		amount:  c.Amount,
	}, nil
}

// Deposit credits cmd.Amount to the player.
func (s *Service) Deposit(ctx context.Context, cmd Deposit) (*Receipt, error) {
	return s.execute(ctx, cmd)
}

// Withdraw debits a player back to the bank.
type Withdraw struct {
	PlayerID  int64
	SessionID int64
	Amount    int64
}

func (c Withdraw) session() int64 { return c.SessionID }

func (c Withdraw) validate() error {
	return Deposit(c).validate()
}

func (c Withdraw) apply(ctx context.Context, tx repository.Tx) (outcome, error) {
	p, err := loadPlayer(ctx, tx, c.SessionID, c.PlayerID)
	if err != nil {
		return outcome{}, err
	}
	if p.Balance < c.Amount {
		return outcome{}, apperr.Rule(msgInsufficient)
	}
	if err := tx.AdjustBalance(ctx, p.ID, -c.Amount); err != nil {
		return outcome{}, err
	}
	return outcome{
		kind:    model.KindWithdraw,
		detail:  fmt.Sprintf("%s retirou R$ %d", p.Name, c.Amount),
		message: fmt.Sprintf("Saque de R$ %d para o jogador %s realizado com sucesso!", c.Amount, p.Name),
		amount:  c.Amount,
	}, nil
}

// Withdraw debits cmd.Amount from the player if they can afford it.
func (s *Service) Withdraw(ctx context.Context, cmd Withdraw) (*Receipt, error) {
	return s.execute(ctx, cmd)
}

// Transfer moves money between two players of the same session.
type Transfer struct {
	PayerID   int64
	PayeeID   int64
	SessionID int64
	Amount    int64
}

func (c Transfer) session() int64 { return c.SessionID }

func (c Transfer) validate() error {
	if err := requireID(c.PayerID, "pagadorId"); err != nil {
		return err
	}
	if err := requireID(c.PayeeID, "recebedorId"); err != nil {
		return err
	}
	if err := requireID(c.SessionID, "sessionId"); err != nil {
		return err
	}
	if err := requireAmount(c.Amount); err != nil {
		return err
	}
	if c.PayerID == c.PayeeID {
		return apperr.Rule("Pagador e recebedor devem ser jogadores diferentes")
	}
	return nil
}

func (c Transfer) apply(ctx context.Context, tx repository.Tx) (outcome, error) {
	payer, payee, err := loadPlayers(ctx, tx, c.SessionID, c.PayerID, c.PayeeID)
	if err != nil {
		return outcome{}, err
	}
	if err := move(ctx, tx, payer, payee, c.Amount); err != nil {
		return outcome{}, err
	}
	return outcome{
		kind:    model.KindTransfer,
		detail:  fmt.Sprintf("%s transferiu R$ %d para %s", payer.Name, c.Amount, payee.Name),
		message: fmt.Sprintf("Transferência de R$ %d de %s para %s realizada com sucesso!", c.Amount, payer.Name, payee.Name),
		amount:  c.Amount,
	}, nil
}

// Transfer moves cmd.Amount from payer to payee.
func (s *Service) Transfer(ctx context.Context, cmd Transfer) (*Receipt, error) {
	return s.execute(ctx, cmd)
}

// move debits payer and credits payee after checking payer's funds.
func move(ctx context.Context, tx repository.Tx, payer, payee model.Player, amount int64) error {
	if payer.Balance < amount {
		return apperr.Rule(msgInsufficient)
	}
	if err := tx.AdjustBalance(ctx, payer.ID, -amount); err != nil {
		return err
	}
	return credit(ctx, tx, payee, amount)
}

// credit adds amount to p's balance unless the result would leave the
// int64 range.
func credit(ctx context.Context, tx repository.Tx, p model.Player, amount int64) error {
	if amount > 0 && p.Balance > math.MaxInt64-amount {
		return apperr.Rule(msgBalanceLimit)
	}
	return tx.AdjustBalance(ctx, p.ID, amount)
}

// CollectFromAll charges every other player of the session CollectAmount
// and credits the total to the collector.  Debtors are not checked for
// funds and may end with a negative balance.
type CollectFromAll struct {
	CollectorID int64
	SessionID   int64
}

func (c CollectFromAll) session() int64 { return c.SessionID }

func (c CollectFromAll) validate() error {
	if err := requireID(c.CollectorID, "userId"); err != nil {
		return err
	}
	return requireID(c.SessionID, "sessionId")
}

func (c CollectFromAll) apply(ctx context.Context, tx repository.Tx) (outcome, error) {
	players, err := tx.ListPlayers(ctx, c.SessionID)
	if err != nil {
		return outcome{}, err
	}
	var collector *model.Player
	for i := range players {
		if players[i].ID == c.CollectorID {
			collector = &players[i]
		}
	}
	if collector == nil {
		return outcome{}, apperr.NotFoundf(msgPlayerNotFound)
	}

	var total int64
	for _, p := range players {
		if p.ID == collector.ID {
			continue
		}
		if p.Balance < math.MinInt64+CollectAmount {
			return outcome{}, apperr.Rule(msgBalanceLimit)
		}
		if err := tx.AdjustBalance(ctx, p.ID, -CollectAmount); err != nil {
			return outcome{}, err
		}
		if p.Balance < CollectAmount {
			log.WithFields(log.Fields{
				"session_id": c.SessionID,
				"player_id":  p.ID,
				"balance":    p.Balance - CollectAmount,
			}).Warn("collect from all left player with negative balance")
		}
		total += CollectAmount
	}
	if err := credit(ctx, tx, *collector, total); err != nil {
		return outcome{}, err
	}

	detail := fmt.Sprintf("O jogador %s recebeu R$ %d de todos os jogadores, um total de %d!", collector.Name, CollectAmount, total)
	return outcome{kind: model.KindCollectFromAll, detail: detail, message: detail, amount: total}, nil
}

// CollectFromAll runs cmd.
func (s *Service) CollectFromAll(ctx context.Context, cmd CollectFromAll) (*Receipt, error) {
	return s.execute(ctx, cmd)
}

// PayRent pays the tiered rent of a normal property to its owner.
type PayRent struct {
	PayerID     int64
	SessionID   int64
	OwnershipID int64
}

func (c PayRent) session() int64 { return c.SessionID }

func (c PayRent) validate() error {
	if err := requireID(c.PayerID, "pagadorId"); err != nil {
		return err
	}
	if err := requireID(c.SessionID, "sessionId"); err != nil {
		return err
	}
	return requireID(c.OwnershipID, "sessionPossesId")
}

func (c PayRent) apply(ctx context.Context, tx repository.Tx) (outcome, error) {
	return payRent(ctx, tx, c.SessionID, c.PayerID, c.OwnershipID, func(p model.Property, o model.Ownership) (int64, error) {
		if p.IsShare() {
			return 0, apperr.Rule("Aluguel de ações depende do número de dados")
		}
		return rent.Due(p, o.Houses), nil
	})
}

// PayRent charges the payer the rent due on the record.
func (s *Service) PayRent(ctx context.Context, cmd PayRent) (*Receipt, error) {
	return s.execute(ctx, cmd)
}

// PayShareRent pays the dice-based rent of a share property to its owner.
type PayShareRent struct {
	PayerID     int64
	SessionID   int64
	OwnershipID int64
	Dice        int64
}

func (c PayShareRent) session() int64 { return c.SessionID }

func (c PayShareRent) validate() error {
	if err := (PayRent{PayerID: c.PayerID, SessionID: c.SessionID, OwnershipID: c.OwnershipID}).validate(); err != nil {
		return err
	}
	if c.Dice < 1 || c.Dice > rent.MaxDice {
		return apperr.Invalid(fmt.Sprintf("O número de dados deve estar entre 1 e %d", rent.MaxDice))
	}
	return nil
}

func (c PayShareRent) apply(ctx context.Context, tx repository.Tx) (outcome, error) {
	return payRent(ctx, tx, c.SessionID, c.PayerID, c.OwnershipID, func(p model.Property, _ model.Ownership) (int64, error) {
		if !p.IsShare() {
			return 0, apperr.Rule("A propriedade não é uma ação")
		}
		return rent.Share(c.Dice), nil
	})
}

// PayShareRent charges the payer SharePerDie for every die rolled.
func (s *Service) PayShareRent(ctx context.Context, cmd PayShareRent) (*Receipt, error) {
	return s.execute(ctx, cmd)
}

func payRent(ctx context.Context, tx repository.Tx, sessionID, payerID, ownershipID int64,
	due func(model.Property, model.Ownership) (int64, error)) (outcome, error) {
	o, prop, err := loadRecordByID(ctx, tx, sessionID, ownershipID)
	if err != nil {
		return outcome{}, err
	}
	if !o.Owned() {
		return outcome{}, apperr.Rule("Propriedade sem dono")
	}
	if o.OwnedBy(payerID) {
		return outcome{}, apperr.Rule("Você já é o proprietário")
	}
	amount, err := due(prop, o)
	if err != nil {
		return outcome{}, err
	}
	payer, owner, err := loadPlayers(ctx, tx, sessionID, payerID, *o.OwnerID)
	if err != nil {
		return outcome{}, err
	}
	if err := move(ctx, tx, payer, owner, amount); err != nil {
		return outcome{}, err
	}
	return outcome{
		kind:    model.KindRent,
		detail:  fmt.Sprintf("%s pagou R$ %d para %s em %s", payer.Name, amount, owner.Name, prop.Name),
		message: "Aluguel pago",
		amount:  amount,
	}, nil
}
