// Package service is the ledger's transaction orchestrator.  Every balance
// or ownership change is a command that is validated, applied and recorded
// inside one store transaction: either all of its effects and its history
// entry are committed, or none are.
package service

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/sgp-controller/internal/apperr"
	"github.com/iliyamo/sgp-controller/internal/model"
	"github.com/iliyamo/sgp-controller/internal/queue"
	"github.com/iliyamo/sgp-controller/internal/repository"
)

// Publisher receives committed ledger events.  Failures are logged and
// never undo the operation that produced the event.
type Publisher interface {
	PublishLedgerRecorded(ctx context.Context, ev queue.LedgerRecordedEvent) error
}

// Service runs ledger commands and the session lifecycle against a store.
type Service struct {
	store          repository.Store
	pub            Publisher
	initialBalance int64
	now            func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithPublisher sends an event for every committed ledger operation.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.pub = p }
}

// WithInitialBalance sets the balance given to players created without one.
func WithInitialBalance(v int64) Option {
	return func(s *Service) { s.initialBalance = v }
}

// WithClock replaces time.Now for history timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// DefaultInitialBalance is the starting balance of a new player.
const DefaultInitialBalance = 25000

// New returns a Service over store.
func New(store repository.Store, opts ...Option) *Service {
	if store == nil {
		panic("nil store passed to service.New")
	}
	s := &Service{
		store:          store,
		initialBalance: DefaultInitialBalance,
		now:            func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Receipt describes a committed ledger operation.
type Receipt struct {
	Message   string             `json:"message"`
	Amount    int64              `json:"valor"`
	Entry     model.HistoryEntry `json:"historico"`
	Ownership *model.Ownership   `json:"propriedade,omitempty"`
}

// outcome is what a command's apply step hands back to execute.
type outcome struct {
	kind      model.HistoryKind
	detail    string
	message   string
	amount    int64
	ownership *model.Ownership
}

// command is one ledger operation.  validate checks fields only and runs
// before any transaction is opened; apply reads current state, enforces the
// game rules and performs the writes.
type command interface {
	session() int64
	validate() error
	apply(ctx context.Context, tx repository.Tx) (outcome, error)
}

// execute runs cmd as Validate, Apply, Record inside one transaction and
// publishes the resulting entry after commit.
func (s *Service) execute(ctx context.Context, cmd command) (*Receipt, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}
	var (
		out   outcome
		entry model.HistoryEntry
	)
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		if _, err := loadSession(ctx, tx, cmd.session()); err != nil {
			return err
		}
		o, err := cmd.apply(ctx, tx)
		if err != nil {
			return err
		}
		entry = model.HistoryEntry{SessionID: cmd.session(), At: s.now(), Kind: o.kind, Detail: o.detail}
		if err := tx.AppendHistory(ctx, &entry); err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.Internal {
			log.WithError(err).WithField("session_id", cmd.session()).Error("ledger operation failed")
		}
		return nil, err
	}

	log.WithFields(log.Fields{
		"session_id": entry.SessionID,
		"kind":       entry.Kind,
		"amount":     out.amount,
		"entry_id":   entry.ID,
	}).Info("ledger operation committed")
	s.publish(ctx, entry, out.amount)

	return &Receipt{Message: out.message, Amount: out.amount, Entry: entry, Ownership: out.ownership}, nil
}

func (s *Service) publish(ctx context.Context, entry model.HistoryEntry, amount int64) {
	if s.pub == nil {
		return
	}
	// The request may already be finishing; give the broker its own budget.
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	if err := s.pub.PublishLedgerRecorded(pctx, queue.NewLedgerRecordedEvent(entry, amount)); err != nil {
		log.WithError(err).WithField("entry_id", entry.ID).Warn("ledger event not published")
	}
}
