// Package sqlstore implements repository.Store over database/sql.  The same
// queries serve MySQL and SQLite; a Dialect supplies the schema, the row
// lock clause and driver error classification.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/sgp-controller/internal/repository"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is a repository.Store backed by a *sql.DB.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// New wraps db.  Call Migrate before first use.
func New(db *sql.DB, dialect Dialect) *Store {
	if db == nil {
		panic("nil *sql.DB passed to sqlstore.New")
	}
	return &Store{db: db, dialect: dialect}
}

// DB exposes the underlying handle for health checks and shutdown.
func (s *Store) DB() *sql.DB { return s.db }

// Migrate creates the schema if it does not exist yet.  Statements are
// idempotent so Migrate runs on every start.
func (s *Store) Migrate(ctx context.Context) error {
	for i, stmt := range s.dialect.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s migration %d: %w", s.dialect.Name, i+1, err)
		}
	}
	return nil
}

// WithTx implements repository.Store.  Every exit path other than a
// successful commit rolls the transaction back.
func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&repo{q: tx, d: s.dialect, lock: s.dialect.lockSuffix}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}

// View implements repository.Store.
func (s *Store) View(ctx context.Context, fn func(tx repository.Tx) error) error {
	return fn(&repo{q: s.db, d: s.dialect})
}

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Close() error { return s.db.Close() }

// repo implements repository.Tx on one querier.  lock is appended to
// single-row reads that precede a write; it is empty outside transactions.
type repo struct {
	q    querier
	d    Dialect
	lock string
}

func toMillis(t time.Time) int64 { return t.UTC().UnixMilli() }

func fromMillis(v int64) time.Time { return time.UnixMilli(v).UTC() }

func notFound(entity string, id any) error {
	return fmt.Errorf("%s %v: %w", entity, id, repository.ErrNotFound)
}
