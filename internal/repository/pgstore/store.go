// Package pgstore implements repository.Store on PostgreSQL through a pgx
// connection pool.
package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iliyamo/sgp-controller/internal/repository"
)

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is a repository.Store backed by PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	if pool == nil {
		panic("nil pool passed to pgstore.New")
	}
	return &Store{pool: pool}
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		created_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_created_at ON sessions(created_at)`,
	`CREATE TABLE IF NOT EXISTS players (
		id BIGSERIAL PRIMARY KEY,
		session_id BIGINT NOT NULL REFERENCES sessions(id),
		name TEXT NOT NULL,
		color TEXT NOT NULL,
		balance BIGINT NOT NULL DEFAULT 0,
		UNIQUE (session_id, name),
		UNIQUE (session_id, color)
	)`,
	`CREATE TABLE IF NOT EXISTS color_groups (
		name TEXT PRIMARY KEY,
		total INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS properties (
		id BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		group_name TEXT NOT NULL,
		prop_type TEXT NOT NULL,
		cost BIGINT NOT NULL,
		rent_base BIGINT NOT NULL,
		rent_1 BIGINT NOT NULL,
		rent_2 BIGINT NOT NULL,
		rent_3 BIGINT NOT NULL,
		rent_4 BIGINT NOT NULL,
		rent_hotel BIGINT NOT NULL,
		house_cost BIGINT NOT NULL,
		mortgage BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_properties_group ON properties(group_name)`,
	`CREATE TABLE IF NOT EXISTS ownerships (
		id BIGSERIAL PRIMARY KEY,
		session_id BIGINT NOT NULL REFERENCES sessions(id),
		property_id BIGINT NOT NULL REFERENCES properties(id),
		player_id BIGINT NULL REFERENCES players(id),
		houses INTEGER NOT NULL DEFAULT 0,
		mortgaged BOOLEAN NOT NULL DEFAULT FALSE,
		UNIQUE (session_id, property_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ownerships_player ON ownerships(player_id)`,
	`CREATE TABLE IF NOT EXISTS history (
		id BIGSERIAL PRIMARY KEY,
		session_id BIGINT NOT NULL REFERENCES sessions(id),
		recorded_at BIGINT NOT NULL,
		kind TEXT NOT NULL,
		detail TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_history_session ON history(session_id, id)`,
}

// Migrate creates the schema if needed.
func (s *Store) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres migration %d: %w", i+1, err)
		}
	}
	return nil
}

// WithTx implements repository.Store.
func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	// Rollback after a successful Commit is a no-op.
	defer tx.Rollback(ctx)

	if err := fn(&repo{q: tx, lock: " FOR UPDATE"}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// View implements repository.Store.
func (s *Store) View(ctx context.Context, fn func(tx repository.Tx) error) error {
	return fn(&repo{q: s.pool})
}

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
