package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iliyamo/sgp-controller/internal/database"
	"github.com/iliyamo/sgp-controller/internal/repository"
	"github.com/iliyamo/sgp-controller/internal/repository/memstore"
	"github.com/iliyamo/sgp-controller/internal/repository/pgstore"
	"github.com/iliyamo/sgp-controller/internal/repository/sqlstore"
)

// backend opens an empty, migrated store for one test.
type backend struct {
	name string
	open func(t *testing.T) repository.Store
}

func (b backend) game(t *testing.T, names ...string) *game {
	t.Helper()
	return newGameOn(t, b.open(t), names...)
}

// backends lists the stores the ledger scenarios run against.  PostgreSQL
// joins when PGSTORE_TEST_DSN names a disposable database.
func backends() []backend {
	list := []backend{
		{name: "memstore", open: func(*testing.T) repository.Store { return memstore.New() }},
		{name: "sqlite", open: openSQLite},
	}
	if dsn := os.Getenv("PGSTORE_TEST_DSN"); dsn != "" {
		list = append(list, backend{name: "postgres", open: func(t *testing.T) repository.Store { return openPostgres(t, dsn) }})
	}
	return list
}

// eachBackend runs fn once per backend as a subtest.
func eachBackend(t *testing.T, fn func(t *testing.T, b backend)) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) { fn(t, b) })
	}
}

func openSQLite(t *testing.T) repository.Store {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	s := sqlstore.New(db, sqlstore.SQLite)
	t.Cleanup(func() { _ = s.Close() })
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return s
}

func openPostgres(t *testing.T, dsn string) repository.Store {
	t.Helper()
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	s := pgstore.New(pool)
	t.Cleanup(func() { _ = s.Close() })
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate postgres: %v", err)
	}
	_, err = pool.Exec(ctx, `TRUNCATE history, ownerships, players, sessions, properties, color_groups RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return s
}
