package sqlstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/iliyamo/sgp-controller/internal/database"
	"github.com/iliyamo/sgp-controller/internal/model"
	"github.com/iliyamo/sgp-controller/internal/repository"
	"github.com/iliyamo/sgp-controller/internal/repository/storetest"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	s := New(db, SQLite)
	t.Cleanup(func() { _ = s.Close() })
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}

func TestSQLiteContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) repository.Store { return openTestStore(t) })
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestOwnerColumnRoundTripsNull(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	fx := storetest.Seed(t, s, 100, "Ana")
	owner := fx.Players[0].ID
	var id int64
	err := s.WithTx(ctx, func(tx repository.Tx) error {
		list, err := tx.ListOwnerships(ctx, fx.Session.ID)
		if err != nil {
			return err
		}
		id = list[0].ID
		o := list[0]
		o.OwnerID = &owner
		if err := tx.SaveOwnership(ctx, o); err != nil {
			return err
		}
		o.OwnerID = nil
		o.Mortgaged = true
		return tx.SaveOwnership(ctx, o)
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	_ = s.View(ctx, func(tx repository.Tx) error {
		o, err := tx.GetOwnership(ctx, id)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if o.OwnerID != nil || !o.Mortgaged {
			t.Errorf("record = %+v, want unowned and mortgaged", o)
		}
		return nil
	})
}

func TestSaveOwnershipMissing(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	err := s.WithTx(ctx, func(tx repository.Tx) error {
		return tx.SaveOwnership(ctx, model.Ownership{ID: 404})
	})
	if err == nil {
		t.Fatal("expected not found")
	}
}

func TestDialectFor(t *testing.T) {
	if d, ok := DialectFor("mysql"); !ok || d.lockSuffix != " FOR UPDATE" {
		t.Errorf("mysql dialect = %+v", d)
	}
	if d, ok := DialectFor("sqlite"); !ok || d.lockSuffix != "" {
		t.Errorf("sqlite dialect = %+v", d)
	}
	if _, ok := DialectFor("postgres"); ok {
		t.Error("postgres is served by pgstore")
	}
}
