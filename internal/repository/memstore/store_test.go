package memstore

import (
	"context"
	"math"
	"testing"

	"github.com/iliyamo/sgp-controller/internal/repository"
	"github.com/iliyamo/sgp-controller/internal/repository/storetest"
)

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) repository.Store { return New() })
}

func TestPanicRollsBack(t *testing.T) {
	ctx := context.Background()
	s := New()
	fx := storetest.Seed(t, s, 100, "Ana")
	err := s.WithTx(ctx, func(tx repository.Tx) error {
		_ = tx.AdjustBalance(ctx, fx.Players[0].ID, 50)
		panic("broken")
	})
	if err == nil {
		t.Fatal("expected error from panicking transaction")
	}
	_ = s.View(ctx, func(tx repository.Tx) error {
		p, _ := tx.GetPlayer(ctx, fx.Players[0].ID)
		if p.Balance != 100 {
			t.Errorf("balance = %d, want 100", p.Balance)
		}
		return nil
	})
}

func TestAdjustBalanceOutOfRange(t *testing.T) {
	ctx := context.Background()
	s := New()
	fx := storetest.Seed(t, s, 100, "Ana")
	id := fx.Players[0].ID
	err := s.WithTx(ctx, func(tx repository.Tx) error {
		return tx.AdjustBalance(ctx, id, math.MaxInt64)
	})
	if err == nil {
		t.Fatal("expected out of range error")
	}
	err = s.WithTx(ctx, func(tx repository.Tx) error {
		if err := tx.AdjustBalance(ctx, id, math.MinInt64+50); err != nil {
			return err
		}
		return tx.AdjustBalance(ctx, id, -200)
	})
	if err == nil {
		t.Fatal("expected out of range error on debit")
	}
	_ = s.View(ctx, func(tx repository.Tx) error {
		p, _ := tx.GetPlayer(ctx, id)
		if p.Balance != 100 {
			t.Errorf("balance = %d, want 100", p.Balance)
		}
		return nil
	})
}
