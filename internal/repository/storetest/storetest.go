// Package storetest holds the behavioural contract every repository.Store
// adapter must satisfy.  Adapter packages call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/sgp-controller/internal/model"
	"github.com/iliyamo/sgp-controller/internal/repository"
)

// Factory returns a fresh, empty, migrated store.  The factory is
// responsible for registering cleanup on t.
type Factory func(t *testing.T) repository.Store

// Run executes the contract against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("SessionsAndPlayers", func(t *testing.T) { testSessionsAndPlayers(t, newStore(t)) })
	t.Run("PlayerUniqueness", func(t *testing.T) { testPlayerUniqueness(t, newStore(t)) })
	t.Run("Catalog", func(t *testing.T) { testCatalog(t, newStore(t)) })
	t.Run("Ownerships", func(t *testing.T) { testOwnerships(t, newStore(t)) })
	t.Run("HistoryOrder", func(t *testing.T) { testHistoryOrder(t, newStore(t)) })
	t.Run("RollbackOnError", func(t *testing.T) { testRollback(t, newStore(t)) })
	t.Run("DeleteSessionCascades", func(t *testing.T) { testDeleteCascade(t, newStore(t)) })
	t.Run("SessionsCreatedBefore", func(t *testing.T) { testCreatedBefore(t, newStore(t)) })
}

// Fixture is a seeded session used by the contract tests.
type Fixture struct {
	Session    model.Session
	Players    []model.Player
	Properties []model.Property
}

// Seed creates a small catalog (one two-property group) and a session with
// the given player names, each holding balance.
func Seed(t *testing.T, store repository.Store, balance int64, names ...string) Fixture {
	t.Helper()
	ctx := context.Background()
	var fx Fixture
	err := store.WithTx(ctx, func(tx repository.Tx) error {
		if err := tx.SaveColorGroup(ctx, model.ColorGroup{Name: "Rosa", Total: 2}); err != nil {
			return err
		}
		fx.Properties = []model.Property{
			{ID: 1, Name: "Leblon", Group: "Rosa", Type: model.PropertyNormal, Cost: 600, RentBase: 20, Rent1: 100, Rent2: 300, Rent3: 900, Rent4: 1600, RentHotel: 2500, HouseCost: 500, Mortgage: 300},
			{ID: 2, Name: "Av. Presidente Vargas", Group: "Rosa", Type: model.PropertyNormal, Cost: 600, RentBase: 40, Rent1: 200, Rent2: 600, Rent3: 1800, Rent4: 3200, RentHotel: 4500, HouseCost: 500, Mortgage: 300},
		}
		for _, p := range fx.Properties {
			if err := tx.SaveProperty(ctx, p); err != nil {
				return err
			}
		}
		fx.Session = model.Session{Name: "contract", CreatedAt: time.Now().UTC()}
		if err := tx.CreateSession(ctx, &fx.Session); err != nil {
			return err
		}
		colors := model.Palette
		for i, n := range names {
			p := model.Player{SessionID: fx.Session.ID, Name: n, Color: colors[i%len(colors)], Balance: balance}
			if err := tx.CreatePlayer(ctx, &p); err != nil {
				return err
			}
			fx.Players = append(fx.Players, p)
		}
		return tx.CreateOwnerships(ctx, fx.Session.ID, []int64{1, 2})
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return fx
}

func testSessionsAndPlayers(t *testing.T, store repository.Store) {
	ctx := context.Background()
	fx := Seed(t, store, 1000, "Ana", "Bia")
	err := store.WithTx(ctx, func(tx repository.Tx) error {
		if err := tx.AdjustBalance(ctx, fx.Players[0].ID, -250); err != nil {
			return err
		}
		return tx.UpdatePlayerProfile(ctx, fx.Players[1].ID, "Beatriz", "emerald")
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	err = store.View(ctx, func(tx repository.Tx) error {
		s, err := tx.GetSession(ctx, fx.Session.ID)
		if err != nil {
			return err
		}
		if s.Name != "contract" {
			t.Errorf("session name = %q", s.Name)
		}
		players, err := tx.ListPlayers(ctx, fx.Session.ID)
		if err != nil {
			return err
		}
		if len(players) != 2 {
			t.Fatalf("players = %d, want 2", len(players))
		}
		if players[0].Balance != 750 {
			t.Errorf("balance = %d, want 750", players[0].Balance)
		}
		if players[1].Name != "Beatriz" || players[1].Color != "emerald" {
			t.Errorf("profile = %+v", players[1])
		}
		if _, err := tx.GetPlayer(ctx, 9999); !errors.Is(err, repository.ErrNotFound) {
			t.Errorf("GetPlayer(missing) err = %v, want ErrNotFound", err)
		}
		if _, err := tx.GetSession(ctx, 9999); !errors.Is(err, repository.ErrNotFound) {
			t.Errorf("GetSession(missing) err = %v, want ErrNotFound", err)
		}
		list, err := tx.ListSessions(ctx)
		if err != nil {
			return err
		}
		if len(list) != 1 {
			t.Errorf("sessions = %d, want 1", len(list))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func testPlayerUniqueness(t *testing.T, store repository.Store) {
	ctx := context.Background()
	fx := Seed(t, store, 1000, "Ana")
	err := store.WithTx(ctx, func(tx repository.Tx) error {
		dup := model.Player{SessionID: fx.Session.ID, Name: "Ana", Color: "blue"}
		return tx.CreatePlayer(ctx, &dup)
	})
	if !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("duplicate name err = %v, want ErrConflict", err)
	}
}

func testCatalog(t *testing.T, store repository.Store) {
	ctx := context.Background()
	Seed(t, store, 0)
	err := store.WithTx(ctx, func(tx repository.Tx) error {
		p, err := tx.GetProperty(ctx, 1)
		if err != nil {
			return err
		}
		p.Cost = 650
		if err := tx.SaveProperty(ctx, p); err != nil {
			return err
		}
		return tx.SaveColorGroup(ctx, model.ColorGroup{Name: "Rosa", Total: 2})
	})
	if err != nil {
		t.Fatalf("resave: %v", err)
	}
	_ = store.View(ctx, func(tx repository.Tx) error {
		props, err := tx.ListProperties(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(props) != 2 || props[0].Cost != 650 || props[0].Type != model.PropertyNormal {
			t.Errorf("properties = %+v", props)
		}
		g, err := tx.GetColorGroup(ctx, "Rosa")
		if err != nil || g.Total != 2 {
			t.Errorf("group = %+v, err %v", g, err)
		}
		if _, err := tx.GetColorGroup(ctx, "Azul"); !errors.Is(err, repository.ErrNotFound) {
			t.Errorf("missing group err = %v", err)
		}
		return nil
	})
}

func testOwnerships(t *testing.T, store repository.Store) {
	ctx := context.Background()
	fx := Seed(t, store, 1000, "Ana", "Bia")
	ana := fx.Players[0].ID
	var first model.Ownership
	err := store.WithTx(ctx, func(tx repository.Tx) error {
		list, err := tx.ListOwnerships(ctx, fx.Session.ID)
		if err != nil {
			return err
		}
		if len(list) != 2 {
			t.Fatalf("ownerships = %d, want 2", len(list))
		}
		for _, o := range list {
			if o.Owned() || o.Houses != 0 || o.Mortgaged {
				t.Errorf("fresh record not clean: %+v", o)
			}
			o.OwnerID = &ana
			o.Houses = 2
			if err := tx.SaveOwnership(ctx, o); err != nil {
				return err
			}
		}
		first = list[0]
		group, err := tx.ListGroupOwnerships(ctx, fx.Session.ID, "Rosa")
		if err != nil {
			return err
		}
		if len(group) != 2 || group[0].ID >= group[1].ID {
			t.Errorf("group records = %+v, want two in ID order", group)
		}
		for _, o := range group {
			if !o.OwnedBy(ana) {
				t.Errorf("group record %d not owned by ana", o.ID)
			}
		}
		other, err := tx.ListGroupOwnerships(ctx, fx.Session.ID, "Azul")
		if err != nil {
			return err
		}
		if len(other) != 0 {
			t.Errorf("unknown group records = %d, want 0", len(other))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	err = store.WithTx(ctx, func(tx repository.Tx) error {
		o, err := tx.GetOwnership(ctx, first.ID)
		if err != nil {
			return err
		}
		if !o.OwnedBy(ana) || o.Houses != 2 {
			t.Errorf("record = %+v", o)
		}
		byProp, err := tx.GetOwnershipByProperty(ctx, fx.Session.ID, first.PropertyID)
		if err != nil {
			return err
		}
		if byProp.ID != first.ID {
			t.Errorf("by property = %d, want %d", byProp.ID, first.ID)
		}
		if _, err := tx.GetOwnershipByProperty(ctx, fx.Session.ID, 999); !errors.Is(err, repository.ErrNotFound) {
			t.Errorf("missing property err = %v", err)
		}
		owned, err := tx.ListOwnershipsByOwner(ctx, ana)
		if err != nil {
			return err
		}
		if len(owned) != 2 {
			t.Errorf("owned = %d, want 2", len(owned))
		}
		return tx.ReleaseOwnerships(ctx, ana)
	})
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	_ = store.View(ctx, func(tx repository.Tx) error {
		list, _ := tx.ListOwnerships(ctx, fx.Session.ID)
		for _, o := range list {
			if o.Owned() || o.Houses != 0 {
				t.Errorf("record not released: %+v", o)
			}
		}
		return nil
	})
}

func testHistoryOrder(t *testing.T, store repository.Store) {
	ctx := context.Background()
	fx := Seed(t, store, 0, "Ana")
	for _, k := range []model.HistoryKind{model.KindDeposit, model.KindWithdraw, model.KindTransfer} {
		err := store.WithTx(ctx, func(tx repository.Tx) error {
			return tx.AppendHistory(ctx, &model.HistoryEntry{SessionID: fx.Session.ID, Kind: k, Detail: string(k)})
		})
		if err != nil {
			t.Fatalf("append %s: %v", k, err)
		}
	}
	_ = store.View(ctx, func(tx repository.Tx) error {
		h, err := tx.ListHistory(ctx, fx.Session.ID)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(h) != 3 {
			t.Fatalf("history = %d, want 3", len(h))
		}
		if h[0].Kind != model.KindDeposit || h[2].Kind != model.KindTransfer {
			t.Errorf("order = %v, %v, %v", h[0].Kind, h[1].Kind, h[2].Kind)
		}
		if !(h[0].ID < h[1].ID && h[1].ID < h[2].ID) {
			t.Errorf("ids not increasing: %d %d %d", h[0].ID, h[1].ID, h[2].ID)
		}
		if h[0].At.IsZero() {
			t.Error("timestamp not set")
		}
		return nil
	})
}

func testRollback(t *testing.T, store repository.Store) {
	ctx := context.Background()
	fx := Seed(t, store, 1000, "Ana")
	boom := errors.New("boom")
	err := store.WithTx(ctx, func(tx repository.Tx) error {
		if err := tx.AdjustBalance(ctx, fx.Players[0].ID, 500); err != nil {
			return err
		}
		if err := tx.AppendHistory(ctx, &model.HistoryEntry{SessionID: fx.Session.ID, Kind: model.KindDeposit, Detail: "x"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	_ = store.View(ctx, func(tx repository.Tx) error {
		p, _ := tx.GetPlayer(ctx, fx.Players[0].ID)
		if p.Balance != 1000 {
			t.Errorf("balance = %d after rollback, want 1000", p.Balance)
		}
		h, _ := tx.ListHistory(ctx, fx.Session.ID)
		if len(h) != 0 {
			t.Errorf("history = %d after rollback, want 0", len(h))
		}
		return nil
	})
}

func testDeleteCascade(t *testing.T, store repository.Store) {
	ctx := context.Background()
	fx := Seed(t, store, 1000, "Ana", "Bia")
	err := store.WithTx(ctx, func(tx repository.Tx) error {
		if err := tx.AppendHistory(ctx, &model.HistoryEntry{SessionID: fx.Session.ID, Kind: model.KindDeposit, Detail: "x"}); err != nil {
			return err
		}
		return tx.DeleteSession(ctx, fx.Session.ID)
	})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	_ = store.View(ctx, func(tx repository.Tx) error {
		if _, err := tx.GetSession(ctx, fx.Session.ID); !errors.Is(err, repository.ErrNotFound) {
			t.Errorf("session still present: %v", err)
		}
		if ps, _ := tx.ListPlayers(ctx, fx.Session.ID); len(ps) != 0 {
			t.Errorf("players left: %d", len(ps))
		}
		if os, _ := tx.ListOwnerships(ctx, fx.Session.ID); len(os) != 0 {
			t.Errorf("ownerships left: %d", len(os))
		}
		if h, _ := tx.ListHistory(ctx, fx.Session.ID); len(h) != 0 {
			t.Errorf("history left: %d", len(h))
		}
		if props, _ := tx.ListProperties(ctx); len(props) != 2 {
			t.Errorf("catalog touched: %d properties", len(props))
		}
		return nil
	})
	if err := store.WithTx(ctx, func(tx repository.Tx) error { return tx.DeleteSession(ctx, fx.Session.ID) }); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func testCreatedBefore(t *testing.T, store repository.Store) {
	ctx := context.Background()
	now := time.Now().UTC()
	var old, fresh model.Session
	err := store.WithTx(ctx, func(tx repository.Tx) error {
		old = model.Session{Name: "old", CreatedAt: now.Add(-48 * time.Hour)}
		if err := tx.CreateSession(ctx, &old); err != nil {
			return err
		}
		fresh = model.Session{Name: "fresh", CreatedAt: now}
		return tx.CreateSession(ctx, &fresh)
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_ = store.View(ctx, func(tx repository.Tx) error {
		ids, err := tx.ListSessionsCreatedBefore(ctx, now.Add(-24*time.Hour))
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(ids) != 1 || ids[0] != old.ID {
			t.Errorf("ids = %v, want [%d]", ids, old.ID)
		}
		return nil
	})
}
