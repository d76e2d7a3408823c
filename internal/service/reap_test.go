package service

import (
	"context"
	"testing"
	"time"

	"github.com/iliyamo/sgp-controller/internal/catalog"
	"github.com/iliyamo/sgp-controller/internal/repository/memstore"
)

func TestReapSessions(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	c, err := catalog.Default()
	if err != nil {
		t.Fatal(err)
	}
	if err := catalog.Seed(ctx, store, c); err != nil {
		t.Fatal(err)
	}
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc := New(store, WithClock(func() time.Time { return now }))
	players := []NewPlayer{{Name: "A", Color: "red"}, {Name: "B", Color: "blue"}}

	old, err := svc.CreateSession(ctx, "velha", players)
	if err != nil {
		t.Fatal(err)
	}
	now = now.Add(48 * time.Hour)
	fresh, err := svc.CreateSession(ctx, "nova", players)
	if err != nil {
		t.Fatal(err)
	}

	n, err := svc.ReapSessions(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("reap: %v", err)
	}
	if n != 1 {
		t.Fatalf("reaped %d sessions, want 1", n)
	}
	if _, err := svc.LoadSession(ctx, old.Session.ID); err == nil {
		t.Fatal("old session survived")
	}
	if _, err := svc.LoadSession(ctx, fresh.Session.ID); err != nil {
		t.Fatalf("fresh session: %v", err)
	}
}
