package jobs

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeReaper struct {
	cutoffs []time.Time
	n       int
	err     error
}

func (f *fakeReaper) ReapSessions(_ context.Context, cutoff time.Time) (int, error) {
	f.cutoffs = append(f.cutoffs, cutoff)
	return f.n, f.err
}

func TestReapUsesRetentionCutoff(t *testing.T) {
	r := &fakeReaper{n: 2}
	s, err := NewScheduler(r, "@hourly", 24*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.reap(context.Background())
	r.err = errors.New("db down")
	s.reap(context.Background())

	if len(r.cutoffs) != 2 {
		t.Fatalf("reaper called %d times", len(r.cutoffs))
	}
	if want := now.Add(-24 * time.Hour); !r.cutoffs[0].Equal(want) {
		t.Fatalf("cutoff = %s, want %s", r.cutoffs[0], want)
	}
}

func TestNewSchedulerRejectsBadInput(t *testing.T) {
	if _, err := NewScheduler(&fakeReaper{}, "not a schedule", time.Hour); err == nil {
		t.Fatal("expected schedule error")
	}
	if _, err := NewScheduler(&fakeReaper{}, "@hourly", 0); err == nil {
		t.Fatal("expected retention error")
	}
}

func TestStartStop(t *testing.T) {
	s, err := NewScheduler(&fakeReaper{}, "@every 1h", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	s.Start()
	s.Stop()
}
