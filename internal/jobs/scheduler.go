// Package jobs runs background maintenance on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Reaper ends sessions created before a cutoff.
type Reaper interface {
	ReapSessions(ctx context.Context, cutoff time.Time) (int, error)
}

// Scheduler owns the cron runner and the retention job.
type Scheduler struct {
	cron      *cron.Cron
	reaper    Reaper
	retention time.Duration
	now       func() time.Time
}

// NewScheduler returns a scheduler that, once started, reaps sessions older
// than retention on schedule.  The schedule uses the standard cron syntax
// or a descriptor such as @hourly.
func NewScheduler(reaper Reaper, schedule string, retention time.Duration) (*Scheduler, error) {
	if reaper == nil {
		panic("nil reaper passed to jobs.NewScheduler")
	}
	if retention <= 0 {
		return nil, fmt.Errorf("retention must be positive, got %s", retention)
	}
	s := &Scheduler{
		cron:      cron.New(cron.WithLocation(time.UTC)),
		reaper:    reaper,
		retention: retention,
		now:       time.Now,
	}
	if _, err := s.cron.AddFunc(schedule, func() { s.reap(context.Background()) }); err != nil {
		return nil, fmt.Errorf("session reaper schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Scheduler) reap(ctx context.Context) {
	cutoff := s.now().UTC().Add(-s.retention)
	n, err := s.reaper.ReapSessions(ctx, cutoff)
	if err != nil {
		log.WithError(err).Error("[CRON] session reaper failed")
	}
	if n > 0 {
		log.WithFields(log.Fields{"sessions": n, "cutoff": cutoff}).Info("[CRON] expired sessions removed")
	}
}

// Start launches the cron runner in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.WithField("retention", s.retention).Info("session reaper started")
}

// Stop halts the runner and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("session reaper stopped")
}
