// Package scheduler runs periodic housekeeping jobs.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// SessionPurger deletes expired login sessions.
type SessionPurger interface {
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

type Scheduler struct {
	cron    *cron.Cron
	purger  SessionPurger
	logger  *slog.Logger
	timeout time.Duration
}

// New registers the session purge job on schedule, a standard five-field cron
// expression or a descriptor such as "@hourly".
func New(schedule string, purger SessionPurger, logger *slog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(),
		purger:  purger,
		logger:  logger,
		timeout: 30 * time.Second,
	}
	if _, err := s.cron.AddFunc(schedule, s.purge); err != nil {
		return nil, fmt.Errorf("scheduling session purge %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// RunNow purges expired sessions immediately.
func (s *Scheduler) RunNow(ctx context.Context) (int64, error) {
	return s.purger.PurgeExpiredSessions(ctx)
}

func (s *Scheduler) purge() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	n, err := s.RunNow(ctx)
	if err != nil {
		s.logger.Error("session purge failed", "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("expired sessions purged", "count", n)
	}
}
