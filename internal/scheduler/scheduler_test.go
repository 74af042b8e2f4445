package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
)

type countingPurger struct {
	calls atomic.Int32
	err   error
}

func (p *countingPurger) PurgeExpiredSessions(context.Context) (int64, error) {
	p.calls.Add(1)
	return 3, p.err
}

func TestNewRejectsBadSchedule(t *testing.T) {
	if _, err := New("every tuesday", &countingPurger{}, slog.Default()); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}

func TestRunNow(t *testing.T) {
	p := &countingPurger{}
	s, err := New("@hourly", p, slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	n, err := s.RunNow(context.Background())
	if err != nil || n != 3 {
		t.Errorf("RunNow() = %d, %v", n, err)
	}
	if got := p.calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestPurgeSwallowsErrors(t *testing.T) {
	p := &countingPurger{err: errors.New("db closed")}
	s, err := New("@every 1h", p, slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	s.purge()
	if got := p.calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestStartStop(t *testing.T) {
	s, err := New("@daily", &countingPurger{}, slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	s.Start()
	if len(s.cron.Entries()) != 1 {
		t.Errorf("entries = %d, want 1", len(s.cron.Entries()))
	}
	s.Stop()
}
