package service

import (
	"context"
	"log/slog"
	"time"
)

// Job is one unit of scheduled work.
type Job func(ctx context.Context)

// Scheduler runs a job on a fixed interval and whenever Trigger is called.
// Triggers that arrive while the job is running collapse into one.
type Scheduler struct {
	name     string
	interval time.Duration
	job      Job
	trigger  chan struct{}
}

func NewScheduler(name string, interval time.Duration, job Job) *Scheduler {
	return &Scheduler{
		name:     name,
		interval: interval,
		job:      job,
		trigger:  make(chan struct{}, 1),
	}
}

// Trigger requests an immediate run without blocking.
func (s *Scheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Run executes the job once at start, then on every tick or trigger until ctx
// is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	slog.Info("scheduler started", "name", s.name, "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.job(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped", "name", s.name)
			return

		case <-ticker.C:
			s.job(ctx)

		case <-s.trigger:
			s.job(ctx)
		}
	}
}
