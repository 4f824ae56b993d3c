package scheduler

import (
	"context"
	"time"

	"kinetix/backend/pkg/logger"

	"github.com/robfig/cron/v3"
)

// JobFunc is a periodic job body. Jobs must be safe to re-run; the scheduler
// gives no exactly-once or mutual-exclusion guarantees against API writes.
type JobFunc func(ctx context.Context) error

// Scheduler registers periodic jobs. The host process owns the instance and
// its lifecycle; job bodies are plain functions over injected services.
type Scheduler interface {
	RegisterPeriodic(spec, name string, job JobFunc) error
	Start()
	Stop(ctx context.Context) error
}

// cronScheduler implements Scheduler on top of robfig/cron.
type cronScheduler struct {
	cron       *cron.Cron
	log        *logger.Logger
	jobTimeout time.Duration
}

func New(log *logger.Logger) Scheduler {
	return &cronScheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		log:        log,
		jobTimeout: 10 * time.Minute,
	}
}

// RegisterPeriodic schedules job under a standard 5-field cron spec,
// evaluated in UTC.
func (s *cronScheduler) RegisterPeriodic(spec, name string, job JobFunc) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
		defer cancel()

		start := time.Now()
		if err := job(ctx); err != nil {
			s.log.Errorw("scheduled job failed", "job", name, "error", err)
			return
		}
		s.log.Infow("scheduled job finished", "job", name, "duration", time.Since(start))
	})
	if err != nil {
		return err
	}
	s.log.Infow("scheduled job registered", "job", name, "spec", spec)
	return nil
}

func (s *cronScheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs, bounded by ctx.
func (s *cronScheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop().Done()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
