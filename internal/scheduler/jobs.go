package scheduler

import (
	"context"
	"time"

	"kinetix/backend/internal/repository"
	"kinetix/backend/internal/service"
	"kinetix/backend/pkg/logger"
)

// Cron specs for the built-in jobs (UTC).
const (
	SpecWeeklyPenaltySweep = "0 0 * * 1" // Monday 00:00
	SpecMissedMarking      = "30 0 * * *"
	SpecExpirySweep        = "0 3 * * *"
	SpecLogPurge           = "0 4 * * *"
)

// Jobs bundles the periodic job bodies with their dependencies.
type Jobs struct {
	Gamification service.GamificationService
	WorkoutLogs  service.WorkoutLogService
	TrainerRepo  repository.TrainerProfileRepository
	Log          *logger.Logger
}

// RegisterAll wires every built-in job onto the scheduler.
func (j *Jobs) RegisterAll(s Scheduler) error {
	register := []struct {
		spec, name string
		fn         JobFunc
	}{
		{SpecWeeklyPenaltySweep, "weekly_penalty_sweep", j.WeeklyPenaltySweep},
		{SpecMissedMarking, "mark_missed_workouts", j.MarkMissedWorkouts},
		{SpecExpirySweep, "suspend_expired_trainers", j.SuspendExpiredTrainers},
		{SpecLogPurge, "purge_old_logs", j.PurgeOldLogs},
	}
	for _, r := range register {
		if err := s.RegisterPeriodic(r.spec, r.name, r.fn); err != nil {
			return err
		}
	}
	return nil
}

// WeeklyPenaltySweep classifies every client's previous week.
func (j *Jobs) WeeklyPenaltySweep(ctx context.Context) error {
	_, err := j.Gamification.RunWeeklyPenaltySweep(ctx, time.Now())
	return err
}

// MarkMissedWorkouts flags overdue incomplete logs as missed.
func (j *Jobs) MarkMissedWorkouts(ctx context.Context) error {
	n, err := j.WorkoutLogs.MarkOverdueMissed(ctx, time.Now())
	if err != nil {
		return err
	}
	j.Log.Infow("marked overdue workouts missed", "count", n)
	return nil
}

// SuspendExpiredTrainers is the proactive complement to the guard's lazy
// expiry check: one bulk update, no per-document looping.
func (j *Jobs) SuspendExpiredTrainers(ctx context.Context) error {
	n, err := j.TrainerRepo.SuspendAllExpired(ctx, time.Now())
	if err != nil {
		return err
	}
	if n > 0 {
		j.Log.Infow("suspended expired trainers", "count", n)
	}
	return nil
}

// PurgeOldLogs deletes workout logs past retention.
func (j *Jobs) PurgeOldLogs(ctx context.Context) error {
	n, err := j.WorkoutLogs.PurgeOldLogs(ctx, time.Now())
	if err != nil {
		return err
	}
	j.Log.Infow("purged old workout logs", "count", n)
	return nil
}

// RunByName triggers one job immediately. Used by the admin endpoint.
func (j *Jobs) RunByName(ctx context.Context, name string) (bool, error) {
	switch name {
	case "weekly_penalty_sweep":
		return true, j.WeeklyPenaltySweep(ctx)
	case "mark_missed_workouts":
		return true, j.MarkMissedWorkouts(ctx)
	case "suspend_expired_trainers":
		return true, j.SuspendExpiredTrainers(ctx)
	case "purge_old_logs":
		return true, j.PurgeOldLogs(ctx)
	default:
		return false, nil
	}
}
