package service

import (
	"context"
	"errors"
	"time"

	"kinetix/backend/internal/domain"
	"kinetix/backend/internal/repository"
	"kinetix/backend/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrLogNotFound         = errors.New("workout log not found")
	ErrLogAccessDenied     = errors.New("access denied to this workout log")
	ErrLogAlreadyCompleted = errors.New("workout log is already completed")
	ErrPlanHasNoWorkouts   = errors.New("plan has no workout days defined")
)

// Logs older than this are purged by the cleanup job.
const logRetention = 180 * 24 * time.Hour

type WorkoutLogService interface {
	// GenerateWeekLogs materializes one log per plan-defined day for the
	// week starting at startDate. Existing (client, day) logs are skipped,
	// making re-assignment idempotent. Returns the number of new logs.
	GenerateWeekLogs(ctx context.Context, client *domain.ClientProfile, plan *domain.WeeklyPlan, startDate time.Time) (int, error)

	GetLogsForClient(ctx context.Context, clientID primitive.ObjectID, from, to time.Time) ([]domain.WorkoutLog, error)
	GetTodayLog(ctx context.Context, clientID primitive.ObjectID) (*domain.WorkoutLog, error)
	CompleteWorkout(ctx context.Context, clientID, logID primitive.ObjectID, completed []domain.CompletedExercise, notes string) (*domain.WorkoutLog, error)

	// Cron bodies.
	MarkOverdueMissed(ctx context.Context, now time.Time) (int64, error)
	PurgeOldLogs(ctx context.Context, now time.Time) (int64, error)
}

type workoutLogService struct {
	logRepo    repository.WorkoutLogRepository
	clientRepo repository.ClientProfileRepository
	log        *logger.Logger
}

func NewWorkoutLogService(
	logRepo repository.WorkoutLogRepository,
	clientRepo repository.ClientProfileRepository,
	log *logger.Logger,
) WorkoutLogService {
	return &workoutLogService{
		logRepo:    logRepo,
		clientRepo: clientRepo,
		log:        log,
	}
}

// GenerateWeekLogs builds logs for days 0..6 from the normalized start date.
// Day offsets map to Monday-first weekday numbers via the actual calendar
// date, so a mid-week start still labels each log correctly.
func (s *workoutLogService) GenerateWeekLogs(ctx context.Context, client *domain.ClientProfile, plan *domain.WeeklyPlan, startDate time.Time) (int, error) {
	if client.TrainerID == nil || *client.TrainerID == primitive.NilObjectID {
		return 0, ErrClientNotManaged
	}
	if len(plan.Workouts) == 0 {
		return 0, ErrPlanHasNoWorkouts
	}

	start := domain.StartOfDayUTC(startDate)
	end := start.AddDate(0, 0, 7)

	// One query up front to find days that already have a log.
	existing, err := s.logRepo.GetByClientAndRange(ctx, client.ID, start, end)
	if err != nil {
		return 0, err
	}
	existingDays := make(map[time.Time]bool, len(existing))
	for _, l := range existing {
		existingDays[domain.StartOfDayUTC(l.WorkoutDate)] = true
	}

	var toInsert []domain.WorkoutLog
	for offset := 0; offset < 7; offset++ {
		day := start.AddDate(0, 0, offset)
		if existingDays[day] {
			continue
		}

		planDay := plan.DayFor(domain.WeekdayMondayFirst(day))
		if planDay == nil {
			// The plan defines nothing for this weekday; no log.
			continue
		}

		toInsert = append(toInsert, domain.WorkoutLog{
			ClientID:         client.ID,
			TrainerID:        *client.TrainerID,
			PlanID:           plan.ID,
			WorkoutDate:      day,
			DayOfWeek:        domain.WeekdayMondayFirst(day),
			Title:            planDay.Title,
			PlannedExercises: planDay.Exercises,
		})
	}

	if len(toInsert) == 0 {
		return 0, nil
	}

	inserted, err := s.logRepo.InsertMany(ctx, toInsert)
	if err != nil {
		// A racing assignment can win some of the days first. The unique
		// index guarantees each day exists exactly once, so a partial insert
		// is a success from the caller's point of view.
		if errors.Is(err, repository.ErrDuplicate) {
			s.log.Warnw("duplicate workout logs during generation, recovering",
				"clientId", client.ID.Hex(), "planId", plan.ID.Hex(), "inserted", inserted)
			return inserted, nil
		}
		return inserted, err
	}
	return inserted, nil
}

func (s *workoutLogService) GetLogsForClient(ctx context.Context, clientID primitive.ObjectID, from, to time.Time) ([]domain.WorkoutLog, error) {
	return s.logRepo.GetByClientAndRange(ctx, clientID, domain.StartOfDayUTC(from), domain.StartOfDayUTC(to).AddDate(0, 0, 1))
}

func (s *workoutLogService) GetTodayLog(ctx context.Context, clientID primitive.ObjectID) (*domain.WorkoutLog, error) {
	log, err := s.logRepo.GetByClientAndDate(ctx, clientID, time.Now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLogNotFound
		}
		return nil, err
	}
	return log, nil
}

// CompleteWorkout records the client's completion and bumps the profile
// counters. Completing a log that was already flagged missed clears the flag;
// a late workout still counts.
func (s *workoutLogService) CompleteWorkout(ctx context.Context, clientID, logID primitive.ObjectID, completed []domain.CompletedExercise, notes string) (*domain.WorkoutLog, error) {
	log, err := s.logRepo.GetByID(ctx, logID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLogNotFound
		}
		return nil, err
	}
	if log.ClientID != clientID {
		return nil, ErrLogAccessDenied
	}
	if log.IsCompleted {
		return nil, ErrLogAlreadyCompleted
	}

	now := time.Now().UTC()
	log.CompletedExercises = completed
	log.IsCompleted = true
	log.CompletedAt = &now
	log.IsMissed = false
	log.ClientNotes = notes

	if err := s.logRepo.Update(ctx, log); err != nil {
		return nil, err
	}

	if err := s.clientRepo.RecordCompletion(ctx, clientID); err != nil {
		// The log is saved; counter drift here is repaired by the weekly
		// sweep, so log and continue.
		s.log.Errorw("failed to record completion counters", "clientId", clientID.Hex(), "error", err)
	}

	return log, nil
}

func (s *workoutLogService) MarkOverdueMissed(ctx context.Context, now time.Time) (int64, error) {
	return s.logRepo.MarkOverdueMissed(ctx, now)
}

func (s *workoutLogService) PurgeOldLogs(ctx context.Context, now time.Time) (int64, error) {
	return s.logRepo.DeleteOlderThan(ctx, now.Add(-logRetention))
}
