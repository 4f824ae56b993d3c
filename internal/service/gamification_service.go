package service

import (
	"context"
	"time"

	"kinetix/backend/internal/domain"
	"kinetix/backend/internal/repository"
	"kinetix/backend/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SweepSummary reports one run of the weekly penalty sweep.
type SweepSummary struct {
	WeekStart time.Time
	Processed int
	Penalized int
	Warned    int
	Failed    int
}

type GamificationService interface {
	// RunWeeklyPenaltySweep classifies every client's previous week and
	// upserts a PenaltyRecord per client. One bad client never aborts the
	// batch; failures are logged and counted.
	RunWeeklyPenaltySweep(ctx context.Context, now time.Time) (*SweepSummary, error)

	GetPenaltyHistory(ctx context.Context, clientID primitive.ObjectID) ([]domain.PenaltyRecord, error)
}

type gamificationService struct {
	clientRepo  repository.ClientProfileRepository
	logRepo     repository.WorkoutLogRepository
	penaltyRepo repository.PenaltyRecordRepository
	log         *logger.Logger
}

func NewGamificationService(
	clientRepo repository.ClientProfileRepository,
	logRepo repository.WorkoutLogRepository,
	penaltyRepo repository.PenaltyRecordRepository,
	log *logger.Logger,
) GamificationService {
	return &gamificationService{
		clientRepo:  clientRepo,
		logRepo:     logRepo,
		penaltyRepo: penaltyRepo,
		log:         log,
	}
}

// RunWeeklyPenaltySweep walks every client and snapshots the week that ended
// before now. The WARNING branch deliberately clears penalty state even when
// one or two workouts were missed; a small slip forgives prior penalties.
func (s *gamificationService) RunWeeklyPenaltySweep(ctx context.Context, now time.Time) (*SweepSummary, error) {
	weekStart := domain.StartOfWeekUTC(now).AddDate(0, 0, -7)
	weekEnd := weekStart.AddDate(0, 0, 7)

	clients, err := s.clientRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	summary := &SweepSummary{WeekStart: weekStart}
	for i := range clients {
		client := &clients[i]
		outcome, err := s.sweepClient(ctx, client, weekStart, weekEnd)
		if err != nil {
			summary.Failed++
			s.log.Errorw("penalty sweep failed for client, skipping",
				"clientId", client.ID.Hex(), "weekStart", weekStart, "error", err)
			continue
		}

		summary.Processed++
		switch outcome {
		case domain.PenaltyMode:
			summary.Penalized++
		case domain.PenaltyWarning:
			summary.Warned++
		}
	}

	s.log.Infow("weekly penalty sweep finished",
		"weekStart", weekStart, "processed", summary.Processed,
		"penalized", summary.Penalized, "warned", summary.Warned, "failed", summary.Failed)
	return summary, nil
}

func (s *gamificationService) sweepClient(ctx context.Context, client *domain.ClientProfile, weekStart, weekEnd time.Time) (domain.PenaltyType, error) {
	scheduled, err := s.logRepo.CountScheduled(ctx, client.ID, weekStart, weekEnd)
	if err != nil {
		return "", err
	}
	missed, err := s.logRepo.CountMissed(ctx, client.ID, weekStart, weekEnd)
	if err != nil {
		return "", err
	}
	completed, err := s.logRepo.CountCompleted(ctx, client.ID, weekStart, weekEnd)
	if err != nil {
		return "", err
	}

	penaltyType := domain.ClassifyMissedWorkouts(int(missed))

	completionRate := 0.0
	if scheduled > 0 {
		completionRate = float64(completed) / float64(scheduled)
	}

	record := &domain.PenaltyRecord{
		ClientID:       client.ID,
		WeekStartDate:  weekStart,
		ScheduledCount: int(scheduled),
		MissedCount:    int(missed),
		CompletionRate: completionRate,
		PenaltyType:    penaltyType,
	}
	inserted, err := s.penaltyRepo.Upsert(ctx, record)
	if err != nil {
		return "", err
	}
	if !inserted {
		// This week was already swept; the profile outcome was applied
		// then. Re-running only refreshes the snapshot.
		return penaltyType, nil
	}

	penalty := penaltyType == domain.PenaltyMode
	err = s.clientRepo.ApplyPenaltyOutcome(ctx, client.ID, penalty, int(missed), penalty)
	if err != nil {
		return "", err
	}
	return penaltyType, nil
}

func (s *gamificationService) GetPenaltyHistory(ctx context.Context, clientID primitive.ObjectID) ([]domain.PenaltyRecord, error) {
	return s.penaltyRepo.ListByClient(ctx, clientID)
}
