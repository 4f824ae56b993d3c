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

// SyncItemKind distinguishes the payload types a mobile batch can carry.
type SyncItemKind string

const (
	SyncLogCompletion SyncItemKind = "log_completion"
	SyncCheckIn       SyncItemKind = "check_in"
)

// SyncItemStatus is the per-item outcome of a batch.
type SyncItemStatus string

const (
	SyncApplied SyncItemStatus = "applied"
	SyncSkipped SyncItemStatus = "skipped"
	SyncFailed  SyncItemStatus = "failed"
)

// SyncItem is one offline-captured action.
type SyncItem struct {
	Kind SyncItemKind
	Date time.Time

	// log_completion fields
	CompletedExercises []domain.CompletedExercise
	Notes              string

	// check_in fields
	PhotoObjectKey string
	Latitude       float64
	Longitude      float64
}

// SyncItemResult reports what happened to one item.
type SyncItemResult struct {
	Kind   SyncItemKind
	Date   time.Time
	Status SyncItemStatus
	Reason string
}

// TrainingSyncService reconciles offline-captured logs and check-ins from a
// mobile client against server state. Server state wins on conflict; an
// already-completed log or existing check-in turns the item into a skip,
// never an error, and one bad item never aborts the batch.
type TrainingSyncService interface {
	SyncBatch(ctx context.Context, clientID primitive.ObjectID, items []SyncItem) ([]SyncItemResult, error)
}

type trainingSyncService struct {
	logRepo     repository.WorkoutLogRepository
	logService  WorkoutLogService
	checkInSvc  CheckInService
	checkInRepo repository.CheckInRepository
	log         *logger.Logger
}

func NewTrainingSyncService(
	logRepo repository.WorkoutLogRepository,
	logService WorkoutLogService,
	checkInSvc CheckInService,
	checkInRepo repository.CheckInRepository,
	log *logger.Logger,
) TrainingSyncService {
	return &trainingSyncService{
		logRepo:     logRepo,
		logService:  logService,
		checkInSvc:  checkInSvc,
		checkInRepo: checkInRepo,
		log:         log,
	}
}

func (s *trainingSyncService) SyncBatch(ctx context.Context, clientID primitive.ObjectID, items []SyncItem) ([]SyncItemResult, error) {
	results := make([]SyncItemResult, 0, len(items))

	for _, item := range items {
		result := SyncItemResult{Kind: item.Kind, Date: domain.StartOfDayUTC(item.Date)}

		switch item.Kind {
		case SyncLogCompletion:
			result.Status, result.Reason = s.applyLogCompletion(ctx, clientID, item)
		case SyncCheckIn:
			result.Status, result.Reason = s.applyCheckIn(ctx, clientID, item)
		default:
			result.Status = SyncFailed
			result.Reason = "unknown item kind"
		}

		if result.Status == SyncFailed {
			s.log.Warnw("sync item failed",
				"clientId", clientID.Hex(), "kind", item.Kind, "date", item.Date, "reason", result.Reason)
		}
		results = append(results, result)
	}

	return results, nil
}

func (s *trainingSyncService) applyLogCompletion(ctx context.Context, clientID primitive.ObjectID, item SyncItem) (SyncItemStatus, string) {
	log, err := s.logRepo.GetByClientAndDate(ctx, clientID, item.Date)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return SyncFailed, "no workout log exists for this day"
		}
		return SyncFailed, "lookup failed"
	}

	if log.IsCompleted {
		// Completed on the server while the device was offline.
		return SyncSkipped, "already completed on server"
	}

	if _, err := s.logService.CompleteWorkout(ctx, clientID, log.ID, item.CompletedExercises, item.Notes); err != nil {
		if errors.Is(err, ErrLogAlreadyCompleted) {
			return SyncSkipped, "already completed on server"
		}
		return SyncFailed, err.Error()
	}
	return SyncApplied, ""
}

func (s *trainingSyncService) applyCheckIn(ctx context.Context, clientID primitive.ObjectID, item SyncItem) (SyncItemStatus, string) {
	_, err := s.checkInSvc.SubmitCheckIn(ctx, clientID, item.Date, item.PhotoObjectKey, item.Latitude, item.Longitude)
	if err != nil {
		if errors.Is(err, ErrCheckInExists) {
			return SyncSkipped, "check-in already exists for this day"
		}
		return SyncFailed, err.Error()
	}
	return SyncApplied, ""
}
