package repository

import (
	"context"
	"time"

	"kinetix/backend/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer.
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicate    = RepositoryError("duplicate document")
	ErrUpdateFailed = RepositoryError("update failed")
)

// RepositoryError helps distinguish repository errors.
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with identity records.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.User, error)
}

// TrainerProfileRepository manages trainer profiles and subscription state.
type TrainerProfileRepository interface {
	Create(ctx context.Context, profile *domain.TrainerProfile) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TrainerProfile, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.TrainerProfile, error)
	UpdateDetails(ctx context.Context, id primitive.ObjectID, bio string, specializations []string) error
	UpdateSubscription(ctx context.Context, id primitive.ObjectID, sub domain.Subscription, maxClients int, isActive bool) error
	AddClientID(ctx context.Context, trainerID, clientID primitive.ObjectID) error
	RemoveClientID(ctx context.Context, trainerID, clientID primitive.ObjectID) error

	// SuspendIfExpired atomically flips an active trainer whose subscription
	// expired before now to suspended/inactive. Returns true when this call
	// performed the flip (false when already suspended — idempotent).
	SuspendIfExpired(ctx context.Context, id primitive.ObjectID, now time.Time) (bool, error)

	// SuspendAllExpired bulk-suspends every active trainer past expiry and
	// returns the number of trainers modified.
	SuspendAllExpired(ctx context.Context, now time.Time) (int64, error)

	ListAll(ctx context.Context) ([]domain.TrainerProfile, error)
}

// ClientProfileRepository manages client profiles and gamification counters.
type ClientProfileRepository interface {
	Create(ctx context.Context, profile *domain.ClientProfile) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ClientProfile, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.ClientProfile, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.ClientProfile, error)
	UpdateAttributes(ctx context.Context, id primitive.ObjectID, goal string, level domain.FitnessLevel, heightCm, weightKg float64) error
	SetTrainer(ctx context.Context, id, trainerID primitive.ObjectID) error
	ClearTrainer(ctx context.Context, id primitive.ObjectID) error
	SetActivePlan(ctx context.Context, id, planID primitive.ObjectID, start, end time.Time) error

	// RecordCompletion bumps the streak and completion counters after a
	// workout is logged as done.
	RecordCompletion(ctx context.Context, id primitive.ObjectID) error

	// ApplyPenaltyOutcome writes the weekly sweep result onto the profile.
	// missedDelta is added to consecutiveMissedWorkouts; resetStreak zeroes
	// currentStreak. Clearing penalty state passes penalty=false, delta
	// ignored (the counter is reset to zero).
	ApplyPenaltyOutcome(ctx context.Context, id primitive.ObjectID, penalty bool, missedDelta int, resetStreak bool) error

	ListAll(ctx context.Context) ([]domain.ClientProfile, error)
}

// WeeklyPlanRepository manages plan templates and their assignment fan-out.
type WeeklyPlanRepository interface {
	Create(ctx context.Context, plan *domain.WeeklyPlan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WeeklyPlan, error)
	GetByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.WeeklyPlan, error)
	Update(ctx context.Context, plan *domain.WeeklyPlan) error
	Delete(ctx context.Context, id, trainerID primitive.ObjectID) error

	// AddAssignedClients adds client IDs to the plan's assigned set
	// ($addToSet semantics, no duplicates).
	AddAssignedClients(ctx context.Context, planID primitive.ObjectID, clientIDs []primitive.ObjectID) error
}

// WorkoutLogRepository manages the per-day log documents.
type WorkoutLogRepository interface {
	// InsertMany bulk-inserts logs unordered. Duplicate-key collisions with
	// the (clientId, workoutDate) unique index are reported as ErrDuplicate
	// alongside the count of documents that did make it in.
	InsertMany(ctx context.Context, logs []domain.WorkoutLog) (int, error)

	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutLog, error)
	GetByClientAndRange(ctx context.Context, clientID primitive.ObjectID, from, to time.Time) ([]domain.WorkoutLog, error)
	GetByClientAndDate(ctx context.Context, clientID primitive.ObjectID, day time.Time) (*domain.WorkoutLog, error)
	Update(ctx context.Context, log *domain.WorkoutLog) error

	CountScheduled(ctx context.Context, clientID primitive.ObjectID, from, to time.Time) (int64, error)
	CountMissed(ctx context.Context, clientID primitive.ObjectID, from, to time.Time) (int64, error)
	CountCompleted(ctx context.Context, clientID primitive.ObjectID, from, to time.Time) (int64, error)

	// MarkOverdueMissed flags every incomplete log dated before today as
	// missed. Returns the number of logs updated.
	MarkOverdueMissed(ctx context.Context, today time.Time) (int64, error)

	// DeleteOlderThan removes logs before the cutoff and returns the count.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// CheckInRepository manages gym-visit submissions.
type CheckInRepository interface {
	Create(ctx context.Context, checkIn *domain.CheckIn) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.CheckIn, error)
	GetByClientAndDate(ctx context.Context, clientID primitive.ObjectID, day time.Time) (*domain.CheckIn, error)
	ListByClient(ctx context.Context, clientID primitive.ObjectID, limit int64) ([]domain.CheckIn, error)
	ListByTrainer(ctx context.Context, trainerID primitive.ObjectID, status domain.CheckInStatus, limit int64) ([]domain.CheckIn, error)
	SetVerification(ctx context.Context, id primitive.ObjectID, status domain.CheckInStatus, comment string, at time.Time) error
}

// PenaltyRecordRepository manages the weekly penalty snapshots.
type PenaltyRecordRepository interface {
	// Upsert writes the record keyed on (clientId, weekStartDate). The
	// returned bool reports whether a new record was inserted; false means
	// the week had already been recorded and only the snapshot fields were
	// refreshed.
	Upsert(ctx context.Context, record *domain.PenaltyRecord) (bool, error)
	ListByClient(ctx context.Context, clientID primitive.ObjectID) ([]domain.PenaltyRecord, error)
}
