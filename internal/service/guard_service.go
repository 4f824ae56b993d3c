package service

import (
	"context"
	"errors"
	"time"

	"kinetix/backend/internal/domain"
	"kinetix/backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	// ErrGuardUnauthorized means the principal could not be tied to a client
	// profile at all; the guard fails closed.
	ErrGuardUnauthorized = errors.New("client profile not found")
	// ErrNoTrainerAssigned means the client has no trainer yet.
	ErrNoTrainerAssigned = errors.New("no trainer assigned")
	// ErrSubscriptionInactive means the trainer exists but is suspended,
	// cancelled or otherwise switched off.
	ErrSubscriptionInactive = errors.New("trainer subscription is not active")
	// ErrSubscriptionExpired means the expiry timestamp passed; the trainer
	// has been lazily suspended as a side effect of this check.
	ErrSubscriptionExpired = errors.New("trainer subscription has expired")
	// ErrGuardCheckFailed hides unexpected lookup failures from callers.
	ErrGuardCheckFailed = errors.New("unable to verify subscription")
)

// SubscriptionGuardService is the kill-switch: every client-scoped request
// runs through CheckClientAccess before touching client data.
type SubscriptionGuardService interface {
	CheckClientAccess(ctx context.Context, userID primitive.ObjectID) error
}

type subscriptionGuardService struct {
	clientRepo  repository.ClientProfileRepository
	trainerRepo repository.TrainerProfileRepository
	now         func() time.Time
}

func NewSubscriptionGuardService(
	clientRepo repository.ClientProfileRepository,
	trainerRepo repository.TrainerProfileRepository,
) SubscriptionGuardService {
	return &subscriptionGuardService{
		clientRepo:  clientRepo,
		trainerRepo: trainerRepo,
		now:         time.Now,
	}
}

// CheckClientAccess gates a client principal behind their trainer's
// subscription health. Non-client roles never reach this method; the
// middleware lets them through unconditionally.
//
// The expiry branch mutates trainer state during an otherwise read-only
// check: an expired-but-still-active trainer is flipped to suspended before
// the denial is returned. The flip is a conditional update keyed on
// status=active, so repeated invocations are idempotent.
func (s *subscriptionGuardService) CheckClientAccess(ctx context.Context, userID primitive.ObjectID) error {
	client, err := s.clientRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrGuardUnauthorized
		}
		return ErrGuardCheckFailed
	}

	if client.TrainerID == nil || *client.TrainerID == primitive.NilObjectID {
		return ErrNoTrainerAssigned
	}

	ref, err := s.resolveTrainer(ctx, domain.UnresolvedTrainerRef(*client.TrainerID))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSubscriptionInactive
		}
		return ErrGuardCheckFailed
	}
	trainer := ref.Resolved

	now := s.now().UTC()
	if trainer.IsActive && trainer.Subscription.IsHealthy(now) {
		return nil
	}

	if !trainer.IsActive || trainer.Subscription.Status != domain.SubscriptionActive {
		return ErrSubscriptionInactive
	}

	// Status is still active, so the expiry timestamp is what failed.
	// Lazy expiration: suspend on first detection, deny either way.
	if _, err := s.trainerRepo.SuspendIfExpired(ctx, trainer.ID, now); err != nil {
		return ErrGuardCheckFailed
	}
	return ErrSubscriptionExpired
}

// resolveTrainer loads the profile behind a TrainerRef unless it already
// carries one.
func (s *subscriptionGuardService) resolveTrainer(ctx context.Context, ref domain.TrainerRef) (domain.TrainerRef, error) {
	if ref.IsResolved() {
		return ref, nil
	}
	profile, err := s.trainerRepo.GetByID(ctx, ref.ID)
	if err != nil {
		return domain.TrainerRef{}, err
	}
	return domain.ResolvedTrainerRef(profile), nil
}
