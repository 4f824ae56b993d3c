package service

import (
	"context"
	"testing"
	"time"

	"kinetix/backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newGuardFixture(t *testing.T) (*subscriptionGuardService, *fakeClientRepo, *fakeTrainerRepo) {
	t.Helper()
	clientRepo := newFakeClientRepo()
	trainerRepo := newFakeTrainerRepo()
	guard, ok := NewSubscriptionGuardService(clientRepo, trainerRepo).(*subscriptionGuardService)
	require.True(t, ok)
	return guard, clientRepo, trainerRepo
}

func seedGuardClient(clientRepo *fakeClientRepo, trainerRepo *fakeTrainerRepo, sub domain.Subscription, isActive bool) (userID primitive.ObjectID, trainerID primitive.ObjectID) {
	trainer := trainerRepo.add(&domain.TrainerProfile{
		UserID:       primitive.NewObjectID(),
		Subscription: sub,
		IsActive:     isActive,
		MaxClients:   10,
	})
	userID = primitive.NewObjectID()
	clientRepo.add(&domain.ClientProfile{
		UserID:    userID,
		TrainerID: &trainer.ID,
	})
	return userID, trainer.ID
}

func TestCheckClientAccess_HealthySubscription(t *testing.T) {
	guard, clientRepo, trainerRepo := newGuardFixture(t)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	guard.now = func() time.Time { return now }

	userID, _ := seedGuardClient(clientRepo, trainerRepo, domain.Subscription{
		Status:    domain.SubscriptionActive,
		Tier:      domain.TierBasic,
		ExpiresAt: now.Add(24 * time.Hour),
	}, true)

	assert.NoError(t, guard.CheckClientAccess(context.Background(), userID))
}

func TestCheckClientAccess_UnknownUser(t *testing.T) {
	guard, _, _ := newGuardFixture(t)

	err := guard.CheckClientAccess(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrGuardUnauthorized)
}

func TestCheckClientAccess_NoTrainer(t *testing.T) {
	guard, clientRepo, _ := newGuardFixture(t)

	userID := primitive.NewObjectID()
	clientRepo.add(&domain.ClientProfile{UserID: userID})

	err := guard.CheckClientAccess(context.Background(), userID)
	assert.ErrorIs(t, err, ErrNoTrainerAssigned)
}

func TestCheckClientAccess_SuspendedTrainer(t *testing.T) {
	guard, clientRepo, trainerRepo := newGuardFixture(t)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	guard.now = func() time.Time { return now }

	userID, _ := seedGuardClient(clientRepo, trainerRepo, domain.Subscription{
		Status:    domain.SubscriptionSuspended,
		Tier:      domain.TierBasic,
		ExpiresAt: now.Add(24 * time.Hour),
	}, false)

	err := guard.CheckClientAccess(context.Background(), userID)
	assert.ErrorIs(t, err, ErrSubscriptionInactive)
}

func TestCheckClientAccess_ExpiredSuspendsLazily(t *testing.T) {
	guard, clientRepo, trainerRepo := newGuardFixture(t)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	guard.now = func() time.Time { return now }

	userID, trainerID := seedGuardClient(clientRepo, trainerRepo, domain.Subscription{
		Status:    domain.SubscriptionActive,
		Tier:      domain.TierPro,
		ExpiresAt: now.Add(-time.Hour),
	}, true)

	err := guard.CheckClientAccess(context.Background(), userID)
	assert.ErrorIs(t, err, ErrSubscriptionExpired)

	// The denial has a side effect: the trainer is now suspended.
	trainer, err := trainerRepo.GetByID(context.Background(), trainerID)
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionSuspended, trainer.Subscription.Status)
	assert.False(t, trainer.IsActive)
}

func TestCheckClientAccess_ExpiredIsIdempotent(t *testing.T) {
	guard, clientRepo, trainerRepo := newGuardFixture(t)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	guard.now = func() time.Time { return now }

	userID, trainerID := seedGuardClient(clientRepo, trainerRepo, domain.Subscription{
		Status:    domain.SubscriptionActive,
		Tier:      domain.TierPro,
		ExpiresAt: now.Add(-time.Hour),
	}, true)

	// First check flips the trainer to suspended, the second sees the
	// suspended state. Both deny.
	err := guard.CheckClientAccess(context.Background(), userID)
	assert.ErrorIs(t, err, ErrSubscriptionExpired)

	err = guard.CheckClientAccess(context.Background(), userID)
	assert.ErrorIs(t, err, ErrSubscriptionInactive)

	trainer, err := trainerRepo.GetByID(context.Background(), trainerID)
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionSuspended, trainer.Subscription.Status)
}

func TestCheckClientAccess_MissingTrainerProfile(t *testing.T) {
	guard, clientRepo, _ := newGuardFixture(t)

	userID := primitive.NewObjectID()
	danglingTrainer := primitive.NewObjectID()
	clientRepo.add(&domain.ClientProfile{UserID: userID, TrainerID: &danglingTrainer})

	err := guard.CheckClientAccess(context.Background(), userID)
	assert.ErrorIs(t, err, ErrSubscriptionInactive)
}
