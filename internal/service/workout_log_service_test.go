package service

import (
	"context"
	"sort"
	"testing"
	"time"

	"kinetix/backend/internal/domain"
	"kinetix/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func fullWeekPlan(trainerID primitive.ObjectID) *domain.WeeklyPlan {
	days := make([]domain.PlanDay, 7)
	for i := range days {
		days[i] = domain.PlanDay{
			DayOfWeek: i + 1,
			Title:     "Day session",
			Exercises: []domain.PlannedExercise{{Name: "Squat", Sets: 3, Reps: "5"}},
		}
	}
	return &domain.WeeklyPlan{
		ID:        primitive.NewObjectID(),
		TrainerID: trainerID,
		Name:      "Full week",
		Workouts:  days,
	}
}

func newLogFixture() (WorkoutLogService, *fakeLogRepo, *fakeClientRepo) {
	logRepo := newFakeLogRepo()
	clientRepo := newFakeClientRepo()
	svc := NewWorkoutLogService(logRepo, clientRepo, logger.NewNop())
	return svc, logRepo, clientRepo
}

func TestGenerateWeekLogs_FullWeek(t *testing.T) {
	svc, logRepo, clientRepo := newLogFixture()

	trainerID := primitive.NewObjectID()
	client := clientRepo.add(&domain.ClientProfile{
		UserID:    primitive.NewObjectID(),
		TrainerID: &trainerID,
	})
	plan := fullWeekPlan(trainerID)

	// 2025-01-06 is a Monday.
	start := time.Date(2025, 1, 6, 15, 30, 0, 0, time.UTC)
	created, err := svc.GenerateWeekLogs(context.Background(), client, plan, start)
	require.NoError(t, err)
	assert.Equal(t, 7, created)

	logs, err := logRepo.GetByClientAndRange(context.Background(), client.ID,
		time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, logs, 7)

	sort.Slice(logs, func(i, j int) bool { return logs[i].WorkoutDate.Before(logs[j].WorkoutDate) })
	for i, l := range logs {
		assert.Equal(t, time.Date(2025, 1, 6+i, 0, 0, 0, 0, time.UTC), l.WorkoutDate)
		assert.Equal(t, i+1, l.DayOfWeek)
		assert.False(t, l.IsCompleted)
		assert.False(t, l.IsMissed)
		assert.Equal(t, plan.ID, l.PlanID)
		assert.Equal(t, trainerID, l.TrainerID)
	}
}

func TestGenerateWeekLogs_SkipsUndefinedDays(t *testing.T) {
	svc, _, clientRepo := newLogFixture()

	trainerID := primitive.NewObjectID()
	client := clientRepo.add(&domain.ClientProfile{
		UserID:    primitive.NewObjectID(),
		TrainerID: &trainerID,
	})
	plan := &domain.WeeklyPlan{
		ID:        primitive.NewObjectID(),
		TrainerID: trainerID,
		Workouts: []domain.PlanDay{
			{DayOfWeek: 1, Title: "Push"},
			{DayOfWeek: 3, Title: "Pull"},
			{DayOfWeek: 5, Title: "Legs"},
		},
	}

	created, err := svc.GenerateWeekLogs(context.Background(), client, plan, time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 3, created)
}

func TestGenerateWeekLogs_ReassignmentIsIdempotent(t *testing.T) {
	svc, _, clientRepo := newLogFixture()

	trainerID := primitive.NewObjectID()
	client := clientRepo.add(&domain.ClientProfile{
		UserID:    primitive.NewObjectID(),
		TrainerID: &trainerID,
	})
	plan := fullWeekPlan(trainerID)
	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)

	created, err := svc.GenerateWeekLogs(context.Background(), client, plan, start)
	require.NoError(t, err)
	assert.Equal(t, 7, created)

	created, err = svc.GenerateWeekLogs(context.Background(), client, plan, start)
	require.NoError(t, err)
	assert.Equal(t, 0, created)
}

func TestGenerateWeekLogs_NoTrainer(t *testing.T) {
	svc, _, clientRepo := newLogFixture()

	client := clientRepo.add(&domain.ClientProfile{UserID: primitive.NewObjectID()})
	plan := fullWeekPlan(primitive.NewObjectID())

	_, err := svc.GenerateWeekLogs(context.Background(), client, plan, time.Now())
	assert.ErrorIs(t, err, ErrClientNotManaged)
}

func TestGenerateWeekLogs_EmptyPlan(t *testing.T) {
	svc, _, clientRepo := newLogFixture()

	trainerID := primitive.NewObjectID()
	client := clientRepo.add(&domain.ClientProfile{
		UserID:    primitive.NewObjectID(),
		TrainerID: &trainerID,
	})
	plan := &domain.WeeklyPlan{ID: primitive.NewObjectID(), TrainerID: trainerID}

	_, err := svc.GenerateWeekLogs(context.Background(), client, plan, time.Now())
	assert.ErrorIs(t, err, ErrPlanHasNoWorkouts)
}

func TestCompleteWorkout_BumpsCounters(t *testing.T) {
	svc, logRepo, clientRepo := newLogFixture()

	trainerID := primitive.NewObjectID()
	client := clientRepo.add(&domain.ClientProfile{
		UserID:                    primitive.NewObjectID(),
		TrainerID:                 &trainerID,
		CurrentStreak:             2,
		ConsecutiveMissedWorkouts: 1,
	})

	inserted, err := logRepo.InsertMany(context.Background(), []domain.WorkoutLog{{
		ClientID:    client.ID,
		TrainerID:   trainerID,
		WorkoutDate: time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
		DayOfWeek:   1,
		IsMissed:    true,
	}})
	require.NoError(t, err)
	require.Equal(t, 1, inserted)
	stored, err := logRepo.GetByClientAndDate(context.Background(), client.ID, time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	completed := []domain.CompletedExercise{{Name: "Squat", Sets: 3, Reps: "5", WeightKg: 80}}
	log, err := svc.CompleteWorkout(context.Background(), client.ID, stored.ID, completed, "felt strong")
	require.NoError(t, err)

	assert.True(t, log.IsCompleted)
	assert.False(t, log.IsMissed, "completing a missed workout clears the flag")
	assert.NotNil(t, log.CompletedAt)
	assert.Equal(t, "felt strong", log.ClientNotes)

	profile, err := clientRepo.GetByID(context.Background(), client.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, profile.CurrentStreak)
	assert.Equal(t, 1, profile.TotalWorkoutsCompleted)
	assert.Equal(t, 0, profile.ConsecutiveMissedWorkouts)
}

func TestCompleteWorkout_AlreadyCompleted(t *testing.T) {
	svc, logRepo, clientRepo := newLogFixture()

	trainerID := primitive.NewObjectID()
	client := clientRepo.add(&domain.ClientProfile{UserID: primitive.NewObjectID(), TrainerID: &trainerID})

	_, err := logRepo.InsertMany(context.Background(), []domain.WorkoutLog{{
		ClientID:    client.ID,
		WorkoutDate: time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
		IsCompleted: true,
	}})
	require.NoError(t, err)
	stored, err := logRepo.GetByClientAndDate(context.Background(), client.ID, time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	_, err = svc.CompleteWorkout(context.Background(), client.ID, stored.ID, nil, "")
	assert.ErrorIs(t, err, ErrLogAlreadyCompleted)
}

func TestCompleteWorkout_WrongClient(t *testing.T) {
	svc, logRepo, clientRepo := newLogFixture()

	trainerID := primitive.NewObjectID()
	owner := clientRepo.add(&domain.ClientProfile{UserID: primitive.NewObjectID(), TrainerID: &trainerID})
	other := clientRepo.add(&domain.ClientProfile{UserID: primitive.NewObjectID(), TrainerID: &trainerID})

	_, err := logRepo.InsertMany(context.Background(), []domain.WorkoutLog{{
		ClientID:    owner.ID,
		WorkoutDate: time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
	}})
	require.NoError(t, err)
	stored, err := logRepo.GetByClientAndDate(context.Background(), owner.ID, time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	_, err = svc.CompleteWorkout(context.Background(), other.ID, stored.ID, nil, "")
	assert.ErrorIs(t, err, ErrLogAccessDenied)
}

func TestMarkOverdueMissed(t *testing.T) {
	svc, logRepo, clientRepo := newLogFixture()

	trainerID := primitive.NewObjectID()
	client := clientRepo.add(&domain.ClientProfile{UserID: primitive.NewObjectID(), TrainerID: &trainerID})

	_, err := logRepo.InsertMany(context.Background(), []domain.WorkoutLog{
		{ClientID: client.ID, WorkoutDate: time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)},
		{ClientID: client.ID, WorkoutDate: time.Date(2025, 1, 7, 0, 0, 0, 0, time.UTC), IsCompleted: true},
		{ClientID: client.ID, WorkoutDate: time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC)},
	})
	require.NoError(t, err)

	// Running on the 8th flags only the incomplete log from the 6th; the
	// completed 7th and today's log are untouched.
	n, err := svc.MarkOverdueMissed(context.Background(), time.Date(2025, 1, 8, 6, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	today, err := logRepo.GetByClientAndDate(context.Background(), client.ID, time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, today.IsMissed)
}

func TestPurgeOldLogs(t *testing.T) {
	svc, logRepo, clientRepo := newLogFixture()

	trainerID := primitive.NewObjectID()
	client := clientRepo.add(&domain.ClientProfile{UserID: primitive.NewObjectID(), TrainerID: &trainerID})

	now := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	_, err := logRepo.InsertMany(context.Background(), []domain.WorkoutLog{
		{ClientID: client.ID, WorkoutDate: now.AddDate(0, 0, -200)},
		{ClientID: client.ID, WorkoutDate: now.AddDate(0, 0, -10)},
	})
	require.NoError(t, err)

	n, err := svc.PurgeOldLogs(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
