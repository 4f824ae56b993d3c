package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"kinetix/backend/internal/domain"
	"kinetix/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeFileStorage returns deterministic URLs without touching S3.
type fakeFileStorage struct{}

func (fakeFileStorage) GeneratePresignedUploadURL(_ context.Context, objectKey, _ string, _ time.Duration) (string, error) {
	return "https://storage.test/upload/" + objectKey, nil
}

func (fakeFileStorage) GeneratePresignedDownloadURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return "https://storage.test/download/" + objectKey, nil
}

func (fakeFileStorage) DeleteObject(context.Context, string) error { return nil }

type syncFixture struct {
	svc         TrainingSyncService
	logRepo     *fakeLogRepo
	clientRepo  *fakeClientRepo
	checkInRepo *fakeCheckInRepo
}

func newSyncFixture() *syncFixture {
	f := &syncFixture{
		logRepo:     newFakeLogRepo(),
		clientRepo:  newFakeClientRepo(),
		checkInRepo: newFakeCheckInRepo(),
	}
	logService := NewWorkoutLogService(f.logRepo, f.clientRepo, logger.NewNop())
	checkInService := NewCheckInService(f.checkInRepo, f.clientRepo, newFakeTrainerRepo(), fakeFileStorage{})
	f.svc = NewTrainingSyncService(f.logRepo, logService, checkInService, f.checkInRepo, logger.NewNop())
	return f
}

func (f *syncFixture) seedClient() *domain.ClientProfile {
	trainerID := primitive.NewObjectID()
	return f.clientRepo.add(&domain.ClientProfile{
		UserID:    primitive.NewObjectID(),
		TrainerID: &trainerID,
	})
}

func TestSyncBatch_AppliesCompletionAndCheckIn(t *testing.T) {
	f := newSyncFixture()
	client := f.seedClient()

	day := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	_, err := f.logRepo.InsertMany(context.Background(), []domain.WorkoutLog{{
		ClientID:    client.ID,
		TrainerID:   *client.TrainerID,
		WorkoutDate: day,
	}})
	require.NoError(t, err)

	results, err := f.svc.SyncBatch(context.Background(), client.ID, []SyncItem{
		{
			Kind:               SyncLogCompletion,
			Date:               day.Add(18 * time.Hour), // device-local evening timestamp
			CompletedExercises: []domain.CompletedExercise{{Name: "Squat", Sets: 3, Reps: "5"}},
			Notes:              "offline session",
		},
		{
			Kind:           SyncCheckIn,
			Date:           day,
			PhotoObjectKey: "checkins/abc/photo.jpg",
			Latitude:       52.52,
			Longitude:      13.405,
		},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, SyncApplied, results[0].Status)
	assert.Equal(t, SyncApplied, results[1].Status)

	log, err := f.logRepo.GetByClientAndDate(context.Background(), client.ID, day)
	require.NoError(t, err)
	assert.True(t, log.IsCompleted)
	assert.Equal(t, "offline session", log.ClientNotes)

	checkIn, err := f.checkInRepo.GetByClientAndDate(context.Background(), client.ID, day)
	require.NoError(t, err)
	assert.Equal(t, domain.CheckInPending, checkIn.Status)
}

func TestSyncBatch_ServerStateWins(t *testing.T) {
	f := newSyncFixture()
	client := f.seedClient()

	day := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	_, err := f.logRepo.InsertMany(context.Background(), []domain.WorkoutLog{{
		ClientID:    client.ID,
		TrainerID:   *client.TrainerID,
		WorkoutDate: day,
		IsCompleted: true,
		ClientNotes: "completed online",
	}})
	require.NoError(t, err)

	results, err := f.svc.SyncBatch(context.Background(), client.ID, []SyncItem{{
		Kind:  SyncLogCompletion,
		Date:  day,
		Notes: "offline duplicate",
	}})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, SyncSkipped, results[0].Status)
	assert.Contains(t, results[0].Reason, "already completed")

	log, err := f.logRepo.GetByClientAndDate(context.Background(), client.ID, day)
	require.NoError(t, err)
	assert.Equal(t, "completed online", log.ClientNotes, "the server copy is untouched")
}

func TestSyncBatch_DuplicateCheckInSkipped(t *testing.T) {
	f := newSyncFixture()
	client := f.seedClient()

	day := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	_, err := f.checkInRepo.Create(context.Background(), &domain.CheckIn{
		ClientID:    client.ID,
		TrainerID:   *client.TrainerID,
		CheckInDate: day,
		Status:      domain.CheckInApproved,
	})
	require.NoError(t, err)

	results, err := f.svc.SyncBatch(context.Background(), client.ID, []SyncItem{{
		Kind:           SyncCheckIn,
		Date:           day,
		PhotoObjectKey: "checkins/abc/late.jpg",
		Latitude:       52.52,
		Longitude:      13.405,
	}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, SyncSkipped, results[0].Status)

	checkIn, err := f.checkInRepo.GetByClientAndDate(context.Background(), client.ID, day)
	require.NoError(t, err)
	assert.Equal(t, domain.CheckInApproved, checkIn.Status, "the existing check-in is untouched")
}

func TestSyncBatch_OneBadItemDoesNotAbort(t *testing.T) {
	f := newSyncFixture()
	client := f.seedClient()

	day := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	_, err := f.logRepo.InsertMany(context.Background(), []domain.WorkoutLog{{
		ClientID:    client.ID,
		TrainerID:   *client.TrainerID,
		WorkoutDate: day,
	}})
	require.NoError(t, err)

	results, err := f.svc.SyncBatch(context.Background(), client.ID, []SyncItem{
		{Kind: SyncLogCompletion, Date: day.AddDate(0, 0, 3)}, // no log exists
		{Kind: SyncItemKind("unknown"), Date: day},
		{Kind: SyncLogCompletion, Date: day},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, SyncFailed, results[0].Status)
	assert.True(t, strings.Contains(results[0].Reason, "no workout log"))
	assert.Equal(t, SyncFailed, results[1].Status)
	assert.Equal(t, SyncApplied, results[2].Status)
}
