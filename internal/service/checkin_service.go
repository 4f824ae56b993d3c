package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kinetix/backend/internal/domain"
	"kinetix/backend/internal/repository"
	"kinetix/backend/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrCheckInExists      = errors.New("a check-in already exists for this day")
	ErrInvalidCoordinates = errors.New("invalid GPS coordinates")
	ErrInvalidContentType = errors.New("photo must be a JPEG or PNG image")
)

// PhotoUploadTicket is a presigned PUT URL plus the object key the client
// must echo back when submitting the check-in.
type PhotoUploadTicket struct {
	UploadURL string
	ObjectKey string
	ExpiresIn time.Duration
}

type CheckInService interface {
	RequestPhotoUpload(ctx context.Context, clientID primitive.ObjectID, contentType string) (*PhotoUploadTicket, error)
	SubmitCheckIn(ctx context.Context, clientID primitive.ObjectID, day time.Time, objectKey string, lat, lng float64) (*domain.CheckIn, error)
	ListForClient(ctx context.Context, clientID primitive.ObjectID, limit int64) ([]domain.CheckIn, error)
	ListForTrainer(ctx context.Context, trainerUserID primitive.ObjectID, status domain.CheckInStatus, limit int64) ([]domain.CheckIn, error)
	PhotoDownloadURL(ctx context.Context, checkIn *domain.CheckIn) (string, error)
}

type checkInService struct {
	checkInRepo repository.CheckInRepository
	clientRepo  repository.ClientProfileRepository
	trainerRepo repository.TrainerProfileRepository
	fileStorage storage.FileStorage
}

func NewCheckInService(
	checkInRepo repository.CheckInRepository,
	clientRepo repository.ClientProfileRepository,
	trainerRepo repository.TrainerProfileRepository,
	fileStorage storage.FileStorage,
) CheckInService {
	return &checkInService{
		checkInRepo: checkInRepo,
		clientRepo:  clientRepo,
		trainerRepo: trainerRepo,
		fileStorage: fileStorage,
	}
}

var allowedPhotoTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
}

// RequestPhotoUpload hands the mobile client a presigned PUT URL. The photo
// goes straight to object storage; the API never touches the bytes.
func (s *checkInService) RequestPhotoUpload(ctx context.Context, clientID primitive.ObjectID, contentType string) (*PhotoUploadTicket, error) {
	ext, ok := allowedPhotoTypes[contentType]
	if !ok {
		return nil, ErrInvalidContentType
	}

	objectKey := fmt.Sprintf("checkins/%s/%s.%s", clientID.Hex(), uuid.NewString(), ext)

	url, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, err
	}

	return &PhotoUploadTicket{
		UploadURL: url,
		ObjectKey: objectKey,
		ExpiresIn: storage.DefaultPresignedURLExpiry,
	}, nil
}

// SubmitCheckIn records a gym visit. The unique (clientId, checkInDate)
// index is the arbiter under concurrent submissions.
func (s *checkInService) SubmitCheckIn(ctx context.Context, clientID primitive.ObjectID, day time.Time, objectKey string, lat, lng float64) (*domain.CheckIn, error) {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, ErrInvalidCoordinates
	}

	client, err := s.clientRepo.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	if client.TrainerID == nil {
		return nil, ErrNoTrainerAssigned
	}

	checkIn := &domain.CheckIn{
		ClientID:       client.ID,
		TrainerID:      *client.TrainerID,
		CheckInDate:    domain.StartOfDayUTC(day),
		PhotoObjectKey: objectKey,
		Latitude:       lat,
		Longitude:      lng,
		Status:         domain.CheckInPending,
	}

	if _, err := s.checkInRepo.Create(ctx, checkIn); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrCheckInExists
		}
		return nil, err
	}
	return checkIn, nil
}

func (s *checkInService) ListForClient(ctx context.Context, clientID primitive.ObjectID, limit int64) ([]domain.CheckIn, error) {
	return s.checkInRepo.ListByClient(ctx, clientID, limit)
}

func (s *checkInService) ListForTrainer(ctx context.Context, trainerUserID primitive.ObjectID, status domain.CheckInStatus, limit int64) ([]domain.CheckIn, error) {
	trainer, err := s.trainerRepo.GetByUserID(ctx, trainerUserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTrainerNotFound
		}
		return nil, err
	}
	return s.checkInRepo.ListByTrainer(ctx, trainer.ID, status, limit)
}

// PhotoDownloadURL presigns a GET for the stored photo.
func (s *checkInService) PhotoDownloadURL(ctx context.Context, checkIn *domain.CheckIn) (string, error) {
	if checkIn.PhotoObjectKey == "" {
		return "", nil
	}
	return s.fileStorage.GeneratePresignedDownloadURL(ctx, checkIn.PhotoObjectKey, storage.DefaultPresignedURLExpiry)
}
