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
	ErrTrainerNotFound       = errors.New("trainer profile not found")
	ErrClientNotFound        = errors.New("client user not found")
	ErrClientNotRole         = errors.New("user found but is not a client")
	ErrClientAlreadyAssigned = errors.New("client is already assigned to a trainer")
	ErrClientNotManaged      = errors.New("client is not managed by this trainer")
	ErrCapacityExceeded      = errors.New("trainer has reached the client capacity for their tier")
	ErrSameTierUpgrade       = errors.New("subscription is already on this tier")
	ErrInvalidTier           = errors.New("unknown subscription tier")
	ErrCheckInNotFound       = errors.New("check-in not found")
	ErrCheckInAccessDenied   = errors.New("access denied to verify this check-in")
	ErrInvalidVerification   = errors.New("verification status must be approved or rejected")
)

// Subscription upgrades buy this much runway.
const subscriptionExtension = 30 * 24 * time.Hour

// ClientSummary pairs a client profile with its identity record for roster
// listings.
type ClientSummary struct {
	User    domain.User
	Profile domain.ClientProfile
}

type TrainerService interface {
	// Profile
	GetProfileByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.TrainerProfile, error)
	UpdateDetails(ctx context.Context, userID primitive.ObjectID, bio string, specializations []string) (*domain.TrainerProfile, error)
	UpgradeSubscription(ctx context.Context, userID primitive.ObjectID, tier domain.SubscriptionTier) (*domain.TrainerProfile, error)

	// Roster
	AddClientByEmail(ctx context.Context, trainerUserID primitive.ObjectID, clientEmail string) (*domain.ClientProfile, error)
	RemoveClient(ctx context.Context, trainerUserID, clientProfileID primitive.ObjectID) error
	GetManagedClients(ctx context.Context, trainerUserID primitive.ObjectID) ([]ClientSummary, error)
	GetManagedClient(ctx context.Context, trainerUserID, clientProfileID primitive.ObjectID) (*domain.ClientProfile, error)

	// Check-in review
	VerifyCheckIn(ctx context.Context, trainerUserID, checkInID primitive.ObjectID, status domain.CheckInStatus, comment string) (*domain.CheckIn, error)
}

// trainerService implements the TrainerService interface.
type trainerService struct {
	userRepo    repository.UserRepository
	trainerRepo repository.TrainerProfileRepository
	clientRepo  repository.ClientProfileRepository
	checkInRepo repository.CheckInRepository
}

func NewTrainerService(
	userRepo repository.UserRepository,
	trainerRepo repository.TrainerProfileRepository,
	clientRepo repository.ClientProfileRepository,
	checkInRepo repository.CheckInRepository,
) TrainerService {
	return &trainerService{
		userRepo:    userRepo,
		trainerRepo: trainerRepo,
		clientRepo:  clientRepo,
		checkInRepo: checkInRepo,
	}
}

// === Profile ===

func (s *trainerService) GetProfileByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.TrainerProfile, error) {
	profile, err := s.trainerRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTrainerNotFound
		}
		return nil, err
	}
	return profile, nil
}

func (s *trainerService) UpdateDetails(ctx context.Context, userID primitive.ObjectID, bio string, specializations []string) (*domain.TrainerProfile, error) {
	profile, err := s.GetProfileByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.trainerRepo.UpdateDetails(ctx, profile.ID, bio, specializations); err != nil {
		return nil, err
	}

	profile.Bio = bio
	profile.Specializations = specializations
	return profile, nil
}

// UpgradeSubscription moves the trainer to a new tier. A same-tier "upgrade"
// is rejected; a genuine one adjusts capacity, extends the expiry by 30 days
// and reactivates a suspended or cancelled trainer.
func (s *trainerService) UpgradeSubscription(ctx context.Context, userID primitive.ObjectID, tier domain.SubscriptionTier) (*domain.TrainerProfile, error) {
	if !domain.ValidTier(tier) {
		return nil, ErrInvalidTier
	}

	profile, err := s.GetProfileByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if profile.Subscription.Tier == tier {
		return nil, ErrSameTierUpgrade
	}

	sub := domain.Subscription{
		Status:    domain.SubscriptionActive,
		Tier:      tier,
		ExpiresAt: time.Now().UTC().Add(subscriptionExtension),
	}
	maxClients := domain.MaxClientsForTier(tier)

	if err := s.trainerRepo.UpdateSubscription(ctx, profile.ID, sub, maxClients, true); err != nil {
		return nil, err
	}

	profile.Subscription = sub
	profile.MaxClients = maxClients
	profile.IsActive = true
	return profile, nil
}

// === Roster ===

// AddClientByEmail finds a client by email and assigns them to the trainer.
// Capacity is checked before any write so a full roster mutates nothing.
func (s *trainerService) AddClientByEmail(ctx context.Context, trainerUserID primitive.ObjectID, clientEmail string) (*domain.ClientProfile, error) {
	if clientEmail == "" {
		return nil, errors.New("client email is required")
	}

	trainer, err := s.GetProfileByUserID(ctx, trainerUserID)
	if err != nil {
		return nil, err
	}

	clientUser, err := s.userRepo.GetByEmail(ctx, clientEmail)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	if !clientUser.IsClient() {
		return nil, ErrClientNotRole
	}

	client, err := s.clientRepo.GetByUserID(ctx, clientUser.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}

	if client.TrainerID != nil && *client.TrainerID != primitive.NilObjectID {
		if *client.TrainerID == trainer.ID {
			// Already on this trainer's roster; treat as success.
			return client, nil
		}
		return nil, ErrClientAlreadyAssigned
	}

	if !trainer.HasCapacity() {
		return nil, ErrCapacityExceeded
	}

	// Two-sided update: roster entry on the trainer, back-reference on the
	// client. Not transactional; the unique-per-trainer invariant is held by
	// the TrainerID check above.
	if err := s.trainerRepo.AddClientID(ctx, trainer.ID, client.ID); err != nil {
		return nil, err
	}
	if err := s.clientRepo.SetTrainer(ctx, client.ID, trainer.ID); err != nil {
		return nil, err
	}

	client.TrainerID = &trainer.ID
	return client, nil
}

// RemoveClient detaches the client from the trainer's roster and clears the
// client's trainer and active plan.
func (s *trainerService) RemoveClient(ctx context.Context, trainerUserID, clientProfileID primitive.ObjectID) error {
	trainer, err := s.GetProfileByUserID(ctx, trainerUserID)
	if err != nil {
		return err
	}

	client, err := s.clientRepo.GetByID(ctx, clientProfileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrClientNotFound
		}
		return err
	}
	if client.TrainerID == nil || *client.TrainerID != trainer.ID {
		return ErrClientNotManaged
	}

	if err := s.trainerRepo.RemoveClientID(ctx, trainer.ID, client.ID); err != nil {
		return err
	}
	return s.clientRepo.ClearTrainer(ctx, client.ID)
}

// GetManagedClients returns the trainer's roster with identity records joined.
func (s *trainerService) GetManagedClients(ctx context.Context, trainerUserID primitive.ObjectID) ([]ClientSummary, error) {
	trainer, err := s.GetProfileByUserID(ctx, trainerUserID)
	if err != nil {
		return nil, err
	}

	profiles, err := s.clientRepo.GetByIDs(ctx, trainer.ClientIDs)
	if err != nil {
		return nil, err
	}

	userIDs := make([]primitive.ObjectID, 0, len(profiles))
	for _, p := range profiles {
		userIDs = append(userIDs, p.UserID)
	}
	users, err := s.userRepo.GetByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	usersByID := make(map[primitive.ObjectID]domain.User, len(users))
	for _, u := range users {
		u.PasswordHash = ""
		usersByID[u.ID] = u
	}

	summaries := make([]ClientSummary, 0, len(profiles))
	for _, p := range profiles {
		summaries = append(summaries, ClientSummary{
			User:    usersByID[p.UserID],
			Profile: p,
		})
	}
	return summaries, nil
}

// GetManagedClient loads a single client profile, verifying it belongs to the
// trainer's roster.
func (s *trainerService) GetManagedClient(ctx context.Context, trainerUserID, clientProfileID primitive.ObjectID) (*domain.ClientProfile, error) {
	trainer, err := s.GetProfileByUserID(ctx, trainerUserID)
	if err != nil {
		return nil, err
	}

	client, err := s.clientRepo.GetByID(ctx, clientProfileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	if client.TrainerID == nil || *client.TrainerID != trainer.ID {
		return nil, ErrClientNotManaged
	}
	return client, nil
}

// === Check-in review ===

func (s *trainerService) VerifyCheckIn(ctx context.Context, trainerUserID, checkInID primitive.ObjectID, status domain.CheckInStatus, comment string) (*domain.CheckIn, error) {
	if status != domain.CheckInApproved && status != domain.CheckInRejected {
		return nil, ErrInvalidVerification
	}

	trainer, err := s.GetProfileByUserID(ctx, trainerUserID)
	if err != nil {
		return nil, err
	}

	checkIn, err := s.checkInRepo.GetByID(ctx, checkInID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCheckInNotFound
		}
		return nil, err
	}
	if checkIn.TrainerID != trainer.ID {
		return nil, ErrCheckInAccessDenied
	}

	now := time.Now().UTC()
	if err := s.checkInRepo.SetVerification(ctx, checkIn.ID, status, comment, now); err != nil {
		return nil, err
	}

	checkIn.Status = status
	checkIn.TrainerComment = comment
	checkIn.VerifiedAt = &now
	return checkIn, nil
}
