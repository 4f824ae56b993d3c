package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kinetix/backend/internal/domain"
	"kinetix/backend/internal/repository"
	"kinetix/backend/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrPlanNotFound      = errors.New("weekly plan not found")
	ErrPlanAccessDenied  = errors.New("access denied to this plan")
	ErrPlanInUse         = errors.New("plan has assigned clients and cannot be deleted")
	ErrInvalidPlanDays   = errors.New("plan days must use dayOfWeek 1 (Monday) to 7 (Sunday) without duplicates")
	ErrNoClientsGiven    = errors.New("at least one client is required")
	ErrNoPlanAssigned    = errors.New("no plan is currently assigned")
)

// AssignmentResult reports the fan-out of a plan assignment.
type AssignmentResult struct {
	PlanID      primitive.ObjectID
	StartDate   time.Time
	EndDate     time.Time
	ClientCount int
	LogsCreated int
}

type PlanService interface {
	CreatePlan(ctx context.Context, trainerUserID primitive.ObjectID, plan *domain.WeeklyPlan) (*domain.WeeklyPlan, error)
	GetPlan(ctx context.Context, trainerUserID, planID primitive.ObjectID) (*domain.WeeklyPlan, error)
	ListPlans(ctx context.Context, trainerUserID primitive.ObjectID) ([]domain.WeeklyPlan, error)
	UpdatePlan(ctx context.Context, trainerUserID primitive.ObjectID, plan *domain.WeeklyPlan) (*domain.WeeklyPlan, error)
	DeletePlan(ctx context.Context, trainerUserID, planID primitive.ObjectID) error
	DuplicatePlan(ctx context.Context, trainerUserID, planID primitive.ObjectID, newName string) (*domain.WeeklyPlan, error)
	AssignPlan(ctx context.Context, trainerUserID, planID primitive.ObjectID, clientIDs []primitive.ObjectID, startDate time.Time) (*AssignmentResult, error)
	GetAssignedPlan(ctx context.Context, clientID primitive.ObjectID) (*domain.WeeklyPlan, error)
}

type planService struct {
	planRepo    repository.WeeklyPlanRepository
	trainerRepo repository.TrainerProfileRepository
	clientRepo  repository.ClientProfileRepository
	logService  WorkoutLogService
	log         *logger.Logger
}

func NewPlanService(
	planRepo repository.WeeklyPlanRepository,
	trainerRepo repository.TrainerProfileRepository,
	clientRepo repository.ClientProfileRepository,
	logService WorkoutLogService,
	log *logger.Logger,
) PlanService {
	return &planService{
		planRepo:    planRepo,
		trainerRepo: trainerRepo,
		clientRepo:  clientRepo,
		logService:  logService,
		log:         log,
	}
}

// validatePlanDays rejects out-of-range or duplicated weekday entries.
func validatePlanDays(days []domain.PlanDay) error {
	seen := make(map[int]bool, len(days))
	for _, d := range days {
		if d.DayOfWeek < 1 || d.DayOfWeek > 7 || seen[d.DayOfWeek] {
			return ErrInvalidPlanDays
		}
		seen[d.DayOfWeek] = true
	}
	return nil
}

// ownedPlan loads a plan and enforces trainer ownership.
func (s *planService) ownedPlan(ctx context.Context, trainerUserID, planID primitive.ObjectID) (*domain.TrainerProfile, *domain.WeeklyPlan, error) {
	trainer, err := s.trainerRepo.GetByUserID(ctx, trainerUserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrTrainerNotFound
		}
		return nil, nil, err
	}

	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrPlanNotFound
		}
		return nil, nil, err
	}
	if plan.TrainerID != trainer.ID {
		return nil, nil, ErrPlanAccessDenied
	}
	return trainer, plan, nil
}

func (s *planService) CreatePlan(ctx context.Context, trainerUserID primitive.ObjectID, plan *domain.WeeklyPlan) (*domain.WeeklyPlan, error) {
	trainer, err := s.trainerRepo.GetByUserID(ctx, trainerUserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTrainerNotFound
		}
		return nil, err
	}
	if err := validatePlanDays(plan.Workouts); err != nil {
		return nil, err
	}

	plan.TrainerID = trainer.ID
	plan.AssignedClientIDs = nil

	id, err := s.planRepo.Create(ctx, plan)
	if err != nil {
		return nil, err
	}
	plan.ID = id
	return plan, nil
}

func (s *planService) GetPlan(ctx context.Context, trainerUserID, planID primitive.ObjectID) (*domain.WeeklyPlan, error) {
	_, plan, err := s.ownedPlan(ctx, trainerUserID, planID)
	return plan, err
}

func (s *planService) ListPlans(ctx context.Context, trainerUserID primitive.ObjectID) ([]domain.WeeklyPlan, error) {
	trainer, err := s.trainerRepo.GetByUserID(ctx, trainerUserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTrainerNotFound
		}
		return nil, err
	}
	return s.planRepo.GetByTrainerID(ctx, trainer.ID)
}

func (s *planService) UpdatePlan(ctx context.Context, trainerUserID primitive.ObjectID, plan *domain.WeeklyPlan) (*domain.WeeklyPlan, error) {
	_, current, err := s.ownedPlan(ctx, trainerUserID, plan.ID)
	if err != nil {
		return nil, err
	}
	if err := validatePlanDays(plan.Workouts); err != nil {
		return nil, err
	}

	current.Name = plan.Name
	current.Description = plan.Description
	current.IsTemplate = plan.IsTemplate
	current.Workouts = plan.Workouts

	if err := s.planRepo.Update(ctx, current); err != nil {
		return nil, err
	}
	return current, nil
}

func (s *planService) DeletePlan(ctx context.Context, trainerUserID, planID primitive.ObjectID) error {
	trainer, plan, err := s.ownedPlan(ctx, trainerUserID, planID)
	if err != nil {
		return err
	}
	if len(plan.AssignedClientIDs) > 0 {
		return ErrPlanInUse
	}
	return s.planRepo.Delete(ctx, plan.ID, trainer.ID)
}

// DuplicatePlan deep-copies a plan as a fresh template with no assignments.
func (s *planService) DuplicatePlan(ctx context.Context, trainerUserID, planID primitive.ObjectID, newName string) (*domain.WeeklyPlan, error) {
	trainer, plan, err := s.ownedPlan(ctx, trainerUserID, planID)
	if err != nil {
		return nil, err
	}

	if newName == "" {
		newName = plan.Name + " (copy)"
	}

	workouts := make([]domain.PlanDay, len(plan.Workouts))
	for i, d := range plan.Workouts {
		workouts[i] = domain.PlanDay{
			DayOfWeek: d.DayOfWeek,
			Title:     d.Title,
			Exercises: append([]domain.PlannedExercise(nil), d.Exercises...),
		}
	}

	copyPlan := &domain.WeeklyPlan{
		TrainerID:   trainer.ID,
		Name:        newName,
		Description: plan.Description,
		IsTemplate:  true,
		Workouts:    workouts,
	}

	id, err := s.planRepo.Create(ctx, copyPlan)
	if err != nil {
		return nil, err
	}
	copyPlan.ID = id
	return copyPlan, nil
}

// AssignPlan fans a plan out to a set of clients starting on startDate:
// active-plan pointers, the plan's assigned set, and a week of logs per
// client. Per-client failures are fatal for the whole call; the caller is
// told which client broke the assignment.
func (s *planService) AssignPlan(ctx context.Context, trainerUserID, planID primitive.ObjectID, clientIDs []primitive.ObjectID, startDate time.Time) (*AssignmentResult, error) {
	if len(clientIDs) == 0 {
		return nil, ErrNoClientsGiven
	}

	trainer, plan, err := s.ownedPlan(ctx, trainerUserID, planID)
	if err != nil {
		return nil, err
	}
	if len(plan.Workouts) == 0 {
		return nil, ErrPlanHasNoWorkouts
	}

	start := domain.StartOfDayUTC(startDate)
	end := start.AddDate(0, 0, 7)

	totalLogs := 0
	for _, clientID := range clientIDs {
		client, err := s.clientRepo.GetByID(ctx, clientID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("client %s: %w", clientID.Hex(), ErrClientNotFound)
			}
			return nil, err
		}
		if client.TrainerID == nil || *client.TrainerID != trainer.ID {
			return nil, fmt.Errorf("client %s: %w", clientID.Hex(), ErrClientNotManaged)
		}

		if err := s.clientRepo.SetActivePlan(ctx, client.ID, plan.ID, start, end); err != nil {
			return nil, err
		}
		// Added per client, not batched after the loop: if a later client
		// aborts the assignment, everyone who already got a plan pointer
		// is in the assigned set and stays visible to the delete guard.
		if err := s.planRepo.AddAssignedClients(ctx, plan.ID, []primitive.ObjectID{client.ID}); err != nil {
			return nil, err
		}

		created, err := s.logService.GenerateWeekLogs(ctx, client, plan, start)
		if err != nil {
			s.log.Errorw("log generation failed during plan assignment",
				"planId", plan.ID.Hex(), "clientId", client.ID.Hex(), "error", err)
			return nil, fmt.Errorf("client %s: %w", clientID.Hex(), err)
		}
		totalLogs += created
	}

	return &AssignmentResult{
		PlanID:      plan.ID,
		StartDate:   start,
		EndDate:     end,
		ClientCount: len(clientIDs),
		LogsCreated: totalLogs,
	}, nil
}

// GetAssignedPlan returns the plan currently assigned to a client.
func (s *planService) GetAssignedPlan(ctx context.Context, clientID primitive.ObjectID) (*domain.WeeklyPlan, error) {
	client, err := s.clientRepo.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	if client.CurrentPlanID == nil {
		return nil, ErrNoPlanAssigned
	}

	plan, err := s.planRepo.GetByID(ctx, *client.CurrentPlanID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoPlanAssigned
		}
		return nil, err
	}
	return plan, nil
}
