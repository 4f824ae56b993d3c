package api

import (
	"errors"
	"net/http"
	"time"

	"kinetix/backend/internal/domain"
	"kinetix/backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanHandler serves weekly plan CRUD, duplication and assignment.
type PlanHandler struct {
	planService service.PlanService
}

func NewPlanHandler(planService service.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

// --- DTOs ---

type PlannedExerciseDTO struct {
	Name  string `json:"name" binding:"required"`
	Sets  int    `json:"sets" binding:"required,min=1"`
	Reps  string `json:"reps" binding:"required"`
	Rest  string `json:"rest"`
	Notes string `json:"notes"`
}

type PlanDayDTO struct {
	DayOfWeek int                  `json:"dayOfWeek" binding:"required,min=1,max=7"`
	Title     string               `json:"title" binding:"required"`
	Exercises []PlannedExerciseDTO `json:"exercises"`
}

type PlanRequest struct {
	Name        string       `json:"name" binding:"required"`
	Description string       `json:"description"`
	IsTemplate  bool         `json:"isTemplate"`
	Workouts    []PlanDayDTO `json:"workouts" binding:"required,min=1,max=7,dive"`
}

type PlanResponse struct {
	ID                string       `json:"id"`
	TrainerID         string       `json:"trainerId"`
	Name              string       `json:"name"`
	Description       string       `json:"description,omitempty"`
	IsTemplate        bool         `json:"isTemplate"`
	Workouts          []PlanDayDTO `json:"workouts"`
	AssignedClientIDs []string     `json:"assignedClientIds,omitempty"`
	CreatedAt         time.Time    `json:"createdAt"`
	UpdatedAt         time.Time    `json:"updatedAt"`
}

type DuplicatePlanRequest struct {
	Name string `json:"name"`
}

type AssignPlanRequest struct {
	ClientIDs []string  `json:"clientIds" binding:"required,min=1"`
	StartDate time.Time `json:"startDate" binding:"required"`
}

type AssignPlanResponse struct {
	PlanID      string    `json:"planId"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	ClientCount int       `json:"clientCount"`
	LogsCreated int       `json:"logsCreated"`
}

func planDaysFromDTO(days []PlanDayDTO) []domain.PlanDay {
	out := make([]domain.PlanDay, len(days))
	for i, d := range days {
		exercises := make([]domain.PlannedExercise, len(d.Exercises))
		for j, e := range d.Exercises {
			exercises[j] = domain.PlannedExercise{
				Name:  e.Name,
				Sets:  e.Sets,
				Reps:  e.Reps,
				Rest:  e.Rest,
				Notes: e.Notes,
			}
		}
		out[i] = domain.PlanDay{DayOfWeek: d.DayOfWeek, Title: d.Title, Exercises: exercises}
	}
	return out
}

func planDaysToDTO(days []domain.PlanDay) []PlanDayDTO {
	out := make([]PlanDayDTO, len(days))
	for i, d := range days {
		exercises := make([]PlannedExerciseDTO, len(d.Exercises))
		for j, e := range d.Exercises {
			exercises[j] = PlannedExerciseDTO{
				Name:  e.Name,
				Sets:  e.Sets,
				Reps:  e.Reps,
				Rest:  e.Rest,
				Notes: e.Notes,
			}
		}
		out[i] = PlanDayDTO{DayOfWeek: d.DayOfWeek, Title: d.Title, Exercises: exercises}
	}
	return out
}

func MapPlanToResponse(p *domain.WeeklyPlan) PlanResponse {
	if p == nil {
		return PlanResponse{}
	}
	assigned := make([]string, len(p.AssignedClientIDs))
	for i, id := range p.AssignedClientIDs {
		assigned[i] = id.Hex()
	}
	return PlanResponse{
		ID:                p.ID.Hex(),
		TrainerID:         p.TrainerID.Hex(),
		Name:              p.Name,
		Description:       p.Description,
		IsTemplate:        p.IsTemplate,
		Workouts:          planDaysToDTO(p.Workouts),
		AssignedClientIDs: assigned,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

// mapPlanServiceError converts plan service errors to HTTP responses.
func mapPlanServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrPlanNotFound), errors.Is(err, service.ErrTrainerNotFound),
		errors.Is(err, service.ErrClientNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrPlanAccessDenied), errors.Is(err, service.ErrClientNotManaged):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrInvalidPlanDays), errors.Is(err, service.ErrPlanInUse),
		errors.Is(err, service.ErrPlanHasNoWorkouts), errors.Is(err, service.ErrNoClientsGiven):
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, fallback)
	}
}

// --- Handler Methods ---

func (h *PlanHandler) CreatePlan(c *gin.Context) {
	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	trainerUserID, err := getUserObjectIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify trainer from token.")
		return
	}

	plan := &domain.WeeklyPlan{
		Name:        req.Name,
		Description: req.Description,
		IsTemplate:  req.IsTemplate,
		Workouts:    planDaysFromDTO(req.Workouts),
	}

	created, err := h.planService.CreatePlan(c.Request.Context(), trainerUserID, plan)
	if err != nil {
		mapPlanServiceError(c, err, "Failed to create plan.")
		return
	}

	c.JSON(http.StatusCreated, MapPlanToResponse(created))
}

func (h *PlanHandler) GetPlan(c *gin.Context) {
	trainerUserID, err := getUserObjectIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify trainer from token.")
		return
	}

	planID, err := primitive.ObjectIDFromHex(c.Param("planId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid plan ID format.")
		return
	}

	plan, err := h.planService.GetPlan(c.Request.Context(), trainerUserID, planID)
	if err != nil {
		mapPlanServiceError(c, err, "Failed to load plan.")
		return
	}

	c.JSON(http.StatusOK, MapPlanToResponse(plan))
}

func (h *PlanHandler) ListPlans(c *gin.Context) {
	trainerUserID, err := getUserObjectIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify trainer from token.")
		return
	}

	plans, err := h.planService.ListPlans(c.Request.Context(), trainerUserID)
	if err != nil {
		mapPlanServiceError(c, err, "Failed to list plans.")
		return
	}

	responses := make([]PlanResponse, 0, len(plans))
	for i := range plans {
		responses = append(responses, MapPlanToResponse(&plans[i]))
	}
	c.JSON(http.StatusOK, responses)
}

func (h *PlanHandler) UpdatePlan(c *gin.Context) {
	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	trainerUserID, err := getUserObjectIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify trainer from token.")
		return
	}

	planID, err := primitive.ObjectIDFromHex(c.Param("planId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid plan ID format.")
		return
	}

	plan := &domain.WeeklyPlan{
		ID:          planID,
		Name:        req.Name,
		Description: req.Description,
		IsTemplate:  req.IsTemplate,
		Workouts:    planDaysFromDTO(req.Workouts),
	}

	updated, err := h.planService.UpdatePlan(c.Request.Context(), trainerUserID, plan)
	if err != nil {
		mapPlanServiceError(c, err, "Failed to update plan.")
		return
	}

	c.JSON(http.StatusOK, MapPlanToResponse(updated))
}

func (h *PlanHandler) DeletePlan(c *gin.Context) {
	trainerUserID, err := getUserObjectIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify trainer from token.")
		return
	}

	planID, err := primitive.ObjectIDFromHex(c.Param("planId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid plan ID format.")
		return
	}

	if err := h.planService.DeletePlan(c.Request.Context(), trainerUserID, planID); err != nil {
		mapPlanServiceError(c, err, "Failed to delete plan.")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *PlanHandler) DuplicatePlan(c *gin.Context) {
	var req DuplicatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	trainerUserID, err := getUserObjectIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify trainer from token.")
		return
	}

	planID, err := primitive.ObjectIDFromHex(c.Param("planId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid plan ID format.")
		return
	}

	copy, err := h.planService.DuplicatePlan(c.Request.Context(), trainerUserID, planID, req.Name)
	if err != nil {
		mapPlanServiceError(c, err, "Failed to duplicate plan.")
		return
	}

	c.JSON(http.StatusCreated, MapPlanToResponse(copy))
}

// AssignPlan fans a plan out to clients and materializes their week of logs.
func (h *PlanHandler) AssignPlan(c *gin.Context) {
	var req AssignPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	trainerUserID, err := getUserObjectIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify trainer from token.")
		return
	}

	planID, err := primitive.ObjectIDFromHex(c.Param("planId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid plan ID format.")
		return
	}

	clientIDs := make([]primitive.ObjectID, 0, len(req.ClientIDs))
	for _, idStr := range req.ClientIDs {
		id, err := primitive.ObjectIDFromHex(idStr)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid client ID format: "+idStr)
			return
		}
		clientIDs = append(clientIDs, id)
	}

	result, err := h.planService.AssignPlan(c.Request.Context(), trainerUserID, planID, clientIDs, req.StartDate)
	if err != nil {
		mapPlanServiceError(c, err, "Failed to assign plan.")
		return
	}

	c.JSON(http.StatusOK, AssignPlanResponse{
		PlanID:      result.PlanID.Hex(),
		StartDate:   result.StartDate,
		EndDate:     result.EndDate,
		ClientCount: result.ClientCount,
		LogsCreated: result.LogsCreated,
	})
}
