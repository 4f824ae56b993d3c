package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"kinetix/backend/internal/domain"
	"kinetix/backend/internal/repository"
	"kinetix/backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ClientHandler serves the client-facing surface: profile, workout logs,
// check-ins, penalty history and offline sync. Every route it serves sits
// behind the subscription guard middleware.
type ClientHandler struct {
	clientRepo     repository.ClientProfileRepository
	planService    service.PlanService
	logService     service.WorkoutLogService
	checkInService service.CheckInService
	gamification   service.GamificationService
	syncService    service.TrainingSyncService
}

func NewClientHandler(
	clientRepo repository.ClientProfileRepository,
	planService service.PlanService,
	logService service.WorkoutLogService,
	checkInService service.CheckInService,
	gamification service.GamificationService,
	syncService service.TrainingSyncService,
) *ClientHandler {
	return &ClientHandler{
		clientRepo:     clientRepo,
		planService:    planService,
		logService:     logService,
		checkInService: checkInService,
		gamification:   gamification,
		syncService:    syncService,
	}
}

// --- DTOs ---

type ClientProfileResponse struct {
	ID            string     `json:"id"`
	UserID        string     `json:"userId"`
	TrainerID     *string    `json:"trainerId,omitempty"`
	CurrentPlanID *string    `json:"currentPlanId,omitempty"`
	PlanStartDate *time.Time `json:"planStartDate,omitempty"`
	PlanEndDate   *time.Time `json:"planEndDate,omitempty"`

	FitnessGoal  string  `json:"fitnessGoal,omitempty"`
	FitnessLevel string  `json:"fitnessLevel,omitempty"`
	HeightCm     float64 `json:"heightCm,omitempty"`
	WeightKg     float64 `json:"weightKg,omitempty"`

	CurrentStreak             int  `json:"currentStreak"`
	TotalWorkoutsCompleted    int  `json:"totalWorkoutsCompleted"`
	ConsecutiveMissedWorkouts int  `json:"consecutiveMissedWorkouts"`
	IsPenaltyMode             bool `json:"isPenaltyMode"`
}

func MapClientProfileToResponse(p *domain.ClientProfile) ClientProfileResponse {
	if p == nil {
		return ClientProfileResponse{}
	}
	resp := ClientProfileResponse{
		ID:                        p.ID.Hex(),
		UserID:                    p.UserID.Hex(),
		PlanStartDate:             p.PlanStartDate,
		PlanEndDate:               p.PlanEndDate,
		FitnessGoal:               p.FitnessGoal,
		FitnessLevel:              string(p.FitnessLevel),
		HeightCm:                  p.HeightCm,
		WeightKg:                  p.WeightKg,
		CurrentStreak:             p.CurrentStreak,
		TotalWorkoutsCompleted:    p.TotalWorkoutsCompleted,
		ConsecutiveMissedWorkouts: p.ConsecutiveMissedWorkouts,
		IsPenaltyMode:             p.IsPenaltyMode,
	}
	if p.TrainerID != nil {
		hex := p.TrainerID.Hex()
		resp.TrainerID = &hex
	}
	if p.CurrentPlanID != nil {
		hex := p.CurrentPlanID.Hex()
		resp.CurrentPlanID = &hex
	}
	return resp
}

type UpdateClientProfileRequest struct {
	FitnessGoal  string              `json:"fitnessGoal"`
	FitnessLevel domain.FitnessLevel `json:"fitnessLevel" binding:"omitempty,oneof=beginner intermediate advanced"`
	HeightCm     float64             `json:"heightCm" binding:"omitempty,gt=0"`
	WeightKg     float64             `json:"weightKg" binding:"omitempty,gt=0"`
}

type CompletedExerciseDTO struct {
	Name     string  `json:"name" binding:"required"`
	Sets     int     `json:"sets" binding:"required,min=1"`
	Reps     string  `json:"reps" binding:"required"`
	WeightKg float64 `json:"weightKg"`
	Notes    string  `json:"notes"`
}

type CompleteWorkoutRequest struct {
	CompletedExercises []CompletedExerciseDTO `json:"completedExercises" binding:"required,min=1,dive"`
	Notes              string                 `json:"notes"`
}

type WorkoutLogResponse struct {
	ID                 string                 `json:"id"`
	PlanID             string                 `json:"planId"`
	WorkoutDate        time.Time              `json:"workoutDate"`
	DayOfWeek          int                    `json:"dayOfWeek"`
	Title              string                 `json:"title"`
	PlannedExercises   []PlannedExerciseDTO   `json:"plannedExercises"`
	CompletedExercises []CompletedExerciseDTO `json:"completedExercises,omitempty"`
	IsCompleted        bool                   `json:"isCompleted"`
	CompletedAt        *time.Time             `json:"completedAt,omitempty"`
	IsMissed           bool                   `json:"isMissed"`
	ClientNotes        string                 `json:"clientNotes,omitempty"`
}

func completedExercisesFromDTO(dtos []CompletedExerciseDTO) []domain.CompletedExercise {
	out := make([]domain.CompletedExercise, len(dtos))
	for i, e := range dtos {
		out[i] = domain.CompletedExercise{
			Name:     e.Name,
			Sets:     e.Sets,
			Reps:     e.Reps,
			WeightKg: e.WeightKg,
			Notes:    e.Notes,
		}
	}
	return out
}

func MapWorkoutLogToResponse(l *domain.WorkoutLog) WorkoutLogResponse {
	if l == nil {
		return WorkoutLogResponse{}
	}
	planned := make([]PlannedExerciseDTO, len(l.PlannedExercises))
	for i, e := range l.PlannedExercises {
		planned[i] = PlannedExerciseDTO{Name: e.Name, Sets: e.Sets, Reps: e.Reps, Rest: e.Rest, Notes: e.Notes}
	}
	completed := make([]CompletedExerciseDTO, len(l.CompletedExercises))
	for i, e := range l.CompletedExercises {
		completed[i] = CompletedExerciseDTO{Name: e.Name, Sets: e.Sets, Reps: e.Reps, WeightKg: e.WeightKg, Notes: e.Notes}
	}
	return WorkoutLogResponse{
		ID:                 l.ID.Hex(),
		PlanID:             l.PlanID.Hex(),
		WorkoutDate:        l.WorkoutDate,
		DayOfWeek:          l.DayOfWeek,
		Title:              l.Title,
		PlannedExercises:   planned,
		CompletedExercises: completed,
		IsCompleted:        l.IsCompleted,
		CompletedAt:        l.CompletedAt,
		IsMissed:           l.IsMissed,
		ClientNotes:        l.ClientNotes,
	}
}

type PhotoUploadRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type PhotoUploadResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
	ExpiresIn int64  `json:"expiresInSeconds"`
}

type SubmitCheckInRequest struct {
	Date      time.Time `json:"date" binding:"required"`
	ObjectKey string    `json:"objectKey" binding:"required"`
	Latitude  float64   `json:"latitude" binding:"required"`
	Longitude float64   `json:"longitude" binding:"required"`
}

type PenaltyRecordResponse struct {
	ID             string    `json:"id"`
	WeekStartDate  time.Time `json:"weekStartDate"`
	ScheduledCount int       `json:"scheduledCount"`
	MissedCount    int       `json:"missedCount"`
	CompletionRate float64   `json:"completionRate"`
	PenaltyType    string    `json:"penaltyType"`
}

type SyncItemDTO struct {
	Kind               service.SyncItemKind   `json:"kind" binding:"required,oneof=log_completion check_in"`
	Date               time.Time              `json:"date" binding:"required"`
	CompletedExercises []CompletedExerciseDTO `json:"completedExercises,omitempty"`
	Notes              string                 `json:"notes,omitempty"`
	PhotoObjectKey     string                 `json:"photoObjectKey,omitempty"`
	Latitude           float64                `json:"latitude,omitempty"`
	Longitude          float64                `json:"longitude,omitempty"`
}

type SyncBatchRequest struct {
	Items []SyncItemDTO `json:"items" binding:"required,min=1,max=100,dive"`
}

type SyncItemResultDTO struct {
	Kind   service.SyncItemKind   `json:"kind"`
	Date   time.Time              `json:"date"`
	Status service.SyncItemStatus `json:"status"`
	Reason string                 `json:"reason,omitempty"`
}

// profileFromContext loads the client profile behind the authenticated user.
func (h *ClientHandler) profileFromContext(c *gin.Context) (*domain.ClientProfile, bool) {
	userID, err := getUserObjectIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify client from token.")
		return nil, false
	}

	profile, err := h.clientRepo.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			abortWithError(c, http.StatusNotFound, "Client profile not found.")
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to load client profile.")
		}
		return nil, false
	}
	return profile, true
}

// --- Handler Methods ---

func (h *ClientHandler) GetProfile(c *gin.Context) {
	profile, ok := h.profileFromContext(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, MapClientProfileToResponse(profile))
}

func (h *ClientHandler) UpdateProfile(c *gin.Context) {
	var req UpdateClientProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	profile, ok := h.profileFromContext(c)
	if !ok {
		return
	}

	err := h.clientRepo.UpdateAttributes(c.Request.Context(), profile.ID, req.FitnessGoal, req.FitnessLevel, req.HeightCm, req.WeightKg)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to update client profile.")
		return
	}

	profile.FitnessGoal = req.FitnessGoal
	profile.FitnessLevel = req.FitnessLevel
	profile.HeightCm = req.HeightCm
	profile.WeightKg = req.WeightKg
	c.JSON(http.StatusOK, MapClientProfileToResponse(profile))
}

// GetCurrentPlan returns the weekly plan currently assigned to the client.
func (h *ClientHandler) GetCurrentPlan(c *gin.Context) {
	profile, ok := h.profileFromContext(c)
	if !ok {
		return
	}

	plan, err := h.planService.GetAssignedPlan(c.Request.Context(), profile.ID)
	if err != nil {
		if errors.Is(err, service.ErrNoPlanAssigned) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to load assigned plan.")
		}
		return
	}

	c.JSON(http.StatusOK, MapPlanToResponse(plan))
}

// ListLogs returns the client's logs between ?from and ?to (default: the
// current week).
func (h *ClientHandler) ListLogs(c *gin.Context) {
	profile, ok := h.profileFromContext(c)
	if !ok {
		return
	}

	now := time.Now()
	from := domain.StartOfWeekUTC(now)
	to := from.AddDate(0, 0, 6)
	if v := c.Query("from"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid 'from' date, expected YYYY-MM-DD.")
			return
		}
		from = parsed
	}
	if v := c.Query("to"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid 'to' date, expected YYYY-MM-DD.")
			return
		}
		to = parsed
	}

	logs, err := h.logService.GetLogsForClient(c.Request.Context(), profile.ID, from, to)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list workout logs.")
		return
	}

	responses := make([]WorkoutLogResponse, 0, len(logs))
	for i := range logs {
		responses = append(responses, MapWorkoutLogToResponse(&logs[i]))
	}
	c.JSON(http.StatusOK, responses)
}

// GetTodayLog returns today's workout log, 404 when the plan defines no
// workout for today.
func (h *ClientHandler) GetTodayLog(c *gin.Context) {
	profile, ok := h.profileFromContext(c)
	if !ok {
		return
	}

	log, err := h.logService.GetTodayLog(c.Request.Context(), profile.ID)
	if err != nil {
		if errors.Is(err, service.ErrLogNotFound) {
			abortWithError(c, http.StatusNotFound, "No workout scheduled for today.")
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to load today's workout.")
		}
		return
	}

	c.JSON(http.StatusOK, MapWorkoutLogToResponse(log))
}

func (h *ClientHandler) CompleteWorkout(c *gin.Context) {
	var req CompleteWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	profile, ok := h.profileFromContext(c)
	if !ok {
		return
	}

	logID, err := primitive.ObjectIDFromHex(c.Param("logId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid log ID format.")
		return
	}

	log, err := h.logService.CompleteWorkout(c.Request.Context(), profile.ID, logID, completedExercisesFromDTO(req.CompletedExercises), req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrLogNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrLogAccessDenied):
			abortWithError(c, http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrLogAlreadyCompleted):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to complete workout.")
		}
		return
	}

	c.JSON(http.StatusOK, MapWorkoutLogToResponse(log))
}

// RequestCheckInUpload returns a presigned PUT URL for the check-in photo.
func (h *ClientHandler) RequestCheckInUpload(c *gin.Context) {
	var req PhotoUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	profile, ok := h.profileFromContext(c)
	if !ok {
		return
	}

	ticket, err := h.checkInService.RequestPhotoUpload(c.Request.Context(), profile.ID, req.ContentType)
	if err != nil {
		if errors.Is(err, service.ErrInvalidContentType) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to create upload URL.")
		}
		return
	}

	c.JSON(http.StatusOK, PhotoUploadResponse{
		UploadURL: ticket.UploadURL,
		ObjectKey: ticket.ObjectKey,
		ExpiresIn: int64(ticket.ExpiresIn.Seconds()),
	})
}

func (h *ClientHandler) SubmitCheckIn(c *gin.Context) {
	var req SubmitCheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	profile, ok := h.profileFromContext(c)
	if !ok {
		return
	}

	checkIn, err := h.checkInService.SubmitCheckIn(c.Request.Context(), profile.ID, req.Date, req.ObjectKey, req.Latitude, req.Longitude)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCheckInExists), errors.Is(err, service.ErrInvalidCoordinates):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrNoTrainerAssigned):
			abortWithError(c, http.StatusForbidden, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to submit check-in.")
		}
		return
	}

	c.JSON(http.StatusCreated, MapCheckInToResponse(checkIn, ""))
}

func (h *ClientHandler) ListCheckIns(c *gin.Context) {
	profile, ok := h.profileFromContext(c)
	if !ok {
		return
	}

	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "30"), 10, 64)
	checkIns, err := h.checkInService.ListForClient(c.Request.Context(), profile.ID, limit)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list check-ins.")
		return
	}

	responses := make([]CheckInResponse, 0, len(checkIns))
	for i := range checkIns {
		responses = append(responses, MapCheckInToResponse(&checkIns[i], ""))
	}
	c.JSON(http.StatusOK, responses)
}

func (h *ClientHandler) ListPenalties(c *gin.Context) {
	profile, ok := h.profileFromContext(c)
	if !ok {
		return
	}

	records, err := h.gamification.GetPenaltyHistory(c.Request.Context(), profile.ID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list penalty records.")
		return
	}

	responses := make([]PenaltyRecordResponse, 0, len(records))
	for _, r := range records {
		responses = append(responses, PenaltyRecordResponse{
			ID:             r.ID.Hex(),
			WeekStartDate:  r.WeekStartDate,
			ScheduledCount: r.ScheduledCount,
			MissedCount:    r.MissedCount,
			CompletionRate: r.CompletionRate,
			PenaltyType:    string(r.PenaltyType),
		})
	}
	c.JSON(http.StatusOK, responses)
}

// SyncBatch reconciles offline-captured completions and check-ins.
func (h *ClientHandler) SyncBatch(c *gin.Context) {
	var req SyncBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	profile, ok := h.profileFromContext(c)
	if !ok {
		return
	}

	items := make([]service.SyncItem, 0, len(req.Items))
	for _, dto := range req.Items {
		items = append(items, service.SyncItem{
			Kind:               dto.Kind,
			Date:               dto.Date,
			CompletedExercises: completedExercisesFromDTO(dto.CompletedExercises),
			Notes:              dto.Notes,
			PhotoObjectKey:     dto.PhotoObjectKey,
			Latitude:           dto.Latitude,
			Longitude:          dto.Longitude,
		})
	}

	results, err := h.syncService.SyncBatch(c.Request.Context(), profile.ID, items)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to sync batch.")
		return
	}

	responses := make([]SyncItemResultDTO, 0, len(results))
	for _, r := range results {
		responses = append(responses, SyncItemResultDTO{
			Kind:   r.Kind,
			Date:   r.Date,
			Status: r.Status,
			Reason: r.Reason,
		})
	}
	c.JSON(http.StatusOK, gin.H{"results": responses})
}
