package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"kinetix/backend/internal/domain"
	"kinetix/backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TrainerHandler serves the trainer-facing surface: profile, subscription,
// roster and check-in review.
type TrainerHandler struct {
	trainerService service.TrainerService
	checkInService service.CheckInService
	logService     service.WorkoutLogService
}

func NewTrainerHandler(trainerService service.TrainerService, checkInService service.CheckInService, logService service.WorkoutLogService) *TrainerHandler {
	return &TrainerHandler{
		trainerService: trainerService,
		checkInService: checkInService,
		logService:     logService,
	}
}

// --- DTOs ---

type TrainerProfileResponse struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	Status          string    `json:"subscriptionStatus"`
	Tier            string    `json:"subscriptionTier"`
	ExpiresAt       time.Time `json:"subscriptionExpiresAt"`
	IsActive        bool      `json:"isActive"`
	MaxClients      int       `json:"maxClients"`
	ClientCount     int       `json:"clientCount"`
	Bio             string    `json:"bio,omitempty"`
	Specializations []string  `json:"specializations,omitempty"`
}

func MapTrainerProfileToResponse(p *domain.TrainerProfile) TrainerProfileResponse {
	if p == nil {
		return TrainerProfileResponse{}
	}
	return TrainerProfileResponse{
		ID:              p.ID.Hex(),
		UserID:          p.UserID.Hex(),
		Status:          string(p.Subscription.Status),
		Tier:            string(p.Subscription.Tier),
		ExpiresAt:       p.Subscription.ExpiresAt,
		IsActive:        p.IsActive,
		MaxClients:      p.MaxClients,
		ClientCount:     len(p.ClientIDs),
		Bio:             p.Bio,
		Specializations: p.Specializations,
	}
}

type UpdateTrainerProfileRequest struct {
	Bio             string   `json:"bio"`
	Specializations []string `json:"specializations"`
}

type UpgradeSubscriptionRequest struct {
	Tier domain.SubscriptionTier `json:"tier" binding:"required,oneof=basic pro elite"`
}

type AddClientRequest struct {
	ClientEmail string `json:"clientEmail" binding:"required,email"`
}

type ManagedClientResponse struct {
	User    UserResponse          `json:"user"`
	Profile ClientProfileResponse `json:"profile"`
}

type VerifyCheckInRequest struct {
	Status  domain.CheckInStatus `json:"status" binding:"required,oneof=approved rejected"`
	Comment string               `json:"comment"`
}

type CheckInResponse struct {
	ID             string     `json:"id"`
	ClientID       string     `json:"clientId"`
	CheckInDate    time.Time  `json:"checkInDate"`
	Latitude       float64    `json:"latitude"`
	Longitude      float64    `json:"longitude"`
	Status         string     `json:"status"`
	TrainerComment string     `json:"trainerComment,omitempty"`
	VerifiedAt     *time.Time `json:"verifiedAt,omitempty"`
	PhotoURL       string     `json:"photoUrl,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

func MapCheckInToResponse(ci *domain.CheckIn, photoURL string) CheckInResponse {
	if ci == nil {
		return CheckInResponse{}
	}
	return CheckInResponse{
		ID:             ci.ID.Hex(),
		ClientID:       ci.ClientID.Hex(),
		CheckInDate:    ci.CheckInDate,
		Latitude:       ci.Latitude,
		Longitude:      ci.Longitude,
		Status:         string(ci.Status),
		TrainerComment: ci.TrainerComment,
		VerifiedAt:     ci.VerifiedAt,
		PhotoURL:       photoURL,
		CreatedAt:      ci.CreatedAt,
	}
}

// --- Handler Methods ---

// GetProfile returns the authenticated trainer's profile.
func (h *TrainerHandler) GetProfile(c *gin.Context) {
	trainerUserID, err := getUserObjectIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify trainer from token.")
		return
	}

	profile, err := h.trainerService.GetProfileByUserID(c.Request.Context(), trainerUserID)
	if err != nil {
		if errors.Is(err, service.ErrTrainerNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to load trainer profile.")
		}
		return
	}

	c.JSON(http.StatusOK, MapTrainerProfileToResponse(profile))
}

// UpdateProfile updates bio and specializations.
func (h *TrainerHandler) UpdateProfile(c *gin.Context) {
	var req UpdateTrainerProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	trainerUserID, err := getUserObjectIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify trainer from token.")
		return
	}

	profile, err := h.trainerService.UpdateDetails(c.Request.Context(), trainerUserID, req.Bio, req.Specializations)
	if err != nil {
		if errors.Is(err, service.ErrTrainerNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to update trainer profile.")
		}
		return
	}

	c.JSON(http.StatusOK, MapTrainerProfileToResponse(profile))
}

// UpgradeSubscription moves the trainer to a new tier. A same-tier request
// is rejected with 400.
func (h *TrainerHandler) UpgradeSubscription(c *gin.Context) {
	var req UpgradeSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	trainerUserID, err := getUserObjectIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify trainer from token.")
		return
	}

	profile, err := h.trainerService.UpgradeSubscription(c.Request.Context(), trainerUserID, req.Tier)
	if err != nil {
		if errors.Is(err, service.ErrSameTierUpgrade) || errors.Is(err, service.ErrInvalidTier) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else if errors.Is(err, service.ErrTrainerNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to upgrade subscription.")
		}
		return
	}

	c.JSON(http.StatusOK, MapTrainerProfileToResponse(profile))
}

// AddClientByEmail associates an existing client user with the trainer.
func (h *TrainerHandler) AddClientByEmail(c *gin.Context) {
	var req AddClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	trainerUserID, err := getUserObjectIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify trainer from token.")
		return
	}

	client, err := h.trainerService.AddClientByEmail(c.Request.Context(), trainerUserID, req.ClientEmail)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrClientNotFound), errors.Is(err, service.ErrTrainerNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrClientNotRole), errors.Is(err, service.ErrClientAlreadyAssigned):
			abortWithError(c, http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrCapacityExceeded):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to add client.")
		}
		return
	}

	c.JSON(http.StatusOK, MapClientProfileToResponse(client))
}

// RemoveClient detaches a client from the trainer's roster.
func (h *TrainerHandler) RemoveClient(c *gin.Context) {
	trainerUserID, err := getUserObjectIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify trainer from token.")
		return
	}

	clientID, err := primitive.ObjectIDFromHex(c.Param("clientId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid client ID format.")
		return
	}

	err = h.trainerService.RemoveClient(c.Request.Context(), trainerUserID, clientID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrClientNotFound), errors.Is(err, service.ErrTrainerNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrClientNotManaged):
			abortWithError(c, http.StatusForbidden, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to remove client.")
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// GetManagedClients lists the trainer's roster.
func (h *TrainerHandler) GetManagedClients(c *gin.Context) {
	trainerUserID, err := getUserObjectIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify trainer from token.")
		return
	}

	clients, err := h.trainerService.GetManagedClients(c.Request.Context(), trainerUserID)
	if err != nil {
		if errors.Is(err, service.ErrTrainerNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve managed clients.")
		}
		return
	}

	responses := make([]ManagedClientResponse, 0, len(clients))
	for i := range clients {
		responses = append(responses, ManagedClientResponse{
			User:    MapUserToResponse(&clients[i].User),
			Profile: MapClientProfileToResponse(&clients[i].Profile),
		})
	}
	c.JSON(http.StatusOK, responses)
}

// GetClientLogs returns one managed client's workout logs between ?from and
// ?to (default: the current week).
func (h *TrainerHandler) GetClientLogs(c *gin.Context) {
	trainerUserID, err := getUserObjectIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify trainer from token.")
		return
	}

	clientID, err := primitive.ObjectIDFromHex(c.Param("clientId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid client ID format.")
		return
	}

	client, err := h.trainerService.GetManagedClient(c.Request.Context(), trainerUserID, clientID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrClientNotFound), errors.Is(err, service.ErrTrainerNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrClientNotManaged):
			abortWithError(c, http.StatusForbidden, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to load client.")
		}
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

	logs, err := h.logService.GetLogsForClient(c.Request.Context(), client.ID, from, to)
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

// ListCheckIns returns check-ins submitted by the trainer's clients,
// optionally filtered by status (?status=pending).
func (h *TrainerHandler) ListCheckIns(c *gin.Context) {
	trainerUserID, err := getUserObjectIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify trainer from token.")
		return
	}

	status := domain.CheckInStatus(c.Query("status"))
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)

	checkIns, err := h.checkInService.ListForTrainer(c.Request.Context(), trainerUserID, status, limit)
	if err != nil {
		if errors.Is(err, service.ErrTrainerNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to list check-ins.")
		}
		return
	}

	responses := make([]CheckInResponse, 0, len(checkIns))
	for i := range checkIns {
		// Photo URLs are presigned per request; a failure just omits the URL.
		url, _ := h.checkInService.PhotoDownloadURL(c.Request.Context(), &checkIns[i])
		responses = append(responses, MapCheckInToResponse(&checkIns[i], url))
	}
	c.JSON(http.StatusOK, responses)
}

// VerifyCheckIn approves or rejects a client's gym visit.
func (h *TrainerHandler) VerifyCheckIn(c *gin.Context) {
	var req VerifyCheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	trainerUserID, err := getUserObjectIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify trainer from token.")
		return
	}

	checkInID, err := primitive.ObjectIDFromHex(c.Param("checkInId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid check-in ID format.")
		return
	}

	checkIn, err := h.trainerService.VerifyCheckIn(c.Request.Context(), trainerUserID, checkInID, req.Status, req.Comment)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCheckInNotFound), errors.Is(err, service.ErrTrainerNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrCheckInAccessDenied):
			abortWithError(c, http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrInvalidVerification):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to verify check-in.")
		}
		return
	}

	c.JSON(http.StatusOK, MapCheckInToResponse(checkIn, ""))
}
