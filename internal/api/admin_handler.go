package api

import (
	"net/http"

	"kinetix/backend/internal/repository"
	"kinetix/backend/internal/scheduler"

	"github.com/gin-gonic/gin"
)

// AdminHandler exposes operational endpoints: listing trainer subscriptions
// and triggering scheduled jobs on demand.
type AdminHandler struct {
	trainerRepo repository.TrainerProfileRepository
	jobs        *scheduler.Jobs
}

func NewAdminHandler(trainerRepo repository.TrainerProfileRepository, jobs *scheduler.Jobs) *AdminHandler {
	return &AdminHandler{
		trainerRepo: trainerRepo,
		jobs:        jobs,
	}
}

// ListTrainers returns every trainer profile with subscription state.
func (h *AdminHandler) ListTrainers(c *gin.Context) {
	trainers, err := h.trainerRepo.ListAll(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list trainers.")
		return
	}

	responses := make([]TrainerProfileResponse, 0, len(trainers))
	for i := range trainers {
		responses = append(responses, MapTrainerProfileToResponse(&trainers[i]))
	}
	c.JSON(http.StatusOK, responses)
}

// RunJob triggers a named scheduled job immediately and reports its outcome.
func (h *AdminHandler) RunJob(c *gin.Context) {
	name := c.Param("name")

	known, err := h.jobs.RunByName(c.Request.Context(), name)
	if !known {
		abortWithError(c, http.StatusNotFound, "Unknown job: "+name)
		return
	}
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Job failed: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"job": name, "status": "completed"})
}
