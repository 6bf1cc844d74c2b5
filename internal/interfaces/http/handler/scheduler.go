package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/voltbill/backend/internal/infrastructure/scheduler"
	"github.com/voltbill/backend/internal/interfaces/http/dto"
)

// SchedulerHandler exposes the billing scheduler over the API
type SchedulerHandler struct {
	BaseHandler
	scheduler *scheduler.BillingScheduler
}

// NewSchedulerHandler creates a new SchedulerHandler
func NewSchedulerHandler(s *scheduler.BillingScheduler) *SchedulerHandler {
	return &SchedulerHandler{scheduler: s}
}

// RegisterRoutes registers scheduler routes on the API group
func (h *SchedulerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	jobs := rg.Group("/scheduler/jobs")
	{
		jobs.GET("", h.ListJobs)
		jobs.POST("/:id/run", h.RunJob)
	}
}

// ListJobs reports every job with its schedule and last outcome
func (h *SchedulerHandler) ListJobs(c *gin.Context) {
	h.Success(c, h.scheduler.JobStatuses())
}

// RunJob triggers one job immediately and waits for its result
func (h *SchedulerHandler) RunJob(c *gin.Context) {
	id := scheduler.JobID(c.Param("id"))

	result, err := h.scheduler.RunJobNow(c.Request.Context(), id)
	switch {
	case err == nil:
		h.Success(c, result)
	case errors.Is(err, scheduler.ErrUnknownJob):
		h.NotFound(c, err.Error())
	case errors.Is(err, scheduler.ErrJobAlreadyRunning):
		h.Conflict(c, err.Error())
	case errors.Is(err, scheduler.ErrSchedulerNotRunning):
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeConflict, err.Error())
	default:
		h.HandleError(c, err)
	}
}
