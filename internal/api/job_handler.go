package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gsarma/texcompile/internal/jobs"
)

// JobResponse describes an async compile.
type JobResponse struct {
	ID          uuid.UUID   `json:"job_id"`
	Status      jobs.Status `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
	Error       *ApiError   `json:"error,omitempty"`
	ArtifactURL string      `json:"artifact_url,omitempty"`
}

func (h *Handler) lookupJob(c *gin.Context) (jobs.Job, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid job id")
		return jobs.Job{}, false
	}
	job, err := h.jobs.Get(id)
	if err != nil {
		errorResponse(c, err)
		return jobs.Job{}, false
	}
	return job, true
}

// GetJob returns the status of an async compile.
func (h *Handler) GetJob(c *gin.Context) {
	job, ok := h.lookupJob(c)
	if !ok {
		return
	}

	resp := JobResponse{
		ID:          job.ID,
		Status:      job.Status,
		CreatedAt:   job.CreatedAt,
		CompletedAt: job.CompletedAt,
	}
	switch job.Status {
	case jobs.StatusCompleted:
		resp.ArtifactURL = "/api/v0/jobs/" + job.ID.String() + "/artifact"
	case jobs.StatusFailed:
		_, apiErr := classify(job.Err)
		resp.Error = &apiErr
	}
	c.JSON(http.StatusOK, resp)
}

// GetJobArtifact returns the PDF of a completed async compile. A failed job
// answers with the error the synchronous endpoint would have returned.
func (h *Handler) GetJobArtifact(c *gin.Context) {
	job, ok := h.lookupJob(c)
	if !ok {
		return
	}

	switch job.Status {
	case jobs.StatusCompleted:
		writeArtifact(c, http.StatusOK, job.Artifact)
	case jobs.StatusFailed:
		errorResponse(c, job.Err)
	default:
		c.JSON(http.StatusConflict, ApiError{Message: "job is " + string(job.Status), Code: CodeNotReady})
	}
}
