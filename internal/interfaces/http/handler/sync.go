package handler

import (
	"errors"
	"time"

	appsync "github.com/catalogd/backend/internal/application/sync"
	"github.com/catalogd/backend/internal/domain/shared"
	syncdomain "github.com/catalogd/backend/internal/domain/sync"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SyncHandler handles catalog synchronization HTTP requests
type SyncHandler struct {
	BaseHandler
	syncService *appsync.Service
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(syncService *appsync.Service) *SyncHandler {
	return &SyncHandler{
		syncService: syncService,
	}
}

// StartSyncRequest represents the start-sync request body. JobID resumes
// an existing run; it is forwarded unverified.
type StartSyncRequest struct {
	ChunkSize int    `json:"chunk_size" binding:"omitempty,min=1"`
	JobID     string `json:"job_id" binding:"omitempty,uuid"`
}

// StartSyncResponse represents the start-sync response. JobID echoes the
// resumed run's id and is null for a fresh run, whose ledger row does not
// exist yet; clients discover it through the latest-job endpoint.
type StartSyncResponse struct {
	Message   string  `json:"message"`
	ChunkSize int     `json:"chunk_size"`
	JobID     *string `json:"job_id"`
}

// StartSync enqueues a new catalog synchronization run. The run proceeds
// asynchronously in chunks; progress is visible through the latest-job
// endpoint.
func (h *SyncHandler) StartSync(c *gin.Context) {
	// An empty body is fine, a malformed one is not
	var req StartSyncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, "Invalid request body")
			return
		}
	}

	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var jobID *uuid.UUID
	if req.JobID != "" {
		parsed, err := uuid.Parse(req.JobID)
		if err != nil {
			h.BadRequest(c, "Invalid job ID")
			return
		}
		jobID = &parsed
	}

	chunkSize, err := h.syncService.StartSync(c.Request.Context(), tenantID, userID, req.ChunkSize, jobID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	var echoedJobID *string
	if jobID != nil {
		s := jobID.String()
		echoedJobID = &s
	}
	h.Accepted(c, StartSyncResponse{
		Message:   "Catalog synchronization started",
		ChunkSize: chunkSize,
		JobID:     echoedJobID,
	})
}

// ReprocessResponse represents the reprocess-failed response
type ReprocessResponse struct {
	Message string `json:"message"`
	Count   int64  `json:"count"`
}

// ReprocessFailed moves every failed product back into the pending backlog
// so the next run picks it up again.
func (h *SyncHandler) ReprocessFailed(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	count, err := h.syncService.ResetFailed(c.Request.Context(), tenantID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ReprocessResponse{
		Message: "Failed products queued for reprocessing",
		Count:   count,
	})
}

// JobResponse represents a sync job in API responses
type JobResponse struct {
	ID          string    `json:"id"`
	InitiatedBy string    `json:"initiated_by"`
	Status      string    `json:"status"`
	Total       int       `json:"total"`
	Processed   int       `json:"processed"`
	Succeeded   int       `json:"succeeded"`
	Failed      int       `json:"failed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toJobResponse(job *syncdomain.Job) JobResponse {
	return JobResponse{
		ID:          job.ID.String(),
		InitiatedBy: job.InitiatedBy.String(),
		Status:      string(job.Status),
		Total:       job.Total,
		Processed:   job.Processed,
		Succeeded:   job.Succeeded,
		Failed:      job.Failed,
		CreatedAt:   job.CreatedAt,
		UpdatedAt:   job.UpdatedAt,
	}
}

// GetLatestJob returns the caller's most recent sync job. Responds with
// data null when the user never started a run.
func (h *SyncHandler) GetLatestJob(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	job, err := h.syncService.LatestJob(c.Request.Context(), tenantID, userID)
	if err != nil {
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) && domainErr.Code == "NOT_FOUND" {
			h.Success(c, nil)
			return
		}
		h.HandleError(c, err)
		return
	}

	h.Success(c, toJobResponse(job))
}

// PendingCountResponse represents the pending backlog size
type PendingCountResponse struct {
	Count int64 `json:"count"`
}

// GetPendingCount returns the number of products still waiting to be synced
func (h *SyncHandler) GetPendingCount(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	count, err := h.syncService.PendingCount(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, PendingCountResponse{Count: count})
}

// RegisterRoutes registers all catalog sync routes
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	catalog := rg.Group("/catalog")
	{
		catalog.POST("/sync", h.StartSync)
		catalog.POST("/sync/reprocess", h.ReprocessFailed)
		catalog.GET("/sync/jobs/latest", h.GetLatestJob)
		catalog.GET("/sync/pending-count", h.GetPendingCount)
	}
}
