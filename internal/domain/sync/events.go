package sync

import (
	"github.com/catalogd/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant
const AggregateTypeSyncJob = "SyncJob"

// Event type constants
const (
	EventTypeChunkRequested = "sync.chunk.requested"
	EventTypeJobCompleted   = "sync.job.completed"
)

// ChunkRequestedEvent asks the chunk worker to process the next bounded
// batch of pending products for a tenant. JobID is nil for the first chunk
// of a run that has no ledger row yet; the worker creates the row and
// threads its ID through every re-emitted event so the whole run shares
// one ledger entry.
type ChunkRequestedEvent struct {
	shared.BaseDomainEvent
	UserID    uuid.UUID  `json:"user_id"`
	ChunkSize int        `json:"chunk_size"`
	JobID     *uuid.UUID `json:"job_id,omitempty"`
}

// NewChunkRequestedEvent creates a new ChunkRequestedEvent
func NewChunkRequestedEvent(tenantID, userID uuid.UUID, chunkSize int, jobID *uuid.UUID) *ChunkRequestedEvent {
	aggID := uuid.Nil
	if jobID != nil {
		aggID = *jobID
	}
	return &ChunkRequestedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeChunkRequested, AggregateTypeSyncJob, aggID, tenantID),
		UserID:          userID,
		ChunkSize:       chunkSize,
		JobID:           jobID,
	}
}

// JobCompletedEvent is published when a sync run reaches a terminal status
type JobCompletedEvent struct {
	shared.BaseDomainEvent
	JobID     uuid.UUID `json:"job_id"`
	Status    JobStatus `json:"status"`
	Total     int       `json:"total"`
	Processed int       `json:"processed"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
}

// NewJobCompletedEvent creates a new JobCompletedEvent
func NewJobCompletedEvent(job *Job) *JobCompletedEvent {
	return &JobCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeJobCompleted, AggregateTypeSyncJob, job.ID, job.TenantID),
		JobID:           job.ID,
		Status:          job.Status,
		Total:           job.Total,
		Processed:       job.Processed,
		Succeeded:       job.Succeeded,
		Failed:          job.Failed,
	}
}
