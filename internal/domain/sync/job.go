package sync

import (
	"fmt"
	"time"

	"github.com/catalogd/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// JobStatus represents the status of a synchronization run
type JobStatus string

const (
	JobStatusRunning             JobStatus = "running"
	JobStatusCompleted           JobStatus = "completed"
	JobStatusCompletedWithErrors JobStatus = "completed_with_errors"
)

// IsValid checks if the status is valid
func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusRunning, JobStatusCompleted, JobStatusCompletedWithErrors:
		return true
	}
	return false
}

// IsTerminal returns true if this is a terminal state
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusCompletedWithErrors
}

// Job is the ledger entry for one catalog synchronization run. It is
// created when the first chunk resolves the run, incremented by every
// chunk belonging to the run, and never mutated after reaching a
// terminal status.
type Job struct {
	shared.TenantAggregateRoot
	InitiatedBy uuid.UUID `gorm:"type:uuid;not null;index"`
	Total       int       `gorm:"not null;default:0"`
	Processed   int       `gorm:"not null;default:0"`
	Succeeded   int       `gorm:"not null;default:0"`
	Failed      int       `gorm:"not null;default:0"`
	Status      JobStatus `gorm:"type:varchar(30);not null;default:'running'"`
}

// TableName returns the table name for GORM
func (Job) TableName() string {
	return "sync_jobs"
}

// NewJob creates a new running sync job. total is the tenant's pending
// backlog at the moment the ledger row is created.
func NewJob(tenantID, initiatedBy uuid.UUID, total int) (*Job, error) {
	if initiatedBy == uuid.Nil {
		return nil, shared.ErrUnauthorized
	}
	if total < 0 {
		return nil, shared.NewDomainError("INVALID_TOTAL", "Total cannot be negative")
	}

	return &Job{
		TenantAggregateRoot: shared.NewTenantAggregateRootWithCreator(tenantID, initiatedBy),
		InitiatedBy:         initiatedBy,
		Total:               total,
		Status:              JobStatusRunning,
	}, nil
}

// RecordChunk adds one chunk's results to the ledger counters. Counters are
// monotonically non-decreasing; a terminal job rejects further chunks.
func (j *Job) RecordChunk(succeeded, failed int) error {
	if j.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot record chunk on %s job", j.Status))
	}
	if succeeded < 0 || failed < 0 {
		return shared.NewDomainError("INVALID_COUNTS", "Chunk counts cannot be negative")
	}

	j.Succeeded += succeeded
	j.Failed += failed
	j.Processed += succeeded + failed
	j.UpdatedAt = time.Now()
	j.IncrementVersion()

	return nil
}

// Complete moves the job to its terminal status: completed, or
// completed_with_errors when any row failed.
func (j *Job) Complete() error {
	if j.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Job is already %s", j.Status))
	}

	if j.Failed > 0 {
		j.Status = JobStatusCompletedWithErrors
	} else {
		j.Status = JobStatusCompleted
	}
	j.UpdatedAt = time.Now()
	j.IncrementVersion()

	j.AddDomainEvent(NewJobCompletedEvent(j))

	return nil
}

// IsRunning returns true if the job has not reached a terminal status
func (j *Job) IsRunning() bool {
	return j.Status == JobStatusRunning
}
