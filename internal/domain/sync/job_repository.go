package sync

import (
	"context"

	"github.com/google/uuid"
)

// JobRepository defines the interface for sync job ledger persistence
type JobRepository interface {
	// FindByIDForTenant finds a job by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Job, error)

	// FindLatestByUser returns the most-recently-updated job initiated by
	// the user, or shared.ErrNotFound if the user never ran a sync
	FindLatestByUser(ctx context.Context, tenantID, userID uuid.UUID) (*Job, error)

	// Save creates or updates a job
	Save(ctx context.Context, job *Job) error
}
