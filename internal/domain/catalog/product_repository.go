package catalog

import (
	"context"

	"github.com/catalogd/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByID finds a product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByIDForTenant finds a product by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Product, error)

	// FindByCode finds a product by its code within a tenant
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*Product, error)

	// FindAllForTenant finds all products for a tenant
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Product, error)

	// FindPendingSync selects up to limit products awaiting synchronization,
	// ordered deterministically by ID so repeated selection without
	// advancement is impossible
	FindPendingSync(ctx context.Context, tenantID uuid.UUID, limit int) ([]Product, error)

	// Save creates or updates a product
	Save(ctx context.Context, product *Product) error

	// SaveBatch creates or updates multiple products
	SaveBatch(ctx context.Context, products []*Product) error

	// MarkSynced advances a product to synced only if it is still pending,
	// setting the owned image path and clearing the sync error.
	// Returns false if the row had already left pending.
	MarkSynced(ctx context.Context, tenantID, id uuid.UUID, imagePath *string) (bool, error)

	// MarkSyncFailed advances a product to failed only if it is still
	// pending, recording the failure reason.
	// Returns false if the row had already left pending.
	MarkSyncFailed(ctx context.Context, tenantID, id uuid.UUID, reason string) (bool, error)

	// ResetFailed moves every failed product of the tenant back to pending,
	// clearing sync errors. Returns the number of rows transitioned.
	ResetFailed(ctx context.Context, tenantID uuid.UUID) (int64, error)

	// CountBySyncStatus counts products by sync status for a tenant
	CountBySyncStatus(ctx context.Context, tenantID uuid.UUID, status SyncStatus) (int64, error)

	// CountForTenant counts all products for a tenant
	CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error)
}
