package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/catalogd/backend/internal/domain/catalog"
	"github.com/catalogd/backend/internal/domain/shared"
)

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var product catalog.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// FindByIDForTenant finds a product by ID within a tenant
func (r *GormProductRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Product, error) {
	var product catalog.Product
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// FindByCode finds a product by its code within a tenant
func (r *GormProductRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*catalog.Product, error) {
	var product catalog.Product
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND code = ?", tenantID, strings.ToUpper(code)).
		First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// FindAllForTenant finds all products for a tenant
func (r *GormProductRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]catalog.Product, error) {
	var products []catalog.Product
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&catalog.Product{}).Where("tenant_id = ?", tenantID),
		filter,
	)

	if err := query.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// FindPendingSync selects up to limit pending products ordered by ID.
// The deterministic order matters: a chunk that fails to advance its rows
// would otherwise be handed the same rows forever in arbitrary order.
func (r *GormProductRepository) FindPendingSync(ctx context.Context, tenantID uuid.UUID, limit int) ([]catalog.Product, error) {
	var products []catalog.Product
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND sync_status = ?", tenantID, catalog.SyncStatusPending).
		Order("id asc").
		Limit(limit).
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// Save creates or updates a product
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// SaveBatch creates or updates multiple products
func (r *GormProductRepository) SaveBatch(ctx context.Context, products []*catalog.Product) error {
	if len(products) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Save(products).Error
}

// MarkSynced advances a product to synced only if it is still pending.
// The conditional update makes concurrent or replayed chunk deliveries
// harmless: the second writer sees zero affected rows.
func (r *GormProductRepository) MarkSynced(ctx context.Context, tenantID, id uuid.UUID, imagePath *string) (bool, error) {
	updates := map[string]any{
		"sync_status": catalog.SyncStatusSynced,
		"sync_error":  nil,
	}
	if imagePath != nil {
		updates["image_path"] = *imagePath
	}

	result := r.db.WithContext(ctx).
		Model(&catalog.Product{}).
		Where("tenant_id = ? AND id = ? AND sync_status = ?", tenantID, id, catalog.SyncStatusPending).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// MarkSyncFailed advances a product to failed only if it is still pending
func (r *GormProductRepository) MarkSyncFailed(ctx context.Context, tenantID, id uuid.UUID, reason string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&catalog.Product{}).
		Where("tenant_id = ? AND id = ? AND sync_status = ?", tenantID, id, catalog.SyncStatusPending).
		Updates(map[string]any{
			"sync_status": catalog.SyncStatusFailed,
			"sync_error":  reason,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ResetFailed moves every failed product of the tenant back to pending
func (r *GormProductRepository) ResetFailed(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&catalog.Product{}).
		Where("tenant_id = ? AND sync_status = ?", tenantID, catalog.SyncStatusFailed).
		Updates(map[string]any{
			"sync_status": catalog.SyncStatusPending,
			"sync_error":  nil,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// CountBySyncStatus counts products by sync status for a tenant
func (r *GormProductRepository) CountBySyncStatus(ctx context.Context, tenantID uuid.UUID, status catalog.SyncStatus) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&catalog.Product{}).
		Where("tenant_id = ? AND sync_status = ?", tenantID, status).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountForTenant counts all products for a tenant
func (r *GormProductRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&catalog.Product{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies pagination and ordering to a query
func (r *GormProductRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("code ILIKE ? OR name ILIKE ?", pattern, pattern)
	}

	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "created_at"
	}
	orderDir := filter.OrderDir
	if orderDir != "asc" {
		orderDir = "desc"
	}
	query = query.Order(orderBy + " " + orderDir)

	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize).Offset(filter.Offset())
	}

	return query
}

// Ensure GormProductRepository implements ProductRepository
var _ catalog.ProductRepository = (*GormProductRepository)(nil)
