package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/catalogd/backend/internal/domain/shared"
	syncdomain "github.com/catalogd/backend/internal/domain/sync"
)

// GormJobRepository implements sync.JobRepository using GORM
type GormJobRepository struct {
	db *gorm.DB
}

// NewGormJobRepository creates a new GormJobRepository
func NewGormJobRepository(db *gorm.DB) *GormJobRepository {
	return &GormJobRepository{db: db}
}

// FindByIDForTenant finds a job by ID within a tenant
func (r *GormJobRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*syncdomain.Job, error) {
	var job syncdomain.Job
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

// FindLatestByUser returns the most-recently-updated job initiated by the user
func (r *GormJobRepository) FindLatestByUser(ctx context.Context, tenantID, userID uuid.UUID) (*syncdomain.Job, error) {
	var job syncdomain.Job
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND initiated_by = ?", tenantID, userID).
		Order("updated_at desc").
		First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

// Save creates or updates a job
func (r *GormJobRepository) Save(ctx context.Context, job *syncdomain.Job) error {
	return r.db.WithContext(ctx).Save(job).Error
}

// Ensure GormJobRepository implements JobRepository
var _ syncdomain.JobRepository = (*GormJobRepository)(nil)
