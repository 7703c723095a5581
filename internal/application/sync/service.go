// Package sync orchestrates catalog synchronization runs: dispatching,
// chunk processing and the reprocessing of failed rows.
package sync

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/catalogd/backend/internal/domain/catalog"
	"github.com/catalogd/backend/internal/domain/shared"
	syncdomain "github.com/catalogd/backend/internal/domain/sync"
)

// Config holds sync service settings
type Config struct {
	DefaultChunkSize int
	MaxChunkSize     int
}

// DefaultConfig returns the default sync service configuration
func DefaultConfig() Config {
	return Config{
		DefaultChunkSize: 20,
		MaxChunkSize:     500,
	}
}

// Service coordinates catalog synchronization runs. Starting a run only
// enqueues the first chunk request; all row processing happens
// asynchronously in the ChunkHandler.
type Service struct {
	products  catalog.ProductRepository
	jobs      syncdomain.JobRepository
	publisher shared.EventPublisher
	config    Config
	logger    *zap.Logger
}

// NewService creates a new sync Service
func NewService(
	products catalog.ProductRepository,
	jobs syncdomain.JobRepository,
	publisher shared.EventPublisher,
	config Config,
	logger *zap.Logger,
) *Service {
	if config.DefaultChunkSize <= 0 {
		config.DefaultChunkSize = DefaultConfig().DefaultChunkSize
	}
	if config.MaxChunkSize <= 0 {
		config.MaxChunkSize = DefaultConfig().MaxChunkSize
	}

	return &Service{
		products:  products,
		jobs:      jobs,
		publisher: publisher,
		config:    config,
		logger:    logger,
	}
}

// StartSync enqueues the first chunk request of a synchronization run.
// It returns the chunk size the run will use. A non-nil jobID resumes an
// existing run; it is passed through unverified, the chunk worker resolves
// it. With a nil jobID the ledger row is created by the chunk worker, not
// here, so a crashed enqueue leaves no orphan job.
func (s *Service) StartSync(ctx context.Context, tenantID, userID uuid.UUID, chunkSize int, jobID *uuid.UUID) (int, error) {
	if userID == uuid.Nil {
		return 0, shared.ErrUnauthorized
	}
	if chunkSize <= 0 {
		chunkSize = s.config.DefaultChunkSize
	}
	if chunkSize > s.config.MaxChunkSize {
		return 0, shared.NewDomainError("INVALID_CHUNK_SIZE", "Chunk size exceeds the allowed maximum")
	}

	event := syncdomain.NewChunkRequestedEvent(tenantID, userID, chunkSize, jobID)
	if err := s.publisher.Publish(ctx, event); err != nil {
		return 0, err
	}

	s.logger.Info("sync run started",
		zap.String("tenant_id", tenantID.String()),
		zap.String("user_id", userID.String()),
		zap.Int("chunk_size", chunkSize),
	)

	return chunkSize, nil
}

// ResetFailed moves every failed product of the tenant back to pending and
// returns the number of rows moved. The rows rejoin the backlog of the
// next run; no run is started implicitly.
func (s *Service) ResetFailed(ctx context.Context, tenantID, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, shared.ErrUnauthorized
	}

	count, err := s.products.ResetFailed(ctx, tenantID)
	if err != nil {
		return 0, err
	}

	s.logger.Info("failed products reset to pending",
		zap.String("tenant_id", tenantID.String()),
		zap.Int64("count", count),
	)

	return count, nil
}

// LatestJob returns the most recent sync job initiated by the user, or
// shared.ErrNotFound if the user never ran a sync
func (s *Service) LatestJob(ctx context.Context, tenantID, userID uuid.UUID) (*syncdomain.Job, error) {
	if userID == uuid.Nil {
		return nil, shared.ErrUnauthorized
	}
	return s.jobs.FindLatestByUser(ctx, tenantID, userID)
}

// PendingCount returns the tenant's current pending-sync backlog
func (s *Service) PendingCount(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return s.products.CountBySyncStatus(ctx, tenantID, catalog.SyncStatusPending)
}

// FailedCount returns the number of products whose last sync attempt failed
func (s *Service) FailedCount(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return s.products.CountBySyncStatus(ctx, tenantID, catalog.SyncStatusFailed)
}
