package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/catalogd/backend/internal/domain/catalog"
	"github.com/catalogd/backend/internal/domain/shared"
	syncdomain "github.com/catalogd/backend/internal/domain/sync"
	"github.com/catalogd/backend/internal/infrastructure/media"
)

// ImageInternalizer copies an external product image into owned storage
// and returns the storage key. Implemented by media.ImageInternalizer.
type ImageInternalizer interface {
	Internalize(ctx context.Context, tenantID, productID uuid.UUID, externalURL string) (string, error)
}

// ChunkHandler processes one chunk of a synchronization run. It advances a
// bounded batch of pending products, updates the run's ledger row, and
// either re-enqueues the next chunk or completes the run.
//
// The handler tolerates redelivery: row advancement is conditional on the
// row still being pending, and rows another delivery already advanced are
// simply skipped.
type ChunkHandler struct {
	products     catalog.ProductRepository
	jobs         syncdomain.JobRepository
	internalizer ImageInternalizer
	publisher    shared.EventPublisher
	logger       *zap.Logger
}

// NewChunkHandler creates a new ChunkHandler
func NewChunkHandler(
	products catalog.ProductRepository,
	jobs syncdomain.JobRepository,
	internalizer ImageInternalizer,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *ChunkHandler {
	return &ChunkHandler{
		products:     products,
		jobs:         jobs,
		internalizer: internalizer,
		publisher:    publisher,
		logger:       logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *ChunkHandler) EventTypes() []string {
	return []string{syncdomain.EventTypeChunkRequested}
}

// Handle processes a ChunkRequestedEvent
func (h *ChunkHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	chunkEvent, ok := event.(*syncdomain.ChunkRequestedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			syncdomain.EventTypeChunkRequested, event.EventType())
	}

	tenantID := chunkEvent.TenantID()

	job, err := h.resolveJob(ctx, chunkEvent)
	if err != nil {
		return err
	}
	if !job.IsRunning() {
		// Terminal job: a stale redelivery of an already-finished run.
		h.logger.Debug("ignoring chunk for terminal job",
			zap.String("job_id", job.ID.String()),
			zap.String("status", string(job.Status)),
		)
		return nil
	}

	batch, err := h.products.FindPendingSync(ctx, tenantID, chunkEvent.ChunkSize)
	if err != nil {
		return fmt.Errorf("failed to load pending products: %w", err)
	}

	succeeded, failed := 0, 0
	for i := range batch {
		advanced, rowErr := h.processRow(ctx, &batch[i])
		if rowErr != nil {
			return rowErr
		}
		switch advanced {
		case rowSynced:
			succeeded++
		case rowFailed:
			failed++
		case rowSkipped:
			// Another delivery advanced the row; it is not ours to count.
		}
	}

	if err := job.RecordChunk(succeeded, failed); err != nil {
		return err
	}
	if err := h.jobs.Save(ctx, job); err != nil {
		return fmt.Errorf("failed to save job progress: %w", err)
	}

	remaining, err := h.products.CountBySyncStatus(ctx, tenantID, catalog.SyncStatusPending)
	if err != nil {
		return fmt.Errorf("failed to count remaining backlog: %w", err)
	}

	if remaining > 0 {
		next := syncdomain.NewChunkRequestedEvent(tenantID, chunkEvent.UserID, chunkEvent.ChunkSize, &job.ID)
		if err := h.publisher.Publish(ctx, next); err != nil {
			return fmt.Errorf("failed to enqueue next chunk: %w", err)
		}
		h.logger.Debug("chunk processed, next chunk enqueued",
			zap.String("job_id", job.ID.String()),
			zap.Int("succeeded", succeeded),
			zap.Int("failed", failed),
			zap.Int64("remaining", remaining),
		)
		return nil
	}

	if err := job.Complete(); err != nil {
		return err
	}
	if err := h.jobs.Save(ctx, job); err != nil {
		return fmt.Errorf("failed to save completed job: %w", err)
	}
	if err := h.publisher.Publish(ctx, job.GetDomainEvents()...); err != nil {
		h.logger.Warn("failed to publish job completed event",
			zap.String("job_id", job.ID.String()),
			zap.Error(err),
		)
	}
	job.ClearDomainEvents()

	h.logger.Info("sync run completed",
		zap.String("job_id", job.ID.String()),
		zap.String("status", string(job.Status)),
		zap.Int("total", job.Total),
		zap.Int("processed", job.Processed),
		zap.Int("failed", job.Failed),
	)

	return nil
}

// resolveJob loads the run's ledger row, creating it on the first chunk.
// The total is fixed at creation time as the tenant's pending backlog.
func (h *ChunkHandler) resolveJob(ctx context.Context, event *syncdomain.ChunkRequestedEvent) (*syncdomain.Job, error) {
	tenantID := event.TenantID()

	if event.JobID != nil {
		job, err := h.jobs.FindByIDForTenant(ctx, tenantID, *event.JobID)
		if err == nil {
			return job, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("failed to load sync job %s: %w", event.JobID, err)
		}
		// The dispatcher forwards job ids unverified; a stale one starts
		// a fresh ledger row instead of poisoning the event.
		h.logger.Warn("sync job not found, creating a new ledger row",
			zap.String("job_id", event.JobID.String()),
			zap.String("tenant_id", tenantID.String()),
		)
	}

	total, err := h.products.CountBySyncStatus(ctx, tenantID, catalog.SyncStatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to count pending backlog: %w", err)
	}

	job, err := syncdomain.NewJob(tenantID, event.UserID, int(total))
	if err != nil {
		return nil, err
	}
	if err := h.jobs.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create sync job: %w", err)
	}

	h.logger.Info("sync job created",
		zap.String("job_id", job.ID.String()),
		zap.String("tenant_id", tenantID.String()),
		zap.Int("total", job.Total),
	)

	return job, nil
}

type rowOutcome int

const (
	rowSynced rowOutcome = iota
	rowFailed
	rowSkipped
)

// processRow advances a single product. Row-level media failures mark the
// row failed and the run continues; infrastructure failures abort the
// chunk so the delivery machinery retries it.
func (h *ChunkHandler) processRow(ctx context.Context, product *catalog.Product) (rowOutcome, error) {
	tenantID := product.TenantID

	var imagePath *string
	if product.NeedsImageInternalization() {
		key, err := h.internalizer.Internalize(ctx, tenantID, product.ID, product.ExternalImageURL)
		if err != nil {
			if isRowLevelMediaError(err) {
				return h.failRow(ctx, product, err)
			}
			return rowSkipped, fmt.Errorf("image internalization for product %s: %w", product.ID, err)
		}
		imagePath = &key
	}

	advanced, err := h.products.MarkSynced(ctx, tenantID, product.ID, imagePath)
	if err != nil {
		return rowSkipped, fmt.Errorf("failed to mark product %s synced: %w", product.ID, err)
	}
	if !advanced {
		return rowSkipped, nil
	}
	return rowSynced, nil
}

func (h *ChunkHandler) failRow(ctx context.Context, product *catalog.Product, cause error) (rowOutcome, error) {
	advanced, err := h.products.MarkSyncFailed(ctx, product.TenantID, product.ID, cause.Error())
	if err != nil {
		return rowSkipped, fmt.Errorf("failed to mark product %s failed: %w", product.ID, err)
	}

	h.logger.Warn("product sync failed",
		zap.String("product_id", product.ID.String()),
		zap.String("code", product.Code),
		zap.Error(cause),
	)

	if !advanced {
		return rowSkipped, nil
	}
	return rowFailed, nil
}

// isRowLevelMediaError reports whether the error concerns only this row's
// image rather than shared infrastructure. Storage failures are treated as
// infrastructure: if the bucket is down, failing every row of the run
// would be wrong.
func isRowLevelMediaError(err error) bool {
	var fetchErr *media.FetchError
	var unsupportedErr *media.UnsupportedMediaError
	return errors.As(err, &fetchErr) || errors.As(err, &unsupportedErr)
}

// Ensure ChunkHandler implements shared.EventHandler
var _ shared.EventHandler = (*ChunkHandler)(nil)
