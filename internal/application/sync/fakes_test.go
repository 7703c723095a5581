package sync

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/catalogd/backend/internal/domain/catalog"
	"github.com/catalogd/backend/internal/domain/shared"
	syncdomain "github.com/catalogd/backend/internal/domain/sync"
	"github.com/catalogd/backend/internal/infrastructure/media"
)

// fakeProductRepository is an in-memory ProductRepository with the same
// conditional-advancement semantics as the GORM implementation
type fakeProductRepository struct {
	mu       sync.Mutex
	products map[uuid.UUID]*catalog.Product
}

func newFakeProductRepository() *fakeProductRepository {
	return &fakeProductRepository{products: make(map[uuid.UUID]*catalog.Product)}
}

func (r *fakeProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *fakeProductRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Product, error) {
	p, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

func (r *fakeProductRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.TenantID == tenantID && p.Code == strings.ToUpper(code) {
			copied := *p
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeProductRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []catalog.Product
	for _, p := range r.products {
		if p.TenantID == tenantID {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (r *fakeProductRepository) FindPendingSync(ctx context.Context, tenantID uuid.UUID, limit int) ([]catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var pending []*catalog.Product
	for _, p := range r.products {
		if p.TenantID == tenantID && p.SyncStatus == catalog.SyncStatusPending {
			pending = append(pending, p)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].ID.String() < pending[j].ID.String()
	})
	if len(pending) > limit {
		pending = pending[:limit]
	}
	result := make([]catalog.Product, len(pending))
	for i, p := range pending {
		result[i] = *p
	}
	return result, nil
}

func (r *fakeProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *product
	r.products[product.ID] = &copied
	return nil
}

func (r *fakeProductRepository) SaveBatch(ctx context.Context, products []*catalog.Product) error {
	for _, p := range products {
		if err := r.Save(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeProductRepository) MarkSynced(ctx context.Context, tenantID, id uuid.UUID, imagePath *string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok || p.TenantID != tenantID || p.SyncStatus != catalog.SyncStatusPending {
		return false, nil
	}
	p.SyncStatus = catalog.SyncStatusSynced
	p.SyncError = nil
	if imagePath != nil {
		path := *imagePath
		p.ImagePath = &path
	}
	return true, nil
}

func (r *fakeProductRepository) MarkSyncFailed(ctx context.Context, tenantID, id uuid.UUID, reason string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok || p.TenantID != tenantID || p.SyncStatus != catalog.SyncStatusPending {
		return false, nil
	}
	p.SyncStatus = catalog.SyncStatusFailed
	p.SyncError = &reason
	return true, nil
}

func (r *fakeProductRepository) ResetFailed(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, p := range r.products {
		if p.TenantID == tenantID && p.SyncStatus == catalog.SyncStatusFailed {
			p.SyncStatus = catalog.SyncStatusPending
			p.SyncError = nil
			count++
		}
	}
	return count, nil
}

func (r *fakeProductRepository) CountBySyncStatus(ctx context.Context, tenantID uuid.UUID, status catalog.SyncStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, p := range r.products {
		if p.TenantID == tenantID && p.SyncStatus == status {
			count++
		}
	}
	return count, nil
}

func (r *fakeProductRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, p := range r.products {
		if p.TenantID == tenantID {
			count++
		}
	}
	return count, nil
}

var _ catalog.ProductRepository = (*fakeProductRepository)(nil)

// fakeJobRepository is an in-memory JobRepository
type fakeJobRepository struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*syncdomain.Job
}

func newFakeJobRepository() *fakeJobRepository {
	return &fakeJobRepository{jobs: make(map[uuid.UUID]*syncdomain.Job)}
}

func (r *fakeJobRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*syncdomain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok || job.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	copied := *job
	return &copied, nil
}

func (r *fakeJobRepository) FindLatestByUser(ctx context.Context, tenantID, userID uuid.UUID) (*syncdomain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *syncdomain.Job
	for _, job := range r.jobs {
		if job.TenantID != tenantID || job.InitiatedBy != userID {
			continue
		}
		if latest == nil || job.UpdatedAt.After(latest.UpdatedAt) {
			latest = job
		}
	}
	if latest == nil {
		return nil, shared.ErrNotFound
	}
	copied := *latest
	return &copied, nil
}

func (r *fakeJobRepository) Save(ctx context.Context, job *syncdomain.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *job
	r.jobs[job.ID] = &copied
	return nil
}

func (r *fakeJobRepository) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

var _ syncdomain.JobRepository = (*fakeJobRepository)(nil)

// capturingPublisher records published events in order
type capturingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *capturingPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

// popChunkEvent removes and returns the oldest undelivered chunk request
func (p *capturingPublisher) popChunkEvent() *syncdomain.ChunkRequestedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, e := range p.events {
		if chunk, ok := e.(*syncdomain.ChunkRequestedEvent); ok {
			p.events = append(p.events[:i], p.events[i+1:]...)
			return chunk
		}
	}
	return nil
}

func (p *capturingPublisher) chunkEventCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	count := 0
	for _, e := range p.events {
		if _, ok := e.(*syncdomain.ChunkRequestedEvent); ok {
			count++
		}
	}
	return count
}

func (p *capturingPublisher) completedEvents() []*syncdomain.JobCompletedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var result []*syncdomain.JobCompletedEvent
	for _, e := range p.events {
		if done, ok := e.(*syncdomain.JobCompletedEvent); ok {
			result = append(result, done)
		}
	}
	return result
}

var _ shared.EventPublisher = (*capturingPublisher)(nil)

// stubInternalizer returns deterministic keys, failing URLs listed in failWith
type stubInternalizer struct {
	mu       sync.Mutex
	failWith map[string]error
	calls    []string
}

func newStubInternalizer() *stubInternalizer {
	return &stubInternalizer{failWith: make(map[string]error)}
}

func (s *stubInternalizer) Internalize(ctx context.Context, tenantID, productID uuid.UUID, externalURL string) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, externalURL)
	err := s.failWith[externalURL]
	s.mu.Unlock()

	if err != nil {
		return "", err
	}
	return media.StorageKey(tenantID, productID, ".jpg"), nil
}

var _ ImageInternalizer = (*stubInternalizer)(nil)
