package event

import (
	"context"
	"testing"
	"time"

	"github.com/catalogd/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryOutboxRepository struct {
	entries map[uuid.UUID]*shared.OutboxEntry
}

func newMemoryOutboxRepository() *memoryOutboxRepository {
	return &memoryOutboxRepository{entries: make(map[uuid.UUID]*shared.OutboxEntry)}
}

func (r *memoryOutboxRepository) Save(_ context.Context, entries ...*shared.OutboxEntry) error {
	for _, e := range entries {
		copied := *e
		r.entries[e.ID] = &copied
	}
	return nil
}

func (r *memoryOutboxRepository) FindPending(_ context.Context, limit int) ([]*shared.OutboxEntry, error) {
	var out []*shared.OutboxEntry
	for _, e := range r.entries {
		if e.Status == shared.OutboxStatusPending && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memoryOutboxRepository) FindRetryable(_ context.Context, before time.Time, limit int) ([]*shared.OutboxEntry, error) {
	var out []*shared.OutboxEntry
	for _, e := range r.entries {
		if e.Status == shared.OutboxStatusFailed && e.NextRetryAt != nil && e.NextRetryAt.Before(before) && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memoryOutboxRepository) FindDead(_ context.Context, page, pageSize int) ([]*shared.OutboxEntry, int64, error) {
	var dead []*shared.OutboxEntry
	for _, e := range r.entries {
		if e.Status == shared.OutboxStatusDead {
			dead = append(dead, e)
		}
	}
	total := int64(len(dead))
	start := (page - 1) * pageSize
	if start >= len(dead) {
		return nil, total, nil
	}
	end := start + pageSize
	if end > len(dead) {
		end = len(dead)
	}
	return dead[start:end], total, nil
}

func (r *memoryOutboxRepository) FindByID(_ context.Context, id uuid.UUID) (*shared.OutboxEntry, error) {
	if e, ok := r.entries[id]; ok {
		return e, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memoryOutboxRepository) MarkProcessing(_ context.Context, ids []uuid.UUID) ([]*shared.OutboxEntry, error) {
	var out []*shared.OutboxEntry
	for _, id := range ids {
		if e, ok := r.entries[id]; ok {
			if err := e.MarkProcessing(); err == nil {
				out = append(out, e)
			}
		}
	}
	return out, nil
}

func (r *memoryOutboxRepository) Update(_ context.Context, entry *shared.OutboxEntry) error {
	copied := *entry
	r.entries[entry.ID] = &copied
	return nil
}

func (r *memoryOutboxRepository) DeleteOlderThan(_ context.Context, before time.Time) (int64, error) {
	var n int64
	for id, e := range r.entries {
		if e.Status == shared.OutboxStatusSent && e.UpdatedAt.Before(before) {
			delete(r.entries, id)
			n++
		}
	}
	return n, nil
}

func (r *memoryOutboxRepository) CountByStatus(_ context.Context) (map[shared.OutboxStatus]int64, error) {
	counts := make(map[shared.OutboxStatus]int64)
	for _, e := range r.entries {
		counts[e.Status]++
	}
	return counts, nil
}

type stubEvent struct {
	shared.BaseDomainEvent
}

func deadEntry(t *testing.T, tenantID uuid.UUID) *shared.OutboxEntry {
	t.Helper()
	ev := &stubEvent{BaseDomainEvent: shared.NewBaseDomainEvent("test.event", "TestAggregate", uuid.New(), tenantID)}
	entry := shared.NewOutboxEntry(tenantID, ev, []byte(`{}`))
	for !entry.IsDead() {
		entry.MarkFailed("simulated delivery failure")
	}
	return entry
}

func newTestService(repo shared.OutboxRepository) *OutboxService {
	return NewOutboxService(repo, zap.NewNop())
}

func TestOutboxService_GetDeadLetterEntries(t *testing.T) {
	repo := newMemoryOutboxRepository()
	tenantID := uuid.New()
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Save(context.Background(), deadEntry(t, tenantID)))
	}

	svc := newTestService(repo)
	result, err := svc.GetDeadLetterEntries(context.Background(), OutboxFilter{})
	require.NoError(t, err)

	assert.Equal(t, int64(3), result.Total)
	assert.Len(t, result.Entries, 3)
	assert.Equal(t, 1, result.Page)
	for _, e := range result.Entries {
		assert.Equal(t, string(shared.OutboxStatusDead), e.Status)
	}
}

func TestOutboxService_RetryDeadEntry(t *testing.T) {
	repo := newMemoryOutboxRepository()
	entry := deadEntry(t, uuid.New())
	require.NoError(t, repo.Save(context.Background(), entry))

	svc := newTestService(repo)
	dto, err := svc.RetryDeadEntry(context.Background(), entry.ID)
	require.NoError(t, err)

	assert.Equal(t, string(shared.OutboxStatusPending), dto.Status)
	assert.Zero(t, dto.RetryCount)

	stored, err := repo.FindByID(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, shared.OutboxStatusPending, stored.Status)
}

func TestOutboxService_RetryDeadEntry_NotDead(t *testing.T) {
	repo := newMemoryOutboxRepository()
	tenantID := uuid.New()
	ev := &stubEvent{BaseDomainEvent: shared.NewBaseDomainEvent("test.event", "TestAggregate", uuid.New(), tenantID)}
	entry := shared.NewOutboxEntry(tenantID, ev, []byte(`{}`))
	require.NoError(t, repo.Save(context.Background(), entry))

	svc := newTestService(repo)
	_, err := svc.RetryDeadEntry(context.Background(), entry.ID)
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_STATE", domainErr.Code)
}

func TestOutboxService_RetryDeadEntry_NotFound(t *testing.T) {
	svc := newTestService(newMemoryOutboxRepository())

	_, err := svc.RetryDeadEntry(context.Background(), uuid.New())
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "ENTRY_NOT_FOUND", domainErr.Code)
}

func TestOutboxService_RetryAllDeadEntries(t *testing.T) {
	repo := newMemoryOutboxRepository()
	tenantID := uuid.New()
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Save(context.Background(), deadEntry(t, tenantID)))
	}

	svc := newTestService(repo)
	count, err := svc.RetryAllDeadEntries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)

	counts, err := repo.CountByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), counts[shared.OutboxStatusPending])
	assert.Zero(t, counts[shared.OutboxStatusDead])
}

func TestOutboxService_GetStats(t *testing.T) {
	repo := newMemoryOutboxRepository()
	tenantID := uuid.New()
	require.NoError(t, repo.Save(context.Background(), deadEntry(t, tenantID)))

	ev := &stubEvent{BaseDomainEvent: shared.NewBaseDomainEvent("test.event", "TestAggregate", uuid.New(), tenantID)}
	require.NoError(t, repo.Save(context.Background(), shared.NewOutboxEntry(tenantID, ev, []byte(`{}`))))

	svc := newTestService(repo)
	stats, err := svc.GetStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), stats.Dead)
	assert.Equal(t, int64(1), stats.Pending)
	assert.Equal(t, int64(2), stats.Total)
}
