package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/catalogd/backend/internal/application/event"
	"github.com/catalogd/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockOutboxRepository implements shared.OutboxRepository for testing
type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) Save(ctx context.Context, entries ...*shared.OutboxEntry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

func (m *MockOutboxRepository) FindPending(ctx context.Context, limit int) ([]*shared.OutboxEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*shared.OutboxEntry), args.Error(1)
}

func (m *MockOutboxRepository) FindRetryable(ctx context.Context, before time.Time, limit int) ([]*shared.OutboxEntry, error) {
	args := m.Called(ctx, before, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*shared.OutboxEntry), args.Error(1)
}

func (m *MockOutboxRepository) FindDead(ctx context.Context, page, pageSize int) ([]*shared.OutboxEntry, int64, error) {
	args := m.Called(ctx, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*shared.OutboxEntry), args.Get(1).(int64), args.Error(2)
}

func (m *MockOutboxRepository) FindByID(ctx context.Context, id uuid.UUID) (*shared.OutboxEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.OutboxEntry), args.Error(1)
}

func (m *MockOutboxRepository) MarkProcessing(ctx context.Context, ids []uuid.UUID) ([]*shared.OutboxEntry, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*shared.OutboxEntry), args.Error(1)
}

func (m *MockOutboxRepository) Update(ctx context.Context, entry *shared.OutboxEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockOutboxRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOutboxRepository) CountByStatus(ctx context.Context) (map[shared.OutboxStatus]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[shared.OutboxStatus]int64), args.Error(1)
}

type outboxEvent struct {
	shared.BaseDomainEvent
}

func newOutboxTestRouter(repo shared.OutboxRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api/v1")
	NewOutboxHandler(event.NewOutboxService(repo, zap.NewNop())).RegisterRoutes(api)
	return r
}

func newDeadOutboxEntry(tenantID uuid.UUID) *shared.OutboxEntry {
	ev := &outboxEvent{BaseDomainEvent: shared.NewBaseDomainEvent("sync.chunk.requested", "SyncJob", uuid.New(), tenantID)}
	entry := shared.NewOutboxEntry(tenantID, ev, []byte(`{}`))
	for !entry.IsDead() {
		entry.MarkFailed("simulated delivery failure")
	}
	return entry
}

func TestOutboxHandler_GetStats(t *testing.T) {
	repo := new(MockOutboxRepository)
	repo.On("CountByStatus", mock.Anything).Return(map[shared.OutboxStatus]int64{
		shared.OutboxStatusPending: 2,
		shared.OutboxStatusSent:    10,
		shared.OutboxStatusDead:    1,
	}, nil)
	router := newOutboxTestRouter(repo)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/admin/outbox/stats", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"pending":2`)
	assert.Contains(t, w.Body.String(), `"sent":10`)
	assert.Contains(t, w.Body.String(), `"dead":1`)
	assert.Contains(t, w.Body.String(), `"total":13`)
}

func TestOutboxHandler_GetDeadLetterEntries(t *testing.T) {
	tenantID := uuid.New()
	entry := newDeadOutboxEntry(tenantID)
	repo := new(MockOutboxRepository)
	repo.On("FindDead", mock.Anything, 1, 20).Return([]*shared.OutboxEntry{entry}, int64(1), nil)
	router := newOutboxTestRouter(repo)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/admin/outbox/dead", nil))

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool               `json:"success"`
		Data    OutboxListResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Entries, 1)
	assert.Equal(t, entry.ID.String(), resp.Data.Entries[0].ID)
	assert.Equal(t, string(shared.OutboxStatusDead), resp.Data.Entries[0].Status)
	assert.Equal(t, int64(1), resp.Data.Total)
}

func TestOutboxHandler_RetryDeadEntry(t *testing.T) {
	entry := newDeadOutboxEntry(uuid.New())
	repo := new(MockOutboxRepository)
	repo.On("FindByID", mock.Anything, entry.ID).Return(entry, nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)
	router := newOutboxTestRouter(repo)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/admin/outbox/"+entry.ID.String()+"/retry", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"PENDING"`)
}

func TestOutboxHandler_RetryDeadEntry_NotFound(t *testing.T) {
	id := uuid.New()
	repo := new(MockOutboxRepository)
	repo.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)
	router := newOutboxTestRouter(repo)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/admin/outbox/"+id.String()+"/retry", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_NOT_FOUND")
}

func TestOutboxHandler_RetryDeadEntry_InvalidID(t *testing.T) {
	router := newOutboxTestRouter(new(MockOutboxRepository))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/admin/outbox/not-a-uuid/retry", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
