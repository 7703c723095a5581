package sync

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/catalogd/backend/internal/domain/catalog"
	"github.com/catalogd/backend/internal/domain/shared"
	syncdomain "github.com/catalogd/backend/internal/domain/sync"
)

func newTestService(products *fakeProductRepository, jobs *fakeJobRepository, publisher *capturingPublisher) *Service {
	return NewService(products, jobs, publisher, DefaultConfig(), zap.NewNop())
}

func seedPending(t *testing.T, repo *fakeProductRepository, tenantID uuid.UUID, n int, imageURL string) []*catalog.Product {
	t.Helper()

	products := make([]*catalog.Product, 0, n)
	for i := 0; i < n; i++ {
		p, err := catalog.NewProduct(tenantID, uuid.NewString()[:8], "Product")
		require.NoError(t, err)
		if imageURL != "" {
			p.SetExternalImageURL(imageURL)
		}
		require.NoError(t, repo.Save(context.Background(), p))
		products = append(products, p)
	}
	return products
}

func TestService_StartSync(t *testing.T) {
	tenantID := uuid.New()
	userID := uuid.New()

	t.Run("enqueues a first chunk request without a job id", func(t *testing.T) {
		publisher := &capturingPublisher{}
		service := newTestService(newFakeProductRepository(), newFakeJobRepository(), publisher)

		chunkSize, err := service.StartSync(context.Background(), tenantID, userID, 50, nil)
		require.NoError(t, err)
		assert.Equal(t, 50, chunkSize)

		event := publisher.popChunkEvent()
		require.NotNil(t, event)
		assert.Equal(t, tenantID, event.TenantID())
		assert.Equal(t, userID, event.UserID)
		assert.Equal(t, 50, event.ChunkSize)
		assert.Nil(t, event.JobID, "ledger row is created by the worker, not the dispatcher")
	})

	t.Run("forwards an explicit job id unverified", func(t *testing.T) {
		publisher := &capturingPublisher{}
		service := newTestService(newFakeProductRepository(), newFakeJobRepository(), publisher)

		jobID := uuid.New()
		_, err := service.StartSync(context.Background(), tenantID, userID, 50, &jobID)
		require.NoError(t, err)

		event := publisher.popChunkEvent()
		require.NotNil(t, event)
		require.NotNil(t, event.JobID)
		assert.Equal(t, jobID, *event.JobID)
	})

	t.Run("applies the default chunk size", func(t *testing.T) {
		publisher := &capturingPublisher{}
		service := newTestService(newFakeProductRepository(), newFakeJobRepository(), publisher)

		chunkSize, err := service.StartSync(context.Background(), tenantID, userID, 0, nil)
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig().DefaultChunkSize, chunkSize)
	})

	t.Run("rejects an oversized chunk", func(t *testing.T) {
		publisher := &capturingPublisher{}
		service := newTestService(newFakeProductRepository(), newFakeJobRepository(), publisher)

		_, err := service.StartSync(context.Background(), tenantID, userID, DefaultConfig().MaxChunkSize+1, nil)
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_CHUNK_SIZE", domainErr.Code)
		assert.Equal(t, 0, publisher.chunkEventCount())
	})

	t.Run("rejects an anonymous caller", func(t *testing.T) {
		publisher := &capturingPublisher{}
		service := newTestService(newFakeProductRepository(), newFakeJobRepository(), publisher)

		_, err := service.StartSync(context.Background(), tenantID, uuid.Nil, 20, nil)
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})
}

func TestService_ResetFailed(t *testing.T) {
	tenantID := uuid.New()
	userID := uuid.New()

	products := newFakeProductRepository()
	seeded := seedPending(t, products, tenantID, 7, "")
	for _, p := range seeded[:5] {
		_, err := products.MarkSyncFailed(context.Background(), tenantID, p.ID, "boom")
		require.NoError(t, err)
	}

	service := newTestService(products, newFakeJobRepository(), &capturingPublisher{})

	count, err := service.ResetFailed(context.Background(), tenantID, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)

	pending, err := service.PendingCount(context.Background(), tenantID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), pending)

	failed, err := service.FailedCount(context.Background(), tenantID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), failed)

	t.Run("rejects an anonymous caller", func(t *testing.T) {
		_, err := service.ResetFailed(context.Background(), tenantID, uuid.Nil)
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})
}

func TestService_LatestJob(t *testing.T) {
	tenantID := uuid.New()
	userID := uuid.New()

	jobs := newFakeJobRepository()
	service := newTestService(newFakeProductRepository(), jobs, &capturingPublisher{})

	t.Run("no runs yet", func(t *testing.T) {
		_, err := service.LatestJob(context.Background(), tenantID, userID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	job, err := syncdomain.NewJob(tenantID, userID, 10)
	require.NoError(t, err)
	require.NoError(t, jobs.Save(context.Background(), job))

	found, err := service.LatestJob(context.Background(), tenantID, userID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, found.ID)
}
