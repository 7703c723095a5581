package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/catalogd/backend/internal/domain/catalog"
	"github.com/catalogd/backend/internal/domain/shared"
)

func setupProductTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&catalog.Product{})
	require.NoError(t, err)

	return db
}

func seedProduct(t *testing.T, repo *GormProductRepository, tenantID uuid.UUID, code string, imageURL string) *catalog.Product {
	t.Helper()

	product, err := catalog.NewProduct(tenantID, code, "Product "+code)
	require.NoError(t, err)
	if imageURL != "" {
		product.SetExternalImageURL(imageURL)
	}
	require.NoError(t, repo.Save(context.Background(), product))
	return product
}

func TestGormProductRepository_FindByCode(t *testing.T) {
	db := setupProductTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	seedProduct(t, repo, tenantID, "SKU-1", "")

	t.Run("finds by code case-insensitively", func(t *testing.T) {
		found, err := repo.FindByCode(ctx, tenantID, "sku-1")
		require.NoError(t, err)
		assert.Equal(t, "SKU-1", found.Code)
	})

	t.Run("scopes to tenant", func(t *testing.T) {
		_, err := repo.FindByCode(ctx, uuid.New(), "SKU-1")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormProductRepository_FindPendingSync(t *testing.T) {
	db := setupProductTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	for i := 0; i < 5; i++ {
		seedProduct(t, repo, tenantID, "SKU-"+string(rune('A'+i)), "")
	}

	t.Run("limits the batch", func(t *testing.T) {
		batch, err := repo.FindPendingSync(ctx, tenantID, 3)
		require.NoError(t, err)
		assert.Len(t, batch, 3)
	})

	t.Run("repeated selection without advancement returns the same rows", func(t *testing.T) {
		first, err := repo.FindPendingSync(ctx, tenantID, 3)
		require.NoError(t, err)
		second, err := repo.FindPendingSync(ctx, tenantID, 3)
		require.NoError(t, err)

		require.Len(t, second, len(first))
		for i := range first {
			assert.Equal(t, first[i].ID, second[i].ID)
		}
	})

	t.Run("excludes non-pending rows", func(t *testing.T) {
		batch, err := repo.FindPendingSync(ctx, tenantID, 10)
		require.NoError(t, err)

		ok, err := repo.MarkSynced(ctx, tenantID, batch[0].ID, nil)
		require.NoError(t, err)
		require.True(t, ok)

		remaining, err := repo.FindPendingSync(ctx, tenantID, 10)
		require.NoError(t, err)
		assert.Len(t, remaining, len(batch)-1)
	})
}

func TestGormProductRepository_MarkSynced(t *testing.T) {
	db := setupProductTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()

	t.Run("advances a pending row and stores the image path", func(t *testing.T) {
		product := seedProduct(t, repo, tenantID, "IMG-1", "https://cdn.example.com/a.jpg")

		imagePath := "tenants/" + tenantID.String() + "/products/" + product.ID.String() + "/image.jpg"
		ok, err := repo.MarkSynced(ctx, tenantID, product.ID, &imagePath)
		require.NoError(t, err)
		assert.True(t, ok)

		found, err := repo.FindByIDForTenant(ctx, tenantID, product.ID)
		require.NoError(t, err)
		assert.Equal(t, catalog.SyncStatusSynced, found.SyncStatus)
		require.NotNil(t, found.ImagePath)
		assert.Equal(t, imagePath, *found.ImagePath)
		assert.Nil(t, found.SyncError)
	})

	t.Run("second advance is a no-op", func(t *testing.T) {
		product := seedProduct(t, repo, tenantID, "IMG-2", "")

		ok, err := repo.MarkSynced(ctx, tenantID, product.ID, nil)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = repo.MarkSynced(ctx, tenantID, product.ID, nil)
		require.NoError(t, err)
		assert.False(t, ok, "row already left pending")
	})

	t.Run("does not advance a failed row", func(t *testing.T) {
		product := seedProduct(t, repo, tenantID, "IMG-3", "")

		ok, err := repo.MarkSyncFailed(ctx, tenantID, product.ID, "image fetch failed")
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = repo.MarkSynced(ctx, tenantID, product.ID, nil)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestGormProductRepository_MarkSyncFailed(t *testing.T) {
	db := setupProductTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	product := seedProduct(t, repo, tenantID, "FAIL-1", "https://dead.example.com/x.png")

	ok, err := repo.MarkSyncFailed(ctx, tenantID, product.ID, "fetch returned 404")
	require.NoError(t, err)
	assert.True(t, ok)

	found, err := repo.FindByIDForTenant(ctx, tenantID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, catalog.SyncStatusFailed, found.SyncStatus)
	require.NotNil(t, found.SyncError)
	assert.Equal(t, "fetch returned 404", *found.SyncError)
}

func TestGormProductRepository_ResetFailed(t *testing.T) {
	db := setupProductTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	otherTenant := uuid.New()

	for i := 0; i < 5; i++ {
		p := seedProduct(t, repo, tenantID, "RST-"+string(rune('A'+i)), "")
		_, err := repo.MarkSyncFailed(ctx, tenantID, p.ID, "boom")
		require.NoError(t, err)
	}
	seedProduct(t, repo, tenantID, "RST-OK", "")
	other := seedProduct(t, repo, otherTenant, "RST-X", "")
	_, err := repo.MarkSyncFailed(ctx, otherTenant, other.ID, "boom")
	require.NoError(t, err)

	count, err := repo.ResetFailed(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count, "only this tenant's failed rows move")

	pending, err := repo.CountBySyncStatus(ctx, tenantID, catalog.SyncStatusPending)
	require.NoError(t, err)
	assert.Equal(t, int64(6), pending)

	failed, err := repo.CountBySyncStatus(ctx, tenantID, catalog.SyncStatusFailed)
	require.NoError(t, err)
	assert.Equal(t, int64(0), failed)

	// Sync errors are cleared on reset
	reset, err := repo.FindPendingSync(ctx, tenantID, 10)
	require.NoError(t, err)
	for _, p := range reset {
		assert.Nil(t, p.SyncError)
	}
}

func TestGormProductRepository_Counts(t *testing.T) {
	db := setupProductTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	for i := 0; i < 3; i++ {
		seedProduct(t, repo, tenantID, "CNT-"+string(rune('A'+i)), "")
	}

	total, err := repo.CountForTenant(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	pending, err := repo.CountBySyncStatus(ctx, tenantID, catalog.SyncStatusPending)
	require.NoError(t, err)
	assert.Equal(t, int64(3), pending)

	synced, err := repo.CountBySyncStatus(ctx, tenantID, catalog.SyncStatusSynced)
	require.NoError(t, err)
	assert.Equal(t, int64(0), synced)
}

func TestGormProductRepository_FindAllForTenant(t *testing.T) {
	db := setupProductTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	for i := 0; i < 5; i++ {
		seedProduct(t, repo, tenantID, "PG-"+string(rune('A'+i)), "")
	}

	filter := shared.Filter{Page: 1, PageSize: 2, OrderBy: "code", OrderDir: "asc"}
	page, err := repo.FindAllForTenant(ctx, tenantID, filter)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "PG-A", page[0].Code)

	filter.Page = 3
	page, err = repo.FindAllForTenant(ctx, tenantID, filter)
	require.NoError(t, err)
	assert.Len(t, page, 1)
}
