package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/catalogd/backend/internal/domain/shared"
	syncdomain "github.com/catalogd/backend/internal/domain/sync"
)

func setupJobTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&syncdomain.Job{})
	require.NoError(t, err)

	return db
}

func TestGormJobRepository_SaveAndFind(t *testing.T) {
	db := setupJobTestDB(t)
	repo := NewGormJobRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	userID := uuid.New()

	job, err := syncdomain.NewJob(tenantID, userID, 45)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, job))

	found, err := repo.FindByIDForTenant(ctx, tenantID, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 45, found.Total)
	assert.Equal(t, syncdomain.JobStatusRunning, found.Status)
	assert.Equal(t, userID, found.InitiatedBy)

	t.Run("scopes to tenant", func(t *testing.T) {
		_, err := repo.FindByIDForTenant(ctx, uuid.New(), job.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormJobRepository_FindLatestByUser(t *testing.T) {
	db := setupJobTestDB(t)
	repo := NewGormJobRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	userID := uuid.New()

	t.Run("no jobs yet", func(t *testing.T) {
		_, err := repo.FindLatestByUser(ctx, tenantID, userID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	older, err := syncdomain.NewJob(tenantID, userID, 10)
	require.NoError(t, err)
	older.UpdatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, repo.Save(ctx, older))

	newer, err := syncdomain.NewJob(tenantID, userID, 20)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, newer))

	t.Run("returns the most recently updated job", func(t *testing.T) {
		latest, err := repo.FindLatestByUser(ctx, tenantID, userID)
		require.NoError(t, err)
		assert.Equal(t, newer.ID, latest.ID)
	})

	t.Run("ignores other users", func(t *testing.T) {
		_, err := repo.FindLatestByUser(ctx, tenantID, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormJobRepository_UpdateProgress(t *testing.T) {
	db := setupJobTestDB(t)
	repo := NewGormJobRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	userID := uuid.New()

	job, err := syncdomain.NewJob(tenantID, userID, 40)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, job))

	require.NoError(t, job.RecordChunk(18, 2))
	require.NoError(t, repo.Save(ctx, job))

	found, err := repo.FindByIDForTenant(ctx, tenantID, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, found.Processed)
	assert.Equal(t, 18, found.Succeeded)
	assert.Equal(t, 2, found.Failed)
}
