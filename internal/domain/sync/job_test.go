package sync

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJob(t *testing.T) {
	tenantID := uuid.New()
	userID := uuid.New()

	t.Run("creates running job", func(t *testing.T) {
		job, err := NewJob(tenantID, userID, 45)
		require.NoError(t, err)

		assert.Equal(t, JobStatusRunning, job.Status)
		assert.Equal(t, 45, job.Total)
		assert.Equal(t, 0, job.Processed)
		assert.Equal(t, userID, job.InitiatedBy)
		assert.Equal(t, tenantID, job.TenantID)
	})

	t.Run("rejects missing initiator", func(t *testing.T) {
		_, err := NewJob(tenantID, uuid.Nil, 10)
		assert.Error(t, err)
	})

	t.Run("rejects negative total", func(t *testing.T) {
		_, err := NewJob(tenantID, userID, -1)
		assert.Error(t, err)
	})
}

func TestJob_RecordChunk(t *testing.T) {
	t.Run("processed equals succeeded plus failed", func(t *testing.T) {
		job, err := NewJob(uuid.New(), uuid.New(), 45)
		require.NoError(t, err)

		require.NoError(t, job.RecordChunk(18, 2))
		assert.Equal(t, 20, job.Processed)
		assert.Equal(t, 18, job.Succeeded)
		assert.Equal(t, 2, job.Failed)

		require.NoError(t, job.RecordChunk(20, 0))
		require.NoError(t, job.RecordChunk(5, 0))

		assert.Equal(t, 45, job.Processed)
		assert.Equal(t, job.Succeeded+job.Failed, job.Processed)
		assert.LessOrEqual(t, job.Processed, job.Total)
	})

	t.Run("rejects negative counts", func(t *testing.T) {
		job, err := NewJob(uuid.New(), uuid.New(), 10)
		require.NoError(t, err)
		assert.Error(t, job.RecordChunk(-1, 0))
	})

	t.Run("terminal job rejects further chunks", func(t *testing.T) {
		job, err := NewJob(uuid.New(), uuid.New(), 10)
		require.NoError(t, err)
		require.NoError(t, job.RecordChunk(10, 0))
		require.NoError(t, job.Complete())

		assert.Error(t, job.RecordChunk(1, 0))
		assert.Equal(t, 10, job.Processed, "counters unchanged after terminal status")
	})
}

func TestJob_Complete(t *testing.T) {
	t.Run("completed when no failures", func(t *testing.T) {
		job, err := NewJob(uuid.New(), uuid.New(), 5)
		require.NoError(t, err)
		require.NoError(t, job.RecordChunk(5, 0))

		require.NoError(t, job.Complete())
		assert.Equal(t, JobStatusCompleted, job.Status)
		assert.True(t, job.Status.IsTerminal())
		assert.Len(t, job.GetDomainEvents(), 1)
	})

	t.Run("completed_with_errors when any row failed", func(t *testing.T) {
		job, err := NewJob(uuid.New(), uuid.New(), 5)
		require.NoError(t, err)
		require.NoError(t, job.RecordChunk(4, 1))

		require.NoError(t, job.Complete())
		assert.Equal(t, JobStatusCompletedWithErrors, job.Status)
	})

	t.Run("cannot complete twice", func(t *testing.T) {
		job, err := NewJob(uuid.New(), uuid.New(), 0)
		require.NoError(t, err)
		require.NoError(t, job.Complete())
		assert.Error(t, job.Complete())
	})
}
