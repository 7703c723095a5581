package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryObjectStorage_UploadOverwrites(t *testing.T) {
	store := NewMemoryObjectStorage()
	ctx := context.Background()

	require.NoError(t, store.Upload(ctx, "tenants/t/products/p/image.png", []byte("v1"), "image/png"))
	require.NoError(t, store.Upload(ctx, "tenants/t/products/p/image.png", []byte("v2"), "image/png"))

	data, contentType, ok := store.Get("tenants/t/products/p/image.png")
	require.True(t, ok)
	assert.Equal(t, []byte("v2"), data)
	assert.Equal(t, "image/png", contentType)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryObjectStorage_ObjectExists(t *testing.T) {
	store := NewMemoryObjectStorage()
	ctx := context.Background()

	exists, err := store.ObjectExists(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Upload(ctx, "key", []byte("data"), "image/jpeg"))

	exists, err = store.ObjectExists(ctx, "key")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = store.ObjectExists(ctx, "")
	assert.Error(t, err)
}

func TestMemoryObjectStorage_DeleteObject(t *testing.T) {
	store := NewMemoryObjectStorage()
	ctx := context.Background()

	require.NoError(t, store.Upload(ctx, "key", []byte("data"), "image/jpeg"))
	require.NoError(t, store.DeleteObject(ctx, "key"))

	exists, err := store.ObjectExists(ctx, "key")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.NoError(t, store.DeleteObject(ctx, "key"), "deleting a missing key is not an error")
}

func TestMemoryObjectStorage_GenerateDownloadURL(t *testing.T) {
	store := NewMemoryObjectStorage()

	url, expiresAt, err := store.GenerateDownloadURL(context.Background(), "tenants/t/products/p/image.png", time.Hour)
	require.NoError(t, err)
	assert.Contains(t, url, "tenants/t/products/p/image.png")
	assert.True(t, expiresAt.After(time.Now()))
}
