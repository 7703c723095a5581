// Package integration exercises the full catalog synchronization
// pipeline against a real database: service, outbox, event bus, chunk
// worker, and image internalization wired together the way the server
// binary wires them.
package integration

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/catalogd/backend/internal/domain/catalog"
	"github.com/catalogd/backend/internal/domain/shared"
	syncdomain "github.com/catalogd/backend/internal/domain/sync"
)

// openTestDB returns an in-memory database migrated with the full
// catalog sync schema.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&catalog.Product{},
		&syncdomain.Job{},
		&shared.OutboxEntry{},
	)
	require.NoError(t, err)

	return db
}
