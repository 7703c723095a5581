package event

import (
	"github.com/catalogd/backend/internal/domain/catalog"
	"github.com/catalogd/backend/internal/domain/sync"
)

// RegisterAllEvents registers all domain event types with the serializer.
// This is required for the OutboxProcessor to deserialize events from the
// outbox table.
func RegisterAllEvents(serializer *EventSerializer) {
	// Sync pipeline events
	serializer.Register(sync.EventTypeChunkRequested, &sync.ChunkRequestedEvent{})
	serializer.Register(sync.EventTypeJobCompleted, &sync.JobCompletedEvent{})

	// Catalog events
	serializer.Register(catalog.EventTypeProductSynced, &catalog.ProductSyncedEvent{})
	serializer.Register(catalog.EventTypeProductSyncFailed, &catalog.ProductSyncFailedEvent{})
}
