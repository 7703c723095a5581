package event

import (
	"context"

	"github.com/catalogd/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// OutboxPublisher implements shared.EventPublisher by durably enqueuing
// events in the outbox table. Delivery to the in-process bus happens
// asynchronously via the OutboxProcessor, which gives publishers
// fire-and-forget semantics with at-least-once delivery.
type OutboxPublisher struct {
	repo       shared.OutboxRepository
	serializer *EventSerializer
}

// NewOutboxPublisher creates a new outbox publisher
func NewOutboxPublisher(repo shared.OutboxRepository, serializer *EventSerializer) *OutboxPublisher {
	return &OutboxPublisher{
		repo:       repo,
		serializer: serializer,
	}
}

// Publish serializes the events and persists them as pending outbox entries
func (p *OutboxPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	entries := make([]*shared.OutboxEntry, 0, len(events))
	for _, event := range events {
		payload, err := p.serializer.Serialize(event)
		if err != nil {
			return err
		}
		entries = append(entries, shared.NewOutboxEntry(event.TenantID(), event, payload))
	}

	return p.repo.Save(ctx, entries...)
}

// PublishWithTx enqueues events within the provided transaction so they are
// persisted atomically with the aggregate changes that produced them
func (p *OutboxPublisher) PublishWithTx(ctx context.Context, tx *gorm.DB, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	entries := make([]*shared.OutboxEntry, 0, len(events))
	for _, event := range events {
		payload, err := p.serializer.Serialize(event)
		if err != nil {
			return err
		}
		entries = append(entries, shared.NewOutboxEntry(event.TenantID(), event, payload))
	}

	return NewGormOutboxRepository(tx).Save(ctx, entries...)
}

// Ensure OutboxPublisher implements EventPublisher
var _ shared.EventPublisher = (*OutboxPublisher)(nil)
