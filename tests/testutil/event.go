package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/catalogd/backend/internal/domain/shared"
)

// CapturingEventHandler records every event it receives. It implements
// shared.EventHandler and can be told to fail, which exercises retry
// paths in the outbox processor.
type CapturingEventHandler struct {
	mu         sync.Mutex
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
}

// NewCapturingEventHandler creates a handler subscribed to the given types.
func NewCapturingEventHandler(eventTypes ...string) *CapturingEventHandler {
	return &CapturingEventHandler{
		eventTypes: eventTypes,
		handled:    make([]shared.DomainEvent, 0),
	}
}

// EventTypes returns the event types this handler subscribes to.
func (h *CapturingEventHandler) EventTypes() []string {
	return h.eventTypes
}

// Handle records the event and returns the configured error, if any.
func (h *CapturingEventHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	return h.err
}

// Handled returns a copy of all recorded events.
func (h *CapturingEventHandler) Handled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	result := make([]shared.DomainEvent, len(h.handled))
	copy(result, h.handled)
	return result
}

// HandledCount returns the number of recorded events.
func (h *CapturingEventHandler) HandledCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

// SetError makes subsequent Handle calls fail with err.
func (h *CapturingEventHandler) SetError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.err = err
}

// Reset clears recorded events and the configured error.
func (h *CapturingEventHandler) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = make([]shared.DomainEvent, 0)
	h.err = nil
}

// StubEvent is a minimal domain event for bus and outbox tests.
type StubEvent struct {
	shared.BaseDomainEvent
	Data string `json:"data"`
}

// NewStubEvent creates a stub event of the given type for a tenant.
func NewStubEvent(eventType string, tenantID uuid.UUID) *StubEvent {
	return &StubEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "StubAggregate", uuid.New(), tenantID),
		Data:            "stub-data",
	}
}

// WaitForCondition polls until the condition holds or the timeout elapses.
// Returns whether the condition was met.
func WaitForCondition(t *testing.T, condition func() bool, timeout, interval time.Duration) bool {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(interval)
	}
	return false
}

// WaitForEventCount waits until the handler has recorded at least count events.
func WaitForEventCount(t *testing.T, handler *CapturingEventHandler, count int, timeout time.Duration) bool {
	t.Helper()

	return WaitForCondition(t, func() bool {
		return handler.HandledCount() >= count
	}, timeout, 10*time.Millisecond)
}
