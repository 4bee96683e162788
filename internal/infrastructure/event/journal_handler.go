package event

import (
	"context"
	"fmt"

	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// JournalHandler writes every event it receives to the structured log as a
// serialized payload, giving an audit trail of cost movements.
type JournalHandler struct {
	serializer *EventSerializer
	base       *zap.Logger
}

// NewJournalHandler creates a journal handler logging through base, enriched
// with the trace and request identifiers of the publishing context
func NewJournalHandler(serializer *EventSerializer, base *zap.Logger) *JournalHandler {
	if base == nil {
		base = zap.NewNop()
	}
	return &JournalHandler{serializer: serializer, base: base}
}

// Handle logs the event
func (h *JournalHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if !h.serializer.IsRegistered(event.EventType()) {
		return fmt.Errorf("journal: unregistered event type %s", event.EventType())
	}
	payload, err := h.serializer.Serialize(event)
	if err != nil {
		return fmt.Errorf("journal: %w", err)
	}

	logger.WithLogger(ctx, h.base).Info("costing event",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
		zap.ByteString("payload", payload),
	)
	return nil
}

// EventTypes returns nil so the handler receives every event
func (h *JournalHandler) EventTypes() []string {
	return nil
}

var _ shared.EventHandler = (*JournalHandler)(nil)
