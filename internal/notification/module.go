// Package notification subscribes to status change events and records an
// outbox row per transition. Composing and sending the actual messages is
// the scheduler worker's concern; this module only captures intent, which
// keeps domain modules free of any notification knowledge.
package notification

import (
	"context"
	"time"

	"github.com/finicafferata/fly-fleet-sub001/internal/events"
	"github.com/finicafferata/fly-fleet-sub001/internal/notification/outbox"
	"github.com/finicafferata/fly-fleet-sub001/platform/logger"

	"github.com/google/uuid"
)

// OutboxWriter persists notification work items.
type OutboxWriter interface {
	Insert(ctx context.Context, p outbox.InsertParams) (uuid.UUID, error)
}

// Module handles all notification-related event subscriptions.
type Module struct {
	outbox OutboxWriter
	log    *logger.Logger
}

// New creates a new notification module.
func New(outboxRepo OutboxWriter, log *logger.Logger) *Module {
	return &Module{outbox: outboxRepo, log: log}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "notification" }

// RegisterHandlers subscribes to all relevant domain events on the event bus.
func (m *Module) RegisterHandlers(bus *events.InMemoryBus) {
	bus.Subscribe(events.QuoteStatusChanged{}.EventName(), m)
	bus.Subscribe(events.ContactStatusChanged{}.EventName(), m)
	bus.Subscribe(events.EmailDeliveryUpdated{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.QuoteStatusChanged:
		return m.handleQuoteStatusChanged(ctx, e)
	case events.ContactStatusChanged:
		return m.handleContactStatusChanged(ctx, e)
	case events.EmailDeliveryUpdated:
		return m.handleEmailDeliveryUpdated(ctx, e)
	default:
		m.log.Warn("unhandled event type", "event", event.EventName())
		return nil
	}
}

type statusChangedPayload struct {
	EntityID   string `json:"entityId"`
	FromStatus string `json:"fromStatus"`
	ToStatus   string `json:"toStatus"`
	Actor      string `json:"actor"`
	OccurredAt string `json:"occurredAt"`
}

type deliveryUpdatedPayload struct {
	MessageID  string `json:"messageId"`
	EventType  string `json:"eventType"`
	NewStatus  string `json:"newStatus"`
	OccurredAt string `json:"occurredAt"`
}

func (m *Module) handleQuoteStatusChanged(ctx context.Context, e events.QuoteStatusChanged) error {
	id, err := m.outbox.Insert(ctx, outbox.InsertParams{
		Kind:     "email",
		Template: "quote_status_changed",
		Payload: statusChangedPayload{
			EntityID:   e.QuoteID.String(),
			FromStatus: e.FromStatus,
			ToStatus:   e.ToStatus,
			Actor:      e.Actor,
			OccurredAt: e.OccurredAt().Format(time.RFC3339),
		},
	})
	if err != nil {
		m.log.Error("failed to record quote status outbox row", "quoteId", e.QuoteID, "error", err)
		return err
	}

	m.log.Info("outbox message recorded", "outboxId", id.String(), "template", "quote_status_changed", "quoteId", e.QuoteID)
	return nil
}

func (m *Module) handleContactStatusChanged(ctx context.Context, e events.ContactStatusChanged) error {
	id, err := m.outbox.Insert(ctx, outbox.InsertParams{
		Kind:     "email",
		Template: "contact_status_changed",
		Payload: statusChangedPayload{
			EntityID:   e.ContactID.String(),
			FromStatus: e.FromStatus,
			ToStatus:   e.ToStatus,
			Actor:      e.Actor,
			OccurredAt: e.OccurredAt().Format(time.RFC3339),
		},
	})
	if err != nil {
		m.log.Error("failed to record contact status outbox row", "contactId", e.ContactID, "error", err)
		return err
	}

	m.log.Info("outbox message recorded", "outboxId", id.String(), "template", "contact_status_changed", "contactId", e.ContactID)
	return nil
}

func (m *Module) handleEmailDeliveryUpdated(ctx context.Context, e events.EmailDeliveryUpdated) error {
	// Delivery regressions never reach here; only applied updates publish.
	// Bounces and complaints warrant operator attention, the rest is noise.
	if e.NewStatus != "bounced" && e.NewStatus != "failed" && e.NewStatus != "complained" {
		return nil
	}

	id, err := m.outbox.Insert(ctx, outbox.InsertParams{
		Kind:     "email",
		Template: "delivery_problem",
		Payload: deliveryUpdatedPayload{
			MessageID:  e.MessageID,
			EventType:  e.EventType,
			NewStatus:  e.NewStatus,
			OccurredAt: e.OccurredAt().Format(time.RFC3339),
		},
	})
	if err != nil {
		m.log.Error("failed to record delivery outbox row", "messageId", e.MessageID, "error", err)
		return err
	}

	m.log.Info("outbox message recorded", "outboxId", id.String(), "template", "delivery_problem", "messageId", e.MessageID)
	return nil
}
