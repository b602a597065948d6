package events

import "github.com/google/uuid"

// QuoteStatusChanged is published after a quote request status transition
// has been appended to the event log.
type QuoteStatusChanged struct {
	BaseEvent
	QuoteID    uuid.UUID
	FromStatus string
	ToStatus   string
	Actor      string
}

// EventName returns the event identifier.
func (e QuoteStatusChanged) EventName() string { return "quote.status_changed" }

// ContactStatusChanged is published after a contact submission transition.
type ContactStatusChanged struct {
	BaseEvent
	ContactID  uuid.UUID
	FromStatus string
	ToStatus   string
	Actor      string
}

// EventName returns the event identifier.
func (e ContactStatusChanged) EventName() string { return "contact.status_changed" }

// EmailDeliveryUpdated is published when an inbound provider webhook moved
// a delivery record to a new status.
type EmailDeliveryUpdated struct {
	BaseEvent
	MessageID string
	EventType string
	NewStatus string
}

// EventName returns the event identifier.
func (e EmailDeliveryUpdated) EventName() string { return "delivery.status_updated" }
