// Package delivery provides the email delivery webhook bounded context
// module. Inbound provider events drive a small, monotonic status machine
// keyed by the provider's message id.
package delivery

import "strings"

// Status is an email delivery status.
type Status string

const (
	StatusPending    Status = "pending"
	StatusSent       Status = "sent"
	StatusDelivered  Status = "delivered"
	StatusBounced    Status = "bounced"
	StatusFailed     Status = "failed"
	StatusComplained Status = "complained"
)

// statusRank orders delivery statuses by lifecycle progress. Updates only
// ever move a delivery to a higher rank, so a late-arriving "sent" can never
// overwrite "bounced".
var statusRank = map[Status]int{
	StatusPending:    0,
	StatusSent:       1,
	StatusDelivered:  2,
	StatusBounced:    3,
	StatusFailed:     3,
	StatusComplained: 4,
}

// Rank returns the lifecycle rank of a status. Unknown statuses rank lowest.
func Rank(s Status) int {
	return statusRank[s]
}

// MapEventType maps a provider event type onto a delivery status. The bool
// reports whether the event type is recognized at all; a recognized type may
// still map to no status change (opened, clicked, delivery_delayed), in which
// case the returned status is empty.
func MapEventType(eventType string) (Status, bool) {
	switch strings.TrimPrefix(eventType, "email.") {
	case "sent":
		return StatusSent, true
	case "delivered":
		return StatusDelivered, true
	case "bounced":
		return StatusBounced, true
	case "delivery_failed":
		return StatusFailed, true
	case "complained":
		return StatusComplained, true
	case "delivery_delayed", "opened", "clicked":
		// Audit-only events, no status transition.
		return "", true
	default:
		return "", false
	}
}
