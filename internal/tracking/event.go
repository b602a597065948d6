package tracking

import (
	"time"

	"github.com/google/uuid"
)

// StatusChangeEvent is one immutable entry in an entity's status log.
// Events are only ever appended; the sequence is the source of truth for
// the entity's current status.
type StatusChangeEvent struct {
	ID         uuid.UUID
	Entity     EntityType
	EntityID   uuid.UUID
	FromStatus Status
	ToStatus   Status
	Actor      string
	Note       *string
	IPAddress  *string
	UserAgent  *string
	CreatedAt  time.Time
}

// AppendParams carries the fields of a new status change event.
type AppendParams struct {
	Entity     EntityType
	EntityID   uuid.UUID
	FromStatus Status
	ToStatus   Status
	Actor      string
	Note       *string
	IPAddress  *string
	UserAgent  *string
}

// ProjectStatus derives the current status from an event history ordered
// most-recent first. It is a pure function: the same events always yield the
// same status, and an empty history yields the default.
func ProjectStatus(history []StatusChangeEvent, defaultStatus Status) Status {
	if len(history) == 0 {
		return defaultStatus
	}
	return history[0].ToStatus
}
