// Package contacts provides the contact submission bounded context module.
// Contact submissions carry a small three-state lifecycle run through the
// shared tracking engine.
package contacts

import "github.com/finicafferata/fly-fleet-sub001/internal/tracking"

// EntityContactSubmission scopes contact events in the shared status log.
const EntityContactSubmission tracking.EntityType = "contact_submission"

const (
	StatusPending   tracking.Status = "pending"
	StatusResponded tracking.Status = "responded"
	StatusClosed    tracking.Status = "closed"
)

var transitionTable = tracking.Table{
	StatusPending:   {StatusResponded, StatusClosed},
	StatusResponded: {StatusClosed},
	StatusClosed:    {},
}

// Definition is the contact submission configuration for the tracking engine.
var Definition = tracking.Definition{
	Entity:     EntityContactSubmission,
	Default:    StatusPending,
	Statuses:   []tracking.Status{StatusPending, StatusResponded, StatusClosed},
	Table:      transitionTable,
	EarlyStage: []tracking.Status{StatusPending},
}
