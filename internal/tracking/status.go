// Package tracking implements the event-sourced status workflow engine.
// An entity's current status is never stored as a mutable column: it is
// projected from an append-only log of status change events. One Engine is
// instantiated per entity type, configured with that type's transition table
// and default initial status.
package tracking

// Status is a single state in an entity type's status enumeration.
type Status string

// EntityType identifies which tracked entity family an event belongs to.
// The event store scopes every read and write by entity type so unrelated
// subsystems sharing the log never cross-contaminate.
type EntityType string

// Table maps each status to the set of statuses it may legally move to.
// Terminal statuses map to an empty (or nil) set.
type Table map[Status][]Status

// IsValidTransition reports whether to is an allowed next status from from.
func (t Table) IsValidTransition(from, to Status) bool {
	for _, next := range t[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AllowedNext returns a copy of the legal next statuses from the given status.
// Terminal statuses yield an empty, non-nil slice.
func (t Table) AllowedNext(from Status) []Status {
	next := make([]Status, len(t[from]))
	copy(next, t[from])
	return next
}

// IsTerminal reports whether the status admits no further transitions.
func (t Table) IsTerminal(s Status) bool {
	return len(t[s]) == 0
}

// Definition is the per-entity-type configuration of the engine.
type Definition struct {
	// Entity is the entity type this definition tracks.
	Entity EntityType
	// Default is the initial status projected when no events exist.
	Default Status
	// Statuses is the full enumeration in canonical display order.
	Statuses []Status
	// Table is the transition table over Statuses.
	Table Table
	// EarlyStage is the subset of non-terminal statuses that marks an
	// entity as stale when it has sat there past the age threshold.
	EarlyStage []Status
}

// Known reports whether s belongs to this definition's enumeration.
func (d Definition) Known(s Status) bool {
	for _, known := range d.Statuses {
		if known == s {
			return true
		}
	}
	return false
}

// IsEarlyStage reports whether s belongs to the early-stage subset.
func (d Definition) IsEarlyStage(s Status) bool {
	for _, early := range d.EarlyStage {
		if early == s {
			return true
		}
	}
	return false
}
