package tracking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventStore is the append-only status event log the engine writes to.
// Implementations must scope every operation by entity type, order history
// newest first by timestamp with insertion order as the tie-breaker, and
// keep the current-status index consistent with each append.
type EventStore interface {
	Append(ctx context.Context, params AppendParams) (StatusChangeEvent, error)
	LatestEvent(ctx context.Context, entity EntityType, entityID uuid.UUID) (*StatusChangeEvent, error)
	History(ctx context.Context, entity EntityType, entityID uuid.UUID) ([]StatusChangeEvent, error)
}

// StatusIndex reads the materialized current-status side table maintained
// alongside the event log, so population-wide aggregation does not replay
// every entity's history.
type StatusIndex interface {
	Histogram(ctx context.Context, entity EntityType) (map[Status]int, error)
}

// EntityRef is the minimal view of a tracked entity the engine needs.
type EntityRef struct {
	ID        uuid.UUID
	CreatedAt time.Time
}

// EntitySource exposes the externally owned entity repository to the engine.
type EntitySource interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	Count(ctx context.Context) (int, error)
	ListCreatedBefore(ctx context.Context, cutoff time.Time) ([]EntityRef, error)
}
