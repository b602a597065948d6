package tracking

import (
	"context"

	"github.com/finicafferata/fly-fleet-sub001/platform/apperr"
	"github.com/finicafferata/fly-fleet-sub001/platform/logger"

	"github.com/google/uuid"
)

// Engine validates and performs status transitions for one entity type.
// It is the single writer of status change events; reads (current status,
// history, histogram) are projections over the event log and its index.
type Engine struct {
	def      Definition
	store    EventStore
	index    StatusIndex
	entities EntitySource
	log      *logger.Logger
	locks    *keyedMutex
}

// NewEngine creates an engine for the given entity type definition.
func NewEngine(def Definition, store EventStore, index StatusIndex, entities EntitySource, log *logger.Logger) *Engine {
	return &Engine{
		def:      def,
		store:    store,
		index:    index,
		entities: entities,
		log:      log,
		locks:    newKeyedMutex(),
	}
}

// Definition returns the entity type configuration this engine runs on.
func (e *Engine) Definition() Definition {
	return e.def
}

// TransitionDetails names a rejected transition and the legal alternatives.
type TransitionDetails struct {
	From    Status   `json:"from"`
	To      Status   `json:"to"`
	Allowed []Status `json:"allowed"`
}

// UpdateParams carries a single status change request.
type UpdateParams struct {
	EntityID  uuid.UUID
	NewStatus Status
	Actor     string
	Note      *string
	IPAddress *string
	UserAgent *string
}

// UpdateStatus projects the entity's current status, validates the requested
// transition against the table, and appends the event. The per-entity lock
// makes the read-validate-append sequence atomic with respect to other
// updates on the same entity.
func (e *Engine) UpdateStatus(ctx context.Context, params UpdateParams) (StatusChangeEvent, error) {
	if !e.def.Known(params.NewStatus) {
		return StatusChangeEvent{}, apperr.Validation("unknown status: " + string(params.NewStatus))
	}

	unlock := e.locks.lock(params.EntityID.String())
	defer unlock()

	exists, err := e.entities.Exists(ctx, params.EntityID)
	if err != nil {
		return StatusChangeEvent{}, apperr.Wrap(apperr.KindInternal, "failed to load entity", err)
	}
	if !exists {
		return StatusChangeEvent{}, apperr.NotFound(string(e.def.Entity) + " not found")
	}

	current, err := e.CurrentStatus(ctx, params.EntityID)
	if err != nil {
		return StatusChangeEvent{}, err
	}

	if !e.def.Table.IsValidTransition(current, params.NewStatus) {
		return StatusChangeEvent{}, apperr.Unprocessable("invalid status transition").WithDetails(TransitionDetails{
			From:    current,
			To:      params.NewStatus,
			Allowed: e.def.Table.AllowedNext(current),
		})
	}

	event, err := e.store.Append(ctx, AppendParams{
		Entity:     e.def.Entity,
		EntityID:   params.EntityID,
		FromStatus: current,
		ToStatus:   params.NewStatus,
		Actor:      params.Actor,
		Note:       params.Note,
		IPAddress:  params.IPAddress,
		UserAgent:  params.UserAgent,
	})
	if err != nil {
		return StatusChangeEvent{}, apperr.Wrap(apperr.KindInternal, "failed to append status event", err)
	}

	e.log.StatusChange(string(e.def.Entity), params.EntityID.String(), string(current), string(params.NewStatus), params.Actor)
	return event, nil
}

// CurrentStatus projects the entity's current status from its latest event,
// or the entity type's default when no events exist.
func (e *Engine) CurrentStatus(ctx context.Context, entityID uuid.UUID) (Status, error) {
	latest, err := e.store.LatestEvent(ctx, e.def.Entity, entityID)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "failed to read latest status event", err)
	}
	if latest == nil {
		return e.def.Default, nil
	}
	return latest.ToStatus, nil
}

// History returns the entity's full status event log, newest first.
func (e *Engine) History(ctx context.Context, entityID uuid.UUID) ([]StatusChangeEvent, error) {
	history, err := e.store.History(ctx, e.def.Entity, entityID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to read status history", err)
	}
	return history, nil
}

// AvailableActions exposes the transition table for UI affordances: the
// statuses the given status may legally move to, without performing anything.
func (e *Engine) AvailableActions(from Status) []Status {
	return e.def.Table.AllowedNext(from)
}

// Histogram tallies the current status of every entity of this type.
// Counts come from the materialized status index; entities that have no
// events yet are folded into the default status bucket.
func (e *Engine) Histogram(ctx context.Context) (map[Status]int, error) {
	counts, err := e.index.Histogram(ctx, e.def.Entity)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to read status histogram", err)
	}

	total, err := e.entities.Count(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to count entities", err)
	}

	result := make(map[Status]int, len(e.def.Statuses))
	for _, s := range e.def.Statuses {
		result[s] = 0
	}

	tracked := 0
	for status, count := range counts {
		result[status] += count
		tracked += count
	}
	if total > tracked {
		result[e.def.Default] += total - tracked
	}

	return result, nil
}
