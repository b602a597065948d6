// Package repository persists status change events in PostgreSQL.
// Events land in the shared status_change_events log, scoped by entity type;
// each append also upserts the status_current side table inside the same
// transaction so population-wide aggregation never replays histories.
package repository

import (
	"context"
	"errors"

	"github.com/finicafferata/fly-fleet-sub001/internal/tracking"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements tracking.EventStore and tracking.StatusIndex.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new status tracking repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const eventSelectCols = `
	id, entity_type, entity_id, from_status, to_status, actor, note, ip_address, user_agent, created_at`

// Append writes a status change event and updates the current-status index
// atomically.
func (r *Repository) Append(ctx context.Context, params tracking.AppendParams) (tracking.StatusChangeEvent, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return tracking.StatusChangeEvent{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var event tracking.StatusChangeEvent
	err = tx.QueryRow(ctx, `
		INSERT INTO status_change_events (
			entity_type,
			entity_id,
			from_status,
			to_status,
			actor,
			note,
			ip_address,
			user_agent
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING`+eventSelectCols+`
	`, params.Entity, params.EntityID, params.FromStatus, params.ToStatus,
		params.Actor, params.Note, params.IPAddress, params.UserAgent,
	).Scan(
		&event.ID,
		&event.Entity,
		&event.EntityID,
		&event.FromStatus,
		&event.ToStatus,
		&event.Actor,
		&event.Note,
		&event.IPAddress,
		&event.UserAgent,
		&event.CreatedAt,
	)
	if err != nil {
		return tracking.StatusChangeEvent{}, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO status_current (entity_type, entity_id, status, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (entity_type, entity_id)
		DO UPDATE SET status = EXCLUDED.status, updated_at = now()
	`, params.Entity, params.EntityID, params.ToStatus)
	if err != nil {
		return tracking.StatusChangeEvent{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return tracking.StatusChangeEvent{}, err
	}
	return event, nil
}

// LatestEvent returns the most recent event for the entity, or nil when the
// entity has no events. Ties on created_at break by insertion order (seq).
func (r *Repository) LatestEvent(ctx context.Context, entity tracking.EntityType, entityID uuid.UUID) (*tracking.StatusChangeEvent, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT`+eventSelectCols+`
		FROM status_change_events
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC, seq DESC
		LIMIT 1
	`, entity, entityID)

	event, err := scanEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// History returns all events for the entity, newest first.
func (r *Repository) History(ctx context.Context, entity tracking.EntityType, entityID uuid.UUID) ([]tracking.StatusChangeEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+eventSelectCols+`
		FROM status_change_events
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC, seq DESC
	`, entity, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]tracking.StatusChangeEvent, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// Histogram counts entities per current status from the side table.
// Entities without any events are absent here; the engine folds them into
// the default status bucket.
func (r *Repository) Histogram(ctx context.Context, entity tracking.EntityType) (map[tracking.Status]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, count(*)
		FROM status_current
		WHERE entity_type = $1
		GROUP BY status
	`, entity)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[tracking.Status]int)
	for rows.Next() {
		var status tracking.Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// eventRowScanner is satisfied by pgx.Rows and pgx.Row so scanEvent can be
// shared between single-row and multi-row queries.
type eventRowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(s eventRowScanner) (tracking.StatusChangeEvent, error) {
	var event tracking.StatusChangeEvent
	if err := s.Scan(
		&event.ID,
		&event.Entity,
		&event.EntityID,
		&event.FromStatus,
		&event.ToStatus,
		&event.Actor,
		&event.Note,
		&event.IPAddress,
		&event.UserAgent,
		&event.CreatedAt,
	); err != nil {
		return tracking.StatusChangeEvent{}, err
	}
	return event, nil
}

// Compile-time checks against the engine ports.
var (
	_ tracking.EventStore  = (*Repository)(nil)
	_ tracking.StatusIndex = (*Repository)(nil)
)
