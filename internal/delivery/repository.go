package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DeliveryRecord is the current state of one outbound email, keyed by the
// provider's message id.
type DeliveryRecord struct {
	ID          uuid.UUID `db:"id"`
	MessageID   string    `db:"message_id"`
	Status      Status    `db:"status"`
	ErrorDetail *string   `db:"error_detail"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Repository persists delivery records and their raw event audit trail.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new delivery repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// statusRankSQL is the SQL twin of the Go statusRank map; both must agree.
const statusRankSQL = `
	CASE %s
		WHEN 'pending' THEN 0
		WHEN 'sent' THEN 1
		WHEN 'delivered' THEN 2
		WHEN 'bounced' THEN 3
		WHEN 'failed' THEN 3
		WHEN 'complained' THEN 4
		ELSE 0
	END`

// ApplyStatus upserts the delivery record for the message id, advancing its
// status only when the new status outranks the stored one. It returns the
// record's final status and whether this call changed it. Replaying the same
// event converges on the same row without modification.
func (r *Repository) ApplyStatus(ctx context.Context, messageID string, status Status, errorDetail *string) (Status, bool, error) {
	query := fmt.Sprintf(`
		INSERT INTO email_deliveries (message_id, status, error_detail)
		VALUES ($1, $2, $3)
		ON CONFLICT (message_id) DO UPDATE
		SET status = EXCLUDED.status,
			error_detail = COALESCE(EXCLUDED.error_detail, email_deliveries.error_detail),
			updated_at = now()
		WHERE `+statusRankSQL+` > `+statusRankSQL+`
		RETURNING status`,
		"EXCLUDED.status", "email_deliveries.status",
	)

	var final Status
	err := r.pool.QueryRow(ctx, query, messageID, status, errorDetail).Scan(&final)
	if err == nil {
		return final, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", false, fmt.Errorf("apply delivery status: %w", err)
	}

	// Conflict row outranked the update; read the stored status.
	err = r.pool.QueryRow(ctx, `
		SELECT status FROM email_deliveries WHERE message_id = $1
	`, messageID).Scan(&final)
	if err != nil {
		return "", false, fmt.Errorf("read delivery status: %w", err)
	}

	return final, false, nil
}

// GetByMessageID retrieves a delivery record by the provider's message id.
func (r *Repository) GetByMessageID(ctx context.Context, messageID string) (DeliveryRecord, error) {
	query := `
		SELECT id, message_id, status, error_detail, created_at, updated_at
		FROM email_deliveries
		WHERE message_id = $1`

	var d DeliveryRecord
	err := r.pool.QueryRow(ctx, query, messageID).Scan(
		&d.ID, &d.MessageID, &d.Status, &d.ErrorDetail, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return DeliveryRecord{}, fmt.Errorf("get delivery by message id: %w", err)
	}

	return d, nil
}

// RecordEvent appends a raw provider event to the audit trail. Re-delivery
// of the identical event is a no-op thanks to the uniqueness constraint on
// (message_id, event_type, occurred_at).
func (r *Repository) RecordEvent(ctx context.Context, messageID, eventType string, occurredAt time.Time, payload []byte) error {
	query := `
		INSERT INTO email_delivery_events (message_id, event_type, occurred_at, payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (message_id, event_type, occurred_at) DO NOTHING`

	if _, err := r.pool.Exec(ctx, query, messageID, eventType, occurredAt, payload); err != nil {
		return fmt.Errorf("record delivery event: %w", err)
	}

	return nil
}

// EventTypeCounts tallies audit events by type received within the trailing
// window.
func (r *Repository) EventTypeCounts(ctx context.Context, since time.Time) (map[string]int, error) {
	query := `
		SELECT event_type, COUNT(*)
		FROM email_delivery_events
		WHERE received_at >= $1
		GROUP BY event_type`

	rows, err := r.pool.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("count delivery events: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var eventType string
		var count int
		if err := rows.Scan(&eventType, &count); err != nil {
			return nil, fmt.Errorf("scan delivery event count: %w", err)
		}
		counts[eventType] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate delivery event counts: %w", err)
	}

	return counts, nil
}

// StatusCounts tallies deliveries by current status for records updated
// within the trailing window.
func (r *Repository) StatusCounts(ctx context.Context, since time.Time) (map[Status]int, error) {
	query := `
		SELECT status, COUNT(*)
		FROM email_deliveries
		WHERE updated_at >= $1
		GROUP BY status`

	rows, err := r.pool.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("count deliveries by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan delivery status count: %w", err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate delivery status counts: %w", err)
	}

	return counts, nil
}
