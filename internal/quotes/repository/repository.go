package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finicafferata/fly-fleet-sub001/internal/quotes/domain"
	"github.com/finicafferata/fly-fleet-sub001/internal/tracking"
	"github.com/finicafferata/fly-fleet-sub001/platform/apperr"
)

const quoteNotFoundMessage = "quote request not found"

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new quote requests repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

const quoteCols = `id, full_name, email, phone, origin, destination, departure_date, passengers, comments, created_at`

// Create inserts a new quote request.
func (r *Repo) Create(ctx context.Context, params CreateParams) (QuoteRequest, error) {
	query := `
		INSERT INTO quote_requests (full_name, email, phone, origin, destination, departure_date, passengers, comments)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + quoteCols

	var q QuoteRequest
	err := r.pool.QueryRow(ctx, query,
		params.FullName, params.Email, params.Phone, params.Origin, params.Destination,
		params.DepartureDate, params.Passengers, params.Comments,
	).Scan(
		&q.ID, &q.FullName, &q.Email, &q.Phone, &q.Origin, &q.Destination,
		&q.DepartureDate, &q.Passengers, &q.Comments, &q.CreatedAt,
	)
	if err != nil {
		return QuoteRequest{}, fmt.Errorf("create quote request: %w", err)
	}

	return q, nil
}

// GetByID retrieves a quote request by its ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (QuoteRequest, error) {
	query := `
		SELECT ` + quoteCols + `
		FROM quote_requests
		WHERE id = $1`

	var q QuoteRequest
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&q.ID, &q.FullName, &q.Email, &q.Phone, &q.Origin, &q.Destination,
		&q.DepartureDate, &q.Passengers, &q.Comments, &q.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return QuoteRequest{}, apperr.NotFound(quoteNotFoundMessage)
		}
		return QuoteRequest{}, fmt.Errorf("get quote request by id: %w", err)
	}

	return q, nil
}

// List retrieves quote requests with their projected status, optionally
// filtered by status, newest first. Quotes without any status events count
// as the default status.
func (r *Repo) List(ctx context.Context, params ListParams) ([]QuoteWithStatus, int, error) {
	var statusParam interface{}
	if params.Status != nil {
		statusParam = string(*params.Status)
	}

	countQuery := `
		SELECT COUNT(*)
		FROM quote_requests q
		LEFT JOIN status_current sc
			ON sc.entity_type = $1 AND sc.entity_id = q.id
		WHERE ($3::text IS NULL OR COALESCE(sc.status, $2) = $3)`

	var total int
	err := r.pool.QueryRow(ctx, countQuery,
		domain.EntityQuoteRequest, params.DefaultStatus, statusParam,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count quote requests: %w", err)
	}

	query := `
		SELECT q.id, q.full_name, q.email, q.phone, q.origin, q.destination,
			q.departure_date, q.passengers, q.comments, q.created_at,
			COALESCE(sc.status, $2) AS status
		FROM quote_requests q
		LEFT JOIN status_current sc
			ON sc.entity_type = $1 AND sc.entity_id = q.id
		WHERE ($3::text IS NULL OR COALESCE(sc.status, $2) = $3)
		ORDER BY q.created_at DESC
		LIMIT $4 OFFSET $5`

	rows, err := r.pool.Query(ctx, query,
		domain.EntityQuoteRequest, params.DefaultStatus, statusParam, params.Limit, params.Offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list quote requests: %w", err)
	}
	defer rows.Close()

	var results []QuoteWithStatus
	for rows.Next() {
		var q QuoteWithStatus
		err := rows.Scan(
			&q.ID, &q.FullName, &q.Email, &q.Phone, &q.Origin, &q.Destination,
			&q.DepartureDate, &q.Passengers, &q.Comments, &q.CreatedAt,
			&q.Status,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan quote request: %w", err)
		}
		results = append(results, q)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate quote requests: %w", err)
	}

	return results, total, nil
}

// Exists checks if a quote request exists by ID.
func (r *Repo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM quote_requests WHERE id = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check quote request exists: %w", err)
	}

	return exists, nil
}

// Count returns the total number of quote requests.
func (r *Repo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM quote_requests`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count quote requests: %w", err)
	}

	return count, nil
}

// ListCreatedBefore returns minimal refs for quote requests created before
// the cutoff, oldest first. Used by the stale quote scan.
func (r *Repo) ListCreatedBefore(ctx context.Context, cutoff time.Time) ([]tracking.EntityRef, error) {
	query := `
		SELECT id, created_at
		FROM quote_requests
		WHERE created_at < $1
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list quote requests before cutoff: %w", err)
	}
	defer rows.Close()

	var refs []tracking.EntityRef
	for rows.Next() {
		var ref tracking.EntityRef
		if err := rows.Scan(&ref.ID, &ref.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan quote request ref: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quote request refs: %w", err)
	}

	return refs, nil
}
