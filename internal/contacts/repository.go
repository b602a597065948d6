package contacts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finicafferata/fly-fleet-sub001/internal/tracking"
	"github.com/finicafferata/fly-fleet-sub001/platform/apperr"
)

const contactNotFoundMessage = "contact submission not found"

// ContactSubmission represents a message sent through the public contact form.
type ContactSubmission struct {
	ID        uuid.UUID `db:"id"`
	FullName  string    `db:"full_name"`
	Email     string    `db:"email"`
	Phone     *string   `db:"phone"`
	Message   string    `db:"message"`
	CreatedAt time.Time `db:"created_at"`
}

// ContactWithStatus pairs a submission with its projected current status.
type ContactWithStatus struct {
	ContactSubmission
	Status tracking.Status
}

// CreateContactParams contains parameters for storing a submission.
type CreateContactParams struct {
	FullName string
	Email    string
	Phone    *string
	Message  string
}

// ListContactsParams filters and paginates the submission list.
type ListContactsParams struct {
	Status        *tracking.Status
	DefaultStatus tracking.Status
	Offset        int
	Limit         int
}

// Repository persists contact submissions in PostgreSQL and exposes the
// entity source view the tracking engine reads.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new contact submissions repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Compile-time check against the engine's entity source port.
var _ tracking.EntitySource = (*Repository)(nil)

const contactCols = `id, full_name, email, phone, message, created_at`

// Create inserts a new contact submission.
func (r *Repository) Create(ctx context.Context, params CreateContactParams) (ContactSubmission, error) {
	query := `
		INSERT INTO contact_submissions (full_name, email, phone, message)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + contactCols

	var cs ContactSubmission
	err := r.pool.QueryRow(ctx, query,
		params.FullName, params.Email, params.Phone, params.Message,
	).Scan(&cs.ID, &cs.FullName, &cs.Email, &cs.Phone, &cs.Message, &cs.CreatedAt)
	if err != nil {
		return ContactSubmission{}, fmt.Errorf("create contact submission: %w", err)
	}

	return cs, nil
}

// GetByID retrieves a contact submission by its ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (ContactSubmission, error) {
	query := `
		SELECT ` + contactCols + `
		FROM contact_submissions
		WHERE id = $1`

	var cs ContactSubmission
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&cs.ID, &cs.FullName, &cs.Email, &cs.Phone, &cs.Message, &cs.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ContactSubmission{}, apperr.NotFound(contactNotFoundMessage)
		}
		return ContactSubmission{}, fmt.Errorf("get contact submission by id: %w", err)
	}

	return cs, nil
}

// List retrieves contact submissions with their projected status, optionally
// filtered by status, newest first.
func (r *Repository) List(ctx context.Context, params ListContactsParams) ([]ContactWithStatus, int, error) {
	var statusParam interface{}
	if params.Status != nil {
		statusParam = string(*params.Status)
	}

	countQuery := `
		SELECT COUNT(*)
		FROM contact_submissions cs
		LEFT JOIN status_current sc
			ON sc.entity_type = $1 AND sc.entity_id = cs.id
		WHERE ($3::text IS NULL OR COALESCE(sc.status, $2) = $3)`

	var total int
	err := r.pool.QueryRow(ctx, countQuery,
		EntityContactSubmission, params.DefaultStatus, statusParam,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count contact submissions: %w", err)
	}

	query := `
		SELECT cs.id, cs.full_name, cs.email, cs.phone, cs.message, cs.created_at,
			COALESCE(sc.status, $2) AS status
		FROM contact_submissions cs
		LEFT JOIN status_current sc
			ON sc.entity_type = $1 AND sc.entity_id = cs.id
		WHERE ($3::text IS NULL OR COALESCE(sc.status, $2) = $3)
		ORDER BY cs.created_at DESC
		LIMIT $4 OFFSET $5`

	rows, err := r.pool.Query(ctx, query,
		EntityContactSubmission, params.DefaultStatus, statusParam, params.Limit, params.Offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list contact submissions: %w", err)
	}
	defer rows.Close()

	var results []ContactWithStatus
	for rows.Next() {
		var cs ContactWithStatus
		err := rows.Scan(
			&cs.ID, &cs.FullName, &cs.Email, &cs.Phone, &cs.Message, &cs.CreatedAt,
			&cs.Status,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan contact submission: %w", err)
		}
		results = append(results, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate contact submissions: %w", err)
	}

	return results, total, nil
}

// Exists checks if a contact submission exists by ID.
func (r *Repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM contact_submissions WHERE id = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check contact submission exists: %w", err)
	}

	return exists, nil
}

// Count returns the total number of contact submissions.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM contact_submissions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count contact submissions: %w", err)
	}

	return count, nil
}

// ListCreatedBefore returns minimal refs for submissions created before the
// cutoff, oldest first.
func (r *Repository) ListCreatedBefore(ctx context.Context, cutoff time.Time) ([]tracking.EntityRef, error) {
	query := `
		SELECT id, created_at
		FROM contact_submissions
		WHERE created_at < $1
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list contact submissions before cutoff: %w", err)
	}
	defer rows.Close()

	var refs []tracking.EntityRef
	for rows.Next() {
		var ref tracking.EntityRef
		if err := rows.Scan(&ref.ID, &ref.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan contact submission ref: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contact submission refs: %w", err)
	}

	return refs, nil
}
