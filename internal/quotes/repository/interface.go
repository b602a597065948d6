package repository

import (
	"context"
	"time"

	"github.com/finicafferata/fly-fleet-sub001/internal/tracking"

	"github.com/google/uuid"
)

// QuoteRequest represents a charter quote request submitted by a visitor.
type QuoteRequest struct {
	ID            uuid.UUID `db:"id"`
	FullName      string    `db:"full_name"`
	Email         string    `db:"email"`
	Phone         string    `db:"phone"`
	Origin        string    `db:"origin"`
	Destination   string    `db:"destination"`
	DepartureDate time.Time `db:"departure_date"`
	Passengers    int       `db:"passengers"`
	Comments      *string   `db:"comments"`
	CreatedAt     time.Time `db:"created_at"`
}

// QuoteWithStatus pairs a quote request with its projected current status.
type QuoteWithStatus struct {
	QuoteRequest
	Status tracking.Status
}

// CreateParams contains parameters for creating a quote request.
type CreateParams struct {
	FullName      string
	Email         string
	Phone         string
	Origin        string
	Destination   string
	DepartureDate time.Time
	Passengers    int
	Comments      *string
}

// ListParams filters and paginates the quote request list.
// Status nil means all statuses; DefaultStatus is what quotes without any
// status events count as.
type ListParams struct {
	Status        *tracking.Status
	DefaultStatus tracking.Status
	Offset        int
	Limit         int
}

// QuoteReader provides read operations for quote requests.
type QuoteReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (QuoteRequest, error)
	List(ctx context.Context, params ListParams) ([]QuoteWithStatus, int, error)
}

// QuoteWriter provides write operations for quote requests.
type QuoteWriter interface {
	Create(ctx context.Context, params CreateParams) (QuoteRequest, error)
}

// Repository combines all quote request repository operations, including the
// entity source view the status tracking engine reads.
type Repository interface {
	QuoteReader
	QuoteWriter
	tracking.EntitySource
}
