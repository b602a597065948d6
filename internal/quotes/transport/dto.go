package transport

import "github.com/google/uuid"

// CreateQuoteRequest contains data for the public quote request form.
type CreateQuoteRequest struct {
	FullName      string  `json:"fullName" validate:"required,min=2,max=200"`
	Email         string  `json:"email" validate:"required,email,max=254"`
	Phone         string  `json:"phone" validate:"required,min=5,max=32"`
	Origin        string  `json:"origin" validate:"required,min=3,max=120"`
	Destination   string  `json:"destination" validate:"required,min=3,max=120"`
	DepartureDate string  `json:"departureDate" validate:"required,datetime=2006-01-02"`
	Passengers    int     `json:"passengers" validate:"required,min=1,max=400"`
	Comments      *string `json:"comments,omitempty" validate:"omitempty,max=2000"`
}

// UpdateStatusRequest contains data for a single status transition.
type UpdateStatusRequest struct {
	Status string  `json:"status" validate:"required,max=50"`
	Note   *string `json:"note,omitempty" validate:"omitempty,max=1000"`
}

// BulkStatusRequest applies one transition to many quote requests.
type BulkStatusRequest struct {
	IDs    []uuid.UUID `json:"ids" validate:"required,min=1,max=100"`
	Status string      `json:"status" validate:"required,max=50"`
	Note   *string     `json:"note,omitempty" validate:"omitempty,max=1000"`
}

// ListQuotesRequest contains query parameters for the quote list.
type ListQuotesRequest struct {
	Status   string `form:"status"`
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}

// StaleQuotesRequest contains query parameters for the stale quote scan.
type StaleQuotesRequest struct {
	ThresholdDays int `form:"thresholdDays"`
}

// QuoteResponse represents a quote request in API responses.
type QuoteResponse struct {
	ID            uuid.UUID `json:"id"`
	FullName      string    `json:"fullName"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Origin        string    `json:"origin"`
	Destination   string    `json:"destination"`
	DepartureDate string    `json:"departureDate"`
	Passengers    int       `json:"passengers"`
	Comments      *string   `json:"comments,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     string    `json:"createdAt"`
}

// QuoteListResponse wraps a paginated list of quote requests.
type QuoteListResponse struct {
	Items      []QuoteResponse `json:"items"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"pageSize"`
	TotalPages int             `json:"totalPages"`
}

// StatusEventResponse represents one status change event.
type StatusEventResponse struct {
	ID         uuid.UUID `json:"id"`
	FromStatus string    `json:"fromStatus"`
	ToStatus   string    `json:"toStatus"`
	Actor      string    `json:"actor"`
	Note       *string   `json:"note,omitempty"`
	CreatedAt  string    `json:"createdAt"`
}

// StatusResponse carries a quote request's projected current status.
type StatusResponse struct {
	ID     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

// ActionsResponse lists the statuses a quote request may legally move to.
type ActionsResponse struct {
	ID      uuid.UUID `json:"id"`
	Status  string    `json:"status"`
	Actions []string  `json:"actions"`
}

// HistoryResponse wraps a quote request's status event log, newest first.
type HistoryResponse struct {
	ID     uuid.UUID             `json:"id"`
	Events []StatusEventResponse `json:"events"`
}

// BulkFailureResponse records one quote request a bulk update skipped.
type BulkFailureResponse struct {
	ID     uuid.UUID `json:"id"`
	Reason string    `json:"reason"`
}

// BulkStatusResponse is the outcome of a bulk status update.
type BulkStatusResponse struct {
	UpdatedCount int                   `json:"updatedCount"`
	FailedCount  int                   `json:"failedCount"`
	Failed       []BulkFailureResponse `json:"failed"`
}

// StaleQuoteResponse is a quote request stuck in an early stage past the
// age threshold, with its history attached.
type StaleQuoteResponse struct {
	ID        uuid.UUID             `json:"id"`
	Status    string                `json:"status"`
	CreatedAt string                `json:"createdAt"`
	History   []StatusEventResponse `json:"history"`
}

// StaleListResponse wraps the stale quote scan result.
type StaleListResponse struct {
	ThresholdDays int                  `json:"thresholdDays"`
	Items         []StaleQuoteResponse `json:"items"`
}

// StatsResponse is the status histogram over all quote requests.
type StatsResponse struct {
	Counts map[string]int `json:"counts"`
	Total  int            `json:"total"`
}
