package contacts

import "github.com/google/uuid"

// CreateContactRequest contains data for the public contact form.
type CreateContactRequest struct {
	FullName string  `json:"fullName" validate:"required,min=2,max=200"`
	Email    string  `json:"email" validate:"required,email,max=254"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,min=5,max=32"`
	Message  string  `json:"message" validate:"required,min=1,max=5000"`
}

// UpdateStatusRequest contains data for a single status transition.
type UpdateStatusRequest struct {
	Status string  `json:"status" validate:"required,max=50"`
	Note   *string `json:"note,omitempty" validate:"omitempty,max=1000"`
}

// BulkStatusRequest applies one transition to many contact submissions.
type BulkStatusRequest struct {
	IDs    []uuid.UUID `json:"ids" validate:"required,min=1,max=100"`
	Status string      `json:"status" validate:"required,max=50"`
	Note   *string     `json:"note,omitempty" validate:"omitempty,max=1000"`
}

// ListContactsRequest contains query parameters for the submission list.
type ListContactsRequest struct {
	Status   string `form:"status"`
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}

// StaleContactsRequest contains query parameters for the stale scan.
type StaleContactsRequest struct {
	ThresholdDays int `form:"thresholdDays"`
}

// ContactResponse represents a contact submission in API responses.
type ContactResponse struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone,omitempty"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	CreatedAt string    `json:"createdAt"`
}

// ContactListResponse wraps a paginated list of contact submissions.
type ContactListResponse struct {
	Items      []ContactResponse `json:"items"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	TotalPages int               `json:"totalPages"`
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

// StatusResponse carries a submission's projected current status.
type StatusResponse struct {
	ID     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

// ActionsResponse lists the statuses a submission may legally move to.
type ActionsResponse struct {
	ID      uuid.UUID `json:"id"`
	Status  string    `json:"status"`
	Actions []string  `json:"actions"`
}

// HistoryResponse wraps a submission's status event log, newest first.
type HistoryResponse struct {
	ID     uuid.UUID             `json:"id"`
	Events []StatusEventResponse `json:"events"`
}

// BulkFailureResponse records one submission a bulk update skipped.
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

// StaleContactResponse is a submission still pending past the age threshold.
type StaleContactResponse struct {
	ID        uuid.UUID             `json:"id"`
	Status    string                `json:"status"`
	CreatedAt string                `json:"createdAt"`
	History   []StatusEventResponse `json:"history"`
}

// StaleListResponse wraps the stale submission scan result.
type StaleListResponse struct {
	ThresholdDays int                    `json:"thresholdDays"`
	Items         []StaleContactResponse `json:"items"`
}

// StatsResponse is the status histogram over all contact submissions.
type StatsResponse struct {
	Counts map[string]int `json:"counts"`
	Total  int            `json:"total"`
}
