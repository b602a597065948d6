// Package domain holds the quote request status model.
package domain

import "github.com/finicafferata/fly-fleet-sub001/internal/tracking"

// EntityQuoteRequest scopes quote request events in the shared status log.
const EntityQuoteRequest tracking.EntityType = "quote_request"

const (
	StatusNewRequest           tracking.Status = "new_request"
	StatusReviewing            tracking.Status = "reviewing"
	StatusQuoteSent            tracking.Status = "quote_sent"
	StatusAwaitingConfirmation tracking.Status = "awaiting_confirmation"
	StatusConfirmed            tracking.Status = "confirmed"
	StatusPaymentPending       tracking.Status = "payment_pending"
	StatusPaid                 tracking.Status = "paid"
	StatusCompleted            tracking.Status = "completed"
	StatusCancelled            tracking.Status = "cancelled"
)

// transitionTable is deliberately permissive: admins may fast-track a
// request past intermediate stages (e.g. new_request straight to completed).
// Backward moves are never allowed, and terminal statuses have no exits.
var transitionTable = tracking.Table{
	StatusNewRequest: {
		StatusReviewing, StatusQuoteSent, StatusAwaitingConfirmation,
		StatusConfirmed, StatusPaymentPending, StatusPaid,
		StatusCompleted, StatusCancelled,
	},
	StatusReviewing: {
		StatusQuoteSent, StatusAwaitingConfirmation, StatusConfirmed,
		StatusPaymentPending, StatusPaid, StatusCompleted, StatusCancelled,
	},
	StatusQuoteSent: {
		StatusAwaitingConfirmation, StatusConfirmed, StatusPaymentPending,
		StatusPaid, StatusCompleted, StatusCancelled,
	},
	StatusAwaitingConfirmation: {
		StatusConfirmed, StatusPaymentPending, StatusPaid,
		StatusCompleted, StatusCancelled,
	},
	StatusConfirmed: {
		StatusPaymentPending, StatusPaid, StatusCompleted, StatusCancelled,
	},
	StatusPaymentPending: {
		StatusPaid, StatusCompleted, StatusCancelled,
	},
	StatusPaid: {
		StatusCompleted, StatusCancelled,
	},
	StatusCompleted: {},
	StatusCancelled: {},
}

// Definition is the quote request configuration for the tracking engine.
var Definition = tracking.Definition{
	Entity:  EntityQuoteRequest,
	Default: StatusNewRequest,
	Statuses: []tracking.Status{
		StatusNewRequest, StatusReviewing, StatusQuoteSent,
		StatusAwaitingConfirmation, StatusConfirmed, StatusPaymentPending,
		StatusPaid, StatusCompleted, StatusCancelled,
	},
	Table: transitionTable,
	EarlyStage: []tracking.Status{
		StatusNewRequest, StatusReviewing, StatusQuoteSent, StatusAwaitingConfirmation,
	},
}
