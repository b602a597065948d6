package delivery

import (
	"context"
	"encoding/json"
	"time"

	"github.com/finicafferata/fly-fleet-sub001/internal/events"
	"github.com/finicafferata/fly-fleet-sub001/platform/apperr"
	"github.com/finicafferata/fly-fleet-sub001/platform/config"
	"github.com/finicafferata/fly-fleet-sub001/platform/logger"

	"golang.org/x/sync/errgroup"
)

const providerName = "email"

// Store is the persistence surface the webhook service needs.
type Store interface {
	ApplyStatus(ctx context.Context, messageID string, status Status, errorDetail *string) (Status, bool, error)
	RecordEvent(ctx context.Context, messageID, eventType string, occurredAt time.Time, payload []byte) error
	EventTypeCounts(ctx context.Context, since time.Time) (map[string]int, error)
	StatusCounts(ctx context.Context, since time.Time) (map[Status]int, error)
}

// Service ingests signed provider webhooks into delivery status updates.
type Service struct {
	store Store
	cfg   config.WebhookConfig
	bus   events.Bus
	log   *logger.Logger
}

// NewService creates a new delivery webhook service.
func NewService(store Store, cfg config.WebhookConfig, bus events.Bus, log *logger.Logger) *Service {
	return &Service{store: store, cfg: cfg, bus: bus, log: log}
}

// providerEvent is the provider's webhook payload shape.
type providerEvent struct {
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	Data      struct {
		EmailID string  `json:"email_id"`
		Reason  *string `json:"reason,omitempty"`
	} `json:"data"`
}

// Result is the webhook processing outcome returned to the provider.
// Processed reports whether the event type is recognized; NewStatus is set
// only when the event moved the delivery to a status.
type Result struct {
	Success   bool    `json:"success"`
	Processed bool    `json:"processed"`
	NewStatus *string `json:"newStatus,omitempty"`
}

// ProcessEvent verifies the signature over the raw body, records the event
// for audit, and applies the mapped status update idempotently. Re-delivery
// of an identical event converges to the same state.
func (s *Service) ProcessEvent(ctx context.Context, body []byte, signature, clientIP string) (Result, error) {
	if err := VerifySignature(s.cfg.GetEmailWebhookSecret(), body, signature); err != nil {
		s.log.WebhookRejected(providerName, err.Error(), clientIP)
		return Result{}, apperr.Unauthorized("invalid webhook signature")
	}

	var event providerEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return Result{}, apperr.BadRequest("invalid webhook payload")
	}
	if event.Type == "" || event.Data.EmailID == "" {
		return Result{}, apperr.BadRequest("webhook payload missing type or email_id")
	}

	occurredAt := event.CreatedAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	// The raw event is always recorded, whether or not it maps to a status
	// change and whether or not the update below succeeds.
	if err := s.store.RecordEvent(ctx, event.Data.EmailID, event.Type, occurredAt, body); err != nil {
		s.log.StoreError("record delivery event", err)
	}

	status, recognized := MapEventType(event.Type)
	if !recognized {
		s.log.Warn("unrecognized delivery event type", "type", event.Type, "message_id", event.Data.EmailID)
		return Result{Success: true, Processed: false}, nil
	}
	if status == "" {
		return Result{Success: true, Processed: true}, nil
	}

	final, changed, err := s.store.ApplyStatus(ctx, event.Data.EmailID, status, event.Data.Reason)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindInternal, "failed to apply delivery status", err)
	}

	if changed {
		s.log.StatusChange("email_delivery", event.Data.EmailID, "", string(final), providerName)
		s.bus.Publish(ctx, events.EmailDeliveryUpdated{
			BaseEvent: events.NewBaseEvent(),
			MessageID: event.Data.EmailID,
			EventType: event.Type,
			NewStatus: string(final),
		})
	}

	newStatus := string(final)
	return Result{Success: true, Processed: true, NewStatus: &newStatus}, nil
}

// StatsResponse reports webhook activity over a trailing window.
type StatsResponse struct {
	Hours      int            `json:"hours"`
	ByType     map[string]int `json:"byType"`
	ByStatus   map[string]int `json:"byStatus"`
	TotalTyped int            `json:"totalEvents"`
}

// Stats tallies received events by type and deliveries by current status
// over the trailing window.
func (s *Service) Stats(ctx context.Context, hours int) (StatsResponse, error) {
	if hours < 1 {
		return StatsResponse{}, apperr.Validation("hours must be at least 1")
	}

	since := time.Now().Add(-time.Duration(hours) * time.Hour)

	var (
		byType   map[string]int
		byStatus map[Status]int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		byType, err = s.store.EventTypeCounts(gctx, since)
		return err
	})
	g.Go(func() error {
		var err error
		byStatus, err = s.store.StatusCounts(gctx, since)
		return err
	})
	if err := g.Wait(); err != nil {
		return StatsResponse{}, apperr.Wrap(apperr.KindInternal, "failed to count delivery activity", err)
	}

	statusCounts := make(map[string]int, len(byStatus))
	for status, count := range byStatus {
		statusCounts[string(status)] = count
	}

	total := 0
	for _, count := range byType {
		total += count
	}

	return StatsResponse{
		Hours:      hours,
		ByType:     byType,
		ByStatus:   statusCounts,
		TotalTyped: total,
	}, nil
}
