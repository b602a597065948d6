package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/finicafferata/fly-fleet-sub001/internal/events"
	"github.com/finicafferata/fly-fleet-sub001/internal/quotes/repository"
	"github.com/finicafferata/fly-fleet-sub001/internal/quotes/transport"
	"github.com/finicafferata/fly-fleet-sub001/internal/tracking"
	"github.com/finicafferata/fly-fleet-sub001/platform/apperr"
	"github.com/finicafferata/fly-fleet-sub001/platform/logger"
	"github.com/finicafferata/fly-fleet-sub001/platform/phone"
	"github.com/finicafferata/fly-fleet-sub001/platform/sanitize"
)

const departureDateLayout = "2006-01-02"

// Service provides business logic for quote requests and their status
// lifecycle. Status reads and writes go through the tracking engine; the
// repository owns the quote entities themselves.
type Service struct {
	repo   repository.Repository
	engine *tracking.Engine
	bus    events.Bus
	log    *logger.Logger
}

// New creates a new quote requests service.
func New(repo repository.Repository, engine *tracking.Engine, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, engine: engine, bus: bus, log: log}
}

// Engine exposes the status tracking engine for scheduled jobs.
func (s *Service) Engine() *tracking.Engine {
	return s.engine
}

// Create stores a new quote request from the public form. No status event is
// appended; a fresh quote projects the default status until the first
// transition.
func (s *Service) Create(ctx context.Context, req transport.CreateQuoteRequest) (transport.QuoteResponse, error) {
	departure, err := time.Parse(departureDateLayout, req.DepartureDate)
	if err != nil {
		return transport.QuoteResponse{}, apperr.Validation("invalid departure date")
	}

	q, err := s.repo.Create(ctx, repository.CreateParams{
		FullName:      sanitize.Text(req.FullName),
		Email:         req.Email,
		Phone:         phone.NormalizeE164(req.Phone),
		Origin:        req.Origin,
		Destination:   req.Destination,
		DepartureDate: departure,
		Passengers:    req.Passengers,
		Comments:      sanitize.TextPtr(req.Comments),
	})
	if err != nil {
		return transport.QuoteResponse{}, err
	}

	s.log.Info("quote request created", "id", q.ID, "origin", q.Origin, "destination", q.Destination)
	return toResponse(q, s.engine.Definition().Default), nil
}

// List retrieves quote requests filtered by projected status, paginated.
func (s *Service) List(ctx context.Context, req transport.ListQuotesRequest) (transport.QuoteListResponse, error) {
	page := req.Page
	pageSize := req.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	def := s.engine.Definition()

	var status *tracking.Status
	if req.Status != "" {
		candidate := tracking.Status(req.Status)
		if !def.Known(candidate) {
			return transport.QuoteListResponse{}, apperr.Validation("unknown status: " + req.Status)
		}
		status = &candidate
	}

	items, total, err := s.repo.List(ctx, repository.ListParams{
		Status:        status,
		DefaultStatus: def.Default,
		Offset:        (page - 1) * pageSize,
		Limit:         pageSize,
	})
	if err != nil {
		return transport.QuoteListResponse{}, err
	}

	responses := make([]transport.QuoteResponse, len(items))
	for i, item := range items {
		responses[i] = toResponse(item.QuoteRequest, item.Status)
	}

	totalPages := (total + pageSize - 1) / pageSize
	return transport.QuoteListResponse{
		Items:      responses,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// GetStatus projects the quote request's current status.
func (s *Service) GetStatus(ctx context.Context, id uuid.UUID) (transport.StatusResponse, error) {
	if err := s.requireQuote(ctx, id); err != nil {
		return transport.StatusResponse{}, err
	}

	status, err := s.engine.CurrentStatus(ctx, id)
	if err != nil {
		return transport.StatusResponse{}, err
	}

	return transport.StatusResponse{ID: id, Status: string(status)}, nil
}

// GetHistory returns the quote request's status event log, newest first.
func (s *Service) GetHistory(ctx context.Context, id uuid.UUID) (transport.HistoryResponse, error) {
	if err := s.requireQuote(ctx, id); err != nil {
		return transport.HistoryResponse{}, err
	}

	history, err := s.engine.History(ctx, id)
	if err != nil {
		return transport.HistoryResponse{}, err
	}

	return transport.HistoryResponse{ID: id, Events: toEventResponses(history)}, nil
}

// GetActions returns the statuses the quote request may legally move to.
func (s *Service) GetActions(ctx context.Context, id uuid.UUID) (transport.ActionsResponse, error) {
	if err := s.requireQuote(ctx, id); err != nil {
		return transport.ActionsResponse{}, err
	}

	status, err := s.engine.CurrentStatus(ctx, id)
	if err != nil {
		return transport.ActionsResponse{}, err
	}

	allowed := s.engine.AvailableActions(status)
	actions := make([]string, len(allowed))
	for i, a := range allowed {
		actions[i] = string(a)
	}

	return transport.ActionsResponse{ID: id, Status: string(status), Actions: actions}, nil
}

// UpdateStatus performs a single validated status transition and publishes a
// domain event for the change.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, req transport.UpdateStatusRequest, prov Provenance) (transport.StatusEventResponse, error) {
	event, err := s.engine.UpdateStatus(ctx, tracking.UpdateParams{
		EntityID:  id,
		NewStatus: tracking.Status(req.Status),
		Actor:     prov.Actor,
		Note:      req.Note,
		IPAddress: prov.IPAddress,
		UserAgent: prov.UserAgent,
	})
	if err != nil {
		return transport.StatusEventResponse{}, err
	}

	s.publishChanged(ctx, event)
	return toEventResponse(event), nil
}

// BulkUpdateStatus applies one transition to many quote requests. Failures
// are reported per item and never abort the batch.
func (s *Service) BulkUpdateStatus(ctx context.Context, req transport.BulkStatusRequest, prov Provenance) (transport.BulkStatusResponse, error) {
	result := s.engine.BulkUpdateStatus(ctx, req.IDs, tracking.Status(req.Status), prov.Actor, req.Note)

	for _, event := range result.Succeeded {
		s.publishChanged(ctx, event)
	}

	failed := make([]transport.BulkFailureResponse, len(result.Failed))
	for i, f := range result.Failed {
		failed[i] = transport.BulkFailureResponse{ID: f.EntityID, Reason: f.Reason}
	}

	return transport.BulkStatusResponse{
		UpdatedCount: len(result.Succeeded),
		FailedCount:  len(result.Failed),
		Failed:       failed,
	}, nil
}

// FindStale returns quote requests older than the threshold still sitting in
// an early-stage status.
func (s *Service) FindStale(ctx context.Context, thresholdDays int) (transport.StaleListResponse, error) {
	stale, err := s.engine.FindStale(ctx, thresholdDays)
	if err != nil {
		return transport.StaleListResponse{}, err
	}

	items := make([]transport.StaleQuoteResponse, len(stale))
	for i, entry := range stale {
		items[i] = transport.StaleQuoteResponse{
			ID:        entry.Ref.ID,
			Status:    string(entry.Status),
			CreatedAt: entry.Ref.CreatedAt.Format(time.RFC3339),
			History:   toEventResponses(entry.History),
		}
	}

	return transport.StaleListResponse{ThresholdDays: thresholdDays, Items: items}, nil
}

// Stats returns the status histogram over all quote requests.
func (s *Service) Stats(ctx context.Context) (transport.StatsResponse, error) {
	counts, err := s.engine.Histogram(ctx)
	if err != nil {
		return transport.StatsResponse{}, err
	}

	result := make(map[string]int, len(counts))
	total := 0
	for status, count := range counts {
		result[string(status)] = count
		total += count
	}

	return transport.StatsResponse{Counts: result, Total: total}, nil
}

// Provenance identifies who performed an admin action and from where.
type Provenance struct {
	Actor     string
	IPAddress *string
	UserAgent *string
}

func (s *Service) requireQuote(ctx context.Context, id uuid.UUID) error {
	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to load quote request", err)
	}
	if !exists {
		return apperr.NotFound("quote request not found")
	}
	return nil
}

func (s *Service) publishChanged(ctx context.Context, event tracking.StatusChangeEvent) {
	s.bus.Publish(ctx, events.QuoteStatusChanged{
		BaseEvent:  events.NewBaseEvent(),
		QuoteID:    event.EntityID,
		FromStatus: string(event.FromStatus),
		ToStatus:   string(event.ToStatus),
		Actor:      event.Actor,
	})
}

func toResponse(q repository.QuoteRequest, status tracking.Status) transport.QuoteResponse {
	return transport.QuoteResponse{
		ID:            q.ID,
		FullName:      q.FullName,
		Email:         q.Email,
		Phone:         q.Phone,
		Origin:        q.Origin,
		Destination:   q.Destination,
		DepartureDate: q.DepartureDate.Format(departureDateLayout),
		Passengers:    q.Passengers,
		Comments:      q.Comments,
		Status:        string(status),
		CreatedAt:     q.CreatedAt.Format(time.RFC3339),
	}
}

func toEventResponse(event tracking.StatusChangeEvent) transport.StatusEventResponse {
	return transport.StatusEventResponse{
		ID:         event.ID,
		FromStatus: string(event.FromStatus),
		ToStatus:   string(event.ToStatus),
		Actor:      event.Actor,
		Note:       event.Note,
		CreatedAt:  event.CreatedAt.Format(time.RFC3339),
	}
}

func toEventResponses(history []tracking.StatusChangeEvent) []transport.StatusEventResponse {
	responses := make([]transport.StatusEventResponse, len(history))
	for i, event := range history {
		responses[i] = toEventResponse(event)
	}
	return responses
}
