package contacts

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/finicafferata/fly-fleet-sub001/internal/events"
	"github.com/finicafferata/fly-fleet-sub001/internal/tracking"
	"github.com/finicafferata/fly-fleet-sub001/platform/apperr"
	"github.com/finicafferata/fly-fleet-sub001/platform/logger"
	"github.com/finicafferata/fly-fleet-sub001/platform/phone"
	"github.com/finicafferata/fly-fleet-sub001/platform/sanitize"
)

// Service provides business logic for contact submissions and their status
// lifecycle.
type Service struct {
	repo   *Repository
	engine *tracking.Engine
	bus    events.Bus
	log    *logger.Logger
}

// NewService creates a new contact submissions service.
func NewService(repo *Repository, engine *tracking.Engine, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, engine: engine, bus: bus, log: log}
}

// Engine exposes the status tracking engine for scheduled jobs.
func (s *Service) Engine() *tracking.Engine {
	return s.engine
}

// Provenance identifies who performed an admin action and from where.
type Provenance struct {
	Actor     string
	IPAddress *string
	UserAgent *string
}

// Create stores a new contact submission from the public form. The phone
// number, when present, is normalized to E.164.
func (s *Service) Create(ctx context.Context, req CreateContactRequest) (ContactResponse, error) {
	normalizedPhone := req.Phone
	if req.Phone != nil {
		normalized := phone.NormalizeE164(*req.Phone)
		normalizedPhone = &normalized
	}

	cs, err := s.repo.Create(ctx, CreateContactParams{
		FullName: sanitize.Text(req.FullName),
		Email:    req.Email,
		Phone:    normalizedPhone,
		Message:  sanitize.Text(req.Message),
	})
	if err != nil {
		return ContactResponse{}, err
	}

	s.log.Info("contact submission created", "id", cs.ID)
	return toContactResponse(cs, StatusPending), nil
}

// List retrieves contact submissions filtered by projected status, paginated.
func (s *Service) List(ctx context.Context, req ListContactsRequest) (ContactListResponse, error) {
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

	var status *tracking.Status
	if req.Status != "" {
		candidate := tracking.Status(req.Status)
		if !Definition.Known(candidate) {
			return ContactListResponse{}, apperr.Validation("unknown status: " + req.Status)
		}
		status = &candidate
	}

	items, total, err := s.repo.List(ctx, ListContactsParams{
		Status:        status,
		DefaultStatus: StatusPending,
		Offset:        (page - 1) * pageSize,
		Limit:         pageSize,
	})
	if err != nil {
		return ContactListResponse{}, err
	}

	responses := make([]ContactResponse, len(items))
	for i, item := range items {
		responses[i] = toContactResponse(item.ContactSubmission, item.Status)
	}

	totalPages := (total + pageSize - 1) / pageSize
	return ContactListResponse{
		Items:      responses,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// GetStatus projects the submission's current status.
func (s *Service) GetStatus(ctx context.Context, id uuid.UUID) (StatusResponse, error) {
	if err := s.requireContact(ctx, id); err != nil {
		return StatusResponse{}, err
	}

	status, err := s.engine.CurrentStatus(ctx, id)
	if err != nil {
		return StatusResponse{}, err
	}

	return StatusResponse{ID: id, Status: string(status)}, nil
}

// GetHistory returns the submission's status event log, newest first.
func (s *Service) GetHistory(ctx context.Context, id uuid.UUID) (HistoryResponse, error) {
	if err := s.requireContact(ctx, id); err != nil {
		return HistoryResponse{}, err
	}

	history, err := s.engine.History(ctx, id)
	if err != nil {
		return HistoryResponse{}, err
	}

	return HistoryResponse{ID: id, Events: toEventResponses(history)}, nil
}

// GetActions returns the statuses the submission may legally move to.
func (s *Service) GetActions(ctx context.Context, id uuid.UUID) (ActionsResponse, error) {
	if err := s.requireContact(ctx, id); err != nil {
		return ActionsResponse{}, err
	}

	status, err := s.engine.CurrentStatus(ctx, id)
	if err != nil {
		return ActionsResponse{}, err
	}

	allowed := s.engine.AvailableActions(status)
	actions := make([]string, len(allowed))
	for i, a := range allowed {
		actions[i] = string(a)
	}

	return ActionsResponse{ID: id, Status: string(status), Actions: actions}, nil
}

// UpdateStatus performs a single validated status transition and publishes a
// domain event for the change.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, req UpdateStatusRequest, prov Provenance) (StatusEventResponse, error) {
	event, err := s.engine.UpdateStatus(ctx, tracking.UpdateParams{
		EntityID:  id,
		NewStatus: tracking.Status(req.Status),
		Actor:     prov.Actor,
		Note:      req.Note,
		IPAddress: prov.IPAddress,
		UserAgent: prov.UserAgent,
	})
	if err != nil {
		return StatusEventResponse{}, err
	}

	s.publishChanged(ctx, event)
	return toEventResponse(event), nil
}

// BulkUpdateStatus applies one transition to many contact submissions.
func (s *Service) BulkUpdateStatus(ctx context.Context, req BulkStatusRequest, prov Provenance) (BulkStatusResponse, error) {
	result := s.engine.BulkUpdateStatus(ctx, req.IDs, tracking.Status(req.Status), prov.Actor, req.Note)

	for _, event := range result.Succeeded {
		s.publishChanged(ctx, event)
	}

	failed := make([]BulkFailureResponse, len(result.Failed))
	for i, f := range result.Failed {
		failed[i] = BulkFailureResponse{ID: f.EntityID, Reason: f.Reason}
	}

	return BulkStatusResponse{
		UpdatedCount: len(result.Succeeded),
		FailedCount:  len(result.Failed),
		Failed:       failed,
	}, nil
}

// FindStale returns submissions older than the threshold still pending.
func (s *Service) FindStale(ctx context.Context, thresholdDays int) (StaleListResponse, error) {
	stale, err := s.engine.FindStale(ctx, thresholdDays)
	if err != nil {
		return StaleListResponse{}, err
	}

	items := make([]StaleContactResponse, len(stale))
	for i, entry := range stale {
		items[i] = StaleContactResponse{
			ID:        entry.Ref.ID,
			Status:    string(entry.Status),
			CreatedAt: entry.Ref.CreatedAt.Format(time.RFC3339),
			History:   toEventResponses(entry.History),
		}
	}

	return StaleListResponse{ThresholdDays: thresholdDays, Items: items}, nil
}

// Stats returns the status histogram over all contact submissions.
func (s *Service) Stats(ctx context.Context) (StatsResponse, error) {
	counts, err := s.engine.Histogram(ctx)
	if err != nil {
		return StatsResponse{}, err
	}

	result := make(map[string]int, len(counts))
	total := 0
	for status, count := range counts {
		result[string(status)] = count
		total += count
	}

	return StatsResponse{Counts: result, Total: total}, nil
}

func (s *Service) requireContact(ctx context.Context, id uuid.UUID) error {
	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to load contact submission", err)
	}
	if !exists {
		return apperr.NotFound(contactNotFoundMessage)
	}
	return nil
}

func (s *Service) publishChanged(ctx context.Context, event tracking.StatusChangeEvent) {
	s.bus.Publish(ctx, events.ContactStatusChanged{
		BaseEvent:  events.NewBaseEvent(),
		ContactID:  event.EntityID,
		FromStatus: string(event.FromStatus),
		ToStatus:   string(event.ToStatus),
		Actor:      event.Actor,
	})
}

func toContactResponse(cs ContactSubmission, status tracking.Status) ContactResponse {
	return ContactResponse{
		ID:        cs.ID,
		FullName:  cs.FullName,
		Email:     cs.Email,
		Phone:     cs.Phone,
		Message:   cs.Message,
		Status:    string(status),
		CreatedAt: cs.CreatedAt.Format(time.RFC3339),
	}
}

func toEventResponse(event tracking.StatusChangeEvent) StatusEventResponse {
	return StatusEventResponse{
		ID:         event.ID,
		FromStatus: string(event.FromStatus),
		ToStatus:   string(event.ToStatus),
		Actor:      event.Actor,
		Note:       event.Note,
		CreatedAt:  event.CreatedAt.Format(time.RFC3339),
	}
}

func toEventResponses(history []tracking.StatusChangeEvent) []StatusEventResponse {
	responses := make([]StatusEventResponse, len(history))
	for i, event := range history {
		responses[i] = toEventResponse(event)
	}
	return responses
}
