package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/finicafferata/fly-fleet-sub001/internal/events"
	"github.com/finicafferata/fly-fleet-sub001/internal/quotes/domain"
	"github.com/finicafferata/fly-fleet-sub001/internal/quotes/repository"
	"github.com/finicafferata/fly-fleet-sub001/internal/quotes/transport"
	"github.com/finicafferata/fly-fleet-sub001/internal/tracking"
	"github.com/finicafferata/fly-fleet-sub001/platform/apperr"
	"github.com/finicafferata/fly-fleet-sub001/platform/logger"

	"github.com/google/uuid"
)

// memRepo is an in-memory quote repository.
type memRepo struct {
	mu     sync.Mutex
	quotes map[uuid.UUID]repository.QuoteRequest
	status func(id uuid.UUID) tracking.Status
}

func newMemRepo() *memRepo {
	return &memRepo{quotes: make(map[uuid.UUID]repository.QuoteRequest)}
}

func (r *memRepo) Create(ctx context.Context, params repository.CreateParams) (repository.QuoteRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	q := repository.QuoteRequest{
		ID:            uuid.New(),
		FullName:      params.FullName,
		Email:         params.Email,
		Phone:         params.Phone,
		Origin:        params.Origin,
		Destination:   params.Destination,
		DepartureDate: params.DepartureDate,
		Passengers:    params.Passengers,
		Comments:      params.Comments,
		CreatedAt:     time.Now(),
	}
	r.quotes[q.ID] = q
	return q, nil
}

func (r *memRepo) GetByID(ctx context.Context, id uuid.UUID) (repository.QuoteRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	q, ok := r.quotes[id]
	if !ok {
		return repository.QuoteRequest{}, apperr.NotFound("quote request not found")
	}
	return q, nil
}

func (r *memRepo) List(ctx context.Context, params repository.ListParams) ([]repository.QuoteWithStatus, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var all []repository.QuoteWithStatus
	for _, q := range r.quotes {
		status := params.DefaultStatus
		if r.status != nil {
			status = r.status(q.ID)
		}
		if params.Status != nil && status != *params.Status {
			continue
		}
		all = append(all, repository.QuoteWithStatus{QuoteRequest: q, Status: status})
	}

	total := len(all)
	if params.Offset >= total {
		return nil, total, nil
	}
	end := params.Offset + params.Limit
	if end > total {
		end = total
	}
	return all[params.Offset:end], total, nil
}

func (r *memRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.quotes[id]
	return ok, nil
}

func (r *memRepo) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.quotes), nil
}

func (r *memRepo) ListCreatedBefore(ctx context.Context, cutoff time.Time) ([]tracking.EntityRef, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var refs []tracking.EntityRef
	for _, q := range r.quotes {
		if q.CreatedAt.Before(cutoff) {
			refs = append(refs, tracking.EntityRef{ID: q.ID, CreatedAt: q.CreatedAt})
		}
	}
	return refs, nil
}

// memEventStore keeps status events newest first, scoped by entity type.
type memEventStore struct {
	mu     sync.Mutex
	events []tracking.StatusChangeEvent
}

func (s *memEventStore) Append(ctx context.Context, params tracking.AppendParams) (tracking.StatusChangeEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event := tracking.StatusChangeEvent{
		ID:         uuid.New(),
		Entity:     params.Entity,
		EntityID:   params.EntityID,
		FromStatus: params.FromStatus,
		ToStatus:   params.ToStatus,
		Actor:      params.Actor,
		Note:       params.Note,
		IPAddress:  params.IPAddress,
		UserAgent:  params.UserAgent,
		CreatedAt:  time.Now(),
	}
	s.events = append([]tracking.StatusChangeEvent{event}, s.events...)
	return event, nil
}

func (s *memEventStore) LatestEvent(ctx context.Context, entity tracking.EntityType, entityID uuid.UUID) (*tracking.StatusChangeEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, event := range s.events {
		if event.Entity == entity && event.EntityID == entityID {
			e := event
			return &e, nil
		}
	}
	return nil, nil
}

func (s *memEventStore) History(ctx context.Context, entity tracking.EntityType, entityID uuid.UUID) ([]tracking.StatusChangeEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var history []tracking.StatusChangeEvent
	for _, event := range s.events {
		if event.Entity == entity && event.EntityID == entityID {
			history = append(history, event)
		}
	}
	return history, nil
}

func (s *memEventStore) Histogram(ctx context.Context, entity tracking.EntityType) (map[tracking.Status]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	latest := make(map[uuid.UUID]tracking.Status)
	for i := len(s.events) - 1; i >= 0; i-- {
		if s.events[i].Entity == entity {
			latest[s.events[i].EntityID] = s.events[i].ToStatus
		}
	}

	counts := make(map[tracking.Status]int)
	for _, status := range latest {
		counts[status]++
	}
	return counts, nil
}

type capturingBus struct {
	mu        sync.Mutex
	published []events.Event
}

func (b *capturingBus) Publish(ctx context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, event)
}

func (b *capturingBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *capturingBus) Subscribe(eventName string, handler events.Handler) {}

func newTestService() (*Service, *memRepo, *capturingBus) {
	repo := newMemRepo()
	store := &memEventStore{}
	bus := &capturingBus{}
	log := logger.New("test")
	engine := tracking.NewEngine(domain.Definition, store, store, repo, log)
	return New(repo, engine, bus, log), repo, bus
}

func validCreateRequest() transport.CreateQuoteRequest {
	return transport.CreateQuoteRequest{
		FullName:      "Ana Gomez",
		Email:         "ana@example.com",
		Phone:         "+5491155551234",
		Origin:        "EZE",
		Destination:   "PUJ",
		DepartureDate: "2026-11-15",
		Passengers:    8,
	}
}

func TestCreateProjectsDefaultStatus(t *testing.T) {
	svc, repo, _ := newTestService()

	resp, err := svc.Create(context.Background(), validCreateRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if resp.Status != string(domain.StatusNewRequest) {
		t.Errorf("status = %q, want new_request", resp.Status)
	}
	if resp.DepartureDate != "2026-11-15" {
		t.Errorf("departureDate = %q", resp.DepartureDate)
	}
	if len(repo.quotes) != 1 {
		t.Errorf("stored %d quotes, want 1", len(repo.quotes))
	}
}

func TestCreateRejectsBadDepartureDate(t *testing.T) {
	svc, _, _ := newTestService()

	req := validCreateRequest()
	req.DepartureDate = "15/11/2026"
	if _, err := svc.Create(context.Background(), req); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("err = %v, want validation error", err)
	}
}

func TestListClampsPagination(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.Create(ctx, validCreateRequest()); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	resp, err := svc.List(ctx, transport.ListQuotesRequest{Page: -2, PageSize: 1000})
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	if resp.Page != 1 {
		t.Errorf("page = %d, want 1", resp.Page)
	}
	if resp.PageSize != 100 {
		t.Errorf("pageSize = %d, want clamped to 100", resp.PageSize)
	}
	if resp.Total != 3 || len(resp.Items) != 3 {
		t.Errorf("total = %d, items = %d, want 3", resp.Total, len(resp.Items))
	}
	if resp.TotalPages != 1 {
		t.Errorf("totalPages = %d, want 1", resp.TotalPages)
	}
}

func TestListRejectsUnknownStatusFilter(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.List(context.Background(), transport.ListQuotesRequest{Status: "bogus"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("err = %v, want validation error", err)
	}
}

func TestUpdateStatusPublishesEvent(t *testing.T) {
	svc, _, bus := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, validCreateRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	resp, err := svc.UpdateStatus(ctx, created.ID, transport.UpdateStatusRequest{Status: "reviewing"}, Provenance{Actor: "admin@example.com"})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	if resp.FromStatus != "new_request" || resp.ToStatus != "reviewing" {
		t.Errorf("event = %s -> %s", resp.FromStatus, resp.ToStatus)
	}

	if len(bus.published) != 1 {
		t.Fatalf("published %d events, want 1", len(bus.published))
	}
	changed, ok := bus.published[0].(events.QuoteStatusChanged)
	if !ok {
		t.Fatalf("published %T, want QuoteStatusChanged", bus.published[0])
	}
	if changed.QuoteID != created.ID || changed.ToStatus != "reviewing" {
		t.Errorf("published event = %+v", changed)
	}
}

func TestUpdateStatusInvalidTransitionDoesNotPublish(t *testing.T) {
	svc, _, bus := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, validCreateRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.UpdateStatus(ctx, created.ID, transport.UpdateStatusRequest{Status: "cancelled"}, Provenance{Actor: "admin"}); err != nil {
		t.Fatalf("UpdateStatus(cancelled): %v", err)
	}

	_, err = svc.UpdateStatus(ctx, created.ID, transport.UpdateStatusRequest{Status: "reviewing"}, Provenance{Actor: "admin"})
	if !apperr.Is(err, apperr.KindUnprocessable) {
		t.Errorf("err = %v, want unprocessable", err)
	}
	if len(bus.published) != 1 {
		t.Errorf("published %d events, want only the cancellation", len(bus.published))
	}
}

func TestBulkUpdateStatusReportsPerItem(t *testing.T) {
	svc, _, bus := newTestService()
	ctx := context.Background()

	first, err := svc.Create(ctx, validCreateRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	second, err := svc.Create(ctx, validCreateRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	missing := uuid.New()

	resp, err := svc.BulkUpdateStatus(ctx, transport.BulkStatusRequest{
		IDs:    []uuid.UUID{first.ID, missing, second.ID},
		Status: "reviewing",
	}, Provenance{Actor: "admin@example.com"})
	if err != nil {
		t.Fatalf("BulkUpdateStatus: %v", err)
	}

	if resp.UpdatedCount != 2 || resp.FailedCount != 1 {
		t.Errorf("resp = %+v, want 2 updated and 1 failed", resp)
	}
	if len(resp.Failed) != 1 || resp.Failed[0].ID != missing {
		t.Errorf("failed = %+v, want the missing id", resp.Failed)
	}
	if len(bus.published) != 2 {
		t.Errorf("published %d events, want one per successful item", len(bus.published))
	}
}

func TestGetStatusUnknownQuote(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.GetStatus(context.Background(), uuid.New())
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestGetActionsFollowsProjection(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, validCreateRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.UpdateStatus(ctx, created.ID, transport.UpdateStatusRequest{Status: "paid"}, Provenance{Actor: "admin"}); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	resp, err := svc.GetActions(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetActions: %v", err)
	}

	if resp.Status != "paid" {
		t.Errorf("status = %q, want paid", resp.Status)
	}
	want := map[string]bool{"completed": true, "cancelled": true}
	if len(resp.Actions) != len(want) {
		t.Fatalf("actions = %v, want completed and cancelled", resp.Actions)
	}
	for _, action := range resp.Actions {
		if !want[action] {
			t.Errorf("unexpected action %q", action)
		}
	}
}

func TestGetHistoryNewestFirst(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, validCreateRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	for _, status := range []string{"reviewing", "quote_sent", "confirmed"} {
		if _, err := svc.UpdateStatus(ctx, created.ID, transport.UpdateStatusRequest{Status: status}, Provenance{Actor: "admin"}); err != nil {
			t.Fatalf("UpdateStatus(%s): %v", status, err)
		}
	}

	resp, err := svc.GetHistory(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}

	if len(resp.Events) != 3 {
		t.Fatalf("history has %d events, want 3", len(resp.Events))
	}
	if resp.Events[0].ToStatus != "confirmed" || resp.Events[2].ToStatus != "reviewing" {
		t.Errorf("history order = [%s .. %s], want newest first", resp.Events[0].ToStatus, resp.Events[2].ToStatus)
	}
}

func TestStatsCountsEveryQuote(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	first, err := svc.Create(ctx, validCreateRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, validCreateRequest()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, first.ID, transport.UpdateStatusRequest{Status: "reviewing"}, Provenance{Actor: "admin"}); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	resp, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}

	if resp.Total != 2 {
		t.Errorf("total = %d, want 2", resp.Total)
	}
	if resp.Counts["reviewing"] != 1 || resp.Counts["new_request"] != 1 {
		t.Errorf("counts = %v", resp.Counts)
	}
	if _, ok := resp.Counts["completed"]; !ok {
		t.Error("zero-count statuses should still appear")
	}
}
