package tracking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/finicafferata/fly-fleet-sub001/platform/apperr"
	"github.com/finicafferata/fly-fleet-sub001/platform/logger"

	"github.com/google/uuid"
)

func testDefinition() Definition {
	return Definition{
		Entity:     "widget",
		Default:    "draft",
		Statuses:   []Status{"draft", "active", "done", "cancelled"},
		Table:      testTable(),
		EarlyStage: []Status{"draft"},
	}
}

// memStore is an in-memory EventStore keeping events newest first.
type memStore struct {
	mu     sync.Mutex
	events []StatusChangeEvent
}

func (s *memStore) Append(ctx context.Context, params AppendParams) (StatusChangeEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event := StatusChangeEvent{
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
	s.events = append([]StatusChangeEvent{event}, s.events...)
	return event, nil
}

func (s *memStore) LatestEvent(ctx context.Context, entity EntityType, entityID uuid.UUID) (*StatusChangeEvent, error) {
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

func (s *memStore) History(ctx context.Context, entity EntityType, entityID uuid.UUID) ([]StatusChangeEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var history []StatusChangeEvent
	for _, event := range s.events {
		if event.Entity == entity && event.EntityID == entityID {
			history = append(history, event)
		}
	}
	return history, nil
}

// Histogram tallies the latest status per entity, mirroring the side table.
func (s *memStore) Histogram(ctx context.Context, entity EntityType) (map[Status]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	latest := make(map[uuid.UUID]Status)
	for i := len(s.events) - 1; i >= 0; i-- {
		event := s.events[i]
		if event.Entity == entity {
			latest[event.EntityID] = event.ToStatus
		}
	}

	counts := make(map[Status]int)
	for _, status := range latest {
		counts[status]++
	}
	return counts, nil
}

type memEntities struct {
	created map[uuid.UUID]time.Time
}

func newMemEntities(ids ...uuid.UUID) *memEntities {
	created := make(map[uuid.UUID]time.Time, len(ids))
	for _, id := range ids {
		created[id] = time.Now()
	}
	return &memEntities{created: created}
}

func (m *memEntities) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, ok := m.created[id]
	return ok, nil
}

func (m *memEntities) Count(ctx context.Context) (int, error) {
	return len(m.created), nil
}

func (m *memEntities) ListCreatedBefore(ctx context.Context, cutoff time.Time) ([]EntityRef, error) {
	var refs []EntityRef
	for id, createdAt := range m.created {
		if createdAt.Before(cutoff) {
			refs = append(refs, EntityRef{ID: id, CreatedAt: createdAt})
		}
	}
	return refs, nil
}

func newTestEngine(entities *memEntities) (*Engine, *memStore) {
	store := &memStore{}
	return NewEngine(testDefinition(), store, store, entities, logger.New("test")), store
}

func TestCurrentStatusDefaultsWithoutEvents(t *testing.T) {
	id := uuid.New()
	engine, _ := newTestEngine(newMemEntities(id))

	status, err := engine.CurrentStatus(context.Background(), id)
	if err != nil {
		t.Fatalf("CurrentStatus: %v", err)
	}
	if status != "draft" {
		t.Errorf("status = %q, want draft", status)
	}
}

func TestUpdateStatusAppendsEvent(t *testing.T) {
	id := uuid.New()
	engine, store := newTestEngine(newMemEntities(id))

	note := "phoned the customer"
	event, err := engine.UpdateStatus(context.Background(), UpdateParams{
		EntityID:  id,
		NewStatus: "active",
		Actor:     "ops@example.com",
		Note:      &note,
	})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	if event.FromStatus != "draft" || event.ToStatus != "active" {
		t.Errorf("event = %s -> %s, want draft -> active", event.FromStatus, event.ToStatus)
	}
	if event.Actor != "ops@example.com" {
		t.Errorf("actor = %q", event.Actor)
	}
	if len(store.events) != 1 {
		t.Fatalf("store has %d events, want 1", len(store.events))
	}

	status, err := engine.CurrentStatus(context.Background(), id)
	if err != nil {
		t.Fatalf("CurrentStatus: %v", err)
	}
	if status != "active" {
		t.Errorf("projected status = %q, want active", status)
	}
}

func TestUpdateStatusUnknownStatus(t *testing.T) {
	id := uuid.New()
	engine, store := newTestEngine(newMemEntities(id))

	_, err := engine.UpdateStatus(context.Background(), UpdateParams{EntityID: id, NewStatus: "bogus", Actor: "ops"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("err = %v, want validation error", err)
	}
	if len(store.events) != 0 {
		t.Error("rejected update must not append an event")
	}
}

func TestUpdateStatusUnknownEntity(t *testing.T) {
	engine, _ := newTestEngine(newMemEntities())

	_, err := engine.UpdateStatus(context.Background(), UpdateParams{EntityID: uuid.New(), NewStatus: "active", Actor: "ops"})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestUpdateStatusInvalidTransition(t *testing.T) {
	id := uuid.New()
	engine, store := newTestEngine(newMemEntities(id))

	_, err := engine.UpdateStatus(context.Background(), UpdateParams{EntityID: id, NewStatus: "done", Actor: "ops"})
	if !apperr.Is(err, apperr.KindUnprocessable) {
		t.Fatalf("err = %v, want unprocessable", err)
	}
	if len(store.events) != 0 {
		t.Error("rejected transition must not append an event")
	}

	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		t.Fatal("expected *apperr.Error")
	}
	details, ok := appErr.Details.(TransitionDetails)
	if !ok {
		t.Fatalf("details = %T, want TransitionDetails", appErr.Details)
	}
	if details.From != "draft" || details.To != "done" {
		t.Errorf("details = %s -> %s, want draft -> done", details.From, details.To)
	}
	if len(details.Allowed) != 2 {
		t.Errorf("allowed = %v, want the two legal next statuses", details.Allowed)
	}
}

func TestUpdateStatusTerminalRejectsEverything(t *testing.T) {
	id := uuid.New()
	engine, _ := newTestEngine(newMemEntities(id))
	ctx := context.Background()

	mustUpdate(t, engine, id, "active")
	mustUpdate(t, engine, id, "done")

	for _, target := range []Status{"draft", "active", "cancelled"} {
		if _, err := engine.UpdateStatus(ctx, UpdateParams{EntityID: id, NewStatus: target, Actor: "ops"}); !apperr.Is(err, apperr.KindUnprocessable) {
			t.Errorf("done -> %s: err = %v, want unprocessable", target, err)
		}
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	id := uuid.New()
	engine, _ := newTestEngine(newMemEntities(id))

	mustUpdate(t, engine, id, "active")
	mustUpdate(t, engine, id, "done")

	history, err := engine.History(context.Background(), id)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history has %d events, want 2", len(history))
	}
	if history[0].ToStatus != "done" || history[1].ToStatus != "active" {
		t.Errorf("history order = [%s, %s], want newest first", history[0].ToStatus, history[1].ToStatus)
	}
}

func TestAvailableActions(t *testing.T) {
	engine, _ := newTestEngine(newMemEntities())

	actions := engine.AvailableActions("draft")
	if len(actions) != 2 {
		t.Errorf("actions = %v, want 2 entries", actions)
	}
	if len(engine.AvailableActions("done")) != 0 {
		t.Error("terminal status should have no actions")
	}
}

func TestBulkUpdateStatusPartialFailure(t *testing.T) {
	okA := uuid.New()
	okB := uuid.New()
	missing := uuid.New()
	engine, _ := newTestEngine(newMemEntities(okA, okB))

	result := engine.BulkUpdateStatus(context.Background(), []uuid.UUID{okA, missing, okB}, "active", "ops", nil)

	if len(result.Succeeded) != 2 {
		t.Errorf("succeeded = %d, want 2", len(result.Succeeded))
	}
	if len(result.Failed) != 1 {
		t.Fatalf("failed = %d, want 1", len(result.Failed))
	}
	if result.Failed[0].EntityID != missing {
		t.Errorf("failed id = %s, want %s", result.Failed[0].EntityID, missing)
	}
	if result.Failed[0].Reason == "" {
		t.Error("failure must carry a reason")
	}
}

func TestBulkUpdateStatusFailureDoesNotAbortBatch(t *testing.T) {
	done := uuid.New()
	pending := uuid.New()
	engine, _ := newTestEngine(newMemEntities(done, pending))
	ctx := context.Background()

	// Drive the first entity into a terminal status so the bulk move fails on it.
	mustUpdate(t, engine, done, "active")
	mustUpdate(t, engine, done, "done")

	result := engine.BulkUpdateStatus(ctx, []uuid.UUID{done, pending}, "active", "ops", nil)
	if len(result.Succeeded) != 1 || result.Succeeded[0].EntityID != pending {
		t.Errorf("succeeded = %v, want only the pending entity", result.Succeeded)
	}
	if len(result.Failed) != 1 || result.Failed[0].EntityID != done {
		t.Errorf("failed = %v, want only the terminal entity", result.Failed)
	}
}

func TestHistogramFoldsUntrackedIntoDefault(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	c := uuid.New()
	engine, _ := newTestEngine(newMemEntities(a, b, c))

	mustUpdate(t, engine, a, "active")

	counts, err := engine.Histogram(context.Background())
	if err != nil {
		t.Fatalf("Histogram: %v", err)
	}

	if counts["active"] != 1 {
		t.Errorf("active = %d, want 1", counts["active"])
	}
	if counts["draft"] != 2 {
		t.Errorf("draft = %d, want 2 (entities without events project the default)", counts["draft"])
	}
	if _, ok := counts["done"]; !ok {
		t.Error("every status in the enumeration should appear, zero counts included")
	}
}

func TestFindStale(t *testing.T) {
	fresh := uuid.New()
	staleDraft := uuid.New()
	staleActive := uuid.New()
	entities := newMemEntities(fresh, staleDraft, staleActive)
	entities.created[staleDraft] = time.Now().AddDate(0, 0, -10)
	entities.created[staleActive] = time.Now().AddDate(0, 0, -10)
	engine, _ := newTestEngine(entities)
	ctx := context.Background()

	mustUpdate(t, engine, staleActive, "active")

	stale, err := engine.FindStale(ctx, 7)
	if err != nil {
		t.Fatalf("FindStale: %v", err)
	}
	if len(stale) != 1 {
		t.Fatalf("stale = %d entries, want 1", len(stale))
	}
	if stale[0].Ref.ID != staleDraft {
		t.Errorf("stale id = %s, want the aged draft entity", stale[0].Ref.ID)
	}
	if stale[0].Status != "draft" {
		t.Errorf("stale status = %q, want draft", stale[0].Status)
	}
}

func TestFindStaleRejectsBadThreshold(t *testing.T) {
	engine, _ := newTestEngine(newMemEntities())

	if _, err := engine.FindStale(context.Background(), 0); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("err = %v, want validation error", err)
	}
}

func TestUpdateStatusConcurrentSameEntity(t *testing.T) {
	id := uuid.New()
	engine, store := newTestEngine(newMemEntities(id))
	ctx := context.Background()

	// Many goroutines race draft -> active; the per-entity lock must let
	// exactly one through.
	var wg sync.WaitGroup
	successes := make(chan struct{}, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := engine.UpdateStatus(ctx, UpdateParams{EntityID: id, NewStatus: "active", Actor: "ops"}); err == nil {
				successes <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(successes)

	count := 0
	for range successes {
		count++
	}
	if count != 1 {
		t.Errorf("%d updates succeeded, want exactly 1", count)
	}
	if len(store.events) != 1 {
		t.Errorf("store has %d events, want 1", len(store.events))
	}
}

func mustUpdate(t *testing.T, engine *Engine, id uuid.UUID, target Status) {
	t.Helper()
	if _, err := engine.UpdateStatus(context.Background(), UpdateParams{EntityID: id, NewStatus: target, Actor: "test"}); err != nil {
		t.Fatalf("UpdateStatus(%s): %v", target, err)
	}
}
