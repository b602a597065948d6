package delivery

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/finicafferata/fly-fleet-sub001/internal/events"
	"github.com/finicafferata/fly-fleet-sub001/platform/apperr"
	"github.com/finicafferata/fly-fleet-sub001/platform/logger"
)

const testSecret = "whsec_test"

type fakeWebhookConfig struct{ secret string }

func (f fakeWebhookConfig) GetEmailWebhookSecret() string { return f.secret }

type recordedEvent struct {
	messageID  string
	eventType  string
	occurredAt time.Time
}

// fakeStore mirrors the repository's monotonic rank semantics in memory.
type fakeStore struct {
	statuses map[string]Status
	events   map[string]recordedEvent
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		statuses: make(map[string]Status),
		events:   make(map[string]recordedEvent),
	}
}

func (f *fakeStore) ApplyStatus(ctx context.Context, messageID string, status Status, errorDetail *string) (Status, bool, error) {
	current, ok := f.statuses[messageID]
	if !ok || Rank(status) > Rank(current) {
		f.statuses[messageID] = status
		return status, true, nil
	}
	return current, false, nil
}

func (f *fakeStore) RecordEvent(ctx context.Context, messageID, eventType string, occurredAt time.Time, payload []byte) error {
	key := messageID + "|" + eventType + "|" + occurredAt.UTC().Format(time.RFC3339Nano)
	if _, exists := f.events[key]; !exists {
		f.events[key] = recordedEvent{messageID: messageID, eventType: eventType, occurredAt: occurredAt}
	}
	return nil
}

func (f *fakeStore) EventTypeCounts(ctx context.Context, since time.Time) (map[string]int, error) {
	counts := make(map[string]int)
	for _, event := range f.events {
		counts[event.eventType]++
	}
	return counts, nil
}

func (f *fakeStore) StatusCounts(ctx context.Context, since time.Time) (map[Status]int, error) {
	counts := make(map[Status]int)
	for _, status := range f.statuses {
		counts[status]++
	}
	return counts, nil
}

type capturingBus struct {
	published []events.Event
}

func (b *capturingBus) Publish(ctx context.Context, event events.Event) {
	b.published = append(b.published, event)
}

func (b *capturingBus) PublishSync(ctx context.Context, event events.Event) error {
	b.published = append(b.published, event)
	return nil
}

func (b *capturingBus) Subscribe(eventName string, handler events.Handler) {}

func newTestService() (*Service, *fakeStore, *capturingBus) {
	store := newFakeStore()
	bus := &capturingBus{}
	svc := NewService(store, fakeWebhookConfig{secret: testSecret}, bus, logger.New("test"))
	return svc, store, bus
}

func signedBody(t *testing.T, eventType, emailID string) ([]byte, string) {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"type":       eventType,
		"created_at": time.Now().UTC().Format(time.RFC3339),
		"data":       map[string]any{"email_id": emailID},
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return body, sign(testSecret, body)
}

func TestProcessEventAppliesStatus(t *testing.T) {
	svc, store, bus := newTestService()
	body, signature := signedBody(t, "email.delivered", "msg-1")

	result, err := svc.ProcessEvent(context.Background(), body, signature, "203.0.113.9")
	if err != nil {
		t.Fatalf("ProcessEvent: %v", err)
	}

	if !result.Success || !result.Processed {
		t.Errorf("result = %+v, want success and processed", result)
	}
	if result.NewStatus == nil || *result.NewStatus != string(StatusDelivered) {
		t.Errorf("newStatus = %v, want delivered", result.NewStatus)
	}
	if store.statuses["msg-1"] != StatusDelivered {
		t.Errorf("stored status = %s, want delivered", store.statuses["msg-1"])
	}
	if len(store.events) != 1 {
		t.Errorf("recorded %d audit events, want 1", len(store.events))
	}
	if len(bus.published) != 1 {
		t.Fatalf("published %d events, want 1", len(bus.published))
	}
	if _, ok := bus.published[0].(events.EmailDeliveryUpdated); !ok {
		t.Errorf("published %T, want EmailDeliveryUpdated", bus.published[0])
	}
}

func TestProcessEventRejectsBadSignature(t *testing.T) {
	svc, store, _ := newTestService()
	body, _ := signedBody(t, "email.delivered", "msg-1")

	_, err := svc.ProcessEvent(context.Background(), body, "sha256=deadbeef", "203.0.113.9")
	if !apperr.Is(err, apperr.KindUnauthorized) {
		t.Errorf("err = %v, want unauthorized", err)
	}
	if len(store.events) != 0 {
		t.Error("rejected webhook must not record an audit event")
	}
}

func TestProcessEventRejectsMalformedPayload(t *testing.T) {
	svc, _, _ := newTestService()

	cases := []struct {
		name string
		body []byte
	}{
		{"not json", []byte("not json")},
		{"missing type", []byte(`{"data":{"email_id":"msg-1"}}`)},
		{"missing email_id", []byte(`{"type":"email.sent","data":{}}`)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.ProcessEvent(context.Background(), tc.body, sign(testSecret, tc.body), "203.0.113.9")
			if !apperr.Is(err, apperr.KindBadRequest) {
				t.Errorf("err = %v, want bad request", err)
			}
		})
	}
}

func TestProcessEventUnrecognizedType(t *testing.T) {
	svc, store, bus := newTestService()
	body, signature := signedBody(t, "subscription.created", "msg-1")

	result, err := svc.ProcessEvent(context.Background(), body, signature, "203.0.113.9")
	if err != nil {
		t.Fatalf("ProcessEvent: %v", err)
	}

	if !result.Success || result.Processed {
		t.Errorf("result = %+v, want success without processed", result)
	}
	// Unknown events are still recorded for audit.
	if len(store.events) != 1 {
		t.Errorf("recorded %d audit events, want 1", len(store.events))
	}
	if len(bus.published) != 0 {
		t.Error("unrecognized event must not publish")
	}
}

func TestProcessEventAuditOnlyType(t *testing.T) {
	svc, store, bus := newTestService()
	body, signature := signedBody(t, "email.opened", "msg-1")

	result, err := svc.ProcessEvent(context.Background(), body, signature, "203.0.113.9")
	if err != nil {
		t.Fatalf("ProcessEvent: %v", err)
	}

	if !result.Success || !result.Processed {
		t.Errorf("result = %+v, want success and processed", result)
	}
	if result.NewStatus != nil {
		t.Errorf("newStatus = %q, want none for audit-only events", *result.NewStatus)
	}
	if _, tracked := store.statuses["msg-1"]; tracked {
		t.Error("audit-only event must not create a delivery status")
	}
	if len(bus.published) != 0 {
		t.Error("audit-only event must not publish")
	}
}

func TestProcessEventStatusNeverRegresses(t *testing.T) {
	svc, store, bus := newTestService()
	ctx := context.Background()

	bounced, bouncedSig := signedBody(t, "email.bounced", "msg-1")
	if _, err := svc.ProcessEvent(ctx, bounced, bouncedSig, "203.0.113.9"); err != nil {
		t.Fatalf("ProcessEvent(bounced): %v", err)
	}

	// A late-arriving "sent" must not roll the delivery back.
	sent, sentSig := signedBody(t, "email.sent", "msg-1")
	result, err := svc.ProcessEvent(ctx, sent, sentSig, "203.0.113.9")
	if err != nil {
		t.Fatalf("ProcessEvent(sent): %v", err)
	}

	if result.NewStatus == nil || *result.NewStatus != string(StatusBounced) {
		t.Errorf("newStatus = %v, want bounced (no regression)", result.NewStatus)
	}
	if store.statuses["msg-1"] != StatusBounced {
		t.Errorf("stored status = %s, want bounced", store.statuses["msg-1"])
	}
	if len(bus.published) != 1 {
		t.Errorf("published %d events, want only the bounce", len(bus.published))
	}
}

func TestProcessEventReplayIsIdempotent(t *testing.T) {
	svc, store, bus := newTestService()
	ctx := context.Background()
	body, signature := signedBody(t, "email.delivered", "msg-1")

	for i := 0; i < 3; i++ {
		if _, err := svc.ProcessEvent(ctx, body, signature, "203.0.113.9"); err != nil {
			t.Fatalf("ProcessEvent replay %d: %v", i, err)
		}
	}

	if len(store.events) != 1 {
		t.Errorf("recorded %d audit events, want 1 (replays deduplicated)", len(store.events))
	}
	if store.statuses["msg-1"] != StatusDelivered {
		t.Errorf("stored status = %s, want delivered", store.statuses["msg-1"])
	}
	if len(bus.published) != 1 {
		t.Errorf("published %d events, want 1", len(bus.published))
	}
}

func TestStats(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	for _, fixture := range []struct{ eventType, messageID string }{
		{"email.sent", "msg-1"},
		{"email.delivered", "msg-1"},
		{"email.sent", "msg-2"},
		{"email.bounced", "msg-2"},
	} {
		body, signature := signedBody(t, fixture.eventType, fixture.messageID)
		if _, err := svc.ProcessEvent(ctx, body, signature, "203.0.113.9"); err != nil {
			t.Fatalf("ProcessEvent(%s): %v", fixture.eventType, err)
		}
	}

	stats, err := svc.Stats(ctx, 24)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}

	if stats.Hours != 24 {
		t.Errorf("hours = %d, want 24", stats.Hours)
	}
	if stats.ByType["email.sent"] != 2 {
		t.Errorf("sent count = %d, want 2", stats.ByType["email.sent"])
	}
	if stats.TotalTyped != 4 {
		t.Errorf("total = %d, want 4", stats.TotalTyped)
	}
	if stats.ByStatus[string(StatusDelivered)] != 1 || stats.ByStatus[string(StatusBounced)] != 1 {
		t.Errorf("byStatus = %v, want one delivered and one bounced", stats.ByStatus)
	}
}

func TestStatsRejectsBadWindow(t *testing.T) {
	svc, _, _ := newTestService()

	if _, err := svc.Stats(context.Background(), 0); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("err = %v, want validation error", err)
	}
}
