package domain

import (
	"testing"

	"github.com/finicafferata/fly-fleet-sub001/internal/tracking"
)

func TestTransitionTableForwardOnly(t *testing.T) {
	order := []tracking.Status{
		StatusNewRequest, StatusReviewing, StatusQuoteSent,
		StatusAwaitingConfirmation, StatusConfirmed, StatusPaymentPending,
		StatusPaid, StatusCompleted,
	}

	for i, from := range order {
		// Every later stage is reachable; admins may skip ahead.
		for _, to := range order[i+1:] {
			if !transitionTable.IsValidTransition(from, to) {
				t.Errorf("%s -> %s should be allowed", from, to)
			}
		}
		// No backward moves, ever.
		for _, to := range order[:i] {
			if transitionTable.IsValidTransition(from, to) {
				t.Errorf("%s -> %s should be rejected (backward)", from, to)
			}
		}
	}
}

func TestTransitionTableCancellation(t *testing.T) {
	cancellable := []tracking.Status{
		StatusNewRequest, StatusReviewing, StatusQuoteSent,
		StatusAwaitingConfirmation, StatusConfirmed, StatusPaymentPending,
		StatusPaid,
	}

	for _, from := range cancellable {
		if !transitionTable.IsValidTransition(from, StatusCancelled) {
			t.Errorf("%s -> cancelled should be allowed", from)
		}
	}
}

func TestTransitionTableTerminals(t *testing.T) {
	for _, terminal := range []tracking.Status{StatusCompleted, StatusCancelled} {
		if !transitionTable.IsTerminal(terminal) {
			t.Errorf("%s should be terminal", terminal)
		}
		for _, to := range Definition.Statuses {
			if transitionTable.IsValidTransition(terminal, to) {
				t.Errorf("%s -> %s should be rejected", terminal, to)
			}
		}
	}
}

func TestTransitionTableNoSelfTransitions(t *testing.T) {
	for _, s := range Definition.Statuses {
		if transitionTable.IsValidTransition(s, s) {
			t.Errorf("%s -> %s should be rejected", s, s)
		}
	}
}

func TestDefinitionShape(t *testing.T) {
	if Definition.Default != StatusNewRequest {
		t.Errorf("default = %s, want new_request", Definition.Default)
	}
	if len(Definition.Statuses) != 9 {
		t.Errorf("statuses = %d, want 9", len(Definition.Statuses))
	}

	// The table must cover exactly the enumerated statuses.
	for _, s := range Definition.Statuses {
		if _, ok := transitionTable[s]; !ok {
			t.Errorf("table missing entry for %s", s)
		}
	}
	if len(transitionTable) != len(Definition.Statuses) {
		t.Errorf("table has %d entries, want %d", len(transitionTable), len(Definition.Statuses))
	}

	for _, early := range Definition.EarlyStage {
		if transitionTable.IsTerminal(early) {
			t.Errorf("early-stage status %s must not be terminal", early)
		}
	}
}
