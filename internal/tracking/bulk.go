package tracking

import (
	"context"

	"github.com/google/uuid"
)

// BulkFailure records one entity a bulk update could not move.
type BulkFailure struct {
	EntityID uuid.UUID `json:"id"`
	Reason   string    `json:"reason"`
}

// BulkResult is the outcome of a bulk status update. Every requested id
// lands in exactly one of the two lists.
type BulkResult struct {
	Succeeded []StatusChangeEvent
	Failed    []BulkFailure
}

// BulkUpdateStatus applies the same transition to each entity in turn.
// Iteration is deliberately sequential: it bounds load on the store and
// keeps failure attribution per item. A failing id is recorded and skipped;
// it never aborts the rest of the batch.
func (e *Engine) BulkUpdateStatus(ctx context.Context, entityIDs []uuid.UUID, newStatus Status, actor string, note *string) BulkResult {
	result := BulkResult{
		Succeeded: make([]StatusChangeEvent, 0, len(entityIDs)),
		Failed:    make([]BulkFailure, 0),
	}

	for _, id := range entityIDs {
		event, err := e.UpdateStatus(ctx, UpdateParams{
			EntityID:  id,
			NewStatus: newStatus,
			Actor:     actor,
			Note:      note,
		})
		if err != nil {
			e.log.Warn("bulk status update item failed",
				"entity_type", string(e.def.Entity),
				"entity_id", id.String(),
				"target_status", string(newStatus),
				"error", err,
			)
			result.Failed = append(result.Failed, BulkFailure{EntityID: id, Reason: err.Error()})
			continue
		}
		result.Succeeded = append(result.Succeeded, event)
	}

	return result
}
