package tracking

import (
	"context"
	"time"

	"github.com/finicafferata/fly-fleet-sub001/platform/apperr"
)

// StaleEntity is an entity past the age threshold still sitting in an
// early-stage status, with its full history attached for display.
type StaleEntity struct {
	Ref     EntityRef
	Status  Status
	History []StatusChangeEvent
}

// FindStale returns entities created more than thresholdDays ago whose
// projected status is still in the entity type's early-stage set.
// Per-entity store failures are logged and skipped so one unreadable
// history does not fail the whole scan.
func (e *Engine) FindStale(ctx context.Context, thresholdDays int) ([]StaleEntity, error) {
	if thresholdDays < 1 {
		return nil, apperr.Validation("threshold must be at least one day")
	}

	cutoff := time.Now().AddDate(0, 0, -thresholdDays)
	refs, err := e.entities.ListCreatedBefore(ctx, cutoff)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list entities", err)
	}

	stale := make([]StaleEntity, 0)
	for _, ref := range refs {
		history, err := e.store.History(ctx, e.def.Entity, ref.ID)
		if err != nil {
			e.log.StoreError("stale scan history read", err)
			continue
		}

		status := ProjectStatus(history, e.def.Default)
		if !e.def.IsEarlyStage(status) {
			continue
		}

		stale = append(stale, StaleEntity{Ref: ref, Status: status, History: history})
	}

	return stale, nil
}
