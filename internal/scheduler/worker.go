package scheduler

import (
	"context"
	"fmt"

	"github.com/finicafferata/fly-fleet-sub001/internal/notification/outbox"
	"github.com/finicafferata/fly-fleet-sub001/internal/tracking"
	"github.com/finicafferata/fly-fleet-sub001/platform/config"
	"github.com/finicafferata/fly-fleet-sub001/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

const maxOutboxAttempts = 5

// StaleQuoteScanner finds quote requests stuck in an early stage.
type StaleQuoteScanner interface {
	FindStale(ctx context.Context, thresholdDays int) ([]tracking.StaleEntity, error)
}

type Worker struct {
	server       *asynq.Server
	mux          *asynq.ServeMux
	outboxRepo   *outbox.Repository
	staleScanner StaleQuoteScanner
	log          *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:     server,
		mux:        mux,
		outboxRepo: outbox.New(pool),
		log:        log,
	}

	mux.HandleFunc(TaskStaleQuoteSweep, w.handleStaleQuoteSweep)
	mux.HandleFunc(TaskNotificationOutboxDue, w.handleNotificationOutboxDue)

	return w, nil
}

// SetStaleQuoteScanner injects the quote status engine used by the sweep.
func (w *Worker) SetStaleQuoteScanner(scanner StaleQuoteScanner) {
	w.staleScanner = scanner
}

// handleStaleQuoteSweep scans for quotes stuck in an early stage and records
// an outbox reminder per stale quote.
func (w *Worker) handleStaleQuoteSweep(ctx context.Context, task *asynq.Task) error {
	if w.staleScanner == nil {
		return nil
	}

	payload, err := ParseStaleQuoteSweepPayload(task)
	if err != nil {
		return err
	}

	stale, err := w.staleScanner.FindStale(ctx, payload.ThresholdDays)
	if err != nil {
		return err
	}

	w.log.Info("stale quote sweep completed", "thresholdDays", payload.ThresholdDays, "staleCount", len(stale))

	for _, entry := range stale {
		id, err := w.outboxRepo.Insert(ctx, outbox.InsertParams{
			Kind:     "email",
			Template: "stale_quote_reminder",
			Payload: map[string]any{
				"quoteId":   entry.Ref.ID.String(),
				"status":    string(entry.Status),
				"createdAt": entry.Ref.CreatedAt,
			},
		})
		if err != nil {
			w.log.Error("failed to record stale quote reminder", "quoteId", entry.Ref.ID, "error", err)
			continue
		}
		w.log.Info("stale quote reminder recorded", "quoteId", entry.Ref.ID, "status", string(entry.Status), "outboxId", id.String())
	}

	return nil
}

// handleNotificationOutboxDue marks a claimed outbox row processed. Message
// composition and delivery sit behind this hook; for now dispatch is a
// structured log line.
func (w *Worker) handleNotificationOutboxDue(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseNotificationOutboxDuePayload(task)
	if err != nil {
		return err
	}

	outboxID, err := uuid.Parse(payload.OutboxID)
	if err != nil {
		return err
	}

	if err := w.outboxRepo.MarkProcessing(ctx, outboxID); err != nil {
		return err
	}

	rec, err := w.outboxRepo.GetByID(ctx, outboxID)
	if err != nil {
		return err
	}

	if rec.Attempts > maxOutboxAttempts {
		w.log.Warn("outbox message exceeded max attempts", "outboxId", outboxID, "attempts", rec.Attempts)
		return w.outboxRepo.MarkFailed(ctx, outboxID, "max attempts exceeded")
	}

	w.log.Info("notification dispatched",
		"outboxId", outboxID,
		"kind", rec.Kind,
		"template", rec.Template,
		"attempts", rec.Attempts,
	)

	return w.outboxRepo.MarkSucceeded(ctx, outboxID)
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
