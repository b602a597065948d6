package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/finicafferata/fly-fleet-sub001/internal/events"
	"github.com/finicafferata/fly-fleet-sub001/internal/notification"
	"github.com/finicafferata/fly-fleet-sub001/internal/notification/outbox"
	"github.com/finicafferata/fly-fleet-sub001/internal/quotes"
	"github.com/finicafferata/fly-fleet-sub001/internal/scheduler"
	trackrepo "github.com/finicafferata/fly-fleet-sub001/internal/tracking/repository"
	"github.com/finicafferata/fly-fleet-sub001/platform/config"
	"github.com/finicafferata/fly-fleet-sub001/platform/db"
	"github.com/finicafferata/fly-fleet-sub001/platform/logger"
	"github.com/finicafferata/fly-fleet-sub001/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting worker", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)

	notificationModule := notification.New(outbox.New(pool), log)
	notificationModule.RegisterHandlers(eventBus)

	val := validator.New()

	// Worker-side quote wiring (no HTTP handlers required). The quote engine
	// backs the stale sweep.
	statusStore := trackrepo.New(pool)
	quotesModule := quotes.NewModule(pool, statusStore, eventBus, val, cfg, log)

	dispatcher, err := scheduler.NewNotificationOutboxDispatcher(cfg, pool, log)
	if err != nil {
		log.Error("failed to initialize outbox dispatcher", "error", err)
		panic("failed to initialize outbox dispatcher: " + err.Error())
	}
	defer func() { _ = dispatcher.Close() }()
	go dispatcher.Run(ctx)

	sweepClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer func() { _ = sweepClient.Close() }()

	sweeper := scheduler.NewStaleQuoteSweeper(sweepClient, cfg, log)
	go sweeper.Run(ctx)

	worker, err := scheduler.NewWorker(cfg, pool, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}
	worker.SetStaleQuoteScanner(quotesModule.Engine())

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
