package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/finicafferata/fly-fleet-sub001/internal/contacts"
	"github.com/finicafferata/fly-fleet-sub001/internal/delivery"
	"github.com/finicafferata/fly-fleet-sub001/internal/events"
	apphttp "github.com/finicafferata/fly-fleet-sub001/internal/http"
	"github.com/finicafferata/fly-fleet-sub001/internal/http/router"
	"github.com/finicafferata/fly-fleet-sub001/internal/notification"
	"github.com/finicafferata/fly-fleet-sub001/internal/notification/outbox"
	"github.com/finicafferata/fly-fleet-sub001/internal/quotes"
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

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

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
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	// Shared status event store backing every tracked entity type
	statusStore := trackrepo.New(pool)

	// Notification module subscribes to domain events (not HTTP-facing)
	notificationModule := notification.New(outbox.New(pool), log)
	notificationModule.RegisterHandlers(eventBus)

	quotesModule := quotes.NewModule(pool, statusStore, eventBus, val, cfg, log)
	contactsModule := contacts.NewModule(pool, statusStore, eventBus, val, cfg, log)
	deliveryModule := delivery.NewModule(pool, cfg, eventBus, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			quotesModule,
			contactsModule,
			deliveryModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
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
