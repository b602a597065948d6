// Package quotes provides the quote request bounded context module.
// It owns the quote_requests entities and runs their status lifecycle
// through the shared tracking engine.
package quotes

import (
	"github.com/finicafferata/fly-fleet-sub001/internal/events"
	apphttp "github.com/finicafferata/fly-fleet-sub001/internal/http"
	"github.com/finicafferata/fly-fleet-sub001/internal/quotes/domain"
	"github.com/finicafferata/fly-fleet-sub001/internal/quotes/handler"
	"github.com/finicafferata/fly-fleet-sub001/internal/quotes/repository"
	"github.com/finicafferata/fly-fleet-sub001/internal/quotes/service"
	"github.com/finicafferata/fly-fleet-sub001/internal/tracking"
	"github.com/finicafferata/fly-fleet-sub001/platform/config"
	"github.com/finicafferata/fly-fleet-sub001/platform/logger"
	"github.com/finicafferata/fly-fleet-sub001/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the quote requests bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// Store is the event log and status index the quote engine runs on.
type Store interface {
	tracking.EventStore
	tracking.StatusIndex
}

// NewModule creates and initializes the quotes module with all its dependencies.
func NewModule(pool *pgxpool.Pool, store Store, bus events.Bus, val *validator.Validator, cfg config.StalenessConfig, log *logger.Logger) *Module {
	repo := repository.New(pool)
	engine := tracking.NewEngine(domain.Definition, store, store, repo, log)
	svc := service.New(repo, engine, bus, log)
	h := handler.New(svc, val, cfg)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "quotes"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Engine returns the status tracking engine, used by scheduled jobs.
func (m *Module) Engine() *tracking.Engine {
	return m.service.Engine()
}

// RegisterRoutes mounts quote request routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Public submission endpoint, rate limited per IP
	ctx.Public.POST("/quotes", m.handler.Create)

	// Admin-only status lifecycle endpoints
	adminGroup := ctx.Admin.Group("/quotes")
	adminGroup.GET("", m.handler.List)
	adminGroup.GET("/stale", m.handler.ListStale)
	adminGroup.GET("/stats", m.handler.Stats)
	adminGroup.POST("/bulk-status", m.handler.BulkUpdateStatus)
	adminGroup.GET("/:id/status", m.handler.GetStatus)
	adminGroup.PATCH("/:id/status", m.handler.UpdateStatus)
	adminGroup.GET("/:id/history", m.handler.GetHistory)
	adminGroup.GET("/:id/actions", m.handler.GetActions)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
