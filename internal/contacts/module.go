package contacts

import (
	"github.com/finicafferata/fly-fleet-sub001/internal/events"
	apphttp "github.com/finicafferata/fly-fleet-sub001/internal/http"
	"github.com/finicafferata/fly-fleet-sub001/internal/tracking"
	"github.com/finicafferata/fly-fleet-sub001/platform/config"
	"github.com/finicafferata/fly-fleet-sub001/platform/logger"
	"github.com/finicafferata/fly-fleet-sub001/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the contact submissions bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	service *Service
	repo    *Repository
}

// Store is the event log and status index the contact engine runs on.
type Store interface {
	tracking.EventStore
	tracking.StatusIndex
}

// NewModule creates and initializes the contacts module with all its dependencies.
func NewModule(pool *pgxpool.Pool, store Store, bus events.Bus, val *validator.Validator, cfg config.StalenessConfig, log *logger.Logger) *Module {
	repo := NewRepository(pool)
	engine := tracking.NewEngine(Definition, store, store, repo, log)
	svc := NewService(repo, engine, bus, log)
	h := NewHandler(svc, val, cfg)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "contacts"
}

// Service returns the service layer for external use.
func (m *Module) Service() *Service {
	return m.service
}

// RegisterRoutes mounts contact submission routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Public submission endpoint, rate limited per IP
	ctx.Public.POST("/contact", m.handler.Create)

	// Admin-only status lifecycle endpoints
	adminGroup := ctx.Admin.Group("/contacts")
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
