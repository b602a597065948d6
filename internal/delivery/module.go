package delivery

import (
	"github.com/finicafferata/fly-fleet-sub001/internal/events"
	apphttp "github.com/finicafferata/fly-fleet-sub001/internal/http"
	"github.com/finicafferata/fly-fleet-sub001/platform/config"
	"github.com/finicafferata/fly-fleet-sub001/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the email delivery webhook module implementing http.Module.
type Module struct {
	handler *Handler
	service *Service
}

// NewModule creates and initializes the delivery module with all its dependencies.
func NewModule(pool *pgxpool.Pool, cfg config.WebhookConfig, bus events.Bus, log *logger.Logger) *Module {
	repo := NewRepository(pool)
	svc := NewService(repo, cfg, bus, log)
	h := NewHandler(svc)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "delivery"
}

// Service returns the service layer for external use.
func (m *Module) Service() *Service {
	return m.service
}

// RegisterRoutes mounts delivery webhook routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Provider-facing endpoint: signature auth, no JWT
	ctx.Webhooks.POST("/email", m.handler.HandleEmailWebhook)

	// Admin webhook activity stats
	ctx.Admin.GET("/webhooks/email/stats", m.handler.Stats)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
