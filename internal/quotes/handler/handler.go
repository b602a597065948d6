package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/finicafferata/fly-fleet-sub001/internal/quotes/service"
	"github.com/finicafferata/fly-fleet-sub001/internal/quotes/transport"
	"github.com/finicafferata/fly-fleet-sub001/platform/config"
	"github.com/finicafferata/fly-fleet-sub001/platform/httpkit"
	"github.com/finicafferata/fly-fleet-sub001/platform/validator"
)

// Handler handles HTTP requests for quote requests.
type Handler struct {
	svc *service.Service
	val *validator.Validator
	cfg config.StalenessConfig
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid quote request ID"
)

// New creates a new quote requests handler.
func New(svc *service.Service, val *validator.Validator, cfg config.StalenessConfig) *Handler {
	return &Handler{svc: svc, val: val, cfg: cfg}
}

// Create stores a new quote request (public).
// POST /api/v1/quotes
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Create(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// List retrieves quote requests filtered by status, paginated (admin).
// GET /api/v1/admin/quotes?status=&page=&pageSize=
func (h *Handler) List(c *gin.Context) {
	var req transport.ListQuotesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.List(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetStatus returns the quote request's projected current status.
// GET /api/v1/admin/quotes/:id/status
func (h *Handler) GetStatus(c *gin.Context) {
	id, ok := h.quoteID(c)
	if !ok {
		return
	}

	result, err := h.svc.GetStatus(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetHistory returns the quote request's status event log, newest first.
// GET /api/v1/admin/quotes/:id/history
func (h *Handler) GetHistory(c *gin.Context) {
	id, ok := h.quoteID(c)
	if !ok {
		return
	}

	result, err := h.svc.GetHistory(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetActions returns the statuses the quote request may legally move to.
// GET /api/v1/admin/quotes/:id/actions
func (h *Handler) GetActions(c *gin.Context) {
	id, ok := h.quoteID(c)
	if !ok {
		return
	}

	result, err := h.svc.GetActions(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// UpdateStatus performs a single status transition.
// PATCH /api/v1/admin/quotes/:id/status
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := h.quoteID(c)
	if !ok {
		return
	}

	var req transport.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.UpdateStatus(c.Request.Context(), id, req, provenance(c, identity))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// BulkUpdateStatus applies one transition to many quote requests.
// POST /api/v1/admin/quotes/bulk-status
func (h *Handler) BulkUpdateStatus(c *gin.Context) {
	var req transport.BulkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.BulkUpdateStatus(c.Request.Context(), req, provenance(c, identity))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListStale returns early-stage quote requests older than the threshold.
// GET /api/v1/admin/quotes/stale?thresholdDays=
func (h *Handler) ListStale(c *gin.Context) {
	var req transport.StaleQuotesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	threshold := req.ThresholdDays
	if threshold == 0 {
		threshold = h.cfg.GetStaleQuoteThresholdDays()
	}

	result, err := h.svc.FindStale(c.Request.Context(), threshold)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Stats returns the status histogram over all quote requests.
// GET /api/v1/admin/quotes/stats
func (h *Handler) Stats(c *gin.Context) {
	result, err := h.svc.Stats(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) quoteID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.UUID{}, false
	}
	return id, true
}

func provenance(c *gin.Context, identity httpkit.Identity) service.Provenance {
	prov := service.Provenance{Actor: identity.Actor()}
	if ip := c.ClientIP(); ip != "" {
		prov.IPAddress = &ip
	}
	if ua := c.Request.UserAgent(); ua != "" {
		prov.UserAgent = &ua
	}
	return prov
}
