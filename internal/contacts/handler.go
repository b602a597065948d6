package contacts

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/finicafferata/fly-fleet-sub001/platform/config"
	"github.com/finicafferata/fly-fleet-sub001/platform/httpkit"
	"github.com/finicafferata/fly-fleet-sub001/platform/validator"
)

// Handler handles HTTP requests for contact submissions.
type Handler struct {
	svc *Service
	val *validator.Validator
	cfg config.StalenessConfig
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid contact submission ID"
)

// NewHandler creates a new contact submissions handler.
func NewHandler(svc *Service, val *validator.Validator, cfg config.StalenessConfig) *Handler {
	return &Handler{svc: svc, val: val, cfg: cfg}
}

// Create stores a new contact submission (public).
// POST /api/v1/contact
func (h *Handler) Create(c *gin.Context) {
	var req CreateContactRequest
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

// List retrieves contact submissions filtered by status, paginated (admin).
// GET /api/v1/admin/contacts?status=&page=&pageSize=
func (h *Handler) List(c *gin.Context) {
	var req ListContactsRequest
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

// GetStatus returns the submission's projected current status.
// GET /api/v1/admin/contacts/:id/status
func (h *Handler) GetStatus(c *gin.Context) {
	id, ok := h.contactID(c)
	if !ok {
		return
	}

	result, err := h.svc.GetStatus(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetHistory returns the submission's status event log, newest first.
// GET /api/v1/admin/contacts/:id/history
func (h *Handler) GetHistory(c *gin.Context) {
	id, ok := h.contactID(c)
	if !ok {
		return
	}

	result, err := h.svc.GetHistory(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetActions returns the statuses the submission may legally move to.
// GET /api/v1/admin/contacts/:id/actions
func (h *Handler) GetActions(c *gin.Context) {
	id, ok := h.contactID(c)
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
// PATCH /api/v1/admin/contacts/:id/status
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := h.contactID(c)
	if !ok {
		return
	}

	var req UpdateStatusRequest
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

	result, err := h.svc.UpdateStatus(c.Request.Context(), id, req, contactProvenance(c, identity))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// BulkUpdateStatus applies one transition to many contact submissions.
// POST /api/v1/admin/contacts/bulk-status
func (h *Handler) BulkUpdateStatus(c *gin.Context) {
	var req BulkStatusRequest
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

	result, err := h.svc.BulkUpdateStatus(c.Request.Context(), req, contactProvenance(c, identity))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListStale returns submissions still pending past the age threshold.
// GET /api/v1/admin/contacts/stale?thresholdDays=
func (h *Handler) ListStale(c *gin.Context) {
	var req StaleContactsRequest
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

// Stats returns the status histogram over all contact submissions.
// GET /api/v1/admin/contacts/stats
func (h *Handler) Stats(c *gin.Context) {
	result, err := h.svc.Stats(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) contactID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.UUID{}, false
	}
	return id, true
}

func contactProvenance(c *gin.Context, identity httpkit.Identity) Provenance {
	prov := Provenance{Actor: identity.Actor()}
	if ip := c.ClientIP(); ip != "" {
		prov.IPAddress = &ip
	}
	if ua := c.Request.UserAgent(); ua != "" {
		prov.UserAgent = &ua
	}
	return prov
}
