package delivery

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/finicafferata/fly-fleet-sub001/platform/httpkit"
)

// SignatureHeader carries the provider's HMAC signature over the raw body.
const SignatureHeader = "X-Webhook-Signature"

const defaultStatsHours = 24

// Handler handles HTTP requests for the email delivery webhook.
type Handler struct {
	svc *Service
}

// NewHandler creates a new delivery webhook handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// HandleEmailWebhook ingests a signed provider event.
// POST /api/v1/webhooks/email
func (h *Handler) HandleEmailWebhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "failed to read request body", nil)
		return
	}

	result, err := h.svc.ProcessEvent(c.Request.Context(), body, c.GetHeader(SignatureHeader), c.ClientIP())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Stats reports webhook activity over a trailing window (admin).
// GET /api/v1/admin/webhooks/email/stats?hours=
func (h *Handler) Stats(c *gin.Context) {
	hours := defaultStatsHours
	if raw := c.Query("hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid hours parameter", nil)
			return
		}
		hours = parsed
	}

	result, err := h.svc.Stats(c.Request.Context(), hours)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
