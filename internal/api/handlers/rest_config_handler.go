package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"andesgo/intake/internal/config"
	"andesgo/intake/internal/pricing"
)

// ratesSource is the part of the intake service the config endpoint reads.
type ratesSource interface {
	Rates() pricing.Rates
}

// PublicConfig is served on GET /v1/config for the booking forms.
type PublicConfig struct {
	AppName            string        `json:"app_name"`
	ContactEmail       string        `json:"contact_email"`
	Pricing            pricing.Rates `json:"pricing"`
	Plans              []string      `json:"plans"`
	AttachmentMaxBytes int           `json:"attachment_max_bytes"`
	TurnstileSiteKey   string        `json:"turnstile_site_key,omitempty"`
}

// RestConfigHandler handles requests for the /config REST endpoint.
type RestConfigHandler struct {
	cfg   *config.Config
	rates ratesSource
}

// NewRestConfigHandler creates a new RestConfigHandler.
func NewRestConfigHandler(cfg *config.Config, rates ratesSource) *RestConfigHandler {
	return &RestConfigHandler{cfg: cfg, rates: rates}
}

// GetPublicConfig returns the publicly accessible configuration parameters.
// Handles GET /v1/config
func (h *RestConfigHandler) GetPublicConfig(c *gin.Context) {
	c.JSON(http.StatusOK, PublicConfig{
		AppName:            h.cfg.AppName,
		ContactEmail:       h.cfg.ContactEmail,
		Pricing:            h.rates.Rates(),
		Plans:              []string{string(pricing.PlanHourly), string(pricing.PlanDaily), string(pricing.PlanWeekly)},
		AttachmentMaxBytes: h.cfg.AttachmentMaxBytes(),
		TurnstileSiteKey:   h.cfg.CloudflareTurnstileSiteKey,
	})
}
