package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"andesgo/intake/internal/models"
	"andesgo/intake/internal/services"
	"andesgo/intake/internal/validation"
)

const (
	errInternal    = "Error interno del servidor"
	errInvalidJSON = "Formato de solicitud inválido"
)

// IntakeHandler handles the public submission endpoints.
type IntakeHandler struct {
	intake services.IIntakeService
}

// NewIntakeHandler creates a new IntakeHandler.
func NewIntakeHandler(intake services.IIntakeService) *IntakeHandler {
	return &IntakeHandler{intake: intake}
}

// IntakeResponse is returned for accepted mailbox requests and shopping quotes.
type IntakeResponse struct {
	ID         string                  `json:"id"`
	Status     services.DispatchStatus `json:"status"`
	Message    string                  `json:"message"`
	EmailsSent EmailsSent              `json:"emails_sent"`
	Warnings   []string                `json:"warnings,omitempty"`
}

type EmailsSent struct {
	Admin    bool `json:"admin"`
	Customer bool `json:"customer"`
}

// CreateStorageBooking handles POST /v1/storage-bookings
func (h *IntakeHandler) CreateStorageBooking(c *gin.Context) {
	var booking models.StorageBooking
	if err := c.ShouldBindJSON(&booking); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidJSON})
		return
	}

	result, err := h.intake.SubmitStorageBooking(c.Request.Context(), &booking)
	if err != nil {
		respondIntakeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":      result.Record.ID,
		"total":   result.Record.Amount,
		"status":  result.Record.Status,
		"message": result.Message,
	})
}

// QuoteStorageBooking handles GET /v1/storage-bookings/quote
func (h *IntakeHandler) QuoteStorageBooking(c *gin.Context) {
	var hours *int
	if raw, ok := c.GetQuery("hours"); ok && raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "horas inválidas", "field": "hours"})
			return
		}
		hours = &n
	}

	preview, err := h.intake.PreviewStorageQuote(c.Query("plan"), hours, c.Query("check_in"), c.Query("check_out"))
	if err != nil {
		respondIntakeError(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

// CreateMailboxRequest handles POST /v1/mailbox-requests
func (h *IntakeHandler) CreateMailboxRequest(c *gin.Context) {
	var req models.MailboxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidJSON})
		return
	}

	result, err := h.intake.SubmitMailboxRequest(c.Request.Context(), &req)
	if err != nil {
		respondIntakeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, newIntakeResponse(result))
}

// CreateShoppingQuote handles POST /v1/shopping-quotes
func (h *IntakeHandler) CreateShoppingQuote(c *gin.Context) {
	var req models.ShoppingQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidJSON})
		return
	}

	result, err := h.intake.SubmitShoppingQuote(c.Request.Context(), &req)
	if err != nil {
		respondIntakeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, newIntakeResponse(result))
}

func newIntakeResponse(result *services.IntakeResult) IntakeResponse {
	resp := IntakeResponse{
		ID:      result.Record.ID,
		Status:  result.DispatchStatus(),
		Message: result.Message,
	}
	if o := result.Outcome; o != nil {
		resp.EmailsSent = EmailsSent{Admin: o.OperatorSent, Customer: o.CustomerSent}
		resp.Warnings = o.Warnings()
	}
	return resp
}

// respondIntakeError maps validation failures to 400 and everything else
// to an opaque 500.
func respondIntakeError(c *gin.Context, err error) {
	var vErr *validation.ValidationError
	if errors.As(err, &vErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Reason, "field": vErr.Field})
		return
	}
	log.Printf("ERROR %s %s: %v", c.Request.Method, c.FullPath(), err)
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": errInternal})
}
