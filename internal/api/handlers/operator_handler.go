package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"andesgo/intake/internal/auth"
	"andesgo/intake/internal/config"
	"andesgo/intake/internal/services"
	"andesgo/intake/internal/store"
	"andesgo/intake/internal/utils"
)

// OperatorHandler serves operator login and the read-only request views.
type OperatorHandler struct {
	cfg    *config.Config
	intake services.IIntakeService
}

func NewOperatorHandler(cfg *config.Config, intake services.IIntakeService) *OperatorHandler {
	return &OperatorHandler{cfg: cfg, intake: intake}
}

type operatorLoginRequest struct {
	Password string `json:"password"`
}

// Login handles POST /v1/operator/login
func (h *OperatorHandler) Login(c *gin.Context) {
	var req operatorLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidJSON})
		return
	}

	token, err := auth.OperatorLogin(req.Password, h.cfg.OperatorPasswordHash, h.cfg.JwtSecret, h.cfg.JwtTTL)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"token": token, "expires_in": int64(h.cfg.JwtTTL.Seconds())})
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Credenciales inválidas"})
	case errors.Is(err, auth.ErrOperatorLoginDisabled):
		c.JSON(http.StatusForbidden, gin.H{"error": "Acceso de operador deshabilitado"})
	default:
		log.Printf("ERROR operator login: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternal})
	}
}

// ListRequests handles GET /v1/admin/requests
func (h *OperatorHandler) ListRequests(c *gin.Context) {
	summaries, err := h.intake.ListSummaries(c.Request.Context())
	if err != nil {
		log.Printf("ERROR listing requests: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternal})
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": len(summaries), "requests": summaries})
}

// GetRequest handles GET /v1/admin/requests/:id
func (h *OperatorHandler) GetRequest(c *gin.Context) {
	id := c.Param("id")
	if _, _, err := utils.ParseRequestID(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identificador de solicitud inválido"})
		return
	}
	record, err := h.intake.GetRecord(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Solicitud no encontrada"})
			return
		}
		log.Printf("ERROR getting request %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternal})
		return
	}
	c.JSON(http.StatusOK, record)
}
