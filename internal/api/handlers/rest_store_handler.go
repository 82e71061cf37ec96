package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"andesgo/intake/internal/services"
)

// RestStoreHandler serves the partner store directory.
type RestStoreHandler struct {
	directory services.IStoreDirectory
}

func NewRestStoreHandler(directory services.IStoreDirectory) *RestStoreHandler {
	return &RestStoreHandler{directory: directory}
}

// ListStores handles GET /v1/stores?limit=
func (h *RestStoreHandler) ListStores(c *gin.Context) {
	limit, present := c.GetQuery("limit")
	listing, err := h.directory.List(limit, present)
	if err != nil {
		if errors.Is(err, services.ErrInvalidLimit) {
			c.JSON(http.StatusBadRequest, gin.H{"error": `Parámetro "limit" inválido`})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternal})
		return
	}
	c.JSON(http.StatusOK, listing)
}
