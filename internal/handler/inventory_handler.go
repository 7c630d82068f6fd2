package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ilumap/pqr-api/internal/models"
	"github.com/ilumap/pqr-api/pkg/response"
)

type inventoryService interface {
	List(ctx context.Context) ([]models.Fixture, error)
	FindBySerial(ctx context.Context, serial string) (*models.Fixture, error)
}

// InventoryHandler serves the streetlight catalog.
type InventoryHandler struct {
	service inventoryService
}

// NewInventoryHandler builds a new handler.
func NewInventoryHandler(service inventoryService) *InventoryHandler {
	return &InventoryHandler{service: service}
}

// List godoc
// @Summary List fixtures
// @Tags Inventory
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /pqr/inventario [get]
func (h *InventoryHandler) List(c *gin.Context) {
	fixtures, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fixtures, map[string]interface{}{"count": len(fixtures)})
}

// Get godoc
// @Summary Get fixture by serial
// @Tags Inventory
// @Produce json
// @Security BearerAuth
// @Param serie path string true "Fixture serial"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /pqr/inventario/{serie} [get]
func (h *InventoryHandler) Get(c *gin.Context) {
	fixture, err := h.service.FindBySerial(c.Request.Context(), c.Param("serie"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fixture)
}
