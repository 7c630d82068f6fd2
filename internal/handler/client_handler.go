package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ilumap/pqr-api/internal/dto"
	"github.com/ilumap/pqr-api/internal/models"
	appErrors "github.com/ilumap/pqr-api/pkg/errors"
	"github.com/ilumap/pqr-api/pkg/response"
)

type clientService interface {
	Search(ctx context.Context, query string) ([]models.Client, error)
	Get(ctx context.Context, id string) (*models.Client, error)
	Create(ctx context.Context, req dto.CreateClientRequest) (*models.Client, error)
	Update(ctx context.Context, id string, req dto.UpdateClientRequest) (*models.Client, error)
}

// ClientHandler exposes the client registry.
type ClientHandler struct {
	service clientService
}

// NewClientHandler builds a new handler.
func NewClientHandler(service clientService) *ClientHandler {
	return &ClientHandler{service: service}
}

// Search godoc
// @Summary Search clients
// @Description Case-insensitive substring match on document id, phone or name. A blank query returns an empty list.
// @Tags Clients
// @Produce json
// @Security BearerAuth
// @Param q query string false "Search text"
// @Success 200 {object} response.Envelope
// @Router /pqr/clientes/search [get]
func (h *ClientHandler) Search(c *gin.Context) {
	clients, err := h.service.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, clients, map[string]interface{}{"count": len(clients)})
}

// Get godoc
// @Summary Get client
// @Tags Clients
// @Produce json
// @Security BearerAuth
// @Param id path string true "Client document id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /pqr/clientes/{id} [get]
func (h *ClientHandler) Get(c *gin.Context) {
	client, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, client)
}

// Create godoc
// @Summary Register client
// @Tags Clients
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateClientRequest true "Client payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /pqr/clientes [post]
func (h *ClientHandler) Create(c *gin.Context) {
	var req dto.CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid client payload"))
		return
	}
	client, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, client)
}

// Update godoc
// @Summary Update client
// @Tags Clients
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Client document id"
// @Param payload body dto.UpdateClientRequest true "Client payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /pqr/clientes/{id} [put]
func (h *ClientHandler) Update(c *gin.Context) {
	var req dto.UpdateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid client payload"))
		return
	}
	client, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, client)
}
