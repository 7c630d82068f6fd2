package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ilumap/pqr-api/internal/dto"
	"github.com/ilumap/pqr-api/internal/models"
	"github.com/ilumap/pqr-api/internal/service"
	appErrors "github.com/ilumap/pqr-api/pkg/errors"
	"github.com/ilumap/pqr-api/pkg/response"
)

type pqrService interface {
	Create(ctx context.Context, req dto.CreatePQRRequest, actor *models.JWTClaims) (*models.PQRDetail, error)
	List(ctx context.Context, query dto.PQRQuery, actor *models.JWTClaims) ([]models.PQRDetail, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.PQRDetail, error)
	Transition(ctx context.Context, id string, req dto.TransitionRequest, actor *models.JWTClaims) (*models.PQRDetail, error)
}

type pqrExporter interface {
	Export(ctx context.Context, query dto.PQRQuery, format string, actor *models.JWTClaims) (*service.ExportResult, error)
}

// PQRHandler exposes the request lifecycle.
type PQRHandler struct {
	service  pqrService
	exporter pqrExporter
}

// NewPQRHandler builds a new handler.
func NewPQRHandler(service pqrService, exporter pqrExporter) *PQRHandler {
	return &PQRHandler{service: service, exporter: exporter}
}

// Create godoc
// @Summary Register a PQR
// @Description Computes the deadline from the request type and records the Registro history entry.
// @Tags PQR
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreatePQRRequest true "PQR payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /pqr [post]
func (h *PQRHandler) Create(c *gin.Context) {
	var req dto.CreatePQRRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid pqr payload"))
		return
	}
	detail, err := h.service.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, detail)
}

// List godoc
// @Summary List PQRs
// @Description Administrators see every request, other roles only their own.
// @Tags PQR
// @Produce json
// @Security BearerAuth
// @Param estado query string false "Status filter"
// @Param tipoPqr query string false "Type filter"
// @Param q query string false "Client name or address"
// @Success 200 {object} response.Envelope
// @Router /pqr [get]
func (h *PQRHandler) List(c *gin.Context) {
	var query dto.PQRQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	items, err := h.service.List(c.Request.Context(), query, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"count": len(items)})
}

// Get godoc
// @Summary Get PQR
// @Tags PQR
// @Produce json
// @Security BearerAuth
// @Param id path string true "PQR id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /pqr/{id} [get]
func (h *PQRHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail)
}

// Transition godoc
// @Summary Change PQR status
// @Description Any target status is accepted; a history entry is appended with the stage derived from it.
// @Tags PQR
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "PQR id"
// @Param payload body dto.TransitionRequest true "Transition payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /pqr/{id}/estado [patch]
func (h *PQRHandler) Transition(c *gin.Context) {
	var req dto.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid transition payload"))
		return
	}
	detail, err := h.service.Transition(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail)
}

// Conditions godoc
// @Summary List PQR conditions
// @Description Returns the accepted conditions per request type for the registration form. Types with textoLibre accept any non-empty text.
// @Tags PQR
// @Produce json
// @Security BearerAuth
// @Param tipoPqr query string false "Restrict to one type"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /pqr/condiciones [get]
func (h *PQRHandler) Conditions(c *gin.Context) {
	raw := strings.TrimSpace(c.Query("tipoPqr"))
	if raw == "" {
		response.JSON(c, http.StatusOK, models.ConditionCatalog())
		return
	}
	t, ok := models.ParsePQRType(raw)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown pqr type"))
		return
	}
	response.JSON(c, http.StatusOK, models.ConditionCatalog(t))
}

// Export godoc
// @Summary Export PQRs
// @Description Downloads the caller-visible list as CSV or PDF.
// @Tags PQR
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv or pdf" Enums(csv, pdf)
// @Param estado query string false "Status filter"
// @Param tipoPqr query string false "Type filter"
// @Param q query string false "Client name or address"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /pqr/export [get]
func (h *PQRHandler) Export(c *gin.Context) {
	var query dto.PQRQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	result, err := h.exporter.Export(c.Request.Context(), query, c.Query("format"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, result.Filename, result.ContentType, result.Body)
}
