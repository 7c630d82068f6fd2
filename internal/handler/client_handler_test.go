package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilumap/pqr-api/internal/dto"
	"github.com/ilumap/pqr-api/internal/models"
	appErrors "github.com/ilumap/pqr-api/pkg/errors"
)

type clientServiceMock struct {
	lastQuery  string
	lastID     string
	lastCreate dto.CreateClientRequest
	lastUpdate dto.UpdateClientRequest
	err        error
}

func (m *clientServiceMock) Search(ctx context.Context, query string) ([]models.Client, error) {
	m.lastQuery = query
	if query == "" {
		return []models.Client{}, nil
	}
	return []models.Client{{ID: "1001", Name: "María"}}, m.err
}

func (m *clientServiceMock) Get(ctx context.Context, id string) (*models.Client, error) {
	m.lastID = id
	return &models.Client{ID: id, Name: "María"}, m.err
}

func (m *clientServiceMock) Create(ctx context.Context, req dto.CreateClientRequest) (*models.Client, error) {
	m.lastCreate = req
	if m.err != nil {
		return nil, m.err
	}
	return &models.Client{ID: req.ID, Name: req.Name}, nil
}

func (m *clientServiceMock) Update(ctx context.Context, id string, req dto.UpdateClientRequest) (*models.Client, error) {
	m.lastID = id
	m.lastUpdate = req
	if m.err != nil {
		return nil, m.err
	}
	return &models.Client{ID: id, Name: req.Name}, nil
}

func TestClientHandlerSearch(t *testing.T) {
	mockSvc := &clientServiceMock{}
	h := NewClientHandler(mockSvc)

	c, w := newContext(http.MethodGet, "/pqr/clientes/search?q=mar", "")
	h.Search(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "mar", mockSvc.lastQuery)
	data := decodeEnvelope(t, w)["data"].([]interface{})
	require.Len(t, data, 1)
	assert.Equal(t, "María", data[0].(map[string]interface{})["nombre"])

	c, w = newContext(http.MethodGet, "/pqr/clientes/search", "")
	h.Search(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{}, decodeEnvelope(t, w)["data"])
}

func TestClientHandlerCreate(t *testing.T) {
	mockSvc := &clientServiceMock{}
	h := NewClientHandler(mockSvc)

	c, w := newContext(http.MethodPost, "/pqr/clientes", `{"id":"1001","nombre":"María","telefono":"300"}`)
	h.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "1001", mockSvc.lastCreate.ID)
	require.NotNil(t, mockSvc.lastCreate.Phone)
	assert.Equal(t, "300", *mockSvc.lastCreate.Phone)

	mockSvc.err = appErrors.Clone(appErrors.ErrConflict, "client already exists")
	c, w = newContext(http.MethodPost, "/pqr/clientes", `{"id":"1001","nombre":"María"}`)
	h.Create(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestClientHandlerUpdateAndGet(t *testing.T) {
	mockSvc := &clientServiceMock{}
	h := NewClientHandler(mockSvc)

	c, w := newContext(http.MethodPut, "/pqr/clientes/1001", `{"nombre":"María José"}`)
	c.Params = gin.Params{{Key: "id", Value: "1001"}}
	h.Update(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1001", mockSvc.lastID)
	assert.Equal(t, "María José", mockSvc.lastUpdate.Name)

	c, w = newContext(http.MethodPut, "/pqr/clientes/1001", `not json`)
	h.Update(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	mockSvc.err = appErrors.Clone(appErrors.ErrNotFound, "client not found")
	c, w = newContext(http.MethodGet, "/pqr/clientes/9", "")
	c.Params = gin.Params{{Key: "id", Value: "9"}}
	h.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
