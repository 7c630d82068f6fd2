package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilumap/pqr-api/internal/handler"
	"github.com/ilumap/pqr-api/internal/models"
	"github.com/ilumap/pqr-api/internal/service"
	"github.com/ilumap/pqr-api/pkg/config"
	appErrors "github.com/ilumap/pqr-api/pkg/errors"
)

type staticTokens map[string]*models.JWTClaims

func (s staticTokens) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, appErrors.ErrUnauthorized
}

func newTestEngine(env string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Env: env, APIPrefix: "/api"}
	return New(cfg, Dependencies{
		Metrics:   service.NewMetricsService(),
		Tokens:    staticTokens{"op": {UserID: "op-1", Role: models.RoleOperator}},
		Auth:      handler.NewAuthHandler(nil),
		Clients:   handler.NewClientHandler(nil),
		Inventory: handler.NewInventoryHandler(nil),
		PQR:       handler.NewPQRHandler(nil, nil),
		Probes:    handler.NewMetricsHandler(nil, nil),
	})
}

func TestRoutesRegistered(t *testing.T) {
	r := newTestEngine(config.EnvDevelopment)

	registered := map[string]bool{}
	for _, route := range r.Routes() {
		registered[route.Method+" "+route.Path] = true
	}
	for _, want := range []string{
		"GET /health", "GET /ready", "GET /metrics", "GET /docs/*any",
		"POST /api/auth/register", "POST /api/auth/login", "GET /api/auth/me",
		"GET /api/pqr/clientes/search", "GET /api/pqr/clientes/:id", "POST /api/pqr/clientes", "PUT /api/pqr/clientes/:id",
		"GET /api/pqr/inventario", "GET /api/pqr/inventario/:serie",
		"POST /api/pqr", "GET /api/pqr", "GET /api/pqr/export", "GET /api/pqr/condiciones", "GET /api/pqr/:id", "PATCH /api/pqr/:id/estado",
	} {
		assert.True(t, registered[want], want)
	}
}

func TestDocsHiddenInProduction(t *testing.T) {
	r := newTestEngine(config.EnvProduction)
	for _, route := range r.Routes() {
		assert.NotEqual(t, "/docs/*any", route.Path)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := newTestEngine(config.EnvDevelopment)

	for _, target := range []string{"/api/pqr", "/api/pqr/export", "/api/pqr/clientes/search?q=a", "/api/pqr/inventario", "/api/auth/me"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, target)
	}
}

func TestOperatorCannotTransition(t *testing.T) {
	r := newTestEngine(config.EnvDevelopment)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/pqr/abc/estado", nil)
	req.Header.Set("Authorization", "Bearer op")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestConditionsRouteBeforeID(t *testing.T) {
	r := newTestEngine(config.EnvDevelopment)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/pqr/condiciones?tipoPqr=RECLAMO", nil)
	req.Header.Set("Authorization", "Bearer op")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "SERVICIO_AP")
}

func TestHealth(t *testing.T) {
	r := newTestEngine(config.EnvDevelopment)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
