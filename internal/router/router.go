package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/ilumap/pqr-api/internal/handler"
	"github.com/ilumap/pqr-api/internal/middleware"
	"github.com/ilumap/pqr-api/internal/service"
	"github.com/ilumap/pqr-api/pkg/config"
	"github.com/ilumap/pqr-api/pkg/logger"
	corsmiddleware "github.com/ilumap/pqr-api/pkg/middleware/cors"
	reqidmiddleware "github.com/ilumap/pqr-api/pkg/middleware/requestid"
)

// Dependencies carries everything the HTTP surface needs.
type Dependencies struct {
	Logger       *zap.Logger
	Metrics      *service.MetricsService
	Tokens       middleware.TokenValidator
	LoginLimiter middleware.RateLimiter

	Auth      *handler.AuthHandler
	Clients   *handler.ClientHandler
	Inventory *handler.InventoryHandler
	PQR       *handler.PQRHandler
	Probes    *handler.MetricsHandler
}

// New builds the gin engine with the global middleware chain and every route.
func New(cfg *config.Config, deps Dependencies) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))

	r.GET("/health", deps.Probes.Health)
	r.GET("/ready", deps.Probes.Ready)
	r.GET("/metrics", deps.Probes.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/register", middleware.OptionalJWT(deps.Tokens), deps.Auth.Register)
	auth.POST("/login", middleware.RateLimit(deps.LoginLimiter, cfg.RateLimit, deps.Metrics, deps.Logger), deps.Auth.Login)
	auth.GET("/me", middleware.JWT(deps.Tokens), deps.Auth.Me)

	pqr := api.Group("/pqr", middleware.JWT(deps.Tokens))

	clients := pqr.Group("/clientes", middleware.RequireCapability(service.CapManageClients))
	clients.GET("/search", deps.Clients.Search)
	clients.GET("/:id", deps.Clients.Get)
	clients.POST("", deps.Clients.Create)
	clients.PUT("/:id", deps.Clients.Update)

	inventory := pqr.Group("/inventario", middleware.RequireCapability(service.CapViewInventory))
	inventory.GET("", deps.Inventory.List)
	inventory.GET("/:serie", deps.Inventory.Get)

	pqr.POST("", middleware.RequireCapability(service.CapCreateRequest), deps.PQR.Create)
	pqr.GET("", middleware.RequireCapability(service.CapListRequests), deps.PQR.List)
	pqr.GET("/export", middleware.RequireCapability(service.CapExportRequests), deps.PQR.Export)
	pqr.GET("/condiciones", middleware.RequireCapability(service.CapCreateRequest), deps.PQR.Conditions)
	pqr.GET("/:id", middleware.RequireCapability(service.CapListRequests), deps.PQR.Get)
	pqr.PATCH("/:id/estado", middleware.RequireCapability(service.CapTransitionStatus), deps.PQR.Transition)

	return r
}
