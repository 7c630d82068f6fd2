package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/ilumap/pqr-api/api/swagger"
	"github.com/ilumap/pqr-api/internal/handler"
	"github.com/ilumap/pqr-api/internal/middleware"
	"github.com/ilumap/pqr-api/internal/repository"
	"github.com/ilumap/pqr-api/internal/router"
	"github.com/ilumap/pqr-api/internal/service"
	"github.com/ilumap/pqr-api/pkg/cache"
	"github.com/ilumap/pqr-api/pkg/config"
	"github.com/ilumap/pqr-api/pkg/database"
	"github.com/ilumap/pqr-api/pkg/events"
	"github.com/ilumap/pqr-api/pkg/export"
	"github.com/ilumap/pqr-api/pkg/logger"
)

// @title ILUMAP PQR API
// @version 1.0.0
// @description Public lighting petitions, complaints, claims and failure reports
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.CreateSchema(ctx, db); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}

	rdb, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQP.Enabled {
		amqpPublisher, err := events.DialAMQP(cfg.AMQP.URL, cfg.AMQP.Exchange, logr)
		if err != nil {
			return fmt.Errorf("connect amqp: %w", err)
		}
		publisher = amqpPublisher
	}
	defer publisher.Close() //nolint:errcheck

	validate := validator.New()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	clientRepo := repository.NewClientRepository(db)
	fixtureRepo := repository.NewFixtureRepository(db)
	pqrRepo := repository.NewPQRRepository(db, repository.NewHistoryRepository(db))

	var cacheSvc *service.CacheService
	if rdb != nil {
		cacheSvc = service.NewCacheService(repository.NewCacheRepository(rdb, "ilumap"), metrics, cfg.Inventory.CacheTTL, logr, cfg.Inventory.CacheEnabled)
	}

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	clientSvc := service.NewClientService(clientRepo, validate, logr)
	inventorySvc := service.NewInventoryService(fixtureRepo, cacheSvc, cfg.Inventory.CacheTTL, logr)
	pqrSvc := service.NewPQRService(pqrRepo, clientRepo, inventorySvc, publisher, metrics, validate, logr, service.PQRConfig{
		Location: cfg.PQR.Location(),
	})
	exportSvc := service.NewExportService(pqrSvc, export.NewRenderer(), cfg.PQR.Location(), logr)

	checks := map[string]handler.ReadinessCheck{"postgres": db.PingContext}
	var limiter middleware.RateLimiter
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		limiter = middleware.NewRedisTokenBucket(rdb, cfg.RateLimit)
	}

	engine := router.New(cfg, router.Dependencies{
		Logger:       logr,
		Metrics:      metrics,
		Tokens:       authSvc,
		LoginLimiter: limiter,
		Auth:         handler.NewAuthHandler(authSvc),
		Clients:      handler.NewClientHandler(clientSvc),
		Inventory:    handler.NewInventoryHandler(inventorySvc),
		PQR:          handler.NewPQRHandler(pqrSvc, exportSvc),
		Probes:       handler.NewMetricsHandler(metrics, checks),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
