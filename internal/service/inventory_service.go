package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ilumap/pqr-api/internal/models"
	appErrors "github.com/ilumap/pqr-api/pkg/errors"
)

const inventoryListKey = "inventory:list"

type fixtureStore interface {
	FindBySerial(ctx context.Context, serial string) (*models.Fixture, error)
	List(ctx context.Context) ([]models.Fixture, error)
	Upsert(ctx context.Context, fixtures []models.Fixture) error
}

// InventoryService serves the streetlight catalog.
type InventoryService struct {
	store  fixtureStore
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
}

// NewInventoryService constructs an InventoryService. cache may be nil.
func NewInventoryService(store fixtureStore, cache *CacheService, ttl time.Duration, logger *zap.Logger) *InventoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryService{store: store, cache: cache, ttl: ttl, logger: logger}
}

// FindBySerial always reads the store. A missing serial yields ErrNotFound.
func (s *InventoryService) FindBySerial(ctx context.Context, serial string) (*models.Fixture, error) {
	serial = strings.TrimSpace(serial)
	if serial == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "serial is required")
	}
	fixture, err := s.store.FindBySerial(ctx, serial)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "fixture not found")
		}
		return nil, appErrors.Internal(err, "failed to load fixture")
	}
	return fixture, nil
}

// List returns the full catalog, from cache when enabled.
func (s *InventoryService) List(ctx context.Context) ([]models.Fixture, error) {
	var cached []models.Fixture
	if s.cache.Get(ctx, inventoryListKey, &cached) {
		return cached, nil
	}

	fixtures, err := s.store.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list inventory")
	}
	s.cache.Set(ctx, inventoryListKey, fixtures, s.ttl)
	return fixtures, nil
}

// Load upserts fixtures and drops the cached listing.
func (s *InventoryService) Load(ctx context.Context, fixtures []models.Fixture) error {
	for i, f := range fixtures {
		if strings.TrimSpace(f.Serial) == "" {
			return appErrors.Clone(appErrors.ErrValidation, "fixture serial is required")
		}
		fixtures[i].Serial = strings.TrimSpace(f.Serial)
	}
	if err := s.store.Upsert(ctx, fixtures); err != nil {
		return appErrors.Internal(err, "failed to load inventory")
	}
	if err := s.cache.Invalidate(ctx, "inventory:*"); err != nil {
		s.logger.Warn("inventory cache not invalidated", zap.Error(err))
	}
	s.logger.Info("inventory loaded", zap.Int("fixtures", len(fixtures)))
	return nil
}
