package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ilumap/pqr-api/internal/dto"
	"github.com/ilumap/pqr-api/internal/models"
	"github.com/ilumap/pqr-api/internal/repository"
	appErrors "github.com/ilumap/pqr-api/pkg/errors"
)

type clientStore interface {
	Search(ctx context.Context, query string) ([]models.Client, error)
	FindByID(ctx context.Context, id string) (*models.Client, error)
	Create(ctx context.Context, client *models.Client) error
	Update(ctx context.Context, client *models.Client) error
}

// ClientService manages the client registry.
type ClientService struct {
	store     clientStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClientService constructs a ClientService.
func NewClientService(store clientStore, validate *validator.Validate, logger *zap.Logger) *ClientService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ClientService{store: store, validator: validate, logger: logger}
}

// Search finds every client whose id, phone or name contains query. A blank
// query returns an empty list without touching the store.
func (s *ClientService) Search(ctx context.Context, query string) ([]models.Client, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Client{}, nil
	}
	clients, err := s.store.Search(ctx, query)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to search clients")
	}
	return clients, nil
}

// Get returns one client.
func (s *ClientService) Get(ctx context.Context, id string) (*models.Client, error) {
	client, err := s.store.FindByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "client not found")
		}
		return nil, appErrors.Internal(err, "failed to load client")
	}
	return client, nil
}

// Create registers a new client. A duplicate id is a conflict.
func (s *ClientService) Create(ctx context.Context, req dto.CreateClientRequest) (*models.Client, error) {
	req.ID = strings.TrimSpace(req.ID)
	req.Name = strings.TrimSpace(req.Name)
	req.Email = trimOptional(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid client payload")
	}

	client := &models.Client{
		ID:    req.ID,
		Name:  req.Name,
		Phone: trimOptional(req.Phone),
		Email: req.Email,
		Note:  trimOptional(req.Note),
	}
	if err := s.store.Create(ctx, client); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "client already exists")
		}
		return nil, appErrors.Internal(err, "failed to create client")
	}
	s.logger.Info("client created", zap.String("client_id", client.ID))
	return client, nil
}

// Update changes name, phone, email and note of an existing client.
func (s *ClientService) Update(ctx context.Context, id string, req dto.UpdateClientRequest) (*models.Client, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = trimOptional(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid client payload")
	}

	client := &models.Client{
		ID:    strings.TrimSpace(id),
		Name:  req.Name,
		Phone: trimOptional(req.Phone),
		Email: req.Email,
		Note:  trimOptional(req.Note),
	}
	if err := s.store.Update(ctx, client); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "client not found")
		}
		return nil, appErrors.Internal(err, "failed to update client")
	}
	return client, nil
}

// trimOptional trims v and collapses blank strings to nil.
func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
