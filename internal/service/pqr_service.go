package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ilumap/pqr-api/internal/dto"
	"github.com/ilumap/pqr-api/internal/models"
	appErrors "github.com/ilumap/pqr-api/pkg/errors"
	"github.com/ilumap/pqr-api/pkg/events"
)

const publishTimeout = 5 * time.Second

// submittedAtLayouts are tried in order for naive dashboard dates.
var submittedAtLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

type pqrStore interface {
	CreateWithHistory(ctx context.Context, pqr *models.PQR, entry *models.HistoryEntry) error
	UpdateStatusWithHistory(ctx context.Context, id string, status models.PQRStatus, entry *models.HistoryEntry) error
	FindByID(ctx context.Context, id string) (*models.PQRDetail, error)
	List(ctx context.Context, filter models.PQRFilter) ([]models.PQRDetail, error)
}

type clientLookup interface {
	FindByID(ctx context.Context, id string) (*models.Client, error)
}

type fixtureLookup interface {
	FindBySerial(ctx context.Context, serial string) (*models.Fixture, error)
}

// PQRConfig tunes the lifecycle engine.
type PQRConfig struct {
	// Location is used for naive submission dates and deadline arithmetic.
	Location *time.Location
	// Clock overrides time.Now in tests.
	Clock func() time.Time
}

// PQRCreatedEvent is published after a request is registered.
type PQRCreatedEvent struct {
	ID        string               `json:"id"`
	ClientID  string               `json:"clienteId"`
	Type      models.PQRType       `json:"tipoPqr"`
	Priority  models.PQRPriority   `json:"prioridad"`
	Channel   models.ReportChannel `json:"medioReporte"`
	Status    models.PQRStatus     `json:"estado"`
	DueAt     time.Time            `json:"fechaPlazo"`
	CreatedBy string               `json:"usuarioCreadorId"`
}

// PQRStatusChangedEvent is published after a transition.
type PQRStatusChangedEvent struct {
	ID         string           `json:"id"`
	Status     models.PQRStatus `json:"estado"`
	Stage      string           `json:"proceso"`
	UserID     string           `json:"usuarioId"`
	Comment    *string          `json:"comentario,omitempty"`
	OccurredAt time.Time        `json:"fecha"`
}

// PQRService is the request lifecycle engine.
type PQRService struct {
	store     pqrStore
	clients   clientLookup
	inventory fixtureLookup
	publisher events.Publisher
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	loc       *time.Location
	now       func() time.Time
}

// NewPQRService constructs a PQRService.
func NewPQRService(store pqrStore, clients clientLookup, inventory fixtureLookup, publisher events.Publisher, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg PQRConfig) *PQRService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &PQRService{
		store:     store,
		clients:   clients,
		inventory: inventory,
		publisher: publisher,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		loc:       cfg.Location,
		now:       cfg.Clock,
	}
}

// Create registers a request, computes its legal deadline, autocompletes the
// location from the inventory and records the "Registro" history entry.
func (s *PQRService) Create(ctx context.Context, req dto.CreatePQRRequest, actor *models.JWTClaims) (*models.PQRDetail, error) {
	if err := Authorize(actor, CapCreateRequest); err != nil {
		return nil, err
	}
	req.ClientID = strings.TrimSpace(req.ClientID)
	req.FixtureSerial = strings.TrimSpace(req.FixtureSerial)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid pqr payload")
	}

	pqrType, ok := models.ParsePQRType(req.Type)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid request type")
	}
	if !models.ValidCondition(pqrType, req.Condition) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid condition for request type")
	}
	priority := models.PriorityMedium
	if strings.TrimSpace(req.Priority) != "" {
		if priority, ok = models.ParsePriority(req.Priority); !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid priority")
		}
	}
	channel := models.ChannelInPerson
	if strings.TrimSpace(req.Channel) != "" {
		if channel, ok = models.ParseChannel(req.Channel); !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid report channel")
		}
	}

	now := s.now()
	submittedAt, err := s.parseSubmittedAt(req.SubmittedAt, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission date")
	}

	client, err := s.clients.FindByID(ctx, req.ClientID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, appErrors.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "client does not exist")
		}
		return nil, appErrors.Internal(err, "failed to load client")
	}

	days := DaysFor(pqrType)
	pqr := &models.PQR{
		ID:              uuid.NewString(),
		ClientID:        client.ID,
		Type:            pqrType,
		Condition:       strings.TrimSpace(req.Condition),
		Priority:        priority,
		Channel:         channel,
		SubmittedAt:     submittedAt.UTC(),
		DeadlineDays:    days,
		DueAt:           DueAt(submittedAt, days, s.loc),
		Status:          models.StatusPending,
		Address:         strings.TrimSpace(req.Address),
		Sector:          strings.TrimSpace(req.Sector),
		Neighborhood:    strings.TrimSpace(req.Neighborhood),
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		HasSerial:       req.HasSerial,
		Note:            trimOptional(req.Note),
		CreatedByUserID: actor.UserID,
		CreatedAt:       now.UTC(),
	}

	var fixture *models.Fixture
	if req.HasSerial {
		fixture, err = s.inventory.FindBySerial(ctx, req.FixtureSerial)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) || errors.Is(err, appErrors.ErrNotFound) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "serial not found in inventory")
			}
			return nil, appErrors.FromError(err)
		}
		applyFixture(pqr, fixture)
	}

	entry := &models.HistoryEntry{
		ID:         uuid.NewString(),
		Stage:      models.StageRegistered,
		UserID:     actor.UserID,
		OccurredAt: now.UTC(),
	}
	if err := s.store.CreateWithHistory(ctx, pqr, entry); err != nil {
		return nil, appErrors.Internal(err, "failed to create pqr")
	}

	s.metrics.RecordPQRCreated(pqr.Type)
	s.publish(ctx, events.PQRCreated, PQRCreatedEvent{
		ID:        pqr.ID,
		ClientID:  pqr.ClientID,
		Type:      pqr.Type,
		Priority:  pqr.Priority,
		Channel:   pqr.Channel,
		Status:    pqr.Status,
		DueAt:     pqr.DueAt,
		CreatedBy: pqr.CreatedByUserID,
	})
	s.logger.Info("pqr created",
		zap.String("pqr_id", pqr.ID),
		zap.String("type", string(pqr.Type)),
		zap.Time("due_at", pqr.DueAt),
	)

	return &models.PQRDetail{
		PQR:        *pqr,
		Client:     client,
		ClientName: client.Name,
		Fixture:    fixture,
		Creator:    &models.CreatorInfo{Name: actor.Name, Email: actor.Email},
		History:    []models.HistoryEntry{*entry},
	}, nil
}

// List returns requests visible to actor. Only ADMIN sees other users' requests.
func (s *PQRService) List(ctx context.Context, query dto.PQRQuery, actor *models.JWTClaims) ([]models.PQRDetail, error) {
	if err := Authorize(actor, CapListRequests); err != nil {
		return nil, err
	}
	filter, err := s.buildFilter(query, actor)
	if err != nil {
		return nil, err
	}
	items, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list pqrs")
	}
	return items, nil
}

// Get returns one request. Requests outside the actor's scope are reported as
// not found.
func (s *PQRService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.PQRDetail, error) {
	if err := Authorize(actor, CapListRequests); err != nil {
		return nil, err
	}
	detail, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleAdmin && detail.CreatedByUserID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "pqr not found")
	}
	return detail, nil
}

// Transition sets a new status and appends the matching history entry. Any
// non-empty status is accepted; the workflow order is not enforced.
func (s *PQRService) Transition(ctx context.Context, id string, req dto.TransitionRequest, actor *models.JWTClaims) (*models.PQRDetail, error) {
	if err := Authorize(actor, CapTransitionStatus); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Status) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transition payload")
	}

	id, err := parsePQRID(id)
	if err != nil {
		return nil, err
	}
	status := models.NormalizeStatus(req.Status)
	entry := &models.HistoryEntry{
		ID:         uuid.NewString(),
		PQRID:      id,
		Stage:      models.StageFor(status),
		UserID:     actor.UserID,
		Comment:    trimOptional(req.Comment),
		OccurredAt: s.now().UTC(),
	}
	if err := s.store.UpdateStatusWithHistory(ctx, id, status, entry); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "pqr not found")
		}
		return nil, appErrors.Internal(err, "failed to update pqr status")
	}

	s.metrics.RecordTransition(status)
	s.publish(ctx, events.PQRStatusChanged, PQRStatusChangedEvent{
		ID:         entry.PQRID,
		Status:     status,
		Stage:      entry.Stage,
		UserID:     entry.UserID,
		Comment:    entry.Comment,
		OccurredAt: entry.OccurredAt,
	})
	s.logger.Info("pqr status changed",
		zap.String("pqr_id", entry.PQRID),
		zap.String("status", string(status)),
		zap.String("user_id", actor.UserID),
	)

	return s.load(ctx, entry.PQRID)
}

func (s *PQRService) load(ctx context.Context, id string) (*models.PQRDetail, error) {
	id, err := parsePQRID(id)
	if err != nil {
		return nil, err
	}
	detail, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "pqr not found")
		}
		return nil, appErrors.Internal(err, "failed to load pqr")
	}
	return detail, nil
}

// parsePQRID rejects ids that cannot name a stored request.
func parsePQRID(raw string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", appErrors.Clone(appErrors.ErrNotFound, "pqr not found")
	}
	return id.String(), nil
}

func (s *PQRService) buildFilter(query dto.PQRQuery, actor *models.JWTClaims) (models.PQRFilter, error) {
	filter := models.PQRFilter{Search: strings.TrimSpace(query.Search)}
	if strings.TrimSpace(query.Status) != "" {
		filter.Status = models.NormalizeStatus(query.Status)
	}
	if strings.TrimSpace(query.Type) != "" {
		t, ok := models.ParsePQRType(query.Type)
		if !ok {
			return filter, appErrors.Clone(appErrors.ErrValidation, "invalid request type filter")
		}
		filter.Type = t
	}
	if actor.Role != models.RoleAdmin {
		filter.CreatedBy = actor.UserID
	}
	return filter, nil
}

func (s *PQRService) parseSubmittedAt(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	var lastErr error
	for _, layout := range submittedAtLayouts {
		t, err := time.ParseInLocation(layout, raw, s.loc)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// publish sends an integration event after commit. Failures are logged and
// counted, never surfaced to the caller.
func (s *PQRService) publish(ctx context.Context, routingKey string, payload interface{}) {
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(pubCtx, routingKey, payload); err != nil {
		s.metrics.RecordEventFailure(routingKey)
		s.logger.Warn("event publish failed", zap.String("routing_key", routingKey), zap.Error(err))
	}
}

func applyFixture(pqr *models.PQR, fixture *models.Fixture) {
	serial := fixture.Serial
	lat, lng := fixture.Latitude, fixture.Longitude
	pqr.FixtureSerial = &serial
	pqr.Address = fixture.Address
	pqr.Sector = fixture.Sector
	pqr.Neighborhood = fixture.Neighborhood
	pqr.Latitude = &lat
	pqr.Longitude = &lng
}
