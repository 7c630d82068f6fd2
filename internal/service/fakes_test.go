package service

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	"github.com/ilumap/pqr-api/internal/models"
)

// memoryPQRStore mimics the transactional repository in memory.
type memoryPQRStore struct {
	mu        sync.Mutex
	pqrs      map[string]models.PQR
	history   map[string][]models.HistoryEntry
	createErr error
	clients   map[string]*models.Client
	lookups   int
}

func newMemoryPQRStore() *memoryPQRStore {
	return &memoryPQRStore{
		pqrs:    make(map[string]models.PQR),
		history: make(map[string][]models.HistoryEntry),
		clients: make(map[string]*models.Client),
	}
}

func (m *memoryPQRStore) CreateWithHistory(_ context.Context, pqr *models.PQR, entry *models.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	entry.PQRID = pqr.ID
	m.pqrs[pqr.ID] = *pqr
	m.history[pqr.ID] = append(m.history[pqr.ID], *entry)
	return nil
}

func (m *memoryPQRStore) UpdateStatusWithHistory(_ context.Context, id string, status models.PQRStatus, entry *models.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	pqr, ok := m.pqrs[id]
	if !ok {
		return sql.ErrNoRows
	}
	pqr.Status = status
	m.pqrs[id] = pqr
	entry.PQRID = id
	m.history[id] = append(m.history[id], *entry)
	return nil
}

func (m *memoryPQRStore) detail(p models.PQR) models.PQRDetail {
	d := models.PQRDetail{PQR: p, History: append([]models.HistoryEntry{}, m.history[p.ID]...)}
	if c, ok := m.clients[p.ClientID]; ok {
		d.Client = c
		d.ClientName = c.Name
	}
	return d
}

func (m *memoryPQRStore) FindByID(_ context.Context, id string) (*models.PQRDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	p, ok := m.pqrs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	d := m.detail(p)
	return &d, nil
}

func (m *memoryPQRStore) List(_ context.Context, filter models.PQRFilter) ([]models.PQRDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.PQRDetail, 0)
	for _, p := range m.pqrs {
		if filter.CreatedBy != "" && p.CreatedByUserID != filter.CreatedBy {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.Type != "" && p.Type != filter.Type {
			continue
		}
		out = append(out, m.detail(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.After(out[j].SubmittedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *memoryPQRStore) historyCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, entries := range m.history {
		n += len(entries)
	}
	return n
}

// memoryClients implements clientLookup and clientStore.
type memoryClients struct {
	byID map[string]*models.Client
}

func (m *memoryClients) FindByID(_ context.Context, id string) (*models.Client, error) {
	if c, ok := m.byID[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

// memoryFixtures implements fixtureStore.
type memoryFixtures struct {
	bySerial  map[string]models.Fixture
	listCalls int
	upserted  []models.Fixture
}

func (m *memoryFixtures) FindBySerial(_ context.Context, serial string) (*models.Fixture, error) {
	if f, ok := m.bySerial[serial]; ok {
		return &f, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memoryFixtures) List(_ context.Context) ([]models.Fixture, error) {
	m.listCalls++
	out := make([]models.Fixture, 0, len(m.bySerial))
	for _, f := range m.bySerial {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Serial < out[j].Serial })
	return out, nil
}

func (m *memoryFixtures) Upsert(_ context.Context, fixtures []models.Fixture) error {
	m.upserted = append(m.upserted, fixtures...)
	return nil
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	keys   []string
	events []interface{}
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, key string, payload interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, key)
	r.events = append(r.events, payload)
	return r.err
}

func (r *recordingPublisher) Close() error { return nil }
