package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/ilumap/pqr-api/internal/models"
)

const pqrSelect = `SELECT p.id, p.client_id, p.request_type, p.condition, p.priority, p.report_channel,
p.submitted_at, p.deadline_days, p.due_at, p.status, p.address, p.sector, p.neighborhood,
p.latitude, p.longitude, p.has_serial, p.fixture_serial, p.note, p.created_by, p.created_at,
c.name AS client_name, c.phone AS client_phone, c.email AS client_email, c.note AS client_note,
f.serial AS fixture_ref, f.address AS fixture_address, f.sector AS fixture_sector,
f.neighborhood AS fixture_neighborhood, f.latitude AS fixture_latitude, f.longitude AS fixture_longitude,
u.name AS creator_name, u.email AS creator_email
FROM pqrs p
JOIN clients c ON c.id = p.client_id
LEFT JOIN fixtures f ON f.serial = p.fixture_serial
LEFT JOIN users u ON u.id = p.created_by`

// pqrRow is the flat shape of pqrSelect.
type pqrRow struct {
	models.PQR
	ClientName          string          `db:"client_name"`
	ClientPhone         *string         `db:"client_phone"`
	ClientEmail         *string         `db:"client_email"`
	ClientNote          *string         `db:"client_note"`
	FixtureRef          sql.NullString  `db:"fixture_ref"`
	FixtureAddress      sql.NullString  `db:"fixture_address"`
	FixtureSector       sql.NullString  `db:"fixture_sector"`
	FixtureNeighborhood sql.NullString  `db:"fixture_neighborhood"`
	FixtureLatitude     sql.NullFloat64 `db:"fixture_latitude"`
	FixtureLongitude    sql.NullFloat64 `db:"fixture_longitude"`
	CreatorName         sql.NullString  `db:"creator_name"`
	CreatorEmail        sql.NullString  `db:"creator_email"`
}

func (row pqrRow) detail() models.PQRDetail {
	d := models.PQRDetail{
		PQR:        row.PQR,
		ClientName: row.ClientName,
		Client: &models.Client{
			ID:    row.ClientID,
			Name:  row.ClientName,
			Phone: row.ClientPhone,
			Email: row.ClientEmail,
			Note:  row.ClientNote,
		},
		History: []models.HistoryEntry{},
	}
	if row.FixtureRef.Valid {
		d.Fixture = &models.Fixture{
			Serial:       row.FixtureRef.String,
			Address:      row.FixtureAddress.String,
			Sector:       row.FixtureSector.String,
			Neighborhood: row.FixtureNeighborhood.String,
			Latitude:     row.FixtureLatitude.Float64,
			Longitude:    row.FixtureLongitude.Float64,
		}
	}
	if row.CreatorName.Valid {
		d.Creator = &models.CreatorInfo{Name: row.CreatorName.String, Email: row.CreatorEmail.String}
	}
	return d
}

// PQRRepository persists requests and writes their history in the same
// transaction.
type PQRRepository struct {
	db      *sqlx.DB
	history *HistoryRepository
}

// NewPQRRepository constructs a PQR repository.
func NewPQRRepository(db *sqlx.DB, history *HistoryRepository) *PQRRepository {
	if history == nil {
		history = NewHistoryRepository(db)
	}
	return &PQRRepository{db: db, history: history}
}

// CreateWithHistory inserts the request and its first history entry atomically.
func (r *PQRRepository) CreateWithHistory(ctx context.Context, pqr *models.PQR, entry *models.HistoryEntry) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create pqr: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO pqrs (id, client_id, request_type, condition, priority, report_channel, submitted_at, deadline_days, due_at, status, address, sector, neighborhood, latitude, longitude, has_serial, fixture_serial, note, created_by, created_at)
VALUES (:id, :client_id, :request_type, :condition, :priority, :report_channel, :submitted_at, :deadline_days, :due_at, :status, :address, :sector, :neighborhood, :latitude, :longitude, :has_serial, :fixture_serial, :note, :created_by, :created_at)`
	if _, err = tx.NamedExecContext(ctx, query, pqr); err != nil {
		return fmt.Errorf("insert pqr: %w", err)
	}

	entry.PQRID = pqr.ID
	if err = r.history.Append(ctx, tx, entry); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create pqr: %w", err)
	}
	return nil
}

// UpdateStatusWithHistory sets the status and appends entry atomically. It
// returns sql.ErrNoRows when the request does not exist.
func (r *PQRRepository) UpdateStatusWithHistory(ctx context.Context, id string, status models.PQRStatus, entry *models.HistoryEntry) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update pqr status: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `UPDATE pqrs SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update pqr status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update pqr status rows affected: %w", err)
	}
	if affected == 0 {
		err = sql.ErrNoRows
		return err
	}

	entry.PQRID = id
	if err = r.history.Append(ctx, tx, entry); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit update pqr status: %w", err)
	}
	return nil
}

// FindByID returns the denormalized request with its history.
func (r *PQRRepository) FindByID(ctx context.Context, id string) (*models.PQRDetail, error) {
	var row pqrRow
	if err := r.db.GetContext(ctx, &row, pqrSelect+` WHERE p.id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find pqr: %w", err)
	}
	detail := row.detail()
	history, err := r.history.ListByPQRIDs(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	if entries, ok := history[id]; ok {
		detail.History = entries
	}
	return &detail, nil
}

// List returns requests matching filter, newest submission first, each with
// its history ascending.
func (r *PQRRepository) List(ctx context.Context, filter models.PQRFilter) ([]models.PQRDetail, error) {
	var conditions []string
	var args []interface{}

	if filter.CreatedBy != "" {
		args = append(args, filter.CreatedBy)
		conditions = append(conditions, fmt.Sprintf("p.created_by = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", len(args)))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		conditions = append(conditions, fmt.Sprintf("p.request_type = $%d", len(args)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+strings.ToLower(escapeLike(search))+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf(`(LOWER(c.name) LIKE $%d ESCAPE '\' OR LOWER(p.address) LIKE $%d ESCAPE '\')`, n, n))
	}

	query := pqrSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY p.submitted_at DESC, p.id DESC"

	var rows []pqrRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list pqrs: %w", err)
	}

	result := make([]models.PQRDetail, 0, len(rows))
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.detail())
		ids = append(ids, row.ID)
	}

	history, err := r.history.ListByPQRIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range result {
		if entries, ok := history[result[i].ID]; ok {
			result[i].History = entries
		}
	}
	return result, nil
}
