package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilumap/pqr-api/internal/models"
)

var pqrColumnNames = []string{
	"id", "client_id", "request_type", "condition", "priority", "report_channel",
	"submitted_at", "deadline_days", "due_at", "status", "address", "sector", "neighborhood",
	"latitude", "longitude", "has_serial", "fixture_serial", "note", "created_by", "created_at",
	"client_name", "client_phone", "client_email", "client_note",
	"fixture_ref", "fixture_address", "fixture_sector", "fixture_neighborhood", "fixture_latitude", "fixture_longitude",
	"creator_name", "creator_email",
}

var historyColumnNames = []string{"id", "pqr_id", "stage", "user_id", "comment", "occurred_at"}

func pqrRowValues(id string, submitted time.Time, serial interface{}) []driver.Value {
	var fixtureRef, fixtureAddr, fixtureSector, fixtureHood, fixtureLat, fixtureLng driver.Value
	if serial != nil {
		fixtureRef, fixtureAddr, fixtureSector, fixtureHood, fixtureLat, fixtureLng = serial, "Calle 1", "CABECERA_MUNICIPAL", "Centro", 6.96, -75.41
	}
	return []driver.Value{
		id, "1001", "REPORT", "APAGADA", "MEDIUM", "PHONE",
		submitted, 3, submitted.AddDate(0, 0, 3), "PENDING", "Calle 1", "CABECERA_MUNICIPAL", "Centro",
		6.96, -75.41, serial != nil, serial, nil, "u1", submitted,
		"Ana", "300", nil, nil,
		fixtureRef, fixtureAddr, fixtureSector, fixtureHood, fixtureLat, fixtureLng,
		"Operador", "op@ilumap.com",
	}
}

func TestCreateWithHistoryCommits(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPQRRepository(db, nil)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO pqrs").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO pqr_history").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	pqr := &models.PQR{ID: "p1", ClientID: "1001", Status: models.StatusPending}
	entry := &models.HistoryEntry{Stage: models.StageRegistered, UserID: "u1", OccurredAt: time.Now()}
	require.NoError(t, repo.CreateWithHistory(context.Background(), pqr, entry))
	assert.Equal(t, "p1", entry.PQRID)
	assert.NotEmpty(t, entry.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithHistoryRollsBackOnHistoryFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPQRRepository(db, nil)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO pqrs").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO pqr_history").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.CreateWithHistory(context.Background(), &models.PQR{ID: "p1"}, &models.HistoryEntry{})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusWithHistory(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPQRRepository(db, nil)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE pqrs SET status = $2 WHERE id = $1")).
		WithArgs("p1", models.StatusAssigned).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO pqr_history").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	entry := &models.HistoryEntry{Stage: models.StageAssignment, UserID: "u2"}
	require.NoError(t, repo.UpdateStatusWithHistory(context.Background(), "p1", models.StatusAssigned, entry))
	assert.Equal(t, "p1", entry.PQRID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusMissingRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPQRRepository(db, nil)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE pqrs SET status").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.UpdateStatusWithHistory(context.Background(), "missing", models.StatusClosed, &models.HistoryEntry{})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindPQRByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPQRRepository(db, nil)

	submitted := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE p.id = $1")).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows(pqrColumnNames).AddRow(pqrRowValues("p1", submitted, "LUM-001")...))
	mock.ExpectQuery("FROM pqr_history WHERE pqr_id IN").
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows(historyColumnNames).
			AddRow("h1", "p1", "Registro", "u1", nil, submitted).
			AddRow("h2", "p1", "Asignación", "u2", "ok", submitted.Add(time.Hour)))

	detail, err := repo.FindByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", detail.ClientName)
	require.NotNil(t, detail.Fixture)
	assert.Equal(t, "LUM-001", detail.Fixture.Serial)
	require.NotNil(t, detail.Creator)
	assert.Equal(t, "op@ilumap.com", detail.Creator.Email)
	require.Len(t, detail.History, 2)
	assert.Equal(t, "Registro", detail.History[0].Stage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPQRsAppliesFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPQRRepository(db, nil)

	newer := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	older := newer.Add(-24 * time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE p.created_by = $1 AND p.status = $2 AND p.request_type = $3 AND (LOWER(c.name) LIKE $4 ESCAPE '\\' OR LOWER(p.address) LIKE $4 ESCAPE '\\') ORDER BY p.submitted_at DESC, p.id DESC")).
		WithArgs("u1", models.StatusPending, models.TypeReport, "%ana%").
		WillReturnRows(sqlmock.NewRows(pqrColumnNames).
			AddRow(pqrRowValues("p2", newer, nil)...).
			AddRow(pqrRowValues("p1", older, "LUM-001")...))
	mock.ExpectQuery("FROM pqr_history WHERE pqr_id IN").
		WithArgs("p2", "p1").
		WillReturnRows(sqlmock.NewRows(historyColumnNames).
			AddRow("h1", "p1", "Registro", "u1", nil, older))

	items, err := repo.List(context.Background(), models.PQRFilter{
		CreatedBy: "u1",
		Status:    models.StatusPending,
		Type:      models.TypeReport,
		Search:    " Ana ",
	})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "p2", items[0].ID)
	assert.Nil(t, items[0].Fixture)
	assert.Empty(t, items[0].History)
	assert.NotNil(t, items[0].History)
	assert.Len(t, items[1].History, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPQRsEmpty(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPQRRepository(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN users u ON u.id = p.created_by ORDER BY p.submitted_at DESC")).
		WillReturnRows(sqlmock.NewRows(pqrColumnNames))

	items, err := repo.List(context.Background(), models.PQRFilter{})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}
