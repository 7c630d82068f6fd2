package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilumap/pqr-api/internal/models"
)

var clientColumnNames = []string{"id", "name", "phone", "email", "note", "created_at", "updated_at"}

func TestSearchClientsEscapesWildcards(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClientRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(clientColumnNames).
		AddRow("1001", "Ana 50% Pérez", "300", nil, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM clients")).
		WithArgs(`%ana 50\%%`).
		WillReturnRows(rows)

	clients, err := repo.Search(context.Background(), "ANA 50%")
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, "1001", clients[0].ID)
	assert.Nil(t, clients[0].Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchClientsOrsColumnsWithoutLimit(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClientRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE LOWER(id) LIKE $1 ESCAPE '\\' OR LOWER(COALESCE(phone, '')) LIKE $1 ESCAPE '\\' OR LOWER(name) LIKE $1 ESCAPE '\\' ORDER BY name ASC, id ASC")+"$").
		WithArgs("%300%").
		WillReturnRows(sqlmock.NewRows(clientColumnNames))

	clients, err := repo.Search(context.Background(), "300")
	require.NoError(t, err)
	assert.Empty(t, clients)
	assert.NotNil(t, clients)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateClientDuplicate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClientRepository(db)

	mock.ExpectExec("INSERT INTO clients").WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.Client{ID: "1001", Name: "Ana"})
	assert.ErrorIs(t, err, ErrDuplicateKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateClientOtherError(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClientRepository(db)

	mock.ExpectExec("INSERT INTO clients").WillReturnError(errors.New("boom"))

	err := repo.Create(context.Background(), &models.Client{ID: "1001", Name: "Ana"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrDuplicateKey))
}

func TestUpdateClientUnknown(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClientRepository(db)

	mock.ExpectExec("UPDATE clients SET").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Client{ID: "404", Name: "Nadie"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateClient(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClientRepository(db)

	mock.ExpectExec("UPDATE clients SET").WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Update(context.Background(), &models.Client{ID: "1001", Name: "Ana"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}
