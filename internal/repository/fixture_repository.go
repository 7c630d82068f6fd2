package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ilumap/pqr-api/internal/models"
)

const fixtureColumns = `serial, address, sector, neighborhood, latitude, longitude`

// FixtureRepository reads the streetlight inventory.
type FixtureRepository struct {
	db *sqlx.DB
}

// NewFixtureRepository constructs a fixture repository.
func NewFixtureRepository(db *sqlx.DB) *FixtureRepository {
	return &FixtureRepository{db: db}
}

// FindBySerial returns the fixture or sql.ErrNoRows.
func (r *FixtureRepository) FindBySerial(ctx context.Context, serial string) (*models.Fixture, error) {
	query := `SELECT ` + fixtureColumns + ` FROM fixtures WHERE serial = $1`
	var fixture models.Fixture
	if err := r.db.GetContext(ctx, &fixture, query, serial); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find fixture: %w", err)
	}
	return &fixture, nil
}

// List returns the whole catalog ordered by serial.
func (r *FixtureRepository) List(ctx context.Context) ([]models.Fixture, error) {
	query := `SELECT ` + fixtureColumns + ` FROM fixtures ORDER BY serial ASC`
	fixtures := make([]models.Fixture, 0)
	if err := r.db.SelectContext(ctx, &fixtures, query); err != nil {
		return nil, fmt.Errorf("list fixtures: %w", err)
	}
	return fixtures, nil
}

// Upsert loads fixtures in one transaction, replacing rows with the same serial.
func (r *FixtureRepository) Upsert(ctx context.Context, fixtures []models.Fixture) (err error) {
	if len(fixtures) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert fixtures: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO fixtures (serial, address, sector, neighborhood, latitude, longitude, updated_at)
VALUES (:serial, :address, :sector, :neighborhood, :latitude, :longitude, NOW())
ON CONFLICT (serial) DO UPDATE SET address = EXCLUDED.address, sector = EXCLUDED.sector,
neighborhood = EXCLUDED.neighborhood, latitude = EXCLUDED.latitude, longitude = EXCLUDED.longitude, updated_at = NOW()`
	for i := range fixtures {
		if _, err = tx.NamedExecContext(ctx, query, fixtures[i]); err != nil {
			return fmt.Errorf("upsert fixture %s: %w", fixtures[i].Serial, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert fixtures: %w", err)
	}
	return nil
}
