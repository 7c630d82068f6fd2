package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ilumap/pqr-api/internal/models"
)

const clientColumns = `id, name, phone, email, note, created_at, updated_at`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(raw string) string {
	return likeEscaper.Replace(raw)
}

// ClientRepository persists the client registry.
type ClientRepository struct {
	db *sqlx.DB
}

// NewClientRepository constructs a client repository.
func NewClientRepository(db *sqlx.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

// Search returns all clients whose id, phone or name contains query,
// ignoring case.
func (r *ClientRepository) Search(ctx context.Context, query string) ([]models.Client, error) {
	pattern := "%" + strings.ToLower(escapeLike(query)) + "%"
	stmt := `SELECT ` + clientColumns + ` FROM clients
WHERE LOWER(id) LIKE $1 ESCAPE '\' OR LOWER(COALESCE(phone, '')) LIKE $1 ESCAPE '\' OR LOWER(name) LIKE $1 ESCAPE '\'
ORDER BY name ASC, id ASC`
	clients := make([]models.Client, 0)
	if err := r.db.SelectContext(ctx, &clients, stmt, pattern); err != nil {
		return nil, fmt.Errorf("search clients: %w", err)
	}
	return clients, nil
}

// FindByID returns the client with the given document id.
func (r *ClientRepository) FindByID(ctx context.Context, id string) (*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`
	var client models.Client
	if err := r.db.GetContext(ctx, &client, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find client: %w", err)
	}
	return &client, nil
}

// Create inserts a client. A taken id yields ErrDuplicateKey.
func (r *ClientRepository) Create(ctx context.Context, client *models.Client) error {
	now := time.Now().UTC()
	client.CreatedAt = now
	client.UpdatedAt = now
	const query = `INSERT INTO clients (id, name, phone, email, note, created_at, updated_at) VALUES (:id, :name, :phone, :email, :note, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, client); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create client: %w", err)
	}
	return nil
}

// Update overwrites the mutable fields of a client. It returns sql.ErrNoRows
// when the id is unknown.
func (r *ClientRepository) Update(ctx context.Context, client *models.Client) error {
	client.UpdatedAt = time.Now().UTC()
	const query = `UPDATE clients SET name = :name, phone = :phone, email = :email, note = :note, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, client)
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update client rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
