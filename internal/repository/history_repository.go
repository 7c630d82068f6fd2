package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ilumap/pqr-api/internal/models"
)

// namedExecer is satisfied by both *sqlx.DB and *sqlx.Tx.
type namedExecer interface {
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
}

// HistoryRepository is the append-only ledger of PQR process events. It has
// no update or delete path.
type HistoryRepository struct {
	db *sqlx.DB
}

// NewHistoryRepository constructs a history repository.
func NewHistoryRepository(db *sqlx.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Append inserts entry using exec, which is normally the caller's transaction.
func (r *HistoryRepository) Append(ctx context.Context, exec namedExecer, entry *models.HistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	const query = `INSERT INTO pqr_history (id, pqr_id, stage, user_id, comment, occurred_at) VALUES (:id, :pqr_id, :stage, :user_id, :comment, :occurred_at)`
	if _, err := exec.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// ListByPQRIDs returns entries for the given requests grouped by request id,
// each group ordered by occurred_at then id.
func (r *HistoryRepository) ListByPQRIDs(ctx context.Context, ids []string) (map[string][]models.HistoryEntry, error) {
	grouped := make(map[string][]models.HistoryEntry, len(ids))
	if len(ids) == 0 {
		return grouped, nil
	}
	query, args, err := sqlx.In(`SELECT id, pqr_id, stage, user_id, comment, occurred_at FROM pqr_history WHERE pqr_id IN (?) ORDER BY occurred_at ASC, id ASC`, ids)
	if err != nil {
		return nil, fmt.Errorf("build history query: %w", err)
	}
	var entries []models.HistoryEntry
	if err := r.db.SelectContext(ctx, &entries, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	for _, entry := range entries {
		grouped[entry.PQRID] = append(grouped[entry.PQRID], entry)
	}
	return grouped, nil
}
