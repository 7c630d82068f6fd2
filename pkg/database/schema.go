package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// CreateSchema creates every table the service needs. It only uses
// IF NOT EXISTS statements so it can run on each boot.
func CreateSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT 'OPERATOR' CHECK (role IN ('ADMIN', 'TECHNICIAN', 'OPERATOR')),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS clients (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    phone TEXT,
    email TEXT,
    note TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_clients_name ON clients(LOWER(name));

CREATE TABLE IF NOT EXISTS fixtures (
    serial TEXT PRIMARY KEY,
    address TEXT NOT NULL DEFAULT '',
    sector TEXT NOT NULL DEFAULT '',
    neighborhood TEXT NOT NULL DEFAULT '',
    latitude DOUBLE PRECISION NOT NULL,
    longitude DOUBLE PRECISION NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS pqrs (
    id UUID PRIMARY KEY,
    client_id TEXT NOT NULL REFERENCES clients(id),
    request_type TEXT NOT NULL,
    condition TEXT NOT NULL,
    priority TEXT NOT NULL,
    report_channel TEXT NOT NULL,
    submitted_at TIMESTAMPTZ NOT NULL,
    deadline_days INTEGER NOT NULL,
    due_at TIMESTAMPTZ NOT NULL,
    status TEXT NOT NULL DEFAULT 'PENDING',
    address TEXT NOT NULL DEFAULT '',
    sector TEXT NOT NULL DEFAULT '',
    neighborhood TEXT NOT NULL DEFAULT '',
    latitude DOUBLE PRECISION,
    longitude DOUBLE PRECISION,
    has_serial BOOLEAN NOT NULL DEFAULT FALSE,
    fixture_serial TEXT,
    note TEXT,
    created_by UUID NOT NULL REFERENCES users(id),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_pqrs_created_by ON pqrs(created_by);
CREATE INDEX IF NOT EXISTS idx_pqrs_status ON pqrs(status);
CREATE INDEX IF NOT EXISTS idx_pqrs_submitted_at ON pqrs(submitted_at DESC, id DESC);

CREATE TABLE IF NOT EXISTS pqr_history (
    id UUID PRIMARY KEY,
    pqr_id UUID NOT NULL REFERENCES pqrs(id) ON DELETE CASCADE,
    stage TEXT NOT NULL,
    user_id UUID NOT NULL REFERENCES users(id),
    comment TEXT,
    occurred_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_pqr_history_pqr_id ON pqr_history(pqr_id, occurred_at, id);
`
