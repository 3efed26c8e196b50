package database

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// schemaStatements create the lending tables. They are idempotent.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS books (
		id      BIGSERIAL PRIMARY KEY,
		code    TEXT NOT NULL UNIQUE,
		title   TEXT NOT NULL,
		author  TEXT NOT NULL,
		stock   INTEGER NOT NULL CHECK (stock >= 0),
		version BIGINT NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS members (
		id           BIGSERIAL PRIMARY KEY,
		code         TEXT NOT NULL UNIQUE,
		name         TEXT NOT NULL,
		is_penalized BOOLEAN NOT NULL DEFAULT FALSE,
		penalized_at TIMESTAMPTZ NULL,
		version      BIGINT NOT NULL DEFAULT 1,
		CONSTRAINT members_penalty_has_time CHECK (NOT is_penalized OR penalized_at IS NOT NULL)
	)`,
	`CREATE TABLE IF NOT EXISTS member_loans (
		member_code TEXT NOT NULL REFERENCES members (code),
		position    INTEGER NOT NULL,
		book_code   TEXT NOT NULL REFERENCES books (code),
		borrowed_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (member_code, position)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_books_available ON books (id) WHERE stock > 0`,
	`CREATE INDEX IF NOT EXISTS idx_members_penalized ON members (penalized_at) WHERE is_penalized`,
}

// EnsureSchema creates the tables used by the lending repositories when missing.
func (db *PostgresDB) EnsureSchema(ctx context.Context) error {
	if db.Pool == nil {
		return fmt.Errorf("database pool is not initialized")
	}

	for _, stmt := range schemaStatements {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	log.Info().Int("statements", len(schemaStatements)).Msg("[DATABASE] Schema ensured")
	return nil
}
