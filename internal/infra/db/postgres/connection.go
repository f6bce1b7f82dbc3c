package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
)

// schema is applied on connect. Everything is idempotent; the table is a
// plain append-only log of consultation outcomes.
const schema = `
CREATE TABLE IF NOT EXISTS consultations (
  id              TEXT PRIMARY KEY,
  tool            TEXT NOT NULL,
  identifier      TEXT NOT NULL,
  search_type     TEXT NOT NULL,
  status          TEXT NOT NULL,
  code            TEXT NOT NULL DEFAULT '',
  total_processes INT NOT NULL DEFAULT 0,
  result          JSONB,
  duration_ms     BIGINT NOT NULL DEFAULT 0,
  created_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_consultations_identifier
  ON consultations (identifier, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_consultations_created_at
  ON consultations (created_at DESC);`

// Connect returns a live *pgxpool.Pool with the schema applied.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database url is required")
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pool, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.Connect failed: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("applying schema failed: %w", err)
	}
	return pool, nil
}
