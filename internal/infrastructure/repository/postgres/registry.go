// Package postgres keeps the relational audit trail for ingestion runs and
// statute retirements. The vector store holds the searchable content; this
// registry only records what happened to it and when.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/mfedorov/legalrag/internal/core/domain"
	"github.com/mfedorov/legalrag/internal/core/ports"
)

type Registry struct {
	db *sql.DB
}

var _ ports.IngestRegistry = (*Registry)(nil)

func NewRegistry(db *sql.DB) *Registry {
	return &Registry{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *Registry) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082601)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS ingest_runs (
	id BIGSERIAL PRIMARY KEY,
	documents_parsed INTEGER NOT NULL,
	documents_failed INTEGER NOT NULL,
	total_chunks INTEGER NOT NULL,
	collection_total INTEGER NOT NULL,
	elapsed_seconds DOUBLE PRECISION NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS superseded_statutes (
	statute_number TEXT PRIMARY KEY,
	chunks_retired INTEGER NOT NULL,
	retired_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ingest_runs_created_at ON ingest_runs(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *Registry) RecordRun(ctx context.Context, summary domain.IngestSummary) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO ingest_runs (
	documents_parsed, documents_failed, total_chunks, collection_total, elapsed_seconds, created_at
) VALUES ($1,$2,$3,$4,$5,$6)
`,
		summary.DocumentsParsed, summary.DocumentsFailed, summary.TotalChunks,
		summary.CollectionTotal, summary.ElapsedSeconds, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert ingest run: %w", err)
	}
	return nil
}

// RecordSuperseded upserts the retirement record so re-running a retirement
// refreshes the chunk count instead of failing on the primary key.
func (r *Registry) RecordSuperseded(ctx context.Context, statuteNumber string, chunksRetired int) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO superseded_statutes (statute_number, chunks_retired, retired_at)
VALUES ($1,$2,$3)
ON CONFLICT (statute_number) DO UPDATE
SET chunks_retired = EXCLUDED.chunks_retired, retired_at = EXCLUDED.retired_at
`, statuteNumber, chunksRetired, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("record superseded statute: %w", err)
	}
	return nil
}
