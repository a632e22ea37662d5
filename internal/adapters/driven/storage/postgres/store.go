package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/custodia-labs/carsweep/internal/core/ports/driven"
)

// defaultMaxConns bounds the pool when the caller does not.
const defaultMaxConns = 4

// schema is applied in order on Open. Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS carsweep_runs (
		id               TEXT PRIMARY KEY,
		criteria         JSONB NOT NULL,
		total_jobs       INTEGER NOT NULL,
		success_count    INTEGER NOT NULL,
		empty_count      INTEGER NOT NULL,
		failed_count     INTEGER NOT NULL,
		item_count       INTEGER NOT NULL,
		state            TEXT NOT NULL,
		completion_order JSONB NOT NULL,
		started_at       TIMESTAMPTZ NOT NULL,
		finished_at      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS carsweep_runs_started_at_idx ON carsweep_runs (started_at DESC)`,
	`CREATE TABLE IF NOT EXISTS carsweep_run_sources (
		run_id      TEXT NOT NULL REFERENCES carsweep_runs (id) ON DELETE CASCADE,
		source      TEXT NOT NULL,
		status      TEXT NOT NULL,
		error       TEXT NOT NULL DEFAULT '',
		stage       TEXT NOT NULL DEFAULT '',
		skip_reason TEXT NOT NULL DEFAULT '',
		item_count  INTEGER NOT NULL,
		ordinal     INTEGER NOT NULL,
		duration_ms BIGINT NOT NULL,
		PRIMARY KEY (run_id, source)
	)`,
	`CREATE TABLE IF NOT EXISTS carsweep_listings (
		run_id       TEXT NOT NULL REFERENCES carsweep_runs (id) ON DELETE CASCADE,
		position     INTEGER NOT NULL,
		url          TEXT NOT NULL,
		image_url    TEXT NOT NULL DEFAULT '',
		title        TEXT NOT NULL DEFAULT '',
		price        TEXT NOT NULL DEFAULT '',
		location     TEXT NOT NULL DEFAULT '',
		registration TEXT NOT NULL DEFAULT '',
		source_name  TEXT NOT NULL,
		observed_at  TIMESTAMPTZ,
		mileage      TEXT NOT NULL DEFAULT '',
		year         TEXT NOT NULL DEFAULT '',
		extra        JSONB,
		PRIMARY KEY (run_id, position)
	)`,
}

// Store is a Postgres-backed run history.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to dsn, verifies the connection and applies the schema.
// maxConns <= 0 uses a small default.
func Open(ctx context.Context, dsn string, maxConns int) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres dsn: %w", err)
	}
	if maxConns <= 0 {
		maxConns = defaultMaxConns
	}
	cfg.MaxConns = int32(maxConns) //nolint:gosec // bounded by config

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema statement %d: %w", i+1, err)
		}
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// RunStore returns the driven.RunStore backed by this pool.
func (s *Store) RunStore() driven.RunStore {
	return &runStore{pool: s.pool}
}
