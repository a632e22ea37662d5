package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/custodia-labs/carsweep/internal/core/domain"
	"github.com/custodia-labs/carsweep/internal/core/ports/driven"
)

// runStore implements driven.RunStore.
type runStore struct {
	pool *pgxpool.Pool
}

var _ driven.RunStore = (*runStore)(nil)

// SaveRun writes the aggregate in one transaction, replacing any run with the same ID.
func (s *runStore) SaveRun(ctx context.Context, result *domain.AggregateResult) error {
	if result == nil || result.RunID == "" {
		return domain.ErrInvalidInput
	}

	batch, err := saveRunBatch(result)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("batch exec %d: %w", i, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("closing batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing run: %w", err)
	}
	return nil
}

// saveRunBatch queues every statement needed to replace one run.
func saveRunBatch(result *domain.AggregateResult) (*pgx.Batch, error) {
	criteria, err := json.Marshal(result.Criteria)
	if err != nil {
		return nil, fmt.Errorf("marshalling criteria: %w", err)
	}
	order, err := json.Marshal(result.CompletionOrder)
	if err != nil {
		return nil, fmt.Errorf("marshalling completion order: %w", err)
	}

	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM carsweep_runs WHERE id = $1`, result.RunID)
	batch.Queue(`
		INSERT INTO carsweep_runs (id, criteria, total_jobs, success_count, empty_count, failed_count,
			item_count, state, completion_order, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, result.RunID, criteria, result.TotalJobs,
		result.Counts.Success, result.Counts.Empty, result.Counts.Failed,
		len(result.Items), string(result.State), order, result.StartedAt, result.FinishedAt)

	for name, st := range result.PerSourceStatus {
		batch.Queue(`
			INSERT INTO carsweep_run_sources (run_id, source, status, error, stage, skip_reason,
				item_count, ordinal, duration_ms)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, result.RunID, name, string(st.Status), st.Error, string(st.Stage), st.SkipReason,
			st.ItemCount, st.Ordinal, st.DurationMS)
	}

	for i, item := range result.Items {
		var extra []byte
		if len(item.Extra) > 0 {
			if extra, err = json.Marshal(item.Extra); err != nil {
				return nil, fmt.Errorf("marshalling listing extra: %w", err)
			}
		}
		batch.Queue(`
			INSERT INTO carsweep_listings (run_id, position, url, image_url, title, price, location,
				registration, source_name, observed_at, mileage, year, extra)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`, result.RunID, i, item.URL, item.ImageURL, item.Title, item.Price, item.Location,
			item.Registration, item.SourceName, nullableTime(item.Timestamp), item.Mileage, item.Year, extra)
	}
	return batch, nil
}

// GetRun retrieves an aggregate by run ID.
func (s *runStore) GetRun(ctx context.Context, runID string) (*domain.AggregateResult, error) {
	var result domain.AggregateResult
	var criteria, order []byte
	var state string

	err := s.pool.QueryRow(ctx, `
		SELECT id, criteria, total_jobs, success_count, empty_count, failed_count,
			state, completion_order, started_at, finished_at
		FROM carsweep_runs WHERE id = $1
	`, runID).Scan(&result.RunID, &criteria, &result.TotalJobs,
		&result.Counts.Success, &result.Counts.Empty, &result.Counts.Failed,
		&state, &order, &result.StartedAt, &result.FinishedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying run: %w", err)
	}

	if err := json.Unmarshal(criteria, &result.Criteria); err != nil {
		return nil, fmt.Errorf("unmarshalling criteria: %w", err)
	}
	if err := json.Unmarshal(order, &result.CompletionOrder); err != nil {
		return nil, fmt.Errorf("unmarshalling completion order: %w", err)
	}
	result.State = domain.RunState(state)

	if result.PerSourceStatus, err = s.sourceStatuses(ctx, runID); err != nil {
		return nil, err
	}
	if result.Items, err = s.listings(ctx, runID); err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *runStore) sourceStatuses(ctx context.Context, runID string) (map[string]domain.SourceStatus, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT source, status, error, stage, skip_reason, item_count, ordinal, duration_ms
		FROM carsweep_run_sources WHERE run_id = $1
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying source statuses: %w", err)
	}
	defer rows.Close()

	statuses := make(map[string]domain.SourceStatus)
	for rows.Next() {
		var name, status, stage string
		var st domain.SourceStatus
		if err := rows.Scan(&name, &status, &st.Error, &stage, &st.SkipReason,
			&st.ItemCount, &st.Ordinal, &st.DurationMS); err != nil {
			return nil, fmt.Errorf("scanning source status: %w", err)
		}
		st.Status = domain.OutcomeStatus(status)
		st.Stage = domain.JobStage(stage)
		statuses[name] = st
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating source statuses: %w", err)
	}
	return statuses, nil
}

func (s *runStore) listings(ctx context.Context, runID string) ([]domain.Listing, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT url, image_url, title, price, location, registration, source_name,
			observed_at, mileage, year, extra
		FROM carsweep_listings WHERE run_id = $1 ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying listings: %w", err)
	}
	defer rows.Close()

	items := []domain.Listing{}
	for rows.Next() {
		var item domain.Listing
		var observed *time.Time
		var extra []byte
		if err := rows.Scan(&item.URL, &item.ImageURL, &item.Title, &item.Price, &item.Location,
			&item.Registration, &item.SourceName, &observed, &item.Mileage, &item.Year, &extra); err != nil {
			return nil, fmt.Errorf("scanning listing: %w", err)
		}
		if observed != nil {
			item.Timestamp = *observed
		}
		if len(extra) > 0 {
			if err := json.Unmarshal(extra, &item.Extra); err != nil {
				return nil, fmt.Errorf("unmarshalling listing extra: %w", err)
			}
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating listings: %w", err)
	}
	return items, nil
}

// ListRuns returns the most recent runs first.
func (s *runStore) ListRuns(ctx context.Context, limit int) ([]domain.RunSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, criteria, total_jobs, item_count, success_count, empty_count, failed_count,
			state, started_at, finished_at
		FROM carsweep_runs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.RunSummary //nolint:prealloc // size unknown from query
	for rows.Next() {
		var sum domain.RunSummary
		var criteria []byte
		var state string
		if err := rows.Scan(&sum.RunID, &criteria, &sum.TotalJobs, &sum.ItemCount,
			&sum.Counts.Success, &sum.Counts.Empty, &sum.Counts.Failed,
			&state, &sum.StartedAt, &sum.FinishedAt); err != nil {
			return nil, fmt.Errorf("scanning run summary: %w", err)
		}
		if err := json.Unmarshal(criteria, &sum.Criteria); err != nil {
			return nil, fmt.Errorf("unmarshalling criteria: %w", err)
		}
		sum.State = domain.RunState(state)
		runs = append(runs, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

// DeleteRun removes a run; statuses and listings cascade.
func (s *runStore) DeleteRun(ctx context.Context, runID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM carsweep_runs WHERE id = $1`, runID)
	if err != nil {
		return fmt.Errorf("deleting run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
