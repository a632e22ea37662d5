package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/carsweep/internal/core/domain"
	"github.com/custodia-labs/carsweep/internal/core/ports/driven"
)

// jsonNull is the JSON representation of null.
const jsonNull = "null"

// runStore implements driven.RunStore.
type runStore struct {
	store *Store
}

var _ driven.RunStore = (*runStore)(nil)

// SaveRun stores a completed aggregate, replacing any run with the same ID.
func (s *runStore) SaveRun(ctx context.Context, result *domain.AggregateResult) error {
	if result == nil || result.RunID == "" {
		return domain.ErrInvalidInput
	}

	criteriaJSON, err := json.Marshal(result.Criteria)
	if err != nil {
		return fmt.Errorf("marshalling criteria: %w", err)
	}
	orderJSON, err := json.Marshal(result.CompletionOrder)
	if err != nil {
		return fmt.Errorf("marshalling completion order: %w", err)
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Replace cascades to run_sources and listings
	if _, err := tx.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", result.RunID); err != nil {
		return fmt.Errorf("clearing run: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, criteria, total_jobs, success_count, empty_count, failed_count,
			item_count, state, completion_order, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, result.RunID, string(criteriaJSON), result.TotalJobs,
		result.Counts.Success, result.Counts.Empty, result.Counts.Failed,
		len(result.Items), string(result.State), string(orderJSON),
		formatTime(result.StartedAt), formatTime(result.FinishedAt))
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}

	for name, st := range result.PerSourceStatus {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO run_sources (run_id, source, status, error, stage, skip_reason, item_count, ordinal, duration_ms)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, result.RunID, name, string(st.Status), nullString(st.Error), nullString(string(st.Stage)),
			nullString(st.SkipReason), st.ItemCount, st.Ordinal, st.DurationMS)
		if err != nil {
			return fmt.Errorf("saving source status %s: %w", name, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO listings (run_id, position, url, image_url, title, price, location,
			registration, source_name, timestamp, mileage, year, extra)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing listing insert: %w", err)
	}
	defer stmt.Close()

	for i, item := range result.Items {
		extraJSON, err := json.Marshal(item.Extra)
		if err != nil {
			return fmt.Errorf("marshalling listing extra: %w", err)
		}
		_, err = stmt.ExecContext(ctx, result.RunID, i, item.URL, nullString(item.ImageURL),
			nullString(item.Title), nullString(item.Price), nullString(item.Location),
			nullString(item.Registration), item.SourceName, formatNullableTime(item.Timestamp),
			nullString(item.Mileage), nullString(item.Year), string(extraJSON))
		if err != nil {
			return fmt.Errorf("saving listing %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run: %w", err)
	}
	return nil
}

// GetRun retrieves an aggregate by run ID.
func (s *runStore) GetRun(ctx context.Context, runID string) (*domain.AggregateResult, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, criteria, total_jobs, success_count, empty_count, failed_count,
			state, completion_order, started_at, finished_at
		FROM runs WHERE id = ?
	`, runID)

	var result domain.AggregateResult
	var criteriaJSON, orderJSON, state, startedAt, finishedAt string
	if err := row.Scan(&result.RunID, &criteriaJSON, &result.TotalJobs,
		&result.Counts.Success, &result.Counts.Empty, &result.Counts.Failed,
		&state, &orderJSON, &startedAt, &finishedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning run: %w", err)
	}

	if err := json.Unmarshal([]byte(criteriaJSON), &result.Criteria); err != nil {
		return nil, fmt.Errorf("unmarshalling criteria: %w", err)
	}
	if err := json.Unmarshal([]byte(orderJSON), &result.CompletionOrder); err != nil {
		return nil, fmt.Errorf("unmarshalling completion order: %w", err)
	}
	result.State = domain.RunState(state)
	result.StartedAt = parseTime(startedAt)
	result.FinishedAt = parseTime(finishedAt)

	statuses, err := s.sourceStatuses(ctx, runID)
	if err != nil {
		return nil, err
	}
	result.PerSourceStatus = statuses

	items, err := s.listings(ctx, runID)
	if err != nil {
		return nil, err
	}
	result.Items = items

	return &result, nil
}

func (s *runStore) sourceStatuses(ctx context.Context, runID string) (map[string]domain.SourceStatus, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT source, status, error, stage, skip_reason, item_count, ordinal, duration_ms
		FROM run_sources WHERE run_id = ?
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying source statuses: %w", err)
	}
	defer rows.Close()

	statuses := make(map[string]domain.SourceStatus)
	for rows.Next() {
		var name, status string
		var errMsg, stage, skip sql.NullString
		var st domain.SourceStatus
		if err := rows.Scan(&name, &status, &errMsg, &stage, &skip,
			&st.ItemCount, &st.Ordinal, &st.DurationMS); err != nil {
			return nil, fmt.Errorf("scanning source status: %w", err)
		}
		st.Status = domain.OutcomeStatus(status)
		st.Error = errMsg.String
		st.Stage = domain.JobStage(stage.String)
		st.SkipReason = skip.String
		statuses[name] = st
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating source statuses: %w", err)
	}
	return statuses, nil
}

func (s *runStore) listings(ctx context.Context, runID string) ([]domain.Listing, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT url, image_url, title, price, location, registration, source_name,
			timestamp, mileage, year, extra
		FROM listings WHERE run_id = ? ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying listings: %w", err)
	}
	defer rows.Close()

	items := []domain.Listing{}
	for rows.Next() {
		var item domain.Listing
		var image, title, price, location, reg, ts, mileage, year, extra sql.NullString
		if err := rows.Scan(&item.URL, &image, &title, &price, &location, &reg,
			&item.SourceName, &ts, &mileage, &year, &extra); err != nil {
			return nil, fmt.Errorf("scanning listing: %w", err)
		}
		item.ImageURL = image.String
		item.Title = title.String
		item.Price = price.String
		item.Location = location.String
		item.Registration = reg.String
		item.Timestamp = parseNullableTime(ts)
		item.Mileage = mileage.String
		item.Year = year.String
		if extra.Valid && extra.String != "" && extra.String != jsonNull {
			if err := json.Unmarshal([]byte(extra.String), &item.Extra); err != nil {
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
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, criteria, total_jobs, item_count, success_count, empty_count, failed_count,
			state, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.RunSummary //nolint:prealloc // size unknown from query
	for rows.Next() {
		var sum domain.RunSummary
		var criteriaJSON, state, startedAt, finishedAt string
		if err := rows.Scan(&sum.RunID, &criteriaJSON, &sum.TotalJobs, &sum.ItemCount,
			&sum.Counts.Success, &sum.Counts.Empty, &sum.Counts.Failed,
			&state, &startedAt, &finishedAt); err != nil {
			return nil, fmt.Errorf("scanning run summary: %w", err)
		}
		if err := json.Unmarshal([]byte(criteriaJSON), &sum.Criteria); err != nil {
			return nil, fmt.Errorf("unmarshalling criteria: %w", err)
		}
		sum.State = domain.RunState(state)
		sum.StartedAt = parseTime(startedAt)
		sum.FinishedAt = parseTime(finishedAt)
		runs = append(runs, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

// DeleteRun removes a run and its listings.
func (s *runStore) DeleteRun(ctx context.Context, runID string) error {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", runID)
	if err != nil {
		return fmt.Errorf("deleting run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// formatTime formats a time in UTC using timeLayout.
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime parses a timestamp written by formatTime.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
