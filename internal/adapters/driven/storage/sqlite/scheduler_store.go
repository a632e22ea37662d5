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

// sweepStore implements driven.SweepStore.
type sweepStore struct {
	store *Store
}

var _ driven.SweepStore = (*sweepStore)(nil)

const sweepColumns = `id, name, request, interval_seconds, last_run, next_run, last_error, last_success, enabled`

// GetSweep retrieves a sweep by ID.
// Returns nil and no error if the sweep does not exist.
func (s *sweepStore) GetSweep(ctx context.Context, sweepID string) (*domain.Sweep, error) {
	row := s.store.db.QueryRowContext(ctx, "SELECT "+sweepColumns+" FROM sweeps WHERE id = ?", sweepID)

	sweep, err := scanSweep(row)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil // Per interface: return nil and no error if not found
	}
	if err != nil {
		return nil, err
	}
	return sweep, nil
}

// ListSweeps returns all sweeps ordered by name.
func (s *sweepStore) ListSweeps(ctx context.Context) ([]domain.Sweep, error) {
	rows, err := s.store.db.QueryContext(ctx, "SELECT "+sweepColumns+" FROM sweeps ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("querying sweeps: %w", err)
	}
	defer rows.Close()

	var sweeps []domain.Sweep //nolint:prealloc // size unknown from query
	for rows.Next() {
		sweep, err := scanSweep(rows)
		if err != nil {
			return nil, err
		}
		sweeps = append(sweeps, *sweep)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sweeps: %w", err)
	}

	return sweeps, nil
}

// SaveSweep persists a sweep's state.
// Creates or updates the sweep based on ID.
func (s *sweepStore) SaveSweep(ctx context.Context, sweep *domain.Sweep) error {
	if sweep == nil {
		return domain.ErrInvalidInput
	}

	requestJSON, err := json.Marshal(sweep.Request)
	if err != nil {
		return fmt.Errorf("marshalling request: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO sweeps (`+sweepColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			request = excluded.request,
			interval_seconds = excluded.interval_seconds,
			last_run = excluded.last_run,
			next_run = excluded.next_run,
			last_error = excluded.last_error,
			last_success = excluded.last_success,
			enabled = excluded.enabled
	`, sweep.ID, sweep.Name, string(requestJSON), int64(sweep.Interval.Seconds()),
		formatNullableTime(sweep.LastRun), formatNullableTime(sweep.NextRun),
		nullString(sweep.LastError), formatNullableTime(sweep.LastSuccess),
		boolToInt(sweep.Enabled))

	if err != nil {
		return fmt.Errorf("saving sweep: %w", err)
	}
	return nil
}

// DeleteSweep removes a sweep and its history.
func (s *sweepStore) DeleteSweep(ctx context.Context, sweepID string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM sweeps WHERE id = ?", sweepID)
	if err != nil {
		return fmt.Errorf("deleting sweep: %w", err)
	}
	return nil
}

// RecordResult logs a sweep execution result.
func (s *sweepStore) RecordResult(ctx context.Context, result *domain.SweepResult) error {
	if result == nil {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO sweep_results (sweep_id, run_id, started_at, ended_at, success, error, items_found)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, result.SweepID,
		nullString(result.RunID),
		formatTime(result.StartedAt),
		formatTime(result.EndedAt),
		boolToInt(result.Success),
		nullString(result.Error),
		result.ItemsFound)

	if err != nil {
		return fmt.Errorf("recording sweep result: %w", err)
	}
	return nil
}

// GetSweepHistory returns recent results for a sweep.
// Results are ordered by start time descending (most recent first).
func (s *sweepStore) GetSweepHistory(ctx context.Context, sweepID string, limit int) ([]domain.SweepResult, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT sweep_id, run_id, started_at, ended_at, success, error, items_found
		FROM sweep_results
		WHERE sweep_id = ?
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, sweepID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sweep history: %w", err)
	}
	defer rows.Close()

	var results []domain.SweepResult //nolint:prealloc // size unknown from query
	for rows.Next() {
		result, err := scanSweepResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sweep history: %w", err)
	}

	return results, nil
}

// PruneHistory removes old results beyond the retention limit.
// Keeps the most recent 'keep' results per sweep.
func (s *sweepStore) PruneHistory(ctx context.Context, keep int) error {
	_, err := s.store.db.ExecContext(ctx, `
		DELETE FROM sweep_results
		WHERE id NOT IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (PARTITION BY sweep_id ORDER BY started_at DESC, id DESC) as rn
				FROM sweep_results
			) WHERE rn <= ?
		)
	`, keep)
	if err != nil {
		return fmt.Errorf("pruning sweep history: %w", err)
	}
	return nil
}

// ==================== Helper Functions ====================

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanSweep scans a single sweep row.
func scanSweep(row rowScanner) (*domain.Sweep, error) {
	var sweep domain.Sweep
	var requestJSON string
	var intervalSeconds int64
	var lastRun, nextRun, lastError, lastSuccess sql.NullString
	var enabled int

	if err := row.Scan(&sweep.ID, &sweep.Name, &requestJSON, &intervalSeconds,
		&lastRun, &nextRun, &lastError, &lastSuccess, &enabled); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning sweep: %w", err)
	}

	if err := json.Unmarshal([]byte(requestJSON), &sweep.Request); err != nil {
		return nil, fmt.Errorf("unmarshalling sweep request: %w", err)
	}
	sweep.Interval = time.Duration(intervalSeconds) * time.Second
	sweep.LastRun = parseNullableTime(lastRun)
	sweep.NextRun = parseNullableTime(nextRun)
	if lastError.Valid {
		sweep.LastError = lastError.String
	}
	sweep.LastSuccess = parseNullableTime(lastSuccess)
	sweep.Enabled = enabled == 1

	return &sweep, nil
}

// scanSweepResult scans a sweep result from *sql.Rows.
func scanSweepResult(rows *sql.Rows) (*domain.SweepResult, error) {
	var result domain.SweepResult
	var runID, errMsg sql.NullString
	var startedAt, endedAt string
	var success int

	if err := rows.Scan(&result.SweepID, &runID, &startedAt, &endedAt,
		&success, &errMsg, &result.ItemsFound); err != nil {
		return nil, fmt.Errorf("scanning sweep result: %w", err)
	}

	result.RunID = runID.String
	result.StartedAt = parseTime(startedAt)
	result.EndedAt = parseTime(endedAt)
	result.Success = success == 1
	if errMsg.Valid {
		result.Error = errMsg.String
	}

	return &result, nil
}

// formatNullableTime formats a time with timeLayout, or returns nil for zero time.
func formatNullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return formatTime(t)
}

// parseNullableTime parses a nullable timestamp.
// Returns zero time if the string is empty or invalid.
func parseNullableTime(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	return parseTime(s.String)
}

// nullString returns nil for empty strings, otherwise the string.
func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// boolToInt converts a bool to 1 (true) or 0 (false).
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
