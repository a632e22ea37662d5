package cli

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/carsweep/internal/core/domain"
)

func TestRunsCmd_Subcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, cmd := range runsCmd.Commands() {
		names[cmd.Name()] = true
	}
	assert.True(t, names["list"])
	assert.True(t, names["show"])
	assert.True(t, names["rm"])
}

func TestRunsList(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	var gotLimit int
	historyService = &MockHistoryService{
		ListFunc: func(_ context.Context, limit int) ([]domain.RunSummary, error) {
			gotLimit = limit
			return []domain.RunSummary{testAggregate().Summary()}, nil
		},
	}

	out, _, err := execute(t, "runs", "list", "-n", "5")

	require.NoError(t, err)
	assert.Equal(t, 5, gotLimit)
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "FORD FOCUS price<=8000")
	assert.Contains(t, out, "partial")
	assert.Contains(t, out, "1/0/1")
}

func TestRunsList_Empty(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	historyService = &MockHistoryService{
		ListFunc: func(context.Context, int) ([]domain.RunSummary, error) {
			return nil, nil
		},
	}

	out, _, err := execute(t, "runs", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "No runs stored.")
}

func TestRunsList_JSON(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, _, err := execute(t, "runs", "list", "--json")

	require.NoError(t, err)
	var runs []domain.RunSummary
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].RunID)
}

func TestRunsList_NoHistory(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	historyService = nil

	_, _, err := execute(t, "runs", "list")

	assert.ErrorIs(t, err, errNoHistory)
}

func TestRunsShow(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, _, err := execute(t, "runs", "show", "run-1")

	require.NoError(t, err)
	assert.Contains(t, out, "Criteria: FORD FOCUS price<=8000")
	assert.Contains(t, out, "Ford Focus ST")
	assert.Contains(t, out, "Run run-1: partial")
}

func TestRunsShow_NotFound(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, _, err := execute(t, "runs", "show", "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRunsShow_RequiresID(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, _, err := execute(t, "runs", "show")

	assert.Error(t, err)
}

func TestRunsRemove(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	var deleted string
	historyService = &MockHistoryService{
		DeleteFunc: func(_ context.Context, runID string) error {
			deleted = runID
			return nil
		},
	}

	out, _, err := execute(t, "runs", "remove", "run-1")

	require.NoError(t, err)
	assert.Equal(t, "run-1", deleted)
	assert.Contains(t, out, "Removed run run-1")
}

func TestRunsRemove_Error(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	historyService = &MockHistoryService{
		DeleteFunc: func(context.Context, string) error {
			return errors.New("locked")
		},
	}

	_, _, err := execute(t, "runs", "rm", "run-1")

	assert.EqualError(t, err, "locked")
}
