package fixture

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/carsweep/internal/core/domain"
)

const listingsJSON = `[
  {"url": "https://fixture.test/1", "title": "Ford Focus Zetec", "price": "£6,995"},
  {"url": "https://fixture.test/2", "title": "Ford Fiesta", "price": "£4,500"},
  {"url": "https://fixture.test/3", "title": "Vauxhall Astra", "price": "£3,200", "extra": {"fuel": "diesel"}}
]`

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "listings.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func build(t *testing.T, opts map[string]string) *Adapter {
	t.Helper()
	adapter, err := Build(domain.SourceDescriptor{Name: "offline", Type: "fixture", Options: opts})
	require.NoError(t, err)
	return adapter.(*Adapter)
}

func TestAdapter_ServesFile(t *testing.T) {
	adapter := build(t, map[string]string{OptPath: writeFixture(t, listingsJSON)})
	ctx := context.Background()

	require.NoError(t, adapter.Authenticate(ctx, nil, domain.Credentials{}))
	refinement, err := adapter.ApplyRefinements(ctx, nil, domain.SearchCriteria{Make: "FORD"})
	require.NoError(t, err)
	assert.False(t, refinement.Skipped)

	items, err := adapter.ExtractItems(ctx, nil)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "£6,995", items[0].Price)
	assert.Equal(t, "diesel", items[2].Extra["fuel"])
}

func TestAdapter_Filter(t *testing.T) {
	adapter := build(t, map[string]string{OptPath: writeFixture(t, listingsJSON), OptFilter: "true"})
	ctx := context.Background()

	_, err := adapter.ApplyRefinements(ctx, nil, domain.SearchCriteria{Make: "FORD", Model: "FOCUS"})
	require.NoError(t, err)

	items, err := adapter.ExtractItems(ctx, nil)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "https://fixture.test/1", items[0].URL)
}

func TestAdapter_AllowLists(t *testing.T) {
	adapter := build(t, map[string]string{
		OptPath:   writeFixture(t, listingsJSON),
		OptMakes:  "ford, vauxhall",
		OptModels: "focus",
	})
	ctx := context.Background()

	tests := []struct {
		criteria domain.SearchCriteria
		skipped  bool
		reason   string
	}{
		{domain.SearchCriteria{Make: "FORD", Model: "FOCUS"}, false, ""},
		{domain.SearchCriteria{Make: "VAUXHALL"}, false, ""},
		{domain.SearchCriteria{Make: "BMW"}, true, "make BMW not served by offline"},
		{domain.SearchCriteria{Make: "FORD", Model: "PUMA"}, true, "model PUMA not served by offline"},
	}
	for _, tt := range tests {
		t.Run(tt.criteria.String(), func(t *testing.T) {
			refinement, err := adapter.ApplyRefinements(ctx, nil, tt.criteria)
			require.NoError(t, err)
			assert.Equal(t, tt.skipped, refinement.Skipped)
			assert.Equal(t, tt.reason, refinement.Reason)
		})
	}
}

func TestAdapter_ForcedFailures(t *testing.T) {
	path := writeFixture(t, listingsJSON)
	ctx := context.Background()

	auth := build(t, map[string]string{OptPath: path, OptFail: FailAuth})
	err := auth.Authenticate(ctx, nil, domain.Credentials{})
	assert.ErrorIs(t, err, domain.ErrAuth)
	assert.ErrorIs(t, err, ErrForced)

	refine := build(t, map[string]string{OptPath: path, OptFail: FailRefine})
	_, err = refine.ApplyRefinements(ctx, nil, domain.SearchCriteria{Make: "FORD"})
	assert.ErrorIs(t, err, ErrForced)

	extract := build(t, map[string]string{OptPath: path, OptFail: "EXTRACT"})
	_, err = extract.ExtractItems(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrExtraction)

	panics := build(t, map[string]string{OptPath: path, OptFail: FailPanic})
	assert.Panics(t, func() { _, _ = panics.ExtractItems(ctx, nil) })
}

func TestAdapter_ExtractErrors(t *testing.T) {
	ctx := context.Background()

	missing := build(t, map[string]string{OptPath: filepath.Join(t.TempDir(), "nope.json")})
	_, err := missing.ExtractItems(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrExtraction)
	assert.ErrorIs(t, err, os.ErrNotExist)

	invalid := build(t, map[string]string{OptPath: writeFixture(t, `{"not": "an array"}`)})
	_, err = invalid.ExtractItems(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrExtraction)
}

func TestAdapter_DelayHonoursContext(t *testing.T) {
	adapter := build(t, map[string]string{OptPath: writeFixture(t, listingsJSON), OptDelay: "1m"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := adapter.Authenticate(ctx, nil, domain.Credentials{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig(domain.SourceDescriptor{Name: "f", Options: map[string]string{
		OptPath:   "/tmp/x.json",
		OptMakes:  "ford,,vauxhall ",
		OptDelay:  "250ms",
		OptFilter: "true",
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"FORD", "VAUXHALL"}, cfg.Makes)
	assert.Nil(t, cfg.Models)
	assert.Equal(t, 250*time.Millisecond, cfg.Delay)
	assert.True(t, cfg.Filter)

	bad := []map[string]string{
		{},
		{OptPath: "x", OptFilter: "yes please"},
		{OptPath: "x", OptDelay: "-1s"},
		{OptPath: "x", OptFail: "sometimes"},
	}
	for _, opts := range bad {
		_, err := ParseConfig(domain.SourceDescriptor{Name: "f", Options: opts})
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "%v", opts)
	}

	assert.Equal(t, "fixture", Type().ID)
}
