package file

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/carsweep/internal/core/domain"
)

const sampleCatalogue = `
[[source]]
name = "autos"
type = "jsonapi"
credential = "env:AUTOS_TOKEN"
query_by_url = true

[source.options]
endpoint = "https://api.autos.test/search?make={make}&model={model}"

[[source]]
name = "classifieds"
type = "webpage"
context = "browser"

[source.options]
landing = "https://classifieds.test/cars"

[[source]]
name = "offline"
type = "fixture"
disabled = true
`

func writeCatalogue(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, CatalogueFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestNewCatalogue_ParsesSources(t *testing.T) {
	path := writeCatalogue(t, t.TempDir(), sampleCatalogue)

	cat, err := NewCatalogue(path)
	require.NoError(t, err)
	assert.Equal(t, path, cat.Path())

	sources, err := cat.List(context.Background())
	require.NoError(t, err)
	require.Len(t, sources, 3)

	autos := sources[0]
	assert.Equal(t, "autos", autos.Name)
	assert.Equal(t, "jsonapi", autos.Type)
	assert.Equal(t, "env:AUTOS_TOKEN", autos.Credential)
	assert.True(t, autos.Capabilities.QueryByURL)
	assert.Equal(t, domain.ContextHTTP, autos.ContextKind())
	assert.Contains(t, autos.Options["endpoint"], "{make}")

	assert.Equal(t, "classifieds", sources[1].Name)
	assert.Equal(t, domain.ContextBrowser, sources[1].ContextKind())
	assert.False(t, sources[1].Capabilities.QueryByURL)

	assert.True(t, sources[2].Disabled)
}

func TestNewCatalogue_MissingFileIsEmpty(t *testing.T) {
	cat, err := NewCatalogue(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	sources, err := cat.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sources)
}

func TestParseCatalogue_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad toml", "[[source]\nname="},
		{"missing name", "[[source]]\ntype = \"jsonapi\""},
		{"missing type", "[[source]]\nname = \"a\""},
		{"unknown context", "[[source]]\nname = \"a\"\ntype = \"jsonapi\"\ncontext = \"carrier-pigeon\""},
		{"duplicate", "[[source]]\nname = \"a\"\ntype = \"x\"\n[[source]]\nname = \"a\"\ntype = \"y\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseCatalogue([]byte(tt.content))
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestCatalogue_ReloadKeepsPreviousOnError(t *testing.T) {
	dir := t.TempDir()
	path := writeCatalogue(t, dir, sampleCatalogue)
	cat, err := NewCatalogue(path)
	require.NoError(t, err)

	snapshot, err := cat.List(context.Background())
	require.NoError(t, err)

	writeCatalogue(t, dir, "[[source]]\nname = \"broken\"")
	require.Error(t, cat.Reload())

	after, err := cat.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, snapshot, after)
}

func TestCatalogue_ListIsSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := writeCatalogue(t, dir, sampleCatalogue)
	cat, err := NewCatalogue(path)
	require.NoError(t, err)

	snapshot, err := cat.List(context.Background())
	require.NoError(t, err)

	writeCatalogue(t, dir, "[[source]]\nname = \"only\"\ntype = \"fixture\"")
	require.NoError(t, cat.Reload())

	assert.Len(t, snapshot, 3)
	current, err := cat.List(context.Background())
	require.NoError(t, err)
	require.Len(t, current, 1)
	assert.Equal(t, "only", current[0].Name)
}

func TestCatalogue_WatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := writeCatalogue(t, dir, sampleCatalogue)
	cat, err := NewCatalogue(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var reloads atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- cat.Watch(ctx, func(err error) {
			if err == nil {
				reloads.Add(1)
			}
		})
	}()

	updated := "[[source]]\nname = \"fresh\"\ntype = \"fixture\"\n"
	assert.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte(updated), 0600)
		return reloads.Load() > 0
	}, 5*time.Second, 50*time.Millisecond)

	sources, err := cat.List(context.Background())
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "fresh", sources[0].Name)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestAffectsFile(t *testing.T) {
	path := filepath.Join("/cfg", CatalogueFile)
	tests := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{"write", fsnotify.Event{Name: path, Op: fsnotify.Write}, true},
		{"create", fsnotify.Event{Name: path, Op: fsnotify.Create}, true},
		{"rename", fsnotify.Event{Name: path, Op: fsnotify.Rename}, true},
		{"remove", fsnotify.Event{Name: path, Op: fsnotify.Remove}, true},
		{"chmod", fsnotify.Event{Name: path, Op: fsnotify.Chmod}, false},
		{"other file", fsnotify.Event{Name: "/cfg/config.toml", Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, affectsFile(tt.ev, path))
		})
	}
}
