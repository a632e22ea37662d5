package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/carsweep/internal/core/domain"
	"github.com/custodia-labs/carsweep/internal/core/ports/driven"
	"github.com/custodia-labs/carsweep/internal/logger"
)

// CatalogueFile is the default catalogue file name inside the config directory.
const CatalogueFile = "sources.toml"

// sourceEntry is one [[source]] table.
type sourceEntry struct {
	Name       string            `toml:"name"`
	Type       string            `toml:"type"`
	Credential string            `toml:"credential"`
	Context    string            `toml:"context"`
	QueryByURL bool              `toml:"query_by_url"`
	Disabled   bool              `toml:"disabled"`
	Options    map[string]string `toml:"options"`
}

type catalogueFile struct {
	Sources []sourceEntry `toml:"source"`
}

// Ensure Catalogue implements the interface.
var _ driven.SourceCatalogue = (*Catalogue)(nil)

// Catalogue loads source descriptors from a TOML file:
//
//	[[source]]
//	name = "autotrader"
//	type = "jsonapi"
//	credential = "env:AUTOTRADER_TOKEN"
//	query_by_url = true
//
//	[source.options]
//	endpoint = "https://api.example.com/search?make={make}&model={model}"
//
// List returns a snapshot; reloads never change descriptors a run already holds.
type Catalogue struct {
	path string

	mu      sync.RWMutex
	sources []domain.SourceDescriptor
}

// NewCatalogue loads the catalogue at path. A missing file is an empty catalogue.
func NewCatalogue(path string) (*Catalogue, error) {
	c := &Catalogue{path: path}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Path returns the catalogue file path.
func (c *Catalogue) Path() string {
	return c.path
}

// List returns every configured source in file order.
func (c *Catalogue) List(_ context.Context) ([]domain.SourceDescriptor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]domain.SourceDescriptor, len(c.sources))
	copy(result, c.sources)
	return result, nil
}

// Reload re-reads the file. On error the previous sources are kept.
func (c *Catalogue) Reload() error {
	sources, err := readCatalogue(c.path)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources = sources
	return nil
}

func readCatalogue(path string) ([]domain.SourceDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading catalogue: %w", err)
	}
	return parseCatalogue(data)
}

// parseCatalogue decodes and validates catalogue entries.
func parseCatalogue(data []byte) ([]domain.SourceDescriptor, error) {
	var file catalogueFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: parsing catalogue: %w", domain.ErrInvalidInput, err)
	}

	seen := make(map[string]bool, len(file.Sources))
	sources := make([]domain.SourceDescriptor, 0, len(file.Sources))
	for _, e := range file.Sources {
		src := domain.SourceDescriptor{
			Name:         e.Name,
			Type:         e.Type,
			Credential:   e.Credential,
			Context:      domain.ContextKind(e.Context),
			Capabilities: domain.SourceCapabilities{QueryByURL: e.QueryByURL},
			Options:      e.Options,
			Disabled:     e.Disabled,
		}
		if err := src.Validate(); err != nil {
			return nil, err
		}
		if seen[src.Name] {
			return nil, fmt.Errorf("%w: duplicate source %q", domain.ErrInvalidInput, src.Name)
		}
		seen[src.Name] = true
		sources = append(sources, src)
	}
	return sources, nil
}

// Watch reloads the catalogue whenever its file changes until ctx ends.
// The directory is watched so editors that replace the file are handled.
// onReload, if set, receives the error of every reload attempt.
func (c *Catalogue) Watch(ctx context.Context, onReload func(error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(c.path)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(c.path), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !affectsFile(ev, c.path) {
				continue
			}
			err := c.Reload()
			if err != nil {
				logger.Warn("catalogue: reload of %s failed, keeping previous sources: %v", c.path, err)
			} else {
				logger.Info("catalogue: reloaded %s", c.path)
			}
			if onReload != nil {
				onReload(err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("catalogue: watcher error: %v", err)
		}
	}
}

// affectsFile reports whether ev changes the content at path.
func affectsFile(ev fsnotify.Event, path string) bool {
	if filepath.Clean(ev.Name) != filepath.Clean(path) {
		return false
	}
	return ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) ||
		ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}
