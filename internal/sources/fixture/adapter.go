// Package fixture provides an offline source adapter that reads listings from
// a local JSON file. It is used for demos, tests and for rehearsing sweeps
// without touching live sites.
//
// The file holds a JSON array of listings in the same shape the HTTP API
// returns. Options can restrict the makes and models the fixture serves,
// filter listings by title, delay each step, or force a failure at a stage.
package fixture

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/carsweep/internal/core/domain"
	"github.com/custodia-labs/carsweep/internal/core/ports/driven"
)

// Option keys read from the source descriptor.
const (
	OptPath   = "path"
	OptMakes  = "makes"
	OptModels = "models"
	OptFilter = "filter"
	OptDelay  = "delay"
	OptFail   = "fail"
)

// Fail modes accepted by the fail option.
const (
	FailAuth    = "auth"
	FailRefine  = "refine"
	FailExtract = "extract"
	FailPanic   = "panic"
)

// ErrForced is returned by a stage configured to fail.
var ErrForced = errors.New("fixture: forced failure")

// Config holds the parsed configuration for a fixture source.
type Config struct {
	Path   string
	Makes  []string
	Models []string
	Filter bool
	Delay  time.Duration
	Fail   string
}

// ParseConfig parses a source descriptor's options into a Config.
func ParseConfig(source domain.SourceDescriptor) (*Config, error) {
	cfg := &Config{
		Path:   source.Option(OptPath, ""),
		Makes:  upperList(source.Option(OptMakes, "")),
		Models: upperList(source.Option(OptModels, "")),
		Fail:   strings.ToLower(source.Option(OptFail, "")),
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("%w: fixture: %s is required", domain.ErrInvalidInput, OptPath)
	}

	if raw := source.Option(OptFilter, ""); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: fixture: option %s: %q is not a boolean", domain.ErrInvalidInput, OptFilter, raw)
		}
		cfg.Filter = v
	}
	if raw := source.Option(OptDelay, ""); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("%w: fixture: option %s: %q is not a duration", domain.ErrInvalidInput, OptDelay, raw)
		}
		cfg.Delay = d
	}
	switch cfg.Fail {
	case "", FailAuth, FailRefine, FailExtract, FailPanic:
	default:
		return nil, fmt.Errorf("%w: fixture: unknown fail mode %q", domain.ErrInvalidInput, cfg.Fail)
	}
	return cfg, nil
}

// Type describes the adapter for the registry.
func Type() domain.AdapterType {
	return domain.AdapterType{
		ID:          "fixture",
		Name:        "Fixture file",
		Description: "Reads listings from a local JSON file",
		Context:     domain.ContextHTTP,
		Options: []domain.OptionKey{
			{Key: OptPath, Label: "Path", Required: true, Description: "JSON file holding an array of listings"},
			{Key: OptMakes, Label: "Makes", Description: "Comma-separated makes the fixture serves"},
			{Key: OptModels, Label: "Models", Description: "Comma-separated models the fixture serves"},
			{Key: OptFilter, Label: "Filter", Default: "false", Description: "Keep only listings whose title names the make and model"},
			{Key: OptDelay, Label: "Delay", Description: "Pause before each step, e.g. 500ms"},
			{Key: OptFail, Label: "Fail", Description: "Force a failure: auth, refine, extract or panic"},
		},
	}
}

// Ensure Adapter implements the interface.
var _ driven.SourceAdapter = (*Adapter)(nil)

// Adapter serves listings from a file.
type Adapter struct {
	name     string
	config   *Config
	criteria domain.SearchCriteria
}

// New creates a fixture adapter.
func New(name string, cfg *Config) *Adapter {
	return &Adapter{name: name, config: cfg}
}

// Build creates an adapter from a source descriptor.
func Build(source domain.SourceDescriptor) (driven.SourceAdapter, error) {
	cfg, err := ParseConfig(source)
	if err != nil {
		return nil, err
	}
	return New(source.Name, cfg), nil
}

// Name returns the source name.
func (a *Adapter) Name() string {
	return a.name
}

// Authenticate succeeds unless the fixture is set to fail at auth.
func (a *Adapter) Authenticate(ctx context.Context, _ driven.ExecutionContext, _ domain.Credentials) error {
	if err := a.pause(ctx); err != nil {
		return err
	}
	if a.config.Fail == FailAuth {
		return fmt.Errorf("%w: %w", domain.ErrAuth, ErrForced)
	}
	return nil
}

// ApplyRefinements checks the make and model against the allow lists.
func (a *Adapter) ApplyRefinements(
	ctx context.Context,
	_ driven.ExecutionContext,
	criteria domain.SearchCriteria,
) (driven.Refinement, error) {
	if err := a.pause(ctx); err != nil {
		return driven.Refinement{}, err
	}
	if a.config.Fail == FailRefine {
		return driven.Refinement{}, ErrForced
	}
	if !contains(a.config.Makes, criteria.Make) {
		return driven.SkipRefinement(fmt.Sprintf("make %s not served by %s", criteria.Make, a.name)), nil
	}
	if criteria.Model != "" && !contains(a.config.Models, criteria.Model) {
		return driven.SkipRefinement(fmt.Sprintf("model %s not served by %s", criteria.Model, a.name)), nil
	}
	a.criteria = criteria
	return driven.Refined(), nil
}

// ExtractItems reads the fixture file.
func (a *Adapter) ExtractItems(ctx context.Context, _ driven.ExecutionContext) ([]domain.Listing, error) {
	if err := a.pause(ctx); err != nil {
		return nil, err
	}
	switch a.config.Fail {
	case FailExtract:
		return nil, fmt.Errorf("%w: %w", domain.ErrExtraction, ErrForced)
	case FailPanic:
		panic("fixture: forced panic")
	}

	data, err := os.ReadFile(a.config.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading fixture: %w", domain.ErrExtraction, err)
	}
	var listings []domain.Listing
	if err := json.Unmarshal(data, &listings); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %w", domain.ErrExtraction, a.config.Path, err)
	}

	if !a.config.Filter {
		return listings, nil
	}
	kept := listings[:0]
	for _, l := range listings {
		title := strings.ToUpper(l.Title)
		if strings.Contains(title, a.criteria.Make) && strings.Contains(title, a.criteria.Model) {
			kept = append(kept, l)
		}
	}
	return kept, nil
}

// pause waits for the configured delay or until ctx ends.
func (a *Adapter) pause(ctx context.Context) error {
	if a.config.Delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(a.config.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return context.Cause(ctx)
	case <-timer.C:
		return nil
	}
}

func contains(list []string, v string) bool {
	if len(list) == 0 {
		return true
	}
	v = strings.ToUpper(v)
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func upperList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToUpper(part))
		}
	}
	return out
}
