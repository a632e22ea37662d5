package postprocessors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/carsweep/internal/core/domain"
	"github.com/custodia-labs/carsweep/internal/core/ports/driven"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	require.NotNil(t, r)
	assert.Empty(t, r.Names())
}

func TestRegistry_Build(t *testing.T) {
	r := NewRegistry()
	r.Register("custom", func(map[string]any) (driven.ListingProcessor, error) {
		return &mockProcessor{name: "custom"}, nil
	})

	proc, err := r.Build("custom", nil)

	require.NoError(t, err)
	assert.Equal(t, "custom", proc.Name())
	assert.True(t, r.Has("custom"))
	assert.False(t, r.Has("missing"))
}

func TestRegistry_Build_UnknownProcessor(t *testing.T) {
	_, err := NewRegistry().Build("missing", nil)

	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), `unknown listing processor "missing"`)
}

func TestRegisterDefaults(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	assert.Equal(t, []string{"clean", "dedupe", "urls"}, r.Names())
}

func TestRegistry_Pipeline(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	p, err := r.Pipeline(DefaultNames, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"clean", "urls", "dedupe"}, p.Names())

	source := domain.SourceDescriptor{
		Name:    "dealer",
		Options: map[string]string{"endpoint": "https://dealer.test/api"},
	}
	items := []domain.Listing{
		{Title: "Ford &amp; Co", URL: "/cars/1"},
		{Title: "dup", URL: "https://dealer.test/cars/1/"},
		{Title: "no link"},
	}

	out, err := p.Process(context.Background(), source, items)

	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Ford & Co", out[0].Title)
	assert.Equal(t, "https://dealer.test/cars/1", out[0].URL)
}

func TestRegistry_Pipeline_Unknown(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	_, err := r.Pipeline([]string{"clean", "translate"}, nil)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "available: clean, dedupe, urls")
}

func TestRegistry_Pipeline_Duplicate(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	_, err := r.Pipeline([]string{"clean", "urls", "clean"}, nil)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRegistry_Pipeline_PassesSettings(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	var asked []string
	p, err := r.Pipeline([]string{"clean", "dedupe"}, func(name string) map[string]any {
		asked = append(asked, name)
		if name == "clean" {
			return map[string]any{"max_length": int64(4)}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"clean", "dedupe"}, asked)

	out, err := p.Process(context.Background(), domain.SourceDescriptor{},
		[]domain.Listing{{Title: "Volkswagen", URL: "https://a.test/1"}})
	require.NoError(t, err)
	assert.Equal(t, "Volk", out[0].Title)
}

func TestRegistry_Build_BuilderError(t *testing.T) {
	r := NewRegistry()
	r.Register("broken", func(map[string]any) (driven.ListingProcessor, error) {
		return nil, errors.New("bad settings")
	})

	_, err := r.Build("broken", nil)

	assert.EqualError(t, err, "processor broken: bad settings")
}

func TestBuildClean_WithConfig(t *testing.T) {
	proc, err := buildClean(map[string]any{"max_length": int64(4)})
	require.NoError(t, err)

	out, err := proc.Process(context.Background(), domain.SourceDescriptor{}, []domain.Listing{{Title: "Volkswagen"}})

	require.NoError(t, err)
	assert.Equal(t, "Volk", out[0].Title)
}

func TestGetIntFromConfig(t *testing.T) {
	cfg := map[string]any{"a": 1, "b": int64(2), "c": 3.0, "d": "4"}

	assert.Equal(t, 1, getIntFromConfig(cfg, "a"))
	assert.Equal(t, 2, getIntFromConfig(cfg, "b"))
	assert.Equal(t, 3, getIntFromConfig(cfg, "c"))
	assert.Equal(t, 0, getIntFromConfig(cfg, "d"))
	assert.Equal(t, 0, getIntFromConfig(nil, "a"))
}
