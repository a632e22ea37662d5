package urls

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/carsweep/internal/core/domain"
)

func TestProcessor_Process(t *testing.T) {
	source := domain.SourceDescriptor{
		Name:    "dealer",
		Options: map[string]string{"endpoint": "https://api.dealer.test/v2/search?make=FORD"},
	}
	items := []domain.Listing{
		{Title: "relative", URL: "/cars/123", ImageURL: "img/123.jpg"},
		{Title: "absolute", URL: "https://other.test/cars/9"},
		{Title: "missing", URL: "  "},
	}

	out, err := New().Process(context.Background(), source, items)

	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "https://api.dealer.test/cars/123", out[0].URL)
	assert.Equal(t, "https://api.dealer.test/v2/img/123.jpg", out[0].ImageURL)
	assert.Equal(t, "https://other.test/cars/9", out[1].URL)
}

func TestProcessor_BaseURLOption(t *testing.T) {
	source := domain.SourceDescriptor{
		Name: "auction",
		Options: map[string]string{
			OptBaseURL: "https://www.auction.test/",
			"landing":  "https://search.auction.test/",
		},
	}

	out, err := New().Process(context.Background(), source, []domain.Listing{{URL: "lot/55"}})

	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "https://www.auction.test/lot/55", out[0].URL)
}

func TestProcessor_NoBase(t *testing.T) {
	out, err := New().Process(context.Background(), domain.SourceDescriptor{Name: "fixture"},
		[]domain.Listing{{URL: "/cars/1"}})

	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "/cars/1", out[0].URL)
}

func TestResolve(t *testing.T) {
	assert.Equal(t, "", resolve(nil, ""))
	assert.Equal(t, "https://a.test/x", resolve(nil, " https://a.test/x "))
}
