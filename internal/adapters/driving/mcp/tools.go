package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/carsweep/internal/core/domain"
)

// defaultMaxItems caps the listings returned to the assistant per call.
const defaultMaxItems = 50

// SearchListingsInput is the input schema for the search_listings tool.
type SearchListingsInput struct {
	Make       string   `json:"make" jsonschema:"manufacturer to search for, e.g. FORD"`
	Model      string   `json:"model,omitempty" jsonschema:"model name, e.g. FOCUS"`
	PriceMin   int      `json:"price_min,omitempty" jsonschema:"minimum price in whole currency units"`
	PriceMax   int      `json:"price_max,omitempty" jsonschema:"maximum price in whole currency units"`
	MileageMax int      `json:"mileage_max,omitempty" jsonschema:"maximum mileage"`
	AgeMax     int      `json:"age_max,omitempty" jsonschema:"maximum age in years"`
	Colour     string   `json:"colour,omitempty" jsonschema:"body colour"`
	Sources    []string `json:"sources,omitempty" jsonschema:"restrict the search to these source names"`
	MaxItems   int      `json:"max_items,omitempty" jsonschema:"maximum number of listings to return (default 50)"`
}

// SearchListingsOutput is the output schema for the search_listings tool.
type SearchListingsOutput struct {
	RunID     string                `json:"run_id"`
	State     string                `json:"state"`
	ItemCount int                   `json:"item_count"`
	Truncated bool                  `json:"truncated,omitempty"`
	Listings  []ListingOutput       `json:"listings"`
	Sources   []SourceOutcomeOutput `json:"sources"`
}

// ListingOutput represents a single listing.
type ListingOutput struct {
	Title    string `json:"title"`
	Price    string `json:"price,omitempty"`
	Location string `json:"location,omitempty"`
	Mileage  string `json:"mileage,omitempty"`
	Year     string `json:"year,omitempty"`
	URL      string `json:"url"`
	Source   string `json:"source"`
}

// SourceOutcomeOutput is one source's result, in completion order.
type SourceOutcomeOutput struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	Items      int    `json:"items"`
	Error      string `json:"error,omitempty"`
	SkipReason string `json:"skip_reason,omitempty"`
}

// ListSourcesInput is the input schema for the list_sources tool.
type ListSourcesInput struct{}

// ListSourcesOutput is the output schema for the list_sources tool.
type ListSourcesOutput struct {
	Sources []SourceInfo `json:"sources"`
}

// SourceInfo describes one enabled source.
type SourceInfo struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Context    string `json:"context"`
	QueryByURL bool   `json:"query_by_url"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_listings",
		Description: "Search every configured car listing source and merge the results",
	}, s.handleSearchListings)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_sources",
		Description: "List the listing sources a search would use",
	}, s.handleListSources)
}

// handleSearchListings runs one search to completion.
func (s *Server) handleSearchListings(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchListingsInput,
) (*mcp.CallToolResult, SearchListingsOutput, error) {
	limit := input.MaxItems
	if limit <= 0 {
		limit = defaultMaxItems
	}

	req := domain.RunRequest{
		Criteria: domain.SearchCriteria{
			Make:    input.Make,
			Model:   input.Model,
			Price:   domain.Range{Min: input.PriceMin, Max: input.PriceMax},
			Mileage: domain.Range{Max: input.MileageMax},
			Age:     domain.Range{Max: input.AgeMax},
			Colour:  input.Colour,
		},
		Sources: input.Sources,
	}

	result, err := s.ports.Search.Run(ctx, req, nil)
	if err != nil {
		return nil, SearchListingsOutput{}, err
	}

	return nil, toSearchOutput(result, limit), nil
}

func toSearchOutput(result *domain.AggregateResult, limit int) SearchListingsOutput {
	output := SearchListingsOutput{
		RunID:     result.RunID,
		State:     string(result.State),
		ItemCount: result.ItemCount(),
		Listings:  make([]ListingOutput, 0, min(limit, len(result.Items))),
		Sources:   make([]SourceOutcomeOutput, 0, len(result.CompletionOrder)),
	}

	for i := range result.Items {
		if len(output.Listings) == limit {
			output.Truncated = true
			break
		}
		item := result.Items[i]
		output.Listings = append(output.Listings, ListingOutput{
			Title:    item.Title,
			Price:    item.Price,
			Location: item.Location,
			Mileage:  item.Mileage,
			Year:     item.Year,
			URL:      item.URL,
			Source:   item.SourceName,
		})
	}

	for _, name := range result.CompletionOrder {
		status := result.PerSourceStatus[name]
		output.Sources = append(output.Sources, SourceOutcomeOutput{
			Name:       name,
			Status:     string(status.Status),
			Items:      status.ItemCount,
			Error:      status.Error,
			SkipReason: status.SkipReason,
		})
	}

	return output
}

// handleListSources lists the enabled sources.
func (s *Server) handleListSources(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListSourcesInput,
) (*mcp.CallToolResult, ListSourcesOutput, error) {
	sources, err := s.ports.Search.Sources(ctx)
	if err != nil {
		return nil, ListSourcesOutput{}, err
	}

	output := ListSourcesOutput{Sources: make([]SourceInfo, len(sources))}
	for i := range sources {
		output.Sources[i] = SourceInfo{
			Name:       sources[i].Name,
			Type:       sources[i].Type,
			Context:    string(sources[i].ContextKind()),
			QueryByURL: sources[i].Capabilities.QueryByURL,
		}
	}
	return nil, output, nil
}
