// Package postprocessors provides listing clean-up stages run after extraction.
package postprocessors

import (
	"context"
	"fmt"

	"github.com/custodia-labs/carsweep/internal/core/domain"
	"github.com/custodia-labs/carsweep/internal/core/ports/driven"
)

// Ensure Pipeline implements the interface.
var _ driven.ListingPipeline = (*Pipeline)(nil)

// Pipeline chains multiple processors and runs them in order.
type Pipeline struct {
	processors []driven.ListingProcessor
}

// NewPipeline creates a new processing pipeline with the given processors.
// Processors are executed in the order provided.
func NewPipeline(processors ...driven.ListingProcessor) *Pipeline {
	return &Pipeline{
		processors: processors,
	}
}

// Process runs the listings through all processors in order.
// Each processor receives the previous one's output.
func (p *Pipeline) Process(
	ctx context.Context, source domain.SourceDescriptor, items []domain.Listing,
) ([]domain.Listing, error) {
	for _, processor := range p.processors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var err error
		items, err = processor.Process(ctx, source, items)
		if err != nil {
			return nil, fmt.Errorf("processor %s: %w", processor.Name(), err)
		}
	}
	return items, nil
}

// Add appends a processor to the pipeline.
func (p *Pipeline) Add(processor driven.ListingProcessor) {
	p.processors = append(p.processors, processor)
}

// Len returns the number of processors in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.processors)
}

// Names returns the processor names in execution order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.processors))
	for i, proc := range p.processors {
		names[i] = proc.Name()
	}
	return names
}
