package driven

import (
	"context"
	"fmt"
	"net/http"

	"github.com/custodia-labs/carsweep/internal/core/domain"
)

// ExecutionContext is an isolated session used by exactly one job.
// Cookies and session state never leak between contexts.
type ExecutionContext interface {
	// ID returns a unique identifier for the context.
	ID() string

	// Kind returns which pool produced the context.
	Kind() domain.ContextKind

	// Navigate loads the locator into the context.
	Navigate(ctx context.Context, locator string) error

	// Location returns the locator most recently navigated to.
	Location() string
}

// HTTPContext is an execution context that issues HTTP requests
// sharing the session's cookie jar.
type HTTPContext interface {
	ExecutionContext

	// Do sends the request within the session.
	Do(req *http.Request) (*http.Response, error)

	// Body returns the body of the page loaded by the last Navigate.
	Body() []byte
}

// ScriptContext is an execution context backed by a scriptable page.
type ScriptContext interface {
	ExecutionContext

	// WaitVisible blocks until the selector is visible.
	WaitVisible(ctx context.Context, selector string) error

	// SetValue sets the value of the element matching selector.
	SetValue(ctx context.Context, selector, value string) error

	// Click clicks the element matching selector.
	Click(ctx context.Context, selector string) error

	// Evaluate runs script in the page and decodes its JSON result into out.
	Evaluate(ctx context.Context, script string, out any) error
}

// ContextPool allocates isolated execution contexts.
type ContextPool interface {
	// Acquire returns a new isolated context.
	// Failures must be returned, never panicked, so the job can fail alone.
	Acquire(ctx context.Context) (ExecutionContext, error)

	// Release disposes of a context. It must be safe to call for every
	// acquired context, whatever state the job left it in.
	Release(ec ExecutionContext) error

	// Close releases all pool resources.
	Close() error
}

// ContextPools maps each execution context kind to its pool.
type ContextPools map[domain.ContextKind]ContextPool

// For returns the pool serving kind.
func (p ContextPools) For(kind domain.ContextKind) (ContextPool, error) {
	pool, ok := p[kind]
	if !ok || pool == nil {
		return nil, fmt.Errorf("%w: no %s pool configured", domain.ErrUnsupportedType, kind)
	}
	return pool, nil
}

// Close closes every pool and returns the first error.
func (p ContextPools) Close() error {
	var first error
	for _, pool := range p {
		if pool == nil {
			continue
		}
		if err := pool.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
