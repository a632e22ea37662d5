package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/chromedp"

	"github.com/custodia-labs/carsweep/internal/core/domain"
	"github.com/custodia-labs/carsweep/internal/core/ports/driven"
)

// Tab is one browser tab in its own browser context.
type Tab struct {
	id     string
	pool   *Pool
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	location string
}

// Ensure Tab implements the interface.
var _ driven.ScriptContext = (*Tab)(nil)

// ID returns the tab identifier.
func (t *Tab) ID() string { return t.id }

// Kind returns domain.ContextBrowser.
func (t *Tab) Kind() domain.ContextKind { return domain.ContextBrowser }

// Location returns the URL most recently navigated to.
func (t *Tab) Location() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.location
}

// run executes actions in the tab, aborting when ctx ends.
// The tab itself stays open; only Release closes it.
func (t *Tab) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(t.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return context.Cause(ctx)
		}
		return err
	}
	return nil
}

// Navigate loads locator and waits for the document body.
func (t *Tab) Navigate(ctx context.Context, locator string) error {
	var current string
	err := t.run(ctx,
		chromedp.Navigate(locator),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Location(&current),
	)
	if err != nil {
		return fmt.Errorf("navigating to %s: %w", locator, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.location = current
	return nil
}

// WaitVisible blocks until selector is visible.
func (t *Tab) WaitVisible(ctx context.Context, selector string) error {
	return t.run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

// SetValue sets the value of the element matching selector.
func (t *Tab) SetValue(ctx context.Context, selector, value string) error {
	return t.run(ctx, chromedp.SetValue(selector, value, chromedp.ByQuery))
}

// Click clicks the element matching selector.
func (t *Tab) Click(ctx context.Context, selector string) error {
	return t.run(ctx, chromedp.Click(selector, chromedp.ByQuery))
}

// Evaluate runs script and decodes its JSON result into out.
func (t *Tab) Evaluate(ctx context.Context, script string, out any) error {
	return t.run(ctx, chromedp.Evaluate(script, out))
}
