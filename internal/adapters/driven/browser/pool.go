package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"

	"github.com/custodia-labs/carsweep/internal/core/domain"
	"github.com/custodia-labs/carsweep/internal/core/ports/driven"
	"github.com/custodia-labs/carsweep/internal/logger"
)

// DefaultUserAgent identifies the crawler to sites.
const DefaultUserAgent = "carsweep/1.0 (listing search)"

// Config configures the headless browser.
type Config struct {
	// Headless runs Chrome without a window. Defaults to true through DefaultConfig.
	Headless bool

	// ExecPath overrides the Chrome binary. Empty lets chromedp find it.
	ExecPath string

	// UserAgent is sent by every tab.
	UserAgent string
}

// DefaultConfig returns a headless configuration.
func DefaultConfig() Config {
	return Config{Headless: true, UserAgent: DefaultUserAgent}
}

// allocatorOptions builds the exec allocator flags for cfg.
func allocatorOptions(cfg Config) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:0:0], chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	return opts
}

// Pool hands out isolated browser tabs from one lazily started Chrome process.
// Each tab lives in its own browser context, so cookies and storage are not shared.
type Pool struct {
	cfg Config

	mu          sync.Mutex
	closed      bool
	allocCancel context.CancelFunc
	root        context.Context
	rootCancel  context.CancelFunc
	active      map[string]*Tab
}

// Ensure Pool implements the interface.
var _ driven.ContextPool = (*Pool)(nil)

// NewPool creates a pool. Chrome is not started until the first Acquire.
func NewPool(cfg Config) *Pool {
	return &Pool{
		cfg:    cfg,
		active: make(map[string]*Tab),
	}
}

// start launches Chrome. Callers hold p.mu.
func (p *Pool) start() error {
	if p.root != nil {
		return nil
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocatorOptions(p.cfg)...)
	root, rootCancel := chromedp.NewContext(allocCtx)

	// Running with no actions starts the browser.
	if err := chromedp.Run(root); err != nil {
		rootCancel()
		allocCancel()
		return fmt.Errorf("starting browser: %w", err)
	}

	logger.Debug("browser: started (headless=%v)", p.cfg.Headless)
	p.allocCancel = allocCancel
	p.root = root
	p.rootCancel = rootCancel
	return nil
}

// Acquire opens a tab in a fresh browser context.
func (p *Pool) Acquire(ctx context.Context) (driven.ExecutionContext, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, domain.ErrPoolClosed
	}
	if err := p.start(); err != nil {
		return nil, err
	}

	tabCtx, cancel := chromedp.NewContext(p.root, chromedp.WithNewBrowserContext())
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("opening tab: %w", err)
	}

	tab := &Tab{id: uuid.NewString(), pool: p, ctx: tabCtx, cancel: cancel}
	p.active[tab.id] = tab
	return tab, nil
}

// Release closes the tab and its browser context. Releasing twice is a no-op.
func (p *Pool) Release(ec driven.ExecutionContext) error {
	tab, ok := ec.(*Tab)
	if !ok || tab == nil || tab.pool != p {
		return fmt.Errorf("%w: context %T was not acquired from this pool", domain.ErrInvalidInput, ec)
	}

	p.mu.Lock()
	delete(p.active, tab.id)
	p.mu.Unlock()

	tab.cancel()
	return nil
}

// Close closes every open tab and stops Chrome.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	for id, tab := range p.active {
		tab.cancel()
		delete(p.active, id)
	}
	if p.rootCancel != nil {
		p.rootCancel()
		p.allocCancel()
		logger.Debug("browser: stopped")
	}
	return nil
}

// Active returns the number of tabs not yet released.
func (p *Pool) Active() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.active)
}
