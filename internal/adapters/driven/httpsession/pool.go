package httpsession

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/carsweep/internal/core/domain"
	"github.com/custodia-labs/carsweep/internal/core/ports/driven"
)

// Default pool settings.
const (
	DefaultTimeout      = 30 * time.Second
	DefaultUserAgent    = "carsweep/1.0"
	DefaultMaxBodyBytes = 8 << 20
)

// Config configures the HTTP session pool.
type Config struct {
	// Timeout bounds each request. Zero uses DefaultTimeout.
	Timeout time.Duration

	// UserAgent is sent on every request unless the request sets one.
	UserAgent string

	// MaxBodyBytes caps how much of a page Navigate keeps.
	MaxBodyBytes int64

	// RateLimit throttles each host. Zero RequestsPerSecond disables throttling.
	RateLimit RateLimitConfig

	// Transport overrides the shared transport, mainly for tests.
	Transport http.RoundTripper
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.Transport == nil {
		c.Transport = http.DefaultTransport.(*http.Transport).Clone()
	}
	return c
}

// Pool hands out cookie-isolated HTTP sessions.
// Sessions share one transport and per-host rate limiters, never cookies.
type Pool struct {
	cfg Config

	mu       sync.Mutex
	closed   bool
	active   map[string]*Session
	limiters map[string]*RateLimiter
}

// Ensure Pool implements the interface.
var _ driven.ContextPool = (*Pool)(nil)

// NewPool creates a session pool.
func NewPool(cfg Config) *Pool {
	return &Pool{
		cfg:      cfg.withDefaults(),
		active:   make(map[string]*Session),
		limiters: make(map[string]*RateLimiter),
	}
}

// Acquire returns a new session with an empty cookie jar.
func (p *Pool) Acquire(ctx context.Context) (driven.ExecutionContext, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, domain.ErrPoolClosed
	}

	s := &Session{
		id:   uuid.NewString(),
		pool: p,
		client: &http.Client{
			Transport: p.cfg.Transport,
			Jar:       jar,
			Timeout:   p.cfg.Timeout,
		},
	}
	p.active[s.id] = s
	return s, nil
}

// Release disposes of a session. Releasing twice is a no-op.
func (p *Pool) Release(ec driven.ExecutionContext) error {
	s, ok := ec.(*Session)
	if !ok || s == nil || s.pool != p {
		return fmt.Errorf("%w: context %T was not acquired from this pool", domain.ErrInvalidInput, ec)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.active, s.id)
	s.markReleased()
	return nil
}

// Close stops handing out sessions and drops idle connections.
// Sessions still held by jobs keep working until released.
func (p *Pool) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	if t, ok := p.cfg.Transport.(interface{ CloseIdleConnections() }); ok {
		t.CloseIdleConnections()
	}
	return nil
}

// Active returns the number of sessions not yet released.
func (p *Pool) Active() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.active)
}

// limiter returns the shared rate limiter for host.
func (p *Pool) limiter(host string) *RateLimiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.limiters[host]
	if !ok {
		l = NewRateLimiter(p.cfg.RateLimit)
		p.limiters[host] = l
	}
	return l
}
