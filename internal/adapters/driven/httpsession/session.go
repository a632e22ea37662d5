package httpsession

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/custodia-labs/carsweep/internal/core/domain"
	"github.com/custodia-labs/carsweep/internal/core/ports/driven"
)

// errReleased is returned by a session used after Release.
var errReleased = errors.New("session released")

// Session is one cookie-isolated HTTP execution context.
type Session struct {
	id     string
	pool   *Pool
	client *http.Client

	mu       sync.Mutex
	location string
	body     []byte
	released bool
}

// Ensure Session implements the interface.
var _ driven.HTTPContext = (*Session)(nil)

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Kind returns domain.ContextHTTP.
func (s *Session) Kind() domain.ContextKind { return domain.ContextHTTP }

// Location returns the URL most recently navigated to.
func (s *Session) Location() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.location
}

// Body returns the body loaded by the last successful Navigate.
func (s *Session) Body() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.body
}

// Do sends req with the session's cookies after waiting for the host's rate limiter.
func (s *Session) Do(req *http.Request) (*http.Response, error) {
	if s.isReleased() {
		return nil, errReleased
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", s.pool.cfg.UserAgent)
	}

	limiter := s.pool.limiter(req.URL.Host)
	if err := limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	limiter.Observe(resp)
	return resp, nil
}

// Navigate GETs locator and keeps its body for Body.
// Non-2xx responses are errors.
func (s *Session) Navigate(ctx context.Context, locator string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	resp, err := s.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.pool.cfg.MaxBodyBytes))
	if err != nil {
		return fmt.Errorf("reading %s: %w", locator, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("GET %s: status %d", locator, resp.StatusCode)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.location = resp.Request.URL.String()
	s.body = body
	return nil
}

func (s *Session) markReleased() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released = true
	s.body = nil
}

func (s *Session) isReleased() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}
