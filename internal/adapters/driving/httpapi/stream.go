package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/custodia-labs/carsweep/internal/core/domain"
	"github.com/custodia-labs/carsweep/internal/logger"
)

// Stream event names, in the order a client receives them.
const (
	EventConnected = "connected"
	EventProgress  = "progress"
	EventComplete  = "complete"
	EventError     = "error"
)

// ConnectedEvent opens a stream.
type ConnectedEvent struct {
	RunID     string   `json:"runId"`
	TotalJobs int      `json:"totalJobs"`
	Sources   []string `json:"sources"`
}

// CompleteEvent closes a stream with the aggregate.
type CompleteEvent struct {
	ItemCount int                     `json:"itemCount"`
	Result    *domain.AggregateResult `json:"result"`
}

// ErrorEvent closes a stream when the run could not produce an aggregate.
type ErrorEvent struct {
	Error string `json:"error"`
}

// sseWriter serialises server-sent events onto one response.
type sseWriter struct {
	mu  sync.Mutex
	w   io.Writer
	rc  *http.ResponseController
	err error
}

func newSSEWriter(w http.ResponseWriter) *sseWriter {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	s := &sseWriter{w: w, rc: http.NewResponseController(w)}
	s.flush()
	return s
}

// send writes one event. After the first write error further events are dropped.
func (s *sseWriter) send(event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Warn("encoding %s event: %v", event, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		s.err = err
		return
	}
	s.flush()
}

// comment writes a keep-alive line that clients ignore.
func (s *sseWriter) comment(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return
	}
	if _, err := fmt.Fprintf(s.w, ": %s\n\n", text); err != nil {
		s.err = err
		return
	}
	s.flush()
}

func (s *sseWriter) flush() {
	if err := s.rc.Flush(); err != nil && s.err == nil {
		s.err = err
	}
}

// heartbeat sends comments every interval until stop is closed.
func (s *sseWriter) heartbeat(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.comment("ping")
		}
	}
}

// handleSearchStream runs a search and pushes one event per lifecycle step:
// connected, progress per completed source, then complete or error.
// Every rejection before the run starts, a malformed parameter included,
// arrives as a lone error event on a 200 stream.
// A client that disconnects cancels the run; its sources still resolve
// to failed outcomes.
func (s Server) handleSearchStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stream := newSSEWriter(w)

	req, err := requestFromQuery(r.URL.Query())
	if err != nil {
		stream.send(EventError, ErrorEvent{Error: err.Error()})
		return
	}

	plan, err := s.Search.Plan(ctx, req)
	if err != nil {
		stream.send(EventError, ErrorEvent{Error: err.Error()})
		return
	}

	interval := s.Heartbeat
	if interval <= 0 {
		interval = DefaultHeartbeat
	}
	stop := make(chan struct{})
	defer close(stop)
	go stream.heartbeat(interval, stop)

	stream.send(EventConnected, ConnectedEvent{
		RunID:     plan.ID,
		TotalJobs: plan.TotalJobs(),
		Sources:   plan.SourceNames(),
	})

	result, err := s.Search.Execute(ctx, plan, func(ev domain.ProgressEvent) {
		stream.send(EventProgress, ev)
	})
	if err != nil {
		stream.send(EventError, ErrorEvent{Error: err.Error()})
		return
	}
	stream.send(EventComplete, CompleteEvent{ItemCount: result.ItemCount(), Result: result})
}
