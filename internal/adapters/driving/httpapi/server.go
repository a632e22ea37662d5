package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/custodia-labs/carsweep/internal/core/domain"
	"github.com/custodia-labs/carsweep/internal/core/ports/driving"
	"github.com/custodia-labs/carsweep/internal/logger"
)

// DefaultHeartbeat is the interval between keep-alive comments on a stream.
const DefaultHeartbeat = 15 * time.Second

// maxRequestBytes caps JSON request bodies.
const maxRequestBytes = 1 << 20

// Server exposes the search service over HTTP.
type Server struct {
	Search   driving.SearchService
	History  driving.RunHistoryService // optional
	Adapters driving.AdapterRegistry   // optional

	// Heartbeat is the keep-alive interval on streams. Zero uses DefaultHeartbeat.
	Heartbeat time.Duration
}

// Router builds the HTTP handler.
func (s Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(cors)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/search/stream", s.handleSearchStream)
		r.Post("/search", s.handleSearch)
		r.Get("/sources", s.handleListSources)
		r.Get("/adapters", s.handleListAdapters)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
		r.Delete("/runs/{id}", s.handleDeleteRun)
	})

	return r
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleSearch runs a search and returns only the aggregate.
func (s Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req domain.RunRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	result, err := s.Search.Run(r.Context(), req, nil)
	if err != nil {
		writeErr(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.Search.Sources(r.Context())
	if err != nil {
		writeErr(w, statusFor(err), err)
		return
	}

	resp := make([]map[string]any, 0, len(sources))
	for _, src := range sources {
		resp = append(resp, map[string]any{
			"name":       src.Name,
			"type":       src.Type,
			"context":    src.ContextKind(),
			"queryByUrl": src.Capabilities.QueryByURL,
			"auth":       src.Credential != "",
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s Server) handleListAdapters(w http.ResponseWriter, _ *http.Request) {
	if s.Adapters == nil {
		writeErr(w, http.StatusServiceUnavailable, errors.New("adapter registry is not configured"))
		return
	}
	writeJSON(w, http.StatusOK, s.Adapters.List())
}

func (s Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.History == nil {
		writeErr(w, http.StatusServiceUnavailable, errors.New("run history is not configured"))
		return
	}

	limit := 25
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid limit: %s", raw))
			return
		}
		if value > 100 {
			value = 100
		}
		limit = value
	}

	runs, err := s.History.List(r.Context(), limit)
	if err != nil {
		writeErr(w, statusFor(err), err)
		return
	}

	resp := make([]map[string]any, 0, len(runs))
	for _, run := range runs {
		resp = append(resp, map[string]any{
			"runId":      run.RunID,
			"criteria":   run.Criteria,
			"totalJobs":  run.TotalJobs,
			"itemCount":  run.ItemCount,
			"counts":     run.Counts,
			"state":      run.State,
			"startedAt":  run.StartedAt,
			"finishedAt": run.FinishedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.History == nil {
		writeErr(w, http.StatusServiceUnavailable, errors.New("run history is not configured"))
		return
	}
	result, err := s.History.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	if s.History == nil {
		writeErr(w, http.StatusServiceUnavailable, errors.New("run history is not configured"))
		return
	}
	if err := s.History.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeErr(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// statusFor maps orchestration errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidCriteria),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrUnknownSource):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNoSources):
		return http.StatusConflict
	default:
		logger.Warn("request failed: %v", err)
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]any{"error": err.Error()})
}
