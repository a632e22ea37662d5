package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/carsweep/internal/core/domain"
	"github.com/custodia-labs/carsweep/internal/core/ports/driven"
	"github.com/custodia-labs/carsweep/internal/core/ports/driving"
	"github.com/custodia-labs/carsweep/internal/logger"
)

// Ensure Scheduler implements the interfaces.
var (
	_ driving.Scheduler    = (*Scheduler)(nil)
	_ driving.SweepService = (*Scheduler)(nil)
)

// Scheduler runs saved sweeps on their intervals and manages them.
type Scheduler struct {
	config domain.SchedulerConfig
	store  driven.SweepStore
	search driving.SearchService

	now func() time.Time

	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
	inFlight map[string]bool
	wg       sync.WaitGroup
}

// NewScheduler creates a scheduler with configuration.
func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SweepStore,
	search driving.SearchService,
) *Scheduler {
	if config.Tick <= 0 {
		config.Tick = domain.DefaultSchedulerConfig().Tick
	}
	if config.HistoryLimit <= 0 {
		config.HistoryLimit = domain.DefaultSchedulerConfig().HistoryLimit
	}
	return &Scheduler{
		config:   config,
		store:    store,
		search:   search,
		now:      time.Now,
		inFlight: make(map[string]bool),
	}
}

// Start begins the scheduler loop. This method blocks until Stop is called
// or ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.config.Enabled {
		logger.Info("scheduler disabled")
		return nil
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	return s.run(ctx, stopCh)
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	// Wait for running sweeps to complete
	s.wg.Wait()

	return nil
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context, stopCh <-chan struct{}) error {
	// Check for due sweeps immediately on startup
	s.checkAndRunDue(ctx)

	ticker := time.NewTicker(s.config.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			s.checkAndRunDue(ctx)
		}
	}
}

// checkAndRunDue finds and starts sweeps that are due.
func (s *Scheduler) checkAndRunDue(ctx context.Context) {
	sweeps, err := s.store.ListSweeps(ctx)
	if err != nil {
		logger.Error("scheduler: list sweeps: %v", err)
		return
	}

	now := s.now()
	for i := range sweeps {
		sweep := sweeps[i]
		if !sweep.IsDue(now) || !s.claim(sweep.ID) {
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.unclaim(sweep.ID)
			if _, err := s.execute(ctx, &sweep); err != nil {
				logger.Error("scheduler: sweep %s: %v", sweep.ID, err)
			}
		}()
	}
}

// claim marks a sweep as running; it returns false if it already is.
func (s *Scheduler) claim(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[id] {
		return false
	}
	s.inFlight[id] = true
	return true
}

func (s *Scheduler) unclaim(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, id)
}

// execute runs one sweep, then records its result and next run.
func (s *Scheduler) execute(ctx context.Context, sweep *domain.Sweep) (*domain.SweepResult, error) {
	result := &domain.SweepResult{
		SweepID:   sweep.ID,
		StartedAt: s.now(),
	}

	logger.Info("scheduler: running sweep %s (%s)", sweep.ID, sweep.Name)
	aggregate, err := s.search.Run(ctx, sweep.Request, nil)

	result.EndedAt = s.now()
	if err != nil {
		result.Success = false
		result.Error = err.Error()
		sweep.LastError = err.Error()
	} else {
		result.Success = true
		result.RunID = aggregate.RunID
		result.ItemsFound = aggregate.ItemCount()
		sweep.LastError = ""
		sweep.LastSuccess = result.EndedAt
	}

	// Update sweep state
	sweep.LastRun = result.StartedAt
	sweep.NextRun = result.EndedAt.Add(sweep.Interval)

	storeCtx := context.WithoutCancel(ctx)
	if saveErr := s.store.SaveSweep(storeCtx, sweep); saveErr != nil {
		logger.Warn("scheduler: save sweep %s: %v", sweep.ID, saveErr)
	}

	// Record result for history
	if recordErr := s.store.RecordResult(storeCtx, result); recordErr != nil {
		logger.Warn("scheduler: record result for %s: %v", sweep.ID, recordErr)
	}

	// Prune old history
	if pruneErr := s.store.PruneHistory(storeCtx, s.config.HistoryLimit); pruneErr != nil {
		logger.Warn("scheduler: prune history: %v", pruneErr)
	}

	return result, err
}

// Add validates and stores a new sweep.
func (s *Scheduler) Add(ctx context.Context, sweep domain.Sweep) (*domain.Sweep, error) {
	if sweep.ID == "" {
		sweep.ID = uuid.NewString()
	}
	sweep.Request.Criteria = sweep.Request.Criteria.Normalise()
	if err := sweep.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.store.GetSweep(ctx, sweep.ID)
	if err != nil {
		return nil, fmt.Errorf("get sweep: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: sweep %s", domain.ErrAlreadyExists, sweep.ID)
	}

	if sweep.NextRun.IsZero() {
		sweep.NextRun = s.now().Add(sweep.Interval)
	}
	if err := s.store.SaveSweep(ctx, &sweep); err != nil {
		return nil, fmt.Errorf("save sweep: %w", err)
	}
	return &sweep, nil
}

// List returns all sweeps.
func (s *Scheduler) List(ctx context.Context) ([]domain.Sweep, error) {
	return s.store.ListSweeps(ctx)
}

// Remove deletes a sweep.
func (s *Scheduler) Remove(ctx context.Context, sweepID string) error {
	sweep, err := s.store.GetSweep(ctx, sweepID)
	if err != nil {
		return fmt.Errorf("get sweep: %w", err)
	}
	if sweep == nil {
		return domain.ErrNotFound
	}
	return s.store.DeleteSweep(ctx, sweepID)
}

// RunNow executes a sweep immediately and records the result.
// The orchestration error, if any, is also reported in the result.
func (s *Scheduler) RunNow(ctx context.Context, sweepID string) (*domain.SweepResult, error) {
	sweep, err := s.store.GetSweep(ctx, sweepID)
	if err != nil {
		return nil, fmt.Errorf("get sweep: %w", err)
	}
	if sweep == nil {
		return nil, domain.ErrNotFound
	}
	if !s.claim(sweep.ID) {
		return nil, fmt.Errorf("%w: sweep %s is already running", domain.ErrInvalidInput, sweep.ID)
	}
	defer s.unclaim(sweep.ID)

	return s.execute(ctx, sweep)
}

// History returns recent results for a sweep.
func (s *Scheduler) History(ctx context.Context, sweepID string, limit int) ([]domain.SweepResult, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.store.GetSweepHistory(ctx, sweepID, limit)
}
