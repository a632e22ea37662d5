package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/carsweep/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/carsweep/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Serve the search API over HTTP.

  GET    /v1/search/stream   stream a run as server-sent events
  POST   /v1/search          run a search and return the aggregate
  GET    /v1/sources         enabled sources
  GET    /v1/adapters        adapter types
  GET    /v1/runs            stored runs
  GET    /v1/runs/{id}       one stored run
  DELETE /v1/runs/{id}       remove a stored run

While serving, saved sweeps run on schedule (when the scheduler is enabled)
and edits to sources.toml are picked up without a restart.`,
	Example: `  carsweep serve --addr 127.0.0.1:8787
  curl -N 'http://127.0.0.1:8787/v1/search/stream?make=ford&model=focus&price_max=8000'`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from settings)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if searchService == nil {
		return errNoSearch
	}

	addr, err := cmd.Flags().GetString("addr")
	if err != nil {
		return fmt.Errorf("getting addr flag: %w", err)
	}
	if addr == "" {
		addr = serverAddr
	}
	if addr == "" {
		return errors.New("no listen address configured")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	stop := startBackground(cmd)
	defer stop()

	api := httpapi.Server{
		Search:   searchService,
		History:  historyService,
		Adapters: adapterRegistry,
	}
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "carsweep API listening on http://%s\n", addr)
	err = httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// startBackground starts the sweep scheduler (when enabled) and the
// catalogue watcher for a long-running command. The returned func stops
// both and waits for the scheduler to drain.
func startBackground(cmd *cobra.Command) func() {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	schedulerStarted := false
	if schedulerConfig.Enabled && scheduler != nil {
		schedulerStarted = true
		go func() {
			if err := scheduler.Start(ctx); err != nil {
				logger.Error("scheduler stopped: %v", err)
			}
		}()
	}

	if catalogueWatcher != nil {
		go func() {
			if err := catalogueWatcher.Watch(ctx, nil); err != nil {
				logger.Warn("catalogue watch stopped: %v", err)
			}
		}()
	}

	return func() {
		cancel()
		if schedulerStarted {
			if err := scheduler.Stop(); err != nil {
				logger.Warn("scheduler stop error: %v", err)
			}
		}
	}
}
