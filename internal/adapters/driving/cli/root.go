// Package cli provides the cobra command tree for carsweep.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/carsweep/internal/core/domain"
	"github.com/custodia-labs/carsweep/internal/core/ports/driven"
	"github.com/custodia-labs/carsweep/internal/core/ports/driving"
	"github.com/custodia-labs/carsweep/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Services wired by main. Commands check for nil and report the service as
// not configured.
var (
	searchService    driving.SearchService
	historyService   driving.RunHistoryService
	sweepService     driving.SweepService
	scheduler        driving.Scheduler
	adapterRegistry  driving.AdapterRegistry
	catalogueWatcher CatalogueWatcher
	configStore      driven.ConfigStore
	schedulerConfig  domain.SchedulerConfig
	serverAddr       string
)

// Errors returned when a command's service was not wired.
var (
	errNoSearch  = errors.New("search service not configured")
	errNoHistory = errors.New("run history not configured")
	errNoSweeps  = errors.New("sweep service not configured")
	errNoConfig  = errors.New("settings not configured")
)

// CatalogueWatcher reloads the source catalogue while a long-running
// command is active.
type CatalogueWatcher interface {
	Watch(ctx context.Context, onReload func(error)) error
}

// Services holds everything the commands need.
type Services struct {
	Search          driving.SearchService
	History         driving.RunHistoryService
	Sweeps          driving.SweepService
	Scheduler       driving.Scheduler
	Adapters        driving.AdapterRegistry
	Catalogue       CatalogueWatcher
	Config          driven.ConfigStore
	SchedulerConfig domain.SchedulerConfig
	ServerAddr      string
}

// SetServices installs the services used by every command.
func SetServices(s *Services) {
	searchService = s.Search
	historyService = s.History
	sweepService = s.Sweeps
	scheduler = s.Scheduler
	adapterRegistry = s.Adapters
	catalogueWatcher = s.Catalogue
	configStore = s.Config
	schedulerConfig = s.SchedulerConfig
	serverAddr = s.ServerAddr
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Options are the global flags the bootstrap needs.
type Options struct {
	// NoStore keeps run history and sweeps in memory for this invocation.
	NoStore bool
}

// Bootstrap builds the services once global flags are parsed. The returned
// func releases what it opened.
type Bootstrap func(ctx context.Context, opts Options) (*Services, func(), error)

var (
	bootstrap Bootstrap
	teardown  func()
)

// SetBootstrap installs the function that wires services before a command runs.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// skipServices marks commands that run without wiring.
const skipServices = "skip-services"

var (
	verbose bool
	noStore bool
)

var rootCmd = &cobra.Command{
	Use:   "carsweep",
	Short: "Search every car listing source at once",
	Long: `carsweep runs one search across many car listing sources in parallel
and merges what they return into a single result.

Sources are configured in ~/.carsweep/sources.toml. Each source is driven
either by building a query URL or by refining through its web UI in a
headless browser. A failing source never stops the others; every run
reports a status line per source.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		if bootstrap == nil || cmd.Annotations[skipServices] == "true" {
			return nil
		}

		services, cleanup, err := bootstrap(cmd.Context(), Options{NoStore: noStore})
		if err != nil {
			return err
		}
		SetServices(services)
		teardown = cleanup
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log orchestration detail to stderr")
	rootCmd.PersistentFlags().BoolVar(&noStore, "no-store", false, "keep runs and sweeps in memory only")
}

// Execute runs the root command.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with a context that commands
// use for cancellation.
func ExecuteContext(ctx context.Context) error {
	defer func() {
		if teardown != nil {
			teardown()
			teardown = nil
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}
