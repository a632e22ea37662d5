package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/carsweep/internal/adapters/driven/browser"
	"github.com/custodia-labs/carsweep/internal/adapters/driven/config/file"
	"github.com/custodia-labs/carsweep/internal/adapters/driven/credentials"
	"github.com/custodia-labs/carsweep/internal/adapters/driven/httpsession"
	"github.com/custodia-labs/carsweep/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/carsweep/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/carsweep/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/carsweep/internal/adapters/driving/cli"
	"github.com/custodia-labs/carsweep/internal/core/domain"
	"github.com/custodia-labs/carsweep/internal/core/ports/driven"
	"github.com/custodia-labs/carsweep/internal/core/services"
	"github.com/custodia-labs/carsweep/internal/logger"
	"github.com/custodia-labs/carsweep/internal/postprocessors"
	"github.com/custodia-labs/carsweep/internal/sources"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	// A missing .env is fine; credentials may already be in the environment.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	cli.SetBootstrap(wire)

	if err := cli.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// wire builds every service from the config directory.
func wire(ctx context.Context, opts cli.Options) (*cli.Services, func(), error) {
	dir, err := file.DefaultDir()
	if err != nil {
		return nil, nil, err
	}

	config, err := file.NewConfigStore(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	catalogue, err := file.NewCatalogue(filepath.Join(dir, file.CatalogueFile))
	if err != nil {
		return nil, nil, fmt.Errorf("loading sources: %w", err)
	}

	registry := services.NewAdapterRegistry()
	sources.RegisterDefaults(registry)

	browserCfg := browser.DefaultConfig()
	browserCfg.Headless = file.BrowserHeadless(config)
	browserCfg.ExecPath = config.GetString(file.KeyBrowserExecPath)

	httpCfg := httpsession.Config{UserAgent: config.GetString(file.KeyHTTPUserAgent)}
	if rps := file.RequestsPerSecond(config); rps > 0 {
		httpCfg.RateLimit = httpsession.RateLimitConfig{RequestsPerSecond: rps, BurstSize: int(rps) + 1}
	} else {
		httpCfg.RateLimit = httpsession.DefaultRateLimit
	}

	pools := driven.ContextPools{
		domain.ContextHTTP:    httpsession.NewPool(httpCfg),
		domain.ContextBrowser: browser.NewPool(browserCfg),
	}

	driver := file.StorageDriver(config)
	if opts.NoStore {
		driver = file.DriverMemory
	}
	runs, sweeps, closeStores, err := openStores(ctx, driver, config, dir)
	if err != nil {
		pools.Close() //nolint:errcheck
		return nil, nil, err
	}
	logger.Debug("storage: %s, sources: %s", driver, catalogue.Path())

	processors := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(processors)
	pipeline, err := processors.Pipeline(
		file.Postprocessors(config, postprocessors.DefaultNames),
		func(name string) map[string]any { return file.ProcessorSettings(config, name) },
	)
	if err != nil {
		pools.Close() //nolint:errcheck
		closeStores()
		return nil, nil, fmt.Errorf("building listing pipeline: %w", err)
	}

	searchCfg := file.SearchConfig(config)
	runner := services.NewJobRunner(registry, pools, credentials.NewResolver(), searchCfg.JobTimeout).
		WithProcessors(pipeline)
	search := services.NewSearchOrchestrator(catalogue, runner, runs, searchCfg)

	schedulerCfg := file.SchedulerConfig(config)
	scheduler := services.NewScheduler(schedulerCfg, sweeps, search)

	cleanup := func() {
		if err := pools.Close(); err != nil {
			logger.Warn("closing execution contexts: %v", err)
		}
		closeStores()
	}

	return &cli.Services{
		Search:          search,
		History:         services.NewRunHistory(runs),
		Sweeps:          scheduler,
		Scheduler:       scheduler,
		Adapters:        registry,
		Catalogue:       catalogue,
		Config:          config,
		SchedulerConfig: schedulerCfg,
		ServerAddr:      file.ServerAddr(config),
	}, cleanup, nil
}

// openStores opens the run and sweep stores for driver. Sweeps stay in
// sqlite when runs go to postgres.
func openStores(
	ctx context.Context, driver string, config driven.ConfigStore, dir string,
) (driven.RunStore, driven.SweepStore, func(), error) {
	switch driver {
	case file.DriverMemory:
		return memory.NewRunStore(), memory.NewSweepStore(), func() {}, nil

	case file.DriverSQLite, file.DriverPostgres:
		local, err := sqlite.NewStore(filepath.Join(dir, "data"))
		if err != nil {
			return nil, nil, nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		if driver == file.DriverSQLite {
			return local.RunStore(), local.SweepStore(), func() { local.Close() }, nil //nolint:errcheck
		}

		dsn := config.GetString(file.KeyStorageDSN)
		if dsn == "" {
			dsn = os.Getenv("CARSWEEP_POSTGRES_DSN")
		}
		remote, err := postgres.Open(ctx, dsn, 0)
		if err != nil {
			local.Close() //nolint:errcheck
			return nil, nil, nil, fmt.Errorf("opening postgres store: %w", err)
		}
		closeAll := func() {
			remote.Close() //nolint:errcheck
			local.Close()  //nolint:errcheck
		}
		return remote.RunStore(), local.SweepStore(), closeAll, nil

	default:
		return nil, nil, nil, fmt.Errorf("%w: storage driver %q", domain.ErrInvalidInput, driver)
	}
}
