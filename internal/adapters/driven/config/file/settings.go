package file

import (
	"strings"

	"github.com/custodia-labs/carsweep/internal/core/domain"
	"github.com/custodia-labs/carsweep/internal/core/ports/driven"
)

// Configuration keys.
const (
	KeySearchConcurrency = "search.concurrency"
	KeySearchJobTimeout  = "search.job_timeout"
	KeySearchStrategy    = "search.strategy"
	KeySearchProcessors  = "search.postprocessors"

	KeyStorageDriver = "storage.driver"
	KeyStorageDSN    = "storage.dsn"

	KeyServerAddr = "server.addr"

	KeyBrowserHeadless = "browser.headless"
	KeyBrowserExecPath = "browser.exec_path"

	KeyHTTPRequestsPerSecond = "http.requests_per_second"
	KeyHTTPUserAgent         = "http.user_agent"

	KeySchedulerEnabled  = "scheduler.enabled"
	KeySchedulerInterval = "scheduler.interval"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// DefaultServerAddr is used by serve when server.addr is unset.
const DefaultServerAddr = "127.0.0.1:8787"

// SearchConfig reads orchestration settings, falling back to defaults.
func SearchConfig(store driven.ConfigStore) domain.SearchConfig {
	cfg := domain.SearchConfig{
		Concurrency: store.GetInt(KeySearchConcurrency),
		Strategy:    domain.Strategy(store.GetString(KeySearchStrategy)),
	}
	if _, ok := store.Get(KeySearchJobTimeout); ok {
		cfg.JobTimeout = store.GetDuration(KeySearchJobTimeout)
	} else {
		cfg.JobTimeout = domain.DefaultJobTimeout
	}
	return cfg.WithDefaults()
}

// SchedulerConfig reads scheduler settings, falling back to defaults.
func SchedulerConfig(store driven.ConfigStore) domain.SchedulerConfig {
	cfg := domain.DefaultSchedulerConfig()
	if _, ok := store.Get(KeySchedulerEnabled); ok {
		cfg.Enabled = store.GetBool(KeySchedulerEnabled)
	}
	if d := store.GetDuration(KeySchedulerInterval); d > 0 {
		cfg.Tick = d
	}
	return cfg
}

// StorageDriver returns the configured storage driver, sqlite by default.
func StorageDriver(store driven.ConfigStore) string {
	if d := store.GetString(KeyStorageDriver); d != "" {
		return d
	}
	return DriverSQLite
}

// ServerAddr returns the HTTP listen address.
func ServerAddr(store driven.ConfigStore) string {
	if addr := store.GetString(KeyServerAddr); addr != "" {
		return addr
	}
	return DefaultServerAddr
}

// BrowserHeadless reports whether Chrome runs headless. Defaults to true.
func BrowserHeadless(store driven.ConfigStore) bool {
	if _, ok := store.Get(KeyBrowserHeadless); ok {
		return store.GetBool(KeyBrowserHeadless)
	}
	return true
}

// RequestsPerSecond returns the per-host HTTP throttle. Zero means the default.
func RequestsPerSecond(store driven.ConfigStore) float64 {
	val, ok := store.Get(KeyHTTPRequestsPerSecond)
	if !ok {
		return 0
	}
	switch v := val.(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}

// Postprocessors returns the configured listing pipeline, or fallback when
// the key is unset. An explicit empty list disables post-processing.
func Postprocessors(store driven.ConfigStore, fallback []string) []string {
	if _, ok := store.Get(KeySearchProcessors); !ok {
		return fallback
	}
	return store.GetStringSlice(KeySearchProcessors)
}

// ProcessorPrefix starts the keys holding one listing processor's settings,
// as in [postprocess.clean] max_length = 200.
const ProcessorPrefix = "postprocess."

// ProcessorSettings returns the settings under postprocess.<name>, keyed
// without the prefix, or nil when there are none.
func ProcessorSettings(store driven.ConfigStore, name string) map[string]any {
	prefix := ProcessorPrefix + name + "."
	var settings map[string]any
	for _, key := range store.Keys() {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if settings == nil {
			settings = make(map[string]any)
		}
		settings[strings.TrimPrefix(key, prefix)], _ = store.Get(key)
	}
	return settings
}
