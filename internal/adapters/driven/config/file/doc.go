// Package file reads and writes the user's files under ~/.carsweep:
// config.toml through ConfigStore, and sources.toml through Catalogue,
// which can watch the file and swap in a new snapshot when it changes.
// settings.go turns raw config keys into domain config values.
package file
