package driven

import "time"

// ConfigStore holds user settings as flat dotted keys such as
// "search.concurrency" or "storage.driver". Typed getters return the zero
// value when a key is missing or holds another type; callers that must
// tell "unset" from "zero" use Get.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool

	// GetDuration reads "90s"-style strings; bare integers are seconds.
	GetDuration(key string) time.Duration

	GetStringSlice(key string) []string

	// Keys returns every key that is set, sorted.
	Keys() []string

	// Set stores value under key. File-backed stores persist immediately.
	Set(key string, value any) error

	// Unset removes key. Removing a missing key is not an error.
	Unset(key string) error

	Save() error
	Load() error

	// Path identifies where settings live, for display.
	Path() string
}
