// Package logger provides verbose logging for carsweep.
// When verbose mode is enabled via the --verbose flag, debug messages
// are printed to stderr to show how each source job progresses.
// Errors are always printed.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

func write(always bool, level, prefix, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if verbose || always {
		fmt.Fprintf(output, "["+level+"] "+prefix+format+"\n", args...)
	}
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	write(false, "DEBUG", "", format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	write(false, "INFO", "", format, args...)
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	write(false, "WARN", "", format, args...)
}

// Error prints an error message regardless of verbose mode.
func Error(format string, args ...any) {
	write(true, "ERROR", "", format, args...)
}

// Scope prefixes every line with a run and source identifier.
type Scope struct {
	prefix string
}

// Job returns a Scope for one job of a run.
func Job(runID, source string) Scope {
	if len(runID) > 8 {
		runID = runID[:8]
	}
	return Scope{prefix: fmt.Sprintf("run=%s source=%s ", runID, source)}
}

// Debug prints a scoped message if verbose mode is enabled.
func (s Scope) Debug(format string, args ...any) {
	write(false, "DEBUG", s.prefix, format, args...)
}

// Info prints a scoped message if verbose mode is enabled.
func (s Scope) Info(format string, args ...any) {
	write(false, "INFO", s.prefix, format, args...)
}

// Warn prints a scoped warning if verbose mode is enabled.
func (s Scope) Warn(format string, args ...any) {
	write(false, "WARN", s.prefix, format, args...)
}

// Error prints a scoped error regardless of verbose mode.
func (s Scope) Error(format string, args ...any) {
	write(true, "ERROR", s.prefix, format, args...)
}
