// Package memory provides in-memory implementations of the driven storage ports.
//
// Stores here are used by tests and by runs started with --no-store, where
// history does not outlive the process.
package memory
