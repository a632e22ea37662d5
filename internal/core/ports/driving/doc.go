// Package driving declares what the CLI, HTTP API, MCP server and TUI may
// ask of the core: run a search, read run history, manage sweeps and
// describe adapter types.
package driving
