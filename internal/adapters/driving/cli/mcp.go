package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/carsweep/internal/adapters/driving/mcp"
)

var mcpAddr string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose searches to AI assistants over MCP",
	Long: `Serve the Model Context Protocol so an assistant can run searches,
list sources and read stored runs.

Tools:      search_listings, list_sources
Resources:  carsweep://adapters, carsweep://runs, carsweep://runs/{id}

Stdio is the default and suits assistants that launch carsweep
themselves:

  {"mcpServers": {"carsweep": {"command": "carsweep", "args": ["mcp"]}}}

With --addr the server speaks streamable HTTP instead.`,
	Example: `  carsweep mcp
  carsweep mcp --addr 127.0.0.1:8788`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().StringVar(&mcpAddr, "addr", "", "serve streamable HTTP on this address instead of stdio")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	server, err := mcp.NewServer(&mcp.Ports{
		Search:   searchService,
		History:  historyService,
		Adapters: adapterRegistry,
	}, mcp.WithVersion(version))
	if err != nil {
		return err
	}

	if mcpAddr == "" {
		return server.Run(cmd.Context())
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://%s\n", mcpAddr)
	return server.RunHTTP(cmd.Context(), mcpAddr)
}
