package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var sourcesJSON bool

var sourcesCmd = &cobra.Command{
	Use:     "sources",
	Aliases: []string{"source"},
	Short:   "Inspect configured listing sources",
	Long:    `List the enabled sources, the adapter types they can use, and check their configuration.`,
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List enabled sources",
	Args:  cobra.NoArgs,
	RunE:  runSourcesList,
}

var sourcesTypesCmd = &cobra.Command{
	Use:   "types",
	Short: "List adapter types and their options",
	Args:  cobra.NoArgs,
	RunE:  runSourcesTypes,
}

var sourcesCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate every enabled source against its adapter",
	Args:  cobra.NoArgs,
	RunE:  runSourcesCheck,
}

func init() {
	sourcesListCmd.Flags().BoolVar(&sourcesJSON, "json", false, "output as JSON")
	sourcesCmd.AddCommand(sourcesListCmd, sourcesTypesCmd, sourcesCheckCmd)
	rootCmd.AddCommand(sourcesCmd)
}

func runSourcesList(cmd *cobra.Command, _ []string) error {
	if searchService == nil {
		return errNoSearch
	}

	sources, err := searchService.Sources(cmd.Context())
	if err != nil {
		return err
	}

	if sourcesJSON {
		return printJSON(cmd.OutOrStdout(), sources)
	}
	if len(sources) == 0 {
		cmd.Println("No sources enabled.")
		return nil
	}

	tw := newTable(cmd.OutOrStdout())
	fmt.Fprintln(tw, "NAME\tTYPE\tCONTEXT\tQUERY\tCREDENTIAL")
	for i := range sources {
		src := &sources[i]
		mode := "ui"
		if src.Capabilities.QueryByURL {
			mode = "url"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", src.Name, src.Type, src.ContextKind(), mode, dash(src.Credential))
	}
	return tw.Flush()
}

func runSourcesTypes(cmd *cobra.Command, _ []string) error {
	if adapterRegistry == nil {
		return errors.New("adapter registry not configured")
	}

	for _, t := range adapterRegistry.List() {
		cmd.Printf("%s (%s, %s)\n", t.ID, t.Name, t.Context)
		if t.Description != "" {
			cmd.Printf("  %s\n", t.Description)
		}
		for _, opt := range t.Options {
			req := ""
			if opt.Required {
				req = " (required)"
			}
			def := ""
			if opt.Default != "" {
				def = fmt.Sprintf(" [default: %s]", opt.Default)
			}
			cmd.Printf("    %-16s %s%s%s\n", opt.Key, opt.Description, req, def)
		}
		cmd.Println()
	}
	return nil
}

func runSourcesCheck(cmd *cobra.Command, _ []string) error {
	if searchService == nil {
		return errNoSearch
	}
	if adapterRegistry == nil {
		return errors.New("adapter registry not configured")
	}

	sources, err := searchService.Sources(cmd.Context())
	if err != nil {
		return err
	}

	invalid := 0
	for i := range sources {
		if err := adapterRegistry.ValidateSource(sources[i]); err != nil {
			cmd.Printf("✗ %s: %v\n", sources[i].Name, err)
			invalid++
			continue
		}
		cmd.Printf("✓ %s\n", sources[i].Name)
	}

	if invalid > 0 {
		return fmt.Errorf("%d of %d sources invalid", invalid, len(sources))
	}
	return nil
}
