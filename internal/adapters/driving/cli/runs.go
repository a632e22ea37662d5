package cli

import (
	"github.com/spf13/cobra"
)

var (
	runsLimit int
	runsJSON  bool
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect stored search runs",
	Long:  `Every search stores its aggregate. List, show, or remove stored runs.`,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	Args:  cobra.NoArgs,
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show a stored run",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

var runsRemoveCmd = &cobra.Command{
	Use:     "rm [run-id]",
	Aliases: []string{"remove"},
	Short:   "Remove a stored run",
	Args:    cobra.ExactArgs(1),
	RunE:    runRunsRemove,
}

func init() {
	runsListCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "maximum number of runs")
	runsListCmd.Flags().BoolVar(&runsJSON, "json", false, "output as JSON")
	runsShowCmd.Flags().BoolVar(&runsJSON, "json", false, "output as JSON")
	runsCmd.AddCommand(runsListCmd, runsShowCmd, runsRemoveCmd)
	rootCmd.AddCommand(runsCmd)
}

func runRunsList(cmd *cobra.Command, _ []string) error {
	if historyService == nil {
		return errNoHistory
	}

	runs, err := historyService.List(cmd.Context(), runsLimit)
	if err != nil {
		return err
	}

	if runsJSON {
		return printJSON(cmd.OutOrStdout(), runs)
	}
	printRunSummaries(cmd.OutOrStdout(), runs)
	return nil
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	if historyService == nil {
		return errNoHistory
	}

	result, err := historyService.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if runsJSON {
		return printJSON(cmd.OutOrStdout(), result)
	}
	cmd.Printf("Criteria: %s\n", describeCriteria(result.Criteria))
	cmd.Printf("Started:  %s\n\n", result.StartedAt.Local().Format("2006-01-02 15:04:05"))
	printAggregate(cmd.OutOrStdout(), result, 0)
	return nil
}

func runRunsRemove(cmd *cobra.Command, args []string) error {
	if historyService == nil {
		return errNoHistory
	}

	if err := historyService.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	cmd.Printf("Removed run %s\n", args[0])
	return nil
}
