package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/carsweep/internal/core/domain"
)

var (
	sweepEvery        time.Duration
	sweepHistoryLimit int
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Manage saved sweeps",
	Long: `A sweep is a saved search that runs on an interval while
"carsweep serve" (or the TUI) is running with the scheduler enabled.
Every sweep run is stored like any other search.`,
}

var sweepAddCmd = &cobra.Command{
	Use:     "add NAME MAKE [MODEL...]",
	Short:   "Save a sweep",
	Example: `  carsweep sweep add cheap-focus ford focus --price-max 6000 --every 6h`,
	Args:    cobra.MinimumNArgs(2),
	RunE:    runSweepAdd,
}

var sweepListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved sweeps",
	Args:  cobra.NoArgs,
	RunE:  runSweepList,
}

var sweepRunCmd = &cobra.Command{
	Use:   "run [sweep-id]",
	Short: "Run a sweep now",
	Args:  cobra.ExactArgs(1),
	RunE:  runSweepRun,
}

var sweepRemoveCmd = &cobra.Command{
	Use:     "rm [sweep-id]",
	Aliases: []string{"remove"},
	Short:   "Remove a sweep",
	Args:    cobra.ExactArgs(1),
	RunE:    runSweepRemove,
}

var sweepHistoryCmd = &cobra.Command{
	Use:   "history [sweep-id]",
	Short: "Show recent results of a sweep",
	Args:  cobra.ExactArgs(1),
	RunE:  runSweepHistory,
}

func init() {
	addCriteriaFlags(sweepAddCmd)
	sweepAddCmd.Flags().DurationVar(&sweepEvery, "every", 24*time.Hour, "interval between runs")
	sweepHistoryCmd.Flags().IntVarP(&sweepHistoryLimit, "limit", "n", 10, "maximum number of results")
	sweepCmd.AddCommand(sweepAddCmd, sweepListCmd, sweepRunCmd, sweepRemoveCmd, sweepHistoryCmd)
	rootCmd.AddCommand(sweepCmd)
}

func runSweepAdd(cmd *cobra.Command, args []string) error {
	if sweepService == nil {
		return errNoSweeps
	}

	sweep, err := sweepService.Add(cmd.Context(), domain.Sweep{
		Name:     args[0],
		Request:  searchRequest(args[1:]),
		Interval: sweepEvery,
		Enabled:  true,
	})
	if err != nil {
		return fmt.Errorf("failed to add sweep: %w", err)
	}

	cmd.Printf("Added sweep %s (%s), every %s, next run %s\n",
		sweep.ID, sweep.Name, sweep.Interval, sweep.NextRun.Local().Format("2006-01-02 15:04"))
	return nil
}

func runSweepList(cmd *cobra.Command, _ []string) error {
	if sweepService == nil {
		return errNoSweeps
	}

	sweeps, err := sweepService.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(sweeps) == 0 {
		cmd.Println("No sweeps saved.")
		return nil
	}

	tw := newTable(cmd.OutOrStdout())
	fmt.Fprintln(tw, "ID\tNAME\tCRITERIA\tEVERY\tNEXT RUN\tLAST ERROR")
	for i := range sweeps {
		s := &sweeps[i]
		next := "-"
		if s.Enabled && !s.NextRun.IsZero() {
			next = s.NextRun.Local().Format("2006-01-02 15:04")
		}
		criteria := describeCriteria(s.Request.Criteria)
		if len(s.Request.Sources) > 0 {
			criteria += " [" + strings.Join(s.Request.Sources, ",") + "]"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			s.ID, s.Name, criteria, s.Interval, next, dash(s.LastError))
	}
	return tw.Flush()
}

func runSweepRun(cmd *cobra.Command, args []string) error {
	if sweepService == nil {
		return errNoSweeps
	}

	cmd.Printf("Running sweep %s...\n", args[0])
	result, err := sweepService.RunNow(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("sweep failed: %s", result.Error)
	}

	cmd.Printf("Run %s found %d listings in %s\n",
		result.RunID, result.ItemsFound, result.EndedAt.Sub(result.StartedAt).Round(time.Millisecond))
	return nil
}

func runSweepRemove(cmd *cobra.Command, args []string) error {
	if sweepService == nil {
		return errNoSweeps
	}

	if err := sweepService.Remove(cmd.Context(), args[0]); err != nil {
		return err
	}
	cmd.Printf("Removed sweep %s\n", args[0])
	return nil
}

func runSweepHistory(cmd *cobra.Command, args []string) error {
	if sweepService == nil {
		return errNoSweeps
	}

	results, err := sweepService.History(cmd.Context(), args[0], sweepHistoryLimit)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		cmd.Println("No results yet.")
		return nil
	}

	tw := newTable(cmd.OutOrStdout())
	fmt.Fprintln(tw, "STARTED\tRUN\tLISTINGS\tRESULT")
	for i := range results {
		r := &results[i]
		outcome := "ok"
		if !r.Success {
			outcome = r.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n",
			r.StartedAt.Local().Format("2006-01-02 15:04"), dash(r.RunID), r.ItemsFound, outcome)
	}
	return tw.Flush()
}
