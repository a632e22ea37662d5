package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/carsweep/internal/core/domain"
)

// errAllFailed is returned when no source produced an outcome other than failure.
var errAllFailed = errors.New("every source failed")

var (
	searchPriceMin    int
	searchPriceMax    int
	searchMileageMin  int
	searchMileageMax  int
	searchAgeMin      int
	searchAgeMax      int
	searchColour      string
	searchCategory    string
	searchSources     []string
	searchConcurrency int
	searchLimit       int
	searchJSON        bool
)

var searchCmd = &cobra.Command{
	Use:   "search MAKE [MODEL...]",
	Short: "Search every enabled source",
	Long: `Runs one search across every enabled source and prints the merged listings.

Each source is reported as it finishes. A source that cannot honour the
criteria is skipped, one that errors is marked failed, and neither stops
the others.`,
	Example: `  carsweep search ford focus --price-max 8000 --mileage-max 60000
  carsweep search bmw --source dealer --source auction --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	addCriteriaFlags(searchCmd)
	f := searchCmd.Flags()
	f.IntVarP(&searchConcurrency, "concurrency", "c", 0, "simultaneous sources (0 = configured default)")
	f.IntVarP(&searchLimit, "limit", "n", 0, "maximum listings to print (0 = all)")
	f.BoolVar(&searchJSON, "json", false, "output the aggregate as JSON")
	rootCmd.AddCommand(searchCmd)
}

// addCriteriaFlags registers the search criteria flags on cmd.
func addCriteriaFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntVar(&searchPriceMin, "price-min", 0, "minimum price")
	f.IntVar(&searchPriceMax, "price-max", 0, "maximum price")
	f.IntVar(&searchMileageMin, "mileage-min", 0, "minimum mileage")
	f.IntVar(&searchMileageMax, "mileage-max", 0, "maximum mileage")
	f.IntVar(&searchAgeMin, "age-min", 0, "minimum age in years")
	f.IntVar(&searchAgeMax, "age-max", 0, "maximum age in years")
	f.StringVar(&searchColour, "colour", "", "exterior colour")
	f.StringVar(&searchCategory, "category", "", "body type or listing category")
	f.StringSliceVarP(&searchSources, "source", "s", nil, "restrict to these sources (repeatable)")
}

// searchRequest builds the run request from arguments and flags.
func searchRequest(args []string) domain.RunRequest {
	criteria := domain.SearchCriteria{
		Make:     args[0],
		Price:    domain.Range{Min: searchPriceMin, Max: searchPriceMax},
		Mileage:  domain.Range{Min: searchMileageMin, Max: searchMileageMax},
		Age:      domain.Range{Min: searchAgeMin, Max: searchAgeMax},
		Colour:   searchColour,
		Category: searchCategory,
	}
	if len(args) > 1 {
		criteria.Model = strings.Join(args[1:], " ")
	}
	return domain.RunRequest{
		Criteria:    criteria,
		Concurrency: searchConcurrency,
		Sources:     searchSources,
	}
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errNoSearch
	}

	// Progress goes to stderr so JSON output stays parseable.
	progress := newProgressPrinter(cmd.ErrOrStderr())

	result, err := searchService.Run(cmd.Context(), searchRequest(args), progress.print)
	progress.done()
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		if err := printJSON(cmd.OutOrStdout(), result); err != nil {
			return err
		}
	} else {
		printAggregate(cmd.OutOrStdout(), result, searchLimit)
	}

	if result.State == domain.RunFailed {
		return errAllFailed
	}
	return nil
}

// progressPrinter reports per-source completions. On a terminal the
// running count is redrawn in place.
type progressPrinter struct {
	w       io.Writer
	tty     bool
	pending bool
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	return &progressPrinter{w: w, tty: isTerminal(w)}
}

func (p *progressPrinter) print(ev domain.ProgressEvent) {
	if p.pending {
		fmt.Fprint(p.w, "\r\033[K")
		p.pending = false
	}
	fmt.Fprintf(p.w, "[%d/%d] %s\n", ev.Completed, ev.TotalJobs, describeEvent(ev))
	if p.tty && ev.Completed < ev.TotalJobs {
		fmt.Fprintf(p.w, "waiting for %d more source(s)...", ev.TotalJobs-ev.Completed)
		p.pending = true
	}
}

func (p *progressPrinter) done() {
	if p.pending {
		fmt.Fprint(p.w, "\r\033[K")
		p.pending = false
	}
}

func describeEvent(ev domain.ProgressEvent) string {
	switch ev.Status {
	case domain.OutcomeSuccess:
		return fmt.Sprintf("%s: %d listings", ev.Source, len(ev.Items))
	case domain.OutcomeEmpty:
		return fmt.Sprintf("%s: skipped (%s)", ev.Source, ev.SkipReason)
	default:
		return fmt.Sprintf("%s: failed (%s)", ev.Source, ev.Error)
	}
}
