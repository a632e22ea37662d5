package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"github.com/custodia-labs/carsweep/internal/core/domain"
)

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// printAggregate prints listings, then one line per source in completion order.
func printAggregate(w io.Writer, result *domain.AggregateResult, limit int) {
	if len(result.Items) == 0 {
		fmt.Fprintln(w, "No listings found.")
	} else {
		tw := newTable(w)
		fmt.Fprintln(tw, "SOURCE\tTITLE\tPRICE\tYEAR\tMILEAGE\tLOCATION\tURL")
		for i := range result.Items {
			if limit > 0 && i == limit {
				break
			}
			item := &result.Items[i]
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				item.SourceName, truncate(item.Title, 48), dash(item.Price), dash(item.Year),
				dash(item.Mileage), dash(item.Location), item.URL)
		}
		tw.Flush()
		if limit > 0 && len(result.Items) > limit {
			fmt.Fprintf(w, "... %d more\n", len(result.Items)-limit)
		}
	}

	fmt.Fprintln(w)
	printSourceStatuses(w, result)
	fmt.Fprintf(w, "\nRun %s: %s, %d listings from %d sources (%d ok, %d skipped, %d failed)\n",
		result.RunID, result.State, result.ItemCount(), result.TotalJobs,
		result.Counts.Success, result.Counts.Empty, result.Counts.Failed)
}

func printSourceStatuses(w io.Writer, result *domain.AggregateResult) {
	tw := newTable(w)
	fmt.Fprintln(tw, "#\tSOURCE\tSTATUS\tITEMS\tTIME\tDETAIL")
	for _, name := range result.CompletionOrder {
		st := result.PerSourceStatus[name]
		detail := st.Error
		if st.Status == domain.OutcomeEmpty {
			detail = st.SkipReason
		}
		if st.Stage != "" && st.Status == domain.OutcomeFailed {
			detail = fmt.Sprintf("[%s] %s", st.Stage, detail)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\n",
			st.Ordinal, name, st.Status, st.ItemCount,
			(time.Duration(st.DurationMS) * time.Millisecond).String(), detail)
	}
	tw.Flush()
}

func printRunSummaries(w io.Writer, runs []domain.RunSummary) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs stored.")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "RUN\tSTARTED\tCRITERIA\tSTATE\tLISTINGS\tOK/SKIP/FAIL")
	for i := range runs {
		r := &runs[i]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d/%d/%d\n",
			r.RunID, r.StartedAt.Local().Format("2006-01-02 15:04"), describeCriteria(r.Criteria),
			r.State, r.ItemCount, r.Counts.Success, r.Counts.Empty, r.Counts.Failed)
	}
	tw.Flush()
}

// describeCriteria renders criteria compactly for tables.
func describeCriteria(c domain.SearchCriteria) string {
	parts := []string{strings.TrimSpace(c.Make + " " + c.Model)}
	for _, r := range []struct {
		name string
		rng  domain.Range
	}{{"price", c.Price}, {"mileage", c.Mileage}, {"age", c.Age}} {
		switch {
		case r.rng.Min != 0 && r.rng.Max != 0:
			parts = append(parts, fmt.Sprintf("%s %d-%d", r.name, r.rng.Min, r.rng.Max))
		case r.rng.Max != 0:
			parts = append(parts, fmt.Sprintf("%s<=%d", r.name, r.rng.Max))
		case r.rng.Min != 0:
			parts = append(parts, fmt.Sprintf("%s>=%d", r.name, r.rng.Min))
		}
	}
	if c.Colour != "" {
		parts = append(parts, c.Colour)
	}
	if c.Category != "" {
		parts = append(parts, c.Category)
	}
	return strings.Join(parts, " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
