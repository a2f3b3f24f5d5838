package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	httpadapter "github.com/couchcryptid/alert-risk-dashboard/internal/adapter/http"
	"github.com/couchcryptid/alert-risk-dashboard/internal/config"
	"github.com/couchcryptid/alert-risk-dashboard/internal/domain"
)

var (
	queryStart string
	queryEnd   string
	queryHour  string
	queryJSON  bool
)

var queryCmd = &cobra.Command{
	Use:   "query <city>",
	Short: "Print the dashboard figures for one city",
	Long: `Computes the alert count, per-date and per-hour counts, and the
probability of an alert in the chosen hour for one city. Unset dates fall back
to the configured defaults and an unset hour to the current hour.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&queryStart, "start", "", "first date, YYYY-MM-DD")
	queryCmd.Flags().StringVar(&queryEnd, "end", "", "last date, YYYY-MM-DD")
	queryCmd.Flags().StringVar(&queryHour, "hour", "", "target hour, HH or HH:MM")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "print the result as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}

	q := a.service.DefaultQuery(args[0])
	if err := applyQueryFlags(&q); err != nil {
		return err
	}

	out, err := a.service.Compute(cmd.Context(), q)
	if err != nil {
		return err
	}

	if queryJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	printOutputs(cmd.OutOrStdout(), out)
	return nil
}

func applyQueryFlags(q *domain.Query) error {
	if queryStart != "" {
		t, err := time.Parse(config.DateLayout, queryStart)
		if err != nil {
			return fmt.Errorf("invalid --start %q: %w", queryStart, err)
		}
		q.Range.Start = domain.CalendarDate(t)
	}
	if queryEnd != "" {
		t, err := time.Parse(config.DateLayout, queryEnd)
		if err != nil {
			return fmt.Errorf("invalid --end %q: %w", queryEnd, err)
		}
		q.Range.End = domain.CalendarDate(t)
	}
	if queryHour != "" {
		h, err := httpadapter.ParseHour(queryHour)
		if err != nil {
			return err
		}
		q.TargetHour = h
	}
	return nil
}

func printOutputs(w io.Writer, out domain.Outputs) {
	q := out.Query
	fmt.Fprintf(w, "City:        %s\n", q.City)
	fmt.Fprintf(w, "Range:       %s to %s (%d days)\n",
		q.Range.Start.Format(config.DateLayout), q.Range.End.Format(config.DateLayout), out.Days)
	fmt.Fprintf(w, "Alerts:      %s\n", humanize.Comma(int64(out.AlertCount)))
	fmt.Fprintf(w, "Probability: %s%% at %02d:00\n", humanize.FtoaWithDigits(out.ProbabilityPercent, 4), q.TargetHour)

	if out.AlertCount == 0 {
		fmt.Fprintln(w, "\nNo alerts found for the selected filters.")
		return
	}

	fmt.Fprintln(w, "\nAlerts Over Time")
	fmt.Fprintln(w, strings.Repeat("-", 40))
	for _, dc := range out.ByDate {
		fmt.Fprintf(w, "%-12s %8s\n", dc.Date.Format(config.DateLayout), humanize.Comma(int64(dc.Count)))
	}

	fmt.Fprintln(w, "\nAlerts by Hour of the Day")
	fmt.Fprintln(w, strings.Repeat("-", 40))
	for _, hc := range domain.BackfillHours(out.ByHour) {
		fmt.Fprintf(w, "%02d:00 %8s\n", hc.Hour, humanize.Comma(int64(hc.Count)))
	}
}
