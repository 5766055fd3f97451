package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/vigility/dashboard/internal/application/services"
	"github.com/vigility/dashboard/internal/domain/entities"
)

func printFilters(w io.Writer, f entities.FilterState) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Start date\t%s\n", orAll(f.DateRange.Start))
	fmt.Fprintf(tw, "End date\t%s\n", orAll(f.DateRange.End))
	fmt.Fprintf(tw, "Age group\t%s\n", orAll(string(f.AgeGroup)))
	fmt.Fprintf(tw, "Gender\t%s\n", orAll(string(f.Gender)))
	if f.SelectedFeature != "" {
		fmt.Fprintf(tw, "Feature\t%s\n", f.SelectedFeature)
	}
	tw.Flush()
	if !f.DateRange.IsComplete() {
		fmt.Fprintln(w, "Date range is incomplete and is not applied until both dates are set")
	}
}

func printState(w io.Writer, state services.DashboardState) {
	printFilters(w, state.Filters)
	for _, warning := range state.FilterWarnings {
		fmt.Fprintf(w, "Warning: %s\n", warning)
	}
	if state.Error != "" {
		fmt.Fprintf(w, "\n%s\n", state.Error)
	}
	if state.Result == nil {
		return
	}

	stats := state.Stats
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Total clicks\t%d\n", stats.TotalClicks)
	if stats.TopFeature != nil {
		fmt.Fprintf(tw, "Most used\t%s (%d)\n", stats.TopFeature.FeatureName, stats.TopFeature.Count)
	} else {
		fmt.Fprintf(tw, "Most used\t-\n")
	}
	fmt.Fprintf(tw, "Daily average\t%d\n", stats.AvgDaily)
	fmt.Fprintf(tw, "Features\t%d\n", stats.FeaturesCount)
	tw.Flush()

	if len(state.Result.FeatureCounts) == 0 && len(state.Result.DailyCounts) == 0 {
		fmt.Fprintln(w, "\nNo clicks match these filters")
		return
	}

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FEATURE\tCLICKS\t")
	for _, fc := range state.Result.FeatureCounts {
		marker := ""
		if fc.FeatureName == state.Filters.SelectedFeature {
			marker = "*"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", fc.FeatureName, fc.Count, marker)
	}
	tw.Flush()

	title := "DATE"
	if state.Filters.SelectedFeature != "" {
		title = "DATE (" + state.Filters.SelectedFeature + ")"
	}
	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\tCLICKS\n", title)
	for _, dc := range state.Result.DailyCounts {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", dc.Date, dc.Count, bar(dc.Count, state.Result.DailyCounts))
	}
	tw.Flush()
}

// bar draws a count relative to the busiest day
func bar(count int, days []entities.DailyCount) string {
	const width = 30
	peak := 0
	for _, d := range days {
		if d.Count > peak {
			peak = d.Count
		}
	}
	if peak == 0 || count <= 0 {
		return ""
	}
	n := count * width / peak
	if n == 0 {
		n = 1
	}
	return strings.Repeat("#", n)
}

func orAll(value string) string {
	if strings.TrimSpace(value) == "" {
		return "all"
	}
	return value
}
