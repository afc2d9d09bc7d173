package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nchiang/moodiary/internal/client/diary"
)

// Insights prints the textual mood charts: a 7-day and a 30-day average
// score series and the current month's heatmap.
func (a *App) Insights(ctx context.Context) error {
	entries := a.lastEntries()
	if len(entries) == 0 {
		var err error
		entries, err = a.rec.Refresh(ctx, a.currentUserID(), !a.monitor.Online())
		if err != nil {
			a.logger.Error(ctx, "refresh failed", "error", err)
			printlnFn("Could not load entries for insights.")
			return err
		}
		a.setEntries(entries)
	}

	printlnFn("Last 7 days:")
	printSeries(diary.DailySeries(entries, 7))

	printlnFn("Last 30 days:")
	printSeries(diary.DailySeries(entries, 30))

	now := time.Now()
	printlnFn(fmt.Sprintf("%s heatmap:", now.Format("January 2006")))
	for _, cell := range diary.MonthHeatmap(entries, now.Year(), now.Month()) {
		if cell.Count == 0 {
			continue
		}
		printlnFn(fmt.Sprintf("  %s  %-8s  avg %.2f  (%d entries)",
			cell.Date, cell.Mood, cell.Avg, cell.Count))
	}
	return nil
}

func printSeries(series []diary.DayScore) {
	for _, p := range series {
		if p.Count == 0 {
			printlnFn(fmt.Sprintf("  %s  -", p.Date))
			continue
		}
		bar := strings.Repeat("#", int(p.Avg*20+0.5))
		printlnFn(fmt.Sprintf("  %s  %-20s %.2f", p.Date, bar, p.Avg))
	}
}
