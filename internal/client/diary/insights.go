package diary

import (
	"time"

	"github.com/nchiang/moodiary/internal/client/models"
	"github.com/nchiang/moodiary/internal/datex"
)

// DayScore is one point of the daily mood series.
type DayScore struct {
	Date  string
	Avg   float64
	Count int
}

// Mood thresholds for the heatmap bucketing.
const (
	moodPositiveAbove = 0.7
	moodNegativeBelow = 0.3
)

// DailySeries aggregates the average sentiment score per day over the last
// days days, anchored at the latest entry date so an inactive account still
// shows its most recent period. Days without entries appear with Count 0.
func DailySeries(entries []*models.Entry, days int) []DayScore {
	if len(entries) == 0 || days <= 0 {
		return []DayScore{}
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	anchor := ""
	for _, e := range entries {
		sums[e.Date] += e.Sentiment.Score
		counts[e.Date]++
		if e.Date > anchor {
			anchor = e.Date
		}
	}

	anchorDay, err := time.ParseInLocation(datex.DayKey, anchor, time.Local)
	if err != nil {
		return []DayScore{}
	}

	out := make([]DayScore, 0, days)
	for i := days - 1; i >= 0; i-- {
		day := anchorDay.AddDate(0, 0, -i).Format(datex.DayKey)
		p := DayScore{Date: day, Count: counts[day]}
		if p.Count > 0 {
			p.Avg = sums[day] / float64(p.Count)
		}
		out = append(out, p)
	}
	return out
}

// MoodBucket is one calendar day of the month heatmap.
type MoodBucket struct {
	Date  string
	Avg   float64
	Count int
	// Mood is "positive", "negative" or "neutral"; empty for days without
	// entries.
	Mood string
}

// MonthHeatmap buckets entries of the given month into per-day mood cells.
func MonthHeatmap(entries []*models.Entry, year int, month time.Month) []MoodBucket {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	daysInMonth := first.AddDate(0, 1, -1).Day()

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, e := range entries {
		sums[e.Date] += e.Sentiment.Score
		counts[e.Date]++
	}

	out := make([]MoodBucket, 0, daysInMonth)
	for d := 1; d <= daysInMonth; d++ {
		day := time.Date(year, month, d, 0, 0, 0, 0, time.Local).Format(datex.DayKey)
		b := MoodBucket{Date: day, Count: counts[day]}
		if b.Count > 0 {
			b.Avg = sums[day] / float64(b.Count)
			switch {
			case b.Avg > moodPositiveAbove:
				b.Mood = "positive"
			case b.Avg < moodNegativeBelow:
				b.Mood = "negative"
			default:
				b.Mood = "neutral"
			}
		}
		out = append(out, b)
	}
	return out
}
