package diary

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nchiang/moodiary/internal/client/models"
	"github.com/nchiang/moodiary/internal/sentiment"
)

func scored(id, date string, score float64) *models.Entry {
	return &models.Entry{
		ID: id, Date: date,
		Sentiment: sentiment.Sentiment{Label: sentiment.LabelNeutral, Score: score},
	}
}

func TestDailySeries_AnchoredAtLatestEntry(t *testing.T) {
	entries := []*models.Entry{
		scored("a", "2024-03-05", 0.8),
		scored("b", "2024-03-05", 0.6),
		scored("c", "2024-03-03", 0.2),
	}

	series := DailySeries(entries, 7)
	require.Len(t, series, 7)

	assert.Equal(t, "2024-02-28", series[0].Date)
	assert.Equal(t, "2024-03-05", series[6].Date)

	assert.Equal(t, 2, series[6].Count)
	assert.InDelta(t, 0.7, series[6].Avg, 1e-9)

	assert.Equal(t, 1, series[4].Count)
	assert.InDelta(t, 0.2, series[4].Avg, 1e-9)

	// Day with no entries.
	assert.Equal(t, 0, series[5].Count)
}

func TestDailySeries_Empty(t *testing.T) {
	assert.Empty(t, DailySeries(nil, 7))
	assert.Empty(t, DailySeries([]*models.Entry{scored("a", "2024-03-05", 0.5)}, 0))
}

func TestMonthHeatmap_Buckets(t *testing.T) {
	entries := []*models.Entry{
		scored("a", "2024-03-01", 0.9),
		scored("b", "2024-03-02", 0.1),
		scored("c", "2024-03-03", 0.5),
		scored("d", "2024-03-03", 0.7),
	}

	cells := MonthHeatmap(entries, 2024, time.March)
	require.Len(t, cells, 31)

	assert.Equal(t, "positive", cells[0].Mood)
	assert.Equal(t, "negative", cells[1].Mood)

	assert.Equal(t, "neutral", cells[2].Mood)
	assert.InDelta(t, 0.6, cells[2].Avg, 1e-9)
	assert.Equal(t, 2, cells[2].Count)

	assert.Equal(t, "", cells[3].Mood)
	assert.Equal(t, 0, cells[3].Count)
}
