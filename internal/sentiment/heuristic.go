package sentiment

import "strings"

// Keyword dictionaries of the deterministic fallback classifier. The lists
// are fixed: entries classified before a dictionary change are never
// recomputed, so extending them only affects new saves.
var (
	positiveWords = []string{"開心", "快樂", "興奮", "幸福", "讚", "爽", "好吃", "好玩", "愛"}
	negativeWords = []string{"累", "難過", "生氣", "煩", "討厭", "壓力", "痛苦", "失望", "不喜歡"}
)

// Classify runs the local keyword heuristic. It counts how many distinct
// dictionary keywords occur in the text and labels by comparison:
//
//	positive: score min(1, 0.8 + max(0,hits-1)*0.05)
//	negative: score max(0, 0.2 - max(0,hits-1)*0.05)
//	neutral:  score 0.5
//
// It never fails and is the fallback for every remote classification error.
func Classify(text string) Sentiment {
	var posHits, negHits int
	for _, w := range positiveWords {
		if strings.Contains(text, w) {
			posHits++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(text, w) {
			negHits++
		}
	}

	switch {
	case posHits > negHits:
		extra := float64(max(0, posHits-1)) * 0.05
		return Sentiment{Label: LabelPositive, Score: min(1, 0.8+extra)}
	case negHits > posHits:
		extra := float64(max(0, negHits-1)) * 0.05
		return Sentiment{Label: LabelNegative, Score: max(0, 0.2-extra)}
	default:
		return Sentiment{Label: LabelNeutral, Score: 0.5}
	}
}
