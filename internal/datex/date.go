// Package datex normalizes the heterogeneous date representations found in
// stored diary documents into the canonical YYYY-MM-DD form used for sorting,
// filtering and chart bucketing.
package datex

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// DayKey is the canonical layout of a normalized diary date.
const DayKey = "2006-01-02"

// nowFn is a test seam; tests pin it to a fixed instant.
var nowFn = time.Now

// TodayKey returns the current local calendar date as YYYY-MM-DD.
func TodayKey() string {
	return nowFn().Format(DayKey)
}

// Normalize converts a stored date value into YYYY-MM-DD.
//
// Accepted inputs:
//   - time.Time: converted to the local calendar date.
//   - numeric JSON values (float64/int64/json-ish): Unix milliseconds.
//   - strings in a variety of layouts: "2024-03-05", "2024/03/05",
//     "20240305", "03-05" (current year assumed), "03-05-24" (2000s assumed).
//
// Any other shape, or a zero year/month/day, falls back to today's date.
// Month and day are clamped into [1,12] and [1,31]; there is no calendar
// validity check, day 31 in a 30-day month passes through as-is.
func Normalize(v any) string {
	switch value := v.(type) {
	case nil:
		return TodayKey()
	case time.Time:
		if value.IsZero() {
			return TodayKey()
		}
		return value.Local().Format(DayKey)
	case float64:
		return fromUnixMilli(int64(value))
	case int64:
		return fromUnixMilli(value)
	case int:
		return fromUnixMilli(int64(value))
	case string:
		return normalizeString(value)
	default:
		return normalizeString(fmt.Sprintf("%v", v))
	}
}

func fromUnixMilli(ms int64) string {
	if ms == 0 {
		return TodayKey()
	}
	return time.UnixMilli(ms).Local().Format(DayKey)
}

func normalizeString(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return TodayKey()
	}

	parts := digitRuns(s)

	var y, m, d int
	switch {
	case len(parts) == 3 && len(parts[0]) == 4:
		y = atoi(parts[0])
		m = atoi(parts[1])
		d = atoi(parts[2])
	case len(parts) == 3:
		// m-d-(yy)yy with the current century assumed for 2-digit years
		y = atoi(parts[2])
		if y < 100 {
			y += 2000
		}
		m = atoi(parts[0])
		d = atoi(parts[1])
	case len(parts) == 2:
		y = nowFn().Year()
		m = atoi(parts[0])
		d = atoi(parts[1])
	case len(parts) == 1 && len(parts[0]) >= 8:
		// compact yyyymmdd
		y = atoi(parts[0][0:4])
		m = atoi(parts[0][4:6])
		d = atoi(parts[0][6:8])
	default:
		return TodayKey()
	}

	if y == 0 || m == 0 || d == 0 {
		return TodayKey()
	}
	return fmt.Sprintf("%d-%02d-%02d", y, clamp(m, 1, 12), clamp(d, 1, 31))
}

// digitRuns splits s into maximal runs of consecutive digits.
func digitRuns(s string) []string {
	var runs []string
	var cur strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			cur.WriteRune(r)
			continue
		}
		if cur.Len() > 0 {
			runs = append(runs, cur.String())
			cur.Reset()
		}
	}
	if cur.Len() > 0 {
		runs = append(runs, cur.String())
	}
	return runs
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ToEpoch converts a normalized date string to local midnight in Unix
// milliseconds, for descending sorts. Unparsable input yields 0 so that
// malformed dates sink to the bottom of the list.
func ToEpoch(dateStr string) int64 {
	norm := strings.ReplaceAll(dateStr, "/", "-")
	if len(norm) > 10 {
		norm = norm[:10]
	}
	t, err := time.ParseInLocation(DayKey, norm, time.Local)
	if err != nil {
		return 0
	}
	return t.UnixMilli()
}
