// Package period derives time-bucket keys and labels for report aggregation.
// Weekly buckets use a fiscal week number anchored at January 1 of the bucket
// year, not the ISO week standard.
package period

import (
	"fmt"
	"sort"
	"strconv"
	"time"
)

// Granularity selects the time bucketing applied by the aggregator.
type Granularity string

const (
	Daily     Granularity = "daily"
	Weekly    Granularity = "weekly"
	Monthly   Granularity = "monthly"
	Quarterly Granularity = "quarterly"
	Yearly    Granularity = "yearly"
)

// Valid reports whether g names a supported granularity.
func (g Granularity) Valid() bool {
	switch g {
	case Daily, Weekly, Monthly, Quarterly, Yearly:
		return true
	}
	return false
}

// Key returns the bucket key for t under granularity g. Keys sort naturally:
// ISO dates and months lexically, quarters lexically, weeks numerically.
func Key(t time.Time, g Granularity) string {
	t = t.UTC()
	switch g {
	case Daily:
		return t.Format("2006-01-02")
	case Weekly:
		return strconv.Itoa(FiscalWeek(t))
	case Monthly:
		return t.Format("2006-01")
	case Quarterly:
		return fmt.Sprintf("%d-Q%d", t.Year(), (int(t.Month())-1)/3+1)
	case Yearly:
		return strconv.Itoa(t.Year())
	}
	return t.Format("2006-01-02")
}

// Label renders a key as a human readable chart label.
func Label(key string, g Granularity) string {
	switch g {
	case Daily:
		if t, err := time.Parse("2006-01-02", key); err == nil {
			return t.Format("Jan 2")
		}
	case Weekly:
		return "Week " + key
	case Monthly:
		if t, err := time.Parse("2006-01", key); err == nil {
			return t.Format("Jan 2006")
		}
	}
	return key
}

// FiscalWeek computes the week number of t relative to January 1 of its year:
// floor(daysSinceJan1/7)+1. Jan 1-7 is week 1 regardless of weekday.
func FiscalWeek(t time.Time) int {
	t = t.UTC()
	yearStart := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	days := int(t.Sub(yearStart).Hours() / 24)
	return days/7 + 1
}

// SeedWeeks lists every week number that must appear in a weekly report for the
// given year: 1 through the current week when the year is in progress, 1
// through 53 for past years. Empty weeks are pre-seeded so charts render zero
// values instead of missing points.
func SeedWeeks(year int, now time.Time) []int {
	last := 53
	if year >= now.UTC().Year() {
		last = FiscalWeek(now)
	}
	weeks := make([]int, 0, last)
	for w := 1; w <= last; w++ {
		weeks = append(weeks, w)
	}
	return weeks
}

// DaySpan returns the number of calendar days covered by a bucket key, used to
// prorate monthly-normalized operating expenses. Unknown keys count as one day.
func DaySpan(key string, g Granularity) int {
	switch g {
	case Daily:
		return 1
	case Weekly:
		return 7
	case Monthly:
		if t, err := time.Parse("2006-01", key); err == nil {
			return t.AddDate(0, 1, 0).Add(-24 * time.Hour).Day()
		}
	case Quarterly:
		var year, q int
		if _, err := fmt.Sscanf(key, "%d-Q%d", &year, &q); err == nil {
			start := time.Date(year, time.Month((q-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
			return int(start.AddDate(0, 3, 0).Sub(start).Hours() / 24)
		}
	case Yearly:
		if year, err := strconv.Atoi(key); err == nil {
			start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
			return int(start.AddDate(1, 0, 0).Sub(start).Hours() / 24)
		}
	}
	return 1
}

// SortKeys orders bucket keys naturally: numeric week keys ascending by value,
// everything else lexically (ISO dates, months, and quarters already sort).
// Accumulation order depends on feed pagination and is not stable, so output
// ordering never relies on insertion order.
func SortKeys(keys []string, g Granularity) {
	if g == Weekly {
		sort.Slice(keys, func(i, j int) bool {
			a, _ := strconv.Atoi(keys[i])
			b, _ := strconv.Atoi(keys[j])
			return a < b
		})
		return
	}
	sort.Strings(keys)
}
