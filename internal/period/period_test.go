package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyPerGranularity(t *testing.T) {
	ts := time.Date(2024, time.May, 17, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, "2024-05-17", Key(ts, Daily))
	assert.Equal(t, "2024-05", Key(ts, Monthly))
	assert.Equal(t, "2024-Q2", Key(ts, Quarterly))
	assert.Equal(t, "2024", Key(ts, Yearly))
	assert.Equal(t, "20", Key(ts, Weekly))
}

func TestFiscalWeekAnchoredToYearStart(t *testing.T) {
	jan1 := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, FiscalWeek(jan1))
	assert.Equal(t, 1, FiscalWeek(jan1.AddDate(0, 0, 6)))
	assert.Equal(t, 2, FiscalWeek(jan1.AddDate(0, 0, 7)))
	// Dec 31 of a leap year lands in week 53.
	assert.Equal(t, 53, FiscalWeek(time.Date(2024, time.December, 31, 23, 0, 0, 0, time.UTC)))
}

func TestSeedWeeks(t *testing.T) {
	now := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)

	current := SeedWeeks(2024, now)
	require.NotEmpty(t, current)
	assert.Equal(t, 1, current[0])
	assert.Equal(t, FiscalWeek(now), current[len(current)-1])

	past := SeedWeeks(2023, now)
	assert.Len(t, past, 53)
}

func TestDaySpan(t *testing.T) {
	assert.Equal(t, 1, DaySpan("2024-05-17", Daily))
	assert.Equal(t, 7, DaySpan("12", Weekly))
	assert.Equal(t, 29, DaySpan("2024-02", Monthly))
	assert.Equal(t, 31, DaySpan("2024-01", Monthly))
	assert.Equal(t, 91, DaySpan("2024-Q1", Quarterly))
	assert.Equal(t, 366, DaySpan("2024", Yearly))
}

func TestSortKeysWeeklyIsNumeric(t *testing.T) {
	keys := []string{"10", "2", "1", "33"}
	SortKeys(keys, Weekly)
	assert.Equal(t, []string{"1", "2", "10", "33"}, keys)

	months := []string{"2024-02", "2023-12", "2024-01"}
	SortKeys(months, Monthly)
	assert.Equal(t, []string{"2023-12", "2024-01", "2024-02"}, months)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Week 4", Label("4", Weekly))
	assert.Equal(t, "Jan 2024", Label("2024-01", Monthly))
	assert.Equal(t, "May 17", Label("2024-05-17", Daily))
	assert.Equal(t, "2024-Q2", Label("2024-Q2", Quarterly))
}
