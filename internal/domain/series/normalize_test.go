package series

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{KeepMonths: 15, MinMonths: 11}
}

// raw builds an observation stamped at the given day of the month.
func raw(year int, month time.Month, day int, close float64) RawObservation {
	return RawObservation{
		Time:  time.Date(year, month, day, 21, 0, 0, 0, time.UTC),
		Close: close,
	}
}

// monthsOf builds n contiguous month-end observations ending the month
// before now, with closes 100, 101, ...
func monthsOf(n int, now time.Time) []RawObservation {
	var out []RawObservation
	start := MonthOf(now).AddDate(0, -n, 0)
	for i := 0; i < n; i++ {
		m := start.AddDate(0, i, 0)
		out = append(out, raw(m.Year(), m.Month(), 28, 100+float64(i)))
	}
	return out
}

func TestNormalize_DropsInProgressMonth(t *testing.T) {
	now := time.Date(2026, time.August, 26, 12, 0, 0, 0, time.UTC)
	input := monthsOf(12, now)
	// Append a partial observation inside the current month.
	input = append(input, raw(2026, time.August, 15, 999))

	out, err := Normalize(input, now, testConfig())
	require.NoError(t, err)

	assert.Len(t, out, len(input)-1, "in-progress month must be dropped")
	assert.Equal(t, time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC), out.Latest().Month)
}

func TestNormalize_CollapsesIntraMonthDuplicates(t *testing.T) {
	now := time.Date(2026, time.August, 26, 0, 0, 0, 0, time.UTC)
	input := monthsOf(11, now)
	// Two extra quotes for the final completed month; the last one wins.
	input = append(input,
		raw(2026, time.July, 10, 500),
		raw(2026, time.July, 31, 510),
	)

	out, err := Normalize(input, now, testConfig())
	require.NoError(t, err)
	assert.Len(t, out, 11)
	assert.Equal(t, 510.0, out.Latest().Close)
}

func TestNormalize_MonthStartAlignment(t *testing.T) {
	now := time.Date(2026, time.August, 26, 0, 0, 0, 0, time.UTC)
	// A source that stamps the last trading day of each month must land on
	// the same month keys as a month-start source.
	input := monthsOf(11, now)

	out, err := Normalize(input, now, testConfig())
	require.NoError(t, err)
	for _, obs := range out {
		assert.Equal(t, 1, obs.Month.Day())
		assert.Equal(t, time.UTC, obs.Month.Location())
	}
}

func TestNormalize_InsufficientData(t *testing.T) {
	now := time.Date(2026, time.August, 26, 0, 0, 0, 0, time.UTC)
	// 10 completed months: no margin for the current position.
	input := monthsOf(10, now)

	_, err := Normalize(input, now, testConfig())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestNormalize_GapInWindow(t *testing.T) {
	now := time.Date(2026, time.August, 26, 0, 0, 0, 0, time.UTC)
	input := monthsOf(12, now)
	// Remove an interior month to create a gap.
	input = append(input[:5], input[6:]...)

	_, err := Normalize(input, now, testConfig())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestNormalize_TrimsToKeepMonths(t *testing.T) {
	now := time.Date(2026, time.August, 26, 0, 0, 0, 0, time.UTC)
	input := monthsOf(24, now)

	out, err := Normalize(input, now, testConfig())
	require.NoError(t, err)
	assert.Len(t, out, 15)
	// The retained window holds the most recent months.
	assert.Equal(t, time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC), out.Latest().Month)
}

func TestNormalize_DiscardsNullCandles(t *testing.T) {
	now := time.Date(2026, time.August, 26, 0, 0, 0, 0, time.UTC)
	input := monthsOf(11, now)
	// Stamped after December's real close; must be skipped, not preferred.
	input = append(input, RawObservation{Time: time.Date(2025, time.December, 30, 23, 0, 0, 0, time.UTC), Close: 0})

	out, err := Normalize(input, now, testConfig())
	require.NoError(t, err)
	assert.Len(t, out, 11)
	for _, obs := range out {
		assert.Greater(t, obs.Close, 0.0)
	}
}
