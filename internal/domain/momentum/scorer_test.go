package momentum

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfairbank/glidepath/internal/domain/series"
)

// seriesOf builds a contiguous monthly series ending July 2026.
func seriesOf(closes ...float64) series.PriceSeries {
	start := time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(len(closes) - 1), 0)
	out := make(series.PriceSeries, len(closes))
	for i, c := range closes {
		out[i] = series.Observation{Month: start.AddDate(0, i, 0), Close: c}
	}
	return out
}

// rising is a strictly increasing 15-month series.
func rising() series.PriceSeries {
	closes := make([]float64, 15)
	for i := range closes {
		closes[i] = 100 + float64(i)*2
	}
	return seriesOf(closes...)
}

// falling is a strictly decreasing 15-month series.
func falling() series.PriceSeries {
	closes := make([]float64, 15)
	for i := range closes {
		closes[i] = 200 - float64(i)*3
	}
	return seriesOf(closes...)
}

func TestComputeScore_LatestSMAIsMeanOfTrailingWindow(t *testing.T) {
	s := rising()
	_, history, err := ComputeScore(s, nil, DefaultConfig())
	require.NoError(t, err)
	require.NotEmpty(t, history)

	closes := s.Closes()
	sum := 0.0
	for _, c := range closes[len(closes)-10:] {
		sum += c
	}
	want := sum / 10

	last := history[len(history)-1]
	assert.InDelta(t, want, last.SMA, 1e-9)
	assert.Equal(t, s.Latest().Month, last.Month)
	assert.Equal(t, s.Latest().Close, last.Close)
}

func TestComputeScore_RisingSeriesIsRiskOn(t *testing.T) {
	score, _, err := ComputeScore(rising(), nil, DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, RiskOn, score.Posture)
	assert.Greater(t, score.PrimaryDistance, 0.0)
	assert.Equal(t, 6, score.Total, "primary-only input yields 6 components")
	assert.Equal(t, 6, score.Bullish)
}

func TestComputeScore_FallingSeriesIsRiskOff(t *testing.T) {
	score, _, err := ComputeScore(falling(), nil, DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, RiskOff, score.Posture)
	assert.Less(t, score.PrimaryDistance, 0.0)
	assert.Equal(t, 0, score.Bullish)
}

func TestComputeScore_TieResolvesToRiskOff(t *testing.T) {
	// A flat series puts every close exactly on its SMA.
	closes := make([]float64, 15)
	for i := range closes {
		closes[i] = 100
	}
	score, _, err := ComputeScore(seriesOf(closes...), nil, DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, RiskOff, score.Posture, "equality must not count as Risk-On")
	assert.Equal(t, 0, score.Bullish)
	assert.Zero(t, score.MeanDistance)
}

func TestComputeScore_TwelveComponentsWithAlternate(t *testing.T) {
	score, _, err := ComputeScore(rising(), falling(), DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 12, score.Total)
	assert.Equal(t, 6, score.Bullish, "alternate index is fully bearish")
	// Posture still follows the primary total-return test.
	assert.Equal(t, RiskOn, score.Posture)

	seen := map[[3]int]bool{}
	for _, c := range score.Components {
		key := [3]int{c.Window, int(c.Method), int(c.Index)}
		assert.False(t, seen[key], "component %+v enumerated twice", c)
		seen[key] = true
	}
	assert.Len(t, seen, 12)
}

func TestComputeScore_InsufficientData(t *testing.T) {
	short := rising()[:10]
	_, _, err := ComputeScore(short, nil, DefaultConfig())
	require.Error(t, err)
	assert.ErrorIs(t, err, series.ErrInsufficientData)
}

func TestComputeScore_Idempotent(t *testing.T) {
	s := rising()
	alt := falling()

	score1, hist1, err := ComputeScore(s, alt, DefaultConfig())
	require.NoError(t, err)
	score2, hist2, err := ComputeScore(s, alt, DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, score1, score2)
	assert.Equal(t, hist1, hist2)
}

func TestComputeScore_HistoryHasThreeRows(t *testing.T) {
	_, history, err := ComputeScore(rising(), nil, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, history, 3)

	for i := 1; i < len(history); i++ {
		assert.Equal(t, history[i-1].Month.AddDate(0, 1, 0), history[i].Month)
	}
}

func TestComputeScore_ShortSeriesYieldsFewerHistoryRows(t *testing.T) {
	// 11 months: only positions 10 and 11 carry a 10-month SMA.
	_, history, err := ComputeScore(rising()[:11], nil, DefaultConfig())
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestSMAAt_UndefinedBeforeWindow(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5}
	_, ok := smaAt(closes, 3, 1)
	assert.False(t, ok)

	sma, ok := smaAt(closes, 3, 2)
	require.True(t, ok)
	assert.InDelta(t, 2.0, sma, 1e-9)
}
