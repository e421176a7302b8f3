package swr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute_PublishedConstants(t *testing.T) {
	// cape=30 -> adjusted=23.25
	// Recommended  = 1.75 + 0.50/23.25 ~= 1.7715
	// Conservative = -0.25 + 0.90/23.25 ~= -0.2113
	rates, err := Compute(Inputs{CAPE: 30}, DefaultConfig())
	require.NoError(t, err)

	assert.InDelta(t, 1.7715, rates.Recommended, 0.0001)
	assert.InDelta(t, -0.2113, rates.Conservative, 0.0001)
}

func TestCompute_ConservativeMayGoNegativeWithoutDividend(t *testing.T) {
	rates, err := Compute(Inputs{CAPE: 30}, DefaultConfig())
	require.NoError(t, err)
	assert.Less(t, rates.Conservative, 0.0,
		"literal formula result is preserved when no dividend is supplied")
}

func TestCompute_DividendSubtractionWithFloor(t *testing.T) {
	rates, err := Compute(Inputs{CAPE: 30, DividendYield: 1.5}, DefaultConfig())
	require.NoError(t, err)

	// 1.7715 - 1.5 ~= 0.2715
	assert.InDelta(t, 0.2715, rates.Recommended, 0.0001)
	// -0.2113 - 1.5 would be negative; floored.
	assert.Equal(t, 0.0, rates.Conservative)
}

func TestCompute_LowValuationRaisesRates(t *testing.T) {
	cheap, err := Compute(Inputs{CAPE: 15}, DefaultConfig())
	require.NoError(t, err)
	rich, err := Compute(Inputs{CAPE: 40}, DefaultConfig())
	require.NoError(t, err)

	assert.Greater(t, cheap.Recommended, rich.Recommended)
	assert.Greater(t, cheap.Conservative, rich.Conservative)
}

func TestCompute_InvalidInputs(t *testing.T) {
	cases := []struct {
		name string
		in   Inputs
	}{
		{"zero cape", Inputs{CAPE: 0}},
		{"negative cape", Inputs{CAPE: -5}},
		{"negative dividend", Inputs{CAPE: 30, DividendYield: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Compute(tc.in, DefaultConfig())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestCompute_ConfigOverride(t *testing.T) {
	cfg := Config{
		EarningsAdjustment: 1.0,
		Recommended:        Coefficients{Intercept: 2.0, Slope: 1.0},
		Conservative:       Coefficients{Intercept: 1.0, Slope: 2.0},
	}
	rates, err := Compute(Inputs{CAPE: 20}, cfg)
	require.NoError(t, err)
	assert.InDelta(t, 2.05, rates.Recommended, 1e-9)
	assert.InDelta(t, 1.10, rates.Conservative, 1e-9)
}
