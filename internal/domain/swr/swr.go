// Package swr derives safe-withdrawal-rate guidance from the Shiller CAPE.
//
// Both models are linear in inverse CAPE after the ERN earnings adjustment:
//
//	rate = intercept + slope / (cape * earningsAdjustment)
//
// with rates expressed in percent per year.
package swr

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput is returned for a non-positive or non-finite CAPE, or a
// malformed dividend yield.
var ErrInvalidInput = errors.New("invalid input")

// Coefficients parameterize one withdrawal-rate model.
type Coefficients struct {
	Intercept float64 `yaml:"intercept"` // percent
	Slope     float64 `yaml:"slope"`
}

// Config carries the model constants. Injected at the boundary so tests can
// override them without touching the computation.
type Config struct {
	// EarningsAdjustment scales raw CAPE before inversion (0.775).
	EarningsAdjustment float64      `yaml:"earnings_adjustment"`
	Recommended        Coefficients `yaml:"recommended"`
	Conservative       Coefficients `yaml:"conservative"`
}

// DefaultConfig returns the published ERN model constants.
func DefaultConfig() Config {
	return Config{
		EarningsAdjustment: 0.775,
		Recommended:        Coefficients{Intercept: 1.75, Slope: 0.50},
		Conservative:       Coefficients{Intercept: -0.25, Slope: 0.90},
	}
}

// Inputs are the valuation inputs for one computation.
type Inputs struct {
	// CAPE is the current cyclically adjusted P/E ratio. Must be positive.
	CAPE float64
	// DividendYield in percent. When positive it is subtracted from each
	// computed rate, floored at zero. Zero means no adjustment.
	DividendYield float64
}

// Rates is the derived result, in percent per year. Never mutated after
// computation.
type Rates struct {
	Recommended  float64 `json:"recommended_pct"`
	Conservative float64 `json:"conservative_pct"`
}

// Compute evaluates both models for the given inputs.
//
// Floor policy: without a dividend adjustment the literal formula result is
// returned, so the Conservative rate may be negative at high valuations.
// A supplied dividend subtracts from each rate and floors at zero, since a
// negative withdrawal rate is not actionable.
func Compute(in Inputs, cfg Config) (Rates, error) {
	if in.CAPE <= 0 || math.IsNaN(in.CAPE) || math.IsInf(in.CAPE, 0) {
		return Rates{}, fmt.Errorf("%w: CAPE must be positive, got %v", ErrInvalidInput, in.CAPE)
	}
	if in.DividendYield < 0 || math.IsNaN(in.DividendYield) || math.IsInf(in.DividendYield, 0) {
		return Rates{}, fmt.Errorf("%w: dividend yield must be >= 0, got %v", ErrInvalidInput, in.DividendYield)
	}

	adjusted := in.CAPE * cfg.EarningsAdjustment
	out := Rates{
		Recommended:  cfg.Recommended.Intercept + cfg.Recommended.Slope/adjusted,
		Conservative: cfg.Conservative.Intercept + cfg.Conservative.Slope/adjusted,
	}

	if in.DividendYield > 0 {
		out.Recommended = math.Max(out.Recommended-in.DividendYield, 0)
		out.Conservative = math.Max(out.Conservative-in.DividendYield, 0)
	}
	return out, nil
}
