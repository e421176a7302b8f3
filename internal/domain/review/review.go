// Package review runs the quarterly retirement review: it maps the momentum
// score to a withdrawal source, applies Guyton-Klinger guardrails to the
// annual withdrawal, and executes the quarterly withdrawal against the
// two-sleeve portfolio. Money amounts are decimals end to end.
package review

import (
	"math"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/wfairbank/glidepath/internal/domain/momentum"
)

// Source is where the quarterly withdrawal is drawn from.
type Source int

const (
	SourceEquity Source = iota
	SourceBonds
	SourceProportional
)

func (s Source) String() string {
	switch s {
	case SourceEquity:
		return "equity"
	case SourceBonds:
		return "bond"
	default:
		return "proportional"
	}
}

// GuardRule identifies which Guyton-Klinger rule fired, if any.
type GuardRule int

const (
	RuleNone GuardRule = iota
	RuleCapitalPreservation
	RuleProsperity
)

func (r GuardRule) String() string {
	switch r {
	case RuleCapitalPreservation:
		return "capital_preservation"
	case RuleProsperity:
		return "prosperity"
	default:
		return "none"
	}
}

// Config carries the review parameters.
type Config struct {
	// InitialPortfolio is the portfolio value at retirement start; the
	// guardrail baseline before inflation adjustment.
	InitialPortfolio decimal.Decimal
	// BaseWithdrawalRate is the initial annual withdrawal as a fraction of
	// InitialPortfolio, used when the caller supplies no current amount.
	BaseWithdrawalRate decimal.Decimal
	// InflationRate is the assumed annual inflation accrued quarterly
	// against the guardrail baseline.
	InflationRate decimal.Decimal
	// StrengthThreshold is the minimum signal strength for a directed
	// withdrawal; weaker signals withdraw proportionally.
	StrengthThreshold float64
	// PreservationFloor and ProsperityCeiling bound the portfolio-to-
	// baseline ratio; crossing either adjusts the annual withdrawal by
	// GuardAdjustment.
	PreservationFloor decimal.Decimal
	ProsperityCeiling decimal.Decimal
	GuardAdjustment   decimal.Decimal
}

// DefaultConfig returns the production review parameters.
func DefaultConfig() Config {
	return Config{
		InitialPortfolio:   decimal.NewFromInt(1_000_000),
		BaseWithdrawalRate: decimal.NewFromFloat(0.05),
		InflationRate:      decimal.NewFromFloat(0.03),
		StrengthThreshold:  0.30,
		PreservationFloor:  decimal.NewFromFloat(0.80),
		ProsperityCeiling:  decimal.NewFromFloat(1.20),
		GuardAdjustment:    decimal.NewFromFloat(0.10),
	}
}

// Portfolio is the two-sleeve retirement portfolio at review time.
type Portfolio struct {
	Equity              decimal.Decimal
	Bonds               decimal.Decimal
	Quarter             string // e.g. "2026-Q1"
	CumulativeInflation decimal.Decimal
}

// Total returns the combined portfolio value.
func (p Portfolio) Total() decimal.Decimal { return p.Equity.Add(p.Bonds) }

// EquityShare returns equity as a fraction of the total, zero when empty.
func (p Portfolio) EquityShare() decimal.Decimal {
	total := p.Total()
	if total.IsZero() {
		return decimal.Zero
	}
	return p.Equity.Div(total)
}

// Signal is the momentum input to the review: a signed direction in
// [-0.5, +0.5] and a strength in [0, 1].
type Signal struct {
	EquitySignal float64 `json:"equity_signal"`
	Strength     float64 `json:"signal_strength"`
}

// SignalFromScore adapts the 12-component momentum score:
// direction = bullish/total - 0.5, strength = |direction| * 2.
func SignalFromScore(s momentum.Score) Signal {
	frac := 0.5
	if s.Total > 0 {
		frac = float64(s.Bullish) / float64(s.Total)
	}
	sig := frac - 0.5
	return Signal{EquitySignal: sig, Strength: math.Abs(sig) * 2}
}

// DecideSource picks the withdrawal source: strong positive signals draw
// from equity, strong negative from bonds, weak signals proportionally.
func DecideSource(sig Signal, threshold float64) Source {
	if sig.Strength < threshold {
		return SourceProportional
	}
	if sig.EquitySignal > 0 {
		return SourceEquity
	}
	return SourceBonds
}

// ApplyQuarterlyInflation accrues one quarter of inflation onto the
// portfolio's baseline tracker.
func ApplyQuarterlyInflation(p Portfolio, annualRate decimal.Decimal) Portfolio {
	quarterly := annualRate.Div(decimal.NewFromInt(4))
	p.CumulativeInflation = p.CumulativeInflation.Mul(decimal.NewFromInt(1).Add(quarterly))
	return p
}

// Decision is the full record of one quarterly review.
type Decision struct {
	Quarter          string          `json:"quarter"`
	EquitySignal     float64         `json:"equity_signal"`
	Strength         float64         `json:"signal_strength"`
	WithdrawalAmount decimal.Decimal `json:"withdrawal_amount"`
	Source           Source          `json:"withdrawal_source"`
	Rule             GuardRule       `json:"gk_rule_triggered"`
	AnnualForward    decimal.Decimal `json:"annual_withdrawal_forward"`
	EquityAfter      decimal.Decimal `json:"equity_value_after"`
	BondsAfter       decimal.Decimal `json:"bond_value_after"`
}

// Run executes one quarterly review: guardrails first, then the quarterly
// withdrawal from the decided source. Returns the decision record, the
// post-withdrawal portfolio, and the adjusted annual withdrawal to carry
// forward.
func Run(p Portfolio, annualWithdrawal decimal.Decimal, cfg Config, sig Signal) (Decision, Portfolio, decimal.Decimal) {
	annual, rule := applyGuardrails(annualWithdrawal, p, cfg)
	if rule != RuleNone {
		log.Info().
			Str("quarter", p.Quarter).
			Str("rule", rule.String()).
			Str("annual_before", annualWithdrawal.StringFixed(2)).
			Str("annual_after", annual.StringFixed(2)).
			Msg("guardrail adjusted annual withdrawal")
	}

	source := DecideSource(sig, cfg.StrengthThreshold)
	quarterly := annual.Div(decimal.NewFromInt(4))
	p = withdraw(p, quarterly, source)

	dec := Decision{
		Quarter:          p.Quarter,
		EquitySignal:     sig.EquitySignal,
		Strength:         sig.Strength,
		WithdrawalAmount: quarterly,
		Source:           source,
		Rule:             rule,
		AnnualForward:    annual,
		EquityAfter:      p.Equity,
		BondsAfter:       p.Bonds,
	}

	log.Info().
		Str("quarter", dec.Quarter).
		Str("source", source.String()).
		Str("withdrawal", quarterly.StringFixed(2)).
		Str("total_after", p.Total().StringFixed(2)).
		Msg("quarterly review complete")

	return dec, p, annual
}

// applyGuardrails compares the portfolio to its inflation-adjusted baseline
// and adjusts the annual withdrawal when a guardrail is crossed.
func applyGuardrails(annual decimal.Decimal, p Portfolio, cfg Config) (decimal.Decimal, GuardRule) {
	baseline := cfg.InitialPortfolio.Mul(p.CumulativeInflation)
	if baseline.IsZero() {
		return annual, RuleNone
	}
	one := decimal.NewFromInt(1)
	ratio := p.Total().Div(baseline)

	switch {
	case ratio.LessThan(cfg.PreservationFloor):
		return annual.Mul(one.Sub(cfg.GuardAdjustment)), RuleCapitalPreservation
	case ratio.GreaterThan(cfg.ProsperityCeiling):
		return annual.Mul(one.Add(cfg.GuardAdjustment)), RuleProsperity
	default:
		return annual, RuleNone
	}
}

// withdraw deducts the amount from the chosen sleeve, spilling any overflow
// into the other one. Proportional splits by current weights.
func withdraw(p Portfolio, amount decimal.Decimal, source Source) Portfolio {
	switch source {
	case SourceEquity:
		if amount.GreaterThan(p.Equity) {
			log.Warn().Str("quarter", p.Quarter).
				Msg("withdrawal exceeds equity sleeve; taking remainder from bonds")
			p.Bonds = p.Bonds.Sub(amount.Sub(p.Equity))
			p.Equity = decimal.Zero
		} else {
			p.Equity = p.Equity.Sub(amount)
		}
	case SourceBonds:
		if amount.GreaterThan(p.Bonds) {
			log.Warn().Str("quarter", p.Quarter).
				Msg("withdrawal exceeds bond sleeve; taking remainder from equity")
			p.Equity = p.Equity.Sub(amount.Sub(p.Bonds))
			p.Bonds = decimal.Zero
		} else {
			p.Bonds = p.Bonds.Sub(amount)
		}
	default:
		share := p.EquityShare()
		fromEquity := amount.Mul(share)
		p.Equity = p.Equity.Sub(fromEquity)
		p.Bonds = p.Bonds.Sub(amount.Sub(fromEquity))
	}
	return p
}
