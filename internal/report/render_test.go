package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/wfairbank/glidepath/internal/domain/decision"
	"github.com/wfairbank/glidepath/internal/domain/momentum"
	"github.com/wfairbank/glidepath/internal/domain/review"
	"github.com/wfairbank/glidepath/internal/domain/swr"
)

func sampleHistory() []momentum.HistoryRow {
	base := time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC)
	return []momentum.HistoryRow{
		{Month: base, Close: 11850.25, SMA: 11500.00, Distance: 3.05},
		{Month: base.AddDate(0, 1, 0), Close: 11950.50, SMA: 11600.00, Distance: 3.02},
		{Month: base.AddDate(0, 2, 0), Close: 12043.75, SMA: 11700.00, Distance: 2.94},
	}
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "$12,043.75", money(12043.75))
	assert.Equal(t, "$100.00", money(100))
	assert.Equal(t, "$1,000,000.00", money(1_000_000))
	assert.Equal(t, "-$1,234.50", money(-1234.5))
}

func TestSignal_PlainOutput(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, false)

	score := momentum.Score{Posture: momentum.RiskOn, Bullish: 10, Total: 12, MeanDistance: 2.1}
	r.Signal("^SP500TR", score, sampleHistory())
	out := buf.String()

	assert.Contains(t, out, "RISK-ON")
	assert.Contains(t, out, "July 2026")
	assert.Contains(t, out, "$12,043.75")
	assert.Contains(t, out, "10 of 12 Risk-On")
	assert.NotContains(t, out, "\033[", "color disabled must emit no ANSI codes")
}

func TestSignal_RiskOffBadge(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, false)

	r.Signal("^SP500TR", momentum.Score{Posture: momentum.RiskOff}, nil)
	assert.Contains(t, buf.String(), "RISK-OFF")
	assert.Contains(t, buf.String(), "below its 10-month SMA")
}

func TestSignal_ColorOutput(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, true)

	r.Signal("^SP500TR", momentum.Score{Posture: momentum.RiskOn}, sampleHistory())
	assert.Contains(t, buf.String(), "\033[", "color enabled must emit ANSI codes")
}

func TestComponents(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, false)

	score := momentum.Score{Components: []momentum.Component{
		{Window: 10, Method: momentum.PriceVsSMA, Index: momentum.TotalReturn, RiskOn: true, Distance: 3.0},
		{Window: 3, Method: momentum.TrendVsLagged, Index: momentum.PriceReturn, RiskOn: false, Distance: -0.4},
	}}
	r.Components(score)
	out := buf.String()

	assert.Contains(t, out, "total-return")
	assert.Contains(t, out, "price-return")
	assert.Contains(t, out, "10-mo")
	assert.Contains(t, out, "trend")
}

func TestSWRAndDecision(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, false)

	rates := swr.Rates{Recommended: 1.77, Conservative: 0.0}
	r.SWR(30, 1.5, rates)
	r.Decision(decision.Combine(momentum.RiskOff, rates))
	out := buf.String()

	assert.Contains(t, out, "CAPE          : 30.00")
	assert.Contains(t, out, "1.5")
	assert.Contains(t, out, "draw from bonds")
	assert.Contains(t, out, "RISK-OFF")
}

func TestReview(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, false)

	dec := review.Decision{
		Quarter:          "2026-Q3",
		EquitySignal:     0.25,
		Strength:         0.5,
		WithdrawalAmount: decimal.NewFromInt(12_500),
		Source:           review.SourceEquity,
		Rule:             review.RuleNone,
		AnnualForward:    decimal.NewFromInt(50_000),
	}
	after := review.Portfolio{
		Equity: decimal.NewFromInt(837_500),
		Bonds:  decimal.NewFromInt(150_000),
	}
	r.Review(dec, after)
	out := buf.String()

	assert.Contains(t, out, "2026-Q3")
	assert.Contains(t, out, "equity")
	assert.Contains(t, out, "12500.00")
	assert.True(t, strings.Contains(out, "987500.00"))
}
