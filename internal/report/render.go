// Package report renders the computed signal, SWR guidance, and decision as
// colored terminal text. It consumes plain structs from the domain packages
// and embeds no computation.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/wfairbank/glidepath/internal/domain/decision"
	"github.com/wfairbank/glidepath/internal/domain/momentum"
	"github.com/wfairbank/glidepath/internal/domain/review"
	"github.com/wfairbank/glidepath/internal/domain/swr"
)

const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiDim   = "\033[2m"
	ansiRed   = "\033[31m"
	ansiGreen = "\033[32m"
	ansiOnRed = "\033[1;37;41m"
	ansiOnGrn = "\033[1;37;42m"
)

// Renderer writes report sections to w. Color is disabled for non-TTY
// output or --no-color.
type Renderer struct {
	w     io.Writer
	color bool
}

// New creates a renderer.
func New(w io.Writer, color bool) *Renderer {
	return &Renderer{w: w, color: color}
}

func (r *Renderer) style(code, s string) string {
	if !r.color {
		return s
	}
	return code + s + ansiReset
}

func (r *Renderer) signed(v float64) string {
	s := fmt.Sprintf("%+.2f%%", v)
	if v >= 0 {
		return r.style(ansiGreen, s)
	}
	return r.style(ansiRed, s)
}

// money formats a dollar amount with thousands separators.
func money(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, frac := s[:len(s)-3], s[len(s)-3:]
	var out strings.Builder
	for i, d := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			out.WriteByte(',')
		}
		out.WriteRune(d)
	}
	prefix := "$"
	if neg {
		prefix = "-$"
	}
	return prefix + out.String() + frac
}

func (r *Renderer) rule(title string) {
	fmt.Fprintf(r.w, "\n%s\n%s\n", r.style(ansiBold, title),
		strings.Repeat("═", 64))
}

// Signal renders the momentum block: posture badge, the primary test
// numbers, the trailing history table, and the 12-component summary.
func (r *Renderer) Signal(ticker string, score momentum.Score, history []momentum.HistoryRow) {
	r.rule("Momentum Signal")

	badge := r.style(ansiOnGrn, "  RISK-ON  ")
	note := fmt.Sprintf("%s is above its %s", ticker, "10-month SMA")
	if score.Posture == momentum.RiskOff {
		badge = r.style(ansiOnRed, "  RISK-OFF  ")
		note = fmt.Sprintf("%s is below its %s", ticker, "10-month SMA")
	}

	fmt.Fprintf(r.w, "  Signal    : %s\n", badge)
	if len(history) > 0 {
		latest := history[len(history)-1]
		fmt.Fprintf(r.w, "  As of     : %s\n", r.style(ansiBold, latest.Month.Format("January 2006")))
		fmt.Fprintf(r.w, "  %-9s : %s\n", ticker, r.style(ansiBold, money(latest.Close)))
		fmt.Fprintf(r.w, "  10-Mo SMA : %s  (%s from trendline)\n",
			r.style(ansiBold, money(latest.SMA)), r.signed(latest.Distance))
	}
	fmt.Fprintf(r.w, "  Note      : %s\n\n", note)

	if len(history) > 0 {
		fmt.Fprintf(r.w, "  %-10s %14s %14s %12s\n", "Month", "Index Close", "10-Mo SMA", "% from SMA")
		fmt.Fprintf(r.w, "  %s\n", strings.Repeat("─", 54))
		for _, row := range history {
			fmt.Fprintf(r.w, "  %-10s %14s %14s %12s\n",
				row.Month.Format("Jan 2006"),
				money(row.Close),
				money(row.SMA),
				r.signed(row.Distance))
		}
		fmt.Fprintln(r.w)
	}

	fmt.Fprintf(r.w, "  Components: %d of %d Risk-On, mean distance %s\n",
		score.Bullish, score.Total, r.signed(score.MeanDistance))
	fmt.Fprintf(r.w, "  %s\n", r.style(ansiDim,
		"Signal is Risk-On when the index closes above its 10-month SMA."))
}

// Components renders the full 12-signal breakdown.
func (r *Renderer) Components(score momentum.Score) {
	r.rule("Signal Components")
	fmt.Fprintf(r.w, "  %-14s %-8s %-7s %10s   %s\n", "Index", "Window", "Test", "Distance", "Signal")
	fmt.Fprintf(r.w, "  %s\n", strings.Repeat("─", 54))
	for _, c := range score.Components {
		sig := r.style(ansiGreen, "on")
		if !c.RiskOn {
			sig = r.style(ansiRed, "off")
		}
		fmt.Fprintf(r.w, "  %-14s %-8s %-7s %10s   %s\n",
			c.Index, fmt.Sprintf("%d-mo", c.Window), c.Method, r.signed(c.Distance), sig)
	}
}

// SWR renders the withdrawal-rate block.
func (r *Renderer) SWR(cape, dividend float64, rates swr.Rates) {
	r.rule("Safe Withdrawal Rate")
	fmt.Fprintf(r.w, "  CAPE          : %.2f\n", cape)
	if dividend > 0 {
		fmt.Fprintf(r.w, "  Dividend      : %.2f%% (subtracted)\n", dividend)
	}
	fmt.Fprintf(r.w, "  Recommended   : %s\n", r.style(ansiBold, fmt.Sprintf("%.2f%%", rates.Recommended)))
	fmt.Fprintf(r.w, "  Conservative  : %s\n", r.style(ansiBold, fmt.Sprintf("%.2f%%", rates.Conservative)))
}

// Decision renders the combined decision record.
func (r *Renderer) Decision(rec decision.Record) {
	r.rule("Decision")
	fmt.Fprintf(r.w, "  Posture   : %s\n", rec.Posture)
	fmt.Fprintf(r.w, "  Action    : %s\n", r.style(ansiBold, rec.Action.String()))
	fmt.Fprintf(r.w, "  Guidance  : withdraw %.2f%% (recommended) to %.2f%% (conservative)\n",
		rec.RecommendedRate, rec.ConservativeRate)
}

// Review renders the quarterly review outcome.
func (r *Renderer) Review(dec review.Decision, after review.Portfolio) {
	r.rule(fmt.Sprintf("Quarterly Review %s", dec.Quarter))
	fmt.Fprintf(r.w, "  Momentum signal   : %+.3f  (strength %.3f)\n", dec.EquitySignal, dec.Strength)
	fmt.Fprintf(r.w, "  Withdrawal source : %s\n", dec.Source)
	fmt.Fprintf(r.w, "  This quarter      : $%s\n", dec.WithdrawalAmount.StringFixed(2))
	fmt.Fprintf(r.w, "  Guardrail         : %s\n", dec.Rule)
	fmt.Fprintf(r.w, "  Annual forward    : $%s\n\n", dec.AnnualForward.StringFixed(2))
	fmt.Fprintf(r.w, "  Portfolio after   : $%s  (equity $%s | bonds $%s)\n",
		after.Total().StringFixed(2), after.Equity.StringFixed(2), after.Bonds.StringFixed(2))
}
