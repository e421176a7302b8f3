package momentum

import (
	"fmt"

	"github.com/wfairbank/glidepath/internal/domain/series"
)

// ComputeScore evaluates the full signal set against a normalized primary
// (total-return) series and an optional alternate (price-return) series.
// Both series are assumed pre-validated by the normalizer; alternate may be
// nil, in which case only the primary-index components are produced.
//
// The function is pure: identical inputs yield identical scores and history.
func ComputeScore(primary, alternate series.PriceSeries, cfg Config) (Score, []HistoryRow, error) {
	minLen := cfg.PrimaryWindow + 1
	if primary.Len() < minLen {
		return Score{}, nil, fmt.Errorf("%w: primary series has %d months, need %d",
			series.ErrInsufficientData, primary.Len(), minLen)
	}

	var score Score
	for _, ix := range []Index{TotalReturn, PriceReturn} {
		s := primary
		if ix == PriceReturn {
			if alternate == nil {
				continue
			}
			s = alternate
		}
		closes := s.Closes()
		last := len(closes) - 1

		for _, window := range cfg.Windows {
			for _, method := range []Method{PriceVsSMA, TrendVsLagged} {
				comp, ok := evaluate(closes, last, window, method)
				if !ok {
					return Score{}, nil, fmt.Errorf("%w: %s series too short for %d-month %s test",
						series.ErrInsufficientData, ix, window, method)
				}
				comp.Index = ix
				score.Components = append(score.Components, comp)

				if comp.RiskOn {
					score.Bullish++
				}
				score.MeanDistance += comp.Distance

				if ix == TotalReturn && window == cfg.PrimaryWindow && method == PriceVsSMA {
					score.PrimaryDistance = comp.Distance
					if comp.RiskOn {
						score.Posture = RiskOn
					} else {
						score.Posture = RiskOff
					}
				}
			}
		}
	}

	score.Total = len(score.Components)
	score.MeanDistance /= float64(score.Total)

	history := historyTable(primary, cfg)
	return score, history, nil
}

// evaluate runs a single component test at the latest position.
func evaluate(closes []float64, last, window int, method Method) (Component, bool) {
	sma, ok := smaAt(closes, window, last)
	if !ok {
		return Component{}, false
	}

	var value, reference float64
	switch method {
	case TrendVsLagged:
		lagged, ok := smaAt(closes, window, last-1)
		if !ok {
			return Component{}, false
		}
		value, reference = sma, lagged
	default:
		value, reference = closes[last], sma
	}

	return Component{
		Window: window,
		Method: method,
		// Ties resolve to Risk-Off: strictly greater is required.
		RiskOn:   value > reference,
		Distance: distance(value, reference),
	}, true
}

// historyTable emits the trailing display rows of the primary index against
// its primary-window SMA. Rows without a defined SMA are excluded, so a
// series near the minimum length may yield fewer than cfg.HistoryRows rows.
func historyTable(s series.PriceSeries, cfg Config) []HistoryRow {
	closes := s.Closes()
	var rows []HistoryRow
	start := len(closes) - cfg.HistoryRows
	if start < 0 {
		start = 0
	}
	for i := start; i < len(closes); i++ {
		sma, ok := smaAt(closes, cfg.PrimaryWindow, i)
		if !ok {
			continue
		}
		rows = append(rows, HistoryRow{
			Month:    s[i].Month,
			Close:    closes[i],
			SMA:      sma,
			Distance: distance(closes[i], sma),
		})
	}
	return rows
}
