// Package decision maps the momentum posture and withdrawal rates onto a
// Risk-On/Risk-Off action record. Pure mapping, no numeric computation.
package decision

import (
	"github.com/wfairbank/glidepath/internal/domain/momentum"
	"github.com/wfairbank/glidepath/internal/domain/swr"
)

// Action is the withdrawal guidance derived from the posture.
type Action int

const (
	DrawFromStocks Action = iota
	DrawFromBonds
)

func (a Action) String() string {
	if a == DrawFromBonds {
		return "draw from bonds"
	}
	return "draw from stocks"
}

// Record is the combined decision handed to the report formatter.
type Record struct {
	Posture          momentum.Posture `json:"posture"`
	Action           Action           `json:"action"`
	RecommendedRate  float64          `json:"recommended_rate_pct"`
	ConservativeRate float64          `json:"conservative_rate_pct"`
}

// Combine derives the decision record. Deterministic given the posture:
// Risk-On draws from stocks with the SWR rates as sizing guidance, Risk-Off
// draws from bonds.
func Combine(posture momentum.Posture, rates swr.Rates) Record {
	action := DrawFromBonds
	if posture == momentum.RiskOn {
		action = DrawFromStocks
	}
	return Record{
		Posture:          posture,
		Action:           action,
		RecommendedRate:  rates.Recommended,
		ConservativeRate: rates.Conservative,
	}
}
