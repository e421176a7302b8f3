// Package momentum implements the multi-horizon trend-following signal.
//
// The authoritative signal is the classic 10-month test: latest close of the
// total-return index against its trailing 10-month SMA. Eleven supplementary
// components vary the SMA window, the comparison method, and the index, and
// are aggregated for display and for the quarterly-review signal strength.
package momentum

import "time"

// Posture is the binary market-regime classification. It derives solely from
// the primary component and is immutable once computed for an input series.
type Posture int

const (
	RiskOff Posture = iota
	RiskOn
)

func (p Posture) String() string {
	if p == RiskOn {
		return "RISK-ON"
	}
	return "RISK-OFF"
}

// Method is the comparison applied at a given horizon.
type Method int

const (
	// PriceVsSMA compares the latest close against the trailing SMA.
	PriceVsSMA Method = iota
	// TrendVsLagged compares the trailing SMA against the same SMA one
	// month earlier: the trend-of-trend test.
	TrendVsLagged
)

func (m Method) String() string {
	if m == TrendVsLagged {
		return "trend"
	}
	return "price"
}

// Index identifies which price series a component reads.
type Index int

const (
	// TotalReturn is the primary index (dividends reinvested).
	TotalReturn Index = iota
	// PriceReturn is the alternate price-only index.
	PriceReturn
)

func (ix Index) String() string {
	if ix == PriceReturn {
		return "price-return"
	}
	return "total-return"
}

// Component is one of the 12 momentum signals: an SMA window in months, a
// comparison method, and an index choice.
type Component struct {
	Window int     `json:"window"`
	Method Method  `json:"method"`
	Index  Index   `json:"index"`
	RiskOn bool    `json:"risk_on"`
	// Distance is the signed percent distance of the compared value from
	// its reference: (value - reference) / reference * 100.
	Distance float64 `json:"distance_pct"`
}

// Score aggregates the component results. Bullish/Total feed the
// quarterly-review signal; MeanDistance is the display aggregate; Posture is
// decided only by the primary component.
type Score struct {
	Components      []Component `json:"components"`
	Bullish         int         `json:"bullish"`
	Total           int         `json:"total"`
	MeanDistance    float64     `json:"mean_distance_pct"`
	Posture         Posture     `json:"posture"`
	PrimaryDistance float64     `json:"primary_distance_pct"`
}

// HistoryRow is one displayed month of the primary index against its SMA.
type HistoryRow struct {
	Month    time.Time `json:"month"`
	Close    float64   `json:"close"`
	SMA      float64   `json:"sma"`
	Distance float64   `json:"distance_pct"`
}

// Config enumerates the signal construction. Windows must be ascending and
// contain PrimaryWindow.
type Config struct {
	// Windows are the SMA horizons in months. {3, 6, 10} in production.
	Windows []int
	// PrimaryWindow is the authoritative horizon (10 months).
	PrimaryWindow int
	// HistoryRows is the number of trailing months shown in the report.
	HistoryRows int
}

// DefaultConfig returns the production signal construction.
func DefaultConfig() Config {
	return Config{
		Windows:       []int{3, 6, 10},
		PrimaryWindow: 10,
		HistoryRows:   3,
	}
}
