package series

import (
	"fmt"
	"sort"
	"time"
)

// RawObservation is an upstream (timestamp, close) pair before normalization.
// Sources may stamp end-of-month, deliver intra-month duplicates, or include
// the current in-progress month; Normalize fixes all of that.
type RawObservation struct {
	Time  time.Time
	Close float64
}

// Config carries the normalization limits. Injected rather than read from
// globals so tests can shrink the window.
type Config struct {
	// KeepMonths is the trailing window retained after normalization.
	// 15 in production: 10 for the SMA window plus a 5-month buffer so the
	// last 3 displayed rows always carry a full trailing SMA.
	KeepMonths int

	// MinMonths is the minimum completed months required to compute a
	// signal: the SMA window plus the current month (11 in production).
	MinMonths int
}

// Normalize collapses raw observations into a clean PriceSeries.
//
// Rules, in order:
//   - non-positive closes are discarded (null candles from the source)
//   - each calendar month keeps only its last available close
//   - months are re-aligned to month start, so end-of-month-stamped
//     sources compare equal to month-start-stamped ones
//   - the month containing now is dropped; a signal is never computed on a
//     partial candle
//   - only the trailing cfg.KeepMonths months are retained
//
// Returns ErrInsufficientData when fewer than cfg.MinMonths completed months
// survive, or when the retained window has a gap.
func Normalize(raw []RawObservation, now time.Time, cfg Config) (PriceSeries, error) {
	latest := make(map[time.Time]RawObservation, len(raw))
	for _, obs := range raw {
		if obs.Close <= 0 {
			continue
		}
		month := MonthOf(obs.Time)
		if prev, ok := latest[month]; ok && !obs.Time.After(prev.Time) {
			continue
		}
		latest[month] = obs
	}

	current := MonthOf(now)
	months := make([]time.Time, 0, len(latest))
	for month := range latest {
		if month.Equal(current) {
			continue
		}
		months = append(months, month)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	if len(months) > cfg.KeepMonths {
		months = months[len(months)-cfg.KeepMonths:]
	}

	if len(months) < cfg.MinMonths {
		return nil, fmt.Errorf("%w: need %d completed months, got %d",
			ErrInsufficientData, cfg.MinMonths, len(months))
	}

	out := make(PriceSeries, len(months))
	for i, month := range months {
		if i > 0 {
			expect := months[i-1].AddDate(0, 1, 0)
			if !month.Equal(expect) {
				return nil, fmt.Errorf("%w: gap between %s and %s",
					ErrInsufficientData,
					months[i-1].Format("2006-01"), month.Format("2006-01"))
			}
		}
		out[i] = Observation{Month: month, Close: latest[month].Close}
	}
	return out, nil
}
