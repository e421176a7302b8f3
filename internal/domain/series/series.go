// Package series normalizes raw price observations into clean monthly series.
//
// Every downstream computation (SMA, momentum components, history tables)
// assumes the invariants enforced here: one observation per calendar month,
// month-start alignment, ascending contiguous months, and no in-progress month.
package series

import (
	"errors"
	"time"
)

// ErrInsufficientData is returned when a series cannot support signal
// computation. The engine refuses to emit a signal rather than guess.
var ErrInsufficientData = errors.New("insufficient data")

// Observation is a single completed-month closing price. Month is always
// the first instant of the calendar month in UTC, regardless of how the
// upstream source stamped it.
type Observation struct {
	Month time.Time `json:"month"`
	Close float64   `json:"close"`
}

// PriceSeries is an ordered sequence of monthly observations, ascending by
// month. A valid series is contiguous: each observation is exactly one
// calendar month after its predecessor.
type PriceSeries []Observation

// Len returns the number of completed months in the series.
func (s PriceSeries) Len() int { return len(s) }

// Latest returns the most recent observation. Panics on an empty series;
// callers get a non-empty series from Normalize or not at all.
func (s PriceSeries) Latest() Observation { return s[len(s)-1] }

// Closes returns the closing prices in month order.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, obs := range s {
		closes[i] = obs.Close
	}
	return closes
}

// MonthOf truncates t to the first instant of its calendar month in UTC.
func MonthOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
