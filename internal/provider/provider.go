// Package provider defines the upstream data collaborator contract: a source
// of monthly closing prices per ticker, with a terminal error once its own
// retry policy is exhausted. The signal core never retries on its own.
package provider

import (
	"context"
	"fmt"
	"time"
)

// Bar is one monthly candle from an upstream source. AdjClose carries the
// dividend-adjusted close where the source provides one; zero otherwise.
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Close     float64   `json:"close"`
	AdjClose  float64   `json:"adj_close"`
}

// MonthlySource supplies time-ordered monthly bars for a ticker symbol,
// covering at least the trailing months the normalizer needs.
type MonthlySource interface {
	MonthlyBars(ctx context.Context, symbol string) ([]Bar, error)
}

// FetchError is the terminal failure of an upstream fetch: retries are
// exhausted or the payload was malformed. Fatal for the current run.
type FetchError struct {
	Provider string
	Symbol   string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s fetch for %s failed after %d attempt(s): %v",
		e.Provider, e.Symbol, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// RetryPolicy is the collaborator-side retry schedule: one initial attempt
// plus one retry per wait. The production schedule is 5s then 10s.
type RetryPolicy struct {
	Waits []time.Duration
}

// DefaultRetryPolicy returns the production schedule: 3 attempts total.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Waits: []time.Duration{5 * time.Second, 10 * time.Second}}
}

// Attempts returns the total attempt count the policy allows.
func (p RetryPolicy) Attempts() int { return len(p.Waits) + 1 }
