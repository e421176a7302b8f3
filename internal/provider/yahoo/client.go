// Package yahoo implements the upstream data collaborator against the Yahoo
// Finance v8 chart API: monthly candles per ticker, guarded by a per-host
// rate limiter and a circuit breaker, with a fixed terminal retry schedule.
package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/wfairbank/glidepath/internal/net/ratelimit"
	"github.com/wfairbank/glidepath/internal/provider"
	"github.com/wfairbank/glidepath/internal/telemetry/metrics"
)

const providerName = "yahoo"

// Config holds the client limits. Every value has a production default; see
// DefaultConfig.
type Config struct {
	BaseURL        string
	Range          string // chart range parameter, e.g. "2y"
	Interval       string // chart interval, "1mo"
	RequestTimeout time.Duration
	UserAgent      string
	RPS            float64
	Burst          int
	Retry          provider.RetryPolicy
	Breaker        BreakerConfig
}

// BreakerConfig holds the gobreaker settings for the provider.
type BreakerConfig struct {
	MaxRequests         uint32
	Interval            time.Duration
	Timeout             time.Duration
	ConsecutiveFailures uint32
}

// DefaultConfig returns production limits: a 2-year monthly range (15
// completed months plus margin), conservative rate limits, and the 5s/10s
// retry schedule.
func DefaultConfig() Config {
	return Config{
		BaseURL:        "https://query1.finance.yahoo.com",
		Range:          "2y",
		Interval:       "1mo",
		RequestTimeout: 10 * time.Second,
		UserAgent:      "glidepath/1.0",
		RPS:            2.0,
		Burst:          4,
		Retry:          provider.DefaultRetryPolicy(),
		Breaker: BreakerConfig{
			MaxRequests:         1,
			Interval:            60 * time.Second,
			Timeout:             30 * time.Second,
			ConsecutiveFailures: 5,
		},
	}
}

// Client fetches monthly bars from Yahoo Finance.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *ratelimit.Limiter
	breaker *gobreaker.CircuitBreaker
	metrics *metrics.Registry
	log     zerolog.Logger

	// sleep is swapped out in tests to avoid real retry waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a client with the given limits.
func New(cfg Config, reg *metrics.Registry, log zerolog.Logger) *Client {
	settings := gobreaker.Settings{
		Name:        providerName,
		MaxRequests: cfg.Breaker.MaxRequests,
		Interval:    cfg.Breaker.Interval,
		Timeout:     cfg.Breaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.Breaker.ConsecutiveFailures
		},
	}
	if reg != nil {
		settings.OnStateChange = func(name string, from, to gobreaker.State) {
			reg.SetBreakerState(name, to.String())
		}
	}

	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.RequestTimeout},
		limiter: ratelimit.New(cfg.RPS, cfg.Burst),
		breaker: gobreaker.NewCircuitBreaker(settings),
		metrics: reg,
		log:     log.With().Str("provider", providerName).Logger(),
		sleep:   sleepCtx,
	}
}

// MonthlyBars fetches monthly candles for symbol. It retries transient
// failures on the configured schedule and returns a *provider.FetchError
// once the schedule is exhausted or the payload is malformed.
func (c *Client) MonthlyBars(ctx context.Context, symbol string) ([]provider.Bar, error) {
	var lastErr error
	attempts := c.cfg.Retry.Attempts()

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			wait := c.cfg.Retry.Waits[attempt-1]
			c.log.Warn().
				Str("symbol", symbol).
				Dur("wait", wait).
				Int("attempt", attempt+1).
				Msg("retrying chart request")
			if err := c.sleep(ctx, wait); err != nil {
				return nil, &provider.FetchError{Provider: providerName, Symbol: symbol, Attempts: attempt, Err: err}
			}
		}

		bars, err := c.fetchOnce(ctx, symbol)
		if err == nil {
			return bars, nil
		}
		lastErr = err

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			break
		}
	}

	return nil, &provider.FetchError{
		Provider: providerName,
		Symbol:   symbol,
		Attempts: attempts,
		Err:      lastErr,
	}
}

func (c *Client) fetchOnce(ctx context.Context, symbol string) ([]provider.Bar, error) {
	u, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("bad base URL: %w", err)
	}
	host := u.Host

	if err := c.limiter.Wait(ctx, host); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=%s",
		c.cfg.BaseURL, url.PathEscape(symbol), c.cfg.Range, c.cfg.Interval)

	start := time.Now()
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.doRequest(ctx, endpoint)
	})
	c.observe(symbol, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	return parseBars(result.(*chartResponse), symbol)
}

func (c *Client) doRequest(ctx context.Context, endpoint string) (*chartResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("HTTP %d from chart API", resp.StatusCode)
	}

	var payload chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode chart response: %w", err)
	}
	return &payload, nil
}

// parseBars flattens the chart payload, skipping null candles. A month with
// no adjusted close falls back to zero AdjClose; the data facade decides
// which field it needs.
func parseBars(payload *chartResponse, symbol string) ([]provider.Bar, error) {
	if payload.Chart.Error != nil {
		return nil, fmt.Errorf("chart API error %s: %s",
			payload.Chart.Error.Code, payload.Chart.Error.Description)
	}
	if len(payload.Chart.Result) == 0 {
		return nil, fmt.Errorf("empty chart result for %s", symbol)
	}

	result := payload.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no quote indicators for %s", symbol)
	}
	closes := result.Indicators.Quote[0].Close
	if len(closes) != len(result.Timestamp) {
		return nil, fmt.Errorf("malformed chart payload for %s: %d closes for %d timestamps",
			symbol, len(closes), len(result.Timestamp))
	}

	var adj []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adj = result.Indicators.AdjClose[0].AdjClose
	}

	bars := make([]provider.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if closes[i] == nil {
			continue
		}
		bar := provider.Bar{
			Timestamp: time.Unix(ts, 0).UTC(),
			Close:     *closes[i],
		}
		if i < len(adj) && adj[i] != nil {
			bar.AdjClose = *adj[i]
		}
		bars = append(bars, bar)
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("no usable candles for %s", symbol)
	}
	return bars, nil
}

func (c *Client) observe(symbol string, elapsed time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	if c.metrics != nil {
		c.metrics.ObserveFetch(providerName, outcome, elapsed)
	}
	c.log.Debug().
		Str("symbol", symbol).
		Str("result", outcome).
		Dur("elapsed", elapsed).
		Msg("chart request")
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
