// Package config loads the glidepath YAML configuration. Every tunable the
// engine uses (SMA windows, fetch depth, SWR coefficients, provider limits)
// lives here and is injected at the boundary; nothing in the domain packages
// reads globals.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/wfairbank/glidepath/internal/data/cache"
	"github.com/wfairbank/glidepath/internal/domain/momentum"
	"github.com/wfairbank/glidepath/internal/domain/review"
	"github.com/wfairbank/glidepath/internal/domain/series"
	"github.com/wfairbank/glidepath/internal/domain/swr"
	"github.com/wfairbank/glidepath/internal/provider"
	"github.com/wfairbank/glidepath/internal/provider/yahoo"
)

// DefaultPath is where Load looks when no --config flag is given.
const DefaultPath = "config/glidepath.yaml"

// Config is the full glidepath configuration tree.
type Config struct {
	Tickers   TickersConfig   `yaml:"tickers"`
	Signal    SignalConfig    `yaml:"signal"`
	Valuation ValuationConfig `yaml:"valuation"`
	Provider  ProviderConfig  `yaml:"provider"`
	Cache     CacheConfig     `yaml:"cache"`
	Review    ReviewConfig    `yaml:"review"`
	Monitor   MonitorConfig   `yaml:"monitor"`
}

// TickersConfig names the index symbols.
type TickersConfig struct {
	// Primary is the total-return index driving the authoritative signal.
	Primary string `yaml:"primary"`
	// Alternate is the price-return index for the supplementary
	// components. Empty disables the alternate components.
	Alternate string `yaml:"alternate"`
}

// SignalConfig parameterizes the momentum construction.
type SignalConfig struct {
	Windows       []int `yaml:"windows"`
	PrimaryWindow int   `yaml:"primary_window"`
	FetchMonths   int   `yaml:"fetch_months"`
	MinMonths     int   `yaml:"min_months"`
	HistoryRows   int   `yaml:"history_rows"`
}

// Series returns the normalizer limits.
func (s SignalConfig) Series() series.Config {
	return series.Config{KeepMonths: s.FetchMonths, MinMonths: s.MinMonths}
}

// Momentum returns the scorer construction.
func (s SignalConfig) Momentum() momentum.Config {
	return momentum.Config{
		Windows:       s.Windows,
		PrimaryWindow: s.PrimaryWindow,
		HistoryRows:   s.HistoryRows,
	}
}

// ValuationConfig carries the CAPE input and SWR model constants.
type ValuationConfig struct {
	// CAPE is the current Shiller CAPE. Zero means it must be supplied
	// with --cape.
	CAPE  float64    `yaml:"cape"`
	Model swr.Config `yaml:"model"`
}

// ProviderConfig carries the upstream data source limits.
type ProviderConfig struct {
	BaseURL      string        `yaml:"base_url"`
	Range        string        `yaml:"range"`
	TimeoutSecs  int           `yaml:"timeout_secs"`
	UserAgent    string        `yaml:"user_agent"`
	RPS          float64       `yaml:"rps"`
	Burst        int           `yaml:"burst"`
	RetryWaitsMS []int         `yaml:"retry_waits_ms"`
	Circuit      CircuitConfig `yaml:"circuit"`
}

// CircuitConfig carries the breaker settings.
type CircuitConfig struct {
	MaxRequests         uint32 `yaml:"max_requests"`
	IntervalSecs        int    `yaml:"interval_secs"`
	TimeoutSecs         int    `yaml:"timeout_secs"`
	ConsecutiveFailures uint32 `yaml:"consecutive_failures"`
}

// Yahoo converts the provider section into the client configuration.
func (p ProviderConfig) Yahoo() yahoo.Config {
	cfg := yahoo.DefaultConfig()
	if p.BaseURL != "" {
		cfg.BaseURL = p.BaseURL
	}
	if p.Range != "" {
		cfg.Range = p.Range
	}
	if p.TimeoutSecs > 0 {
		cfg.RequestTimeout = time.Duration(p.TimeoutSecs) * time.Second
	}
	if p.UserAgent != "" {
		cfg.UserAgent = p.UserAgent
	}
	if p.RPS > 0 {
		cfg.RPS = p.RPS
	}
	if p.Burst > 0 {
		cfg.Burst = p.Burst
	}
	if len(p.RetryWaitsMS) > 0 {
		waits := make([]time.Duration, len(p.RetryWaitsMS))
		for i, ms := range p.RetryWaitsMS {
			waits[i] = time.Duration(ms) * time.Millisecond
		}
		cfg.Retry = provider.RetryPolicy{Waits: waits}
	}
	if p.Circuit.MaxRequests > 0 {
		cfg.Breaker.MaxRequests = p.Circuit.MaxRequests
	}
	if p.Circuit.IntervalSecs > 0 {
		cfg.Breaker.Interval = time.Duration(p.Circuit.IntervalSecs) * time.Second
	}
	if p.Circuit.TimeoutSecs > 0 {
		cfg.Breaker.Timeout = time.Duration(p.Circuit.TimeoutSecs) * time.Second
	}
	if p.Circuit.ConsecutiveFailures > 0 {
		cfg.Breaker.ConsecutiveFailures = p.Circuit.ConsecutiveFailures
	}
	return cfg
}

// CacheConfig selects the warm-cache backend.
type CacheConfig struct {
	// Backend is one of "memory", "redis", or "none".
	Backend    string            `yaml:"backend"`
	TTLMinutes int               `yaml:"ttl_minutes"`
	Redis      cache.RedisConfig `yaml:"redis"`
}

// TTL returns the configured cache TTL.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// ReviewConfig carries the quarterly-review parameters.
type ReviewConfig struct {
	InitialPortfolio   float64 `yaml:"initial_portfolio"`
	BaseWithdrawalRate float64 `yaml:"base_withdrawal_rate"`
	InflationRate      float64 `yaml:"inflation_rate"`
	StrengthThreshold  float64 `yaml:"strength_threshold"`
	PreservationFloor  float64 `yaml:"preservation_floor"`
	ProsperityCeiling  float64 `yaml:"prosperity_ceiling"`
	GuardAdjustment    float64 `yaml:"guard_adjustment"`
}

// Domain converts the review section into the domain configuration.
func (r ReviewConfig) Domain() review.Config {
	return review.Config{
		InitialPortfolio:   decimal.NewFromFloat(r.InitialPortfolio),
		BaseWithdrawalRate: decimal.NewFromFloat(r.BaseWithdrawalRate),
		InflationRate:      decimal.NewFromFloat(r.InflationRate),
		StrengthThreshold:  r.StrengthThreshold,
		PreservationFloor:  decimal.NewFromFloat(r.PreservationFloor),
		ProsperityCeiling:  decimal.NewFromFloat(r.ProsperityCeiling),
		GuardAdjustment:    decimal.NewFromFloat(r.GuardAdjustment),
	}
}

// MonitorConfig carries the monitor-mode server settings.
type MonitorConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	RefreshMinutes int    `yaml:"refresh_minutes"`
}

// Default returns the production configuration.
func Default() Config {
	return Config{
		Tickers: TickersConfig{
			Primary:   "^SP500TR",
			Alternate: "^GSPC",
		},
		Signal: SignalConfig{
			Windows:       []int{3, 6, 10},
			PrimaryWindow: 10,
			FetchMonths:   15,
			MinMonths:     11,
			HistoryRows:   3,
		},
		Valuation: ValuationConfig{
			Model: swr.DefaultConfig(),
		},
		Provider: ProviderConfig{
			BaseURL:      "https://query1.finance.yahoo.com",
			Range:        "2y",
			TimeoutSecs:  10,
			UserAgent:    "glidepath/1.0",
			RPS:          2,
			Burst:        4,
			RetryWaitsMS: []int{5000, 10000},
			Circuit: CircuitConfig{
				MaxRequests:         1,
				IntervalSecs:        60,
				TimeoutSecs:         30,
				ConsecutiveFailures: 5,
			},
		},
		Cache: CacheConfig{
			Backend:    "memory",
			TTLMinutes: 360,
		},
		Review: ReviewConfig{
			InitialPortfolio:   1_000_000,
			BaseWithdrawalRate: 0.05,
			InflationRate:      0.03,
			StrengthThreshold:  0.30,
			PreservationFloor:  0.80,
			ProsperityCeiling:  1.20,
			GuardAdjustment:    0.10,
		},
		Monitor: MonitorConfig{
			Host:           "127.0.0.1",
			Port:           8090,
			RefreshMinutes: 360,
		},
	}
}

// Load reads the configuration at path, layering it over the defaults. A
// missing file yields the defaults; a malformed one is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	if c.Tickers.Primary == "" {
		return fmt.Errorf("tickers.primary must be set")
	}
	if c.Signal.PrimaryWindow <= 0 {
		return fmt.Errorf("signal.primary_window must be positive")
	}
	if len(c.Signal.Windows) == 0 {
		return fmt.Errorf("signal.windows must not be empty")
	}
	found := false
	prev := 0
	for _, w := range c.Signal.Windows {
		if w <= prev {
			return fmt.Errorf("signal.windows must be ascending and positive")
		}
		prev = w
		if w == c.Signal.PrimaryWindow {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("signal.windows must contain primary_window %d", c.Signal.PrimaryWindow)
	}
	// The trend test at window w needs w+1 months.
	if maxWindow := c.Signal.Windows[len(c.Signal.Windows)-1]; c.Signal.MinMonths < maxWindow+1 {
		return fmt.Errorf("signal.min_months must be at least the largest window+1 (%d)", maxWindow+1)
	}
	if c.Signal.FetchMonths < c.Signal.MinMonths {
		return fmt.Errorf("signal.fetch_months must be at least min_months")
	}
	switch c.Cache.Backend {
	case "memory", "redis", "none":
	default:
		return fmt.Errorf("cache.backend must be memory, redis, or none; got %q", c.Cache.Backend)
	}
	if c.Cache.Backend == "redis" && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("cache.redis.addr must be set for the redis backend")
	}
	return nil
}
