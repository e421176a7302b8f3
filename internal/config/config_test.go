package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glidepath.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tickers:
  primary: "^SP500TR"
  alternate: ""
valuation:
  cape: 32.5
provider:
  rps: 0.5
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Empty(t, cfg.Tickers.Alternate)
	assert.Equal(t, 32.5, cfg.Valuation.CAPE)
	assert.Equal(t, 0.5, cfg.Provider.RPS)
	// Untouched sections keep their defaults.
	assert.Equal(t, []int{3, 6, 10}, cfg.Signal.Windows)
	assert.Equal(t, 15, cfg.Signal.FetchMonths)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tickers: ["), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty primary ticker", func(c *Config) { c.Tickers.Primary = "" }},
		{"unsorted windows", func(c *Config) { c.Signal.Windows = []int{10, 3, 6} }},
		{"windows missing primary", func(c *Config) { c.Signal.Windows = []int{3, 6, 12}; c.Signal.PrimaryWindow = 10 }},
		{"min months below largest window", func(c *Config) { c.Signal.MinMonths = 9 }},
		{"fetch below min", func(c *Config) { c.Signal.FetchMonths = 10 }},
		{"unknown cache backend", func(c *Config) { c.Cache.Backend = "memcached" }},
		{"redis backend without addr", func(c *Config) { c.Cache.Backend = "redis" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestProviderConfig_YahooConversion(t *testing.T) {
	p := Default().Provider
	p.RetryWaitsMS = []int{100, 200}
	p.TimeoutSecs = 7

	ycfg := p.Yahoo()
	assert.Equal(t, 7*time.Second, ycfg.RequestTimeout)
	require.Len(t, ycfg.Retry.Waits, 2)
	assert.Equal(t, 100*time.Millisecond, ycfg.Retry.Waits[0])
	assert.Equal(t, 3, ycfg.Retry.Attempts())
}

func TestReviewConfig_DomainConversion(t *testing.T) {
	r := Default().Review.Domain()
	assert.True(t, r.InitialPortfolio.IntPart() == 1_000_000)
	assert.Equal(t, 0.30, r.StrengthThreshold)
}
