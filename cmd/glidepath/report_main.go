package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/wfairbank/glidepath/internal/config"
	"github.com/wfairbank/glidepath/internal/data"
	"github.com/wfairbank/glidepath/internal/data/cache"
	"github.com/wfairbank/glidepath/internal/domain/decision"
	"github.com/wfairbank/glidepath/internal/domain/momentum"
	"github.com/wfairbank/glidepath/internal/domain/swr"
	"github.com/wfairbank/glidepath/internal/provider/yahoo"
	"github.com/wfairbank/glidepath/internal/report"
	"github.com/wfairbank/glidepath/internal/telemetry/metrics"
)

// stack is the wired engine: config, metrics, cache, and the data facade.
type stack struct {
	cfg    config.Config
	reg    *metrics.Registry
	cache  cache.Cache
	facade *data.Facade
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = config.DefaultPath
	}
	return config.Load(path)
}

// buildStack wires the provider chain for commands that fetch live data.
func buildStack(ctx context.Context, cfg config.Config) (*stack, error) {
	reg := metrics.New()

	var c cache.Cache
	switch cfg.Cache.Backend {
	case "memory":
		c = cache.NewMemory()
	case "redis":
		rc, err := cache.NewRedis(ctx, cfg.Cache.Redis)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		c = rc
	default:
		c = cache.Nop{}
	}

	client := yahoo.New(cfg.Provider.Yahoo(), reg, log.Logger)
	facade := data.New(client, c, cfg.Cache.TTL(), cfg.Signal.Series(), reg, log.Logger)

	return &stack{cfg: cfg, reg: reg, cache: c, facade: facade}, nil
}

func (s *stack) Close() {
	if err := s.cache.Close(); err != nil {
		log.Warn().Err(err).Msg("cache close failed")
	}
}

// computeSignal fetches both index series and scores them.
func (s *stack) computeSignal(ctx context.Context) (momentum.Score, []momentum.HistoryRow, error) {
	primary, alternate, err := s.facade.MonthlyPair(ctx, s.cfg.Tickers.Primary, s.cfg.Tickers.Alternate)
	if err != nil {
		return momentum.Score{}, nil, err
	}
	score, history, err := momentum.ComputeScore(primary, alternate, s.cfg.Signal.Momentum())
	if err != nil {
		return momentum.Score{}, nil, err
	}
	s.reg.SignalComputed()
	return score, history, nil
}

// capeInput resolves the CAPE from the flag, falling back to the config.
func capeInput(cmd *cobra.Command, cfg config.Config) float64 {
	if cape, _ := cmd.Flags().GetFloat64("cape"); cape > 0 {
		return cape
	}
	return cfg.Valuation.CAPE
}

// runReport is the root command: signal, withdrawal rates, and decision.
func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	st, err := buildStack(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	score, history, err := st.computeSignal(ctx)
	if err != nil {
		return fmt.Errorf("compute signal: %w", err)
	}

	r := report.New(os.Stdout, useColor(cmd))
	r.Signal(cfg.Tickers.Primary, score, history)
	if showComponents, _ := cmd.Flags().GetBool("components"); showComponents {
		r.Components(score)
	}

	cape := capeInput(cmd, cfg)
	if cape <= 0 {
		log.Warn().Msg("no CAPE supplied; skipping withdrawal rates (use --cape or set valuation.cape)")
		return nil
	}
	dividend, _ := cmd.Flags().GetFloat64("dividend")

	rates, err := swr.Compute(swr.Inputs{CAPE: cape, DividendYield: dividend}, cfg.Valuation.Model)
	if err != nil {
		return fmt.Errorf("compute withdrawal rates: %w", err)
	}
	r.SWR(cape, dividend, rates)
	r.Decision(decision.Combine(score.Posture, rates))
	return nil
}

// runSignal computes and prints the momentum signal only.
func runSignal(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	st, err := buildStack(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	score, history, err := st.computeSignal(ctx)
	if err != nil {
		return fmt.Errorf("compute signal: %w", err)
	}

	r := report.New(os.Stdout, useColor(cmd))
	r.Signal(cfg.Tickers.Primary, score, history)
	if showComponents, _ := cmd.Flags().GetBool("components"); showComponents {
		r.Components(score)
	}
	return nil
}

// errMissingFlag reports a required flag that was not supplied.
func errMissingFlag(name string) error {
	return errors.New("--" + name + " is required")
}
