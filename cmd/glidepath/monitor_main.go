package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/wfairbank/glidepath/internal/domain/decision"
	"github.com/wfairbank/glidepath/internal/domain/swr"
	"github.com/wfairbank/glidepath/internal/monitor"
)

// runMonitor starts the read-only monitoring HTTP server.
func runMonitor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.Monitor.Host = host
	}
	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		cfg.Monitor.Port = port
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	st, err := buildStack(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	refresh := func(ctx context.Context) (monitor.Snapshot, error) {
		score, history, err := st.computeSignal(ctx)
		if err != nil {
			return monitor.Snapshot{}, err
		}
		snap := monitor.Snapshot{
			Ticker:          cfg.Tickers.Primary,
			Posture:         score.Posture.String(),
			Bullish:         score.Bullish,
			Total:           score.Total,
			MeanDistance:    score.MeanDistance,
			PrimaryDistance: score.PrimaryDistance,
		}
		if len(history) > 0 {
			snap.AsOf = history[len(history)-1].Month
		}
		if cfg.Valuation.CAPE > 0 {
			rates, err := swr.Compute(swr.Inputs{CAPE: cfg.Valuation.CAPE}, cfg.Valuation.Model)
			if err != nil {
				return monitor.Snapshot{}, err
			}
			rec := decision.Combine(score.Posture, rates)
			snap.RecommendedRate = rec.RecommendedRate
			snap.ConservativeRate = rec.ConservativeRate
			snap.Action = rec.Action.String()
		}
		return snap, nil
	}

	serverCfg := monitor.DefaultConfig()
	serverCfg.Host = cfg.Monitor.Host
	serverCfg.Port = cfg.Monitor.Port
	if cfg.Monitor.RefreshMinutes > 0 {
		serverCfg.Refresh = time.Duration(cfg.Monitor.RefreshMinutes) * time.Minute
	}

	srv, err := monitor.New(serverCfg, st.reg, refresh, log.Logger)
	if err != nil {
		return fmt.Errorf("monitor server: %w", err)
	}

	log.Info().Str("addr", srv.Address()).Msg("starting monitor server")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Info().Msg("shutdown signal received")
		cancel()
	}()

	return srv.Run(ctx)
}
