package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/wfairbank/glidepath/internal/domain/review"
	"github.com/wfairbank/glidepath/internal/report"
)

// runReview executes one quarterly review against the live signal.
func runReview(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	equity, _ := cmd.Flags().GetFloat64("equity")
	bonds, _ := cmd.Flags().GetFloat64("bonds")
	quarter, _ := cmd.Flags().GetString("quarter")
	annual, _ := cmd.Flags().GetFloat64("annual")
	inflation, _ := cmd.Flags().GetFloat64("cumulative-inflation")

	if equity <= 0 {
		return errMissingFlag("equity")
	}
	if bonds < 0 {
		return fmt.Errorf("--bonds must not be negative")
	}
	if quarter == "" {
		return errMissingFlag("quarter")
	}
	if inflation <= 0 {
		return fmt.Errorf("--cumulative-inflation must be positive")
	}

	reviewCfg := cfg.Review.Domain()
	annualWithdrawal := decimal.NewFromFloat(annual)
	if annual <= 0 {
		annualWithdrawal = reviewCfg.InitialPortfolio.Mul(reviewCfg.BaseWithdrawalRate)
		log.Info().
			Str("annual", annualWithdrawal.StringFixed(2)).
			Msg("no --annual given; using initial portfolio x base rate")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	st, err := buildStack(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	score, _, err := st.computeSignal(ctx)
	if err != nil {
		return fmt.Errorf("compute signal: %w", err)
	}

	portfolio := review.Portfolio{
		Equity:              decimal.NewFromFloat(equity),
		Bonds:               decimal.NewFromFloat(bonds),
		Quarter:             quarter,
		CumulativeInflation: decimal.NewFromFloat(inflation),
	}
	portfolio = review.ApplyQuarterlyInflation(portfolio, reviewCfg.InflationRate)

	dec, after, _ := review.Run(portfolio, annualWithdrawal, reviewCfg, review.SignalFromScore(score))

	r := report.New(os.Stdout, useColor(cmd))
	r.Review(dec, after)
	return nil
}
