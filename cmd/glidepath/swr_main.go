package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wfairbank/glidepath/internal/domain/swr"
	"github.com/wfairbank/glidepath/internal/report"
)

// runSWR computes withdrawal rates offline, without touching the provider.
func runSWR(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	cape := capeInput(cmd, cfg)
	if cape <= 0 {
		return errMissingFlag("cape")
	}
	dividend, _ := cmd.Flags().GetFloat64("dividend")

	rates, err := swr.Compute(swr.Inputs{CAPE: cape, DividendYield: dividend}, cfg.Valuation.Model)
	if err != nil {
		return fmt.Errorf("compute withdrawal rates: %w", err)
	}

	r := report.New(os.Stdout, useColor(cmd))
	r.SWR(cape, dividend, rates)
	return nil
}
