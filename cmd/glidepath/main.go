package main

import (
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

const (
	appName = "glidepath"
	version = "v1.1.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Str("run_id", uuid.New().String()[:8]).Logger()

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Monthly trend-following signal and withdrawal-rate engine",
		Version: version,
		Long: `glidepath computes the monthly trend-following signal for a total-return
equity index, derives CAPE-based safe withdrawal rates, and combines both
into an actionable drawdown decision.

Run with no subcommand for the full report: momentum signal, withdrawal
rates, and the combined decision.`,
		RunE:          runReport,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Accept underscore forms (--no_color) alongside the dashed spellings.
	rootCmd.SetGlobalNormalizationFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	rootCmd.PersistentFlags().String("config", "", "Config file path (default config/glidepath.yaml)")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable ANSI color output")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")

	rootCmd.Flags().Float64("cape", 0, "Current Shiller CAPE (overrides config)")
	rootCmd.Flags().Float64("dividend", 0, "Dividend yield in percent, subtracted from the rates")
	rootCmd.Flags().Bool("components", false, "Show the full 12-component breakdown")

	signalCmd := &cobra.Command{
		Use:   "signal",
		Short: "Compute the momentum signal only",
		Long:  "Fetch monthly closes, compute the 12-component momentum signal, and print the posture with the trailing history table. No valuation inputs needed.",
		RunE:  runSignal,
	}
	signalCmd.Flags().Bool("components", false, "Show the full 12-component breakdown")

	swrCmd := &cobra.Command{
		Use:   "swr",
		Short: "Compute safe withdrawal rates from CAPE",
		Long:  "Derive the recommended and conservative withdrawal rates from the Shiller CAPE. Runs fully offline.",
		RunE:  runSWR,
	}
	swrCmd.Flags().Float64("cape", 0, "Current Shiller CAPE (required unless set in config)")
	swrCmd.Flags().Float64("dividend", 0, "Dividend yield in percent, subtracted from the rates")

	reviewCmd := &cobra.Command{
		Use:   "review",
		Short: "Run one quarterly portfolio review",
		Long:  "Apply Guyton-Klinger guardrails and execute one quarterly withdrawal, directing it by the live momentum signal.",
		RunE:  runReview,
	}
	reviewCmd.Flags().Float64("equity", 0, "Current equity sleeve value (required)")
	reviewCmd.Flags().Float64("bonds", 0, "Current bond sleeve value (required)")
	reviewCmd.Flags().String("quarter", "", "Quarter label, e.g. 2026-Q3 (required)")
	reviewCmd.Flags().Float64("annual", 0, "Annual withdrawal carried into this quarter (default initial portfolio x base rate)")
	reviewCmd.Flags().Float64("cumulative-inflation", 1.0, "Cumulative inflation factor accrued since the baseline")

	monitorCmd := &cobra.Command{
		Use:   "monitor",
		Short: "Serve the signal over a local HTTP endpoint",
		Long:  "Start a read-only local HTTP server with /signal, /health, and /metrics, recomputing the signal on a fixed cadence.",
		RunE:  runMonitor,
	}
	monitorCmd.Flags().String("host", "", "Listen host (overrides config)")
	monitorCmd.Flags().Int("port", 0, "Listen port (overrides config)")

	rootCmd.AddCommand(signalCmd)
	rootCmd.AddCommand(swrCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(monitorCmd)

	cobra.OnInitialize(func() {
		if verbose, _ := rootCmd.PersistentFlags().GetBool("verbose"); !verbose {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		} else {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}
	})

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// useColor decides ANSI output: opt-out flag first, then TTY detection.
func useColor(cmd *cobra.Command) bool {
	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}
