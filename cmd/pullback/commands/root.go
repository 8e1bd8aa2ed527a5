// Package commands implements the pullback CLI.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	strategyFile string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pullback",
	Short: "Pullback screener - 저베타 눌림목 종목 스크리닝",
	Long: `Pullback screener CLI

Fetches daily prices for a ticker universe, measures each ticker against a
benchmark (beta, mean/stdev of daily returns, historical and recent window
returns), keeps the tickers passing the strategy rules and ranks them by score.

Usage:
  go run ./cmd/pullback [command]

Examples:
  go run ./cmd/pullback run --top 10
  go run ./cmd/pullback run --tickers AAPL,MSFT,KO --recent-window 5
  go run ./cmd/pullback universe
  go run ./cmd/pullback api --schedule
  go run ./cmd/pullback scheduler start`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&strategyFile, "strategy", "", "strategy YAML (default: $STRATEGY_FILE)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging to console")
}
