package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/pullback/internal/contracts"
	"github.com/wonny/pullback/internal/report"
	"github.com/wonny/pullback/internal/strategyconfig"
)

// runCmd runs one screening pass and prints the ranking
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "스크리닝 1회 실행",
	Long: `Builds the universe, runs the screening pipeline once and prints the ranking.

Flags override the strategy file for this run only.

Example:
  go run ./cmd/pullback run
  go run ./cmd/pullback run --max-tickers 500 --top 10 --out ranked.csv
  go run ./cmd/pullback run --tickers AAPL,MSFT,KO --history picks.csv --charts charts.json`,
	RunE: runScreening,
}

var (
	runTickers      string
	runMaxTickers   int
	runRecentWindow int
	runBenchmark    string
	runConcurrency  int
	runTop          int
	runOut          string
	runHistory      string
	runCharts       string
	runSave         bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runTickers, "tickers", "", "comma separated tickers (skip universe sources)")
	runCmd.Flags().IntVar(&runMaxTickers, "max-tickers", 0, "universe size cap")
	runCmd.Flags().IntVar(&runRecentWindow, "recent-window", 0, "recent window in trading days")
	runCmd.Flags().StringVar(&runBenchmark, "benchmark", "", "benchmark ticker")
	runCmd.Flags().IntVar(&runConcurrency, "concurrency", 0, "concurrent fetches")
	runCmd.Flags().IntVar(&runTop, "top", 0, "rows to print (default: strategy top_n)")
	runCmd.Flags().StringVar(&runOut, "out", "", "write the full ranking as CSV")
	runCmd.Flags().StringVar(&runHistory, "history", "", "append every ranked record to a history CSV")
	runCmd.Flags().StringVar(&runCharts, "charts", "", "write normalized price lines of the top picks as JSON")
	runCmd.Flags().BoolVar(&runSave, "save", true, "store the run when DATABASE_URL is set")
}

// applyRunFlags copies the set flags onto the strategy.
func applyRunFlags(cmd *cobra.Command) func(s *strategyconfig.Config) {
	return func(s *strategyconfig.Config) {
		flags := cmd.Flags()
		if flags.Changed("max-tickers") {
			s.Universe.MaxTickers = runMaxTickers
		}
		if flags.Changed("recent-window") {
			s.Data.RecentWindow = runRecentWindow
		}
		if flags.Changed("benchmark") {
			s.Data.Benchmark = runBenchmark
		}
		if flags.Changed("concurrency") {
			s.Data.Concurrency = runConcurrency
		}
		if flags.Changed("top") {
			s.Ranking.TopN = runTop
		}
	}
}

func runScreening(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, appOptions{
		tickers: splitTickers(runTickers),
		mutate:  applyRunFlags(cmd),
	})
	if err != nil {
		return err
	}
	defer a.Close()

	// 1. Universe
	u, err := a.universe.Build(ctx)
	if err != nil {
		return fmt.Errorf("build universe: %w", err)
	}

	params := a.strategy.RunParams(time.Now())
	PrintHeader("Pullback Screening", [][2]string{
		{"Strategy", a.strategy.Meta.StrategyID},
		{"Benchmark", params.Benchmark},
		{"Period", params.Start.Format("2006-01-02") + " ~ " + params.End.Format("2006-01-02")},
		{"Recent", strconv.Itoa(params.RecentWindow) + " trading days"},
		{"Universe", strconv.Itoa(u.Count()) + " tickers"},
	})

	// 2. Pipeline
	result, err := a.pipeline.Run(ctx, u, params)
	if err != nil {
		return fmt.Errorf("screening failed: %w", err)
	}

	// 3. Output
	top := result.Top(a.strategy.Ranking.TopN)
	fmt.Println()
	if len(top) == 0 {
		PrintWarning("No ticker passed the screening rules")
	} else {
		PrintRanking(top)
	}

	fmt.Println()
	PrintKeyValue("Ranked", strconv.Itoa(len(result.Ranked)), 8)
	PrintKeyValue("Skipped", strconv.Itoa(len(result.Skipped)), 8)
	PrintList(reasonCounts(result.Skipped))
	PrintKeyValue("Failed", strconv.Itoa(len(result.Failed)), 8)

	if err := writeReports(result, runOut, runHistory); err != nil {
		return err
	}

	if runCharts != "" && len(top) > 0 {
		if err := writeCharts(ctx, a, runCharts, top, params.Start, params.End); err != nil {
			return err
		}
	}

	if runSave && a.repo != nil {
		if err := a.repo.SaveRun(ctx, result, a.strategyHash); err != nil {
			return fmt.Errorf("save run: %w", err)
		}
		PrintSuccess("Run stored as " + result.RunID)
	}

	fmt.Println()
	PrintSuccess(fmt.Sprintf("Run %s completed in %.2fs", result.RunID, result.Duration.Seconds()))
	return nil
}

// writeReports writes the ranking CSV and appends the full ranking to the history file,
// the same rows the scheduled job appends. Empty paths are skipped.
func writeReports(result *contracts.RunResult, out, history string) error {
	if out != "" {
		if err := report.WriteRankedFile(out, result); err != nil {
			return err
		}
		PrintSuccess("Ranking written to " + out)
	}
	if history != "" {
		if err := report.AppendHistory(history, result); err != nil {
			return err
		}
		PrintSuccess("Ranking appended to " + history)
	}
	return nil
}

// chartFile is the JSON document written by --charts.
type chartFile struct {
	YMin    float64              `json:"y_min"`
	YMax    float64              `json:"y_max"`
	Series  []report.ChartSeries `json:"series"`
	Blocked []string             `json:"blocked,omitempty"`
}

func writeCharts(ctx context.Context, a *app, path string, top []contracts.MetricRecord, start, end time.Time) error {
	tickers := make([]string, 0, len(top))
	for _, rec := range top {
		tickers = append(tickers, rec.Ticker)
	}

	charts, blocked := report.BuildCharts(ctx, a.quotes, tickers, start, end, a.log)
	if msg := report.BlockedMessage(blocked); msg != "" {
		PrintWarning(msg)
	}

	yMin, yMax := report.AxisBounds(charts)
	data, err := json.MarshalIndent(chartFile{YMin: yMin, YMax: yMax, Series: charts, Blocked: blocked}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode charts: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write charts: %w", err)
	}
	PrintSuccess("Charts written to " + path)
	return nil
}
