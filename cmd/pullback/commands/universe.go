package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

// universeCmd builds and prints the ticker universe
var universeCmd = &cobra.Command{
	Use:   "universe",
	Short: "Universe 생성 및 조회",
	Long: `Reads the strategy's universe sources, applies exclusions and the size cap,
and prints the result.

Example:
  go run ./cmd/pullback universe
  go run ./cmd/pullback universe --out tickers.txt`,
	RunE: runUniverse,
}

var (
	universeOut  string
	universeShow int
)

func init() {
	rootCmd.AddCommand(universeCmd)

	universeCmd.Flags().StringVar(&universeOut, "out", "", "write tickers, one per line")
	universeCmd.Flags().IntVar(&universeShow, "show", 20, "tickers to print")
}

func runUniverse(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	u, err := a.universe.Build(ctx)
	if err != nil {
		return fmt.Errorf("build universe: %w", err)
	}

	PrintHeader("Universe", [][2]string{
		{"Date", u.Date.Format("2006-01-02")},
		{"Source rows", strconv.Itoa(u.TotalCount)},
		{"Included", strconv.Itoa(u.Count())},
		{"Excluded", strconv.Itoa(len(u.Excluded))},
	})

	show := u.Tickers
	if universeShow >= 0 && len(show) > universeShow {
		show = show[:universeShow]
	}
	PrintList(show)
	if len(show) < u.Count() {
		PrintInfo(fmt.Sprintf("... and %d more", u.Count()-len(show)))
	}

	if universeOut != "" {
		data := strings.Join(u.Tickers, "\n") + "\n"
		if err := os.WriteFile(universeOut, []byte(data), 0o644); err != nil {
			return fmt.Errorf("write universe: %w", err)
		}
		PrintSuccess("Universe written to " + universeOut)
	}
	return nil
}
