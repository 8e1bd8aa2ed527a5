package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/pullback/internal/api"
	"github.com/wonny/pullback/internal/api/handlers"
	"github.com/wonny/pullback/internal/selection"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health                 - Health check
  GET  /api/ranking/latest     - 최신 랭킹
  GET  /api/runs               - 실행 이력 (DB 필요)
  GET  /api/runs/{id}          - 실행별 랭킹
  POST /api/runs               - 스크리닝 실행 트리거
  GET  /api/jobs               - 스케줄러 상태
  GET  /api/series/{ticker}    - 정규화 가격 (차트용)

Example:
  go run ./cmd/pullback api
  go run ./cmd/pullback api --port 8080 --schedule`,
	RunE: runAPIServer,
}

var (
	apiPort     string
	apiSchedule bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default: $PORT)")
	apiCmd.Flags().BoolVar(&apiSchedule, "schedule", false, "also run the screening job on $SCHEDULE_CRON")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Pullback API Server ===")

	a, err := newApp(context.Background(), appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	latest := selection.NewLatestStore()
	sched, err := newScheduler(a, latest, "")
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	if apiSchedule {
		sched.Start()
	}

	// nil 인터페이스를 명시적으로 전달 (typed nil 방지)
	var runs handlers.RunReader
	var health handlers.HealthChecker
	if a.repo != nil {
		runs = a.repo
		health = a.db
	}

	router := api.NewRouter(api.Handlers{
		Health:  handlers.NewHealthHandler(health),
		Ranking: handlers.NewRankingHandler(latest, runs, a.log),
		Runs:    handlers.NewRunsHandler(runs, sched, a.log),
		Series:  handlers.NewSeriesHandler(a.quotes, a.log),
	}, a.log)

	server := api.New(a.cfg, a.log, router)

	go func() {
		if err := server.Start(); err != nil {
			a.log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	a.log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	sched.Stop()

	a.log.Info("Server stopped")
	return nil
}
