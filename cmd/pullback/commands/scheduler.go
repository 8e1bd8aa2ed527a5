package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/pullback/internal/scheduler"
	"github.com/wonny/pullback/internal/scheduler/jobs"
	"github.com/wonny/pullback/internal/selection"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `Runs the screening job on its cron schedule ($SCHEDULE_CRON, seconds first).

Subcommands:
  start    - 스케줄러 데몬 시작
  run-once - 스크리닝 job 즉시 1회 실행 (재시도 포함)

Example:
  go run ./cmd/pullback scheduler start
  go run ./cmd/pullback scheduler run-once --history picks.csv`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		RunE:  runScheduler,
	}

	schedulerRunOnceCmd = &cobra.Command{
		Use:   "run-once",
		Short: "스크리닝 job 즉시 실행",
		RunE:  runSchedulerOnce,
	}
)

var schedulerHistory string

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerRunOnceCmd)

	schedulerCmd.PersistentFlags().StringVar(&schedulerHistory, "history", "", "append each run's picks to a history CSV")
}

// newScheduler registers the screening job on a fresh scheduler.
func newScheduler(a *app, latest *selection.LatestStore, historyPath string) (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.log)
	job := jobs.NewScreeningJob(a.universe, a.pipeline, a.runStore(), latest, jobs.ScreeningConfig{
		Schedule:     a.cfg.ScheduleCron,
		StrategyHash: a.strategyHash,
		Params:       a.strategy.RunParams,
		HistoryPath:  historyPath,
	}, a.log)

	if err := sched.AddJob(job); err != nil {
		return nil, err
	}
	return sched, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Pullback Scheduler ===")

	a, err := newApp(context.Background(), appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := newScheduler(a, selection.NewLatestStore(), schedulerHistory)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for name, stat := range sched.GetJobStats() {
		next := "-"
		if stat.NextRun != nil {
			next = stat.NextRun.Format(time.RFC3339)
		}
		fmt.Printf("  - %s (%s, next %s)\n", name, stat.Schedule, next)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")
	return nil
}

func runSchedulerOnce(cmd *cobra.Command, args []string) error {
	a, err := newApp(context.Background(), appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	latest := selection.NewLatestStore()
	sched, err := newScheduler(a, latest, schedulerHistory)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	if err := sched.RunJob(jobs.ScreeningJobName); err != nil {
		return fmt.Errorf("run job: %w", err)
	}
	sched.Wait()

	history, err := sched.GetJobHistory(jobs.ScreeningJobName)
	if err != nil {
		return err
	}
	last := history[len(history)-1]
	if !last.Success {
		return fmt.Errorf("screening job failed after %d attempts: %s", last.Attempts, last.Error)
	}

	if result, ok := latest.Get(); ok {
		PrintRanking(result.Top(a.strategy.Ranking.TopN))
		fmt.Println()
		PrintSuccess(fmt.Sprintf("Run %s completed in %.2fs", result.RunID, last.Duration.Seconds()))
	}
	return nil
}
