package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/georepute/backend/internal/scheduler"
	"github.com/wonny/georepute/backend/internal/scheduler/jobs"
	"github.com/wonny/georepute/backend/pkg/config"
)

// workerCmd represents the worker command
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "백그라운드 스케줄러 (견적 만료)",
	Long: `cron 스케줄러를 실행합니다.

등록되는 작업:
- quote_expiry: EXPIRY_SCHEDULE (기본 매시 정각), valid_until이 지난 draft/sent 견적을 expired로 전환

Example:
  go run ./cmd/quote worker
  go run ./cmd/quote worker --once`,
	RunE: runWorker,
}

var workerOnce bool

func init() {
	rootCmd.AddCommand(workerCmd)

	workerCmd.Flags().BoolVar(&workerOnce, "once", false, "모든 작업을 한 번 실행하고 종료")
}

func newExpiryScheduler(a *app) (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.log)
	if err := sched.AddJob(jobs.NewQuoteExpiryJob(a.service, a.cfg.Quote.ExpirySchedule, a.log)); err != nil {
		return nil, err
	}
	return sched, nil
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := newLogger(cfg)

	a, err := buildApp(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := newExpiryScheduler(a)
	if err != nil {
		return err
	}

	if workerOnce {
		out := cmd.OutOrStdout()
		failed := 0
		for _, name := range sched.Jobs() {
			res, err := sched.RunNow(name)
			if err != nil {
				return err
			}
			if res.Success {
				PrintSuccess(out, fmt.Sprintf("%s completed in %s", name, res.Duration))
			} else {
				failed++
				PrintError(out, fmt.Sprintf("%s failed after %d attempts: %s", name, res.Attempts, res.Error))
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d job(s) failed", failed)
		}
		return nil
	}

	sched.Start()
	log.WithField("jobs", sched.Jobs()).Info("Worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	sched.Stop()
	return nil
}
