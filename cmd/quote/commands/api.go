package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/georepute/backend/internal/api"
	"github.com/wonny/georepute/backend/internal/api/handlers"
	"github.com/wonny/georepute/backend/pkg/config"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

인증은 앞단 프록시가 처리하고 X-User-ID / X-Organization-ID 헤더로 전달합니다.

Endpoints:
  GET    /health                    - Health check (DB ping)
  GET    /metrics                   - Prometheus metrics
  POST   /api/quotes                - 견적 생성 (전체 파이프라인)
  GET    /api/quotes                - 견적 목록
  GET    /api/quotes/{id}           - 견적 조회
  PATCH  /api/quotes/{id}           - 견적 수정
  DELETE /api/quotes/{id}           - 초안 견적 삭제
  GET    /api/quotes/{id}/activity  - 활동 로그
  POST   /api/engines/{stage}       - 단일 엔진 미리보기
  GET    /ws/quotes                 - 실시간 견적 이벤트

Example:
  go run ./cmd/quote api
  go run ./cmd/quote api --port 8080 --with-scheduler`,
	RunE: runAPIServer,
}

var (
	apiPort          string
	apiWithScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default: PORT)")
	apiCmd.Flags().BoolVar(&apiWithScheduler, "with-scheduler", false, "만료 스케줄러를 같은 프로세스에서 실행")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := newLogger(cfg)

	// 3. Wire database, redis, pipeline and service
	a, err := buildApp(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	// 4. Create router and server
	router := api.NewRouter(api.Routes{
		Quotes:  handlers.NewQuoteHandler(a.service, log),
		Engines: handlers.NewEngineHandler(a.pipe, log),
		Events:  a.hub,
		DB:      a.db,
		Metrics: a.metrics,
	}, log)
	server := api.New(cfg, log, router)

	// 5. Optional in-process expiry scheduler
	if apiWithScheduler {
		sched, err := newExpiryScheduler(a)
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	// 6. Start server with graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	log.WithField("port", cfg.Port).Info("API server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
