package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/georepute/backend/internal/contracts"
	"github.com/wonny/georepute/backend/internal/s0_signals"
	"github.com/wonny/georepute/backend/pkg/config"
	"github.com/wonny/georepute/backend/pkg/database"
	"github.com/wonny/georepute/backend/pkg/logger"
	"github.com/wonny/georepute/backend/pkg/redis"
)

// signalsCmd groups S0 signal tools
var signalsCmd = &cobra.Command{
	Use:   "signals",
	Short: "프로젝트 시그널 적재/조회",
}

var signalsImportCmd = &cobra.Command{
	Use:   "import",
	Short: "수집기 payload(JSON)를 project_signals에 저장하고 번들 캐시 무효화",
	Long: `Kinds: ` + strings.Join(s0_signals.Kinds(), ", ") + `

Example:
  go run ./cmd/quote signals import --project p-1 --kind gsc_summary --file gsc.json`,
	RunE: runSignalsImport,
}

var signalsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "프로젝트의 조립된 시그널 번들을 JSON으로 출력",
	RunE:  runSignalsShow,
}

var (
	signalsProject string
	signalsUser    string
	signalsKind    string
	signalsFile    string
)

func init() {
	rootCmd.AddCommand(signalsCmd)
	signalsCmd.AddCommand(signalsImportCmd)
	signalsCmd.AddCommand(signalsShowCmd)

	signalsCmd.PersistentFlags().StringVar(&signalsProject, "project", "", "project id")
	_ = signalsCmd.MarkPersistentFlagRequired("project")

	signalsImportCmd.Flags().StringVar(&signalsKind, "kind", "", "signal kind")
	signalsImportCmd.Flags().StringVar(&signalsFile, "file", "", "payload JSON file")
	_ = signalsImportCmd.MarkFlagRequired("kind")
	_ = signalsImportCmd.MarkFlagRequired("file")

	signalsShowCmd.Flags().StringVar(&signalsUser, "user", "", "owner user id")
	_ = signalsShowCmd.MarkFlagRequired("user")
}

type signalTools struct {
	repo  *s0_signals.Repository
	cache *s0_signals.CachedSource
	close func()
}

func openSignalTools(cmd *cobra.Command) (*signalTools, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := logger.NewNop()
	if verbose {
		log = logger.NewConsole(cmd.ErrOrStderr(), "debug")
	}

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	rdb, err := redis.New(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	repo := s0_signals.NewRepository(db.Pool)
	return &signalTools{
		repo:  repo,
		cache: s0_signals.NewCachedSource(repo, redis.NewCache(rdb, "quote"), cfg.Quote.SignalCacheTTL, log),
		close: func() {
			rdb.Close()
			db.Close()
		},
	}, nil
}

func runSignalsImport(cmd *cobra.Command, args []string) error {
	if !s0_signals.IsKnownKind(signalsKind) {
		return fmt.Errorf("unknown kind %q (valid: %s)", signalsKind, strings.Join(s0_signals.Kinds(), ", "))
	}

	payload, err := os.ReadFile(signalsFile)
	if err != nil {
		return fmt.Errorf("read payload: %w", err)
	}
	// 저장 전에 번들 스키마로 디코딩되는지 확인
	if err := s0_signals.ApplySignal(&contracts.SignalBundle{}, signalsKind, payload); err != nil {
		return err
	}

	tools, err := openSignalTools(cmd)
	if err != nil {
		return err
	}
	defer tools.close()

	ctx := context.Background()
	if err := tools.repo.SaveSignal(ctx, signalsProject, signalsKind, payload); err != nil {
		return err
	}
	if err := tools.cache.Invalidate(ctx, signalsProject); err != nil {
		PrintWarning(cmd.OutOrStdout(), "bundle cache not invalidated: "+err.Error())
	}

	PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("%s stored for project %s (%d bytes)", signalsKind, signalsProject, len(payload)))
	return nil
}

func runSignalsShow(cmd *cobra.Command, args []string) error {
	tools, err := openSignalTools(cmd)
	if err != nil {
		return err
	}
	defer tools.close()

	ctx := context.Background()
	project, err := tools.repo.GetProject(ctx, signalsProject, signalsUser)
	if err != nil {
		return err
	}
	bundle, err := tools.cache.Load(ctx, project)
	if err != nil {
		return err
	}
	return PrintJSON(cmd.OutOrStdout(), bundle)
}
