package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/georepute/backend/internal/s0_signals/website"
	"github.com/wonny/georepute/backend/pkg/config"
	"github.com/wonny/georepute/backend/pkg/httputil"
	"github.com/wonny/georepute/backend/pkg/logger"
	"github.com/wonny/georepute/backend/pkg/redis"
)

// siteAuditCmd runs the on-page analyzer against a live URL
var siteAuditCmd = &cobra.Command{
	Use:   "site-audit <url>",
	Short: "웹사이트 온페이지 분석 (website_analyses 시그널 미리보기)",
	Long: `URL을 가져와 title, meta description, 구조화 데이터, canonical, h1, 이미지 alt 비율,
단어 수를 분석합니다. REDIS_ENABLED=true면 결과를 캐시합니다.

Example:
  go run ./cmd/quote site-audit https://example.com`,
	Args: cobra.ExactArgs(1),
	RunE: runSiteAudit,
}

var siteAuditJSON bool

func init() {
	rootCmd.AddCommand(siteAuditCmd)

	siteAuditCmd.Flags().BoolVar(&siteAuditJSON, "json", false, "print the analysis as JSON")
}

func runSiteAudit(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadOffline()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.NewNop()
	if verbose {
		log = logger.NewConsole(cmd.ErrOrStderr(), "debug")
	}

	rdb, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer rdb.Close()

	analyzer := website.NewAnalyzer(httputil.New(cfg, log), redis.NewCache(rdb, "quote"), log)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Website.Timeout+5*time.Second)
	defer cancel()

	res, err := analyzer.Analyze(ctx, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if siteAuditJSON {
		return PrintJSON(out, res)
	}

	PrintHeader(out, "Site audit - "+res.URL)
	PrintKV(out, "HTTPS", res.HasHTTPS)
	PrintKV(out, "Title", res.HasTitle)
	PrintKV(out, "Meta description", res.HasMetaDescription)
	PrintKV(out, "Structured data", res.HasStructuredData)
	PrintKV(out, "Canonical", res.HasCanonical)
	PrintKV(out, "H1 count", res.H1Count)
	PrintKV(out, "Image alt coverage", fmt.Sprintf("%.0f%%", res.ImageAltCoverage*100))
	PrintKV(out, "Word count", res.WordCount)
	return nil
}
