package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	modelPath string
	verbose   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quote",
	Short: "Quote Builder - 브랜드 가시성 진단 기반 견적 엔진",
	Long: `Quote Builder Unified CLI

시그널 번들에서 DCS, 위협 지수, 매출 노출, 추천 모드, 가격을 계산하고
견적을 저장/관리하는 서비스.

Usage:
  go run ./cmd/quote [command]

Examples:
  go run ./cmd/quote api
  go run ./cmd/quote worker
  go run ./cmd/quote compute --bundle bundle.json
  go run ./cmd/quote model check config/model/quote_builder_v1.yaml
  go run ./cmd/quote site-audit https://example.com`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&modelPath, "model", "", "model YAML file (default: QUOTE_MODEL_PATH or compiled defaults)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
