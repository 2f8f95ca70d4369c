package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wonny/georepute/backend/internal/modelconfig"
)

// modelCmd groups model configuration tools
var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "모델 설정(YAML) 검증/출력",
}

var modelCheckCmd = &cobra.Command{
	Use:   "check [path]",
	Short: "모델 파일 검증, 경고와 해시 출력",
	Long: `모델 YAML을 엄격 모드(KnownFields)로 디코딩하고 검증합니다.
경로를 생략하면 컴파일된 기본 모델을 검사합니다.

Example:
  go run ./cmd/quote model check config/model/quote_builder_v1.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runModelCheck,
}

var modelDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "유효 모델을 YAML로 출력 (--model 또는 기본값)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		model, _, err := loadModel(nil)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(model)
	},
}

func init() {
	rootCmd.AddCommand(modelCmd)
	modelCmd.AddCommand(modelCheckCmd)
	modelCmd.AddCommand(modelDumpCmd)
}

func runModelCheck(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	source := "compiled defaults"
	model := modelconfig.Default()
	if len(args) == 1 {
		source = args[0]
		loaded, _, err := modelconfig.Load(args[0])
		if err != nil {
			PrintError(out, err.Error())
			return fmt.Errorf("model %s is invalid: %w", args[0], err)
		}
		model = loaded
	} else if err := modelconfig.Validate(model); err != nil {
		return fmt.Errorf("compiled defaults are invalid: %w", err)
	}

	hash, err := modelconfig.Hash(model)
	if err != nil {
		return err
	}

	PrintHeader(out, "Model check")
	PrintKV(out, "Source", source)
	PrintKV(out, "Hash", hash)
	PrintKV(out, "Report add-ons", len(model.Pricing.ReportAddOnIDs()))
	PrintSeparator(out)

	warnings := modelconfig.Warn(model)
	for _, w := range warnings {
		PrintWarning(out, fmt.Sprintf("[%s] %s", w.Code, w.Message))
	}
	PrintSuccess(out, fmt.Sprintf("valid (%d warning(s))", len(warnings)))
	return nil
}
