package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wonny/georepute/backend/internal/contracts"
	"github.com/wonny/georepute/backend/internal/quote"
	"github.com/wonny/georepute/backend/pkg/logger"
)

// computeCmd represents the compute command
var computeCmd = &cobra.Command{
	Use:   "compute",
	Short: "시그널 번들 파일로 S1→S5 파이프라인 실행 (DB 불필요)",
	Long: `JSON 시그널 번들 파일에서 DCS, 위협, 매출 노출, 추천, 가격을 계산합니다.
저장하지 않으며 DB/Redis 연결이 필요 없습니다. 위협 이력은 번들의 threat_history를 사용합니다.

Example:
  go run ./cmd/quote compute --bundle bundle.json
  go run ./cmd/quote compute --bundle bundle.json --depth deep --report competitor_deep_dive --market us --market uk
  cat bundle.json | go run ./cmd/quote compute --bundle - --json`,
	RunE: runCompute,
}

var (
	computeBundle      string
	computeAvgDeal     float64
	computeReports     []string
	computeMarkets     []string
	computeDepth       string
	computeKeywords    int
	computeCompetitors int
	computePrevious    string
	computeJSON        bool
)

func init() {
	rootCmd.AddCommand(computeCmd)

	computeCmd.Flags().StringVar(&computeBundle, "bundle", "", "signal bundle JSON file ('-' for stdin)")
	computeCmd.Flags().Float64Var(&computeAvgDeal, "avg-deal-value", 0, "average deal value (0 = model default)")
	computeCmd.Flags().StringSliceVar(&computeReports, "report", nil, "report add-on id (repeatable)")
	computeCmd.Flags().StringSliceVar(&computeMarkets, "market", nil, "target market (repeatable)")
	computeCmd.Flags().StringVar(&computeDepth, "depth", "", "monitoring depth: basic|standard|deep")
	computeCmd.Flags().IntVar(&computeKeywords, "keywords", -1, "keyword count override")
	computeCmd.Flags().IntVar(&computeCompetitors, "competitors", -1, "competitor count override")
	computeCmd.Flags().StringVar(&computePrevious, "previous-mode", "", "previous engagement mode for hysteresis")
	computeCmd.Flags().BoolVar(&computeJSON, "json", false, "print the full result as JSON")
	_ = computeCmd.MarkFlagRequired("bundle")
}

func runCompute(cmd *cobra.Command, args []string) error {
	bundle, err := readBundle(cmd.InOrStdin(), computeBundle)
	if err != nil {
		return err
	}

	model, hash, err := loadModel(nil)
	if err != nil {
		return err
	}

	in, err := computeInput()
	if err != nil {
		return err
	}

	log := logger.NewNop()
	if verbose {
		log = logger.NewConsole(cmd.ErrOrStderr(), "debug")
	}

	res, err := quote.NewPipeline(model, nil, nil, log).Run(context.Background(), bundle, in)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if computeJSON {
		return PrintJSON(out, struct {
			ModelHash string `json:"model_hash"`
			*quote.Result
		}{hash, res})
	}

	printComputeSummary(out, bundle, res, hash)
	return nil
}

func readBundle(stdin io.Reader, path string) (*contracts.SignalBundle, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read bundle: %w", err)
	}

	var b contracts.SignalBundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	return &b, nil
}

func computeInput() (quote.Input, error) {
	in := quote.Input{
		SelectedReports: computeReports,
		SelectedMarkets: computeMarkets,
		PreviousMode:    contracts.EngagementMode(computePrevious),
		Scope:           contracts.ScopeAdjustments{MonitoringDepth: contracts.MonitoringDepth(computeDepth)},
	}
	if computeAvgDeal < 0 {
		return in, contracts.NewValidationError("avg-deal-value", "must be >= 0")
	}
	if computeAvgDeal > 0 {
		in.AvgDealValue = &computeAvgDeal
	}
	if in.Scope.MonitoringDepth != "" && !in.Scope.MonitoringDepth.IsValid() {
		return in, contracts.NewValidationError("depth", "must be basic, standard or deep")
	}
	if in.PreviousMode != "" && !in.PreviousMode.IsValid() {
		return in, contracts.NewValidationError("previous-mode", "unknown engagement mode")
	}
	if computeKeywords >= 0 {
		in.Scope.KeywordCount = &computeKeywords
	}
	if computeCompetitors >= 0 {
		in.Scope.CompetitorCount = &computeCompetitors
	}
	return in, nil
}

func printComputeSummary(w io.Writer, b *contracts.SignalBundle, res *quote.Result, hash string) {
	PrintHeader(w, "Quote Builder - "+b.BrandName)
	PrintKV(w, "Project", b.ProjectID)
	PrintKV(w, "Model", hash[:12])
	PrintSeparator(w)

	PrintKV(w, "DCS", fmt.Sprintf("%d / 100", res.DCS.FinalScore))
	PrintKV(w, "Distance to safety", res.DCS.DistanceToSafetyZone)
	PrintKV(w, "Distance to dominance", res.DCS.DistanceToDominanceZone)
	for _, l := range res.DCS.LayerBreakdown {
		PrintKV(w, "  "+l.Name, fmt.Sprintf("%.1f", l.Score))
	}
	PrintSeparator(w)

	PrintKV(w, "Pressure index", fmt.Sprintf("%.1f (%s, %s)", res.Threat.CompetitivePressureIndex, res.Threat.PressureLevel, res.Threat.RiskAccelerationIndicator))
	win := res.Revenue.RevenueExposureWindow
	PrintKV(w, "Revenue exposure", fmt.Sprintf("%.0f / %.0f / %.0f", win.Conservative, win.Strategic, win.Dominance))
	PrintSeparator(w)

	widths := []int{12, 8}
	PrintTableHeader(w, []string{"Mode", "Score"}, widths)
	for _, m := range res.Recommendation.AllModes {
		PrintTableRow(w, []string{string(m.Mode), strconv.FormatFloat(m.Score, 'f', 2, 64)}, widths)
	}
	PrintSeparator(w)

	p := res.Pricing
	PrintKV(w, "Base band", fmt.Sprintf("%d - %d", p.BasePriceMin, p.BasePriceMax))
	PrintKV(w, "Add-ons", p.ReportAddOnsTotal)
	PrintKV(w, "Risk premium", p.RiskPremium)
	PrintKV(w, "Market multiplier", p.MarketMultiplier)
	PrintKV(w, "Depth", fmt.Sprintf("%s (x%.2f)", p.MonitoringDepth, p.DepthMultiplier))
	PrintSeparator(w)
	PrintSuccess(w, fmt.Sprintf("%s: %d - %d per month", res.Recommendation.PrimaryMode, p.SuggestedMin, p.SuggestedMax))
}
