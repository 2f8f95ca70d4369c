package s3_revenue

import (
	"math"

	"github.com/wonny/georepute/backend/internal/contracts"
	"github.com/wonny/georepute/backend/internal/modelconfig"
	"github.com/wonny/georepute/backend/pkg/logger"
)

// Disclaimer is attached to every RevenueExposureResult
const Disclaimer = "Revenue exposure is a modelled monthly opportunity based on search demand, " +
	"benchmark click-through and conversion assumptions. Actual results depend on execution and market conditions."

// Engine implements S3: Revenue Exposure Window
// ⭐ SSOT: 매출 노출 계산은 여기서만
type Engine struct {
	cfg    modelconfig.Revenue
	logger *logger.Logger
}

// NewEngine creates a revenue exposure engine
func NewEngine(cfg modelconfig.Revenue, log *logger.Logger) *Engine {
	return &Engine{cfg: cfg, logger: log.Component("s3_revenue")}
}

var defaultEngine = NewEngine(modelconfig.Default().Revenue, logger.NewNop())

// ComputeRevenueExposure runs the default-model engine.
// A nil avgDealValue takes the model default.
func ComputeRevenueExposure(searchDemand, ctrBenchmark, conversionRate float64, avgDealValue *float64) *contracts.RevenueExposureResult {
	return defaultEngine.Compute(searchDemand, ctrBenchmark, conversionRate, avgDealValue)
}

// Compute multiplies demand × ctr × conversion × deal value by each tier's capture rate.
// Negative or NaN factors count as zero.
func (e *Engine) Compute(searchDemand, ctrBenchmark, conversionRate float64, avgDealValue *float64) *contracts.RevenueExposureResult {
	demand := nonNegative(searchDemand)
	ctr := nonNegative(ctrBenchmark)
	conversion := nonNegative(conversionRate)

	dealValue := e.cfg.DefaultAvgDealValue
	defaulted := true
	if avgDealValue != nil {
		dealValue = nonNegative(*avgDealValue)
		defaulted = false
	}

	monthly := demand * ctr * conversion * dealValue
	rates := e.cfg.CaptureRates

	result := &contracts.RevenueExposureResult{
		SearchDemand:          demand,
		CTRBenchmark:          ctr,
		ConversionRate:        conversion,
		AvgDealValue:          dealValue,
		AvgDealValueDefaulted: defaulted,
		RevenueExposureWindow: contracts.ExposureWindow{
			Conservative: monthly * rates.Conservative,
			Strategic:    monthly * rates.Strategic,
			Dominance:    monthly * rates.Dominance,
		},
		Disclaimer: Disclaimer,
	}

	e.logger.WithFields(map[string]interface{}{
		"search_demand": demand,
		"ctr":           ctr,
		"conversion":    conversion,
		"deal_value":    dealValue,
		"strategic":     result.RevenueExposureWindow.Strategic,
	}).Debug("Computed revenue exposure")

	return result
}

// Inputs are the factors the orchestrator derives from a signal bundle
type Inputs struct {
	SearchDemand   float64
	CTRBenchmark   float64
	ConversionRate float64
}

// InputsFromBundle takes demand and CTR from Search Console and the
// conversion rate from the industry table, with model defaults for gaps.
func (e *Engine) InputsFromBundle(b *contracts.SignalBundle) Inputs {
	in := Inputs{CTRBenchmark: e.cfg.DefaultCTR}
	if b == nil {
		in.ConversionRate = e.cfg.DefaultConversionRate
		return in
	}

	if s, ok := b.SearchConsole(); ok {
		in.SearchDemand = float64(s.TotalImpressions)
		if s.AvgCTR > 0 {
			in.CTRBenchmark = s.AvgCTR
		}
	}

	in.ConversionRate = e.cfg.DefaultConversionRate
	if rate, _ := modelconfig.IndustryValue(e.cfg.IndustryConversionRates, b.Industry); rate > 0 {
		in.ConversionRate = rate
	}
	return in
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
