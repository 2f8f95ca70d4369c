package s5_pricing

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/wonny/georepute/backend/internal/contracts"
	"github.com/wonny/georepute/backend/internal/modelconfig"
	"github.com/wonny/georepute/backend/pkg/logger"
)

// Engine implements S5: quote pricing
// ⭐ SSOT: 가격 계산은 여기서만
//
// Money is carried as decimal until the final rounding so that the
// multiplicative steps never accumulate float error.
type Engine struct {
	cfg    modelconfig.Pricing
	addOns map[string]modelconfig.AddOn
	logger *logger.Logger
}

// NewEngine creates a pricing engine
func NewEngine(cfg modelconfig.Pricing, log *logger.Logger) *Engine {
	addOns := make(map[string]modelconfig.AddOn, len(cfg.ReportAddOns))
	for _, a := range cfg.ReportAddOns {
		addOns[a.ID] = a
	}
	return &Engine{cfg: cfg, addOns: addOns, logger: log.Component("s5_pricing")}
}

// MaxMarkets bounds the market count the engine prices
const MaxMarkets = 200

const stepPrecision = 12

var defaultEngine = NewEngine(modelconfig.Default().Pricing, logger.NewNop())

// ComputePricing runs the default-model engine
func ComputePricing(in contracts.PricingInput) *contracts.PricingResult {
	return defaultEngine.Compute(in)
}

// ComplexityScore derives the pricing complexity from project scope
func ComplexityScore(keywordCount, competitorCount int) int {
	return defaultEngine.ComplexityScore(keywordCount, competitorCount)
}

// DCSGap is the distance from finalScore up to the target DCS
func DCSGap(finalScore int) float64 {
	return defaultEngine.DCSGap(finalScore)
}

// ComplexityScore = min(MaxComplexity, keywords×2 + competitors×5)
func (e *Engine) ComplexityScore(keywordCount, competitorCount int) int {
	v := max(0, keywordCount)*2 + max(0, competitorCount)*5
	return min(e.cfg.MaxComplexity, v)
}

// DCSGap = max(0, TargetDCS − finalScore)
func (e *Engine) DCSGap(finalScore int) float64 {
	return float64(max(0, e.cfg.TargetDCS-finalScore))
}

// ReportAddOnIDs returns the allow-list in config order
func (e *Engine) ReportAddOnIDs() []string {
	return e.cfg.ReportAddOnIDs()
}

// FilterReports drops unknown and duplicate ids, keeping input order
func (e *Engine) FilterReports(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := e.addOns[id]; !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// Compute prices a quote. It never fails: inputs are re-clamped first.
func (e *Engine) Compute(in contracts.PricingInput) *contracts.PricingResult {
	complexity := min(max(in.ComplexityScore, 0), e.cfg.MaxComplexity)
	markets := min(max(in.NumberOfMarkets, 1), MaxMarkets)
	risk := clamp(in.RiskIndex, 0, 100)
	gap := clamp(in.DCSGap, 0, 100)

	result := &contracts.PricingResult{
		ReportAddOns: []contracts.ReportAddOn{},
	}

	// 1. 기본 가격 밴드
	band := e.band(complexity)
	result.BasePriceMin = band.Min
	result.BasePriceMax = band.Max
	if result.BasePriceMin > result.BasePriceMax {
		result.BasePriceMin, result.BasePriceMax = result.BasePriceMax, result.BasePriceMin
	}

	// 2-3. 리포트 애드온
	for _, id := range e.FilterReports(in.SelectedReports) {
		a := e.addOns[id]
		result.ReportAddOns = append(result.ReportAddOns, contracts.ReportAddOn{ID: a.ID, Name: a.Name, Price: a.Price})
		result.ReportAddOnsTotal += a.Price
	}

	// 4. 리스크 프리미엄
	result.RiskPremium = e.riskPremium(risk, gap)

	// 5. 시장 배수
	marketMult := e.marketMultiplier(markets)
	result.MarketMultiplier = marketMult.InexactFloat64()

	// 깊이 배수는 최종 범위에 한 번만 적용
	depth, depthMult := e.depth(in.MonitoringDepth)
	result.MonitoringDepth = depth
	result.DepthMultiplier = depthMult.InexactFloat64()

	// 6. 최종 범위
	addOns := decimal.NewFromInt(result.ReportAddOnsTotal)
	premium := decimal.NewFromInt(result.RiskPremium)
	factor := marketMult.Mul(depthMult)
	result.SuggestedMin = decimal.NewFromInt(result.BasePriceMin).Add(addOns).Add(premium).Mul(factor).Round(0).IntPart()
	result.SuggestedMax = decimal.NewFromInt(result.BasePriceMax).Add(addOns).Add(premium).Mul(factor).Round(0).IntPart()

	e.enforceBounds(result)

	// 7. 내역
	result.Breakdown = e.breakdown(result, complexity, markets)

	e.logger.WithFields(map[string]interface{}{
		"complexity":    complexity,
		"markets":       markets,
		"risk_index":    risk,
		"dcs_gap":       gap,
		"depth":         depth,
		"suggested_min": result.SuggestedMin,
		"suggested_max": result.SuggestedMax,
	}).Debug("Computed pricing")

	return result
}

func (e *Engine) band(complexity int) modelconfig.PriceBand {
	for _, b := range e.cfg.Bands {
		if complexity <= b.MaxComplexity {
			return b
		}
	}
	if n := len(e.cfg.Bands); n > 0 {
		return e.cfg.Bands[n-1]
	}
	return modelconfig.PriceBand{}
}

func (e *Engine) riskPremium(risk, gap float64) int64 {
	rp := e.cfg.RiskPremium
	if rp.Max <= 0 {
		return 0
	}
	gapPart := 0.0
	if rp.GapCap > 0 {
		gapPart = math.Min(gap, rp.GapCap) / rp.GapCap
	}
	share := decimal.NewFromFloat(rp.RiskWeight).Mul(decimal.NewFromFloat(risk / 100)).
		Add(decimal.NewFromFloat(rp.GapWeight).Mul(decimal.NewFromFloat(gapPart)))
	if share.GreaterThan(decimal.NewFromInt(1)) {
		share = decimal.NewFromInt(1)
	}
	v := decimal.NewFromInt(rp.Max).Mul(share).Round(0).IntPart()
	return max(v, 0)
}

// marketMultiplier = 1 + Σ_{i=1}^{n-1} Increment × Decay^(i-1), capped.
// The sum stops once it reaches the cap or the step rounds to zero.
func (e *Engine) marketMultiplier(markets int) decimal.Decimal {
	m := e.cfg.Markets
	one := decimal.NewFromInt(1)
	limit := decimal.NewFromFloat(m.MaxMultiplier)
	capped := m.MaxMultiplier >= 1

	total := one
	step := decimal.NewFromFloat(m.Increment)
	decay := decimal.NewFromFloat(m.Decay)
	for i := 1; i < min(markets, MaxMarkets); i++ {
		if step.Sign() <= 0 || (capped && total.GreaterThanOrEqual(limit)) {
			break
		}
		total = total.Add(step)
		// 자릿수 증가 방지
		step = step.Mul(decay).Round(stepPrecision)
	}
	if capped {
		total = decimal.Min(total, limit)
	}
	return decimal.Max(total, one).Round(4)
}

func (e *Engine) depth(d contracts.MonitoringDepth) (contracts.MonitoringDepth, decimal.Decimal) {
	if v, ok := e.cfg.DepthMultipliers.For(string(d)); ok {
		return d, decimal.NewFromFloat(v)
	}
	v, ok := e.cfg.DepthMultipliers.For(e.cfg.DefaultDepth)
	if !ok {
		v = 1
	}
	return contracts.MonitoringDepth(e.cfg.DefaultDepth), decimal.NewFromFloat(v)
}

func (e *Engine) enforceBounds(r *contracts.PricingResult) {
	if r.SuggestedMin > r.SuggestedMax {
		e.logger.WithFields(map[string]interface{}{
			"suggested_min": r.SuggestedMin,
			"suggested_max": r.SuggestedMax,
		}).Warn("Suggested range inverted, swapping")
		r.SuggestedMin, r.SuggestedMax = r.SuggestedMax, r.SuggestedMin
	}
	if r.SuggestedMin < r.BasePriceMin {
		e.logger.WithFields(map[string]interface{}{
			"suggested_min":  r.SuggestedMin,
			"base_price_min": r.BasePriceMin,
		}).Warn("Suggested minimum below base, clamping")
		r.SuggestedMin = r.BasePriceMin
	}
	if r.SuggestedMax < r.SuggestedMin {
		r.SuggestedMax = r.SuggestedMin
	}
}

func (e *Engine) breakdown(r *contracts.PricingResult, complexity, markets int) []contracts.PriceLine {
	lines := []contracts.PriceLine{{
		Label: fmt.Sprintf("Base service (complexity %d)", complexity),
		Kind:  contracts.LineBase,
		Min:   r.BasePriceMin,
		Max:   r.BasePriceMax,
	}}
	for _, a := range r.ReportAddOns {
		lines = append(lines, contracts.PriceLine{Label: a.Name, Kind: contracts.LineAddOn, Min: a.Price, Max: a.Price})
	}
	if r.RiskPremium > 0 {
		lines = append(lines, contracts.PriceLine{
			Label: "Competitive risk premium",
			Kind:  contracts.LinePremium,
			Min:   r.RiskPremium,
			Max:   r.RiskPremium,
		})
	}
	lines = append(lines,
		contracts.PriceLine{Label: fmt.Sprintf("Markets (%d)", markets), Kind: contracts.LineMultiplier, Factor: r.MarketMultiplier},
		contracts.PriceLine{Label: fmt.Sprintf("Monitoring depth (%s)", r.MonitoringDepth), Kind: contracts.LineMultiplier, Factor: r.DepthMultiplier},
		contracts.PriceLine{Label: "Suggested range", Kind: contracts.LineTotal, Min: r.SuggestedMin, Max: r.SuggestedMax},
	)
	return lines
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
