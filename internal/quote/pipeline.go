package quote

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/georepute/backend/internal/contracts"
	"github.com/wonny/georepute/backend/internal/metrics"
	"github.com/wonny/georepute/backend/internal/modelconfig"
	"github.com/wonny/georepute/backend/internal/s1_dcs"
	"github.com/wonny/georepute/backend/internal/s2_threat"
	"github.com/wonny/georepute/backend/internal/s3_revenue"
	"github.com/wonny/georepute/backend/internal/s4_recommend"
	"github.com/wonny/georepute/backend/internal/s5_pricing"
	"github.com/wonny/georepute/backend/pkg/logger"
)

// Pipeline runs S1 → {S2, S3} → S4 → S5 on one signal bundle
// ⭐ SSOT: 엔진 실행 순서는 여기서만
type Pipeline struct {
	dcs       *s1_dcs.Engine
	threat    *s2_threat.Engine
	revenue   *s3_revenue.Engine
	recommend *s4_recommend.Engine
	pricing   *s5_pricing.Engine

	// nil이면 번들의 ThreatHistory를 그대로 사용 (CLI)
	history       contracts.ThreatHistoryRepository
	historyWindow int

	metrics *metrics.Metrics
	logger  *logger.Logger
}

// NewPipeline builds every engine from one model config
func NewPipeline(cfg *modelconfig.Config, history contracts.ThreatHistoryRepository, m *metrics.Metrics, log *logger.Logger) *Pipeline {
	return &Pipeline{
		dcs:           s1_dcs.NewEngine(cfg.DCS, log),
		threat:        s2_threat.NewEngine(cfg.Threat, log),
		revenue:       s3_revenue.NewEngine(cfg.Revenue, log),
		recommend:     s4_recommend.NewEngine(cfg.Recommendation, log),
		pricing:       s5_pricing.NewEngine(cfg.Pricing, log),
		history:       history,
		historyWindow: cfg.Threat.HistoryWindow,
		metrics:       m,
		logger:        log.Component("pipeline"),
	}
}

// Engines used directly by the preview endpoints
func (p *Pipeline) DCS() *s1_dcs.Engine                  { return p.dcs }
func (p *Pipeline) Threat() *s2_threat.Engine            { return p.threat }
func (p *Pipeline) Revenue() *s3_revenue.Engine          { return p.revenue }
func (p *Pipeline) Recommendation() *s4_recommend.Engine { return p.recommend }
func (p *Pipeline) Pricing() *s5_pricing.Engine          { return p.pricing }

// Input carries the caller's choices into S3-S5
type Input struct {
	AvgDealValue    *float64
	SelectedReports []string
	SelectedMarkets []string
	Scope           contracts.ScopeAdjustments
	PreviousMode    contracts.EngagementMode
}

// Result is every stage output of one run
type Result struct {
	DCS            *contracts.DCSResult             `json:"dcs"`
	Threat         *contracts.ThreatResult          `json:"threat"`
	Revenue        *contracts.RevenueExposureResult `json:"revenue"`
	Recommendation *contracts.RecommendationResult  `json:"recommendation"`
	PricingInput   contracts.PricingInput           `json:"pricing_input"`
	Pricing        *contracts.PricingResult         `json:"pricing"`
}

// Run computes all stages. DCS, threat and revenue run concurrently and the
// first failure cancels the rest; no partial result is returned.
func (p *Pipeline) Run(ctx context.Context, bundle *contracts.SignalBundle, in Input) (*Result, error) {
	res := &Result{}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return p.stage(contracts.StageDCS, func() error {
			res.DCS = p.dcs.Compute(bundle)
			return checkDCS(res.DCS)
		})
	})

	g.Go(func() error {
		return p.stage(contracts.StageThreat, func() error {
			b := *bundle
			if p.history != nil {
				history, err := p.history.RecentPressure(gctx, bundle.ProjectID, p.historyWindow)
				if err != nil {
					return fmt.Errorf("load threat history: %w", err)
				}
				b.ThreatHistory = history
			}
			res.Threat = p.threat.Compute(&b)
			return checkThreat(res.Threat)
		})
	})

	g.Go(func() error {
		return p.stage(contracts.StageRevenue, func() error {
			inputs := p.revenue.InputsFromBundle(bundle)
			res.Revenue = p.revenue.Compute(inputs.SearchDemand, inputs.CTRBenchmark, inputs.ConversionRate, in.AvgDealValue)
			return checkRevenue(res.Revenue)
		})
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := p.stage(contracts.StageRecommendation, func() error {
		res.Recommendation = p.recommend.Recommend(contracts.RecommendationInput{
			DCSScore:                 float64(res.DCS.FinalScore),
			CompetitivePressureIndex: res.Threat.CompetitivePressureIndex,
			PreviousMode:             in.PreviousMode,
		})
		return checkRecommendation(res.Recommendation)
	}); err != nil {
		return nil, err
	}

	if err := p.stage(contracts.StagePricing, func() error {
		res.PricingInput = p.PricingInput(bundle, res.DCS, res.Threat, in)
		res.Pricing = p.pricing.Compute(res.PricingInput)
		return checkPricing(res.Pricing)
	}); err != nil {
		return nil, err
	}

	return res, nil
}

// PricingInput derives the S5 input from the project scope and upstream results
func (p *Pipeline) PricingInput(bundle *contracts.SignalBundle, dcs *contracts.DCSResult, threat *contracts.ThreatResult, in Input) contracts.PricingInput {
	keywords := len(bundle.Keywords)
	if in.Scope.KeywordCount != nil {
		keywords = *in.Scope.KeywordCount
	}
	competitors := distinctCount(bundle.Competitors)
	if in.Scope.CompetitorCount != nil {
		competitors = *in.Scope.CompetitorCount
	}

	return contracts.PricingInput{
		ComplexityScore: p.pricing.ComplexityScore(keywords, competitors),
		NumberOfMarkets: max(1, distinctCount(in.SelectedMarkets)),
		DCSGap:          p.pricing.DCSGap(dcs.FinalScore),
		RiskIndex:       threat.CompetitivePressureIndex,
		MonitoringDepth: in.Scope.MonitoringDepth,
		SelectedReports: p.pricing.FilterReports(in.SelectedReports),
	}
}

// stage runs fn, timing it and turning an error or panic into a StageError
func (p *Pipeline) stage(stage contracts.Stage, fn func() error) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		p.metrics.ObserveStage(stage, time.Since(start))
		if err != nil {
			err = contracts.NewStageError(stage, err)
			p.logger.WithError(err).WithField("stage", stage.ShortName()).Warn("Stage failed")
		}
	}()
	return fn()
}

// Invariant checks. The engines clamp their own outputs, so a failure here
// means a broken engine, not bad input.

func checkDCS(r *contracts.DCSResult) error {
	if r.FinalScore < 0 || r.FinalScore > 100 {
		return invariant("final score %d outside [0,100]", r.FinalScore)
	}
	if r.DistanceToSafetyZone < 0 || r.DistanceToDominanceZone < 0 {
		return invariant("negative zone distance")
	}
	for _, l := range r.LayerBreakdown {
		if l.Score < 0 || l.Score > 100 {
			return invariant("layer %s score %.2f outside [0,100]", l.Name, l.Score)
		}
	}
	return nil
}

func checkThreat(r *contracts.ThreatResult) error {
	if r.CompetitivePressureIndex < 0 || r.CompetitivePressureIndex > 100 {
		return invariant("pressure index %.2f outside [0,100]", r.CompetitivePressureIndex)
	}
	return nil
}

func checkRevenue(r *contracts.RevenueExposureResult) error {
	w := r.RevenueExposureWindow
	if w.Conservative < 0 || w.Conservative > w.Strategic || w.Strategic > w.Dominance {
		return invariant("exposure window not ordered: %.2f/%.2f/%.2f", w.Conservative, w.Strategic, w.Dominance)
	}
	return nil
}

func checkRecommendation(r *contracts.RecommendationResult) error {
	if len(r.AllModes) == 0 || r.AllModes[0].Mode != r.PrimaryMode {
		return invariant("primary mode %s is not the top ranked mode", r.PrimaryMode)
	}
	return nil
}

func checkPricing(r *contracts.PricingResult) error {
	switch {
	case r.BasePriceMin < 0 || r.BasePriceMin > r.BasePriceMax:
		return invariant("base range %d..%d", r.BasePriceMin, r.BasePriceMax)
	case r.SuggestedMin > r.SuggestedMax:
		return invariant("suggested range %d..%d", r.SuggestedMin, r.SuggestedMax)
	case r.SuggestedMin < r.BasePriceMin:
		return invariant("suggested min %d below base %d", r.SuggestedMin, r.BasePriceMin)
	}
	return nil
}

func invariant(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", contracts.ErrInvariant, fmt.Sprintf(format, args...))
}

func distinctCount(values []string) int {
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			seen[v] = true
		}
	}
	return len(seen)
}
