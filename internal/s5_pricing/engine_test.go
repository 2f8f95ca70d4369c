package s5_pricing

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/georepute/backend/internal/contracts"
	"github.com/wonny/georepute/backend/internal/modelconfig"
	"github.com/wonny/georepute/backend/pkg/logger"
)

func newTestEngine() *Engine {
	return NewEngine(modelconfig.Default().Pricing, logger.NewNop())
}

func baseInput() contracts.PricingInput {
	return contracts.PricingInput{
		ComplexityScore: 20,
		NumberOfMarkets: 1,
		DCSGap:          10,
		RiskIndex:       30,
		MonitoringDepth: contracts.DepthStandard,
		SelectedReports: []string{},
	}
}

func TestCompute_Scenario(t *testing.T) {
	res := newTestEngine().Compute(baseInput())

	assert.Equal(t, int64(2500), res.BasePriceMin)
	assert.Equal(t, int64(4000), res.BasePriceMax)
	assert.Equal(t, int64(0), res.ReportAddOnsTotal)
	assert.Empty(t, res.ReportAddOns)
	assert.Equal(t, 1.0, res.MarketMultiplier)
	assert.Equal(t, 1.15, res.DepthMultiplier)

	// 2500 × (0.6×0.3 + 0.4×10/70) = 592.86
	assert.Equal(t, int64(593), res.RiskPremium)
	assert.Equal(t, int64(3557), res.SuggestedMin)
	assert.Equal(t, int64(5282), res.SuggestedMax)
	assert.GreaterOrEqual(t, res.SuggestedMin, res.BasePriceMin)
}

func TestCompute_Breakdown(t *testing.T) {
	in := baseInput()
	in.SelectedReports = []string{"executive_summary"}
	res := newTestEngine().Compute(in)

	kinds := make([]string, 0, len(res.Breakdown))
	for _, l := range res.Breakdown {
		kinds = append(kinds, l.Kind)
	}
	assert.Equal(t, []string{
		contracts.LineBase,
		contracts.LineAddOn,
		contracts.LinePremium,
		contracts.LineMultiplier,
		contracts.LineMultiplier,
		contracts.LineTotal,
	}, kinds)

	last := res.Breakdown[len(res.Breakdown)-1]
	assert.Equal(t, res.SuggestedMin, last.Min)
	assert.Equal(t, res.SuggestedMax, last.Max)
}

func TestCompute_UnknownReportsDropped(t *testing.T) {
	e := newTestEngine()

	clean := baseInput()
	clean.SelectedReports = []string{"competitor_benchmark"}

	dirty := baseInput()
	dirty.SelectedReports = []string{"bogus", "competitor_benchmark", "competitor_benchmark", ""}

	assert.Equal(t, e.Compute(clean), e.Compute(dirty))
	assert.Equal(t, int64(900), e.Compute(dirty).ReportAddOnsTotal)
}

func TestFilterReports_KeepsOrder(t *testing.T) {
	got := newTestEngine().FilterReports([]string{"executive_summary", "nope", "reputation_report", "executive_summary"})
	assert.Equal(t, []string{"executive_summary", "reputation_report"}, got)
}

func TestCompute_DepthOrdering(t *testing.T) {
	e := newTestEngine()

	prices := map[contracts.MonitoringDepth]int64{}
	for _, d := range []contracts.MonitoringDepth{contracts.DepthBasic, contracts.DepthStandard, contracts.DepthDeep} {
		in := baseInput()
		in.MonitoringDepth = d
		prices[d] = e.Compute(in).SuggestedMax
	}
	assert.GreaterOrEqual(t, prices[contracts.DepthDeep], prices[contracts.DepthStandard])
	assert.GreaterOrEqual(t, prices[contracts.DepthStandard], prices[contracts.DepthBasic])

	in := baseInput()
	in.MonitoringDepth = "extreme"
	res := e.Compute(in)
	assert.Equal(t, contracts.DepthStandard, res.MonitoringDepth)
	assert.Equal(t, prices[contracts.DepthStandard], res.SuggestedMax)
}

func TestCompute_MarketMultiplier(t *testing.T) {
	e := newTestEngine()

	tests := []struct {
		markets int
		want    float64
	}{
		{0, 1.0},
		{1, 1.0},
		{2, 1.35},
		{3, 1.6475},
		{50, 3.0},
	}
	for _, tt := range tests {
		in := baseInput()
		in.NumberOfMarkets = tt.markets
		assert.InDelta(t, tt.want, e.Compute(in).MarketMultiplier, 1e-9, "markets=%d", tt.markets)
	}
}

func TestCompute_HugeMarketCount(t *testing.T) {
	e := newTestEngine()

	for _, n := range []int{MaxMarkets, 50000, 1 << 30, math.MaxInt} {
		in := baseInput()
		in.NumberOfMarkets = n

		start := time.Now()
		res := e.Compute(in)
		elapsed := time.Since(start)

		assert.Less(t, elapsed, time.Second, "markets=%d", n)
		assert.InDelta(t, 3.0, res.MarketMultiplier, 1e-9, "markets=%d", n)
	}
}

func TestCompute_UncappedMarketsStayBounded(t *testing.T) {
	cfg := modelconfig.Default().Pricing
	cfg.Markets = modelconfig.Markets{Increment: 0.1, Decay: 1}
	e := NewEngine(cfg, logger.NewNop())

	in := baseInput()
	in.NumberOfMarkets = 1 << 30

	start := time.Now()
	res := e.Compute(in)
	assert.Less(t, time.Since(start), time.Second)
	assert.InDelta(t, 1+0.1*float64(MaxMarkets-1), res.MarketMultiplier, 1e-9)
}

func TestCompute_Monotonic(t *testing.T) {
	e := newTestEngine()

	prev := int64(-1)
	for risk := 0.0; risk <= 100; risk += 5 {
		in := baseInput()
		in.RiskIndex = risk
		got := e.Compute(in).SuggestedMax
		require.GreaterOrEqual(t, got, prev, "risk=%v", risk)
		prev = got
	}

	prev = -1
	for gap := 0.0; gap <= 70; gap += 5 {
		in := baseInput()
		in.DCSGap = gap
		got := e.Compute(in).SuggestedMax
		require.GreaterOrEqual(t, got, prev, "gap=%v", gap)
		prev = got
	}

	prev = -1
	for m := 1; m <= 12; m++ {
		in := baseInput()
		in.NumberOfMarkets = m
		got := e.Compute(in).SuggestedMax
		require.GreaterOrEqual(t, got, prev, "markets=%d", m)
		prev = got
	}

	var reports []string
	prevTotal := int64(0)
	for _, id := range e.ReportAddOnIDs() {
		reports = append(reports, id)
		in := baseInput()
		in.SelectedReports = reports
		got := e.Compute(in).ReportAddOnsTotal
		require.GreaterOrEqual(t, got, prevTotal)
		prevTotal = got
	}
}

func TestCompute_BoundsRandom(t *testing.T) {
	e := newTestEngine()
	rng := rand.New(rand.NewSource(7))
	depths := []contracts.MonitoringDepth{contracts.DepthBasic, contracts.DepthStandard, contracts.DepthDeep, ""}
	ids := append(e.ReportAddOnIDs(), "unknown")

	for i := 0; i < 500; i++ {
		in := contracts.PricingInput{
			ComplexityScore: rng.Intn(80) - 10,
			NumberOfMarkets: rng.Intn(8) - 1,
			DCSGap:          rng.Float64()*120 - 10,
			RiskIndex:       rng.Float64()*130 - 15,
			MonitoringDepth: depths[rng.Intn(len(depths))],
		}
		for _, id := range ids {
			if rng.Intn(3) == 0 {
				in.SelectedReports = append(in.SelectedReports, id)
			}
		}

		res := e.Compute(in)
		require.LessOrEqual(t, res.BasePriceMin, res.BasePriceMax)
		require.LessOrEqual(t, res.SuggestedMin, res.SuggestedMax)
		require.GreaterOrEqual(t, res.SuggestedMin, res.BasePriceMin)
		require.GreaterOrEqual(t, res.BasePriceMin, int64(0))
		require.GreaterOrEqual(t, res.RiskPremium, int64(0))
		require.GreaterOrEqual(t, res.MarketMultiplier, 1.0)
	}
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, 0, ComplexityScore(0, 0))
	assert.Equal(t, 26, ComplexityScore(8, 2))
	assert.Equal(t, 50, ComplexityScore(40, 10))

	assert.Equal(t, 70.0, DCSGap(0))
	assert.Equal(t, 12.0, DCSGap(58))
	assert.Equal(t, 0.0, DCSGap(95))

	res := ComputePricing(baseInput())
	assert.Equal(t, int64(4420), res.Midpoint())
}
