package quote

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/georepute/backend/internal/contracts"
	"github.com/wonny/georepute/backend/internal/metrics"
	"github.com/wonny/georepute/backend/internal/modelconfig"
	"github.com/wonny/georepute/backend/pkg/logger"
)

func TestPipeline_EmptyBundle(t *testing.T) {
	p := NewPipeline(modelconfig.Default(), nil, metrics.New(), logger.NewNop())

	res, err := p.Run(context.Background(), &contracts.SignalBundle{ProjectID: "p"}, Input{})
	require.NoError(t, err)

	assert.Equal(t, contracts.RiskStable, res.Threat.RiskAccelerationIndicator)
	assert.True(t, res.Revenue.AvgDealValueDefaulted)
	assert.Equal(t, res.Recommendation.PrimaryMode, res.Recommendation.AllModes[0].Mode)
	assert.Equal(t, 0, res.PricingInput.ComplexityScore)
	assert.LessOrEqual(t, res.Pricing.SuggestedMin, res.Pricing.SuggestedMax)
	assert.GreaterOrEqual(t, res.Pricing.SuggestedMin, res.Pricing.BasePriceMin)
}

func TestPipeline_EmptySearchConsoleSummaryUsesRows(t *testing.T) {
	p := NewPipeline(modelconfig.Default(), nil, nil, logger.NewNop())

	res, err := p.Run(context.Background(), &contracts.SignalBundle{
		ProjectID:  "p",
		GSCSummary: &contracts.GSCSummary{},
		GSCRows:    []contracts.GSCRow{{Clicks: 300, Impressions: 10000, Position: 4}},
	}, Input{})
	require.NoError(t, err)

	organic, ok := res.DCS.Layer(contracts.LayerOrganicSearch)
	require.True(t, ok)
	assert.Equal(t, contracts.SourceMeasured, organic.Source)
	assert.Equal(t, 10000.0, res.Revenue.SearchDemand)
	assert.Greater(t, res.Revenue.RevenueExposureWindow.Dominance, 0.0)
}

func TestPipeline_BundleHistoryWithoutRepository(t *testing.T) {
	p := NewPipeline(modelconfig.Default(), nil, nil, logger.NewNop())

	b := richBundle()
	b.ThreatHistory = []float64{90, 90, 90}
	res, err := p.Run(context.Background(), b, Input{})
	require.NoError(t, err)
	require.NotNil(t, res.Threat.Baseline)
	assert.Equal(t, 90.0, *res.Threat.Baseline)
}

func TestPipeline_ScopeOverrides(t *testing.T) {
	p := NewPipeline(modelconfig.Default(), nil, nil, logger.NewNop())
	kw, comp := 30, 4

	res, err := p.Run(context.Background(), richBundle(), Input{
		Scope:           contracts.ScopeAdjustments{KeywordCount: &kw, CompetitorCount: &comp, MonitoringDepth: contracts.DepthDeep},
		SelectedMarkets: []string{"us", "US ", "uk"},
	})
	require.NoError(t, err)
	assert.Equal(t, 50, res.PricingInput.ComplexityScore)
	assert.Equal(t, 2, res.PricingInput.NumberOfMarkets)
	assert.Equal(t, contracts.DepthDeep, res.Pricing.MonitoringDepth)
}

func TestPipeline_StageRecoversPanic(t *testing.T) {
	p := NewPipeline(modelconfig.Default(), nil, nil, logger.NewNop())

	err := p.stage(contracts.StagePricing, func() error { panic("boom") })
	require.ErrorIs(t, err, contracts.ErrStageFailed)
	stage, ok := contracts.FailedStage(err)
	require.True(t, ok)
	assert.Equal(t, contracts.StagePricing, stage)
}

func TestInvariantChecks(t *testing.T) {
	assert.ErrorIs(t, checkDCS(&contracts.DCSResult{FinalScore: 101}), contracts.ErrInvariant)
	assert.ErrorIs(t, checkThreat(&contracts.ThreatResult{CompetitivePressureIndex: -1}), contracts.ErrInvariant)
	assert.ErrorIs(t, checkRevenue(&contracts.RevenueExposureResult{
		RevenueExposureWindow: contracts.ExposureWindow{Conservative: 10, Strategic: 5, Dominance: 20},
	}), contracts.ErrInvariant)
	assert.ErrorIs(t, checkRecommendation(&contracts.RecommendationResult{PrimaryMode: contracts.ModeGrowth}), contracts.ErrInvariant)
	assert.ErrorIs(t, checkPricing(&contracts.PricingResult{BasePriceMin: 10, BasePriceMax: 20, SuggestedMin: 5, SuggestedMax: 30}), contracts.ErrInvariant)
	assert.NoError(t, checkPricing(&contracts.PricingResult{BasePriceMin: 10, BasePriceMax: 20, SuggestedMin: 12, SuggestedMax: 30}))
}

func TestParsePatch_KeepsAllowListOrder(t *testing.T) {
	p, err := ParsePatch(patch(t, `{"status":"sent","internal_notes":"x","bogus":1,"selected_reports":[]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{FieldSelectedReports, FieldInternalNotes, FieldStatus}, p.Fields)
	assert.True(t, p.Has(FieldStatus))
	assert.False(t, p.Has(FieldPriceOverride))
}
