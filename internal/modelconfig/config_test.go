package modelconfig

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const modelPath = "../../config/model/quote_builder_v1.yaml"

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(cfg))
	assert.Empty(t, Warn(cfg))
}

func TestLoad_MatchesDefault(t *testing.T) {
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		t.Skip("model file not found")
	}

	cfg, data, err := Load(modelPath)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	fileHash, err := Hash(cfg)
	require.NoError(t, err)
	defaultHash, err := Hash(Default())
	require.NoError(t, err)

	// 파일과 컴파일된 기본값이 어긋나면 견적의 model_hash가 환경마다 달라짐
	assert.Equal(t, defaultHash, fileHash)
	assert.Len(t, fileHash, 64)
}

func TestHash_Deterministic(t *testing.T) {
	h1, err := Hash(Default())
	require.NoError(t, err)
	h2, err := Hash(Default())
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	changed := Default()
	changed.Pricing.TargetDCS = 75
	h3, err := Hash(changed)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}

func TestParse_UnknownFieldFails(t *testing.T) {
	_, err := Parse([]byte("meta:\n  model_id: x\n  versoin: typo\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "versoin")
}

func TestLoadOrDefault_EmptyPath(t *testing.T) {
	cfg, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, "quote_builder", cfg.Meta.ModelID)
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"dcs weights sum", func(c *Config) { c.DCS.Weights.Reputation = 0.5 }, "dcs.weights"},
		{"thresholds order", func(c *Config) { c.DCS.SafetyThreshold = 90 }, "dcs.thresholds"},
		{"missing industry default", func(c *Config) { delete(c.DCS.IndustryBaselines, "default") }, "dcs.industry_baselines"},
		{"threat weights sum", func(c *Config) { c.Threat.Weights.VisibilityGap = 0 }, "threat.weights"},
		{"capture order", func(c *Config) { c.Revenue.CaptureRates.Strategic = 0.6 }, "revenue.capture_rates"},
		{"missing anchor", func(c *Config) { c.Recommendation.Anchors = c.Recommendation.Anchors[:3] }, "recommendation.anchors"},
		{"duplicate anchor", func(c *Config) { c.Recommendation.Anchors[1].Mode = "foundation" }, "recommendation.anchors[1].mode"},
		{"band inverted", func(c *Config) { c.Pricing.Bands[0].Min = 3000 }, "pricing.bands[0]"},
		{"band decreasing", func(c *Config) { c.Pricing.Bands[1].Max = 2000; c.Pricing.Bands[1].Min = 1500 }, "pricing.bands[1]"},
		{"bands short", func(c *Config) { c.Pricing.Bands = c.Pricing.Bands[:2] }, "pricing.bands"},
		{"duplicate addon", func(c *Config) { c.Pricing.ReportAddOns[1].ID = "ai_visibility_audit" }, "pricing.report_add_ons[1].id"},
		{"risk weights", func(c *Config) { c.Pricing.RiskPremium.GapWeight = 0.5 }, "pricing.risk_premium"},
		{"depth below one", func(c *Config) { c.Pricing.DepthMultipliers.Basic = 0.9 }, "pricing.depth_multipliers.basic"},
		{"depth order", func(c *Config) { c.Pricing.DepthMultipliers.Deep = 1.1 }, "pricing.depth_multipliers"},
		{"default depth", func(c *Config) { c.Pricing.DefaultDepth = "extreme" }, "pricing.default_depth"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			require.Error(t, err)

			var ve ValidationError
			require.True(t, errors.As(err, &ve), "expected ValidationError, got %T", err)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestWarn(t *testing.T) {
	cfg := Default()
	cfg.DCS.Weights = LayerValues{AIVisibility: 0.6, OrganicSearch: 0.1, Reputation: 0.1, Competitive: 0.1, WebsiteQuality: 0.1}
	cfg.Pricing.Bands[2].Min = 4200
	cfg.Recommendation.HysteresisMargin = 25

	var codes []string
	for _, w := range Warn(cfg) {
		codes = append(codes, w.Code)
	}
	joined := strings.Join(codes, ",")
	assert.Contains(t, joined, "DCS_LAYER_DOMINANT")
	assert.Contains(t, joined, "BAND_DISCONTINUITY")
	assert.Contains(t, joined, "HYSTERESIS_WIDE")
}

func TestIndustryValue(t *testing.T) {
	table := Default().Revenue.IndustryConversionRates

	v, ok := IndustryValue(table, "Local Services")
	assert.True(t, ok)
	assert.Equal(t, 0.04, v)

	v, ok = IndustryValue(table, "space-tourism")
	assert.False(t, ok)
	assert.Equal(t, 0.02, v)

	assert.Equal(t, "default", IndustryKey("  "))
}

func TestReportAddOnIDs(t *testing.T) {
	ids := Default().Pricing.ReportAddOnIDs()
	assert.Len(t, ids, 7)
	assert.Equal(t, "ai_visibility_audit", ids[0])
}
