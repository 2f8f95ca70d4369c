package contracts

// ⭐ SSOT: 엔진 결과 타입 (S1~S5), 견적 스냅샷에 그대로 저장됨

// Layer names, in the order they appear in DCSResult.LayerBreakdown
const (
	LayerAIVisibility   = "ai_visibility"
	LayerOrganicSearch  = "organic_search"
	LayerReputation     = "reputation"
	LayerCompetitive    = "competitive"
	LayerWebsiteQuality = "website_quality"
)

// Data source of a layer or comparison row
const (
	SourceMeasured         = "measured"
	SourceDefault          = "default"
	SourceCompetitorSignal = "competitor_signals"
	SourceIndustryBaseline = "industry_baseline"
)

// DCSLayer is one weighted sub-score of the DCS
type DCSLayer struct {
	Name       string             `json:"name"`
	Score      float64            `json:"score"`  // 0~100
	Weight     float64            `json:"weight"` // 합 = 1.0
	Source     string             `json:"source"` // measured | default
	Components map[string]float64 `json:"components,omitempty"`
}

// RadarPoint is the presentation view of a layer
type RadarPoint struct {
	Axis  string  `json:"axis"`
	Value float64 `json:"value"`
}

// CompetitorScore is a rough DCS estimate for a named competitor
type CompetitorScore struct {
	Competitor     string `json:"competitor"`
	EstimatedScore int    `json:"estimated_score"`
	Difference     int    `json:"difference"` // estimated - ours
	Source         string `json:"source"`
}

// DCSResult is the S1 output
type DCSResult struct {
	FinalScore              int               `json:"final_score"` // 0~100
	LayerBreakdown          []DCSLayer        `json:"layer_breakdown"`
	RadarChartData          []RadarPoint      `json:"radar_chart_data"`
	CompetitorComparison    []CompetitorScore `json:"competitor_comparison"`
	DistanceToSafetyZone    int               `json:"distance_to_safety_zone"`
	DistanceToDominanceZone int               `json:"distance_to_dominance_zone"`
	SafetyThreshold         int               `json:"safety_threshold"`
	DominanceThreshold      int               `json:"dominance_threshold"`
}

// Layer returns the named layer
func (r *DCSResult) Layer(name string) (DCSLayer, bool) {
	for _, l := range r.LayerBreakdown {
		if l.Name == name {
			return l, true
		}
	}
	return DCSLayer{}, false
}

// RiskAcceleration is the three-way trend label of the pressure index
type RiskAcceleration string

const (
	RiskAccelerating RiskAcceleration = "accelerating"
	RiskStable       RiskAcceleration = "stable"
	RiskDeclining    RiskAcceleration = "declining"
)

// Threat signal keys. Only these are stable for callers.
const (
	ThreatSignalCompetitorDensity     = "competitor_density"
	ThreatSignalCompetitorMentionRate = "competitor_mention_rate"
	ThreatSignalShareErosion          = "share_erosion"
	ThreatSignalBlindSpotExposure     = "blind_spot_exposure"
	ThreatSignalVisibilityGap         = "visibility_gap"
)

// ThreatResult is the S2 output
type ThreatResult struct {
	CompetitivePressureIndex  float64            `json:"competitive_pressure_index"` // 0~100
	RiskAccelerationIndicator RiskAcceleration   `json:"risk_acceleration_indicator"`
	PressureLevel             string             `json:"pressure_level"` // low | moderate | high | critical
	Signals                   map[string]float64 `json:"signals"`
	Baseline                  *float64           `json:"baseline,omitempty"`
	Disclaimer                string             `json:"disclaimer"`
}

// ExposureWindow is the three-tier monthly revenue opportunity
type ExposureWindow struct {
	Conservative float64 `json:"conservative"`
	Strategic    float64 `json:"strategic"`
	Dominance    float64 `json:"dominance"`
}

// RevenueExposureResult is the S3 output
type RevenueExposureResult struct {
	SearchDemand          float64        `json:"search_demand"`
	CTRBenchmark          float64        `json:"ctr_benchmark"`
	ConversionRate        float64        `json:"conversion_rate"`
	AvgDealValue          float64        `json:"avg_deal_value"`
	AvgDealValueDefaulted bool           `json:"avg_deal_value_defaulted"`
	RevenueExposureWindow ExposureWindow `json:"revenue_exposure_window"`
	Disclaimer            string         `json:"disclaimer"`
}

// EngagementMode is a recommended engagement type
type EngagementMode string

const (
	ModeFoundation EngagementMode = "foundation"
	ModeDefense    EngagementMode = "defense"
	ModeGrowth     EngagementMode = "growth"
	ModeDominance  EngagementMode = "dominance"
)

// AllEngagementModes returns modes in tie-break order
func AllEngagementModes() []EngagementMode {
	return []EngagementMode{ModeFoundation, ModeDefense, ModeGrowth, ModeDominance}
}

// IsValid checks the mode against the closed set
func (m EngagementMode) IsValid() bool {
	for _, mode := range AllEngagementModes() {
		if m == mode {
			return true
		}
	}
	return false
}

// RecommendationInput is the S4 input
type RecommendationInput struct {
	DCSScore                 float64        `json:"dcs_score"`
	CompetitivePressureIndex float64        `json:"competitive_pressure_index"`
	PreviousMode             EngagementMode `json:"previous_mode,omitempty"`
}

// ModeScore is one ranked candidate
type ModeScore struct {
	Mode      EngagementMode `json:"mode"`
	Score     float64        `json:"score"`
	Rationale string         `json:"rationale"`
}

// RecommendationResult is the S4 output
type RecommendationResult struct {
	PrimaryMode EngagementMode `json:"primary_mode"`
	AllModes    []ModeScore    `json:"all_modes"`
	Priorities  []string       `json:"priorities"`
	FocusAreas  []string       `json:"focus_areas"`
}

// MonitoringDepth controls service intensity and price
type MonitoringDepth string

const (
	DepthBasic    MonitoringDepth = "basic"
	DepthStandard MonitoringDepth = "standard"
	DepthDeep     MonitoringDepth = "deep"
)

// IsValid checks the depth against the closed set
func (d MonitoringDepth) IsValid() bool {
	return d == DepthBasic || d == DepthStandard || d == DepthDeep
}

// PricingInput is the S5 input
type PricingInput struct {
	ComplexityScore int             `json:"complexity_score"` // 0~50
	NumberOfMarkets int             `json:"number_of_markets"`
	DCSGap          float64         `json:"dcs_gap"`    // max(0, target - final)
	RiskIndex       float64         `json:"risk_index"` // 0~100
	MonitoringDepth MonitoringDepth `json:"monitoring_depth"`
	SelectedReports []string        `json:"selected_reports"`
}

// ReportAddOn is a priced report line
type ReportAddOn struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// Breakdown line kinds
const (
	LineBase       = "base"
	LineAddOn      = "addon"
	LinePremium    = "premium"
	LineMultiplier = "multiplier"
	LineTotal      = "total"
)

// PriceLine is one itemized contributor
type PriceLine struct {
	Label  string  `json:"label"`
	Kind   string  `json:"kind"`
	Min    int64   `json:"min,omitempty"`
	Max    int64   `json:"max,omitempty"`
	Factor float64 `json:"factor,omitempty"`
}

// PricingResult is the S5 output. Money is whole currency units.
type PricingResult struct {
	BasePriceMin      int64           `json:"base_price_min"`
	BasePriceMax      int64           `json:"base_price_max"`
	ReportAddOns      []ReportAddOn   `json:"report_add_ons"`
	ReportAddOnsTotal int64           `json:"report_add_ons_total"`
	RiskPremium       int64           `json:"risk_premium"`
	MarketMultiplier  float64         `json:"market_multiplier"`
	MonitoringDepth   MonitoringDepth `json:"monitoring_depth"`
	DepthMultiplier   float64         `json:"depth_multiplier"`
	SuggestedMin      int64           `json:"suggested_min"`
	SuggestedMax      int64           `json:"suggested_max"`
	Breakdown         []PriceLine     `json:"breakdown"`
}

// Midpoint is the rounded middle of the suggested range
func (p *PricingResult) Midpoint() int64 {
	return (p.SuggestedMin + p.SuggestedMax + 1) / 2
}
