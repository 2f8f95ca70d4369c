package modelconfig

import "strings"

// Config는 견적 파이프라인(S1~S5)의 모든 수치 상수
// ⭐ SSOT: 가중치/임계값/가격 밴드는 여기서만 정의, 엔진 코드에 리터럴 금지
type Config struct {
	Meta           Meta           `yaml:"meta" json:"meta"`
	DCS            DCS            `yaml:"dcs" json:"dcs"`
	Threat         Threat         `yaml:"threat" json:"threat"`
	Revenue        Revenue        `yaml:"revenue" json:"revenue"`
	Recommendation Recommendation `yaml:"recommendation" json:"recommendation"`
	Pricing        Pricing        `yaml:"pricing" json:"pricing"`
}

// Meta 메타 정보
type Meta struct {
	ModelID string `yaml:"model_id" json:"model_id"`
	Version string `yaml:"version" json:"version"`
}

// LayerValues holds one number per DCS layer
type LayerValues struct {
	AIVisibility   float64 `yaml:"ai_visibility" json:"ai_visibility"`
	OrganicSearch  float64 `yaml:"organic_search" json:"organic_search"`
	Reputation     float64 `yaml:"reputation" json:"reputation"`
	Competitive    float64 `yaml:"competitive" json:"competitive"`
	WebsiteQuality float64 `yaml:"website_quality" json:"website_quality"`
}

// Sum returns the total of all layers
func (v LayerValues) Sum() float64 {
	return v.AIVisibility + v.OrganicSearch + v.Reputation + v.Competitive + v.WebsiteQuality
}

// DCS S1: Domain Competitiveness Score
type DCS struct {
	Weights            LayerValues        `yaml:"weights" json:"weights"`   // 합 = 1.0
	Defaults           LayerValues        `yaml:"defaults" json:"defaults"` // 시그널 부재 시 레이어 점수
	SafetyThreshold    int                `yaml:"safety_threshold" json:"safety_threshold"`
	DominanceThreshold int                `yaml:"dominance_threshold" json:"dominance_threshold"`
	Organic            OrganicSearch      `yaml:"organic" json:"organic"`
	ReviewConfidence   float64            `yaml:"review_confidence_log_base" json:"review_confidence_log_base"`
	IndustryBaselines  map[string]float64 `yaml:"industry_baselines" json:"industry_baselines"` // "default" 필수
}

// OrganicSearch normalisation ceilings for the GSC layer
type OrganicSearch struct {
	PositionFloor float64 `yaml:"position_floor" json:"position_floor"` // 이 순위 이하 = 0점
	CTRCeiling    float64 `yaml:"ctr_ceiling" json:"ctr_ceiling"`       // 이 CTR 이상 = 100점
	ClicksCeiling float64 `yaml:"clicks_ceiling" json:"clicks_ceiling"` // log 스케일 100점 기준
	PositionShare float64 `yaml:"position_share" json:"position_share"`
	CTRShare      float64 `yaml:"ctr_share" json:"ctr_share"`
	ClicksShare   float64 `yaml:"clicks_share" json:"clicks_share"`
}

// Threat S2: Competitive Pressure Index
type Threat struct {
	Weights             ThreatWeights `yaml:"weights" json:"weights"` // 합 = 1.0
	PointsPerCompetitor float64       `yaml:"points_per_competitor" json:"points_per_competitor"`
	ErosionPerSharePt   float64       `yaml:"erosion_per_share_point" json:"erosion_per_share_point"`
	AccelerationDelta   float64       `yaml:"acceleration_delta" json:"acceleration_delta"`
	HistoryWindow       int           `yaml:"history_window" json:"history_window"`
}

type ThreatWeights struct {
	CompetitorDensity     float64 `yaml:"competitor_density" json:"competitor_density"`
	CompetitorMentionRate float64 `yaml:"competitor_mention_rate" json:"competitor_mention_rate"`
	ShareErosion          float64 `yaml:"share_erosion" json:"share_erosion"`
	BlindSpotExposure     float64 `yaml:"blind_spot_exposure" json:"blind_spot_exposure"`
	VisibilityGap         float64 `yaml:"visibility_gap" json:"visibility_gap"`
}

func (w ThreatWeights) Sum() float64 {
	return w.CompetitorDensity + w.CompetitorMentionRate + w.ShareErosion + w.BlindSpotExposure + w.VisibilityGap
}

// Revenue S3: exposure window assumptions
type Revenue struct {
	DefaultAvgDealValue     float64            `yaml:"default_avg_deal_value" json:"default_avg_deal_value"`
	DefaultCTR              float64            `yaml:"default_ctr" json:"default_ctr"`
	DefaultConversionRate   float64            `yaml:"default_conversion_rate" json:"default_conversion_rate"`
	IndustryConversionRates map[string]float64 `yaml:"industry_conversion_rates" json:"industry_conversion_rates"`
	CaptureRates            CaptureRates       `yaml:"capture_rates" json:"capture_rates"`
}

// CaptureRates: conservative ≤ strategic ≤ dominance
type CaptureRates struct {
	Conservative float64 `yaml:"conservative" json:"conservative"`
	Strategic    float64 `yaml:"strategic" json:"strategic"`
	Dominance    float64 `yaml:"dominance" json:"dominance"`
}

// Recommendation S4: decision surface over (DCS, threat)
type Recommendation struct {
	Anchors          []Anchor `yaml:"anchors" json:"anchors"`
	HysteresisMargin float64  `yaml:"hysteresis_margin" json:"hysteresis_margin"`
	HighPressure     float64  `yaml:"high_pressure" json:"high_pressure"` // 이상이면 방어 우선순위 추가
	LowDCS           float64  `yaml:"low_dcs" json:"low_dcs"`             // 미만이면 기초 우선순위 추가
}

// Anchor is the ideal (DCS, threat) point of a mode
type Anchor struct {
	Mode   string  `yaml:"mode" json:"mode"`
	DCS    float64 `yaml:"dcs" json:"dcs"`
	Threat float64 `yaml:"threat" json:"threat"`
}

// Pricing S5
type Pricing struct {
	TargetDCS        int              `yaml:"target_dcs" json:"target_dcs"`
	MaxComplexity    int              `yaml:"max_complexity" json:"max_complexity"`
	Bands            []PriceBand      `yaml:"bands" json:"bands"`
	ReportAddOns     []AddOn          `yaml:"report_add_ons" json:"report_add_ons"`
	RiskPremium      RiskPremium      `yaml:"risk_premium" json:"risk_premium"`
	Markets          Markets          `yaml:"markets" json:"markets"`
	DepthMultipliers DepthMultipliers `yaml:"depth_multipliers" json:"depth_multipliers"`
	DefaultDepth     string           `yaml:"default_depth" json:"default_depth"`
}

// PriceBand covers complexity scores up to and including MaxComplexity
type PriceBand struct {
	MaxComplexity int   `yaml:"max_complexity" json:"max_complexity"`
	Min           int64 `yaml:"min" json:"min"`
	Max           int64 `yaml:"max" json:"max"`
}

// AddOn is a purchasable report
type AddOn struct {
	ID    string `yaml:"id" json:"id"`
	Name  string `yaml:"name" json:"name"`
	Price int64  `yaml:"price" json:"price"`
}

// RiskPremium = round(Max × (RiskWeight × risk/100 + GapWeight × min(gap, GapCap)/GapCap))
type RiskPremium struct {
	Max        int64   `yaml:"max" json:"max"`
	RiskWeight float64 `yaml:"risk_weight" json:"risk_weight"`
	GapWeight  float64 `yaml:"gap_weight" json:"gap_weight"`
	GapCap     float64 `yaml:"gap_cap" json:"gap_cap"`
}

// Markets: 1 + Σ Increment × Decay^(i-1) over additional markets, capped
type Markets struct {
	Increment     float64 `yaml:"increment" json:"increment"`
	Decay         float64 `yaml:"decay" json:"decay"`
	MaxMultiplier float64 `yaml:"max_multiplier" json:"max_multiplier"`
}

// DepthMultipliers applied once, to the final suggested range
type DepthMultipliers struct {
	Basic    float64 `yaml:"basic" json:"basic"`
	Standard float64 `yaml:"standard" json:"standard"`
	Deep     float64 `yaml:"deep" json:"deep"`
}

// For returns the multiplier of depth and whether depth was known
func (d DepthMultipliers) For(depth string) (float64, bool) {
	switch depth {
	case "basic":
		return d.Basic, true
	case "standard":
		return d.Standard, true
	case "deep":
		return d.Deep, true
	}
	return 0, false
}

// IndustryKey normalises a free-form industry label ("Local Services" → "local_services")
func IndustryKey(industry string) string {
	key := strings.ToLower(strings.TrimSpace(industry))
	key = strings.NewReplacer(" ", "_", "-", "_", "/", "_").Replace(key)
	if key == "" {
		return "default"
	}
	return key
}

// IndustryValue looks up industry in table, falling back to the "default" entry
func IndustryValue(table map[string]float64, industry string) (float64, bool) {
	if v, ok := table[IndustryKey(industry)]; ok {
		return v, true
	}
	return table["default"], false
}

// ReportAddOnIDs returns the allow-list of report add-on ids in config order
func (p Pricing) ReportAddOnIDs() []string {
	ids := make([]string, 0, len(p.ReportAddOns))
	for _, a := range p.ReportAddOns {
		ids = append(ids, a.ID)
	}
	return ids
}

// Default returns the compiled-in model (quote_builder_v1)
func Default() *Config {
	return &Config{
		Meta: Meta{ModelID: "quote_builder", Version: "v1"},
		DCS: DCS{
			Weights: LayerValues{
				AIVisibility:   0.30,
				OrganicSearch:  0.25,
				Reputation:     0.15,
				Competitive:    0.20,
				WebsiteQuality: 0.10,
			},
			// 신규 도메인이 0점으로 처벌받지 않도록 낮지만 0이 아닌 값
			Defaults: LayerValues{
				AIVisibility:   20,
				OrganicSearch:  25,
				Reputation:     40,
				Competitive:    30,
				WebsiteQuality: 35,
			},
			SafetyThreshold:    60,
			DominanceThreshold: 80,
			Organic: OrganicSearch{
				PositionFloor: 50,
				CTRCeiling:    0.10,
				ClicksCeiling: 10000,
				PositionShare: 0.5,
				CTRShare:      0.3,
				ClicksShare:   0.2,
			},
			ReviewConfidence: 100,
			IndustryBaselines: map[string]float64{
				"default":        45,
				"saas":           55,
				"ecommerce":      50,
				"finance":        52,
				"healthcare":     45,
				"legal":          48,
				"local_services": 40,
				"real_estate":    42,
				"hospitality":    44,
			},
		},
		Threat: Threat{
			Weights: ThreatWeights{
				CompetitorDensity:     0.25,
				CompetitorMentionRate: 0.25,
				ShareErosion:          0.20,
				BlindSpotExposure:     0.15,
				VisibilityGap:         0.15,
			},
			PointsPerCompetitor: 10,
			ErosionPerSharePt:   10,
			AccelerationDelta:   5,
			HistoryWindow:       3,
		},
		Revenue: Revenue{
			DefaultAvgDealValue:   2500,
			DefaultCTR:            0.03,
			DefaultConversionRate: 0.02,
			IndustryConversionRates: map[string]float64{
				"default":        0.02,
				"saas":           0.015,
				"ecommerce":      0.025,
				"finance":        0.018,
				"healthcare":     0.03,
				"legal":          0.035,
				"local_services": 0.04,
			},
			CaptureRates: CaptureRates{
				Conservative: 0.10,
				Strategic:    0.25,
				Dominance:    0.50,
			},
		},
		Recommendation: Recommendation{
			Anchors: []Anchor{
				{Mode: "foundation", DCS: 25, Threat: 35},
				{Mode: "defense", DCS: 40, Threat: 80},
				{Mode: "growth", DCS: 60, Threat: 40},
				{Mode: "dominance", DCS: 85, Threat: 20},
			},
			HysteresisMargin: 5,
			HighPressure:     60,
			LowDCS:           40,
		},
		Pricing: Pricing{
			TargetDCS:     70,
			MaxComplexity: 50,
			Bands: []PriceBand{
				{MaxComplexity: 10, Min: 1500, Max: 2500},
				{MaxComplexity: 20, Min: 2500, Max: 4000},
				{MaxComplexity: 35, Min: 4000, Max: 6500},
				{MaxComplexity: 50, Min: 6500, Max: 10000},
			},
			ReportAddOns: []AddOn{
				{ID: "ai_visibility_audit", Name: "AI Visibility Audit", Price: 750},
				{ID: "competitor_benchmark", Name: "Competitor Benchmark", Price: 900},
				{ID: "content_gap_analysis", Name: "Content Gap Analysis", Price: 600},
				{ID: "reputation_report", Name: "Reputation Report", Price: 500},
				{ID: "technical_seo_audit", Name: "Technical SEO Audit", Price: 800},
				{ID: "market_share_report", Name: "Market Share Report", Price: 700},
				{ID: "executive_summary", Name: "Executive Summary", Price: 400},
			},
			RiskPremium: RiskPremium{
				Max:        2500,
				RiskWeight: 0.6,
				GapWeight:  0.4,
				GapCap:     70,
			},
			Markets: Markets{
				Increment:     0.35,
				Decay:         0.85,
				MaxMultiplier: 3.0,
			},
			DepthMultipliers: DepthMultipliers{
				Basic:    1.0,
				Standard: 1.15,
				Deep:     1.35,
			},
			DefaultDepth: "standard",
		},
	}
}
