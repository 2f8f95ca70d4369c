package modelconfig

import (
	"fmt"
	"math"
)

// ValidationError 검증 실패 (로드 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

const weightTolerance = 1e-6

// Validate checks all required constraints
func Validate(cfg *Config) error {
	if cfg.Meta.ModelID == "" {
		return ValidationError{"meta.model_id", "required"}
	}

	if err := validateDCS(&cfg.DCS); err != nil {
		return err
	}
	if err := validateThreat(&cfg.Threat); err != nil {
		return err
	}
	if err := validateRevenue(&cfg.Revenue); err != nil {
		return err
	}
	if err := validateRecommendation(&cfg.Recommendation); err != nil {
		return err
	}
	return validatePricing(&cfg.Pricing)
}

func validateDCS(d *DCS) error {
	if math.Abs(d.Weights.Sum()-1.0) > weightTolerance {
		return ValidationError{"dcs.weights", fmt.Sprintf("must sum to 1.0, got %.6f", d.Weights.Sum())}
	}
	for _, e := range layerEntries(d.Weights) {
		if e.value < 0 {
			return ValidationError{"dcs.weights." + e.name, "must be >= 0"}
		}
	}
	for _, e := range layerEntries(d.Defaults) {
		if e.value < 0 || e.value > 100 {
			return ValidationError{"dcs.defaults." + e.name, "must be in [0, 100]"}
		}
	}
	if d.SafetyThreshold <= 0 || d.DominanceThreshold > 100 {
		return ValidationError{"dcs.thresholds", "must be in (0, 100]"}
	}
	if d.SafetyThreshold >= d.DominanceThreshold {
		return ValidationError{"dcs.thresholds", "safety_threshold must be < dominance_threshold"}
	}

	o := d.Organic
	if o.PositionFloor <= 1 || o.CTRCeiling <= 0 || o.ClicksCeiling <= 1 {
		return ValidationError{"dcs.organic", "position_floor > 1, ctr_ceiling > 0, clicks_ceiling > 1 required"}
	}
	if math.Abs(o.PositionShare+o.CTRShare+o.ClicksShare-1.0) > weightTolerance {
		return ValidationError{"dcs.organic", "position/ctr/clicks shares must sum to 1.0"}
	}
	if d.ReviewConfidence <= 1 {
		return ValidationError{"dcs.review_confidence_log_base", "must be > 1"}
	}
	if _, ok := d.IndustryBaselines["default"]; !ok {
		return ValidationError{"dcs.industry_baselines", "default entry required"}
	}
	for k, v := range d.IndustryBaselines {
		if v < 0 || v > 100 {
			return ValidationError{"dcs.industry_baselines." + k, "must be in [0, 100]"}
		}
	}
	return nil
}

func validateThreat(t *Threat) error {
	if math.Abs(t.Weights.Sum()-1.0) > weightTolerance {
		return ValidationError{"threat.weights", fmt.Sprintf("must sum to 1.0, got %.6f", t.Weights.Sum())}
	}
	if t.PointsPerCompetitor <= 0 {
		return ValidationError{"threat.points_per_competitor", "must be > 0"}
	}
	if t.ErosionPerSharePt < 0 {
		return ValidationError{"threat.erosion_per_share_point", "must be >= 0"}
	}
	if t.AccelerationDelta < 0 {
		return ValidationError{"threat.acceleration_delta", "must be >= 0"}
	}
	if t.HistoryWindow < 1 {
		return ValidationError{"threat.history_window", "must be >= 1"}
	}
	return nil
}

func validateRevenue(r *Revenue) error {
	if r.DefaultAvgDealValue <= 0 {
		return ValidationError{"revenue.default_avg_deal_value", "must be > 0"}
	}
	if r.DefaultCTR < 0 || r.DefaultCTR > 1 {
		return ValidationError{"revenue.default_ctr", "must be in [0, 1]"}
	}
	if r.DefaultConversionRate < 0 || r.DefaultConversionRate > 1 {
		return ValidationError{"revenue.default_conversion_rate", "must be in [0, 1]"}
	}
	for k, v := range r.IndustryConversionRates {
		if v < 0 || v > 1 {
			return ValidationError{"revenue.industry_conversion_rates." + k, "must be in [0, 1]"}
		}
	}

	c := r.CaptureRates
	if c.Conservative < 0 || c.Dominance > 1 {
		return ValidationError{"revenue.capture_rates", "must be in [0, 1]"}
	}
	if c.Conservative > c.Strategic || c.Strategic > c.Dominance {
		return ValidationError{"revenue.capture_rates", "must satisfy conservative <= strategic <= dominance"}
	}
	return nil
}

func validateRecommendation(r *Recommendation) error {
	required := map[string]bool{"foundation": false, "defense": false, "growth": false, "dominance": false}
	for i, a := range r.Anchors {
		seen, known := required[a.Mode]
		if !known {
			return ValidationError{fmt.Sprintf("recommendation.anchors[%d].mode", i), fmt.Sprintf("unknown mode %q", a.Mode)}
		}
		if seen {
			return ValidationError{fmt.Sprintf("recommendation.anchors[%d].mode", i), fmt.Sprintf("duplicate mode %q", a.Mode)}
		}
		required[a.Mode] = true

		if a.DCS < 0 || a.DCS > 100 || a.Threat < 0 || a.Threat > 100 {
			return ValidationError{fmt.Sprintf("recommendation.anchors[%d]", i), "coordinates must be in [0, 100]"}
		}
	}
	for mode, seen := range required {
		if !seen {
			return ValidationError{"recommendation.anchors", fmt.Sprintf("missing mode %q", mode)}
		}
	}
	if r.HysteresisMargin < 0 {
		return ValidationError{"recommendation.hysteresis_margin", "must be >= 0"}
	}
	if r.HighPressure < 0 || r.HighPressure > 100 || r.LowDCS < 0 || r.LowDCS > 100 {
		return ValidationError{"recommendation", "high_pressure and low_dcs must be in [0, 100]"}
	}
	return nil
}

func validatePricing(p *Pricing) error {
	if p.TargetDCS <= 0 || p.TargetDCS > 100 {
		return ValidationError{"pricing.target_dcs", "must be in (0, 100]"}
	}
	if p.MaxComplexity <= 0 {
		return ValidationError{"pricing.max_complexity", "must be > 0"}
	}

	if len(p.Bands) == 0 {
		return ValidationError{"pricing.bands", "required"}
	}
	prev := PriceBand{MaxComplexity: -1}
	for i, b := range p.Bands {
		field := fmt.Sprintf("pricing.bands[%d]", i)
		if b.Min < 0 || b.Min > b.Max {
			return ValidationError{field, "must satisfy 0 <= min <= max"}
		}
		if b.MaxComplexity <= prev.MaxComplexity {
			return ValidationError{field, "max_complexity must be strictly increasing"}
		}
		if i > 0 && (b.Min < prev.Min || b.Max < prev.Max) {
			return ValidationError{field, "prices must not decrease with complexity"}
		}
		prev = b
	}
	if prev.MaxComplexity < p.MaxComplexity {
		return ValidationError{"pricing.bands", fmt.Sprintf("last band must cover max_complexity=%d", p.MaxComplexity)}
	}

	ids := make(map[string]bool, len(p.ReportAddOns))
	for i, a := range p.ReportAddOns {
		field := fmt.Sprintf("pricing.report_add_ons[%d]", i)
		if a.ID == "" {
			return ValidationError{field + ".id", "required"}
		}
		if ids[a.ID] {
			return ValidationError{field + ".id", fmt.Sprintf("duplicate id %q", a.ID)}
		}
		ids[a.ID] = true
		if a.Price < 0 {
			return ValidationError{field + ".price", "must be >= 0"}
		}
	}

	rp := p.RiskPremium
	if rp.Max < 0 {
		return ValidationError{"pricing.risk_premium.max", "must be >= 0"}
	}
	if rp.RiskWeight < 0 || rp.GapWeight < 0 || math.Abs(rp.RiskWeight+rp.GapWeight-1.0) > weightTolerance {
		return ValidationError{"pricing.risk_premium", "risk_weight + gap_weight must sum to 1.0"}
	}
	if rp.GapCap <= 0 {
		return ValidationError{"pricing.risk_premium.gap_cap", "must be > 0"}
	}

	m := p.Markets
	if m.Increment < 0 {
		return ValidationError{"pricing.markets.increment", "must be >= 0"}
	}
	if m.Decay <= 0 || m.Decay > 1 {
		return ValidationError{"pricing.markets.decay", "must be in (0, 1]"}
	}
	if m.MaxMultiplier < 1 {
		return ValidationError{"pricing.markets.max_multiplier", "must be >= 1"}
	}

	// 배수가 1 미만이면 suggestedMin ≥ basePriceMin 불변식이 깨짐
	d := p.DepthMultipliers
	if d.Basic < 1 {
		return ValidationError{"pricing.depth_multipliers.basic", "must be >= 1"}
	}
	if d.Basic > d.Standard || d.Standard > d.Deep {
		return ValidationError{"pricing.depth_multipliers", "must satisfy basic <= standard <= deep"}
	}
	if _, ok := d.For(p.DefaultDepth); !ok {
		return ValidationError{"pricing.default_depth", "must be basic, standard or deep"}
	}
	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	for _, e := range layerEntries(cfg.DCS.Weights) {
		if e.value > 0.5 {
			warnings = append(warnings, Warning{
				Code:    "DCS_LAYER_DOMINANT",
				Message: fmt.Sprintf("layer %s carries %.0f%% of DCS", e.name, e.value*100),
			})
		}
	}

	if cfg.DCS.SafetyThreshold > cfg.Pricing.TargetDCS {
		warnings = append(warnings, Warning{
			Code:    "SAFETY_ABOVE_TARGET",
			Message: "safety threshold exceeds pricing target DCS: a quote can close its gap and still be unsafe",
		})
	}

	for i := 1; i < len(cfg.Pricing.Bands); i++ {
		if cfg.Pricing.Bands[i].Min != cfg.Pricing.Bands[i-1].Max {
			warnings = append(warnings, Warning{
				Code:    "BAND_DISCONTINUITY",
				Message: fmt.Sprintf("band %d min does not continue band %d max", i, i-1),
			})
		}
	}

	if cfg.Pricing.DepthMultipliers.Deep > 2 {
		warnings = append(warnings, Warning{
			Code:    "DEPTH_MULTIPLIER_HIGH",
			Message: "deep monitoring more than doubles the price",
		})
	}

	if cfg.Recommendation.HysteresisMargin > 20 {
		warnings = append(warnings, Warning{
			Code:    "HYSTERESIS_WIDE",
			Message: "hysteresis margin > 20 can pin a mode long after it stops fitting",
		})
	}

	return warnings
}

type layerEntry struct {
	name  string
	value float64
}

func layerEntries(v LayerValues) []layerEntry {
	return []layerEntry{
		{"ai_visibility", v.AIVisibility},
		{"organic_search", v.OrganicSearch},
		{"reputation", v.Reputation},
		{"competitive", v.Competitive},
		{"website_quality", v.WebsiteQuality},
	}
}
