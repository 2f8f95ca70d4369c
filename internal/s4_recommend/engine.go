package s4_recommend

import (
	"fmt"
	"math"
	"sort"

	"github.com/wonny/georepute/backend/internal/contracts"
	"github.com/wonny/georepute/backend/internal/modelconfig"
	"github.com/wonny/georepute/backend/pkg/logger"
)

// maxDistance is the diagonal of the 100×100 (DCS, threat) plane
var maxDistance = math.Sqrt2 * 100

// Engine implements S4: engagement mode recommendation
// ⭐ SSOT: 추천 모드 결정은 여기서만
//
// Each mode has an anchor point in (DCS, threat) space. A mode scores
// 100 at its anchor and falls linearly with euclidean distance, so the
// winner is the nearest anchor. Ties keep contracts.AllEngagementModes order.
type Engine struct {
	cfg     modelconfig.Recommendation
	anchors map[contracts.EngagementMode]modelconfig.Anchor
	logger  *logger.Logger
}

// NewEngine creates a recommendation engine
func NewEngine(cfg modelconfig.Recommendation, log *logger.Logger) *Engine {
	anchors := make(map[contracts.EngagementMode]modelconfig.Anchor, len(cfg.Anchors))
	for _, a := range cfg.Anchors {
		anchors[contracts.EngagementMode(a.Mode)] = a
	}
	return &Engine{cfg: cfg, anchors: anchors, logger: log.Component("s4_recommend")}
}

var defaultEngine = NewEngine(modelconfig.Default().Recommendation, logger.NewNop())

// GetRecommendation runs the default-model engine
func GetRecommendation(in contracts.RecommendationInput) *contracts.RecommendationResult {
	return defaultEngine.Recommend(in)
}

// Recommend ranks every mode for (DCS, threat). PreviousMode, when set,
// is kept on top while it trails the leader by no more than HysteresisMargin.
func (e *Engine) Recommend(in contracts.RecommendationInput) *contracts.RecommendationResult {
	dcs := clamp(in.DCSScore)
	threat := clamp(in.CompetitivePressureIndex)

	modes := make([]contracts.ModeScore, 0, len(contracts.AllEngagementModes()))
	for _, mode := range contracts.AllEngagementModes() {
		modes = append(modes, contracts.ModeScore{
			Mode:      mode,
			Score:     e.score(mode, dcs, threat),
			Rationale: rationale(mode, dcs, threat),
		})
	}

	sort.SliceStable(modes, func(i, j int) bool {
		return modes[i].Score > modes[j].Score
	})

	if in.PreviousMode.IsValid() && in.PreviousMode != modes[0].Mode {
		for i, m := range modes {
			if m.Mode == in.PreviousMode && modes[0].Score-m.Score <= e.cfg.HysteresisMargin {
				kept := modes[i]
				copy(modes[1:i+1], modes[:i])
				modes[0] = kept
				break
			}
		}
	}

	primary := modes[0].Mode
	result := &contracts.RecommendationResult{
		PrimaryMode: primary,
		AllModes:    modes,
		Priorities:  e.priorities(primary, dcs, threat),
		FocusAreas:  append([]string(nil), focusAreas[primary]...),
	}

	e.logger.WithFields(map[string]interface{}{
		"dcs":          dcs,
		"threat":       threat,
		"primary_mode": primary,
		"top_score":    modes[0].Score,
	}).Debug("Computed recommendation")

	return result
}

func (e *Engine) score(mode contracts.EngagementMode, dcs, threat float64) float64 {
	a, ok := e.anchors[mode]
	if !ok {
		return 0
	}
	d := math.Hypot(dcs-a.DCS, threat-a.Threat)
	return round2(100 * (1 - d/maxDistance))
}

func (e *Engine) priorities(mode contracts.EngagementMode, dcs, threat float64) []string {
	var out []string
	if threat >= e.cfg.HighPressure {
		out = append(out, "Counter competitor gains in AI answers before expanding scope")
	}
	if dcs < e.cfg.LowDCS {
		out = append(out, "Close foundational visibility gaps on the brand's own domain")
	}
	return append(out, basePriorities[mode]...)
}

func rationale(mode contracts.EngagementMode, dcs, threat float64) string {
	switch mode {
	case contracts.ModeFoundation:
		return fmt.Sprintf("DCS %.0f leaves core visibility to build while pressure sits at %.0f", dcs, threat)
	case contracts.ModeDefense:
		return fmt.Sprintf("Pressure %.0f threatens the position a DCS of %.0f provides", threat, dcs)
	case contracts.ModeGrowth:
		return fmt.Sprintf("DCS %.0f is a workable base and pressure %.0f leaves room to expand", dcs, threat)
	case contracts.ModeDominance:
		return fmt.Sprintf("DCS %.0f with pressure %.0f supports pushing for category leadership", dcs, threat)
	}
	return ""
}

var basePriorities = map[contracts.EngagementMode][]string{
	contracts.ModeFoundation: {
		"Establish entity and schema markup across key pages",
		"Earn first citations on AI-referenced sources",
		"Fix technical SEO blockers",
	},
	contracts.ModeDefense: {
		"Monitor competitor mentions across AI platforms weekly",
		"Reinforce brand answers on high-intent prompts",
		"Respond to review and reputation shifts quickly",
	},
	contracts.ModeGrowth: {
		"Expand content into blind-spot topics",
		"Grow share of voice on comparison prompts",
		"Add markets where search demand is proven",
	},
	contracts.ModeDominance: {
		"Own category-defining prompts on every platform",
		"Publish authoritative research that AI answers cite",
		"Defend share against new entrants",
	},
}

var focusAreas = map[contracts.EngagementMode][]string{
	contracts.ModeFoundation: {"technical_seo", "structured_data", "brand_entity"},
	contracts.ModeDefense:    {"competitor_monitoring", "reputation", "prompt_coverage"},
	contracts.ModeGrowth:     {"content_expansion", "share_of_voice", "market_expansion"},
	contracts.ModeDominance:  {"thought_leadership", "citation_authority", "category_ownership"},
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
