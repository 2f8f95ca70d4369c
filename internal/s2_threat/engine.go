package s2_threat

import (
	"math"
	"strings"

	"github.com/wonny/georepute/backend/internal/contracts"
	"github.com/wonny/georepute/backend/internal/modelconfig"
	"github.com/wonny/georepute/backend/pkg/logger"
)

// Disclaimer is attached to every ThreatResult
const Disclaimer = "The Competitive Pressure Index is a directional estimate derived from observed AI-answer, " +
	"market-share and search-gap signals. It is not a forecast of competitor behaviour."

// Pressure level cut-offs on the 0~100 index
const (
	levelModerate = 25.0
	levelHigh     = 50.0
	levelCritical = 75.0
)

// Engine implements S2: Competitive Pressure Index
// ⭐ SSOT: 경쟁 위협 계산은 여기서만
type Engine struct {
	cfg    modelconfig.Threat
	logger *logger.Logger
}

// NewEngine creates a threat engine
func NewEngine(cfg modelconfig.Threat, log *logger.Logger) *Engine {
	return &Engine{cfg: cfg, logger: log.Component("s2_threat")}
}

var defaultEngine = NewEngine(modelconfig.Default().Threat, logger.NewNop())

// ComputeThreat runs the default-model engine
func ComputeThreat(b *contracts.SignalBundle) *contracts.ThreatResult {
	return defaultEngine.Compute(b)
}

// Compute derives the index from b and classifies its trend against b.ThreatHistory
func (e *Engine) Compute(b *contracts.SignalBundle) *contracts.ThreatResult {
	if b == nil {
		b = &contracts.SignalBundle{}
	}

	signals := map[string]float64{
		contracts.ThreatSignalCompetitorDensity:     e.competitorDensity(b),
		contracts.ThreatSignalCompetitorMentionRate: competitorMentionRate(b),
		contracts.ThreatSignalShareErosion:          e.shareErosion(b),
		contracts.ThreatSignalBlindSpotExposure:     blindSpotExposure(b),
		contracts.ThreatSignalVisibilityGap:         visibilityGap(b),
	}
	for k, v := range signals {
		signals[k] = round2(clamp(v, 0, 100))
	}

	w := e.cfg.Weights
	index := w.CompetitorDensity*signals[contracts.ThreatSignalCompetitorDensity] +
		w.CompetitorMentionRate*signals[contracts.ThreatSignalCompetitorMentionRate] +
		w.ShareErosion*signals[contracts.ThreatSignalShareErosion] +
		w.BlindSpotExposure*signals[contracts.ThreatSignalBlindSpotExposure] +
		w.VisibilityGap*signals[contracts.ThreatSignalVisibilityGap]
	index = round2(clamp(index, 0, 100))

	trend, baseline := e.acceleration(index, b.ThreatHistory)

	result := &contracts.ThreatResult{
		CompetitivePressureIndex:  index,
		RiskAccelerationIndicator: trend,
		PressureLevel:             PressureLevel(index),
		Signals:                   signals,
		Baseline:                  baseline,
		Disclaimer:                Disclaimer,
	}

	e.logger.WithFields(map[string]interface{}{
		"project_id": b.ProjectID,
		"index":      index,
		"trend":      trend,
	}).Debug("Computed threat")

	return result
}

// acceleration compares index with the mean of the last HistoryWindow points.
// No history means stable.
func (e *Engine) acceleration(index float64, history []float64) (contracts.RiskAcceleration, *float64) {
	if len(history) == 0 {
		return contracts.RiskStable, nil
	}
	if len(history) > e.cfg.HistoryWindow {
		history = history[len(history)-e.cfg.HistoryWindow:]
	}

	sum := 0.0
	for _, h := range history {
		sum += clamp(h, 0, 100)
	}
	baseline := round2(sum / float64(len(history)))

	delta := index - baseline
	switch {
	case delta > e.cfg.AccelerationDelta:
		return contracts.RiskAccelerating, &baseline
	case delta < -e.cfg.AccelerationDelta:
		return contracts.RiskDeclining, &baseline
	default:
		return contracts.RiskStable, &baseline
	}
}

// PressureLevel buckets the index for display
func PressureLevel(index float64) string {
	switch {
	case index >= levelCritical:
		return "critical"
	case index >= levelHigh:
		return "high"
	case index >= levelModerate:
		return "moderate"
	default:
		return "low"
	}
}

func (e *Engine) competitorDensity(b *contracts.SignalBundle) float64 {
	return float64(countCompetitors(b.Competitors)) * e.cfg.PointsPerCompetitor
}

// competitorMentionRate is the share of AI answers naming at least one competitor
func competitorMentionRate(b *contracts.SignalBundle) float64 {
	if len(b.AIResponses) == 0 || len(b.Competitors) == 0 {
		return 0
	}
	hits := 0
	for _, r := range b.AIResponses {
		for _, c := range b.Competitors {
			if r.Mentions(c) {
				hits++
				break
			}
		}
	}
	return 100 * float64(hits) / float64(len(b.AIResponses))
}

// shareErosion converts lost brand share points into pressure
func (e *Engine) shareErosion(b *contracts.SignalBundle) float64 {
	ms := b.MarketShare
	if ms == nil || ms.PreviousBrandShare == nil {
		return 0
	}
	return math.Max(0, *ms.PreviousBrandShare-ms.BrandShare) * e.cfg.ErosionPerSharePt
}

func blindSpotExposure(b *contracts.SignalBundle) float64 {
	if b.BlindSpots == nil {
		return 0
	}
	return 100 * b.BlindSpots.Ratio()
}

// visibilityGap is the current AI lag plus any widening since the last report
func visibilityGap(b *contracts.SignalBundle) float64 {
	g := b.GapReport
	if g == nil {
		return 0
	}
	gap := g.Gap()
	score := math.Max(0, gap)
	if g.PreviousGap != nil {
		score += math.Max(0, gap-*g.PreviousGap)
	}
	return score
}

func countCompetitors(names []string) int {
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		key := strings.ToLower(strings.TrimSpace(n))
		if key != "" {
			seen[key] = true
		}
	}
	return len(seen)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
