package s1_dcs

import (
	"math"

	"github.com/wonny/georepute/backend/internal/contracts"
	"github.com/wonny/georepute/backend/internal/modelconfig"
	"github.com/wonny/georepute/backend/pkg/logger"
)

// Engine implements S1: Domain Competitiveness Score
// ⭐ SSOT: DCS 계산은 여기서만
//
// Compute is pure. Every missing signal falls back to the layer default from
// the model, so a bundle with nothing in it still produces a complete result.
type Engine struct {
	cfg    modelconfig.DCS
	logger *logger.Logger
}

// NewEngine creates a DCS engine
func NewEngine(cfg modelconfig.DCS, log *logger.Logger) *Engine {
	return &Engine{
		cfg:    cfg,
		logger: log.Component("s1_dcs"),
	}
}

var defaultEngine = NewEngine(modelconfig.Default().DCS, logger.NewNop())

// ComputeDCS runs the default-model engine
func ComputeDCS(b *contracts.SignalBundle) *contracts.DCSResult {
	return defaultEngine.Compute(b)
}

// Compute scores the bundle
func (e *Engine) Compute(b *contracts.SignalBundle) *contracts.DCSResult {
	if b == nil {
		b = &contracts.SignalBundle{}
	}

	layers := []contracts.DCSLayer{
		e.layer(contracts.LayerAIVisibility, e.cfg.Weights.AIVisibility, e.cfg.Defaults.AIVisibility, e.aiVisibility(b)),
		e.layer(contracts.LayerOrganicSearch, e.cfg.Weights.OrganicSearch, e.cfg.Defaults.OrganicSearch, e.organicSearch(b)),
		e.layer(contracts.LayerReputation, e.cfg.Weights.Reputation, e.cfg.Defaults.Reputation, e.reputation(b)),
		e.layer(contracts.LayerCompetitive, e.cfg.Weights.Competitive, e.cfg.Defaults.Competitive, e.competitive(b)),
		e.layer(contracts.LayerWebsiteQuality, e.cfg.Weights.WebsiteQuality, e.cfg.Defaults.WebsiteQuality, e.websiteQuality(b)),
	}

	finalScore := clampInt(int(math.Round(WeightedTotal(layers))), 0, 100)

	result := &contracts.DCSResult{
		FinalScore:              finalScore,
		LayerBreakdown:          layers,
		RadarChartData:          radar(layers),
		DistanceToSafetyZone:    distance(e.cfg.SafetyThreshold, finalScore),
		DistanceToDominanceZone: distance(e.cfg.DominanceThreshold, finalScore),
		SafetyThreshold:         e.cfg.SafetyThreshold,
		DominanceThreshold:      e.cfg.DominanceThreshold,
	}
	result.CompetitorComparison = e.compareCompetitors(b, finalScore)

	e.logger.WithFields(map[string]interface{}{
		"project_id":  b.ProjectID,
		"final_score": finalScore,
		"competitors": len(result.CompetitorComparison),
	}).Debug("Computed DCS")

	return result
}

// WeightedTotal is Σ weight × score over layers, unrounded
func WeightedTotal(layers []contracts.DCSLayer) float64 {
	total := 0.0
	for _, l := range layers {
		total += l.Weight * l.Score
	}
	return total
}

// layerScore is what each layer calculator reports
type layerScore struct {
	score      float64
	components map[string]float64
	measured   bool
}

var notMeasured = layerScore{}

func (e *Engine) layer(name string, weight, fallback float64, s layerScore) contracts.DCSLayer {
	l := contracts.DCSLayer{
		Name:   name,
		Weight: weight,
	}
	if !s.measured {
		l.Score = fallback
		l.Source = contracts.SourceDefault
		return l
	}
	l.Score = round2(clamp(s.score, 0, 100))
	l.Source = contracts.SourceMeasured
	l.Components = s.components
	return l
}

func radar(layers []contracts.DCSLayer) []contracts.RadarPoint {
	points := make([]contracts.RadarPoint, len(layers))
	for i, l := range layers {
		points[i] = contracts.RadarPoint{Axis: l.Name, Value: l.Score}
	}
	return points
}

func distance(threshold, score int) int {
	if score >= threshold {
		return 0
	}
	return threshold - score
}

// part is one optional sub-signal of a layer
type part struct {
	name   string
	share  float64
	score  float64
	exists bool
}

// blend averages the present parts, re-normalising their shares
func blend(parts ...part) layerScore {
	total, shares := 0.0, 0.0
	components := make(map[string]float64)
	for _, p := range parts {
		if !p.exists {
			continue
		}
		s := clamp(p.score, 0, 100)
		total += p.share * s
		shares += p.share
		components[p.name] = round2(s)
	}
	if shares == 0 {
		return notMeasured
	}
	return layerScore{score: total / shares, components: components, measured: true}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
