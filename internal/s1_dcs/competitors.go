package s1_dcs

import (
	"math"
	"sort"
	"strings"

	"github.com/wonny/georepute/backend/internal/contracts"
	"github.com/wonny/georepute/backend/internal/modelconfig"
)

// compareCompetitors estimates a DCS per named competitor.
// Layers with competitor-specific evidence (AI mentions, market share) use it;
// every other layer takes the industry baseline.
func (e *Engine) compareCompetitors(b *contracts.SignalBundle, ours int) []contracts.CompetitorScore {
	baseline, _ := modelconfig.IndustryValue(e.cfg.IndustryBaselines, b.Industry)

	seen := make(map[string]bool)
	rows := make([]contracts.CompetitorScore, 0, len(b.Competitors))
	for _, name := range b.Competitors {
		name = strings.TrimSpace(name)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true

		ai, hasAI := baseline, false
		if len(b.AIResponses) > 0 {
			s := visibilityFor(b.AIResponses, func(r contracts.AIResponse) bool { return r.Mentions(name) })
			ai, hasAI = s.score, true
		}

		comp, hasShare := baseline, false
		if ms := b.MarketShare; ms != nil {
			if share, ok := lookupShare(ms.CompetitorShares, name); ok {
				comp, hasShare = relativeShare(share, ms), true
			}
		}

		w := e.cfg.Weights
		estimate := w.AIVisibility*ai +
			w.Competitive*comp +
			(w.OrganicSearch+w.Reputation+w.WebsiteQuality)*baseline
		score := clampInt(int(math.Round(estimate)), 0, 100)

		source := contracts.SourceIndustryBaseline
		if hasAI || hasShare {
			source = contracts.SourceCompetitorSignal
		}

		rows = append(rows, contracts.CompetitorScore{
			Competitor:     name,
			EstimatedScore: score,
			Difference:     score - ours,
			Source:         source,
		})
	}
	return rows
}

// lookupShare prefers an exact key, then the first case-insensitive match in key order
func lookupShare(shares map[string]float64, name string) (float64, bool) {
	if v, ok := shares[name]; ok {
		return v, true
	}
	keys := make([]string, 0, len(shares))
	for k := range shares {
		if strings.EqualFold(k, name) {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return 0, false
	}
	sort.Strings(keys)
	return shares[keys[0]], true
}
