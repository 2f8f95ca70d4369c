package s1_dcs

import "github.com/wonny/georepute/backend/internal/contracts"

// AI visibility = 멘션율 70% + 플랫폼 커버리지 30%
const (
	mentionRateShare      = 0.7
	platformCoverageShare = 0.3
)

func (e *Engine) aiVisibility(b *contracts.SignalBundle) layerScore {
	if len(b.AIResponses) == 0 {
		return notMeasured
	}
	if b.BrandName == "" && !anyVerdict(b.AIResponses) {
		return notMeasured
	}
	return visibilityFor(b.AIResponses, func(r contracts.AIResponse) bool {
		return r.MentionsBrand(b.BrandName)
	})
}

// visibilityFor scores how often mentioned() holds, overall and per platform
func visibilityFor(responses []contracts.AIResponse, mentioned func(contracts.AIResponse) bool) layerScore {
	hits := 0
	platforms := make(map[string]bool)
	for _, r := range responses {
		hit := mentioned(r)
		if hit {
			hits++
		}
		platforms[r.Platform] = platforms[r.Platform] || hit
	}

	covered := 0
	for _, hit := range platforms {
		if hit {
			covered++
		}
	}

	rate := float64(hits) / float64(len(responses))
	coverage := float64(covered) / float64(len(platforms))

	return layerScore{
		score: 100 * (mentionRateShare*rate + platformCoverageShare*coverage),
		components: map[string]float64{
			"mention_rate":      round2(rate * 100),
			"platform_coverage": round2(coverage * 100),
		},
		measured: true,
	}
}

func anyVerdict(responses []contracts.AIResponse) bool {
	for _, r := range responses {
		if r.BrandMentioned != nil {
			return true
		}
	}
	return false
}
