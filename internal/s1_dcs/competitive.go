package s1_dcs

import (
	"math"

	"github.com/wonny/georepute/backend/internal/contracts"
)

const (
	relativeShareShare = 0.5
	queryCoverageShare = 0.3
	aiParityShare      = 0.2
)

func (e *Engine) competitive(b *contracts.SignalBundle) layerScore {
	var share, coverage, parity part

	if ms := b.MarketShare; ms != nil {
		share = part{"relative_share", relativeShareShare, relativeShare(ms.BrandShare, ms), true}
	}
	if bs := b.BlindSpots; bs != nil && bs.TotalQueries > 0 {
		coverage = part{"query_coverage", queryCoverageShare, (1 - bs.Ratio()) * 100, true}
	}
	if g := b.GapReport; g != nil {
		// AI가 검색보다 앞서면 100
		parity = part{"ai_parity", aiParityShare, 100 - math.Max(0, g.Gap()), true}
	}

	return blend(share, coverage, parity)
}

// relativeShare is 100 × share / the largest share in the report
func relativeShare(share float64, ms *contracts.MarketShareReport) float64 {
	leader := math.Max(ms.BrandShare, ms.TopCompetitorShare())
	if leader <= 0 {
		return 0
	}
	return 100 * math.Max(0, share) / leader
}
