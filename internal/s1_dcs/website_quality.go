package s1_dcs

import (
	"math"

	"github.com/wonny/georepute/backend/internal/contracts"
)

const (
	onPageShare      = 0.5
	authorityShare   = 0.3
	integrationShare = 0.2

	// referring domains at which log-scaled authority reaches 100
	referringDomainsCeiling = 1000
)

// on-page checklist points, total 100
const (
	pointsHTTPS          = 20
	pointsTitle          = 15
	pointsMeta           = 15
	pointsStructuredData = 15
	pointsCanonical      = 10
	pointsSingleH1       = 10
	pointsMultipleH1     = 5
	pointsAltCoverage    = 15
)

func (e *Engine) websiteQuality(b *contracts.SignalBundle) layerScore {
	var onPage, authority, integrations part

	if a := b.LatestWebsiteAnalysis(); a != nil {
		onPage = part{"on_page", onPageShare, OnPageScore(a), true}
	}
	if di := b.DomainIntelligence; di != nil {
		if score, ok := authorityScore(di); ok {
			authority = part{"authority", authorityShare, score, true}
		}
	}
	if n := len(b.Integrations); n > 0 {
		connected := 0
		for _, i := range b.Integrations {
			if i.Connected {
				connected++
			}
		}
		integrations = part{"integrations", integrationShare, 100 * float64(connected) / float64(n), true}
	}

	return blend(onPage, authority, integrations)
}

// OnPageScore prefers the analyzer's own score, else the checklist
func OnPageScore(a *contracts.WebsiteAnalysis) float64 {
	if a.Score != nil {
		return clamp(*a.Score, 0, 100)
	}

	score := 0.0
	if a.HasHTTPS {
		score += pointsHTTPS
	}
	if a.HasTitle {
		score += pointsTitle
	}
	if a.HasMetaDescription {
		score += pointsMeta
	}
	if a.HasStructuredData {
		score += pointsStructuredData
	}
	if a.HasCanonical {
		score += pointsCanonical
	}
	switch {
	case a.H1Count == 1:
		score += pointsSingleH1
	case a.H1Count > 1:
		score += pointsMultipleH1
	}
	score += pointsAltCoverage * clamp(a.ImageAltCoverage, 0, 1)
	return score
}

func authorityScore(di *contracts.DomainIntelligence) (float64, bool) {
	if di.DomainAuthority != nil {
		return clamp(*di.DomainAuthority, 0, 100), true
	}
	if di.ReferringDomains <= 0 {
		return 0, false
	}
	return 100 * math.Log10(float64(di.ReferringDomains)+1) / math.Log10(referringDomainsCeiling+1), true
}
