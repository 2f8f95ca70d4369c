package s0_signals

import (
	"encoding/json"
	"fmt"

	"github.com/wonny/georepute/backend/internal/contracts"
)

// Signal kinds stored in project_signals.kind
const (
	KindAIResponses        = "ai_responses"
	KindGSCRows            = "gsc_rows"
	KindGSCSummary         = "gsc_summary"
	KindMarketShare        = "market_share"
	KindBlindSpots         = "blind_spots"
	KindGapReport          = "gap_report"
	KindIntegrations       = "integrations"
	KindMapReviews         = "map_reviews"
	KindWebsiteAnalyses    = "website_analyses"
	KindDomainIntelligence = "domain_intelligence"
)

// Kinds returns every kind ApplySignal understands
func Kinds() []string {
	return []string{
		KindAIResponses, KindGSCRows, KindGSCSummary, KindMarketShare, KindBlindSpots,
		KindGapReport, KindIntegrations, KindMapReviews, KindWebsiteAnalyses, KindDomainIntelligence,
	}
}

// IsKnownKind reports whether kind is one of Kinds
func IsKnownKind(kind string) bool {
	for _, k := range Kinds() {
		if k == kind {
			return true
		}
	}
	return false
}

// NewBundle seeds a bundle with the project identity
func NewBundle(p *contracts.Project) *contracts.SignalBundle {
	return &contracts.SignalBundle{
		ProjectID:   p.ID,
		BrandName:   p.BrandName,
		WebsiteURL:  p.WebsiteURL,
		Industry:    p.Industry,
		Competitors: append([]string(nil), p.Competitors...),
		Keywords:    append([]string(nil), p.Keywords...),
	}
}

// ApplySignal decodes one stored payload into its bundle slot.
// Unknown kinds are ignored so that new collectors can ship before the engines read them.
func ApplySignal(b *contracts.SignalBundle, kind string, payload []byte) error {
	var target interface{}
	switch kind {
	case KindAIResponses:
		target = &b.AIResponses
	case KindGSCRows:
		target = &b.GSCRows
	case KindGSCSummary:
		target = &b.GSCSummary
	case KindMarketShare:
		target = &b.MarketShare
	case KindBlindSpots:
		target = &b.BlindSpots
	case KindGapReport:
		target = &b.GapReport
	case KindIntegrations:
		target = &b.Integrations
	case KindMapReviews:
		target = &b.MapReviews
	case KindWebsiteAnalyses:
		target = &b.WebsiteAnalyses
	case KindDomainIntelligence:
		target = &b.DomainIntelligence
	default:
		return nil
	}

	if len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, target); err != nil {
		return fmt.Errorf("decode %s signal: %w", kind, err)
	}
	return nil
}
