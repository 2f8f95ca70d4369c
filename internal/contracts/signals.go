package contracts

import (
	"encoding/json"
	"strings"
	"time"
)

// SignalBundle is everything the engines know about one project
// ⭐ SSOT: S0 → S1/S2/S3 시그널 전달
//
// Every part is optional. Pointer parts are nil when the source never
// produced them and slices are empty. The consuming engines own the default
// used for each missing part, so nothing here should be null-coalesced at the
// call site.
type SignalBundle struct {
	ProjectID   string   `json:"project_id"`
	BrandName   string   `json:"brand_name"`
	WebsiteURL  string   `json:"website_url,omitempty"`
	Industry    string   `json:"industry,omitempty"`
	Competitors []string `json:"competitors,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`

	AIResponses        []AIResponse          `json:"ai_responses,omitempty"`
	GSCRows            []GSCRow              `json:"gsc_rows,omitempty"`
	GSCSummary         *GSCSummary           `json:"gsc_summary,omitempty"`
	MarketShare        *MarketShareReport    `json:"market_share,omitempty"`
	BlindSpots         *BlindSpotReport      `json:"blind_spots,omitempty"`
	GapReport          *GapReport            `json:"gap_report,omitempty"`
	Integrations       []PlatformIntegration `json:"integrations,omitempty"`
	MapReviews         *MapReviews           `json:"map_reviews,omitempty"`
	WebsiteAnalyses    []WebsiteAnalysis     `json:"website_analyses,omitempty"`
	DomainIntelligence *DomainIntelligence   `json:"domain_intelligence,omitempty"`

	// 최근 Competitive Pressure Index 이력 (오래된 것 → 최신), 가속도 판정용
	ThreatHistory []float64 `json:"threat_history,omitempty"`

	CollectedAt time.Time `json:"collected_at"`
}

// AIResponse is one answer from an AI platform to a monitoring prompt
type AIResponse struct {
	Platform string `json:"platform"` // chatgpt, gemini, perplexity, claude ...
	Prompt   string `json:"prompt"`
	Response string `json:"response"`

	// 수집기가 이미 판정한 경우만 채워짐, nil이면 본문 검색으로 판정
	BrandMentioned *bool           `json:"brand_mentioned,omitempty"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
}

// Mentions reports whether name appears in the response text (case-insensitive)
func (r AIResponse) Mentions(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	return strings.Contains(strings.ToLower(r.Response), strings.ToLower(name))
}

// MentionsBrand prefers the collector's verdict over a text search
func (r AIResponse) MentionsBrand(brand string) bool {
	if r.BrandMentioned != nil {
		return *r.BrandMentioned
	}
	return r.Mentions(brand)
}

// GSCRow is one Google Search Console query/page row
type GSCRow struct {
	Query       string  `json:"query"`
	Page        string  `json:"page,omitempty"`
	Clicks      int64   `json:"clicks"`
	Impressions int64   `json:"impressions"`
	CTR         float64 `json:"ctr"`      // 0~1
	Position    float64 `json:"position"` // 1 = top
}

// GSCSummary is the pre-aggregated Search Console view
type GSCSummary struct {
	TotalClicks      int64   `json:"total_clicks"`
	TotalImpressions int64   `json:"total_impressions"`
	AvgCTR           float64 `json:"avg_ctr"`      // 0~1
	AvgPosition      float64 `json:"avg_position"` // 1 = top
}

// SearchConsole returns the supplied summary, or one aggregated from the rows
// when the summary is missing or carries neither impressions nor a position.
// Every engine reads Search Console through this.
func (b *SignalBundle) SearchConsole() (GSCSummary, bool) {
	if s := b.GSCSummary; s != nil && (s.TotalImpressions > 0 || s.AvgPosition > 0) {
		return *s, true
	}
	return SummarizeGSCRows(b.GSCRows)
}

// SummarizeGSCRows aggregates rows; position is impression-weighted
func SummarizeGSCRows(rows []GSCRow) (GSCSummary, bool) {
	if len(rows) == 0 {
		return GSCSummary{}, false
	}

	var s GSCSummary
	weightedPos, plainPos := 0.0, 0.0
	for _, r := range rows {
		s.TotalClicks += r.Clicks
		s.TotalImpressions += r.Impressions
		weightedPos += r.Position * float64(r.Impressions)
		plainPos += r.Position
	}

	if s.TotalImpressions > 0 {
		s.AvgCTR = float64(s.TotalClicks) / float64(s.TotalImpressions)
		s.AvgPosition = weightedPos / float64(s.TotalImpressions)
	} else {
		s.AvgPosition = plainPos / float64(len(rows))
	}
	return s, true
}

// MarketShareReport is the brand's share of AI answers against competitors (percent)
type MarketShareReport struct {
	BrandShare         float64            `json:"brand_share"`
	PreviousBrandShare *float64           `json:"previous_brand_share,omitempty"`
	CompetitorShares   map[string]float64 `json:"competitor_shares,omitempty"`
}

// TopCompetitorShare returns the largest competitor share, 0 when none
func (m *MarketShareReport) TopCompetitorShare() float64 {
	top := 0.0
	for _, share := range m.CompetitorShares {
		if share > top {
			top = share
		}
	}
	return top
}

// BlindSpotReport counts monitored queries where the brand never appears
type BlindSpotReport struct {
	TotalQueries   int      `json:"total_queries"`
	BlindSpotCount int      `json:"blind_spot_count"`
	Topics         []string `json:"topics,omitempty"`
}

// Ratio returns blind spots / total queries in [0,1]
func (b *BlindSpotReport) Ratio() float64 {
	if b.TotalQueries <= 0 {
		return 0
	}
	r := float64(b.BlindSpotCount) / float64(b.TotalQueries)
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}

// GapReport compares AI visibility with Google visibility (both 0~100)
type GapReport struct {
	AIScore     float64  `json:"ai_score"`
	GoogleScore float64  `json:"google_score"`
	PreviousGap *float64 `json:"previous_gap,omitempty"`
}

// Gap is Google minus AI visibility; positive means AI lags search
func (g *GapReport) Gap() float64 {
	return g.GoogleScore - g.AIScore
}

// PlatformIntegration is a connected/disconnected external platform
type PlatformIntegration struct {
	Platform  string          `json:"platform"`
	Connected bool            `json:"connected"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
}

// MapReviews is the Google Maps review summary
type MapReviews struct {
	Rating      float64           `json:"rating"` // 0~5
	ReviewCount int               `json:"review_count"`
	Reviews     []json.RawMessage `json:"reviews,omitempty"`
}

// WebsiteAnalysis is one on-page audit snapshot
type WebsiteAnalysis struct {
	URL                string    `json:"url"`
	Score              *float64  `json:"score,omitempty"` // analyzer's own 0~100 score if any
	HasHTTPS           bool      `json:"has_https"`
	HasTitle           bool      `json:"has_title"`
	HasMetaDescription bool      `json:"has_meta_description"`
	HasStructuredData  bool      `json:"has_structured_data"`
	HasCanonical       bool      `json:"has_canonical"`
	H1Count            int       `json:"h1_count"`
	ImageAltCoverage   float64   `json:"image_alt_coverage"` // 0~1
	WordCount          int       `json:"word_count"`
	AnalyzedAt         time.Time `json:"analyzed_at"`
}

// LatestWebsiteAnalysis returns the most recent snapshot, nil when none
func (b *SignalBundle) LatestWebsiteAnalysis() *WebsiteAnalysis {
	var latest *WebsiteAnalysis
	for i := range b.WebsiteAnalyses {
		a := &b.WebsiteAnalyses[i]
		if latest == nil || a.AnalyzedAt.After(latest.AnalyzedAt) {
			latest = a
		}
	}
	return latest
}

// DomainIntelligence is the result of a domain intelligence job
type DomainIntelligence struct {
	DomainAuthority  *float64 `json:"domain_authority,omitempty"` // 0~100
	ReferringDomains int64    `json:"referring_domains"`
	Backlinks        int64    `json:"backlinks"`
	DomainAgeYears   float64  `json:"domain_age_years"`
}
