package contracts

import (
	"encoding/json"
	"time"
)

// RequestContext identifies the caller. Engines never see it.
type RequestContext struct {
	UserID         string  `json:"user_id"`
	OrganizationID *string `json:"organization_id,omitempty"`
}

// Project is the brand-analysis project a quote is built for
type Project struct {
	ID             string   `json:"id"`
	UserID         string   `json:"user_id"`
	OrganizationID *string  `json:"organization_id,omitempty"`
	Name           string   `json:"name"`
	BrandName      string   `json:"brand_name"`
	WebsiteURL     string   `json:"website_url,omitempty"`
	Industry       string   `json:"industry,omitempty"`
	Competitors    []string `json:"competitors"`
	Keywords       []string `json:"keywords"`
}

// QuoteMode is how the quote builder was used
type QuoteMode string

const (
	QuoteModeQuick    QuoteMode = "quick"
	QuoteModeAdvanced QuoteMode = "advanced"
	QuoteModeInternal QuoteMode = "internal"
)

// IsValid checks the mode against the closed set
func (m QuoteMode) IsValid() bool {
	switch m {
	case QuoteModeQuick, QuoteModeAdvanced, QuoteModeInternal:
		return true
	}
	return false
}

// QuoteStatus is the lifecycle state
type QuoteStatus string

const (
	QuoteDraft    QuoteStatus = "draft"
	QuoteSent     QuoteStatus = "sent"
	QuoteAccepted QuoteStatus = "accepted"
	QuoteRejected QuoteStatus = "rejected"
	QuoteExpired  QuoteStatus = "expired"
)

// quoteTransitions: draft → sent → accepted|rejected, draft|sent → expired
var quoteTransitions = map[QuoteStatus][]QuoteStatus{
	QuoteDraft: {QuoteSent, QuoteExpired},
	QuoteSent:  {QuoteAccepted, QuoteRejected, QuoteExpired},
}

// IsValid checks the status against the closed set
func (s QuoteStatus) IsValid() bool {
	switch s {
	case QuoteDraft, QuoteSent, QuoteAccepted, QuoteRejected, QuoteExpired:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible
func (s QuoteStatus) IsTerminal() bool {
	return len(quoteTransitions[s]) == 0
}

// CanTransitionTo reports whether s → next is allowed. Staying put is allowed.
func (s QuoteStatus) CanTransitionTo(next QuoteStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range quoteTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ScopeAdjustments are the advanced-mode knobs
type ScopeAdjustments struct {
	MonitoringDepth MonitoringDepth `json:"monitoring_depth,omitempty"`
	KeywordCount    *int            `json:"keyword_count,omitempty"`
	CompetitorCount *int            `json:"competitor_count,omitempty"`
	Notes           string          `json:"notes,omitempty"`
}

// Quote is the persisted commercial proposal
// ⭐ SSOT: 스냅샷 필드(dcs_snapshot ~ pricing)는 생성 후 불변
type Quote struct {
	ID             string      `json:"id"`
	UserID         string      `json:"user_id"`
	OrganizationID *string     `json:"organization_id,omitempty"`
	ProjectID      string      `json:"project_id"`
	Mode           QuoteMode   `json:"mode"`
	Status         QuoteStatus `json:"status"`

	DCSSnapshot     DCSResult             `json:"dcs_snapshot"`
	RevenueExposure RevenueExposureResult `json:"revenue_exposure"`
	ThreatData      ThreatResult          `json:"threat_data"`
	Recommendation  RecommendationResult  `json:"recommendation"`
	Pricing         PricingResult         `json:"pricing"`
	ModelHash       string                `json:"model_hash"`

	SelectedReports     []string         `json:"selected_reports"`
	SelectedMarkets     []string         `json:"selected_markets"`
	ScopeAdjustments    ScopeAdjustments `json:"scope_adjustments"`
	PriceOverride       *int64           `json:"price_override,omitempty"`
	PriceOverrideReason *string          `json:"price_override_reason,omitempty"`
	InternalNotes       *string          `json:"internal_notes,omitempty"`
	MarginEstimate      *float64         `json:"margin_estimate,omitempty"`
	WinProbability      *float64         `json:"win_probability,omitempty"`
	TotalMonthlyPrice   *int64           `json:"total_monthly_price,omitempty"`
	ProposalVersion     int              `json:"proposal_version"`

	ValidUntil time.Time `json:"valid_until"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// EffectivePrice is the override when set, otherwise the monthly total
func (q *Quote) EffectivePrice() int64 {
	if q.PriceOverride != nil {
		return *q.PriceOverride
	}
	if q.TotalMonthlyPrice != nil {
		return *q.TotalMonthlyPrice
	}
	return q.Pricing.Midpoint()
}

// QuoteFilter narrows ListQuotes
type QuoteFilter struct {
	ProjectID string
	Status    QuoteStatus
	Limit     int
	Offset    int
}

// Activity actions
const (
	ActionCreated       = "created"
	ActionUpdated       = "updated"
	ActionPriceOverride = "price_override"
	ActionStatusChanged = "status_changed"
	ActionDeleted       = "deleted"
)

// ActorSystem marks entries written by scheduled jobs
const ActorSystem = "system"

// ActivityEntry is one append-only quote log row
type ActivityEntry struct {
	ID        string          `json:"id"`
	QuoteID   string          `json:"quote_id"`
	UserID    string          `json:"user_id"`
	Actor     string          `json:"actor"` // user id or "system"
	Action    string          `json:"action"`
	OldValue  json.RawMessage `json:"old_value,omitempty"`
	NewValue  json.RawMessage `json:"new_value,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
