package quote

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/wonny/georepute/backend/internal/contracts"
)

// CreateRequest is the quote-builder submission
type CreateRequest struct {
	ProjectID        string                     `json:"project_id"`
	AvgDealValue     *float64                   `json:"avg_deal_value,omitempty"`
	SelectedReports  []string                   `json:"selected_reports,omitempty"`
	SelectedMarkets  []string                   `json:"selected_markets,omitempty"`
	ScopeAdjustments contracts.ScopeAdjustments `json:"scope_adjustments"`
	Mode             contracts.QuoteMode        `json:"mode,omitempty"`
	ValidUntil       *time.Time                 `json:"valid_until,omitempty"`
}

// Normalize applies defaults and rejects malformed input
func (r *CreateRequest) Normalize(now time.Time) error {
	r.ProjectID = strings.TrimSpace(r.ProjectID)
	if r.ProjectID == "" {
		return contracts.NewValidationError("project_id", "is required")
	}

	if r.Mode == "" {
		r.Mode = contracts.QuoteModeQuick
	}
	if !r.Mode.IsValid() {
		return contracts.NewValidationError("mode", "must be quick, advanced or internal")
	}

	if r.AvgDealValue != nil && (*r.AvgDealValue < 0 || math.IsNaN(*r.AvgDealValue) || math.IsInf(*r.AvgDealValue, 0)) {
		return contracts.NewValidationError("avg_deal_value", "must be a non-negative number")
	}

	if err := validateScope(r.ScopeAdjustments); err != nil {
		return err
	}

	if r.ValidUntil != nil && !r.ValidUntil.After(now) {
		return contracts.NewValidationError("valid_until", "must be in the future")
	}

	return nil
}

func validateScope(s contracts.ScopeAdjustments) error {
	if s.MonitoringDepth != "" && !s.MonitoringDepth.IsValid() {
		return contracts.NewValidationError("scope_adjustments.monitoring_depth", "must be basic, standard or deep")
	}
	if s.KeywordCount != nil && *s.KeywordCount < 0 {
		return contracts.NewValidationError("scope_adjustments.keyword_count", "must be >= 0")
	}
	if s.CompetitorCount != nil && *s.CompetitorCount < 0 {
		return contracts.NewValidationError("scope_adjustments.competitor_count", "must be >= 0")
	}
	return nil
}

// Updatable quote fields
const (
	FieldSelectedReports     = "selected_reports"
	FieldSelectedMarkets     = "selected_markets"
	FieldScopeAdjustments    = "scope_adjustments"
	FieldPriceOverride       = "price_override"
	FieldPriceOverrideReason = "price_override_reason"
	FieldInternalNotes       = "internal_notes"
	FieldMarginEstimate      = "margin_estimate"
	FieldWinProbability      = "win_probability"
	FieldTotalMonthlyPrice   = "total_monthly_price"
	FieldProposalVersion     = "proposal_version"
	FieldStatus              = "status"
	FieldValidUntil          = "valid_until"
)

// UpdatableFields is the allow-list, in the order changes are logged
var UpdatableFields = []string{
	FieldSelectedReports,
	FieldSelectedMarkets,
	FieldScopeAdjustments,
	FieldPriceOverride,
	FieldPriceOverrideReason,
	FieldInternalNotes,
	FieldMarginEstimate,
	FieldWinProbability,
	FieldTotalMonthlyPrice,
	FieldProposalVersion,
	FieldStatus,
	FieldValidUntil,
}

// Patch is a decoded partial update. Only fields named in Fields are applied;
// a present JSON null clears the pointer fields.
type Patch struct {
	Fields []string

	SelectedReports     []string
	SelectedMarkets     []string
	ScopeAdjustments    contracts.ScopeAdjustments
	PriceOverride       *int64
	PriceOverrideReason *string
	InternalNotes       *string
	MarginEstimate      *float64
	WinProbability      *float64
	TotalMonthlyPrice   *int64
	ProposalVersion     *int
	Status              contracts.QuoteStatus
	ValidUntil          time.Time
}

// Has reports whether field was supplied
func (p *Patch) Has(field string) bool {
	for _, f := range p.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// ParsePatch keeps allow-listed keys of raw and silently drops the rest.
// At least one allow-listed key must be present.
func ParsePatch(raw map[string]json.RawMessage) (*Patch, error) {
	p := &Patch{}

	for _, field := range UpdatableFields {
		value, ok := raw[field]
		if !ok {
			continue
		}
		if err := p.decode(field, value); err != nil {
			return nil, err
		}
		p.Fields = append(p.Fields, field)
	}

	if len(p.Fields) == 0 {
		return nil, contracts.NewValidationError("body", "no updatable fields supplied")
	}
	return p, nil
}

func (p *Patch) decode(field string, value json.RawMessage) error {
	null := bytes.Equal(bytes.TrimSpace(value), []byte("null"))

	var target interface{}
	switch field {
	case FieldSelectedReports:
		target = &p.SelectedReports
	case FieldSelectedMarkets:
		target = &p.SelectedMarkets
	case FieldScopeAdjustments:
		target = &p.ScopeAdjustments
	case FieldPriceOverride:
		target = &p.PriceOverride
	case FieldPriceOverrideReason:
		target = &p.PriceOverrideReason
	case FieldInternalNotes:
		target = &p.InternalNotes
	case FieldMarginEstimate:
		target = &p.MarginEstimate
	case FieldWinProbability:
		target = &p.WinProbability
	case FieldTotalMonthlyPrice:
		target = &p.TotalMonthlyPrice
	case FieldProposalVersion:
		target = &p.ProposalVersion
	case FieldStatus:
		target = &p.Status
	case FieldValidUntil:
		target = &p.ValidUntil
	}

	if err := json.Unmarshal(value, target); err != nil {
		return contracts.NewValidationError(field, "has the wrong type")
	}

	switch field {
	case FieldScopeAdjustments:
		return validateScope(p.ScopeAdjustments)
	case FieldPriceOverride:
		if p.PriceOverride != nil && *p.PriceOverride < 0 {
			return contracts.NewValidationError(field, "must be >= 0")
		}
	case FieldTotalMonthlyPrice:
		if p.TotalMonthlyPrice != nil && *p.TotalMonthlyPrice < 0 {
			return contracts.NewValidationError(field, "must be >= 0")
		}
	case FieldWinProbability:
		if p.WinProbability != nil && (*p.WinProbability < 0 || *p.WinProbability > 1) {
			return contracts.NewValidationError(field, "must be between 0 and 1")
		}
	case FieldProposalVersion:
		if null || p.ProposalVersion == nil || *p.ProposalVersion < 1 {
			return contracts.NewValidationError(field, "must be >= 1")
		}
	case FieldStatus:
		if !p.Status.IsValid() {
			return contracts.NewValidationError(field, "is not a known status")
		}
	case FieldValidUntil:
		if p.ValidUntil.IsZero() {
			return contracts.NewValidationError(field, "is required")
		}
	}
	return nil
}

// Apply writes the patch onto q
func (p *Patch) Apply(q *contracts.Quote) {
	for _, field := range p.Fields {
		switch field {
		case FieldSelectedReports:
			q.SelectedReports = p.SelectedReports
		case FieldSelectedMarkets:
			q.SelectedMarkets = p.SelectedMarkets
		case FieldScopeAdjustments:
			q.ScopeAdjustments = p.ScopeAdjustments
		case FieldPriceOverride:
			q.PriceOverride = p.PriceOverride
		case FieldPriceOverrideReason:
			q.PriceOverrideReason = p.PriceOverrideReason
		case FieldInternalNotes:
			q.InternalNotes = p.InternalNotes
		case FieldMarginEstimate:
			q.MarginEstimate = p.MarginEstimate
		case FieldWinProbability:
			q.WinProbability = p.WinProbability
		case FieldTotalMonthlyPrice:
			q.TotalMonthlyPrice = p.TotalMonthlyPrice
		case FieldProposalVersion:
			q.ProposalVersion = *p.ProposalVersion
		case FieldStatus:
			q.Status = p.Status
		case FieldValidUntil:
			q.ValidUntil = p.ValidUntil
		}
	}
}

// fieldValue reads one updatable field for the activity snapshot
func fieldValue(q *contracts.Quote, field string) interface{} {
	switch field {
	case FieldSelectedReports:
		return q.SelectedReports
	case FieldSelectedMarkets:
		return q.SelectedMarkets
	case FieldScopeAdjustments:
		return q.ScopeAdjustments
	case FieldPriceOverride:
		return q.PriceOverride
	case FieldPriceOverrideReason:
		return q.PriceOverrideReason
	case FieldInternalNotes:
		return q.InternalNotes
	case FieldMarginEstimate:
		return q.MarginEstimate
	case FieldWinProbability:
		return q.WinProbability
	case FieldTotalMonthlyPrice:
		return q.TotalMonthlyPrice
	case FieldProposalVersion:
		return q.ProposalVersion
	case FieldStatus:
		return q.Status
	case FieldValidUntil:
		return q.ValidUntil
	}
	return nil
}
