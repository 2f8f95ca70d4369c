package contracts

import (
	"errors"
	"fmt"
	"testing"
)

func TestQuoteStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to QuoteStatus
		want     bool
	}{
		{QuoteDraft, QuoteSent, true},
		{QuoteDraft, QuoteExpired, true},
		{QuoteDraft, QuoteAccepted, false},
		{QuoteSent, QuoteAccepted, true},
		{QuoteSent, QuoteRejected, true},
		{QuoteSent, QuoteExpired, true},
		{QuoteSent, QuoteDraft, false},
		{QuoteAccepted, QuoteRejected, false},
		{QuoteExpired, QuoteSent, false},
		{QuoteRejected, QuoteRejected, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s->%s", tt.from, tt.to), func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("CanTransitionTo() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQuoteStatus_IsTerminal(t *testing.T) {
	for _, s := range []QuoteStatus{QuoteAccepted, QuoteRejected, QuoteExpired} {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []QuoteStatus{QuoteDraft, QuoteSent} {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestStageError(t *testing.T) {
	base := errors.New("connection reset")
	err := fmt.Errorf("create quote: %w", NewStageError(StageThreat, base))

	if !errors.Is(err, ErrStageFailed) {
		t.Error("Expected errors.Is(err, ErrStageFailed)")
	}
	if !errors.Is(err, base) {
		t.Error("Expected the cause to stay reachable")
	}
	stage, ok := FailedStage(err)
	if !ok || stage != StageThreat {
		t.Errorf("FailedStage() = %v, %v", stage, ok)
	}
	if ErrorKind(err) != "stage_failed" {
		t.Errorf("ErrorKind() = %s", ErrorKind(err))
	}

	// re-wrapping keeps the innermost stage
	rewrapped := NewStageError(StageQuote, err)
	if stage, _ := FailedStage(rewrapped); stage != StageThreat {
		t.Errorf("Expected innermost stage to survive, got %s", stage)
	}
	if NewStageError(StageDCS, nil) != nil {
		t.Error("nil error must stay nil")
	}
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{NewValidationError("project_id", "required"), "validation"},
		{fmt.Errorf("quote q1: %w", ErrNotFound), "not_found"},
		{ErrInvalidTransition, "invalid_transition"},
		{ErrNotDeletable, "not_deletable"},
		{ErrRateLimited, "rate_limited"},
		{errors.New("boom"), "internal"},
	}
	for _, tt := range tests {
		if got := ErrorKind(tt.err); got != tt.want {
			t.Errorf("ErrorKind(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func TestStageLabels(t *testing.T) {
	for _, stage := range AllStages() {
		got, ok := StageByLabel(stage.Label())
		if !ok || got != stage {
			t.Errorf("StageByLabel(%s) = %s, %v", stage.Label(), got, ok)
		}
	}
}

func TestBlindSpotRatio(t *testing.T) {
	tests := []struct {
		report BlindSpotReport
		want   float64
	}{
		{BlindSpotReport{TotalQueries: 0, BlindSpotCount: 3}, 0},
		{BlindSpotReport{TotalQueries: 10, BlindSpotCount: 4}, 0.4},
		{BlindSpotReport{TotalQueries: 10, BlindSpotCount: 15}, 1},
	}
	for _, tt := range tests {
		if got := tt.report.Ratio(); got != tt.want {
			t.Errorf("Ratio() = %v, want %v", got, tt.want)
		}
	}
}

func TestEffectivePrice(t *testing.T) {
	q := &Quote{Pricing: PricingResult{SuggestedMin: 1000, SuggestedMax: 2001}}
	if got := q.EffectivePrice(); got != 1501 {
		t.Errorf("midpoint = %d, want 1501", got)
	}

	total := int64(1800)
	q.TotalMonthlyPrice = &total
	if got := q.EffectivePrice(); got != 1800 {
		t.Errorf("total = %d, want 1800", got)
	}

	override := int64(1200)
	q.PriceOverride = &override
	if got := q.EffectivePrice(); got != 1200 {
		t.Errorf("override = %d, want 1200", got)
	}
}

func TestAIResponseMentions(t *testing.T) {
	yes, no := true, false
	r := AIResponse{Response: "Top picks: Acme Corp and Globex."}

	if !r.MentionsBrand("acme corp") {
		t.Error("expected case-insensitive mention")
	}
	if r.Mentions("  ") {
		t.Error("blank name never matches")
	}
	r.BrandMentioned = &no
	if r.MentionsBrand("Acme") {
		t.Error("collector verdict must win")
	}
	r.BrandMentioned = &yes
	if !r.MentionsBrand("Initech") {
		t.Error("collector verdict must win")
	}
}
