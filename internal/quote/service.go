package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/georepute/backend/internal/contracts"
	"github.com/wonny/georepute/backend/internal/metrics"
	"github.com/wonny/georepute/backend/pkg/config"
	"github.com/wonny/georepute/backend/pkg/logger"
	"github.com/wonny/georepute/backend/pkg/redis"
)

// RateLimiter is satisfied by *redis.RateLimiter
type RateLimiter interface {
	Allow(ctx context.Context, cfg redis.RateLimitConfig) (bool, int, error)
}

// Settings are the service knobs taken from the environment
type Settings struct {
	ValidityDays         int
	CreateLimitPerMinute int
}

// SettingsFrom reads Settings from the app config
func SettingsFrom(cfg *config.Config) Settings {
	return Settings{
		ValidityDays:         cfg.Quote.ValidityDays,
		CreateLimitPerMinute: cfg.Quote.CreateLimitPerMinute,
	}
}

// Deps are the collaborators of Service. Limiter, Events and Metrics may be nil.
type Deps struct {
	Projects  contracts.ProjectRepository
	Signals   contracts.SignalSource
	Quotes    contracts.QuoteRepository
	Pipeline  *Pipeline
	Limiter   RateLimiter
	Events    contracts.QuoteEventPublisher
	Metrics   *metrics.Metrics
	ModelHash string
}

// Service is the quote orchestrator: creation pipeline plus lifecycle
// ⭐ SSOT: 견적 생성/수정/삭제/만료는 여기서만
type Service struct {
	deps     Deps
	settings Settings
	logger   *logger.Logger

	now   func() time.Time
	newID func() string
}

// NewService creates a quote service
func NewService(deps Deps, settings Settings, log *logger.Logger) *Service {
	if settings.ValidityDays <= 0 {
		settings.ValidityDays = 30
	}
	return &Service{
		deps:     deps,
		settings: settings,
		logger:   log.Component("quote"),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// Create runs the full pipeline for a project and stores a draft quote.
// Any stage failure aborts the whole creation.
func (s *Service) Create(ctx context.Context, rc contracts.RequestContext, req CreateRequest) (*contracts.Quote, error) {
	startTime := s.now()

	if rc.UserID == "" {
		return nil, contracts.NewValidationError("user_id", "is required")
	}
	if err := req.Normalize(startTime); err != nil {
		return nil, err
	}

	if err := s.checkRateLimit(ctx, rc.UserID); err != nil {
		return nil, err
	}

	project, err := s.deps.Projects.GetProject(ctx, req.ProjectID, rc.UserID)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"project_id": project.ID,
		"user_id":    rc.UserID,
		"mode":       req.Mode,
	}).Info("Starting quote creation")

	// S0: Signals
	var bundle *contracts.SignalBundle
	if err := s.deps.Pipeline.stage(contracts.StageSignals, func() error {
		b, err := s.deps.Signals.Load(ctx, project)
		if err != nil {
			return err
		}
		bundle = b
		return nil
	}); err != nil {
		s.deps.Metrics.StageFailed(contracts.StageSignals)
		return nil, err
	}

	// S1-S5
	result, err := s.deps.Pipeline.Run(ctx, bundle, Input{
		AvgDealValue:    req.AvgDealValue,
		SelectedReports: req.SelectedReports,
		SelectedMarkets: req.SelectedMarkets,
		Scope:           req.ScopeAdjustments,
		PreviousMode:    s.previousMode(ctx, rc.UserID, project.ID),
	})
	if err != nil {
		if stage, ok := contracts.FailedStage(err); ok {
			s.deps.Metrics.StageFailed(stage)
		}
		return nil, err
	}

	// S6: Quote
	q := s.assemble(rc, project, req, result)
	entry := s.entry(q, rc.UserID, contracts.ActionCreated, nil, createdSnapshot(q))

	if err := s.deps.Quotes.CreateQuote(ctx, q, entry); err != nil {
		return nil, fmt.Errorf("persist quote: %w", err)
	}

	s.deps.Metrics.QuoteCreated(q)
	s.publish(q, entry)

	s.logger.WithFields(map[string]interface{}{
		"quote_id":      q.ID,
		"project_id":    q.ProjectID,
		"dcs":           q.DCSSnapshot.FinalScore,
		"pressure":      q.ThreatData.CompetitivePressureIndex,
		"primary_mode":  q.Recommendation.PrimaryMode,
		"suggested_min": q.Pricing.SuggestedMin,
		"suggested_max": q.Pricing.SuggestedMax,
		"duration_ms":   time.Since(startTime).Milliseconds(),
	}).Info("Quote created")

	return q, nil
}

func (s *Service) checkRateLimit(ctx context.Context, userID string) error {
	if s.deps.Limiter == nil {
		return nil
	}
	allowed, _, err := s.deps.Limiter.Allow(ctx, redis.QuoteCreateLimit(userID, s.settings.CreateLimitPerMinute))
	if err != nil {
		// 리밋 저장소 장애 시 요청은 통과
		s.logger.WithError(err).Warn("Rate limiter unavailable")
		return nil
	}
	if !allowed {
		s.deps.Metrics.RateLimited()
		return fmt.Errorf("quote creation for user %s: %w", userID, contracts.ErrRateLimited)
	}
	return nil
}

// previousMode is the primary mode of the project's latest quote, used for hysteresis
func (s *Service) previousMode(ctx context.Context, userID, projectID string) contracts.EngagementMode {
	quotes, err := s.deps.Quotes.ListQuotes(ctx, userID, contracts.QuoteFilter{ProjectID: projectID, Limit: 1})
	if err != nil {
		s.logger.WithError(err).WithField("project_id", projectID).Warn("Previous quote lookup failed")
		return ""
	}
	if len(quotes) == 0 {
		return ""
	}
	return quotes[0].Recommendation.PrimaryMode
}

func (s *Service) assemble(rc contracts.RequestContext, project *contracts.Project, req CreateRequest, r *Result) *contracts.Quote {
	now := s.now()

	validUntil := now.AddDate(0, 0, s.settings.ValidityDays)
	if req.ValidUntil != nil {
		validUntil = req.ValidUntil.UTC()
	}

	orgID := rc.OrganizationID
	if orgID == nil {
		orgID = project.OrganizationID
	}

	scope := req.ScopeAdjustments
	scope.MonitoringDepth = r.Pricing.MonitoringDepth

	total := r.Pricing.Midpoint()

	return &contracts.Quote{
		ID:                s.newID(),
		UserID:            rc.UserID,
		OrganizationID:    orgID,
		ProjectID:         project.ID,
		Mode:              req.Mode,
		Status:            contracts.QuoteDraft,
		DCSSnapshot:       *r.DCS,
		RevenueExposure:   *r.Revenue,
		ThreatData:        *r.Threat,
		Recommendation:    *r.Recommendation,
		Pricing:           *r.Pricing,
		ModelHash:         s.deps.ModelHash,
		SelectedReports:   r.PricingInput.SelectedReports,
		SelectedMarkets:   nonNil(req.SelectedMarkets),
		ScopeAdjustments:  scope,
		TotalMonthlyPrice: &total,
		ProposalVersion:   1,
		ValidUntil:        validUntil,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// Get returns a quote owned by the caller
func (s *Service) Get(ctx context.Context, rc contracts.RequestContext, quoteID string) (*contracts.Quote, error) {
	if quoteID == "" {
		return nil, contracts.NewValidationError("quote_id", "is required")
	}
	return s.deps.Quotes.GetQuote(ctx, quoteID, rc.UserID)
}

// List returns the caller's quotes, newest first
func (s *Service) List(ctx context.Context, rc contracts.RequestContext, filter contracts.QuoteFilter) ([]*contracts.Quote, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, contracts.NewValidationError("status", "is not a known status")
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.deps.Quotes.ListQuotes(ctx, rc.UserID, filter)
}

// Activity returns the quote's log, oldest first
func (s *Service) Activity(ctx context.Context, rc contracts.RequestContext, quoteID string) ([]*contracts.ActivityEntry, error) {
	if quoteID == "" {
		return nil, contracts.NewValidationError("quote_id", "is required")
	}
	return s.deps.Quotes.ListActivity(ctx, quoteID, rc.UserID)
}

// Update applies an allow-listed partial update.
// proposal_version increments unless the caller supplies it.
func (s *Service) Update(ctx context.Context, rc contracts.RequestContext, quoteID string, raw map[string]json.RawMessage) (*contracts.Quote, error) {
	if quoteID == "" {
		return nil, contracts.NewValidationError("quote_id", "is required")
	}
	patch, err := ParsePatch(raw)
	if err != nil {
		return nil, err
	}

	current, err := s.deps.Quotes.GetQuote(ctx, quoteID, rc.UserID)
	if err != nil {
		return nil, err
	}

	if patch.Has(FieldStatus) && !current.Status.CanTransitionTo(patch.Status) {
		return nil, fmt.Errorf("%s -> %s: %w", current.Status, patch.Status, contracts.ErrInvalidTransition)
	}

	// 리포트는 생성 시와 같은 허용 목록으로 필터
	if patch.Has(FieldSelectedReports) {
		patch.SelectedReports = s.deps.Pipeline.Pricing().FilterReports(patch.SelectedReports)
	}

	updated := *current
	patch.Apply(&updated)
	if !patch.Has(FieldProposalVersion) {
		updated.ProposalVersion = current.ProposalVersion + 1
	}
	updated.UpdatedAt = s.now()

	oldValue, newValue := diffSnapshot(current, &updated, patch.Fields)
	entry := s.entry(&updated, rc.UserID, updateAction(current, &updated, patch), oldValue, newValue)

	if err := s.deps.Quotes.UpdateQuote(ctx, &updated, current.Status, entry); err != nil {
		return nil, err
	}

	s.deps.Metrics.QuoteMutated(entry.Action)
	s.publish(&updated, entry)

	s.logger.WithFields(map[string]interface{}{
		"quote_id": updated.ID,
		"action":   entry.Action,
		"fields":   patch.Fields,
		"version":  updated.ProposalVersion,
	}).Info("Quote updated")

	return &updated, nil
}

// updateAction picks price_override, then status_changed, then updated
func updateAction(before, after *contracts.Quote, patch *Patch) string {
	if patch.Has(FieldPriceOverride) && !equalInt64Ptr(before.PriceOverride, after.PriceOverride) {
		return contracts.ActionPriceOverride
	}
	if patch.Has(FieldStatus) && before.Status != after.Status {
		return contracts.ActionStatusChanged
	}
	return contracts.ActionUpdated
}

// Delete removes a draft quote
func (s *Service) Delete(ctx context.Context, rc contracts.RequestContext, quoteID string) error {
	if quoteID == "" {
		return contracts.NewValidationError("quote_id", "is required")
	}

	current, err := s.deps.Quotes.GetQuote(ctx, quoteID, rc.UserID)
	if err != nil {
		return err
	}
	if current.Status != contracts.QuoteDraft {
		return fmt.Errorf("quote %s is %s: %w", quoteID, current.Status, contracts.ErrNotDeletable)
	}

	entry := s.entry(current, rc.UserID, contracts.ActionDeleted, createdSnapshot(current), nil)
	if err := s.deps.Quotes.DeleteQuote(ctx, quoteID, rc.UserID, entry); err != nil {
		return err
	}

	s.deps.Metrics.QuoteMutated(entry.Action)
	s.publish(current, entry)

	s.logger.WithField("quote_id", quoteID).Info("Quote deleted")
	return nil
}

// ExpireDue moves draft/sent quotes past valid_until to expired.
// Quotes that change concurrently are skipped.
func (s *Service) ExpireDue(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 100
	}

	now := s.now()
	due, err := s.deps.Quotes.ListExpirable(ctx, now, batchSize)
	if err != nil {
		return 0, fmt.Errorf("list expirable quotes: %w", err)
	}

	expired := 0
	for _, current := range due {
		if err := ctx.Err(); err != nil {
			return expired, err
		}

		updated := *current
		updated.Status = contracts.QuoteExpired
		updated.ProposalVersion = current.ProposalVersion + 1
		updated.UpdatedAt = now

		oldValue, newValue := diffSnapshot(current, &updated, []string{FieldStatus})
		entry := s.entry(&updated, contracts.ActorSystem, contracts.ActionStatusChanged, oldValue, newValue)

		if err := s.deps.Quotes.UpdateQuote(ctx, &updated, current.Status, entry); err != nil {
			if errors.Is(err, contracts.ErrInvalidTransition) || errors.Is(err, contracts.ErrNotFound) {
				continue
			}
			s.logger.WithError(err).WithField("quote_id", current.ID).Warn("Quote expiry failed")
			continue
		}

		s.publish(&updated, entry)
		expired++
	}

	s.deps.Metrics.QuotesExpired(expired)
	if expired > 0 {
		s.logger.WithFields(map[string]interface{}{
			"expired":    expired,
			"candidates": len(due),
		}).Info("Expired quotes")
	}
	return expired, nil
}

func (s *Service) entry(q *contracts.Quote, actor, action string, oldValue, newValue interface{}) *contracts.ActivityEntry {
	return &contracts.ActivityEntry{
		ID:        s.newID(),
		QuoteID:   q.ID,
		UserID:    q.UserID,
		Actor:     actor,
		Action:    action,
		OldValue:  mustJSON(oldValue),
		NewValue:  mustJSON(newValue),
		CreatedAt: s.now(),
	}
}

func (s *Service) publish(q *contracts.Quote, entry *contracts.ActivityEntry) {
	if s.deps.Events == nil {
		return
	}
	s.deps.Events.Publish(q.UserID, contracts.QuoteEvent{
		Type:      entry.Action,
		QuoteID:   q.ID,
		ProjectID: q.ProjectID,
		Status:    q.Status,
		Activity:  entry,
		Timestamp: entry.CreatedAt,
	})
}

func createdSnapshot(q *contracts.Quote) map[string]interface{} {
	return map[string]interface{}{
		"status":              q.Status,
		"mode":                q.Mode,
		"project_id":          q.ProjectID,
		"dcs":                 q.DCSSnapshot.FinalScore,
		"primary_mode":        q.Recommendation.PrimaryMode,
		"suggested_min":       q.Pricing.SuggestedMin,
		"suggested_max":       q.Pricing.SuggestedMax,
		"total_monthly_price": q.TotalMonthlyPrice,
		"proposal_version":    q.ProposalVersion,
	}
}

// diffSnapshot captures the supplied fields before and after, plus the version
func diffSnapshot(before, after *contracts.Quote, fields []string) (map[string]interface{}, map[string]interface{}) {
	oldValue := make(map[string]interface{}, len(fields)+1)
	newValue := make(map[string]interface{}, len(fields)+1)
	for _, f := range fields {
		oldValue[f] = fieldValue(before, f)
		newValue[f] = fieldValue(after, f)
	}
	oldValue[FieldProposalVersion] = before.ProposalVersion
	newValue[FieldProposalVersion] = after.ProposalVersion
	return oldValue, newValue
}

func mustJSON(v interface{}) json.RawMessage {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}

func equalInt64Ptr(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
