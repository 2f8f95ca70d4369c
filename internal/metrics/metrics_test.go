package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/georepute/backend/internal/contracts"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveStage(contracts.StageDCS, time.Millisecond)
		m.StageFailed(contracts.StageThreat)
		m.QuoteCreated(&contracts.Quote{})
		m.QuoteMutated(contracts.ActionUpdated)
		m.QuotesExpired(3)
		m.RateLimited()
		m.ObserveHTTP("GET", "/health", 200, time.Millisecond)
		m.SubscriberAdded()
		m.SubscriberRemoved()
	})
	assert.Nil(t, m.Registry())
}

func TestCounters(t *testing.T) {
	m := New()

	m.QuoteCreated(&contracts.Quote{
		Mode:           contracts.QuoteModeQuick,
		Recommendation: contracts.RecommendationResult{PrimaryMode: contracts.ModeGrowth},
		Pricing:        contracts.PricingResult{SuggestedMin: 3000, SuggestedMax: 5000},
	})
	m.StageFailed(contracts.StageThreat)
	m.StageFailed(contracts.StageThreat)
	m.QuotesExpired(0)
	m.QuotesExpired(4)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.quotesCreated.WithLabelValues("quick", "growth")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.stageFailures.WithLabelValues("threat")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.quotesExpired))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.quoteMutations.WithLabelValues(contracts.ActionCreated)))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveStage(contracts.StagePricing, 2*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `quote_builder_stage_duration_seconds_count{stage="pricing"} 1`), body)
}
