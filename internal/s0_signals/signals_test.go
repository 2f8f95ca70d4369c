package s0_signals

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/georepute/backend/internal/contracts"
	"github.com/wonny/georepute/backend/pkg/logger"
	"github.com/wonny/georepute/backend/pkg/redis"
)

func testProject() *contracts.Project {
	return &contracts.Project{
		ID:          "p-1",
		UserID:      "u-1",
		Name:        "Acme",
		BrandName:   "Acme",
		WebsiteURL:  "acme.example",
		Industry:    "SaaS",
		Competitors: []string{"Globex", "Initech"},
		Keywords:    []string{"crm", "billing"},
	}
}

type countingSource struct {
	bundle *contracts.SignalBundle
	err    error
	calls  int
}

func (s *countingSource) Load(ctx context.Context, p *contracts.Project) (*contracts.SignalBundle, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	b := *s.bundle
	return &b, nil
}

type fakeAuditor struct {
	analysis *contracts.WebsiteAnalysis
	err      error
	calls    int
}

func (a *fakeAuditor) Analyze(ctx context.Context, url string) (*contracts.WebsiteAnalysis, error) {
	a.calls++
	return a.analysis, a.err
}

func TestApplySignal(t *testing.T) {
	b := NewBundle(testProject())

	require.NoError(t, ApplySignal(b, KindGSCSummary, []byte(`{"total_clicks":120,"total_impressions":4000,"avg_ctr":0.03,"avg_position":8.5}`)))
	require.NoError(t, ApplySignal(b, KindAIResponses, []byte(`[{"platform":"chatgpt","prompt":"best crm","response":"Acme and Globex"}]`)))
	require.NoError(t, ApplySignal(b, KindMapReviews, []byte(`{"rating":4.6,"review_count":87}`)))
	require.NoError(t, ApplySignal(b, "future_kind", []byte(`{"x":1}`)))
	require.NoError(t, ApplySignal(b, KindGapReport, nil))

	require.NotNil(t, b.GSCSummary)
	assert.Equal(t, int64(4000), b.GSCSummary.TotalImpressions)
	require.Len(t, b.AIResponses, 1)
	assert.True(t, b.AIResponses[0].MentionsBrand("acme"))
	require.NotNil(t, b.MapReviews)
	assert.Equal(t, 87, b.MapReviews.ReviewCount)
	assert.Nil(t, b.GapReport)

	err := ApplySignal(b, KindMarketShare, []byte(`{"brand_share":"lots"}`))
	assert.Error(t, err)
}

func TestKinds(t *testing.T) {
	assert.Len(t, Kinds(), 10)
	assert.True(t, IsKnownKind(KindWebsiteAnalyses))
	assert.False(t, IsKnownKind("future_kind"))

	// every known kind decodes into the bundle
	for _, k := range Kinds() {
		b := NewBundle(testProject())
		assert.NoError(t, ApplySignal(b, k, []byte(`null`)), k)
	}
}

func TestNewBundle_CopiesProjectSlices(t *testing.T) {
	p := testProject()
	b := NewBundle(p)
	b.Competitors[0] = "changed"
	assert.Equal(t, "Globex", p.Competitors[0])
	assert.Equal(t, "p-1", b.ProjectID)
	assert.Equal(t, "SaaS", b.Industry)
}

func TestCachedSource(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewCache(redis.NewFromAddr(mr.Addr()), "test")

	inner := &countingSource{bundle: NewBundle(testProject())}
	src := NewCachedSource(inner, cache, 0, logger.NewNop())
	ctx := context.Background()

	_, err := src.Load(ctx, testProject())
	require.NoError(t, err)

	// 캐시 히트 시에도 프로젝트 메타는 최신값
	renamed := testProject()
	renamed.BrandName = "Acme Corp"
	b, err := src.Load(ctx, renamed)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, "Acme Corp", b.BrandName)

	require.NoError(t, src.Invalidate(ctx, "p-1"))
	_, err = src.Load(ctx, testProject())
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedSource_RedisDownFallsThrough(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewCache(redis.NewFromAddr(mr.Addr()), "test")
	mr.Close()

	inner := &countingSource{bundle: NewBundle(testProject())}
	b, err := NewCachedSource(inner, cache, 0, logger.NewNop()).Load(context.Background(), testProject())
	require.NoError(t, err)
	assert.Equal(t, "p-1", b.ProjectID)
}

func TestCachedSource_PropagatesSourceError(t *testing.T) {
	inner := &countingSource{err: errors.New("db down")}
	src := NewCachedSource(inner, redis.NewCache(redis.NewFromAddr(miniredis.RunT(t).Addr()), "test"), 0, logger.NewNop())
	_, err := src.Load(context.Background(), testProject())
	assert.EqualError(t, err, "db down")
}

func TestWebsiteAugmentor(t *testing.T) {
	ctx := context.Background()
	audit := &contracts.WebsiteAnalysis{URL: "https://acme.example", HasTitle: true}

	t.Run("audits when no analysis stored", func(t *testing.T) {
		aud := &fakeAuditor{analysis: audit}
		src := NewWebsiteAugmentor(&countingSource{bundle: NewBundle(testProject())}, aud, logger.NewNop())
		b, err := src.Load(ctx, testProject())
		require.NoError(t, err)
		assert.Equal(t, 1, aud.calls)
		require.Len(t, b.WebsiteAnalyses, 1)
		assert.True(t, b.WebsiteAnalyses[0].HasTitle)
	})

	t.Run("skips when analysis exists", func(t *testing.T) {
		stored := NewBundle(testProject())
		stored.WebsiteAnalyses = []contracts.WebsiteAnalysis{{URL: "https://acme.example"}}
		aud := &fakeAuditor{analysis: audit}
		_, err := NewWebsiteAugmentor(&countingSource{bundle: stored}, aud, logger.NewNop()).Load(ctx, testProject())
		require.NoError(t, err)
		assert.Equal(t, 0, aud.calls)
	})

	t.Run("audit failure leaves signal missing", func(t *testing.T) {
		aud := &fakeAuditor{err: errors.New("timeout")}
		b, err := NewWebsiteAugmentor(&countingSource{bundle: NewBundle(testProject())}, aud, logger.NewNop()).Load(ctx, testProject())
		require.NoError(t, err)
		assert.Empty(t, b.WebsiteAnalyses)
	})
}
