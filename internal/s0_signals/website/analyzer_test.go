package website

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/georepute/backend/internal/contracts"
	"github.com/wonny/georepute/backend/pkg/config"
	"github.com/wonny/georepute/backend/pkg/httputil"
	"github.com/wonny/georepute/backend/pkg/logger"
	"github.com/wonny/georepute/backend/pkg/redis"
)

const samplePage = `<!doctype html>
<html>
<head>
	<title>Acme Plumbing | Emergency repairs</title>
	<meta name="Description" content="24/7 plumbing in Springfield">
	<link rel="canonical" href="https://acme.example/">
	<script type="application/ld+json">{"@type":"LocalBusiness"}</script>
	<style>body { color: red }</style>
</head>
<body>
	<h1>Acme Plumbing</h1>
	<p>Fast reliable repairs for every home</p>
	<img src="a.png" alt="Van">
	<img src="b.png">
	<script>var tracking = "ignored words here";</script>
</body>
</html>`

type fakeFetcher struct {
	body  []byte
	err   error
	calls int
}

func (f *fakeFetcher) GetBody(ctx context.Context, url string) ([]byte, error) {
	f.calls++
	return f.body, f.err
}

func TestParseHTML(t *testing.T) {
	a, err := ParseHTML("https://acme.example/", []byte(samplePage))
	require.NoError(t, err)

	assert.True(t, a.HasHTTPS)
	assert.True(t, a.HasTitle)
	assert.True(t, a.HasMetaDescription)
	assert.True(t, a.HasStructuredData)
	assert.True(t, a.HasCanonical)
	assert.Equal(t, 1, a.H1Count)
	assert.Equal(t, 0.5, a.ImageAltCoverage)
	assert.Equal(t, 8, a.WordCount)
}

func TestParseHTML_Bare(t *testing.T) {
	a, err := ParseHTML("http://bare.example", []byte(`<html><body><p>hi</p></body></html>`))
	require.NoError(t, err)

	assert.False(t, a.HasHTTPS)
	assert.False(t, a.HasTitle)
	assert.False(t, a.HasMetaDescription)
	assert.False(t, a.HasStructuredData)
	assert.False(t, a.HasCanonical)
	assert.Equal(t, 0, a.H1Count)
	assert.Equal(t, 1.0, a.ImageAltCoverage)
	assert.Equal(t, 1, a.WordCount)
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"acme.example", "https://acme.example", false},
		{" http://acme.example/a ", "http://acme.example/a", false},
		{"", "", true},
		{"ftp://acme.example", "", true},
		{"https://", "", true},
	}

	for _, tt := range tests {
		got, err := NormalizeURL(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, contracts.ErrValidation, tt.in)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestAnalyze_CachesResult(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewCache(redis.NewFromAddr(mr.Addr()), "test")

	f := &fakeFetcher{body: []byte(samplePage)}
	an := NewAnalyzer(f, cache, logger.NewNop())

	first, err := an.Analyze(context.Background(), "acme.example")
	require.NoError(t, err)
	second, err := an.Analyze(context.Background(), "acme.example")
	require.NoError(t, err)

	assert.Equal(t, 1, f.calls)
	assert.Equal(t, first.H1Count, second.H1Count)
	assert.False(t, second.AnalyzedAt.IsZero())
}

func TestAnalyze_FetchError(t *testing.T) {
	f := &fakeFetcher{err: errors.New("boom")}
	_, err := NewAnalyzer(f, nil, logger.NewNop()).Analyze(context.Background(), "acme.example")
	assert.Error(t, err)
}

func TestAnalyze_OverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	client := httputil.New(&config.Config{}, logger.NewNop()).DisableRetry()
	an := NewAnalyzer(client, nil, logger.NewNop())
	a, err := an.Analyze(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.False(t, a.HasHTTPS)
	assert.True(t, a.HasTitle)
}
