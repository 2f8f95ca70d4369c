package website

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/georepute/backend/internal/contracts"
	"github.com/wonny/georepute/backend/pkg/logger"
	"github.com/wonny/georepute/backend/pkg/redis"
)

// Fetcher returns a page body. *httputil.Client satisfies it.
type Fetcher interface {
	GetBody(ctx context.Context, url string) ([]byte, error)
}

// Analyzer runs live on-page audits
// ⭐ SSOT: 웹사이트 on-page 분석은 여기서만
type Analyzer struct {
	fetcher Fetcher
	cache   *redis.Cache
	logger  *logger.Logger
	now     func() time.Time
}

// NewAnalyzer creates an analyzer. cache may be nil.
func NewAnalyzer(fetcher Fetcher, cache *redis.Cache, log *logger.Logger) *Analyzer {
	return &Analyzer{
		fetcher: fetcher,
		cache:   cache,
		logger:  log.Component("website"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Analyze fetches rawURL and audits the returned HTML
func (a *Analyzer) Analyze(ctx context.Context, rawURL string) (*contracts.WebsiteAnalysis, error) {
	pageURL, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	if a.cache != nil {
		var cached contracts.WebsiteAnalysis
		if hit, err := a.cache.Get(ctx, redis.WebsiteAuditKey(pageURL), &cached); err == nil && hit {
			return &cached, nil
		}
	}

	body, err := a.fetcher.GetBody(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}

	analysis, err := ParseHTML(pageURL, body)
	if err != nil {
		return nil, err
	}
	analysis.AnalyzedAt = a.now()

	if a.cache != nil {
		if err := a.cache.Set(ctx, redis.WebsiteAuditKey(pageURL), analysis, redis.TTLLong); err != nil {
			a.logger.WithError(err).Warn("Website audit cache write failed")
		}
	}

	a.logger.WithFields(map[string]interface{}{
		"url":        pageURL,
		"has_title":  analysis.HasTitle,
		"h1_count":   analysis.H1Count,
		"word_count": analysis.WordCount,
	}).Debug("Analyzed website")

	return analysis, nil
}

// NormalizeURL adds https:// when no scheme is given
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", contracts.NewValidationError("website_url", "is empty")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", contracts.NewValidationError("website_url", "is not a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", contracts.NewValidationError("website_url", "must be http or https")
	}
	return u.String(), nil
}

// ParseHTML extracts the on-page checklist from a document
func ParseHTML(pageURL string, html []byte) (*contracts.WebsiteAnalysis, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	a := &contracts.WebsiteAnalysis{
		URL:      pageURL,
		HasHTTPS: strings.HasPrefix(strings.ToLower(pageURL), "https://"),
	}

	a.HasTitle = strings.TrimSpace(doc.Find("head title").First().Text()) != ""

	doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		name, _ := s.Attr("name")
		if !strings.EqualFold(name, "description") {
			return true
		}
		content, _ := s.Attr("content")
		a.HasMetaDescription = strings.TrimSpace(content) != ""
		return !a.HasMetaDescription
	})

	a.HasStructuredData = doc.Find(`script[type="application/ld+json"], [itemscope]`).Length() > 0

	doc.Find("link").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		rel, _ := s.Attr("rel")
		href, _ := s.Attr("href")
		if strings.EqualFold(strings.TrimSpace(rel), "canonical") && strings.TrimSpace(href) != "" {
			a.HasCanonical = true
			return false
		}
		return true
	})

	a.H1Count = doc.Find("h1").Length()

	// 이미지가 없으면 alt 누락도 없음
	images := doc.Find("img")
	if images.Length() == 0 {
		a.ImageAltCoverage = 1
	} else {
		withAlt := images.FilterFunction(func(_ int, s *goquery.Selection) bool {
			alt, _ := s.Attr("alt")
			return strings.TrimSpace(alt) != ""
		}).Length()
		a.ImageAltCoverage = float64(withAlt) / float64(images.Length())
	}

	body := doc.Find("body").Clone()
	body.Find("script, style, noscript").Remove()
	a.WordCount = len(strings.Fields(body.Text()))

	return a, nil
}
