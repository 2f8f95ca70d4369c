package s0_signals

import (
	"context"
	"time"

	"github.com/wonny/georepute/backend/internal/contracts"
	"github.com/wonny/georepute/backend/pkg/logger"
	"github.com/wonny/georepute/backend/pkg/redis"
)

// CachedSource caches assembled bundles in redis.
// Cache failures are logged and fall through to the wrapped source.
type CachedSource struct {
	next   contracts.SignalSource
	cache  *redis.Cache
	ttl    time.Duration
	logger *logger.Logger
}

// NewCachedSource wraps next with a bundle cache
func NewCachedSource(next contracts.SignalSource, cache *redis.Cache, ttl time.Duration, log *logger.Logger) *CachedSource {
	if ttl <= 0 {
		ttl = redis.TTLMedium
	}
	return &CachedSource{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: log.Component("s0_signals"),
	}
}

// Load returns the cached bundle or assembles and caches a fresh one
func (s *CachedSource) Load(ctx context.Context, project *contracts.Project) (*contracts.SignalBundle, error) {
	key := redis.SignalBundleKey(project.ID)

	var cached contracts.SignalBundle
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.WithError(err).WithField("project_id", project.ID).Warn("Signal cache read failed")
	}
	if hit {
		// 프로젝트 메타는 항상 최신값
		fresh := NewBundle(project)
		cached.BrandName = fresh.BrandName
		cached.WebsiteURL = fresh.WebsiteURL
		cached.Industry = fresh.Industry
		cached.Competitors = fresh.Competitors
		cached.Keywords = fresh.Keywords
		return &cached, nil
	}

	bundle, err := s.next.Load(ctx, project)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, bundle, s.ttl); err != nil {
		s.logger.WithError(err).WithField("project_id", project.ID).Warn("Signal cache write failed")
	}
	return bundle, nil
}

// Invalidate drops the cached bundle after new signals are stored
func (s *CachedSource) Invalidate(ctx context.Context, projectID string) error {
	return s.cache.Delete(ctx, redis.SignalBundleKey(projectID))
}
