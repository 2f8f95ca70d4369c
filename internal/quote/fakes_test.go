package quote

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wonny/georepute/backend/internal/contracts"
	"github.com/wonny/georepute/backend/pkg/redis"
)

type fakeProjects struct {
	projects map[string]*contracts.Project
}

func (f *fakeProjects) GetProject(ctx context.Context, projectID, userID string) (*contracts.Project, error) {
	p, ok := f.projects[projectID]
	if !ok || p.UserID != userID {
		return nil, fmt.Errorf("project %s: %w", projectID, contracts.ErrNotFound)
	}
	return p, nil
}

type fakeSignals struct {
	bundles map[string]*contracts.SignalBundle
	err     error
}

func (f *fakeSignals) Load(ctx context.Context, p *contracts.Project) (*contracts.SignalBundle, error) {
	if f.err != nil {
		return nil, f.err
	}
	if b, ok := f.bundles[p.ID]; ok {
		copied := *b
		return &copied, nil
	}
	return &contracts.SignalBundle{ProjectID: p.ID, BrandName: p.BrandName, Competitors: p.Competitors, Keywords: p.Keywords}, nil
}

type fakeHistory struct {
	history []float64
	err     error
}

func (f *fakeHistory) RecentPressure(ctx context.Context, projectID string, n int) ([]float64, error) {
	return f.history, f.err
}

// memRepo mirrors the ownership and status guards of the postgres repository
type memRepo struct {
	mu       sync.Mutex
	quotes   map[string]*contracts.Quote
	activity []*contracts.ActivityEntry
	listErr  error
}

func newMemRepo() *memRepo {
	return &memRepo{quotes: make(map[string]*contracts.Quote)}
}

func (r *memRepo) CreateQuote(ctx context.Context, q *contracts.Quote, entry *contracts.ActivityEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *q
	r.quotes[q.ID] = &stored
	r.activity = append(r.activity, entry)
	return nil
}

func (r *memRepo) GetQuote(ctx context.Context, quoteID, userID string) (*contracts.Quote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.quotes[quoteID]
	if !ok || q.UserID != userID {
		return nil, fmt.Errorf("quote %s: %w", quoteID, contracts.ErrNotFound)
	}
	copied := *q
	return &copied, nil
}

func (r *memRepo) ListQuotes(ctx context.Context, userID string, filter contracts.QuoteFilter) ([]*contracts.Quote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []*contracts.Quote
	for _, q := range r.quotes {
		if q.UserID != userID {
			continue
		}
		if filter.ProjectID != "" && q.ProjectID != filter.ProjectID {
			continue
		}
		if filter.Status != "" && q.Status != filter.Status {
			continue
		}
		copied := *q
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Offset >= len(out) {
		return []*contracts.Quote{}, nil
	}
	out = out[filter.Offset:]
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *memRepo) UpdateQuote(ctx context.Context, q *contracts.Quote, expected contracts.QuoteStatus, entry *contracts.ActivityEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.quotes[q.ID]
	if !ok || cur.UserID != q.UserID {
		return fmt.Errorf("quote %s: %w", q.ID, contracts.ErrNotFound)
	}
	if cur.Status != expected {
		return fmt.Errorf("quote %s: %w", q.ID, contracts.ErrInvalidTransition)
	}
	stored := *q
	r.quotes[q.ID] = &stored
	r.activity = append(r.activity, entry)
	return nil
}

func (r *memRepo) DeleteQuote(ctx context.Context, quoteID, userID string, entry *contracts.ActivityEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.quotes[quoteID]
	if !ok || cur.UserID != userID {
		return fmt.Errorf("quote %s: %w", quoteID, contracts.ErrNotFound)
	}
	if cur.Status != contracts.QuoteDraft {
		return fmt.Errorf("quote %s: %w", quoteID, contracts.ErrNotDeletable)
	}
	delete(r.quotes, quoteID)
	r.activity = append(r.activity, entry)
	return nil
}

func (r *memRepo) ListActivity(ctx context.Context, quoteID, userID string) ([]*contracts.ActivityEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*contracts.ActivityEntry
	for _, e := range r.activity {
		if e.QuoteID == quoteID && e.UserID == userID {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("quote %s: %w", quoteID, contracts.ErrNotFound)
	}
	return out, nil
}

func (r *memRepo) ListExpirable(ctx context.Context, now time.Time, limit int) ([]*contracts.Quote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*contracts.Quote
	for _, q := range r.quotes {
		if (q.Status == contracts.QuoteDraft || q.Status == contracts.QuoteSent) && q.ValidUntil.Before(now) {
			copied := *q
			out = append(out, &copied)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memRepo) activityFor(quoteID string) []*contracts.ActivityEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*contracts.ActivityEntry
	for _, e := range r.activity {
		if e.QuoteID == quoteID {
			out = append(out, e)
		}
	}
	return out
}

type fakeEvents struct {
	mu     sync.Mutex
	events []contracts.QuoteEvent
}

func (f *fakeEvents) Publish(userID string, event contracts.QuoteEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

type fakeLimiter struct {
	allowed bool
	err     error
}

func (f *fakeLimiter) Allow(ctx context.Context, cfg redis.RateLimitConfig) (bool, int, error) {
	return f.allowed, 0, f.err
}
