package contracts

import (
	"context"
	"time"
)

// ⭐ SSOT: Repository 인터페이스 정의는 여기서만

// ProjectRepository reads brand-analysis projects
type ProjectRepository interface {
	// GetProject returns ErrNotFound when the project is missing or not owned by userID
	GetProject(ctx context.Context, projectID, userID string) (*Project, error)
}

// SignalSource assembles the S0 bundle for a project
type SignalSource interface {
	Load(ctx context.Context, project *Project) (*SignalBundle, error)
}

// ThreatHistoryRepository stores the pressure index per created quote
type ThreatHistoryRepository interface {
	// RecentPressure returns up to n indexes, oldest first
	RecentPressure(ctx context.Context, projectID string, n int) ([]float64, error)
}

// QuoteRepository persists quotes with their activity log.
// Every write takes the activity entry and stores both atomically.
// Every read and write is scoped to (quoteID, userID).
type QuoteRepository interface {
	CreateQuote(ctx context.Context, q *Quote, entry *ActivityEntry) error
	GetQuote(ctx context.Context, quoteID, userID string) (*Quote, error)
	ListQuotes(ctx context.Context, userID string, filter QuoteFilter) ([]*Quote, error)
	// UpdateQuote applies q only if the stored status still equals expectedStatus
	UpdateQuote(ctx context.Context, q *Quote, expectedStatus QuoteStatus, entry *ActivityEntry) error
	// DeleteQuote removes a draft quote; a non-draft row yields ErrNotDeletable
	DeleteQuote(ctx context.Context, quoteID, userID string, entry *ActivityEntry) error
	ListActivity(ctx context.Context, quoteID, userID string) ([]*ActivityEntry, error)
	// ListExpirable returns draft/sent quotes with valid_until before now, across all users
	ListExpirable(ctx context.Context, now time.Time, limit int) ([]*Quote, error)
}

// QuoteEventPublisher fans activity out to live subscribers
type QuoteEventPublisher interface {
	Publish(userID string, event QuoteEvent)
}

// QuoteEvent is what dashboards receive over the websocket
type QuoteEvent struct {
	Type      string         `json:"type"` // activity action
	QuoteID   string         `json:"quote_id"`
	ProjectID string         `json:"project_id,omitempty"`
	Status    QuoteStatus    `json:"status,omitempty"`
	Activity  *ActivityEntry `json:"activity,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}
