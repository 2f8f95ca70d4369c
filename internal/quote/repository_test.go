package quote

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/georepute/backend/internal/contracts"
	"github.com/wonny/georepute/backend/internal/s0_signals"
	"github.com/wonny/georepute/backend/pkg/config"
	"github.com/wonny/georepute/backend/pkg/database"
)

// Integration test against a real database with migrations/001_quote_builder.sql applied
func TestPostgresRepository(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	db, err := database.New(&config.Config{Database: config.DatabaseConfig{URL: url, MaxConns: 2, MinConns: 1}})
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	projectID := "it-proj-" + time.Now().Format("150405.000000")
	require.NoError(t, db.Exec(ctx, `INSERT INTO projects (id, user_id, name, brand_name) VALUES ('`+projectID+`', 'it-user', 'IT', 'IT')`))
	defer func() { _ = db.Exec(ctx, `DELETE FROM projects WHERE id = '`+projectID+`'`) }()

	repo := NewPostgresRepository(db)
	now := time.Now().UTC().Truncate(time.Microsecond)
	total := int64(4000)

	q := &contracts.Quote{
		ID:                projectID + "-q",
		UserID:            "it-user",
		ProjectID:         projectID,
		Mode:              contracts.QuoteModeQuick,
		Status:            contracts.QuoteDraft,
		ThreatData:        contracts.ThreatResult{CompetitivePressureIndex: 42},
		Pricing:           contracts.PricingResult{SuggestedMin: 3000, SuggestedMax: 5000},
		ModelHash:         "hash",
		TotalMonthlyPrice: &total,
		ProposalVersion:   1,
		ValidUntil:        now.Add(time.Hour),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	entry := func(action string) *contracts.ActivityEntry {
		return &contracts.ActivityEntry{
			ID: q.ID + "-" + action + time.Now().Format(".000000"), QuoteID: q.ID, UserID: q.UserID,
			Actor: q.UserID, Action: action, CreatedAt: time.Now().UTC(),
		}
	}

	require.NoError(t, repo.CreateQuote(ctx, q, entry(contracts.ActionCreated)))

	got, err := repo.GetQuote(ctx, q.ID, "it-user")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), got.Pricing.SuggestedMax)
	assert.Equal(t, []string{}, got.SelectedReports)

	_, err = repo.GetQuote(ctx, q.ID, "someone-else")
	assert.ErrorIs(t, err, contracts.ErrNotFound)

	sources := s0_signals.NewRepository(db.Pool)
	history, err := sources.RecentPressure(ctx, projectID, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{42}, history)

	sent := *got
	sent.Status = contracts.QuoteSent
	sent.ProposalVersion = 2
	require.NoError(t, repo.UpdateQuote(ctx, &sent, contracts.QuoteDraft, entry(contracts.ActionStatusChanged)))
	assert.ErrorIs(t, repo.UpdateQuote(ctx, &sent, contracts.QuoteDraft, entry(contracts.ActionUpdated)), contracts.ErrInvalidTransition)
	assert.ErrorIs(t, repo.DeleteQuote(ctx, q.ID, "it-user", entry(contracts.ActionDeleted)), contracts.ErrNotDeletable)

	activity, err := repo.ListActivity(ctx, q.ID, "it-user")
	require.NoError(t, err)
	assert.Len(t, activity, 2)

	expirable, err := repo.ListExpirable(ctx, now.Add(2*time.Hour), 10)
	require.NoError(t, err)
	found := false
	for _, e := range expirable {
		if e.ID == q.ID {
			found = true
		}
	}
	assert.True(t, found)
}
