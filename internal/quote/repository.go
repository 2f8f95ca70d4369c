package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/georepute/backend/internal/contracts"
	"github.com/wonny/georepute/backend/pkg/database"
)

// PostgresRepository stores quotes, their activity log and the threat history.
// Every write and its activity entry share one transaction.
type PostgresRepository struct {
	db *database.DB
}

// NewPostgresRepository creates a new repository
func NewPostgresRepository(db *database.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const quoteColumns = `
	id, user_id, organization_id, project_id, mode, status,
	dcs_snapshot, revenue_exposure, threat_data, recommendation, pricing, model_hash,
	selected_reports, selected_markets, scope_adjustments,
	price_override, price_override_reason, internal_notes,
	margin_estimate, win_probability, total_monthly_price, proposal_version,
	valid_until, created_at, updated_at`

// CreateQuote inserts the quote, its creation entry and a threat history point
func (r *PostgresRepository) CreateQuote(ctx context.Context, q *contracts.Quote, entry *contracts.ActivityEntry) error {
	snap, err := marshalQuote(q)
	if err != nil {
		return err
	}

	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		query := `INSERT INTO quotes (` + quoteColumns + `) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12,
			$13, $14, $15,
			$16, $17, $18,
			$19, $20, $21, $22,
			$23, $24, $25
		)`

		_, err := tx.Exec(ctx, query,
			q.ID, q.UserID, q.OrganizationID, q.ProjectID, q.Mode, q.Status,
			snap.dcs, snap.revenue, snap.threat, snap.recommendation, snap.pricing, q.ModelHash,
			snap.reports, snap.markets, snap.scope,
			q.PriceOverride, q.PriceOverrideReason, q.InternalNotes,
			q.MarginEstimate, q.WinProbability, q.TotalMonthlyPrice, q.ProposalVersion,
			q.ValidUntil, q.CreatedAt, q.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert quote: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO threat_history (project_id, quote_id, pressure_index, recorded_at)
			VALUES ($1, $2, $3, $4)
		`, q.ProjectID, q.ID, q.ThreatData.CompetitivePressureIndex, q.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert threat history: %w", err)
		}

		return insertActivity(ctx, tx, entry)
	})
}

// GetQuote loads a quote owned by userID
func (r *PostgresRepository) GetQuote(ctx context.Context, quoteID, userID string) (*contracts.Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE id = $1 AND user_id = $2`

	q, err := scanQuote(r.db.Pool.QueryRow(ctx, query, quoteID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("quote %s: %w", quoteID, contracts.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query quote: %w", err)
	}
	return q, nil
}

// ListQuotes returns userID's quotes, newest first
func (r *PostgresRepository) ListQuotes(ctx context.Context, userID string, filter contracts.QuoteFilter) ([]*contracts.Quote, error) {
	where := []string{"user_id = $1"}
	args := []interface{}{userID}

	if filter.ProjectID != "" {
		args = append(args, filter.ProjectID)
		where = append(where, fmt.Sprintf("project_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, max(filter.Offset, 0))

	query := fmt.Sprintf(`SELECT %s FROM quotes WHERE %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		quoteColumns, strings.Join(where, " AND "), len(args)-1, len(args))

	return r.queryQuotes(ctx, query, args...)
}

// UpdateQuote writes the mutable fields if the stored status still matches
func (r *PostgresRepository) UpdateQuote(ctx context.Context, q *contracts.Quote, expectedStatus contracts.QuoteStatus, entry *contracts.ActivityEntry) error {
	snap, err := marshalQuote(q)
	if err != nil {
		return err
	}

	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE quotes SET
				status = $4,
				selected_reports = $5,
				selected_markets = $6,
				scope_adjustments = $7,
				price_override = $8,
				price_override_reason = $9,
				internal_notes = $10,
				margin_estimate = $11,
				win_probability = $12,
				total_monthly_price = $13,
				proposal_version = $14,
				valid_until = $15,
				updated_at = $16
			WHERE id = $1 AND user_id = $2 AND status = $3
		`,
			q.ID, q.UserID, expectedStatus,
			q.Status, snap.reports, snap.markets, snap.scope,
			q.PriceOverride, q.PriceOverrideReason, q.InternalNotes,
			q.MarginEstimate, q.WinProbability, q.TotalMonthlyPrice,
			q.ProposalVersion, q.ValidUntil, q.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("update quote: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return missingOr(ctx, tx, q.ID, q.UserID,
				fmt.Errorf("quote %s is no longer %s: %w", q.ID, expectedStatus, contracts.ErrInvalidTransition))
		}

		return insertActivity(ctx, tx, entry)
	})
}

// DeleteQuote removes a draft quote. The activity log outlives it.
func (r *PostgresRepository) DeleteQuote(ctx context.Context, quoteID, userID string, entry *contracts.ActivityEntry) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			DELETE FROM quotes WHERE id = $1 AND user_id = $2 AND status = 'draft'
		`, quoteID, userID)
		if err != nil {
			return fmt.Errorf("delete quote: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return missingOr(ctx, tx, quoteID, userID,
				fmt.Errorf("quote %s: %w", quoteID, contracts.ErrNotDeletable))
		}

		return insertActivity(ctx, tx, entry)
	})
}

// ListActivity returns the log of a quote owned by userID, oldest first
func (r *PostgresRepository) ListActivity(ctx context.Context, quoteID, userID string) ([]*contracts.ActivityEntry, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, quote_id, user_id, actor, action, old_value, new_value, created_at
		FROM quote_activity_log
		WHERE quote_id = $1 AND user_id = $2
		ORDER BY created_at ASC, id
	`, quoteID, userID)
	if err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}
	defer rows.Close()

	var entries []*contracts.ActivityEntry
	for rows.Next() {
		e := &contracts.ActivityEntry{}
		var oldValue, newValue []byte
		if err := rows.Scan(&e.ID, &e.QuoteID, &e.UserID, &e.Actor, &e.Action, &oldValue, &newValue, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		e.OldValue = oldValue
		e.NewValue = newValue
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("quote %s: %w", quoteID, contracts.ErrNotFound)
	}
	return entries, nil
}

// ListExpirable returns draft/sent quotes past valid_until across all users
func (r *PostgresRepository) ListExpirable(ctx context.Context, now time.Time, limit int) ([]*contracts.Quote, error) {
	query := `SELECT ` + quoteColumns + `
		FROM quotes
		WHERE status IN ('draft', 'sent') AND valid_until < $1
		ORDER BY valid_until ASC
		LIMIT $2`

	return r.queryQuotes(ctx, query, now, limit)
}

func (r *PostgresRepository) queryQuotes(ctx context.Context, query string, args ...interface{}) ([]*contracts.Quote, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query quotes: %w", err)
	}
	defer rows.Close()

	quotes := make([]*contracts.Quote, 0)
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		quotes = append(quotes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return quotes, nil
}

// missingOr returns ErrNotFound when the quote is not visible to userID, otherwise fallback
func missingOr(ctx context.Context, tx pgx.Tx, quoteID, userID string, fallback error) error {
	var exists bool
	err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM quotes WHERE id = $1 AND user_id = $2)`, quoteID, userID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check quote: %w", err)
	}
	if !exists {
		return fmt.Errorf("quote %s: %w", quoteID, contracts.ErrNotFound)
	}
	return fallback
}

func insertActivity(ctx context.Context, tx pgx.Tx, e *contracts.ActivityEntry) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO quote_activity_log (id, quote_id, user_id, actor, action, old_value, new_value, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, e.ID, e.QuoteID, e.UserID, e.Actor, e.Action, nullJSON(e.OldValue), nullJSON(e.NewValue), e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

type quoteJSON struct {
	dcs, revenue, threat, recommendation, pricing []byte
	reports, markets, scope                       []byte
}

func marshalQuote(q *contracts.Quote) (*quoteJSON, error) {
	var out quoteJSON
	parts := []struct {
		name string
		dst  *[]byte
		v    interface{}
	}{
		{"dcs_snapshot", &out.dcs, q.DCSSnapshot},
		{"revenue_exposure", &out.revenue, q.RevenueExposure},
		{"threat_data", &out.threat, q.ThreatData},
		{"recommendation", &out.recommendation, q.Recommendation},
		{"pricing", &out.pricing, q.Pricing},
		{"selected_reports", &out.reports, nonNil(q.SelectedReports)},
		{"selected_markets", &out.markets, nonNil(q.SelectedMarkets)},
		{"scope_adjustments", &out.scope, q.ScopeAdjustments},
	}
	for _, p := range parts {
		b, err := json.Marshal(p.v)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", p.name, err)
		}
		*p.dst = b
	}
	return &out, nil
}

func scanQuote(row pgx.Row) (*contracts.Quote, error) {
	q := &contracts.Quote{}
	var dcs, revenue, threat, recommendation, pricing, reports, markets, scope []byte

	err := row.Scan(
		&q.ID, &q.UserID, &q.OrganizationID, &q.ProjectID, &q.Mode, &q.Status,
		&dcs, &revenue, &threat, &recommendation, &pricing, &q.ModelHash,
		&reports, &markets, &scope,
		&q.PriceOverride, &q.PriceOverrideReason, &q.InternalNotes,
		&q.MarginEstimate, &q.WinProbability, &q.TotalMonthlyPrice, &q.ProposalVersion,
		&q.ValidUntil, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	parts := []struct {
		name string
		src  []byte
		dst  interface{}
	}{
		{"dcs_snapshot", dcs, &q.DCSSnapshot},
		{"revenue_exposure", revenue, &q.RevenueExposure},
		{"threat_data", threat, &q.ThreatData},
		{"recommendation", recommendation, &q.Recommendation},
		{"pricing", pricing, &q.Pricing},
		{"selected_reports", reports, &q.SelectedReports},
		{"selected_markets", markets, &q.SelectedMarkets},
		{"scope_adjustments", scope, &q.ScopeAdjustments},
	}
	for _, p := range parts {
		if len(p.src) == 0 {
			continue
		}
		if err := json.Unmarshal(p.src, p.dst); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", p.name, err)
		}
	}
	return q, nil
}

func nullJSON(b json.RawMessage) interface{} {
	if len(b) == 0 {
		return nil
	}
	return []byte(b)
}
