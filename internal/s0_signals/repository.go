package s0_signals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/georepute/backend/internal/contracts"
)

// Repository reads projects and their collected signals
// ⭐ SSOT: S0 시그널 조회는 여기서만
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository instance
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// GetProject loads a project owned by userID
func (r *Repository) GetProject(ctx context.Context, projectID, userID string) (*contracts.Project, error) {
	query := `
		SELECT
			id,
			user_id,
			organization_id,
			name,
			brand_name,
			COALESCE(website_url, ''),
			COALESCE(industry, ''),
			competitors,
			keywords
		FROM projects
		WHERE id = $1 AND user_id = $2
	`

	p := &contracts.Project{}
	err := r.db.QueryRow(ctx, query, projectID, userID).Scan(
		&p.ID,
		&p.UserID,
		&p.OrganizationID,
		&p.Name,
		&p.BrandName,
		&p.WebsiteURL,
		&p.Industry,
		&p.Competitors,
		&p.Keywords,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("project %s: %w", projectID, contracts.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query project: %w", err)
	}

	return p, nil
}

// Load assembles the latest payload of every signal kind for the project
func (r *Repository) Load(ctx context.Context, project *contracts.Project) (*contracts.SignalBundle, error) {
	query := `
		SELECT DISTINCT ON (kind) kind, payload, collected_at
		FROM project_signals
		WHERE project_id = $1
		ORDER BY kind, collected_at DESC
	`

	rows, err := r.db.Query(ctx, query, project.ID)
	if err != nil {
		return nil, fmt.Errorf("query project signals: %w", err)
	}
	defer rows.Close()

	bundle := NewBundle(project)
	for rows.Next() {
		var (
			kind        string
			payload     []byte
			collectedAt time.Time
		)
		if err := rows.Scan(&kind, &payload, &collectedAt); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		if err := ApplySignal(bundle, kind, payload); err != nil {
			return nil, err
		}
		if collectedAt.After(bundle.CollectedAt) {
			bundle.CollectedAt = collectedAt
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	if bundle.CollectedAt.IsZero() {
		bundle.CollectedAt = time.Now().UTC()
	}

	return bundle, nil
}

// SaveSignal stores a collector payload
func (r *Repository) SaveSignal(ctx context.Context, projectID, kind string, payload []byte) error {
	query := `
		INSERT INTO project_signals (project_id, kind, payload, collected_at)
		VALUES ($1, $2, $3, NOW())
	`

	if _, err := r.db.Exec(ctx, query, projectID, kind, payload); err != nil {
		return fmt.Errorf("insert %s signal: %w", kind, err)
	}
	return nil
}

// RecentPressure returns up to n pressure indexes, oldest first
func (r *Repository) RecentPressure(ctx context.Context, projectID string, n int) ([]float64, error) {
	if n <= 0 {
		return nil, nil
	}

	query := `
		SELECT pressure_index FROM (
			SELECT pressure_index, recorded_at
			FROM threat_history
			WHERE project_id = $1
			ORDER BY recorded_at DESC
			LIMIT $2
		) recent
		ORDER BY recorded_at ASC
	`

	rows, err := r.db.Query(ctx, query, projectID, n)
	if err != nil {
		return nil, fmt.Errorf("query threat history: %w", err)
	}
	defer rows.Close()

	var history []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan threat history: %w", err)
		}
		history = append(history, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return history, nil
}
