package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/loopwell/feedback-engine/pkg/apperrors"
	"github.com/loopwell/feedback-engine/pkg/database"
	"github.com/loopwell/feedback-engine/pkg/models"
)

// FeatureRepository provides data access for product features.
type FeatureRepository interface {
	// Create inserts a new feature. Returns apperrors.ErrConflict when a
	// feature with the same name (case-insensitive) already exists in the
	// project; callers must treat that as reuse, never as an error.
	Create(ctx context.Context, q database.Querier, feature *models.Feature) error

	// GetByID fetches a feature within a project. Returns nil when absent.
	GetByID(ctx context.Context, q database.Querier, projectID, id uuid.UUID) (*models.Feature, error)

	// GetByName fetches a feature by exact case-insensitive name match.
	// Returns nil when absent.
	GetByName(ctx context.Context, q database.Querier, projectID uuid.UUID, name string) (*models.Feature, error)

	// SearchByEmbedding returns the features nearest to the query vector by
	// cosine distance, ascending, scoped to the project.
	SearchByEmbedding(ctx context.Context, q database.Querier, projectID uuid.UUID, embedding pgvector.Vector, limit int) ([]*models.FeatureCandidate, error)
}

type featureRepository struct{}

// NewFeatureRepository creates a new FeatureRepository.
func NewFeatureRepository() FeatureRepository {
	return &featureRepository{}
}

var _ FeatureRepository = (*featureRepository)(nil)

const featureColumns = `id, project_id, name, description, name_embedding, created_by, created_at, updated_at`

func (r *featureRepository) Create(ctx context.Context, q database.Querier, feature *models.Feature) error {
	if feature.ID == uuid.Nil {
		feature.ID = uuid.New()
	}

	query := `
		INSERT INTO features (id, project_id, name, description, name_embedding, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (project_id, lower(name)) DO NOTHING
		RETURNING created_at, updated_at`

	err := q.QueryRow(ctx, query,
		feature.ID, feature.ProjectID, feature.Name, feature.Description,
		feature.NameEmbedding, feature.CreatedBy,
	).Scan(&feature.CreatedAt, &feature.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to create feature: %w", err)
	}

	return nil
}

func (r *featureRepository) GetByID(ctx context.Context, q database.Querier, projectID, id uuid.UUID) (*models.Feature, error) {
	query := `SELECT ` + featureColumns + ` FROM features WHERE project_id = $1 AND id = $2`

	return getFeature(q.QueryRow(ctx, query, projectID, id))
}

func (r *featureRepository) GetByName(ctx context.Context, q database.Querier, projectID uuid.UUID, name string) (*models.Feature, error) {
	query := `SELECT ` + featureColumns + ` FROM features WHERE project_id = $1 AND lower(name) = lower($2)`

	return getFeature(q.QueryRow(ctx, query, projectID, name))
}

func (r *featureRepository) SearchByEmbedding(ctx context.Context, q database.Querier, projectID uuid.UUID, embedding pgvector.Vector, limit int) ([]*models.FeatureCandidate, error) {
	if limit <= 0 {
		limit = 5
	}

	query := `
		SELECT id, name, description, name_embedding <=> $2 AS distance
		FROM features
		WHERE project_id = $1 AND name_embedding IS NOT NULL
		ORDER BY name_embedding <=> $2
		LIMIT $3`

	rows, err := q.Query(ctx, query, projectID, embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search features: %w", err)
	}
	defer rows.Close()

	candidates := make([]*models.FeatureCandidate, 0, limit)
	for rows.Next() {
		var c models.FeatureCandidate
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan feature candidate: %w", err)
		}
		candidates = append(candidates, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating candidates: %w", err)
	}

	return candidates, nil
}

func getFeature(row pgx.Row) (*models.Feature, error) {
	var f models.Feature

	err := row.Scan(
		&f.ID, &f.ProjectID, &f.Name, &f.Description, &f.NameEmbedding,
		&f.CreatedBy, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan feature: %w", err)
	}

	return &f, nil
}
