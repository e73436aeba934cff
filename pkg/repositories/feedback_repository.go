package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/loopwell/feedback-engine/pkg/database"
	"github.com/loopwell/feedback-engine/pkg/models"
)

// FeedbackRepository provides data access for finalized feedback records.
type FeedbackRepository interface {
	// Create inserts the single Feedback row for an item. The unique
	// constraint on raw_feedback_item_id enforces 1:0..1.
	Create(ctx context.Context, q database.Querier, feedback *models.Feedback) error

	// GetByItemID fetches the feedback derived from a raw feedback item.
	// Returns nil when none exists.
	GetByItemID(ctx context.Context, q database.Querier, rawFeedbackItemID uuid.UUID) (*models.Feedback, error)

	// ListByFeature returns all feedback attached to a feature, newest first.
	ListByFeature(ctx context.Context, q database.Querier, featureID uuid.UUID) ([]*models.Feedback, error)
}

type feedbackRepository struct{}

// NewFeedbackRepository creates a new FeedbackRepository.
func NewFeedbackRepository() FeedbackRepository {
	return &feedbackRepository{}
}

var _ FeedbackRepository = (*feedbackRepository)(nil)

const feedbackColumns = `id, project_id, feature_id, content, sentiment, created_by, raw_feedback_item_id, created_at`

func (r *feedbackRepository) Create(ctx context.Context, q database.Querier, feedback *models.Feedback) error {
	if feedback.ID == uuid.Nil {
		feedback.ID = uuid.New()
	}

	query := `
		INSERT INTO feedback (id, project_id, feature_id, content, sentiment, created_by, raw_feedback_item_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := q.QueryRow(ctx, query,
		feedback.ID, feedback.ProjectID, feedback.FeatureID, feedback.Content,
		string(feedback.Sentiment), feedback.CreatedBy, feedback.RawFeedbackItemID,
	).Scan(&feedback.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create feedback: %w", err)
	}

	return nil
}

func (r *feedbackRepository) GetByItemID(ctx context.Context, q database.Querier, rawFeedbackItemID uuid.UUID) (*models.Feedback, error) {
	query := `SELECT ` + feedbackColumns + ` FROM feedback WHERE raw_feedback_item_id = $1`

	fb, err := scanFeedback(q.QueryRow(ctx, query, rawFeedbackItemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return fb, nil
}

func (r *feedbackRepository) ListByFeature(ctx context.Context, q database.Querier, featureID uuid.UUID) ([]*models.Feedback, error) {
	query := `SELECT ` + feedbackColumns + ` FROM feedback WHERE feature_id = $1 ORDER BY created_at DESC`

	rows, err := q.Query(ctx, query, featureID)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	defer rows.Close()

	records := make([]*models.Feedback, 0)
	for rows.Next() {
		var fb models.Feedback
		var sentiment string
		err := rows.Scan(
			&fb.ID, &fb.ProjectID, &fb.FeatureID, &fb.Content, &sentiment,
			&fb.CreatedBy, &fb.RawFeedbackItemID, &fb.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		fb.Sentiment = models.Sentiment(sentiment)
		records = append(records, &fb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feedback: %w", err)
	}

	return records, nil
}

func scanFeedback(row pgx.Row) (*models.Feedback, error) {
	var fb models.Feedback
	var sentiment string

	err := row.Scan(
		&fb.ID, &fb.ProjectID, &fb.FeatureID, &fb.Content, &sentiment,
		&fb.CreatedBy, &fb.RawFeedbackItemID, &fb.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan feedback: %w", err)
	}

	fb.Sentiment = models.Sentiment(sentiment)
	return &fb, nil
}
