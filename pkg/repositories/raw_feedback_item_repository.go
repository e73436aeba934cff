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

// RawFeedbackItemRepository provides data access for atomic feedback items.
type RawFeedbackItemRepository interface {
	// CreateBatch inserts one item per content string, preserving order.
	CreateBatch(ctx context.Context, q database.Querier, rawFeedbackID uuid.UUID, contents []string) ([]*models.RawFeedbackItem, error)

	// ClaimNextForSentimentCheck locks the oldest item with no sentiment
	// verdict. Returns nil when no eligible row exists. Must run inside a
	// transaction.
	ClaimNextForSentimentCheck(ctx context.Context, q database.Querier) (*models.RawFeedbackItem, error)

	// ClaimNextForAssociation locks the oldest unassociated item, joining
	// the parent row to populate ProjectID. Only the item row is locked;
	// the parent is read without a lock. Returns nil when no eligible row
	// exists. Must run inside a transaction.
	ClaimNextForAssociation(ctx context.Context, q database.Querier) (*models.RawFeedbackItem, error)

	// MarkSentimentChecked stamps the sentiment verdict.
	MarkSentimentChecked(ctx context.Context, q database.Querier, id uuid.UUID, sentiment models.Sentiment) error

	// MarkAssociationComplete stamps association and clears any stale error.
	MarkAssociationComplete(ctx context.Context, q database.Querier, id uuid.UUID) error

	// SetProcessingError records a terminal stage failure on the item.
	SetProcessingError(ctx context.Context, q database.Querier, id uuid.UUID, message string) error

	// AllItemsAssociated reports whether every sibling item of the given
	// raw feedback has feature_association_complete set. Errored items
	// never satisfy the check.
	AllItemsAssociated(ctx context.Context, q database.Querier, rawFeedbackID uuid.UUID) (bool, error)

	ListByRawFeedback(ctx context.Context, q database.Querier, rawFeedbackID uuid.UUID) ([]*models.RawFeedbackItem, error)
}

type rawFeedbackItemRepository struct{}

// NewRawFeedbackItemRepository creates a new RawFeedbackItemRepository.
func NewRawFeedbackItemRepository() RawFeedbackItemRepository {
	return &rawFeedbackItemRepository{}
}

var _ RawFeedbackItemRepository = (*rawFeedbackItemRepository)(nil)

const rawFeedbackItemColumns = `id, raw_feedback_id, content, sentiment_check_complete,
	sentiment_check_result, feature_association_complete, processing_error, created_at, updated_at`

func (r *rawFeedbackItemRepository) CreateBatch(ctx context.Context, q database.Querier, rawFeedbackID uuid.UUID, contents []string) ([]*models.RawFeedbackItem, error) {
	query := `
		INSERT INTO raw_feedback_items (id, raw_feedback_id, content)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`

	items := make([]*models.RawFeedbackItem, 0, len(contents))
	for _, content := range contents {
		item := &models.RawFeedbackItem{
			ID:            uuid.New(),
			RawFeedbackID: rawFeedbackID,
			Content:       content,
		}

		err := q.QueryRow(ctx, query, item.ID, item.RawFeedbackID, item.Content).
			Scan(&item.CreatedAt, &item.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to create raw feedback item: %w", err)
		}

		items = append(items, item)
	}

	return items, nil
}

func (r *rawFeedbackItemRepository) ClaimNextForSentimentCheck(ctx context.Context, q database.Querier) (*models.RawFeedbackItem, error) {
	query := `
		SELECT ` + rawFeedbackItemColumns + `
		FROM raw_feedback_items
		WHERE sentiment_check_complete IS NULL AND processing_error IS NULL
		ORDER BY created_at, id
		LIMIT 1
		FOR UPDATE SKIP LOCKED`

	item, err := scanRawFeedbackItem(q.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // No eligible row
		}
		return nil, err
	}
	return item, nil
}

func (r *rawFeedbackItemRepository) ClaimNextForAssociation(ctx context.Context, q database.Querier) (*models.RawFeedbackItem, error) {
	query := `
		SELECT i.id, i.raw_feedback_id, i.content, i.sentiment_check_complete,
			i.sentiment_check_result, i.feature_association_complete, i.processing_error,
			i.created_at, i.updated_at, r.project_id
		FROM raw_feedback_items i
		JOIN raw_feedback r ON r.id = i.raw_feedback_id
		WHERE i.feature_association_complete IS NULL AND i.processing_error IS NULL
		ORDER BY i.created_at, i.id
		LIMIT 1
		FOR UPDATE OF i SKIP LOCKED`

	var item models.RawFeedbackItem
	err := q.QueryRow(ctx, query).Scan(
		&item.ID, &item.RawFeedbackID, &item.Content, &item.SentimentCheckComplete,
		&item.SentimentCheckResult, &item.FeatureAssociationComplete, &item.ProcessingError,
		&item.CreatedAt, &item.UpdatedAt, &item.ProjectID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // No eligible row
		}
		return nil, fmt.Errorf("failed to claim item for association: %w", err)
	}

	return &item, nil
}

func (r *rawFeedbackItemRepository) MarkSentimentChecked(ctx context.Context, q database.Querier, id uuid.UUID, sentiment models.Sentiment) error {
	query := `
		UPDATE raw_feedback_items
		SET sentiment_check_complete = now(), sentiment_check_result = $2, updated_at = now()
		WHERE id = $1`

	return execOne(ctx, q, "raw feedback item", query, id, string(sentiment))
}

func (r *rawFeedbackItemRepository) MarkAssociationComplete(ctx context.Context, q database.Querier, id uuid.UUID) error {
	query := `
		UPDATE raw_feedback_items
		SET feature_association_complete = now(), processing_error = NULL, updated_at = now()
		WHERE id = $1`

	return execOne(ctx, q, "raw feedback item", query, id)
}

func (r *rawFeedbackItemRepository) SetProcessingError(ctx context.Context, q database.Querier, id uuid.UUID, message string) error {
	query := `
		UPDATE raw_feedback_items
		SET processing_error = $2, updated_at = now()
		WHERE id = $1`

	return execOne(ctx, q, "raw feedback item", query, id, message)
}

func (r *rawFeedbackItemRepository) AllItemsAssociated(ctx context.Context, q database.Querier, rawFeedbackID uuid.UUID) (bool, error) {
	query := `
		SELECT COUNT(*)
		FROM raw_feedback_items
		WHERE raw_feedback_id = $1 AND feature_association_complete IS NULL`

	var pending int
	if err := q.QueryRow(ctx, query, rawFeedbackID).Scan(&pending); err != nil {
		return false, fmt.Errorf("failed to count pending items: %w", err)
	}

	return pending == 0, nil
}

func (r *rawFeedbackItemRepository) ListByRawFeedback(ctx context.Context, q database.Querier, rawFeedbackID uuid.UUID) ([]*models.RawFeedbackItem, error) {
	query := `
		SELECT ` + rawFeedbackItemColumns + `
		FROM raw_feedback_items
		WHERE raw_feedback_id = $1
		ORDER BY created_at, id`

	rows, err := q.Query(ctx, query, rawFeedbackID)
	if err != nil {
		return nil, fmt.Errorf("failed to list raw feedback items: %w", err)
	}
	defer rows.Close()

	items := make([]*models.RawFeedbackItem, 0)
	for rows.Next() {
		item, err := scanRawFeedbackItemRows(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	return items, nil
}

func scanRawFeedbackItem(row pgx.Row) (*models.RawFeedbackItem, error) {
	var item models.RawFeedbackItem

	err := row.Scan(
		&item.ID, &item.RawFeedbackID, &item.Content, &item.SentimentCheckComplete,
		&item.SentimentCheckResult, &item.FeatureAssociationComplete, &item.ProcessingError,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan raw feedback item: %w", err)
	}

	return &item, nil
}

func scanRawFeedbackItemRows(rows pgx.Rows) (*models.RawFeedbackItem, error) {
	var item models.RawFeedbackItem

	err := rows.Scan(
		&item.ID, &item.RawFeedbackID, &item.Content, &item.SentimentCheckComplete,
		&item.SentimentCheckResult, &item.FeatureAssociationComplete, &item.ProcessingError,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan raw feedback item: %w", err)
	}

	return &item, nil
}
