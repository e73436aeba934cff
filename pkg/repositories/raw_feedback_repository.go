// Package repositories provides pgx-backed data access for the feedback
// pipeline. Methods take a database.Querier so they run inside the stage
// transaction that claimed the row.
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

// RawFeedbackRepository provides data access for raw feedback submissions.
type RawFeedbackRepository interface {
	Create(ctx context.Context, q database.Querier, fb *models.RawFeedback) error
	GetByID(ctx context.Context, q database.Querier, id uuid.UUID) (*models.RawFeedback, error)

	// ClaimNextForSafetyCheck locks the oldest row with no safety verdict.
	// Returns nil when no eligible row exists. Must run inside a transaction.
	ClaimNextForSafetyCheck(ctx context.Context, q database.Querier) (*models.RawFeedback, error)

	// ClaimNextForSplitting locks the oldest unsplit row. Returns nil when
	// no eligible row exists. Must run inside a transaction.
	ClaimNextForSplitting(ctx context.Context, q database.Querier) (*models.RawFeedback, error)

	// MarkSafetyCheckComplete stamps the safety verdict. A non-nil
	// processingError records an unsafe verdict; nil clears any stale error.
	MarkSafetyCheckComplete(ctx context.Context, q database.Querier, id uuid.UUID, processingError *string) error

	// MarkSplittingComplete stamps splitting and clears any stale error.
	MarkSplittingComplete(ctx context.Context, q database.Querier, id uuid.UUID) error

	// MarkProcessingComplete stamps the fan-in completion of the whole row.
	MarkProcessingComplete(ctx context.Context, q database.Querier, id uuid.UUID) error

	// SetProcessingError records a terminal stage failure on the row.
	SetProcessingError(ctx context.Context, q database.Querier, id uuid.UUID, message string) error
}

type rawFeedbackRepository struct{}

// NewRawFeedbackRepository creates a new RawFeedbackRepository.
func NewRawFeedbackRepository() RawFeedbackRepository {
	return &rawFeedbackRepository{}
}

var _ RawFeedbackRepository = (*rawFeedbackRepository)(nil)

const rawFeedbackColumns = `id, project_id, email, content, safety_check_complete,
	splitting_complete, processing_complete, processing_error, created_at, updated_at`

func (r *rawFeedbackRepository) Create(ctx context.Context, q database.Querier, fb *models.RawFeedback) error {
	if fb.ID == uuid.Nil {
		fb.ID = uuid.New()
	}

	query := `
		INSERT INTO raw_feedback (id, project_id, email, content)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`

	err := q.QueryRow(ctx, query, fb.ID, fb.ProjectID, fb.Email, fb.Content).
		Scan(&fb.CreatedAt, &fb.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create raw feedback: %w", err)
	}

	return nil
}

func (r *rawFeedbackRepository) GetByID(ctx context.Context, q database.Querier, id uuid.UUID) (*models.RawFeedback, error) {
	query := `SELECT ` + rawFeedbackColumns + ` FROM raw_feedback WHERE id = $1`

	fb, err := scanRawFeedback(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return fb, nil
}

func (r *rawFeedbackRepository) ClaimNextForSafetyCheck(ctx context.Context, q database.Querier) (*models.RawFeedback, error) {
	query := `
		SELECT ` + rawFeedbackColumns + `
		FROM raw_feedback
		WHERE safety_check_complete IS NULL AND processing_error IS NULL
		ORDER BY created_at, id
		LIMIT 1
		FOR UPDATE SKIP LOCKED`

	return claimRawFeedback(ctx, q, query)
}

func (r *rawFeedbackRepository) ClaimNextForSplitting(ctx context.Context, q database.Querier) (*models.RawFeedback, error) {
	query := `
		SELECT ` + rawFeedbackColumns + `
		FROM raw_feedback
		WHERE splitting_complete IS NULL AND processing_error IS NULL
		ORDER BY created_at, id
		LIMIT 1
		FOR UPDATE SKIP LOCKED`

	return claimRawFeedback(ctx, q, query)
}

func claimRawFeedback(ctx context.Context, q database.Querier, query string) (*models.RawFeedback, error) {
	fb, err := scanRawFeedback(q.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // No eligible row
		}
		return nil, err
	}
	return fb, nil
}

func (r *rawFeedbackRepository) MarkSafetyCheckComplete(ctx context.Context, q database.Querier, id uuid.UUID, processingError *string) error {
	query := `
		UPDATE raw_feedback
		SET safety_check_complete = now(), processing_error = $2, updated_at = now()
		WHERE id = $1`

	return execOne(ctx, q, "raw feedback", query, id, processingError)
}

func (r *rawFeedbackRepository) MarkSplittingComplete(ctx context.Context, q database.Querier, id uuid.UUID) error {
	query := `
		UPDATE raw_feedback
		SET splitting_complete = now(), processing_error = NULL, updated_at = now()
		WHERE id = $1`

	return execOne(ctx, q, "raw feedback", query, id)
}

func (r *rawFeedbackRepository) MarkProcessingComplete(ctx context.Context, q database.Querier, id uuid.UUID) error {
	query := `
		UPDATE raw_feedback
		SET processing_complete = now(), updated_at = now()
		WHERE id = $1`

	return execOne(ctx, q, "raw feedback", query, id)
}

func (r *rawFeedbackRepository) SetProcessingError(ctx context.Context, q database.Querier, id uuid.UUID, message string) error {
	query := `
		UPDATE raw_feedback
		SET processing_error = $2, updated_at = now()
		WHERE id = $1`

	return execOne(ctx, q, "raw feedback", query, id, message)
}

func scanRawFeedback(row pgx.Row) (*models.RawFeedback, error) {
	var fb models.RawFeedback

	err := row.Scan(
		&fb.ID, &fb.ProjectID, &fb.Email, &fb.Content, &fb.SafetyCheckComplete,
		&fb.SplittingComplete, &fb.ProcessingComplete, &fb.ProcessingError,
		&fb.CreatedAt, &fb.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan raw feedback: %w", err)
	}

	return &fb, nil
}

// execOne runs an update that must affect exactly one row.
func execOne(ctx context.Context, q database.Querier, entity, query string, args ...any) error {
	result, err := q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", entity, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%s not found", entity)
	}
	return nil
}
