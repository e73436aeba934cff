package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/loopwell/feedback-engine/pkg/database"
	"github.com/loopwell/feedback-engine/pkg/models"
)

// MockRawFeedbackRepository is a function-field mock for tests.
// Unset fields return zero values.
type MockRawFeedbackRepository struct {
	CreateFunc                   func(ctx context.Context, q database.Querier, fb *models.RawFeedback) error
	GetByIDFunc                  func(ctx context.Context, q database.Querier, id uuid.UUID) (*models.RawFeedback, error)
	ClaimNextForSafetyCheckFunc  func(ctx context.Context, q database.Querier) (*models.RawFeedback, error)
	ClaimNextForSplittingFunc    func(ctx context.Context, q database.Querier) (*models.RawFeedback, error)
	MarkSafetyCheckCompleteFunc  func(ctx context.Context, q database.Querier, id uuid.UUID, processingError *string) error
	MarkSplittingCompleteFunc    func(ctx context.Context, q database.Querier, id uuid.UUID) error
	MarkProcessingCompleteFunc   func(ctx context.Context, q database.Querier, id uuid.UUID) error
	SetProcessingErrorFunc       func(ctx context.Context, q database.Querier, id uuid.UUID, message string) error
}

var _ RawFeedbackRepository = (*MockRawFeedbackRepository)(nil)

func (m *MockRawFeedbackRepository) Create(ctx context.Context, q database.Querier, fb *models.RawFeedback) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, q, fb)
	}
	return nil
}

func (m *MockRawFeedbackRepository) GetByID(ctx context.Context, q database.Querier, id uuid.UUID) (*models.RawFeedback, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, q, id)
	}
	return nil, nil
}

func (m *MockRawFeedbackRepository) ClaimNextForSafetyCheck(ctx context.Context, q database.Querier) (*models.RawFeedback, error) {
	if m.ClaimNextForSafetyCheckFunc != nil {
		return m.ClaimNextForSafetyCheckFunc(ctx, q)
	}
	return nil, nil
}

func (m *MockRawFeedbackRepository) ClaimNextForSplitting(ctx context.Context, q database.Querier) (*models.RawFeedback, error) {
	if m.ClaimNextForSplittingFunc != nil {
		return m.ClaimNextForSplittingFunc(ctx, q)
	}
	return nil, nil
}

func (m *MockRawFeedbackRepository) MarkSafetyCheckComplete(ctx context.Context, q database.Querier, id uuid.UUID, processingError *string) error {
	if m.MarkSafetyCheckCompleteFunc != nil {
		return m.MarkSafetyCheckCompleteFunc(ctx, q, id, processingError)
	}
	return nil
}

func (m *MockRawFeedbackRepository) MarkSplittingComplete(ctx context.Context, q database.Querier, id uuid.UUID) error {
	if m.MarkSplittingCompleteFunc != nil {
		return m.MarkSplittingCompleteFunc(ctx, q, id)
	}
	return nil
}

func (m *MockRawFeedbackRepository) MarkProcessingComplete(ctx context.Context, q database.Querier, id uuid.UUID) error {
	if m.MarkProcessingCompleteFunc != nil {
		return m.MarkProcessingCompleteFunc(ctx, q, id)
	}
	return nil
}

func (m *MockRawFeedbackRepository) SetProcessingError(ctx context.Context, q database.Querier, id uuid.UUID, message string) error {
	if m.SetProcessingErrorFunc != nil {
		return m.SetProcessingErrorFunc(ctx, q, id, message)
	}
	return nil
}

// MockRawFeedbackItemRepository is a function-field mock for tests.
type MockRawFeedbackItemRepository struct {
	CreateBatchFunc                func(ctx context.Context, q database.Querier, rawFeedbackID uuid.UUID, contents []string) ([]*models.RawFeedbackItem, error)
	ClaimNextForSentimentCheckFunc func(ctx context.Context, q database.Querier) (*models.RawFeedbackItem, error)
	ClaimNextForAssociationFunc    func(ctx context.Context, q database.Querier) (*models.RawFeedbackItem, error)
	MarkSentimentCheckedFunc       func(ctx context.Context, q database.Querier, id uuid.UUID, sentiment models.Sentiment) error
	MarkAssociationCompleteFunc    func(ctx context.Context, q database.Querier, id uuid.UUID) error
	SetProcessingErrorFunc         func(ctx context.Context, q database.Querier, id uuid.UUID, message string) error
	AllItemsAssociatedFunc         func(ctx context.Context, q database.Querier, rawFeedbackID uuid.UUID) (bool, error)
	ListByRawFeedbackFunc          func(ctx context.Context, q database.Querier, rawFeedbackID uuid.UUID) ([]*models.RawFeedbackItem, error)
}

var _ RawFeedbackItemRepository = (*MockRawFeedbackItemRepository)(nil)

func (m *MockRawFeedbackItemRepository) CreateBatch(ctx context.Context, q database.Querier, rawFeedbackID uuid.UUID, contents []string) ([]*models.RawFeedbackItem, error) {
	if m.CreateBatchFunc != nil {
		return m.CreateBatchFunc(ctx, q, rawFeedbackID, contents)
	}
	return nil, nil
}

func (m *MockRawFeedbackItemRepository) ClaimNextForSentimentCheck(ctx context.Context, q database.Querier) (*models.RawFeedbackItem, error) {
	if m.ClaimNextForSentimentCheckFunc != nil {
		return m.ClaimNextForSentimentCheckFunc(ctx, q)
	}
	return nil, nil
}

func (m *MockRawFeedbackItemRepository) ClaimNextForAssociation(ctx context.Context, q database.Querier) (*models.RawFeedbackItem, error) {
	if m.ClaimNextForAssociationFunc != nil {
		return m.ClaimNextForAssociationFunc(ctx, q)
	}
	return nil, nil
}

func (m *MockRawFeedbackItemRepository) MarkSentimentChecked(ctx context.Context, q database.Querier, id uuid.UUID, sentiment models.Sentiment) error {
	if m.MarkSentimentCheckedFunc != nil {
		return m.MarkSentimentCheckedFunc(ctx, q, id, sentiment)
	}
	return nil
}

func (m *MockRawFeedbackItemRepository) MarkAssociationComplete(ctx context.Context, q database.Querier, id uuid.UUID) error {
	if m.MarkAssociationCompleteFunc != nil {
		return m.MarkAssociationCompleteFunc(ctx, q, id)
	}
	return nil
}

func (m *MockRawFeedbackItemRepository) SetProcessingError(ctx context.Context, q database.Querier, id uuid.UUID, message string) error {
	if m.SetProcessingErrorFunc != nil {
		return m.SetProcessingErrorFunc(ctx, q, id, message)
	}
	return nil
}

func (m *MockRawFeedbackItemRepository) AllItemsAssociated(ctx context.Context, q database.Querier, rawFeedbackID uuid.UUID) (bool, error) {
	if m.AllItemsAssociatedFunc != nil {
		return m.AllItemsAssociatedFunc(ctx, q, rawFeedbackID)
	}
	return false, nil
}

func (m *MockRawFeedbackItemRepository) ListByRawFeedback(ctx context.Context, q database.Querier, rawFeedbackID uuid.UUID) ([]*models.RawFeedbackItem, error) {
	if m.ListByRawFeedbackFunc != nil {
		return m.ListByRawFeedbackFunc(ctx, q, rawFeedbackID)
	}
	return nil, nil
}

// MockFeatureRepository is a function-field mock for tests.
type MockFeatureRepository struct {
	CreateFunc            func(ctx context.Context, q database.Querier, feature *models.Feature) error
	GetByIDFunc           func(ctx context.Context, q database.Querier, projectID, id uuid.UUID) (*models.Feature, error)
	GetByNameFunc         func(ctx context.Context, q database.Querier, projectID uuid.UUID, name string) (*models.Feature, error)
	SearchByEmbeddingFunc func(ctx context.Context, q database.Querier, projectID uuid.UUID, embedding pgvector.Vector, limit int) ([]*models.FeatureCandidate, error)
}

var _ FeatureRepository = (*MockFeatureRepository)(nil)

func (m *MockFeatureRepository) Create(ctx context.Context, q database.Querier, feature *models.Feature) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, q, feature)
	}
	return nil
}

func (m *MockFeatureRepository) GetByID(ctx context.Context, q database.Querier, projectID, id uuid.UUID) (*models.Feature, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, q, projectID, id)
	}
	return nil, nil
}

func (m *MockFeatureRepository) GetByName(ctx context.Context, q database.Querier, projectID uuid.UUID, name string) (*models.Feature, error) {
	if m.GetByNameFunc != nil {
		return m.GetByNameFunc(ctx, q, projectID, name)
	}
	return nil, nil
}

func (m *MockFeatureRepository) SearchByEmbedding(ctx context.Context, q database.Querier, projectID uuid.UUID, embedding pgvector.Vector, limit int) ([]*models.FeatureCandidate, error) {
	if m.SearchByEmbeddingFunc != nil {
		return m.SearchByEmbeddingFunc(ctx, q, projectID, embedding, limit)
	}
	return nil, nil
}

// MockFeedbackRepository is a function-field mock for tests.
type MockFeedbackRepository struct {
	CreateFunc        func(ctx context.Context, q database.Querier, feedback *models.Feedback) error
	GetByItemIDFunc   func(ctx context.Context, q database.Querier, rawFeedbackItemID uuid.UUID) (*models.Feedback, error)
	ListByFeatureFunc func(ctx context.Context, q database.Querier, featureID uuid.UUID) ([]*models.Feedback, error)
}

var _ FeedbackRepository = (*MockFeedbackRepository)(nil)

func (m *MockFeedbackRepository) Create(ctx context.Context, q database.Querier, feedback *models.Feedback) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, q, feedback)
	}
	return nil
}

func (m *MockFeedbackRepository) GetByItemID(ctx context.Context, q database.Querier, rawFeedbackItemID uuid.UUID) (*models.Feedback, error) {
	if m.GetByItemIDFunc != nil {
		return m.GetByItemIDFunc(ctx, q, rawFeedbackItemID)
	}
	return nil, nil
}

func (m *MockFeedbackRepository) ListByFeature(ctx context.Context, q database.Querier, featureID uuid.UUID) ([]*models.Feedback, error) {
	if m.ListByFeatureFunc != nil {
		return m.ListByFeatureFunc(ctx, q, featureID)
	}
	return nil, nil
}
