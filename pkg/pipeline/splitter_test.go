package pipeline

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/loopwell/feedback-engine/pkg/database"
	"github.com/loopwell/feedback-engine/pkg/llm"
	"github.com/loopwell/feedback-engine/pkg/models"
	"github.com/loopwell/feedback-engine/pkg/repositories"
)

func TestSplitter_TwoConcerns(t *testing.T) {
	fb := claimedRawFeedback("Dark mode would be great. Also search is slow.")

	var created []string
	var splitMarked bool
	rawRepo := &repositories.MockRawFeedbackRepository{
		ClaimNextForSplittingFunc: func(ctx context.Context, q database.Querier) (*models.RawFeedback, error) {
			return fb, nil
		},
		MarkSplittingCompleteFunc: func(ctx context.Context, q database.Querier, id uuid.UUID) error {
			splitMarked = true
			return nil
		},
	}
	itemRepo := &repositories.MockRawFeedbackItemRepository{
		CreateBatchFunc: func(ctx context.Context, q database.Querier, rawFeedbackID uuid.UUID, contents []string) ([]*models.RawFeedbackItem, error) {
			assert.Equal(t, fb.ID, rawFeedbackID)
			created = contents
			return nil, nil
		},
	}
	client := &llm.MockLLMClient{
		GenerateResponseFunc: func(ctx context.Context, systemMessage, prompt string, temperature float64) (string, error) {
			return `{"items": ["Dark mode would be great.", "Search is slow."], "reason": "two independent concerns"}`, nil
		},
	}

	h := NewSplitterHandler(rawRepo, itemRepo, client, zap.NewNop())
	processed, err := h.Handle(context.Background(), &fakeTx{})

	require.NoError(t, err)
	assert.True(t, processed)
	assert.True(t, splitMarked)
	assert.Equal(t, []string{"Dark mode would be great.", "Search is slow."}, created)
}

func TestSplitter_SingleConcernYieldsOneItem(t *testing.T) {
	fb := claimedRawFeedback("Please add keyboard shortcuts")

	var created []string
	rawRepo := &repositories.MockRawFeedbackRepository{
		ClaimNextForSplittingFunc: func(ctx context.Context, q database.Querier) (*models.RawFeedback, error) {
			return fb, nil
		},
	}
	itemRepo := &repositories.MockRawFeedbackItemRepository{
		CreateBatchFunc: func(ctx context.Context, q database.Querier, rawFeedbackID uuid.UUID, contents []string) ([]*models.RawFeedbackItem, error) {
			created = contents
			return nil, nil
		},
	}
	client := &llm.MockLLMClient{
		GenerateResponseFunc: func(ctx context.Context, systemMessage, prompt string, temperature float64) (string, error) {
			// Models often wrap the payload in prose; extraction handles it.
			return "Here is the decomposition:\n{\"items\": [\"Please add keyboard shortcuts\"], \"reason\": \"single concern\"}", nil
		},
	}

	h := NewSplitterHandler(rawRepo, itemRepo, client, zap.NewNop())
	processed, err := h.Handle(context.Background(), &fakeTx{})

	require.NoError(t, err)
	assert.True(t, processed)
	assert.Equal(t, []string{"Please add keyboard shortcuts"}, created)
}

func TestSplitter_EmptyDecompositionRecordsStageError(t *testing.T) {
	fb := claimedRawFeedback("   ")

	var recorded string
	var batchCalled bool
	rawRepo := &repositories.MockRawFeedbackRepository{
		ClaimNextForSplittingFunc: func(ctx context.Context, q database.Querier) (*models.RawFeedback, error) {
			return fb, nil
		},
		SetProcessingErrorFunc: func(ctx context.Context, q database.Querier, id uuid.UUID, message string) error {
			recorded = message
			return nil
		},
	}
	itemRepo := &repositories.MockRawFeedbackItemRepository{
		CreateBatchFunc: func(ctx context.Context, q database.Querier, rawFeedbackID uuid.UUID, contents []string) ([]*models.RawFeedbackItem, error) {
			batchCalled = true
			return nil, nil
		},
	}
	client := &llm.MockLLMClient{
		GenerateResponseFunc: func(ctx context.Context, systemMessage, prompt string, temperature float64) (string, error) {
			return `{"items": ["", "  "], "reason": "nothing substantive"}`, nil
		},
	}

	h := NewSplitterHandler(rawRepo, itemRepo, client, zap.NewNop())
	processed, err := h.Handle(context.Background(), &fakeTx{})

	require.NoError(t, err)
	assert.True(t, processed)
	assert.False(t, batchCalled)
	assert.Contains(t, recorded, "splitting:")
	assert.Contains(t, recorded, "no items")
}

func TestSplitter_NoPendingRows(t *testing.T) {
	h := NewSplitterHandler(
		&repositories.MockRawFeedbackRepository{},
		&repositories.MockRawFeedbackItemRepository{},
		&llm.MockLLMClient{},
		zap.NewNop(),
	)

	processed, err := h.Handle(context.Background(), &fakeTx{})

	require.NoError(t, err)
	assert.False(t, processed)
}
