package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/loopwell/feedback-engine/pkg/llm"
	"github.com/loopwell/feedback-engine/pkg/prompts"
	"github.com/loopwell/feedback-engine/pkg/repositories"
)

// SplitterHandler decomposes one raw submission into atomic feedback
// items. The claim predicate does not check the safety verdict; ordering
// relative to SafetyCheck comes from stage order within a scheduler pass,
// and an unsafe row is excluded by its processing_error.
type SplitterHandler struct {
	rawFeedback repositories.RawFeedbackRepository
	items       repositories.RawFeedbackItemRepository
	llm         llm.LLMClient
	logger      *zap.Logger
}

// NewSplitterHandler creates a new SplitterHandler.
func NewSplitterHandler(
	rawFeedback repositories.RawFeedbackRepository,
	items repositories.RawFeedbackItemRepository,
	llmClient llm.LLMClient,
	logger *zap.Logger,
) *SplitterHandler {
	return &SplitterHandler{
		rawFeedback: rawFeedback,
		items:       items,
		llm:         llmClient,
		logger:      logger.Named("splitter"),
	}
}

var _ Handler = (*SplitterHandler)(nil)

type decomposition struct {
	Items  []string `json:"items"`
	Reason string   `json:"reason"`
}

// Handle implements Handler.
func (h *SplitterHandler) Handle(ctx context.Context, tx pgx.Tx) (bool, error) {
	fb, err := h.rawFeedback.ClaimNextForSplitting(ctx, tx)
	if err != nil {
		return false, err
	}
	if fb == nil {
		return false, nil
	}

	result, err := h.split(ctx, fb.Content)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		h.logger.Error("Splitting failed",
			zap.String("raw_feedback_id", fb.ID.String()),
			zap.Error(err))
		if err := h.rawFeedback.SetProcessingError(ctx, tx, fb.ID, fmt.Sprintf("splitting: %v", err)); err != nil {
			return false, err
		}
		return true, nil
	}

	if _, err := h.items.CreateBatch(ctx, tx, fb.ID, result.Items); err != nil {
		return false, err
	}
	if err := h.rawFeedback.MarkSplittingComplete(ctx, tx, fb.ID); err != nil {
		return false, err
	}

	h.logger.Info("Split feedback into items",
		zap.String("raw_feedback_id", fb.ID.String()),
		zap.Int("items", len(result.Items)),
		zap.String("reason", result.Reason))
	return true, nil
}

func (h *SplitterHandler) split(ctx context.Context, content string) (*decomposition, error) {
	response, err := h.llm.GenerateResponse(ctx, prompts.Splitting, content, 0.2)
	if err != nil {
		return nil, err
	}

	result, err := llm.ParseJSONResponse[decomposition](response)
	if err != nil {
		return nil, fmt.Errorf("parse decomposition: %w", err)
	}

	// The rubric requires one-or-more units; an empty list means the model
	// failed the task.
	items := make([]string, 0, len(result.Items))
	for _, item := range result.Items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("decomposition returned no items")
	}
	result.Items = items

	return &result, nil
}
