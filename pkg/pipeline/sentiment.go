package pipeline

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/loopwell/feedback-engine/pkg/llm"
	"github.com/loopwell/feedback-engine/pkg/models"
	"github.com/loopwell/feedback-engine/pkg/prompts"
	"github.com/loopwell/feedback-engine/pkg/repositories"
)

// SentimentCheckHandler classifies one feedback item per invocation.
// Sentiment and feature association are independent; they may race for the
// same item and touch disjoint fields.
type SentimentCheckHandler struct {
	items  repositories.RawFeedbackItemRepository
	llm    llm.LLMClient
	logger *zap.Logger
}

// NewSentimentCheckHandler creates a new SentimentCheckHandler.
func NewSentimentCheckHandler(items repositories.RawFeedbackItemRepository, llmClient llm.LLMClient, logger *zap.Logger) *SentimentCheckHandler {
	return &SentimentCheckHandler{
		items:  items,
		llm:    llmClient,
		logger: logger.Named("sentiment-check"),
	}
}

var _ Handler = (*SentimentCheckHandler)(nil)

type sentimentVerdict struct {
	Sentiment string `json:"sentiment"`
}

// Handle implements Handler.
func (h *SentimentCheckHandler) Handle(ctx context.Context, tx pgx.Tx) (bool, error) {
	item, err := h.items.ClaimNextForSentimentCheck(ctx, tx)
	if err != nil {
		return false, err
	}
	if item == nil {
		return false, nil
	}

	sentiment, err := h.classify(ctx, item.Content)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		h.logger.Error("Sentiment check failed",
			zap.String("item_id", item.ID.String()),
			zap.Error(err))
		if err := h.items.SetProcessingError(ctx, tx, item.ID, fmt.Sprintf("sentiment check: %v", err)); err != nil {
			return false, err
		}
		return true, nil
	}

	if err := h.items.MarkSentimentChecked(ctx, tx, item.ID, sentiment); err != nil {
		return false, err
	}

	h.logger.Info("Sentiment classified",
		zap.String("item_id", item.ID.String()),
		zap.String("sentiment", string(sentiment)))
	return true, nil
}

func (h *SentimentCheckHandler) classify(ctx context.Context, content string) (models.Sentiment, error) {
	response, err := h.llm.GenerateResponse(ctx, prompts.Sentiment, content, 0.1)
	if err != nil {
		return "", err
	}

	verdict, err := llm.ParseJSONResponse[sentimentVerdict](response)
	if err != nil {
		return "", fmt.Errorf("parse sentiment verdict: %w", err)
	}

	sentiment, err := models.ParseSentiment(verdict.Sentiment)
	if err != nil {
		return "", err
	}

	return sentiment, nil
}
