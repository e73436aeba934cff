package pipeline

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/loopwell/feedback-engine/pkg/audit"
	"github.com/loopwell/feedback-engine/pkg/llm"
	"github.com/loopwell/feedback-engine/pkg/prompts"
	"github.com/loopwell/feedback-engine/pkg/repositories"
)

// SafetyCheckHandler moderates one raw submission per invocation. An
// unsafe verdict is terminal: the row keeps its content but never reaches
// the splitter, so no items are ever created for it.
type SafetyCheckHandler struct {
	rawFeedback repositories.RawFeedbackRepository
	llm         llm.LLMClient
	auditor     *audit.Auditor
	logger      *zap.Logger
}

// NewSafetyCheckHandler creates a new SafetyCheckHandler. Rejections are
// reported to the auditor, the only sink that retains rejected content.
func NewSafetyCheckHandler(rawFeedback repositories.RawFeedbackRepository, llmClient llm.LLMClient, auditor *audit.Auditor, logger *zap.Logger) *SafetyCheckHandler {
	return &SafetyCheckHandler{
		rawFeedback: rawFeedback,
		llm:         llmClient,
		auditor:     auditor,
		logger:      logger.Named("safety-check"),
	}
}

var _ Handler = (*SafetyCheckHandler)(nil)

type safetyVerdict struct {
	Outcome string `json:"outcome"`
	Reason  string `json:"reason"`
}

// Handle implements Handler.
func (h *SafetyCheckHandler) Handle(ctx context.Context, tx pgx.Tx) (bool, error) {
	fb, err := h.rawFeedback.ClaimNextForSafetyCheck(ctx, tx)
	if err != nil {
		return false, err
	}
	if fb == nil {
		return false, nil
	}

	verdict, err := h.classify(ctx, fb.Content)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		h.logger.Error("Safety check failed",
			zap.String("raw_feedback_id", fb.ID.String()),
			zap.Error(err))
		if err := h.rawFeedback.SetProcessingError(ctx, tx, fb.ID, fmt.Sprintf("safety check: %v", err)); err != nil {
			return false, err
		}
		return true, nil
	}

	if verdict.Outcome == "unsafe" {
		reason := fmt.Sprintf("Unsafe content: %s", verdict.Reason)
		h.auditor.LogUnsafeContent(fb.ProjectID, fb.ID, verdict.Reason, fb.Content)
		if err := h.rawFeedback.MarkSafetyCheckComplete(ctx, tx, fb.ID, &reason); err != nil {
			return false, err
		}
		return true, nil
	}

	if err := h.rawFeedback.MarkSafetyCheckComplete(ctx, tx, fb.ID, nil); err != nil {
		return false, err
	}

	h.logger.Info("Safety check passed",
		zap.String("raw_feedback_id", fb.ID.String()))
	return true, nil
}

func (h *SafetyCheckHandler) classify(ctx context.Context, content string) (*safetyVerdict, error) {
	response, err := h.llm.GenerateResponse(ctx, prompts.SafetyCheck, content, 0.1)
	if err != nil {
		return nil, err
	}

	verdict, err := llm.ParseJSONResponse[safetyVerdict](response)
	if err != nil {
		return nil, fmt.Errorf("parse safety verdict: %w", err)
	}

	if verdict.Outcome != "safe" && verdict.Outcome != "unsafe" {
		return nil, fmt.Errorf("invalid safety outcome %q", verdict.Outcome)
	}

	return &verdict, nil
}
