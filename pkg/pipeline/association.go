package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"github.com/loopwell/feedback-engine/pkg/apperrors"
	"github.com/loopwell/feedback-engine/pkg/database"
	"github.com/loopwell/feedback-engine/pkg/jsonutil"
	"github.com/loopwell/feedback-engine/pkg/llm"
	"github.com/loopwell/feedback-engine/pkg/models"
	"github.com/loopwell/feedback-engine/pkg/prompts"
	"github.com/loopwell/feedback-engine/pkg/repositories"
)

// FeatureAssociationHandler links one feedback item to a feature via a
// bounded tool-calling agent, records the resulting feedback, and performs
// the fan-in completion check on the parent submission.
type FeatureAssociationHandler struct {
	items       repositories.RawFeedbackItemRepository
	rawFeedback repositories.RawFeedbackRepository
	features    repositories.FeatureRepository
	feedback    repositories.FeedbackRepository
	llm         llm.LLMClient
	agentUserID uuid.UUID
	maxSteps    int
	searchTopK  int
	logger      *zap.Logger
}

// NewFeatureAssociationHandler creates a new FeatureAssociationHandler.
// agentUserID is attributed as the creator of features and feedback the
// agent produces.
func NewFeatureAssociationHandler(
	items repositories.RawFeedbackItemRepository,
	rawFeedback repositories.RawFeedbackRepository,
	features repositories.FeatureRepository,
	feedback repositories.FeedbackRepository,
	llmClient llm.LLMClient,
	agentUserID uuid.UUID,
	maxSteps int,
	searchTopK int,
	logger *zap.Logger,
) *FeatureAssociationHandler {
	if maxSteps <= 0 {
		maxSteps = llm.DefaultAgentMaxSteps
	}
	if searchTopK <= 0 {
		searchTopK = 5
	}
	return &FeatureAssociationHandler{
		items:       items,
		rawFeedback: rawFeedback,
		features:    features,
		feedback:    feedback,
		llm:         llmClient,
		agentUserID: agentUserID,
		maxSteps:    maxSteps,
		searchTopK:  searchTopK,
		logger:      logger.Named("feature-association"),
	}
}

var _ Handler = (*FeatureAssociationHandler)(nil)

// Handle implements Handler.
func (h *FeatureAssociationHandler) Handle(ctx context.Context, tx pgx.Tx) (bool, error) {
	item, err := h.items.ClaimNextForAssociation(ctx, tx)
	if err != nil {
		return false, err
	}
	if item == nil {
		return false, nil
	}

	featureID, err := h.runAgent(ctx, tx, item)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		h.logger.Error("Feature association failed",
			zap.String("item_id", item.ID.String()),
			zap.Error(err))
		if err := h.items.SetProcessingError(ctx, tx, item.ID, fmt.Sprintf("feature association: %v", err)); err != nil {
			return false, err
		}
		return true, nil
	}

	if err := h.items.MarkAssociationComplete(ctx, tx, item.ID); err != nil {
		return false, err
	}

	fb := &models.Feedback{
		ProjectID:         item.ProjectID,
		FeatureID:         featureID,
		Content:           item.Content,
		CreatedBy:         h.agentUserID,
		RawFeedbackItemID: item.ID,
	}
	if item.SentimentCheckResult != nil {
		fb.Sentiment = *item.SentimentCheckResult
	}
	if err := h.feedback.Create(ctx, tx, fb); err != nil {
		return false, err
	}

	done, err := h.items.AllItemsAssociated(ctx, tx, item.RawFeedbackID)
	if err != nil {
		return false, err
	}
	if done {
		if err := h.rawFeedback.MarkProcessingComplete(ctx, tx, item.RawFeedbackID); err != nil {
			return false, err
		}
	}

	h.logger.Info("Feedback associated",
		zap.String("item_id", item.ID.String()),
		zap.String("feature_id", featureID.String()),
		zap.Bool("raw_feedback_complete", done))
	return true, nil
}

// runAgent drives the tool-calling loop for a single item. The run is
// cancelled as soon as the executor reports a determination, so the model
// never gets a turn after the decision. The executor must not touch the
// transaction after cancellation.
func (h *FeatureAssociationHandler) runAgent(ctx context.Context, tx pgx.Tx, item *models.RawFeedbackItem) (uuid.UUID, error) {
	agentCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	executor := newAssociationExecutor(h, tx, item.ProjectID)

	req := &llm.AgentRequest{
		SystemPrompt: prompts.FeatureAssociation,
		UserPrompt:   prompts.FeatureAssociationInput(item.Content),
		Tools:        llm.GetFeatureAssociationTools(),
		Temperature:  0.2,
		MaxSteps:     h.maxSteps,
	}

	done := make(chan error, 1)
	go func() {
		_, err := h.llm.RunAgent(agentCtx, req, executor)
		done <- err
	}()

	select {
	case featureID := <-executor.determined:
		// Stop the loop, then wait for it to unwind: the shared
		// transaction must never see two goroutines.
		cancel()
		<-done
		return featureID, nil
	case err := <-done:
		// The loop may have ended in the same instant the determination
		// landed; the decision wins.
		select {
		case featureID := <-executor.determined:
			return featureID, nil
		default:
		}
		if err != nil {
			return uuid.Nil, err
		}
		return uuid.Nil, apperrors.ErrAssociationNotDetermined
	}
}

// associationExecutor implements llm.ToolExecutor over the claiming
// transaction. All tool calls run on the agent goroutine, one at a time.
type associationExecutor struct {
	handler   *FeatureAssociationHandler
	tx        database.Querier
	projectID uuid.UUID

	mu         sync.Mutex
	done       bool
	determined chan uuid.UUID
}

func newAssociationExecutor(h *FeatureAssociationHandler, tx database.Querier, projectID uuid.UUID) *associationExecutor {
	return &associationExecutor{
		handler:    h,
		tx:         tx,
		projectID:  projectID,
		determined: make(chan uuid.UUID, 1),
	}
}

var _ llm.ToolExecutor = (*associationExecutor)(nil)

// ExecuteTool implements llm.ToolExecutor.
func (e *associationExecutor) ExecuteTool(ctx context.Context, name string, arguments string) (string, error) {
	e.mu.Lock()
	if e.done {
		e.mu.Unlock()
		// The transaction context is being torn down; answer without
		// touching the database.
		return `{"error": "association already determined"}`, nil
	}
	e.mu.Unlock()

	switch name {
	case llm.ToolFeatureSearch:
		return e.featureSearch(ctx, arguments)
	case llm.ToolCreateFeature:
		return e.createFeature(ctx, arguments)
	case llm.ToolFeatureDetermined:
		return e.featureDetermined(ctx, arguments)
	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}

type featureSearchArgs struct {
	Query json.RawMessage `json:"query"`
}

func (e *associationExecutor) featureSearch(ctx context.Context, arguments string) (string, error) {
	var args featureSearchArgs
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return "", fmt.Errorf("invalid feature_search arguments: %w", err)
	}
	query := jsonutil.FlexibleString(args.Query)
	if query == "" {
		return "", errors.New("feature_search requires a query")
	}

	embedding, err := e.handler.llm.CreateEmbedding(ctx, query)
	if err != nil {
		return "", fmt.Errorf("embed query: %w", err)
	}

	candidates, err := e.handler.features.SearchByEmbedding(ctx, e.tx, e.projectID, pgvector.NewVector(embedding), e.handler.searchTopK)
	if err != nil {
		return "", fmt.Errorf("search features: %w", err)
	}

	result, err := json.Marshal(map[string]any{"features": candidates})
	if err != nil {
		return "", err
	}
	return string(result), nil
}

type createFeatureArgs struct {
	Title       json.RawMessage `json:"title"`
	Description json.RawMessage `json:"description"`
}

func (e *associationExecutor) createFeature(ctx context.Context, arguments string) (string, error) {
	var args createFeatureArgs
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return "", fmt.Errorf("invalid create_feature arguments: %w", err)
	}
	title := jsonutil.FlexibleString(args.Title)
	if title == "" {
		return "", errors.New("create_feature requires a title")
	}

	// Names are unique per project (case-insensitive); reuse an existing
	// feature instead of failing the agent.
	existing, err := e.handler.features.GetByName(ctx, e.tx, e.projectID, title)
	if err != nil {
		return "", fmt.Errorf("look up feature: %w", err)
	}
	if existing != nil {
		return e.marshalFeature(existing, true)
	}

	embedding, err := e.handler.llm.CreateEmbedding(ctx, title)
	if err != nil {
		return "", fmt.Errorf("embed feature name: %w", err)
	}

	feature := &models.Feature{
		ProjectID:     e.projectID,
		Name:          title,
		Description:   jsonutil.FlexibleString(args.Description),
		NameEmbedding: pgvector.NewVector(embedding),
		CreatedBy:     e.handler.agentUserID,
	}
	err = e.handler.features.Create(ctx, e.tx, feature)
	if errors.Is(err, apperrors.ErrConflict) {
		existing, err := e.handler.features.GetByName(ctx, e.tx, e.projectID, title)
		if err != nil {
			return "", fmt.Errorf("look up feature after conflict: %w", err)
		}
		if existing == nil {
			return "", fmt.Errorf("feature %q conflicted but was not found", title)
		}
		return e.marshalFeature(existing, true)
	}
	if err != nil {
		return "", fmt.Errorf("create feature: %w", err)
	}

	return e.marshalFeature(feature, false)
}

func (e *associationExecutor) marshalFeature(feature *models.Feature, existed bool) (string, error) {
	result, err := json.Marshal(map[string]any{
		"id":              feature.ID,
		"name":            feature.Name,
		"description":     feature.Description,
		"already_existed": existed,
	})
	if err != nil {
		return "", err
	}
	return string(result), nil
}

type featureDeterminedArgs struct {
	FeatureID json.RawMessage `json:"feature_id"`
}

func (e *associationExecutor) featureDetermined(ctx context.Context, arguments string) (string, error) {
	var args featureDeterminedArgs
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return "", fmt.Errorf("invalid feature_determined arguments: %w", err)
	}

	featureID, err := uuid.Parse(jsonutil.FlexibleString(args.FeatureID))
	if err != nil {
		return "", fmt.Errorf("feature_determined requires a valid feature id: %w", err)
	}

	feature, err := e.handler.features.GetByID(ctx, e.tx, e.projectID, featureID)
	if err != nil {
		return "", fmt.Errorf("look up feature: %w", err)
	}
	if feature == nil {
		return "", fmt.Errorf("feature %s does not exist in this project", featureID)
	}

	e.mu.Lock()
	e.done = true
	e.mu.Unlock()
	e.determined <- featureID

	return `{"acknowledged": true}`, nil
}
