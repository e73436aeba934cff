package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/loopwell/feedback-engine/pkg/apperrors"
)

// ToolExecutor defines the interface for executing tools during an agent run.
type ToolExecutor interface {
	ExecuteTool(ctx context.Context, name string, arguments string) (string, error)
}

// AgentRequest describes one bounded tool-calling run.
type AgentRequest struct {
	SystemPrompt string
	UserPrompt   string
	Tools        []ToolDefinition
	Temperature  float64
	// MaxSteps caps the number of completion round-trips. Zero means the
	// default of 20.
	MaxSteps int
}

// AgentResult is the outcome of an agent run that ended without error.
type AgentResult struct {
	// FinishReason is "stop" when the model produced a final message
	// without requesting tools.
	FinishReason string
	Content      string
	Steps        int
}

// DefaultAgentMaxSteps caps tool-calling runs that do not specify a limit.
const DefaultAgentMaxSteps = 20

// RunAgent performs a non-streaming chat completion loop with tool support.
// Each iteration sends the conversation so far; tool calls requested by the
// model are executed via the executor and their results appended. The loop
// ends when the model replies without tool calls, when MaxSteps is
// exhausted (apperrors.ErrAgentStepLimit), or when ctx is cancelled.
//
// Tool execution errors are fed back to the model as tool results rather
// than aborting the run; the model can recover or try another tool.
func (c *Client) RunAgent(ctx context.Context, req *AgentRequest, executor ToolExecutor) (*AgentResult, error) {
	maxSteps := req.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultAgentMaxSteps
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: req.UserPrompt},
	}
	tools := buildOpenAITools(req.Tools)

	temperature := float32(req.Temperature)
	if temperature == 0 {
		temperature = 0.3 // Lower temp for deterministic tool use
	}

	start := time.Now()

	for step := 1; step <= maxSteps; step++ {
		c.logger.Debug("Agent step",
			zap.Int("step", step),
			zap.Int("message_count", len(messages)))

		resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       c.model,
			Messages:    messages,
			Tools:       tools,
			Temperature: temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("agent completion (step %d): %w", step, err)
		}

		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("no choices in response (step %d)", step)
		}

		choice := resp.Choices[0]

		if len(choice.Message.ToolCalls) == 0 {
			c.logger.Info("Agent run finished",
				zap.Int("steps", step),
				zap.Duration("elapsed", time.Since(start)))
			return &AgentResult{
				FinishReason: string(choice.FinishReason),
				Content:      choice.Message.Content,
				Steps:        step,
			}, nil
		}

		messages = append(messages, choice.Message)

		for _, tc := range choice.Message.ToolCalls {
			result, execErr := executor.ExecuteTool(ctx, tc.Function.Name, tc.Function.Arguments)
			if execErr != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				result = fmt.Sprintf("Error executing tool: %s", execErr.Error())
			}

			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    result,
				ToolCallID: tc.ID,
			})
		}
	}

	return nil, fmt.Errorf("%w (%d steps)", apperrors.ErrAgentStepLimit, maxSteps)
}

// buildOpenAITools converts tool definitions to the OpenAI wire format.
func buildOpenAITools(tools []ToolDefinition) []openai.Tool {
	if len(tools) == 0 {
		return nil
	}

	result := make([]openai.Tool, len(tools))
	for i, def := range tools {
		result[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  def.Parameters,
			},
		}
	}

	return result
}
