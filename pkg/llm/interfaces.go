// Package llm provides the OpenAI-compatible completion and embedding
// clients used by the feedback pipeline.
package llm

import (
	"context"
)

// LLMClient combines the three capabilities the pipeline needs: structured
// chat completion, embeddings, and the bounded tool-calling agent loop.
// Use this interface for dependency injection to enable mocking in tests.
type LLMClient interface {
	// GenerateResponse generates a chat completion response.
	GenerateResponse(ctx context.Context, systemMessage string, prompt string, temperature float64) (string, error)

	// CreateEmbedding generates an embedding vector for the input text.
	CreateEmbedding(ctx context.Context, input string) ([]float32, error)

	// RunAgent runs a bounded tool-calling loop until the model stops
	// requesting tools, the step limit is reached, or ctx is cancelled.
	RunAgent(ctx context.Context, req *AgentRequest, executor ToolExecutor) (*AgentResult, error)

	// GetModel returns the configured chat model name.
	GetModel() string
}

// Ensure Client implements LLMClient at compile time.
var _ LLMClient = (*Client)(nil)
