package llm

import (
	"context"
)

// MockLLMClient is a configurable mock for testing pipeline functionality.
// Set the function fields to control behavior in tests.
type MockLLMClient struct {
	// GenerateResponseFunc is called when GenerateResponse is invoked.
	// If nil, returns empty string and nil error.
	GenerateResponseFunc func(ctx context.Context, systemMessage string, prompt string, temperature float64) (string, error)

	// CreateEmbeddingFunc is called when CreateEmbedding is invoked.
	// If nil, returns nil slice and nil error.
	CreateEmbeddingFunc func(ctx context.Context, input string) ([]float32, error)

	// RunAgentFunc is called when RunAgent is invoked.
	// If nil, returns an empty result and nil error.
	RunAgentFunc func(ctx context.Context, req *AgentRequest, executor ToolExecutor) (*AgentResult, error)

	// Model is returned by GetModel. Defaults to "mock-model".
	Model string

	// Call tracking for verification
	GenerateResponseCalls int
	CreateEmbeddingCalls  int
	RunAgentCalls         int
}

// NewMockLLMClient creates a new mock with sensible defaults.
func NewMockLLMClient() *MockLLMClient {
	return &MockLLMClient{Model: "mock-model"}
}

var _ LLMClient = (*MockLLMClient)(nil)

// GenerateResponse implements LLMClient.
func (m *MockLLMClient) GenerateResponse(ctx context.Context, systemMessage string, prompt string, temperature float64) (string, error) {
	m.GenerateResponseCalls++
	if m.GenerateResponseFunc != nil {
		return m.GenerateResponseFunc(ctx, systemMessage, prompt, temperature)
	}
	return "", nil
}

// CreateEmbedding implements LLMClient.
func (m *MockLLMClient) CreateEmbedding(ctx context.Context, input string) ([]float32, error) {
	m.CreateEmbeddingCalls++
	if m.CreateEmbeddingFunc != nil {
		return m.CreateEmbeddingFunc(ctx, input)
	}
	return nil, nil
}

// RunAgent implements LLMClient.
func (m *MockLLMClient) RunAgent(ctx context.Context, req *AgentRequest, executor ToolExecutor) (*AgentResult, error) {
	m.RunAgentCalls++
	if m.RunAgentFunc != nil {
		return m.RunAgentFunc(ctx, req, executor)
	}
	return &AgentResult{FinishReason: "stop"}, nil
}

// GetModel implements LLMClient.
func (m *MockLLMClient) GetModel() string {
	if m.Model == "" {
		return "mock-model"
	}
	return m.Model
}
