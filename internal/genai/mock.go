package genai

import (
	"context"
	"sync"

	"github.com/openai/openai-go"
)

// MockClient implements ClientInterface for tests. It records the message
// histories it receives and returns canned responses in order, falling back
// to the last one when the list runs out.
type MockClient struct {
	mu        sync.Mutex
	Responses []string
	Err       error
	PingErr   error
	Calls     [][]openai.ChatCompletionMessageParamUnion
	callCount int
}

// GenerateWithMessages records the call and returns the next canned response.
func (m *MockClient) GenerateWithMessages(_ context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, messages)
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) == 0 {
		return "OK", nil
	}
	idx := m.callCount
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	}
	m.callCount++
	return m.Responses[idx], nil
}

// Ping returns the configured ping error.
func (m *MockClient) Ping(context.Context) error { return m.PingErr }

// Model returns a fixed identifier for log assertions.
func (m *MockClient) Model() string { return "mock-model" }

// CallCount returns how many completions were requested.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
