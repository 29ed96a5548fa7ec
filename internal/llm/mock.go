package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// MockResponse is one canned answer. A non-nil Err is returned instead
// of a response.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error
}

// MockText is a canned plain-text reply.
func MockText(text string) MockResponse {
	return MockResponse{Content: json.RawMessage(text)}
}

// MockProvider answers from a queue and keeps every request it saw.
// KALIKE_LLM_PROVIDER=mock selects an empty one for offline runs, so
// callers fall back to their stock behaviour.
type MockProvider struct {
	mu    sync.Mutex
	queue []MockResponse
	Calls []Request
}

func NewMockProvider(queue ...MockResponse) *MockProvider {
	return &MockProvider{queue: queue}
}

func (m *MockProvider) ModelID() string { return "mock" }

// Generate dequeues the next answer. An empty queue is reported as an
// unavailable provider.
func (m *MockProvider) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, req)
	if len(m.queue) == 0 {
		return nil, &ErrProviderUnavailable{}
	}
	next := m.queue[0]
	m.queue = m.queue[1:]
	if next.Err != nil {
		return nil, next.Err
	}
	return &Response{Content: next.Content, Usage: next.Usage, Model: "mock", StopReason: StopEnd}, nil
}

func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	m.queue = append(m.queue, resp)
	m.mu.Unlock()
}

func (m *MockProvider) LastCall() (Request, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n := len(m.Calls); n > 0 {
		return m.Calls[n-1], true
	}
	return Request{}, false
}

func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
