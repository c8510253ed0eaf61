package reasoning

import (
	"context"
	"sync"
)

// MockProvider returns canned responses keyed by category. Used by tests.
type MockProvider struct {
	mu        sync.Mutex
	Responses map[string]string
	Err       error
	ErrFor    map[string]error
	Calls     []Request
}

// NewMockProvider creates a mock with per-category responses.
func NewMockProvider(responses map[string]string) *MockProvider {
	return &MockProvider{Responses: responses}
}

// Name identifies the provider for logging.
func (m *MockProvider) Name() string { return "mock" }

// Review records the call and returns the canned response for the
// request's category.
func (m *MockProvider) Review(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)
	if err, ok := m.ErrFor[req.Category]; ok {
		return nil, err
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return &Response{Content: m.Responses[req.Category], Model: "mock"}, nil
}

// CallCount returns how many review calls were made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
