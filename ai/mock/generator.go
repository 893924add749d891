package mock

import (
	"context"
	"sync"

	"github.com/poiesic/lexrag/ai"
)

// DefaultReply is returned by MockGenerator when no GenerateFunc is set.
const DefaultReply = "mock answer"

// MockGenerator is a test double for ai.Generator.
// It records every request it receives.
type MockGenerator struct {
	// GenerateFunc is called by Generate if set.
	// If nil, Generate returns DefaultReply.
	GenerateFunc func(ctx context.Context, req ai.GenerateRequest) (string, error)

	mu       sync.Mutex
	requests []ai.GenerateRequest
}

// NewMockGenerator creates a mock generator with default behavior.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// Generate records req and returns the injected or default reply.
func (m *MockGenerator) Generate(ctx context.Context, req ai.GenerateRequest) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return DefaultReply, nil
}

// Requests returns a copy of every request received so far.
func (m *MockGenerator) Requests() []ai.GenerateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ai.GenerateRequest(nil), m.requests...)
}

// CallCount returns the number of times Generate was called.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Reset clears recorded requests and any injected behavior.
func (m *MockGenerator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
	m.GenerateFunc = nil
}
