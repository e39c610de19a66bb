package mock

import (
	"context"
	"sync"

	"github.com/poiesic/meetkb/ai"
)

// MockGenerator is a test double for ai.Generator.
type MockGenerator struct {
	// GenerateFunc is called by Generate if set.
	// If nil, Generate returns Response.
	GenerateFunc func(ctx context.Context, prompt string, opts ai.GenerateOptions) (string, error)

	// Response is returned when GenerateFunc is nil.
	Response string

	mu          sync.Mutex
	callCount   int
	lastPrompt  string
	lastOptions ai.GenerateOptions
}

var _ ai.Generator = (*MockGenerator)(nil)

// NewMockGenerator creates a mock generator that returns response.
func NewMockGenerator(response string) *MockGenerator {
	return &MockGenerator{Response: response}
}

// Generate records the call and returns the scripted result.
func (m *MockGenerator) Generate(ctx context.Context, prompt string, opts ai.GenerateOptions) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.lastPrompt = prompt
	m.lastOptions = opts
	fn := m.GenerateFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, prompt, opts)
	}
	return m.Response, nil
}

// CallCount returns the number of times Generate was called.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// LastPrompt returns the prompt of the most recent call.
func (m *MockGenerator) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastPrompt
}

// LastOptions returns the decoding options of the most recent call.
func (m *MockGenerator) LastOptions() ai.GenerateOptions {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastOptions
}

// Reset clears the call count and custom functions.
func (m *MockGenerator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.lastPrompt = ""
	m.lastOptions = ai.GenerateOptions{}
	m.GenerateFunc = nil
}
