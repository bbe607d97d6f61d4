package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/poiesic/distill/core"
)

// MockSynthesizer is a test double for ai.Synthesizer.
// It allows custom behavior injection via function fields.
type MockSynthesizer struct {
	// SynthesizeFunc is called by Synthesize if set.
	// If nil, uses default deterministic behavior.
	SynthesizeFunc func(ctx context.Context, thread string) (*core.QAPair, error)

	mu        sync.Mutex
	callCount int
}

// NewMockSynthesizer creates a mock synthesizer with default deterministic
// behavior.
// Note: Returns concrete type to allow test assertions on call counts.
func NewMockSynthesizer() *MockSynthesizer {
	return &MockSynthesizer{}
}

// Synthesize derives a deterministic pair from the thread text.
// The mock is safe for concurrent use; pair pipelines call it from
// multiple workers.
func (m *MockSynthesizer) Synthesize(ctx context.Context, thread string) (*core.QAPair, error) {
	m.mu.Lock()
	m.callCount++
	fn := m.SynthesizeFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, thread)
	}

	// Default: echo the first non-empty line as the question
	return &core.QAPair{
		Question: firstLine(thread),
		Answer:   "mock answer",
	}, nil
}

// CallCount returns the number of times Synthesize was called.
func (m *MockSynthesizer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and any injected behavior.
func (m *MockSynthesizer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.SynthesizeFunc = nil
}

// firstLine returns the first non-empty line of text, or a fixed fallback
// when the text is blank.
func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return "mock question"
}
