package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/poiesic/docchat/ai"
)

// AnswerCall records the arguments of one GenerateGroundedAnswer call.
type AnswerCall struct {
	Context  string
	Question string
}

// MockAnswerer is a test double for ai.Answerer.
// It allows custom behavior injection via function fields.
type MockAnswerer struct {
	// GenerateFunc is called by GenerateGroundedAnswer if set.
	// If nil, echoes the question back.
	GenerateFunc func(ctx context.Context, context, question string) (string, error)

	mu    sync.Mutex
	calls []AnswerCall
}

var _ ai.Answerer = (*MockAnswerer)(nil)

// NewMockAnswerer creates a mock answerer with default behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockAnswerer() *MockAnswerer {
	return &MockAnswerer{}
}

// WithGenerateFunc sets custom answer logic.
func (m *MockAnswerer) WithGenerateFunc(fn func(ctx context.Context, context, question string) (string, error)) *MockAnswerer {
	m.GenerateFunc = fn
	return m
}

// WithAnswer makes every call return answer.
func (m *MockAnswerer) WithAnswer(answer string) *MockAnswerer {
	return m.WithGenerateFunc(func(context.Context, string, string) (string, error) {
		return answer, nil
	})
}

// WithError makes every call fail with err.
func (m *MockAnswerer) WithError(err error) *MockAnswerer {
	return m.WithGenerateFunc(func(context.Context, string, string) (string, error) {
		return "", err
	})
}

// GenerateGroundedAnswer records the call and returns the injected result.
func (m *MockAnswerer) GenerateGroundedAnswer(ctx context.Context, context, question string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, AnswerCall{Context: context, Question: question})
	fn := m.GenerateFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, context, question)
	}
	return fmt.Sprintf("mock answer to: %s", question), nil
}

// CallCount returns the number of times GenerateGroundedAnswer was called.
func (m *MockAnswerer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Calls returns a copy of the recorded calls in order.
func (m *MockAnswerer) Calls() []AnswerCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]AnswerCall(nil), m.calls...)
}

// Reset clears the recorded calls.
func (m *MockAnswerer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}
