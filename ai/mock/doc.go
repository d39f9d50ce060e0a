// Package mock provides test double implementations of AI service interfaces.
//
// # Usage in Tests
//
//	// Fixed answer
//	answerer := mock.NewMockAnswerer().WithAnswer("It says Hello.")
//
//	// Failure
//	answerer := mock.NewMockAnswerer().WithError(fmt.Errorf("%w: quota", ai.ErrInference))
//
//	// Custom behavior
//	answerer := mock.NewMockAnswerer().
//	    WithGenerateFunc(func(ctx context.Context, docContext, question string) (string, error) {
//	        return strings.ToUpper(question), nil
//	    })
//
//	// Assertions
//	count := answerer.CallCount()
//	calls := answerer.Calls()
//
// # Default Behavior
//
//   - MockAnswerer: echoes the question as "mock answer to: <question>"
//   - MockProvider: wraps a MockAnswerer
package mock
