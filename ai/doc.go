// Package ai provides abstractions for the inference service used by docchat.
//
// This package defines the Answerer interface the conversation layer depends
// on, together with the shared Config, prompt construction and error taxonomy.
//
// # Design Principles
//
// The package is designed around two interfaces:
//
//   - Answerer: Generates an answer grounded in a document context
//   - Provider: Aggregates inference services for convenient initialization
//
// # Implementation Packages
//
//   - ai/gemini: Gemini API implementation using google.golang.org/genai
//   - ai/openai: OpenAI-compatible implementation using langchaingo
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Errors
//
// Every implementation reports failures as one of two sentinels:
//
//   - ErrServiceUnavailable: the credential or the service itself is missing
//   - ErrInference: the service was reached but reported a failure
//
// A missing credential is a call-time failure. Constructing a provider
// without one succeeds so that the rest of the application can start.
//
// # Constructor Return Type Pattern
//
// Public constructors (gemini.NewProvider, openai.NewAnswerer, etc.) return
// INTERFACE types. Test utility constructors (mock.NewMockAnswerer) return
// CONCRETE types to enable test assertions and behavior injection.
//
//	provider, err := gemini.NewProvider(config)  // returns ai.Provider
//	mockAnswer := mock.NewMockAnswerer()         // returns *mock.MockAnswerer
package ai
