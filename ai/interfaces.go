package ai

import "context"

// Answerer produces answers grounded in a supplied document context.
// Implementations must be thread-safe for concurrent use.
type Answerer interface {
	// GenerateGroundedAnswer answers question using only context.
	// Returns an error wrapping ErrServiceUnavailable when the service cannot
	// be reached or is not configured, and ErrInference when the service
	// itself reports a failure. The error message is user-presentable.
	GenerateGroundedAnswer(ctx context.Context, context, question string) (string, error)
}

// Provider aggregates inference services for convenient initialization and lifecycle management.
type Provider interface {
	// Answerer returns the grounded answer service.
	// The returned Answerer is safe for concurrent use.
	Answerer() Answerer

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
