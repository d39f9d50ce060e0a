package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/poiesic/docchat/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Answerer implements ai.Answerer using OpenAI-compatible chat APIs.
type Answerer struct {
	config *ai.Config
	logger *slog.Logger

	mu     sync.Mutex
	client llms.Model
}

var _ ai.Answerer = (*Answerer)(nil)

// newAnswerer is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newAnswerer(config *ai.Config) (*Answerer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Backend != ai.BackendOpenAI {
		return nil, fmt.Errorf("%w: openai answerer cannot serve %q", ai.ErrUnknownBackend, config.Backend)
	}

	return &Answerer{
		config: config,
		logger: slog.Default().With("component", "openai-answerer"),
	}, nil
}

// NewAnswerer creates an answerer for an OpenAI-compatible service.
//
// Returns ai.Answerer interface to enforce abstraction.
func NewAnswerer(config *ai.Config) (ai.Answerer, error) {
	return newAnswerer(config)
}

// GenerateGroundedAnswer sends the system instruction as a system message and
// the context plus question as a human message.
func (a *Answerer) GenerateGroundedAnswer(ctx context.Context, context, question string) (string, error) {
	client, err := a.getClient()
	if err != nil {
		return "", err
	}

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(ai.SystemInstruction),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(ai.BuildPrompt(context, question)),
			},
		},
	}

	a.logger.Debug("generating answer", "model", a.config.Model, "context_length", len(context))
	response, err := client.GenerateContent(ctx, content, llms.WithTemperature(a.config.Temperature))
	if err != nil {
		a.logger.Error("failed to generate content", "err", err)
		return "", classify(err)
	}

	if len(response.Choices) < 1 {
		return "", fmt.Errorf("%w: no choices returned from model", ai.ErrInference)
	}

	text := strings.TrimSpace(response.Choices[0].Content)
	if text == "" {
		return "", fmt.Errorf("%w: the model returned an empty response", ai.ErrInference)
	}
	return text, nil
}

func (a *Answerer) getClient() (llms.Model, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client != nil {
		return a.client, nil
	}

	token := a.config.ResolveAPIKey()
	if token == "" {
		if requiresKey(a.config.Host) {
			return nil, fmt.Errorf("%w: OpenAI API key is not configured (set OPENAI_API_KEY)", ai.ErrServiceUnavailable)
		}
		// Use "none" as token for local OpenAI-compatible services that don't require authentication
		token = "none"
	}

	client, err := openai.New(
		openai.WithBaseURL(a.config.Host),
		openai.WithToken(token),
		openai.WithModel(a.config.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrServiceUnavailable, err)
	}
	a.client = client
	return client, nil
}

// requiresKey reports whether host is the hosted OpenAI API, which rejects
// anonymous requests.
func requiresKey(host string) bool {
	u, err := url.Parse(host)
	if err != nil {
		return false
	}
	return strings.HasSuffix(u.Hostname(), "openai.com")
}

// classify maps a transport failure to ErrServiceUnavailable and everything
// the service answered with to ErrInference.
func classify(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && !urlErr.Timeout() {
		return fmt.Errorf("%w: %w", ai.ErrServiceUnavailable, err)
	}
	return fmt.Errorf("%w: %w", ai.ErrInference, err)
}
