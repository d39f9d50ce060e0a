package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/poiesic/docchat/ai"
	"google.golang.org/genai"
)

// Answerer implements ai.Answerer using the Gemini API.
// The genai client is created on first use so that a missing credential
// surfaces when a question is asked rather than at startup.
type Answerer struct {
	config *ai.Config
	logger *slog.Logger

	mu     sync.Mutex
	client *genai.Client
}

var _ ai.Answerer = (*Answerer)(nil)

// newAnswerer is an internal constructor that returns the concrete type.
func newAnswerer(config *ai.Config) (*Answerer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Backend != ai.BackendGemini {
		return nil, fmt.Errorf("%w: gemini answerer cannot serve %q", ai.ErrUnknownBackend, config.Backend)
	}

	return &Answerer{
		config: config,
		logger: slog.Default().With("component", "gemini-answerer"),
	}, nil
}

// NewAnswerer creates a Gemini-backed answerer.
//
// Returns ai.Answerer interface to enforce abstraction.
func NewAnswerer(config *ai.Config) (ai.Answerer, error) {
	return newAnswerer(config)
}

// GenerateGroundedAnswer sends the system instruction, context and question
// to Gemini and returns the text of the first candidate.
func (a *Answerer) GenerateGroundedAnswer(ctx context.Context, context, question string) (string, error) {
	client, err := a.getClient(ctx)
	if err != nil {
		return "", err
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(ai.SystemInstruction, genai.RoleUser),
		Temperature:       genai.Ptr(float32(a.config.Temperature)),
	}

	a.logger.Debug("generating answer", "model", a.config.Model, "context_length", len(context))
	resp, err := client.Models.GenerateContent(ctx, a.config.Model, genai.Text(ai.BuildPrompt(context, question)), config)
	if err != nil {
		a.logger.Error("generate content failed", "err", err)
		return "", classify(err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("%w: the model returned an empty response", ai.ErrInference)
	}
	return text, nil
}

func (a *Answerer) getClient(ctx context.Context) (*genai.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client != nil {
		return a.client, nil
	}

	key := a.config.ResolveAPIKey()
	if key == "" {
		return nil, fmt.Errorf("%w: Gemini API key is not configured (set GEMINI_API_KEY)", ai.ErrServiceUnavailable)
	}

	cc := &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	}
	if a.config.Host != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: a.config.Host + "/"}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrServiceUnavailable, err)
	}
	a.client = client
	return client, nil
}

// classify maps a genai error onto the ai error taxonomy. Errors the service
// answered with are inference failures; anything else means it was not reached.
func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %s", ai.ErrInference, apiErr.Message)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return fmt.Errorf("%w: %s", ai.ErrInference, apiErrPtr.Message)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ai.ErrInference, err)
	}
	return fmt.Errorf("%w: %w", ai.ErrServiceUnavailable, err)
}
