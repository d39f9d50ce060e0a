package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/poiesic/docchat/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content any    `json:"content"`
	} `json:"messages"`
}

func newChatServer(t *testing.T, status int, reply string, got *chatRequest, auth *string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got != nil {
			_ = json.NewDecoder(r.Body).Decode(got)
		}
		if auth != nil {
			*auth = r.Header.Get("Authorization")
		}
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"message": "model not found", "type": "invalid_request_error"},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "test-model",
			"choices": []any{map[string]any{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": reply},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2},
		})
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestGenerateGroundedAnswer_Success(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	var req chatRequest
	var auth string
	host := newChatServer(t, http.StatusOK, "It says Hello.", &req, &auth)

	a, err := NewAnswerer(ai.NewConfig(
		ai.WithBackend(ai.BackendOpenAI),
		ai.WithHost(host),
		ai.WithModel("test-model"),
	))
	require.NoError(t, err)

	answer, err := a.GenerateGroundedAnswer(context.Background(), "--- Content from a.pdf ---\nHello", "What does it say?")
	require.NoError(t, err)
	assert.Equal(t, "It says Hello.", answer)

	assert.Equal(t, "test-model", req.Model)
	assert.InDelta(t, 0.2, req.Temperature, 1e-9)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Equal(t, "user", req.Messages[1].Role)

	raw, err := json.Marshal(req.Messages)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "based ONLY on the provided context")
	assert.Contains(t, string(raw), "QUESTION:\\nWhat does it say?")
	assert.Equal(t, "Bearer none", auth)
}

func TestGenerateGroundedAnswer_ServiceError(t *testing.T) {
	host := newChatServer(t, http.StatusNotFound, "", nil, nil)

	a, err := NewAnswerer(ai.NewConfig(ai.WithBackend(ai.BackendOpenAI), ai.WithHost(host), ai.WithAPIKey("k")))
	require.NoError(t, err)

	_, err = a.GenerateGroundedAnswer(context.Background(), "ctx", "q")
	assert.ErrorIs(t, err, ai.ErrInference)
}

func TestGenerateGroundedAnswer_EmptyReply(t *testing.T) {
	host := newChatServer(t, http.StatusOK, "  ", nil, nil)

	a, err := NewAnswerer(ai.NewConfig(ai.WithBackend(ai.BackendOpenAI), ai.WithHost(host), ai.WithAPIKey("k")))
	require.NoError(t, err)

	_, err = a.GenerateGroundedAnswer(context.Background(), "ctx", "q")
	assert.ErrorIs(t, err, ai.ErrInference)
}

func TestGenerateGroundedAnswer_HostedWithoutKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	a, err := NewAnswerer(ai.NewConfig(ai.WithBackend(ai.BackendOpenAI), ai.WithHost("https://api.openai.com")))
	require.NoError(t, err)

	_, err = a.GenerateGroundedAnswer(context.Background(), "ctx", "q")
	assert.ErrorIs(t, err, ai.ErrServiceUnavailable)
}

func TestGenerateGroundedAnswer_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	host := srv.URL
	srv.Close()

	a, err := NewAnswerer(ai.NewConfig(ai.WithBackend(ai.BackendOpenAI), ai.WithHost(host), ai.WithAPIKey("k")))
	require.NoError(t, err)

	_, err = a.GenerateGroundedAnswer(context.Background(), "ctx", "q")
	assert.ErrorIs(t, err, ai.ErrServiceUnavailable)
}

func TestRequiresKey(t *testing.T) {
	assert.True(t, requiresKey("https://api.openai.com/v1"))
	assert.False(t, requiresKey("http://localhost:11434/v1"))
	assert.False(t, requiresKey("http://10.0.0.5:8000/v1"))
}

func TestNewProvider(t *testing.T) {
	provider, err := NewProvider(ai.NewConfig(ai.WithBackend(ai.BackendOpenAI)))
	require.NoError(t, err)
	assert.NotNil(t, provider.Answerer())
	assert.NoError(t, provider.Close())

	_, err = NewProvider(ai.DefaultConfig())
	assert.ErrorIs(t, err, ai.ErrUnknownBackend)
}
