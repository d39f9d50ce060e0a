package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/poiesic/docchat/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGemini records request bodies and answers with a canned response.
type fakeGemini struct {
	mu     sync.Mutex
	bodies []map[string]any
	paths  []string
	status int
	reply  string
}

func (f *fakeGemini) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	var body map[string]any
	_ = json.Unmarshal(data, &body)

	f.mu.Lock()
	f.bodies = append(f.bodies, body)
	f.paths = append(f.paths, r.URL.Path)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if f.status != 0 && f.status != http.StatusOK {
		w.WriteHeader(f.status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": f.status, "message": "quota exceeded", "status": "INVALID_ARGUMENT"},
		})
		return
	}
	resp := map[string]any{
		"candidates": []any{map[string]any{
			"content": map[string]any{
				"role":  "model",
				"parts": []any{map[string]any{"text": f.reply}},
			},
		}},
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func newTestAnswerer(t *testing.T, fake *fakeGemini, opts ...ai.ConfigOption) ai.Answerer {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	opts = append([]ai.ConfigOption{ai.WithHost(srv.URL), ai.WithAPIKey("test-key")}, opts...)
	a, err := NewAnswerer(ai.NewConfig(opts...))
	require.NoError(t, err)
	return a
}

func TestGenerateGroundedAnswer_Success(t *testing.T) {
	fake := &fakeGemini{reply: "It says Hello."}
	a := newTestAnswerer(t, fake)

	answer, err := a.GenerateGroundedAnswer(context.Background(), "--- Content from a.pdf ---\nHello", "What does it say?")
	require.NoError(t, err)
	assert.Equal(t, "It says Hello.", answer)

	require.Len(t, fake.bodies, 1)
	assert.Contains(t, fake.paths[0], "gemini-2.5-flash:generateContent")

	raw, err := json.Marshal(fake.bodies[0])
	require.NoError(t, err)
	sent := string(raw)
	assert.Contains(t, sent, "QUESTION:\\nWhat does it say?")
	assert.Contains(t, sent, "CONTEXT:\\n--- Content from a.pdf ---\\nHello")
	assert.Contains(t, sent, "based ONLY on the provided context")
	assert.Contains(t, sent, `"temperature":0.2`)
}

func TestGenerateGroundedAnswer_ServiceError(t *testing.T) {
	fake := &fakeGemini{status: http.StatusBadRequest}
	a := newTestAnswerer(t, fake)

	_, err := a.GenerateGroundedAnswer(context.Background(), "ctx", "q")
	require.Error(t, err)
	assert.ErrorIs(t, err, ai.ErrInference)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestGenerateGroundedAnswer_EmptyReply(t *testing.T) {
	fake := &fakeGemini{reply: "   "}
	a := newTestAnswerer(t, fake)

	_, err := a.GenerateGroundedAnswer(context.Background(), "ctx", "q")
	assert.ErrorIs(t, err, ai.ErrInference)
}

func TestGenerateGroundedAnswer_MissingKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	// Construction succeeds; the failure is reported when asking.
	a, err := NewAnswerer(ai.DefaultConfig())
	require.NoError(t, err)

	_, err = a.GenerateGroundedAnswer(context.Background(), "ctx", "q")
	assert.ErrorIs(t, err, ai.ErrServiceUnavailable)
	assert.True(t, strings.Contains(err.Error(), "GEMINI_API_KEY"))
}

func TestGenerateGroundedAnswer_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	a, err := NewAnswerer(ai.NewConfig(ai.WithHost(url), ai.WithAPIKey("k")))
	require.NoError(t, err)

	_, err = a.GenerateGroundedAnswer(context.Background(), "ctx", "q")
	assert.ErrorIs(t, err, ai.ErrServiceUnavailable)
}

func TestNewAnswerer_WrongBackend(t *testing.T) {
	_, err := NewAnswerer(ai.NewConfig(ai.WithBackend(ai.BackendOpenAI)))
	assert.ErrorIs(t, err, ai.ErrUnknownBackend)
}

func TestNewProvider(t *testing.T) {
	provider, err := NewProvider(ai.DefaultConfig())
	require.NoError(t, err)
	assert.NotNil(t, provider.Answerer())
	assert.NoError(t, provider.Close())

	_, err = NewProvider(ai.NewConfig(ai.WithBackend("nope")))
	assert.ErrorIs(t, err, ai.ErrUnknownBackend)
}
