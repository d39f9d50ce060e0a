// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"fmt"
	"os"
	"strings"
)

// Backend names an inference service family.
type Backend string

const (
	// BackendGemini talks to the Gemini API through google.golang.org/genai.
	BackendGemini Backend = "gemini"
	// BackendOpenAI talks to any OpenAI-compatible chat completion API
	// (OpenAI, Ollama, LocalAI, vLLM).
	BackendOpenAI Backend = "openai"
)

const (
	// DefaultGeminiModel is used when the gemini backend has no model configured.
	DefaultGeminiModel = "gemini-2.5-flash"
	// DefaultOpenAIModel is used when the openai backend has no model configured.
	DefaultOpenAIModel = "qwen2.5:3b"
	// DefaultOpenAIHost is the local OpenAI-compatible endpoint.
	DefaultOpenAIHost = "http://localhost:11434/v1"
	// DefaultTemperature keeps answers close to the supplied context.
	DefaultTemperature = 0.2
)

// Environment variables consulted when no API key is configured.
var (
	GeminiKeyEnv = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}
	OpenAIKeyEnv = []string{"OPENAI_API_KEY"}
)

// Config holds configuration for the inference service.
type Config struct {
	// Backend selects the service family. Default: gemini
	Backend Backend

	// Host is the base URL of the service.
	// For openai it defaults to DefaultOpenAIHost and gets a /v1 suffix.
	// For gemini it is optional and overrides the public endpoint.
	Host string

	// Model is the model identifier.
	// Example: "gemini-2.5-flash", "gpt-4o-mini", "qwen2.5:3b"
	Model string

	// APIKey is the credential. When empty, ResolveAPIKey falls back to the
	// environment. A missing credential is reported at call time.
	APIKey string

	// Temperature is the sampling temperature, between 0 and 2.
	// Default: 0.2
	Temperature float64
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithBackend sets the inference backend.
// A model still at the previous backend's default follows the switch.
func WithBackend(backend Backend) ConfigOption {
	return func(c *Config) {
		if c.Model == defaultModel(c.Backend) {
			c.Model = defaultModel(backend)
		}
		c.Backend = backend
	}
}

func defaultModel(backend Backend) string {
	switch Backend(strings.ToLower(strings.TrimSpace(string(backend)))) {
	case BackendGemini:
		return DefaultGeminiModel
	case BackendOpenAI:
		return DefaultOpenAIModel
	default:
		return ""
	}
}

// WithHost sets the service base URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithModel sets the model identifier.
func WithModel(model string) ConfigOption {
	return func(c *Config) {
		c.Model = model
	}
}

// WithAPIKey sets the service credential.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temperature float64) ConfigOption {
	return func(c *Config) {
		c.Temperature = temperature
	}
}

// DefaultConfig returns a Config for the Gemini API with the default model.
func DefaultConfig() *Config {
	return &Config{
		Backend:     BackendGemini,
		Model:       DefaultGeminiModel,
		Temperature: DefaultTemperature,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithBackend(BackendOpenAI),
//	    WithHost("http://localhost:11434"),
//	    WithModel("llama3.2"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// Backend names are lowercased, missing models get the backend default,
// and openai hosts get the /v1 suffix most compatible servers require.
func (c *Config) Normalize() {
	c.Backend = Backend(strings.ToLower(strings.TrimSpace(string(c.Backend))))
	if c.Backend == "" {
		c.Backend = BackendGemini
	}

	switch c.Backend {
	case BackendGemini:
		if c.Model == "" {
			c.Model = DefaultGeminiModel
		}
		c.Host = strings.TrimSuffix(c.Host, "/")
	case BackendOpenAI:
		if c.Model == "" {
			c.Model = DefaultOpenAIModel
		}
		if c.Host == "" {
			c.Host = DefaultOpenAIHost
		}
		if !strings.HasSuffix(c.Host, "/v1") {
			// Remove trailing slash if present before adding /v1
			c.Host = strings.TrimSuffix(c.Host, "/") + "/v1"
		}
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
// The credential is not checked here.
func (c *Config) Validate() error {
	c.Normalize()

	if c.Backend != BackendGemini && c.Backend != BackendOpenAI {
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Backend)
	}
	if c.Model == "" {
		return fmt.Errorf("%w: model is required", ErrInvalidConfig)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: temperature must be between 0 and 2", ErrInvalidConfig)
	}
	return nil
}

// ResolveAPIKey returns the configured credential, or the first non-empty
// environment variable for the backend. Returns "" when none is set.
func (c *Config) ResolveAPIKey() string {
	if c.APIKey != "" {
		return c.APIKey
	}

	envs := GeminiKeyEnv
	if c.Backend == BackendOpenAI {
		envs = OpenAIKeyEnv
	}
	for _, name := range envs {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}
