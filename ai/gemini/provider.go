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


package gemini

import (
	"log/slog"

	"github.com/poiesic/docchat/ai"
)

// Provider implements ai.Provider using the Gemini API.
type Provider struct {
	config   *ai.Config
	answerer *Answerer
	logger   *slog.Logger
}

// NewProvider creates a new Gemini provider.
// The config is validated and normalized before use.
//
// Returns ai.Provider interface (not *Provider) to enforce abstraction.
func NewProvider(config *ai.Config) (ai.Provider, error) {
	answerer, err := newAnswerer(config)
	if err != nil {
		return nil, err
	}

	return &Provider{
		config:   config,
		answerer: answerer,
		logger:   slog.Default().With("component", "gemini-provider"),
	}, nil
}

// Answerer returns the grounded answer service.
func (p *Provider) Answerer() ai.Answerer {
	return p.answerer
}

// Close releases resources held by the provider.
// The genai client holds no resources that need explicit cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing Gemini provider")
	return nil
}
