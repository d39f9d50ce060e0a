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


package docchat

import (
	"github.com/poiesic/docchat/ai"
	"github.com/poiesic/docchat/ai/gemini"
	"github.com/poiesic/docchat/ai/openai"
)

// NewProvider creates the inference provider selected by config.Backend.
// The config is validated and normalized first. No credential is required
// here; a missing one is reported when a question is asked.
func NewProvider(config *ai.Config) (ai.Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Backend {
	case ai.BackendOpenAI:
		return openai.NewProvider(config)
	default:
		return gemini.NewProvider(config)
	}
}
