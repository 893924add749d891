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


package lexrag

import (
	"fmt"

	"github.com/poiesic/lexrag/ai"
	"github.com/poiesic/lexrag/ai/anthropic"
	"github.com/poiesic/lexrag/ai/openai"
	"github.com/poiesic/lexrag/config"
	"github.com/poiesic/lexrag/storage"
	"github.com/poiesic/lexrag/storage/badger"
	"github.com/poiesic/lexrag/storage/qdrant"
)

// anthropicProvider keeps the OpenAI-compatible embedder and replaces the
// generator with an Anthropic one.
type anthropicProvider struct {
	ai.AIProvider
	generator ai.Generator
}

func (p *anthropicProvider) Generator() ai.Generator {
	return p.generator
}

// newProvider builds the AI provider selected by cfg.
func newProvider(cfg *ai.Config) (ai.AIProvider, error) {
	provider, err := openai.NewProvider(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.GenerationBackend != ai.BackendAnthropic {
		return provider, nil
	}

	generator, err := anthropic.NewGenerator(cfg)
	if err != nil {
		provider.Close()
		return nil, err
	}
	return &anthropicProvider{AIProvider: provider, generator: generator}, nil
}

// openIndex opens the vector index selected by cfg.
func openIndex(cfg *config.Config) (storage.VectorIndex, error) {
	switch cfg.Index.Backend {
	case config.BackendBadger:
		return badger.NewIndex(cfg.Index.Path)
	case config.BackendQdrant:
		return qdrant.NewIndex(cfg.QdrantConfig())
	default:
		return nil, fmt.Errorf("%w: unknown index backend %q", config.ErrInvalidConfig, cfg.Index.Backend)
	}
}
