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
	"errors"
	"strings"
)

// Generation backends.
const (
	BackendOpenAI    = "openai"
	BackendAnthropic = "anthropic"
)

// Config holds configuration for AI service providers.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string

	// GenerationHost is the base URL for an OpenAI-compatible generation API.
	// Ignored when GenerationBackend is BackendAnthropic.
	GenerationHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "mxbai-embed-large", "text-embedding-3-small"
	EmbeddingModel string

	// GenerationModel is the model identifier used to answer questions.
	// Example: "qwen2.5:7b", "claude-sonnet-4-20250514"
	GenerationModel string

	// GenerationBackend selects the generation client, BackendOpenAI or BackendAnthropic.
	GenerationBackend string

	// APIKey is sent to OpenAI-compatible hosts. Local servers ignore it.
	APIKey string

	// AnthropicAPIKey authenticates against the Anthropic API.
	AnthropicAPIKey string

	// EmbeddingRateLimit caps embedding requests per second. Zero disables limiting.
	EmbeddingRateLimit float64

	// EmbeddingBurst is the number of embedding requests allowed at once
	// before the rate limit applies.
	// Default: 3
	EmbeddingBurst int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithGenerationHost sets the OpenAI-compatible generation host URL.
func WithGenerationHost(host string) ConfigOption {
	return func(c *Config) {
		c.GenerationHost = host
	}
}

// WithHost sets both embedding and generation hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.GenerationHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithGenerationModel sets the generation model identifier.
func WithGenerationModel(model string) ConfigOption {
	return func(c *Config) {
		c.GenerationModel = model
	}
}

// WithGenerationBackend selects the generation client.
func WithGenerationBackend(backend string) ConfigOption {
	return func(c *Config) {
		c.GenerationBackend = backend
	}
}

// WithAPIKey sets the key sent to OpenAI-compatible hosts.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithAnthropicAPIKey sets the Anthropic API key.
func WithAnthropicAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.AnthropicAPIKey = key
	}
}

// WithEmbeddingRateLimit limits embedding calls to rps per second with the given burst.
func WithEmbeddingRateLimit(rps float64, burst int) ConfigOption {
	return func(c *Config) {
		c.EmbeddingRateLimit = rps
		c.EmbeddingBurst = burst
	}
}

// DefaultConfig returns a Config with sensible defaults for local OpenAI-compatible services.
// By default, embedding and generation use the same host.
func DefaultConfig() *Config {
	defaultHost := "http://localhost:11434/v1"
	return &Config{
		EmbeddingHost:     defaultHost,
		GenerationHost:    defaultHost,
		EmbeddingModel:    "mxbai-embed-large",
		GenerationModel:   "qwen2.5:7b",
		GenerationBackend: BackendOpenAI,
		EmbeddingBurst:    3,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//   cfg := NewConfig(
//       WithHost("http://localhost:11434/v1"),
//       WithEmbeddingModel("text-embedding-3-small"),
//   )
//
// Example with Anthropic generation:
//   cfg := NewConfig(
//       WithGenerationBackend(BackendAnthropic),
//       WithGenerationModel("claude-sonnet-4-20250514"),
//       WithAnthropicAPIKey(os.Getenv("ANTHROPIC_API_KEY")),
//   )
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It automatically adds the /v1 suffix to hosts if missing, which is required
// by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	c.GenerationBackend = strings.ToLower(strings.TrimSpace(c.GenerationBackend))
	c.EmbeddingHost = normalizeHost(c.EmbeddingHost)
	if c.GenerationBackend == BackendOpenAI {
		c.GenerationHost = normalizeHost(c.GenerationHost)
	}
}

func normalizeHost(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	// Remove trailing slash if present before adding /v1
	return strings.TrimSuffix(host, "/") + "/v1"
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	// Normalize first to ensure hosts are in correct format
	c.Normalize()

	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.GenerationModel == "" {
		return errors.New("ai config: GenerationModel is required")
	}
	switch c.GenerationBackend {
	case BackendOpenAI:
		if c.GenerationHost == "" {
			return errors.New("ai config: GenerationHost is required")
		}
	case BackendAnthropic:
		if c.AnthropicAPIKey == "" {
			return errors.New("ai config: AnthropicAPIKey is required for the anthropic backend")
		}
	default:
		return errors.New("ai config: GenerationBackend must be openai or anthropic")
	}
	if c.EmbeddingRateLimit < 0 {
		return errors.New("ai config: EmbeddingRateLimit cannot be negative")
	}
	if c.EmbeddingRateLimit > 0 && c.EmbeddingBurst < 1 {
		return errors.New("ai config: EmbeddingBurst must be at least 1 when rate limiting")
	}
	return nil
}
