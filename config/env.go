package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables read by ApplyEnv.
const (
	EnvEmbeddingHost     = "LEXRAG_EMBEDDING_HOST"
	EnvGenerationHost    = "LEXRAG_GENERATION_HOST"
	EnvEmbeddingModel    = "LEXRAG_EMBEDDING_MODEL"
	EnvGenerationModel   = "LEXRAG_GENERATION_MODEL"
	EnvGenerationBackend = "LEXRAG_GENERATION_BACKEND"
	EnvAPIKey            = "LEXRAG_API_KEY"
	EnvAnthropicAPIKey   = "ANTHROPIC_API_KEY"
	EnvIndexBackend      = "LEXRAG_INDEX_BACKEND"
	EnvIndexPath         = "LEXRAG_INDEX_PATH"
	EnvQdrantHost        = "LEXRAG_QDRANT_HOST"
	EnvQdrantPort        = "LEXRAG_QDRANT_PORT"
	EnvQdrantAPIKey      = "LEXRAG_QDRANT_API_KEY"
	EnvQdrantCollection  = "LEXRAG_QDRANT_COLLECTION"
	EnvMetricsAddress    = "LEXRAG_METRICS_ADDR"
)

// LoadEnv loads .env style files into the process environment.
// Variables already set are not overridden. Missing files are skipped.
// With no arguments it reads ".env" from the working directory.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", file, err)
		}
	}
	return nil
}

// ApplyEnv overrides cfg with any set environment variables.
func ApplyEnv(cfg *Config) error {
	overrides := []struct {
		name   string
		target *string
	}{
		{EnvEmbeddingHost, &cfg.AI.EmbeddingHost},
		{EnvGenerationHost, &cfg.AI.GenerationHost},
		{EnvEmbeddingModel, &cfg.AI.EmbeddingModel},
		{EnvGenerationModel, &cfg.AI.GenerationModel},
		{EnvGenerationBackend, &cfg.AI.GenerationBackend},
		{EnvAPIKey, &cfg.AI.APIKey},
		{EnvAnthropicAPIKey, &cfg.AI.AnthropicAPIKey},
		{EnvIndexBackend, &cfg.Index.Backend},
		{EnvIndexPath, &cfg.Index.Path},
		{EnvQdrantHost, &cfg.Index.Qdrant.Host},
		{EnvQdrantAPIKey, &cfg.Index.Qdrant.APIKey},
		{EnvQdrantCollection, &cfg.Index.Qdrant.Collection},
		{EnvMetricsAddress, &cfg.Metrics.Address},
	}
	for _, o := range overrides {
		if v, ok := os.LookupEnv(o.name); ok && v != "" {
			*o.target = v
		}
	}

	if v, ok := os.LookupEnv(EnvQdrantPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a port", ErrInvalidConfig, EnvQdrantPort, v)
		}
		cfg.Index.Qdrant.Port = port
	}
	return nil
}
