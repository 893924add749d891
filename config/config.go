package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/poiesic/lexrag/ai"
	"github.com/poiesic/lexrag/answer"
	"github.com/poiesic/lexrag/chunking"
	"github.com/poiesic/lexrag/ingestion"
	"github.com/poiesic/lexrag/retrieval"
	"github.com/poiesic/lexrag/segment"
	"github.com/poiesic/lexrag/storage/qdrant"
)

// Index backends.
const (
	BackendBadger = "badger"
	BackendQdrant = "qdrant"
)

// DefaultPath is the config file read when no path is given.
const DefaultPath = "lexrag.yaml"

// Config is the root application configuration.
type Config struct {
	AI         AIConfig         `yaml:"ai"`
	Index      IndexConfig      `yaml:"index"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Ingestion  IngestionConfig  `yaml:"ingestion"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Generation GenerationConfig `yaml:"generation"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// AIConfig selects the embedding and generation services.
type AIConfig struct {
	EmbeddingHost      string  `yaml:"embedding_host"`
	GenerationHost     string  `yaml:"generation_host"`
	EmbeddingModel     string  `yaml:"embedding_model"`
	GenerationModel    string  `yaml:"generation_model"`
	GenerationBackend  string  `yaml:"generation_backend"`
	APIKey             string  `yaml:"api_key,omitempty"`
	AnthropicAPIKey    string  `yaml:"anthropic_api_key,omitempty"`
	EmbeddingRateLimit float64 `yaml:"embedding_rate_limit"`
	EmbeddingBurst     int     `yaml:"embedding_burst"`
}

// IndexConfig selects and configures the vector index.
type IndexConfig struct {
	Backend   string       `yaml:"backend"`
	Path      string       `yaml:"path"`
	Dimension int          `yaml:"dimension"`
	Qdrant    QdrantConfig `yaml:"qdrant"`
}

// QdrantConfig contains connection details for a Qdrant index.
type QdrantConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	APIKey     string `yaml:"api_key,omitempty"`
	UseTLS     bool   `yaml:"use_tls"`
	Collection string `yaml:"collection"`
}

// ChunkingConfig configures segmentation and chunk assembly.
type ChunkingConfig struct {
	Size          int    `yaml:"size"`
	Overlap       int    `yaml:"overlap"`
	Widen         bool   `yaml:"widen"`
	Neighbors     int    `yaml:"neighbors"`
	HeaderPattern string `yaml:"header_pattern"`
}

// IngestionConfig configures the batch pipeline.
type IngestionConfig struct {
	BatchSize    int           `yaml:"batch_size"`
	Concurrency  int           `yaml:"concurrency"`
	BatchTimeout time.Duration `yaml:"batch_timeout"`
	MaxAttempts  int           `yaml:"max_attempts"`
	RetryDelay   time.Duration `yaml:"retry_delay"`
}

// RetrievalConfig configures candidate selection and filtering.
type RetrievalConfig struct {
	TopK            int           `yaml:"top_k"`
	FinalCount      int           `yaml:"final_count"`
	MinScore        float32       `yaml:"min_score"`
	ExcludeKeywords []string      `yaml:"exclude_keywords,omitempty"`
	RequireKeywords []string      `yaml:"require_keywords,omitempty"`
	QueryExpansion  []string      `yaml:"query_expansion,omitempty"`
	Timeout         time.Duration `yaml:"timeout"`
}

// GenerationConfig configures answer generation.
type GenerationConfig struct {
	DocumentName  string        `yaml:"document_name"`
	Tone          string        `yaml:"tone"`
	CitationStyle string        `yaml:"citation_style"`
	MaxTokens     int           `yaml:"max_tokens"`
	MaxBullets    int           `yaml:"max_bullets"`
	Temperature   float64       `yaml:"temperature"`
	Fallback      string        `yaml:"fallback"`
	Timeout       time.Duration `yaml:"timeout"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	aiDefaults := ai.DefaultConfig()
	return &Config{
		AI: AIConfig{
			EmbeddingHost:     aiDefaults.EmbeddingHost,
			GenerationHost:    aiDefaults.GenerationHost,
			EmbeddingModel:    aiDefaults.EmbeddingModel,
			GenerationModel:   aiDefaults.GenerationModel,
			GenerationBackend: aiDefaults.GenerationBackend,
			EmbeddingBurst:    aiDefaults.EmbeddingBurst,
		},
		Index: IndexConfig{
			Backend:   BackendBadger,
			Path:      "lexrag-index",
			Dimension: qdrant.DefaultDimension,
			Qdrant: QdrantConfig{
				Host:       "localhost",
				Port:       qdrant.DefaultPort,
				Collection: qdrant.DefaultCollection,
			},
		},
		Chunking: ChunkingConfig{
			Size:          chunking.DefaultChunkSize,
			Overlap:       chunking.DefaultOverlap,
			Neighbors:     chunking.DefaultNeighbors,
			HeaderPattern: segment.DefaultHeaderPattern,
		},
		Ingestion: IngestionConfig{
			BatchSize:    ingestion.DefaultBatchSize,
			Concurrency:  ingestion.DefaultConcurrency,
			BatchTimeout: ingestion.DefaultBatchTimeout,
			MaxAttempts:  1,
			RetryDelay:   time.Second,
		},
		Retrieval: RetrievalConfig{
			TopK:       retrieval.DefaultTopK,
			FinalCount: retrieval.DefaultFinalCount,
			MinScore:   retrieval.DefaultMinScore,
			Timeout:    retrieval.DefaultTimeout,
		},
		Generation: GenerationConfig{
			DocumentName:  answer.DefaultDocumentName,
			Tone:          string(answer.DefaultTone),
			CitationStyle: string(answer.DefaultCitationStyle),
			MaxTokens:     answer.DefaultMaxTokens,
			MaxBullets:    answer.DefaultMaxBullets,
			Temperature:   answer.DefaultTemperature,
			Fallback:      answer.DefaultFallback,
			Timeout:       answer.DefaultTimeout,
		},
		Metrics: MetricsConfig{
			Address: ":9090",
		},
	}
}

// Load reads a config from path on top of the defaults.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating directories as needed.
func Save(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// AIConfig converts the ai section into an ai.Config.
func (c *Config) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(c.AI.EmbeddingHost),
		ai.WithGenerationHost(c.AI.GenerationHost),
		ai.WithEmbeddingModel(c.AI.EmbeddingModel),
		ai.WithGenerationModel(c.AI.GenerationModel),
		ai.WithGenerationBackend(c.AI.GenerationBackend),
		ai.WithAPIKey(c.AI.APIKey),
		ai.WithAnthropicAPIKey(c.AI.AnthropicAPIKey),
		ai.WithEmbeddingRateLimit(c.AI.EmbeddingRateLimit, c.AI.EmbeddingBurst),
	)
}

// TemplateOptions converts the generation section into answer.TemplateOptions.
func (c *Config) TemplateOptions() answer.TemplateOptions {
	return answer.TemplateOptions{
		Tone:          answer.Tone(c.Generation.Tone),
		CitationStyle: answer.CitationStyle(c.Generation.CitationStyle),
		MaxTokens:     c.Generation.MaxTokens,
		MaxBullets:    c.Generation.MaxBullets,
	}
}

// QdrantConfig converts the qdrant section into a qdrant.Config.
func (c *Config) QdrantConfig() qdrant.Config {
	return qdrant.Config{
		Host:       c.Index.Qdrant.Host,
		Port:       c.Index.Qdrant.Port,
		APIKey:     c.Index.Qdrant.APIKey,
		UseTLS:     c.Index.Qdrant.UseTLS,
		Collection: c.Index.Qdrant.Collection,
	}
}

// Validate rejects inconsistent values. The ai section is validated with
// ai.Config.Validate.
func (c *Config) Validate() error {
	if err := c.AIConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	switch c.Index.Backend {
	case BackendBadger:
		if c.Index.Path == "" {
			return invalid("index.path is required for the badger backend")
		}
	case BackendQdrant:
		if c.Index.Qdrant.Host == "" {
			return invalid("index.qdrant.host is required for the qdrant backend")
		}
		if c.Index.Qdrant.Collection == "" {
			return invalid("index.qdrant.collection is required for the qdrant backend")
		}
		if c.Index.Qdrant.Port <= 0 || c.Index.Qdrant.Port > 65535 {
			return invalid("index.qdrant.port %d out of range", c.Index.Qdrant.Port)
		}
	default:
		return invalid("index.backend must be %s or %s, got %q", BackendBadger, BackendQdrant, c.Index.Backend)
	}
	if c.Index.Dimension <= 0 {
		return invalid("index.dimension must be positive")
	}

	if c.Chunking.Size <= 0 {
		return invalid("chunking.size must be positive")
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		return invalid("chunking.overlap must be in [0,%d)", c.Chunking.Size)
	}
	if c.Chunking.Neighbors < 0 {
		return invalid("chunking.neighbors cannot be negative")
	}

	if c.Ingestion.BatchSize < 1 || c.Ingestion.BatchSize > ingestion.MaxBatchSize {
		return invalid("ingestion.batch_size must be in [1,%d]", ingestion.MaxBatchSize)
	}
	if c.Ingestion.Concurrency < 1 {
		return invalid("ingestion.concurrency must be at least 1")
	}
	if c.Ingestion.BatchTimeout <= 0 {
		return invalid("ingestion.batch_timeout must be positive")
	}
	if c.Ingestion.MaxAttempts < 1 {
		return invalid("ingestion.max_attempts must be at least 1")
	}
	if c.Ingestion.RetryDelay < 0 {
		return invalid("ingestion.retry_delay cannot be negative")
	}

	if c.Retrieval.FinalCount < 1 {
		return invalid("retrieval.final_count must be at least 1")
	}
	if c.Retrieval.TopK <= c.Retrieval.FinalCount {
		return invalid("retrieval.top_k (%d) must be greater than retrieval.final_count (%d)",
			c.Retrieval.TopK, c.Retrieval.FinalCount)
	}
	if c.Retrieval.MinScore < 0 || c.Retrieval.MinScore >= 1 {
		return invalid("retrieval.min_score must be in [0,1)")
	}
	if c.Retrieval.Timeout < 0 {
		return invalid("retrieval.timeout cannot be negative")
	}

	if err := c.TemplateOptions().Validate(); err != nil {
		return fmt.Errorf("%w: generation: %w", ErrInvalidConfig, err)
	}
	if c.Generation.Temperature < 0 || c.Generation.Temperature > 2 {
		return invalid("generation.temperature must be in [0,2]")
	}
	if c.Generation.Timeout < 0 {
		return invalid("generation.timeout cannot be negative")
	}

	if c.Metrics.Enabled && c.Metrics.Address == "" {
		return invalid("metrics.address is required when metrics are enabled")
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
