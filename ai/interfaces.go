package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one prior turn of a conversation.
type Message struct {
	Role    Role
	Content string
}

// GenerateRequest is a single call to a text generation model.
type GenerateRequest struct {
	// System carries the instruction template with grounding context rendered in.
	System string

	// Messages holds prior turns followed by the current question.
	// The last message is always from the user.
	Messages []Message

	// Temperature is the sampling temperature. Zero leaves the model default.
	Temperature float64

	// MaxTokens caps the length of the generated answer.
	MaxTokens int
}

// Generator produces text from an instruction, context and conversation.
// Implementations must be thread-safe for concurrent use.
type Generator interface {
	// Generate returns the model's reply to req.
	// Returns an error if the call fails or the model returns no text.
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages Embedder and Generator instances,
// ensuring they share configuration and resources appropriately.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Generator returns the text generation service.
	// The returned Generator is safe for concurrent use.
	Generator() Generator

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
