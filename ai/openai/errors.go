package openai

import "errors"

var (
	// ErrEmptyEmbedding is returned when the service returns no vector.
	ErrEmptyEmbedding = errors.New("embedding service returned an empty vector")

	// ErrEmbeddingCountMismatch is returned when a batch returns a different number of vectors than texts.
	ErrEmbeddingCountMismatch = errors.New("embedding count does not match input count")

	// ErrNoChoices is returned when the generation model returns no choices.
	ErrNoChoices = errors.New("model returned no choices")
)
