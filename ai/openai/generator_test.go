package openai

import (
	"testing"

	"github.com/poiesic/lexrag/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

func TestMessageContent(t *testing.T) {
	content := messageContent(ai.GenerateRequest{
		System: "Answer from context.",
		Messages: []ai.Message{
			{Role: ai.RoleUser, Content: "What is a unit?"},
			{Role: ai.RoleAssistant, Content: "A unit is part of the property."},
			{Role: ai.RoleUser, Content: "Who manages it?"},
		},
	})

	require.Len(t, content, 4)
	assert.Equal(t, llms.ChatMessageTypeSystem, content[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, content[1].Role)
	assert.Equal(t, llms.ChatMessageTypeAI, content[2].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, content[3].Role)
	assert.Equal(t, llms.TextPart("Who manages it?"), content[3].Parts[0])
}

func TestMessageContent_NoSystem(t *testing.T) {
	content := messageContent(ai.GenerateRequest{
		Messages: []ai.Message{{Role: ai.RoleUser, Content: "hello"}},
	})

	require.Len(t, content, 1)
	assert.Equal(t, llms.ChatMessageTypeHuman, content[0].Role)
}

func TestNewProvider_InvalidConfig(t *testing.T) {
	_, err := NewProvider(&ai.Config{})
	assert.Error(t, err)
}

func TestNewProvider(t *testing.T) {
	provider, err := NewProvider(ai.NewConfig(ai.WithEmbeddingRateLimit(10, 1)))
	require.NoError(t, err)
	defer provider.Close()

	assert.NotNil(t, provider.Generator())
	assert.IsType(t, &ai.RateLimitedEmbedder{}, provider.Embedder())
}

func TestAPIToken(t *testing.T) {
	assert.Equal(t, "none", apiToken(ai.DefaultConfig()))
	assert.Equal(t, "sk-1", apiToken(ai.NewConfig(ai.WithAPIKey("sk-1"))))
}
