package anthropic

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/poiesic/lexrag/ai"
)

// defaultMaxTokens applies when a request leaves MaxTokens unset, since the
// Messages API requires it.
const defaultMaxTokens = 1024

var (
	// ErrAPIKeyRequired is returned when the config carries no Anthropic key.
	ErrAPIKeyRequired = errors.New("anthropic api key is required")

	// ErrNoText is returned when a response contains no text blocks.
	ErrNoText = errors.New("no text in model response")
)

// Generator implements ai.Generator using the Anthropic Messages API.
type Generator struct {
	client anthropic.Client
	model  string
	logger *slog.Logger
}

// NewGenerator creates a generator for config.GenerationModel.
//
// Returns ai.Generator interface to enforce abstraction.
func NewGenerator(config *ai.Config, opts ...option.RequestOption) (ai.Generator, error) {
	if config.AnthropicAPIKey == "" {
		return nil, ErrAPIKeyRequired
	}
	if config.GenerationModel == "" {
		return nil, errors.New("ai config: GenerationModel is required")
	}

	opts = append([]option.RequestOption{option.WithAPIKey(config.AnthropicAPIKey)}, opts...)
	return &Generator{
		client: anthropic.NewClient(opts...),
		model:  config.GenerationModel,
		logger: slog.Default().With("component", "anthropic-generator"),
	}, nil
}

// Generate sends the request with the system prompt split out of the
// message list and returns the concatenated text blocks.
func (g *Generator) Generate(ctx context.Context, req ai.GenerateRequest) (string, error) {
	params := buildParams(g.model, req)

	g.logger.Debug("generating answer", "model", g.model, "messages", len(params.Messages))

	resp, err := g.client.Messages.New(ctx, params)
	if err != nil {
		g.logger.Error("messages call failed", "err", err)
		return "", err
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", ErrNoText
	}
	return strings.TrimSpace(text.String()), nil
}

func buildParams(model string, req ai.GenerateRequest) anthropic.MessageNewParams {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, msg := range req.Messages {
		if msg.Role == ai.RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
			continue
		}
		messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages:  messages,
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	return params
}
