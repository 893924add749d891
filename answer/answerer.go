package answer

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/poiesic/lexrag/ai"
	"github.com/poiesic/lexrag/core"
	"github.com/poiesic/lexrag/retrieval"
)

const (
	// DefaultDocumentName names the source document in the instruction.
	DefaultDocumentName = "Ontario Condominium Act"

	// DefaultTemperature keeps answers close to the grounding context.
	DefaultTemperature = 0.1

	// DefaultTimeout bounds a single generation call.
	DefaultTimeout = 60 * time.Second

	// DefaultFallback is returned when retrieval finds nothing relevant.
	DefaultFallback = "I apologize, but I could not find specific information about that in the Condominium Act. " +
		"Could you try rephrasing your question or being more specific about what aspect of condominium " +
		"governance you are interested in?"
)

// Retriever returns ranked chunks for a query.
// *retrieval.Engine satisfies it.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]core.SearchResult, error)
}

// Response is a generated answer with the chunks that grounded it.
type Response struct {
	Answer  string
	Sources []core.SearchResult
	// Fallback is set when no context was found and Answer is the fallback message.
	Fallback bool
}

// Answerer answers questions from retrieved context.
type Answerer struct {
	retriever   Retriever
	generator   ai.Generator
	opts        TemplateOptions
	document    string
	template    *Template
	fallback    string
	temperature float64
	k           int
	timeout     time.Duration
	logger      *slog.Logger
}

// Option configures an Answerer.
type Option func(*Answerer) error

// WithTemplateOptions sets tone, citation style, max tokens and max bullets.
// Default is DefaultTemplateOptions().
func WithTemplateOptions(opts TemplateOptions) Option {
	return func(a *Answerer) error {
		a.opts = opts
		return nil
	}
}

// WithDocumentName sets how the instruction refers to the source document.
func WithDocumentName(name string) Option {
	return func(a *Answerer) error {
		a.document = name
		return nil
	}
}

// WithFallback sets the message returned when no context is found.
// Default is DefaultFallback.
func WithFallback(message string) Option {
	return func(a *Answerer) error {
		if strings.TrimSpace(message) != "" {
			a.fallback = message
		}
		return nil
	}
}

// WithTemperature sets the sampling temperature.
// Default is DefaultTemperature.
func WithTemperature(temperature float64) Option {
	return func(a *Answerer) error {
		if temperature < 0 || temperature > 2 {
			return ErrInvalidTemperature
		}
		a.temperature = temperature
		return nil
	}
}

// WithResultCount sets how many chunks ground each answer.
// Zero uses the retriever's default.
func WithResultCount(k int) Option {
	return func(a *Answerer) error {
		a.k = k
		return nil
	}
}

// WithTimeout bounds each generation call. Zero disables the bound.
// Default is DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(a *Answerer) error {
		if d < 0 {
			return ErrInvalidTimeout
		}
		a.timeout = d
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Answerer) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
		return nil
	}
}

// NewAnswerer creates a new answerer.
func NewAnswerer(retriever Retriever, generator ai.Generator, opts ...Option) (*Answerer, error) {
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}
	if generator == nil {
		return nil, ErrGeneratorRequired
	}

	a := &Answerer{
		retriever:   retriever,
		generator:   generator,
		opts:        DefaultTemplateOptions(),
		document:    DefaultDocumentName,
		fallback:    DefaultFallback,
		temperature: DefaultTemperature,
		timeout:     DefaultTimeout,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}

	tmpl, err := NewTemplate(a.document, a.opts)
	if err != nil {
		return nil, err
	}
	a.template = tmpl
	a.logger = a.logger.With("component", "answerer")

	return a, nil
}

// Answer retrieves context for question and asks the generator to answer it.
// history holds prior turns, oldest first.
//
// When retrieval finds nothing relevant the fallback message is returned
// and the generator is not called. Retrieval and generation failures are
// returned as errors.
func (a *Answerer) Answer(ctx context.Context, question string, history []ai.Message) (Response, error) {
	if strings.TrimSpace(question) == "" {
		return Response{}, ErrEmptyQuestion
	}

	results, err := a.retriever.Retrieve(ctx, question, a.k)
	if errors.Is(err, retrieval.ErrEmptyContext) {
		a.logger.Info("no relevant context found, returning fallback")
		return Response{Answer: a.fallback, Fallback: true}, nil
	}
	if err != nil {
		return Response{}, err
	}

	system, err := a.template.Render(retrieval.BuildContext(results))
	if err != nil {
		return Response{}, err
	}

	messages := make([]ai.Message, 0, len(history)+1)
	for _, m := range history {
		if strings.TrimSpace(m.Content) != "" {
			messages = append(messages, m)
		}
	}
	messages = append(messages, ai.Message{Role: ai.RoleUser, Content: question})

	genCtx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	text, err := a.generator.Generate(genCtx, ai.GenerateRequest{
		System:      system,
		Messages:    messages,
		Temperature: a.temperature,
		MaxTokens:   a.opts.MaxTokens,
	})
	if err != nil {
		a.logger.Error("error generating answer", "err", err)
		return Response{}, core.NewProviderError("generate", err)
	}

	a.logger.Debug("answer generated", "sources", len(results), "history", len(history))
	return Response{Answer: strings.TrimSpace(text), Sources: slices.Clone(results)}, nil
}
