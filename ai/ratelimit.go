package ai

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimitedEmbedder wraps an Embedder so that each call waits for a token
// from a shared limiter. A batch call counts as a single request.
type RateLimitedEmbedder struct {
	next    Embedder
	limiter *rate.Limiter
}

// NewRateLimitedEmbedder limits next to rps calls per second, allowing
// bursts of up to burst calls.
func NewRateLimitedEmbedder(next Embedder, rps float64, burst int) *RateLimitedEmbedder {
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedEmbedder{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// EmbedText waits for the limiter and then embeds text.
func (e *RateLimitedEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("embedding rate limit: %w", err)
	}
	return e.next.EmbedText(ctx, text)
}

// EmbedTexts waits for the limiter and then embeds every text in one call.
func (e *RateLimitedEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("embedding rate limit: %w", err)
	}
	return e.next.EmbedTexts(ctx, texts)
}

// WrapEmbedder applies the rate limit configured in cfg, if any.
func WrapEmbedder(embedder Embedder, cfg *Config) Embedder {
	if cfg == nil || cfg.EmbeddingRateLimit <= 0 {
		return embedder
	}
	return NewRateLimitedEmbedder(embedder, cfg.EmbeddingRateLimit, cfg.EmbeddingBurst)
}
