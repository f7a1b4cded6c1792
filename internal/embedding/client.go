// Package embedding wraps a raw embedding provider with the failure
// semantics the indexing engine relies on: truncated inputs, bounded
// request times, zero-vector fallbacks, and batch pacing.
package embedding

import (
	"context"
	"sync/atomic"
	"time"

	"ragindex/internal/domain"
	"ragindex/internal/logger"
)

// Provider is the raw transport to an embedding backend.
type Provider interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Default client tuning.
const (
	// DefaultMaxInputChars is a conservative character budget: token
	// accounting is approximate, so inputs are cut well below the
	// provider's hard limit.
	DefaultMaxInputChars = 8000

	// DefaultBatchSize is the number of texts embedded per batch.
	DefaultBatchSize = 5

	// DefaultBatchPause is the pause between batches. It is a
	// politeness mechanism toward the provider, not a correctness
	// requirement.
	DefaultBatchPause = 200 * time.Millisecond

	// DefaultRequestTimeout bounds a single provider call so one hung
	// request cannot stall indexing or search on a collection.
	DefaultRequestTimeout = 30 * time.Second
)

// Client implements domain.Embedder on top of a Provider.
type Client struct {
	provider      Provider
	maxInputChars int
	batchSize     int
	batchPause    time.Duration
	timeout       time.Duration
	failures      atomic.Int64
}

// Option configures the client.
type Option func(*Client)

// WithMaxInputChars sets the input character budget.
func WithMaxInputChars(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxInputChars = n
		}
	}
}

// WithBatchSize sets the number of texts per batch.
func WithBatchSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithBatchPause sets the pause between batches.
func WithBatchPause(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.batchPause = d
		}
	}
}

// WithRequestTimeout sets the per-request timeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewClient creates a resilient embedding client around the provider.
func NewClient(provider Provider, opts ...Option) *Client {
	c := &Client{
		provider:      provider,
		maxInputChars: DefaultMaxInputChars,
		batchSize:     DefaultBatchSize,
		batchPause:    DefaultBatchPause,
		timeout:       DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the underlying provider's identifier.
func (c *Client) Name() string { return c.provider.Name() }

// Dimension returns the fixed vector length of the selected model.
func (c *Client) Dimension() int { return c.provider.Dimension() }

// Failures reports how many provider calls have fallen back to a
// zero vector since the client was created.
func (c *Client) Failures() int64 { return c.failures.Load() }

// Embed requests an embedding for the text, truncating oversized
// input first. Any transport or protocol failure is recovered into a
// zero-vector fallback with Embedded=false rather than an error.
func (c *Client) Embed(ctx context.Context, text string) domain.EmbedResult {
	text = truncate(text, c.maxInputChars)

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	vec, err := c.provider.Embed(reqCtx, text)
	if err != nil || len(vec) == 0 {
		c.failures.Add(1)
		logger.Warn("embedding failed (%s): %v", c.provider.Name(), err)
		return domain.EmbedResult{Vector: make([]float64, c.provider.Dimension())}
	}
	return domain.EmbedResult{Vector: vec, Embedded: true}
}

// EmbedBatch embeds the texts in small batches with a short pause
// between batches. Each output position corresponds 1:1 with its
// input; one text's failure does not invalidate the rest. When the
// context is cancelled the remaining positions are returned as
// not-embedded fallbacks and already-finished work is kept.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) []domain.EmbedResult {
	results := make([]domain.EmbedResult, len(texts))
	for i := range results {
		results[i] = domain.EmbedResult{Vector: make([]float64, c.provider.Dimension())}
	}

	for start := 0; start < len(texts); start += c.batchSize {
		if ctx.Err() != nil {
			logger.Info("embed batch cancelled after %d/%d texts", start, len(texts))
			return results
		}
		end := start + c.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		for i := start; i < end; i++ {
			if ctx.Err() != nil {
				logger.Info("embed batch cancelled after %d/%d texts", i, len(texts))
				return results
			}
			results[i] = c.Embed(ctx, texts[i])
		}
		if end < len(texts) && c.batchPause > 0 {
			select {
			case <-ctx.Done():
				logger.Info("embed batch cancelled after %d/%d texts", end, len(texts))
				return results
			case <-time.After(c.batchPause):
			}
		}
	}
	return results
}

// truncate cuts s to at most max bytes without splitting a UTF-8
// sequence mid-rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return s[:cut]
}
