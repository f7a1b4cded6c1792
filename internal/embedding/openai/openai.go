// Package openai provides an embedding provider backed by the OpenAI
// embeddings API.
package openai

import (
	"context"
	"fmt"
	"os"

	goopenai "github.com/sashabaranov/go-openai"

	"ragindex/internal/domain"
)

// Default configuration values.
const (
	DefaultModel     = "text-embedding-3-small"
	DefaultAPIKeyEnv = "OPENAI_API_KEY"
)

// modelDimensions maps known embedding models to their fixed vector
// lengths.
var modelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// Config configures the OpenAI embedding provider.
type Config struct {
	// APIKeyEnv names the environment variable holding the API key
	// (default: OPENAI_API_KEY).
	APIKeyEnv string

	// Model is the embedding model to use (default: text-embedding-3-small).
	Model string

	// BaseURL overrides the API endpoint for OpenAI-compatible servers.
	BaseURL string

	// Dimensions overrides the vector length for models not in the
	// built-in table.
	Dimensions int
}

// Client generates embeddings using the OpenAI API.
type Client struct {
	client *goopenai.Client
	model  string
	dim    int
}

// NewClient creates an OpenAI embedding provider. The API key is read
// from the configured environment variable.
func NewClient(cfg Config) (*Client, error) {
	env := cfg.APIKeyEnv
	if env == "" {
		env = DefaultAPIKeyEnv
	}
	key := os.Getenv(env)
	if key == "" {
		return nil, fmt.Errorf("%w: missing API key in env %s", domain.ErrMissingProvider, env)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	dim := cfg.Dimensions
	if dim == 0 {
		dim = modelDimensions[model]
	}
	if dim == 0 {
		return nil, fmt.Errorf("unknown dimensionality for model %s", model)
	}

	clientCfg := goopenai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Client{
		client: goopenai.NewClientWithConfig(clientCfg),
		model:  model,
		dim:    dim,
	}, nil
}

// Name returns the identifier of this provider.
func (c *Client) Name() string { return "openai/" + c.model }

// Dimension returns the embedding vector length.
func (c *Client) Dimension() int { return c.dim }

// Embed returns an embedding vector for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	resp, err := c.client.CreateEmbeddings(ctx, goopenai.EmbeddingRequest{
		Model: goopenai.EmbeddingModel(c.model),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai embeddings: empty response")
	}

	v32 := resp.Data[0].Embedding
	vec := make([]float64, len(v32))
	for i, v := range v32 {
		vec[i] = float64(v)
	}
	return vec, nil
}
