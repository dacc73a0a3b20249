// Package ai provides the OpenAI-backed strategies the query engine and
// hybrid search can optionally use: intent classification and text
// embeddings. The rest of the system works without it.
package ai

import (
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"codegraph/internal/config"
)

// Client wraps an OpenAI API client with the models configured for
// classification and embedding.
type Client struct {
	api             *openai.Client
	classifierModel string
	embeddingModel  string
}

// NewClient builds a client from engine configuration. It returns nil
// when no API key is configured; callers treat a nil client as "no AI
// available" and rely on their fallbacks.
func NewClient(cfg config.EngineConfig) *Client {
	if cfg.OpenAIKey == "" {
		return nil
	}
	api := openai.NewClient(option.WithAPIKey(cfg.OpenAIKey))
	return &Client{
		api:             &api,
		classifierModel: cfg.ClassifierModel,
		embeddingModel:  cfg.EmbeddingModel,
	}
}
