package ai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
)

// Embed produces one embedding vector for the given text using the
// configured embedding model.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	body := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: []string{text}},
		Model: openai.EmbeddingModel(c.embeddingModel),
	}

	response, err := c.api.Embeddings.New(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("generate embedding: %w", err)
	}
	if len(response.Data) != 1 {
		return nil, fmt.Errorf("unexpected embedding result size: got %d want 1", len(response.Data))
	}

	raw := response.Data[0].Embedding
	vector := make([]float32, len(raw))
	for i, v := range raw {
		vector[i] = float32(v)
	}
	return vector, nil
}
