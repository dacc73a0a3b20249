package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"

	"codegraph/internal/query"
)

const classifierSystemPrompt = `You classify questions about a code knowledge graph.
Answer with a single JSON object, nothing else:
{"intent": "<label>", "confidence": <0..1>}
Labels: find_function, find_class, find_relations, find_path, stats, unknown.`

// Classify asks the chat model for the intent of a query. It satisfies
// the query engine's Classifier interface; the engine invokes it under
// its own timeout and falls back to rules on any error.
func (c *Client) Classify(ctx context.Context, text string) (query.Classification, error) {
	body := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.classifierModel),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(classifierSystemPrompt),
			openai.UserMessage(text),
		},
		Temperature: openai.Float(0),
	}

	response, err := c.api.Chat.Completions.New(ctx, body)
	if err != nil {
		return query.Classification{}, fmt.Errorf("classify intent: %w", err)
	}
	if len(response.Choices) == 0 {
		return query.Classification{}, fmt.Errorf("classify intent: empty response")
	}

	return parseClassification(response.Choices[0].Message.Content)
}

func parseClassification(content string) (query.Classification, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var cls query.Classification
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &cls); err != nil {
		return query.Classification{}, fmt.Errorf("parse classification %q: %w", content, err)
	}
	if cls.Confidence < 0 || cls.Confidence > 1 {
		return query.Classification{}, fmt.Errorf("classification confidence out of range: %v", cls.Confidence)
	}
	return cls, nil
}
