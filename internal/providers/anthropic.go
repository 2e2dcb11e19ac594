package providers

import (
	"context"
	"fmt"

	anthropic "github.com/liushuangls/go-anthropic/v2"
)

// AnthropicClient implements Model against the Anthropic messages API.
type AnthropicClient struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicClient creates a client for the given model.
func NewAnthropicClient(apiKey, modelName string) *AnthropicClient {
	return &AnthropicClient{
		client: anthropic.NewClient(apiKey),
		model:  modelName,
	}
}

// Generate sends the prompt as a single user message and concatenates the
// text blocks of the response.
func (c *AnthropicClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model: anthropic.Model(c.model),
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(prompt),
		},
		MaxTokens: 2048,
	})
	if err != nil {
		return "", fmt.Errorf("anthropic completion failed: %w", err)
	}

	var out string
	for _, block := range resp.Content {
		if block.Text != nil {
			out += *block.Text
		}
	}
	if out == "" {
		return "", fmt.Errorf("anthropic returned no text content")
	}
	return out, nil
}
