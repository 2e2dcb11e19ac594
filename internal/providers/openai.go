package providers

import (
	"context"
	"fmt"

	openai "github.com/meguminnnnnnnnn/go-openai"
)

// OpenAIClient implements Model against the OpenAI chat completion API and
// any OpenAI-compatible server (ollama, LM Studio, vLLM) via BaseURL.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates a client for the given model. baseURL may be
// empty for the hosted API.
func NewOpenAIClient(apiKey, modelName, baseURL string) *OpenAIClient {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(config),
		model:  modelName,
	}
}

// Generate sends the prompt as a single user message and returns the text
// of the first choice. Temperature stays at zero: perception and planning
// both want reproducible output.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	temperature := float32(0)
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: &temperature,
	})
	if err != nil {
		return "", fmt.Errorf("openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
