package providers

import (
	"fmt"
	"os"
)

// NewModelFromEnv builds a Model from environment variables. CURIO_PROVIDER
// selects the backend; each backend reads its own key/model variables.
// Defaults to openai.
func NewModelFromEnv() (Model, string, error) {
	provider := os.Getenv("CURIO_PROVIDER")
	if provider == "" {
		provider = "openai"
	}

	switch provider {
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, "", fmt.Errorf("OPENAI_API_KEY not set")
		}
		modelName := os.Getenv("OPENAI_MODEL")
		if modelName == "" {
			modelName = "gpt-4o-mini"
		}
		return NewOpenAIClient(apiKey, modelName, os.Getenv("OPENAI_BASE_URL")), modelName, nil

	case "anthropic":
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, "", fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
		modelName := os.Getenv("ANTHROPIC_MODEL")
		if modelName == "" {
			modelName = "claude-3-5-haiku-latest"
		}
		return NewAnthropicClient(apiKey, modelName), modelName, nil

	case "ollama":
		// Local OpenAI-compatible server; the key is a placeholder.
		baseURL := os.Getenv("OLLAMA_BASE_URL")
		if baseURL == "" {
			baseURL = "http://localhost:11434/v1"
		}
		modelName := os.Getenv("OLLAMA_MODEL")
		if modelName == "" {
			modelName = "llama3.1"
		}
		return NewOpenAIClient("ollama", modelName, baseURL), modelName, nil

	case "lmstudio":
		baseURL := os.Getenv("LMSTUDIO_BASE_URL")
		if baseURL == "" {
			baseURL = "http://localhost:1234/v1"
		}
		modelName := os.Getenv("LMSTUDIO_MODEL")
		if modelName == "" {
			modelName = "local-model"
		}
		return NewOpenAIClient("lm-studio", modelName, baseURL), modelName, nil

	default:
		return nil, "", fmt.Errorf("unknown CURIO_PROVIDER: %s (supported: openai, anthropic, ollama, lmstudio)", provider)
	}
}
