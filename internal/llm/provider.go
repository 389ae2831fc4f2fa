package llm

import "fmt"

// Embedding providers accepted by NewEmbedder.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// NewEmbedder creates the embedder for provider.
func NewEmbedder(provider, baseURL, apiKey, model string, dimensions int) (Embedder, error) {
	switch provider {
	case ProviderOllama, "":
		return NewOllamaClient(baseURL, model, dimensions), nil
	case ProviderOpenAI:
		return NewOpenAIEmbedder(baseURL, apiKey, model, dimensions)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", provider)
	}
}
