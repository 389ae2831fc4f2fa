package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// OpenAIEmbedder embeds through an OpenAI-compatible /v1/embeddings endpoint.
type OpenAIEmbedder struct {
	embedder     embeddings.Embedder
	model        string
	expectedSize int
}

var _ Embedder = (*OpenAIEmbedder)(nil)

// NewOpenAIEmbedder creates an embedder for baseURL (including the /v1 suffix).
// An empty apiKey is sent as "none" for local servers without authentication.
func NewOpenAIEmbedder(baseURL, apiKey, model string, expectedSize int) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		apiKey = "none"
	}
	client, err := openai.New(
		openai.WithBaseURL(baseURL),
		openai.WithToken(apiKey),
		openai.WithEmbeddingModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(false))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	return &OpenAIEmbedder{embedder: embedder, model: model, expectedSize: expectedSize}, nil
}

// ModelName returns the embedding model.
func (e *OpenAIEmbedder) ModelName() string {
	return e.model
}

// Embed generates the embedding for text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingService, err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("%w: expected 1 embedding, got %d", ErrEmbeddingService, len(vecs))
	}
	if len(vecs[0]) != e.expectedSize {
		return nil, fmt.Errorf("%w: embedding has size %d, expected %d", ErrEmbeddingService, len(vecs[0]), e.expectedSize)
	}
	return vecs[0], nil
}
