package llm

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embedder.go -package=mocks notechat/internal/llm Embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultOllamaURL is the local Ollama server.
	DefaultOllamaURL = "http://localhost:11434"
	// DefaultEmbeddingModel produces DefaultDimensions-sized vectors.
	DefaultEmbeddingModel = "nomic-embed-text"
	// DefaultDimensions is the vector size of DefaultEmbeddingModel.
	DefaultDimensions = 768
)

// ErrEmbeddingService is wrapped by every error caused by the embedding service.
var ErrEmbeddingService = errors.New("embedding service error")

// Embedder turns a text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	ModelName() string
}

// OllamaClient is a client for the Ollama embeddings API.
type OllamaClient struct {
	BaseURL      string
	Model        string
	ExpectedSize int // Expected vector size for validation
	client       *http.Client
}

var _ Embedder = (*OllamaClient)(nil)

// NewOllamaClient creates a new Ollama embeddings client.
// All vectors returned by Embed are validated against expectedSize.
func NewOllamaClient(baseURL, model string, expectedSize int) *OllamaClient {
	return &OllamaClient{
		BaseURL:      baseURL,
		Model:        model,
		ExpectedSize: expectedSize,
		client:       &http.Client{Timeout: 2 * time.Minute},
	}
}

// OllamaEmbeddingRequest represents the request payload for /api/embeddings.
type OllamaEmbeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// OllamaEmbeddingResponse represents the response from /api/embeddings.
type OllamaEmbeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

// ModelName returns the embedding model.
func (c *OllamaClient) ModelName() string {
	return c.Model
}

// Embed generates the embedding for text. The request is not retried.
func (c *OllamaClient) Embed(ctx context.Context, text string) ([]float32, error) {
	url := fmt.Sprintf("%s/api/embeddings", c.BaseURL)

	body, err := json.Marshal(OllamaEmbeddingRequest{Model: c.Model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to send request: %v", ErrEmbeddingService, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: bad status %d: %s", ErrEmbeddingService, resp.StatusCode, string(raw))
	}

	var embResp OllamaEmbeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&embResp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrEmbeddingService, err)
	}

	return toFloat32(embResp.Embedding, c.ExpectedSize)
}

// toFloat32 converts a decoded vector and validates its size.
func toFloat32(values []float64, expectedSize int) ([]float32, error) {
	if len(values) != expectedSize {
		return nil, fmt.Errorf("%w: embedding has size %d, expected %d", ErrEmbeddingService, len(values), expectedSize)
	}
	vec := make([]float32, len(values))
	for i, v := range values {
		vec[i] = float32(v)
	}
	return vec, nil
}
