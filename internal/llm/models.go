package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ModelChecker asks an Ollama server which models it has pulled.
type ModelChecker struct {
	baseURL string
	client  *http.Client
}

// NewModelChecker creates a new model checker.
func NewModelChecker(baseURL string) *ModelChecker {
	return &ModelChecker{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// ModelTag represents one entry of the /api/tags response.
type ModelTag struct {
	Name  string `json:"name"`
	Model string `json:"model"`
}

// TagsResponse represents the response from the /api/tags endpoint.
type TagsResponse struct {
	Models []ModelTag `json:"models"`
}

// IsModelAvailable reports whether modelName has been pulled. A name without a
// tag matches any tag of that model, so "nomic-embed-text" matches
// "nomic-embed-text:latest".
func (mc *ModelChecker) IsModelAvailable(ctx context.Context, modelName string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/api/tags", mc.baseURL), nil)
	if err != nil {
		return false, fmt.Errorf("failed to create tags request: %w", err)
	}

	resp, err := mc.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: failed to list models: %v", ErrEmbeddingService, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return false, fmt.Errorf("%w: bad status %d: %s", ErrEmbeddingService, resp.StatusCode, string(raw))
	}

	var tags TagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return false, fmt.Errorf("%w: failed to decode tags response: %v", ErrEmbeddingService, err)
	}

	for _, m := range tags.Models {
		for _, name := range []string{m.Name, m.Model} {
			if name == modelName {
				return true, nil
			}
			if !strings.Contains(modelName, ":") && strings.HasPrefix(name, modelName+":") {
				return true, nil
			}
		}
	}
	return false, nil
}
