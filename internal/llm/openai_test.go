package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openAIServer(t *testing.T, size int, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}
		vec := make([]float64, size)
		for i := range vec {
			vec[i] = 0.25
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  "test-model",
			"data": []map[string]any{
				{"object": "embedding", "index": 0, "embedding": vec},
			},
			"usage": map[string]int{"prompt_tokens": 1, "total_tokens": 1},
		})
	}))
}

func TestOpenAIEmbedder_Embed(t *testing.T) {
	server := openAIServer(t, 4, http.StatusOK)
	defer server.Close()

	e, err := NewOpenAIEmbedder(server.URL+"/v1", "", "test-model", 4)
	require.NoError(t, err)
	assert.Equal(t, "test-model", e.ModelName())

	vec, err := e.Embed(context.Background(), "Hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, 0.25, 0.25, 0.25}, vec)
}

func TestOpenAIEmbedder_Embed_Errors(t *testing.T) {
	tests := []struct {
		name   string
		size   int
		status int
	}{
		{name: "wrong vector size", size: 3, status: http.StatusOK},
		{name: "server error", size: 4, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := openAIServer(t, tt.size, tt.status)
			defer server.Close()

			e, err := NewOpenAIEmbedder(server.URL+"/v1", "key", "test-model", 4)
			require.NoError(t, err)

			_, err = e.Embed(context.Background(), "Hello")
			assert.True(t, errors.Is(err, ErrEmbeddingService), "error = %v", err)
		})
	}
}
