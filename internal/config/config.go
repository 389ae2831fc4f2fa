package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Vector index backends.
const (
	VectorBackendSQLite = "sqlite"
	VectorBackendQdrant = "qdrant"
)

// Config holds all configuration for the application.
type Config struct {
	DBPath    string
	APIPort   string
	LogLevel  string
	LogFormat string

	EmbeddingProvider   string
	EmbeddingBaseURL    string
	EmbeddingModelName  string
	EmbeddingAPIKey     string
	EmbeddingDimensions int
	EmbedWorkers        int
	EmbedCacheSize      int
	EmbedCacheTTL       time.Duration

	ChunkMaxChars int
	ChunkOverlap  int

	QueryDefaultK     int
	QueryMaxDistance  float64
	VectorBackend     string
	QdrantURL         string
	QdrantCollection  string
	QdrantAPIKey      string
	SourceCommand     []string // empty selects the built-in osascript extractor
	SourceCountCmd    []string
	SourceStream      string
	SourceBodyFormat  string
	IngestSchedule    string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates the result.
// If a .env file exists in the current directory or project root, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	// Check current directory first, then walk up to find project root
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break // Reached filesystem root
			}
			dir = parent
		}
	}

	cfg := &Config{
		DBPath:             getEnv("DB_PATH", "./data/notechat.db"),
		APIPort:            getEnv("API_PORT", "9000"),
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", "text")),
		EmbeddingProvider:  strings.ToLower(getEnv("EMBEDDING_PROVIDER", "ollama")),
		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", "http://localhost:11434"),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL_NAME", "nomic-embed-text"),
		EmbeddingAPIKey:    getEnv("EMBEDDING_API_KEY", ""),
		VectorBackend:      strings.ToLower(getEnv("VECTOR_BACKEND", VectorBackendSQLite)),
		QdrantURL:          getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection:   getEnv("QDRANT_COLLECTION", "notes"),
		QdrantAPIKey:       getEnv("QDRANT_API_KEY", ""),
		SourceCommand:      strings.Fields(getEnv("SOURCE_COMMAND", "")),
		SourceCountCmd:     strings.Fields(getEnv("SOURCE_COUNT_COMMAND", "")),
		SourceStream:       getEnv("SOURCE_STREAM", "stderr"),
		SourceBodyFormat:   getEnv("SOURCE_BODY_FORMAT", "html"),
		IngestSchedule:     getEnv("INGEST_SCHEDULE", ""),
	}

	ints := []struct {
		key  string
		def  int
		min  int
		dest *int
	}{
		{"EMBEDDING_DIMENSIONS", 768, 1, &cfg.EmbeddingDimensions},
		{"EMBED_WORKERS", 2, 1, &cfg.EmbedWorkers},
		{"EMBED_CACHE_SIZE", 256, 0, &cfg.EmbedCacheSize},
		{"CHUNK_MAX_CHARS", 500, 1, &cfg.ChunkMaxChars},
		{"CHUNK_OVERLAP", 50, 0, &cfg.ChunkOverlap},
		{"QUERY_DEFAULT_K", 5, 1, &cfg.QueryDefaultK},
	}
	for _, v := range ints {
		n, err := getEnvInt(v.key, v.def)
		if err != nil {
			return nil, err
		}
		if n < v.min {
			return nil, fmt.Errorf("%s must be at least %d", v.key, v.min)
		}
		*v.dest = n
	}

	maxDistance, err := strconv.ParseFloat(getEnv("QUERY_MAX_DISTANCE", "19"), 64)
	if err != nil {
		return nil, fmt.Errorf("QUERY_MAX_DISTANCE must be a valid number: %w", err)
	}
	if maxDistance <= 0 {
		return nil, fmt.Errorf("QUERY_MAX_DISTANCE must be greater than 0")
	}
	cfg.QueryMaxDistance = maxDistance

	cfg.EmbedCacheTTL, err = time.ParseDuration(getEnv("EMBED_CACHE_TTL", "10m"))
	if err != nil {
		return nil, fmt.Errorf("EMBED_CACHE_TTL must be a valid duration: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Create ./data directory if it doesn't exist
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.ChunkOverlap >= c.ChunkMaxChars {
		return fmt.Errorf("CHUNK_OVERLAP must be less than CHUNK_MAX_CHARS")
	}
	switch c.EmbeddingProvider {
	case "ollama", "openai":
	default:
		return fmt.Errorf("EMBEDDING_PROVIDER must be ollama or openai, got %q", c.EmbeddingProvider)
	}
	switch c.VectorBackend {
	case VectorBackendSQLite:
	case VectorBackendQdrant:
		if c.QdrantURL == "" || c.QdrantCollection == "" {
			return fmt.Errorf("QDRANT_URL and QDRANT_COLLECTION are required for the qdrant backend")
		}
	default:
		return fmt.Errorf("VECTOR_BACKEND must be %s or %s, got %q", VectorBackendSQLite, VectorBackendQdrant, c.VectorBackend)
	}
	switch c.SourceStream {
	case "stderr", "stdout":
	default:
		return fmt.Errorf("SOURCE_STREAM must be stderr or stdout, got %q", c.SourceStream)
	}
	switch c.SourceBodyFormat {
	case "html", "markdown":
	default:
		return fmt.Errorf("SOURCE_BODY_FORMAT must be html or markdown, got %q", c.SourceBodyFormat)
	}
	if (len(c.SourceCommand) == 0) != (len(c.SourceCountCmd) == 0) {
		return fmt.Errorf("SOURCE_COMMAND and SOURCE_COUNT_COMMAND must be set together")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// SlogLevel maps LOG_LEVEL to a slog level. Unknown values select info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return n, nil
}
