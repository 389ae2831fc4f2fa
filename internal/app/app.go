// Package app assembles the storage engine, pipeline and query engine from
// configuration. It is shared by the API server and the notectl CLI.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	"notechat/internal/config"
	"notechat/internal/indexer"
	"notechat/internal/llm"
	"notechat/internal/rag"
	"notechat/internal/service"
	"notechat/internal/source"
	"notechat/internal/storage"
	"notechat/internal/vectorstore"
)

// App holds the wired components.
type App struct {
	Config   *config.Config
	DB       *sql.DB
	Store    *storage.Store
	Pipeline *indexer.Pipeline
	Service  service.NotesService
	// Models lists the models served by the embedding provider. It is nil
	// for providers without a model listing.
	Models *llm.ModelChecker

	closers []io.Closer
}

// NewLogger builds the process logger from the LOG_LEVEL and LOG_FORMAT settings.
func NewLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// New opens the database and wires every component described by cfg.
// The caller must Close the returned App.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	a := &App{Config: cfg}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	db, err := storage.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.DB = db
	a.closers = append(a.closers, db)

	if err := storage.Migrate(db, cfg.EmbeddingDimensions); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.InfoContext(ctx, "database initialized", "path", cfg.DBPath)

	var index storage.VectorIndex
	if cfg.VectorBackend == config.VectorBackendQdrant {
		qdrantIndex, err := vectorstore.NewQdrantIndex(cfg.QdrantURL, cfg.QdrantAPIKey, cfg.QdrantCollection, cfg.EmbeddingDimensions)
		if err != nil {
			return nil, fmt.Errorf("failed to create qdrant index: %w", err)
		}
		a.closers = append(a.closers, qdrantIndex)
		if err := qdrantIndex.EnsureCollection(ctx); err != nil {
			return nil, fmt.Errorf("failed to ensure qdrant collection: %w", err)
		}
		logger.InfoContext(ctx, "qdrant collection ready",
			"collection", cfg.QdrantCollection,
			"vector_size", cfg.EmbeddingDimensions,
		)
		index = qdrantIndex
	}

	store, err := storage.NewStore(ctx, db, index)
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	if _, err := store.CheckTables(ctx, logger); err != nil {
		return nil, fmt.Errorf("failed to check tables: %w", err)
	}
	a.Store = store

	embedder, err := llm.NewEmbedder(cfg.EmbeddingProvider, cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModelName, cfg.EmbeddingDimensions)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	if cfg.EmbeddingProvider == llm.ProviderOllama {
		a.Models = llm.NewModelChecker(cfg.EmbeddingBaseURL)
	}

	runnerCfg := source.DefaultRunnerConfig()
	if len(cfg.SourceCommand) > 0 {
		runnerCfg.ExtractCommand = cfg.SourceCommand
		runnerCfg.CountCommand = cfg.SourceCountCmd
	}
	runnerCfg.Stream = cfg.SourceStream
	runner, err := source.NewRunner(runnerCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create record source: %w", err)
	}

	pipeline, err := indexer.NewPipeline(store, embedder, runner,
		indexer.WithWindow(cfg.ChunkMaxChars, cfg.ChunkOverlap),
		indexer.WithEmbedWorkers(cfg.EmbedWorkers),
		indexer.WithBodyFormat(cfg.SourceBodyFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}
	a.Pipeline = pipeline

	queryEmbedder := embedder
	if cfg.EmbedCacheSize > 0 {
		queryEmbedder = llm.NewCachedEmbedder(embedder, cfg.EmbedCacheSize, cfg.EmbedCacheTTL)
	}
	engine := rag.NewEngine(queryEmbedder, store, cfg.QueryDefaultK, cfg.QueryMaxDistance)

	a.Service = service.NewNotesService(pipeline, runner, store, engine, pipeline.Chunker(), embedder.ModelName())
	logger.InfoContext(ctx, "notes service initialized",
		"embedding_provider", cfg.EmbeddingProvider,
		"embedding_model", cfg.EmbeddingModelName,
		"vector_backend", cfg.VectorBackend,
	)
	return a, nil
}

// Close releases the vector index and the database, in reverse order of opening.
func (a *App) Close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}
