package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"notechat/internal/app"
	"notechat/internal/config"
	"notechat/internal/contextutil"
	"notechat/internal/http"
	"notechat/internal/service"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API ingests notes from the local notes application into a SQLite
// vector store and answers similarity queries over them.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: NoteChat API
//   description: |
//     Local retrieval API over your notes. Trigger a full re-ingestion, then
//     query the stored chunks by semantic similarity.
//   version: 1.0.0
// schemes:
//   - http
// consumes:
//   - application/json
// produces:
//   - application/json

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := app.NewLogger(cfg, os.Stdout)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel, "format", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer func() {
		_ = a.Close()
	}()

	deps := &http.Deps{
		NotesService:   a.Service,
		Notes:          a.Store,
		DB:             a.Store,
		EmbeddingModel: cfg.EmbeddingModelName,
	}
	if a.Models != nil {
		deps.Models = a.Models
	}
	router := http.NewRouter(deps)

	var scheduler *cron.Cron
	if cfg.IngestSchedule != "" {
		scheduler, err = startScheduler(ctx, cfg.IngestSchedule, a.Service)
		if err != nil {
			log.Fatalf("Failed to schedule ingestion: %v", err)
		}
	}

	addr := ":" + cfg.APIPort
	server := &nethttp.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Starting API server", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			log.Fatalf("API server failed to start: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	if scheduler != nil {
		<-scheduler.Stop().Done()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
	// A running ingestion holds the database; stop it before closing.
	ingestCtx, cancelIngest := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelIngest()
	if err := a.Service.Shutdown(ingestCtx); err != nil {
		slog.Error("Ingestion did not stop in time", "error", err)
	}
}

// startScheduler runs a background ingestion on spec. Ticks that fall while an
// ingestion is running are skipped.
func startScheduler(ctx context.Context, spec string, svc service.NotesService) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		runCtx := contextutil.WithLogger(ctx, slog.Default().With("trigger", "schedule"))
		if err := svc.StartIngestion(runCtx); err != nil {
			if errors.Is(err, service.ErrIngestionRunning) {
				slog.Info("Scheduled ingestion skipped, previous run still in progress")
				return
			}
			slog.Error("Scheduled ingestion failed to start", "error", err)
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	slog.Info("Ingestion scheduled", "schedule", spec)
	return c, nil
}
