package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_ingester.go -package=mocks notechat/internal/service Ingester
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_source_counter.go -package=mocks notechat/internal/service SourceCounter
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_note_store.go -package=mocks notechat/internal/service NoteStore
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_notes_service.go -package=mocks notechat/internal/service NotesService

import (
	"context"
	"errors"
	"sync"
	"time"

	"notechat/internal/contextutil"
	"notechat/internal/indexer"
	"notechat/internal/llm"
	"notechat/internal/rag"
)

// Ingester runs one full ingestion.
// This interface is defined from the service layer's perspective (consumer-first).
type Ingester interface {
	Run(ctx context.Context) (indexer.Summary, error)
}

// SourceCounter reports how many records the record source holds.
type SourceCounter interface {
	Count(ctx context.Context) (int, error)
}

// NoteStore is the read side of the storage engine.
type NoteStore interface {
	CountNotes(ctx context.Context) (int, error)
	CountNotesWithoutChunks(ctx context.Context) (int, error)
	ChunkLengths(ctx context.Context) ([]int, error)
	ListFolders(ctx context.Context) ([]string, error)
}

// IngestionStatus describes the current or last ingestion run.
type IngestionStatus struct {
	Running    bool             `json:"running"`
	StartedAt  *time.Time       `json:"started_at,omitempty"`
	FinishedAt *time.Time       `json:"finished_at,omitempty"`
	Summary    *indexer.Summary `json:"summary,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// NotesService is the entry point used by the HTTP handlers, the CLI and the scheduler.
type NotesService interface {
	// RunFullIngestion clears the store and ingests every source record, blocking until done.
	RunFullIngestion(ctx context.Context) (indexer.Summary, error)
	// StartIngestion starts a full ingestion in the background.
	StartIngestion(ctx context.Context) error
	// Status returns the state of the current or last ingestion.
	Status() IngestionStatus
	// Wait blocks until background ingestions have finished.
	Wait()
	// Shutdown cancels a background ingestion and waits for it to return or
	// for ctx to expire, whichever comes first.
	Shutdown(ctx context.Context) error
	// CountSourceRecords asks the record source how many records it holds.
	CountSourceRecords(ctx context.Context) (int, error)
	// Query returns the stored chunks nearest to the query text.
	Query(ctx context.Context, req rag.QueryRequest) (rag.QueryResponse, error)
	// CountNotes returns the number of stored notes.
	CountNotes(ctx context.Context) (int, error)
	// ListFolders returns the distinct folder names, alphabetically.
	ListFolders(ctx context.Context) ([]string, error)
	// Stats returns chunk coverage statistics.
	Stats(ctx context.Context) (indexer.CoverageStats, error)
}

// notesService implements NotesService.
type notesService struct {
	ingester Ingester
	counter  SourceCounter
	store    NoteStore
	engine   rag.Engine
	chunker  *indexer.CharChunker
	model    string

	mu     sync.Mutex
	status IngestionStatus
	cancel context.CancelFunc // cancels the background ingestion, nil when none runs
	wg     sync.WaitGroup
}

// NewNotesService creates a new NotesService. chunker and model identify the
// index version reported by Stats.
func NewNotesService(
	ingester Ingester,
	counter SourceCounter,
	store NoteStore,
	engine rag.Engine,
	chunker *indexer.CharChunker,
	model string,
) NotesService {
	return &notesService{
		ingester: ingester,
		counter:  counter,
		store:    store,
		engine:   engine,
		chunker:  chunker,
		model:    model,
	}
}

// begin marks an ingestion as running, or reports that one already is.
func (s *notesService) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Running {
		return ErrIngestionRunning
	}
	now := time.Now()
	s.status = IngestionStatus{Running: true, StartedAt: &now, Summary: s.status.Summary}
	return nil
}

func (s *notesService) finish(summary indexer.Summary, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.cancel = nil
	s.status.Running = false
	s.status.FinishedAt = &now
	s.status.Summary = &summary
	s.status.Error = ""
	if err != nil {
		s.status.Error = err.Error()
	}
}

// RunFullIngestion runs an ingestion and waits for it.
func (s *notesService) RunFullIngestion(ctx context.Context) (indexer.Summary, error) {
	if err := s.begin(); err != nil {
		return indexer.Summary{}, err
	}
	return s.run(ctx)
}

func (s *notesService) run(ctx context.Context) (indexer.Summary, error) {
	logger := contextutil.LoggerFromContext(ctx)

	summary, err := s.ingester.Run(ctx)
	s.finish(summary, err)
	if err != nil {
		logger.ErrorContext(ctx, "ingestion failed", "run_id", summary.RunID, "error", err)
		return summary, WrapError(err, "ingestion failed")
	}
	return summary, nil
}

// StartIngestion starts an ingestion detached from ctx's cancellation; the
// logger carried by ctx is kept. Only Shutdown cancels it.
func (s *notesService) StartIngestion(ctx context.Context) error {
	if err := s.begin(); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.mu.Lock()
	s.cancel = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer cancel()
		_, _ = s.run(runCtx)
	}()
	return nil
}

// Wait blocks until background ingestions have finished.
func (s *notesService) Wait() {
	s.wg.Wait()
}

// Shutdown cancels the running background ingestion, if any, and waits for it.
func (s *notesService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status returns a snapshot of the ingestion status.
func (s *notesService) Status() IngestionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// CountSourceRecords asks the record source for its record count.
func (s *notesService) CountSourceRecords(ctx context.Context) (int, error) {
	n, err := s.counter.Count(ctx)
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to count source records", "error", err)
		return 0, externalError(err, "failed to count source records")
	}
	return n, nil
}

// Query validates the request and runs it on the retrieval engine.
func (s *notesService) Query(ctx context.Context, req rag.QueryRequest) (rag.QueryResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if req.Text == "" {
		logger.WarnContext(ctx, "empty query text")
		return rag.QueryResponse{}, &ValidationError{Field: "text", Message: "cannot be empty"}
	}
	if req.K < 0 {
		return rag.QueryResponse{}, &ValidationError{Field: "k", Message: "must not be negative"}
	}
	if req.MaxDistance < 0 {
		return rag.QueryResponse{}, &ValidationError{Field: "max_distance", Message: "must not be negative"}
	}

	resp, err := s.engine.Query(ctx, req)
	if err != nil {
		if errors.Is(err, rag.ErrEmptyQuery) {
			return rag.QueryResponse{}, &ValidationError{Field: "text", Message: "cannot be empty"}
		}
		if errors.Is(err, llm.ErrEmbeddingService) {
			return rag.QueryResponse{}, externalError(err, "failed to query notes")
		}
		return rag.QueryResponse{}, WrapError(err, "failed to query notes")
	}
	return resp, nil
}

// CountNotes returns the number of stored notes.
func (s *notesService) CountNotes(ctx context.Context) (int, error) {
	n, err := s.store.CountNotes(ctx)
	if err != nil {
		return 0, WrapError(err, "failed to count notes")
	}
	return n, nil
}

// ListFolders returns the stored folder names.
func (s *notesService) ListFolders(ctx context.Context) ([]string, error) {
	folders, err := s.store.ListFolders(ctx)
	if err != nil {
		return nil, WrapError(err, "failed to list folders")
	}
	return folders, nil
}

// Stats returns coverage statistics for the stored chunks.
func (s *notesService) Stats(ctx context.Context) (indexer.CoverageStats, error) {
	stats, err := indexer.GetCoverageStats(ctx, s.store, s.chunker, s.model)
	if err != nil {
		return indexer.CoverageStats{}, WrapError(err, "failed to compute coverage stats")
	}
	return *stats, nil
}

var _ NotesService = (*notesService)(nil)
