package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"notechat/internal/handlers"
	"notechat/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	NotesService   service.NotesService
	Notes          handlers.NoteReader
	DB             handlers.Pinger
	Models         handlers.ModelChecker // nil skips the model health check
	EmbeddingModel string
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)

	ingestHandler := handlers.NewIngestHandler(deps.NotesService)
	ingestStatusHandler := handlers.NewIngestStatusHandler(deps.NotesService)
	queryHandler := handlers.NewQueryHandler(deps.NotesService)
	notesHandler := handlers.NewNotesHandler(deps.NotesService)
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Models, deps.EmbeddingModel)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodPost, "/ingest", ingestHandler)
		r.Method(http.MethodGet, "/ingest/status", ingestStatusHandler)
		r.Method(http.MethodPost, "/query", queryHandler)
		r.Method(http.MethodGet, "/health", healthHandler)
		r.Get("/source/count", notesHandler.CountSource)
		r.Get("/notes/count", notesHandler.CountNotes)
		r.Get("/folders", notesHandler.ListFolders)
		r.Get("/stats", notesHandler.Stats)
	})

	if deps.Notes != nil {
		r.Method(http.MethodGet, "/notes/*", handlers.NewNoteHandler(deps.Notes))
	}

	return r
}
