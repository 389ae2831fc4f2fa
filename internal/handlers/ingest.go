package handlers

import (
	"net/http"

	"notechat/internal/contextutil"
	"notechat/internal/service"
)

// IngestHandler handles HTTP requests for triggering a full re-ingestion.
type IngestHandler struct {
	notesService service.NotesService
}

// NewIngestHandler creates a new IngestHandler.
func NewIngestHandler(notesService service.NotesService) *IngestHandler {
	return &IngestHandler{
		notesService: notesService,
	}
}

// IngestResponse represents the response from the ingest endpoint.
//
// swagger:model IngestResponse
type IngestResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// ServeHTTP starts a full re-ingestion in the background.
//
// swagger:route POST /api/ingest ingest
//
// # Start a full re-ingestion
//
// Clears every stored note and ingests all records from the record source.
// Returns immediately; progress is reported by GET /api/ingest/status.
//
// ---
// produces:
// - application/json
// responses:
//
//	'202':
//	  description: Ingestion started
//	  schema:
//	    "$ref": "#/definitions/IngestResponse"
//	'409':
//	  description: An ingestion is already running
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	logger.InfoContext(ctx, "re-ingestion triggered via API")
	if err := h.notesService.StartIngestion(ctx); err != nil {
		handleServiceError(ctx, w, err, "Failed to start ingestion")
		return
	}

	writeJSON(ctx, w, http.StatusAccepted, IngestResponse{
		Message: "Ingestion started. Check /api/ingest/status for progress.",
		Status:  "accepted",
	})
}

// IngestStatusHandler reports the current or last ingestion.
type IngestStatusHandler struct {
	notesService service.NotesService
}

// NewIngestStatusHandler creates a new IngestStatusHandler.
func NewIngestStatusHandler(notesService service.NotesService) *IngestStatusHandler {
	return &IngestStatusHandler{
		notesService: notesService,
	}
}

// ServeHTTP writes the ingestion status.
//
// swagger:route GET /api/ingest/status ingestStatus
//
// # Ingestion status
//
// Returns whether an ingestion is running and the summary of the last run.
func (h *IngestStatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	writeJSON(ctx, w, http.StatusOK, h.notesService.Status())
}
