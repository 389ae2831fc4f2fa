package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"notechat/internal/contextutil"
	"notechat/internal/rag"
	"notechat/internal/service"
)

// QueryHandler handles HTTP requests for similarity queries.
type QueryHandler struct {
	notesService service.NotesService
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(notesService service.NotesService) *QueryHandler {
	return &QueryHandler{
		notesService: notesService,
	}
}

// QueryRequest represents the HTTP request payload for similarity queries.
// This mirrors rag.QueryRequest but is defined here for HTTP layer separation.
//
// swagger:model QueryRequest
type QueryRequest struct {
	Text        string  `json:"text"`
	K           int     `json:"k,omitempty"`
	MaxDistance float64 `json:"max_distance,omitempty"`
	Folder      string  `json:"folder,omitempty"`
}

// QueryResponse represents the HTTP response payload for similarity queries.
//
// swagger:model QueryResponse
type QueryResponse struct {
	// Chunks nearest to the query, nearest first
	Results []ChunkResponse `json:"results"`

	// K actually used for the search
	K int `json:"k"`

	// Distance threshold actually used for the search
	MaxDistance float64 `json:"max_distance"`

	// Time spent embedding and searching (milliseconds)
	LatencyMs int64 `json:"latency_ms"`
}

// ChunkResponse represents one retrieved chunk.
//
// swagger:model ChunkResponse
type ChunkResponse struct {
	ChunkID       int64   `json:"chunk_id"`
	NoteID        string  `json:"note_id"`
	NoteTitle     string  `json:"note_title"`
	FolderName    string  `json:"folder_name"`
	NoteUpdatedAt string  `json:"note_updated_at,omitempty"`
	ChunkIndex    int     `json:"chunk_index"`
	Content       string  `json:"content"`
	Distance      float64 `json:"distance"`
	Rank          int     `json:"rank"`
}

// ServeHTTP handles HTTP requests for similarity queries.
//
// swagger:route POST /api/query query
//
// # Query stored notes
//
// Embeds the query text and returns the nearest stored chunks below the
// distance threshold.
//
// ---
// consumes:
// - application/json
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Nearest chunks
//	  schema:
//	    "$ref": "#/definitions/QueryResponse"
//	'400':
//	  description: Invalid request
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'502':
//	  description: Embedding service unavailable
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *QueryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	start := time.Now()
	svcResp, err := h.notesService.Query(ctx, rag.QueryRequest{
		Text:        req.Text,
		K:           req.K,
		MaxDistance: req.MaxDistance,
		Folder:      req.Folder,
	})
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to process query")
		return
	}

	resp := QueryResponse{
		Results:     make([]ChunkResponse, 0, len(svcResp.Results)),
		K:           svcResp.K,
		MaxDistance: svcResp.MaxDistance,
		LatencyMs:   time.Since(start).Milliseconds(),
	}
	for _, res := range svcResp.Results {
		chunk := ChunkResponse{
			ChunkID:    res.ChunkID,
			NoteID:     res.NoteID,
			NoteTitle:  res.NoteTitle,
			FolderName: res.FolderName,
			ChunkIndex: res.ChunkIndex,
			Content:    res.Content,
			Distance:   res.Distance,
			Rank:       res.Rank,
		}
		if !res.NoteUpdatedAt.IsZero() {
			chunk.NoteUpdatedAt = res.NoteUpdatedAt.Format(time.RFC3339)
		}
		resp.Results = append(resp.Results, chunk)
	}

	writeJSON(ctx, w, http.StatusOK, resp)
}
