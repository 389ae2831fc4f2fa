package handlers

import (
	"net/http"

	"notechat/internal/service"
)

// NotesHandler serves read-only information about the stored notes and the
// record source.
type NotesHandler struct {
	notesService service.NotesService
}

// NewNotesHandler creates a new NotesHandler.
func NewNotesHandler(notesService service.NotesService) *NotesHandler {
	return &NotesHandler{
		notesService: notesService,
	}
}

// CountResponse carries a single count.
//
// swagger:model CountResponse
type CountResponse struct {
	Count int `json:"count"`
}

// FoldersResponse lists folder names.
//
// swagger:model FoldersResponse
type FoldersResponse struct {
	Folders []string `json:"folders"`
}

// CountNotes handles GET /api/notes/count.
func (h *NotesHandler) CountNotes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	n, err := h.notesService.CountNotes(ctx)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to count notes")
		return
	}
	writeJSON(ctx, w, http.StatusOK, CountResponse{Count: n})
}

// CountSource handles GET /api/source/count.
func (h *NotesHandler) CountSource(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	n, err := h.notesService.CountSourceRecords(ctx)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to count source records")
		return
	}
	writeJSON(ctx, w, http.StatusOK, CountResponse{Count: n})
}

// ListFolders handles GET /api/folders.
func (h *NotesHandler) ListFolders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	folders, err := h.notesService.ListFolders(ctx)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to list folders")
		return
	}
	if folders == nil {
		folders = []string{}
	}
	writeJSON(ctx, w, http.StatusOK, FoldersResponse{Folders: folders})
}

// Stats handles GET /api/stats.
func (h *NotesHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.notesService.Stats(ctx)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to compute stats")
		return
	}
	writeJSON(ctx, w, http.StatusOK, stats)
}
