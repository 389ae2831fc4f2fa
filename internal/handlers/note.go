package handlers

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"notechat/internal/contextutil"
	"notechat/internal/storage"
)

// NoteReader loads a stored note and its chunks.
type NoteReader interface {
	GetNote(ctx context.Context, id string) (*storage.Note, error)
	ListChunksByNote(ctx context.Context, noteID string) ([]storage.Chunk, error)
}

// NoteHandler renders a stored note and its chunks as an HTML page.
type NoteHandler struct {
	notes    NoteReader
	template *template.Template
}

// notePageData holds template data for rendered note pages.
type notePageData struct {
	Title   string
	Folder  string
	Updated string
	Chunks  []storage.Chunk
}

var noteTemplate = template.Must(template.New("note").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}} - {{.Folder}}</title>
  <style>
    :root {
      color-scheme: dark;
    }
    body {
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif;
      margin: 0 auto;
      padding: 2rem;
      max-width: 900px;
      line-height: 1.7;
      background: #050b18;
      color: #e4ecff;
    }
    header {
      margin-bottom: 2rem;
      border-bottom: 1px solid rgba(148, 163, 184, 0.2);
      padding-bottom: 1.5rem;
    }
    h1 {
      margin-top: 0;
      color: #fff;
      font-size: 2rem;
    }
    section {
      background: rgba(12, 19, 35, 0.85);
      border: 1px solid rgba(99, 102, 241, 0.2);
      border-radius: 16px;
      padding: 1.5rem 2rem;
      margin-bottom: 1rem;
    }
    section h2 {
      color: #c7d2fe;
      font-size: 1rem;
      margin-top: 0;
    }
    pre {
      white-space: pre-wrap;
      font-family: inherit;
      color: #cbd5f5;
      margin: 0;
    }
    .meta {
      color: #94a3b8;
      font-size: 0.95rem;
      margin-top: 0.5rem;
    }
  </style>
</head>
<body>
  <header>
    <h1>{{.Title}}</h1>
    <p class="meta">Folder: {{.Folder}}{{if .Updated}} &middot; Updated: {{.Updated}}{{end}} &middot; {{len .Chunks}} chunks</p>
  </header>
  {{range .Chunks}}
  <section>
    <h2>Chunk {{.Index}} (#{{.ID}})</h2>
    <pre>{{.Content}}</pre>
  </section>
  {{end}}
</body>
</html>`))

// NewNoteHandler creates a new handler for viewing stored notes.
func NewNoteHandler(notes NoteReader) *NoteHandler {
	return &NoteHandler{
		notes:    notes,
		template: noteTemplate,
	}
}

// ServeHTTP renders the note whose ID is the rest of the path.
func (h *NoteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	rawID := chi.URLParam(r, "*")
	id, err := url.PathUnescape(rawID)
	if err != nil {
		http.Error(w, "invalid note id encoding", http.StatusBadRequest)
		return
	}
	id = strings.TrimSpace(id)
	if id == "" {
		http.Error(w, "note id is required", http.StatusBadRequest)
		return
	}

	note, err := h.notes.GetNote(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "note not found", http.StatusNotFound)
			return
		}
		logger.ErrorContext(ctx, "failed to load note", "note_id", id, "error", err)
		http.Error(w, "failed to load note", http.StatusInternalServerError)
		return
	}

	chunks, err := h.notes.ListChunksByNote(ctx, id)
	if err != nil {
		logger.ErrorContext(ctx, "failed to load chunks", "note_id", id, "error", err)
		http.Error(w, "failed to load note", http.StatusInternalServerError)
		return
	}

	pageData := notePageData{
		Title:  note.Title,
		Folder: note.FolderName,
		Chunks: chunks,
	}
	if !note.UpdatedAt.IsZero() {
		pageData.Updated = note.UpdatedAt.Local().Format(time.DateTime)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.template.Execute(w, pageData); err != nil {
		logger.ErrorContext(ctx, "failed to execute note template", "note_id", id, "error", err)
		http.Error(w, "failed to render note", http.StatusInternalServerError)
		return
	}
}
