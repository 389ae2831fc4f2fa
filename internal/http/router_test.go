package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"notechat/internal/indexer"
	"notechat/internal/service"
	"notechat/internal/service/mocks"
	"notechat/internal/storage"
)

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

type emptyNotes struct{}

func (emptyNotes) GetNote(context.Context, string) (*storage.Note, error) {
	return nil, storage.ErrNotFound
}

func (emptyNotes) ListChunksByNote(context.Context, string) ([]storage.Chunk, error) {
	return nil, nil
}

func newTestRouter(t *testing.T) (http.Handler, *mocks.MockNotesService) {
	t.Helper()

	ctrl := gomock.NewController(t)
	mockNotesService := mocks.NewMockNotesService(ctrl)
	router := NewRouter(&Deps{
		NotesService:   mockNotesService,
		Notes:          emptyNotes{},
		DB:             okPinger{},
		EmbeddingModel: "nomic-embed-text",
	})
	if router == nil {
		t.Fatal("NewRouter() returned nil")
	}
	return router, mockNotesService
}

func TestRouter_Routes(t *testing.T) {
	router, svc := newTestRouter(t)

	svc.EXPECT().StartIngestion(gomock.Any()).Return(nil)
	svc.EXPECT().Status().Return(service.IngestionStatus{})
	svc.EXPECT().CountSourceRecords(gomock.Any()).Return(4, nil)
	svc.EXPECT().CountNotes(gomock.Any()).Return(3, nil)
	svc.EXPECT().ListFolders(gomock.Any()).Return([]string{"Notes"}, nil)
	svc.EXPECT().Stats(gomock.Any()).Return(indexer.CoverageStats{}, nil)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{name: "POST /api/ingest", method: http.MethodPost, path: "/api/ingest", wantStatus: http.StatusAccepted},
		{name: "GET /api/ingest/status", method: http.MethodGet, path: "/api/ingest/status", wantStatus: http.StatusOK},
		{name: "GET /api/source/count", method: http.MethodGet, path: "/api/source/count", wantStatus: http.StatusOK},
		{name: "GET /api/notes/count", method: http.MethodGet, path: "/api/notes/count", wantStatus: http.StatusOK},
		{name: "GET /api/folders", method: http.MethodGet, path: "/api/folders", wantStatus: http.StatusOK},
		{name: "GET /api/stats", method: http.MethodGet, path: "/api/stats", wantStatus: http.StatusOK},
		{name: "GET /api/health", method: http.MethodGet, path: "/api/health", wantStatus: http.StatusOK},
		{
			name:       "POST /api/query with invalid body",
			method:     http.MethodPost,
			path:       "/api/query",
			body:       "{",
			wantStatus: http.StatusBadRequest, // route exists, body rejected
		},
		{name: "GET /api/query method not allowed", method: http.MethodGet, path: "/api/query", wantStatus: http.StatusMethodNotAllowed},
		{name: "GET /api/ingest method not allowed", method: http.MethodGet, path: "/api/ingest", wantStatus: http.StatusMethodNotAllowed},
		{name: "GET /notes unknown note", method: http.MethodGet, path: "/notes/missing", wantStatus: http.StatusNotFound},
		{name: "unknown route", method: http.MethodGet, path: "/api/chat", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Router %s %s status = %v, want %v", tt.method, tt.path, w.Code, tt.wantStatus)
			}
		})
	}
}

func TestRouter_MiddlewareApplied(t *testing.T) {
	router, svc := newTestRouter(t)
	svc.EXPECT().CountNotes(gomock.Any()).Return(0, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/notes/count", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	// Check CORS headers are present
	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("Router should apply CORS middleware")
	}
}

func TestRouter_RecoversFromPanic(t *testing.T) {
	router, svc := newTestRouter(t)
	svc.EXPECT().CountNotes(gomock.Any()).DoAndReturn(func(context.Context) (int, error) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/notes/count", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status after panic = %v, want %v", w.Code, http.StatusInternalServerError)
	}
}
