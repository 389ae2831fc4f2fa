package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type fakeModelChecker struct {
	available bool
	err       error
}

func (c fakeModelChecker) IsModelAvailable(context.Context, string) (bool, error) {
	return c.available, c.err
}

func TestHealthHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name       string
		db         Pinger
		models     ModelChecker
		method     string
		wantStatus int
		wantState  string
		wantChecks map[string]string
	}{
		{
			name:       "healthy",
			db:         fakePinger{},
			models:     fakeModelChecker{available: true},
			wantStatus: http.StatusOK,
			wantState:  "healthy",
			wantChecks: map[string]string{"database": "ok", "embedding_model": "ok"},
		},
		{
			name:       "model check skipped",
			db:         fakePinger{},
			wantStatus: http.StatusOK,
			wantState:  "healthy",
			wantChecks: map[string]string{"database": "ok", "embedding_model": "skipped"},
		},
		{
			name:       "model missing",
			db:         fakePinger{},
			models:     fakeModelChecker{available: false},
			wantStatus: http.StatusServiceUnavailable,
			wantState:  "degraded",
			wantChecks: map[string]string{"database": "ok", "embedding_model": "error"},
		},
		{
			name:       "embedding service down",
			db:         fakePinger{},
			models:     fakeModelChecker{err: errors.New("connection refused")},
			wantStatus: http.StatusServiceUnavailable,
			wantState:  "degraded",
		},
		{
			name:       "database down",
			db:         fakePinger{err: errors.New("database is closed")},
			models:     fakeModelChecker{available: true},
			wantStatus: http.StatusServiceUnavailable,
			wantState:  "unhealthy",
			wantChecks: map[string]string{"database": "error", "embedding_model": "ok"},
		},
		{
			name:       "method not allowed",
			db:         fakePinger{},
			method:     http.MethodPost,
			wantStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			h := NewHealthHandler(tt.db, tt.models, "nomic-embed-text")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(method, "/api/health", nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %v, want %v", w.Code, tt.wantStatus)
			}
			if tt.wantState == "" {
				return
			}

			var resp HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Status != tt.wantState {
				t.Errorf("Status = %q, want %q", resp.Status, tt.wantState)
			}
			for k, v := range tt.wantChecks {
				if resp.Checks[k] != v {
					t.Errorf("Checks[%s] = %q, want %q", k, resp.Checks[k], v)
				}
			}
			if resp.Status != "healthy" && len(resp.Issues) == 0 {
				t.Error("Issues should be set when not healthy")
			}
		})
	}
}
