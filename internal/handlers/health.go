package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"notechat/internal/contextutil"
)

// Pinger checks that the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ModelChecker checks that the embedding model is served.
type ModelChecker interface {
	IsModelAvailable(ctx context.Context, model string) (bool, error)
}

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	db                 Pinger
	models             ModelChecker
	embeddingModel     string
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler. models may be nil when the
// embedding provider offers no model listing; that check is then skipped.
func NewHealthHandler(db Pinger, models ModelChecker, embeddingModel string) *HealthHandler {
	return &HealthHandler{
		db:                 db,
		models:             models,
		embeddingModel:     embeddingModel,
		healthCheckTimeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
//
// swagger:model HealthResponse
type HealthResponse struct {
	// Overall health status: "healthy", "degraded", or "unhealthy"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Individual check results
	Checks map[string]string `json:"checks"`

	// List of issues (only present if status is degraded or unhealthy)
	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP handles HTTP requests for health checks.
//
// Check the health status of the system and its dependencies.
// Returns 200 OK if healthy, 503 Service Unavailable if degraded or unhealthy.
//
// swagger:route GET /api/health healthCheck
//
// # Health check endpoint
//
// Returns the health status of the system including the database and the embedding service.
//
// ---
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: System is healthy
//	  schema:
//	    "$ref": "#/definitions/HealthResponse"
//	'503':
//	  description: System is degraded or unhealthy
//	  schema:
//	    "$ref": "#/definitions/HealthResponse"
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	// Create context with timeout for health checks
	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	checks := make(map[string]string)
	var issues []string

	dbOK := h.checkDatabase(checkCtx, logger)
	if dbOK {
		checks["database"] = "ok"
	} else {
		checks["database"] = "error"
		issues = append(issues, "database_unavailable")
	}

	embeddingOK := true
	switch {
	case h.models == nil:
		checks["embedding_model"] = "skipped"
	case h.checkEmbeddingModel(checkCtx, logger):
		checks["embedding_model"] = "ok"
	default:
		embeddingOK = false
		checks["embedding_model"] = "error"
		issues = append(issues, "embedding_model_unavailable")
	}

	status := "healthy"
	httpStatus := http.StatusOK
	switch {
	case !dbOK:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	case !embeddingOK:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}

	if len(issues) > 0 {
		response.Issues = issues
	}

	writeJSON(ctx, w, httpStatus, response)
}

// checkDatabase checks if the database is accessible.
func (h *HealthHandler) checkDatabase(ctx context.Context, logger *slog.Logger) bool {
	if err := h.db.Ping(ctx); err != nil {
		logger.WarnContext(ctx, "database health check failed", "error", err)
		return false
	}
	return true
}

// checkEmbeddingModel checks if the embedding model is available.
func (h *HealthHandler) checkEmbeddingModel(ctx context.Context, logger *slog.Logger) bool {
	ok, err := h.models.IsModelAvailable(ctx, h.embeddingModel)
	if err != nil {
		logger.WarnContext(ctx, "embedding service health check failed", "error", err)
		return false
	}
	if !ok {
		logger.WarnContext(ctx, "embedding model not available", "model", h.embeddingModel)
		return false
	}
	return true
}
