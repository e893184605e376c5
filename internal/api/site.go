package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ashureev/softsell/internal/identity"
	"github.com/ashureev/softsell/internal/store"
	"github.com/go-chi/chi/v5"
)

const healthCheckTimeout = 5 * time.Second

// SiteHandler serves the informational endpoints used by the page.
type SiteHandler struct {
	repo   store.Repository
	config any
}

// NewSiteHandler creates a site handler. config is served verbatim by
// GET /api/config.
func NewSiteHandler(repo store.Repository, config any) *SiteHandler {
	return &SiteHandler{repo: repo, config: config}
}

// RegisterRoutes registers the visitor-scoped site routes.
func (h *SiteHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/me", h.GetMe)
	r.Get("/api/config", h.GetConfig)
}

// RegisterHealth registers the health check route.
func (h *SiteHandler) RegisterHealth(r chi.Router) {
	r.Get("/api/health", h.Health)
}

// GetMe returns the current visitor's identity.
func (h *SiteHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	visitorID := identity.VisitorIDFromContext(r.Context())
	visitor, err := h.repo.GetVisitor(r.Context(), visitorID)
	if err != nil {
		slog.Error("Failed to load visitor", "visitor_id", visitorID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to load visitor")
		return
	}
	if visitor == nil {
		Error(w, http.StatusNotFound, "visitor not found")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"visitor_id": visitor.VisitorID,
		"session_id": identity.SessionIDFromContext(r.Context()),
		"first_seen": visitor.CreatedAt.UTC().Format(time.RFC3339),
	})
}

// GetConfig returns the presentation configuration for the frontend.
func (h *SiteHandler) GetConfig(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, h.config)
}

// Health returns the health status of the API and its dependencies.
func (h *SiteHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	checks := map[string]string{"api": "ok"}
	status := "healthy"
	statusCode := http.StatusOK

	if err := h.repo.Ping(ctx); err != nil {
		slog.Error("Health check failed", "error", err)
		status = "degraded"
		checks["database"] = "unreachable"
		statusCode = http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	JSON(w, statusCode, map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}
