package preference

import (
	"log/slog"
	"net/http"

	"github.com/ashureev/softsell/internal/api"
	"github.com/ashureev/softsell/internal/identity"
	"github.com/go-chi/chi/v5"
)

// ThemeResponse reports the effective theme.
type ThemeResponse struct {
	DarkMode bool `json:"darkMode"`
}

// ThemeRequest sets the theme explicitly.
type ThemeRequest struct {
	DarkMode *bool `json:"darkMode"`
}

// Handler serves the theme preference endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a preference handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers preference routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/preferences/theme", func(r chi.Router) {
		r.Get("/", h.HandleGet)
		r.Put("/", h.HandlePut)
		r.Post("/toggle", h.HandleToggle)
	})
}

// HandleGet handles GET /api/preferences/theme.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Accept-CH", ColorSchemeHintHeader)
	w.Header().Add("Vary", ColorSchemeHintHeader)

	dark, err := h.svc.DarkMode(r.Context(), identity.VisitorIDFromContext(r.Context()), OSPrefersDark(r))
	if err != nil {
		slog.Error("Failed to load theme", "error", err)
		api.Error(w, http.StatusInternalServerError, "failed to load theme")
		return
	}
	api.JSON(w, http.StatusOK, ThemeResponse{DarkMode: dark})
}

// HandlePut handles PUT /api/preferences/theme.
func (h *Handler) HandlePut(w http.ResponseWriter, r *http.Request) {
	var req ThemeRequest
	if !api.DecodeJSON(w, r, &req) {
		return
	}
	if req.DarkMode == nil {
		api.Error(w, http.StatusBadRequest, "darkMode is required")
		return
	}

	if err := h.svc.SetDarkMode(r.Context(), identity.VisitorIDFromContext(r.Context()), *req.DarkMode); err != nil {
		slog.Error("Failed to save theme", "error", err)
		api.Error(w, http.StatusInternalServerError, "failed to save theme")
		return
	}
	api.JSON(w, http.StatusOK, ThemeResponse{DarkMode: *req.DarkMode})
}

// HandleToggle handles POST /api/preferences/theme/toggle.
func (h *Handler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	dark, err := h.svc.Toggle(r.Context(), identity.VisitorIDFromContext(r.Context()), OSPrefersDark(r))
	if err != nil {
		slog.Error("Failed to toggle theme", "error", err)
		api.Error(w, http.StatusInternalServerError, "failed to toggle theme")
		return
	}
	api.JSON(w, http.StatusOK, ThemeResponse{DarkMode: dark})
}
