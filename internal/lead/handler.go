package lead

import (
	"log/slog"
	"net/http"

	"github.com/ashureev/softsell/internal/api"
	"github.com/ashureev/softsell/internal/domain"
	"github.com/ashureev/softsell/internal/identity"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// SubmitResponse is returned for an accepted lead.
type SubmitResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// ValidateResponse is returned by the dry-run validation endpoint.
type ValidateResponse struct {
	Valid  bool              `json:"valid"`
	Errors domain.FormErrors `json:"errors"`
}

// LicenseOption is one entry of the license type dropdown.
type LicenseOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Handler serves the contact form endpoints.
type Handler struct {
	submitter Submitter
}

// NewHandler creates a lead handler delivering accepted leads to submitter.
func NewHandler(submitter Submitter) *Handler {
	return &Handler{submitter: submitter}
}

// RegisterRoutes registers lead routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/leads", h.HandleSubmit)
	r.Post("/api/leads/validate", h.HandleValidate)
	r.Get("/api/license-types", h.HandleLicenseTypes)
}

// HandleSubmit handles POST /api/leads.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var data domain.LeadFormData
	if !api.DecodeJSON(w, r, &data) {
		return
	}

	visitorID := identity.VisitorIDFromContext(r.Context())
	lead, errs, err := FormFrom(data).Submit(r.Context(), h.submitter, visitorID)
	if err != nil {
		slog.Error("Lead submission failed",
			"visitor_id", visitorID,
			"request_id", chiMiddleware.GetReqID(r.Context()),
			"error", err,
		)
		api.Error(w, http.StatusBadGateway, "failed to submit form, please try again")
		return
	}
	if !errs.Valid() {
		api.ValidationError(w, errs)
		return
	}

	api.JSON(w, http.StatusCreated, SubmitResponse{ID: lead.ID, Message: AcknowledgementMessage})
}

// HandleValidate handles POST /api/leads/validate. Nothing is submitted.
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	var data domain.LeadFormData
	if !api.DecodeJSON(w, r, &data) {
		return
	}
	errs := Validate(data)
	api.JSON(w, http.StatusOK, ValidateResponse{Valid: errs.Valid(), Errors: errs})
}

// HandleLicenseTypes handles GET /api/license-types.
func (h *Handler) HandleLicenseTypes(w http.ResponseWriter, _ *http.Request) {
	api.JSON(w, http.StatusOK, LicenseOptions())
}

// LicenseOptions returns the dropdown entries in display order.
func LicenseOptions() []LicenseOption {
	opts := make([]LicenseOption, 0, len(domain.LicenseTypes))
	for _, lt := range domain.LicenseTypes {
		opts = append(opts, LicenseOption{Value: string(lt), Label: lt.Label()})
	}
	return opts
}
