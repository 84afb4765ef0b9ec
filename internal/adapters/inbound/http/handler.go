// handler.go provides the HTTP REST API for offers and applications.
//
// Routes (a trailing slash is accepted on collection routes):
//   - POST /api/offers                                    create an offer
//   - GET  /api/offers                                    list offers
//   - GET  /api/offers/{jobTitle}                         get an offer
//   - GET  /api/offers/{jobTitle}/applications            list its applications
//   - GET  /api/offers/{jobTitle}/applications-count      count its applications
//   - POST /api/applications                              create an application
//   - PUT  /api/applications                              change an application's status
//   - GET  /api/applications/count                        count all applications
//   - GET  /api/applications/{jobTitle}/{candidateEmail}  get an application
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/archon-research/recruitment/internal/domain/entity"
	"github.com/archon-research/recruitment/internal/ports/inbound"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Handler implements HTTP handlers for the API.
type Handler struct {
	service inbound.RecruitmentService
	logger  *slog.Logger
}

// NewHandler creates a new HTTP handler with the given service.
func NewHandler(service inbound.RecruitmentService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service: service,
		logger:  logger.With("component", "http-handler"),
	}
}

// RegisterRoutes registers the HTTP routes with the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/offers", h.CreateOffer)
	mux.HandleFunc("POST /api/offers/{$}", h.CreateOffer)
	mux.HandleFunc("GET /api/offers", h.ListOffers)
	mux.HandleFunc("GET /api/offers/{$}", h.ListOffers)
	mux.HandleFunc("GET /api/offers/{jobTitle}", h.GetOffer)
	mux.HandleFunc("GET /api/offers/{jobTitle}/applications", h.ListApplicationsForOffer)
	mux.HandleFunc("GET /api/offers/{jobTitle}/applications-count", h.CountApplicationsForOffer)

	mux.HandleFunc("POST /api/applications", h.CreateApplication)
	mux.HandleFunc("POST /api/applications/{$}", h.CreateApplication)
	mux.HandleFunc("PUT /api/applications", h.UpdateApplicationStatus)
	mux.HandleFunc("PUT /api/applications/{$}", h.UpdateApplicationStatus)
	mux.HandleFunc("GET /api/applications/count", h.CountAllApplications)
	mux.HandleFunc("GET /api/applications/{jobTitle}/{candidateEmail}", h.GetApplication)
}

// CreateOffer handles POST /api/offers.
func (h *Handler) CreateOffer(w http.ResponseWriter, r *http.Request) {
	var offer entity.Offer
	if !h.decode(w, r, &offer) {
		return
	}

	if err := h.service.CreateOffer(r.Context(), offer); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/offers/"+url.PathEscape(offer.JobTitle))
	w.WriteHeader(http.StatusCreated)
}

// ListOffers handles GET /api/offers.
func (h *Handler) ListOffers(w http.ResponseWriter, r *http.Request) {
	offers, err := h.service.ListOffers(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, offers)
}

// GetOffer handles GET /api/offers/{jobTitle}.
func (h *Handler) GetOffer(w http.ResponseWriter, r *http.Request) {
	offer, err := h.service.GetOffer(r.Context(), r.PathValue("jobTitle"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, offer)
}

// ListApplicationsForOffer handles GET /api/offers/{jobTitle}/applications.
func (h *Handler) ListApplicationsForOffer(w http.ResponseWriter, r *http.Request) {
	apps, err := h.service.ListApplicationsForOffer(r.Context(), r.PathValue("jobTitle"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, apps)
}

// CountApplicationsForOffer handles GET /api/offers/{jobTitle}/applications-count.
func (h *Handler) CountApplicationsForOffer(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.CountApplicationsForOffer(r.Context(), r.PathValue("jobTitle"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, count)
}

// CreateApplication handles POST /api/applications.
func (h *Handler) CreateApplication(w http.ResponseWriter, r *http.Request) {
	var app entity.Application
	if !h.decode(w, r, &app) {
		return
	}

	if err := h.service.CreateApplication(r.Context(), app); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/applications/%s/%s",
		url.PathEscape(app.JobTitle), url.PathEscape(app.CandidateEmail)))
	w.WriteHeader(http.StatusCreated)
}

// UpdateApplicationStatus handles PUT /api/applications.
func (h *Handler) UpdateApplicationStatus(w http.ResponseWriter, r *http.Request) {
	var app entity.Application
	if !h.decode(w, r, &app) {
		return
	}

	change, err := h.service.UpdateApplicationStatus(r.Context(), app)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, change)
}

// CountAllApplications handles GET /api/applications/count.
func (h *Handler) CountAllApplications(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.CountAllApplications(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, count)
}

// GetApplication handles GET /api/applications/{jobTitle}/{candidateEmail}.
func (h *Handler) GetApplication(w http.ResponseWriter, r *http.Request) {
	app, err := h.service.GetApplication(r.Context(), r.PathValue("jobTitle"), r.PathValue("candidateEmail"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, app)
}

// decode reads a JSON body into v. It responds with 400 and returns false
// when the body is malformed.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.logger.Debug("rejected malformed request body", "path", r.URL.Path, "error", err)
		h.respondError(w, http.StatusBadRequest, "malformed request body: "+err.Error())
		return false
	}
	return true
}

// StatusFor maps a service error to an HTTP status code.
// Invalid arguments and duplicates are both reported as conflicts.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrInvalidArgument), errors.Is(err, entity.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, entity.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		h.respondError(w, status, "internal server error")
		return
	}
	h.respondError(w, status, err.Error())
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, data any) {
	respondJSON(w, status, data, h.logger)
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message}, h.logger)
}

func respondJSON(w http.ResponseWriter, status int, data any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}
