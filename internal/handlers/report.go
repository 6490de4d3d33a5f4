// Package handlers contains HTTP request handlers for the report API.
// Handlers parse requests, call services, and return JSON responses.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opsline/fieldreport-server/internal/middleware"
	"github.com/opsline/fieldreport-server/internal/models"
	"github.com/opsline/fieldreport-server/internal/services"
)

// ReportHandler handles report submission, retrieval, and review endpoints.
type ReportHandler struct {
	svc    *services.ReportService
	logger *zap.SugaredLogger
}

// NewReportHandler creates a new report handler
func NewReportHandler(svc *services.ReportService, logger *zap.SugaredLogger) *ReportHandler {
	return &ReportHandler{svc: svc, logger: logger}
}

// Submit handles POST /api/v1/reports
func (h *ReportHandler) Submit(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req models.ReportSubmission
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	report, err := h.svc.Create(r.Context(), actor, &req)
	if err != nil {
		h.respondDomainError(w, err, "Failed to submit report")
		return
	}

	respondJSON(w, http.StatusCreated, report)
}

// List handles GET /api/v1/reports with optional submitter, kind, from, to,
// and status query parameters.
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Submitters only see their own reports.
	if actor, ok := actorFrom(r); ok && actor.Role != models.RoleBDM {
		filter.SubmitterID = &actor.ID
	}

	reports, err := h.svc.Find(r.Context(), filter)
	if err != nil {
		h.logger.Errorw("Failed to list reports", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to list reports")
		return
	}
	if reports == nil {
		reports = []models.Report{}
	}
	respondJSON(w, http.StatusOK, reports)
}

// Get handles GET /api/v1/reports/{id}
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid report id")
		return
	}

	report, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.respondDomainError(w, err, "Failed to load report")
		return
	}

	if actor, ok := actorFrom(r); ok && actor.Role != models.RoleBDM && report.SubmitterID != actor.ID {
		respondError(w, http.StatusNotFound, "report not found")
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// Approve handles POST /api/v1/reports/{id}/approve
func (h *ReportHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, func(id uuid.UUID, reviewer services.Actor) (*models.Report, error) {
		return h.svc.Approve(r.Context(), id, reviewer)
	})
}

// Reject handles POST /api/v1/reports/{id}/reject
func (h *ReportHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var req models.RejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	h.review(w, r, func(id uuid.UUID, reviewer services.Actor) (*models.Report, error) {
		return h.svc.Reject(r.Context(), id, reviewer, &req)
	})
}

// RequestClarification handles POST /api/v1/reports/{id}/clarification
func (h *ReportHandler) RequestClarification(w http.ResponseWriter, r *http.Request) {
	var req models.ClarificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	h.review(w, r, func(id uuid.UUID, reviewer services.Actor) (*models.Report, error) {
		return h.svc.RequestClarification(r.Context(), id, reviewer, req.Content)
	})
}

// Respond handles POST /api/v1/reports/{id}/clarification/response
func (h *ReportHandler) Respond(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid report id")
		return
	}

	var req models.ClarificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	report, err := h.svc.RespondToClarification(r.Context(), id, actor, req.Content)
	if err != nil {
		h.respondDomainError(w, err, "Failed to record response")
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (h *ReportHandler) review(w http.ResponseWriter, r *http.Request, op func(uuid.UUID, services.Actor) (*models.Report, error)) {
	actor, ok := actorFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid report id")
		return
	}

	report, err := op(id, actor)
	if err != nil {
		h.respondDomainError(w, err, "Failed to apply review action")
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// respondDomainError maps the domain error taxonomy onto HTTP statuses:
// validation 400, missing 404, state or write conflicts 409.
func (h *ReportHandler) respondDomainError(w http.ResponseWriter, err error, fallback string) {
	var (
		validation *models.ValidationError
		state      *models.StateConflictError
		conflict   *models.ConflictError
		notFound   *models.NotFoundError
	)
	switch {
	case errors.As(err, &validation):
		respondError(w, http.StatusBadRequest, validation.Error())
	case errors.As(err, &state):
		respondError(w, http.StatusConflict, state.Error())
	case errors.As(err, &conflict):
		respondError(w, http.StatusConflict, conflict.Error())
	case errors.As(err, &notFound):
		respondError(w, http.StatusNotFound, notFound.Error())
	default:
		h.logger.Errorw("Report operation failed", "error", err)
		respondError(w, http.StatusInternalServerError, fallback)
	}
}

func actorFrom(r *http.Request) (services.Actor, bool) {
	ident, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		return services.Actor{}, false
	}
	return services.Actor{ID: ident.ID, Name: ident.Name, Role: ident.Role}, true
}

func parseFilter(r *http.Request) (services.ReportFilter, error) {
	var filter services.ReportFilter
	q := r.URL.Query()

	if raw := q.Get("submitter"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, errors.New("invalid submitter id")
		}
		filter.SubmitterID = &id
	}
	if raw := q.Get("kind"); raw != "" {
		kind := models.ReportKind(raw)
		if !kind.Valid() {
			return filter, errors.New("invalid report kind")
		}
		filter.Kind = &kind
	}
	if raw := q.Get("from"); raw != "" {
		t, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
		if err != nil {
			return filter, errors.New("invalid from date, want YYYY-MM-DD")
		}
		filter.From = &t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
		if err != nil {
			return filter, errors.New("invalid to date, want YYYY-MM-DD")
		}
		filter.To = &t
	}
	if raw := q.Get("status"); raw != "" {
		filter.Statuses = append(filter.Statuses, models.ReportStatus(raw))
	}

	return filter, nil
}

// Helper: respond with JSON
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Helper: respond with error
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
