package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opsline/fieldreport-server/internal/models"
	"github.com/opsline/fieldreport-server/internal/scoring"
	"github.com/opsline/fieldreport-server/internal/services"
)

// DashboardHandler serves compliance scores and the team summary for
// reviewers.
type DashboardHandler struct {
	svc    *services.ComplianceService
	logger *zap.SugaredLogger
	now    func() time.Time
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(svc *services.ComplianceService, logger *zap.SugaredLogger) *DashboardHandler {
	return &DashboardHandler{svc: svc, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Score handles GET /api/v1/compliance/{submitterId}?from=...&to=...
// Without from/to the period defaults to the trailing 30 days.
func (h *DashboardHandler) Score(w http.ResponseWriter, r *http.Request) {
	submitterID, err := uuid.Parse(chi.URLParam(r, "submitterId"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid submitter id")
		return
	}

	period, err := h.parsePeriod(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	score, err := h.svc.ScoreFor(r.Context(), submitterID, period)
	if err != nil {
		var notFound *models.NotFoundError
		if errors.As(err, &notFound) {
			respondError(w, http.StatusNotFound, notFound.Error())
			return
		}
		h.logger.Errorw("Failed to compute score", "submitter", submitterID, "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to compute score")
		return
	}

	respondJSON(w, http.StatusOK, score)
}

// Summary handles GET /api/v1/dashboard/summary?from=...&to=...
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	period, err := h.parsePeriod(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.svc.TeamSummary(r.Context(), period)
	if err != nil {
		h.logger.Errorw("Failed to build team summary", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to build summary")
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

func (h *DashboardHandler) parsePeriod(r *http.Request) (scoring.Period, error) {
	q := r.URL.Query()
	fromRaw, toRaw := q.Get("from"), q.Get("to")

	if fromRaw == "" && toRaw == "" {
		end := h.now()
		return scoring.NewPeriod(end.AddDate(0, 0, -29), end), nil
	}

	from, err := time.ParseInLocation("2006-01-02", fromRaw, time.UTC)
	if err != nil {
		return scoring.Period{}, errors.New("invalid from date, want YYYY-MM-DD")
	}
	to, err := time.ParseInLocation("2006-01-02", toRaw, time.UTC)
	if err != nil {
		return scoring.Period{}, errors.New("invalid to date, want YYYY-MM-DD")
	}
	if to.Before(from) {
		return scoring.Period{}, errors.New("to must not precede from")
	}
	return scoring.NewPeriod(from, to), nil
}
