// Package services contains business logic layers.
// Services are called by handlers and interact with the database.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/opsline/fieldreport-server/internal/lifecycle"
	"github.com/opsline/fieldreport-server/internal/models"
)

const reportColumns = `id, submitter_id, submitter_role, kind, report_date, created_at,
	status, payload, notes, reviewer_id, reviewed_at,
	rejection_reason, rejection_feedback, resubmission_deadline,
	clarification_thread, version`

// ReportService owns report persistence and applies the lifecycle engine to
// review actions. Every mutation is a read-modify-write guarded by the row
// version, so a lost race surfaces as a ConflictError instead of a silent
// overwrite; the caller reloads and retries.
type ReportService struct {
	db     *pgxpool.Pool
	logger *zap.SugaredLogger
	now    func() time.Time
}

// NewReportService creates a new report service
func NewReportService(db *pgxpool.Pool, logger *zap.SugaredLogger) *ReportService {
	return &ReportService{db: db, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock overrides the clock for deterministic tests.
func (s *ReportService) WithClock(now func() time.Time) *ReportService {
	s.now = now
	return s
}

// Actor identifies who is performing an operation.
type Actor struct {
	ID   uuid.UUID
	Name string
	Role string
}

// ReportFilter narrows a Find query. Nil / empty fields match everything.
type ReportFilter struct {
	SubmitterID *uuid.UUID
	Kind        *models.ReportKind
	From        *time.Time
	To          *time.Time
	Statuses    []models.ReportStatus
}

// Create files a new report in pending state. A second report for the same
// (submitter, kind, date) is refused; the scorer still tolerates duplicates
// that slip through a race.
func (s *ReportService) Create(ctx context.Context, submitter Actor, req *models.ReportSubmission) (*models.Report, error) {
	if !req.Kind.Valid() {
		return nil, models.NewValidationError("kind", "must be one of the seven report kinds")
	}
	reportDate, err := time.ParseInLocation("2006-01-02", req.ReportDate, time.UTC)
	if err != nil {
		return nil, models.NewValidationError("report_date", "must be YYYY-MM-DD")
	}

	var exists bool
	err = s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM reports WHERE submitter_id = $1 AND kind = $2 AND report_date = $3)`,
		submitter.ID, req.Kind, reportDate,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check duplicate report: %w", err)
	}
	if exists {
		return nil, models.NewValidationError("report_date", "report for this kind and date already filed")
	}

	report := &models.Report{
		ID:            uuid.New(),
		SubmitterID:   submitter.ID,
		SubmitterRole: submitter.Role,
		Kind:          req.Kind,
		ReportDate:    reportDate,
		CreatedAt:     s.now(),
		Status:        models.StatusPending,
		Payload:       req.Payload,
		Notes:         req.Notes,
		Thread:        []models.ClarificationMessage{},
		Version:       1,
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO reports (id, submitter_id, submitter_role, kind, report_date, created_at,
			status, payload, notes, clarification_thread, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		report.ID, report.SubmitterID, report.SubmitterRole, report.Kind,
		report.ReportDate, report.CreatedAt, report.Status,
		report.Payload, report.Notes, report.Thread, report.Version,
	)
	if err != nil {
		return nil, fmt.Errorf("insert report: %w", err)
	}

	s.logger.Infow("Report submitted",
		"id", report.ID,
		"submitter", submitter.ID,
		"kind", report.Kind,
		"report_date", req.ReportDate,
	)

	return report, nil
}

// Get loads one report with its clarification thread.
func (s *ReportService) Get(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	row := s.db.QueryRow(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = $1`, id)
	report, err := scanReport(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &models.NotFoundError{Entity: "report", ID: id.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("load report: %w", err)
	}
	return report, nil
}

// Find returns reports matching the filter, newest first.
func (s *ReportService) Find(ctx context.Context, filter ReportFilter) ([]models.Report, error) {
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.SubmitterID != nil {
		where = append(where, "submitter_id = "+arg(*filter.SubmitterID))
	}
	if filter.Kind != nil {
		where = append(where, "kind = "+arg(*filter.Kind))
	}
	if filter.From != nil {
		where = append(where, "report_date >= "+arg(*filter.From))
	}
	if filter.To != nil {
		where = append(where, "report_date <= "+arg(*filter.To))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			statuses[i] = string(st)
		}
		where = append(where, "status = ANY("+arg(statuses)+")")
	}

	query := `SELECT ` + reportColumns + ` FROM reports`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find reports: %w", err)
	}
	defer rows.Close()

	var reports []models.Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		reports = append(reports, *report)
	}
	return reports, rows.Err()
}

// Approve applies the approve transition.
func (s *ReportService) Approve(ctx context.Context, id uuid.UUID, reviewer Actor) (*models.Report, error) {
	return s.transition(ctx, id, "approve", func(r *models.Report) error {
		return lifecycle.Approve(r, reviewer.ID, s.now())
	})
}

// Reject applies the reject transition with reason, feedback, and an
// optional resubmission deadline.
func (s *ReportService) Reject(ctx context.Context, id uuid.UUID, reviewer Actor, req *models.RejectRequest) (*models.Report, error) {
	var deadline *time.Time
	if req.ResubmissionDeadline != "" {
		d, err := time.ParseInLocation("2006-01-02", req.ResubmissionDeadline, time.UTC)
		if err != nil {
			return nil, models.NewValidationError("resubmission_deadline", "must be YYYY-MM-DD")
		}
		deadline = &d
	}
	return s.transition(ctx, id, "reject", func(r *models.Report) error {
		return lifecycle.Reject(r, reviewer.ID, req.Reason, req.Feedback, deadline, s.now())
	})
}

// RequestClarification appends a reviewer question.
func (s *ReportService) RequestClarification(ctx context.Context, id uuid.UUID, reviewer Actor, question string) (*models.Report, error) {
	return s.transition(ctx, id, "request clarification", func(r *models.Report) error {
		return lifecycle.RequestClarification(r, reviewer.ID, reviewer.Name, question, s.now())
	})
}

// RespondToClarification appends the submitter's answer. Only the report's
// own submitter may respond.
func (s *ReportService) RespondToClarification(ctx context.Context, id uuid.UUID, submitter Actor, response string) (*models.Report, error) {
	return s.transition(ctx, id, "respond", func(r *models.Report) error {
		if r.SubmitterID != submitter.ID {
			return &models.NotFoundError{Entity: "report", ID: id.String()}
		}
		return lifecycle.RespondToClarification(r, submitter.ID, submitter.Name, response, s.now())
	})
}

// transition loads the report, runs the lifecycle mutation, and saves it
// under the version guard. The engine either fully applies or returns a
// typed error with the report untouched, so nothing partial ever reaches the
// UPDATE. Lost races are reported, never retried here.
func (s *ReportService) transition(ctx context.Context, id uuid.UUID, op string, apply func(*models.Report) error) (*models.Report, error) {
	report, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	loadedVersion := report.Version
	if err := apply(report); err != nil {
		return nil, err
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE reports SET
			status = $1, reviewer_id = $2, reviewed_at = $3,
			rejection_reason = $4, rejection_feedback = $5, resubmission_deadline = $6,
			clarification_thread = $7, version = version + 1
		WHERE id = $8 AND version = $9`,
		report.Status, report.ReviewerID, report.ReviewedAt,
		report.RejectionReason, report.RejectionFeedback, report.ResubmissionDeadline,
		report.Thread, report.ID, loadedVersion,
	)
	if err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Row existed at load time, so a zero-row update means we lost the race.
		return nil, &models.ConflictError{ID: id.String()}
	}
	report.Version = loadedVersion + 1

	s.logger.Infow("Report transition applied",
		"id", report.ID,
		"op", op,
		"status", report.Status,
		"version", report.Version,
	)

	return report, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReport(row rowScanner) (*models.Report, error) {
	var r models.Report
	err := row.Scan(
		&r.ID, &r.SubmitterID, &r.SubmitterRole, &r.Kind, &r.ReportDate, &r.CreatedAt,
		&r.Status, &r.Payload, &r.Notes, &r.ReviewerID, &r.ReviewedAt,
		&r.RejectionReason, &r.RejectionFeedback, &r.ResubmissionDeadline,
		&r.Thread, &r.Version,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
