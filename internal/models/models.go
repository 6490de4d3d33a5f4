// Package models defines the data structures used across the application.
// These map to the PostgreSQL schema.
package models

import (
	"time"

	"github.com/google/uuid"
)

// ReportKind identifies which daily report a submission covers.
type ReportKind string

const (
	KindStock         ReportKind = "stock"
	KindSales         ReportKind = "sales"
	KindExpense       ReportKind = "expense"
	KindOccupancy     ReportKind = "occupancy"
	KindGuestActivity ReportKind = "guest_activity"
	KindRevenue       ReportKind = "revenue"
	KindComplaint     ReportKind = "complaint"
)

// Valid reports whether k is one of the seven known kinds.
func (k ReportKind) Valid() bool {
	switch k {
	case KindStock, KindSales, KindExpense, KindOccupancy,
		KindGuestActivity, KindRevenue, KindComplaint:
		return true
	}
	return false
}

// ReportStatus is the lifecycle state of a report.
// Approved and rejected are terminal; a corrected submission is a new Report.
type ReportStatus string

const (
	StatusPending                ReportStatus = "pending"
	StatusClarificationRequested ReportStatus = "clarification_requested"
	StatusApproved               ReportStatus = "approved"
	StatusRejected               ReportStatus = "rejected"
)

// Terminal reports whether no further lifecycle operation may touch the report.
func (s ReportStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Submitter and reviewer roles.
const (
	RoleStoreManager       = "store_manager"
	RoleFrontOfficeManager = "front_office_manager"
	RoleBDM                = "bdm"
)

// Message types and author roles for the clarification thread.
const (
	MessageQuestion = "question"
	MessageResponse = "response"

	AuthorReviewer  = "reviewer"
	AuthorSubmitter = "submitter"
)

// ClarificationMessage is one entry in a report's clarification thread.
// Messages are append-only: never edited or removed once written.
type ClarificationMessage struct {
	ID         uuid.UUID `json:"id"`
	Type       string    `json:"type"` // "question" | "response"
	AuthorID   uuid.UUID `json:"author_id"`
	AuthorName string    `json:"author_name"`
	AuthorRole string    `json:"author_role"` // "reviewer" | "submitter"
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
}

// Report is one daily submission by a field manager.
// Version backs the optimistic-concurrency guard: every save checks it and
// increments it, so a reviewer action and a submitter response cannot
// silently overwrite each other.
type Report struct {
	ID            uuid.UUID              `json:"id" db:"id"`
	SubmitterID   uuid.UUID              `json:"submitter_id" db:"submitter_id"`
	SubmitterRole string                 `json:"submitter_role" db:"submitter_role"`
	Kind          ReportKind             `json:"kind" db:"kind"`
	ReportDate    time.Time              `json:"report_date" db:"report_date"` // calendar date, midnight UTC
	CreatedAt     time.Time              `json:"created_at" db:"created_at"`
	Status        ReportStatus           `json:"status" db:"status"`
	Payload       map[string]interface{} `json:"payload,omitempty" db:"payload"`
	Notes         string                 `json:"notes,omitempty" db:"notes"`

	ReviewerID *uuid.UUID `json:"reviewer_id,omitempty" db:"reviewer_id"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty" db:"reviewed_at"`

	RejectionReason      string     `json:"rejection_reason,omitempty" db:"rejection_reason"`
	RejectionFeedback    string     `json:"rejection_feedback,omitempty" db:"rejection_feedback"`
	ResubmissionDeadline *time.Time `json:"resubmission_deadline,omitempty" db:"resubmission_deadline"`

	Thread []ClarificationMessage `json:"clarification_thread" db:"clarification_thread"`

	Version int `json:"version" db:"version"`
}

// ReportSubmission is the request body for filing a new report.
type ReportSubmission struct {
	Kind       ReportKind             `json:"kind"`
	ReportDate string                 `json:"report_date"` // YYYY-MM-DD
	Payload    map[string]interface{} `json:"payload,omitempty"`
	Notes      string                 `json:"notes,omitempty"`
}

// RejectRequest is the body for a rejection decision.
type RejectRequest struct {
	Reason               string `json:"reason"`
	Feedback             string `json:"feedback"`
	ResubmissionDeadline string `json:"resubmission_deadline,omitempty"` // YYYY-MM-DD
}

// ClarificationRequest carries a reviewer question or a submitter response.
type ClarificationRequest struct {
	Content string `json:"content"`
}

// ScoreBreakdown splits the overall score into its four weighted components.
type ScoreBreakdown struct {
	SubmissionRate float64 `json:"submission_rate"` // 0-30
	ApprovalRate   float64 `json:"approval_rate"`   // 0-35
	Timeliness     float64 `json:"timeliness"`      // 0-20
	ResponseTime   float64 `json:"response_time"`   // 0-15
}

// Trend values. The trend is a point-in-time threshold heuristic, not a true
// period-over-period comparison.
const (
	TrendImproving = "improving"
	TrendStable    = "stable"
	TrendDeclining = "declining"
)

// ComplianceScore grades one submitter over a reporting period.
// Derived on demand from the report set; never persisted.
type ComplianceScore struct {
	SubmitterID uuid.UUID `json:"submitter_id"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
	PeriodDays  int       `json:"period_days"`

	OverallScore float64        `json:"overall_score"` // 0-100
	Breakdown    ScoreBreakdown `json:"breakdown"`

	TotalReports         int `json:"total_reports"`
	ExpectedReports      int `json:"expected_reports"`
	ApprovedReports      int `json:"approved_reports"`
	RejectedReports      int `json:"rejected_reports"`
	ClarificationReports int `json:"clarification_reports"`
	OnTimeSubmissions    int `json:"on_time_submissions"`
	LateSubmissions      int `json:"late_submissions"`

	AvgResponseHours float64 `json:"avg_response_hours"`

	Trend           string   `json:"trend"`
	TopPerformer    bool     `json:"top_performer"`
	NeedsAttention  bool     `json:"needs_attention"`
	Recommendations []string `json:"recommendations"`
}

// Alert is a dashboard-level warning derived from raw counts.
type Alert struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// TeamSummary is the aggregated reviewer dashboard view.
type TeamSummary struct {
	PeriodStart     time.Time         `json:"period_start"`
	PeriodEnd       time.Time         `json:"period_end"`
	AverageScore    float64           `json:"average_score"`
	TotalReports    int               `json:"total_reports"`
	ApprovedReports int               `json:"approved_reports"`
	RejectedReports int               `json:"rejected_reports"`
	PendingReports  int               `json:"pending_reports"`
	Leaderboard     []ComplianceScore `json:"leaderboard"`
	TopPerformers   []ComplianceScore `json:"top_performers"`
	NeedsAttention  []ComplianceScore `json:"needs_attention"`
	Alerts          []Alert           `json:"alerts"`
}

// User is an account row; PasswordHash never leaves the server.
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Role         string    `json:"role" db:"role"`
	PasswordHash string    `json:"-" db:"password_hash"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// HealthStatus represents the server health check response.
type HealthStatus struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Uptime   string `json:"uptime"`
	Database string `json:"database,omitempty"`
}
