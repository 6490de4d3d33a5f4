// Package lifecycle implements the report review state machine.
//
// Legal transitions:
//
//	pending                 → approved | rejected | clarification_requested
//	clarification_requested → approved | rejected | clarification_requested
//	approved, rejected      → (terminal)
//
// Every operation is a synchronous in-memory transform on a single Report:
// it either fully applies (status + thread + review metadata) or leaves the
// report untouched and returns a typed error. Persistence and the
// optimistic-concurrency retry loop belong to the caller.
package lifecycle

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/opsline/fieldreport-server/internal/models"
)

// Approve marks the report approved. Refused on terminal reports and while a
// clarification question is still unanswered — the reviewer must not approve
// blind.
func Approve(r *models.Report, reviewerID uuid.UUID, now time.Time) error {
	if r.Status.Terminal() {
		return &models.StateConflictError{Op: "approve", Status: r.Status}
	}
	if r.Status == models.StatusClarificationRequested && AwaitingSubmitter(r.Thread) {
		return &models.StateConflictError{
			Op:     "approve",
			Status: r.Status,
			Reason: "clarification question still unanswered",
		}
	}
	r.Status = models.StatusApproved
	r.ReviewerID = &reviewerID
	r.ReviewedAt = &now
	return nil
}

// Reject marks the report rejected with a reason and feedback for the
// submitter, optionally carrying a resubmission deadline. Rejection is final
// for this report instance; a corrected submission is a brand-new report.
func Reject(r *models.Report, reviewerID uuid.UUID, reason, feedback string, deadline *time.Time, now time.Time) error {
	if strings.TrimSpace(reason) == "" {
		return models.NewValidationError("reason", "must not be empty")
	}
	if strings.TrimSpace(feedback) == "" {
		return models.NewValidationError("feedback", "must not be empty")
	}
	if r.Status.Terminal() {
		return &models.StateConflictError{Op: "reject", Status: r.Status}
	}
	r.Status = models.StatusRejected
	r.ReviewerID = &reviewerID
	r.ReviewedAt = &now
	r.RejectionReason = reason
	r.RejectionFeedback = feedback
	r.ResubmissionDeadline = deadline
	return nil
}

// RequestClarification appends a reviewer question to the thread and moves
// the report to clarification_requested. May be called repeatedly; asking a
// follow-up after a response is just another question. There is no cap on
// thread length.
func RequestClarification(r *models.Report, reviewerID uuid.UUID, reviewerName, question string, now time.Time) error {
	if strings.TrimSpace(question) == "" {
		return models.NewValidationError("question", "must not be empty")
	}
	if r.Status.Terminal() {
		return &models.StateConflictError{Op: "request clarification", Status: r.Status}
	}
	r.Thread = append(r.Thread, models.ClarificationMessage{
		ID:         uuid.New(),
		Type:       models.MessageQuestion,
		AuthorID:   reviewerID,
		AuthorName: reviewerName,
		AuthorRole: models.AuthorReviewer,
		Content:    question,
		Timestamp:  now,
	})
	r.Status = models.StatusClarificationRequested
	r.ReviewerID = &reviewerID
	r.ReviewedAt = &now
	return nil
}

// RespondToClarification appends the submitter's answer to the last open
// question. Legal only while the report is in clarification_requested with an
// unanswered question, which makes a replayed double-submit of the same
// response fail instead of duplicating thread entries. Responding does not
// auto-approve; the reviewer must still decide.
func RespondToClarification(r *models.Report, submitterID uuid.UUID, submitterName, response string, now time.Time) error {
	if strings.TrimSpace(response) == "" {
		return models.NewValidationError("response", "must not be empty")
	}
	if r.Status != models.StatusClarificationRequested {
		return &models.StateConflictError{Op: "respond", Status: r.Status}
	}
	if !AwaitingSubmitter(r.Thread) {
		return &models.StateConflictError{
			Op:     "respond",
			Status: r.Status,
			Reason: "no unanswered question",
		}
	}
	r.Thread = append(r.Thread, models.ClarificationMessage{
		ID:         uuid.New(),
		Type:       models.MessageResponse,
		AuthorID:   submitterID,
		AuthorName: submitterName,
		AuthorRole: models.AuthorSubmitter,
		Content:    response,
		Timestamp:  now,
	})
	return nil
}
