package lifecycle

import (
	"time"

	"github.com/opsline/fieldreport-server/internal/models"
)

// LastMessage returns the newest thread entry, or nil for an empty thread.
func LastMessage(thread []models.ClarificationMessage) *models.ClarificationMessage {
	if len(thread) == 0 {
		return nil
	}
	return &thread[len(thread)-1]
}

// AwaitingSubmitter reports whether the ball is in the submitter's court:
// the last message is a question. An empty thread on a report in
// clarification_requested is a data anomaly; it is treated conservatively as
// awaiting the submitter so the reviewer cannot approve past it.
func AwaitingSubmitter(thread []models.ClarificationMessage) bool {
	last := LastMessage(thread)
	if last == nil {
		return true
	}
	return last.Type == models.MessageQuestion
}

// FirstResponseDelay returns the hours between the first question and the
// first response in the thread. ok is false when the thread holds no such
// pair, in which case the report contributes nothing to the response-time
// average.
func FirstResponseDelay(thread []models.ClarificationMessage) (hours float64, ok bool) {
	var question, response *models.ClarificationMessage
	for i := range thread {
		m := &thread[i]
		switch {
		case question == nil && m.Type == models.MessageQuestion:
			question = m
		case question != nil && response == nil && m.Type == models.MessageResponse:
			response = m
		}
		if question != nil && response != nil {
			break
		}
	}
	if question == nil || response == nil {
		return 0, false
	}
	return response.Timestamp.Sub(question.Timestamp).Hours(), true
}

// SubmissionDelayHours measures how late a submission was filed: hours from
// the report date at midnight UTC to the submission timestamp. A report is
// on time when this is at most 24.
func SubmissionDelayHours(reportDate, createdAt time.Time) float64 {
	midnight := time.Date(reportDate.Year(), reportDate.Month(), reportDate.Day(), 0, 0, 0, 0, time.UTC)
	return createdAt.Sub(midnight).Hours()
}
