package lifecycle

import (
	"testing"
	"time"

	"github.com/opsline/fieldreport-server/internal/models"
)

func msg(kind string, at time.Time) models.ClarificationMessage {
	return models.ClarificationMessage{Type: kind, Timestamp: at}
}

func TestAwaitingSubmitter(t *testing.T) {
	t0 := time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC)

	cases := []struct {
		name   string
		thread []models.ClarificationMessage
		want   bool
	}{
		{"empty thread anomaly", nil, true},
		{"open question", []models.ClarificationMessage{msg(models.MessageQuestion, t0)}, true},
		{"answered", []models.ClarificationMessage{msg(models.MessageQuestion, t0), msg(models.MessageResponse, t0.Add(time.Hour))}, false},
		{"follow-up question", []models.ClarificationMessage{
			msg(models.MessageQuestion, t0),
			msg(models.MessageResponse, t0.Add(time.Hour)),
			msg(models.MessageQuestion, t0.Add(2 * time.Hour)),
		}, true},
	}

	for _, tc := range cases {
		if got := AwaitingSubmitter(tc.thread); got != tc.want {
			t.Errorf("%s: AwaitingSubmitter = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestFirstResponseDelay(t *testing.T) {
	t0 := time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC)

	thread := []models.ClarificationMessage{
		msg(models.MessageQuestion, t0),
		msg(models.MessageResponse, t0.Add(6*time.Hour)),
		msg(models.MessageQuestion, t0.Add(7*time.Hour)),
		msg(models.MessageResponse, t0.Add(30*time.Hour)),
	}

	hours, ok := FirstResponseDelay(thread)
	if !ok {
		t.Fatal("FirstResponseDelay ok = false, want true")
	}
	if hours != 6 {
		t.Errorf("hours = %v, want 6 (first pair only)", hours)
	}
}

func TestFirstResponseDelay_NoResponse(t *testing.T) {
	t0 := time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC)

	if _, ok := FirstResponseDelay(nil); ok {
		t.Error("empty thread: ok = true, want false")
	}
	if _, ok := FirstResponseDelay([]models.ClarificationMessage{msg(models.MessageQuestion, t0)}); ok {
		t.Error("unanswered question: ok = true, want false")
	}
}

func TestSubmissionDelayHours(t *testing.T) {
	reportDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	createdAt := time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)

	if got := SubmissionDelayHours(reportDate, createdAt); got != 58 {
		t.Errorf("SubmissionDelayHours = %v, want 58", got)
	}
}

func TestSubmissionDelayHours_SameDay(t *testing.T) {
	reportDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	createdAt := time.Date(2024, 1, 1, 23, 30, 0, 0, time.UTC)

	if got := SubmissionDelayHours(reportDate, createdAt); got != 23.5 {
		t.Errorf("SubmissionDelayHours = %v, want 23.5", got)
	}
}
