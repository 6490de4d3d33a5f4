package scoring

import "github.com/opsline/fieldreport-server/internal/models"

// Recommendation thresholds, expressed as fractions of the component weight
// (80% of the submission weight, and so on) or as raw rates.
const (
	submissionTipBelow    = 0.80
	approvalTipBelow      = 0.70
	timelinessTipBelow    = 0.70
	clarificationTipAbove = 0.20
	responseTipAboveHours = 12.0
)

// Recommendations maps a score to coaching tips. Rules are independent and
// every applicable one fires, in declaration order. When none fire the
// submitter gets a single positive-reinforcement message.
func Recommendations(sc models.ComplianceScore) []string {
	// An empty period is a valid, common state, not a failure: skip the
	// threshold rules and return a single neutral nudge.
	if sc.TotalReports == 0 {
		return []string{"No reports submitted this period yet. File your daily reports to start building your compliance score."}
	}

	var tips []string

	if sc.Breakdown.SubmissionRate < SubmissionWeight*submissionTipBelow {
		tips = append(tips, "Submit all required reports daily to improve your compliance score.")
	}
	if sc.Breakdown.ApprovalRate < ApprovalWeight*approvalTipBelow {
		tips = append(tips, "Review report contents carefully before submitting to reduce rejections.")
	}
	if sc.Breakdown.Timeliness < TimelinessWeight*timelinessTipBelow {
		tips = append(tips, "Submit reports on the same day they cover to stay within the on-time window.")
	}
	if sc.TotalReports > 0 &&
		float64(sc.ClarificationReports)/float64(sc.TotalReports) > clarificationTipAbove {
		tips = append(tips, "Double-check figures and attachments before submitting to avoid clarification requests.")
	}
	if sc.ClarificationReports > 0 && sc.AvgResponseHours > responseTipAboveHours {
		tips = append(tips, "Respond to clarification questions faster; aim for under four hours.")
	}

	if len(tips) == 0 {
		tips = append(tips, "Great work. Keep up the consistent, timely reporting.")
	}
	return tips
}
