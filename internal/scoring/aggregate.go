package scoring

import (
	"fmt"
	"sort"
	"time"

	"github.com/opsline/fieldreport-server/internal/models"
)

// Aggregation limits and alert thresholds.
const (
	topPerformersCap       = 5
	rejectionRateAlertOver = 0.20
)

// DashboardCounts are the raw report counts the alert rules run over,
// independent of any individual score.
type DashboardCounts struct {
	TotalReports    int
	ApprovedReports int
	RejectedReports int
	PendingReports  int
	// ManagersMissingToday counts active submitters with no report filed for
	// today's date.
	ManagersMissingToday int
}

// Aggregate rolls per-submitter scores and raw counts into the reviewer
// dashboard summary: a leaderboard sorted by descending score, the top
// performers (capped), everyone flagged needs-attention (uncapped), the
// organization average, and dashboard alerts.
func Aggregate(period Period, scores []models.ComplianceScore, counts DashboardCounts) models.TeamSummary {
	summary := models.TeamSummary{
		PeriodStart:     period.Start,
		PeriodEnd:       period.End,
		TotalReports:    counts.TotalReports,
		ApprovedReports: counts.ApprovedReports,
		RejectedReports: counts.RejectedReports,
		PendingReports:  counts.PendingReports,
	}

	leaderboard := make([]models.ComplianceScore, len(scores))
	copy(leaderboard, scores)
	sort.SliceStable(leaderboard, func(i, j int) bool {
		return leaderboard[i].OverallScore > leaderboard[j].OverallScore
	})
	summary.Leaderboard = leaderboard

	var total float64
	for _, sc := range leaderboard {
		total += sc.OverallScore
		if sc.TopPerformer && len(summary.TopPerformers) < topPerformersCap {
			summary.TopPerformers = append(summary.TopPerformers, sc)
		}
		if sc.NeedsAttention {
			summary.NeedsAttention = append(summary.NeedsAttention, sc)
		}
	}
	if len(leaderboard) > 0 {
		summary.AverageScore = total / float64(len(leaderboard))
	}

	summary.Alerts = Alerts(counts)
	return summary
}

// Alerts derives dashboard-level warnings from raw counts alone.
func Alerts(counts DashboardCounts) []models.Alert {
	var alerts []models.Alert

	if counts.ManagersMissingToday > 0 {
		alerts = append(alerts, models.Alert{
			Code: "missing_today",
			Message: fmt.Sprintf("%d manager(s) haven't submitted today's reports",
				counts.ManagersMissingToday),
		})
	}

	reviewed := counts.ApprovedReports + counts.RejectedReports
	if reviewed > 0 {
		rate := float64(counts.RejectedReports) / float64(reviewed)
		if rate > rejectionRateAlertOver {
			alerts = append(alerts, models.Alert{
				Code:    "high_rejection_rate",
				Message: fmt.Sprintf("Rejection rate is %.0f%%, above the 20%% threshold", rate*100),
			})
		}
	}

	return alerts
}

// Today returns the current calendar date at midnight UTC, the key the
// missing-today alert counts against.
func Today(now time.Time) time.Time {
	return midnightUTC(now.UTC())
}
