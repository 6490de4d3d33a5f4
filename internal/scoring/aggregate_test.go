package scoring

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/opsline/fieldreport-server/internal/models"
)

func scoreOf(overall float64) models.ComplianceScore {
	return models.ComplianceScore{
		SubmitterID:    uuid.New(),
		OverallScore:   overall,
		TopPerformer:   overall >= 85,
		NeedsAttention: overall < 60,
	}
}

func TestAggregate_LeaderboardSortedDescending(t *testing.T) {
	scores := []models.ComplianceScore{scoreOf(40), scoreOf(95), scoreOf(70)}
	summary := Aggregate(testPeriod(), scores, DashboardCounts{})

	want := []float64{95, 70, 40}
	for i, w := range want {
		if summary.Leaderboard[i].OverallScore != w {
			t.Errorf("Leaderboard[%d] = %v, want %v", i, summary.Leaderboard[i].OverallScore, w)
		}
	}
}

func TestAggregate_TopPerformersCappedAtFive(t *testing.T) {
	var scores []models.ComplianceScore
	for i := 0; i < 8; i++ {
		scores = append(scores, scoreOf(90))
	}
	summary := Aggregate(testPeriod(), scores, DashboardCounts{})

	if len(summary.TopPerformers) != 5 {
		t.Errorf("TopPerformers = %d entries, want 5", len(summary.TopPerformers))
	}
}

func TestAggregate_NeedsAttentionUncapped(t *testing.T) {
	var scores []models.ComplianceScore
	for i := 0; i < 8; i++ {
		scores = append(scores, scoreOf(30))
	}
	summary := Aggregate(testPeriod(), scores, DashboardCounts{})

	if len(summary.NeedsAttention) != 8 {
		t.Errorf("NeedsAttention = %d entries, want 8", len(summary.NeedsAttention))
	}
}

func TestAggregate_AverageScore(t *testing.T) {
	scores := []models.ComplianceScore{scoreOf(80), scoreOf(60)}
	summary := Aggregate(testPeriod(), scores, DashboardCounts{})

	if summary.AverageScore != 70 {
		t.Errorf("AverageScore = %v, want 70", summary.AverageScore)
	}
}

func TestAggregate_EmptyScores(t *testing.T) {
	summary := Aggregate(testPeriod(), nil, DashboardCounts{})
	if summary.AverageScore != 0 {
		t.Errorf("AverageScore = %v, want 0", summary.AverageScore)
	}
	if len(summary.Leaderboard) != 0 {
		t.Errorf("Leaderboard = %d entries, want 0", len(summary.Leaderboard))
	}
}

func TestAlerts_MissingToday(t *testing.T) {
	alerts := Alerts(DashboardCounts{ManagersMissingToday: 3})
	if len(alerts) != 1 || alerts[0].Code != "missing_today" {
		t.Fatalf("alerts = %+v, want single missing_today", alerts)
	}
	if !strings.Contains(alerts[0].Message, "3 manager") {
		t.Errorf("Message = %q, want the missing count", alerts[0].Message)
	}
}

func TestAlerts_RejectionRate(t *testing.T) {
	// 3 rejected out of 10 reviewed is 30%, above the 20% threshold.
	alerts := Alerts(DashboardCounts{ApprovedReports: 7, RejectedReports: 3})
	if len(alerts) != 1 || alerts[0].Code != "high_rejection_rate" {
		t.Fatalf("alerts = %+v, want single high_rejection_rate", alerts)
	}

	// Exactly 20% does not alert.
	alerts = Alerts(DashboardCounts{ApprovedReports: 8, RejectedReports: 2})
	if len(alerts) != 0 {
		t.Errorf("alerts at exactly 20%% = %+v, want none", alerts)
	}
}

func TestAlerts_Quiet(t *testing.T) {
	if alerts := Alerts(DashboardCounts{TotalReports: 50, ApprovedReports: 50}); len(alerts) != 0 {
		t.Errorf("alerts = %+v, want none", alerts)
	}
}
