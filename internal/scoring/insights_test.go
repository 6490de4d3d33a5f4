package scoring

import (
	"strings"
	"testing"

	"github.com/opsline/fieldreport-server/internal/models"
)

func fullMarks() models.ComplianceScore {
	return models.ComplianceScore{
		TotalReports: 90,
		Breakdown: models.ScoreBreakdown{
			SubmissionRate: 30,
			ApprovalRate:   35,
			Timeliness:     20,
			ResponseTime:   15,
		},
	}
}

func TestRecommendations_AllRulesFireInDeclarationOrder(t *testing.T) {
	sc := fullMarks()
	sc.Breakdown.SubmissionRate = 10  // below 80% of 30
	sc.Breakdown.ApprovalRate = 10    // below 70% of 35
	sc.Breakdown.Timeliness = 5       // below 70% of 20
	sc.ClarificationReports = 30      // 33% of total, above 20%
	sc.AvgResponseHours = 20          // above 12h

	tips := Recommendations(sc)
	if len(tips) != 5 {
		t.Fatalf("got %d tips, want 5: %v", len(tips), tips)
	}

	// Declaration order, not severity order.
	wantOrder := []string{"Submit all", "Review report", "Submit reports on", "Double-check", "Respond to"}
	for i, prefix := range wantOrder {
		if !strings.HasPrefix(tips[i], prefix) {
			t.Errorf("tips[%d] = %q, want prefix %q", i, tips[i], prefix)
		}
	}
}

func TestRecommendations_NoneFire(t *testing.T) {
	tips := Recommendations(fullMarks())
	if len(tips) != 1 {
		t.Fatalf("got %d tips, want single positive message: %v", len(tips), tips)
	}
	if !strings.HasPrefix(tips[0], "Great work") {
		t.Errorf("tips[0] = %q, want positive reinforcement", tips[0])
	}
}

func TestRecommendations_ZeroReports(t *testing.T) {
	tips := Recommendations(models.ComplianceScore{})
	if len(tips) != 1 {
		t.Fatalf("got %d tips, want 1: %v", len(tips), tips)
	}
	if !strings.Contains(tips[0], "No reports") {
		t.Errorf("tips[0] = %q, want the neutral empty-period message", tips[0])
	}
}

func TestRecommendations_ResponseRuleNeedsClarifications(t *testing.T) {
	// A stale AvgResponseHours without any clarification reports must not
	// trigger the response tip.
	sc := fullMarks()
	sc.AvgResponseHours = 48
	sc.ClarificationReports = 0

	tips := Recommendations(sc)
	for _, tip := range tips {
		if strings.HasPrefix(tip, "Respond to") {
			t.Errorf("response tip fired with zero clarification reports")
		}
	}
}
