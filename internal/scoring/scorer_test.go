package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/opsline/fieldreport-server/internal/models"
)

var (
	scorerSubmitter = uuid.MustParse("33333333-3333-3333-3333-333333333333")
	periodStart     = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	periodEnd       = time.Date(2024, 1, 30, 0, 0, 0, 0, time.UTC)
)

func testPeriod() Period {
	return NewPeriod(periodStart, periodEnd) // 30 days
}

// onTimeReport files the report the same morning it covers.
func onTimeReport(day int, kind models.ReportKind, status models.ReportStatus) models.Report {
	date := periodStart.AddDate(0, 0, day)
	return models.Report{
		ID:          uuid.New(),
		SubmitterID: scorerSubmitter,
		Kind:        kind,
		ReportDate:  date,
		CreatedAt:   date.Add(9 * time.Hour),
		Status:      status,
	}
}

func withThread(r models.Report, responseDelay time.Duration) models.Report {
	asked := r.CreatedAt.Add(time.Hour)
	r.Thread = []models.ClarificationMessage{
		{Type: models.MessageQuestion, Timestamp: asked},
		{Type: models.MessageResponse, Timestamp: asked.Add(responseDelay)},
	}
	return r
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestNewPeriod_DayCount(t *testing.T) {
	p := testPeriod()
	if p.Days != 30 {
		t.Errorf("Days = %d, want 30", p.Days)
	}
}

func TestScore_ZeroReports(t *testing.T) {
	sc := Score(DefaultConfig(), scorerSubmitter, models.RoleStoreManager, testPeriod(), nil)

	if sc.OverallScore != 0 {
		t.Errorf("OverallScore = %v, want 0", sc.OverallScore)
	}
	if sc.Breakdown.SubmissionRate != 0 || sc.Breakdown.ApprovalRate != 0 || sc.Breakdown.Timeliness != 0 {
		t.Errorf("sub-scores = %+v, want zeros", sc.Breakdown)
	}
	if sc.Breakdown.ResponseTime != 15 {
		t.Errorf("ResponseTime = %v, want 15 (no clarifications occurred)", sc.Breakdown.ResponseTime)
	}
	if sc.ExpectedReports != 90 {
		t.Errorf("ExpectedReports = %d, want 90 (30 days x 3 kinds)", sc.ExpectedReports)
	}
	if len(sc.Recommendations) != 1 {
		t.Errorf("Recommendations = %v, want a single neutral message", sc.Recommendations)
	}
}

func TestScore_UnknownRoleExpectsZero(t *testing.T) {
	// A role absent from the config owes no reports; never divides by zero.
	sc := Score(DefaultConfig(), scorerSubmitter, "auditor", testPeriod(), []models.Report{
		onTimeReport(0, models.KindSales, models.StatusApproved),
	})
	if sc.ExpectedReports != 0 {
		t.Errorf("ExpectedReports = %d, want 0", sc.ExpectedReports)
	}
	if sc.Breakdown.SubmissionRate != 0 {
		t.Errorf("SubmissionRate = %v, want 0 on zero expected", sc.Breakdown.SubmissionRate)
	}
}

func TestScore_SubmissionCapped(t *testing.T) {
	// Over-submission is capped at the full weight, not rewarded further.
	var reports []models.Report
	for day := 0; day < 30; day++ {
		for i := 0; i < 5; i++ {
			reports = append(reports, onTimeReport(day, models.KindSales, models.StatusApproved))
		}
	}
	sc := Score(DefaultConfig(), scorerSubmitter, models.RoleStoreManager, testPeriod(), reports)

	if sc.Breakdown.SubmissionRate != SubmissionWeight {
		t.Errorf("SubmissionRate = %v, want %v", sc.Breakdown.SubmissionRate, SubmissionWeight)
	}
}

func TestScore_FrontOfficeScenario(t *testing.T) {
	// 30 days, 120 reports (4 kinds x 30), 108 approved, all on time, no
	// clarifications.
	kinds := []models.ReportKind{models.KindOccupancy, models.KindGuestActivity, models.KindRevenue, models.KindComplaint}
	var reports []models.Report
	approved := 0
	for day := 0; day < 30; day++ {
		for _, kind := range kinds {
			status := models.StatusApproved
			if approved >= 108 {
				status = models.StatusPending
			} else {
				approved++
			}
			reports = append(reports, onTimeReport(day, kind, status))
		}
	}

	sc := Score(DefaultConfig(), scorerSubmitter, models.RoleFrontOfficeManager, testPeriod(), reports)

	if sc.ExpectedReports != 120 {
		t.Fatalf("ExpectedReports = %d, want 120", sc.ExpectedReports)
	}
	if !almostEqual(sc.Breakdown.SubmissionRate, 30) {
		t.Errorf("SubmissionRate = %v, want 30", sc.Breakdown.SubmissionRate)
	}
	if !almostEqual(sc.Breakdown.ApprovalRate, 31.5) {
		t.Errorf("ApprovalRate = %v, want 31.5", sc.Breakdown.ApprovalRate)
	}
	if !almostEqual(sc.Breakdown.Timeliness, 20) {
		t.Errorf("Timeliness = %v, want 20", sc.Breakdown.Timeliness)
	}
	if !almostEqual(sc.Breakdown.ResponseTime, 15) {
		t.Errorf("ResponseTime = %v, want 15", sc.Breakdown.ResponseTime)
	}
	if !almostEqual(sc.OverallScore, 96.5) {
		t.Errorf("OverallScore = %v, want 96.5", sc.OverallScore)
	}
	if !sc.TopPerformer {
		t.Error("TopPerformer = false, want true")
	}
	if sc.NeedsAttention {
		t.Error("NeedsAttention = true, want false")
	}
	if sc.Trend != models.TrendImproving {
		t.Errorf("Trend = %q, want improving", sc.Trend)
	}
}

func TestScore_LateClassification(t *testing.T) {
	// reportDate 2024-01-01 filed 2024-01-03T10:00Z is 58 hours late.
	late := models.Report{
		ID:          uuid.New(),
		SubmitterID: scorerSubmitter,
		Kind:        models.KindStock,
		ReportDate:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		CreatedAt:   time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC),
		Status:      models.StatusApproved,
	}
	sc := Score(DefaultConfig(), scorerSubmitter, models.RoleStoreManager, testPeriod(), []models.Report{late})

	if sc.LateSubmissions != 1 || sc.OnTimeSubmissions != 0 {
		t.Errorf("late/onTime = %d/%d, want 1/0", sc.LateSubmissions, sc.OnTimeSubmissions)
	}
	if sc.Breakdown.Timeliness != 0 {
		t.Errorf("Timeliness = %v, want 0", sc.Breakdown.Timeliness)
	}
	if !sc.NeedsAttention {
		t.Error("NeedsAttention = false, want true (late > onTime)")
	}
}

func TestScore_ResponseTimeSteps(t *testing.T) {
	cases := []struct {
		delay time.Duration
		want  float64
	}{
		{2 * time.Hour, 15},
		{6 * time.Hour, 12},
		{12 * time.Hour, 8},
		{36 * time.Hour, 3},
	}

	for _, tc := range cases {
		report := withThread(onTimeReport(0, models.KindSales, models.StatusApproved), tc.delay)
		sc := Score(DefaultConfig(), scorerSubmitter, models.RoleStoreManager, testPeriod(), []models.Report{report})
		if sc.Breakdown.ResponseTime != tc.want {
			t.Errorf("delay %v: ResponseTime = %v, want %v", tc.delay, sc.Breakdown.ResponseTime, tc.want)
		}
	}
}

func TestScore_AvgResponseAcrossReports(t *testing.T) {
	reports := []models.Report{
		withThread(onTimeReport(0, models.KindSales, models.StatusApproved), 2*time.Hour),
		withThread(onTimeReport(1, models.KindStock, models.StatusApproved), 10*time.Hour),
		onTimeReport(2, models.KindExpense, models.StatusApproved), // no thread
	}
	sc := Score(DefaultConfig(), scorerSubmitter, models.RoleStoreManager, testPeriod(), reports)

	if !almostEqual(sc.AvgResponseHours, 6) {
		t.Errorf("AvgResponseHours = %v, want 6", sc.AvgResponseHours)
	}
	if sc.ClarificationReports != 2 {
		t.Errorf("ClarificationReports = %d, want 2", sc.ClarificationReports)
	}
	if sc.Breakdown.ResponseTime != 12 {
		t.Errorf("ResponseTime = %v, want 12 (avg 6h)", sc.Breakdown.ResponseTime)
	}
}

func TestScore_ToleratesDuplicateRows(t *testing.T) {
	// Two rows for the same (kind, date) both count; the scorer never
	// assumes the one-per-day invariant held upstream.
	dup := onTimeReport(0, models.KindSales, models.StatusApproved)
	sc := Score(DefaultConfig(), scorerSubmitter, models.RoleStoreManager, testPeriod(), []models.Report{dup, dup})

	if sc.TotalReports != 2 || sc.ApprovedReports != 2 {
		t.Errorf("total/approved = %d/%d, want 2/2", sc.TotalReports, sc.ApprovedReports)
	}
}

func TestScore_TrendThresholds(t *testing.T) {
	// Trend is the point-in-time heuristic over the overall score.
	low := Score(DefaultConfig(), scorerSubmitter, models.RoleStoreManager, testPeriod(), []models.Report{
		{
			ID: uuid.New(), SubmitterID: scorerSubmitter, Kind: models.KindSales,
			ReportDate: periodStart, CreatedAt: periodStart.AddDate(0, 0, 5),
			Status: models.StatusRejected,
		},
	})
	if low.Trend != models.TrendDeclining {
		t.Errorf("Trend = %q, want declining (score %v)", low.Trend, low.OverallScore)
	}
	if !low.NeedsAttention {
		t.Error("NeedsAttention = false, want true")
	}
}
