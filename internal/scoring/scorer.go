// Package scoring turns a submitter's report history into a 0-100 compliance
// score with a weighted breakdown, coaching recommendations, and team-level
// aggregates. Everything here is a pure reduction over a snapshot of reports;
// results are reproducible and safe to cache for the life of the snapshot.
package scoring

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/opsline/fieldreport-server/internal/lifecycle"
	"github.com/opsline/fieldreport-server/internal/models"
)

// Component weights. The four components sum to the overall 0-100 score.
const (
	SubmissionWeight   = 30.0
	ApprovalWeight     = 35.0
	TimelinessWeight   = 20.0
	ResponseTimeWeight = 15.0
)

// OnTimeWindowHours is how long after the report date's midnight a
// submission still counts as on time.
const OnTimeWindowHours = 24

// Score flag and trend thresholds.
const (
	topPerformerThreshold   = 85.0
	needsAttentionThreshold = 60.0
	trendImprovingThreshold = 75.0
	trendDecliningThreshold = 50.0
)

// Config carries the per-role reporting obligations. ExpectedKindsPerDay maps
// a submitter role to the number of distinct report kinds that role must file
// each day; roles absent from the map owe zero reports.
type Config struct {
	ExpectedKindsPerDay map[string]int
}

// DefaultConfig mirrors the standing obligations: store managers file three
// kinds daily, front-office managers four.
func DefaultConfig() Config {
	return Config{ExpectedKindsPerDay: map[string]int{
		models.RoleStoreManager:       3,
		models.RoleFrontOfficeManager: 4,
	}}
}

// Period is a closed reporting window of whole calendar days.
type Period struct {
	Start time.Time
	End   time.Time
	Days  int
}

// NewPeriod builds a period from two calendar dates, inclusive on both ends.
func NewPeriod(start, end time.Time) Period {
	start = midnightUTC(start)
	end = midnightUTC(end)
	days := int(end.Sub(start).Hours()/24) + 1
	if days < 0 {
		days = 0
	}
	return Period{Start: start, End: end, Days: days}
}

func midnightUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Score reduces a submitter's reports for the period into a ComplianceScore.
// The reports slice must already be filtered to the submitter and period; the
// function tolerates duplicate (kind, date) rows rather than assuming the
// one-per-day invariant held upstream. A submitter with no reports gets a
// zeroed score, except response time which stays at full weight because no
// clarification friction occurred.
func Score(cfg Config, submitterID uuid.UUID, role string, period Period, reports []models.Report) models.ComplianceScore {
	sc := models.ComplianceScore{
		SubmitterID: submitterID,
		PeriodStart: period.Start,
		PeriodEnd:   period.End,
		PeriodDays:  period.Days,
	}

	sc.ExpectedReports = period.Days * cfg.ExpectedKindsPerDay[role]
	sc.TotalReports = len(reports)

	var responseHoursSum float64
	var responseCount int
	for _, r := range reports {
		switch r.Status {
		case models.StatusApproved:
			sc.ApprovedReports++
		case models.StatusRejected:
			sc.RejectedReports++
		}
		if len(r.Thread) > 0 {
			sc.ClarificationReports++
		}
		if lifecycle.SubmissionDelayHours(r.ReportDate, r.CreatedAt) <= OnTimeWindowHours {
			sc.OnTimeSubmissions++
		} else {
			sc.LateSubmissions++
		}
		if h, ok := lifecycle.FirstResponseDelay(r.Thread); ok {
			responseHoursSum += h
			responseCount++
		}
	}

	if sc.ExpectedReports > 0 {
		sc.Breakdown.SubmissionRate = math.Min(
			float64(sc.TotalReports)/float64(sc.ExpectedReports)*SubmissionWeight,
			SubmissionWeight,
		)
	}
	if sc.TotalReports > 0 {
		sc.Breakdown.ApprovalRate = float64(sc.ApprovedReports) / float64(sc.TotalReports) * ApprovalWeight
		sc.Breakdown.Timeliness = float64(sc.OnTimeSubmissions) / float64(sc.TotalReports) * TimelinessWeight
	}

	if responseCount == 0 {
		// No clarifications at all: absence of friction earns full marks.
		sc.Breakdown.ResponseTime = ResponseTimeWeight
	} else {
		sc.AvgResponseHours = responseHoursSum / float64(responseCount)
		sc.Breakdown.ResponseTime = responseTimeScore(sc.AvgResponseHours)
	}

	sc.OverallScore = sc.Breakdown.SubmissionRate +
		sc.Breakdown.ApprovalRate +
		sc.Breakdown.Timeliness +
		sc.Breakdown.ResponseTime

	// An empty period scores zero overall even though the response-time
	// component shows its neutral full weight in the breakdown.
	if sc.TotalReports == 0 {
		sc.OverallScore = 0
	}

	sc.TopPerformer = sc.OverallScore >= topPerformerThreshold
	sc.NeedsAttention = sc.OverallScore < needsAttentionThreshold ||
		sc.LateSubmissions > sc.OnTimeSubmissions

	// Point-in-time heuristic, not a period-over-period delta.
	switch {
	case sc.OverallScore >= trendImprovingThreshold:
		sc.Trend = models.TrendImproving
	case sc.OverallScore < trendDecliningThreshold:
		sc.Trend = models.TrendDeclining
	default:
		sc.Trend = models.TrendStable
	}

	sc.Recommendations = Recommendations(sc)
	return sc
}

// responseTimeScore is a step function over the average hours a submitter
// takes to answer a clarification question.
func responseTimeScore(avgHours float64) float64 {
	switch {
	case avgHours < 4:
		return 15
	case avgHours < 8:
		return 12
	case avgHours < 24:
		return 8
	default:
		return 3
	}
}
