package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/opsline/fieldreport-server/internal/models"
	"github.com/opsline/fieldreport-server/internal/scoring"
)

// ComplianceService computes period scores and dashboard summaries. Scores
// are pure over the period's report snapshot, so they are cached: in Redis
// when configured, otherwise in-process.
type ComplianceService struct {
	db     *pgxpool.Pool
	rdb    *redis.Client // nil when Redis is not configured
	cfg    scoring.Config
	ttl    time.Duration
	logger *zap.SugaredLogger
	now    func() time.Time

	mu    sync.RWMutex
	local map[string]localEntry
}

type localEntry struct {
	score   models.ComplianceScore
	expires time.Time
}

// NewComplianceService creates a new compliance service. rdb may be nil.
func NewComplianceService(db *pgxpool.Pool, rdb *redis.Client, cfg scoring.Config, ttl time.Duration, logger *zap.SugaredLogger) *ComplianceService {
	return &ComplianceService{
		db:     db,
		rdb:    rdb,
		cfg:    cfg,
		ttl:    ttl,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		local:  make(map[string]localEntry),
	}
}

// WithClock overrides the clock for deterministic tests.
func (s *ComplianceService) WithClock(now func() time.Time) *ComplianceService {
	s.now = now
	return s
}

// ScoreFor computes (or serves from cache) the compliance score of one
// submitter over the period.
func (s *ComplianceService) ScoreFor(ctx context.Context, submitterID uuid.UUID, period scoring.Period) (*models.ComplianceScore, error) {
	key := fmt.Sprintf("score:%s:%s:%s",
		submitterID, period.Start.Format("2006-01-02"), period.End.Format("2006-01-02"))

	if sc, ok := s.cached(ctx, key); ok {
		return sc, nil
	}

	role, err := s.submitterRole(ctx, submitterID)
	if err != nil {
		return nil, err
	}

	reports, err := s.periodReports(ctx, &submitterID, period)
	if err != nil {
		return nil, err
	}

	sc := scoring.Score(s.cfg, submitterID, role, period, reports)
	s.cache(ctx, key, sc)
	return &sc, nil
}

// TeamSummary scores every submitter and rolls the results into the reviewer
// dashboard.
func (s *ComplianceService) TeamSummary(ctx context.Context, period scoring.Period) (*models.TeamSummary, error) {
	submitters, err := s.submitters(ctx)
	if err != nil {
		return nil, err
	}

	reports, err := s.periodReports(ctx, nil, period)
	if err != nil {
		return nil, err
	}
	bySubmitter := make(map[uuid.UUID][]models.Report)
	for _, r := range reports {
		bySubmitter[r.SubmitterID] = append(bySubmitter[r.SubmitterID], r)
	}

	scores := make([]models.ComplianceScore, 0, len(submitters))
	for _, u := range submitters {
		scores = append(scores, scoring.Score(s.cfg, u.ID, u.Role, period, bySubmitter[u.ID]))
	}

	counts, err := s.dashboardCounts(ctx, period, submitters)
	if err != nil {
		return nil, err
	}

	summary := scoring.Aggregate(period, scores, counts)
	return &summary, nil
}

func (s *ComplianceService) submitterRole(ctx context.Context, submitterID uuid.UUID) (string, error) {
	var role string
	err := s.db.QueryRow(ctx, `SELECT role FROM users WHERE id = $1`, submitterID).Scan(&role)
	if err != nil {
		return "", &models.NotFoundError{Entity: "submitter", ID: submitterID.String()}
	}
	return role, nil
}

func (s *ComplianceService) submitters(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, role FROM users WHERE role = ANY($1) ORDER BY name`,
		[]string{models.RoleStoreManager, models.RoleFrontOfficeManager},
	)
	if err != nil {
		return nil, fmt.Errorf("list submitters: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Role); err != nil {
			return nil, fmt.Errorf("scan submitter: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *ComplianceService) periodReports(ctx context.Context, submitterID *uuid.UUID, period scoring.Period) ([]models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE report_date >= $1 AND report_date <= $2`
	args := []interface{}{period.Start, period.End}
	if submitterID != nil {
		query += ` AND submitter_id = $3`
		args = append(args, *submitterID)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load period reports: %w", err)
	}
	defer rows.Close()

	var reports []models.Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		reports = append(reports, *report)
	}
	return reports, rows.Err()
}

func (s *ComplianceService) dashboardCounts(ctx context.Context, period scoring.Period, submitters []models.User) (scoring.DashboardCounts, error) {
	var counts scoring.DashboardCounts
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'approved'),
			COUNT(*) FILTER (WHERE status = 'rejected'),
			COUNT(*) FILTER (WHERE status = 'pending')
		FROM reports WHERE report_date >= $1 AND report_date <= $2`,
		period.Start, period.End,
	).Scan(&counts.TotalReports, &counts.ApprovedReports, &counts.RejectedReports, &counts.PendingReports)
	if err != nil {
		return counts, fmt.Errorf("count reports: %w", err)
	}

	today := scoring.Today(s.now())
	var filedToday int
	err = s.db.QueryRow(ctx,
		`SELECT COUNT(DISTINCT submitter_id) FROM reports WHERE report_date = $1`, today,
	).Scan(&filedToday)
	if err != nil {
		return counts, fmt.Errorf("count today's submitters: %w", err)
	}
	if missing := len(submitters) - filedToday; missing > 0 {
		counts.ManagersMissingToday = missing
	}

	return counts, nil
}

func (s *ComplianceService) cached(ctx context.Context, key string) (*models.ComplianceScore, bool) {
	if s.rdb != nil {
		raw, err := s.rdb.Get(ctx, key).Bytes()
		if err == nil {
			var sc models.ComplianceScore
			if err := json.Unmarshal(raw, &sc); err == nil {
				return &sc, true
			}
		}
		return nil, false
	}

	s.mu.RLock()
	entry, ok := s.local[key]
	s.mu.RUnlock()
	if !ok || s.now().After(entry.expires) {
		return nil, false
	}
	sc := entry.score
	return &sc, true
}

func (s *ComplianceService) cache(ctx context.Context, key string, sc models.ComplianceScore) {
	if s.rdb != nil {
		raw, err := json.Marshal(sc)
		if err == nil {
			if err := s.rdb.Set(ctx, key, raw, s.ttl).Err(); err != nil {
				s.logger.Warnw("Score cache write failed", "key", key, "error", err)
			}
		}
		return
	}

	s.mu.Lock()
	s.local[key] = localEntry{score: sc, expires: s.now().Add(s.ttl)}
	s.mu.Unlock()
}
