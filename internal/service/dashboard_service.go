package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/siteops-api/internal/dto"
	"github.com/noah-isme/siteops-api/internal/models"
	appErrors "github.com/noah-isme/siteops-api/pkg/errors"
)

type summaryReader interface {
	ListByProject(ctx context.Context, projectID string) ([]models.SubActivitySummary, error)
	ProjectSummary(ctx context.Context, projectID string) (*models.ProjectSummary, error)
	Anomalies(ctx context.Context, projectID string, limit int) ([]models.LedgerAnomaly, error)
}

type projectReader interface {
	FindByID(ctx context.Context, id string) (*models.Project, error)
}

// DashboardService serves the aggregated project view. It reads only
// ledger rows, never report history, and fronts them with a short-TTL
// Redis cache keyed per project. Submission and approval invalidate the
// key, so a cached payload is at worst one TTL stale after a repair by
// the reconciliation job.
type DashboardService struct {
	summaries summaryReader
	projects  projectReader
	cache     *CacheService
	ttl       time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(summaries summaryReader, projects projectReader, cache *CacheService, ttl time.Duration, logger *zap.Logger) *DashboardService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		summaries: summaries,
		projects:  projects,
		cache:     cache,
		ttl:       ttl,
		logger:    logger,
		now:       time.Now,
	}
}

func dashboardCacheKey(projectID string) string {
	return "dash:project:" + projectID
}

// ProjectDashboard builds the dashboard for one project.
func (s *DashboardService) ProjectDashboard(ctx context.Context, projectID string) (*dto.DashboardResponse, error) {
	key := dashboardCacheKey(projectID)
	if s.cache != nil {
		var cached dto.DashboardResponse
		hit, err := s.cache.Get(ctx, key, &cached)
		if err == nil && hit {
			return &cached, nil
		}
	}

	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}

	root, err := s.summaries.ProjectSummary(ctx, projectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project summary")
	}
	entries, err := s.summaries.ListByProject(ctx, projectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ledger entries")
	}

	resp := &dto.DashboardResponse{
		ProjectID:     projectID,
		ProjectName:   project.Name,
		Status:        project.Status,
		SubActivities: make([]dto.SubActivityCard, 0, len(entries)),
		GeneratedAt:   s.now().UTC(),
	}
	if root != nil {
		resp.OverallProgress = root.OverallProgress
		resp.SubActivityCount = root.SubActivityCount
		resp.LastReportAt = root.LastReportAt
	}
	for i := range entries {
		entry := &entries[i]
		card := dto.SubActivityCard{
			SubActivityID:   entry.SubActivityID,
			TotalWork:       entry.TotalWork,
			DoneWork:        entry.DoneWork,
			PendingWork:     entry.PendingWork,
			WorkGradeA:      entry.WorkGradeA,
			WorkGradeB:      entry.WorkGradeB,
			WorkGradeC:      entry.WorkGradeC,
			ProgressPercent: entry.ProgressPercent(),
		}
		for _, zone := range entry.Zones {
			card.Zones = append(card.Zones, dto.ZoneBlock{
				ZoneName:    zone.ZoneName,
				PlannedWork: zone.PlannedWork,
				DoneWork:    zone.DoneWork,
				PendingWork: zone.PendingWork,
			})
		}
		resp.SubActivities = append(resp.SubActivities, card)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, resp, s.ttl); err != nil {
			s.logger.Warn("dashboard cache write failed",
				zap.String("project_id", projectID), zap.Error(err))
		}
	}
	return resp, nil
}

// Anomalies returns the most recent ledger anomalies for a project.
func (s *DashboardService) Anomalies(ctx context.Context, projectID string, limit int) ([]models.LedgerAnomaly, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	anomalies, err := s.summaries.Anomalies(ctx, projectID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load anomalies")
	}
	return anomalies, nil
}
