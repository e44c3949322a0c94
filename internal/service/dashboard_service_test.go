package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/siteops-api/internal/models"
	appErrors "github.com/noah-isme/siteops-api/pkg/errors"
)

// memoryCache is a CacheRepository backed by a map, round-tripping
// values through JSON the way the Redis repository does.
type memoryCache struct {
	data    map[string][]byte
	gets    int
	sets    int
	deletes []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.gets++
	raw, ok := m.data[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.sets++
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.deletes = append(m.deletes, pattern)
	m.data = map[string][]byte{}
	return nil
}

type stubSummaryReader struct {
	entries   []models.SubActivitySummary
	root      *models.ProjectSummary
	anomalies []models.LedgerAnomaly
	lastLimit int
}

func (s *stubSummaryReader) ListByProject(ctx context.Context, projectID string) ([]models.SubActivitySummary, error) {
	return s.entries, nil
}

func (s *stubSummaryReader) ProjectSummary(ctx context.Context, projectID string) (*models.ProjectSummary, error) {
	return s.root, nil
}

func (s *stubSummaryReader) Anomalies(ctx context.Context, projectID string, limit int) ([]models.LedgerAnomaly, error) {
	s.lastLimit = limit
	return s.anomalies, nil
}

type stubProjectReader struct {
	project *models.Project
}

func (s *stubProjectReader) FindByID(ctx context.Context, id string) (*models.Project, error) {
	if s.project == nil || s.project.ID != id {
		return nil, sql.ErrNoRows
	}
	return s.project, nil
}

func dashboardFixtures() (*stubSummaryReader, *stubProjectReader) {
	lastReport := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	summaries := &stubSummaryReader{
		root: &models.ProjectSummary{
			ProjectID:        "proj-1",
			SubActivityCount: 2,
			TotalProgressSum: 75,
			OverallProgress:  37.5,
			LastReportAt:     &lastReport,
		},
		entries: []models.SubActivitySummary{
			{
				SubActivityID: "sub-1", ProjectID: "proj-1",
				TotalWork: 100, DoneWork: 50, PendingWork: 10, WorkGradeA: 40, WorkGradeB: 10,
				Zones: []models.ZoneProgress{{ZoneName: "North", PlannedWork: 60, DoneWork: 30, PendingWork: 5}},
			},
			{SubActivityID: "sub-2", ProjectID: "proj-1", TotalWork: 80, DoneWork: 20},
		},
	}
	projects := &stubProjectReader{
		project: &models.Project{ID: "proj-1", Name: "Ring Road Extension", Status: models.ProjectActive},
	}
	return summaries, projects
}

func TestDashboardBuildsFromLedger(t *testing.T) {
	summaries, projects := dashboardFixtures()
	svc := NewDashboardService(summaries, projects, nil, time.Minute, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 14, 13, 0, 0, 0, time.UTC) }

	resp, err := svc.ProjectDashboard(context.Background(), "proj-1")
	require.NoError(t, err)

	assert.Equal(t, "Ring Road Extension", resp.ProjectName)
	assert.Equal(t, 37.5, resp.OverallProgress)
	assert.Equal(t, 2, resp.SubActivityCount)
	require.Len(t, resp.SubActivities, 2)

	card := resp.SubActivities[0]
	assert.Equal(t, 50.0, card.DoneWork)
	assert.Equal(t, 50.0, card.ProgressPercent)
	require.Len(t, card.Zones, 1)
	assert.Equal(t, "North", card.Zones[0].ZoneName)
}

func TestDashboardCacheHitSkipsReaders(t *testing.T) {
	summaries, projects := dashboardFixtures()
	repo := newMemoryCache()
	cache := NewCacheService(repo, nil, time.Minute, nil, true)
	svc := NewDashboardService(summaries, projects, cache, time.Minute, nil)

	first, err := svc.ProjectDashboard(context.Background(), "proj-1")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.sets)
	assert.Contains(t, repo.data, "dash:project:proj-1")

	// Second call is served from the cache.
	projects.project = nil
	second, err := svc.ProjectDashboard(context.Background(), "proj-1")
	require.NoError(t, err)
	assert.Equal(t, first.OverallProgress, second.OverallProgress)
	assert.Equal(t, first.ProjectName, second.ProjectName)
	assert.Equal(t, 1, repo.sets)
}

func TestDashboardProjectNotFound(t *testing.T) {
	summaries, _ := dashboardFixtures()
	svc := NewDashboardService(summaries, &stubProjectReader{}, nil, time.Minute, nil)

	_, err := svc.ProjectDashboard(context.Background(), "missing")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestDashboardAnomaliesLimitClamped(t *testing.T) {
	summaries, projects := dashboardFixtures()
	svc := NewDashboardService(summaries, projects, nil, time.Minute, nil)

	_, err := svc.Anomalies(context.Background(), "proj-1", 0)
	require.NoError(t, err)
	assert.Equal(t, 50, summaries.lastLimit)

	_, err = svc.Anomalies(context.Background(), "proj-1", 1000)
	require.NoError(t, err)
	assert.Equal(t, 50, summaries.lastLimit)

	_, err = svc.Anomalies(context.Background(), "proj-1", 25)
	require.NoError(t, err)
	assert.Equal(t, 25, summaries.lastLimit)
}
