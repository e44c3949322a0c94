package service

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/noah-isme/siteops-api/internal/models"
	appErrors "github.com/noah-isme/siteops-api/pkg/errors"
)

type reportHistorySource interface {
	AllReports(ctx context.Context) ([]models.DailyReport, error)
	AllItems(ctx context.Context) ([]models.ReportItem, error)
}

type summaryLedgerSource interface {
	All(ctx context.Context) ([]models.SubActivitySummary, error)
	Overwrite(ctx context.Context, summaries []models.SubActivitySummary) error
}

// ReconcileResult reports how many ledger entries were examined and how
// many were repaired.
type ReconcileResult struct {
	Checked int `json:"checked"`
	Fixed   int `json:"fixed"`
}

// ReconcileService recomputes every ledger entry from the full report
// history and repairs drift. The replay is a pure function over the
// report/item log, independent of the live engines, so the job is
// idempotent: a second run right after a repair finds nothing to fix.
//
// Known asymmetry, kept on purpose: the replay attributes all approved
// quantity to grade A regardless of the grade each report was actually
// approved with, while the live approval engine honours the chosen
// grade. Do not unify the two without a product decision.
type ReconcileService struct {
	reports   reportHistorySource
	summaries summaryLedgerSource
	cache     *CacheService
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewReconcileService constructs a ReconcileService.
func NewReconcileService(reports reportHistorySource, summaries summaryLedgerSource, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *ReconcileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconcileService{reports: reports, summaries: summaries, cache: cache, metrics: metrics, logger: logger}
}

// tolerance absorbs float drift from summing increments in a different
// order than they were applied.
const tolerance = 1e-6

type recomputedEntry struct {
	done    float64
	pending float64
	zones   map[string]recomputedZone
}

type recomputedZone struct {
	done    float64
	pending float64
}

// Run replays the report history, diffs it against the ledger and
// overwrites mismatched entries in a single batch.
func (s *ReconcileService) Run(ctx context.Context) (*ReconcileResult, error) {
	reports, err := s.reports.AllReports(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to scan report history")
	}
	items, err := s.reports.AllItems(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to scan report items")
	}
	existing, err := s.summaries.All(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to scan ledger entries")
	}

	recomputed := replayHistory(reports, items)

	result := &ReconcileResult{}
	var repairs []models.SubActivitySummary

	covered := make(map[string]struct{}, len(existing))
	for i := range existing {
		entry := existing[i]
		covered[entry.SubActivityID] = struct{}{}
		result.Checked++

		expected := recomputed[entry.SubActivityID]
		if summaryMatches(&entry, expected) {
			continue
		}

		repairs = append(repairs, repairedSummary(&entry, expected))
		result.Fixed++
	}

	// History referencing sub-activities with no ledger entry is
	// counted but never fixed; the job does not create entries.
	for subActivityID := range recomputed {
		if _, ok := covered[subActivityID]; ok {
			continue
		}
		result.Checked++
		s.logger.Warn("report history exists for sub-activity without ledger entry",
			zap.String("sub_activity_id", subActivityID))
	}

	if len(repairs) > 0 {
		if err := s.summaries.Overwrite(ctx, repairs); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to write ledger repairs")
		}
		if s.cache != nil {
			if err := s.cache.Invalidate(ctx, "dash:project:*"); err != nil {
				s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
			}
		}
	}

	s.metrics.RecordReconcileRun(result.Fixed)
	s.logger.Info("summary reconciliation finished",
		zap.Int("checked", result.Checked),
		zap.Int("fixed", result.Fixed))
	return result, nil
}

// replayHistory folds the full report/item log into per-sub-activity
// totals: Approved reports feed done, Pending reports feed pending,
// each mirrored per zone.
func replayHistory(reports []models.DailyReport, items []models.ReportItem) map[string]recomputedEntry {
	statusByReport := make(map[string]models.ReportStatus, len(reports))
	for _, report := range reports {
		statusByReport[report.ID] = report.Status
	}

	result := make(map[string]recomputedEntry)
	for _, item := range items {
		status, ok := statusByReport[item.ReportID]
		if !ok {
			continue
		}
		entry := result[item.SubActivityID]
		if entry.zones == nil {
			entry.zones = make(map[string]recomputedZone)
		}
		switch status {
		case models.ReportApproved:
			entry.done += item.Quantity
		case models.ReportPending:
			entry.pending += item.Quantity
		}
		if item.ZoneName != nil && *item.ZoneName != "" {
			zone := entry.zones[*item.ZoneName]
			switch status {
			case models.ReportApproved:
				zone.done += item.Quantity
			case models.ReportPending:
				zone.pending += item.Quantity
			}
			entry.zones[*item.ZoneName] = zone
		}
		result[item.SubActivityID] = entry
	}
	return result
}

func summaryMatches(entry *models.SubActivitySummary, expected recomputedEntry) bool {
	if !closeEnough(entry.DoneWork, expected.done) || !closeEnough(entry.PendingWork, expected.pending) {
		return false
	}
	seen := make(map[string]struct{}, len(entry.Zones))
	for _, zone := range entry.Zones {
		seen[zone.ZoneName] = struct{}{}
		want := expected.zones[zone.ZoneName]
		if !closeEnough(zone.DoneWork, want.done) || !closeEnough(zone.PendingWork, want.pending) {
			return false
		}
	}
	for name, want := range expected.zones {
		if _, ok := seen[name]; ok {
			continue
		}
		if want.done != 0 || want.pending != 0 {
			return false
		}
	}
	return true
}

// repairedSummary builds the overwrite payload. Recomputed done is
// attributed entirely to grade A, mirroring the replay's behaviour.
func repairedSummary(entry *models.SubActivitySummary, expected recomputedEntry) models.SubActivitySummary {
	fixed := models.SubActivitySummary{
		SubActivityID: entry.SubActivityID,
		ProjectID:     entry.ProjectID,
		TotalWork:     entry.TotalWork,
		DoneWork:      expected.done,
		PendingWork:   expected.pending,
		WorkGradeA:    expected.done,
		WorkGradeB:    0,
		WorkGradeC:    0,
	}
	written := make(map[string]struct{}, len(entry.Zones))
	for _, zone := range entry.Zones {
		written[zone.ZoneName] = struct{}{}
		want := expected.zones[zone.ZoneName]
		fixed.Zones = append(fixed.Zones, models.ZoneProgress{
			SubActivityID: entry.SubActivityID,
			ZoneName:      zone.ZoneName,
			PlannedWork:   zone.PlannedWork,
			DoneWork:      want.done,
			PendingWork:   want.pending,
		})
	}
	for name, want := range expected.zones {
		if _, ok := written[name]; ok {
			continue
		}
		fixed.Zones = append(fixed.Zones, models.ZoneProgress{
			SubActivityID: entry.SubActivityID,
			ZoneName:      name,
			DoneWork:      want.done,
			PendingWork:   want.pending,
		})
	}
	return fixed
}

func closeEnough(a, b float64) bool {
	return math.Abs(a-b) <= tolerance
}
