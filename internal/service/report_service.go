package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/siteops-api/internal/models"
	"github.com/noah-isme/siteops-api/internal/repository"
	appErrors "github.com/noah-isme/siteops-api/pkg/errors"
)

// ledgerStore runs a function inside one ledger transaction. Either
// every write the function performs commits, or none do.
type ledgerStore interface {
	Transact(ctx context.Context, fn func(tx repository.LedgerTx) error) error
}

type reportReader interface {
	List(ctx context.Context, filter models.ReportFilter) ([]models.DailyReport, *models.Pagination, error)
	GetWithItems(ctx context.Context, projectID, reportID string) (*models.DailyReport, error)
}

// SubmitReportItem is one work-done claim within a submission.
type SubmitReportItem struct {
	SubActivityID  string  `json:"sub_activity_id" validate:"required"`
	ZoneID         *string `json:"zone_id"`
	ZoneName       *string `json:"zone_name"`
	Quantity       float64 `json:"quantity" validate:"required,gt=0"`
	GeneralForeman *string `json:"general_foreman"`
	Foreman        *string `json:"foreman"`
	Road           *string `json:"road"`
	Subcontractor  *string `json:"subcontractor"`
	Remarks        *string `json:"remarks"`
}

// SubmitReportRequest is the payload for submitting a daily report.
type SubmitReportRequest struct {
	EngineerID string             `json:"engineer_id" validate:"required"`
	CMID       string             `json:"cm_id" validate:"required"`
	ZoneID     *string            `json:"zone_id"`
	ReportDate time.Time          `json:"report_date" validate:"required"`
	Remarks    *string            `json:"remarks"`
	Items      []SubmitReportItem `json:"items" validate:"required,min=1,dive"`
}

// ApproveReportRequest carries the grade applied to a whole report.
type ApproveReportRequest struct {
	Grade models.WorkGrade `json:"grade" validate:"required"`
}

// ReportService implements the daily report and approval engines. Both
// operations mutate ledger counters through relative increments inside
// the same transaction as the report mutation, so a crash or conflict
// can never leave a half-applied report behind. A missing ledger entry
// never blocks a submission: the item's counter update is skipped, the
// gap is recorded and the reconciliation job repairs it later.
type ReportService struct {
	ledger    ledgerStore
	reports   reportReader
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewReportService constructs a ReportService.
func NewReportService(ledger ledgerStore, reports reportReader, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		ledger:    ledger,
		reports:   reports,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// Submit creates a Pending report with its items and increments the
// pending counters of every referenced ledger entry, all in one
// transaction.
func (s *ReportService) Submit(ctx context.Context, projectID string, req SubmitReportRequest) (*models.DailyReport, error) {
	if projectID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "project id is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload")
	}
	if len(req.Items) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "report must contain at least one item")
	}
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("item %d: quantity must be positive", i+1))
		}
	}

	now := s.now().UTC()
	report := &models.DailyReport{
		ID:         uuid.NewString(),
		ProjectID:  projectID,
		EngineerID: req.EngineerID,
		CMID:       req.CMID,
		ZoneID:     req.ZoneID,
		ReportDate: req.ReportDate.UTC(),
		DiaryDate:  models.DiaryDate(req.ReportDate),
		Status:     models.ReportPending,
		Remarks:    req.Remarks,
		CreatedAt:  now,
	}
	for _, item := range req.Items {
		report.Items = append(report.Items, models.ReportItem{
			ID:             uuid.NewString(),
			ReportID:       report.ID,
			SubActivityID:  item.SubActivityID,
			ZoneID:         item.ZoneID,
			ZoneName:       item.ZoneName,
			Quantity:       item.Quantity,
			GeneralForeman: item.GeneralForeman,
			Foreman:        item.Foreman,
			Road:           item.Road,
			Subcontractor:  item.Subcontractor,
			Remarks:        item.Remarks,
			CreatedAt:      now,
		})
	}

	err := s.ledger.Transact(ctx, func(tx repository.LedgerTx) error {
		exists, err := tx.ProjectExists(ctx, projectID)
		if err != nil {
			return err
		}
		if !exists {
			return appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		if err := tx.InsertReport(ctx, report); err != nil {
			return err
		}
		for i := range report.Items {
			item := &report.Items[i]
			if err := tx.InsertItem(ctx, item); err != nil {
				return err
			}
			updated, err := tx.AddPending(ctx, item.SubActivityID, item.Quantity)
			if err != nil {
				return err
			}
			if !updated {
				if err := s.recordAnomaly(ctx, tx, report, item.SubActivityID, models.AnomalyStageSubmit); err != nil {
					return err
				}
				continue
			}
			if item.ZoneName != nil && *item.ZoneName != "" {
				zoneUpdated, err := tx.AddZonePending(ctx, item.SubActivityID, *item.ZoneName, item.Quantity)
				if err != nil {
					return err
				}
				if !zoneUpdated {
					s.logger.Warn("zone bucket missing, zone counters skipped",
						zap.String("sub_activity_id", item.SubActivityID),
						zap.String("zone", *item.ZoneName))
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.wrapLedgerErr(err, "failed to submit daily report")
	}

	s.metrics.RecordReportSubmitted()
	s.invalidateDashboard(ctx, projectID)
	return report, nil
}

// Approve transitions a Pending report to Approved with a grade, moves
// the pending quantities of its items to done and the chosen grade
// bucket, and folds the resulting percent delta into the project
// summary. Approving an already-Approved report is a silent no-op.
func (s *ReportService) Approve(ctx context.Context, projectID, reportID string, grade models.WorkGrade) error {
	if !grade.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "grade must be A, B or C")
	}

	alreadyApproved := false
	err := s.ledger.Transact(ctx, func(tx repository.LedgerTx) error {
		report, err := tx.ReportForUpdate(ctx, projectID, reportID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "report not found")
			}
			return err
		}
		if report.Status == models.ReportApproved {
			alreadyApproved = true
			return nil
		}

		items, err := tx.ItemsByReport(ctx, reportID)
		if err != nil {
			return err
		}

		ids := make([]string, 0, len(items))
		seen := make(map[string]struct{}, len(items))
		for _, item := range items {
			if _, ok := seen[item.SubActivityID]; ok {
				continue
			}
			seen[item.SubActivityID] = struct{}{}
			ids = append(ids, item.SubActivityID)
		}

		// Pre-transaction snapshot: every item's percent delta is
		// evaluated against the same ledger state, so two items on one
		// sub-activity cannot double-count within this approval.
		snapshot, err := tx.SummariesForUpdate(ctx, ids)
		if err != nil {
			return err
		}

		totalChange := 0.0
		for _, item := range items {
			summary, ok := snapshot[item.SubActivityID]
			if !ok {
				continue
			}
			oldPct := progressPercent(summary.DoneWork, summary.TotalWork)
			newPct := progressPercent(summary.DoneWork+item.Quantity, summary.TotalWork)
			totalChange += newPct - oldPct
		}

		now := s.now().UTC()
		if err := tx.MarkApproved(ctx, reportID, grade, now); err != nil {
			return err
		}

		for i := range items {
			item := &items[i]
			if _, ok := snapshot[item.SubActivityID]; !ok {
				if err := s.recordAnomaly(ctx, tx, report, item.SubActivityID, models.AnomalyStageApprove); err != nil {
					return err
				}
				continue
			}
			if _, err := tx.MovePendingToDone(ctx, item.SubActivityID, item.Quantity, grade); err != nil {
				return err
			}
			if item.ZoneName != nil && *item.ZoneName != "" {
				zoneUpdated, err := tx.MoveZonePendingToDone(ctx, item.SubActivityID, *item.ZoneName, item.Quantity)
				if err != nil {
					return err
				}
				if !zoneUpdated {
					s.logger.Warn("zone bucket missing, zone counters skipped",
						zap.String("sub_activity_id", item.SubActivityID),
						zap.String("zone", *item.ZoneName))
				}
			}
		}

		return tx.ApplyProjectProgress(ctx, projectID, totalChange, now)
	})
	if err != nil {
		return s.wrapLedgerErr(err, "failed to approve daily report")
	}

	if !alreadyApproved {
		s.metrics.RecordReportApproved(string(grade))
		s.invalidateDashboard(ctx, projectID)
	}
	return nil
}

// List returns reports matching the filter.
func (s *ReportService) List(ctx context.Context, filter models.ReportFilter) ([]models.DailyReport, *models.Pagination, error) {
	if filter.ProjectID == "" {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "project id is required")
	}
	reports, pagination, err := s.reports.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reports")
	}
	return reports, pagination, nil
}

// Get returns one report with its items.
func (s *ReportService) Get(ctx context.Context, projectID, reportID string) (*models.DailyReport, error) {
	report, err := s.reports.GetWithItems(ctx, projectID, reportID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report")
	}
	return report, nil
}

func (s *ReportService) recordAnomaly(ctx context.Context, tx repository.LedgerTx, report *models.DailyReport, subActivityID, stage string) error {
	s.logger.Warn("ledger entry missing, counters skipped",
		zap.String("project_id", report.ProjectID),
		zap.String("report_id", report.ID),
		zap.String("sub_activity_id", subActivityID),
		zap.String("stage", stage))
	return tx.RecordAnomaly(ctx, &models.LedgerAnomaly{
		ID:            uuid.NewString(),
		ProjectID:     report.ProjectID,
		ReportID:      report.ID,
		SubActivityID: subActivityID,
		Stage:         stage,
		Detail:        "summary missing for sub-activity " + subActivityID,
		CreatedAt:     s.now().UTC(),
	})
}

func (s *ReportService) invalidateDashboard(ctx context.Context, projectID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "dash:project:"+projectID+"*"); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.String("project_id", projectID), zap.Error(err))
	}
}

func (s *ReportService) wrapLedgerErr(err error, msg string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, msg)
}

func progressPercent(done, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return done / total * 100
}
