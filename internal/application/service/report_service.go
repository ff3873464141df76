package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zosarillana/prs-be/internal/application/dispatcher"
	"github.com/zosarillana/prs-be/internal/application/port"
	"github.com/zosarillana/prs-be/internal/domain/access"
	"github.com/zosarillana/prs-be/internal/domain/entity"
	"github.com/zosarillana/prs-be/internal/domain/event"
	"github.com/zosarillana/prs-be/internal/domain/status"
	"github.com/zosarillana/prs-be/pkg/utils"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
	seriesAttempts  = 3
)

// ReportService manages the purchase report itself: listing, CRUD, delivery
// tracking and dashboard counters.
type ReportService interface {
	ListVisible(ctx context.Context, user *entity.User, filter entity.ReportFilter) (*entity.Page, error)
	Get(ctx context.Context, user *entity.User, id int64) (*entity.PurchaseReport, error)
	CreateReport(ctx context.Context, user *entity.User, in entity.ReportInput, isDraft bool) (*entity.PurchaseReport, error)
	UpdateReport(ctx context.Context, user *entity.User, id int64, in entity.ReportInput, isDraft bool) (*entity.PurchaseReport, error)
	DeleteReport(ctx context.Context, user *entity.User, id int64) error
	UpdateDeliveryStatus(ctx context.Context, user *entity.User, id int64, s entity.DeliveryStatus) (*entity.PurchaseReport, error)
	SummaryCounts(ctx context.Context, user *entity.User) (*entity.SummaryCounts, error)
}

type reportServiceImpl struct {
	reportCore
	tagRepo port.TagRepository
}

// NewReportService creates a new ReportService
func NewReportService(
	reportRepo port.ReportRepository,
	tagRepo port.TagRepository,
	txManager port.TransactionManager,
	audit AuditService,
	notifier NotificationService,
	summaries *SummaryCache,
	d dispatcher.Dispatcher,
	logger Logger,
) ReportService {
	return &reportServiceImpl{
		reportCore: newReportCore(reportRepo, txManager, audit, notifier, summaries, d, logger),
		tagRepo:    tagRepo,
	}
}

func (s *reportServiceImpl) ListVisible(ctx context.Context, user *entity.User, filter entity.ReportFilter) (*entity.Page, error) {
	if user == nil {
		return nil, invalid("user", "is required")
	}
	if filter.PageNumber < 1 {
		filter.PageNumber = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = defaultPageSize
	}
	if filter.PageSize > maxPageSize {
		filter.PageSize = maxPageSize
	}

	page := &entity.Page{
		PageNumber: filter.PageNumber,
		PageSize:   filter.PageSize,
		Items:      []*entity.PurchaseReport{},
	}

	scope := access.ScopeFor(user)
	if scope.Empty() {
		return page, nil
	}

	items, total, err := s.reportRepo.List(ctx, scope, user, filter)
	if err != nil {
		s.logger.Error("Failed to list reports", "error", err, "user_id", user.ID)
		return nil, fmt.Errorf("list reports: %w", err)
	}

	page.Items = items
	page.TotalItems = total
	page.TotalPages = (total + filter.PageSize - 1) / filter.PageSize
	return page, nil
}

func (s *reportServiceImpl) Get(ctx context.Context, user *entity.User, id int64) (*entity.PurchaseReport, error) {
	if user == nil {
		return nil, invalid("user", "is required")
	}
	return s.load(ctx, id, user)
}

func (s *reportServiceImpl) CreateReport(ctx context.Context, user *entity.User, in entity.ReportInput, isDraft bool) (*entity.PurchaseReport, error) {
	if user == nil {
		return nil, invalid("user", "is required")
	}
	if in.UserID == 0 {
		in.UserID = user.ID
	}
	if in.UserID < 0 {
		return nil, invalid("user_id", "must be positive")
	}
	if err := validateReportInput(&in); err != nil {
		return nil, err
	}

	now := time.Now()
	r := &entity.PurchaseReport{
		UserID:          in.UserID,
		PrPurpose:       in.PrPurpose,
		Department:      in.Department,
		DateSubmitted:   in.DateSubmitted,
		DateNeeded:      in.DateNeeded,
		Quantity:        in.Quantity,
		Unit:            in.Unit,
		ItemDescription: in.ItemDescription,
		ItemStatus:      status.Initial(len(in.ItemDescription), isDraft),
		Remarks:         in.Remarks,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	r.PrStatus = status.Derive(r.ItemStatus, isDraft)
	if in.UserID == user.ID {
		r.CreatorName = user.Name
	}

	var err error
	for attempt := 1; attempt <= seriesAttempts; attempt++ {
		err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			tags, err := s.resolveTags(txCtx, in.TagIDs)
			if err != nil {
				return err
			}
			r.Tag = tags
			status.Normalize(r)

			existing, err := s.reportRepo.SeriesNumbers(txCtx)
			if err != nil {
				return fmt.Errorf("read series numbers: %w", err)
			}
			r.SeriesNo = status.NextSeriesNo(existing)

			if err := s.reportRepo.Create(txCtx, r); err != nil {
				return err
			}
			return s.audit.Record(txCtx, user.ID, entity.AuditCreate, entity.AuditModelReport, r.ID, nil, r)
		})
		if !errors.Is(err, port.ErrConflict) {
			break
		}
		s.logger.Info("Series number taken, retrying", "series_no", r.SeriesNo, "attempt", attempt)
	}
	if err != nil {
		s.logger.Error("Failed to create report", "error", err, "user_id", user.ID)
		return nil, err
	}

	s.logger.Info("Report created", "id", r.ID, "series_no", r.SeriesNo, "pr_status", r.PrStatus)

	var plans []Plan
	if !isDraft {
		plans = append(plans, CreatedPlan(r))
	}
	s.committed(ctx, r, "", event.ActionCreated, plans...)
	return r, nil
}

func (s *reportServiceImpl) UpdateReport(ctx context.Context, user *entity.User, id int64, in entity.ReportInput, isDraft bool) (*entity.PurchaseReport, error) {
	if user == nil {
		return nil, invalid("user", "is required")
	}
	if err := validateReportInput(&in); err != nil {
		return nil, err
	}
	tags, err := s.resolveTags(ctx, in.TagIDs)
	if err != nil {
		return nil, err
	}

	r, oldStatus, err := s.mutate(ctx, id, user, user.ID, entity.AuditUpdate, func(r *entity.PurchaseReport) error {
		status.Normalize(r)
		items := status.Resubmit(r.ItemStatus, r.PrStatus, len(in.ItemDescription), in.ItemStatus != nil, isDraft)

		remarks := r.Remarks
		if in.Remarks != nil {
			remarks = in.Remarks
		}

		if in.UserID != 0 {
			r.UserID = in.UserID
		}
		r.PrPurpose = in.PrPurpose
		r.Department = in.Department
		r.DateSubmitted = in.DateSubmitted
		r.DateNeeded = in.DateNeeded
		r.Quantity = in.Quantity
		r.Unit = in.Unit
		r.ItemDescription = in.ItemDescription
		r.Tag = tags
		r.ItemStatus = items
		r.Remarks = remarks
		r.PrStatus = status.Derive(items, isDraft)
		r.UpdatedAt = time.Now()
		status.Normalize(r)
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to update report", "error", err, "id", id)
		return nil, err
	}

	var plans []Plan
	if oldStatus == entity.ReportDrafted && !isDraft {
		plans = append(plans, CreatedPlan(r))
	}
	s.committed(ctx, r, oldStatus, event.ActionUpdated, plans...)
	return r, nil
}

func (s *reportServiceImpl) DeleteReport(ctx context.Context, user *entity.User, id int64) error {
	if user == nil {
		return invalid("user", "is required")
	}

	var deleted *entity.PurchaseReport
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		r, err := s.load(txCtx, id, user)
		if err != nil {
			return err
		}
		if err := s.reportRepo.Delete(txCtx, id); err != nil {
			return fmt.Errorf("delete report: %w", err)
		}
		deleted = r
		return s.audit.Record(txCtx, user.ID, entity.AuditDelete, entity.AuditModelReport, id, r, nil)
	})
	if err != nil {
		s.logger.Error("Failed to delete report", "error", err, "id", id)
		return err
	}

	s.logger.Info("Report deleted", "id", id, "series_no", deleted.SeriesNo)
	s.committed(ctx, deleted, deleted.PrStatus, event.ActionDeleted)
	return nil
}

func (s *reportServiceImpl) UpdateDeliveryStatus(ctx context.Context, user *entity.User, id int64, ds entity.DeliveryStatus) (*entity.PurchaseReport, error) {
	if user == nil {
		return nil, invalid("user", "is required")
	}
	if !ds.IsValid() {
		return nil, invalid("delivery_status", "must be one of pending, delivered, partial")
	}

	r, oldStatus, err := s.mutate(ctx, id, user, user.ID, entity.AuditDeliveryStatus, func(r *entity.PurchaseReport) error {
		r.DeliveryStatus = ds
		r.UpdatedAt = time.Now()
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to update delivery status", "error", err, "id", id)
		return nil, err
	}

	s.committed(ctx, r, oldStatus, event.ActionDeliveryStatusUpdated, DeliveryPlan(r))
	return r, nil
}

func (s *reportServiceImpl) SummaryCounts(ctx context.Context, user *entity.User) (*entity.SummaryCounts, error) {
	if user == nil {
		return nil, invalid("user", "is required")
	}
	if counts, ok := s.summaries.get(ctx, user); ok {
		return counts, nil
	}

	gen := s.summaries.generation()
	counts := &entity.SummaryCounts{}
	if scope := access.ScopeFor(user); !scope.Empty() {
		var err error
		counts, err = s.reportRepo.Summary(ctx, scope, user)
		if err != nil {
			s.logger.Error("Failed to compute summary", "error", err, "user_id", user.ID)
			return nil, fmt.Errorf("summary counts: %w", err)
		}
	}

	s.summaries.set(ctx, user, counts, gen)
	return counts, nil
}

// resolveTags turns caller tag ids into stored snapshots; 0 means untagged
func (s *reportServiceImpl) resolveTags(ctx context.Context, ids []int64) ([]*entity.TagRef, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	wanted := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id != 0 {
			wanted = append(wanted, id)
		}
	}

	var found map[int64]*entity.Tag
	if len(wanted) > 0 {
		var err error
		found, err = s.tagRepo.GetByIDs(ctx, wanted)
		if err != nil {
			return nil, fmt.Errorf("resolve tags: %w", err)
		}
	}

	refs := make([]*entity.TagRef, len(ids))
	for i, id := range ids {
		if id == 0 {
			continue
		}
		t, ok := found[id]
		if !ok {
			return nil, notFound("tag", id)
		}
		refs[i] = t.Ref()
	}
	return refs, nil
}

func validateReportInput(in *entity.ReportInput) error {
	in.PrPurpose = utils.SanitizeString(in.PrPurpose)
	in.Department = utils.SanitizeString(in.Department)

	if in.PrPurpose == "" {
		return invalid("pr_purpose", "is required")
	}
	if in.Department == "" {
		return invalid("department", "is required")
	}
	if in.DateSubmitted.IsZero() {
		return invalid("date_submitted", "is required")
	}
	if in.DateNeeded.IsZero() {
		return invalid("date_needed", "is required")
	}
	if dateOnly(in.DateNeeded).Before(dateOnly(in.DateSubmitted)) {
		return invalid("date_needed", "must not be before date_submitted")
	}
	if len(in.ItemDescription) == 0 {
		return invalid("item_description", "at least one item is required")
	}
	for i, d := range in.ItemDescription {
		in.ItemDescription[i] = utils.SanitizeString(d)
		if in.ItemDescription[i] == "" {
			return invalid(fmt.Sprintf("item_description[%d]", i), "is required")
		}
	}
	for i, q := range in.Quantity {
		if err := utils.ValidateQuantity(q); err != nil {
			return invalid(fmt.Sprintf("quantity[%d]", i), err.Error())
		}
	}
	for i, st := range in.ItemStatus {
		if !st.IsValid() && st != entity.ItemRejectedTR {
			return invalid(fmt.Sprintf("item_status[%d]", i), fmt.Sprintf("unknown status %q", st))
		}
	}
	for i, u := range in.Unit {
		in.Unit[i] = strings.TrimSpace(u)
	}
	return nil
}
