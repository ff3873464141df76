package service

import (
	"context"
	"strings"
	"time"

	"github.com/zosarillana/prs-be/internal/application/dispatcher"
	"github.com/zosarillana/prs-be/internal/application/port"
	"github.com/zosarillana/prs-be/internal/application/workflow"
	"github.com/zosarillana/prs-be/internal/domain/entity"
	"github.com/zosarillana/prs-be/internal/domain/event"
	"github.com/zosarillana/prs-be/internal/domain/status"
	domainwf "github.com/zosarillana/prs-be/internal/domain/workflow"
	"github.com/zosarillana/prs-be/pkg/utils"
)

// POService drives the purchase order attached to a report
type POService interface {
	AssignPoNo(ctx context.Context, reportID int64, poNo string, purchaserID int64) (*entity.PurchaseReport, error)
	CancelPoNo(ctx context.Context, reportID int64, actorID int64) (*entity.PurchaseReport, error)
	ReturnPoNo(ctx context.Context, reportID int64, actorID int64) (*entity.PurchaseReport, error)

	// ApprovePoDate records the PO approval. approvedDate must not fall on a
	// day before the PO was created; a zero approvedDate means now.
	ApprovePoDate(ctx context.Context, reportID int64, s entity.POStatus, approvedDate time.Time, purchaserID int64) (*entity.PurchaseReport, error)
}

type poServiceImpl struct {
	reportCore
	now func() time.Time
}

// NewPOService creates a new POService
func NewPOService(
	reportRepo port.ReportRepository,
	txManager port.TransactionManager,
	audit AuditService,
	notifier NotificationService,
	summaries *SummaryCache,
	d dispatcher.Dispatcher,
	logger Logger,
) POService {
	return &poServiceImpl{
		reportCore: newReportCore(reportRepo, txManager, audit, notifier, summaries, d, logger),
		now:        time.Now,
	}
}

// advance moves the PO status of r through the state machine
func advance(ctx context.Context, r *entity.PurchaseReport, trigger domainwf.Trigger) error {
	next, err := workflow.NextPOStatus(ctx, r.PoStatus, trigger)
	if err != nil {
		current := string(r.PoStatus)
		if current == "" {
			current = "none"
		}
		return &ValidationError{
			Field:  "po_status",
			Reason: "cannot " + strings.ToLower(string(trigger)) + " a purchase order in status " + current,
			Err:    err,
		}
	}
	r.PoStatus = next
	return nil
}

func (s *poServiceImpl) AssignPoNo(ctx context.Context, reportID int64, poNo string, purchaserID int64) (*entity.PurchaseReport, error) {
	poNo = utils.SanitizeString(poNo)
	if err := utils.ValidatePoNo(poNo); err != nil {
		return nil, invalid("po_no", err.Error())
	}

	r, oldStatus, err := s.mutate(ctx, reportID, nil, purchaserID, entity.AuditAssignPO, func(r *entity.PurchaseReport) error {
		if err := advance(ctx, r, domainwf.TriggerAssign); err != nil {
			return err
		}
		now := s.now()
		r.PoNo = &poNo
		r.PrStatus = entity.ReportClosed
		r.PoCreatedDate = &now
		r.PoApprovedDate = nil
		if purchaserID > 0 {
			r.PurchaserID = &purchaserID
		}
		r.UpdatedAt = now
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to assign PO number", "error", err, "report_id", reportID)
		return nil, err
	}

	s.logger.Info("PO number assigned", "report_id", r.ID, "po_no", poNo)
	s.committed(ctx, r, oldStatus, event.ActionPoCreated, POPlan(r, TitlePoCreated, false))
	return r, nil
}

func (s *poServiceImpl) CancelPoNo(ctx context.Context, reportID int64, actorID int64) (*entity.PurchaseReport, error) {
	r, oldStatus, err := s.mutate(ctx, reportID, nil, actorID, entity.AuditCancelPO, func(r *entity.PurchaseReport) error {
		if err := advance(ctx, r, domainwf.TriggerCancel); err != nil {
			return err
		}
		r.PoNo = nil
		r.PrStatus = entity.ReportCancelled
		status.ForceAll(r, entity.ItemCancelled)
		status.Normalize(r)
		r.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to cancel PO", "error", err, "report_id", reportID)
		return nil, err
	}

	s.logger.Info("PO cancelled", "report_id", r.ID)
	s.committed(ctx, r, oldStatus, event.ActionPoCancelled, POPlan(r, TitlePoCancelled, false))
	return r, nil
}

func (s *poServiceImpl) ReturnPoNo(ctx context.Context, reportID int64, actorID int64) (*entity.PurchaseReport, error) {
	r, oldStatus, err := s.mutate(ctx, reportID, nil, actorID, entity.AuditReturnPO, func(r *entity.PurchaseReport) error {
		if err := advance(ctx, r, domainwf.TriggerReturn); err != nil {
			return err
		}
		// a returned PR starts the PO lifecycle over, so the PO status is cleared
		r.PoStatus = entity.POStatusNone
		r.PoNo = nil
		r.PoCreatedDate = nil
		r.PoApprovedDate = nil
		r.PrStatus = entity.ReportReturned
		r.TrUserID, r.TrSignedAt = nil, nil
		r.HodUserID, r.HodSignedAt = nil, nil
		status.ForceAll(r, entity.ItemReturned)
		status.Normalize(r)
		r.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to return PO", "error", err, "report_id", reportID)
		return nil, err
	}

	s.logger.Info("PO returned", "report_id", r.ID)
	s.committed(ctx, r, oldStatus, event.ActionPoReturned, POPlan(r, TitlePoReturned, false))
	return r, nil
}

func (s *poServiceImpl) ApprovePoDate(ctx context.Context, reportID int64, st entity.POStatus, approvedDate time.Time, purchaserID int64) (*entity.PurchaseReport, error) {
	if st == entity.POStatusNone {
		st = entity.POStatusApproved
	}
	if st != entity.POStatusApproved {
		return nil, invalid("po_status", "must be approved")
	}
	if approvedDate.IsZero() {
		approvedDate = s.now()
	}

	r, oldStatus, err := s.mutate(ctx, reportID, nil, purchaserID, entity.AuditApprovePO, func(r *entity.PurchaseReport) error {
		if err := advance(ctx, r, domainwf.TriggerApprove); err != nil {
			return err
		}
		if r.PoCreatedDate != nil && dateOnly(approvedDate).Before(dateOnly(r.PoCreatedDate.In(approvedDate.Location()))) {
			return invalid("po_approved_date", "must not be before po_created_date")
		}
		r.PoApprovedDate = &approvedDate
		if purchaserID > 0 {
			r.PurchaserID = &purchaserID
		}
		r.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to approve PO", "error", err, "report_id", reportID)
		return nil, err
	}

	s.logger.Info("PO approved", "report_id", r.ID, "po_approved_date", approvedDate)
	s.committed(ctx, r, oldStatus, event.ActionPoApproved, POPlan(r, TitlePoApproved, true))
	return r, nil
}
