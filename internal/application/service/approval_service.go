package service

import (
	"context"
	"time"

	"github.com/zosarillana/prs-be/internal/application/dispatcher"
	"github.com/zosarillana/prs-be/internal/application/port"
	"github.com/zosarillana/prs-be/internal/domain/entity"
	"github.com/zosarillana/prs-be/internal/domain/event"
	"github.com/zosarillana/prs-be/internal/domain/status"
)

// Acting roles accepted by ApproveItem
const (
	ActingNone              = ""
	ActingTechnicalReviewer = "technical_reviewer"
	ActingHOD               = "hod"
	ActingBoth              = "both"
)

// ApprovalService records reviewer decisions on single line items
type ApprovalService interface {
	// ApproveItem sets item index to newStatus with remark, recomputes the PR
	// status and stamps the reviewer. An index outside the item list changes
	// no item, but the PR status is still recomputed and saved.
	ApproveItem(ctx context.Context, reportID int64, index int, newStatus entity.ItemStatus, remark, actingRole string, actingUserID int64) (*entity.PurchaseReport, error)
}

type approvalServiceImpl struct {
	reportCore
}

// NewApprovalService creates a new ApprovalService
func NewApprovalService(
	reportRepo port.ReportRepository,
	txManager port.TransactionManager,
	audit AuditService,
	notifier NotificationService,
	summaries *SummaryCache,
	d dispatcher.Dispatcher,
	logger Logger,
) ApprovalService {
	return &approvalServiceImpl{
		reportCore: newReportCore(reportRepo, txManager, audit, notifier, summaries, d, logger),
	}
}

func (s *approvalServiceImpl) ApproveItem(
	ctx context.Context,
	reportID int64,
	index int,
	newStatus entity.ItemStatus,
	remark, actingRole string,
	actingUserID int64,
) (*entity.PurchaseReport, error) {
	if !newStatus.IsReviewDecision() {
		return nil, invalid("status", "must be one of approved, rejected, pending_tr")
	}
	switch actingRole {
	case ActingNone, ActingTechnicalReviewer, ActingHOD, ActingBoth:
	default:
		return nil, invalid("as_role", "must be one of technical_reviewer, hod, both")
	}

	r, oldStatus, err := s.mutate(ctx, reportID, nil, actingUserID, entity.AuditApproveItem, func(r *entity.PurchaseReport) error {
		status.Normalize(r)
		if !status.ApplyDecision(r, index, newStatus, remark) {
			s.logger.Info("Item index out of range, item left unchanged",
				"report_id", reportID, "index", index, "items", r.ItemCount())
		}
		r.PrStatus = status.Derive(r.ItemStatus, false)

		now := time.Now()
		if actingRole == ActingTechnicalReviewer || actingRole == ActingBoth {
			r.TrUserID = &actingUserID
			r.TrSignedAt = &now
		}
		if actingRole == ActingHOD || actingRole == ActingBoth {
			r.HodUserID = &actingUserID
			r.HodSignedAt = &now
		}
		r.UpdatedAt = now
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to update item status", "error", err, "report_id", reportID, "index", index)
		return nil, err
	}

	s.logger.Info("Item status updated",
		"report_id", r.ID,
		"index", index,
		"item_status", newStatus,
		"pr_status", r.PrStatus,
	)

	var plans []Plan
	if p, ok := ItemStatusPlan(r); ok {
		plans = append(plans, p)
	}
	s.committed(ctx, r, oldStatus, event.ActionItemStatusUpdated, plans...)
	return r, nil
}
