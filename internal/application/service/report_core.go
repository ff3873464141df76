package service

import (
	"context"
	"fmt"

	"github.com/zosarillana/prs-be/internal/application/dispatcher"
	"github.com/zosarillana/prs-be/internal/application/port"
	"github.com/zosarillana/prs-be/internal/domain/access"
	"github.com/zosarillana/prs-be/internal/domain/entity"
)

// reportCore is the read-modify-write plumbing shared by the services that
// mutate purchase reports.
type reportCore struct {
	reportRepo port.ReportRepository
	txManager  port.TransactionManager
	audit      AuditService
	notifier   NotificationService
	summaries  *SummaryCache
	publisher  reportPublisher
	logger     Logger
}

func newReportCore(
	reportRepo port.ReportRepository,
	txManager port.TransactionManager,
	audit AuditService,
	notifier NotificationService,
	summaries *SummaryCache,
	d dispatcher.Dispatcher,
	logger Logger,
) reportCore {
	return reportCore{
		reportRepo: reportRepo,
		txManager:  txManager,
		audit:      audit,
		notifier:   notifier,
		summaries:  summaries,
		publisher:  reportPublisher{dispatcher: d},
		logger:     logger,
	}
}

// load fetches a report for mutation. A non-nil viewer must be able to see it.
func (c *reportCore) load(ctx context.Context, id int64, viewer *entity.User) (*entity.PurchaseReport, error) {
	r, err := c.reportRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	if r == nil || (viewer != nil && !access.Visible(viewer, r)) {
		return nil, notFound("purchase report", id)
	}
	return r, nil
}

// mutate runs fn on report id inside one transaction, persists the result and
// records an audit entry with the before/after snapshots. It returns the
// updated report and its status before fn ran.
func (c *reportCore) mutate(
	ctx context.Context,
	id int64,
	viewer *entity.User,
	actorID int64,
	action string,
	fn func(r *entity.PurchaseReport) error,
) (*entity.PurchaseReport, entity.ReportStatus, error) {
	var (
		out       *entity.PurchaseReport
		oldStatus entity.ReportStatus
	)

	err := c.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		r, err := c.load(txCtx, id, viewer)
		if err != nil {
			return err
		}
		before := r.Clone()
		oldStatus = r.PrStatus

		if err := fn(r); err != nil {
			return err
		}

		if err := c.reportRepo.Update(txCtx, r); err != nil {
			return fmt.Errorf("update report: %w", err)
		}
		if err := c.audit.Record(txCtx, actorID, action, entity.AuditModelReport, r.ID, before, r); err != nil {
			return err
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return out, oldStatus, nil
}

// committed runs the side effects of a committed mutation. None of them can
// fail the operation.
func (c *reportCore) committed(ctx context.Context, r *entity.PurchaseReport, oldStatus entity.ReportStatus, action string, plans ...Plan) {
	c.summaries.Invalidate(ctx)

	for _, p := range plans {
		if _, err := c.notifier.Notify(ctx, p, r); err != nil {
			c.logger.Error("Failed to notify", "error", err, "report_id", r.ID, "title", p.Title)
		}
	}

	c.publisher.publish(ctx, r, oldStatus, action)
}
