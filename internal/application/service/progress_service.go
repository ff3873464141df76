package service

import (
	"context"
	"fmt"
	"time"

	"github.com/zosarillana/prs-be/internal/application/port"
	"github.com/zosarillana/prs-be/internal/domain/entity"
	"github.com/zosarillana/prs-be/pkg/utils"
)

// ProgressInput is the caller-supplied content of a progress entry
type ProgressInput struct {
	Title     string     `json:"title"`
	Remarks   string     `json:"remarks"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

// ProgressService manages dated milestones of a report
type ProgressService interface {
	List(ctx context.Context, user *entity.User, reportID int64) ([]*entity.Progress, error)
	Add(ctx context.Context, user *entity.User, reportID int64, in ProgressInput) (*entity.Progress, error)
	Update(ctx context.Context, user *entity.User, id int64, in ProgressInput) (*entity.Progress, error)
	Delete(ctx context.Context, user *entity.User, id int64) error
}

type progressServiceImpl struct {
	progressRepo port.ProgressRepository
	reports      ReportService
	txManager    port.TransactionManager
	audit        AuditService
	logger       Logger
}

// NewProgressService creates a new ProgressService. Report visibility is
// checked through reports.
func NewProgressService(
	progressRepo port.ProgressRepository,
	reports ReportService,
	txManager port.TransactionManager,
	audit AuditService,
	logger Logger,
) ProgressService {
	return &progressServiceImpl{
		progressRepo: progressRepo,
		reports:      reports,
		txManager:    txManager,
		audit:        audit,
		logger:       logger,
	}
}

func (s *progressServiceImpl) List(ctx context.Context, user *entity.User, reportID int64) ([]*entity.Progress, error) {
	if _, err := s.reports.Get(ctx, user, reportID); err != nil {
		return nil, err
	}
	list, err := s.progressRepo.ListByReport(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	return list, nil
}

func (s *progressServiceImpl) Add(ctx context.Context, user *entity.User, reportID int64, in ProgressInput) (*entity.Progress, error) {
	if err := validateProgress(&in); err != nil {
		return nil, err
	}
	if _, err := s.reports.Get(ctx, user, reportID); err != nil {
		return nil, err
	}

	now := time.Now()
	p := &entity.Progress{
		ReportID:  reportID,
		Title:     in.Title,
		Remarks:   in.Remarks,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		CreatedBy: user.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.progressRepo.Create(txCtx, p); err != nil {
			return fmt.Errorf("create progress: %w", err)
		}
		return s.audit.Record(txCtx, user.ID, entity.AuditCreate, entity.AuditModelProgress, p.ID, nil, p)
	})
	if err != nil {
		s.logger.Error("Failed to add progress", "error", err, "report_id", reportID)
		return nil, err
	}
	return p, nil
}

func (s *progressServiceImpl) Update(ctx context.Context, user *entity.User, id int64, in ProgressInput) (*entity.Progress, error) {
	if err := validateProgress(&in); err != nil {
		return nil, err
	}

	var out *entity.Progress
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		p, err := s.visible(txCtx, user, id)
		if err != nil {
			return err
		}
		before := *p

		p.Title = in.Title
		p.Remarks = in.Remarks
		p.StartDate = in.StartDate
		p.EndDate = in.EndDate
		p.UpdatedAt = time.Now()

		if err := s.progressRepo.Update(txCtx, p); err != nil {
			return fmt.Errorf("update progress: %w", err)
		}
		out = p
		return s.audit.Record(txCtx, user.ID, entity.AuditUpdate, entity.AuditModelProgress, id, before, p)
	})
	if err != nil {
		s.logger.Error("Failed to update progress", "error", err, "id", id)
		return nil, err
	}
	return out, nil
}

func (s *progressServiceImpl) Delete(ctx context.Context, user *entity.User, id int64) error {
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		p, err := s.visible(txCtx, user, id)
		if err != nil {
			return err
		}
		if err := s.progressRepo.Delete(txCtx, id); err != nil {
			return fmt.Errorf("delete progress: %w", err)
		}
		return s.audit.Record(txCtx, user.ID, entity.AuditDelete, entity.AuditModelProgress, id, p, nil)
	})
	if err != nil {
		s.logger.Error("Failed to delete progress", "error", err, "id", id)
	}
	return err
}

// visible loads a progress entry whose report the user can see
func (s *progressServiceImpl) visible(ctx context.Context, user *entity.User, id int64) (*entity.Progress, error) {
	p, err := s.progressRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get progress: %w", err)
	}
	if p == nil {
		return nil, notFound("progress", id)
	}
	if _, err := s.reports.Get(ctx, user, p.ReportID); err != nil {
		return nil, notFound("progress", id)
	}
	return p, nil
}

func validateProgress(in *ProgressInput) error {
	in.Title = utils.SanitizeString(in.Title)
	in.Remarks = utils.SanitizeString(in.Remarks)

	if in.Title == "" {
		return invalid("title", "is required")
	}
	if in.StartDate.IsZero() {
		return invalid("start_date", "is required")
	}
	if in.EndDate != nil && dateOnly(*in.EndDate).Before(dateOnly(in.StartDate)) {
		return invalid("end_date", "must not be before start_date")
	}
	return nil
}
