package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zosarillana/prs-be/internal/application/port"
	"github.com/zosarillana/prs-be/internal/domain/access"
	"github.com/zosarillana/prs-be/internal/domain/entity"
)

// ExportService writes the reports a user can see to a spreadsheet file
type ExportService interface {
	// ExportReports returns the storage-relative path of the written workbook
	ExportReports(ctx context.Context, user *entity.User, filter entity.ReportFilter) (string, error)
}

type exportServiceImpl struct {
	reportRepo port.ReportRepository
	exporter   port.ReportExporter
	storage    port.FileStorage
	logger     Logger
}

// NewExportService creates a new ExportService
func NewExportService(
	reportRepo port.ReportRepository,
	exporter port.ReportExporter,
	storage port.FileStorage,
	logger Logger,
) ExportService {
	return &exportServiceImpl{
		reportRepo: reportRepo,
		exporter:   exporter,
		storage:    storage,
		logger:     logger,
	}
}

func (s *exportServiceImpl) ExportReports(ctx context.Context, user *entity.User, filter entity.ReportFilter) (string, error) {
	if user == nil {
		return "", invalid("user", "is required")
	}

	var reports []*entity.PurchaseReport
	if scope := access.ScopeFor(user); !scope.Empty() {
		var err error
		reports, err = s.reportRepo.ListAll(ctx, scope, user, filter)
		if err != nil {
			return "", fmt.Errorf("list reports: %w", err)
		}
	}

	content, err := s.exporter.Export(reports)
	if err != nil {
		s.logger.Error("Failed to render export", "error", err, "user_id", user.ID)
		return "", fmt.Errorf("render export: %w", err)
	}

	path := fmt.Sprintf("exports/purchase-reports-%s-%s.xlsx",
		time.Now().Format("20060102-150405"), uuid.NewString()[:8])
	if err := s.storage.Save(ctx, path, content); err != nil {
		s.logger.Error("Failed to save export", "error", err, "path", path)
		return "", fmt.Errorf("save export: %w", err)
	}

	s.logger.Info("Reports exported", "user_id", user.ID, "rows", len(reports), "path", path)
	return path, nil
}
