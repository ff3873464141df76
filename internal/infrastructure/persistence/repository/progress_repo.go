package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/zosarillana/prs-be/internal/application/port"
	"github.com/zosarillana/prs-be/internal/domain/entity"
	"github.com/zosarillana/prs-be/internal/infrastructure/persistence/sqlite"
)

// ProgressRepository implements port.ProgressRepository
type ProgressRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProgressRepository creates a new progress repository
func NewProgressRepository(db *sql.DB, logger *zap.Logger) port.ProgressRepository {
	return &ProgressRepository{
		db:     db,
		logger: logger,
	}
}

const progressColumns = `id, purchase_report_id, title, remarks, start_date, end_date, created_by, created_at, updated_at`

// Create inserts a progress entry
func (r *ProgressRepository) Create(ctx context.Context, p *entity.Progress) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	result, err := sqlite.Executor(ctx, r.db).ExecContext(ctx, `
		INSERT INTO purchase_report_progress (purchase_report_id, title, remarks, start_date, end_date, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ReportID, p.Title, p.Remarks, p.StartDate.UTC(), nullTime(p.EndDate), p.CreatedBy, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to create progress", zap.Int64("report_id", p.ReportID), zap.Error(err))
		return fmt.Errorf("failed to create progress: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	p.ID = id
	return nil
}

// GetByID retrieves a progress entry by ID
func (r *ProgressRepository) GetByID(ctx context.Context, id int64) (*entity.Progress, error) {
	p, err := scanProgress(sqlite.Executor(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+progressColumns+` FROM purchase_report_progress WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}
	return p, nil
}

// Update persists title, remarks and dates of p
func (r *ProgressRepository) Update(ctx context.Context, p *entity.Progress) error {
	p.UpdatedAt = time.Now().UTC()
	_, err := sqlite.Executor(ctx, r.db).ExecContext(ctx, `
		UPDATE purchase_report_progress
		SET title = ?, remarks = ?, start_date = ?, end_date = ?, updated_at = ?
		WHERE id = ?`,
		p.Title, p.Remarks, p.StartDate.UTC(), nullTime(p.EndDate), p.UpdatedAt, p.ID)
	if err != nil {
		r.logger.Error("Failed to update progress", zap.Int64("id", p.ID), zap.Error(err))
		return fmt.Errorf("failed to update progress: %w", err)
	}
	return nil
}

// Delete removes a progress entry
func (r *ProgressRepository) Delete(ctx context.Context, id int64) error {
	_, err := sqlite.Executor(ctx, r.db).ExecContext(ctx, `DELETE FROM purchase_report_progress WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete progress: %w", err)
	}
	return nil
}

// ListByReport returns the milestones of a report ordered by start date
func (r *ProgressRepository) ListByReport(ctx context.Context, reportID int64) ([]*entity.Progress, error) {
	rows, err := sqlite.Executor(ctx, r.db).QueryContext(ctx,
		`SELECT `+progressColumns+` FROM purchase_report_progress
		 WHERE purchase_report_id = ? ORDER BY start_date, id`, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	defer rows.Close()

	out := make([]*entity.Progress, 0)
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan progress: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanProgress(row rowScanner) (*entity.Progress, error) {
	var (
		p   entity.Progress
		end sql.NullTime
	)
	if err := row.Scan(&p.ID, &p.ReportID, &p.Title, &p.Remarks, &p.StartDate, &end,
		&p.CreatedBy, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.EndDate = timePtr(end)
	return &p, nil
}

var _ port.ProgressRepository = (*ProgressRepository)(nil)
