package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/zosarillana/prs-be/internal/application/port"
	"github.com/zosarillana/prs-be/internal/domain/access"
	"github.com/zosarillana/prs-be/internal/domain/entity"
	"github.com/zosarillana/prs-be/internal/infrastructure/persistence/sqlite"
)

// NotificationRepository implements port.NotificationRepository
type NotificationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sql.DB, logger *zap.Logger) port.NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

const notificationColumns = `id, user_id, report_id, title, series_no, po_no, created_by,
	pr_status, po_status, department, role, read_at, created_at`

const countColumns = `COUNT(*), COALESCE(SUM(CASE WHEN read_at IS NULL THEN 1 ELSE 0 END), 0)`

// Exists reports whether the recipient already holds a notification with this title for the report
func (r *NotificationRepository) Exists(ctx context.Context, userID, reportID int64, title string) (bool, error) {
	var n int
	err := sqlite.Executor(ctx, r.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND report_id = ? AND title = ?`,
		userID, reportID, title).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check notification: %w", err)
	}
	return n > 0, nil
}

// Create inserts n unless (user, report, title) is already present
func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) (bool, error) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	departments, err := toJSON(n.Department)
	if err != nil {
		return false, fmt.Errorf("failed to encode departments: %w", err)
	}
	slugs, err := toJSON(departmentSlugsOf(n.Department))
	if err != nil {
		return false, fmt.Errorf("failed to encode department slugs: %w", err)
	}
	roles, err := toJSON(n.Role)
	if err != nil {
		return false, fmt.Errorf("failed to encode roles: %w", err)
	}

	result, err := sqlite.Executor(ctx, r.db).ExecContext(ctx, `
		INSERT INTO notifications (
			user_id, report_id, title, series_no, po_no, created_by,
			pr_status, po_status, department, department_slugs, role, read_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, report_id, title) DO NOTHING`,
		n.UserID, n.ReportID, n.Title, n.SeriesNo, nullString(n.PoNo), n.CreatedBy,
		string(n.PrStatus), nullIfEmpty(string(n.PoStatus)), departments, slugs, roles,
		nullTime(n.ReadAt), n.CreatedAt.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to create notification",
			zap.Int64("user_id", n.UserID),
			zap.Int64("report_id", n.ReportID),
			zap.Error(err))
		return false, fmt.Errorf("failed to create notification: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	id, err := result.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("failed to get last insert id: %w", err)
	}
	n.ID = id
	return true, nil
}

// ListForUser returns the newest notifications of a recipient
func (r *NotificationRepository) ListForUser(ctx context.Context, userID int64, limit int) ([]*entity.Notification, error) {
	return r.query(ctx, `SELECT `+notificationColumns+` FROM notifications
		WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`, userID, limit)
}

// CountsForUser returns read-state totals of a recipient
func (r *NotificationRepository) CountsForUser(ctx context.Context, userID int64) (*entity.NotificationCounts, error) {
	return r.counts(ctx, ` WHERE user_id = ?`, userID)
}

// ListForDepartment returns the newest notifications tagged with department
func (r *NotificationRepository) ListForDepartment(ctx context.Context, department string, limit int) ([]*entity.Notification, error) {
	return r.query(ctx, `SELECT `+notificationColumns+` FROM notifications
		WHERE `+departmentMatch+` ORDER BY created_at DESC, id DESC LIMIT ?`,
		access.Slug(department), limit)
}

// CountsForDepartment returns read-state totals of notifications tagged with department
func (r *NotificationRepository) CountsForDepartment(ctx context.Context, department string) (*entity.NotificationCounts, error) {
	return r.counts(ctx, ` WHERE `+departmentMatch, access.Slug(department))
}

const departmentMatch = `EXISTS (SELECT 1 FROM json_each(notifications.department_slugs) d WHERE d.value = ?)`

// Summary lists the newest notifications matching filter with the totals over every match
func (r *NotificationRepository) Summary(ctx context.Context, filter entity.NotificationFilter) ([]*entity.Notification, *entity.NotificationCounts, error) {
	var c conditions
	if filter.Role != "" {
		c.add(`EXISTS (SELECT 1 FROM json_each(notifications.role) ro WHERE ro.value = ?)`, filter.Role)
	}
	if filter.Department != "" {
		c.add(departmentMatch, access.Slug(filter.Department))
	}
	if filter.PrStatus != "" {
		c.add(`pr_status = ?`, filter.PrStatus)
	}
	if filter.PoStatus != "" {
		c.add(`po_status = ?`, filter.PoStatus)
	}

	counts, err := r.counts(ctx, c.where(), c.args...)
	if err != nil {
		return nil, nil, err
	}

	args := append(append([]interface{}{}, c.args...), filter.Limit)
	list, err := r.query(ctx, `SELECT `+notificationColumns+` FROM notifications`+c.where()+
		` ORDER BY created_at DESC, id DESC LIMIT ?`, args...)
	if err != nil {
		return nil, nil, err
	}
	return list, counts, nil
}

// MarkAsRead stamps read_at on a notification owned by userID. The first read time is kept.
func (r *NotificationRepository) MarkAsRead(ctx context.Context, id, userID int64) (bool, error) {
	result, err := sqlite.Executor(ctx, r.db).ExecContext(ctx,
		`UPDATE notifications SET read_at = COALESCE(read_at, ?) WHERE id = ? AND user_id = ?`,
		time.Now().UTC(), id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to mark notification as read: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

// MarkAllAsRead stamps every unread notification of userID and returns how many changed
func (r *NotificationRepository) MarkAllAsRead(ctx context.Context, userID int64) (int64, error) {
	result, err := sqlite.Executor(ctx, r.db).ExecContext(ctx,
		`UPDATE notifications SET read_at = ? WHERE user_id = ? AND read_at IS NULL`,
		time.Now().UTC(), userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications as read: %w", err)
	}
	return result.RowsAffected()
}

func (r *NotificationRepository) counts(ctx context.Context, where string, args ...interface{}) (*entity.NotificationCounts, error) {
	var c entity.NotificationCounts
	err := sqlite.Executor(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+countColumns+` FROM notifications`+where, args...).Scan(&c.Total, &c.Unread)
	if err != nil {
		r.logger.Error("Failed to count notifications", zap.Error(err))
		return nil, fmt.Errorf("failed to count notifications: %w", err)
	}
	c.Read = c.Total - c.Unread
	return &c, nil
}

func (r *NotificationRepository) query(ctx context.Context, query string, args ...interface{}) ([]*entity.Notification, error) {
	rows, err := sqlite.Executor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list notifications", zap.Error(err))
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	out := make([]*entity.Notification, 0)
	for rows.Next() {
		var (
			n                  entity.Notification
			poNo, poStatus     sql.NullString
			prStatus           string
			departments, roles string
			readAt             sql.NullTime
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.ReportID, &n.Title, &n.SeriesNo, &poNo, &n.CreatedBy,
			&prStatus, &poStatus, &departments, &roles, &readAt, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		if err := fromJSON(departments, &n.Department); err != nil {
			return nil, fmt.Errorf("decode departments of notification %d: %w", n.ID, err)
		}
		if err := fromJSON(roles, &n.Role); err != nil {
			return nil, fmt.Errorf("decode roles of notification %d: %w", n.ID, err)
		}
		n.PoNo = stringPtr(poNo)
		n.PrStatus = entity.ReportStatus(prStatus)
		n.PoStatus = entity.POStatus(poStatus.String)
		n.ReadAt = timePtr(readAt)
		out = append(out, &n)
	}
	return out, rows.Err()
}

var _ port.NotificationRepository = (*NotificationRepository)(nil)
