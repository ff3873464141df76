package port

import (
	"context"
	"errors"

	"github.com/zosarillana/prs-be/internal/domain/access"
	"github.com/zosarillana/prs-be/internal/domain/entity"
)

// ErrConflict is returned by repositories when a unique constraint rejects a write
var ErrConflict = errors.New("unique constraint violation")

// TransactionManager runs fn inside one database transaction. Repositories
// called with the ctx passed to fn take part in it. Nested calls reuse the
// outer transaction.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReportRepository defines persistence operations for PurchaseReport.
// Getters return nil, nil when the row does not exist.
type ReportRepository interface {
	Create(ctx context.Context, r *entity.PurchaseReport) error
	GetByID(ctx context.Context, id int64) (*entity.PurchaseReport, error)
	Update(ctx context.Context, r *entity.PurchaseReport) error
	Delete(ctx context.Context, id int64) error

	// SeriesNumbers returns every allocated series number
	SeriesNumbers(ctx context.Context) ([]int, error)

	// List returns one page of reports inside scope matching filter, and the
	// total number of matches
	List(ctx context.Context, scope access.Scope, viewer *entity.User, filter entity.ReportFilter) ([]*entity.PurchaseReport, int, error)

	// ListAll is List without paging
	ListAll(ctx context.Context, scope access.Scope, viewer *entity.User, filter entity.ReportFilter) ([]*entity.PurchaseReport, error)

	// Summary computes dashboard counters over the reports inside scope
	Summary(ctx context.Context, scope access.Scope, viewer *entity.User) (*entity.SummaryCounts, error)
}

// TagRepository defines read operations for Tag and Department
type TagRepository interface {
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*entity.Tag, error)
	List(ctx context.Context) ([]*entity.Tag, error)
	CreateDepartment(ctx context.Context, d *entity.Department) error
	Create(ctx context.Context, t *entity.Tag) error
}

// UserRepository is the user directory
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	ListByRole(ctx context.Context, role entity.Role) ([]*entity.User, error)
}

// NotificationRepository defines persistence operations for Notification
type NotificationRepository interface {
	Exists(ctx context.Context, userID, reportID int64, title string) (bool, error)

	// Create inserts n unless (user, report, title) already exists and
	// reports whether a row was written
	Create(ctx context.Context, n *entity.Notification) (bool, error)

	ListForUser(ctx context.Context, userID int64, limit int) ([]*entity.Notification, error)
	CountsForUser(ctx context.Context, userID int64) (*entity.NotificationCounts, error)
	ListForDepartment(ctx context.Context, department string, limit int) ([]*entity.Notification, error)
	CountsForDepartment(ctx context.Context, department string) (*entity.NotificationCounts, error)
	Summary(ctx context.Context, filter entity.NotificationFilter) ([]*entity.Notification, *entity.NotificationCounts, error)

	MarkAsRead(ctx context.Context, id, userID int64) (bool, error)
	MarkAllAsRead(ctx context.Context, userID int64) (int64, error)
}

// AuditRepository defines persistence operations for AuditLog
type AuditRepository interface {
	Create(ctx context.Context, log *entity.AuditLog) error
	ListByModel(ctx context.Context, modelType string, modelID int64) ([]*entity.AuditLog, error)
}

// ProgressRepository defines persistence operations for Progress
type ProgressRepository interface {
	Create(ctx context.Context, p *entity.Progress) error
	GetByID(ctx context.Context, id int64) (*entity.Progress, error)
	Update(ctx context.Context, p *entity.Progress) error
	Delete(ctx context.Context, id int64) error
	ListByReport(ctx context.Context, reportID int64) ([]*entity.Progress, error)
}
