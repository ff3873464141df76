package service

import (
	"context"
	"fmt"
	"time"

	"github.com/zosarillana/prs-be/internal/application/dispatcher"
	"github.com/zosarillana/prs-be/internal/application/port"
	"github.com/zosarillana/prs-be/internal/domain/access"
	"github.com/zosarillana/prs-be/internal/domain/entity"
	"github.com/zosarillana/prs-be/internal/domain/event"
)

const defaultNotificationLimit = 50

// NotificationSummary is a filtered listing with its counts
type NotificationSummary struct {
	Counts        *entity.NotificationCounts `json:"counts"`
	Notifications []*entity.Notification     `json:"notifications"`
}

// NotificationService persists per-recipient notifications and hands them to
// live delivery.
type NotificationService interface {
	// Notify resolves plan against the user directory and stores one row per
	// recipient not yet notified with the same title for r. Every stored row
	// is then published for live delivery. Returns the number of rows stored.
	Notify(ctx context.Context, plan Plan, r *entity.PurchaseReport) (int, error)

	ListForUser(ctx context.Context, userID int64, limit int) ([]*entity.Notification, error)
	CountsForUser(ctx context.Context, userID int64) (*entity.NotificationCounts, error)
	ListForDepartment(ctx context.Context, department string, limit int) ([]*entity.Notification, error)
	CountsForDepartment(ctx context.Context, department string) (*entity.NotificationCounts, error)
	Summary(ctx context.Context, filter entity.NotificationFilter) (*NotificationSummary, error)
	MarkAsRead(ctx context.Context, id, userID int64) error
	MarkAllAsRead(ctx context.Context, userID int64) (int64, error)
}

type notificationServiceImpl struct {
	notificationRepo port.NotificationRepository
	userRepo         port.UserRepository
	dispatcher       dispatcher.Dispatcher
	logger           Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(
	notificationRepo port.NotificationRepository,
	userRepo port.UserRepository,
	d dispatcher.Dispatcher,
	logger Logger,
) NotificationService {
	return &notificationServiceImpl{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		dispatcher:       d,
		logger:           logger,
	}
}

type recipient struct {
	user         *entity.User
	roleOverride []string
}

func (s *notificationServiceImpl) Notify(ctx context.Context, plan Plan, r *entity.PurchaseReport) (int, error) {
	recipients, err := s.resolve(ctx, plan)
	if err != nil {
		s.logger.Error("Failed to resolve recipients", "error", err, "report_id", r.ID, "title", plan.Title)
		return 0, err
	}

	createdBy := s.creatorName(ctx, r)
	var stored []*entity.Notification

	for _, rc := range recipients {
		exists, err := s.notificationRepo.Exists(ctx, rc.user.ID, r.ID, plan.Title)
		if err != nil {
			return len(stored), fmt.Errorf("check notification: %w", err)
		}
		if exists {
			continue
		}

		n := &entity.Notification{
			UserID:     rc.user.ID,
			ReportID:   r.ID,
			Title:      plan.Title,
			SeriesNo:   r.SeriesNo,
			PoNo:       r.PoNo,
			CreatedBy:  createdBy,
			PrStatus:   r.PrStatus,
			PoStatus:   r.PoStatus,
			Department: rc.user.Departments.Slice(),
			Role:       rc.roleOverride,
			CreatedAt:  time.Now(),
		}
		if n.Role == nil {
			n.Role = rc.user.Roles.Slice()
		}

		inserted, err := s.notificationRepo.Create(ctx, n)
		if err != nil {
			s.logger.Error("Failed to store notification", "error", err, "user_id", rc.user.ID, "report_id", r.ID)
			return len(stored), fmt.Errorf("store notification: %w", err)
		}
		if inserted {
			stored = append(stored, n)
			s.publish(ctx, n, rc.user)
		}
	}

	if len(stored) > 0 {
		s.logger.Info("Notifications stored", "report_id", r.ID, "title", plan.Title, "count", len(stored))
	}
	return len(stored), nil
}

// publish hands a stored row to live delivery; failures there never reach the caller
func (s *notificationServiceImpl) publish(ctx context.Context, n *entity.Notification, u *entity.User) {
	if s.dispatcher == nil {
		return
	}
	payload := map[string]interface{}{
		"type":         "notification",
		"id":           n.ID,
		"title":        n.Title,
		"report_id":    n.ReportID,
		"series_no":    n.SeriesNo,
		"po_no":        n.PoNo,
		"created_by":   n.CreatedBy,
		"pr_status":    string(n.PrStatus),
		"po_status":    string(n.PoStatus),
		"user_id":      n.UserID,
		"department":   n.Department,
		"role":         n.Role,
		"lark_open_id": u.LarkOpenID,
	}
	evt := event.NewEventWithCorrelation(event.TypeNotificationCreated, n.ReportID, payload, RequestMetaFrom(ctx).RequestID)
	s.dispatcher.DispatchAsync(ctx, evt.ForUser(n.UserID))
}

func (s *notificationServiceImpl) resolve(ctx context.Context, plan Plan) ([]recipient, error) {
	byRole := make(map[entity.Role][]*entity.User)
	seen := make(map[int64]bool)
	var out []recipient

	add := func(u *entity.User, g Group) {
		if u == nil || seen[u.ID] {
			return
		}
		seen[u.ID] = true
		out = append(out, recipient{user: u, roleOverride: g.RoleOverride})
	}

	for _, g := range plan.Groups {
		for _, sel := range g.Selectors {
			users, ok := byRole[sel.Role]
			if !ok {
				var err error
				users, err = s.userRepo.ListByRole(ctx, sel.Role)
				if err != nil {
					return nil, fmt.Errorf("list users with role %s: %w", sel.Role, err)
				}
				byRole[sel.Role] = users
			}
			for _, u := range users {
				if matchesAny(u, sel.Departments) {
					add(u, g)
				}
			}
		}

		for _, id := range g.UserIDs {
			if seen[id] {
				continue
			}
			u, err := s.userRepo.GetByID(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("get user %d: %w", id, err)
			}
			add(u, g)
		}
	}
	return out, nil
}

func matchesAny(u *entity.User, departments []string) bool {
	if len(departments) == 0 {
		return true
	}
	for _, d := range departments {
		if access.UserInDepartment(u, d) {
			return true
		}
	}
	return false
}

func (s *notificationServiceImpl) creatorName(ctx context.Context, r *entity.PurchaseReport) string {
	if r.CreatorName != "" {
		return r.CreatorName
	}
	u, err := s.userRepo.GetByID(ctx, r.UserID)
	if err != nil || u == nil {
		return "Unknown"
	}
	return u.Name
}

func (s *notificationServiceImpl) ListForUser(ctx context.Context, userID int64, limit int) ([]*entity.Notification, error) {
	return s.notificationRepo.ListForUser(ctx, userID, clampLimit(limit))
}

func (s *notificationServiceImpl) CountsForUser(ctx context.Context, userID int64) (*entity.NotificationCounts, error) {
	return s.notificationRepo.CountsForUser(ctx, userID)
}

func (s *notificationServiceImpl) ListForDepartment(ctx context.Context, department string, limit int) ([]*entity.Notification, error) {
	if department == "" {
		return nil, invalid("department", "is required")
	}
	return s.notificationRepo.ListForDepartment(ctx, department, clampLimit(limit))
}

func (s *notificationServiceImpl) CountsForDepartment(ctx context.Context, department string) (*entity.NotificationCounts, error) {
	if department == "" {
		return nil, invalid("department", "is required")
	}
	return s.notificationRepo.CountsForDepartment(ctx, department)
}

func (s *notificationServiceImpl) Summary(ctx context.Context, filter entity.NotificationFilter) (*NotificationSummary, error) {
	filter.Limit = clampLimit(filter.Limit)
	list, counts, err := s.notificationRepo.Summary(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("notification summary: %w", err)
	}
	return &NotificationSummary{Counts: counts, Notifications: list}, nil
}

func (s *notificationServiceImpl) MarkAsRead(ctx context.Context, id, userID int64) error {
	ok, err := s.notificationRepo.MarkAsRead(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if !ok {
		return notFound("notification", id)
	}
	return nil
}

func (s *notificationServiceImpl) MarkAllAsRead(ctx context.Context, userID int64) (int64, error) {
	n, err := s.notificationRepo.MarkAllAsRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return n, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultNotificationLimit
	case limit > 200:
		return 200
	}
	return limit
}
