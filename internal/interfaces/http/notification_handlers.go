package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/zosarillana/prs-be/internal/domain/entity"
)

func queryLimit(c *gin.Context) int {
	limit, _ := strconv.Atoi(c.Query("limit"))
	return limit
}

// ListNotifications handles GET /api/notifications
func (s *Server) ListNotifications(c *gin.Context) {
	list, err := s.services.Notifications.ListForUser(c.Request.Context(), currentUser(c).ID, queryLimit(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, list)
}

// NotificationCounts handles GET /api/notifications/counts
func (s *Server) NotificationCounts(c *gin.Context) {
	counts, err := s.services.Notifications.CountsForUser(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, counts)
}

// DepartmentNotifications handles GET /api/notifications/department. Callers
// may only read departments they belong to unless they are admins.
func (s *Server) DepartmentNotifications(c *gin.Context) {
	u := currentUser(c)
	department := c.Query("department")
	if department == "" {
		departments := u.Departments.Slice()
		if len(departments) == 0 {
			badRequest(c, "department is required")
			return
		}
		department = departments[0]
	}
	if !u.Roles.Has(entity.RoleAdmin) && !u.Departments.Has(department) {
		c.AbortWithStatusJSON(http.StatusForbidden, Response{Error: "forbidden"})
		return
	}

	ctx := c.Request.Context()
	list, err := s.services.Notifications.ListForDepartment(ctx, department, queryLimit(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	counts, err := s.services.Notifications.CountsForDepartment(ctx, department)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"counts": counts, "notifications": list})
}

// NotificationSummary handles GET /api/notifications/summary
func (s *Server) NotificationSummary(c *gin.Context) {
	filter := entity.NotificationFilter{
		Role:       c.Query("role"),
		Department: c.Query("department"),
		PrStatus:   c.Query("pr_status"),
		PoStatus:   c.Query("po_status"),
		Limit:      queryLimit(c),
	}

	summary, err := s.services.Notifications.Summary(c.Request.Context(), filter)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, summary)
}

// MarkNotificationRead handles POST /api/notifications/:id/read
func (s *Server) MarkNotificationRead(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := s.services.Notifications.MarkAsRead(c.Request.Context(), id, currentUser(c).ID); err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"id": id})
}

// MarkAllNotificationsRead handles POST /api/notifications/read-all
func (s *Server) MarkAllNotificationsRead(c *gin.Context) {
	n, err := s.services.Notifications.MarkAllAsRead(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"updated": n})
}
