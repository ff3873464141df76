// Package broadcast pushes committed report changes and new notifications to
// connected browsers over websockets.
package broadcast

import (
	"fmt"
	"sort"

	"github.com/zosarillana/prs-be/internal/domain/access"
	"github.com/zosarillana/prs-be/internal/domain/entity"
	"github.com/zosarillana/prs-be/internal/domain/event"
)

// Fixed channel names
const (
	ChannelAdmin      = "purchase-report-admin"
	ChannelPurchasing = "purchase-report-purchasing"
)

// Event names carried in the message envelope
const (
	EventReportUpdated = "GlobalPurchaseReportApprovalUpdated"
	EventNotification  = "NotificationCreated"
)

// DeptChannel carries every change of a department's reports
func DeptChannel(department string) string {
	return "purchase-report-dept-" + access.Slug(department)
}

// HODChannel carries the reports a department head approves
func HODChannel(department string) string {
	return "purchase-report-hod-" + access.Slug(department)
}

// ReviewerChannel carries reports in technical review for a tag department
func ReviewerChannel(department string) string {
	return "purchase-report-tr-" + access.Slug(department)
}

// UserChannel carries a user's own reports and notifications
func UserChannel(userID int64) string {
	return fmt.Sprintf("purchase-report-user-%d", userID)
}

// SubscriptionsFor lists the channels a connection of u listens on
func SubscriptionsFor(u *entity.User) []string {
	if u == nil {
		return nil
	}

	set := map[string]bool{UserChannel(u.ID): true}
	if u.HasRole(entity.RoleAdmin) {
		set[ChannelAdmin] = true
	}
	if u.HasRole(entity.RolePurchasing) {
		set[ChannelPurchasing] = true
	}
	for _, d := range u.Departments.Slice() {
		if u.HasRole(entity.RoleUser) {
			set[DeptChannel(d)] = true
		}
		if u.HasRole(entity.RoleHOD) {
			set[HODChannel(d)] = true
			set[DeptChannel(d)] = true
		}
		if u.HasRole(entity.RoleTechnicalReviewer) {
			set[ReviewerChannel(d)] = true
		}
	}
	return sorted(set)
}

// ReportChannels lists the channels a report change is published on
func ReportChannels(evt *event.Event) []string {
	set := map[string]bool{
		ChannelAdmin:      true,
		ChannelPurchasing: true,
	}
	if owner := evt.GetPayloadInt("user_id"); owner != 0 {
		set[UserChannel(owner)] = true
	}
	if dept := evt.GetPayloadString("department"); dept != "" {
		set[DeptChannel(dept)] = true
		set[HODChannel(dept)] = true
	}
	if inReview, _ := evt.Payload["in_technical_review"].(bool); inReview {
		for _, d := range evt.GetPayloadStrings("tag_departments") {
			set[ReviewerChannel(d)] = true
		}
	}
	return sorted(set)
}

func sorted(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
