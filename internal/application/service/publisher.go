package service

import (
	"context"
	"sort"

	"github.com/zosarillana/prs-be/internal/application/dispatcher"
	"github.com/zosarillana/prs-be/internal/domain/access"
	"github.com/zosarillana/prs-be/internal/domain/entity"
	"github.com/zosarillana/prs-be/internal/domain/event"
)

// reportPublisher announces committed report changes to live listeners
type reportPublisher struct {
	dispatcher dispatcher.Dispatcher
}

// ReportPayload is the live broadcast body of a report change
func ReportPayload(r *entity.PurchaseReport, oldStatus entity.ReportStatus, action string) map[string]interface{} {
	depts := map[string]bool{r.Department: true}
	for _, d := range r.TagDepartments() {
		depts[d] = true
	}
	affected := make([]string, 0, len(depts))
	for d := range depts {
		if d != "" {
			affected = append(affected, d)
		}
	}
	sort.Strings(affected)

	roles := []string{string(entity.RoleAdmin), string(entity.RolePurchasing), string(entity.RoleHOD), string(entity.RoleUser)}
	inReview := access.InTechnicalReview(r)
	if inReview {
		roles = append(roles, string(entity.RoleTechnicalReviewer))
	}

	tagDepts := r.TagDepartments()
	if tagDepts == nil {
		tagDepts = []string{}
	}

	return map[string]interface{}{
		"type":                "global_approval_notification",
		"id":                  r.ID,
		"series_no":           r.SeriesNo,
		"user_id":             r.UserID,
		"department":          r.Department,
		"pr_status":           string(r.PrStatus),
		"old_pr_status":       string(oldStatus),
		"po_status":           string(r.PoStatus),
		"po_no":               r.PoNo,
		"created_by":          r.CreatorName,
		"created_at":          r.CreatedAt,
		"action":              action,
		"affects_departments": affected,
		"affects_roles":       roles,
		"tag_departments":     tagDepts,
		"in_technical_review": inReview,
	}
}

func (p reportPublisher) publish(ctx context.Context, r *entity.PurchaseReport, oldStatus entity.ReportStatus, action string) {
	if p.dispatcher == nil || r == nil {
		return
	}
	evt := event.NewEventWithCorrelation(event.TypeReportUpdated, r.ID, ReportPayload(r, oldStatus, action), RequestMetaFrom(ctx).RequestID)
	p.dispatcher.DispatchAsync(ctx, evt)
}
