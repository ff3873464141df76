package service

import (
	"github.com/zosarillana/prs-be/internal/domain/entity"
)

// Notification titles
const (
	TitleReportCreated    = "New Purchase Report Created"
	TitleForApproval      = "Purchase Report For Approval"
	TitleTechnicalOnHold  = "Purchase Report On Hold (Technical Review)"
	TitleReportRejected   = "Purchase Report Rejected"
	TitlePoCreated        = "New PO Created"
	TitlePoCancelled      = "PO Cancelled"
	TitlePoReturned       = "PO Returned"
	TitlePoApproved       = "PO Approved"
	titleDeliveryPrefixed = "Delivery Status Updated: "
)

// DeliveryTitle is the notification title for a delivery status change
func DeliveryTitle(s entity.DeliveryStatus) string {
	return titleDeliveryPrefixed + string(s)
}

// Selector picks every user holding Role. When Departments is non-empty the
// user must also belong to one of them.
type Selector struct {
	Role        entity.Role
	Departments []string
}

// Group is one set of recipients sharing a role override on the stored row
type Group struct {
	Selectors    []Selector
	UserIDs      []int64
	RoleOverride []string
}

// Plan is a titled notification fan-out. Groups are resolved in order and a
// user reached by an earlier group is not notified again.
type Plan struct {
	Title  string
	Groups []Group
}

func global(role entity.Role) Selector {
	return Selector{Role: role}
}

func inDepartments(role entity.Role, departments ...string) Selector {
	return Selector{Role: role, Departments: departments}
}

// reviewDepartments is where technical reviewers of r are looked up: the
// departments of the tagged items plus the report's own department.
func reviewDepartments(r *entity.PurchaseReport) []string {
	depts := r.TagDepartments()
	for _, d := range depts {
		if d == r.Department {
			return depts
		}
	}
	return append(depts, r.Department)
}

func departmentUsers(r *entity.PurchaseReport) Group {
	return Group{
		Selectors:    []Selector{inDepartments(entity.RoleUser, r.Department)},
		RoleOverride: []string{string(entity.RoleUser)},
	}
}

// CreatedPlan notifies the department's HODs, admins and users
func CreatedPlan(r *entity.PurchaseReport) Plan {
	return Plan{
		Title: TitleReportCreated,
		Groups: []Group{
			{Selectors: []Selector{inDepartments(entity.RoleHOD, r.Department)}},
			{
				Selectors:    []Selector{inDepartments(entity.RoleAdmin, r.Department)},
				RoleOverride: []string{string(entity.RoleAdmin)},
			},
			departmentUsers(r),
		},
	}
}

// ItemStatusPlan returns the fan-out for the aggregate status reached after an
// item decision; ok is false for statuses that notify nobody.
func ItemStatusPlan(r *entity.PurchaseReport) (Plan, bool) {
	switch r.PrStatus {
	case entity.ReportForApproval:
		return Plan{
			Title: TitleForApproval,
			Groups: []Group{{Selectors: []Selector{
				global(entity.RolePurchasing),
				inDepartments(entity.RoleAdmin, r.Department),
			}}},
		}, true
	case entity.ReportOnHoldTR:
		return Plan{
			Title: TitleTechnicalOnHold,
			Groups: []Group{
				{Selectors: []Selector{inDepartments(entity.RoleTechnicalReviewer, reviewDepartments(r)...)}},
				departmentUsers(r),
			},
		}, true
	case entity.ReportRejected:
		return Plan{
			Title: TitleReportRejected,
			Groups: []Group{{
				Selectors: []Selector{
					inDepartments(entity.RoleAdmin, r.Department),
					global(entity.RolePurchasing),
					inDepartments(entity.RoleHOD, r.Department),
					inDepartments(entity.RoleTechnicalReviewer, reviewDepartments(r)...),
				},
				UserIDs: []int64{r.UserID},
			}},
		}, true
	}
	return Plan{}, false
}

// POPlan notifies admins and HODs of the department, purchasing, the HOD who
// signed the report and the department's users. withReviewers adds technical
// reviewers, used when a PO is approved.
func POPlan(r *entity.PurchaseReport, title string, withReviewers bool) Plan {
	staff := Group{Selectors: []Selector{
		global(entity.RolePurchasing),
		inDepartments(entity.RoleAdmin, r.Department),
		inDepartments(entity.RoleHOD, r.Department),
	}}
	if r.HodUserID != nil {
		staff.UserIDs = append(staff.UserIDs, *r.HodUserID)
	}

	groups := []Group{staff, departmentUsers(r)}
	if withReviewers {
		groups = append(groups, Group{Selectors: []Selector{
			inDepartments(entity.RoleTechnicalReviewer, reviewDepartments(r)...),
		}})
	}
	return Plan{Title: title, Groups: groups}
}

// DeliveryPlan notifies PO staff and the creator about a delivery update
func DeliveryPlan(r *entity.PurchaseReport) Plan {
	p := POPlan(r, DeliveryTitle(r.DeliveryStatus), false)
	p.Groups = append(p.Groups, Group{UserIDs: []int64{r.UserID}})
	return p
}
