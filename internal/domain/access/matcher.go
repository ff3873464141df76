// Package access decides which purchase reports a user may read.
//
// Departments are compared in slug form so that "Engineering Dept" and
// "Engineering_Dept" name the same department. Slug is idempotent, so
// comparing slugs is the same as accepting a match between either raw or
// slug forms on both sides.
package access

import (
	"regexp"
	"sort"

	"github.com/zosarillana/prs-be/internal/domain/entity"
)

var nonSlug = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// Slug replaces every character outside [A-Za-z0-9_.-] with '_'
func Slug(department string) string {
	return nonSlug.ReplaceAllString(department, "_")
}

// SameDepartment reports whether a and b name the same department
func SameDepartment(a, b string) bool {
	return a != "" && b != "" && Slug(a) == Slug(b)
}

// Scope is the data-access form of a user's read permission.
// A report is in scope when Unrestricted is set, or its department slug is in
// DepartmentSlugs, or one of its tag department slugs is in TagDepartmentSlugs
// while the report is waiting on or has passed technical review.
type Scope struct {
	Unrestricted       bool
	DepartmentSlugs    []string
	TagDepartmentSlugs []string
}

// Empty reports whether the scope admits nothing
func (s Scope) Empty() bool {
	return !s.Unrestricted && len(s.DepartmentSlugs) == 0 && len(s.TagDepartmentSlugs) == 0
}

// Matches evaluates the scope against a single report
func (s Scope) Matches(r *entity.PurchaseReport) bool {
	if r == nil {
		return false
	}
	if s.Unrestricted {
		return true
	}

	if contains(s.DepartmentSlugs, Slug(r.Department)) {
		return true
	}

	if len(s.TagDepartmentSlugs) > 0 && InTechnicalReview(r) {
		for _, d := range r.TagDepartments() {
			if contains(s.TagDepartmentSlugs, Slug(d)) {
				return true
			}
		}
	}
	return false
}

// InTechnicalReview reports whether a technical reviewer is involved with r:
// it waits on technical review or a reviewer has already signed it.
func InTechnicalReview(r *entity.PurchaseReport) bool {
	return r.PrStatus == entity.ReportOnHoldTR || r.TrUserID != nil
}

// ScopeFor builds the read scope of u. Roles combine as a union.
func ScopeFor(u *entity.User) Scope {
	if u == nil {
		return Scope{}
	}
	if u.Roles.HasAny(entity.RoleAdmin, entity.RolePurchasing) {
		return Scope{Unrestricted: true}
	}

	slugs := departmentSlugs(u.Departments)
	var s Scope
	if u.Roles.HasAny(entity.RoleHOD, entity.RoleUser) {
		s.DepartmentSlugs = slugs
	}
	if u.Roles.Has(entity.RoleTechnicalReviewer) {
		s.TagDepartmentSlugs = slugs
	}
	return s
}

// Visible reports whether u may read r
func Visible(u *entity.User, r *entity.PurchaseReport) bool {
	return ScopeFor(u).Matches(r)
}

// departmentSlugs returns the slugs of a user's departments, sorted and distinct
func departmentSlugs(d entity.DepartmentSet) []string {
	seen := make(map[string]bool, len(d))
	out := make([]string, 0, len(d))
	for name := range d {
		s := Slug(name)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// UserInDepartment reports whether one of u's departments is dept
func UserInDepartment(u *entity.User, dept string) bool {
	if u == nil {
		return false
	}
	for name := range u.Departments {
		if SameDepartment(name, dept) {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
