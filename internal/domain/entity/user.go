package entity

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Role is an authorization role
type Role string

// Role constants
const (
	RoleAdmin             Role = "admin"
	RoleHOD               Role = "hod"
	RolePurchasing        Role = "purchasing"
	RoleTechnicalReviewer Role = "technical_reviewer"
	RoleUser              Role = "user"
)

// ParseRole validates a role name
func ParseRole(s string) (Role, error) {
	r := Role(s)
	switch r {
	case RoleAdmin, RoleHOD, RolePurchasing, RoleTechnicalReviewer, RoleUser:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// RoleSet is a set of validated roles
type RoleSet map[Role]struct{}

// NewRoleSet builds a RoleSet from raw names, rejecting unknown roles
func NewRoleSet(names ...string) (RoleSet, error) {
	set := make(RoleSet, len(names))
	for _, n := range names {
		r, err := ParseRole(n)
		if err != nil {
			return nil, err
		}
		set[r] = struct{}{}
	}
	return set, nil
}

// Roles builds a RoleSet from typed roles
func Roles(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

// Has reports whether the set contains r
func (s RoleSet) Has(r Role) bool {
	_, ok := s[r]
	return ok
}

// HasAny reports whether the set contains any of roles
func (s RoleSet) HasAny(roles ...Role) bool {
	for _, r := range roles {
		if s.Has(r) {
			return true
		}
	}
	return false
}

// Slice returns the roles sorted by name
func (s RoleSet) Slice() []string {
	out := make([]string, 0, len(s))
	for r := range s {
		out = append(out, string(r))
	}
	sort.Strings(out)
	return out
}

// MarshalJSON encodes the set as a sorted array
func (s RoleSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slice())
}

// UnmarshalJSON decodes an array of role names
func (s *RoleSet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	set, err := NewRoleSet(names...)
	if err != nil {
		return err
	}
	*s = set
	return nil
}

// DepartmentSet is a set of department names as stored on the user
type DepartmentSet map[string]struct{}

// NewDepartmentSet builds a DepartmentSet, dropping empty names
func NewDepartmentSet(names ...string) DepartmentSet {
	set := make(DepartmentSet, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		set[n] = struct{}{}
	}
	return set
}

// Has reports whether name is in the set verbatim
func (s DepartmentSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Slice returns the names sorted
func (s DepartmentSet) Slice() []string {
	out := make([]string, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// MarshalJSON encodes the set as a sorted array
func (s DepartmentSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slice())
}

// UnmarshalJSON decodes an array of department names
func (s *DepartmentSet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	*s = NewDepartmentSet(names...)
	return nil
}

// User is an authenticated principal and notification recipient
type User struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Email       string        `json:"email"`
	Roles       RoleSet       `json:"role"`
	Departments DepartmentSet `json:"department"`
	LarkOpenID  string        `json:"lark_open_id,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// HasRole reports whether the user holds r
func (u *User) HasRole(r Role) bool {
	return u != nil && u.Roles.Has(r)
}
