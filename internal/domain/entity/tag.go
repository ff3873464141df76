package entity

import "time"

// Department is an organisational unit
type Department struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Tag routes line items to the technical reviewers of its department
type Tag struct {
	ID             int64  `json:"id"`
	DepartmentID   int64  `json:"department_id"`
	DepartmentName string `json:"department"`
	Description    string `json:"description"`
}

// Ref returns the snapshot stored on report items
func (t *Tag) Ref() *TagRef {
	return &TagRef{ID: t.ID, Description: t.Description, Department: t.DepartmentName}
}
