package entity

import "time"

// Progress is a dated milestone logged against a purchase report
type Progress struct {
	ID        int64      `json:"id"`
	ReportID  int64      `json:"purchase_report_id"`
	Title     string     `json:"title"`
	Remarks   string     `json:"remarks,omitempty"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	CreatedBy int64      `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
