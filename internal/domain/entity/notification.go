package entity

import "time"

// Notification is a persisted per-recipient message about a report.
// (UserID, ReportID, Title) is unique.
type Notification struct {
	ID         int64        `json:"id"`
	UserID     int64        `json:"user_id"`
	ReportID   int64        `json:"report_id"`
	Title      string       `json:"title"`
	SeriesNo   int          `json:"series_no"`
	PoNo       *string      `json:"po_no"`
	CreatedBy  string       `json:"created_by"`
	PrStatus   ReportStatus `json:"pr_status"`
	PoStatus   POStatus     `json:"po_status,omitempty"`
	Department []string     `json:"department"`
	Role       []string     `json:"role"`
	ReadAt     *time.Time   `json:"read_at"`
	CreatedAt  time.Time    `json:"created_at"`
}

// NotificationCounts are derived read-state totals
type NotificationCounts struct {
	Total  int `json:"total"`
	Unread int `json:"unread"`
	Read   int `json:"read"`
}

// NotificationFilter narrows notification summaries
type NotificationFilter struct {
	Role       string
	Department string
	PrStatus   string
	PoStatus   string
	Limit      int
}
