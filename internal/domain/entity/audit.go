package entity

import "time"

// Audit actions
const (
	AuditCreate         = "create"
	AuditUpdate         = "update"
	AuditDelete         = "delete"
	AuditApproveItem    = "approve_item"
	AuditAssignPO       = "assign_po"
	AuditCancelPO       = "cancel_po"
	AuditReturnPO       = "return_po"
	AuditApprovePO      = "approve_po"
	AuditDeliveryStatus = "delivery_status"
)

// Audited model types
const (
	AuditModelReport   = "purchase_report"
	AuditModelProgress = "purchase_report_progress"
)

// AuditLog records one mutation with before/after snapshots (JSON)
type AuditLog struct {
	ID        int64     `json:"id"`
	UserID    *int64    `json:"user_id"`
	Action    string    `json:"action"`
	ModelType string    `json:"model_type"`
	ModelID   int64     `json:"model_id"`
	OldValues string    `json:"old_values,omitempty"`
	NewValues string    `json:"new_values,omitempty"`
	IPAddress string    `json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
