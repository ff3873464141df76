package event

// Type identifies the type of domain event
type Type string

const (
	// TypeReportUpdated fans out to every channel that can see the report
	TypeReportUpdated Type = "purchase_report.updated"

	// TypeNotificationCreated goes to the recipient's private channel
	TypeNotificationCreated Type = "notification.created"
)

func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeReportUpdated, TypeNotificationCreated:
		return true
	default:
		return false
	}
}

// Report actions carried in the "action" payload key
const (
	ActionCreated               = "created"
	ActionUpdated               = "updated"
	ActionDeleted               = "deleted"
	ActionItemStatusUpdated     = "item_status_updated"
	ActionPoCreated             = "po_created"
	ActionPoCancelled           = "po_cancelled"
	ActionPoReturned            = "po_returned"
	ActionPoApproved            = "po_approved"
	ActionDeliveryStatusUpdated = "delivery_status_updated"
)
