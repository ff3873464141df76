package entity

// ItemStatus is the review state of a single line item
type ItemStatus string

// Item status constants
const (
	ItemPending   ItemStatus = "pending"
	ItemPendingTR ItemStatus = "pending_tr"
	ItemApproved  ItemStatus = "approved"
	ItemRejected  ItemStatus = "rejected"
	ItemCancelled ItemStatus = "cancelled"
	ItemReturned  ItemStatus = "returned"
	ItemDrafted   ItemStatus = "drafted"

	// ItemRejectedTR is only read from legacy rows; it is reset to pending on resubmission.
	ItemRejectedTR ItemStatus = "rejected_tr"
)

// ReportStatus is the aggregate status of a purchase report
type ReportStatus string

// PR status constants
const (
	ReportDrafted     ReportStatus = "drafted"
	ReportOnHold      ReportStatus = "on_hold"
	ReportOnHoldTR    ReportStatus = "on_hold_tr"
	ReportForApproval ReportStatus = "for_approval"
	ReportRejected    ReportStatus = "rejected"
	ReportClosed      ReportStatus = "closed"
	ReportCancelled   ReportStatus = "cancelled"
	ReportReturned    ReportStatus = "returned"
)

// POStatus is the purchase order status attached once a PO number is issued
type POStatus string

// PO status constants. POStatusNone is stored as NULL.
const (
	POStatusNone        POStatus = ""
	POStatusForApproval POStatus = "for_approval"
	POStatusApproved    POStatus = "approved"
	POStatusCancelled   POStatus = "cancelled"
	POStatusReturned    POStatus = "returned"
)

// DeliveryStatus tracks goods receipt for a closed report
type DeliveryStatus string

// Delivery status constants
const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryPartial   DeliveryStatus = "partial"
)

// SeriesBase is the first series number handed out
const SeriesBase = 12000

var validItemStatuses = map[ItemStatus]bool{
	ItemPending:   true,
	ItemPendingTR: true,
	ItemApproved:  true,
	ItemRejected:  true,
	ItemCancelled: true,
	ItemReturned:  true,
	ItemDrafted:   true,
}

var validReportStatuses = map[ReportStatus]bool{
	ReportDrafted:     true,
	ReportOnHold:      true,
	ReportOnHoldTR:    true,
	ReportForApproval: true,
	ReportRejected:    true,
	ReportClosed:      true,
	ReportCancelled:   true,
	ReportReturned:    true,
}

// IsValid reports whether s is a known item status
func (s ItemStatus) IsValid() bool {
	return validItemStatuses[s]
}

// IsReviewDecision reports whether s may be set by a reviewer on a single item
func (s ItemStatus) IsReviewDecision() bool {
	return s == ItemApproved || s == ItemRejected || s == ItemPendingTR
}

// IsValid reports whether s is a known PR status
func (s ReportStatus) IsValid() bool {
	return validReportStatuses[s]
}

// IsValid reports whether s is a settable PO status
func (s POStatus) IsValid() bool {
	switch s {
	case POStatusForApproval, POStatusApproved, POStatusCancelled, POStatusReturned:
		return true
	}
	return false
}

// IsValid reports whether s is a known delivery status
func (s DeliveryStatus) IsValid() bool {
	switch s {
	case DeliveryPending, DeliveryDelivered, DeliveryPartial:
		return true
	}
	return false
}
