package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TagRef is the snapshot of a tag stored on a report line item
type TagRef struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	Department  string `json:"department"`
}

// PurchaseReport is one purchase requisition and its PO lifecycle.
// The six item slices are parallel and always share the length of ItemDescription.
type PurchaseReport struct {
	ID            int64     `json:"id"`
	SeriesNo      int       `json:"series_no"`
	UserID        int64     `json:"user_id"`
	PrPurpose     string    `json:"pr_purpose"`
	Department    string    `json:"department"`
	DateSubmitted time.Time `json:"date_submitted"`
	DateNeeded    time.Time `json:"date_needed"`

	Quantity        []decimal.Decimal `json:"quantity"`
	Unit            []string          `json:"unit"`
	ItemDescription []string          `json:"item_description"`
	Tag             []*TagRef         `json:"tag"`
	ItemStatus      []ItemStatus      `json:"item_status"`
	Remarks         []string          `json:"remarks"`

	PrStatus       ReportStatus   `json:"pr_status"`
	PoNo           *string        `json:"po_no"`
	PoStatus       POStatus       `json:"po_status,omitempty"`
	PoCreatedDate  *time.Time     `json:"po_created_date"`
	PoApprovedDate *time.Time     `json:"po_approved_date"`
	PurchaserID    *int64         `json:"purchaser_id"`
	TrUserID       *int64         `json:"tr_user_id"`
	TrSignedAt     *time.Time     `json:"tr_signed_at"`
	HodUserID      *int64         `json:"hod_user_id"`
	HodSignedAt    *time.Time     `json:"hod_signed_at"`
	DeliveryStatus DeliveryStatus `json:"delivery_status,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// CreatorName is joined from users for listings and notifications; not persisted.
	CreatorName string `json:"created_by,omitempty"`
}

// ItemCount returns the number of line items
func (r *PurchaseReport) ItemCount() int {
	return len(r.ItemDescription)
}

// TagDepartments returns the distinct departments of the tagged items
func (r *PurchaseReport) TagDepartments() []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range r.Tag {
		if t == nil || t.Department == "" || seen[t.Department] {
			continue
		}
		seen[t.Department] = true
		out = append(out, t.Department)
	}
	return out
}

// Clone returns a deep copy, used for audit snapshots
func (r *PurchaseReport) Clone() *PurchaseReport {
	if r == nil {
		return nil
	}
	c := *r
	c.Quantity = append([]decimal.Decimal(nil), r.Quantity...)
	c.Unit = append([]string(nil), r.Unit...)
	c.ItemDescription = append([]string(nil), r.ItemDescription...)
	c.ItemStatus = append([]ItemStatus(nil), r.ItemStatus...)
	c.Remarks = append([]string(nil), r.Remarks...)
	if r.Tag != nil {
		c.Tag = make([]*TagRef, len(r.Tag))
		for i, t := range r.Tag {
			if t != nil {
				tc := *t
				c.Tag[i] = &tc
			}
		}
	}
	return &c
}

// ReportInput is the caller-supplied content of a create or update
type ReportInput struct {
	UserID          int64             `json:"user_id"`
	PrPurpose       string            `json:"pr_purpose"`
	Department      string            `json:"department"`
	DateSubmitted   time.Time         `json:"date_submitted"`
	DateNeeded      time.Time         `json:"date_needed"`
	Quantity        []decimal.Decimal `json:"quantity"`
	Unit            []string          `json:"unit"`
	ItemDescription []string          `json:"item_description"`
	TagIDs          []int64           `json:"tag"`
	ItemStatus      []ItemStatus      `json:"item_status,omitempty"`
	Remarks         []string          `json:"remarks,omitempty"`
}

// ReportFilter holds listing filters and paging
type ReportFilter struct {
	SearchTerm    string
	StatusTerm    []POStatus
	PrStatusTerm  []ReportStatus
	FromDate      *time.Time
	ToDate        *time.Time
	SubmittedFrom *time.Time
	SubmittedTo   *time.Time
	NeededFrom    *time.Time
	NeededTo      *time.Time
	OwnDepartment bool
	CompletedTR   bool
	SortBy        string
	SortOrder     string
	PageNumber    int
	PageSize      int
}

// Page is a page of reports
type Page struct {
	PageNumber int               `json:"page_number"`
	PageSize   int               `json:"page_size"`
	TotalItems int               `json:"total_items"`
	TotalPages int               `json:"total_pages"`
	Items      []*PurchaseReport `json:"items"`
}

// SummaryCounts are dashboard aggregates over a user's visible reports
type SummaryCounts struct {
	OnHold             int `json:"on_hold"`
	ForApproval        int `json:"for_approval"`
	OnHoldTR           int `json:"on_hold_tr"`
	ClosedPR           int `json:"closed_pr"`
	Rejected           int `json:"rejected"`
	Returned           int `json:"returned"`
	ForCEOApproval     int `json:"for_ceo_approval"`
	ApprovedPO         int `json:"approved_po"`
	CompletedHODReview int `json:"completed_hod_review"`
	CompletedTRReview  int `json:"completed_tr_review"`
	OwnCreated         int `json:"own_created"`
	DepartmentTotal    int `json:"department_total"`
	TotalPRs           int `json:"total_prs"`
}
