// Package status holds the pure rules that derive purchase report state from
// its line items: aggregate PR status, item status regeneration on edits,
// parallel-array repair and series number allocation.
package status

import (
	"github.com/shopspring/decimal"

	"github.com/zosarillana/prs-be/internal/domain/entity"
)

// Derive computes the PR aggregate status from the item statuses.
// Rejection wins over everything, then pending, then pending_tr.
func Derive(items []entity.ItemStatus, isDraft bool) entity.ReportStatus {
	if isDraft {
		return entity.ReportDrafted
	}

	var hasPending, hasPendingTR bool
	for _, s := range items {
		switch s {
		case entity.ItemRejected:
			return entity.ReportRejected
		case entity.ItemPending:
			hasPending = true
		case entity.ItemPendingTR:
			hasPendingTR = true
		}
	}

	switch {
	case hasPending:
		return entity.ReportOnHold
	case hasPendingTR:
		return entity.ReportOnHoldTR
	default:
		return entity.ReportForApproval
	}
}

// Fill returns n copies of s
func Fill(n int, s entity.ItemStatus) []entity.ItemStatus {
	out := make([]entity.ItemStatus, n)
	for i := range out {
		out[i] = s
	}
	return out
}

// Initial returns the item statuses of a freshly created report
func Initial(n int, isDraft bool) []entity.ItemStatus {
	if isDraft {
		return Fill(n, entity.ItemDrafted)
	}
	return Fill(n, entity.ItemPending)
}

// Resubmit computes item statuses for an edited report.
//
// A changed item count or a caller that sent no statuses regenerates the list.
// Submitting a drafted report makes every item pending. Otherwise the stored
// statuses are kept and rejected items go back to pending. Drafts always end
// up all drafted.
func Resubmit(current []entity.ItemStatus, prev entity.ReportStatus, newCount int, statusesSupplied, isDraft bool) []entity.ItemStatus {
	if isDraft {
		return Fill(newCount, entity.ItemDrafted)
	}
	if newCount != len(current) || !statusesSupplied {
		return Fill(newCount, entity.ItemPending)
	}
	if prev == entity.ReportDrafted {
		return Fill(newCount, entity.ItemPending)
	}

	out := make([]entity.ItemStatus, len(current))
	for i, s := range current {
		if s == entity.ItemRejected || s == entity.ItemRejectedTR {
			out[i] = entity.ItemPending
			continue
		}
		out[i] = s
	}
	return out
}

// ApplyDecision sets one item's status and remark. An index outside the item
// list leaves the report untouched and returns false.
func ApplyDecision(r *entity.PurchaseReport, index int, s entity.ItemStatus, remark string) bool {
	if index < 0 || index >= r.ItemCount() {
		return false
	}
	Normalize(r)
	r.ItemStatus[index] = s
	r.Remarks[index] = remark
	return true
}

// ForceAll sets every item to s
func ForceAll(r *entity.PurchaseReport, s entity.ItemStatus) {
	r.ItemStatus = Fill(r.ItemCount(), s)
}

// Normalize pads or truncates every parallel item slice to the length of
// ItemDescription. Missing statuses are padded as pending, or drafted when the
// report is a draft.
func Normalize(r *entity.PurchaseReport) {
	n := r.ItemCount()

	r.Quantity = resize(r.Quantity, n, decimal.Zero)
	r.Unit = resize(r.Unit, n, "")
	r.Tag = resize(r.Tag, n, nil)
	r.Remarks = resize(r.Remarks, n, "")

	fill := entity.ItemPending
	if r.PrStatus == entity.ReportDrafted {
		fill = entity.ItemDrafted
	}
	r.ItemStatus = resize(r.ItemStatus, n, fill)
}

func resize[T any](s []T, n int, pad T) []T {
	if len(s) == n {
		return s
	}
	if len(s) > n {
		return s[:n:n]
	}
	out := make([]T, n)
	copy(out, s)
	for i := len(s); i < n; i++ {
		out[i] = pad
	}
	return out
}
