package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zosarillana/prs-be/internal/domain/entity"
	"github.com/zosarillana/prs-be/internal/domain/event"
)

func TestApprovalService_ApproveAllItems(t *testing.T) {
	f := newFixture()
	tm := f.seedTeam()
	ctx := context.Background()

	created, err := f.reportSvc.CreateReport(ctx, tm.creator, sampleInput(), false)
	require.NoError(t, err)

	r, err := f.approvalSvc.ApproveItem(ctx, created.ID, 0, entity.ItemApproved, "ok", ActingHOD, tm.hod.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ReportOnHold, r.PrStatus)
	assert.Empty(t, f.notifications.byTitle(TitleForApproval))

	r, err = f.approvalSvc.ApproveItem(ctx, created.ID, 1, entity.ItemApproved, "", ActingHOD, tm.hod.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ReportForApproval, r.PrStatus)
	assert.Equal(t, []string{"ok", ""}, r.Remarks)
	require.NotNil(t, r.HodUserID)
	assert.Equal(t, tm.hod.ID, *r.HodUserID)
	assert.NotNil(t, r.HodSignedAt)
	assert.Nil(t, r.TrUserID)

	assert.Equal(t, []int64{tm.admin.ID, tm.purchasing.ID}, f.notifications.recipients(TitleForApproval))

	// a repeated decision that stays in for_approval adds no rows
	_, err = f.approvalSvc.ApproveItem(ctx, created.ID, 1, entity.ItemApproved, "", ActingHOD, tm.hod.ID)
	require.NoError(t, err)
	assert.Len(t, f.notifications.byTitle(TitleForApproval), 2)

	assert.Equal(t, entity.ReportForApproval, f.reports.get(created.ID).PrStatus)
	assert.Equal(t,
		[]string{entity.AuditCreate, entity.AuditApproveItem, entity.AuditApproveItem, entity.AuditApproveItem},
		f.audits.actions())
}

func TestApprovalService_RejectThenResubmit(t *testing.T) {
	f := newFixture()
	tm := f.seedTeam()
	ctx := context.Background()

	created, err := f.reportSvc.CreateReport(ctx, tm.creator, sampleInput(), false)
	require.NoError(t, err)

	r, err := f.approvalSvc.ApproveItem(ctx, created.ID, 1, entity.ItemRejected, "wrong model", ActingNone, tm.hod.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ReportRejected, r.PrStatus)

	assert.Equal(t,
		[]int64{tm.creator.ID, tm.hod.ID, tm.admin.ID, tm.purchasing.ID, tm.reviewer.ID},
		f.notifications.recipients(TitleReportRejected))

	in := sampleInput()
	in.ItemStatus = r.ItemStatus
	r, err = f.reportSvc.UpdateReport(ctx, tm.creator, created.ID, in, false)
	require.NoError(t, err)

	assert.Equal(t, entity.ReportOnHold, r.PrStatus)
	assert.Equal(t, []entity.ItemStatus{entity.ItemPending, entity.ItemPending}, r.ItemStatus)
	assert.Equal(t, []string{"", "wrong model"}, r.Remarks)
}

func TestApprovalService_TechnicalHold(t *testing.T) {
	f := newFixture()
	tm := f.seedTeam()
	ctx := context.Background()

	created, err := f.reportSvc.CreateReport(ctx, tm.creator, sampleInput(), false)
	require.NoError(t, err)

	_, err = f.approvalSvc.ApproveItem(ctx, created.ID, 1, entity.ItemApproved, "", ActingHOD, tm.hod.ID)
	require.NoError(t, err)
	r, err := f.approvalSvc.ApproveItem(ctx, created.ID, 0, entity.ItemPendingTR, "needs review", ActingHOD, tm.hod.ID)
	require.NoError(t, err)

	assert.Equal(t, entity.ReportOnHoldTR, r.PrStatus)
	assert.Equal(t, []int64{tm.creator.ID, tm.reviewer.ID}, f.notifications.recipients(TitleTechnicalOnHold))

	r, err = f.approvalSvc.ApproveItem(ctx, created.ID, 0, entity.ItemApproved, "checked", ActingTechnicalReviewer, tm.reviewer.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ReportForApproval, r.PrStatus)
	require.NotNil(t, r.TrUserID)
	assert.Equal(t, tm.reviewer.ID, *r.TrUserID)
}

func TestApprovalService_ActingBothStampsBoth(t *testing.T) {
	f := newFixture(&entity.PurchaseReport{
		ID: 1, SeriesNo: 12000, Department: "Engineering",
		ItemDescription: []string{"x"}, ItemStatus: []entity.ItemStatus{entity.ItemPending},
		PrStatus: entity.ReportOnHold,
	})

	r, err := f.approvalSvc.ApproveItem(context.Background(), 1, 0, entity.ItemApproved, "", ActingBoth, 42)
	require.NoError(t, err)

	require.NotNil(t, r.TrUserID)
	require.NotNil(t, r.HodUserID)
	assert.Equal(t, int64(42), *r.TrUserID)
	assert.Equal(t, int64(42), *r.HodUserID)
}

func TestApprovalService_OutOfRangeStillRecomputes(t *testing.T) {
	f := newFixture(&entity.PurchaseReport{
		ID: 1, SeriesNo: 12000, Department: "Engineering",
		ItemDescription: []string{"a", "b"},
		ItemStatus:      []entity.ItemStatus{entity.ItemApproved, entity.ItemApproved},
		Remarks:         []string{"r1", "r2"},
		PrStatus:        entity.ReportOnHold,
	})

	r, err := f.approvalSvc.ApproveItem(context.Background(), 1, 5, entity.ItemRejected, "late", ActingNone, 9)
	require.NoError(t, err)

	assert.Equal(t, []entity.ItemStatus{entity.ItemApproved, entity.ItemApproved}, r.ItemStatus)
	assert.Equal(t, []string{"r1", "r2"}, r.Remarks)
	assert.Equal(t, entity.ReportForApproval, r.PrStatus)
	assert.Equal(t, entity.ReportForApproval, f.reports.get(1).PrStatus)
	assert.Equal(t, []string{entity.AuditApproveItem}, f.audits.actions())
}

func TestApprovalService_Validation(t *testing.T) {
	f := newFixture(&entity.PurchaseReport{ID: 1, SeriesNo: 12000, ItemDescription: []string{"a"}})
	ctx := context.Background()

	_, err := f.approvalSvc.ApproveItem(ctx, 1, 0, entity.ItemCancelled, "", ActingNone, 1)
	assert.True(t, IsValidation(err))

	_, err = f.approvalSvc.ApproveItem(ctx, 1, 0, entity.ItemApproved, "", "ceo", 1)
	assert.True(t, IsValidation(err))

	_, err = f.approvalSvc.ApproveItem(ctx, 404, 0, entity.ItemApproved, "", ActingNone, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Empty(t, f.audits.actions())
	assert.Empty(t, f.sink.ofType(event.TypeReportUpdated))
}

func TestApprovalService_PublishesStatusChange(t *testing.T) {
	f := newFixture(&entity.PurchaseReport{
		ID: 1, SeriesNo: 12000, Department: "Engineering",
		ItemDescription: []string{"x"}, ItemStatus: []entity.ItemStatus{entity.ItemPending},
		PrStatus: entity.ReportOnHold,
	})

	_, err := f.approvalSvc.ApproveItem(context.Background(), 1, 0, entity.ItemApproved, "", ActingNone, 2)
	require.NoError(t, err)

	events := f.sink.ofType(event.TypeReportUpdated)
	require.Len(t, events, 1)
	assert.Equal(t, string(entity.ReportOnHold), events[0].GetPayloadString("old_pr_status"))
	assert.Equal(t, string(entity.ReportForApproval), events[0].GetPayloadString("pr_status"))
	assert.Equal(t, event.ActionItemStatusUpdated, events[0].GetPayloadString("action"))
}
