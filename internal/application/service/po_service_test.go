package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zosarillana/prs-be/internal/domain/entity"
)

func approvedReport() *entity.PurchaseReport {
	hod := int64(2)
	return &entity.PurchaseReport{
		ID: 1, SeriesNo: 12000, UserID: 1, Department: "Engineering",
		ItemDescription: []string{"a", "b"},
		ItemStatus:      []entity.ItemStatus{entity.ItemApproved, entity.ItemApproved},
		PrStatus:        entity.ReportForApproval,
		HodUserID:       &hod,
	}
}

func fixedClock(f *fixture, t time.Time) {
	f.poSvc.now = func() time.Time { return t }
}

func TestPOService_AssignPoNo(t *testing.T) {
	f := newFixture(approvedReport())
	tm := f.seedTeam()
	created := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	fixedClock(f, created)

	r, err := f.poSvc.AssignPoNo(context.Background(), 1, "  PO-2026/001 ", tm.purchasing.ID)
	require.NoError(t, err)

	require.NotNil(t, r.PoNo)
	assert.Equal(t, "PO-2026/001", *r.PoNo)
	assert.Equal(t, entity.POStatusForApproval, r.PoStatus)
	assert.Equal(t, entity.ReportClosed, r.PrStatus)
	assert.Equal(t, created, *r.PoCreatedDate)
	assert.Equal(t, tm.purchasing.ID, *r.PurchaserID)

	got := f.notifications.recipients(TitlePoCreated)
	assert.Equal(t, []int64{tm.creator.ID, tm.hod.ID, tm.admin.ID, tm.purchasing.ID}, got)
}

func TestPOService_AssignPoNo_InvalidNumber(t *testing.T) {
	f := newFixture(approvedReport())

	for _, poNo := range []string{"", "   ", "#bad", string(make([]byte, 60))} {
		_, err := f.poSvc.AssignPoNo(context.Background(), 1, poNo, 4)
		assert.True(t, IsValidation(err), "po_no %q", poNo)
	}
	assert.Equal(t, entity.POStatusNone, f.reports.get(1).PoStatus)
}

func TestPOService_CancelAfterAssign(t *testing.T) {
	f := newFixture(approvedReport())
	tm := f.seedTeam()
	ctx := context.Background()

	_, err := f.poSvc.AssignPoNo(ctx, 1, "PO-1", tm.purchasing.ID)
	require.NoError(t, err)

	r, err := f.poSvc.CancelPoNo(ctx, 1, tm.purchasing.ID)
	require.NoError(t, err)

	assert.Equal(t, entity.POStatusCancelled, r.PoStatus)
	assert.Equal(t, entity.ReportCancelled, r.PrStatus)
	assert.Nil(t, r.PoNo)
	assert.Equal(t, []entity.ItemStatus{entity.ItemCancelled, entity.ItemCancelled}, r.ItemStatus)
	assert.NotEmpty(t, f.notifications.byTitle(TitlePoCancelled))

	_, err = f.poSvc.ApprovePoDate(ctx, 1, entity.POStatusApproved, time.Time{}, tm.purchasing.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.True(t, IsValidation(err))

	r, err = f.poSvc.AssignPoNo(ctx, 1, "PO-2", tm.purchasing.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.POStatusForApproval, r.PoStatus)

	assert.Equal(t,
		[]string{entity.AuditAssignPO, entity.AuditCancelPO, entity.AuditAssignPO},
		f.audits.actions())
}

func TestPOService_ReturnClearsPO(t *testing.T) {
	f := newFixture(approvedReport())
	ctx := context.Background()

	_, err := f.poSvc.AssignPoNo(ctx, 1, "PO-1", 4)
	require.NoError(t, err)
	_, err = f.poSvc.ApprovePoDate(ctx, 1, "", time.Time{}, 4)
	require.NoError(t, err)

	r, err := f.poSvc.ReturnPoNo(ctx, 1, 4)
	require.NoError(t, err)

	assert.Equal(t, entity.POStatusNone, r.PoStatus)
	assert.Equal(t, entity.ReportReturned, r.PrStatus)
	assert.Nil(t, r.PoNo)
	assert.Nil(t, r.PoCreatedDate)
	assert.Nil(t, r.PoApprovedDate)
	assert.Nil(t, r.HodUserID)
	assert.Equal(t, []entity.ItemStatus{entity.ItemReturned, entity.ItemReturned}, r.ItemStatus)

	_, err = f.poSvc.AssignPoNo(ctx, 1, "PO-3", 4)
	assert.NoError(t, err)
}

func TestPOService_IllegalTransitions(t *testing.T) {
	tests := []struct {
		name string
		act  func(f *fixture) error
	}{
		{"cancel without PO", func(f *fixture) error {
			_, err := f.poSvc.CancelPoNo(context.Background(), 1, 4)
			return err
		}},
		{"return without PO", func(f *fixture) error {
			_, err := f.poSvc.ReturnPoNo(context.Background(), 1, 4)
			return err
		}},
		{"approve without PO", func(f *fixture) error {
			_, err := f.poSvc.ApprovePoDate(context.Background(), 1, entity.POStatusApproved, time.Time{}, 4)
			return err
		}},
		{"assign twice", func(f *fixture) error {
			if _, err := f.poSvc.AssignPoNo(context.Background(), 1, "PO-1", 4); err != nil {
				return err
			}
			_, err := f.poSvc.AssignPoNo(context.Background(), 1, "PO-2", 4)
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(approvedReport())
			err := tt.act(f)

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidTransition), "got %v", err)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, "po_status", ve.Field)
		})
	}
}

func TestPOService_ApprovePoDate(t *testing.T) {
	created := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		status   entity.POStatus
		approved time.Time
		wantErr  bool
	}{
		{"same day earlier hour", entity.POStatusApproved, time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC), false},
		{"later day", "", time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC), false},
		{"day before creation", entity.POStatusApproved, time.Date(2026, 3, 9, 23, 0, 0, 0, time.UTC), true},
		{"wrong status", entity.POStatusCancelled, time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(approvedReport())
			fixedClock(f, created)
			ctx := context.Background()

			_, err := f.poSvc.AssignPoNo(ctx, 1, "PO-1", 4)
			require.NoError(t, err)

			r, err := f.poSvc.ApprovePoDate(ctx, 1, tt.status, tt.approved, 4)
			if tt.wantErr {
				assert.True(t, IsValidation(err))
				assert.Equal(t, entity.POStatusForApproval, f.reports.get(1).PoStatus)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, entity.POStatusApproved, r.PoStatus)
			assert.Equal(t, tt.approved, *r.PoApprovedDate)
		})
	}
}

func TestPOService_ApprovePoDate_DefaultsToNow(t *testing.T) {
	f := newFixture(approvedReport())
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	fixedClock(f, now)
	ctx := context.Background()

	_, err := f.poSvc.AssignPoNo(ctx, 1, "PO-1", 4)
	require.NoError(t, err)

	r, err := f.poSvc.ApprovePoDate(ctx, 1, "", time.Time{}, 4)
	require.NoError(t, err)
	assert.Equal(t, now, *r.PoApprovedDate)
}

func TestPOService_ApproveNotifiesReviewers(t *testing.T) {
	r := approvedReport()
	r.Tag = []*entity.TagRef{{ID: 1, Department: "IT Ops"}, nil}
	f := newFixture(r)
	tm := f.seedTeam()
	ctx := context.Background()

	_, err := f.poSvc.AssignPoNo(ctx, 1, "PO-1", tm.purchasing.ID)
	require.NoError(t, err)
	_, err = f.poSvc.ApprovePoDate(ctx, 1, "", time.Time{}, tm.purchasing.ID)
	require.NoError(t, err)

	assert.NotContains(t, f.notifications.recipients(TitlePoCreated), tm.reviewer.ID)
	assert.Contains(t, f.notifications.recipients(TitlePoApproved), tm.reviewer.ID)
}
