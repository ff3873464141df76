package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zosarillana/prs-be/internal/application/port"
	"github.com/zosarillana/prs-be/internal/domain/access"
	"github.com/zosarillana/prs-be/internal/domain/entity"
	"github.com/zosarillana/prs-be/internal/domain/status"
	"github.com/zosarillana/prs-be/internal/infrastructure/persistence/sqlite"
)

func int64Ptr(v int64) *int64 { return &v }

func ids(reports []*entity.PurchaseReport) []int64 {
	out := make([]int64, 0, len(reports))
	for _, r := range reports {
		out = append(out, r.ID)
	}
	return out
}

func TestReportRepository_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	users := NewUserRepository(db, zap.NewNop())
	repo := NewReportRepository(db, zap.NewNop())

	creator := &entity.User{Name: "Ana Cruz", Email: "ana@example.com", Roles: entity.Roles(entity.RoleUser)}
	require.NoError(t, users.Create(ctx, creator))

	r := newReport(12000, "Engineering Dept", entity.ReportOnHold)
	r.UserID = creator.ID
	r.ItemDescription = []string{"printer paper", "stapler"}
	r.Quantity = []decimal.Decimal{decimal.RequireFromString("2.5"), decimal.NewFromInt(1)}
	r.Unit = []string{"box", "pc"}
	r.Tag = []*entity.TagRef{{ID: 3, Description: "Hardware", Department: "IT"}, nil}
	r.ItemStatus = []entity.ItemStatus{entity.ItemPendingTR, entity.ItemApproved}
	r.Remarks = []string{"", "ok"}
	mustCreateReport(t, repo, r)
	require.NotZero(t, r.ID)

	got, err := repo.GetByID(ctx, r.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, 12000, got.SeriesNo)
	assert.Equal(t, "Ana Cruz", got.CreatorName)
	assert.Equal(t, []string{"printer paper", "stapler"}, got.ItemDescription)
	assert.True(t, got.Quantity[0].Equal(decimal.RequireFromString("2.5")))
	assert.Equal(t, r.Tag, got.Tag)
	assert.Equal(t, r.ItemStatus, got.ItemStatus)
	assert.Equal(t, entity.ReportOnHold, got.PrStatus)
	assert.Equal(t, entity.POStatusNone, got.PoStatus)
	assert.Nil(t, got.PoNo)
	assert.Nil(t, got.TrUserID)
	assert.True(t, got.DateSubmitted.Equal(r.DateSubmitted))

	missing, err := repo.GetByID(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestReportRepository_DuplicateSeriesIsConflict(t *testing.T) {
	db := newTestDB(t)
	repo := NewReportRepository(db, zap.NewNop())

	mustCreateReport(t, repo, newReport(12000, "IT", entity.ReportOnHold))

	err := repo.Create(context.Background(), newReport(12000, "IT", entity.ReportOnHold))
	require.Error(t, err)
	assert.True(t, errors.Is(err, port.ErrConflict))
}

func TestReportRepository_UpdateAndDelete(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewReportRepository(db, zap.NewNop())
	progress := NewProgressRepository(db, zap.NewNop())

	r := mustCreateReport(t, repo, newReport(12000, "IT", entity.ReportForApproval))

	po := "PO-2024-001"
	now := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	r.PoNo = &po
	r.PoStatus = entity.POStatusForApproval
	r.PoCreatedDate = &now
	r.PurchaserID = int64Ptr(7)
	r.SeriesNo = 99999
	require.NoError(t, repo.Update(ctx, r))

	got, err := repo.GetByID(ctx, r.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PoNo)
	assert.Equal(t, po, *got.PoNo)
	assert.Equal(t, entity.POStatusForApproval, got.PoStatus)
	assert.Equal(t, int64(7), *got.PurchaserID)
	assert.True(t, got.PoCreatedDate.Equal(now))
	assert.Equal(t, 12000, got.SeriesNo, "series number is never rewritten")

	got.PoNo = nil
	got.PoStatus = entity.POStatusNone
	got.PoCreatedDate = nil
	require.NoError(t, repo.Update(ctx, got))

	cleared, err := repo.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Nil(t, cleared.PoNo)
	assert.Equal(t, entity.POStatusNone, cleared.PoStatus)
	assert.Nil(t, cleared.PoCreatedDate)

	require.NoError(t, progress.Create(ctx, &entity.Progress{ReportID: r.ID, Title: "Canvass", StartDate: now, CreatedBy: 1}))
	require.NoError(t, repo.Delete(ctx, r.ID))

	gone, err := repo.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	left, err := progress.ListByReport(ctx, r.ID)
	require.NoError(t, err)
	assert.Empty(t, left, "progress rows cascade with the report")
}

func TestReportRepository_SeriesNumbers(t *testing.T) {
	db := newTestDB(t)
	repo := NewReportRepository(db, zap.NewNop())

	for _, n := range []int{12002, 12000, 12005} {
		mustCreateReport(t, repo, newReport(n, "IT", entity.ReportOnHold))
	}

	got, err := repo.SeriesNumbers(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{12000, 12002, 12005}, got)
	assert.Equal(t, 12001, status.NextSeriesNo(got))
}

func TestReportRepository_ConcurrentCreateAllocatesUniqueSeries(t *testing.T) {
	db := newTestDB(t)
	repo := NewReportRepository(db, zap.NewNop())
	tx := sqlite.NewDB(db, zap.NewNop())

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var err error
			for attempt := 0; attempt < 3; attempt++ {
				err = tx.WithTransaction(context.Background(), func(ctx context.Context) error {
					used, err := repo.SeriesNumbers(ctx)
					if err != nil {
						return err
					}
					return repo.Create(ctx, newReport(status.NextSeriesNo(used), "IT", entity.ReportOnHold))
				})
				if !errors.Is(err, port.ErrConflict) {
					break
				}
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	got, err := repo.SeriesNumbers(context.Background())
	require.NoError(t, err)
	sort.Ints(got)

	want := make([]int, workers)
	for i := range want {
		want[i] = entity.SeriesBase + i
	}
	assert.Equal(t, want, got)
}

func TestReportRepository_ScopeAgreesWithVisible(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewReportRepository(db, zap.NewNop())

	itTag := &entity.TagRef{ID: 1, Description: "Hardware", Department: "IT"}
	finTag := &entity.TagRef{ID: 2, Description: "Ledger", Department: "Finance"}

	seed := []struct {
		dept   string
		status entity.ReportStatus
		tag    *entity.TagRef
		tr     *int64
	}{
		{"Engineering Dept", entity.ReportOnHold, itTag, nil},
		{"Finance", entity.ReportOnHoldTR, itTag, nil},
		{"Finance", entity.ReportForApproval, itTag, int64Ptr(5)},
		{"HR", entity.ReportOnHold, nil, nil},
		{"Ops", entity.ReportOnHold, finTag, nil},
		{"Engineering_Dept", entity.ReportRejected, finTag, nil},
	}

	var all []*entity.PurchaseReport
	for i, s := range seed {
		r := newReport(entity.SeriesBase+i, s.dept, s.status)
		r.Tag = []*entity.TagRef{s.tag}
		r.TrUserID = s.tr
		all = append(all, mustCreateReport(t, repo, r))
	}

	viewers := map[string]*entity.User{
		"admin":          {ID: 1, Roles: entity.Roles(entity.RoleAdmin)},
		"purchasing":     {ID: 2, Roles: entity.Roles(entity.RolePurchasing)},
		"hod spaced":     {ID: 3, Roles: entity.Roles(entity.RoleHOD), Departments: entity.NewDepartmentSet("Engineering Dept")},
		"user slugged":   {ID: 4, Roles: entity.Roles(entity.RoleUser), Departments: entity.NewDepartmentSet("Engineering_Dept")},
		"reviewer IT":    {ID: 5, Roles: entity.Roles(entity.RoleTechnicalReviewer), Departments: entity.NewDepartmentSet("IT")},
		"reviewer+user":  {ID: 6, Roles: entity.Roles(entity.RoleTechnicalReviewer, entity.RoleUser), Departments: entity.NewDepartmentSet("Finance", "IT")},
		"no departments": {ID: 7, Roles: entity.Roles(entity.RoleUser)},
		"no roles":       {ID: 8, Departments: entity.NewDepartmentSet("HR")},
	}

	for name, viewer := range viewers {
		t.Run(name, func(t *testing.T) {
			var want []int64
			for _, r := range all {
				if access.Visible(viewer, r) {
					want = append(want, r.ID)
				}
			}

			got, err := repo.ListAll(ctx, access.ScopeFor(viewer), viewer, entity.ReportFilter{})
			require.NoError(t, err)
			assert.ElementsMatch(t, want, ids(got))

			page, total, err := repo.List(ctx, access.ScopeFor(viewer), viewer, entity.ReportFilter{PageNumber: 1, PageSize: 100})
			require.NoError(t, err)
			assert.Equal(t, len(want), total)
			assert.ElementsMatch(t, want, ids(page))
		})
	}
}

func TestReportRepository_ListFilters(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewReportRepository(db, zap.NewNop())
	all := access.Scope{Unrestricted: true}

	day := func(d int) time.Time { return time.Date(2024, 5, d, 10, 0, 0, 0, time.UTC) }

	specs := []struct {
		purpose  string
		dept     string
		pr       entity.ReportStatus
		po       entity.POStatus
		created  time.Time
		trSigned bool
	}{
		{"50% discount chairs", "IT", entity.ReportForApproval, entity.POStatusForApproval, day(1), true},
		{"500 discount desks", "IT", entity.ReportClosed, entity.POStatusApproved, day(3), false},
		{"under_score cables", "Finance", entity.ReportOnHold, entity.POStatusNone, day(5), false},
		{"toner", "Finance", entity.ReportRejected, entity.POStatusCancelled, day(7), true},
	}
	for i, s := range specs {
		r := newReport(entity.SeriesBase+i, s.dept, s.pr)
		r.PrPurpose = s.purpose
		r.PoStatus = s.po
		r.CreatedAt = s.created
		if s.trSigned {
			r.TrUserID = int64Ptr(9)
		}
		mustCreateReport(t, repo, r)
	}

	from, to := day(2), day(5)
	viewer := &entity.User{ID: 1, Roles: entity.Roles(entity.RoleAdmin), Departments: entity.NewDepartmentSet("Finance")}

	tests := []struct {
		name   string
		filter entity.ReportFilter
		want   []string
	}{
		{"percent is literal", entity.ReportFilter{SearchTerm: "50%"}, []string{"50% discount chairs"}},
		{"underscore is literal", entity.ReportFilter{SearchTerm: "r_s"}, []string{"under_score cables"}},
		{"search matches series", entity.ReportFilter{SearchTerm: "12003"}, []string{"toner"}},
		{"po status case-insensitive", entity.ReportFilter{StatusTerm: []entity.POStatus{"FOR_APPROVAL", "approved"}}, []string{"50% discount chairs", "500 discount desks"}},
		{"pr status", entity.ReportFilter{PrStatusTerm: []entity.ReportStatus{entity.ReportRejected}}, []string{"toner"}},
		{"created range inclusive", entity.ReportFilter{FromDate: &from, ToDate: &to}, []string{"500 discount desks", "under_score cables"}},
		{"own department", entity.ReportFilter{OwnDepartment: true}, []string{"under_score cables", "toner"}},
		{"completed technical review", entity.ReportFilter{CompletedTR: true}, []string{"50% discount chairs", "toner"}},
		{"sort by purpose desc", entity.ReportFilter{SortBy: "pr_purpose", SortOrder: "desc"}, []string{"under_score cables", "toner", "500 discount desks", "50% discount chairs"}},
		{"unknown sort falls back to id", entity.ReportFilter{SortBy: "drop table"}, []string{"50% discount chairs", "500 discount desks", "under_score cables", "toner"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.ListAll(ctx, all, viewer, tt.filter)
			require.NoError(t, err)

			purposes := make([]string, 0, len(got))
			for _, r := range got {
				purposes = append(purposes, r.PrPurpose)
			}
			assert.Equal(t, tt.want, purposes)
		})
	}
}

func TestReportRepository_SearchByCreator(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	users := NewUserRepository(db, zap.NewNop())
	repo := NewReportRepository(db, zap.NewNop())
	all := access.Scope{Unrestricted: true}
	viewer := &entity.User{ID: 1, Roles: entity.Roles(entity.RoleAdmin)}

	other := &entity.User{Name: "Ben Reyes", Email: "ben.reyes@example.com", Roles: entity.Roles(entity.RoleUser)}
	require.NoError(t, users.Create(ctx, other))
	ana := &entity.User{Name: "Ana Cruz", Email: "ana.cruz@example.com", Roles: entity.Roles(entity.RoleUser)}
	require.NoError(t, users.Create(ctx, ana))

	mine := newReport(entity.SeriesBase, "IT", entity.ReportOnHold)
	mine.UserID = ana.ID
	mustCreateReport(t, repo, mine)
	theirs := newReport(entity.SeriesBase+1, "IT", entity.ReportOnHold)
	theirs.UserID = other.ID
	mustCreateReport(t, repo, theirs)

	for _, term := range []string{"Ana Cruz", "ana.cruz@example.com", "ANA.CRUZ"} {
		got, total, err := repo.List(ctx, all, viewer, entity.ReportFilter{SearchTerm: term, PageNumber: 1, PageSize: 10})
		require.NoError(t, err, term)
		assert.Equal(t, 1, total, term)
		require.Len(t, got, 1, term)
		assert.Equal(t, mine.ID, got[0].ID, term)
	}
}

func TestReportRepository_ListPaging(t *testing.T) {
	db := newTestDB(t)
	repo := NewReportRepository(db, zap.NewNop())

	for i := 0; i < 5; i++ {
		r := newReport(entity.SeriesBase+i, "IT", entity.ReportOnHold)
		r.PrPurpose = fmt.Sprintf("purpose %d", i)
		mustCreateReport(t, repo, r)
	}

	page, total, err := repo.List(context.Background(), access.Scope{Unrestricted: true}, nil,
		entity.ReportFilter{SortBy: "series_no", SortOrder: "desc", PageNumber: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, entity.SeriesBase+2, page[0].SeriesNo)
	assert.Equal(t, entity.SeriesBase+1, page[1].SeriesNo)
}

func TestReportRepository_Summary(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewReportRepository(db, zap.NewNop())

	const viewerID = 99
	rows := []struct {
		dept     string
		pr       entity.ReportStatus
		po       entity.POStatus
		owner    int64
		hod, tr  bool
	}{
		{"Engineering", entity.ReportOnHold, entity.POStatusNone, viewerID, false, false},
		{"Engineering", entity.ReportForApproval, entity.POStatusForApproval, 1, true, false},
		{"Finance", entity.ReportClosed, entity.POStatusApproved, 1, true, true},
		{"Finance", entity.ReportRejected, entity.POStatusNone, 1, false, false},
		{"HR", entity.ReportOnHoldTR, entity.POStatusNone, 1, false, false},
		{"HR", entity.ReportReturned, entity.POStatusNone, 1, false, false},
	}
	for i, s := range rows {
		r := newReport(entity.SeriesBase+i, s.dept, s.pr)
		r.PoStatus = s.po
		r.UserID = s.owner
		if s.hod {
			r.HodUserID = int64Ptr(3)
		}
		if s.tr {
			r.TrUserID = int64Ptr(4)
		}
		mustCreateReport(t, repo, r)
	}

	admin := &entity.User{ID: viewerID, Roles: entity.Roles(entity.RoleAdmin), Departments: entity.NewDepartmentSet("Finance")}
	got, err := repo.Summary(ctx, access.ScopeFor(admin), admin)
	require.NoError(t, err)
	assert.Equal(t, &entity.SummaryCounts{
		OnHold: 1, ForApproval: 1, OnHoldTR: 1, ClosedPR: 1, Rejected: 1, Returned: 1,
		ForCEOApproval: 1, ApprovedPO: 1, CompletedHODReview: 2, CompletedTRReview: 1,
		OwnCreated: 1, DepartmentTotal: 2, TotalPRs: 6,
	}, got)

	hod := &entity.User{ID: 50, Roles: entity.Roles(entity.RoleHOD), Departments: entity.NewDepartmentSet("Engineering")}
	got, err = repo.Summary(ctx, access.ScopeFor(hod), hod)
	require.NoError(t, err)
	assert.Equal(t, 2, got.TotalPRs)
	assert.Equal(t, 2, got.DepartmentTotal)
	assert.Equal(t, 1, got.ForCEOApproval)
	assert.Equal(t, 0, got.OwnCreated)

	nobody := &entity.User{ID: 51, Roles: entity.Roles(entity.RoleUser)}
	got, err = repo.Summary(ctx, access.ScopeFor(nobody), nobody)
	require.NoError(t, err)
	assert.Equal(t, &entity.SummaryCounts{}, got)
}
