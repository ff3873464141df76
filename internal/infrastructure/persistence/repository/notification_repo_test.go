package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zosarillana/prs-be/internal/domain/entity"
)

func TestNotificationRepository_CreateIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	reports := NewReportRepository(db, zap.NewNop())
	repo := NewNotificationRepository(db, zap.NewNop())

	r := mustCreateReport(t, reports, newReport(12000, "IT", entity.ReportOnHold))

	n := &entity.Notification{
		UserID: 1, ReportID: r.ID, Title: "New purchase report", SeriesNo: r.SeriesNo,
		CreatedBy: "Ana", PrStatus: entity.ReportOnHold,
		Department: []string{"Engineering Dept"}, Role: []string{"hod"},
	}
	inserted, err := repo.Create(ctx, n)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.NotZero(t, n.ID)

	exists, err := repo.Exists(ctx, 1, r.ID, "New purchase report")
	require.NoError(t, err)
	assert.True(t, exists)

	dup := *n
	dup.ID = 0
	inserted, err = repo.Create(ctx, &dup)
	require.NoError(t, err)
	assert.False(t, inserted)

	list, err := repo.ListForUser(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, []string{"Engineering Dept"}, list[0].Department)
	assert.Equal(t, []string{"hod"}, list[0].Role)
	assert.Nil(t, list[0].ReadAt)
}

func TestNotificationRepository_ReadState(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	reports := NewReportRepository(db, zap.NewNop())
	repo := NewNotificationRepository(db, zap.NewNop())

	r := mustCreateReport(t, reports, newReport(12000, "IT", entity.ReportOnHold))
	base := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	seed := []struct {
		user  int64
		title string
		dept  string
		role  string
		pr    entity.ReportStatus
	}{
		{1, "first", "Engineering Dept", "hod", entity.ReportOnHold},
		{1, "second", "Engineering_Dept", "hod", entity.ReportForApproval},
		{1, "third", "Finance", "admin", entity.ReportForApproval},
		{2, "first", "Finance", "purchasing", entity.ReportClosed},
	}
	var created []*entity.Notification
	for i, s := range seed {
		n := &entity.Notification{
			UserID: s.user, ReportID: r.ID, Title: s.title, SeriesNo: r.SeriesNo,
			PrStatus: s.pr, Department: []string{s.dept}, Role: []string{s.role},
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		_, err := repo.Create(ctx, n)
		require.NoError(t, err)
		created = append(created, n)
	}

	list, err := repo.ListForUser(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "third", list[0].Title, "newest first")

	ok, err := repo.MarkAsRead(ctx, created[0].ID, 2)
	require.NoError(t, err)
	assert.False(t, ok, "other users cannot mark it")

	ok, err = repo.MarkAsRead(ctx, created[0].ID, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	counts, err := repo.CountsForUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, &entity.NotificationCounts{Total: 3, Unread: 2, Read: 1}, counts)

	dept, err := repo.ListForDepartment(ctx, "Engineering Dept", 10)
	require.NoError(t, err)
	assert.Len(t, dept, 2, "spaced and underscored names are the same department")

	deptCounts, err := repo.CountsForDepartment(ctx, "Engineering_Dept")
	require.NoError(t, err)
	assert.Equal(t, &entity.NotificationCounts{Total: 2, Unread: 1, Read: 1}, deptCounts)

	summary, sc, err := repo.Summary(ctx, entity.NotificationFilter{PrStatus: string(entity.ReportForApproval), Limit: 1})
	require.NoError(t, err)
	assert.Len(t, summary, 1)
	assert.Equal(t, 2, sc.Total)

	_, sc, err = repo.Summary(ctx, entity.NotificationFilter{Role: "purchasing", Department: "Finance", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, sc.Total)

	changed, err := repo.MarkAllAsRead(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), changed)

	changed, err = repo.MarkAllAsRead(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, changed)

	counts, err = repo.CountsForUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, counts.Unread)
}
