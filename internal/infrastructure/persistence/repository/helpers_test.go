package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zosarillana/prs-be/internal/application/port"
	"github.com/zosarillana/prs-be/internal/domain/entity"
	"github.com/zosarillana/prs-be/migrations"
	"github.com/zosarillana/prs-be/pkg/database"
)

// newTestDB opens a migrated SQLite database under t.TempDir()
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:         filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns: 4,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = database.NewMigrator(db, migrations.FS, zap.NewNop()).Run()
	require.NoError(t, err)
	return db
}

func newReport(seriesNo int, department string, status entity.ReportStatus) *entity.PurchaseReport {
	submitted := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return &entity.PurchaseReport{
		SeriesNo:        seriesNo,
		UserID:          1,
		PrPurpose:       "office supplies",
		Department:      department,
		DateSubmitted:   submitted,
		DateNeeded:      submitted.AddDate(0, 0, 14),
		Quantity:        []decimal.Decimal{decimal.RequireFromString("2.5")},
		Unit:            []string{"box"},
		ItemDescription: []string{"printer paper"},
		Tag:             []*entity.TagRef{nil},
		ItemStatus:      []entity.ItemStatus{entity.ItemPending},
		Remarks:         []string{""},
		PrStatus:        status,
	}
}

func mustCreateReport(t *testing.T, repo port.ReportRepository, r *entity.PurchaseReport) *entity.PurchaseReport {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), r))
	return r
}
