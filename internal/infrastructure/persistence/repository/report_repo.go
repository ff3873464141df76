package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/zosarillana/prs-be/internal/application/port"
	"github.com/zosarillana/prs-be/internal/domain/access"
	"github.com/zosarillana/prs-be/internal/domain/entity"
	"github.com/zosarillana/prs-be/internal/infrastructure/persistence/sqlite"
)

const reportColumns = `
	pr.id, pr.series_no, pr.user_id, pr.pr_purpose, pr.department,
	pr.date_submitted, pr.date_needed,
	pr.quantity, pr.unit, pr.item_description, pr.tag, pr.item_status, pr.remarks,
	pr.pr_status, pr.po_no, pr.po_status, pr.po_created_date, pr.po_approved_date,
	pr.purchaser_id, pr.tr_user_id, pr.tr_signed_at, pr.hod_user_id, pr.hod_signed_at,
	pr.delivery_status, pr.created_at, pr.updated_at, COALESCE(u.name, '')`

const reportFrom = ` FROM purchase_reports pr LEFT JOIN users u ON u.id = pr.user_id`

// sortColumns whitelists the sortBy values accepted by List
var sortColumns = map[string]string{
	"id":               "pr.id",
	"series_no":        "pr.series_no",
	"pr_purpose":       "pr.pr_purpose",
	"department":       "pr.department",
	"date_submitted":   "pr.date_submitted",
	"date_needed":      "pr.date_needed",
	"pr_status":        "pr.pr_status",
	"po_no":            "pr.po_no",
	"po_status":        "pr.po_status",
	"po_created_date":  "pr.po_created_date",
	"po_approved_date": "pr.po_approved_date",
	"created_at":       "pr.created_at",
	"updated_at":       "pr.updated_at",
}

// ReportRepository implements port.ReportRepository
type ReportRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewReportRepository creates a new purchase report repository
func NewReportRepository(db *sql.DB, logger *zap.Logger) port.ReportRepository {
	return &ReportRepository{
		db:     db,
		logger: logger,
	}
}

// itemColumns holds the JSON encodings of the parallel item arrays
type itemColumns struct {
	quantity, unit, description, tag, tagSlugs, status, remarks string
}

func encodeItems(r *entity.PurchaseReport) (itemColumns, error) {
	var c itemColumns
	var err error
	if c.quantity, err = toJSON(r.Quantity); err != nil {
		return c, err
	}
	if c.unit, err = toJSON(r.Unit); err != nil {
		return c, err
	}
	if c.description, err = toJSON(r.ItemDescription); err != nil {
		return c, err
	}
	if c.tag, err = toJSON(r.Tag); err != nil {
		return c, err
	}
	if c.status, err = toJSON(r.ItemStatus); err != nil {
		return c, err
	}
	if c.remarks, err = toJSON(r.Remarks); err != nil {
		return c, err
	}

	c.tagSlugs, err = toJSON(departmentSlugsOf(r.TagDepartments()))
	return c, err
}

// Create inserts r and sets its ID. A taken series number yields port.ErrConflict.
func (r *ReportRepository) Create(ctx context.Context, pr *entity.PurchaseReport) error {
	items, err := encodeItems(pr)
	if err != nil {
		return fmt.Errorf("failed to encode items: %w", err)
	}

	now := time.Now().UTC()
	if pr.CreatedAt.IsZero() {
		pr.CreatedAt = now
	}
	if pr.UpdatedAt.IsZero() {
		pr.UpdatedAt = now
	}

	query := `
		INSERT INTO purchase_reports (
			series_no, user_id, pr_purpose, department, department_slug,
			date_submitted, date_needed,
			quantity, unit, item_description, tag, tag_department_slugs, item_status, remarks,
			pr_status, po_no, po_status, po_created_date, po_approved_date,
			purchaser_id, tr_user_id, tr_signed_at, hod_user_id, hod_signed_at,
			delivery_status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.Executor(ctx, r.db).ExecContext(ctx, query,
		pr.SeriesNo, pr.UserID, pr.PrPurpose, pr.Department, access.Slug(pr.Department),
		pr.DateSubmitted.UTC(), pr.DateNeeded.UTC(),
		items.quantity, items.unit, items.description, items.tag, items.tagSlugs, items.status, items.remarks,
		string(pr.PrStatus), nullString(pr.PoNo), nullIfEmpty(string(pr.PoStatus)),
		nullTime(pr.PoCreatedDate), nullTime(pr.PoApprovedDate),
		nullInt(pr.PurchaserID), nullInt(pr.TrUserID), nullTime(pr.TrSignedAt),
		nullInt(pr.HodUserID), nullTime(pr.HodSignedAt),
		nullIfEmpty(string(pr.DeliveryStatus)), pr.CreatedAt.UTC(), pr.UpdatedAt.UTC(),
	)
	if err != nil {
		if !isUniqueViolation(err) {
			r.logger.Error("Failed to create purchase report",
				zap.Int("series_no", pr.SeriesNo),
				zap.Error(err))
		}
		return wrapWriteErr("failed to create purchase report", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	pr.ID = id
	return nil
}

// GetByID retrieves a purchase report by ID
func (r *ReportRepository) GetByID(ctx context.Context, id int64) (*entity.PurchaseReport, error) {
	query := `SELECT` + reportColumns + reportFrom + ` WHERE pr.id = ?`

	pr, err := scanReport(sqlite.Executor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get purchase report", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get purchase report: %w", err)
	}
	return pr, nil
}

// Update persists every mutable column of pr. The series number is never rewritten.
func (r *ReportRepository) Update(ctx context.Context, pr *entity.PurchaseReport) error {
	items, err := encodeItems(pr)
	if err != nil {
		return fmt.Errorf("failed to encode items: %w", err)
	}
	if pr.UpdatedAt.IsZero() {
		pr.UpdatedAt = time.Now()
	}

	query := `
		UPDATE purchase_reports SET
			user_id = ?, pr_purpose = ?, department = ?, department_slug = ?,
			date_submitted = ?, date_needed = ?,
			quantity = ?, unit = ?, item_description = ?, tag = ?, tag_department_slugs = ?,
			item_status = ?, remarks = ?,
			pr_status = ?, po_no = ?, po_status = ?, po_created_date = ?, po_approved_date = ?,
			purchaser_id = ?, tr_user_id = ?, tr_signed_at = ?, hod_user_id = ?, hod_signed_at = ?,
			delivery_status = ?, updated_at = ?
		WHERE id = ?
	`

	_, err = sqlite.Executor(ctx, r.db).ExecContext(ctx, query,
		pr.UserID, pr.PrPurpose, pr.Department, access.Slug(pr.Department),
		pr.DateSubmitted.UTC(), pr.DateNeeded.UTC(),
		items.quantity, items.unit, items.description, items.tag, items.tagSlugs,
		items.status, items.remarks,
		string(pr.PrStatus), nullString(pr.PoNo), nullIfEmpty(string(pr.PoStatus)),
		nullTime(pr.PoCreatedDate), nullTime(pr.PoApprovedDate),
		nullInt(pr.PurchaserID), nullInt(pr.TrUserID), nullTime(pr.TrSignedAt),
		nullInt(pr.HodUserID), nullTime(pr.HodSignedAt),
		nullIfEmpty(string(pr.DeliveryStatus)), pr.UpdatedAt.UTC(),
		pr.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update purchase report", zap.Int64("id", pr.ID), zap.Error(err))
		return wrapWriteErr("failed to update purchase report", err)
	}
	return nil
}

// Delete removes a purchase report; progress rows and notifications cascade
func (r *ReportRepository) Delete(ctx context.Context, id int64) error {
	_, err := sqlite.Executor(ctx, r.db).ExecContext(ctx, `DELETE FROM purchase_reports WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete purchase report", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete purchase report: %w", err)
	}
	return nil
}

// SeriesNumbers returns every allocated series number
func (r *ReportRepository) SeriesNumbers(ctx context.Context) ([]int, error) {
	rows, err := sqlite.Executor(ctx, r.db).QueryContext(ctx, `SELECT series_no FROM purchase_reports`)
	if err != nil {
		return nil, fmt.Errorf("failed to query series numbers: %w", err)
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to scan series number: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// List returns one page of reports inside scope matching filter, and the total match count
func (r *ReportRepository) List(ctx context.Context, scope access.Scope, viewer *entity.User, filter entity.ReportFilter) ([]*entity.PurchaseReport, int, error) {
	cond := buildReportConditions(scope, viewer, filter)
	exec := sqlite.Executor(ctx, r.db)

	var total int
	countQuery := `SELECT COUNT(*)` + reportFrom + cond.where()
	if err := exec.QueryRowContext(ctx, countQuery, cond.args...).Scan(&total); err != nil {
		r.logger.Error("Failed to count purchase reports", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to count purchase reports: %w", err)
	}

	size := filter.PageSize
	if size <= 0 {
		size = 10
	}
	page := filter.PageNumber
	if page < 1 {
		page = 1
	}

	query := `SELECT` + reportColumns + reportFrom + cond.where() + orderBy(filter) + ` LIMIT ? OFFSET ?`
	args := append(append([]interface{}{}, cond.args...), size, (page-1)*size)

	items, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListAll is List without paging
func (r *ReportRepository) ListAll(ctx context.Context, scope access.Scope, viewer *entity.User, filter entity.ReportFilter) ([]*entity.PurchaseReport, error) {
	cond := buildReportConditions(scope, viewer, filter)
	query := `SELECT` + reportColumns + reportFrom + cond.where() + orderBy(filter)
	return r.query(ctx, query, cond.args...)
}

// Summary computes the dashboard counters over the reports inside scope
func (r *ReportRepository) Summary(ctx context.Context, scope access.Scope, viewer *entity.User) (*entity.SummaryCounts, error) {
	var cond conditions
	if clause, args := scopeClause(scope); clause != "" {
		cond.add(clause, args...)
	}

	var viewerID int64
	var slugs []string
	if viewer != nil {
		viewerID = viewer.ID
		slugs = viewerSlugs(viewer)
	}
	deptExpr := "0"
	var deptArgs []interface{}
	if len(slugs) > 0 {
		deptExpr = "pr.department_slug IN (" + placeholders(len(slugs)) + ")"
		deptArgs = stringArgs(slugs)
	}

	query := `
		SELECT
			COALESCE(SUM(CASE WHEN pr.pr_status = 'on_hold' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN pr.pr_status = 'for_approval' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN pr.pr_status = 'on_hold_tr' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN pr.pr_status = 'closed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN pr.pr_status = 'rejected' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN pr.pr_status = 'returned' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN pr.po_status = 'for_approval' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN pr.po_status = 'approved' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN pr.hod_user_id IS NOT NULL THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN pr.tr_user_id IS NOT NULL THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN pr.user_id = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN ` + deptExpr + ` THEN 1 ELSE 0 END), 0),
			COUNT(*)
		FROM purchase_reports pr` + cond.where()

	args := append([]interface{}{viewerID}, deptArgs...)
	args = append(args, cond.args...)

	var c entity.SummaryCounts
	err := sqlite.Executor(ctx, r.db).QueryRowContext(ctx, query, args...).Scan(
		&c.OnHold, &c.ForApproval, &c.OnHoldTR, &c.ClosedPR, &c.Rejected, &c.Returned,
		&c.ForCEOApproval, &c.ApprovedPO, &c.CompletedHODReview, &c.CompletedTRReview,
		&c.OwnCreated, &c.DepartmentTotal, &c.TotalPRs,
	)
	if err != nil {
		r.logger.Error("Failed to compute summary counts", zap.Error(err))
		return nil, fmt.Errorf("failed to compute summary counts: %w", err)
	}
	return &c, nil
}

func (r *ReportRepository) query(ctx context.Context, query string, args ...interface{}) ([]*entity.PurchaseReport, error) {
	rows, err := sqlite.Executor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list purchase reports", zap.Error(err))
		return nil, fmt.Errorf("failed to list purchase reports: %w", err)
	}
	defer rows.Close()

	out := make([]*entity.PurchaseReport, 0)
	for rows.Next() {
		pr, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purchase report: %w", err)
		}
		out = append(out, pr)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReport(row rowScanner) (*entity.PurchaseReport, error) {
	var (
		pr                                                     entity.PurchaseReport
		quantity, unit, description, tag, itemStatus, remarks string
		prStatus                                               string
		poNo, poStatus, deliveryStatus                         sql.NullString
		poCreated, poApproved, trSigned, hodSigned             sql.NullTime
		purchaser, trUser, hodUser                             sql.NullInt64
	)

	err := row.Scan(
		&pr.ID, &pr.SeriesNo, &pr.UserID, &pr.PrPurpose, &pr.Department,
		&pr.DateSubmitted, &pr.DateNeeded,
		&quantity, &unit, &description, &tag, &itemStatus, &remarks,
		&prStatus, &poNo, &poStatus, &poCreated, &poApproved,
		&purchaser, &trUser, &trSigned, &hodUser, &hodSigned,
		&deliveryStatus, &pr.CreatedAt, &pr.UpdatedAt, &pr.CreatorName,
	)
	if err != nil {
		return nil, err
	}

	for _, f := range []struct {
		raw string
		dst interface{}
	}{
		{quantity, &pr.Quantity},
		{unit, &pr.Unit},
		{description, &pr.ItemDescription},
		{tag, &pr.Tag},
		{itemStatus, &pr.ItemStatus},
		{remarks, &pr.Remarks},
	} {
		if err := fromJSON(f.raw, f.dst); err != nil {
			return nil, fmt.Errorf("decode item column of report %d: %w", pr.ID, err)
		}
	}

	pr.PrStatus = entity.ReportStatus(prStatus)
	pr.PoNo = stringPtr(poNo)
	pr.PoStatus = entity.POStatus(poStatus.String)
	pr.DeliveryStatus = entity.DeliveryStatus(deliveryStatus.String)
	pr.PoCreatedDate = timePtr(poCreated)
	pr.PoApprovedDate = timePtr(poApproved)
	pr.TrSignedAt = timePtr(trSigned)
	pr.HodSignedAt = timePtr(hodSigned)
	pr.PurchaserID = intPtr(purchaser)
	pr.TrUserID = intPtr(trUser)
	pr.HodUserID = intPtr(hodUser)
	return &pr, nil
}

// scopeClause translates an access.Scope into SQL. It returns "" for an
// unrestricted scope and a false clause for an empty one.
func scopeClause(scope access.Scope) (string, []interface{}) {
	if scope.Unrestricted {
		return "", nil
	}

	var parts []string
	var args []interface{}
	if len(scope.DepartmentSlugs) > 0 {
		parts = append(parts, "pr.department_slug IN ("+placeholders(len(scope.DepartmentSlugs))+")")
		args = append(args, stringArgs(scope.DepartmentSlugs)...)
	}
	if len(scope.TagDepartmentSlugs) > 0 {
		parts = append(parts, "((pr.pr_status = ? OR pr.tr_user_id IS NOT NULL) AND EXISTS ("+
			"SELECT 1 FROM json_each(pr.tag_department_slugs) t WHERE t.value IN ("+
			placeholders(len(scope.TagDepartmentSlugs))+")))")
		args = append(args, string(entity.ReportOnHoldTR))
		args = append(args, stringArgs(scope.TagDepartmentSlugs)...)
	}

	if len(parts) == 0 {
		return "1 = 0", nil
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}

func buildReportConditions(scope access.Scope, viewer *entity.User, f entity.ReportFilter) conditions {
	var c conditions
	if clause, args := scopeClause(scope); clause != "" {
		c.add(clause, args...)
	}

	if term := strings.TrimSpace(f.SearchTerm); term != "" {
		p := likePattern(term)
		c.add(`(pr.pr_purpose LIKE ? ESCAPE '\' OR pr.department LIKE ? ESCAPE '\'`+
			` OR IFNULL(pr.po_no, '') LIKE ? ESCAPE '\' OR CAST(pr.series_no AS TEXT) LIKE ? ESCAPE '\'`+
			` OR pr.item_description LIKE ? ESCAPE '\' OR IFNULL(u.name, '') LIKE ? ESCAPE '\'`+
			` OR IFNULL(u.email, '') LIKE ? ESCAPE '\')`,
			p, p, p, p, p, p, p)
	}

	if len(f.StatusTerm) > 0 {
		values := make([]string, len(f.StatusTerm))
		for i, s := range f.StatusTerm {
			values[i] = strings.ToLower(strings.TrimSpace(string(s)))
		}
		c.add("LOWER(IFNULL(pr.po_status, '')) IN ("+placeholders(len(values))+")", stringArgs(values)...)
	}
	if len(f.PrStatusTerm) > 0 {
		values := make([]string, len(f.PrStatusTerm))
		for i, s := range f.PrStatusTerm {
			values[i] = strings.ToLower(strings.TrimSpace(string(s)))
		}
		c.add("pr.pr_status IN ("+placeholders(len(values))+")", stringArgs(values)...)
	}

	addDateRange(&c, "pr.created_at", f.FromDate, f.ToDate)
	addDateRange(&c, "pr.date_submitted", f.SubmittedFrom, f.SubmittedTo)
	addDateRange(&c, "pr.date_needed", f.NeededFrom, f.NeededTo)

	if f.OwnDepartment {
		slugs := viewerSlugs(viewer)
		if len(slugs) == 0 {
			c.add("1 = 0")
		} else {
			c.add("pr.department_slug IN ("+placeholders(len(slugs))+")", stringArgs(slugs)...)
		}
	}
	if f.CompletedTR {
		c.add("pr.tr_user_id IS NOT NULL")
	}
	return c
}

func addDateRange(c *conditions, column string, from, to *time.Time) {
	if from != nil {
		c.add("date("+column+") >= ?", from.Format(dateLayout))
	}
	if to != nil {
		c.add("date("+column+") <= ?", to.Format(dateLayout))
	}
}

func orderBy(f entity.ReportFilter) string {
	col, ok := sortColumns[strings.ToLower(f.SortBy)]
	if !ok {
		col = "pr.id"
	}
	dir := "ASC"
	if strings.EqualFold(f.SortOrder, "desc") {
		dir = "DESC"
	}
	if col == "pr.id" {
		return " ORDER BY pr.id " + dir
	}
	return " ORDER BY " + col + " " + dir + ", pr.id " + dir
}

func viewerSlugs(u *entity.User) []string {
	if u == nil {
		return nil
	}
	return departmentSlugsOf(u.Departments.Slice())
}

var _ port.ReportRepository = (*ReportRepository)(nil)
