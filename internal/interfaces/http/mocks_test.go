package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/zosarillana/prs-be/internal/application/service"
	"github.com/zosarillana/prs-be/internal/domain/entity"
)

var errUnexpected = errors.New("unexpected call")

type mockReports struct {
	listFunc     func(ctx context.Context, user *entity.User, filter entity.ReportFilter) (*entity.Page, error)
	getFunc      func(ctx context.Context, user *entity.User, id int64) (*entity.PurchaseReport, error)
	createFunc   func(ctx context.Context, user *entity.User, in entity.ReportInput, isDraft bool) (*entity.PurchaseReport, error)
	updateFunc   func(ctx context.Context, user *entity.User, id int64, in entity.ReportInput, isDraft bool) (*entity.PurchaseReport, error)
	deleteFunc   func(ctx context.Context, user *entity.User, id int64) error
	deliveryFunc func(ctx context.Context, user *entity.User, id int64, s entity.DeliveryStatus) (*entity.PurchaseReport, error)
	summaryFunc  func(ctx context.Context, user *entity.User) (*entity.SummaryCounts, error)
}

func (m *mockReports) ListVisible(ctx context.Context, user *entity.User, filter entity.ReportFilter) (*entity.Page, error) {
	if m.listFunc == nil {
		return nil, errUnexpected
	}
	return m.listFunc(ctx, user, filter)
}

func (m *mockReports) Get(ctx context.Context, user *entity.User, id int64) (*entity.PurchaseReport, error) {
	if m.getFunc == nil {
		return nil, errUnexpected
	}
	return m.getFunc(ctx, user, id)
}

func (m *mockReports) CreateReport(ctx context.Context, user *entity.User, in entity.ReportInput, isDraft bool) (*entity.PurchaseReport, error) {
	if m.createFunc == nil {
		return nil, errUnexpected
	}
	return m.createFunc(ctx, user, in, isDraft)
}

func (m *mockReports) UpdateReport(ctx context.Context, user *entity.User, id int64, in entity.ReportInput, isDraft bool) (*entity.PurchaseReport, error) {
	if m.updateFunc == nil {
		return nil, errUnexpected
	}
	return m.updateFunc(ctx, user, id, in, isDraft)
}

func (m *mockReports) DeleteReport(ctx context.Context, user *entity.User, id int64) error {
	if m.deleteFunc == nil {
		return errUnexpected
	}
	return m.deleteFunc(ctx, user, id)
}

func (m *mockReports) UpdateDeliveryStatus(ctx context.Context, user *entity.User, id int64, s entity.DeliveryStatus) (*entity.PurchaseReport, error) {
	if m.deliveryFunc == nil {
		return nil, errUnexpected
	}
	return m.deliveryFunc(ctx, user, id, s)
}

func (m *mockReports) SummaryCounts(ctx context.Context, user *entity.User) (*entity.SummaryCounts, error) {
	if m.summaryFunc == nil {
		return nil, errUnexpected
	}
	return m.summaryFunc(ctx, user)
}

type mockApproval struct {
	approveFunc func(ctx context.Context, reportID int64, index int, s entity.ItemStatus, remark, asRole string, userID int64) (*entity.PurchaseReport, error)
}

func (m *mockApproval) ApproveItem(ctx context.Context, reportID int64, index int, s entity.ItemStatus, remark, asRole string, userID int64) (*entity.PurchaseReport, error) {
	if m.approveFunc == nil {
		return nil, errUnexpected
	}
	return m.approveFunc(ctx, reportID, index, s, remark, asRole, userID)
}

type mockPO struct {
	assignFunc  func(ctx context.Context, reportID int64, poNo string, purchaserID int64) (*entity.PurchaseReport, error)
	cancelFunc  func(ctx context.Context, reportID, actorID int64) (*entity.PurchaseReport, error)
	returnFunc  func(ctx context.Context, reportID, actorID int64) (*entity.PurchaseReport, error)
	approveFunc func(ctx context.Context, reportID int64, s entity.POStatus, date time.Time, purchaserID int64) (*entity.PurchaseReport, error)
}

func (m *mockPO) AssignPoNo(ctx context.Context, reportID int64, poNo string, purchaserID int64) (*entity.PurchaseReport, error) {
	if m.assignFunc == nil {
		return nil, errUnexpected
	}
	return m.assignFunc(ctx, reportID, poNo, purchaserID)
}

func (m *mockPO) CancelPoNo(ctx context.Context, reportID int64, actorID int64) (*entity.PurchaseReport, error) {
	if m.cancelFunc == nil {
		return nil, errUnexpected
	}
	return m.cancelFunc(ctx, reportID, actorID)
}

func (m *mockPO) ReturnPoNo(ctx context.Context, reportID int64, actorID int64) (*entity.PurchaseReport, error) {
	if m.returnFunc == nil {
		return nil, errUnexpected
	}
	return m.returnFunc(ctx, reportID, actorID)
}

func (m *mockPO) ApprovePoDate(ctx context.Context, reportID int64, s entity.POStatus, date time.Time, purchaserID int64) (*entity.PurchaseReport, error) {
	if m.approveFunc == nil {
		return nil, errUnexpected
	}
	return m.approveFunc(ctx, reportID, s, date, purchaserID)
}

type mockAudit struct {
	historyFunc func(ctx context.Context, modelType string, modelID int64) ([]*entity.AuditLog, error)
}

func (m *mockAudit) Record(ctx context.Context, actorID int64, action, modelType string, modelID int64, oldValue, newValue interface{}) error {
	return errUnexpected
}

func (m *mockAudit) History(ctx context.Context, modelType string, modelID int64) ([]*entity.AuditLog, error) {
	if m.historyFunc == nil {
		return nil, errUnexpected
	}
	return m.historyFunc(ctx, modelType, modelID)
}

type mockProgress struct {
	listFunc   func(ctx context.Context, user *entity.User, reportID int64) ([]*entity.Progress, error)
	addFunc    func(ctx context.Context, user *entity.User, reportID int64, in service.ProgressInput) (*entity.Progress, error)
	updateFunc func(ctx context.Context, user *entity.User, id int64, in service.ProgressInput) (*entity.Progress, error)
	deleteFunc func(ctx context.Context, user *entity.User, id int64) error
}

func (m *mockProgress) List(ctx context.Context, user *entity.User, reportID int64) ([]*entity.Progress, error) {
	if m.listFunc == nil {
		return nil, errUnexpected
	}
	return m.listFunc(ctx, user, reportID)
}

func (m *mockProgress) Add(ctx context.Context, user *entity.User, reportID int64, in service.ProgressInput) (*entity.Progress, error) {
	if m.addFunc == nil {
		return nil, errUnexpected
	}
	return m.addFunc(ctx, user, reportID, in)
}

func (m *mockProgress) Update(ctx context.Context, user *entity.User, id int64, in service.ProgressInput) (*entity.Progress, error) {
	if m.updateFunc == nil {
		return nil, errUnexpected
	}
	return m.updateFunc(ctx, user, id, in)
}

func (m *mockProgress) Delete(ctx context.Context, user *entity.User, id int64) error {
	if m.deleteFunc == nil {
		return errUnexpected
	}
	return m.deleteFunc(ctx, user, id)
}

type mockExport struct {
	exportFunc func(ctx context.Context, user *entity.User, filter entity.ReportFilter) (string, error)
}

func (m *mockExport) ExportReports(ctx context.Context, user *entity.User, filter entity.ReportFilter) (string, error) {
	if m.exportFunc == nil {
		return "", errUnexpected
	}
	return m.exportFunc(ctx, user, filter)
}

type mockNotifications struct {
	listFunc       func(ctx context.Context, userID int64, limit int) ([]*entity.Notification, error)
	countsFunc     func(ctx context.Context, userID int64) (*entity.NotificationCounts, error)
	deptListFunc   func(ctx context.Context, department string, limit int) ([]*entity.Notification, error)
	deptCountsFunc func(ctx context.Context, department string) (*entity.NotificationCounts, error)
	summaryFunc    func(ctx context.Context, filter entity.NotificationFilter) (*service.NotificationSummary, error)
	markFunc       func(ctx context.Context, id, userID int64) error
	markAllFunc    func(ctx context.Context, userID int64) (int64, error)
}

func (m *mockNotifications) Notify(ctx context.Context, plan service.Plan, r *entity.PurchaseReport) (int, error) {
	return 0, errUnexpected
}

func (m *mockNotifications) ListForUser(ctx context.Context, userID int64, limit int) ([]*entity.Notification, error) {
	if m.listFunc == nil {
		return nil, errUnexpected
	}
	return m.listFunc(ctx, userID, limit)
}

func (m *mockNotifications) CountsForUser(ctx context.Context, userID int64) (*entity.NotificationCounts, error) {
	if m.countsFunc == nil {
		return nil, errUnexpected
	}
	return m.countsFunc(ctx, userID)
}

func (m *mockNotifications) ListForDepartment(ctx context.Context, department string, limit int) ([]*entity.Notification, error) {
	if m.deptListFunc == nil {
		return nil, errUnexpected
	}
	return m.deptListFunc(ctx, department, limit)
}

func (m *mockNotifications) CountsForDepartment(ctx context.Context, department string) (*entity.NotificationCounts, error) {
	if m.deptCountsFunc == nil {
		return nil, errUnexpected
	}
	return m.deptCountsFunc(ctx, department)
}

func (m *mockNotifications) Summary(ctx context.Context, filter entity.NotificationFilter) (*service.NotificationSummary, error) {
	if m.summaryFunc == nil {
		return nil, errUnexpected
	}
	return m.summaryFunc(ctx, filter)
}

func (m *mockNotifications) MarkAsRead(ctx context.Context, id, userID int64) error {
	if m.markFunc == nil {
		return errUnexpected
	}
	return m.markFunc(ctx, id, userID)
}

func (m *mockNotifications) MarkAllAsRead(ctx context.Context, userID int64) (int64, error) {
	if m.markAllFunc == nil {
		return 0, errUnexpected
	}
	return m.markAllFunc(ctx, userID)
}

// mockUsers resolves users from a fixed map
type mockUsers struct {
	users map[int64]*entity.User
	err   error
}

func (m *mockUsers) Create(ctx context.Context, u *entity.User) error {
	return errUnexpected
}

func (m *mockUsers) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.users[id], nil
}

func (m *mockUsers) ListByRole(ctx context.Context, role entity.Role) ([]*entity.User, error) {
	return nil, errUnexpected
}

// fakeTokens maps fixed token strings to user ids
type fakeTokens map[string]int64

func (f fakeTokens) Parse(token string) (int64, error) {
	if id, ok := f[token]; ok {
		return id, nil
	}
	return 0, errors.New("invalid token")
}

type mockStorage struct {
	files map[string][]byte
}

func (m *mockStorage) Save(ctx context.Context, path string, content []byte) error {
	m.files[path] = content
	return nil
}

func (m *mockStorage) Read(ctx context.Context, path string) ([]byte, error) {
	b, ok := m.files[path]
	if !ok {
		return nil, errors.New("no such file")
	}
	return b, nil
}

func (m *mockStorage) Exists(ctx context.Context, path string) bool {
	_, ok := m.files[path]
	return ok
}

func (m *mockStorage) Delete(ctx context.Context, path string) error {
	delete(m.files, path)
	return nil
}

func (m *mockStorage) GetFullPath(relativePath string) string {
	return "/exports/" + relativePath
}

type fakeLive struct {
	served []*entity.User
}

func (f *fakeLive) Serve(w http.ResponseWriter, r *http.Request, u *entity.User) error {
	f.served = append(f.served, u)
	w.WriteHeader(http.StatusNoContent)
	return nil
}
