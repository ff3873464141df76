package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/zosarillana/prs-be/internal/application/dispatcher"
	"github.com/zosarillana/prs-be/internal/application/port"
	"github.com/zosarillana/prs-be/internal/domain/access"
	"github.com/zosarillana/prs-be/internal/domain/entity"
	"github.com/zosarillana/prs-be/internal/domain/event"
)

// mockReportRepo keeps reports in memory; func fields override single methods
type mockReportRepo struct {
	mu      sync.Mutex
	reports map[int64]*entity.PurchaseReport
	nextID  int64

	createFunc  func(ctx context.Context, r *entity.PurchaseReport) error
	updateFunc  func(ctx context.Context, r *entity.PurchaseReport) error
	summaryFunc func(ctx context.Context, scope access.Scope, viewer *entity.User) (*entity.SummaryCounts, error)
	listFunc    func(ctx context.Context, scope access.Scope, viewer *entity.User, filter entity.ReportFilter) ([]*entity.PurchaseReport, int, error)
}

func newMockReportRepo(seed ...*entity.PurchaseReport) *mockReportRepo {
	m := &mockReportRepo{reports: make(map[int64]*entity.PurchaseReport)}
	for _, r := range seed {
		m.reports[r.ID] = r.Clone()
		if r.ID > m.nextID {
			m.nextID = r.ID
		}
	}
	return m
}

func (m *mockReportRepo) Create(ctx context.Context, r *entity.PurchaseReport) error {
	if m.createFunc != nil {
		if err := m.createFunc(ctx, r); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.reports {
		if existing.SeriesNo == r.SeriesNo {
			return port.ErrConflict
		}
	}
	m.nextID++
	r.ID = m.nextID
	m.reports[r.ID] = r.Clone()
	return nil
}

func (m *mockReportRepo) GetByID(ctx context.Context, id int64) (*entity.PurchaseReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok {
		return nil, nil
	}
	return r.Clone(), nil
}

func (m *mockReportRepo) Update(ctx context.Context, r *entity.PurchaseReport) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, r)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports[r.ID] = r.Clone()
	return nil
}

func (m *mockReportRepo) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.reports, id)
	return nil
}

func (m *mockReportRepo) SeriesNumbers(ctx context.Context) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int, 0, len(m.reports))
	for _, r := range m.reports {
		out = append(out, r.SeriesNo)
	}
	return out, nil
}

func (m *mockReportRepo) List(ctx context.Context, scope access.Scope, viewer *entity.User, filter entity.ReportFilter) ([]*entity.PurchaseReport, int, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, scope, viewer, filter)
	}
	all, _ := m.ListAll(ctx, scope, viewer, filter)
	return all, len(all), nil
}

func (m *mockReportRepo) ListAll(ctx context.Context, scope access.Scope, viewer *entity.User, filter entity.ReportFilter) ([]*entity.PurchaseReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.PurchaseReport
	for _, r := range m.reports {
		if scope.Matches(r) {
			out = append(out, r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockReportRepo) Summary(ctx context.Context, scope access.Scope, viewer *entity.User) (*entity.SummaryCounts, error) {
	if m.summaryFunc != nil {
		return m.summaryFunc(ctx, scope, viewer)
	}
	all, _ := m.ListAll(ctx, scope, viewer, entity.ReportFilter{})
	return &entity.SummaryCounts{TotalPRs: len(all)}, nil
}

func (m *mockReportRepo) get(id int64) *entity.PurchaseReport {
	r, _ := m.GetByID(context.Background(), id)
	return r
}

type mockTagRepo struct {
	tags map[int64]*entity.Tag
}

func (m *mockTagRepo) GetByIDs(ctx context.Context, ids []int64) (map[int64]*entity.Tag, error) {
	out := make(map[int64]*entity.Tag)
	for _, id := range ids {
		if t, ok := m.tags[id]; ok {
			out[id] = t
		}
	}
	return out, nil
}

func (m *mockTagRepo) List(ctx context.Context) ([]*entity.Tag, error)                    { return nil, nil }
func (m *mockTagRepo) CreateDepartment(ctx context.Context, d *entity.Department) error { return nil }
func (m *mockTagRepo) Create(ctx context.Context, t *entity.Tag) error                   { return nil }

type mockUserRepo struct {
	users []*entity.User
}

func (m *mockUserRepo) Create(ctx context.Context, u *entity.User) error {
	u.ID = int64(len(m.users) + 1)
	m.users = append(m.users, u)
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) ListByRole(ctx context.Context, role entity.Role) ([]*entity.User, error) {
	var out []*entity.User
	for _, u := range m.users {
		if u.HasRole(role) {
			out = append(out, u)
		}
	}
	return out, nil
}

// mockNotificationRepo enforces the (user, report, title) uniqueness like the real table
type mockNotificationRepo struct {
	mu   sync.Mutex
	rows []*entity.Notification

	existsFunc func(ctx context.Context, userID, reportID int64, title string) (bool, error)
}

func (m *mockNotificationRepo) Exists(ctx context.Context, userID, reportID int64, title string) (bool, error) {
	if m.existsFunc != nil {
		return m.existsFunc(ctx, userID, reportID, title)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.find(userID, reportID, title) != nil, nil
}

func (m *mockNotificationRepo) find(userID, reportID int64, title string) *entity.Notification {
	for _, n := range m.rows {
		if n.UserID == userID && n.ReportID == reportID && n.Title == title {
			return n
		}
	}
	return nil
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *entity.Notification) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.find(n.UserID, n.ReportID, n.Title) != nil {
		return false, nil
	}
	n.ID = int64(len(m.rows) + 1)
	m.rows = append(m.rows, n)
	return true, nil
}

func (m *mockNotificationRepo) ListForUser(ctx context.Context, userID int64, limit int) ([]*entity.Notification, error) {
	return m.byTitle(""), nil
}

func (m *mockNotificationRepo) CountsForUser(ctx context.Context, userID int64) (*entity.NotificationCounts, error) {
	return &entity.NotificationCounts{}, nil
}

func (m *mockNotificationRepo) ListForDepartment(ctx context.Context, department string, limit int) ([]*entity.Notification, error) {
	return nil, nil
}

func (m *mockNotificationRepo) CountsForDepartment(ctx context.Context, department string) (*entity.NotificationCounts, error) {
	return &entity.NotificationCounts{}, nil
}

func (m *mockNotificationRepo) Summary(ctx context.Context, filter entity.NotificationFilter) ([]*entity.Notification, *entity.NotificationCounts, error) {
	return nil, &entity.NotificationCounts{}, nil
}

func (m *mockNotificationRepo) MarkAsRead(ctx context.Context, id, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.rows {
		if n.ID == id && n.UserID == userID {
			now := time.Now()
			n.ReadAt = &now
			return true, nil
		}
	}
	return false, nil
}

func (m *mockNotificationRepo) MarkAllAsRead(ctx context.Context, userID int64) (int64, error) {
	return 0, nil
}

// byTitle returns stored rows with title, or every row when title is empty
func (m *mockNotificationRepo) byTitle(title string) []*entity.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Notification
	for _, n := range m.rows {
		if title == "" || n.Title == title {
			out = append(out, n)
		}
	}
	return out
}

func (m *mockNotificationRepo) recipients(title string) []int64 {
	var ids []int64
	for _, n := range m.byTitle(title) {
		ids = append(ids, n.UserID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

type mockAuditRepo struct {
	mu   sync.Mutex
	logs []*entity.AuditLog

	createFunc func(ctx context.Context, log *entity.AuditLog) error
}

func (m *mockAuditRepo) Create(ctx context.Context, log *entity.AuditLog) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, log)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, log)
	return nil
}

func (m *mockAuditRepo) ListByModel(ctx context.Context, modelType string, modelID int64) ([]*entity.AuditLog, error) {
	return m.logs, nil
}

func (m *mockAuditRepo) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, l := range m.logs {
		out = append(out, l.Action)
	}
	return out
}

type mockTxManager struct {
	withTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.withTransactionFunc != nil {
		return m.withTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

type mockCache struct {
	mu          sync.Mutex
	data        map[string][]byte
	invalidated int
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte)}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mockCache) InvalidateAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string][]byte)
	m.invalidated++
	return nil
}

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}

// eventSink collects dispatched events; call wait before asserting
type eventSink struct {
	d      dispatcher.Dispatcher
	mu     sync.Mutex
	events []*event.Event
}

func newEventSink() *eventSink {
	s := &eventSink{d: dispatcher.NewDispatcher()}
	collect := func(ctx context.Context, evt *event.Event) error {
		s.mu.Lock()
		s.events = append(s.events, evt)
		s.mu.Unlock()
		return nil
	}
	s.d.Subscribe(event.TypeReportUpdated, collect)
	s.d.Subscribe(event.TypeNotificationCreated, collect)
	return s
}

func (s *eventSink) wait() []*event.Event {
	_ = s.d.Close()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events
}

func (s *eventSink) ofType(t event.Type) []*event.Event {
	var out []*event.Event
	for _, e := range s.wait() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// fixture wires every service over the in-memory fakes
type fixture struct {
	reports       *mockReportRepo
	users         *mockUserRepo
	notifications *mockNotificationRepo
	audits        *mockAuditRepo
	cache         *mockCache
	sink          *eventSink

	reportSvc   ReportService
	approvalSvc ApprovalService
	poSvc       *poServiceImpl
	notifySvc   NotificationService
}

func newFixture(seed ...*entity.PurchaseReport) *fixture {
	f := &fixture{
		reports:       newMockReportRepo(seed...),
		users:         &mockUserRepo{},
		notifications: &mockNotificationRepo{},
		audits:        &mockAuditRepo{},
		cache:         newMockCache(),
		sink:          newEventSink(),
	}
	tags := &mockTagRepo{tags: map[int64]*entity.Tag{
		1: {ID: 1, DepartmentID: 2, DepartmentName: "IT Ops", Description: "Hardware"},
		2: {ID: 2, DepartmentID: 1, DepartmentName: "Engineering", Description: "Tools"},
	}}

	logger := &mockLogger{}
	tx := &mockTxManager{}
	audit := NewAuditService(f.audits, logger)
	summaries := NewSummaryCache(f.cache, time.Minute, logger)
	f.notifySvc = NewNotificationService(f.notifications, f.users, f.sink.d, logger)

	f.reportSvc = NewReportService(f.reports, tags, tx, audit, f.notifySvc, summaries, f.sink.d, logger)
	f.approvalSvc = NewApprovalService(f.reports, tx, audit, f.notifySvc, summaries, f.sink.d, logger)
	f.poSvc = NewPOService(f.reports, tx, audit, f.notifySvc, summaries, f.sink.d, logger).(*poServiceImpl)
	return f
}

// addUser registers a directory user and returns it
func (f *fixture) addUser(name string, roles []entity.Role, depts ...string) *entity.User {
	u := &entity.User{Name: name, Roles: entity.Roles(roles...), Departments: entity.NewDepartmentSet(depts...)}
	_ = f.users.Create(context.Background(), u)
	return u
}
