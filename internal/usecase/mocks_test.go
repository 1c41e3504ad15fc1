//go:build !integration

package usecase_test

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"telegram-course-store/internal/domain"
	"telegram-course-store/internal/domain/model"
	"telegram-course-store/internal/domain/ports/adapter"
	"telegram-course-store/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// =============================
// Repositories
// =============================

// MockCatalog serves courses from a fixed map.
type MockCatalog struct {
	Courses  map[string]*model.Course
	FindFunc func(ctx context.Context, id string) (*model.Course, error)
}

var _ repository.CourseCatalog = (*MockCatalog)(nil)

func NewMockCatalog(courses ...*model.Course) *MockCatalog {
	m := &MockCatalog{Courses: make(map[string]*model.Course)}
	for _, c := range courses {
		m.Courses[c.ID] = c
	}
	return m
}

func (m *MockCatalog) Find(ctx context.Context, id string) (*model.Course, error) {
	if m.FindFunc != nil {
		return m.FindFunc(ctx, id)
	}
	c, ok := m.Courses[id]
	if !ok {
		return nil, fmt.Errorf("%w: course %q", domain.ErrNotFound, id)
	}
	cp := *c
	return &cp, nil
}

func (m *MockCatalog) List(ctx context.Context) ([]*model.Course, error) {
	out := make([]*model.Course, 0, len(m.Courses))
	for _, c := range m.Courses {
		if c.Hidden {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

// MockUserRepo keys users by internal id.
type MockUserRepo struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*model.User

	UpsertFunc   func(ctx context.Context, tx repository.Tx, u *model.User) error
	FindByIDFunc func(ctx context.Context, tx repository.Tx, id int64) (*model.User, error)
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{nextID: 1, byID: make(map[int64]*model.User)}
}

func (m *MockUserRepo) Upsert(ctx context.Context, tx repository.Tx, u *model.User) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, tx, u)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.TelegramID == u.TelegramID {
			u.ID = existing.ID
			cp := *u
			m.byID[u.ID] = &cp
			return nil
		}
	}
	u.ID = m.nextID
	m.nextID++
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *MockUserRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.User, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MockUserRepo) FindByTelegramID(ctx context.Context, tx repository.Tx, telegramID int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.TelegramID == telegramID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

// Seed inserts a user directly, bypassing the hooks.
func (m *MockUserRepo) Seed(u *model.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.byID[u.ID] = &cp
	if u.ID >= m.nextID {
		m.nextID = u.ID + 1
	}
}

// MockEntitlementRepo enforces at-most-one row per (user, course), the same
// guarantee the primary key gives the real repository.
type MockEntitlementRepo struct {
	mu   sync.Mutex
	rows map[string]*model.Entitlement // key userID|courseID

	GrantFunc  func(ctx context.Context, tx repository.Tx, userID int64, courseID string, at time.Time) (bool, error)
	RevokeFunc func(ctx context.Context, tx repository.Tx, userID int64, courseID string) error
	ExistsFunc func(ctx context.Context, tx repository.Tx, userID int64, courseID string) (bool, error)
}

var _ repository.EntitlementRepository = (*MockEntitlementRepo)(nil)

func NewMockEntitlementRepo() *MockEntitlementRepo {
	return &MockEntitlementRepo{rows: make(map[string]*model.Entitlement)}
}

func entKey(userID int64, courseID string) string {
	return fmt.Sprintf("%d|%s", userID, courseID)
}

func (m *MockEntitlementRepo) Grant(ctx context.Context, tx repository.Tx, userID int64, courseID string, at time.Time) (bool, error) {
	if m.GrantFunc != nil {
		return m.GrantFunc(ctx, tx, userID, courseID, at)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	k := entKey(userID, courseID)
	if _, ok := m.rows[k]; ok {
		return false, nil
	}
	m.rows[k] = &model.Entitlement{UserID: userID, CourseID: courseID, PurchasedAt: at}
	return true, nil
}

func (m *MockEntitlementRepo) Exists(ctx context.Context, tx repository.Tx, userID int64, courseID string) (bool, error) {
	if m.ExistsFunc != nil {
		return m.ExistsFunc(ctx, tx, userID, courseID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rows[entKey(userID, courseID)]
	return ok, nil
}

func (m *MockEntitlementRepo) Revoke(ctx context.Context, tx repository.Tx, userID int64, courseID string) error {
	if m.RevokeFunc != nil {
		return m.RevokeFunc(ctx, tx, userID, courseID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, entKey(userID, courseID))
	return nil
}

func (m *MockEntitlementRepo) ListByUser(ctx context.Context, tx repository.Tx, userID int64) ([]*model.Entitlement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Entitlement
	for _, e := range m.rows {
		if e.UserID == userID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockEntitlementRepo) SetFavorite(ctx context.Context, tx repository.Tx, userID int64, courseID string, favorite bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.rows[entKey(userID, courseID)]
	if !ok {
		return domain.ErrNotFound
	}
	e.Favorite = favorite
	return nil
}

// Count reports how many entitlement rows exist for the user.
func (m *MockEntitlementRepo) Count(userID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.rows {
		if e.UserID == userID {
			n++
		}
	}
	return n
}

// MockTransactionRepo mirrors the guarded-update semantics of the Postgres
// repository: MarkCaptured only touches a pending purchase row keyed by the
// order id and returns nil when nothing matched.
type MockTransactionRepo struct {
	mu   sync.Mutex
	rows []*model.Transaction

	InsertFunc       func(ctx context.Context, tx repository.Tx, t *model.Transaction) error
	MarkCapturedFunc func(ctx context.Context, tx repository.Tx, userID int64, courseID, orderID, captureID string, amount int64, currency string) (*model.Transaction, error)
}

var _ repository.TransactionRepository = (*MockTransactionRepo)(nil)

func NewMockTransactionRepo() *MockTransactionRepo {
	return &MockTransactionRepo{}
}

func (m *MockTransactionRepo) Insert(ctx context.Context, tx repository.Tx, t *model.Transaction) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, tx, t)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *MockTransactionRepo) MarkCaptured(ctx context.Context, tx repository.Tx, userID int64, courseID, orderID, captureID string, amount int64, currency string) (*model.Transaction, error) {
	if m.MarkCapturedFunc != nil {
		return m.MarkCapturedFunc(ctx, tx, userID, courseID, orderID, captureID, amount, currency)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.rows {
		if t.UserID == userID && t.CourseID == courseID && t.PaymentID == orderID &&
			t.Status == model.TransactionStatusPending && t.Type == model.TransactionTypePurchase {
			t.Status = model.TransactionStatusSuccess
			t.PaymentID = captureID
			t.Amount = amount
			t.Currency = currency
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockTransactionRepo) ListByUser(ctx context.Context, tx repository.Tx, userID int64, limit int) ([]*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Transaction
	for _, t := range m.rows {
		if t.UserID == userID {
			cp := *t
			out = append(out, &cp)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MockTransactionRepo) ExpirePending(ctx context.Context, tx repository.Tx, olderThan time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, t := range m.rows {
		if t.Status == model.TransactionStatusPending && t.Type == model.TransactionTypePurchase && t.CreatedAt.Before(olderThan) {
			t.Status = model.TransactionStatusFailed
			n++
		}
	}
	return n, nil
}

// All returns a snapshot of every stored row.
func (m *MockTransactionRepo) All() []model.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Transaction, len(m.rows))
	for i, t := range m.rows {
		out[i] = *t
	}
	return out
}

// ByStatus returns the rows currently in the given status.
func (m *MockTransactionRepo) ByStatus(status model.TransactionStatus) []model.Transaction {
	var out []model.Transaction
	for _, t := range m.All() {
		if t.Status == status {
			out = append(out, t)
		}
	}
	return out
}

// MockWebhookEventRepo records audit entries keyed by event id.
type MockWebhookEventRepo struct {
	mu       sync.Mutex
	Recorded []string

	RecordFunc func(ctx context.Context, tx repository.Tx, eventID, eventType string, at time.Time) error
}

var _ repository.WebhookEventRepository = (*MockWebhookEventRepo)(nil)

func (m *MockWebhookEventRepo) Record(ctx context.Context, tx repository.Tx, eventID, eventType string, at time.Time) error {
	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, tx, eventID, eventType, at)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Recorded = append(m.Recorded, eventID)
	return nil
}

// MockTxManager runs the function inline with a nil handle, matching the
// repositories' tolerance for the pool path.
type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, nil)
}

// =============================
// Adapters
// =============================

type MockGateway struct {
	CreateOrderFunc  func(ctx context.Context, amount int64, currency, description, customID string) (*adapter.CreatedOrder, error)
	CaptureOrderFunc func(ctx context.Context, orderID string) (*adapter.CaptureResult, error)

	mu       sync.Mutex
	Captured []string
}

var _ adapter.PaymentGateway = (*MockGateway)(nil)

func (m *MockGateway) Name() string { return "mock" }

func (m *MockGateway) CreateOrder(ctx context.Context, amount int64, currency, description, customID string) (*adapter.CreatedOrder, error) {
	if m.CreateOrderFunc != nil {
		return m.CreateOrderFunc(ctx, amount, currency, description, customID)
	}
	return &adapter.CreatedOrder{OrderID: "ORDER-1", ApproveURL: "https://pay.example/approve/ORDER-1"}, nil
}

func (m *MockGateway) CaptureOrder(ctx context.Context, orderID string) (*adapter.CaptureResult, error) {
	m.mu.Lock()
	m.Captured = append(m.Captured, orderID)
	m.mu.Unlock()
	if m.CaptureOrderFunc != nil {
		return m.CaptureOrderFunc(ctx, orderID)
	}
	return &adapter.CaptureResult{CaptureID: "CAP-" + orderID, Amount: 0, Currency: "USD"}, nil
}

type MockCache struct {
	mu          sync.Mutex
	store       map[int64][]*model.Entitlement
	Invalidated []int64

	GetCoursesFunc     func(ctx context.Context, userID int64) ([]*model.Entitlement, bool, error)
	SetCoursesFunc     func(ctx context.Context, userID int64, items []*model.Entitlement) error
	InvalidateUserFunc func(ctx context.Context, userID int64) error
}

var _ adapter.CourseCache = (*MockCache)(nil)

func NewMockCache() *MockCache {
	return &MockCache{store: make(map[int64][]*model.Entitlement)}
}

func (m *MockCache) GetCourses(ctx context.Context, userID int64) ([]*model.Entitlement, bool, error) {
	if m.GetCoursesFunc != nil {
		return m.GetCoursesFunc(ctx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	items, ok := m.store[userID]
	return items, ok, nil
}

func (m *MockCache) SetCourses(ctx context.Context, userID int64, items []*model.Entitlement) error {
	if m.SetCoursesFunc != nil {
		return m.SetCoursesFunc(ctx, userID, items)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[userID] = items
	return nil
}

func (m *MockCache) InvalidateUser(ctx context.Context, userID int64) error {
	if m.InvalidateUserFunc != nil {
		return m.InvalidateUserFunc(ctx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, userID)
	m.Invalidated = append(m.Invalidated, userID)
	return nil
}

// MockCourier counts deliveries; tests assert on the counters to pin down
// the one-notification-per-grant property.
type MockCourier struct {
	mu            sync.Mutex
	nextMsgID     int
	Processing    int
	Confirmations int
	Edits         int
	Refunds       int

	SendPurchaseProcessingFunc   func(ctx context.Context, telegramID int64, courseTitle string) (int, error)
	SendPurchaseConfirmationFunc func(ctx context.Context, telegramID int64, courseTitle string) (int, error)
	EditToConfirmationFunc       func(ctx context.Context, telegramID int64, messageID int, courseTitle string) error
	SendRefundNoticeFunc         func(ctx context.Context, telegramID int64, courseTitle string) error
}

var _ adapter.Courier = (*MockCourier)(nil)

func (m *MockCourier) SendPurchaseProcessing(ctx context.Context, telegramID int64, courseTitle string) (int, error) {
	if m.SendPurchaseProcessingFunc != nil {
		return m.SendPurchaseProcessingFunc(ctx, telegramID, courseTitle)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Processing++
	m.nextMsgID++
	return m.nextMsgID, nil
}

func (m *MockCourier) SendPurchaseConfirmation(ctx context.Context, telegramID int64, courseTitle string) (int, error) {
	if m.SendPurchaseConfirmationFunc != nil {
		return m.SendPurchaseConfirmationFunc(ctx, telegramID, courseTitle)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Confirmations++
	m.nextMsgID++
	return m.nextMsgID, nil
}

func (m *MockCourier) EditToConfirmation(ctx context.Context, telegramID int64, messageID int, courseTitle string) error {
	if m.EditToConfirmationFunc != nil {
		return m.EditToConfirmationFunc(ctx, telegramID, messageID, courseTitle)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Edits++
	return nil
}

func (m *MockCourier) SendRefundNotice(ctx context.Context, telegramID int64, courseTitle string) error {
	if m.SendRefundNoticeFunc != nil {
		return m.SendRefundNoticeFunc(ctx, telegramID, courseTitle)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Refunds++
	return nil
}

// Notified reports confirmations plus edits, i.e. how many times the user
// heard about a completed purchase.
func (m *MockCourier) Notified() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Confirmations + m.Edits
}
