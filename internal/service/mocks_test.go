package service

import (
	"context"
	"donation-backend/internal/errors"
	"donation-backend/internal/idgen"
	"donation-backend/internal/model"
	"donation-backend/internal/repository/interfaces"
	"math/rand"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
)

var testNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

// MockUserRepository 是 UserRepository 接口的模拟实现
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateStatus(ctx context.Context, id int64, status model.UserStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockUserRepository) IncrementDonationStats(ctx context.Context, id int64, count int64, amount float64) error {
	args := m.Called(ctx, id, count, amount)
	return args.Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, filter interfaces.UserFilter, limit, offset int) ([]*model.User, error) {
	args := m.Called(ctx, filter, limit, offset)
	users, _ := args.Get(0).([]*model.User)
	return users, args.Error(1)
}

func (m *MockUserRepository) Count(ctx context.Context, filter interfaces.UserFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

func (m *MockUserRepository) TopDonors(ctx context.Context, limit int) ([]model.TopDonor, error) {
	args := m.Called(ctx, limit)
	donors, _ := args.Get(0).([]model.TopDonor)
	return donors, args.Error(1)
}

// MockDonationRepository 是 DonationRepository 接口的模拟实现
type MockDonationRepository struct {
	mock.Mock
}

func (m *MockDonationRepository) Create(ctx context.Context, donation *model.Donation) error {
	args := m.Called(ctx, donation)
	return args.Error(0)
}

func (m *MockDonationRepository) FindByID(ctx context.Context, id int64) (*model.Donation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Donation), args.Error(1)
}

func (m *MockDonationRepository) FindByDonationID(ctx context.Context, donationID string) (*model.Donation, error) {
	args := m.Called(ctx, donationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Donation), args.Error(1)
}

func (m *MockDonationRepository) FindByIDForUpdate(ctx context.Context, id int64) (*model.Donation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Donation), args.Error(1)
}

func (m *MockDonationRepository) Update(ctx context.Context, donation *model.Donation) error {
	args := m.Called(ctx, donation)
	return args.Error(0)
}

func (m *MockDonationRepository) AppendTimeline(ctx context.Context, donationID int64, entry model.TimelineEntry) error {
	args := m.Called(ctx, donationID, entry)
	return args.Error(0)
}

func (m *MockDonationRepository) List(ctx context.Context, filter interfaces.DonationFilter, limit, offset int) ([]*model.Donation, error) {
	args := m.Called(ctx, filter, limit, offset)
	donations, _ := args.Get(0).([]*model.Donation)
	return donations, args.Error(1)
}

func (m *MockDonationRepository) Count(ctx context.Context, filter interfaces.DonationFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

func (m *MockDonationRepository) SumMonetary(ctx context.Context, statuses []model.DonationStatus) (float64, error) {
	args := m.Called(ctx, statuses)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockDonationRepository) CountByType(ctx context.Context) ([]model.GroupCount, error) {
	args := m.Called(ctx)
	counts, _ := args.Get(0).([]model.GroupCount)
	return counts, args.Error(1)
}

func (m *MockDonationRepository) CountByStatus(ctx context.Context) ([]model.GroupCount, error) {
	args := m.Called(ctx)
	counts, _ := args.Get(0).([]model.GroupCount)
	return counts, args.Error(1)
}

func (m *MockDonationRepository) CountByMonth(ctx context.Context, limit int) ([]model.MonthlyCount, error) {
	args := m.Called(ctx, limit)
	counts, _ := args.Get(0).([]model.MonthlyCount)
	return counts, args.Error(1)
}

// MockPaymentRepository 是 PaymentRepository 接口的模拟实现
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) FindByID(ctx context.Context, id int64) (*model.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByOrderID(ctx context.Context, orderID string) (*model.Payment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByOrderIDForUpdate(ctx context.Context, orderID string) (*model.Payment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *MockPaymentRepository) Update(ctx context.Context, payment *model.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*model.Payment, error) {
	args := m.Called(ctx, userID, limit, offset)
	payments, _ := args.Get(0).([]*model.Payment)
	return payments, args.Error(1)
}

func (m *MockPaymentRepository) CountByUser(ctx context.Context, userID int64) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockPaymentRepository) ExpireCreatedBefore(ctx context.Context, before time.Time, reason string, now time.Time) (int64, error) {
	args := m.Called(ctx, before, reason, now)
	return args.Get(0).(int64), args.Error(1)
}

// MockContactRepository 是 ContactRepository 接口的模拟实现
type MockContactRepository struct {
	mock.Mock
}

func (m *MockContactRepository) Create(ctx context.Context, contact *model.Contact) error {
	args := m.Called(ctx, contact)
	return args.Error(0)
}

func (m *MockContactRepository) FindByIDForUpdate(ctx context.Context, id int64) (*model.Contact, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Contact), args.Error(1)
}

func (m *MockContactRepository) FindByEmail(ctx context.Context, email string) ([]*model.Contact, error) {
	args := m.Called(ctx, email)
	contacts, _ := args.Get(0).([]*model.Contact)
	return contacts, args.Error(1)
}

func (m *MockContactRepository) Update(ctx context.Context, contact *model.Contact) error {
	args := m.Called(ctx, contact)
	return args.Error(0)
}

func (m *MockContactRepository) List(ctx context.Context, filter interfaces.ContactFilter, limit, offset int) ([]*model.Contact, error) {
	args := m.Called(ctx, filter, limit, offset)
	contacts, _ := args.Get(0).([]*model.Contact)
	return contacts, args.Error(1)
}

func (m *MockContactRepository) Count(ctx context.Context, filter interfaces.ContactFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

// MockPublisher 记录发布的事件
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	args := m.Called(ctx, topic, key, payload)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	return m.Called().Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendTicketAcknowledgement(contact *model.Contact) {
	m.Called(contact)
}

func (m *MockNotifier) SendPaymentReceipt(user *model.User, payment *model.Payment) {
	m.Called(user, payment)
}

// fakeTx 直接执行 fn，记录是否提交
type fakeTx struct {
	calls     int
	committed int
}

func (t *fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	if err := fn(ctx); err != nil {
		return err
	}
	t.committed++
	return nil
}

type memorySequence struct {
	mu     sync.Mutex
	values map[string]int64
}

func (s *memorySequence) Next(_ context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values == nil {
		s.values = make(map[string]int64)
	}
	s.values[name]++
	return s.values[name], nil
}

func newTestIDs() *idgen.Generator {
	return idgen.NewWithSource(&memorySequence{}, fixedClock, rand.NewSource(1))
}

func messageOf(err error) string {
	if appErr, ok := errors.As(err); ok {
		return appErr.Message
	}
	return ""
}
