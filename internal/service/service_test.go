package service

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/Djamauk/himalayanpinksalt.online/internal/domain"
	"github.com/Djamauk/himalayanpinksalt.online/internal/event"
	pkgkafka "github.com/Djamauk/himalayanpinksalt.online/pkg/kafka"
)

// --- Mock Address Repository ---

type mockAddressRepository struct {
	mock.Mock
}

func (m *mockAddressRepository) List(ctx context.Context, userID string) ([]domain.Address, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Address), args.Error(1)
}

func (m *mockAddressRepository) Create(ctx context.Context, userID string, addr domain.Address) (*domain.Address, error) {
	args := m.Called(ctx, userID, addr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Address), args.Error(1)
}

func (m *mockAddressRepository) Update(ctx context.Context, userID, id string, addr domain.Address) (*domain.Address, error) {
	args := m.Called(ctx, userID, id, addr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Address), args.Error(1)
}

func (m *mockAddressRepository) Delete(ctx context.Context, userID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *mockAddressRepository) SetDefault(ctx context.Context, userID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

// --- Mock Payment Method Repository ---

type mockPaymentMethodRepository struct {
	mock.Mock
}

func (m *mockPaymentMethodRepository) List(ctx context.Context, userID string) ([]domain.PaymentMethod, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.PaymentMethod), args.Error(1)
}

func (m *mockPaymentMethodRepository) Create(ctx context.Context, userID string, pm domain.PaymentMethod) (*domain.PaymentMethod, error) {
	args := m.Called(ctx, userID, pm)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentMethod), args.Error(1)
}

func (m *mockPaymentMethodRepository) Delete(ctx context.Context, userID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

// --- Mock Profile Repository ---

type mockProfileRepository struct {
	mock.Mock
}

func (m *mockProfileRepository) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}

func (m *mockProfileRepository) Save(ctx context.Context, userID string, p domain.Profile) error {
	args := m.Called(ctx, userID, p)
	return args.Error(0)
}

// --- Mock Preferences Repository ---

type mockPreferencesRepository struct {
	mock.Mock
}

func (m *mockPreferencesRepository) Get(ctx context.Context, userID string) (*domain.Preferences, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Preferences), args.Error(1)
}

func (m *mockPreferencesRepository) Save(ctx context.Context, userID string, p domain.Preferences) error {
	args := m.Called(ctx, userID, p)
	return args.Error(0)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func newTestEventProducer() *event.Producer {
	logger := newTestLogger()
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	kafkaCfg.BatchTimeout = time.Millisecond
	kafkaProducer := pkgkafka.NewProducer(kafkaCfg, logger)
	return event.NewProducer(kafkaProducer, logger)
}

func strPtr(s string) *string {
	return &s
}
