package service

import (
	"context"
	"time"

	"rental-market-backend/internal/domain"

	"github.com/stretchr/testify/mock"
)

// MockTokenRepo
type MockTokenRepo struct {
	mock.Mock
}

func (m *MockTokenRepo) Upsert(ctx context.Context, tokens []domain.TokenRecord) error {
	args := m.Called(ctx, tokens)
	return args.Error(0)
}
func (m *MockTokenRepo) GetByAddress(ctx context.Context, address string) (*domain.TokenRecord, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TokenRecord), args.Error(1)
}
func (m *MockTokenRepo) ListListed(ctx context.Context, issuers []string) ([]domain.TokenRecord, error) {
	args := m.Called(ctx, issuers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TokenRecord), args.Error(1)
}
func (m *MockTokenRepo) ListByIssuer(ctx context.Context, issuer string) ([]domain.TokenRecord, error) {
	args := m.Called(ctx, issuer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TokenRecord), args.Error(1)
}
func (m *MockTokenRepo) ListByState(ctx context.Context, state domain.TokenManagerState) ([]domain.TokenRecord, error) {
	args := m.Called(ctx, state)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TokenRecord), args.Error(1)
}
func (m *MockTokenRepo) MarkEligible(ctx context.Context, addresses []string, at time.Time) ([]string, error) {
	args := m.Called(ctx, addresses, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
func (m *MockTokenRepo) DeleteInvalidatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockPaymentMintRepo
type MockPaymentMintRepo struct {
	mock.Mock
}

func (m *MockPaymentMintRepo) Upsert(ctx context.Context, mints []domain.PaymentMintInfo) error {
	args := m.Called(ctx, mints)
	return args.Error(0)
}
func (m *MockPaymentMintRepo) List(ctx context.Context) (domain.PaymentMints, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.PaymentMints), args.Error(1)
}

// MockRentalEventRepo
type MockRentalEventRepo struct {
	mock.Mock
}

func (m *MockRentalEventRepo) Create(ctx context.Context, events []domain.RentalEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}
func (m *MockRentalEventRepo) Summary(ctx context.Context, issuers []string) (*domain.RentalSummary, error) {
	args := m.Called(ctx, issuers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RentalSummary), args.Error(1)
}

// MockEmailSender
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) Send(ctx context.Context, to, subject, plainText, html string) error {
	args := m.Called(ctx, to, subject, plainText, html)
	return args.Error(0)
}
