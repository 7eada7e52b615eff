package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"rental-market-backend/internal/config"
	"rental-market-backend/internal/domain"
	"rental-market-backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Unix(1_700_000_000, 0).UTC()

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

type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) SendRevokeDigest(ctx context.Context, collection domain.Collection, candidates []service.RevokeCandidate) error {
	args := m.Called(ctx, collection, candidates)
	return args.Error(0)
}

func i64(v int64) *int64 { return &v }

func testConfig() *config.Config {
	return &config.Config{
		Marketplace: config.MarketplaceConfig{
			Collections: []config.CollectionConfig{
				{Name: "cars", Issuers: []string{"iss1"}, NotifyEmail: "cars@example.com"},
				{Name: "boats", Issuers: []string{"iss2"}, NotifyEmail: "boats@example.com"},
			},
		},
		Retention: config.RetentionConfig{InvalidatedDays: 30},
	}
}

func newTestRunner(tokens *MockTokenRepo, notifier *MockNotificationService) *JobRunner {
	jr := NewJobRunner(tokens, &Services{Notification: notifier}, testConfig())
	jr.now = func() time.Time { return testNow }
	return jr
}

func claimed(address, issuer string, expiration int64) domain.TokenRecord {
	return domain.TokenRecord{
		Address:         address,
		Issuer:          issuer,
		State:           domain.TokenManagerStateClaimed,
		Invalidators:    []string{"someone"},
		TimeInvalidator: &domain.TimeInvalidator{Expiration: i64(expiration)},
	}
}

func TestSweepInvalidations(t *testing.T) {
	ctx := context.Background()

	t.Run("Flags expired tokens and mails each collection", func(t *testing.T) {
		tokens, notifier := new(MockTokenRepo), new(MockNotificationService)
		jr := newTestRunner(tokens, notifier)

		already := claimed("t3", "iss1", testNow.Unix()-100)
		already.EligibleSince = &testNow
		tokens.On("ListByState", ctx, domain.TokenManagerStateClaimed).Return([]domain.TokenRecord{
			claimed("t1", "iss1", testNow.Unix()-10),
			claimed("t2", "iss1", testNow.Unix()+3600),
			already,
			claimed("t4", "iss2", testNow.Unix()),
		}, nil)
		tokens.On("MarkEligible", ctx, []string{"t1", "t4"}, testNow).Return([]string{"t1", "t4"}, nil)

		notifier.On("SendRevokeDigest", ctx, mock.MatchedBy(func(c domain.Collection) bool { return c.Name == "cars" }),
			mock.MatchedBy(func(cs []service.RevokeCandidate) bool {
				return len(cs) == 1 && cs[0].Token.Address == "t1"
			})).Return(nil).Once()
		notifier.On("SendRevokeDigest", ctx, mock.MatchedBy(func(c domain.Collection) bool { return c.Name == "boats" }),
			mock.MatchedBy(func(cs []service.RevokeCandidate) bool {
				return len(cs) == 1 && cs[0].Token.Address == "t4"
			})).Return(errors.New("smtp down")).Once()

		flagged, err := jr.sweepInvalidations(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, flagged)
		tokens.AssertExpectations(t)
		notifier.AssertExpectations(t)
	})

	t.Run("Nothing new", func(t *testing.T) {
		tokens, notifier := new(MockTokenRepo), new(MockNotificationService)
		jr := newTestRunner(tokens, notifier)
		tokens.On("ListByState", ctx, domain.TokenManagerStateClaimed).Return([]domain.TokenRecord{
			claimed("t2", "iss1", testNow.Unix()+3600),
		}, nil)

		flagged, err := jr.sweepInvalidations(ctx)
		require.NoError(t, err)
		assert.Zero(t, flagged)
		tokens.AssertNotCalled(t, "MarkEligible", mock.Anything, mock.Anything, mock.Anything)
		notifier.AssertNotCalled(t, "SendRevokeDigest", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Only mails tokens this sweep flagged", func(t *testing.T) {
		tokens, notifier := new(MockTokenRepo), new(MockNotificationService)
		jr := newTestRunner(tokens, notifier)
		tokens.On("ListByState", ctx, domain.TokenManagerStateClaimed).Return([]domain.TokenRecord{
			claimed("t1", "iss1", testNow.Unix()-10),
			claimed("t5", "iss1", testNow.Unix()-20),
		}, nil)
		// t1 was flagged by a concurrent run between the read and the update
		tokens.On("MarkEligible", ctx, []string{"t1", "t5"}, testNow).Return([]string{"t5"}, nil)
		notifier.On("SendRevokeDigest", ctx, mock.MatchedBy(func(c domain.Collection) bool { return c.Name == "cars" }),
			mock.MatchedBy(func(cs []service.RevokeCandidate) bool {
				return len(cs) == 1 && cs[0].Token.Address == "t5"
			})).Return(nil).Once()

		flagged, err := jr.sweepInvalidations(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, flagged)
		notifier.AssertExpectations(t)
	})

	t.Run("Concurrent run flagged everything", func(t *testing.T) {
		tokens, notifier := new(MockTokenRepo), new(MockNotificationService)
		jr := newTestRunner(tokens, notifier)
		tokens.On("ListByState", ctx, domain.TokenManagerStateClaimed).Return([]domain.TokenRecord{
			claimed("t1", "iss1", testNow.Unix()-10),
		}, nil)
		tokens.On("MarkEligible", ctx, []string{"t1"}, testNow).Return(nil, nil)

		flagged, err := jr.sweepInvalidations(ctx)
		require.NoError(t, err)
		assert.Zero(t, flagged)
		notifier.AssertNotCalled(t, "SendRevokeDigest", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Mark failure skips digests", func(t *testing.T) {
		tokens, notifier := new(MockTokenRepo), new(MockNotificationService)
		jr := newTestRunner(tokens, notifier)
		tokens.On("ListByState", ctx, domain.TokenManagerStateClaimed).Return([]domain.TokenRecord{
			claimed("t1", "iss1", testNow.Unix()-10),
		}, nil)
		tokens.On("MarkEligible", ctx, []string{"t1"}, testNow).Return(nil, errors.New("db down"))

		_, err := jr.sweepInvalidations(ctx)
		assert.Error(t, err)
		notifier.AssertNotCalled(t, "SendRevokeDigest", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Job swallows errors", func(t *testing.T) {
		tokens := new(MockTokenRepo)
		jr := newTestRunner(tokens, new(MockNotificationService))
		tokens.On("ListByState", mock.Anything, domain.TokenManagerStateClaimed).Return(nil, errors.New("db down"))

		assert.NotPanics(t, jr.SweepInvalidations)
	})
}

func TestPruneInvalidated(t *testing.T) {
	ctx := context.Background()
	tokens := new(MockTokenRepo)
	jr := newTestRunner(tokens, nil)

	cutoff := testNow.Add(-30 * 24 * time.Hour)
	tokens.On("DeleteInvalidatedBefore", ctx, cutoff).Return(int64(4), nil)

	deleted, err := jr.pruneInvalidated(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), deleted)

	jr.config.Retention.InvalidatedDays = 0
	deleted, err = jr.pruneInvalidated(ctx)
	require.NoError(t, err)
	assert.Zero(t, deleted)
	tokens.AssertNumberOfCalls(t, "DeleteInvalidatedBefore", 1)
}

func TestRunWithRecovery(t *testing.T) {
	jr := newTestRunner(new(MockTokenRepo), nil)
	assert.NotPanics(t, func() {
		jr.runWithRecovery("boom", func() { panic("boom") })
	})
}
