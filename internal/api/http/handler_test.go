package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"rental-market-backend/internal/domain"
	"rental-market-backend/internal/pricing"
	"rental-market-backend/internal/security"
	"rental-market-backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type MockBrowseService struct {
	mock.Mock
}

func (m *MockBrowseService) ListListings(ctx context.Context, query service.ListingQuery) (*service.ListingPage, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ListingPage), args.Error(1)
}
func (m *MockBrowseService) GetListing(ctx context.Context, address, caller string, unit domain.RateUnit) (*service.Listing, error) {
	args := m.Called(ctx, address, caller, unit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Listing), args.Error(1)
}
func (m *MockBrowseService) Attributes(ctx context.Context, collection string) (map[string][]string, error) {
	args := m.Called(ctx, collection)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string][]string), args.Error(1)
}
func (m *MockBrowseService) Stats(ctx context.Context, collection string) (*service.CollectionStats, error) {
	args := m.Called(ctx, collection)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CollectionStats), args.Error(1)
}
func (m *MockBrowseService) PaymentMints(ctx context.Context) (domain.PaymentMints, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.PaymentMints), args.Error(1)
}

type MockManageService struct {
	mock.Mock
}

func (m *MockManageService) ListIssued(ctx context.Context, issuer, caller string) ([]service.Listing, error) {
	args := m.Called(ctx, issuer, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.Listing), args.Error(1)
}
func (m *MockManageService) ListRevocable(ctx context.Context, caller string) ([]service.Listing, error) {
	args := m.Called(ctx, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.Listing), args.Error(1)
}

type MockIngestService struct {
	mock.Mock
}

func (m *MockIngestService) UpsertTokens(ctx context.Context, clientID string, req *service.UpsertTokensRequest) (*service.IngestResult, error) {
	args := m.Called(ctx, clientID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.IngestResult), args.Error(1)
}
func (m *MockIngestService) UpsertPaymentMints(ctx context.Context, clientID string, req *service.UpsertPaymentMintsRequest) (*service.IngestResult, error) {
	args := m.Called(ctx, clientID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.IngestResult), args.Error(1)
}
func (m *MockIngestService) RecordEvents(ctx context.Context, clientID string, req *service.RecordEventsRequest) (*service.IngestResult, error) {
	args := m.Called(ctx, clientID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.IngestResult), args.Error(1)
}

type stubHealth struct {
	err error
}

func (s stubHealth) Ping(ctx context.Context) error { return s.err }

type testServer struct {
	router http.Handler
	browse *MockBrowseService
	manage *MockManageService
	ingest *MockIngestService
	issuer security.TokenIssuer
}

func newTestServer(t *testing.T, health HealthChecker) *testServer {
	t.Helper()
	hash, err := security.HashAPIKey("indexer-key")
	require.NoError(t, err)

	ts := &testServer{
		browse: new(MockBrowseService),
		manage: new(MockManageService),
		ingest: new(MockIngestService),
		issuer: security.NewTokenIssuer(testSecret, time.Hour),
	}
	verifier := security.NewKeyVerifier(map[string]string{"indexer": hash})
	h := NewHandler(ts.browse, ts.manage, ts.ingest, ts.issuer, verifier, health)
	ts.router = NewRouter(h, ts.issuer)
	return ts
}

func (ts *testServer) do(method, target, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func TestListListingsHandler(t *testing.T) {
	ts := newTestServer(t, nil)

	t.Run("Parses query", func(t *testing.T) {
		expected := service.ListingQuery{
			Collection: "cars",
			Order:      pricing.OrderRateLowToHigh,
			Unit:       domain.RateUnitWeeks,
			Caller:     "wallet1",
			Attributes: map[string][]string{"color": {"red", "blue"}},
			Page:       2,
			PageSize:   10,
		}
		ts.browse.On("ListListings", mock.Anything, expected).
			Return(&service.ListingPage{Total: 0, Page: 2, PageSize: 10, Listings: []service.Listing{}}, nil).Once()

		rec := ts.do(http.MethodGet,
			"/api/v1/listings?collection=cars&order=rate_asc&unit=weeks&caller=wallet1&attr.color=red&attr.color=blue&page=2&page_size=10", "", "")
		assert.Equal(t, http.StatusOK, rec.Code)

		var body service.ListingPage
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, 2, body.Page)
	})

	t.Run("Bad unit", func(t *testing.T) {
		rec := ts.do(http.MethodGet, "/api/v1/listings?unit=fortnights", "", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Unknown collection", func(t *testing.T) {
		ts.browse.On("ListListings", mock.Anything, mock.MatchedBy(func(q service.ListingQuery) bool {
			return q.Collection == "boats"
		})).Return(nil, service.ErrUnknownCollection).Once()

		rec := ts.do(http.MethodGet, "/api/v1/listings?collection=boats", "", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestGetListingHandler(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.browse.On("GetListing", mock.Anything, "missing", "", domain.RateUnit("")).Return(nil, service.ErrNotFound)
	ts.browse.On("GetListing", mock.Anything, "broken", "", domain.RateUnit("")).Return(nil, errors.New("db down"))

	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/api/v1/listings/missing", "", "").Code)

	rec := ts.do(http.MethodGet, "/api/v1/listings/broken", "", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db down")
}

func TestIngestAuth(t *testing.T) {
	ts := newTestServer(t, nil)
	body := `{"tokens":[{"address":"tA","mint":"m","issuer":"iss1","state":"ISSUED"}]}`

	t.Run("Missing token", func(t *testing.T) {
		rec := ts.do(http.MethodPut, "/api/v1/ingest/tokens", body, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Garbage token", func(t *testing.T) {
		rec := ts.do(http.MethodPut, "/api/v1/ingest/tokens", body, "garbage")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Missing scope", func(t *testing.T) {
		token, _, err := ts.issuer.GenerateAccessToken("indexer", nil)
		require.NoError(t, err)
		rec := ts.do(http.MethodPut, "/api/v1/ingest/tokens", body, token)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("Accepted", func(t *testing.T) {
		token, _, err := ts.issuer.GenerateAccessToken("indexer", []string{security.ScopeIngest})
		require.NoError(t, err)
		ts.ingest.On("UpsertTokens", mock.Anything, "indexer", mock.MatchedBy(func(req *service.UpsertTokensRequest) bool {
			return len(req.Tokens) == 1 && req.Tokens[0].State == domain.TokenManagerStateIssued
		})).Return(&service.IngestResult{BatchID: "b1", Accepted: 1}, nil).Once()

		rec := ts.do(http.MethodPut, "/api/v1/ingest/tokens", body, token)
		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.Contains(t, rec.Body.String(), `"batch_id":"b1"`)
	})

	t.Run("Validation error", func(t *testing.T) {
		token, _, err := ts.issuer.GenerateAccessToken("indexer", []string{security.ScopeIngest})
		require.NoError(t, err)
		ts.ingest.On("RecordEvents", mock.Anything, "indexer", mock.Anything).
			Return(nil, service.ErrInvalidArgument).Once()

		rec := ts.do(http.MethodPost, "/api/v1/ingest/events", `{"events":[]}`, token)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Unknown fields rejected", func(t *testing.T) {
		token, _, err := ts.issuer.GenerateAccessToken("indexer", []string{security.ScopeIngest})
		require.NoError(t, err)
		rec := ts.do(http.MethodPut, "/api/v1/ingest/payment-mints", `{"mints":[]}`, token)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestIssueTokenHandler(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodPost, "/api/v1/auth/token", `{"client_id":"indexer","api_key":"indexer-key"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp issueTokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Bearer", resp.TokenType)
	claims, err := ts.issuer.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.True(t, claims.HasScope(security.ScopeIngest))

	rec = ts.do(http.MethodPost, "/api/v1/auth/token", `{"client_id":"indexer","api_key":"wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthHandler(t *testing.T) {
	assert.Equal(t, http.StatusOK, newTestServer(t, stubHealth{}).do(http.MethodGet, "/healthz", "", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable,
		newTestServer(t, stubHealth{err: errors.New("down")}).do(http.MethodGet, "/healthz", "", "").Code)
}

func TestManageHandlers(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.manage.On("ListIssued", mock.Anything, "iss1", "wallet1").Return([]service.Listing{{Token: domain.TokenRecord{Address: "tA"}}}, nil)
	ts.manage.On("ListRevocable", mock.Anything, "").Return(nil, service.ErrInvalidArgument)

	rec := ts.do(http.MethodGet, "/api/v1/issuers/iss1/tokens?caller=wallet1", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"address":"tA"`)

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/api/v1/revocable", "", "").Code)
}
