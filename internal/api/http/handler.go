package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"rental-market-backend/internal/api/http/middleware"
	"rental-market-backend/internal/domain"
	"rental-market-backend/internal/pricing"
	"rental-market-backend/internal/security"
	"rental-market-backend/internal/service"

	"github.com/gorilla/mux"
)

const (
	maxIngestBody   = 8 << 20
	attrQueryPrefix = "attr."
)

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	browse   service.BrowseService
	manage   service.ManageService
	ingest   service.IngestService
	issuer   security.TokenIssuer
	verifier *security.KeyVerifier
	health   HealthChecker
}

func NewHandler(
	browse service.BrowseService,
	manage service.ManageService,
	ingest service.IngestService,
	issuer security.TokenIssuer,
	verifier *security.KeyVerifier,
	health HealthChecker,
) *Handler {
	return &Handler{
		browse:   browse,
		manage:   manage,
		ingest:   ingest,
		issuer:   issuer,
		verifier: verifier,
		health:   health,
	}
}

func (h *Handler) ListListings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	unit, err := domain.ParseRateUnit(q.Get("unit"), "")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	page, err := intParam(q.Get("page"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid page")
		return
	}
	pageSize, err := intParam(q.Get("page_size"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid page_size")
		return
	}

	attrs := map[string][]string{}
	for key, values := range q {
		if trait := strings.TrimPrefix(key, attrQueryPrefix); trait != key && trait != "" {
			attrs[trait] = append(attrs[trait], values...)
		}
	}

	result, err := h.browse.ListListings(r.Context(), service.ListingQuery{
		Collection: q.Get("collection"),
		Order:      pricing.OrderCategory(q.Get("order")),
		Unit:       unit,
		Caller:     q.Get("caller"),
		Attributes: attrs,
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) GetListing(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	unit, err := domain.ParseRateUnit(q.Get("unit"), "")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	listing, err := h.browse.GetListing(r.Context(), mux.Vars(r)["address"], q.Get("caller"), unit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (h *Handler) GetCollectionStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.browse.Stats(r.Context(), mux.Vars(r)["collection"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) ListAttributes(w http.ResponseWriter, r *http.Request) {
	attrs, err := h.browse.Attributes(r.Context(), mux.Vars(r)["collection"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"attributes": attrs})
}

func (h *Handler) ListPaymentMints(w http.ResponseWriter, r *http.Request) {
	mints, err := h.browse.PaymentMints(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"payment_mints": mints})
}

func (h *Handler) ListIssuedTokens(w http.ResponseWriter, r *http.Request) {
	listings, err := h.manage.ListIssued(r.Context(), mux.Vars(r)["issuer"], r.URL.Query().Get("caller"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tokens": listings})
}

func (h *Handler) ListRevocable(w http.ResponseWriter, r *http.Request) {
	listings, err := h.manage.ListRevocable(r.Context(), r.URL.Query().Get("caller"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tokens": listings})
}

type issueTokenRequest struct {
	ClientID string `json:"client_id"`
	APIKey   string `json:"api_key"`
}

type issueTokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (h *Handler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req issueTokenRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.verifier.Verify(req.ClientID, req.APIKey); err != nil {
		writeServiceError(w, r, err)
		return
	}

	token, expiresAt, err := h.issuer.GenerateAccessToken(req.ClientID, []string{security.ScopeIngest})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, issueTokenResponse{AccessToken: token, TokenType: "Bearer", ExpiresAt: expiresAt})
}

func (h *Handler) IngestTokens(w http.ResponseWriter, r *http.Request) {
	var req service.UpsertTokensRequest
	if !decodeIngest(w, r, &req) {
		return
	}
	clientID, _ := middleware.ClientIDFromContext(r.Context())
	res, err := h.ingest.UpsertTokens(r.Context(), clientID, &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, res)
}

func (h *Handler) IngestPaymentMints(w http.ResponseWriter, r *http.Request) {
	var req service.UpsertPaymentMintsRequest
	if !decodeIngest(w, r, &req) {
		return
	}
	clientID, _ := middleware.ClientIDFromContext(r.Context())
	res, err := h.ingest.UpsertPaymentMints(r.Context(), clientID, &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, res)
}

func (h *Handler) IngestEvents(w http.ResponseWriter, r *http.Request) {
	var req service.RecordEventsRequest
	if !decodeIngest(w, r, &req) {
		return
	}
	clientID, _ := middleware.ClientIDFromContext(r.Context())
	res, err := h.ingest.RecordEvents(r.Context(), clientID, &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, res)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.health.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeIngest(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxIngestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
