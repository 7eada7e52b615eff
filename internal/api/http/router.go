package http

import (
	"net/http"

	"rental-market-backend/internal/api/http/middleware"
	"rental-market-backend/internal/security"

	"github.com/gorilla/mux"
)

// NewRouter registers every route under its security route name.
func NewRouter(h *Handler, issuer security.TokenIssuer) *mux.Router {
	router := mux.NewRouter()
	auth := middleware.NewAuthMiddleware(issuer)
	router.Use(middleware.Recovery, middleware.Logging, auth.Handler)

	router.HandleFunc("/healthz", h.Health).Methods(http.MethodGet).Name("Health")

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/listings", h.ListListings).Methods(http.MethodGet).Name("ListListings")
	api.HandleFunc("/listings/{address}", h.GetListing).Methods(http.MethodGet).Name("GetListing")
	api.HandleFunc("/collections/{collection}/stats", h.GetCollectionStats).Methods(http.MethodGet).Name("GetCollectionStats")
	api.HandleFunc("/collections/{collection}/attributes", h.ListAttributes).Methods(http.MethodGet).Name("ListAttributes")
	api.HandleFunc("/issuers/{issuer}/tokens", h.ListIssuedTokens).Methods(http.MethodGet).Name("ListIssuedTokens")
	api.HandleFunc("/revocable", h.ListRevocable).Methods(http.MethodGet).Name("ListRevocable")
	api.HandleFunc("/payment-mints", h.ListPaymentMints).Methods(http.MethodGet).Name("ListPaymentMints")

	api.HandleFunc("/auth/token", h.IssueToken).Methods(http.MethodPost).Name("IssueToken")

	api.HandleFunc("/ingest/tokens", h.IngestTokens).Methods(http.MethodPut).Name("IngestTokens")
	api.HandleFunc("/ingest/payment-mints", h.IngestPaymentMints).Methods(http.MethodPut).Name("IngestPaymentMints")
	api.HandleFunc("/ingest/events", h.IngestEvents).Methods(http.MethodPost).Name("IngestEvents")

	return router
}
