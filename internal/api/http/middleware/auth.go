package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"rental-market-backend/internal/config"
	"rental-market-backend/internal/logger"
	"rental-market-backend/internal/security"

	"github.com/gorilla/mux"
)

type contextKey string

const clientIDKey contextKey = "client-id"

// ClientIDFromContext returns the ingest client authenticated for the request.
func ClientIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(clientIDKey).(string)
	return id, ok && id != ""
}

type AuthMiddleware struct {
	issuer security.TokenIssuer
}

func NewAuthMiddleware(issuer security.TokenIssuer) *AuthMiddleware {
	return &AuthMiddleware{issuer: issuer}
}

// Handler enforces the security level registered for the matched route name.
func (a *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		routeName := ""
		if route := mux.CurrentRoute(r); route != nil {
			routeName = route.GetName()
		}

		level := config.GetSecurityLevel(routeName)
		if level == config.SecurityPublic {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := extractToken(r)
		if !ok {
			deny(w, http.StatusUnauthorized, "authorization token is not provided")
			return
		}

		claims, err := a.issuer.ValidateToken(token)
		if err != nil {
			logger.Warn("Rejected ingest token", "route", routeName, "error", err)
			deny(w, http.StatusUnauthorized, "invalid token")
			return
		}

		if level == config.SecurityIngest && !claims.HasScope(security.ScopeIngest) {
			deny(w, http.StatusForbidden, "ingest scope required")
			return
		}

		ctx := context.WithValue(r.Context(), clientIDKey, claims.ClientID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	// Remove Bearer prefix if present
	if len(header) > 7 && strings.ToUpper(header[0:7]) == "BEARER " {
		header = header[7:]
	}
	return header, header != ""
}

func deny(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
