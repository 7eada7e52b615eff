package security

import (
	"errors"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("token has expired")
	ErrWrongTokenType = errors.New("wrong token type for this endpoint")
	ErrMissingScope   = errors.New("token lacks the required scope")
)

type TokenType string

const (
	TokenTypeAccess TokenType = "access"
)

const ScopeIngest = "ingest"

const (
	issuer   = "rental-market"
	audience = "ingest-api"
)

// ClientClaims identifies an ingest client holding an access token
type ClientClaims struct {
	ClientID string    `json:"client_id"`
	Type     TokenType `json:"type"`
	Scope    []string  `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// HasScope reports whether the token grants scope
func (c *ClientClaims) HasScope(scope string) bool {
	return slices.Contains(c.Scope, scope)
}

type TokenIssuer interface {
	GenerateAccessToken(clientID string, scopes []string) (string, time.Time, error)
	ValidateToken(tokenString string) (*ClientClaims, error)
}

type tokenIssuer struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, expiry time.Duration) TokenIssuer {
	return &tokenIssuer{
		secret: []byte(secret),
		expiry: expiry,
		now:    time.Now,
	}
}

func (m *tokenIssuer) GenerateAccessToken(clientID string, scopes []string) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.expiry)
	claims := ClientClaims{
		ClientID: clientID,
		Type:     TokenTypeAccess,
		Scope:    scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   clientID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (m *tokenIssuer) ValidateToken(tokenString string) (*ClientClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ClientClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithAudience(audience))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*ClientClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != TokenTypeAccess {
		return nil, ErrWrongTokenType
	}
	if claims.ClientID == "" {
		claims.ClientID = claims.Subject
	}
	return claims, nil
}
