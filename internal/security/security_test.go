package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokenIssuer(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)

	t.Run("Round trip", func(t *testing.T) {
		token, expiresAt, err := issuer.GenerateAccessToken("indexer", []string{ScopeIngest})
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

		claims, err := issuer.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, "indexer", claims.ClientID)
		assert.True(t, claims.HasScope(ScopeIngest))
		assert.NotEmpty(t, claims.ID)
	})

	t.Run("Wrong secret", func(t *testing.T) {
		other := NewTokenIssuer("ffffffffffffffffffffffffffffffff", time.Hour)
		token, _, err := other.GenerateAccessToken("indexer", nil)
		require.NoError(t, err)

		_, err = issuer.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Expired", func(t *testing.T) {
		expired := &tokenIssuer{
			secret: []byte(testSecret),
			expiry: time.Minute,
			now:    func() time.Time { return time.Now().Add(-time.Hour) },
		}
		token, _, err := expired.GenerateAccessToken("indexer", nil)
		require.NoError(t, err)

		_, err = issuer.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("Wrong type", func(t *testing.T) {
		claims := ClientClaims{
			ClientID: "indexer",
			Type:     "refresh",
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "rental-market",
				Audience:  jwt.ClaimStrings{"ingest-api"},
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = issuer.ValidateToken(token)
		assert.ErrorIs(t, err, ErrWrongTokenType)
	})

	t.Run("Wrong audience", func(t *testing.T) {
		for _, aud := range []jwt.ClaimStrings{nil, {"admin-api"}} {
			claims := ClientClaims{
				ClientID: "indexer",
				Type:     TokenTypeAccess,
				Scope:    []string{ScopeIngest},
				RegisteredClaims: jwt.RegisteredClaims{
					Issuer:    "rental-market",
					Audience:  aud,
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
				},
			}
			token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
			require.NoError(t, err)

			_, err = issuer.ValidateToken(token)
			assert.ErrorIs(t, err, ErrInvalidToken, "audience %v", aud)
		}
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := issuer.ValidateToken("not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestKeyVerifier(t *testing.T) {
	hash, err := HashAPIKey("secret-key")
	require.NoError(t, err)
	verifier := NewKeyVerifier(map[string]string{"indexer": hash})

	assert.NoError(t, verifier.Verify("indexer", "secret-key"))
	assert.ErrorIs(t, verifier.Verify("indexer", "wrong"), ErrInvalidCredentials)
	assert.ErrorIs(t, verifier.Verify("unknown", "secret-key"), ErrInvalidCredentials)
	assert.ErrorIs(t, verifier.Verify("indexer", ""), ErrInvalidCredentials)
}
