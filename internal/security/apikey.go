package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid client credentials")

// KeyVerifier checks ingest API keys against configured bcrypt hashes
type KeyVerifier struct {
	hashes map[string]string
}

func NewKeyVerifier(hashes map[string]string) *KeyVerifier {
	return &KeyVerifier{hashes: hashes}
}

// Verify returns ErrInvalidCredentials for unknown clients and wrong keys alike
func (v *KeyVerifier) Verify(clientID, apiKey string) error {
	hash, ok := v.hashes[clientID]
	if !ok || apiKey == "" {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(apiKey)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// HashAPIKey produces the value stored as api_key_hash in the config
func HashAPIKey(apiKey string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(apiKey), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
