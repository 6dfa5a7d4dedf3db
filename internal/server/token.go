package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// sessionClaims is the signed payload of the session cookie.
type sessionClaims struct {
	CSRFToken string `json:"csrf"`
	jwt.RegisteredClaims
}

// tokenSigner signs and verifies session cookies with one HMAC secret.
type tokenSigner struct {
	secret []byte
}

func newTokenSigner(secret string) (tokenSigner, error) {
	if strings.TrimSpace(secret) == "" {
		return tokenSigner{}, errors.New("session secret is required")
	}
	return tokenSigner{secret: []byte(secret)}, nil
}

func (s tokenSigner) sign(csrf string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{CSRFToken: csrf})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return signed, nil
}

// verify returns the CSRF token carried by a signed session cookie.
func (s tokenSigner) verify(raw string) (string, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("verify session: %w", err)
	}
	if claims.CSRFToken == "" {
		return "", errors.New("verify session: missing csrf token")
	}
	return claims.CSRFToken, nil
}

// newHexID is a random 32-character hex identifier.
func newHexID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
