package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var errInvalidToken = errors.New("invalid session token")

// sessionClaims is the payload of the session cookie. The cookie carries the
// session id only; the user id stays in the session store.
type sessionClaims struct {
	jwt.RegisteredClaims
}

// tokenSigner signs session ids into cookie values with SESSION_SECRET so a
// forged cookie is rejected before any store lookup.
type tokenSigner struct {
	secret []byte
	ttl    time.Duration
}

func newTokenSigner(secret string, ttl time.Duration) *tokenSigner {
	return &tokenSigner{secret: []byte(secret), ttl: ttl}
}

func (s *tokenSigner) sign(sessionID string, now time.Time) (string, error) {
	claims := sessionClaims{jwt.RegisteredClaims{
		ID:        sessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return token, nil
}

// parse returns the session id of a valid, unexpired token.
func (s *tokenSigner) parse(token string) (string, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("%w: %v", errInvalidToken, err)
	}
	if claims.ID == "" {
		return "", errInvalidToken
	}
	return claims.ID, nil
}
