// Package auth provides session tokens, password hashing, and the HTTP
// authentication middleware.
//
// SESSION MODEL:
// A successful signup or login issues a signed JWT carried in an HttpOnly
// cookie. Verification is stateless — signature plus expiry, no session
// table. The trade-off is that logout can only clear the client's copy;
// a stolen token stays valid until its natural expiry.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "converse"

// DefaultTokenTTL is how long a session stays valid: 3 days.
const DefaultTokenTTL = 72 * time.Hour

// TokenService mints and verifies session tokens.
//
// Both the signing secret and the TTL are constructor arguments — no
// ambient environment lookups. The same secret signs and verifies, so a
// restart with a new secret invalidates every outstanding session.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService. The secret should be at least
// 32 bytes of random data in production (openssl rand -hex 32); anything
// under 16 characters is rejected outright.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: token TTL must be positive")
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// TTL reports the configured session lifetime. Handlers use it to set the
// cookie Max-Age so the cookie and the token expire together.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// sessionClaims carries the identity inside the token: the user id in the
// standard "sub" claim plus the email as a custom claim.
type sessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Issue creates a signed session token for the given user.
// Pure computation — no side effects, no storage.
func (s *TokenService) Issue(email, userID string) (string, error) {
	now := time.Now()

	c := sessionClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate verifies a token string and returns the userID it encodes.
//
// Pinning the algorithm with WithValidMethods blocks algorithm-confusion
// tricks ("alg":"none" and friends); WithExpirationRequired rejects tokens
// that were minted without an expiry.
//
// Any failure — malformed, tampered, expired, wrong issuer — comes back as
// an error, never a panic. The middleware decides what status that maps to.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&sessionClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}

	return c.Subject, nil
}
