// Package auth issues and checks session tokens, hashes passwords and runs
// the GitHub sign-in flow.
//
// SIGN-IN FLOW:
//  1. POST /api/auth/login (or /register) checks the password, or the user
//     comes back from GitHub to /auth/github/callback with a code
//  2. The service issues a JWT whose subject is the user ID
//  3. The handler puts it in the HttpOnly "token" cookie
//  4. On every API call RequireAuth reads the cookie, validates the token
//     and stores the user ID in the request context
//
// STATELESS SESSIONS:
// The server keeps no session table. Everything a request needs (who, until
// when) is inside the signed token, and checking it costs an HMAC, not a
// database round trip. The price: a token cannot be revoked before it
// expires. Signing out removes the cookie; a copied token keeps working
// until its exp claim.
//
// TOKEN LAYOUT (three base64url parts joined by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	header:    {"alg":"HS256","typ":"JWT"}
//	payload:   {"sub":"<user id>","iss":"ideaforge","iat":...,"exp":...}
//	signature: HMAC-SHA256(header + "." + payload, secret)
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer = "ideaforge"

	// DefaultSessionTTL is how long a session cookie stays valid.
	DefaultSessionTTL = 24 * time.Hour
)

// ErrTokenExpired is returned by Validate for a well-formed but expired token.
var ErrTokenExpired = errors.New("auth: token expired")

// TokenService signs and verifies session tokens with one HMAC secret.
//
// HS256 is symmetric: the key that signs is the key that verifies. That
// suits a single server. Changing JWT_SECRET signs everybody out.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService rejects secrets shorter than 16 characters. A zero ttl
// means DefaultSessionTTL.
//
// Generate a production secret with: openssl rand -hex 32
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// TTL is the lifetime of the tokens Generate issues.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// claims only uses the registered fields. "sub" is the standard claim for
// whom a token belongs to, so the user ID goes there.
type claims struct {
	jwt.RegisteredClaims
}

// Generate issues a session token for userID.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.GenerateWithDuration(userID, s.ttl)
}

// GenerateWithDuration issues a token that expires after d. Tests use a
// negative d to get an already expired token.
func (s *TokenService) GenerateWithDuration(userID string, d time.Duration) (string, error) {
	now := time.Now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate verifies signature, algorithm, issuer and expiry, and returns
// the user ID held in the subject claim.
//
// ALGORITHM PINNING:
// The key func refuses anything but HMAC, and WithValidMethods narrows it
// to HS256. Without this a forged token with "alg":"none" or an RSA header
// could be checked against the wrong kind of key.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
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
			return "", ErrTokenExpired
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", errors.New("auth: invalid token claims")
	}
	if c.Subject == "" {
		return "", errors.New("auth: token has no subject")
	}
	return c.Subject, nil
}
