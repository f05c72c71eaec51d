package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/msomdec/expense-tracker/internal/domain"
)

// DefaultTokenTTL bounds tokens for sessions that never expire.
const DefaultTokenTTL = 24 * time.Hour

const tokenIssuer = "expense-tracker"

// TokenIssuer signs the HTTP auth cookie for a session.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates an issuer. ttl applies to sessions without an
// expiry; zero selects DefaultTokenTTL.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed token for session and its expiry. The token never
// outlives the session.
func (t *TokenIssuer) Issue(session *domain.Session) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(t.ttl)
	if session.ExpiresAt != nil {
		exp = *session.ExpiresAt
	}
	claims := jwt.MapClaims{
		"iss":   tokenIssuer,
		"sub":   session.UserID,
		"email": session.Email,
		"name":  session.Name,
		"iat":   now.Unix(),
		"exp":   exp.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Validate parses a token and returns the user id from its sub claim.
func (t *TokenIssuer) Validate(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(t.now))
	if err != nil || !token.Valid {
		return "", domain.ErrUnauthorized
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", domain.ErrUnauthorized
	}
	return sub, nil
}
