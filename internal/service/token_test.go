package service_test

import (
	"strings"
	"testing"
	"time"

	"github.com/msomdec/expense-tracker/internal/domain"
	"github.com/msomdec/expense-tracker/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret-key-for-unit-tests-0123456789"

func TestTokenIssuer_IssueAndValidate(t *testing.T) {
	issuer := service.NewTokenIssuer(testJWTSecret, 0)
	session := &domain.Session{UserID: "user-1", Email: "a@example.com", Name: "A"}

	token, exp, err := issuer.Issue(session)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(service.DefaultTokenTTL), exp, time.Minute)

	userID, err := issuer.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestTokenIssuer_ExpiryFollowsSession(t *testing.T) {
	issuer := service.NewTokenIssuer(testJWTSecret, time.Hour)
	sessionExp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	session := &domain.Session{UserID: "user-1", ExpiresAt: &sessionExp}

	_, exp, err := issuer.Issue(session)
	require.NoError(t, err)
	assert.Equal(t, sessionExp, exp)
}

func TestTokenIssuer_Rejects(t *testing.T) {
	issuer := service.NewTokenIssuer(testJWTSecret, 0)
	token, _, err := issuer.Issue(&domain.Session{UserID: "user-1"})
	require.NoError(t, err)

	past := time.Now().Add(-time.Minute)
	expired, _, err := issuer.Issue(&domain.Session{UserID: "user-1", ExpiresAt: &past})
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	other := service.NewTokenIssuer("another-secret-key-for-unit-tests-98765", 0)

	for name, tok := range map[string]string{
		"garbage":      "not-a-token",
		"tampered":     tampered,
		"expired":      expired,
		"wrong secret": mustIssue(t, other),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := issuer.Validate(tok)
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
		})
	}
}

func mustIssue(t *testing.T, issuer *service.TokenIssuer) string {
	t.Helper()
	token, _, err := issuer.Issue(&domain.Session{UserID: "user-1"})
	require.NoError(t, err)
	return token
}
