package handler

import (
	"context"
	"net/http"

	"github.com/msomdec/expense-tracker/internal/domain"
	"github.com/msomdec/expense-tracker/internal/service"
)

type contextKey string

const userContextKey contextKey = "user"

// UserFromContext extracts the authenticated user from the request context.
// Returns nil if no user is authenticated.
func UserFromContext(ctx context.Context) *domain.User {
	user, _ := ctx.Value(userContextKey).(*domain.User)
	return user
}

// RequireAuth is middleware that protects routes requiring authentication.
// The auth_token cookie must carry a valid JWT whose subject is the user of
// the profile's current, unexpired session. That user is injected into the
// request context. Returns 401 otherwise.
func RequireAuth(auth *service.AuthService, tokens *service.TokenIssuer, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := authenticateRequest(r, auth, tokens)
		if err != nil {
			writeServiceError(w, "authenticate request", err)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func authenticateRequest(r *http.Request, auth *service.AuthService, tokens *service.TokenIssuer) (*domain.User, error) {
	cookie, err := r.Cookie(authCookieName)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}

	userID, err := tokens.Validate(cookie.Value)
	if err != nil {
		return nil, err
	}

	ok, err := auth.IsAuthenticated(r.Context())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	user, err := auth.CurrentUser(r.Context())
	if err != nil {
		return nil, err
	}
	if user == nil || user.ID != userID {
		return nil, domain.ErrUnauthorized
	}
	return user, nil
}

// SecurityHeaders sets conservative response headers on every request.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
