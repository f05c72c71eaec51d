package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/msomdec/expense-tracker/internal/service"
)

const authCookieName = "auth_token"

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	auth         *service.AuthService
	tokens       *service.TokenIssuer
	cookieSecure bool
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService, tokens *service.TokenIssuer, cookieSecure bool) *AuthHandler {
	return &AuthHandler{auth: auth, tokens: tokens, cookieSecure: cookieSecure}
}

// HandleRegister processes a JSON registration request and signs the new
// user in.
// POST /api/auth/register
// Request:  {"name":"...","email":"...","password":"...","confirmPassword":"...","termsAccepted":true}
// Response: 201 {"user": {...}}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name            string `json:"name"`
		Email           string `json:"email"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
		TermsAccepted   bool   `json:"termsAccepted"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	user, err := h.auth.Register(r.Context(), req.Name, req.Email, req.Password, req.ConfirmPassword, req.TermsAccepted)
	if err != nil {
		writeServiceError(w, "register user", err)
		return
	}
	if !h.setSessionCookie(w, r) {
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"user": toUserDTO(user),
	})
}

// HandleLogin processes a JSON login request.
// POST /api/auth/login
// Request:  {"email":"...","password":"...","rememberMe":false}
// Response: {"user": {...}}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email      string `json:"email"`
		Password   string `json:"password"`
		RememberMe bool   `json:"rememberMe"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	user, err := h.auth.Login(r.Context(), req.Email, req.Password, req.RememberMe)
	if err != nil {
		writeServiceError(w, "login user", err)
		return
	}
	if !h.setSessionCookie(w, r) {
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user": toUserDTO(user),
	})
}

// HandleLogout ends the session and clears the auth cookie.
// POST /api/auth/logout
// Response: 204 No Content
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context()); err != nil {
		writeServiceError(w, "logout user", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})

	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the currently authenticated user.
// GET /api/auth/me
// Response: {"user": {...}, "expiresAt": "..."|null} or 401
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated.")
		return
	}

	var expiresAt *string
	if session, err := h.auth.CurrentSession(r.Context()); err == nil && session != nil && session.ExpiresAt != nil {
		s := session.ExpiresAt.Format(time.RFC3339)
		expiresAt = &s
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":      toUserDTO(user),
		"expiresAt": expiresAt,
	})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, r *http.Request) bool {
	session, err := h.auth.CurrentSession(r.Context())
	if err != nil || session == nil {
		slog.Error("load session after login", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return false
	}

	token, exp, err := h.tokens.Issue(session)
	if err != nil {
		slog.Error("issue auth token", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return false
	}

	cookie := &http.Cookie{
		Name:     authCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	// Transient sessions get a browser-session cookie.
	if session.ExpiresAt != nil {
		cookie.Expires = exp
	}
	http.SetCookie(w, cookie)
	return true
}
