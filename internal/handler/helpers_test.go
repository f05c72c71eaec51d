package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/msomdec/expense-tracker/internal/handler"
	"github.com/msomdec/expense-tracker/internal/repository/sqlite"
	"github.com/msomdec/expense-tracker/internal/service"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret-for-handler-tests-0123456789"

type testEnv struct {
	auth   *service.AuthService
	ledger *service.Ledger
	tokens *service.TokenIssuer
	srv    *httptest.Server
	client *http.Client
}

func newTestServices(t *testing.T) (*service.AuthService, *service.Ledger, *service.TokenIssuer) {
	t.Helper()
	db, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(context.Background()))
	t.Cleanup(func() { db.Close() })

	auth := service.NewAuthService(db.Records())
	ledger := service.NewLedger(auth, db.Records())
	t.Cleanup(ledger.Close)
	return auth, ledger, service.NewTokenIssuer(testJWTSecret, 0)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	auth, ledger, tokens := newTestServices(t)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, auth, ledger, tokens, false)
	srv := httptest.NewServer(handler.SecurityHeaders(mux))
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testEnv{
		auth:   auth,
		ledger: ledger,
		tokens: tokens,
		srv:    srv,
		client: &http.Client{Jar: jar},
	}
}

// do sends a JSON request and decodes a JSON response into out when non-nil.
func (e *testEnv) do(t *testing.T, method, path string, body, out any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func (e *testEnv) register(t *testing.T) {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/auth/register", map[string]any{
		"name":            "Alice",
		"email":           "alice@example.com",
		"password":        "password123",
		"confirmPassword": "password123",
		"termsAccepted":   true,
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

type errorBody struct {
	Error string `json:"error"`
}
