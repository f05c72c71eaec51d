package handler

import (
	"net/http"

	"github.com/msomdec/expense-tracker/internal/service"
)

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, auth *service.AuthService, ledger *service.Ledger, tokens *service.TokenIssuer, cookieSecure bool) {
	authHandler := NewAuthHandler(auth, tokens, cookieSecure)
	txHandler := NewTransactionHandler(ledger)
	eventsHandler := NewEventsHandler(auth, ledger)

	protected := func(h http.HandlerFunc) http.Handler {
		return RequireAuth(auth, tokens, h)
	}

	mux.HandleFunc("GET /healthz", HandleHealthz(auth))
	mux.HandleFunc("GET /api/categories", HandleCategories)

	mux.HandleFunc("POST /api/auth/register", authHandler.HandleRegister)
	mux.HandleFunc("POST /api/auth/login", authHandler.HandleLogin)
	mux.HandleFunc("POST /api/auth/logout", authHandler.HandleLogout)
	mux.Handle("GET /api/auth/me", protected(authHandler.HandleMe))
	mux.Handle("GET /api/events", protected(eventsHandler.HandleEvents))

	mux.Handle("GET /api/transactions", protected(txHandler.HandleList))
	mux.Handle("POST /api/transactions", protected(txHandler.HandleCreate))
	mux.Handle("GET /api/transactions/recent", protected(txHandler.HandleRecent))
	mux.Handle("GET /api/transactions/{id}", protected(txHandler.HandleGet))
	mux.Handle("PUT /api/transactions/{id}", protected(txHandler.HandleUpdate))
	mux.Handle("DELETE /api/transactions/{id}", protected(txHandler.HandleDelete))

	mux.Handle("GET /api/summary", protected(txHandler.HandleSummary))
	mux.Handle("GET /api/charts/daily", protected(txHandler.HandleDailyChart))
	mux.Handle("GET /api/charts/categories", protected(txHandler.HandleCategoryChart))
	mux.Handle("GET /api/export/csv", protected(txHandler.HandleExportCSV))
	mux.Handle("GET /api/export/xlsx", protected(txHandler.HandleExportXLSX))
}
