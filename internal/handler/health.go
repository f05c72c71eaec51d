package handler

import (
	"log/slog"
	"net/http"

	"github.com/msomdec/expense-tracker/internal/service"
)

// HandleHealthz reports whether the profile store can be read.
// GET /healthz
// Response: {"status":"ok"} or 503 {"status":"unavailable"}
func HandleHealthz(auth *service.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := auth.Users(r.Context()); err != nil {
			slog.Error("health check: read profile", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
