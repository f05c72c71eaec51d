package handler

import (
	"log/slog"
	"net/http"

	"github.com/msomdec/expense-tracker/internal/domain"
	"github.com/msomdec/expense-tracker/internal/service"
	"github.com/starfederation/datastar-go/datastar"
)

// AuthSignals is the signal payload pushed on /api/events.
type AuthSignals struct {
	Authenticated bool        `json:"authenticated"`
	User          *UserDTO    `json:"user,omitempty"`
	Summary       *SummaryDTO `json:"summary,omitempty"`
}

// EventsHandler streams auth state changes as Datastar signal patches.
type EventsHandler struct {
	auth   *service.AuthService
	ledger *service.Ledger
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(auth *service.AuthService, ledger *service.Ledger) *EventsHandler {
	return &EventsHandler{auth: auth, ledger: ledger}
}

// HandleEvents keeps an SSE stream open and patches the authenticated and
// summary signals whenever the profile's session changes. The stream ends
// after a logout or once another user signs in.
// GET /api/events
func (h *EventsHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	owner := UserFromContext(r.Context())
	events := make(chan service.AuthEvent, 8)
	unsubscribe := h.auth.Subscribe(func(ev service.AuthEvent) {
		select {
		case events <- ev:
		default:
			slog.Warn("dropping auth event for slow listener", "kind", ev.Kind)
		}
	})
	defer unsubscribe()

	sse := datastar.NewSSE(w, r)
	if err := sse.MarshalAndPatchSignals(h.snapshot(r, owner)); err != nil {
		slog.Error("patch auth signals", "error", err)
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-events:
			if !ev.Authenticated() || owner == nil || ev.UserID != owner.ID {
				if err := sse.MarshalAndPatchSignals(AuthSignals{Authenticated: false}); err != nil {
					slog.Error("patch auth signals", "error", err)
				}
				return
			}
			if err := sse.MarshalAndPatchSignals(h.snapshot(r, owner)); err != nil {
				slog.Error("patch auth signals", "error", err)
				return
			}
		}
	}
}

// snapshot reports owner's state, or signed out when the profile's current
// user is someone else.
func (h *EventsHandler) snapshot(r *http.Request, owner *domain.User) AuthSignals {
	ctx := r.Context()
	user, err := h.auth.CurrentUser(ctx)
	if err != nil || user == nil || owner == nil || user.ID != owner.ID {
		return AuthSignals{Authenticated: false}
	}
	dto := toUserDTO(user)
	signals := AuthSignals{Authenticated: true, User: &dto}

	if txs, err := h.ledger.Transactions(ctx); err == nil {
		summary := toSummaryDTO(txs.Summarize())
		signals.Summary = &summary
	}
	return signals
}
