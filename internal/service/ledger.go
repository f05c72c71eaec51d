package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/msomdec/expense-tracker/internal/domain"
)

// LedgerOption configures a Ledger.
type LedgerOption func(*Ledger)

// WithSharedTransactions makes every user read and write the single shared
// transactions record instead of a per-user one.
func WithSharedTransactions() LedgerOption {
	return func(l *Ledger) { l.shared = true }
}

// WithLedgerClock sets the clock handed to the transaction stores.
func WithLedgerClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) { l.now = now }
}

// Ledger unlocks the transaction store belonging to the signed-in user.
type Ledger struct {
	auth   *AuthService
	store  domain.Storage
	shared bool
	now    func() time.Time

	mu     sync.Mutex
	stores map[string]*TransactionStore

	unsubscribe func()
}

// NewLedger creates a Ledger and subscribes it to auth.
func NewLedger(auth *AuthService, store domain.Storage, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		auth:   auth,
		store:  store,
		now:    time.Now,
		stores: make(map[string]*TransactionStore),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.unsubscribe = auth.Subscribe(l.onAuthEvent)
	return l
}

// Close stops listening for auth events.
func (l *Ledger) Close() {
	l.unsubscribe()
}

// ScopeKey returns the storage key of userID's transactions.
func (l *Ledger) ScopeKey(userID string) string {
	if l.shared {
		return domain.SharedTransactionsKey
	}
	return domain.TransactionsKey(userID)
}

// Transactions returns the store of the signed-in user. It fails with
// ErrUnauthorized when there is no valid session or its user is gone.
func (l *Ledger) Transactions(ctx context.Context) (*TransactionStore, error) {
	ok, err := l.auth.IsAuthenticated(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: sign in to continue", domain.ErrUnauthorized)
	}
	user, err := l.auth.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: account no longer exists", domain.ErrUnauthorized)
	}

	key := l.ScopeKey(user.ID)

	l.mu.Lock()
	defer l.mu.Unlock()
	if ts, ok := l.stores[key]; ok {
		return ts, nil
	}
	ts, err := NewTransactionStore(ctx, l.store, key, WithStoreClock(l.now))
	if err != nil {
		return nil, err
	}
	l.stores[key] = ts
	return ts, nil
}

func (l *Ledger) onAuthEvent(ev AuthEvent) {
	if ev.Authenticated() {
		return
	}
	l.mu.Lock()
	n := len(l.stores)
	clear(l.stores)
	l.mu.Unlock()
	slog.Debug("dropped cached transaction stores", "count", n)
}
