package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/expense-tracker/internal/domain"
)

// DefaultRememberTTL is the lifetime of a session created with remember-me.
const DefaultRememberTTL = 30 * 24 * time.Hour

// MinPasswordLength is the shortest password Register accepts.
const MinPasswordLength = 8

// AuthEventKind names an auth state transition.
type AuthEventKind string

const (
	EventLogin  AuthEventKind = "login"
	EventLogout AuthEventKind = "logout"
)

// AuthEvent is delivered to subscribers whenever the session changes.
type AuthEvent struct {
	Kind   AuthEventKind
	UserID string
}

// Authenticated reports whether the event leaves a user signed in.
func (e AuthEvent) Authenticated() bool { return e.Kind == EventLogin }

// AuthOption configures an AuthService.
type AuthOption func(*AuthService)

// WithTransientSessionTTL sets the lifetime of sessions created without
// remember-me. Zero keeps them valid until logout.
func WithTransientSessionTTL(d time.Duration) AuthOption {
	return func(s *AuthService) { s.transientTTL = d }
}

// WithRememberTTL overrides DefaultRememberTTL.
func WithRememberTTL(d time.Duration) AuthOption {
	return func(s *AuthService) { s.rememberTTL = d }
}

// WithPasswordHasher replaces the default PlainPasswords.
func WithPasswordHasher(h PasswordHasher) AuthOption {
	return func(s *AuthService) { s.hasher = h }
}

// WithClock sets the time source used for session timestamps and expiry.
func WithClock(now func() time.Time) AuthOption {
	return func(s *AuthService) { s.now = now }
}

// AuthService handles registration, login and the profile's current session.
type AuthService struct {
	store        domain.Storage
	hasher       PasswordHasher
	now          func() time.Time
	rememberTTL  time.Duration
	transientTTL time.Duration

	mu sync.Mutex

	subMu     sync.Mutex
	nextSubID int
	subs      map[int]func(AuthEvent)
}

// NewAuthService creates a new AuthService over store.
func NewAuthService(store domain.Storage, opts ...AuthOption) *AuthService {
	s := &AuthService{
		store:       store,
		hasher:      PlainPasswords{},
		now:         time.Now,
		rememberTTL: DefaultRememberTTL,
		subs:        make(map[int]func(AuthEvent)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers fn for auth state changes. Call the returned function
// to stop receiving events.
func (s *AuthService) Subscribe(fn func(AuthEvent)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *AuthService) emit(ev AuthEvent) {
	s.subMu.Lock()
	fns := make([]func(AuthEvent), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Register creates a new user account and signs it in with remember-me on.
func (s *AuthService) Register(ctx context.Context, name, email, password, confirmPassword string, termsAccepted bool) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name == "" || email == "" {
		return nil, fmt.Errorf("%w: name and email are required", domain.ErrInvalidInput)
	}
	if !termsAccepted {
		return nil, fmt.Errorf("%w: you must accept the terms and conditions", domain.ErrInvalidInput)
	}
	if password != confirmPassword {
		return nil, fmt.Errorf("%w: passwords do not match", domain.ErrInvalidInput)
	}
	if len(password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, MinPasswordLength)
	}

	s.mu.Lock()
	user, err := s.createUser(ctx, name, email, password)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	slog.Info("user registered", "user_id", user.ID)

	return s.Login(ctx, email, password, true)
}

func (s *AuthService) createUser(ctx context.Context, name, email, password string) (*domain.User, error) {
	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.Email == email {
			return nil, domain.ErrDuplicateEmail
		}
	}

	stored, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := domain.User{
		ID:          uuid.NewString(),
		Name:        name,
		Email:       email,
		Password:    stored,
		CreatedAt:   s.now().UTC(),
		Preferences: domain.DefaultPreferences(),
	}
	if err := saveRecord(ctx, s.store, domain.UsersKey, append(users, user)); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

// Login verifies credentials and replaces the current session.
func (s *AuthService) Login(ctx context.Context, email, password string, rememberMe bool) (*domain.User, error) {
	email = strings.TrimSpace(email)

	s.mu.Lock()
	user, err := s.login(ctx, email, password, rememberMe)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	slog.Info("user logged in", "user_id", user.ID, "remember_me", rememberMe)
	s.emit(AuthEvent{Kind: EventLogin, UserID: user.ID})
	return user, nil
}

func (s *AuthService) login(ctx context.Context, email, password string, rememberMe bool) (*domain.User, error) {
	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}

	var user *domain.User
	for i := range users {
		if users[i].Email == email && s.hasher.Compare(users[i].Password, password) {
			user = &users[i]
			break
		}
	}
	if user == nil {
		return nil, domain.ErrInvalidCredentials
	}

	now := s.now().UTC()
	session := domain.Session{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		CreatedAt: now,
	}
	ttl := s.transientTTL
	if rememberMe {
		ttl = s.rememberTTL
	}
	if ttl > 0 {
		exp := now.Add(ttl)
		session.ExpiresAt = &exp
	}

	if err := saveRecord(ctx, s.store, domain.SessionKey, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return user, nil
}

// IsAuthenticated reports whether a valid session exists. An expired session
// is logged out as a side effect.
func (s *AuthService) IsAuthenticated(ctx context.Context) (bool, error) {
	s.mu.Lock()
	session, err := s.loadSession(ctx)
	if err != nil || session == nil {
		s.mu.Unlock()
		return false, err
	}
	if !session.ExpiredAt(s.now()) {
		s.mu.Unlock()
		return true, nil
	}
	err = s.store.Delete(ctx, domain.SessionKey)
	s.mu.Unlock()
	if err != nil {
		return false, fmt.Errorf("delete expired session: %w", err)
	}

	slog.Info("session expired", "user_id", session.UserID)
	s.emit(AuthEvent{Kind: EventLogout, UserID: session.UserID})
	return false, nil
}

// Logout removes the current session. It succeeds when nobody is signed in.
func (s *AuthService) Logout(ctx context.Context) error {
	s.mu.Lock()
	session, err := s.loadSession(ctx)
	if err != nil {
		slog.Debug("ignoring unreadable session on logout", "error", err)
	}
	err = s.store.Delete(ctx, domain.SessionKey)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	ev := AuthEvent{Kind: EventLogout}
	if session != nil {
		ev.UserID = session.UserID
	}
	slog.Info("user logged out", "user_id", ev.UserID)
	s.emit(ev)
	return nil
}

// CurrentSession returns the stored session without checking expiry, or nil.
func (s *AuthService) CurrentSession(ctx context.Context) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadSession(ctx)
}

// CurrentUser resolves the session's user. It returns nil when no session
// exists or the referenced user is gone.
func (s *AuthService) CurrentUser(ctx context.Context) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.loadSession(ctx)
	if err != nil || session == nil {
		return nil, err
	}
	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID == session.UserID {
			return &users[i], nil
		}
	}
	slog.Debug("session references a missing user", "user_id", session.UserID)
	return nil, nil
}

// Users returns every registered user.
func (s *AuthService) Users(ctx context.Context) ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadUsers(ctx)
}

func (s *AuthService) loadUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if _, err := loadRecord(ctx, s.store, domain.UsersKey, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *AuthService) loadSession(ctx context.Context) (*domain.Session, error) {
	var session domain.Session
	ok, err := loadRecord(ctx, s.store, domain.SessionKey, &session)
	if err != nil || !ok {
		return nil, err
	}
	return &session, nil
}
