// Package session owns the authenticated identity of one client instance.
//
// A Store is created once per process, handed to every command that needs
// it, and torn down with Close. It keeps the current user, a loading flag
// and the persisted bearer token consistent with each other.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/coursehub-dev/coursehub/internal/cli/auth"
	"github.com/coursehub-dev/coursehub/internal/cli/client"
	"github.com/coursehub-dev/coursehub/internal/cli/notify"
	"github.com/coursehub-dev/coursehub/internal/models"
)

const (
	MsgLoginSuccess    = "Login successful!"
	MsgRegisterSuccess = "Registration successful!"
	MsgLogoutSuccess   = "Logged out successfully"

	FallbackLogin    = "Login failed"
	FallbackRegister = "Registration failed"
)

// ErrNotAuthenticated is returned by UpdateUser when nobody is logged in
var ErrNotAuthenticated = errors.New("not logged in. Run 'coursehub login' first")

// AuthAPI is the part of the auth service the session drives
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*models.AuthResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
	ValidateToken(ctx context.Context, token string) (*models.TokenValidation, error)
}

// State is the lifecycle position of a session
type State int

const (
	Uninitialized State = iota
	Loading
	Authenticated
	Anonymous
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Authenticated:
		return "authenticated"
	case Anonymous:
		return "anonymous"
	default:
		return "uninitialized"
	}
}

// Result is what Login and Register resolve to. They never return an error.
type Result struct {
	Success bool
	Error   string
}

// Snapshot is a consistent copy of the observable session fields
type Snapshot struct {
	State   State
	User    models.UserProfile
	Loading bool
}

// Store is the session store
type Store struct {
	api      AuthAPI
	tokens   auth.TokenStore
	notifier notify.Notifier
	logger   zerolog.Logger

	mu          sync.Mutex
	user        models.UserProfile
	loading     bool
	initialized bool
	closed      bool
	subscribers map[int]func(Snapshot)
	nextSubID   int
}

// NewStore creates an uninitialized session. A nil notifier discards notifications.
func NewStore(api AuthAPI, tokens auth.TokenStore, notifier notify.Notifier, logger zerolog.Logger) *Store {
	if notifier == nil {
		notifier = notify.Nop
	}
	return &Store{
		api:         api,
		tokens:      tokens,
		notifier:    notifier,
		logger:      logger,
		subscribers: make(map[int]func(Snapshot)),
	}
}

// Initialize restores the session from the persisted token. Without a token
// no request is made. A token the backend does not accept is deleted.
// Failures are logged and never returned.
func (s *Store) Initialize(ctx context.Context) {
	s.setLoading(true)
	defer s.finishInitialize()

	token, err := s.tokens.Load()
	if err != nil {
		if !errors.Is(err, auth.ErrNoToken) {
			s.logger.Warn().Err(err).Msg("Failed to read auth token")
		}
		s.setUser(nil)
		return
	}

	validation, err := s.api.ValidateToken(ctx, token)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Token validation failed")
		// a 401 has already purged the token
		if client.KindOf(err) != client.KindAuth {
			s.deleteToken()
		}
		s.setUser(nil)
		return
	}

	if !validation.Valid {
		s.logger.Debug().Str("reason", validation.Error).Msg("Stored token is no longer valid")
		s.deleteToken()
		s.setUser(nil)
		return
	}

	s.setUser(validation.User)
}

func (s *Store) finishInitialize() {
	s.mu.Lock()
	s.initialized = true
	s.loading = false
	s.mu.Unlock()
	s.publish()
}

// Login authenticates with email and password
func (s *Store) Login(ctx context.Context, email, password string) Result {
	s.setLoading(true)
	defer s.setLoading(false)

	resp, err := s.api.Login(ctx, email, password)
	return s.establish(resp, err, MsgLoginSuccess, FallbackLogin)
}

// Register creates an account and logs into it
func (s *Store) Register(ctx context.Context, req models.RegisterRequest) Result {
	s.setLoading(true)
	defer s.setLoading(false)

	resp, err := s.api.Register(ctx, req)
	return s.establish(resp, err, MsgRegisterSuccess, FallbackRegister)
}

// establish turns an auth response into a session
func (s *Store) establish(resp *models.AuthResponse, err error, successMsg, fallback string) Result {
	if err != nil {
		msg := client.ErrorMessage(err, fallback)
		s.logger.Debug().Err(err).Msg(fallback)
		notify.Error(s.notifier, msg)
		return Result{Error: msg}
	}

	if resp == nil || resp.Token == "" {
		s.logger.Warn().Msg("Auth response carried no token")
		return Result{Error: fallback}
	}

	if err := s.tokens.Save(resp.Token); err != nil {
		s.logger.Error().Err(err).Msg("Failed to persist auth token")
		notify.Error(s.notifier, fallback)
		return Result{Error: fallback}
	}

	user := resp.User
	if user == nil {
		user = models.UserProfile{}
	}
	s.setUser(user)
	notify.Success(s.notifier, successMsg)
	return Result{Success: true}
}

// Logout forgets the user and the persisted token. Safe to call repeatedly.
func (s *Store) Logout() {
	s.deleteToken()
	s.setUser(nil)
	notify.Success(s.notifier, MsgLogoutSuccess)
}

// UpdateUser shallow-merges partial onto the current user
func (s *Store) UpdateUser(partial models.UserProfile) error {
	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return ErrNotAuthenticated
	}
	s.user = s.user.Merge(partial)
	s.mu.Unlock()

	s.publish()
	return nil
}

// User returns a copy of the current user, or nil
func (s *Store) User() models.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user.Clone()
}

func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// IsAuthenticated is true exactly when a user is present
func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers fn to receive a snapshot after every change.
// The returned func unregisters it.
func (s *Store) Subscribe(fn func(Snapshot)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return func() {}
	}

	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// Close drops every subscriber. The session data itself is left alone.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.subscribers = make(map[int]func(Snapshot))
	s.mu.Unlock()
}

func (s *Store) stateLocked() State {
	switch {
	case !s.initialized && s.loading:
		return Loading
	case !s.initialized:
		return Uninitialized
	case s.user != nil:
		return Authenticated
	default:
		return Anonymous
	}
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		State:   s.stateLocked(),
		User:    s.user.Clone(),
		Loading: s.loading,
	}
}

func (s *Store) setLoading(loading bool) {
	s.mu.Lock()
	s.loading = loading
	s.mu.Unlock()
	s.publish()
}

func (s *Store) setUser(user models.UserProfile) {
	s.mu.Lock()
	s.user = user.Clone()
	s.mu.Unlock()
	s.publish()
}

func (s *Store) deleteToken() {
	if err := s.tokens.Delete(); err != nil {
		s.logger.Error().Err(err).Msg("Failed to delete auth token")
	}
}

// publish delivers the current snapshot outside the lock
func (s *Store) publish() {
	s.mu.Lock()
	snap := s.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}
