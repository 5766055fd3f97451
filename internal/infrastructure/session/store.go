// Package session holds the process-wide sign-in state. There is exactly one
// Store per process; everything that needs the credential is handed it
// explicitly.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"github.com/vigility/dashboard/internal/domain/entities"
	"github.com/vigility/dashboard/internal/domain/repositories"
)

// SignOutReason says why a session ended
type SignOutReason string

const (
	// ReasonSignedOut is a deliberate sign-out
	ReasonSignedOut SignOutReason = "signed_out"
	// ReasonExpired means the backend rejected the credential
	ReasonExpired SignOutReason = "expired"
)

// SignInListener is told about every successful sign-in
type SignInListener func(ctx context.Context, user entities.User)

// SignOutListener is told once when a session ends
type SignOutListener func(ctx context.Context, reason SignOutReason)

// Store is the single source of the current credential and user
type Store struct {
	repo repositories.SessionRepository
	now  func() time.Time

	mu        sync.RWMutex
	token     string
	user      *entities.User
	expiresAt time.Time

	listenerMu sync.Mutex
	onSignIn   []SignInListener
	onSignOut  []SignOutListener
}

// NewStore creates an empty store. repo may be nil to keep the session in
// memory only.
func NewStore(repo repositories.SessionRepository) *Store {
	return &Store{repo: repo, now: time.Now}
}

// Init restores a previously saved session. A saved credential that has
// already expired is discarded without notifying listeners.
func (s *Store) Init(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	saved, err := s.repo.Load(ctx)
	if err != nil {
		return err
	}
	if saved == nil {
		return nil
	}

	exp := tokenExpiry(saved.Token)
	if !exp.IsZero() && !s.now().Before(exp) {
		log.Info().Msg("Saved session has expired, sign in again")
		return s.repo.Delete(ctx)
	}

	s.mu.Lock()
	s.token = saved.Token
	s.user = saved.User
	s.expiresAt = exp
	s.mu.Unlock()
	return nil
}

// Set records a successful sign-in and notifies sign-in listeners
func (s *Store) Set(ctx context.Context, token string, user entities.User) error {
	exp := tokenExpiry(token)

	s.mu.Lock()
	s.token = token
	u := user
	s.user = &u
	s.expiresAt = exp
	s.mu.Unlock()

	if s.repo != nil {
		if err := s.repo.Save(ctx, entities.Session{Token: token, User: &u}); err != nil {
			return err
		}
	}

	for _, fn := range s.signInListeners() {
		fn(ctx, user)
	}
	return nil
}

// Clear ends the session deliberately
func (s *Store) Clear(ctx context.Context) error {
	return s.end(ctx, ReasonSignedOut)
}

// Expire ends the session because the backend rejected its credential.
// Listeners run at most once per session; later calls are no-ops.
func (s *Store) Expire(ctx context.Context) {
	if err := s.end(ctx, ReasonExpired); err != nil {
		log.Warn().Err(err).Msg("Failed to remove expired session")
	}
}

func (s *Store) end(ctx context.Context, reason SignOutReason) error {
	s.mu.Lock()
	active := s.token != ""
	s.token = ""
	s.user = nil
	s.expiresAt = time.Time{}
	s.mu.Unlock()

	var err error
	if s.repo != nil {
		err = s.repo.Delete(ctx)
	}

	if active {
		for _, fn := range s.signOutListeners() {
			fn(ctx, reason)
		}
	}
	return err
}

// Token returns the bearer credential, or "" when signed out
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the signed-in user, or nil
func (s *Store) User() *entities.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// UserID returns the signed-in user's id, or ""
func (s *Store) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return ""
	}
	return s.user.ID
}

// IsAuthenticated reports whether a credential is held and not past its exp
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return false
	}
	return s.expiresAt.IsZero() || s.now().Before(s.expiresAt)
}

// ExpiresAt returns the credential's exp claim, or the zero time when the
// token carries none
func (s *Store) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// OnSignIn registers fn to run after every sign-in
func (s *Store) OnSignIn(fn SignInListener) {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	s.onSignIn = append(s.onSignIn, fn)
}

// OnSignOut registers fn to run when a session ends
func (s *Store) OnSignOut(fn SignOutListener) {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	s.onSignOut = append(s.onSignOut, fn)
}

func (s *Store) signInListeners() []SignInListener {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	return append([]SignInListener(nil), s.onSignIn...)
}

func (s *Store) signOutListeners() []SignOutListener {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	return append([]SignOutListener(nil), s.onSignOut...)
}

// tokenExpiry reads exp without verifying the signature. The backend is the
// authority on validity; this only lets the client skip a doomed request.
func tokenExpiry(token string) time.Time {
	if token == "" {
		return time.Time{}
	}
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
