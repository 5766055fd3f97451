package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/vigility/dashboard/internal/domain/entities"
	"github.com/vigility/dashboard/internal/domain/providers"
	"github.com/vigility/dashboard/internal/domain/repositories"
)

const sessionKey = "dashboard_session"

// SessionAdapter keeps the signed-in credential in the same store as the
// filter snapshots so a CLI invocation can pick up the previous login.
type SessionAdapter struct {
	cache providers.CacheProvider
}

// NewSessionAdapter creates a session repository on top of cache
func NewSessionAdapter(cache providers.CacheProvider) repositories.SessionRepository {
	return &SessionAdapter{cache: cache}
}

// Save writes the session without expiry; the token's own exp governs validity
func (a *SessionAdapter) Save(ctx context.Context, session entities.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := a.cache.Set(ctx, sessionKey, data, 0); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Load returns the saved session, or nil when there is none
func (a *SessionAdapter) Load(ctx context.Context) (*entities.Session, error) {
	data, err := a.cache.Get(ctx, sessionKey)
	if errors.Is(err, providers.ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var session entities.Session
	if err := json.Unmarshal(data, &session); err != nil || session.Token == "" {
		log.Warn().Err(err).Msg("Discarding unreadable saved session")
		return nil, nil
	}
	return &session, nil
}

// Delete removes the saved session
func (a *SessionAdapter) Delete(ctx context.Context) error {
	if err := a.cache.Delete(ctx, sessionKey); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
