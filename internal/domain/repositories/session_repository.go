package repositories

import (
	"context"

	"github.com/vigility/dashboard/internal/domain/entities"
)

// SessionRepository persists the signed-in credential between runs
type SessionRepository interface {
	Save(ctx context.Context, session entities.Session) error
	Load(ctx context.Context) (*entities.Session, error)
	Delete(ctx context.Context) error
}
