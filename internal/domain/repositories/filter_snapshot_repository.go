package repositories

import (
	"context"

	"github.com/vigility/dashboard/internal/domain/entities"
)

// FilterSnapshotRepository persists the restorable filter selection per user
type FilterSnapshotRepository interface {
	// Save writes the snapshot for userID, resetting its retention window
	Save(ctx context.Context, userID string, snapshot entities.FilterSnapshot) error

	// Load returns the stored snapshot, or nil when none usable exists
	Load(ctx context.Context, userID string) (*entities.FilterSnapshot, error)

	// Clear removes the stored snapshot for userID
	Clear(ctx context.Context, userID string) error
}
