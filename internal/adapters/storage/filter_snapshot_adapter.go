package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/vigility/dashboard/internal/domain/entities"
	"github.com/vigility/dashboard/internal/domain/providers"
	"github.com/vigility/dashboard/internal/domain/repositories"
	"github.com/vigility/dashboard/internal/infrastructure/observability"
	apperrors "github.com/vigility/dashboard/pkg/errors"
)

const filterKeyPrefix = "dashboard_filters_"

// DefaultRetention is how long a saved snapshot stays readable after its last write
const DefaultRetention = 30 * 24 * time.Hour

// FilterSnapshotAdapter stores filter snapshots as JSON under
// dashboard_filters_<userID>. Every write restarts the retention window;
// reads never extend it.
type FilterSnapshotAdapter struct {
	cache     providers.CacheProvider
	retention time.Duration
	metrics   *observability.Metrics
}

// NewFilterSnapshotAdapter creates a snapshot repository on top of cache. A
// non-positive retention falls back to DefaultRetention.
func NewFilterSnapshotAdapter(cache providers.CacheProvider, retention time.Duration, metrics *observability.Metrics) repositories.FilterSnapshotRepository {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &FilterSnapshotAdapter{
		cache:     cache,
		retention: retention,
		metrics:   metrics,
	}
}

// FilterKey returns the storage key for a user's snapshot
func FilterKey(userID string) string {
	return filterKeyPrefix + userID
}

// Save writes the snapshot for userID
func (a *FilterSnapshotAdapter) Save(ctx context.Context, userID string, snapshot entities.FilterSnapshot) error {
	if userID == "" {
		return apperrors.NewValidationError("user id is required to save filters")
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal filter snapshot: %w", err)
	}

	if err := a.cache.Set(ctx, FilterKey(userID), data, int(a.retention/time.Second)); err != nil {
		return fmt.Errorf("save filter snapshot: %w", err)
	}
	return nil
}

// Load returns the stored snapshot for userID. Missing, expired, malformed or
// out-of-range data all read as (nil, nil); only store failures are errors.
func (a *FilterSnapshotAdapter) Load(ctx context.Context, userID string) (*entities.FilterSnapshot, error) {
	if userID == "" {
		return nil, nil
	}

	data, err := a.cache.Get(ctx, FilterKey(userID))
	if errors.Is(err, providers.ErrCacheMiss) {
		observability.RecordSnapshotMiss(ctx, a.metrics, "absent")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load filter snapshot: %w", err)
	}

	snapshot, err := decodeSnapshot(data)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().
			Err(err).
			Str("user_id", userID).
			Msg("Ignoring unreadable filter snapshot")
		observability.RecordSnapshotMiss(ctx, a.metrics, "corrupted")
		return nil, nil
	}

	observability.RecordSnapshotHit(ctx, a.metrics)
	return snapshot, nil
}

// Clear removes the stored snapshot for userID
func (a *FilterSnapshotAdapter) Clear(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	if err := a.cache.Delete(ctx, FilterKey(userID)); err != nil {
		return fmt.Errorf("clear filter snapshot: %w", err)
	}
	return nil
}

func decodeSnapshot(data []byte) (*entities.FilterSnapshot, error) {
	var snapshot entities.FilterSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, apperrors.NewCorruptedError("filter snapshot is not valid JSON", err)
	}
	if err := snapshot.Validate(); err != nil {
		return nil, apperrors.NewCorruptedError("filter snapshot holds unknown values", err)
	}
	return &snapshot, nil
}
