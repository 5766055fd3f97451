package services

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/vigility/dashboard/internal/domain/entities"
	"github.com/vigility/dashboard/internal/domain/providers"
	"github.com/vigility/dashboard/internal/infrastructure/observability"
)

const trackTimeout = 5 * time.Second

// TrackingService sends fire-and-forget feature usage pings
type TrackingService struct {
	tracker providers.TrackingProvider
	metrics *observability.Metrics
	pending sync.WaitGroup
}

// NewTrackingService creates a new tracking service
func NewTrackingService(tracker providers.TrackingProvider, metrics *observability.Metrics) *TrackingService {
	return &TrackingService{tracker: tracker, metrics: metrics}
}

// Track records featureName in the background. Failures of any kind,
// including rejected credentials, are logged and dropped.
func (s *TrackingService) Track(ctx context.Context, featureName string) {
	if featureName == "" {
		return
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		// Use a fresh context since the caller's might be cancelled
		bgCtx, cancel := context.WithTimeout(context.Background(), trackTimeout)
		defer cancel()

		if err := s.tracker.Track(bgCtx, featureName); err != nil {
			observability.RecordTrackingFailure(bgCtx, s.metrics, featureName)
			log.Debug().Err(err).Str("feature", featureName).Msg("Tracking ping failed")
		}
	}()
}

// Flush waits for outstanding pings, up to the per-ping timeout
func (s *TrackingService) Flush() {
	s.pending.Wait()
}

// Hook adapts the service into a controller post-commit hook
func (s *TrackingService) Hook() PostCommitHook {
	return func(ctx context.Context, commit Commit) {
		for _, feature := range trackedFeatures(commit) {
			s.Track(ctx, feature)
		}
	}
}

// trackedFeatures maps a commit to the interactions it represents. Clears and
// restores are not user interactions with a tracked control.
func trackedFeatures(commit Commit) []string {
	switch commit.Change {
	case entities.ChangeDateRange:
		return []string{entities.FeatureDatePicker}
	case entities.ChangeAgeGroup:
		return []string{entities.FeatureAgeFilter}
	case entities.ChangeGender:
		return []string{entities.FeatureGenderFilter}
	case entities.ChangeFeatureToggle:
		return []string{entities.FeatureChartBar}
	case entities.ChangeBatch:
		var out []string
		if commit.Before.DateRange != commit.After.DateRange {
			out = append(out, entities.FeatureDatePicker)
		}
		if commit.Before.AgeGroup != commit.After.AgeGroup {
			out = append(out, entities.FeatureAgeFilter)
		}
		if commit.Before.Gender != commit.After.Gender {
			out = append(out, entities.FeatureGenderFilter)
		}
		if commit.Before.SelectedFeature != commit.After.SelectedFeature {
			out = append(out, entities.FeatureChartBar)
		}
		return out
	default:
		return nil
	}
}
