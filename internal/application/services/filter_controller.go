package services

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/vigility/dashboard/internal/domain/entities"
	"github.com/vigility/dashboard/internal/domain/providers"
	"github.com/vigility/dashboard/internal/domain/repositories"
	"github.com/vigility/dashboard/internal/infrastructure/observability"
	apperrors "github.com/vigility/dashboard/pkg/errors"
)

// Messages shown when a fetch fails
const (
	MessageLoadFailed     = "Failed to load analytics. Please try again."
	MessageSessionExpired = "Your session has expired. Please sign in again."
)

// Commit describes one committed filter mutation
type Commit struct {
	Change entities.FilterChange
	Before entities.FilterState
	After  entities.FilterState
}

// PostCommitHook runs after every committed filter mutation. It cannot alter
// filter state and its panics are contained.
type PostCommitHook func(ctx context.Context, commit Commit)

// DashboardState is a point-in-time copy of everything the dashboard shows
type DashboardState struct {
	Filters        entities.FilterState      `json:"filters"`
	Result         *entities.AnalyticsResult `json:"result"`
	Stats          entities.DerivedStats     `json:"stats"`
	IsLoading      bool                      `json:"is_loading"`
	Error          string                    `json:"error,omitempty"`
	ErrorKind      apperrors.ErrorType       `json:"error_kind,omitempty"`
	FilterWarnings []string                  `json:"filter_warnings,omitempty"`
	UserID         string                    `json:"user_id,omitempty"`
}

// FilterControllerConfig holds the controller's optional collaborators
type FilterControllerConfig struct {
	// Location turns date-only filters into instants. Defaults to time.Local.
	Location *time.Location
	Hook     PostCommitHook
	Metrics  *observability.Metrics
}

// FilterController owns the dashboard filters, decides when a query may be
// issued, and keeps the latest result. Each issued query gets a sequence
// number; only the response to the newest one is kept.
type FilterController struct {
	analytics providers.AnalyticsProvider
	snapshots repositories.FilterSnapshotRepository
	loc       *time.Location
	hook      PostCommitHook
	metrics   *observability.Metrics

	mu       sync.Mutex
	filters  entities.FilterState
	userID   string
	result   *entities.AnalyticsResult
	stats    entities.DerivedStats
	err      error
	warnings []string
	issued   uint64
	loading  bool
	revision uint64
	pending  int
	settled  *sync.Cond

	persistMu sync.Mutex

	listenerMu sync.Mutex
	listeners  []func(DashboardState)
}

// NewFilterController creates a controller. snapshots may be nil to disable
// persistence.
func NewFilterController(analytics providers.AnalyticsProvider, snapshots repositories.FilterSnapshotRepository, cfg FilterControllerConfig) *FilterController {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	c := &FilterController{
		analytics: analytics,
		snapshots: snapshots,
		loc:       loc,
		hook:      cfg.Hook,
		metrics:   cfg.Metrics,
	}
	c.settled = sync.NewCond(&c.mu)
	return c
}

// SetDateRange replaces the date range. A half-set range is kept but does not
// fetch until the other bound arrives.
func (c *FilterController) SetDateRange(ctx context.Context, start, end string) {
	c.mutate(ctx, entities.ChangeDateRange, func(s *entities.FilterState) {
		s.DateRange = entities.DateRange{Start: start, End: end}
	})
}

// SetAgeGroup replaces the age group; "" clears it
func (c *FilterController) SetAgeGroup(ctx context.Context, group entities.AgeGroup) {
	c.mutate(ctx, entities.ChangeAgeGroup, func(s *entities.FilterState) {
		s.AgeGroup = group
	})
}

// SetGender replaces the gender; "" clears it
func (c *FilterController) SetGender(ctx context.Context, gender entities.Gender) {
	c.mutate(ctx, entities.ChangeGender, func(s *entities.FilterState) {
		s.Gender = gender
	})
}

// ToggleFeatureSelection drills into name, or clears the drill-down when name
// is already selected
func (c *FilterController) ToggleFeatureSelection(ctx context.Context, name string) {
	c.mutate(ctx, entities.ChangeFeatureToggle, func(s *entities.FilterState) {
		if s.SelectedFeature == name {
			s.SelectedFeature = ""
		} else {
			s.SelectedFeature = name
		}
	})
}

// ClearFeatureSelection leaves drill-down mode
func (c *FilterController) ClearFeatureSelection(ctx context.Context) {
	c.mutate(ctx, entities.ChangeFeatureClear, func(s *entities.FilterState) {
		s.SelectedFeature = ""
	})
}

// ClearAll resets every filter in a single transition
func (c *FilterController) ClearAll(ctx context.Context) {
	c.mutate(ctx, entities.ChangeClearAll, func(s *entities.FilterState) {
		*s = entities.FilterState{}
	})
}

// Update applies several filter changes as one transition
func (c *FilterController) Update(ctx context.Context, fn func(*entities.FilterState)) {
	c.mutate(ctx, entities.ChangeBatch, fn)
}

// Refresh issues a query for the current filters, ignoring the gate
func (c *FilterController) Refresh(ctx context.Context) {
	c.fetch(ctx)
}

// SetUser binds persistence to userID. A newly known user starts from a clean
// view, gets their saved filters restored, and the gate is evaluated. An empty
// userID detaches persistence and resets the view; saved snapshots are kept.
func (c *FilterController) SetUser(ctx context.Context, userID string) {
	c.mu.Lock()
	if c.userID == userID {
		c.mu.Unlock()
		return
	}
	c.userID = userID
	c.filters = entities.FilterState{}
	c.result = nil
	c.stats = entities.DerivedStats{}
	c.warnings = nil
	if userID != "" {
		c.err = nil
	}
	revision := c.revision
	c.mu.Unlock()

	if userID == "" {
		c.notify()
		return
	}

	var snapshot *entities.FilterSnapshot
	if c.snapshots != nil {
		var err error
		snapshot, err = c.snapshots.Load(ctx, userID)
		if err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("user_id", userID).Msg("Failed to load saved filters")
		}
	}

	c.mu.Lock()
	if c.userID != userID {
		// signed out or switched while loading
		c.mu.Unlock()
		return
	}
	if c.revision != revision {
		// a mutation landed while loading and has already been saved
		c.mu.Unlock()
		observability.LoggerFromContext(ctx).Debug().Str("user_id", userID).Msg("Filters changed during restore, keeping live filters")
		return
	}
	before := c.filters
	if snapshot != nil {
		c.filters.ApplySnapshot(*snapshot)
	}
	after := c.filters
	c.mu.Unlock()

	if after.DateRange.IsComplete() {
		c.fetch(ctx)
	} else {
		c.notify()
	}
	c.runHook(ctx, Commit{Change: entities.ChangeRestore, Before: before, After: after})
}

// State returns a copy of the current dashboard state
func (c *FilterController) State() DashboardState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// OnChange registers fn to receive the state after every transition. fn is
// called from fetch goroutines as well as the mutating caller.
func (c *FilterController) OnChange(fn func(DashboardState)) {
	c.listenerMu.Lock()
	defer c.listenerMu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Wait blocks until every issued query has settled
func (c *FilterController) Wait() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.pending > 0 {
		c.settled.Wait()
	}
}

func (c *FilterController) mutate(ctx context.Context, change entities.FilterChange, fn func(*entities.FilterState)) {
	c.mu.Lock()
	before := c.filters
	next := before
	fn(&next)
	c.filters = next
	c.revision++
	userID := c.userID
	c.mu.Unlock()

	if userID != "" && !before.Snapshot().Equal(next.Snapshot()) {
		c.persist(ctx)
	}

	if shouldFetch(change, before, next) {
		c.fetch(ctx)
	} else {
		c.notify()
	}

	c.runHook(ctx, Commit{Change: change, Before: before, After: next})
}

// shouldFetch is the automatic fetch gate
func shouldFetch(change entities.FilterChange, before, after entities.FilterState) bool {
	if before == after {
		return false
	}
	switch change {
	case entities.ChangeDateRange, entities.ChangeRestore:
		return after.DateRange.IsComplete()
	case entities.ChangeBatch:
		otherChanged := before.AgeGroup != after.AgeGroup ||
			before.Gender != after.Gender ||
			before.SelectedFeature != after.SelectedFeature
		return otherChanged || after.DateRange.IsComplete()
	default:
		return true
	}
}

// persist writes the latest snapshot. Writers are serialized and each reads
// the state at write time, so the last write always holds the newest filters.
func (c *FilterController) persist(ctx context.Context) {
	if c.snapshots == nil {
		return
	}
	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	c.mu.Lock()
	userID := c.userID
	snapshot := c.filters.Snapshot()
	c.mu.Unlock()

	if userID == "" {
		return
	}
	if err := c.snapshots.Save(ctx, userID, snapshot); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("user_id", userID).Msg("Failed to save filters")
	}
}

func (c *FilterController) fetch(ctx context.Context) {
	c.mu.Lock()
	c.issued++
	seq := c.issued
	c.loading = true
	c.pending++
	query, problems := c.filters.Query(c.loc)
	c.warnings = warningStrings(problems)
	c.mu.Unlock()

	logger := observability.LoggerFromContext(ctx)
	for _, p := range problems {
		logger.Debug().Err(p).Msg("Ignoring filter input")
	}
	c.notify()

	// the fetch outlives the triggering call, e.g. an HTTP handler
	ctx = context.WithoutCancel(ctx)
	go func() {
		defer c.settle()
		c.runQuery(ctx, seq, query)
	}()
}

func (c *FilterController) settle() {
	c.mu.Lock()
	c.pending--
	if c.pending == 0 {
		c.settled.Broadcast()
	}
	c.mu.Unlock()
}

func (c *FilterController) runQuery(ctx context.Context, seq uint64, query entities.AnalyticsQuery) {
	ctx, span := observability.StartSpan(ctx, "dashboard.fetch_analytics")
	defer span.End()
	observability.SetSpanAttributes(span, attribute.Int64("fetch.sequence", int64(seq)))

	started := time.Now()
	result, err := c.analytics.Query(ctx, query)
	elapsed := time.Since(started)
	observability.RecordError(span, err)

	c.mu.Lock()
	if seq != c.issued {
		c.mu.Unlock()
		observability.RecordQueryMetric(ctx, c.metrics, "stale", elapsed)
		observability.LoggerFromContext(ctx).Debug().Uint64("sequence", seq).Msg("Discarding superseded analytics response")
		return
	}
	c.loading = false
	if err != nil {
		c.err = err
	} else {
		if result == nil {
			result = &entities.AnalyticsResult{}
		}
		c.result = result
		c.stats = ComputeStats(result.FeatureCounts, result.DailyCounts)
		c.err = nil
	}
	c.mu.Unlock()

	if err != nil {
		observability.RecordQueryMetric(ctx, c.metrics, "error", elapsed)
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("Analytics query failed")
	} else {
		observability.RecordQueryMetric(ctx, c.metrics, "success", elapsed)
	}
	c.notify()
}

func (c *FilterController) runHook(ctx context.Context, commit Commit) {
	if c.hook == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			observability.LoggerFromContext(ctx).Error().
				Interface("panic", r).
				Str("change", string(commit.Change)).
				Msg("Post-commit hook panicked")
		}
	}()
	c.hook(ctx, commit)
}

func (c *FilterController) notify() {
	c.listenerMu.Lock()
	listeners := append([]func(DashboardState){}, c.listeners...)
	c.listenerMu.Unlock()
	if len(listeners) == 0 {
		return
	}

	state := c.State()
	for _, fn := range listeners {
		fn(state)
	}
}

func (c *FilterController) stateLocked() DashboardState {
	state := DashboardState{
		Filters:   c.filters,
		Stats:     c.stats,
		IsLoading: c.loading,
		UserID:    c.userID,
	}
	if c.result != nil {
		state.Result = &entities.AnalyticsResult{
			FeatureCounts: append([]entities.FeatureCount{}, c.result.FeatureCounts...),
			DailyCounts:   append([]entities.DailyCount{}, c.result.DailyCounts...),
		}
	}
	if c.err != nil {
		state.ErrorKind = apperrors.TypeOf(c.err)
		if state.ErrorKind == "" {
			state.ErrorKind = apperrors.ErrorTypeInternal
		}
		state.Error = errorMessage(c.err)
	}
	if len(c.warnings) > 0 {
		state.FilterWarnings = append([]string(nil), c.warnings...)
	}
	return state
}

func errorMessage(err error) string {
	if apperrors.IsType(err, apperrors.ErrorTypeUnauthorized) {
		return MessageSessionExpired
	}
	return MessageLoadFailed
}

func warningStrings(problems []error) []string {
	if len(problems) == 0 {
		return nil
	}
	out := make([]string, len(problems))
	for i, p := range problems {
		out[i] = apperrors.MessageOf(p)
	}
	return out
}
