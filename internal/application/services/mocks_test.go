package services_test

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
	"github.com/vigility/dashboard/internal/domain/entities"
)

// recordingAnalytics answers every query immediately with result/err
type recordingAnalytics struct {
	mu      sync.Mutex
	queries []entities.AnalyticsQuery
	result  *entities.AnalyticsResult
	err     error
}

func (r *recordingAnalytics) Query(ctx context.Context, q entities.AnalyticsQuery) (*entities.AnalyticsResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, q)
	if r.err != nil {
		return nil, r.err
	}
	if r.result == nil {
		return &entities.AnalyticsResult{FeatureCounts: []entities.FeatureCount{}, DailyCounts: []entities.DailyCount{}}, nil
	}
	return r.result, nil
}

func (r *recordingAnalytics) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queries)
}

func (r *recordingAnalytics) last() entities.AnalyticsQuery {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.queries[len(r.queries)-1]
}

func (r *recordingAnalytics) fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

type reply struct {
	result *entities.AnalyticsResult
	err    error
}

type pendingCall struct {
	query   entities.AnalyticsQuery
	release chan reply
}

// blockingAnalytics parks every query until the test releases it
type blockingAnalytics struct {
	calls chan *pendingCall
}

func newBlockingAnalytics() *blockingAnalytics {
	return &blockingAnalytics{calls: make(chan *pendingCall, 16)}
}

func (b *blockingAnalytics) Query(ctx context.Context, q entities.AnalyticsQuery) (*entities.AnalyticsResult, error) {
	c := &pendingCall{query: q, release: make(chan reply, 1)}
	b.calls <- c
	r := <-c.release
	return r.result, r.err
}

// memorySnapshots is an in-memory FilterSnapshotRepository that counts writes
type memorySnapshots struct {
	mu    sync.Mutex
	data  map[string]entities.FilterSnapshot
	saves int
}

func newMemorySnapshots() *memorySnapshots {
	return &memorySnapshots{data: map[string]entities.FilterSnapshot{}}
}

func (m *memorySnapshots) Save(ctx context.Context, userID string, snapshot entities.FilterSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.data[userID] = snapshot
	return nil
}

func (m *memorySnapshots) Load(ctx context.Context, userID string) (*entities.FilterSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.data[userID]
	if !ok {
		return nil, nil
	}
	return &snap, nil
}

func (m *memorySnapshots) Clear(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, userID)
	return nil
}

func (m *memorySnapshots) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// gatedSnapshots parks Load until the test releases it
type gatedSnapshots struct {
	*memorySnapshots
	loading chan struct{}
	release chan struct{}
}

func newGatedSnapshots() *gatedSnapshots {
	return &gatedSnapshots{
		memorySnapshots: newMemorySnapshots(),
		loading:         make(chan struct{}),
		release:         make(chan struct{}),
	}
}

func (g *gatedSnapshots) Load(ctx context.Context, userID string) (*entities.FilterSnapshot, error) {
	close(g.loading)
	<-g.release
	return g.memorySnapshots.Load(ctx, userID)
}

type MockTrackingProvider struct {
	mock.Mock
}

func (m *MockTrackingProvider) Track(ctx context.Context, featureName string) error {
	return m.Called(ctx, featureName).Error(0)
}

type MockAuthProvider struct {
	mock.Mock
}

func (m *MockAuthProvider) Login(ctx context.Context, creds entities.Credentials) (*entities.AuthResponse, error) {
	args := m.Called(ctx, creds)
	if r := args.Get(0); r != nil {
		return r.(*entities.AuthResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthProvider) Register(ctx context.Context, reg entities.Registration) (*entities.AuthResponse, error) {
	args := m.Called(ctx, reg)
	if r := args.Get(0); r != nil {
		return r.(*entities.AuthResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthProvider) ForgotPassword(ctx context.Context, req entities.PasswordResetRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *MockAuthProvider) ResetPassword(ctx context.Context, update entities.PasswordUpdate) error {
	return m.Called(ctx, update).Error(0)
}

func strPtr(s string) *string { return &s }
