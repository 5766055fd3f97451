package providers

import (
	"context"

	"github.com/vigility/dashboard/internal/domain/entities"
)

// AnalyticsProvider fetches aggregated click analytics
type AnalyticsProvider interface {
	Query(ctx context.Context, query entities.AnalyticsQuery) (*entities.AnalyticsResult, error)
}

// TrackingProvider records a single feature interaction
type TrackingProvider interface {
	Track(ctx context.Context, featureName string) error
}

// AuthProvider talks to the backend authentication endpoints
type AuthProvider interface {
	Login(ctx context.Context, creds entities.Credentials) (*entities.AuthResponse, error)
	Register(ctx context.Context, reg entities.Registration) (*entities.AuthResponse, error)
	ForgotPassword(ctx context.Context, req entities.PasswordResetRequest) error
	ResetPassword(ctx context.Context, update entities.PasswordUpdate) error
}
