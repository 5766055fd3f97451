package analyticsapi

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/vigility/dashboard/internal/domain/entities"
	"github.com/vigility/dashboard/internal/domain/providers"
	"github.com/vigility/dashboard/internal/infrastructure/observability"
	apperrors "github.com/vigility/dashboard/pkg/errors"
)

// BreakerConfig tunes the analytics circuit breaker
type BreakerConfig struct {
	Name             string
	FailureThreshold uint32
	OpenTimeout      time.Duration
	HalfOpenRequests uint32
}

// CircuitBreakerClient stops hammering an unreachable backend. While open,
// queries fail fast with a network error.
type CircuitBreakerClient struct {
	next    providers.AnalyticsProvider
	breaker *gobreaker.CircuitBreaker[*entities.AnalyticsResult]
}

// NewCircuitBreakerClient wraps next with a breaker that trips after
// FailureThreshold consecutive failures. Rejected credentials and validation
// errors are answers from a healthy backend and never count as failures.
func NewCircuitBreakerClient(next providers.AnalyticsProvider, cfg BreakerConfig) *CircuitBreakerClient {
	if cfg.Name == "" {
		cfg.Name = "analytics"
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if cfg.HalfOpenRequests == 0 {
		cfg.HalfOpenRequests = 1
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			switch apperrors.TypeOf(err) {
			case apperrors.ErrorTypeUnauthorized, apperrors.ErrorTypeValidation:
				return true
			}
			return errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			observability.GetLogger().Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Analytics circuit breaker changed state")
		},
	}

	return &CircuitBreakerClient{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[*entities.AnalyticsResult](settings),
	}
}

// Query runs the wrapped query through the breaker
func (c *CircuitBreakerClient) Query(ctx context.Context, q entities.AnalyticsQuery) (*entities.AnalyticsResult, error) {
	result, err := c.breaker.Execute(func() (*entities.AnalyticsResult, error) {
		return c.next.Query(ctx, q)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, apperrors.NewNetworkError("analytics backend temporarily unavailable", err)
	}
	return result, err
}

// State reports the breaker state for diagnostics
func (c *CircuitBreakerClient) State() string {
	return c.breaker.State().String()
}
