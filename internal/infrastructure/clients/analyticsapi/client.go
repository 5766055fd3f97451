package analyticsapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/vigility/dashboard/internal/domain/entities"
	"github.com/vigility/dashboard/internal/infrastructure/observability"
	apperrors "github.com/vigility/dashboard/pkg/errors"
)

// Wire format for date bounds: UTC with millisecond precision
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

const (
	trackPath = "/track"
	authPath  = "/auth/"
)

// TokenSource supplies the bearer credential and is told when the backend
// rejects it
type TokenSource interface {
	Token() string
	Expire(ctx context.Context)
}

// HTTPClient talks to the analytics backend over JSON/HTTP
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

// NewClient creates a backend client. tokens may be nil for anonymous use.
func NewClient(baseURL string, timeout time.Duration, tokens TokenSource) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		tokens: tokens,
	}
}

// Query fetches aggregated click counts. Only the fields present on q are
// sent.
func (c *HTTPClient) Query(ctx context.Context, q entities.AnalyticsQuery) (*entities.AnalyticsResult, error) {
	endpoint := c.baseURL + "/analytics"
	if params := queryParams(q); len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	out := &entities.AnalyticsResult{}
	if err := c.doJSON(ctx, http.MethodGet, "/analytics", endpoint, nil, out); err != nil {
		return nil, err
	}
	if out.FeatureCounts == nil {
		out.FeatureCounts = []entities.FeatureCount{}
	}
	if out.DailyCounts == nil {
		out.DailyCounts = []entities.DailyCount{}
	}
	return out, nil
}

// Track records one feature interaction
func (c *HTTPClient) Track(ctx context.Context, featureName string) error {
	if strings.TrimSpace(featureName) == "" {
		return apperrors.NewValidationError("feature name is required")
	}
	return c.doJSON(ctx, http.MethodPost, trackPath, c.baseURL+trackPath, entities.TrackEvent{FeatureName: featureName}, nil)
}

// Login exchanges credentials for an access token
func (c *HTTPClient) Login(ctx context.Context, creds entities.Credentials) (*entities.AuthResponse, error) {
	out := &entities.AuthResponse{}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", c.baseURL+"/auth/login", creds, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Register creates an account and signs it in
func (c *HTTPClient) Register(ctx context.Context, reg entities.Registration) (*entities.AuthResponse, error) {
	out := &entities.AuthResponse{}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/register", c.baseURL+"/auth/register", reg, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ForgotPassword asks the backend to send a reset link
func (c *HTTPClient) ForgotPassword(ctx context.Context, req entities.PasswordResetRequest) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/forgot-password", c.baseURL+"/auth/forgot-password", req, nil)
}

// ResetPassword sets a new password with the token from the reset link
func (c *HTTPClient) ResetPassword(ctx context.Context, update entities.PasswordUpdate) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/reset-password", c.baseURL+"/auth/reset-password", update, nil)
}

func queryParams(q entities.AnalyticsQuery) url.Values {
	params := url.Values{}
	if q.StartDate != nil && q.EndDate != nil {
		params.Set("start_date", q.StartDate.UTC().Format(isoMillis))
		params.Set("end_date", q.EndDate.UTC().Format(isoMillis))
	}
	if q.AgeGroup != "" {
		params.Set("age_group", string(q.AgeGroup))
	}
	if q.Gender != "" {
		params.Set("gender", string(q.Gender))
	}
	if q.FeatureName != "" {
		params.Set("feature_name", q.FeatureName)
	}
	return params
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path, endpoint string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return apperrors.NewInternalError("encode request", err)
		}
		reader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return apperrors.NewInternalError("build request", err)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	logger := observability.LoggerFromContext(ctx).With().
		Str("method", method).
		Str("path", path).
		Str("request_id", requestID).
		Logger()

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		logger.Debug().Err(err).Msg("Backend request failed")
		return apperrors.NewNetworkError(fmt.Sprintf("%s %s failed", method, path), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		detail := readDetail(resp.Body)
		if c.tokens != nil && !strings.HasPrefix(path, trackPath) && !strings.HasPrefix(path, authPath) {
			logger.Warn().Msg("Backend rejected credential, signing out")
			c.tokens.Expire(ctx)
		}
		if detail == "" {
			detail = "unauthorized"
		}
		return apperrors.NewUnauthorizedError(detail)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := readDetail(resp.Body)
		if detail == "" {
			detail = http.StatusText(resp.StatusCode)
		}
		logger.Debug().Int("status", resp.StatusCode).Str("detail", detail).Msg("Backend returned an error")
		return apperrors.NewExternalError(detail, fmt.Errorf("status %d", resp.StatusCode))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.NewExternalError("backend returned an unreadable response", err)
	}
	return nil
}

// readDetail extracts FastAPI's error detail, which is either a string or a
// list of validation issues
func readDetail(body io.Reader) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.NewDecoder(io.LimitReader(body, 64<<10)).Decode(&payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(payload.Detail, &text); err == nil {
		return text
	}

	var issues []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &issues); err == nil && len(issues) > 0 {
		msgs := make([]string, 0, len(issues))
		for _, issue := range issues {
			msgs = append(msgs, issue.Msg)
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
