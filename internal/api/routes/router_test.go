package routes_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigility/dashboard/internal/api/handlers"
	"github.com/vigility/dashboard/internal/api/routes"
	"github.com/vigility/dashboard/internal/application/services"
	"github.com/vigility/dashboard/internal/domain/entities"
	"github.com/vigility/dashboard/internal/infrastructure/session"
)

type fixedAnalytics struct {
	queries chan entities.AnalyticsQuery
}

func (f *fixedAnalytics) Query(ctx context.Context, q entities.AnalyticsQuery) (*entities.AnalyticsResult, error) {
	f.queries <- q
	return &entities.AnalyticsResult{
		FeatureCounts: []entities.FeatureCount{{FeatureName: "chart_bar", Count: 7}},
		DailyCounts:   []entities.DailyCount{{Date: "2024-01-01", Count: 7}},
	}, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *fixedAnalytics) {
	t.Helper()
	analytics := &fixedAnalytics{queries: make(chan entities.AnalyticsQuery, 16)}
	controller := services.NewFilterController(analytics, nil, services.FilterControllerConfig{Location: time.UTC})
	store := session.NewStore(nil)
	auth := services.NewAuthService(nil, store)

	router := routes.NewRouter(
		handlers.NewDashboardHandler(controller),
		handlers.NewAuthHandler(auth, store),
		handlers.NewHealthHandler(nil),
		handlers.NewSSEHandler(controller, 0),
		[]string{"http://localhost:5173"},
		nil,
	)
	srv := httptest.NewServer(router.Handler())
	t.Cleanup(srv.Close)
	return srv, analytics
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestRouter_FilterFlow(t *testing.T) {
	srv, analytics := newTestServer(t)

	resp := do(t, "PUT", srv.URL+"/api/filters/gender?wait=true", `{"gender":"Male"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var state services.DashboardState
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	assert.Equal(t, entities.GenderMale, state.Filters.Gender)
	assert.Equal(t, 7, state.Stats.TotalClicks)
	assert.False(t, state.IsLoading)

	q := <-analytics.queries
	assert.Equal(t, entities.GenderMale, q.Gender)

	resp = do(t, "DELETE", srv.URL+"/api/filters?wait=true", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	q = <-analytics.queries
	assert.Equal(t, entities.AnalyticsQuery{}, q)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, "GET", srv.URL+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, "GET", srv.URL+"/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "dashboard_http_requests_total")
}

func TestRouter_CORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t)

	req, err := http.NewRequest("OPTIONS", srv.URL+"/api/dashboard", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "PUT")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRouter_MeRequiresSession(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, "GET", srv.URL+"/api/auth/me", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRouter_UnknownRoute(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, "GET", srv.URL+"/api/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
