package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigility/dashboard/internal/api/handlers"
	"github.com/vigility/dashboard/internal/application/services"
	"github.com/vigility/dashboard/internal/domain/entities"
)

type stubController struct {
	mu     sync.Mutex
	state  services.DashboardState
	calls  []string
	waited bool
}

func (s *stubController) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

func (s *stubController) State() services.DashboardState { return s.state }

func (s *stubController) SetDateRange(ctx context.Context, start, end string) {
	s.record("date:" + start + ".." + end)
	s.state.Filters.DateRange = entities.DateRange{Start: start, End: end}
}

func (s *stubController) SetAgeGroup(ctx context.Context, group entities.AgeGroup) {
	s.record("age:" + string(group))
	s.state.Filters.AgeGroup = group
}

func (s *stubController) SetGender(ctx context.Context, gender entities.Gender) {
	s.record("gender:" + string(gender))
	s.state.Filters.Gender = gender
}

func (s *stubController) ToggleFeatureSelection(ctx context.Context, name string) {
	s.record("toggle:" + name)
}

func (s *stubController) ClearFeatureSelection(ctx context.Context) { s.record("clear-feature") }
func (s *stubController) ClearAll(ctx context.Context) { s.record("clear-all") }
func (s *stubController) Refresh(ctx context.Context) { s.record("refresh") }
func (s *stubController) Wait() { s.waited = true }

func decodeState(t *testing.T, w *httptest.ResponseRecorder) services.DashboardState {
	t.Helper()
	var state services.DashboardState
	require.NoError(t, json.NewDecoder(w.Body).Decode(&state))
	return state
}

func TestDashboardHandler_SetDateRange(t *testing.T) {
	controller := &stubController{}
	handler := handlers.NewDashboardHandler(controller)

	req := httptest.NewRequest("PUT", "/api/filters/date-range", strings.NewReader(`{"start":"2024-01-01","end":"2024-01-31"}`))
	w := httptest.NewRecorder()
	handler.SetDateRange(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"date:2024-01-01..2024-01-31"}, controller.calls)
	state := decodeState(t, w)
	assert.Equal(t, "2024-01-31", state.Filters.DateRange.End)
	assert.False(t, controller.waited)
}

func TestDashboardHandler_WaitQueryParam(t *testing.T) {
	controller := &stubController{}
	handler := handlers.NewDashboardHandler(controller)

	req := httptest.NewRequest("POST", "/api/refresh?wait=true", nil)
	w := httptest.NewRecorder()
	handler.Refresh(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, controller.waited)
	assert.Equal(t, []string{"refresh"}, controller.calls)
}

func TestDashboardHandler_SetAgeGroup(t *testing.T) {
	controller := &stubController{}
	handler := handlers.NewDashboardHandler(controller)

	req := httptest.NewRequest("PUT", "/api/filters/age-group", strings.NewReader(`{"age_group":">40"}`))
	w := httptest.NewRecorder()
	handler.SetAgeGroup(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, entities.AgeGroupOver40, decodeState(t, w).Filters.AgeGroup)
}

func TestDashboardHandler_RejectsUnknownValues(t *testing.T) {
	controller := &stubController{}
	handler := handlers.NewDashboardHandler(controller)

	req := httptest.NewRequest("PUT", "/api/filters/age-group", strings.NewReader(`{"age_group":"65+"}`))
	w := httptest.NewRecorder()
	handler.SetAgeGroup(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req = httptest.NewRequest("PUT", "/api/filters/gender", strings.NewReader(`{"gender":"robot"}`))
	w = httptest.NewRecorder()
	handler.SetGender(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Empty(t, controller.calls)
}

func TestDashboardHandler_SetGenderIgnoresCase(t *testing.T) {
	controller := &stubController{}
	handler := handlers.NewDashboardHandler(controller)

	req := httptest.NewRequest("PUT", "/api/filters/gender", strings.NewReader(`{"gender":"female"}`))
	w := httptest.NewRecorder()
	handler.SetGender(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"gender:Female"}, controller.calls)
}

func TestDashboardHandler_EmptyValueClearsFilter(t *testing.T) {
	controller := &stubController{}
	handler := handlers.NewDashboardHandler(controller)

	req := httptest.NewRequest("PUT", "/api/filters/gender", strings.NewReader(`{"gender":""}`))
	w := httptest.NewRecorder()
	handler.SetGender(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"gender:"}, controller.calls)
}

func TestDashboardHandler_ToggleFeature(t *testing.T) {
	controller := &stubController{}
	handler := handlers.NewDashboardHandler(controller)

	req := httptest.NewRequest("POST", "/api/filters/feature/toggle", strings.NewReader(`{"feature_name":" chart_bar "}`))
	w := httptest.NewRecorder()
	handler.ToggleFeature(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest("POST", "/api/filters/feature/toggle", strings.NewReader(`{"feature_name":""}`))
	w = httptest.NewRecorder()
	handler.ToggleFeature(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, []string{"toggle:chart_bar"}, controller.calls)
}

func TestDashboardHandler_InvalidPayload(t *testing.T) {
	handler := handlers.NewDashboardHandler(&stubController{})

	req := httptest.NewRequest("PUT", "/api/filters/date-range", strings.NewReader(`{`))
	w := httptest.NewRecorder()
	handler.SetDateRange(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "invalid request payload", body["error"])
}
