package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/vigility/dashboard/internal/application/services"
	"github.com/vigility/dashboard/internal/domain/entities"
	apperrors "github.com/vigility/dashboard/pkg/errors"
)

// DashboardController is the part of the filter controller the API drives
type DashboardController interface {
	State() services.DashboardState
	SetDateRange(ctx context.Context, start, end string)
	SetAgeGroup(ctx context.Context, group entities.AgeGroup)
	SetGender(ctx context.Context, gender entities.Gender)
	ToggleFeatureSelection(ctx context.Context, name string)
	ClearFeatureSelection(ctx context.Context)
	ClearAll(ctx context.Context)
	Refresh(ctx context.Context)
	Wait()
}

// DashboardHandler exposes the dashboard state and its filter operations
type DashboardHandler struct {
	controller DashboardController
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(controller DashboardController) *DashboardHandler {
	return &DashboardHandler{controller: controller}
}

type dateRangeRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type ageGroupRequest struct {
	AgeGroup string `json:"age_group"`
}

type genderRequest struct {
	Gender string `json:"gender"`
}

type featureRequest struct {
	FeatureName string `json:"feature_name"`
}

// GetDashboard handles GET /api/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	h.respondWithState(w, r)
}

// SetDateRange handles PUT /api/filters/date-range
func (h *DashboardHandler) SetDateRange(w http.ResponseWriter, r *http.Request) {
	var req dateRangeRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithAppError(w, err)
		return
	}
	h.controller.SetDateRange(r.Context(), req.Start, req.End)
	h.respondWithState(w, r)
}

// SetAgeGroup handles PUT /api/filters/age-group
func (h *DashboardHandler) SetAgeGroup(w http.ResponseWriter, r *http.Request) {
	var req ageGroupRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithAppError(w, err)
		return
	}
	group, err := entities.ParseAgeGroup(req.AgeGroup)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	h.controller.SetAgeGroup(r.Context(), group)
	h.respondWithState(w, r)
}

// SetGender handles PUT /api/filters/gender
func (h *DashboardHandler) SetGender(w http.ResponseWriter, r *http.Request) {
	var req genderRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithAppError(w, err)
		return
	}
	gender, err := entities.ParseGender(req.Gender)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	h.controller.SetGender(r.Context(), gender)
	h.respondWithState(w, r)
}

// ToggleFeature handles POST /api/filters/feature/toggle
func (h *DashboardHandler) ToggleFeature(w http.ResponseWriter, r *http.Request) {
	var req featureRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithAppError(w, err)
		return
	}
	name := strings.TrimSpace(req.FeatureName)
	if name == "" {
		respondWithAppError(w, apperrors.NewValidationError("feature_name is required"))
		return
	}
	h.controller.ToggleFeatureSelection(r.Context(), name)
	h.respondWithState(w, r)
}

// ClearFeature handles DELETE /api/filters/feature
func (h *DashboardHandler) ClearFeature(w http.ResponseWriter, r *http.Request) {
	h.controller.ClearFeatureSelection(r.Context())
	h.respondWithState(w, r)
}

// ClearAll handles DELETE /api/filters
func (h *DashboardHandler) ClearAll(w http.ResponseWriter, r *http.Request) {
	h.controller.ClearAll(r.Context())
	h.respondWithState(w, r)
}

// Refresh handles POST /api/refresh
func (h *DashboardHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.controller.Refresh(r.Context())
	h.respondWithState(w, r)
}

// respondWithState writes the current state. With ?wait=true it first waits
// for in-flight queries so the response carries their outcome.
func (h *DashboardHandler) respondWithState(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("wait") == "true" {
		h.controller.Wait()
	}
	respondWithJSON(w, http.StatusOK, h.controller.State())
}
