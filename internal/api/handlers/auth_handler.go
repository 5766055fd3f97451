package handlers

import (
	"context"
	"net/http"

	"github.com/vigility/dashboard/internal/domain/entities"
)

// AuthFlows are the account operations exposed over the API
type AuthFlows interface {
	SignIn(ctx context.Context, email, password string) (*entities.User, error)
	SignUp(ctx context.Context, reg entities.Registration) (*entities.User, error)
	SignOut(ctx context.Context) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// SessionReader reports who is signed in
type SessionReader interface {
	User() *entities.User
}

// AuthHandler handles the account endpoints
type AuthHandler struct {
	auth    AuthFlows
	session SessionReader
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth AuthFlows, session SessionReader) *AuthHandler {
	return &AuthHandler{auth: auth, session: session}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithAppError(w, err)
		return
	}
	user, err := h.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, user)
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req entities.Registration
	if err := decodeBody(r, &req); err != nil {
		respondWithAppError(w, err)
		return
	}
	user, err := h.auth.SignUp(r.Context(), req)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, user)
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.SignOut(r.Context()); err != nil {
		respondWithAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ForgotPassword handles POST /api/auth/forgot-password
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithAppError(w, err)
		return
	}
	if err := h.auth.ForgotPassword(r.Context(), req.Email); err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

// ResetPassword handles POST /api/auth/reset-password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req entities.PasswordUpdate
	if err := decodeBody(r, &req); err != nil {
		respondWithAppError(w, err)
		return
	}
	if err := h.auth.ResetPassword(r.Context(), req.AccessToken, req.NewPassword); err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := h.session.User()
	if user == nil {
		respondWithError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	respondWithJSON(w, http.StatusOK, user)
}
