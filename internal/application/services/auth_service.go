package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/vigility/dashboard/internal/domain/entities"
	"github.com/vigility/dashboard/internal/domain/providers"
	apperrors "github.com/vigility/dashboard/pkg/errors"
	"github.com/vigility/dashboard/pkg/validation"
)

// SessionWriter is the part of the session store the auth flows change
type SessionWriter interface {
	Set(ctx context.Context, token string, user entities.User) error
	Clear(ctx context.Context) error
}

// AuthService runs the sign-in, sign-up and password flows
type AuthService struct {
	auth    providers.AuthProvider
	session SessionWriter
}

// NewAuthService creates a new auth service
func NewAuthService(auth providers.AuthProvider, session SessionWriter) *AuthService {
	return &AuthService{auth: auth, session: session}
}

// SignIn exchanges credentials for a session
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*entities.User, error) {
	creds := entities.Credentials{Email: strings.TrimSpace(email), Password: password}
	if err := validation.Struct(creds); err != nil {
		return nil, err
	}

	resp, err := s.auth.Login(ctx, creds)
	if err != nil {
		return nil, err
	}
	return s.start(ctx, resp)
}

// SignUp creates an account and signs it in
func (s *AuthService) SignUp(ctx context.Context, reg entities.Registration) (*entities.User, error) {
	reg.Email = strings.TrimSpace(reg.Email)
	reg.Username = strings.TrimSpace(reg.Username)
	if g, err := entities.ParseGender(reg.Gender); err == nil && g != "" {
		reg.Gender = string(g)
	}
	if err := validation.Struct(reg); err != nil {
		return nil, err
	}

	resp, err := s.auth.Register(ctx, reg)
	if err != nil {
		return nil, err
	}
	return s.start(ctx, resp)
}

// SignOut ends the session locally. The backend keeps no session state.
func (s *AuthService) SignOut(ctx context.Context) error {
	return s.session.Clear(ctx)
}

// ForgotPassword requests a reset link for email
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	req := entities.PasswordResetRequest{Email: strings.TrimSpace(email)}
	if err := validation.Struct(req); err != nil {
		return err
	}
	return s.auth.ForgotPassword(ctx, req)
}

// ResetPassword sets a new password using the token from the reset link
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	update := entities.PasswordUpdate{AccessToken: strings.TrimSpace(token), NewPassword: newPassword}
	if err := validation.Struct(update); err != nil {
		return err
	}
	return s.auth.ResetPassword(ctx, update)
}

func (s *AuthService) start(ctx context.Context, resp *entities.AuthResponse) (*entities.User, error) {
	if resp.AccessToken == "" {
		return nil, apperrors.NewExternalError("backend returned no access token", nil)
	}
	if err := s.session.Set(ctx, resp.AccessToken, resp.User); err != nil {
		// the in-memory session is set; only persistence failed
		log.Warn().Err(err).Msg("Failed to save session")
	}
	user := resp.User
	return &user, nil
}
