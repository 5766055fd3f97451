package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vigility/dashboard/internal/application/services"
	"github.com/vigility/dashboard/internal/domain/entities"
	"github.com/vigility/dashboard/internal/infrastructure/session"
	apperrors "github.com/vigility/dashboard/pkg/errors"
)

func TestAuthService_SignInStartsSession(t *testing.T) {
	ctx := context.Background()
	auth := new(MockAuthProvider)
	store := session.NewStore(nil)
	svc := services.NewAuthService(auth, store)

	var signedIn string
	store.OnSignIn(func(_ context.Context, u entities.User) { signedIn = u.ID })

	auth.On("Login", mock.Anything, entities.Credentials{Email: "ann@example.com", Password: "secret1"}).
		Return(&entities.AuthResponse{AccessToken: "tok", TokenType: "bearer", User: entities.User{ID: "u1", Email: "ann@example.com"}}, nil)

	user, err := svc.SignIn(ctx, " ann@example.com ", "secret1")

	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "tok", store.Token())
	assert.Equal(t, "u1", signedIn)
	auth.AssertExpectations(t)
}

func TestAuthService_SignInValidatesBeforeCalling(t *testing.T) {
	auth := new(MockAuthProvider)
	svc := services.NewAuthService(auth, session.NewStore(nil))

	_, err := svc.SignIn(context.Background(), "not-an-email", "")

	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	auth.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
}

func TestAuthService_SignInPropagatesRejection(t *testing.T) {
	auth := new(MockAuthProvider)
	store := session.NewStore(nil)
	svc := services.NewAuthService(auth, store)
	auth.On("Login", mock.Anything, mock.Anything).Return(nil, apperrors.NewUnauthorizedError("Invalid email or password"))

	_, err := svc.SignIn(context.Background(), "ann@example.com", "wrong")

	assert.Equal(t, "Invalid email or password", apperrors.MessageOf(err))
	assert.False(t, store.IsAuthenticated())
}

func TestAuthService_SignUpNormalizesGender(t *testing.T) {
	auth := new(MockAuthProvider)
	svc := services.NewAuthService(auth, session.NewStore(nil))

	auth.On("Register", mock.Anything, mock.MatchedBy(func(r entities.Registration) bool {
		return r.Gender == "Female" && r.Username == "ann"
	})).Return(&entities.AuthResponse{AccessToken: "tok", User: entities.User{ID: "u2"}}, nil)

	user, err := svc.SignUp(context.Background(), entities.Registration{
		Email: "ann@example.com", Password: "secret1", Username: " ann ", Age: 25, Gender: "female",
	})

	require.NoError(t, err)
	assert.Equal(t, "u2", user.ID)
}

func TestAuthService_SignUpRejectsBadProfile(t *testing.T) {
	auth := new(MockAuthProvider)
	svc := services.NewAuthService(auth, session.NewStore(nil))

	_, err := svc.SignUp(context.Background(), entities.Registration{
		Email: "ann@example.com", Password: "secret1", Username: "ann", Age: 121, Gender: "Other",
	})

	assert.Equal(t, "age must be at most 120", apperrors.MessageOf(err))
	auth.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestAuthService_SignOutClearsSession(t *testing.T) {
	ctx := context.Background()
	store := session.NewStore(nil)
	require.NoError(t, store.Set(ctx, "tok", entities.User{ID: "u1"}))

	require.NoError(t, services.NewAuthService(new(MockAuthProvider), store).SignOut(ctx))

	assert.Empty(t, store.Token())
}

func TestAuthService_PasswordFlows(t *testing.T) {
	ctx := context.Background()
	auth := new(MockAuthProvider)
	svc := services.NewAuthService(auth, session.NewStore(nil))

	auth.On("ForgotPassword", mock.Anything, entities.PasswordResetRequest{Email: "ann@example.com"}).Return(nil)
	auth.On("ResetPassword", mock.Anything, entities.PasswordUpdate{AccessToken: "reset-tok", NewPassword: "newsecret"}).Return(nil)

	require.NoError(t, svc.ForgotPassword(ctx, "ann@example.com"))
	require.NoError(t, svc.ResetPassword(ctx, "reset-tok", "newsecret"))

	err := svc.ResetPassword(ctx, "reset-tok", "short")
	assert.Equal(t, "new_password must be at least 6 characters", apperrors.MessageOf(err))
	auth.AssertExpectations(t)
}
