package errors_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	apperrors "github.com/vigility/dashboard/pkg/errors"
)

func TestTypeOf_FindsWrappedAppError(t *testing.T) {
	base := apperrors.NewNetworkError("request failed", fmt.Errorf("dial tcp: refused"))
	wrapped := fmt.Errorf("fetch analytics: %w", base)

	assert.Equal(t, apperrors.ErrorTypeNetwork, apperrors.TypeOf(wrapped))
	assert.True(t, apperrors.IsType(wrapped, apperrors.ErrorTypeNetwork))
	assert.False(t, apperrors.IsType(wrapped, apperrors.ErrorTypeUnauthorized))
}

func TestTypeOf_PlainError(t *testing.T) {
	assert.Equal(t, apperrors.ErrorType(""), apperrors.TypeOf(fmt.Errorf("boom")))
	assert.False(t, apperrors.IsType(nil, apperrors.ErrorTypeInternal))
}

func TestAppError_Message(t *testing.T) {
	err := apperrors.NewCorruptedError("bad snapshot", fmt.Errorf("unexpected EOF"))
	assert.Equal(t, "CORRUPTED: bad snapshot: unexpected EOF", err.Error())

	err = apperrors.NewUnauthorizedError("session expired")
	assert.Equal(t, "UNAUTHORIZED: session expired", err.Error())
}

func TestMessageOf(t *testing.T) {
	err := fmt.Errorf("login: %w", apperrors.NewUnauthorizedError("Invalid email or password"))
	assert.Equal(t, "Invalid email or password", apperrors.MessageOf(err))
	assert.Equal(t, "boom", apperrors.MessageOf(fmt.Errorf("boom")))
	assert.Equal(t, "", apperrors.MessageOf(nil))
}
