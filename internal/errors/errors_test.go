package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAppError_CreatesErrorWithCorrectFields(t *testing.T) {
	baseErr := errors.New("base error")
	appErr := NewAppError(baseErr, "custom message", CodeNotFound)

	assert.Equal(t, baseErr, appErr.Err)
	assert.Equal(t, "custom message", appErr.Message)
	assert.Equal(t, CodeNotFound, appErr.Code)
}

func TestAppError_Error_ReturnsMessage(t *testing.T) {
	baseErr := errors.New("base error")
	appErr := NewAppError(baseErr, "custom message", CodeNotFound)

	assert.Equal(t, "custom message", appErr.Error())
}

func TestAppError_Error_ReturnsBaseErrorWhenNoMessage(t *testing.T) {
	baseErr := errors.New("base error")
	appErr := NewAppError(baseErr, "", CodeNotFound)

	assert.Equal(t, "base error", appErr.Error())
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"ErrNotFound", ErrNotFound, true},
		{"ErrEmailNotFound", ErrEmailNotFound, true},
		{"wrapped ErrNotFound", fmt.Errorf("lookup: %w", ErrNotFound), true},
		{"other error", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNotFound(tt.err))
		})
	}
}

func TestGetErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not found", ErrEmailNotFound, CodeNotFound},
		{"invalid input", ErrInvalidInput, CodeInvalidInput},
		{"unavailable", ErrUnavailable, CodeUnavailable},
		{"unknown", errors.New("boom"), CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetErrorCode(tt.err))
		})
	}
}
