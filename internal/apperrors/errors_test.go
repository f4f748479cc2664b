package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidation(t *testing.T) {
	err := Validation("name", "Name must be at least 3 characters long.")

	assert.Equal(t, KindValidation, err.Kind)
	assert.Equal(t, "name", err.Field)
	assert.Equal(t, "VALIDATION_ERROR: Name must be at least 3 characters long.", err.Error())
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection refused")

	assert.Nil(t, Wrap(nil, KindUnavailable, "x"))

	err := Wrap(cause, KindUnavailable, MsgTryAgainLater)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestIsKindThroughWrapping(t *testing.T) {
	err := fmt.Errorf("login: %w", New(KindInvalidCredentials, "bad"))

	assert.True(t, IsKind(err, KindInvalidCredentials))
	assert.False(t, IsKind(err, KindConflict))
	assert.False(t, IsKind(errors.New("plain"), KindConflict))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "", Message(nil))
	assert.Equal(t, "bad", Message(New(KindBadRequest, "bad")))
	assert.Equal(t, MsgTryAgainLater, Message(errors.New("boom")))
}

func TestFromResponse(t *testing.T) {
	cause := errors.New("status 401")
	err := FromResponse(cause, 401, "Failed to load.")
	assert.Equal(t, KindUnauthorized, err.Kind)
	assert.Equal(t, MsgSessionLost, err.Message)
	assert.ErrorIs(t, err, cause)

	err = FromResponse(cause, 500, "Failed to load.")
	assert.Equal(t, KindUnavailable, err.Kind)
	assert.Equal(t, "Failed to load.", err.Message)
	assert.Equal(t, 500, err.Status)

	assert.Nil(t, FromResponse(nil, 0, "x"))
}
