package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorIs(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"same code", NewSessionNotFoundError("abc"), ErrSessionNotFound, true},
		{"wrapped", fmt.Errorf("execute: %w", NewSessionExpiredError("abc")), ErrSessionExpired, true},
		{"different code", NewSessionExpiredError("abc"), ErrSessionNotFound, false},
		{"plain error", stderrors.New("boom"), ErrSessionNotFound, false},
		{"limit", NewExecutionLimitError("emergency_mood_log", 5), ErrExecutionLimitExceeded, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stderrors.Is(tt.err, tt.target))
		})
	}
}

func TestStatusAndCode(t *testing.T) {
	assert.Equal(t, 404, GetStatusCode(NewSessionNotFoundError("x")))
	assert.Equal(t, 500, GetStatusCode(stderrors.New("x")))
	assert.Equal(t, CodeInvalidAnswer, CodeOf(fmt.Errorf("score: %w", NewInvalidAnswerError("bad"))))
	assert.Equal(t, CodeInternal, CodeOf(stderrors.New("x")))
	assert.True(t, IsType(NewOperationNotAllowedError("delete_account"), ErrorTypePolicy))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("redis down")
	err := NewInternalError("persist failed").WithCause(cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "redis down")
	assert.Nil(t, Wrap(nil, "noop"))
}
