package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Format(t *testing.T) {
	plain := NewError(CATALOG_LOAD_FAILED, "cannot read catalog")
	assert.Equal(t, "[CATALOG_LOAD_FAILED] cannot read catalog", plain.Error())

	cause := errors.New("permission denied")
	wrapped := WrapError(CATALOG_LOAD_FAILED, "cannot read catalog", cause)
	assert.Equal(t, "[CATALOG_LOAD_FAILED] cannot read catalog: permission denied", wrapped.Error())
	assert.Equal(t, cause, errors.Unwrap(wrapped))
}

func TestError_IsMatchesOnCode(t *testing.T) {
	a := NewError(COLLABORATOR_UNAVAILABLE, "down")
	b := NewError(COLLABORATOR_UNAVAILABLE, "still down")
	c := NewError(RESPONSE_PARSE_FAILED, "down")

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, c))
	assert.True(t, errors.Is(fmt.Errorf("outer: %w", a), b))
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "retryable", err: NewRetryableError(COLLABORATOR_TIMEOUT, "slow"), want: true},
		{name: "not retryable", err: NewError(PLAN_INVARIANT_VIOLATED, "corrupt"), want: false},
		{name: "wrapped retryable", err: fmt.Errorf("outer: %w", WrapRetryableError(COLLABORATOR_UNAVAILABLE, "down", errors.New("refused"))), want: true},
		{name: "plain error", err: errors.New("mystery"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
