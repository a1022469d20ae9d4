package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "direct typed error", err: Validation("title is required"), want: KindValidation},
		{name: "wrapped typed error", err: fmt.Errorf("approve proposal: %w", Permission("actor is not a supervisor")), want: KindPermission},
		{name: "plain error", err: errors.New("disk full"), want: Kind("")},
		{name: "nil", err: nil, want: Kind("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestIs(t *testing.T) {
	err := fmt.Errorf("decide consultation: %w", InvalidState("approved", "rejected", "consultation already decided"))
	assert.True(t, Is(err, KindInvalidState))
	assert.False(t, Is(err, KindConflict))
	assert.False(t, Is(errors.New("plain"), KindValidation))
}

func TestErrorMessage(t *testing.T) {
	t.Run("invalid state names both states", func(t *testing.T) {
		err := InvalidState("rejected", "approved", "proposal is terminal")
		assert.Equal(t, "INVALID_STATE: proposal is terminal (current=rejected, attempted=approved)", err.Error())
	})

	t.Run("wrapped cause is included and unwraps", func(t *testing.T) {
		cause := errors.New("row locked")
		err := &Error{Kind: KindConflict, Msg: "proposal was modified concurrently", Err: cause}
		assert.Contains(t, err.Error(), "row locked")
		assert.ErrorIs(t, err, cause)
	})

	t.Run("plain kinds", func(t *testing.T) {
		assert.Equal(t, "NOT_FOUND: proposal 42 not found", NotFound("proposal %d not found", 42).Error())
	})
}

func TestRetryable(t *testing.T) {
	assert.True(t, Conflict("version mismatch").Retryable())
	assert.True(t, InvalidState("submitted", "approved", "stale read").Retryable())
	assert.False(t, Validation("bad input").Retryable())
	assert.False(t, Permission("not allowed").Retryable())
	assert.False(t, NotFound("gone").Retryable())
	assert.False(t, Precondition("missing step").Retryable())
}
