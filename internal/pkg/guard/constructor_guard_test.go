package guard_test

import (
	"errors"
	"testing"

	"fulfillment/internal/pkg/guard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorGuard_Validate(t *testing.T) {
	t.Run("properly_constructed_guard_returns_nil", func(t *testing.T) {
		// Given
		g := guard.NewConstructorGuard()

		// Then
		require.NoError(t, g.Validate(errors.New("not constructed")))
		require.NoError(t, g.Validate(nil))
	})

	t.Run("zero_value_guard_returns_custom_error", func(t *testing.T) {
		// Given
		var g guard.ConstructorGuard
		expectedError := errors.New("command not constructed")

		// When
		err := g.Validate(expectedError)

		// Then
		assert.Equal(t, expectedError, err)
	})

	t.Run("zero_value_guard_returns_default_error_when_nil", func(t *testing.T) {
		// Given
		var g guard.ConstructorGuard

		// When
		err := g.Validate(nil)

		// Then
		assert.Equal(t, guard.ErrDefaultConstructorGuard, err)
		assert.Equal(t, "object must be created via its constructor", err.Error())
	})
}

func TestConstructorGuard_EmbeddedInValueObject(t *testing.T) {
	errLabelNotConstructed := errors.New("Label must be created via NewLabel")

	type label struct {
		value string
		guard guard.ConstructorGuard
	}

	newLabel := func(v string) (label, error) {
		if v == "" {
			return label{}, errors.New("label is required")
		}
		return label{value: v, guard: guard.NewConstructorGuard()}, nil
	}

	t.Run("constructed_value_validates", func(t *testing.T) {
		l, err := newLabel("accepted")
		require.NoError(t, err)
		require.NoError(t, l.guard.Validate(errLabelNotConstructed))
	})

	t.Run("zero_value_fails_validation", func(t *testing.T) {
		var l label
		assert.Equal(t, errLabelNotConstructed, l.guard.Validate(errLabelNotConstructed))
	})

	t.Run("copies_keep_their_state", func(t *testing.T) {
		l, err := newLabel("delivered")
		require.NoError(t, err)
		copied := l
		require.NoError(t, copied.guard.Validate(errLabelNotConstructed))
	})
}
