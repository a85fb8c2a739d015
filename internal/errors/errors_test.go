package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	t.Run("wraps error with context", func(t *testing.T) {
		err := Wrap(ErrNotFound, "device lookup")
		assert.EqualError(t, err, "device lookup: not found")
		assert.True(t, Is(err, ErrNotFound))
	})

	t.Run("nil error returns nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, "context"))
	})

	t.Run("chain survives multiple wraps", func(t *testing.T) {
		err := Wrap(Wrap(ErrConflict, "inner"), "outer")
		assert.True(t, Is(err, ErrConflict))
		assert.False(t, Is(err, ErrNotFound))
	})
}

func TestSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{ErrNotFound, ErrConflict, ErrInvalidInput, ErrUnauthorized, ErrForbidden}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i == j {
				continue
			}
			assert.False(t, Is(a, b))
		}
	}
}
