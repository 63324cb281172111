package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodes(t *testing.T) {
	t.Run("wrapped cause is preserved", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := Wrap(cause, CodeInternal, "failed to load user")

		require.ErrorIs(t, err, cause)
		assert.True(t, HasCode(err, CodeInternal))
		assert.Equal(t, "failed to load user: connection reset", err.Error())
	})

	t.Run("code survives fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("issue: %w", New(CodeWalletMismatch, "wallet mismatch"))

		assert.True(t, HasCode(err, CodeWalletMismatch))
		assert.Equal(t, CodeWalletMismatch, CodeOf(err))
		assert.Equal(t, "wallet mismatch", Message(err))
	})

	t.Run("uncoded errors are internal", func(t *testing.T) {
		err := errors.New("boom")

		assert.False(t, HasCode(err, CodeNotFound))
		assert.Equal(t, CodeInternal, CodeOf(err))
		assert.Equal(t, "internal error", Message(err))
	})

	t.Run("wrapping nil stays nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, CodeInternal, "unused"))
	})
}
