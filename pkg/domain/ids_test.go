package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePolicyID(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParsePolicyID("")
		require.Error(t, err)
	})

	t.Run("rejects non-numeric input", func(t *testing.T) {
		_, err := ParsePolicyID("not-a-number")
		require.Error(t, err)
	})

	t.Run("rejects negative values", func(t *testing.T) {
		_, err := ParsePolicyID("-1")
		require.Error(t, err)
	})

	t.Run("round-trips through String", func(t *testing.T) {
		id, err := ParsePolicyID("42")
		require.NoError(t, err)
		assert.Equal(t, PolicyID(42), id)
		assert.Equal(t, "42", id.String())
	})
}
