package random

import (
	"github.com/stretchr/testify/require"
	"testing"
	"unicode"
)

func TestLetters(t *testing.T) {
	t.Parallel()

	s, err := Letters(20)
	require.NoError(t, err)
	require.Len(t, s, 20)
	for _, r := range s {
		require.True(t, unicode.IsLetter(r), "expected letter, got %q", r)
	}

	other, err := Letters(20)
	require.NoError(t, err)
	require.NotEqual(t, s, other, "two random strings should not collide")
}
