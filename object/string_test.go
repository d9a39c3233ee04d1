package object

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStringInspect(t *testing.T) {
	// Inspect quotes the value; PrintableValue yields the raw text
	s := NewString("hello")
	require.Equal(t, `"hello"`, s.Inspect())
	require.Equal(t, "hello", s.Value())
	require.Equal(t, "hello", PrintableValue(s))
}

func TestStringEquals(t *testing.T) {
	require.True(t, NewString("abc").Equals(NewString("abc")))
	require.False(t, NewString("abc").Equals(NewString("abd")))
	require.True(t, NewString("").Equals(NewString("")))

	// Strings never equal other types
	require.False(t, NewString("1").Equals(NewNumber(1)))
	require.False(t, NewString("true").Equals(True))
	require.False(t, NewString("").Equals(Nil))
}

func TestStringTruthiness(t *testing.T) {
	require.True(t, NewString("x").IsTruthy())
	require.True(t, NewString("").IsTruthy())
	require.True(t, NewString("false").IsTruthy())
}
