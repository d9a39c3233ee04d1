package object

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNilInspect(t *testing.T) {
	require.Equal(t, "nil", Nil.Inspect())
	require.Equal(t, "nil", Nil.String())
}

func TestNilEquals(t *testing.T) {
	require.True(t, Nil.Equals(&NilType{}))
	require.False(t, Nil.Equals(False))
	require.False(t, Nil.Equals(NewNumber(0)))
	require.False(t, Nil.Equals(NewString("")))
}

func TestNilTruthiness(t *testing.T) {
	require.False(t, Nil.IsTruthy())
}

func TestNilMarshalJSON(t *testing.T) {
	data, err := Nil.MarshalJSON()
	require.Nil(t, err)
	require.Equal(t, "null", string(data))
}
