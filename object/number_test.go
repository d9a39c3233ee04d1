package object

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNumberInspect(t *testing.T) {
	tests := []struct {
		value    float64
		expected string
	}{
		{0, "0"},
		{7, "7"},
		{-7, "-7"},
		{2.5, "2.5"},
		{-0.125, "-0.125"},
		{1e6, "1000000"},
		{0.1, "0.1"},
		{1.0 / 3.0, "0.3333333333333333"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.expected, NewNumber(tt.value).Inspect())
	}
}

func TestNumberEquals(t *testing.T) {
	require.True(t, NewNumber(3).Equals(NewNumber(3)))
	require.False(t, NewNumber(3).Equals(NewNumber(4)))

	// NaN does not equal itself
	require.False(t, NewNumber(math.NaN()).Equals(NewNumber(math.NaN())))

	// Numbers never equal other types
	require.False(t, NewNumber(1).Equals(True))
	require.False(t, NewNumber(0).Equals(Nil))
	require.False(t, NewNumber(1).Equals(NewString("1")))
}

func TestNumberTruthiness(t *testing.T) {
	require.True(t, NewNumber(1).IsTruthy())
	require.True(t, NewNumber(-1).IsTruthy())
	require.True(t, NewNumber(0).IsTruthy())
	require.True(t, NewNumber(math.NaN()).IsTruthy())
}

func TestNumberValue(t *testing.T) {
	n := NewNumber(42.5)
	require.Equal(t, 42.5, n.Value())
	require.Equal(t, "42.5", n.String())
}
