package object

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTypes(t *testing.T) {
	require.Equal(t, Type("number"), NewNumber(1).Type())
	require.Equal(t, Type("bool"), True.Type())
	require.Equal(t, Type("nil"), Nil.Type())
	require.Equal(t, Type("string"), NewString("x").Type())
}

func TestSingletons(t *testing.T) {
	require.Same(t, True, NewBool(true))
	require.Same(t, False, NewBool(false))
	require.True(t, True.Value())
	require.False(t, False.Value())
}

func TestKeys(t *testing.T) {
	m := map[string]Object{
		"banana": NewNumber(1),
		"apple":  NewNumber(2),
		"cherry": NewNumber(3),
	}
	require.Equal(t, []string{"apple", "banana", "cherry"}, Keys(m))
}

func TestPrintableValue(t *testing.T) {
	tests := []struct {
		obj      Object
		expected string
	}{
		{NewString("hello"), "hello"},
		{NewString(""), ""},
		{NewNumber(7), "7"},
		{NewNumber(2.5), "2.5"},
		{True, "true"},
		{False, "false"},
		{Nil, "nil"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.expected, PrintableValue(tt.obj))
	}
}

func TestInterface(t *testing.T) {
	require.Equal(t, 2.5, NewNumber(2.5).Interface())
	require.Equal(t, true, True.Interface())
	require.Equal(t, "hi", NewString("hi").Interface())
	require.Nil(t, Nil.Interface())
}
