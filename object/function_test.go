package object

import (
	"testing"

	"github.com/petrel-lang/petrel/bytecode"
	"github.com/petrel-lang/petrel/op"
	"github.com/stretchr/testify/require"
)

func testFunctionTemplate(t *testing.T, name string, arity int) *bytecode.Function {
	t.Helper()
	chunk, err := bytecode.NewChunk(bytecode.ChunkParams{
		ID:           "body-" + name,
		Name:         name,
		Instructions: []op.Code{op.Nil, op.ReturnValue},
	})
	require.Nil(t, err)
	return bytecode.NewFunction(bytecode.FunctionParams{
		ID:    "fn-" + name,
		Name:  name,
		Arity: arity,
		Chunk: chunk,
	})
}

func TestFunctionInspect(t *testing.T) {
	fn := NewFunction(testFunctionTemplate(t, "add", 2))
	require.Equal(t, "func add/2", fn.Inspect())
	require.Equal(t, "add", fn.Name())
	require.Equal(t, 2, fn.Arity())
	require.NotNil(t, fn.Chunk())
}

func TestFunctionEquals(t *testing.T) {
	template := testFunctionTemplate(t, "f", 1)

	// Two objects wrapping the same template are equal
	a := NewFunction(template)
	b := NewFunction(template)
	require.True(t, a.Equals(b))

	// A distinct template is never equal, even with the same name and arity
	other := NewFunction(testFunctionTemplate(t, "f", 1))
	require.False(t, a.Equals(other))

	// Functions never equal other types
	require.False(t, a.Equals(NewString("f")))
	require.False(t, a.Equals(Nil))
}

func TestFunctionTruthiness(t *testing.T) {
	fn := NewFunction(testFunctionTemplate(t, "f", 0))
	require.True(t, fn.IsTruthy())
}
