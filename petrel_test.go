package petrel

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/petrel-lang/petrel/bytecode"
	"github.com/petrel-lang/petrel/errz"
	"github.com/petrel-lang/petrel/vm"
	"github.com/stretchr/testify/require"
)

func TestEval(t *testing.T) {
	result, err := Eval(context.Background(), "const 3\nconst 4\nadd\n")
	require.Nil(t, err)
	require.Equal(t, 7.0, result)
}

func TestEvalString(t *testing.T) {
	result, err := Eval(context.Background(), `const "hello"`)
	require.Nil(t, err)
	require.Equal(t, "hello", result)
}

func TestEvalNilResult(t *testing.T) {
	var out bytes.Buffer
	result, err := Eval(context.Background(), "const 1\nprint\n", WithOutput(&out))
	require.Nil(t, err)
	require.Nil(t, result)
	require.Equal(t, "1\n", out.String())
}

func TestEvalFunctionResult(t *testing.T) {
	result, err := Eval(context.Background(), `
.func f 2
  getlocal 0
  getlocal 1
  add
  ret
.end
const &f
`)
	require.Nil(t, err)
	fn, ok := result.(*bytecode.Function)
	require.True(t, ok)
	require.Equal(t, "f", fn.Name())
	require.Equal(t, 2, fn.Arity())
}

func TestEvalAssemblyError(t *testing.T) {
	_, err := Eval(context.Background(), "frobnicate\n", WithFilename("prog.pasm"))
	require.ErrorContains(t, err, `unknown instruction "frobnicate"`)
	require.ErrorContains(t, err, "prog.pasm:1")
}

func TestEvalRuntimeError(t *testing.T) {
	_, err := Eval(context.Background(), "getglobal missing\n")
	require.NotNil(t, err)
	kind, ok := errz.KindOf(err)
	require.True(t, ok)
	require.Equal(t, errz.UndefinedVariable, kind)
}

func TestAssembleOnceRunTwice(t *testing.T) {
	chunk, err := Assemble("const 40\nconst 2\nadd\n")
	require.Nil(t, err)

	for i := 0; i < 2; i++ {
		result, err := Run(context.Background(), chunk)
		require.Nil(t, err)
		require.Equal(t, 42.0, result)
	}
}

func TestWithGlobals(t *testing.T) {
	result, err := Eval(context.Background(), "getglobal limit\nconst 2\nmul\n",
		WithGlobal("limit", 21))
	require.Nil(t, err)
	require.Equal(t, 42.0, result)

	result, err = Eval(context.Background(), "getglobal name\n",
		WithGlobals(map[string]any{"name": "petrel"}))
	require.Nil(t, err)
	require.Equal(t, "petrel", result)
}

func TestWithGlobalsConversionError(t *testing.T) {
	_, err := Eval(context.Background(), "nop\n", WithGlobal("bad", struct{}{}))
	require.ErrorContains(t, err, `global "bad"`)
	require.ErrorContains(t, err, "unsupported Go type")
}

func TestWithInstructionLimit(t *testing.T) {
	_, err := Eval(context.Background(), "top:\nnop\njump top\n",
		WithInstructionLimit(5000))
	require.True(t, errors.Is(err, vm.ErrInstructionLimit))
}

func TestWithMaxFrameDepth(t *testing.T) {
	_, err := Eval(context.Background(), `
.func forever 0
  getglobal forever
  call 0
  ret
.end
const &forever
defglobal forever
getglobal forever
call 0
`, WithMaxFrameDepth(16))
	kind, ok := errz.KindOf(err)
	require.True(t, ok)
	require.Equal(t, errz.StackOverflow, kind)
}

func TestVMKeepsState(t *testing.T) {
	machine, err := NewVM()
	require.Nil(t, err)

	ctx := context.Background()
	result, err := machine.Eval(ctx, "const 5\ndefglobal x\n")
	require.Nil(t, err)
	require.Nil(t, result)

	result, err = machine.Eval(ctx, "getglobal x\nconst 1\nadd\n")
	require.Nil(t, err)
	require.Equal(t, 6.0, result)

	require.Equal(t, []string{"x"}, machine.GlobalNames())

	value, err := machine.Get("x")
	require.Nil(t, err)
	require.Equal(t, "5", value.Inspect())
}

func TestVMSeededGlobals(t *testing.T) {
	machine, err := NewVM(WithGlobal("greeting", "hello"))
	require.Nil(t, err)

	result, err := machine.Eval(context.Background(), "getglobal greeting\n")
	require.Nil(t, err)
	require.Equal(t, "hello", result)
}

func TestVMRunChunk(t *testing.T) {
	machine, err := NewVM()
	require.Nil(t, err)

	chunk, err := Assemble("const 2\nconst 3\nmul\n")
	require.Nil(t, err)

	result, err := machine.RunChunk(context.Background(), chunk)
	require.Nil(t, err)
	require.Equal(t, 6.0, result)
}
