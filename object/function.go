package object

import (
	"encoding/json"

	"github.com/petrel-lang/petrel/bytecode"
)

// Function wraps a compiled function template and implements the Object
// interface. Two Function objects are equal when they wrap the same
// template, so a function only ever equals itself however many times it
// is loaded from a constant pool.
type Function struct {
	fn *bytecode.Function
}

func (f *Function) Type() Type {
	return FUNCTION
}

// Inspect renders the function as "func name/arity", e.g. "func add/2".
func (f *Function) Inspect() string {
	return f.fn.String()
}

// Name returns the function name, or empty string for anonymous functions.
func (f *Function) Name() string {
	return f.fn.Name()
}

// Arity returns the declared parameter count.
func (f *Function) Arity() int {
	return f.fn.Arity()
}

// Chunk returns the compiled body of this function.
func (f *Function) Chunk() *bytecode.Chunk {
	return f.fn.Chunk()
}

// Function returns the underlying compiled function template.
func (f *Function) Function() *bytecode.Function {
	return f.fn
}

func (f *Function) Interface() interface{} {
	return f.fn
}

func (f *Function) String() string {
	return f.fn.String()
}

func (f *Function) Equals(other Object) bool {
	if other, ok := other.(*Function); ok {
		return f.fn == other.fn
	}
	return false
}

func (f *Function) IsTruthy() bool {
	return true
}

func (f *Function) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.fn.String())
}

func NewFunction(fn *bytecode.Function) *Function {
	return &Function{fn: fn}
}
