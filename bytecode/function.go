package bytecode

import "fmt"

// Function represents a compiled function template: a name, a declared
// arity, and the chunk holding the body. It is immutable after creation.
// Calls must supply exactly arity arguments; there are no defaults or rest
// parameters.
type Function struct {
	id    string
	name  string
	arity int
	chunk *Chunk
}

// FunctionParams contains parameters for creating a new Function.
type FunctionParams struct {
	ID    string
	Name  string
	Arity int
	Chunk *Chunk
}

// NewFunction creates a new immutable Function from the given parameters.
func NewFunction(params FunctionParams) *Function {
	return &Function{
		id:    params.ID,
		name:  params.Name,
		arity: params.Arity,
		chunk: params.Chunk,
	}
}

// ID returns the unique identifier for this function.
func (f *Function) ID() string {
	return f.id
}

// Name returns the function name, or empty string for anonymous functions.
func (f *Function) Name() string {
	return f.name
}

// Arity returns the declared parameter count.
func (f *Function) Arity() int {
	return f.arity
}

// Chunk returns the compiled body of this function.
func (f *Function) Chunk() *Chunk {
	return f.chunk
}

// String returns a short representation like "func add/2".
func (f *Function) String() string {
	if f.name == "" {
		return fmt.Sprintf("func/%d", f.arity)
	}
	return fmt.Sprintf("func %s/%d", f.name, f.arity)
}
