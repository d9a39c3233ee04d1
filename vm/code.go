package vm

import (
	"fmt"

	"github.com/petrel-lang/petrel/bytecode"
	"github.com/petrel-lang/petrel/object"
	"github.com/petrel-lang/petrel/op"
)

// loadedChunk wraps a *bytecode.Chunk for execution. The instruction
// stream is copied out for direct indexing and the constant pool is
// converted to runtime objects once, so the dispatch loop never touches
// the raw pool.
type loadedChunk struct {
	*bytecode.Chunk
	Instructions []op.Code
	Constants    []object.Object
}

func wrapChunk(c *bytecode.Chunk) *loadedChunk {
	lc := &loadedChunk{
		Chunk:        c,
		Instructions: make([]op.Code, c.InstructionCount()),
		Constants:    make([]object.Object, c.ConstantCount()),
	}
	for i := 0; i < c.InstructionCount(); i++ {
		lc.Instructions[i] = c.InstructionAt(i)
	}
	for i := 0; i < c.ConstantCount(); i++ {
		constant := c.ConstantAt(i)
		switch constant := constant.(type) {
		case float64:
			lc.Constants[i] = object.NewNumber(constant)
		case string:
			lc.Constants[i] = object.NewString(constant)
		case bool:
			lc.Constants[i] = object.NewBool(constant)
		case *bytecode.Function:
			lc.Constants[i] = object.NewFunction(constant)
		case nil:
			lc.Constants[i] = object.Nil
		default:
			panic(fmt.Sprintf("unsupported constant type: %T", constant))
		}
	}
	return lc
}
