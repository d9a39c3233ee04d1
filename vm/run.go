package vm

import (
	"context"

	"github.com/petrel-lang/petrel/bytecode"
	"github.com/petrel-lang/petrel/object"
)

// Run executes the given chunk in a new VirtualMachine and returns the
// result.
func Run(ctx context.Context, chunk *bytecode.Chunk, options ...Option) (object.Object, error) {
	return New(chunk, options...).Run(ctx)
}
