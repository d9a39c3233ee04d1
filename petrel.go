// Package petrel embeds the Petrel bytecode virtual machine. Programs are
// written in a small assembly syntax, assembled to immutable chunks, and
// executed on a stack-based VM with typed runtime values.
//
// The simplest entry point evaluates source directly:
//
//	result, err := petrel.Eval(ctx, "const 3\nconst 4\nadd\n")
//
// Assembling once and running many times avoids repeated parsing, and a
// chunk is safe to share across VMs:
//
//	chunk, err := petrel.Assemble(source)
//	...
//	result, err := petrel.Run(ctx, chunk)
//
// For REPL-style sessions where global bindings persist between
// evaluations, use the VM wrapper type.
package petrel

import (
	"context"

	"github.com/petrel-lang/petrel/asm"
	"github.com/petrel-lang/petrel/bytecode"
	"github.com/petrel-lang/petrel/object"
	"github.com/petrel-lang/petrel/vm"
)

// Version is the current Petrel version.
const Version = "0.1.0"

// Assemble compiles assembly source into an executable chunk. The
// returned chunk is immutable and safe for concurrent use; multiple VMs
// can execute the same chunk simultaneously.
func Assemble(source string, opts ...Option) (*bytecode.Chunk, error) {
	cfg := newConfig(opts...)
	return asm.AssembleString(cfg.filename, source)
}

// Run executes a chunk and returns the result as a native Go value. Each
// call creates fresh runtime state, so concurrent Run calls on the same
// chunk are safe.
func Run(ctx context.Context, chunk *bytecode.Chunk, opts ...Option) (any, error) {
	cfg := newConfig(opts...)
	vmOpts, err := cfg.vmOpts()
	if err != nil {
		return nil, err
	}
	result, err := vm.Run(ctx, chunk, vmOpts...)
	if err != nil {
		return nil, err
	}
	return nativeValue(result), nil
}

// Eval is a convenience function that assembles and runs source code. It
// is equivalent to Assemble followed by Run.
func Eval(ctx context.Context, source string, opts ...Option) (any, error) {
	chunk, err := Assemble(source, opts...)
	if err != nil {
		return nil, err
	}
	return Run(ctx, chunk, opts...)
}

// nativeValue converts a result object to its Go equivalent. Values
// without one are represented by their inspect string.
func nativeValue(result object.Object) any {
	value := result.Interface()
	if value == nil {
		if _, isNil := result.(*object.NilType); !isNil {
			return result.Inspect()
		}
	}
	return value
}
