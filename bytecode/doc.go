// Package bytecode provides immutable representations of compiled Petrel
// programs, plus the Builder used to construct them.
//
// A [Chunk] is the unit of execution: an instruction stream, a constant
// pool, and a line table of the same length as the instruction stream. A
// [Function] is an immutable template (name, arity, body chunk) that lives
// in a constant pool. Both are created once and are safe to share across
// goroutines and VM runs.
//
// # Immutability
//
//   - No mutation methods exist on Chunk or Function
//   - All fields are unexported
//   - Constructors copy input slices to prevent caller mutation
//   - Access is index-based; no methods return internal slices
//
// Constants are stored as []any (float64, string, bool, nil, *Function)
// and converted to object.Object by the VM at load time. This keeps the
// package free of dependencies beyond [github.com/petrel-lang/petrel/op].
//
// # Construction
//
// The [Builder] is the mutable construction side: it appends instructions,
// interns constants, tracks source lines, and backpatches labeled jumps.
// Build returns the finished immutable Chunk:
//
//	b := bytecode.NewBuilder("main")
//	b.Emit(op.LoadConst, b.Constant(3.0))
//	b.Emit(op.LoadConst, b.Constant(4.0))
//	b.Emit(op.BinaryOp, op.Code(op.Add))
//	b.Emit(op.Print)
//	chunk, err := b.Build()
//
// Chunks can be serialized to a compact binary image with [Marshal] and
// restored with [Unmarshal], and audited with [Validate] and [Chunk.Stats].
package bytecode
