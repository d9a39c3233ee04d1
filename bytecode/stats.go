package bytecode

import "github.com/petrel-lang/petrel/op"

// Stats contains statistics about a compiled chunk.
// This is useful for auditing programs before execution.
type Stats struct {
	// InstructionCount is the number of instruction slots, counting
	// opcodes and operands alike.
	InstructionCount int

	// ConstantCount is the number of constants in the constant pool.
	ConstantCount int

	// GlobalCount is the number of distinct global names this chunk
	// defines with DEFINE_GLOBAL.
	GlobalCount int

	// FunctionCount is the number of functions in the constant pool.
	FunctionCount int

	// SourceBytes is the size of the original source text in bytes.
	SourceBytes int
}

// Stats returns statistics about this chunk. Functions in the pools of
// nested chunks are not counted; use Flatten to aggregate across a whole
// program.
func (c *Chunk) Stats() Stats {
	functionCount := 0
	for _, constant := range c.constants {
		if _, ok := constant.(*Function); ok {
			functionCount++
		}
	}
	defined := make(map[int]bool)
	iter := NewInstructionIter(c)
	for {
		instr, ok := iter.Next()
		if !ok {
			break
		}
		if instr[0] == op.DefineGlobal && len(instr) > 1 {
			defined[int(instr[1])] = true
		}
	}
	return Stats{
		InstructionCount: c.InstructionCount(),
		ConstantCount:    c.ConstantCount(),
		GlobalCount:      len(defined),
		FunctionCount:    functionCount,
		SourceBytes:      len(c.source),
	}
}
