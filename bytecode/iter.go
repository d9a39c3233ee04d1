package bytecode

import "github.com/petrel-lang/petrel/op"

// InstructionIter iterates over the instructions in a Chunk, returning
// each opcode together with its operands.
type InstructionIter struct {
	chunk *Chunk
	pos   int
}

// NewInstructionIter creates a new instruction iterator for the given chunk.
func NewInstructionIter(chunk *Chunk) *InstructionIter {
	return &InstructionIter{chunk: chunk}
}

// Next returns the next instruction and its operands.
// Returns false when there are no more instructions.
func (i *InstructionIter) Next() ([]op.Code, bool) {
	if i.pos >= i.chunk.InstructionCount() {
		return nil, false
	}
	opcode := i.chunk.InstructionAt(i.pos)
	i.pos++

	info := op.GetInfo(opcode)
	if info.OperandCount == 0 {
		return []op.Code{opcode}, true
	}
	instr := make([]op.Code, info.OperandCount+1)
	instr[0] = opcode

	for j := 0; j < info.OperandCount; j++ {
		if i.pos >= i.chunk.InstructionCount() {
			return instr[:j+1], true
		}
		instr[j+1] = i.chunk.InstructionAt(i.pos)
		i.pos++
	}
	return instr, true
}

// All returns all instructions as a newly allocated slice.
// This is a convenience method that collects all results from Next().
func (i *InstructionIter) All() [][]op.Code {
	var results [][]op.Code
	for {
		instr, ok := i.Next()
		if !ok {
			break
		}
		results = append(results, instr)
	}
	return results
}
