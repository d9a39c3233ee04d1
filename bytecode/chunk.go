package bytecode

import (
	"fmt"

	"github.com/petrel-lang/petrel/op"
)

// Chunk represents a compiled code block (the top-level program or a
// function body). It is immutable after creation and safe for concurrent
// use. The line table always has exactly one entry per instruction slot.
type Chunk struct {
	id       string
	name     string
	filename string
	source   string

	instructions []op.Code
	constants    []any
	lines        []int
}

// ChunkParams contains parameters for creating a new Chunk.
type ChunkParams struct {
	ID           string
	Name         string
	Filename     string
	Source       string
	Instructions []op.Code
	Constants    []any
	Lines        []int
}

// NewChunk creates a new immutable Chunk from the given parameters. Input
// slices are copied to ensure immutability. If Lines is nil a zero-filled
// table is allocated; otherwise its length must match the instruction
// stream.
func NewChunk(params ChunkParams) (*Chunk, error) {
	instructions := copyInstructions(params.Instructions)
	var lines []int
	if params.Lines == nil {
		lines = make([]int, len(instructions))
	} else {
		if len(params.Lines) != len(instructions) {
			return nil, fmt.Errorf("bytecode: line table has %d entries for %d instructions",
				len(params.Lines), len(instructions))
		}
		lines = copyInts(params.Lines)
	}
	return &Chunk{
		id:           params.ID,
		name:         params.Name,
		filename:     params.Filename,
		source:       params.Source,
		instructions: instructions,
		constants:    copyAny(params.Constants),
		lines:        lines,
	}, nil
}

// ID returns the unique identifier for this chunk.
func (c *Chunk) ID() string {
	return c.id
}

// Name returns the name of this chunk.
func (c *Chunk) Name() string {
	return c.name
}

// Filename returns the source filename.
func (c *Chunk) Filename() string {
	return c.filename
}

// Source returns the source text this chunk was assembled from, if known.
func (c *Chunk) Source() string {
	return c.source
}

// InstructionCount returns the number of instruction slots, counting
// opcodes and operands alike.
func (c *Chunk) InstructionCount() int {
	return len(c.instructions)
}

// InstructionAt returns the instruction slot at the given index.
func (c *Chunk) InstructionAt(index int) op.Code {
	return c.instructions[index]
}

// ConstantCount returns the number of constants in the pool.
func (c *Chunk) ConstantCount() int {
	return len(c.constants)
}

// ConstantAt returns the constant at the given index.
func (c *Chunk) ConstantAt(index int) any {
	return c.constants[index]
}

// LineAt returns the 1-based source line for the instruction at the given
// index, or 0 if the index is out of range or the line is unknown.
func (c *Chunk) LineAt(ip int) int {
	if ip < 0 || ip >= len(c.lines) {
		return 0
	}
	return c.lines[ip]
}

// Flatten returns this chunk and the body chunks of every function in its
// constant pool, recursively, in display order (each chunk before its
// functions' bodies). Shared chunks appear once.
func (c *Chunk) Flatten() []*Chunk {
	seen := make(map[*Chunk]bool)
	var chunks []*Chunk
	var walk func(*Chunk)
	walk = func(ch *Chunk) {
		if seen[ch] {
			return
		}
		seen[ch] = true
		chunks = append(chunks, ch)
		for _, constant := range ch.constants {
			if fn, ok := constant.(*Function); ok && fn.chunk != nil {
				walk(fn.chunk)
			}
		}
	}
	walk(c)
	return chunks
}

// FunctionNames returns the names of all named functions in this chunk's
// constant pool. Anonymous functions are not included.
func (c *Chunk) FunctionNames() []string {
	var names []string
	for _, constant := range c.constants {
		if fn, ok := constant.(*Function); ok {
			if name := fn.Name(); name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}

// flattenPostOrder returns every chunk reachable from c with children
// before the chunks whose pools reference them, c itself last. Marshal
// relies on this ordering so images never contain forward references.
func (c *Chunk) flattenPostOrder() []*Chunk {
	seen := make(map[*Chunk]bool)
	var chunks []*Chunk
	var walk func(*Chunk)
	walk = func(ch *Chunk) {
		if seen[ch] {
			return
		}
		seen[ch] = true
		for _, constant := range ch.constants {
			if fn, ok := constant.(*Function); ok && fn.chunk != nil {
				walk(fn.chunk)
			}
		}
		chunks = append(chunks, ch)
	}
	walk(c)
	return chunks
}
