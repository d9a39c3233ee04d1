package bytecode

import (
	"fmt"
	"math"

	"github.com/gofrs/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/petrel-lang/petrel/op"
)

// Label is a target for jump instructions. Create one with NewLabel, emit
// jumps that reference it with EmitJump, and bind it to a position with
// MarkLabel. Labels may be marked before or after the jumps that use them.
type Label struct {
	id  int
	pos int
}

type jumpRef struct {
	site  int
	label *Label
}

// Builder accumulates instructions, constants, and line information, then
// produces an immutable Chunk. Problems found along the way (bad constant
// types, unmarked labels, jump distances that do not fit an operand) are
// collected and reported together by Build.
type Builder struct {
	name         string
	filename     string
	source       string
	line         int
	instructions []op.Code
	lines        []int
	constants    []any
	constIndex   map[any]int
	labelCount   int
	jumps        []jumpRef
	errs         *multierror.Error
}

// NewBuilder creates a Builder for a chunk with the given name.
func NewBuilder(name string) *Builder {
	return &Builder{
		name:       name,
		constIndex: make(map[any]int),
	}
}

// SetFilename records the source filename carried by the built chunk.
func (b *Builder) SetFilename(filename string) *Builder {
	b.filename = filename
	return b
}

// SetSource records the source text carried by the built chunk.
func (b *Builder) SetSource(source string) *Builder {
	b.source = source
	return b
}

// SetLine sets the 1-based source line recorded for subsequently emitted
// instructions.
func (b *Builder) SetLine(line int) {
	b.line = line
}

// Offset returns the index of the next instruction slot to be emitted.
func (b *Builder) Offset() int {
	return len(b.instructions)
}

// Emit appends an opcode and its operands, recording the current source
// line for every slot. It returns the offset of the opcode slot.
func (b *Builder) Emit(code op.Code, operands ...op.Code) int {
	offset := len(b.instructions)
	if want := op.GetInfo(code).OperandCount; want != len(operands) {
		b.errs = multierror.Append(b.errs, fmt.Errorf(
			"opcode %s takes %d operands (%d given)", opcodeName(code), want, len(operands)))
	}
	b.instructions = append(b.instructions, code)
	b.lines = append(b.lines, b.line)
	for _, operand := range operands {
		b.instructions = append(b.instructions, operand)
		b.lines = append(b.lines, b.line)
	}
	return offset
}

// Constant interns a value in the constant pool and returns its index,
// ready to use as a LoadConst or global-name operand. Allowed types are
// float64, string, bool, nil, and *Function. Equal values share one pool
// entry; functions are interned by identity.
func (b *Builder) Constant(value any) op.Code {
	switch value.(type) {
	case float64, string, bool, nil, *Function:
	default:
		b.errs = multierror.Append(b.errs, fmt.Errorf("unsupported constant type %T", value))
		return 0
	}
	if index, ok := b.constIndex[value]; ok {
		return op.Code(index)
	}
	index := len(b.constants)
	if index > math.MaxUint16 {
		b.errs = multierror.Append(b.errs, fmt.Errorf("constant pool exceeds %d entries", math.MaxUint16+1))
		return 0
	}
	b.constants = append(b.constants, value)
	b.constIndex[value] = index
	return op.Code(index)
}

// NewLabel creates an unbound label.
func (b *Builder) NewLabel() *Label {
	b.labelCount++
	return &Label{id: b.labelCount, pos: -1}
}

// MarkLabel binds the label to the current offset.
func (b *Builder) MarkLabel(label *Label) {
	if label.pos >= 0 {
		b.errs = multierror.Append(b.errs, fmt.Errorf("label %d marked twice", label.id))
		return
	}
	label.pos = len(b.instructions)
}

// EmitJump emits a jump to the given label with a placeholder operand that
// Build patches once the label position is known. Pass op.JumpForward for
// an unconditional jump or op.PopJumpForwardIfFalse for a conditional one;
// when the label turns out to sit before the jump, Build rewrites the
// opcode to its backward twin. The operand is the distance from the opcode
// slot to the target.
func (b *Builder) EmitJump(code op.Code, label *Label) int {
	if code != op.JumpForward && code != op.PopJumpForwardIfFalse {
		b.errs = multierror.Append(b.errs, fmt.Errorf(
			"EmitJump requires JUMP_FORWARD or POP_JUMP_FORWARD_IF_FALSE (got %s)", opcodeName(code)))
		return len(b.instructions)
	}
	offset := b.Emit(code, 0)
	b.jumps = append(b.jumps, jumpRef{site: offset, label: label})
	return offset
}

// Build patches all jumps and returns the finished immutable Chunk. All
// accumulated problems are returned together; the chunk is nil if there
// were any.
func (b *Builder) Build() (*Chunk, error) {
	errs := b.errs
	for _, jump := range b.jumps {
		if jump.label.pos < 0 {
			errs = multierror.Append(errs, fmt.Errorf("jump at offset %d targets an unmarked label", jump.site))
			continue
		}
		delta := jump.label.pos - jump.site
		if delta < 0 {
			switch b.instructions[jump.site] {
			case op.JumpForward:
				b.instructions[jump.site] = op.JumpBackward
			case op.PopJumpForwardIfFalse:
				b.instructions[jump.site] = op.PopJumpBackwardIfFalse
			}
			delta = -delta
		}
		if delta > math.MaxUint16 {
			errs = multierror.Append(errs, fmt.Errorf("jump at offset %d spans %d slots (max %d)",
				jump.site, delta, math.MaxUint16))
			continue
		}
		b.instructions[jump.site+1] = op.Code(delta)
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	return NewChunk(ChunkParams{
		ID:           id.String(),
		Name:         b.name,
		Filename:     b.filename,
		Source:       b.source,
		Instructions: b.instructions,
		Constants:    b.constants,
		Lines:        b.lines,
	})
}

func opcodeName(code op.Code) string {
	if name := op.GetInfo(code).Name; name != "" {
		return name
	}
	return fmt.Sprintf("opcode %d", code)
}
