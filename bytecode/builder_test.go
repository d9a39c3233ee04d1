package bytecode

import (
	"strings"
	"testing"

	"github.com/petrel-lang/petrel/op"
)

func TestBuilderBasics(t *testing.T) {
	b := NewBuilder("main")
	b.SetFilename("test.pasm")
	b.SetSource("const 3\nconst 4\nadd\nret")

	b.SetLine(1)
	b.Emit(op.LoadConst, b.Constant(3.0))
	b.SetLine(2)
	b.Emit(op.LoadConst, b.Constant(4.0))
	b.SetLine(3)
	b.Emit(op.BinaryOp, op.Code(op.Add))
	b.SetLine(4)
	b.Emit(op.ReturnValue)

	chunk, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if chunk.Name() != "main" {
		t.Errorf("expected name 'main', got %v", chunk.Name())
	}
	if chunk.Filename() != "test.pasm" {
		t.Errorf("expected filename 'test.pasm', got %v", chunk.Filename())
	}
	if chunk.ID() == "" {
		t.Error("expected a generated chunk ID")
	}
	if chunk.InstructionCount() != 7 {
		t.Fatalf("expected 7 instruction slots, got %d", chunk.InstructionCount())
	}
	if chunk.ConstantCount() != 2 {
		t.Fatalf("expected 2 constants, got %d", chunk.ConstantCount())
	}
	if chunk.ConstantAt(0) != 3.0 || chunk.ConstantAt(1) != 4.0 {
		t.Errorf("unexpected constants: %v, %v", chunk.ConstantAt(0), chunk.ConstantAt(1))
	}

	// Line information covers operand slots too
	if chunk.LineAt(0) != 1 || chunk.LineAt(1) != 1 {
		t.Error("expected line 1 for the first instruction and its operand")
	}
	if chunk.LineAt(2) != 2 || chunk.LineAt(3) != 2 {
		t.Error("expected line 2 for the second instruction and its operand")
	}
	if chunk.LineAt(6) != 4 {
		t.Errorf("expected line 4 for RETURN_VALUE, got %d", chunk.LineAt(6))
	}

	if err := Validate(chunk); err != nil {
		t.Errorf("built chunk failed validation: %v", err)
	}
}

func TestBuilderConstantInterning(t *testing.T) {
	b := NewBuilder("main")
	first := b.Constant(42.0)
	second := b.Constant(42.0)
	third := b.Constant("hello")
	fourth := b.Constant("hello")
	fifth := b.Constant(42.0)

	if first != second || first != fifth {
		t.Errorf("expected equal numbers to share a pool entry: %d, %d, %d", first, second, fifth)
	}
	if third != fourth {
		t.Errorf("expected equal strings to share a pool entry: %d, %d", third, fourth)
	}
	if first == third {
		t.Error("expected distinct values to get distinct pool entries")
	}

	b.Emit(op.LoadConst, first)
	b.Emit(op.ReturnValue)
	chunk, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if chunk.ConstantCount() != 2 {
		t.Errorf("expected 2 pool entries, got %d", chunk.ConstantCount())
	}
}

func TestBuilderUnsupportedConstant(t *testing.T) {
	b := NewBuilder("main")
	b.Constant(42) // int, not float64
	b.Emit(op.ReturnValue)

	_, err := b.Build()
	if err == nil {
		t.Fatal("expected an error for an unsupported constant type")
	}
	if !strings.Contains(err.Error(), "unsupported constant type") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestBuilderOperandCountMismatch(t *testing.T) {
	b := NewBuilder("main")
	b.Emit(op.LoadConst) // missing operand
	b.Emit(op.Nop, 1)    // extra operand

	_, err := b.Build()
	if err == nil {
		t.Fatal("expected operand count errors")
	}
	if !strings.Contains(err.Error(), "LOAD_CONST takes 1 operands (0 given)") {
		t.Errorf("unexpected error: %v", err)
	}
	if !strings.Contains(err.Error(), "NOP takes 0 operands (1 given)") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestBuilderForwardJump(t *testing.T) {
	b := NewBuilder("main")
	end := b.NewLabel()
	b.Emit(op.True)
	b.EmitJump(op.PopJumpForwardIfFalse, end) // offset 1
	b.Emit(op.Nil)                            // offset 3
	b.MarkLabel(end)                          // offset 4
	b.Emit(op.ReturnValue)

	chunk, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if chunk.InstructionAt(1) != op.PopJumpForwardIfFalse {
		t.Errorf("expected POP_JUMP_FORWARD_IF_FALSE at offset 1, got %v", chunk.InstructionAt(1))
	}
	if chunk.InstructionAt(2) != 3 {
		t.Errorf("expected jump distance 3, got %v", chunk.InstructionAt(2))
	}
	if err := Validate(chunk); err != nil {
		t.Errorf("built chunk failed validation: %v", err)
	}
}

func TestBuilderBackwardJumpFlipsOpcode(t *testing.T) {
	b := NewBuilder("loop")
	top := b.NewLabel()
	b.MarkLabel(top)
	b.Emit(op.Nop)                  // offset 0
	b.EmitJump(op.JumpForward, top) // offset 1, target is behind

	chunk, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if chunk.InstructionAt(1) != op.JumpBackward {
		t.Errorf("expected JUMP_BACKWARD at offset 1, got %v", chunk.InstructionAt(1))
	}
	if chunk.InstructionAt(2) != 1 {
		t.Errorf("expected jump distance 1, got %v", chunk.InstructionAt(2))
	}
}

func TestBuilderConditionalBackwardJump(t *testing.T) {
	b := NewBuilder("loop")
	top := b.NewLabel()
	b.MarkLabel(top)
	b.Emit(op.False)                          // offset 0
	b.EmitJump(op.PopJumpForwardIfFalse, top) // offset 1
	b.Emit(op.ReturnValue)

	chunk, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if chunk.InstructionAt(1) != op.PopJumpBackwardIfFalse {
		t.Errorf("expected POP_JUMP_BACKWARD_IF_FALSE, got %v", chunk.InstructionAt(1))
	}
	if chunk.InstructionAt(2) != 1 {
		t.Errorf("expected jump distance 1, got %v", chunk.InstructionAt(2))
	}
}

func TestBuilderJumpToEnd(t *testing.T) {
	// Jumping one past the last slot is legal and completes the program
	b := NewBuilder("main")
	end := b.NewLabel()
	b.EmitJump(op.JumpForward, end)
	b.MarkLabel(end)

	chunk, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if chunk.InstructionAt(1) != 2 {
		t.Errorf("expected jump distance 2, got %v", chunk.InstructionAt(1))
	}
	if err := Validate(chunk); err != nil {
		t.Errorf("built chunk failed validation: %v", err)
	}
}

func TestBuilderUnmarkedLabel(t *testing.T) {
	b := NewBuilder("main")
	nowhere := b.NewLabel()
	b.EmitJump(op.JumpForward, nowhere)

	_, err := b.Build()
	if err == nil {
		t.Fatal("expected an error for an unmarked label")
	}
	if !strings.Contains(err.Error(), "unmarked label") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestBuilderLabelMarkedTwice(t *testing.T) {
	b := NewBuilder("main")
	label := b.NewLabel()
	b.MarkLabel(label)
	b.Emit(op.Nop)
	b.MarkLabel(label)

	_, err := b.Build()
	if err == nil {
		t.Fatal("expected an error for a label marked twice")
	}
	if !strings.Contains(err.Error(), "marked twice") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestBuilderEmitJumpRequiresForwardOpcode(t *testing.T) {
	b := NewBuilder("main")
	label := b.NewLabel()
	b.EmitJump(op.JumpBackward, label)
	b.MarkLabel(label)

	_, err := b.Build()
	if err == nil {
		t.Fatal("expected an error for a backward opcode passed to EmitJump")
	}
}

func TestBuilderFunctionConstant(t *testing.T) {
	inner := NewBuilder("add")
	inner.Emit(op.LoadLocal, 0)
	inner.Emit(op.LoadLocal, 1)
	inner.Emit(op.BinaryOp, op.Code(op.Add))
	inner.Emit(op.ReturnValue)
	body, err := inner.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	fn := NewFunction(FunctionParams{ID: "fn1", Name: "add", Arity: 2, Chunk: body})

	b := NewBuilder("main")
	b.Emit(op.LoadConst, b.Constant(fn))
	b.Emit(op.LoadConst, b.Constant(1.0))
	b.Emit(op.LoadConst, b.Constant(2.0))
	b.Emit(op.Call, 2)
	b.Emit(op.ReturnValue)
	chunk, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	got, ok := chunk.ConstantAt(0).(*Function)
	if !ok {
		t.Fatalf("expected constant 0 to be *Function, got %T", chunk.ConstantAt(0))
	}
	if got != fn {
		t.Error("expected the function to be interned by identity")
	}
	if err := Validate(chunk); err != nil {
		t.Errorf("built chunk failed validation: %v", err)
	}
}

func TestBuilderOffset(t *testing.T) {
	b := NewBuilder("main")
	if b.Offset() != 0 {
		t.Errorf("expected offset 0, got %d", b.Offset())
	}
	b.Emit(op.LoadConst, b.Constant(1.0))
	if b.Offset() != 2 {
		t.Errorf("expected offset 2, got %d", b.Offset())
	}
	b.Emit(op.Nop)
	if b.Offset() != 3 {
		t.Errorf("expected offset 3, got %d", b.Offset())
	}
}
