// Package op defines opcodes used by the Petrel assembler and virtual machine.
package op

// Code is an integer opcode that indicates an operation to execute.
type Code uint16

const (
	Invalid Code = 0

	// Execution
	Nop         Code = 1
	Call        Code = 2
	ReturnValue Code = 3

	// Jump
	JumpBackward           Code = 10
	JumpForward            Code = 11
	PopJumpForwardIfFalse  Code = 12
	PopJumpBackwardIfFalse Code = 13

	// Load
	LoadConst  Code = 20
	LoadLocal  Code = 21
	LoadGlobal Code = 22

	// Store
	StoreLocal   Code = 30
	StoreGlobal  Code = 31
	DefineGlobal Code = 32

	// Operations
	BinaryOp      Code = 40
	CompareOp     Code = 41
	UnaryNegative Code = 42
	UnaryNot      Code = 43

	// Stack
	PopTop Code = 50

	// Push constants
	Nil   Code = 60
	False Code = 61
	True  Code = 62

	// Output
	Print Code = 70
)

// BinaryOpType describes a type of binary operation, as in an operation that
// takes two operands. For example, addition, subtraction, multiplication, etc.
type BinaryOpType uint16

const (
	Add      BinaryOpType = 1
	Subtract BinaryOpType = 2
	Multiply BinaryOpType = 3
	Divide   BinaryOpType = 4
	Modulo   BinaryOpType = 5
)

// String returns a string representation of the binary operation.
// For example "+" for addition.
func (bop BinaryOpType) String() string {
	switch bop {
	case Add:
		return "+"
	case Subtract:
		return "-"
	case Multiply:
		return "*"
	case Divide:
		return "/"
	case Modulo:
		return "%"
	default:
		return ""
	}
}

// CompareOpType describes a type of comparison operation. For example, less
// than, greater than, equal, etc.
type CompareOpType uint16

const (
	LessThan           CompareOpType = 1
	LessThanOrEqual    CompareOpType = 2
	Equal              CompareOpType = 3
	NotEqual           CompareOpType = 4
	GreaterThan        CompareOpType = 5
	GreaterThanOrEqual CompareOpType = 6
)

// String returns a string representation of the comparison operation.
// For example "<" for less than.
func (cop CompareOpType) String() string {
	switch cop {
	case LessThan:
		return "<"
	case LessThanOrEqual:
		return "<="
	case Equal:
		return "=="
	case NotEqual:
		return "!="
	case GreaterThan:
		return ">"
	case GreaterThanOrEqual:
		return ">="
	default:
		return ""
	}
}

// Info contains information about an opcode.
type Info struct {
	Code         Code
	Name         string
	OperandCount int
}

var infos = make([]Info, 256)

func init() {
	type opInfo struct {
		op    Code
		name  string
		count int
	}
	ops := []opInfo{
		{BinaryOp, "BINARY_OP", 1},
		{Call, "CALL", 1},
		{CompareOp, "COMPARE_OP", 1},
		{DefineGlobal, "DEFINE_GLOBAL", 1},
		{False, "FALSE", 0},
		{JumpBackward, "JUMP_BACKWARD", 1},
		{JumpForward, "JUMP_FORWARD", 1},
		{LoadConst, "LOAD_CONST", 1},
		{LoadGlobal, "LOAD_GLOBAL", 1},
		{LoadLocal, "LOAD_LOCAL", 1},
		{Nil, "NIL", 0},
		{Nop, "NOP", 0},
		{PopJumpBackwardIfFalse, "POP_JUMP_BACKWARD_IF_FALSE", 1},
		{PopJumpForwardIfFalse, "POP_JUMP_FORWARD_IF_FALSE", 1},
		{PopTop, "POP_TOP", 0},
		{Print, "PRINT", 0},
		{ReturnValue, "RETURN_VALUE", 0},
		{StoreGlobal, "STORE_GLOBAL", 1},
		{StoreLocal, "STORE_LOCAL", 1},
		{True, "TRUE", 0},
		{UnaryNegative, "UNARY_NEGATIVE", 0},
		{UnaryNot, "UNARY_NOT", 0},
	}
	for _, o := range ops {
		infos[o.op] = Info{
			Name:         o.name,
			Code:         o.op,
			OperandCount: o.count,
		}
	}
}

// GetInfo returns information about the given opcode. Unknown opcodes,
// including values beyond the opcode table, yield a zero Info whose Name
// is empty.
func GetInfo(op Code) Info {
	if int(op) >= len(infos) {
		return Info{}
	}
	return infos[op]
}
