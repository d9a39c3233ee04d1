// Package dis supports analysis of Petrel bytecode by disassembling it.
// This works with the opcodes defined in the `op` package and uses the
// InstructionIter type from the `bytecode` package.
package dis

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/petrel-lang/petrel/bytecode"
	"github.com/petrel-lang/petrel/internal/table"
	"github.com/petrel-lang/petrel/op"
)

// Instruction represents a single bytecode instruction and its operands.
type Instruction struct {
	Offset     int
	Name       string
	Opcode     op.Code
	Operands   []op.Code
	Annotation string
	Constant   any
}

// Disassemble returns a parsed representation of the given chunk's
// instructions. Nested function chunks are not included; use
// Chunk.Flatten to walk them.
func Disassemble(chunk *bytecode.Chunk) ([]Instruction, error) {
	var instructions []Instruction
	var offset int
	iter := bytecode.NewInstructionIter(chunk)
	for {
		val, ok := iter.Next()
		if !ok {
			break
		}
		var err error
		info := op.GetInfo(val[0])
		if info.Name == "" {
			return nil, fmt.Errorf("unknown opcode %d at offset %d", val[0], offset)
		}
		if len(val) < info.OperandCount+1 {
			return nil, fmt.Errorf("truncated instruction %s at offset %d", info.Name, offset)
		}
		var constant any
		var annotation string
		switch info.Name {
		case "LOAD_LOCAL", "STORE_LOCAL":
			annotation = fmt.Sprintf("local_%d", val[1])
		case "LOAD_GLOBAL", "STORE_GLOBAL", "DEFINE_GLOBAL":
			annotation, err = getGlobalName(chunk, int(val[1]))
			if err != nil {
				return nil, err
			}
		case "BINARY_OP":
			annotation = op.BinaryOpType(val[1]).String()
		case "COMPARE_OP":
			annotation = op.CompareOpType(val[1]).String()
		case "CALL":
			annotation = fmt.Sprintf("argc=%d", val[1])
		case "JUMP_FORWARD", "POP_JUMP_FORWARD_IF_FALSE":
			annotation = fmt.Sprintf("to %d", offset+int(val[1]))
		case "JUMP_BACKWARD", "POP_JUMP_BACKWARD_IF_FALSE":
			annotation = fmt.Sprintf("to %d", offset-int(val[1]))
		case "LOAD_CONST":
			constant, err = getConstantValue(chunk, int(val[1]))
			if err != nil {
				return nil, err
			}
			annotation = formatConstant(constant)
		}
		instructions = append(instructions, Instruction{
			Offset:     offset,
			Name:       info.Name,
			Opcode:     val[0],
			Operands:   val[1:],
			Annotation: annotation,
			Constant:   constant,
		})
		offset += len(val)
	}
	return instructions, nil
}

// italic applies italic formatting if colors are enabled.
func italic(s string) string {
	return color.New(color.Italic).Sprint(s)
}

// bold applies bold formatting if colors are enabled.
func bold(s string) string {
	return color.New(color.Bold).Sprint(s)
}

// Print a string representation of the given instructions to the given writer.
func Print(instructions []Instruction, writer io.Writer) {
	var lines [][]string
	for _, instr := range instructions {
		var values []string
		values = append(values, fmt.Sprintf("%d", instr.Offset))
		values = append(values, bold(instr.Name))
		values = append(values, formatOperands(instr.Operands))
		if instr.Constant != nil {
			switch c := instr.Constant.(type) {
			case float64:
				values = append(values, color.YellowString("%s", formatNumber(c)))
			case string:
				if len(c) > 80 {
					c = c[:77] + "..."
				}
				values = append(values, color.GreenString("%q", c))
			case *bytecode.Function:
				name := c.Name()
				if name == "" {
					name = italic("<anonymous>")
				}
				values = append(values, color.MagentaString("func:%s", name))
			default:
				values = append(values, bold(fmt.Sprintf("%v", c)))
			}
		} else if instr.Annotation != "" {
			values = append(values, color.CyanString("%v", instr.Annotation))
		} else {
			values = append(values, "")
		}
		lines = append(lines, values)
	}

	table.NewTable(writer).
		WithHeader([]string{"OFFSET", "OPCODE", "OPERANDS", "INFO"}).
		WithColumnAlignment([]table.Alignment{
			table.AlignRight,
			table.AlignLeft,
			table.AlignRight,
			table.AlignLeft,
		}).
		WithHeaderAlignment([]table.Alignment{
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
		}).
		WithRows(lines).
		Render()
}

// Fprint disassembles a chunk and all the function chunks it references,
// printing one table per chunk.
func Fprint(writer io.Writer, chunk *bytecode.Chunk) error {
	for i, c := range chunk.Flatten() {
		if i > 0 {
			fmt.Fprintln(writer)
		}
		name := c.Name()
		if name == "" {
			name = "<anonymous>"
		}
		fmt.Fprintf(writer, "%s:\n", bold(name))
		instructions, err := Disassemble(c)
		if err != nil {
			return err
		}
		Print(instructions, writer)
	}
	return nil
}

func formatOperands(ops []op.Code) string {
	var sb strings.Builder
	for i, op := range ops {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(fmt.Sprintf("%d", op))
	}
	return sb.String()
}

// formatNumber renders a numeric constant the same way the runtime
// inspects it, so 42.0 shows as "42".
func formatNumber(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func formatConstant(value any) string {
	switch c := value.(type) {
	case nil:
		return "nil"
	case float64:
		return formatNumber(c)
	case *bytecode.Function:
		return c.String()
	default:
		return fmt.Sprintf("%v", c)
	}
}

func getGlobalName(chunk *bytecode.Chunk, index int) (string, error) {
	if chunk.ConstantCount() <= index {
		return "", fmt.Errorf("constant index out of range: %d", index)
	}
	name, ok := chunk.ConstantAt(index).(string)
	if !ok {
		return "", fmt.Errorf("constant %d is not a name", index)
	}
	return name, nil
}

func getConstantValue(chunk *bytecode.Chunk, index int) (any, error) {
	if chunk.ConstantCount() <= index {
		return nil, fmt.Errorf("constant index out of range: %d", index)
	}
	return chunk.ConstantAt(index), nil
}
