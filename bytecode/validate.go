package bytecode

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/petrel-lang/petrel/op"
)

// Validate audits the structure of a chunk: every opcode must be known and
// fully provided with operands, constant-pool references must be in range,
// global-name operands must reference string constants, and jump targets
// must land inside the instruction stream. All findings are reported
// together. Validation is structural only; stack effects are not modeled.
func Validate(c *Chunk) error {
	var errs *multierror.Error
	count := c.InstructionCount()
	for ip := 0; ip < count; {
		opcode := c.InstructionAt(ip)
		info := op.GetInfo(opcode)
		if info.Name == "" {
			errs = multierror.Append(errs, fmt.Errorf("offset %d: unknown opcode %d", ip, opcode))
			ip++
			continue
		}
		if info.OperandCount > 0 && ip+info.OperandCount >= count {
			errs = multierror.Append(errs, fmt.Errorf("offset %d: %s is missing operands", ip, info.Name))
			break
		}
		switch opcode {
		case op.LoadConst:
			index := int(c.InstructionAt(ip + 1))
			if index >= c.ConstantCount() {
				errs = multierror.Append(errs, fmt.Errorf(
					"offset %d: constant index %d out of range (pool size %d)", ip, index, c.ConstantCount()))
			}
		case op.DefineGlobal, op.LoadGlobal, op.StoreGlobal:
			index := int(c.InstructionAt(ip + 1))
			if index >= c.ConstantCount() {
				errs = multierror.Append(errs, fmt.Errorf(
					"offset %d: constant index %d out of range (pool size %d)", ip, index, c.ConstantCount()))
			} else if _, ok := c.ConstantAt(index).(string); !ok {
				errs = multierror.Append(errs, fmt.Errorf(
					"offset %d: %s operand must reference a string constant", ip, info.Name))
			}
		case op.JumpForward, op.PopJumpForwardIfFalse:
			target := ip + int(c.InstructionAt(ip+1))
			if target > count {
				errs = multierror.Append(errs, fmt.Errorf(
					"offset %d: jump target %d is outside the instruction stream", ip, target))
			}
		case op.JumpBackward, op.PopJumpBackwardIfFalse:
			target := ip - int(c.InstructionAt(ip+1))
			if target < 0 {
				errs = multierror.Append(errs, fmt.Errorf(
					"offset %d: jump target %d is outside the instruction stream", ip, target))
			}
		case op.BinaryOp:
			operand := op.BinaryOpType(c.InstructionAt(ip + 1))
			if operand.String() == "" {
				errs = multierror.Append(errs, fmt.Errorf(
					"offset %d: unknown binary operator %d", ip, operand))
			}
		case op.CompareOp:
			operand := op.CompareOpType(c.InstructionAt(ip + 1))
			if operand.String() == "" {
				errs = multierror.Append(errs, fmt.Errorf(
					"offset %d: unknown comparison operator %d", ip, operand))
			}
		}
		ip += 1 + info.OperandCount
	}
	for i := 0; i < c.ConstantCount(); i++ {
		switch c.ConstantAt(i).(type) {
		case float64, string, bool, nil:
		case *Function:
			if fn := c.ConstantAt(i).(*Function); fn.Chunk() == nil {
				errs = multierror.Append(errs, fmt.Errorf("constant %d: function %q has no body", i, fn.Name()))
			}
		default:
			errs = multierror.Append(errs, fmt.Errorf(
				"constant %d: unsupported type %T", i, c.ConstantAt(i)))
		}
	}
	return errs.ErrorOrNil()
}
