package object

import (
	"fmt"
	"math"

	"github.com/petrel-lang/petrel/errz"
	"github.com/petrel-lang/petrel/op"
)

// BinaryOp performs an arithmetic operation on two objects. Arithmetic is
// defined on numbers only; any other operand raises a type mismatch.
// Division and modulo follow IEEE 754, so dividing by zero yields an
// infinity or NaN rather than an error.
func BinaryOp(opType op.BinaryOpType, a, b Object) (Object, error) {
	left, ok := a.(*Number)
	if !ok {
		return nil, errz.Newf(errz.TypeMismatch,
			"unsupported operand types for %s: %s and %s", opType, a.Type(), b.Type())
	}
	right, ok := b.(*Number)
	if !ok {
		return nil, errz.Newf(errz.TypeMismatch,
			"unsupported operand types for %s: %s and %s", opType, a.Type(), b.Type())
	}
	x, y := left.Value(), right.Value()
	switch opType {
	case op.Add:
		return NewNumber(x + y), nil
	case op.Subtract:
		return NewNumber(x - y), nil
	case op.Multiply:
		return NewNumber(x * y), nil
	case op.Divide:
		return NewNumber(x / y), nil
	case op.Modulo:
		return NewNumber(math.Mod(x, y)), nil
	default:
		return nil, fmt.Errorf("unknown binary operator: %d", opType)
	}
}

// Compare evaluates a comparison between two objects and returns a Bool.
// Equality is structural and defined for every pair of types; objects of
// different types are simply unequal. Ordered comparisons are defined on
// numbers only.
func Compare(opType op.CompareOpType, a, b Object) (Object, error) {
	switch opType {
	case op.Equal:
		return NewBool(a.Equals(b)), nil
	case op.NotEqual:
		return NewBool(!a.Equals(b)), nil
	}
	left, ok := a.(*Number)
	if !ok {
		return nil, errz.Newf(errz.TypeMismatch,
			"unsupported operand types for %s: %s and %s", opType, a.Type(), b.Type())
	}
	right, ok := b.(*Number)
	if !ok {
		return nil, errz.Newf(errz.TypeMismatch,
			"unsupported operand types for %s: %s and %s", opType, a.Type(), b.Type())
	}
	x, y := left.Value(), right.Value()
	switch opType {
	case op.LessThan:
		return NewBool(x < y), nil
	case op.LessThanOrEqual:
		return NewBool(x <= y), nil
	case op.GreaterThan:
		return NewBool(x > y), nil
	case op.GreaterThanOrEqual:
		return NewBool(x >= y), nil
	default:
		return nil, fmt.Errorf("unknown comparison operator: %d", opType)
	}
}

// Negate returns the arithmetic negation of an object. Negation is defined
// on numbers only.
func Negate(obj Object) (Object, error) {
	n, ok := obj.(*Number)
	if !ok {
		return nil, errz.Newf(errz.TypeMismatch,
			"unsupported operand type for -: %s", obj.Type())
	}
	return NewNumber(-n.Value()), nil
}

// Not returns the logical negation of an object's truthiness. It is
// defined for every type and never fails.
func Not(obj Object) *Bool {
	if obj.IsTruthy() {
		return False
	}
	return True
}
