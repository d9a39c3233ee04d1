package object

import (
	"encoding/json"
	"strconv"
)

// Number wraps float64 and implements the Object interface. All Petrel
// arithmetic is double-precision floating point.
type Number struct {
	value float64
}

func (n *Number) Type() Type {
	return NUMBER
}

// Inspect renders the number in its shortest exact decimal form, so 7.0
// prints as "7" and 2.5 prints as "2.5".
func (n *Number) Inspect() string {
	return strconv.FormatFloat(n.value, 'f', -1, 64)
}

func (n *Number) Value() float64 {
	return n.value
}

func (n *Number) Interface() interface{} {
	return n.value
}

func (n *Number) String() string {
	return n.Inspect()
}

func (n *Number) Equals(other Object) bool {
	if other, ok := other.(*Number); ok {
		return n.value == other.value
	}
	return false
}

// IsTruthy is true for every number, including zero.
func (n *Number) IsTruthy() bool {
	return true
}

func (n *Number) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.value)
}

func NewNumber(value float64) *Number {
	return &Number{value: value}
}
