package object

import (
	"encoding/json"
	"fmt"
)

// String wraps string and implements the Object interface. The text is
// immutable and shared; copying a String value never copies the text.
type String struct {
	value string
}

func (s *String) Type() Type {
	return STRING
}

func (s *String) Value() string {
	return s.value
}

// Inspect returns the quoted form of the string. PRINT uses the raw text
// instead; see PrintableValue.
func (s *String) Inspect() string {
	return fmt.Sprintf("%q", s.value)
}

func (s *String) String() string {
	return s.value
}

func (s *String) Interface() interface{} {
	return s.value
}

func (s *String) Equals(other Object) bool {
	if other, ok := other.(*String); ok {
		return s.value == other.value
	}
	return false
}

// IsTruthy is true for every string, including the empty string.
func (s *String) IsTruthy() bool {
	return true
}

func (s *String) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.value)
}

func NewString(value string) *String {
	return &String{value: value}
}
