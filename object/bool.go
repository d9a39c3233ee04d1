package object

import "encoding/json"

// Bool wraps bool and implements the Object interface. The two values are
// the singletons True and False; NewBool returns one of those rather than
// allocating.
type Bool struct {
	value bool
}

func (b *Bool) Type() Type {
	return BOOL
}

func (b *Bool) Inspect() string {
	if b.value {
		return "true"
	}
	return "false"
}

func (b *Bool) Value() bool {
	return b.value
}

func (b *Bool) Interface() interface{} {
	return b.value
}

func (b *Bool) String() string {
	return b.Inspect()
}

func (b *Bool) Equals(other Object) bool {
	if other, ok := other.(*Bool); ok {
		return b.value == other.value
	}
	return false
}

func (b *Bool) IsTruthy() bool {
	return b.value
}

func (b *Bool) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.value)
}

func NewBool(value bool) *Bool {
	if value {
		return True
	}
	return False
}
