package object

import (
	"fmt"

	"github.com/petrel-lang/petrel/bytecode"
)

// FromGo converts a native Go value to a Petrel object. Existing objects
// pass through unchanged; numeric Go types all map to *Number. Types
// outside the closed object set are rejected.
func FromGo(value any) (Object, error) {
	switch v := value.(type) {
	case nil:
		return Nil, nil
	case Object:
		return v, nil
	case bool:
		return NewBool(v), nil
	case float64:
		return NewNumber(v), nil
	case float32:
		return NewNumber(float64(v)), nil
	case int:
		return NewNumber(float64(v)), nil
	case int8:
		return NewNumber(float64(v)), nil
	case int16:
		return NewNumber(float64(v)), nil
	case int32:
		return NewNumber(float64(v)), nil
	case int64:
		return NewNumber(float64(v)), nil
	case uint:
		return NewNumber(float64(v)), nil
	case uint8:
		return NewNumber(float64(v)), nil
	case uint16:
		return NewNumber(float64(v)), nil
	case uint32:
		return NewNumber(float64(v)), nil
	case uint64:
		return NewNumber(float64(v)), nil
	case string:
		return NewString(v), nil
	case *bytecode.Function:
		return NewFunction(v), nil
	default:
		return nil, fmt.Errorf("unsupported Go type %T", value)
	}
}
