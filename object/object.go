// Package object provides the runtime value types executed by the Petrel
// virtual machine.
//
// The set of types is closed: *Number, *Bool, *NilType, *String and
// *Function. There is no implicit coercion between types anywhere in the
// runtime. External users will often type assert an object.Object to a
// specific type:
//
//	switch obj := obj.(type) {
//	case *object.String:
//		// do something with obj.Value()
//	case *object.Number:
//		// do something with obj.Value()
//	}
//
// The Type() method of each object may also be used to get a string
// name of the object type, such as "string" or "number".
package object

import "sort"

// Type of an object as a string.
type Type string

// Type constants
const (
	BOOL     Type = "bool"
	FUNCTION Type = "function"
	NIL      Type = "nil"
	NUMBER   Type = "number"
	STRING   Type = "string"
)

var (
	Nil   = &NilType{}
	True  = &Bool{value: true}
	False = &Bool{value: false}
)

// Object is the interface that all Petrel value types implement.
type Object interface {
	// Type of the object.
	Type() Type

	// Inspect returns a string representation of the given object.
	Inspect() string

	// Interface converts the given object to a native Go value.
	Interface() interface{}

	// Equals returns true if the given object is equal to this object.
	// Objects of different types are never equal.
	Equals(other Object) bool

	// IsTruthy returns true if the object counts as true in a boolean
	// context. Only Nil and false are falsy; every other value, including
	// zero and the empty string, is truthy.
	IsTruthy() bool
}

// Keys returns the keys of an object map as a sorted slice of strings.
func Keys(m map[string]Object) []string {
	var names []string
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// PrintableValue returns the text that PRINT writes for an object. Strings
// print as their raw text; every other type prints as its Inspect form.
func PrintableValue(obj Object) string {
	if s, ok := obj.(*String); ok {
		return s.Value()
	}
	return obj.Inspect()
}
