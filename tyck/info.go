// Package tyck describes declared value types and decides whether they
// satisfy a requirement.
//
// A container reports its declared identity as an Info; the interpreter
// compares it against the Info required at a call site through the
// process-wide Comparator. Package vm only produces and forwards Infos, it
// never interprets compatibility itself.
package tyck

import "reflect"

// anyType is the identity of "any dynamically typed value".
var anyType = reflect.TypeFor[any]()

// Info is a type-check descriptor. The zero Info describes nothing and is
// compatible with nothing.
type Info struct {
	Type     reflect.Type
	Nullable bool
}

// Any is the descriptor that accepts every value.
var Any = Info{Type: anyType, Nullable: true}

// AnyType returns the identity token used for the dynamic "any" marker.
func AnyType() reflect.Type {
	return anyType
}

// Of returns the descriptor for T.
func Of[T any]() Info {
	return Info{Type: reflect.TypeFor[T]()}
}

// OfType returns the descriptor for t.
func OfType(t reflect.Type) Info {
	return Info{Type: t}
}

// OrNull returns a copy of i that also accepts null.
func (i Info) OrNull() Info {
	i.Nullable = true
	return i
}

// IsAny reports whether i is the dynamic "any" descriptor.
func (i Info) IsAny() bool {
	return i.Type == anyType
}

// IsZero reports whether i describes nothing.
func (i Info) IsZero() bool {
	return i.Type == nil
}

func (i Info) String() string {
	if i.Type == nil {
		return "<none>"
	}
	name := i.Type.String()
	if i.IsAny() {
		name = "any"
	}
	if i.Nullable {
		return name + "?"
	}
	return name
}
