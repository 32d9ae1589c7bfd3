// Package ir defines the vector intermediate representation consumed by
// the compilation driver: a module of kernels and functions over scalar
// and fixed-width vector values, with a round-trippable text syntax and
// a versioned binary encoding.
package ir

import (
	"fmt"

	"fortio.org/safecast"
)

// Class partitions types by their value category.
type Class uint8

const (
	// ClassVoid is the absent value type, legal only as a return type.
	ClassVoid Class = iota
	// ClassInt covers the fixed-width integers i1, i8, i16, i32, i64.
	ClassInt
	// ClassFloat covers f32 and f64.
	ClassFloat
	// ClassPtr is the opaque pointer type.
	ClassPtr
)

// Type is a scalar or a fixed-width vector of scalars. Types are plain
// values and compare with ==.
type Type struct {
	Class Class
	Bits  uint16 // element width for ClassInt and ClassFloat
	Lanes uint16 // vector lane count; 0 means scalar
}

// Predeclared scalar types.
var (
	Void = Type{Class: ClassVoid}
	I1   = Type{Class: ClassInt, Bits: 1}
	I8   = Type{Class: ClassInt, Bits: 8}
	I16  = Type{Class: ClassInt, Bits: 16}
	I32  = Type{Class: ClassInt, Bits: 32}
	I64  = Type{Class: ClassInt, Bits: 64}
	F32  = Type{Class: ClassFloat, Bits: 32}
	F64  = Type{Class: ClassFloat, Bits: 64}
	Ptr  = Type{Class: ClassPtr}
)

// VectorOf builds a vector type. The element must be a non-void scalar
// and lanes must be positive; violations are caller bugs and panic.
func VectorOf(elem Type, lanes int) Type {
	if elem.IsVector() || elem.IsVoid() {
		panic(fmt.Errorf("ir: vector element %s is not a scalar", elem))
	}
	n, err := safecast.Conv[uint16](lanes)
	if err != nil || n == 0 {
		panic(fmt.Errorf("ir: bad lane count %d", lanes))
	}
	elem.Lanes = n
	return elem
}

// IsVoid reports whether t is the void type.
func (t Type) IsVoid() bool { return t.Class == ClassVoid && t.Lanes == 0 }

// IsVector reports whether t has more than zero lanes.
func (t Type) IsVector() bool { return t.Lanes > 0 }

// IsInt reports whether t is an integer scalar or vector.
func (t Type) IsInt() bool { return t.Class == ClassInt }

// IsFloat reports whether t is a floating scalar or vector.
func (t Type) IsFloat() bool { return t.Class == ClassFloat }

// IsPtr reports whether t is a pointer scalar or vector.
func (t Type) IsPtr() bool { return t.Class == ClassPtr }

// IsBool reports whether t is scalar i1.
func (t Type) IsBool() bool { return t == I1 }

// Elem returns the element type of a vector, or t itself for scalars.
func (t Type) Elem() Type {
	t.Lanes = 0
	return t
}

// Bool returns the comparison result type shaped like t: i1 for
// scalars, <lanes x i1> for vectors.
func (t Type) Bool() Type {
	b := I1
	b.Lanes = t.Lanes
	return b
}

// LaneCount returns the number of lanes, treating scalars as one.
func (t Type) LaneCount() int {
	if t.Lanes == 0 {
		return 1
	}
	return int(t.Lanes)
}

func (t Type) String() string {
	if t.IsVector() {
		return fmt.Sprintf("<%d x %s>", t.Lanes, t.Elem())
	}
	switch t.Class {
	case ClassVoid:
		return "void"
	case ClassInt:
		return fmt.Sprintf("i%d", t.Bits)
	case ClassFloat:
		return fmt.Sprintf("f%d", t.Bits)
	case ClassPtr:
		return "ptr"
	}
	return fmt.Sprintf("Class(%d)", t.Class)
}

// scalarByName maps the scalar spellings used by the text syntax.
var scalarByName = map[string]Type{
	"void": Void,
	"i1":   I1,
	"i8":   I8,
	"i16":  I16,
	"i32":  I32,
	"i64":  I64,
	"f32":  F32,
	"f64":  F64,
	"ptr":  Ptr,
}

// ScalarByName resolves a scalar type spelling such as "i32".
func ScalarByName(name string) (Type, bool) {
	t, ok := scalarByName[name]
	return t, ok
}
