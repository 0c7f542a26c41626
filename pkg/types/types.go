// Package types holds the Pika type model: primitive scalars, arrays and
// lambda signatures, plus the promotion and cast tables consulted by the
// semantic analyzer and the code generator.
package types

import (
	"fmt"
	"strings"
)

// Type is implemented by every resolved type.
type Type interface {
	// Size is the number of bytes a value of this type occupies in memory.
	Size() int
	Equal(other Type) bool
	String() string
	typ()
}

// Primitive enumerates the scalar types and the sentinels.
type Primitive int

const (
	NoType Primitive = iota // not yet resolved
	Error                   // analysis already reported a problem
	Any                     // wildcard used while matching signatures
	Void
	Boolean
	Character
	Integer
	Float
	String
	Rational
)

var primitiveNames = [...]string{
	NoType:    "notype",
	Error:     "error",
	Any:       "any",
	Void:      "void",
	Boolean:   "bool",
	Character: "char",
	Integer:   "int",
	Float:     "float",
	String:    "string",
	Rational:  "rat",
}

var primitiveSizes = [...]int{
	Boolean:   1,
	Character: 1,
	Integer:   4,
	Float:     8,
	String:    4,
	Rational:  8,
}

func (Primitive) typ() {}

func (p Primitive) Size() int {
	if int(p) < len(primitiveSizes) {
		return primitiveSizes[p]
	}
	return 0
}

func (p Primitive) Equal(other Type) bool {
	o, ok := other.(Primitive)
	return ok && o == p
}

func (p Primitive) String() string {
	if int(p) < len(primitiveNames) {
		return primitiveNames[p]
	}
	return fmt.Sprintf("Primitive(%d)", int(p))
}

// ReferenceSize is the size of a heap address stored in a variable or
// an array element.
const ReferenceSize = 4

// Array is array-of-Elem. Values are heap addresses.
type Array struct {
	Elem Type
}

func (*Array) typ() {}

func (*Array) Size() int { return ReferenceSize }

func (a *Array) Equal(other Type) bool {
	o, ok := other.(*Array)
	return ok && a.Elem.Equal(o.Elem)
}

func (a *Array) String() string { return "[" + a.Elem.String() + "]" }

// ArrayOf is shorthand for &Array{Elem: elem}.
func ArrayOf(elem Type) *Array { return &Array{Elem: elem} }

// Lambda is the signature of a function.
type Lambda struct {
	Params []Type
	Result Type
}

func (*Lambda) typ() {}

func (*Lambda) Size() int { return ReferenceSize }

func (l *Lambda) Equal(other Type) bool {
	o, ok := other.(*Lambda)
	if !ok || len(o.Params) != len(l.Params) || !l.Result.Equal(o.Result) {
		return false
	}
	for i, p := range l.Params {
		if !p.Equal(o.Params[i]) {
			return false
		}
	}
	return true
}

func (l *Lambda) String() string {
	params := make([]string, len(l.Params))
	for i, p := range l.Params {
		params[i] = p.String()
	}
	return "<" + strings.Join(params, ",") + "> -> " + l.Result.String()
}

// IsConcrete reports whether t can reach the code generator: no sentinel
// appears anywhere inside it.
func IsConcrete(t Type) bool {
	switch t := t.(type) {
	case Primitive:
		return t >= Void
	case *Array:
		return t.Elem != nil && IsConcrete(t.Elem) && !t.Elem.Equal(Void)
	case *Lambda:
		for _, p := range t.Params {
			if !IsConcrete(p) {
				return false
			}
		}
		return t.Result != nil && IsConcrete(t.Result)
	}
	return false
}

// IsNumeric reports whether arithmetic is defined on t.
func IsNumeric(t Type) bool {
	return t.Equal(Integer) || t.Equal(Float) || t.Equal(Rational)
}

// IsReference reports whether values of t are heap or data addresses.
func IsReference(t Type) bool {
	switch t := t.(type) {
	case Primitive:
		return t == String
	case *Array, *Lambda:
		return true
	}
	return false
}
