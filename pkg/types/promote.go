package types

// CommonType returns the type both operands of a binary operator are
// promoted to before the operator is applied. Characters widen to integers,
// and integers widen to either floats or rationals. Floats and rationals
// never meet implicitly.
func CommonType(t1, t2 Type) (Type, bool) {
	if t1 == nil || t2 == nil {
		return nil, false
	}
	if t1.Equal(t2) {
		return t1, true
	}
	r1, ok1 := rank(t1)
	r2, ok2 := rank(t2)
	if !ok1 || !ok2 {
		return nil, false
	}
	// float and rational share a rank and are incompatible.
	if r1 == r2 {
		return nil, false
	}
	if r1 > r2 {
		return t1, true
	}
	return t2, true
}

// rank orders the widening chain char < int < {float, rat}.
func rank(t Type) (int, bool) {
	p, ok := t.(Primitive)
	if !ok {
		return 0, false
	}
	switch p {
	case Character:
		return 0, true
	case Integer:
		return 1, true
	case Float, Rational:
		return 2, true
	}
	return 0, false
}

// Promotable reports whether a value of type from may be used where to is
// expected without an explicit cast.
func Promotable(from, to Type) bool {
	common, ok := CommonType(from, to)
	return ok && common.Equal(to)
}

// ArithmeticType is the type an arithmetic operator computes in when its
// operands share the common type t.
func ArithmeticType(t Type) Type {
	if t.Equal(Character) {
		return Integer
	}
	return t
}

var castable = map[Primitive][]Primitive{
	Integer:   {Float, Character, Boolean, Rational},
	Character: {Integer, Boolean, Rational, Float},
	Float:     {Integer, Rational, Character},
	Rational:  {Integer, Float},
}

// Castable reports whether an explicit cast from -> to has a conversion.
func Castable(from, to Type) bool {
	if from.Equal(to) {
		return true
	}
	f, ok1 := from.(Primitive)
	t, ok2 := to.(Primitive)
	if !ok1 || !ok2 {
		return false
	}
	for _, target := range castable[f] {
		if target == t {
			return true
		}
	}
	return false
}
