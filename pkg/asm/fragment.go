package asm

import (
	"fmt"

	"pikac/pkg/types"
)

// Kind is the synthesis kind of a Fragment.
type Kind int

const (
	Void    Kind = iota // leaves nothing on the stack
	Address             // leaves one address
	Value               // leaves a value of the node's type
)

func (k Kind) String() string {
	switch k {
	case Void:
		return "void"
	case Address:
		return "address"
	case Value:
		return "value"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ContractError reports misuse of a Fragment. It is raised with panic and
// never reachable from a well-typed tree.
type ContractError struct {
	Detail string
}

func (e *ContractError) Error() string { return "fragment contract violated: " + e.Detail }

func violate(format string, args ...any) {
	panic(&ContractError{Detail: fmt.Sprintf(format, args...)})
}

// Fragment is an ordered instruction sequence tagged with what it leaves on
// the operand stack. A fragment is built while Void and closed with
// MarkValue or MarkAddress.
type Fragment struct {
	kind Kind
	code []Instruction
}

// NewFragment returns an empty Void fragment.
func NewFragment() *Fragment {
	return &Fragment{}
}

func (f *Fragment) Kind() Kind { return f.kind }

func (f *Fragment) Instructions() []Instruction { return f.code }

func (f *Fragment) Len() int { return len(f.code) }

// Append sequences other after f. The receiver must still be Void.
func (f *Fragment) Append(other *Fragment) *Fragment {
	if f.kind != Void {
		violate("append to a %s fragment", f.kind)
	}
	if other != nil {
		f.code = append(f.code, other.code...)
	}
	return f
}

// MarkValue closes f as producing a value.
func (f *Fragment) MarkValue() *Fragment {
	return f.mark(Value)
}

// MarkAddress closes f as producing an address.
func (f *Fragment) MarkAddress() *Fragment {
	return f.mark(Address)
}

func (f *Fragment) mark(k Kind) *Fragment {
	if f.kind != Void && f.kind != k {
		violate("cannot re-mark a %s fragment as %s", f.kind, k)
	}
	f.kind = k
	return f
}

// AsValue turns an Address fragment into a Value fragment by appending the
// load for t. Value fragments are returned unchanged.
func (f *Fragment) AsValue(t types.Type) *Fragment {
	switch f.kind {
	case Value:
		return f
	case Void:
		violate("void fragment used as a %s value", t)
	}
	f.kind = Void
	EmitLoad(f, t)
	f.kind = Value
	return f
}

// EmitLoad appends the load that replaces an address of type t with its
// value. Rationals push numerator then denominator.
func EmitLoad(f *Fragment, t types.Type) {
	switch t := t.(type) {
	case types.Primitive:
		switch t {
		case types.Boolean, types.Character:
			f.Add(LoadC)
		case types.Integer, types.String:
			f.Add(LoadI)
		case types.Float:
			f.Add(LoadF)
		case types.Rational:
			f.Add(Duplicate)
			f.Add(LoadI)
			f.Add(Exchange)
			f.AddInt(PushI, 4)
			f.Add(Add)
			f.Add(LoadI)
		default:
			violate("no load for type %s", t)
		}
	case *types.Array, *types.Lambda:
		f.Add(LoadI)
	default:
		violate("no load for type %v", t)
	}
}

func (f *Fragment) emit(in Instruction) *Fragment {
	if f.kind != Void {
		violate("emit %s into a closed %s fragment", in.Op, f.kind)
	}
	f.code = append(f.code, in)
	return f
}

func checkOperand(op Opcode, want OperandKind) {
	if op.Operand() != want {
		violate("%s does not take that operand", op)
	}
}

// Add appends an instruction without an operand.
func (f *Fragment) Add(op Opcode) *Fragment {
	checkOperand(op, NoOperand)
	return f.emit(Instruction{Op: op})
}

func (f *Fragment) AddInt(op Opcode, n int32) *Fragment {
	checkOperand(op, IntOperand)
	return f.emit(Instruction{Op: op, Int: n})
}

func (f *Fragment) AddFloat(op Opcode, x float64) *Fragment {
	checkOperand(op, FloatOperand)
	return f.emit(Instruction{Op: op, Float: x})
}

func (f *Fragment) AddLabel(op Opcode, label string) *Fragment {
	checkOperand(op, LabelOperand)
	return f.emit(Instruction{Op: op, Label: label})
}

func (f *Fragment) AddString(op Opcode, s string) *Fragment {
	checkOperand(op, StringOperand)
	return f.emit(Instruction{Op: op, Str: s})
}

// Annotate attaches a comment to the first instruction of f.
func (f *Fragment) Annotate(format string, args ...any) *Fragment {
	if len(f.code) > 0 {
		f.code[0].Comment = fmt.Sprintf(format, args...)
	}
	return f
}
