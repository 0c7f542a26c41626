// Package asm defines the instruction vocabulary of the Pika stack machine,
// the Fragment type the code generator assembles programs from, and the
// textual assembly format.
package asm

import (
	"strconv"
)

// Instruction is one opcode with its operand. Only the field selected by
// Op.Operand() is meaningful.
type Instruction struct {
	Op    Opcode
	Int   int32
	Float float64
	Label string
	Str   string

	Comment string
	Line    int // 1-based line in assembly text; 0 when generated
}

// Operand renders the operand as it appears in assembly text.
func (in Instruction) Operand() string {
	switch in.Op.Operand() {
	case IntOperand:
		return strconv.FormatInt(int64(in.Int), 10)
	case FloatOperand:
		return strconv.FormatFloat(in.Float, 'g', -1, 64)
	case LabelOperand:
		return in.Label
	case StringOperand:
		return strconv.Quote(in.Str)
	}
	return ""
}

func (in Instruction) String() string {
	operand := in.Operand()
	if operand == "" {
		return in.Op.String()
	}
	return in.Op.String() + " " + operand
}
