package asm

import (
	"fmt"
	"strings"
)

// Opcode is one instruction of the stack machine.
type Opcode int

const (
	Nop Opcode = iota

	// Stack
	PushI
	PushF
	PushD
	Pop
	Duplicate
	Exchange

	// Integer arithmetic
	Add
	Subtract
	Negate
	Multiply
	Divide
	Remainder

	// Float arithmetic
	FAdd
	FSubtract
	FNegate
	FMultiply
	FDivide

	// Conversion
	ConvertF
	ConvertI

	// Logical and bitwise
	And
	Or
	Xor
	BTAnd
	BTOr
	BTXor
	BNegate

	// Control
	Jump
	JumpTrue
	JumpFalse
	JumpPos
	JumpNeg
	JumpFZero
	JumpFPos
	JumpFNeg
	Call
	Return

	// Memory
	LoadC
	LoadI
	LoadF
	StoreC
	StoreI
	StoreF
	Memtop

	// Labels and data directives
	Label
	DLabel
	DataC
	DataI
	DataF
	DataS
	DataZ
	DataD

	// Runtime services
	Printf
	PStack
	Halt

	opcodeCount
)

// OperandKind says what, if anything, follows the mnemonic.
type OperandKind int

const (
	NoOperand OperandKind = iota
	IntOperand
	FloatOperand
	LabelOperand
	StringOperand
)

type opInfo struct {
	name    string
	operand OperandKind
}

var opTable = [opcodeCount]opInfo{
	Nop:       {"Nop", NoOperand},
	PushI:     {"PushI", IntOperand},
	PushF:     {"PushF", FloatOperand},
	PushD:     {"PushD", LabelOperand},
	Pop:       {"Pop", NoOperand},
	Duplicate: {"Duplicate", NoOperand},
	Exchange:  {"Exchange", NoOperand},
	Add:       {"Add", NoOperand},
	Subtract:  {"Subtract", NoOperand},
	Negate:    {"Negate", NoOperand},
	Multiply:  {"Multiply", NoOperand},
	Divide:    {"Divide", NoOperand},
	Remainder: {"Remainder", NoOperand},
	FAdd:      {"FAdd", NoOperand},
	FSubtract: {"FSubtract", NoOperand},
	FNegate:   {"FNegate", NoOperand},
	FMultiply: {"FMultiply", NoOperand},
	FDivide:   {"FDivide", NoOperand},
	ConvertF:  {"ConvertF", NoOperand},
	ConvertI:  {"ConvertI", NoOperand},
	And:       {"And", NoOperand},
	Or:        {"Or", NoOperand},
	Xor:       {"Xor", NoOperand},
	BTAnd:     {"BTAnd", NoOperand},
	BTOr:      {"BTOr", NoOperand},
	BTXor:     {"BTXor", NoOperand},
	BNegate:   {"BNegate", NoOperand},
	Jump:      {"Jump", LabelOperand},
	JumpTrue:  {"JumpTrue", LabelOperand},
	JumpFalse: {"JumpFalse", LabelOperand},
	JumpPos:   {"JumpPos", LabelOperand},
	JumpNeg:   {"JumpNeg", LabelOperand},
	JumpFZero: {"JumpFZero", LabelOperand},
	JumpFPos:  {"JumpFPos", LabelOperand},
	JumpFNeg:  {"JumpFNeg", LabelOperand},
	Call:      {"Call", LabelOperand},
	Return:    {"Return", NoOperand},
	LoadC:     {"LoadC", NoOperand},
	LoadI:     {"LoadI", NoOperand},
	LoadF:     {"LoadF", NoOperand},
	StoreC:    {"StoreC", NoOperand},
	StoreI:    {"StoreI", NoOperand},
	StoreF:    {"StoreF", NoOperand},
	Memtop:    {"Memtop", NoOperand},
	Label:     {"Label", LabelOperand},
	DLabel:    {"DLabel", LabelOperand},
	DataC:     {"DataC", IntOperand},
	DataI:     {"DataI", IntOperand},
	DataF:     {"DataF", FloatOperand},
	DataS:     {"DataS", StringOperand},
	DataZ:     {"DataZ", IntOperand},
	DataD:     {"DataD", LabelOperand},
	Printf:    {"Printf", NoOperand},
	PStack:    {"PStack", NoOperand},
	Halt:      {"Halt", NoOperand},
}

// mnemonics maps lower-cased mnemonic text back to its Opcode.
var mnemonics = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opTable))
	for op, info := range opTable {
		m[strings.ToLower(info.name)] = Opcode(op)
	}
	return m
}()

func (op Opcode) String() string {
	if op >= 0 && op < opcodeCount {
		return opTable[op].name
	}
	return fmt.Sprintf("Opcode(%d)", int(op))
}

// Operand reports the operand kind op takes.
func (op Opcode) Operand() OperandKind {
	if op >= 0 && op < opcodeCount {
		return opTable[op].operand
	}
	return NoOperand
}

// IsDirective reports whether op only shapes the program image and is a
// no-op when executed.
func (op Opcode) IsDirective() bool {
	switch op {
	case Label, DLabel, DataC, DataI, DataF, DataS, DataZ, DataD:
		return true
	}
	return false
}

// IsJump reports whether op transfers control to its label operand.
func (op Opcode) IsJump() bool {
	switch op {
	case Jump, JumpTrue, JumpFalse, JumpPos, JumpNeg, JumpFZero, JumpFPos, JumpFNeg, Call:
		return true
	}
	return false
}

// Lookup finds the opcode for a mnemonic, ignoring case.
func Lookup(mnemonic string) (Opcode, bool) {
	op, ok := mnemonics[strings.ToLower(mnemonic)]
	return op, ok
}
