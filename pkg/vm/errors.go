package vm

import (
	"errors"
	"fmt"

	"pikac/pkg/asm"
)

var (
	ErrStackUnderflow = errors.New("operand stack underflow")
	ErrTypeMismatch   = errors.New("operand type mismatch")
	ErrBadAddress     = errors.New("memory access out of bounds")
	ErrDivideByZero   = errors.New("divide by zero")
	ErrBadReturn      = errors.New("return to an invalid address")
	ErrStepLimit      = errors.New("step limit exceeded")
	ErrHalted         = errors.New("machine is halted")
)

// Error is a fault raised while executing one instruction.
type Error struct {
	PC    int
	Instr asm.Instruction
	Err   error
}

func (e *Error) Error() string {
	if e.Instr.Line > 0 {
		return fmt.Sprintf("vm error at pc %d (%s, line %d): %v", e.PC, e.Instr, e.Instr.Line, e.Err)
	}
	return fmt.Sprintf("vm error at pc %d (%s): %v", e.PC, e.Instr, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// LoadError reports a program that cannot be laid out: an undefined or
// duplicated label, or data that does not fit in memory.
type LoadError struct {
	Line   int
	Detail string
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("load error on line %d: %s", e.Line, e.Detail)
	}
	return "load error: " + e.Detail
}
