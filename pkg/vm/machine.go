// Package vm executes programs for the Pika stack machine: a byte-addressed
// memory holding the data image, the heap and the frame stack, plus an
// operand stack of integer and floating values.
package vm

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"pikac/pkg/abi"
	"pikac/pkg/asm"
)

// Config sizes the machine.
type Config struct {
	MemorySize int
	// MaxSteps stops a runaway program; zero means no limit.
	MaxSteps int
	// Output receives everything Printf writes. If nil, os.Stdout is used.
	Output io.Writer
}

func DefaultConfig() Config {
	return Config{MemorySize: 1 << 20}
}

// Tracer observes each instruction before it executes.
type Tracer func(pc int, in asm.Instruction, depth int)

// Value is one operand stack entry.
type Value struct {
	Float bool    `json:"float,omitempty"`
	I     int32   `json:"i,omitempty"`
	F     float64 `json:"f,omitempty"`
}

func (v Value) String() string {
	if v.Float {
		return fmt.Sprintf("%gf", v.F)
	}
	return fmt.Sprintf("%d", v.I)
}

type Machine struct {
	Memory []byte
	Stack  []Value

	PC     int
	Steps  int
	Halted bool

	Output io.Writer
	Trace  Tracer

	maxSteps int
	img      *image
}

// New lays out program and returns a machine ready to run it from the first
// executable instruction.
func New(program []asm.Instruction, cfg Config) (*Machine, error) {
	if cfg.MemorySize <= 0 {
		cfg.MemorySize = DefaultConfig().MemorySize
	}
	img, err := load(program)
	if err != nil {
		return nil, err
	}
	if abi.DataBase+len(img.data) > cfg.MemorySize {
		return nil, &LoadError{Detail: fmt.Sprintf("data image of %d bytes does not fit in %d bytes of memory", len(img.data), cfg.MemorySize)}
	}
	m := &Machine{
		Memory:   make([]byte, cfg.MemorySize),
		Output:   cfg.Output,
		maxSteps: cfg.MaxSteps,
		img:      img,
	}
	copy(m.Memory[abi.DataBase:], img.data)
	return m, nil
}

func (m *Machine) outputSink() io.Writer {
	if m.Output != nil {
		return m.Output
	}
	return os.Stdout
}

// Code returns the executable instructions; PC indexes this slice.
func (m *Machine) Code() []asm.Instruction { return m.img.code }

// LabelAddress returns the address of a data label or the index of a code
// label.
func (m *Machine) LabelAddress(label string) (int, bool) {
	return m.img.address(label)
}

// Run executes until Halt or an error.
func (m *Machine) Run() error {
	for !m.Halted {
		if err := m.Step(); err != nil {
			return err
		}
	}
	return nil
}

// RunFor executes at most n instructions.
func (m *Machine) RunFor(n int) error {
	for i := 0; i < n && !m.Halted; i++ {
		if err := m.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Step executes one instruction. Running off the end of the code halts.
func (m *Machine) Step() error {
	if m.Halted {
		return ErrHalted
	}
	if m.PC < 0 || m.PC >= len(m.img.code) {
		m.Halted = true
		return nil
	}
	in := m.img.code[m.PC]
	if m.maxSteps > 0 && m.Steps >= m.maxSteps {
		return &Error{PC: m.PC, Instr: in, Err: ErrStepLimit}
	}
	if m.Trace != nil {
		m.Trace(m.PC, in, len(m.Stack))
	}
	m.Steps++
	pc := m.PC
	m.PC++
	if err := m.execute(in); err != nil {
		return &Error{PC: pc, Instr: in, Err: err}
	}
	return nil
}

func (m *Machine) execute(in asm.Instruction) error {
	switch in.Op {
	case asm.Nop:

	case asm.PushI:
		m.pushInt(in.Int)
	case asm.PushF:
		m.pushFloat(in.Float)
	case asm.PushD:
		addr, _ := m.img.address(in.Label)
		m.pushInt(int32(addr))
	case asm.Pop:
		_, err := m.pop()
		return err
	case asm.Duplicate:
		v, err := m.pop()
		if err != nil {
			return err
		}
		m.Stack = append(m.Stack, v, v)
	case asm.Exchange:
		b, err := m.pop()
		if err != nil {
			return err
		}
		a, err := m.pop()
		if err != nil {
			return err
		}
		m.Stack = append(m.Stack, b, a)

	case asm.Add, asm.Subtract, asm.Multiply, asm.Divide, asm.Remainder,
		asm.And, asm.Or, asm.Xor, asm.BTAnd, asm.BTOr, asm.BTXor:
		return m.intBinary(in.Op)
	case asm.Negate:
		a, err := m.popInt()
		if err != nil {
			return err
		}
		m.pushInt(-a)
	case asm.BNegate:
		a, err := m.popInt()
		if err != nil {
			return err
		}
		m.pushInt(^a)

	case asm.FAdd, asm.FSubtract, asm.FMultiply, asm.FDivide:
		return m.floatBinary(in.Op)
	case asm.FNegate:
		a, err := m.popFloat()
		if err != nil {
			return err
		}
		m.pushFloat(-a)

	case asm.ConvertF:
		a, err := m.popInt()
		if err != nil {
			return err
		}
		m.pushFloat(float64(a))
	case asm.ConvertI:
		a, err := m.popFloat()
		if err != nil {
			return err
		}
		m.pushInt(int32(a))

	case asm.Jump:
		m.PC = m.img.codeLabels[in.Label]
	case asm.JumpTrue, asm.JumpFalse, asm.JumpPos, asm.JumpNeg:
		a, err := m.popInt()
		if err != nil {
			return err
		}
		if intCondition(in.Op, a) {
			m.PC = m.img.codeLabels[in.Label]
		}
	case asm.JumpFZero, asm.JumpFPos, asm.JumpFNeg:
		a, err := m.popFloat()
		if err != nil {
			return err
		}
		if floatCondition(in.Op, a) {
			m.PC = m.img.codeLabels[in.Label]
		}
	case asm.Call:
		m.pushInt(int32(m.PC))
		m.PC = m.img.codeLabels[in.Label]
	case asm.Return:
		target, err := m.popInt()
		if err != nil {
			return err
		}
		if target < 0 || int(target) > len(m.img.code) {
			return fmt.Errorf("%w: %d", ErrBadReturn, target)
		}
		m.PC = int(target)

	case asm.LoadC, asm.LoadI, asm.LoadF:
		return m.load(in.Op)
	case asm.StoreC, asm.StoreI, asm.StoreF:
		return m.store(in.Op)
	case asm.Memtop:
		m.pushInt(int32(len(m.Memory)))

	case asm.Printf:
		return m.printf()
	case asm.PStack:
		fmt.Fprintf(m.outputSink(), "Stack: %v\n", m.Stack)
	case asm.Halt:
		m.Halted = true

	default:
		return fmt.Errorf("cannot execute %s", in.Op)
	}
	return nil
}

func intCondition(op asm.Opcode, a int32) bool {
	switch op {
	case asm.JumpTrue:
		return a != 0
	case asm.JumpFalse:
		return a == 0
	case asm.JumpPos:
		return a > 0
	}
	return a < 0
}

func floatCondition(op asm.Opcode, a float64) bool {
	switch op {
	case asm.JumpFZero:
		return a == 0
	case asm.JumpFPos:
		return a > 0
	}
	return a < 0
}

func truth(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

func (m *Machine) intBinary(op asm.Opcode) error {
	b, err := m.popInt()
	if err != nil {
		return err
	}
	a, err := m.popInt()
	if err != nil {
		return err
	}
	var r int32
	switch op {
	case asm.Add:
		r = a + b
	case asm.Subtract:
		r = a - b
	case asm.Multiply:
		r = a * b
	case asm.Divide, asm.Remainder:
		if b == 0 {
			return ErrDivideByZero
		}
		if op == asm.Divide {
			r = a / b
		} else {
			r = a % b
		}
	case asm.And:
		r = truth(a != 0 && b != 0)
	case asm.Or:
		r = truth(a != 0 || b != 0)
	case asm.Xor:
		r = truth((a != 0) != (b != 0))
	case asm.BTAnd:
		r = a & b
	case asm.BTOr:
		r = a | b
	case asm.BTXor:
		r = a ^ b
	}
	m.pushInt(r)
	return nil
}

func (m *Machine) floatBinary(op asm.Opcode) error {
	b, err := m.popFloat()
	if err != nil {
		return err
	}
	a, err := m.popFloat()
	if err != nil {
		return err
	}
	var r float64
	switch op {
	case asm.FAdd:
		r = a + b
	case asm.FSubtract:
		r = a - b
	case asm.FMultiply:
		r = a * b
	case asm.FDivide:
		if b == 0 {
			return ErrDivideByZero
		}
		r = a / b
	}
	m.pushFloat(r)
	return nil
}

// load replaces an address with the value stored there.
func (m *Machine) load(op asm.Opcode) error {
	addr, err := m.popInt()
	if err != nil {
		return err
	}
	switch op {
	case asm.LoadC:
		b, err := m.ReadByte(int(addr))
		if err != nil {
			return err
		}
		m.pushInt(int32(b))
	case asm.LoadI:
		v, err := m.Read32(int(addr))
		if err != nil {
			return err
		}
		m.pushInt(v)
	case asm.LoadF:
		v, err := m.ReadFloat(int(addr))
		if err != nil {
			return err
		}
		m.pushFloat(v)
	}
	return nil
}

// store pops a value, then an address, and writes the value there.
func (m *Machine) store(op asm.Opcode) error {
	if op == asm.StoreF {
		v, err := m.popFloat()
		if err != nil {
			return err
		}
		addr, err := m.popInt()
		if err != nil {
			return err
		}
		return m.WriteFloat(int(addr), v)
	}
	v, err := m.popInt()
	if err != nil {
		return err
	}
	addr, err := m.popInt()
	if err != nil {
		return err
	}
	if op == asm.StoreC {
		return m.WriteByte(int(addr), byte(v))
	}
	return m.Write32(int(addr), v)
}

func (m *Machine) pushInt(v int32)     { m.Stack = append(m.Stack, Value{I: v}) }
func (m *Machine) pushFloat(v float64) { m.Stack = append(m.Stack, Value{Float: true, F: v}) }

func (m *Machine) pop() (Value, error) {
	if len(m.Stack) == 0 {
		return Value{}, ErrStackUnderflow
	}
	v := m.Stack[len(m.Stack)-1]
	m.Stack = m.Stack[:len(m.Stack)-1]
	return v, nil
}

func (m *Machine) popInt() (int32, error) {
	v, err := m.pop()
	if err != nil {
		return 0, err
	}
	if v.Float {
		return 0, fmt.Errorf("%w: want integer, got %s", ErrTypeMismatch, v)
	}
	return v.I, nil
}

func (m *Machine) popFloat() (float64, error) {
	v, err := m.pop()
	if err != nil {
		return 0, err
	}
	if !v.Float {
		return 0, fmt.Errorf("%w: want float, got %s", ErrTypeMismatch, v)
	}
	return v.F, nil
}

func (m *Machine) check(addr, size int) error {
	if addr < 0 || addr+size > len(m.Memory) {
		return fmt.Errorf("%w: %d", ErrBadAddress, addr)
	}
	return nil
}

func (m *Machine) ReadByte(addr int) (byte, error) {
	if err := m.check(addr, 1); err != nil {
		return 0, err
	}
	return m.Memory[addr], nil
}

func (m *Machine) WriteByte(addr int, v byte) error {
	if err := m.check(addr, 1); err != nil {
		return err
	}
	m.Memory[addr] = v
	return nil
}

// Read32 reads a little-endian int32.
func (m *Machine) Read32(addr int) (int32, error) {
	if err := m.check(addr, 4); err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(m.Memory[addr:])), nil
}

func (m *Machine) Write32(addr int, v int32) error {
	if err := m.check(addr, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(m.Memory[addr:], uint32(v))
	return nil
}

func (m *Machine) ReadFloat(addr int) (float64, error) {
	if err := m.check(addr, 8); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(m.Memory[addr:])), nil
}

func (m *Machine) WriteFloat(addr int, v float64) error {
	if err := m.check(addr, 8); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(m.Memory[addr:], math.Float64bits(v))
	return nil
}

// ReadString reads the NUL-terminated string at addr.
func (m *Machine) ReadString(addr int) (string, error) {
	if err := m.check(addr, 1); err != nil {
		return "", err
	}
	for end := addr; end < len(m.Memory); end++ {
		if m.Memory[end] == 0 {
			return string(m.Memory[addr:end]), nil
		}
	}
	return "", fmt.Errorf("%w: unterminated string at %d", ErrBadAddress, addr)
}
