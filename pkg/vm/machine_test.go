package vm

import (
	"bytes"
	"errors"
	"testing"

	"pikac/pkg/abi"
	"pikac/pkg/asm"
)

// runText parses an assembly listing, runs it and returns what it printed.
func runText(t *testing.T, text string) (string, *Machine, error) {
	t.Helper()
	code, err := asm.Parse(text)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var out bytes.Buffer
	cfg := DefaultConfig()
	cfg.Output = &out
	cfg.MaxSteps = 10000
	m, err := New(code, cfg)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	err = m.Run()
	return out.String(), m, err
}

func TestIntegerArithmetic(t *testing.T) {
	tests := []struct {
		op   string
		a, b int32
		want int32
	}{
		{"Add", 10, 20, 30},
		{"Subtract", 10, 20, -10},
		{"Multiply", -6, 7, -42},
		{"Divide", -7, 2, -3},
		{"Remainder", -7, 2, -1},
		{"BTAnd", 0x0F, 0x3C, 0x0C},
		{"BTOr", 0x0F, 0x30, 0x3F},
		{"BTXor", 0x0F, 0x3C, 0x33},
		{"And", 2, 0, 0},
		{"Or", 2, 0, 1},
		{"Xor", 2, 3, 0},
	}
	for _, tt := range tests {
		m, err := New([]asm.Instruction{
			{Op: asm.PushI, Int: tt.a},
			{Op: asm.PushI, Int: tt.b},
			{Op: mustLookup(t, tt.op)},
			{Op: asm.Halt},
		}, DefaultConfig())
		if err != nil {
			t.Fatal(err)
		}
		if err := m.Run(); err != nil {
			t.Fatalf("%s: %v", tt.op, err)
		}
		if len(m.Stack) != 1 || m.Stack[0].I != tt.want {
			t.Errorf("%s(%d, %d): stack = %v, want [%d]", tt.op, tt.a, tt.b, m.Stack, tt.want)
		}
	}
}

func mustLookup(t *testing.T, name string) asm.Opcode {
	t.Helper()
	op, ok := asm.Lookup(name)
	if !ok {
		t.Fatalf("unknown opcode %s", name)
	}
	return op
}

func TestDivideByZeroIsAnError(t *testing.T) {
	_, _, err := runText(t, `
        PushI 1
        PushI 0
        Divide
        Halt
`)
	if !errors.Is(err, ErrDivideByZero) {
		t.Fatalf("expected ErrDivideByZero, got %v", err)
	}
	var vmErr *Error
	if !errors.As(err, &vmErr) || vmErr.Instr.Line != 4 {
		t.Errorf("expected a *vm.Error on line 4, got %v", err)
	}
}

func TestTypeMismatch(t *testing.T) {
	_, _, err := runText(t, `
        PushF 1.5
        PushI 2
        Add
`)
	if !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
}

func TestConditionalJumps(t *testing.T) {
	out, _, err := runText(t, `
        DLabel yes
        DataS "yes"
        DLabel no
        DataS "no"
        PushI -3
        JumpNeg negative
        PushD no
        Printf
        Halt
Label negative
        PushF 0.0
        JumpFZero zero
        PushD no
        Printf
        Halt
Label zero
        PushD yes
        Printf
        Halt
`)
	if err != nil {
		t.Fatal(err)
	}
	if out != "yes" {
		t.Errorf("output = %q, want %q", out, "yes")
	}
}

func TestCallAndReturn(t *testing.T) {
	out, m, err := runText(t, `
        DLabel fmt
        DataS "%d"
        PushI 20
        Call double
        PushD fmt
        Printf
        Halt
Label double
        Exchange
        PushI 2
        Multiply
        Exchange
        Return
`)
	if err != nil {
		t.Fatal(err)
	}
	if out != "40" {
		t.Errorf("output = %q, want 40", out)
	}
	if len(m.Stack) != 0 {
		t.Errorf("stack not empty: %v", m.Stack)
	}
}

func TestMemoryLoadsAndStores(t *testing.T) {
	_, m, err := runText(t, `
        DLabel cell
        DataZ 16
        PushD cell
        PushI -5
        StoreI
        PushD cell
        PushI 4
        Add
        PushI 300
        StoreC
        PushD cell
        PushI 8
        Add
        PushF 2.25
        StoreF
        PushD cell
        LoadI
        PushD cell
        PushI 4
        Add
        LoadC
        PushD cell
        PushI 8
        Add
        LoadF
        Halt
`)
	if err != nil {
		t.Fatal(err)
	}
	want := []Value{{I: -5}, {I: 300 & 0xFF}, {Float: true, F: 2.25}}
	if len(m.Stack) != len(want) {
		t.Fatalf("stack = %v, want %v", m.Stack, want)
	}
	for i := range want {
		if m.Stack[i] != want[i] {
			t.Errorf("stack[%d] = %v, want %v", i, m.Stack[i], want[i])
		}
	}
}

func TestDataLayoutStartsAtDataBase(t *testing.T) {
	m, err := New([]asm.Instruction{
		{Op: asm.DLabel, Label: "a"},
		{Op: asm.DataI, Int: 7},
		{Op: asm.DLabel, Label: "b"},
		{Op: asm.DataS, Str: "hi"},
		{Op: asm.DLabel, Label: "c"},
		{Op: asm.DataD, Label: "a"},
		{Op: asm.Halt},
	}, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	for label, want := range map[string]int{"a": abi.DataBase, "b": abi.DataBase + 4, "c": abi.DataBase + 7} {
		if got, _ := m.LabelAddress(label); got != want {
			t.Errorf("%s at %d, want %d", label, got, want)
		}
	}
	if v, _ := m.Read32(abi.DataBase + 7); int(v) != abi.DataBase {
		t.Errorf("DataD wrote %d, want %d", v, abi.DataBase)
	}
	if s, _ := m.ReadString(abi.DataBase + 4); s != "hi" {
		t.Errorf("string = %q", s)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		program []asm.Instruction
	}{
		{"undefined jump", []asm.Instruction{{Op: asm.Jump, Label: "nowhere"}}},
		{"undefined data", []asm.Instruction{{Op: asm.PushD, Label: "nowhere"}}},
		{"duplicate label", []asm.Instruction{{Op: asm.Label, Label: "x"}, {Op: asm.Label, Label: "x"}}},
		{"negative zero block", []asm.Instruction{{Op: asm.DataZ, Int: -1}}},
	}
	for _, tt := range tests {
		_, err := New(tt.program, DefaultConfig())
		var le *LoadError
		if !errors.As(err, &le) {
			t.Errorf("%s: expected *LoadError, got %v", tt.name, err)
		}
	}
}

func TestDataMustFit(t *testing.T) {
	_, err := New([]asm.Instruction{{Op: asm.DataZ, Int: 4096}}, Config{MemorySize: 1024})
	if err == nil {
		t.Fatal("expected an error for oversized data")
	}
}

func TestStepLimit(t *testing.T) {
	code, _ := asm.Parse("Label top\n        Jump top\n")
	m, err := New(code, Config{MaxSteps: 50})
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Run(); !errors.Is(err, ErrStepLimit) {
		t.Fatalf("expected ErrStepLimit, got %v", err)
	}
	if m.Steps != 50 {
		t.Errorf("steps = %d, want 50", m.Steps)
	}
}

func TestMemtopAndOutOfBounds(t *testing.T) {
	_, m, err := runText(t, `
        Memtop
        LoadI
`)
	if !errors.Is(err, ErrBadAddress) {
		t.Fatalf("expected ErrBadAddress, got %v", err)
	}
	if m.Halted {
		t.Error("machine should not halt on a fault")
	}
}

func TestTracer(t *testing.T) {
	code, _ := asm.Parse("        PushI 1\n        PushI 2\n        Add\n        Halt\n")
	m, _ := New(code, DefaultConfig())
	var pcs []int
	var depths []int
	m.Trace = func(pc int, in asm.Instruction, depth int) {
		pcs = append(pcs, pc)
		depths = append(depths, depth)
	}
	if err := m.Run(); err != nil {
		t.Fatal(err)
	}
	if len(pcs) != 4 || pcs[3] != 3 {
		t.Errorf("traced pcs = %v", pcs)
	}
	if depths[2] != 2 || depths[3] != 1 {
		t.Errorf("traced depths = %v", depths)
	}
}

func TestStepAfterHalt(t *testing.T) {
	_, m, err := runText(t, "        Halt\n")
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Step(); !errors.Is(err, ErrHalted) {
		t.Errorf("expected ErrHalted, got %v", err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	code, _ := asm.Parse(`
        DLabel cell
        DataI 0
        PushD cell
        PushI 99
        StoreI
        PushF 1.5
        PushI 7
        Halt
`)
	m, _ := New(code, DefaultConfig())
	if err := m.Run(); err != nil {
		t.Fatal(err)
	}
	data, err := m.Snapshot()
	if err != nil {
		t.Fatal(err)
	}

	fresh, _ := New(code, DefaultConfig())
	if err := fresh.Restore(data); err != nil {
		t.Fatal(err)
	}
	if !fresh.Halted || fresh.PC != m.PC || fresh.Steps != m.Steps {
		t.Errorf("restored pc=%d steps=%d halted=%v", fresh.PC, fresh.Steps, fresh.Halted)
	}
	if v, _ := fresh.Read32(abi.DataBase); v != 99 {
		t.Errorf("restored cell = %d, want 99", v)
	}
	if len(fresh.Stack) != 2 || fresh.Stack[0] != (Value{Float: true, F: 1.5}) || fresh.Stack[1] != (Value{I: 7}) {
		t.Errorf("restored stack = %v", fresh.Stack)
	}
}

func TestRestoreRejectsGarbage(t *testing.T) {
	m, _ := New(nil, DefaultConfig())
	if err := m.Restore([]byte("not a zip")); err == nil {
		t.Error("expected an error")
	}
}
