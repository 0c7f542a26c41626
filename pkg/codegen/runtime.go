package codegen

import (
	"pikac/pkg/abi"
	"pikac/pkg/asm"
)

type runtimeString struct {
	label string
	text  string
}

var runtimeStrings = []runtimeString{
	{abi.IntegerFormat, "%d"},
	{abi.FloatFormat, "%g"},
	{abi.CharacterFormat, "%c"},
	{abi.StringFormat, "%s"},
	{abi.NewlineFormat, "\n"},
	{abi.TabFormat, "\t"},
	{abi.SpaceFormat, " "},
	{abi.TrueString, "true"},
	{abi.FalseString, "false"},
	{abi.ArrayOpen, "["},
	{abi.ArrayClose, "]"},
	{abi.ArraySeparator, ","},
	{abi.RationalMinus, "-"},
	{abi.RationalFraction, "_"},
	{abi.RationalSlash, "/"},
}

type fault struct {
	label   string
	message string
}

var faults = []fault{
	{abi.IntDivideByZero, "integer divide by zero"},
	{abi.FloatDivideByZero, "floating divide by zero"},
	{abi.RationalDivideByZero, "rational divide by zero"},
	{abi.IndexOutOfRange, "index out of range"},
	{abi.NegativeLength, "negative array length"},
	{abi.MissingReturn, "function ended without return"},
}

// preamble is the runtime environment every program starts with: a jump over
// itself, the print format strings, the runtime cells, the fault handlers and
// the bump allocator.
func (g *generator) preamble() *asm.Fragment {
	f := asm.NewFragment()
	f.AddLabel(asm.Jump, abi.MainLabel)
	if g.opts.Comments {
		scratch := abi.ScratchRanges
		f.Annotate("scratch 0x%03X-0x%03X reserved, data at 0x%03X",
			scratch[0].Start, scratch[len(scratch)-1].End, abi.DataBase)
	}

	for _, s := range runtimeStrings {
		f.AddLabel(asm.DLabel, s.label)
		f.AddString(asm.DataS, s.text)
	}
	for _, cell := range []string{abi.HeapPointer, abi.FramePointer, abi.StackPointer} {
		f.AddLabel(asm.DLabel, cell)
		f.AddInt(asm.DataI, 0)
	}

	for _, flt := range faults {
		message := g.labels.New("fault-message")
		f.AddLabel(asm.DLabel, message)
		f.AddString(asm.DataS, "Runtime error: "+flt.message+"\n")
		f.AddLabel(asm.Label, flt.label)
		f.AddLabel(asm.PushD, message)
		f.Add(asm.Printf)
		f.Add(asm.Halt)
	}

	f.Append(allocator())
	return f
}

// allocator is the bump allocator subroutine. Entry stack: [size, return];
// exit stack: [address of size zeroed bytes].
func allocator() *asm.Fragment {
	f := asm.NewFragment()
	f.AddLabel(asm.Label, abi.Allocate)
	storeSlot(f, abi.AllocReturn)
	f.AddLabel(asm.PushD, abi.HeapPointer)
	f.Add(asm.LoadI)
	f.Add(asm.Exchange)
	f.AddLabel(asm.PushD, abi.HeapPointer)
	f.Add(asm.LoadI)
	f.Add(asm.Add)
	f.AddLabel(asm.PushD, abi.HeapPointer)
	f.Add(asm.Exchange)
	f.Add(asm.StoreI)
	loadSlot(f, abi.AllocReturn)
	f.Add(asm.Return)
	return f
}

// runtimeInit points the heap at the end of the data image and the frame
// stack at the top of memory.
func runtimeInit() *asm.Fragment {
	f := asm.NewFragment()
	f.AddLabel(asm.PushD, abi.HeapPointer)
	f.AddLabel(asm.PushD, abi.HeapMemory)
	f.Add(asm.StoreI)
	for _, cell := range []string{abi.FramePointer, abi.StackPointer} {
		f.AddLabel(asm.PushD, cell)
		f.Add(asm.Memtop)
		f.Add(asm.StoreI)
	}
	return f
}
