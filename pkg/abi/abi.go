// Package abi is the memory map shared by generated code and the machine
// that runs it: scratch slots, the array header layout, and the names of
// the runtime labels.
package abi

// Scratch slots are absolute addresses below DataBase. Each range belongs to
// one routine family and is fully drained before that routine returns.
const (
	// Rational arithmetic operands, and the two words of a rational being
	// stored through an address.
	RationalN1     = 0x010
	RationalD1     = 0x014
	RationalN2     = 0x018
	RationalD2     = 0x01C
	RationalStoreN = 0x020
	RationalStoreD = 0x024

	// Reduction to lowest terms.
	GCDNumerator   = 0x030
	GCDDenominator = 0x034
	GCDA           = 0x038
	GCDB           = 0x03C

	// Array index bounds check.
	BoundsBase  = 0x040
	BoundsIndex = 0x044

	// Rational printing.
	PrintNumerator   = 0x050
	PrintDenominator = 0x054

	// Array construction.
	ArrayBuildBase   = 0x060
	ArrayBuildLength = 0x064
	ArrayBuildCursor = 0x068

	// Bump allocator return address.
	AllocReturn = 0x070

	// Array printing: one {base, index} pair per nesting depth.
	ArrayPrintBase     = 0x100
	ArrayPrintStride   = 8
	MaxArrayPrintDepth = 16
)

// ScratchRange is one named range of scratch memory.
type ScratchRange struct {
	Name  string
	Start int
	End   int // exclusive
}

// ScratchRanges lists every scratch range in address order.
var ScratchRanges = []ScratchRange{
	{"rational", RationalN1, RationalStoreD + 4},
	{"gcd", GCDNumerator, GCDB + 4},
	{"bounds", BoundsBase, BoundsIndex + 4},
	{"print", PrintNumerator, PrintDenominator + 4},
	{"array-build", ArrayBuildBase, ArrayBuildCursor + 4},
	{"alloc", AllocReturn, AllocReturn + 4},
	{"array-print", ArrayPrintBase, ArrayPrintBase + ArrayPrintStride*MaxArrayPrintDepth},
}

// ArrayPrintSlots returns the base and index slots used at a print depth.
func ArrayPrintSlots(depth int) (base, index int) {
	base = ArrayPrintBase + depth*ArrayPrintStride
	return base, base + 4
}

// DataBase is where labelled data starts. Address zero is never valid.
const DataBase = 0x200

// Array header layout.
const (
	ArrayTypeTag         = 7
	ArrayTagOffset       = 0
	ArrayStatusOffset    = 4
	ArrayElemSizeOffset  = 8
	ArrayLengthOffset    = 12
	ArrayHeaderSize      = 16
	StatusReferenceElems = 2
)

// Rational layout and the float conversion scale.
const (
	RationalDenominatorOffset = 4
	FloatToRationalScale      = 10000
)

// Frame layout: the dynamic link and the return address sit just below the
// frame pointer.
const (
	FrameDynamicLink   = 4
	FrameReturnAddress = 8
	FrameLinkSize      = 8
)

// Runtime data labels.
const (
	GlobalMemoryBlock = "$global-memory-block"
	HeapPointer       = "$heap-pointer"
	HeapMemory        = "$heap-memory"
	FramePointer      = "$frame-pointer"
	StackPointer      = "$stack-pointer"
)

// Runtime code labels.
const (
	MainLabel = "$$main"
	Allocate  = "$$allocate"
)

// Fault handler labels.
const (
	IntDivideByZero      = "$$i-divide-by-zero"
	FloatDivideByZero    = "$$f-divide-by-zero"
	RationalDivideByZero = "$$r-divide-by-zero"
	IndexOutOfRange      = "$$index-out-of-range"
	NegativeLength       = "$$negative-length"
	MissingReturn        = "$$missing-return"
)

// Format and punctuation strings owned by the runtime preamble.
const (
	IntegerFormat    = "$print-format-integer"
	FloatFormat      = "$print-format-float"
	CharacterFormat  = "$print-format-character"
	StringFormat     = "$print-format-string"
	NewlineFormat    = "$print-format-newline"
	TabFormat        = "$print-format-tab"
	SpaceFormat      = "$print-format-space"
	TrueString       = "$boolean-true-string"
	FalseString      = "$boolean-false-string"
	ArrayOpen        = "$print-array-open"
	ArrayClose       = "$print-array-close"
	ArraySeparator   = "$print-array-separator"
	RationalMinus    = "$print-rational-minus"
	RationalFraction = "$print-rational-underscore"
	RationalSlash    = "$print-rational-slash"
)
