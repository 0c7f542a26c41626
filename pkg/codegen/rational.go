package codegen

import (
	"pikac/pkg/abi"
	"pikac/pkg/asm"
	"pikac/pkg/types"
)

// Rationals occupy two words, numerator then denominator, and are always
// left in lowest terms with the sign on the numerator.

// stashRationalPair pops [n1, d1, n2, d2] into the rational operand slots.
func stashRationalPair(f *asm.Fragment) {
	storeSlot(f, abi.RationalD2)
	storeSlot(f, abi.RationalN2)
	storeSlot(f, abi.RationalD1)
	storeSlot(f, abi.RationalN1)
}

// crossProduct pushes a*b for two slots.
func crossProduct(f *asm.Fragment, a, b int) {
	loadSlot(f, a)
	loadSlot(f, b)
	f.Add(asm.Multiply)
}

// rationalAdd: [n1, d1, n2, d2] -> [n, d] with n = n1*d2 + n2*d1, d = d1*d2.
func (g *generator) rationalAdd(f *asm.Fragment) {
	g.rationalLinear(f, asm.Add)
}

func (g *generator) rationalSubtract(f *asm.Fragment) {
	g.rationalLinear(f, asm.Subtract)
}

func (g *generator) rationalLinear(f *asm.Fragment, op asm.Opcode) {
	stashRationalPair(f)
	crossProduct(f, abi.RationalN1, abi.RationalD2)
	crossProduct(f, abi.RationalN2, abi.RationalD1)
	f.Add(op)
	crossProduct(f, abi.RationalD1, abi.RationalD2)
	g.rationalReduce(f)
}

func (g *generator) rationalMultiply(f *asm.Fragment) {
	stashRationalPair(f)
	crossProduct(f, abi.RationalN1, abi.RationalN2)
	crossProduct(f, abi.RationalD1, abi.RationalD2)
	g.rationalReduce(f)
}

// rationalDivide faults before any arithmetic when the divisor is zero.
func (g *generator) rationalDivide(f *asm.Fragment) {
	stashRationalPair(f)
	loadSlot(f, abi.RationalN2)
	f.AddLabel(asm.JumpFalse, abi.RationalDivideByZero)
	crossProduct(f, abi.RationalN1, abi.RationalD2)
	crossProduct(f, abi.RationalD1, abi.RationalN2)
	g.rationalReduce(f)
}

// rationalReduce brings [n, d] to lowest terms with d > 0. A zero d faults.
// The gcd of |n| and d is found by repeated remainder; gcd(0, d) = d so
// zero comes out as 0/1.
func (g *generator) rationalReduce(f *asm.Fragment) {
	l := g.labels.Group("reduce")

	storeSlot(f, abi.GCDDenominator)
	storeSlot(f, abi.GCDNumerator)
	loadSlot(f, abi.GCDDenominator)
	f.AddLabel(asm.JumpFalse, abi.RationalDivideByZero)

	// move the sign onto the numerator
	loadSlot(f, abi.GCDDenominator)
	f.AddLabel(asm.JumpNeg, l.Label("flip"))
	f.AddLabel(asm.Jump, l.Label("signed"))
	f.AddLabel(asm.Label, l.Label("flip"))
	negateSlot(f, abi.GCDNumerator)
	negateSlot(f, abi.GCDDenominator)
	f.AddLabel(asm.Label, l.Label("signed"))

	f.AddInt(asm.PushI, abi.GCDA)
	loadSlot(f, abi.GCDNumerator)
	g.absolute(f)
	f.Add(asm.StoreI)
	f.AddInt(asm.PushI, abi.GCDB)
	loadSlot(f, abi.GCDDenominator)
	f.Add(asm.StoreI)

	f.AddLabel(asm.Label, l.Label("loop"))
	loadSlot(f, abi.GCDB)
	f.AddLabel(asm.JumpFalse, l.Label("done"))
	loadSlot(f, abi.GCDA)
	loadSlot(f, abi.GCDB)
	f.Add(asm.Remainder)
	f.AddInt(asm.PushI, abi.GCDA)
	loadSlot(f, abi.GCDB)
	f.Add(asm.StoreI)
	storeSlot(f, abi.GCDB)
	f.AddLabel(asm.Jump, l.Label("loop"))
	f.AddLabel(asm.Label, l.Label("done"))

	loadSlot(f, abi.GCDNumerator)
	loadSlot(f, abi.GCDA)
	f.Add(asm.Divide)
	loadSlot(f, abi.GCDDenominator)
	loadSlot(f, abi.GCDA)
	f.Add(asm.Divide)
}

func negateSlot(f *asm.Fragment, slot int) {
	f.AddInt(asm.PushI, int32(slot))
	loadSlot(f, slot)
	f.Add(asm.Negate)
	f.Add(asm.StoreI)
}

// absolute replaces the integer on top of the stack with its magnitude.
func (g *generator) absolute(f *asm.Fragment) {
	l := g.labels.Group("abs")
	f.Add(asm.Duplicate)
	f.AddLabel(asm.JumpNeg, l.Label("negative"))
	f.AddLabel(asm.Jump, l.Label("join"))
	f.AddLabel(asm.Label, l.Label("negative"))
	f.Add(asm.Negate)
	f.AddLabel(asm.Label, l.Label("join"))
}

// rationalOver builds a rational from [numerator, denominator] integers.
func (g *generator) rationalOver(f *asm.Fragment) {
	f.Add(asm.Duplicate)
	f.AddLabel(asm.JumpFalse, abi.RationalDivideByZero)
	g.rationalReduce(f)
}

// rationalFromInteger: [n] -> [n, 1].
func rationalFromInteger(f *asm.Fragment) {
	f.AddInt(asm.PushI, 1)
}

// rationalFromFloat: [x] -> x scaled by FloatToRationalScale, rounded half
// away from zero, over the scale, reduced.
func (g *generator) rationalFromFloat(f *asm.Fragment) {
	l := g.labels.Group("float-to-rat")
	f.AddFloat(asm.PushF, abi.FloatToRationalScale)
	f.Add(asm.FMultiply)
	f.Add(asm.Duplicate)
	f.AddLabel(asm.JumpFNeg, l.Label("negative"))
	f.AddFloat(asm.PushF, 0.5)
	f.Add(asm.FAdd)
	f.AddLabel(asm.Jump, l.Label("round"))
	f.AddLabel(asm.Label, l.Label("negative"))
	f.AddFloat(asm.PushF, 0.5)
	f.Add(asm.FSubtract)
	f.AddLabel(asm.Label, l.Label("round"))
	f.Add(asm.ConvertI)
	f.AddInt(asm.PushI, abi.FloatToRationalScale)
	g.rationalReduce(f)
}

// rationalToInteger: [n, d] -> [n / d] truncated.
func rationalToInteger(f *asm.Fragment) {
	f.Add(asm.Duplicate)
	f.AddLabel(asm.JumpFalse, abi.RationalDivideByZero)
	f.Add(asm.Divide)
}

// rationalToFloat: [n, d] -> [float(n) / float(d)].
func rationalToFloat(f *asm.Fragment) {
	f.Add(asm.Exchange)
	f.Add(asm.ConvertF)
	f.Add(asm.Exchange)
	f.Add(asm.ConvertF)
	f.Add(asm.Duplicate)
	f.AddLabel(asm.JumpFZero, abi.RationalDivideByZero)
	f.Add(asm.FDivide)
}

// rationalNegate: [n, d] -> [-n, d].
func rationalNegate(f *asm.Fragment) {
	f.Add(asm.Exchange)
	f.Add(asm.Negate)
	f.Add(asm.Exchange)
}

// rationalDifference: [n1, d1, n2, d2] -> [n1*d2 - n2*d1] as a float, whose
// sign is the sign of the difference because both denominators are
// positive. The products are formed in floating point so they cannot wrap.
func rationalDifference(f *asm.Fragment) {
	stashRationalPair(f)
	floatCrossProduct(f, abi.RationalN1, abi.RationalD2)
	floatCrossProduct(f, abi.RationalN2, abi.RationalD1)
	f.Add(asm.FSubtract)
}

// floatCrossProduct pushes float(a)*float(b) for two slots.
func floatCrossProduct(f *asm.Fragment, a, b int) {
	loadSlot(f, a)
	f.Add(asm.ConvertF)
	loadSlot(f, b)
	f.Add(asm.ConvertF)
	f.Add(asm.FMultiply)
}

// expressOver: [x, e] -> [trunc(x * e)] for a rational or float x.
func (g *generator) expressOver(f *asm.Fragment, from types.Type) {
	if from.Equal(types.Float) {
		f.Add(asm.ConvertF)
		f.Add(asm.FMultiply)
		f.Add(asm.ConvertI)
		return
	}
	storeSlot(f, abi.RationalN2)
	storeSlot(f, abi.RationalD1)
	loadSlot(f, abi.RationalN2)
	f.Add(asm.Multiply)
	loadSlot(f, abi.RationalD1)
	f.Add(asm.Duplicate)
	f.AddLabel(asm.JumpFalse, abi.RationalDivideByZero)
	f.Add(asm.Divide)
}

// rationalize: [x, e] -> (x /// e) // e.
func (g *generator) rationalize(f *asm.Fragment, from types.Type) {
	f.Add(asm.Duplicate)
	storeSlot(f, abi.RationalD2)
	g.expressOver(f, from)
	loadSlot(f, abi.RationalD2)
	g.rationalOver(f)
}

// storeRational writes [address, n, d] as two words.
func storeRational(f *asm.Fragment) {
	storeSlot(f, abi.RationalStoreD)
	storeSlot(f, abi.RationalStoreN)
	f.Add(asm.Duplicate)
	loadSlot(f, abi.RationalStoreN)
	f.Add(asm.StoreI)
	f.AddInt(asm.PushI, abi.RationalDenominatorOffset)
	f.Add(asm.Add)
	loadSlot(f, abi.RationalStoreD)
	f.Add(asm.StoreI)
}
