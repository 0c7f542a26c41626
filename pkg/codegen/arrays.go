package codegen

import (
	"pikac/pkg/abi"
	"pikac/pkg/asm"
	"pikac/pkg/ast"
	"pikac/pkg/types"
)

// Arrays live on the heap as a 16-byte header {tag, status, element size,
// length} followed by the elements. An array value is the header address.

func elementType(n ast.Node, t types.Type) types.Type {
	a, ok := t.(*types.Array)
	if !ok {
		panic(&ContractError{Kind: n.Kind(), Loc: n.Loc(), Detail: t.String() + " is not an array"})
	}
	return a.Elem
}

// index computes the address of an element after checking the index against
// the header length. Both fault paths leave before any address arithmetic.
func (g *generator) index(e *ast.Index) *asm.Fragment {
	elem := elementType(e, e.Array.Type())
	l := g.labels.Group("index")

	f := asm.NewFragment()
	f.Append(g.value(e.Array))
	f.Append(g.valueAs(e.Index, types.Integer))
	storeSlot(f, abi.BoundsIndex)
	storeSlot(f, abi.BoundsBase)

	loadSlot(f, abi.BoundsIndex)
	f.AddLabel(asm.JumpNeg, abi.IndexOutOfRange)
	loadSlot(f, abi.BoundsIndex)
	loadSlot(f, abi.BoundsBase)
	f.AddInt(asm.PushI, abi.ArrayLengthOffset)
	f.Add(asm.Add)
	f.Add(asm.LoadI)
	f.Add(asm.Subtract)
	f.AddLabel(asm.JumpNeg, l.Label("in-range"))
	f.AddLabel(asm.Jump, abi.IndexOutOfRange)
	f.AddLabel(asm.Label, l.Label("in-range"))

	loadSlot(f, abi.BoundsBase)
	f.AddInt(asm.PushI, abi.ArrayHeaderSize)
	f.Add(asm.Add)
	loadSlot(f, abi.BoundsIndex)
	f.AddInt(asm.PushI, int32(elem.Size()))
	f.Add(asm.Multiply)
	f.Add(asm.Add)
	return f.MarkAddress()
}

// allocateArray expects the byte size of the element storage on the stack
// and leaves the base of a new array with its header written. length pushes
// the element count.
func allocateArray(f *asm.Fragment, elem types.Type, length func(*asm.Fragment)) {
	f.AddInt(asm.PushI, abi.ArrayHeaderSize)
	f.Add(asm.Add)
	f.AddLabel(asm.Call, abi.Allocate)

	status := int32(0)
	if types.IsReference(elem) {
		status = abi.StatusReferenceElems
	}
	fields := []struct {
		offset int32
		push   func(*asm.Fragment)
	}{
		{abi.ArrayTagOffset, func(f *asm.Fragment) { f.AddInt(asm.PushI, abi.ArrayTypeTag) }},
		{abi.ArrayStatusOffset, func(f *asm.Fragment) { f.AddInt(asm.PushI, status) }},
		{abi.ArrayElemSizeOffset, func(f *asm.Fragment) { f.AddInt(asm.PushI, int32(elem.Size())) }},
		{abi.ArrayLengthOffset, length},
	}
	for _, field := range fields {
		f.Add(asm.Duplicate)
		f.AddInt(asm.PushI, field.offset)
		f.Add(asm.Add)
		field.push(f)
		f.Add(asm.StoreI)
	}
}

// arrayLiteral evaluates every element first, so nested literals are built
// bottom-up, then allocates the array and pops the elements into it from the
// last to the first.
func (g *generator) arrayLiteral(a *ast.ArrayLiteral) *asm.Fragment {
	elem := elementType(a, a.Type())
	size := int32(elem.Size())
	n := int32(len(a.Elements))

	f := asm.NewFragment()
	for _, e := range a.Elements {
		f.Append(g.valueAs(e, elem))
	}
	f.AddInt(asm.PushI, n*size)
	allocateArray(f, elem, func(f *asm.Fragment) { f.AddInt(asm.PushI, n) })
	storeSlot(f, abi.ArrayBuildBase)

	for i := n - 1; i >= 0; i-- {
		offset := abi.ArrayHeaderSize + i*size
		if elem.Equal(types.Rational) {
			storeBuildElement(f, offset+abi.RationalDenominatorOffset, asm.StoreI)
			storeBuildElement(f, offset, asm.StoreI)
			continue
		}
		storeBuildElement(f, offset, storeOpcode(elem))
	}
	loadSlot(f, abi.ArrayBuildBase)
	return f.MarkValue()
}

// storeBuildElement pops one word into the array under construction.
func storeBuildElement(f *asm.Fragment, offset int32, store asm.Opcode) {
	loadSlot(f, abi.ArrayBuildBase)
	f.AddInt(asm.PushI, offset)
	f.Add(asm.Add)
	f.Add(asm.Exchange)
	f.Add(store)
}

func storeOpcode(t types.Type) asm.Opcode {
	switch {
	case t.Equal(types.Boolean), t.Equal(types.Character):
		return asm.StoreC
	case t.Equal(types.Float):
		return asm.StoreF
	}
	return asm.StoreI
}

// newArray allocates a zero-filled array whose length is known only at run
// time. Rational elements are set to 0/1.
func (g *generator) newArray(n *ast.NewArray) *asm.Fragment {
	elem := elementType(n, n.Type())
	f := asm.NewFragment()
	f.Append(g.valueAs(n.Length, types.Integer))
	storeSlot(f, abi.ArrayBuildLength)
	loadSlot(f, abi.ArrayBuildLength)
	f.AddLabel(asm.JumpNeg, abi.NegativeLength)

	loadSlot(f, abi.ArrayBuildLength)
	f.AddInt(asm.PushI, int32(elem.Size()))
	f.Add(asm.Multiply)
	allocateArray(f, elem, func(f *asm.Fragment) { loadSlot(f, abi.ArrayBuildLength) })

	if elem.Equal(types.Rational) {
		g.fillDenominators(f)
	}
	return f.MarkValue()
}

// fillDenominators writes 1 into the denominator of every rational element
// of the array whose base is on the stack, leaving the base in place.
func (g *generator) fillDenominators(f *asm.Fragment) {
	l := g.labels.Group("fill")
	storeSlot(f, abi.ArrayBuildBase)
	f.AddInt(asm.PushI, abi.ArrayBuildCursor)
	f.AddInt(asm.PushI, 0)
	f.Add(asm.StoreI)

	f.AddLabel(asm.Label, l.Label("loop"))
	loadSlot(f, abi.ArrayBuildCursor)
	loadSlot(f, abi.ArrayBuildLength)
	f.Add(asm.Subtract)
	f.AddLabel(asm.JumpNeg, l.Label("body"))
	f.AddLabel(asm.Jump, l.Label("done"))
	f.AddLabel(asm.Label, l.Label("body"))
	loadSlot(f, abi.ArrayBuildBase)
	f.AddInt(asm.PushI, abi.ArrayHeaderSize+abi.RationalDenominatorOffset)
	f.Add(asm.Add)
	loadSlot(f, abi.ArrayBuildCursor)
	f.AddInt(asm.PushI, int32(types.Rational.Size()))
	f.Add(asm.Multiply)
	f.Add(asm.Add)
	f.AddInt(asm.PushI, 1)
	f.Add(asm.StoreI)
	f.AddInt(asm.PushI, abi.ArrayBuildCursor)
	loadSlot(f, abi.ArrayBuildCursor)
	f.AddInt(asm.PushI, 1)
	f.Add(asm.Add)
	f.Add(asm.StoreI)
	f.AddLabel(asm.Jump, l.Label("loop"))
	f.AddLabel(asm.Label, l.Label("done"))
	loadSlot(f, abi.ArrayBuildBase)
}

func (g *generator) length(n *ast.Length) *asm.Fragment {
	elementType(n.Operand, n.Operand.Type())
	f := asm.NewFragment()
	f.Append(g.value(n.Operand))
	f.AddInt(asm.PushI, abi.ArrayLengthOffset)
	f.Add(asm.Add)
	f.Add(asm.LoadI)
	return f.MarkValue()
}
