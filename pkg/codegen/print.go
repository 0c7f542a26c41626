package codegen

import (
	"pikac/pkg/abi"
	"pikac/pkg/asm"
	"pikac/pkg/ast"
	"pikac/pkg/types"
)

var markerFormats = map[ast.Marker]string{
	ast.Newline: abi.NewlineFormat,
	ast.Tab:     abi.TabFormat,
	ast.Space:   abi.SpaceFormat,
}

func (g *generator) print(p *ast.Print) *asm.Fragment {
	f := asm.NewFragment()
	for _, item := range p.Items {
		switch item := item.(type) {
		case *ast.PrintMarker:
			format, ok := markerFormats[item.Marker]
			if !ok {
				g.fail(item, "unknown print marker %d", item.Marker)
			}
			printText(f, format)
		case ast.Expr:
			f.Append(g.printItem(item))
		default:
			g.fail(item, "cannot print a %s", item.Kind())
		}
	}
	return f
}

func (g *generator) printItem(e ast.Expr) *asm.Fragment {
	defer g.enter(e)()
	g.requireType(e)

	f := asm.NewFragment()
	if id, ok := e.(*ast.Identifier); ok {
		if label, ok := g.stringConsts[id.Binding]; ok {
			f.AddLabel(asm.PushD, label)
			f.AddLabel(asm.PushD, abi.StringFormat)
			f.Add(asm.Printf)
			return f
		}
	}
	f.Append(g.value(e))
	g.printValue(f, e, e.Type(), 0)
	return f
}

// printText prints a preamble string that contains no verbs.
func printText(f *asm.Fragment, label string) {
	f.AddLabel(asm.PushD, label)
	f.Add(asm.Printf)
}

// printValue prints the value of type t on top of the stack. depth is the
// array nesting level, which selects the array print slots.
func (g *generator) printValue(f *asm.Fragment, n ast.Node, t types.Type, depth int) {
	switch t := t.(type) {
	case types.Primitive:
		switch t {
		case types.Integer:
			printFormatted(f, abi.IntegerFormat)
		case types.Float:
			printFormatted(f, abi.FloatFormat)
		case types.Character:
			printFormatted(f, abi.CharacterFormat)
		case types.String:
			printFormatted(f, abi.StringFormat)
		case types.Boolean:
			g.printBoolean(f)
		case types.Rational:
			g.printRational(f)
		default:
			g.fail(n, "cannot print a %s", t)
		}
	case *types.Array:
		g.printArray(f, n, t, depth)
	default:
		g.fail(n, "cannot print a %s", t)
	}
}

func printFormatted(f *asm.Fragment, format string) {
	f.AddLabel(asm.PushD, format)
	f.Add(asm.Printf)
}

func (g *generator) printBoolean(f *asm.Fragment) {
	l := g.labels.Group("print-boolean")
	f.AddLabel(asm.JumpTrue, l.Label("true"))
	f.AddLabel(asm.PushD, abi.FalseString)
	f.AddLabel(asm.Jump, l.Label("join"))
	f.AddLabel(asm.Label, l.Label("true"))
	f.AddLabel(asm.PushD, abi.TrueString)
	f.AddLabel(asm.Label, l.Label("join"))
	f.Add(asm.Printf)
}

// printRational prints [n, d] as an optional minus sign, the quotient
// |n|/d and, when the remainder is nonzero, _remainder/d.
func (g *generator) printRational(f *asm.Fragment) {
	l := g.labels.Group("print-rational")
	storeSlot(f, abi.PrintDenominator)
	storeSlot(f, abi.PrintNumerator)

	loadSlot(f, abi.PrintNumerator)
	f.AddLabel(asm.JumpNeg, l.Label("negative"))
	f.AddLabel(asm.Jump, l.Label("quotient"))
	f.AddLabel(asm.Label, l.Label("negative"))
	printText(f, abi.RationalMinus)
	negateSlot(f, abi.PrintNumerator)

	f.AddLabel(asm.Label, l.Label("quotient"))
	loadSlot(f, abi.PrintNumerator)
	loadSlot(f, abi.PrintDenominator)
	f.Add(asm.Divide)
	printFormatted(f, abi.IntegerFormat)

	loadSlot(f, abi.PrintNumerator)
	loadSlot(f, abi.PrintDenominator)
	f.Add(asm.Remainder)
	f.AddLabel(asm.JumpFalse, l.Label("done"))
	printText(f, abi.RationalFraction)
	loadSlot(f, abi.PrintNumerator)
	loadSlot(f, abi.PrintDenominator)
	f.Add(asm.Remainder)
	printFormatted(f, abi.IntegerFormat)
	printText(f, abi.RationalSlash)
	loadSlot(f, abi.PrintDenominator)
	printFormatted(f, abi.IntegerFormat)
	f.AddLabel(asm.Label, l.Label("done"))
}

// printArray prints [e0,e1,...], recursing into nested arrays with the next
// depth's slots.
func (g *generator) printArray(f *asm.Fragment, n ast.Node, t *types.Array, depth int) {
	if depth >= abi.MaxArrayPrintDepth {
		g.fail(n, "arrays nested deeper than %d cannot be printed", abi.MaxArrayPrintDepth)
	}
	base, index := abi.ArrayPrintSlots(depth)
	l := g.labels.Group("print-array")

	storeSlot(f, base)
	f.AddInt(asm.PushI, int32(index))
	f.AddInt(asm.PushI, 0)
	f.Add(asm.StoreI)
	printText(f, abi.ArrayOpen)

	f.AddLabel(asm.Label, l.Label("loop"))
	loadSlot(f, index)
	loadSlot(f, base)
	f.AddInt(asm.PushI, abi.ArrayLengthOffset)
	f.Add(asm.Add)
	f.Add(asm.LoadI)
	f.Add(asm.Subtract)
	f.AddLabel(asm.JumpNeg, l.Label("element"))
	f.AddLabel(asm.Jump, l.Label("done"))

	f.AddLabel(asm.Label, l.Label("element"))
	loadSlot(f, index)
	f.AddLabel(asm.JumpFalse, l.Label("first"))
	printText(f, abi.ArraySeparator)
	f.AddLabel(asm.Label, l.Label("first"))
	loadSlot(f, base)
	f.AddInt(asm.PushI, abi.ArrayHeaderSize)
	f.Add(asm.Add)
	loadSlot(f, index)
	f.AddInt(asm.PushI, int32(t.Elem.Size()))
	f.Add(asm.Multiply)
	f.Add(asm.Add)
	asm.EmitLoad(f, t.Elem)
	g.printValue(f, n, t.Elem, depth+1)

	f.AddInt(asm.PushI, int32(index))
	loadSlot(f, index)
	f.AddInt(asm.PushI, 1)
	f.Add(asm.Add)
	f.Add(asm.StoreI)
	f.AddLabel(asm.Jump, l.Label("loop"))
	f.AddLabel(asm.Label, l.Label("done"))
	printText(f, abi.ArrayClose)
}
