package codegen

import (
	"pikac/pkg/asm"
	"pikac/pkg/ast"
	"pikac/pkg/types"
)

// charMask keeps the 7-bit range of a character.
const charMask = 0x7F

func (g *generator) cast(c *ast.Cast) *asm.Fragment {
	from := c.Operand.Type()
	if !types.Castable(from, c.Target) {
		g.fail(c, "no conversion from %s to %s", from, c.Target)
	}
	f := asm.NewFragment().Append(g.value(c.Operand))
	g.convert(f, from, c.Target)
	return f.MarkValue()
}

// convert appends the instructions turning a value of type from on top of
// the stack into a value of type to. It serves both explicit casts and
// implicit promotions.
func (g *generator) convert(f *asm.Fragment, from, to types.Type) {
	if from.Equal(to) {
		return
	}
	src, ok1 := from.(types.Primitive)
	dst, ok2 := to.(types.Primitive)
	if !ok1 || !ok2 {
		g.fail(g.current(), "no conversion from %s to %s", from, to)
	}

	switch src {
	case types.Character, types.Integer:
		switch dst {
		case types.Integer:
			return
		case types.Character:
			f.AddInt(asm.PushI, charMask)
			f.Add(asm.BTAnd)
			return
		case types.Float:
			f.Add(asm.ConvertF)
			return
		case types.Rational:
			rationalFromInteger(f)
			return
		case types.Boolean:
			g.truthValue(f)
			return
		}
	case types.Float:
		switch dst {
		case types.Integer:
			f.Add(asm.ConvertI)
			return
		case types.Character:
			f.Add(asm.ConvertI)
			f.AddInt(asm.PushI, charMask)
			f.Add(asm.BTAnd)
			return
		case types.Rational:
			g.rationalFromFloat(f)
			return
		}
	case types.Rational:
		switch dst {
		case types.Integer:
			rationalToInteger(f)
			return
		case types.Float:
			rationalToFloat(f)
			return
		}
	}
	g.fail(g.current(), "no conversion from %s to %s", from, to)
}

// truthValue maps any integer to the canonical boolean 1 or 0.
func (g *generator) truthValue(f *asm.Fragment) {
	l := g.labels.Group("truth")
	f.AddLabel(asm.JumpFalse, l.Label("false"))
	f.AddInt(asm.PushI, 1)
	f.AddLabel(asm.Jump, l.Label("join"))
	f.AddLabel(asm.Label, l.Label("false"))
	f.AddInt(asm.PushI, 0)
	f.AddLabel(asm.Label, l.Label("join"))
}

func (g *generator) current() ast.Node {
	return g.stack[len(g.stack)-1]
}
