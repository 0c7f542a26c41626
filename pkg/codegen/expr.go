package codegen

import (
	"pikac/pkg/abi"
	"pikac/pkg/asm"
	"pikac/pkg/ast"
	"pikac/pkg/types"
)

func (g *generator) binary(b *ast.Binary) *asm.Fragment {
	switch {
	case b.Op.IsLogical():
		return g.logical(b)
	case b.Op.IsComparison():
		return g.comparison(b)
	case b.Op.IsRationalOp():
		return g.rationalOperator(b)
	case b.Op.IsArithmetic():
		return g.arithmetic(b)
	}
	g.fail(b, "no lowering rule for operator %s", b.Op)
	return nil
}

// operands lowers both sides of b promoted to their common type and returns
// that type.
func (g *generator) operands(b *ast.Binary) (*asm.Fragment, types.Type) {
	common, ok := types.CommonType(b.Left.Type(), b.Right.Type())
	if !ok {
		g.fail(b, "operator %s has no rule for %s and %s", b.Op, b.Left.Type(), b.Right.Type())
	}
	common = types.ArithmeticType(common)
	f := asm.NewFragment()
	f.Append(g.valueAs(b.Left, common))
	f.Append(g.valueAs(b.Right, common))
	return f, common
}

func (g *generator) arithmetic(b *ast.Binary) *asm.Fragment {
	f, t := g.operands(b)
	switch {
	case t.Equal(types.Integer):
		switch b.Op {
		case ast.OpAdd:
			f.Add(asm.Add)
		case ast.OpSubtract:
			f.Add(asm.Subtract)
		case ast.OpMultiply:
			f.Add(asm.Multiply)
		case ast.OpDivide:
			f.Add(asm.Duplicate)
			f.AddLabel(asm.JumpFalse, abi.IntDivideByZero)
			f.Add(asm.Divide)
		}
	case t.Equal(types.Float):
		switch b.Op {
		case ast.OpAdd:
			f.Add(asm.FAdd)
		case ast.OpSubtract:
			f.Add(asm.FSubtract)
		case ast.OpMultiply:
			f.Add(asm.FMultiply)
		case ast.OpDivide:
			f.Add(asm.Duplicate)
			f.AddLabel(asm.JumpFZero, abi.FloatDivideByZero)
			f.Add(asm.FDivide)
		}
	case t.Equal(types.Rational):
		switch b.Op {
		case ast.OpAdd:
			g.rationalAdd(f)
		case ast.OpSubtract:
			g.rationalSubtract(f)
		case ast.OpMultiply:
			g.rationalMultiply(f)
		case ast.OpDivide:
			g.rationalDivide(f)
		}
	default:
		g.fail(b, "operator %s has no rule for %s", b.Op, t)
	}
	return f.MarkValue()
}

// rationalOperator lowers //, /// and ////.
func (g *generator) rationalOperator(b *ast.Binary) *asm.Fragment {
	f := asm.NewFragment()
	if b.Op == ast.OpOver {
		f.Append(g.valueAs(b.Left, types.Integer))
		f.Append(g.valueAs(b.Right, types.Integer))
		g.rationalOver(f)
		return f.MarkValue()
	}

	from := b.Left.Type()
	if !from.Equal(types.Rational) && !from.Equal(types.Float) {
		g.fail(b, "operator %s needs a rational or float on the left, got %s", b.Op, from)
	}
	f.Append(g.value(b.Left))
	f.Append(g.valueAs(b.Right, types.Integer))
	if b.Op == ast.OpExpressOver {
		g.expressOver(f, from)
	} else {
		g.rationalize(f, from)
	}
	return f.MarkValue()
}

// comparison subtracts the operands and branches on the sign of the
// difference into a diamond that pushes 1 or 0. Integer operands are
// subtracted as floats, which holds every int32 difference exactly.
func (g *generator) comparison(b *ast.Binary) *asm.Fragment {
	f, t := g.operands(b)
	l := g.labels.Group("compare")

	float := false
	switch {
	case t.Equal(types.Integer), t.Equal(types.Boolean):
		widenPair(f)
		f.Add(asm.FSubtract)
		float = true
	case t.Equal(types.Float):
		f.Add(asm.FSubtract)
		float = true
	case t.Equal(types.Rational):
		rationalDifference(f)
		float = true
	case types.IsReference(t):
		if b.Op != ast.OpEqual && b.Op != ast.OpNotEqual {
			g.fail(b, "operator %s has no rule for %s", b.Op, t)
		}
		f.Add(asm.Subtract)
	default:
		g.fail(b, "operator %s has no rule for %s", b.Op, t)
	}

	pos, neg, zero := asm.JumpPos, asm.JumpNeg, asm.JumpFalse
	if float {
		pos, neg, zero = asm.JumpFPos, asm.JumpFNeg, asm.JumpFZero
	}
	trueLabel, falseLabel := l.Label("true"), l.Label("false")
	switch b.Op {
	case ast.OpGreater:
		f.AddLabel(pos, trueLabel)
		f.AddLabel(asm.Jump, falseLabel)
	case ast.OpGreaterEq:
		f.AddLabel(neg, falseLabel)
		f.AddLabel(asm.Jump, trueLabel)
	case ast.OpLess:
		f.AddLabel(neg, trueLabel)
		f.AddLabel(asm.Jump, falseLabel)
	case ast.OpLessEq:
		f.AddLabel(pos, falseLabel)
		f.AddLabel(asm.Jump, trueLabel)
	case ast.OpEqual:
		f.AddLabel(zero, trueLabel)
		f.AddLabel(asm.Jump, falseLabel)
	case ast.OpNotEqual:
		f.AddLabel(zero, falseLabel)
		f.AddLabel(asm.Jump, trueLabel)
	}
	booleanDiamond(f, l)
	return f.MarkValue()
}

// widenPair converts the two integers on top of the stack to floats.
func widenPair(f *asm.Fragment) {
	f.Add(asm.ConvertF)
	f.Add(asm.Exchange)
	f.Add(asm.ConvertF)
	f.Add(asm.Exchange)
}

// booleanDiamond emits the true/false/join tail shared by comparisons and
// logical operators.
func booleanDiamond(f *asm.Fragment, l LabelGroup) {
	f.AddLabel(asm.Label, l.Label("true"))
	f.AddInt(asm.PushI, 1)
	f.AddLabel(asm.Jump, l.Label("join"))
	f.AddLabel(asm.Label, l.Label("false"))
	f.AddInt(asm.PushI, 0)
	f.AddLabel(asm.Label, l.Label("join"))
}

// logical lowers && and || so the right operand only runs when the left one
// does not decide the result.
func (g *generator) logical(b *ast.Binary) *asm.Fragment {
	f := asm.NewFragment()
	f.Append(g.valueAs(b.Left, types.Boolean))

	if b.Op == ast.OpAnd {
		l := g.labels.Group("and")
		f.AddLabel(asm.JumpFalse, l.Label("short"))
		f.Append(g.valueAs(b.Right, types.Boolean))
		f.AddLabel(asm.Jump, l.Label("join"))
		f.AddLabel(asm.Label, l.Label("short"))
		f.AddInt(asm.PushI, 0)
		f.AddLabel(asm.Label, l.Label("join"))
	} else {
		l := g.labels.Group("or")
		f.AddLabel(asm.JumpTrue, l.Label("short"))
		f.Append(g.valueAs(b.Right, types.Boolean))
		f.AddLabel(asm.Jump, l.Label("join"))
		f.AddLabel(asm.Label, l.Label("short"))
		f.AddInt(asm.PushI, 1)
		f.AddLabel(asm.Label, l.Label("join"))
	}
	return f.MarkValue()
}

func (g *generator) unary(u *ast.Unary) *asm.Fragment {
	t := u.Operand.Type()
	f := asm.NewFragment()

	switch u.Op {
	case ast.OpNot:
		if !t.Equal(types.Boolean) {
			g.fail(u, "operator ! needs a boolean, got %s", t)
		}
		f.Append(g.value(u.Operand))
		l := g.labels.Group("not")
		f.AddLabel(asm.JumpTrue, l.Label("false"))
		f.AddLabel(asm.Jump, l.Label("true"))
		booleanDiamond(f, l)
	case ast.OpNegate:
		f.Append(g.value(u.Operand))
		switch {
		case t.Equal(types.Integer), t.Equal(types.Character):
			f.Add(asm.Negate)
		case t.Equal(types.Float):
			f.Add(asm.FNegate)
		case t.Equal(types.Rational):
			rationalNegate(f)
		default:
			g.fail(u, "unary - has no rule for %s", t)
		}
	default:
		g.fail(u, "no lowering rule for unary %s", u.Op)
	}
	return f.MarkValue()
}
