package codegen

import (
	"pikac/pkg/asm"
	"pikac/pkg/ast"
	"pikac/pkg/types"
)

func (g *generator) block(b *ast.Block) *asm.Fragment {
	defer g.enter(b)()
	f := asm.NewFragment()
	for _, s := range b.Stmts {
		code := g.stmt(s)
		if _, nested := s.(*ast.Block); g.opts.Comments && !nested {
			code.Annotate("%s", s)
		}
		f.Append(code)
	}
	return f
}

func (g *generator) stmt(s ast.Stmt) *asm.Fragment {
	defer g.enter(s)()

	switch s := s.(type) {
	case *ast.Declaration:
		return g.declaration(s)
	case *ast.Assign:
		return g.assign(s)
	case *ast.Block:
		return g.block(s)
	case *ast.If:
		return g.ifStmt(s)
	case *ast.While:
		return g.while(s)
	case *ast.Break:
		return g.jumpOut(s, func(l loopLabels) string { return l.end })
	case *ast.Continue:
		return g.jumpOut(s, func(l loopLabels) string { return l.start })
	case *ast.Return:
		return g.returnStmt(s)
	case *ast.CallStmt:
		return g.callStmt(s)
	case *ast.Print:
		return g.print(s)
	}
	g.fail(s, "no lowering rule")
	return nil
}

// declaration stores the initializer through the new variable's address.
// A constant string remembers its literal so prints can use the label.
func (g *generator) declaration(d *ast.Declaration) *asm.Fragment {
	t := d.Name.Type()
	g.requireType(d.Name)
	if lit, ok := d.Init.(*ast.StringLiteral); ok && d.Const && d.Name.Binding != nil {
		g.stringConsts[d.Name.Binding] = g.stringLabel(lit.Value)
	}

	f := asm.NewFragment()
	f.Append(g.address(d.Name))
	f.Append(g.valueAs(d.Init, t))
	g.store(d, f, t)
	return f
}

func (g *generator) assign(a *ast.Assign) *asm.Fragment {
	t := a.Target.Type()
	if id, ok := a.Target.(*ast.Identifier); ok && t.Equal(types.String) {
		delete(g.stringConsts, id.Binding)
	}

	f := asm.NewFragment()
	f.Append(g.address(a.Target))
	f.Append(g.valueAs(a.Value, t))
	g.store(a, f, t)
	return f
}

// callStmt discards the result of the call.
func (g *generator) callStmt(c *ast.CallStmt) *asm.Fragment {
	f := asm.NewFragment()
	f.Append(g.expr(c.Call))
	for i, n := 0, words(c.Call.Type()); i < n; i++ {
		f.Add(asm.Pop)
	}
	return f
}
