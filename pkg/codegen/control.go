package codegen

import (
	"pikac/pkg/asm"
	"pikac/pkg/ast"
	"pikac/pkg/types"
)

func (g *generator) ifStmt(s *ast.If) *asm.Fragment {
	l := g.labels.Group("if")
	f := asm.NewFragment()
	f.Append(g.valueAs(s.Cond, types.Boolean))

	if s.Else == nil {
		f.AddLabel(asm.JumpFalse, l.Label("end"))
		f.Append(g.block(s.Then))
		f.AddLabel(asm.Label, l.Label("end"))
		return f
	}
	f.AddLabel(asm.JumpFalse, l.Label("else"))
	f.Append(g.block(s.Then))
	f.AddLabel(asm.Jump, l.Label("end"))
	f.AddLabel(asm.Label, l.Label("else"))
	f.Append(g.block(s.Else))
	f.AddLabel(asm.Label, l.Label("end"))
	return f
}

// while registers the loop's labels before lowering the body so that break
// and continue inside it can find them, and drops them afterwards.
func (g *generator) while(w *ast.While) *asm.Fragment {
	l := g.labels.Group("while")
	labels := loopLabels{start: l.Label("start"), body: l.Label("body"), end: l.Label("end")}
	g.loops[w] = labels
	defer delete(g.loops, w)

	f := asm.NewFragment()
	f.AddLabel(asm.Label, labels.start)
	f.Append(g.valueAs(w.Cond, types.Boolean))
	f.AddLabel(asm.JumpFalse, labels.end)
	f.AddLabel(asm.Label, labels.body)
	f.Append(g.block(w.Body))
	f.AddLabel(asm.Jump, labels.start)
	f.AddLabel(asm.Label, labels.end)
	return f
}

// jumpOut lowers break and continue to a jump to the target label of the
// nearest enclosing loop. Outside any loop the jump lands on a label placed
// right after it.
func (g *generator) jumpOut(s ast.Stmt, target func(loopLabels) string) *asm.Fragment {
	f := asm.NewFragment()
	if w := ast.EnclosingWhile(s); w != nil {
		if labels, ok := g.loops[w]; ok {
			return f.AddLabel(asm.Jump, target(labels))
		}
	}
	l := g.labels.Group("dangling")
	dangling := loopLabels{start: l.Label("start"), body: l.Label("body"), end: l.Label("end")}
	label := target(dangling)
	f.AddLabel(asm.Jump, label)
	f.AddLabel(asm.Label, label)
	return f
}
