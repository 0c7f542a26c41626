package ast

import (
	"fmt"
	"strings"

	"pikac/pkg/types"
)

// Program is the root: function definitions followed by the exec block.
// GlobalSize is the byte size of top-level variable storage, set by semantic
// analysis.
type Program struct {
	Meta
	Functions  []*Function
	Main       *Block
	GlobalSize int
}

// Function binds a name to a lambda.
type Function struct {
	Meta
	Name   *Identifier
	Lambda *Lambda
}

// Lambda is a parameter list, a result type and a body. ArgSize and
// LocalSize describe the frame and are set by semantic analysis.
type Lambda struct {
	Meta
	Params    []*Param
	Result    types.Type
	Body      *Block
	ArgSize   int
	LocalSize int
}

// Param is one typed parameter.
type Param struct {
	Meta
	Name *Identifier
}

// Declaration is const|var Name := Init.
type Declaration struct {
	Meta
	Name  *Identifier
	Init  Expr
	Const bool
}

// Assign is Target := Value where Target is an identifier or an index.
type Assign struct {
	Meta
	Target Expr
	Value  Expr
}

// Block is { Stmts }.
type Block struct {
	Meta
	Stmts []Stmt
}

// If is if (Cond) Then else Else; Else may be nil.
type If struct {
	Meta
	Cond Expr
	Then *Block
	Else *Block
}

// While is while (Cond) Body.
type While struct {
	Meta
	Cond Expr
	Body *Block
}

type Break struct {
	Meta
}

type Continue struct {
	Meta
}

// Return leaves the enclosing lambda; Value is nil in void functions.
type Return struct {
	Meta
	Value Expr
}

// CallStmt is call f(args); the result, if any, is discarded.
type CallStmt struct {
	Meta
	Call *Call
}

// Print writes its items in order. Items are expressions or PrintMarkers.
type Print struct {
	Meta
	Items []Node
}

// Marker is a formatting item inside a print statement.
type Marker int

const (
	Newline Marker = iota
	Tab
	Space
)

// PrintMarker is a newline, tab or space inside a print statement.
type PrintMarker struct {
	Meta
	Marker Marker
}

func (*Declaration) stmtNode() {}
func (*Assign) stmtNode()      {}
func (*Block) stmtNode()       {}
func (*If) stmtNode()          {}
func (*While) stmtNode()       {}
func (*Break) stmtNode()       {}
func (*Continue) stmtNode()    {}
func (*Return) stmtNode()      {}
func (*CallStmt) stmtNode()    {}
func (*Print) stmtNode()       {}

func (*Program) Kind() string     { return "program" }
func (*Function) Kind() string    { return "function" }
func (*Lambda) Kind() string      { return "lambda" }
func (*Param) Kind() string       { return "parameter" }
func (*Declaration) Kind() string { return "declaration" }
func (*Assign) Kind() string      { return "assignment" }
func (*Block) Kind() string       { return "block" }
func (*If) Kind() string          { return "if" }
func (*While) Kind() string       { return "while" }
func (*Break) Kind() string       { return "break" }
func (*Continue) Kind() string    { return "continue" }
func (*Return) Kind() string      { return "return" }
func (*CallStmt) Kind() string    { return "call statement" }
func (*Print) Kind() string       { return "print" }
func (*PrintMarker) Kind() string { return "print marker" }

func (p *Program) Children() []Node {
	nodes := make([]Node, 0, len(p.Functions)+1)
	for _, f := range p.Functions {
		nodes = append(nodes, f)
	}
	if p.Main != nil {
		nodes = append(nodes, p.Main)
	}
	return nodes
}

func (f *Function) Children() []Node { return []Node{f.Name, f.Lambda} }

func (l *Lambda) Children() []Node {
	nodes := make([]Node, 0, len(l.Params)+1)
	for _, p := range l.Params {
		nodes = append(nodes, p)
	}
	return append(nodes, l.Body)
}

func (p *Param) Children() []Node       { return []Node{p.Name} }
func (d *Declaration) Children() []Node { return []Node{d.Name, d.Init} }
func (a *Assign) Children() []Node      { return []Node{a.Target, a.Value} }
func (*Break) Children() []Node         { return nil }
func (*Continue) Children() []Node      { return nil }
func (c *CallStmt) Children() []Node    { return []Node{c.Call} }
func (p *Print) Children() []Node       { return p.Items }
func (*PrintMarker) Children() []Node   { return nil }

func (b *Block) Children() []Node {
	nodes := make([]Node, len(b.Stmts))
	for i, s := range b.Stmts {
		nodes[i] = s
	}
	return nodes
}

func (i *If) Children() []Node {
	if i.Else == nil {
		return []Node{i.Cond, i.Then}
	}
	return []Node{i.Cond, i.Then, i.Else}
}

func (w *While) Children() []Node { return []Node{w.Cond, w.Body} }

func (r *Return) Children() []Node {
	if r.Value == nil {
		return nil
	}
	return []Node{r.Value}
}

func (*Program) String() string    { return "program" }
func (f *Function) String() string { return "func " + f.Name.Name }

func (l *Lambda) String() string {
	params := make([]string, len(l.Params))
	for i, p := range l.Params {
		params[i] = p.String()
	}
	return fmt.Sprintf("<%s> -> %s", strings.Join(params, ", "), l.Result)
}

func (p *Param) String() string { return fmt.Sprintf("%s %s", p.Type(), p.Name.Name) }

func (d *Declaration) String() string {
	keyword := "var"
	if d.Const {
		keyword = "const"
	}
	return fmt.Sprintf("%s %s := %s", keyword, d.Name, d.Init)
}

func (a *Assign) String() string   { return fmt.Sprintf("%s := %s", a.Target, a.Value) }
func (*Block) String() string      { return "block" }
func (i *If) String() string       { return fmt.Sprintf("if (%s)", i.Cond) }
func (w *While) String() string    { return fmt.Sprintf("while (%s)", w.Cond) }
func (*Break) String() string      { return "break" }
func (*Continue) String() string   { return "continue" }
func (c *CallStmt) String() string { return "call " + c.Call.String() }

func (r *Return) String() string {
	if r.Value == nil {
		return "return"
	}
	return "return " + r.Value.String()
}

func (p *Print) String() string {
	parts := make([]string, len(p.Items))
	for i, item := range p.Items {
		parts[i] = item.String()
	}
	return "print " + strings.Join(parts, ", ")
}

func (m *PrintMarker) String() string {
	switch m.Marker {
	case Newline:
		return "_n_"
	case Tab:
		return "_t_"
	}
	return `\s`
}
