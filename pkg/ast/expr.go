package ast

import (
	"fmt"
	"strconv"
	"strings"

	"pikac/pkg/types"
)

// IntLiteral is an integer constant.
type IntLiteral struct {
	Meta
	Value int32
}

// FloatLiteral is a floating constant.
type FloatLiteral struct {
	Meta
	Value float64
}

// CharLiteral is a character constant written ^c^.
type CharLiteral struct {
	Meta
	Value byte
}

// StringLiteral is a string constant.
type StringLiteral struct {
	Meta
	Value string
}

// BoolLiteral is true or false.
type BoolLiteral struct {
	Meta
	Value bool
}

// Identifier names a variable, parameter or function. Binding is set by
// semantic analysis for variables and parameters.
type Identifier struct {
	Meta
	Name    string
	Binding Binding
}

// Binary is Left Op Right.
//
//	x + 1
//	^ ^ ^
//	| | Right
//	| Op
//	Left
type Binary struct {
	Meta
	Op    Operator
	Left  Expr
	Right Expr
}

// Unary is Op Operand for ! and unary minus.
type Unary struct {
	Meta
	Op      Operator
	Operand Expr
}

// Cast is [Operand | Target].
type Cast struct {
	Meta
	Target  types.Type
	Operand Expr
}

// Index is Array[Index].
type Index struct {
	Meta
	Array Expr
	Index Expr
}

// ArrayLiteral is [e0, e1, ...].
type ArrayLiteral struct {
	Meta
	Elements []Expr
}

// NewArray is new [Elem](Length), a zero-filled array of runtime length.
type NewArray struct {
	Meta
	Elem   types.Type
	Length Expr
}

// Length is length Operand.
type Length struct {
	Meta
	Operand Expr
}

// Call invokes a function. Target is resolved by semantic analysis.
type Call struct {
	Meta
	Callee *Identifier
	Args   []Expr
	Target *Function
}

func (*IntLiteral) exprNode()    {}
func (*FloatLiteral) exprNode()  {}
func (*CharLiteral) exprNode()   {}
func (*StringLiteral) exprNode() {}
func (*BoolLiteral) exprNode()   {}
func (*Identifier) exprNode()    {}
func (*Binary) exprNode()        {}
func (*Unary) exprNode()         {}
func (*Cast) exprNode()          {}
func (*Index) exprNode()         {}
func (*ArrayLiteral) exprNode()  {}
func (*NewArray) exprNode()      {}
func (*Length) exprNode()        {}
func (*Call) exprNode()          {}

func (*IntLiteral) Kind() string    { return "integer literal" }
func (*FloatLiteral) Kind() string  { return "float literal" }
func (*CharLiteral) Kind() string   { return "character literal" }
func (*StringLiteral) Kind() string { return "string literal" }
func (*BoolLiteral) Kind() string   { return "boolean literal" }
func (*Identifier) Kind() string    { return "identifier" }
func (*Binary) Kind() string        { return "binary operator" }
func (*Unary) Kind() string         { return "unary operator" }
func (*Cast) Kind() string          { return "cast" }
func (*Index) Kind() string         { return "index" }
func (*ArrayLiteral) Kind() string  { return "array literal" }
func (*NewArray) Kind() string      { return "array allocation" }
func (*Length) Kind() string        { return "length" }
func (*Call) Kind() string          { return "call" }

func (*IntLiteral) Children() []Node    { return nil }
func (*FloatLiteral) Children() []Node  { return nil }
func (*CharLiteral) Children() []Node   { return nil }
func (*StringLiteral) Children() []Node { return nil }
func (*BoolLiteral) Children() []Node   { return nil }
func (*Identifier) Children() []Node    { return nil }
func (b *Binary) Children() []Node      { return []Node{b.Left, b.Right} }
func (u *Unary) Children() []Node       { return []Node{u.Operand} }
func (c *Cast) Children() []Node        { return []Node{c.Operand} }
func (i *Index) Children() []Node       { return []Node{i.Array, i.Index} }
func (n *NewArray) Children() []Node    { return []Node{n.Length} }
func (l *Length) Children() []Node      { return []Node{l.Operand} }

func (a *ArrayLiteral) Children() []Node { return exprNodes(a.Elements) }

func (c *Call) Children() []Node {
	return append([]Node{c.Callee}, exprNodes(c.Args)...)
}

func exprNodes(exprs []Expr) []Node {
	nodes := make([]Node, len(exprs))
	for i, e := range exprs {
		nodes[i] = e
	}
	return nodes
}

func (l *IntLiteral) String() string { return strconv.FormatInt(int64(l.Value), 10) }
func (l *FloatLiteral) String() string {
	return strconv.FormatFloat(l.Value, 'g', -1, 64)
}
func (l *CharLiteral) String() string   { return fmt.Sprintf("^%c^", l.Value) }
func (l *StringLiteral) String() string { return strconv.Quote(l.Value) }
func (l *BoolLiteral) String() string   { return strconv.FormatBool(l.Value) }
func (i *Identifier) String() string    { return i.Name }

func (b *Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right)
}

func (u *Unary) String() string { return fmt.Sprintf("(%s%s)", u.Op, u.Operand) }

func (c *Cast) String() string { return fmt.Sprintf("[%s | %s]", c.Operand, c.Target) }

func (i *Index) String() string { return fmt.Sprintf("%s[%s]", i.Array, i.Index) }

func (a *ArrayLiteral) String() string { return "[" + joinExprs(a.Elements) + "]" }

func (n *NewArray) String() string { return fmt.Sprintf("new [%s](%s)", n.Elem, n.Length) }

func (l *Length) String() string { return "length " + l.Operand.String() }

func (c *Call) String() string { return fmt.Sprintf("%s(%s)", c.Callee, joinExprs(c.Args)) }

func joinExprs(exprs []Expr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}
