// Package ast defines the Pika syntax tree. The parser builds it, the
// semantic analyzer attaches types and bindings, and the code generator
// reads it without changing its shape.
package ast

import (
	"fmt"

	"pikac/pkg/asm"
	"pikac/pkg/types"
)

// Location is a 1-based source position.
type Location struct {
	Line int
	Col  int
}

func (l Location) String() string { return fmt.Sprintf("%d:%d", l.Line, l.Col) }

// Binding is the storage an identifier resolves to. EmitAddress appends the
// instructions that push the storage address.
type Binding interface {
	EmitAddress(f *asm.Fragment)
}

// Node is implemented by every tree node.
type Node interface {
	Loc() Location
	Type() types.Type
	SetType(t types.Type)
	Parent() Node
	Children() []Node
	// Kind names the node kind in diagnostics.
	Kind() string
	String() string

	setParent(p Node)
}

// Expr is a node that produces a value.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a node executed for effect.
type Stmt interface {
	Node
	stmtNode()
}

// Meta carries the position, resolved type and parent link shared by all
// nodes.
type Meta struct {
	loc    Location
	typ    types.Type
	parent Node
}

func (b *Meta) Loc() Location { return b.loc }

func (b *Meta) Type() types.Type {
	if b.typ == nil {
		return types.NoType
	}
	return b.typ
}

func (b *Meta) SetType(t types.Type) { b.typ = t }

func (b *Meta) Parent() Node { return b.parent }

func (b *Meta) setParent(p Node) { b.parent = p }

// At returns node metadata positioned at loc.
func At(loc Location) Meta { return Meta{loc: loc} }
