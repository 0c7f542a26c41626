package ast

import (
	"fmt"
	"strings"
)

// Link sets the parent of every node below root. The parser calls it once
// the tree is complete.
func Link(root Node) {
	for _, child := range root.Children() {
		if child == nil {
			continue
		}
		child.setParent(root)
		Link(child)
	}
}

// Inspect calls fn for root and its descendants in depth-first pre-order.
// Returning false from fn skips the node's children.
func Inspect(root Node, fn func(Node) bool) {
	if root == nil || !fn(root) {
		return
	}
	for _, child := range root.Children() {
		if child != nil {
			Inspect(child, fn)
		}
	}
}

// EnclosingWhile returns the nearest while loop above n inside the same
// lambda, or nil.
func EnclosingWhile(n Node) *While {
	for p := n.Parent(); p != nil; p = p.Parent() {
		switch p := p.(type) {
		case *While:
			return p
		case *Lambda:
			return nil
		}
	}
	return nil
}

// EnclosingLambda returns the lambda whose body contains n, or nil in the
// exec block.
func EnclosingLambda(n Node) *Lambda {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if l, ok := p.(*Lambda); ok {
			return l
		}
	}
	return nil
}

// Dump renders the tree one node per line, indented by depth, with resolved
// types where known.
func Dump(root Node) string {
	var sb strings.Builder
	dump(&sb, root, 0)
	return sb.String()
}

func dump(sb *strings.Builder, n Node, depth int) {
	if n == nil {
		return
	}
	fmt.Fprintf(sb, "%s%s: %s", strings.Repeat("  ", depth), n.Kind(), n)
	if t := n.Type(); t != nil && t.String() != "notype" {
		fmt.Fprintf(sb, " : %s", t)
	}
	sb.WriteByte('\n')
	for _, child := range n.Children() {
		dump(sb, child, depth+1)
	}
}
