package pytree

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// NodeID is a stable, comparable identity for one physical tree node. The
// byte span alone is ambiguous (a statement and the lone expression it wraps
// may share a span), so the node kind is part of the key.
type NodeID struct {
	Start uint32
	End   uint32
	Kind  string
}

// ID derives the external identity of n.
func ID(n *sitter.Node) NodeID {
	return NodeID{Start: n.StartByte(), End: n.EndByte(), Kind: n.Type()}
}

func (id NodeID) String() string {
	return fmt.Sprintf("%s@%d-%d", id.Kind, id.Start, id.End)
}

// Children returns every child of n, anonymous tokens included, in source
// order.
func Children(n *sitter.Node) []*sitter.Node {
	count := int(n.ChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, n.Child(i))
	}
	return out
}

// NamedChildren returns the named children of n in source order.
func NamedChildren(n *sitter.Node) []*sitter.Node {
	count := int(n.NamedChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, n.NamedChild(i))
	}
	return out
}

// FirstChildOfType returns the first named child of the given kind, or nil.
func FirstChildOfType(n *sitter.Node, kind string) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if child := n.NamedChild(i); child.Type() == kind {
			return child
		}
	}
	return nil
}
