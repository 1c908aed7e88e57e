// Package position annotates every node with its source range. Lines are
// 1-based, columns 0-based, mirroring the raw tree-sitter point facts.
package position

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/metalens/pymeta/meta"
	"github.com/metalens/pymeta/pytree"
)

// Position is one point in the source.
type Position struct {
	Line   int `yaml:"line"`
	Column int `yaml:"column"`
}

// Range covers a node from its first to one past its last character.
type Range struct {
	Start Position `yaml:"start"`
	End   Position `yaml:"end"`
}

// Provider computes a Range per node. It participates in shared traversals.
var Provider meta.BatchResolver = provider{}

type provider struct{}

func (provider) Name() string {
	return "position"
}

func (provider) Requires() []meta.Provider {
	return nil
}

func (provider) Batch(rc *meta.Context) (meta.Visitor, error) {
	return &visitor{out: meta.Map{}}, nil
}

type visitor struct {
	out meta.Map
}

func (v *visitor) Enter(n *sitter.Node) error {
	start, end := n.StartPoint(), n.EndPoint()
	v.out[pytree.ID(n)] = Range{
		Start: Position{Line: int(start.Row) + 1, Column: int(start.Column)},
		End:   Position{Line: int(end.Row) + 1, Column: int(end.Column)},
	}
	return nil
}

func (v *visitor) Leave(n *sitter.Node) error {
	return nil
}

func (v *visitor) Result() meta.Map {
	return v.out
}

// Of returns the range recorded for n.
func Of(w *meta.Wrapper, n *sitter.Node) (Range, error) {
	return meta.Value[Range](w, Provider, n)
}
