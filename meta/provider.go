// Package meta schedules and executes structural analyses over one parsed
// Python source. Analyses ("providers") declare their dependencies; a
// Wrapper resolves a requested set in dependency order, batching providers
// that can share a tree traversal, and serves the resulting per-node
// metadata without ever touching the tree itself.
package meta

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/metalens/pymeta/pytree"
)

// Map holds one analysis result: node identity to value. A missing key
// means the analysis did not annotate that node.
type Map map[pytree.NodeID]any

// Provider identifies one analysis and its prerequisites. A usable provider
// also implements Resolver or BatchResolver; Provider alone only carries
// identity for dependency declarations.
type Provider interface {
	// Name uniquely identifies the analysis within a wrapper.
	Name() string
	// Requires lists the analyses whose results must be resolved first.
	Requires() []Provider
}

// Resolver is a standalone analysis. It runs its own algorithm over the
// tree and returns its complete node mapping. Dependencies already resolved
// in the same call are readable through the Context.
type Resolver interface {
	Provider
	Resolve(rc *Context) (Map, error)
}

// BatchResolver is an analysis able to share a single tree traversal with
// other batch-capable analyses. Batch returns a fresh Visitor; the engine
// drives one deterministic pre/post-order walk for the whole batch.
type BatchResolver interface {
	Provider
	Batch(rc *Context) (Visitor, error)
}

// Visitor receives every node of one shared traversal. Enter runs before a
// node's children, Leave after. Result is read once the walk completes.
type Visitor interface {
	Enter(n *sitter.Node) error
	Leave(n *sitter.Node) error
	Result() Map
}

// Context is the lookup interface handed to providers during resolution.
// It reads both previously committed analyses and ones staged earlier in
// the in-flight resolve call.
type Context struct {
	wrapper *Wrapper
	staged  map[string]Map
}

// Source returns the source under analysis.
func (c *Context) Source() *pytree.Source {
	return c.wrapper.source
}

// Lookup returns the value a resolved dependency recorded for n. It fails
// with ErrNotResolved when p has not run, and with ErrNoValue when p chose
// not to annotate n.
func (c *Context) Lookup(p Provider, n *sitter.Node) (any, error) {
	if m, ok := c.staged[p.Name()]; ok {
		return valueFrom(m, p, n)
	}
	return c.wrapper.Get(p, n)
}
