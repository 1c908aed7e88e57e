// Package exprcontext labels binding-capable nodes with their expression
// context: Store for binding positions, Del for deletion targets, Load for
// everything else. The labeling is purely structural — a node's context is
// decided by its role within its immediate parent, never by data flow.
package exprcontext

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/metalens/pymeta/meta"
	"github.com/metalens/pymeta/pytree"
)

// Kind is an expression context. Each context-bearing node carries exactly
// one.
type Kind string

const (
	// Load marks a plain usage.
	Load Kind = "LOAD"
	// Store marks a binding position: assignment targets, loop variables,
	// def/class/import/parameter names, with/except aliases, walrus targets.
	Store Kind = "STORE"
	// Del marks a deletion-statement target.
	Del Kind = "DEL"
)

// Provider computes the expression context mapping. It participates in
// shared traversals and has no dependencies.
var Provider meta.BatchResolver = provider{}

type provider struct{}

func (provider) Name() string {
	return "expression-context"
}

func (provider) Requires() []meta.Provider {
	return nil
}

func (provider) Batch(rc *meta.Context) (meta.Visitor, error) {
	return &visitor{ctx: meta.Map{}, skip: map[pytree.NodeID]bool{}}, nil
}

// Of returns the context recorded for n. Nodes that cannot bear a context
// (attribute names, keyword-argument names, import path components) are not
// annotated and yield meta.ErrNoValue.
func Of(w *meta.Wrapper, n *sitter.Node) (Kind, error) {
	return meta.Value[Kind](w, Provider, n)
}

type visitor struct {
	ctx  meta.Map
	skip map[pytree.NodeID]bool
}

// contextBearing lists the node kinds that receive a context. Compound
// targets (tuples, lists, patterns) are included: they carry a context of
// their own in addition to the leaves inside them.
var contextBearing = map[string]bool{
	"identifier":               true,
	"attribute":                true,
	"subscript":                true,
	"tuple":                    true,
	"list":                     true,
	"pattern_list":             true,
	"tuple_pattern":            true,
	"list_pattern":             true,
	"list_splat_pattern":       true,
	"dictionary_splat_pattern": true,
}

func (v *visitor) Enter(n *sitter.Node) error {
	switch n.Type() {
	case "assignment", "augmented_assignment":
		if left := n.ChildByFieldName("left"); left != nil {
			v.markTarget(left, Store)
		}
	case "named_expression":
		if name := n.ChildByFieldName("name"); name != nil {
			v.markTarget(name, Store)
		}
	case "for_statement", "for_in_clause":
		if left := n.ChildByFieldName("left"); left != nil {
			v.markTarget(left, Store)
		}
	case "delete_statement":
		for _, target := range pytree.NamedChildren(n) {
			v.markTarget(target, Del)
		}
	case "function_definition", "class_definition":
		if name := n.ChildByFieldName("name"); name != nil {
			v.mark(name, Store)
		}
	case "parameters", "lambda_parameters":
		v.markParameters(n)
	case "as_pattern":
		if alias := n.ChildByFieldName("alias"); alias != nil {
			v.markTarget(alias, Store)
		}
	case "import_statement", "import_from_statement":
		v.markImport(n)
	case "keyword_argument":
		if name := n.ChildByFieldName("name"); name != nil {
			v.skip[pytree.ID(name)] = true
		}
	case "attribute":
		// a.b: the attribute node itself bears context, the name b does not.
		if attr := n.ChildByFieldName("attribute"); attr != nil {
			v.skip[pytree.ID(attr)] = true
		}
	}

	if contextBearing[n.Type()] {
		id := pytree.ID(n)
		if !v.skip[id] {
			v.mark(n, Load)
		}
	}
	return nil
}

func (v *visitor) Leave(n *sitter.Node) error {
	return nil
}

func (v *visitor) Result() meta.Map {
	return v.ctx
}

// mark records a context once; the first writer (always an ancestor, given
// pre-order dispatch) wins over the Load default.
func (v *visitor) mark(n *sitter.Node, k Kind) {
	id := pytree.ID(n)
	if _, ok := v.ctx[id]; !ok {
		v.ctx[id] = k
	}
}

// markTarget labels an assignment or deletion target. Unpacking composites
// recurse so every leaf name inside them carries the same context;
// attribute and subscript targets keep their inner expressions in Load.
func (v *visitor) markTarget(n *sitter.Node, k Kind) {
	switch n.Type() {
	case "pattern_list", "tuple_pattern", "list_pattern", "expression_list", "tuple", "list",
		"list_splat_pattern", "dictionary_splat_pattern":
		v.mark(n, k)
		for _, child := range pytree.NamedChildren(n) {
			v.markTarget(child, k)
		}
	case "parenthesized_expression", "as_pattern_target":
		for _, child := range pytree.NamedChildren(n) {
			v.markTarget(child, k)
		}
	default:
		v.mark(n, k)
	}
}

func (v *visitor) markParameters(params *sitter.Node) {
	for _, param := range pytree.NamedChildren(params) {
		switch param.Type() {
		case "identifier":
			v.mark(param, Store)
		case "typed_parameter":
			// name is the first named child; the type field follows
			if param.NamedChildCount() > 0 {
				v.markTarget(param.NamedChild(0), Store)
			}
		case "default_parameter", "typed_default_parameter":
			if name := param.ChildByFieldName("name"); name != nil {
				v.markTarget(name, Store)
			}
		case "list_splat_pattern", "dictionary_splat_pattern", "tuple_pattern":
			v.markTarget(param, Store)
		}
	}
}

// markImport gives Store to the names an import binds and withholds context
// from every other identifier in the statement: module path components are
// not expressions.
func (v *visitor) markImport(n *sitter.Node) {
	moduleName := n.ChildByFieldName("module_name")
	for _, child := range pytree.NamedChildren(n) {
		if moduleName != nil && pytree.ID(child) == pytree.ID(moduleName) {
			continue
		}
		switch child.Type() {
		case "dotted_name":
			// import a.b binds a; from m import x binds x
			if child.NamedChildCount() > 0 {
				v.mark(child.NamedChild(0), Store)
			}
		case "aliased_import":
			if alias := child.ChildByFieldName("alias"); alias != nil {
				v.mark(alias, Store)
			}
		}
	}
	v.skipUnmarked(n)
}

func (v *visitor) skipUnmarked(n *sitter.Node) {
	if n.Type() == "identifier" {
		id := pytree.ID(n)
		if _, ok := v.ctx[id]; !ok {
			v.skip[id] = true
		}
		return
	}
	for _, child := range pytree.NamedChildren(n) {
		v.skipUnmarked(child)
	}
}
