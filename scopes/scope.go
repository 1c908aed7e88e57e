// Package scopes builds the lexical scope tree of a Python source and
// resolves every name access to its candidate bindings, following the
// language's actual scoping rules: function/class/comprehension scopes,
// global and nonlocal redirection, class-scope opacity for nested lookup,
// and builtin fallback.
package scopes

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/metalens/pymeta/exprcontext"
)

// Kind discriminates the four scope variants. Every lookup and redirection
// decision matches on it explicitly.
type Kind string

const (
	// Global is the module-level scope; exactly one roots each tree.
	Global Kind = "global"
	// Class is a class-body scope. Bindings land in it, but it is never a
	// lookup parent for scopes nested inside it.
	Class Kind = "class"
	// Function covers def statements and lambdas.
	Function Kind = "function"
	// Comprehension covers comprehensions and generator expressions; its
	// bindings never leak outward.
	Comprehension Kind = "comprehension"
)

// Scope is one region of name visibility. Its assignment lists keep source
// order; multiple bindings of one name coexist as candidates.
type Scope struct {
	Kind     Kind
	Name     string
	Node     *sitter.Node // defining node; nil for the global scope
	Parent   *Scope       // syntactic parent, nil for the global scope
	Children []*Scope

	assignments map[string][]*Assignment
	names       []string // first-binding order, for reproducible iteration
	accesses    []*Access

	globalNames   map[string]bool
	nonlocalNames map[string]bool

	builtinCache map[string]*Assignment // global scope only
}

// Assignment records one syntactic binding of a name in a scope. A builtin
// assignment has no binding node.
type Assignment struct {
	Name  string
	Node  *sitter.Node
	Scope *Scope

	accesses []*Access
}

// IsBuiltin reports whether this assignment is the synthetic builtin-
// namespace binding.
func (a *Assignment) IsBuiltin() bool {
	return a.Node == nil
}

// References returns every access resolved to this assignment, in
// traversal order.
func (a *Assignment) References() []*Access {
	return a.accesses
}

// Access records one read or delete of a name, with its resolved candidate
// bindings. An empty referent set is valid data: the name was never bound
// and is not a builtin.
type Access struct {
	Name    string
	Node    *sitter.Node
	Scope   *Scope
	Context exprcontext.Kind

	referents []*Assignment
}

// Referents returns the candidate assignments this access may refer to.
func (a *Access) Referents() []*Assignment {
	return a.referents
}

// IsResolved reports whether at least one candidate binding was found.
func (a *Access) IsResolved() bool {
	return len(a.referents) > 0
}

func newScope(kind Kind, name string, node *sitter.Node, parent *Scope) *Scope {
	s := &Scope{
		Kind:        kind,
		Name:        name,
		Node:        node,
		Parent:      parent,
		assignments: map[string][]*Assignment{},
	}
	if parent != nil {
		parent.Children = append(parent.Children, s)
	}
	return s
}

// Names returns every name bound directly in this scope, in first-binding
// order.
func (s *Scope) Names() []string {
	return s.names
}

// Assignments returns the ordered binding list for name within this scope
// only; it does not consult enclosing scopes.
func (s *Scope) Assignments(name string) []*Assignment {
	return s.assignments[name]
}

// Accesses returns the accesses recorded in this scope, in traversal order.
func (s *Scope) Accesses() []*Access {
	return s.accesses
}

// LookupParent returns the scope consulted after this one during name
// resolution: the nearest enclosing non-class scope. Class scopes are
// invisible to everything nested inside them.
func (s *Scope) LookupParent() *Scope {
	p := s.Parent
	for p != nil && p.Kind == Class {
		p = p.Parent
	}
	return p
}

// Resolve walks the lookup chain for name starting at this scope and
// returns the full candidate list of the first scope that binds it, the
// synthetic builtin assignment if the chain misses but the name is a
// recognized builtin, or nil.
func (s *Scope) Resolve(name string) []*Assignment {
	start := s
	switch {
	case s.globalNames[name]:
		start = s.global()
	case s.nonlocalNames[name]:
		if f := s.enclosingFunction(); f != nil {
			start = f
		}
	}
	for cur := start; cur != nil; cur = cur.LookupParent() {
		if found := cur.assignments[name]; len(found) > 0 {
			return found
		}
	}
	if IsBuiltin(name) {
		return []*Assignment{s.global().builtin(name)}
	}
	return nil
}

// bind appends a new assignment for name, honoring global/nonlocal
// redirection declared in this scope.
func (s *Scope) bind(name string, node *sitter.Node) *Assignment {
	target := s
	switch {
	case s.globalNames[name]:
		target = s.global()
	case s.nonlocalNames[name]:
		if f := s.enclosingFunction(); f != nil {
			target = f
		}
	}
	a := &Assignment{Name: name, Node: node, Scope: target}
	if _, seen := target.assignments[name]; !seen {
		target.names = append(target.names, name)
	}
	target.assignments[name] = append(target.assignments[name], a)
	return a
}

func (s *Scope) declareGlobal(name string) {
	if s.globalNames == nil {
		s.globalNames = map[string]bool{}
	}
	s.globalNames[name] = true
}

func (s *Scope) declareNonlocal(name string) {
	if s.nonlocalNames == nil {
		s.nonlocalNames = map[string]bool{}
	}
	s.nonlocalNames[name] = true
}

func (s *Scope) global() *Scope {
	cur := s
	for cur.Parent != nil {
		cur = cur.Parent
	}
	return cur
}

// enclosingFunction returns the nearest enclosing Function scope, the
// nonlocal redirect target.
func (s *Scope) enclosingFunction() *Scope {
	for p := s.Parent; p != nil; p = p.Parent {
		if p.Kind == Function {
			return p
		}
	}
	return nil
}

// builtin returns the per-tree synthetic assignment for a builtin name,
// creating it on first use so back-references accumulate on one object.
func (s *Scope) builtin(name string) *Assignment {
	if s.builtinCache == nil {
		s.builtinCache = map[string]*Assignment{}
	}
	if a, ok := s.builtinCache[name]; ok {
		return a
	}
	a := &Assignment{Name: name, Scope: s}
	s.builtinCache[name] = a
	return a
}
