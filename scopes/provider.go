package scopes

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/metalens/pymeta/exprcontext"
	"github.com/metalens/pymeta/meta"
	"github.com/metalens/pymeta/pytree"
)

// Provider runs the scope and binding analysis. It is a standalone
// analysis: one coordinated traversal maintaining a scope stack, consuming
// expression contexts through the engine. The resulting mapping annotates
// every visited node with the scope that owns it.
var Provider meta.Resolver = provider{}

type provider struct{}

func (provider) Name() string {
	return "scopes"
}

func (provider) Requires() []meta.Provider {
	return []meta.Provider{exprcontext.Provider}
}

func (provider) Resolve(rc *meta.Context) (meta.Map, error) {
	a := &analysis{
		rc:  rc,
		src: rc.Source(),
		out: meta.Map{},
	}
	root := a.src.Root()
	global := newScope(Global, "", nil, nil)
	a.stack = []*Scope{global}
	if err := a.walk(root); err != nil {
		return nil, err
	}
	a.resolveAccesses()
	return a.out, nil
}

// Of returns the scope owning node n.
func Of(w *meta.Wrapper, n *sitter.Node) (*Scope, error) {
	return meta.Value[*Scope](w, Provider, n)
}

// GlobalScope returns the root of the scope tree.
func GlobalScope(w *meta.Wrapper) (*Scope, error) {
	return Of(w, w.Source().Root())
}

type analysis struct {
	rc       *meta.Context
	src      *pytree.Source
	out      meta.Map
	stack    []*Scope
	accesses []*Access
}

func (a *analysis) current() *Scope {
	return a.stack[len(a.stack)-1]
}

func (a *analysis) open(kind Kind, name string, node *sitter.Node) *Scope {
	s := newScope(kind, name, node, a.current())
	a.stack = append(a.stack, s)
	return s
}

func (a *analysis) close() {
	a.stack = a.stack[:len(a.stack)-1]
}

func (a *analysis) walk(n *sitter.Node) error {
	a.out[pytree.ID(n)] = a.current()
	switch n.Type() {
	case "function_definition":
		return a.walkFunction(n)
	case "lambda":
		return a.walkLambda(n)
	case "class_definition":
		return a.walkClass(n)
	case "list_comprehension", "set_comprehension", "dictionary_comprehension", "generator_expression":
		return a.walkComprehension(n)
	case "global_statement":
		for _, child := range pytree.NamedChildren(n) {
			if child.Type() == "identifier" {
				a.current().declareGlobal(a.src.Text(child))
			}
		}
		return nil
	case "nonlocal_statement":
		for _, child := range pytree.NamedChildren(n) {
			if child.Type() == "identifier" {
				a.current().declareNonlocal(a.src.Text(child))
			}
		}
		return nil
	case "import_statement", "import_from_statement":
		return a.walkImport(n)
	case "keyword_argument":
		// the keyword name is not a name access
		if value := n.ChildByFieldName("value"); value != nil {
			return a.walk(value)
		}
		return nil
	case "attribute":
		// a.b reads a; the attribute name is never a name access
		if object := n.ChildByFieldName("object"); object != nil {
			return a.walk(object)
		}
		return nil
	case "identifier":
		return a.handleName(n)
	}
	for _, child := range pytree.NamedChildren(n) {
		if err := a.walk(child); err != nil {
			return err
		}
	}
	return nil
}

// handleName dispatches on the expression context resolved for an
// identifier: Store appends an assignment, Load and Del record accesses.
func (a *analysis) handleName(n *sitter.Node) error {
	v, err := a.rc.Lookup(exprcontext.Provider, n)
	if err != nil {
		return &meta.NodeError{Node: pytree.ID(n), Err: err}
	}
	ctx, ok := v.(exprcontext.Kind)
	if !ok {
		return &meta.NodeError{Node: pytree.ID(n), Err: fmt.Errorf("unexpected context value %T", v)}
	}
	name := a.src.Text(n)
	scope := a.current()
	switch ctx {
	case exprcontext.Store:
		scope.bind(name, n)
	case exprcontext.Load, exprcontext.Del:
		access := &Access{Name: name, Node: n, Scope: scope, Context: ctx}
		scope.accesses = append(scope.accesses, access)
		a.accesses = append(a.accesses, access)
	}
	return nil
}

// walkFunction binds the function name in the open scope, evaluates
// decorators (handled by the enclosing decorated_definition), default
// values, and annotations there too, then opens the function scope for the
// parameters and body.
func (a *analysis) walkFunction(n *sitter.Node) error {
	name := n.ChildByFieldName("name")
	if name != nil {
		if err := a.walk(name); err != nil {
			return err
		}
	}
	params := n.ChildByFieldName("parameters")
	if params != nil {
		if err := a.walkParameterOuter(params); err != nil {
			return err
		}
	}
	if ret := n.ChildByFieldName("return_type"); ret != nil {
		if err := a.walk(ret); err != nil {
			return err
		}
	}
	var fname string
	if name != nil {
		fname = a.src.Text(name)
	}
	a.open(Function, fname, n)
	defer a.close()
	if params != nil {
		if err := a.walkParameterNames(params); err != nil {
			return err
		}
	}
	if body := n.ChildByFieldName("body"); body != nil {
		return a.walk(body)
	}
	return nil
}

func (a *analysis) walkLambda(n *sitter.Node) error {
	params := n.ChildByFieldName("parameters")
	if params != nil {
		if err := a.walkParameterOuter(params); err != nil {
			return err
		}
	}
	a.open(Function, "<lambda>", n)
	defer a.close()
	if params != nil {
		if err := a.walkParameterNames(params); err != nil {
			return err
		}
	}
	if body := n.ChildByFieldName("body"); body != nil {
		return a.walk(body)
	}
	return nil
}

// walkParameterOuter evaluates default values and annotations against the
// scope open before the function scope is pushed.
func (a *analysis) walkParameterOuter(params *sitter.Node) error {
	for _, param := range pytree.NamedChildren(params) {
		switch param.Type() {
		case "typed_parameter":
			if typ := param.ChildByFieldName("type"); typ != nil {
				if err := a.walk(typ); err != nil {
					return err
				}
			}
		case "default_parameter":
			if value := param.ChildByFieldName("value"); value != nil {
				if err := a.walk(value); err != nil {
					return err
				}
			}
		case "typed_default_parameter":
			if typ := param.ChildByFieldName("type"); typ != nil {
				if err := a.walk(typ); err != nil {
					return err
				}
			}
			if value := param.ChildByFieldName("value"); value != nil {
				if err := a.walk(value); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// walkParameterNames binds parameter names inside the function scope.
func (a *analysis) walkParameterNames(params *sitter.Node) error {
	for _, param := range pytree.NamedChildren(params) {
		var name *sitter.Node
		switch param.Type() {
		case "identifier", "list_splat_pattern", "dictionary_splat_pattern", "tuple_pattern":
			name = param
		case "typed_parameter":
			if param.NamedChildCount() > 0 {
				name = param.NamedChild(0)
			}
		case "default_parameter", "typed_default_parameter":
			name = param.ChildByFieldName("name")
		}
		if name == nil {
			continue
		}
		if err := a.walk(name); err != nil {
			return err
		}
	}
	return nil
}

// walkClass binds the class name and evaluates base classes in the open
// scope, then opens the class scope for the body. The class scope receives
// body-level bindings but never serves as a lookup parent for anything
// nested inside it.
func (a *analysis) walkClass(n *sitter.Node) error {
	name := n.ChildByFieldName("name")
	if name != nil {
		if err := a.walk(name); err != nil {
			return err
		}
	}
	if bases := n.ChildByFieldName("superclasses"); bases != nil {
		if err := a.walk(bases); err != nil {
			return err
		}
	}
	var cname string
	if name != nil {
		cname = a.src.Text(name)
	}
	a.open(Class, cname, n)
	defer a.close()
	if body := n.ChildByFieldName("body"); body != nil {
		return a.walk(body)
	}
	return nil
}

// walkComprehension opens a comprehension scope with one exception
// mirroring the language's evaluation order: the iterable of the first
// generating clause is evaluated against the enclosing scope; every later
// clause and the result expression use the comprehension scope.
func (a *analysis) walkComprehension(n *sitter.Node) error {
	first := pytree.FirstChildOfType(n, "for_in_clause")
	if first != nil {
		if right := first.ChildByFieldName("right"); right != nil {
			if err := a.walk(right); err != nil {
				return err
			}
		}
	}
	a.open(Comprehension, "", n)
	defer a.close()
	for _, child := range pytree.NamedChildren(n) {
		if first != nil && pytree.ID(child) == pytree.ID(first) {
			a.out[pytree.ID(child)] = a.current()
			if left := first.ChildByFieldName("left"); left != nil {
				if err := a.walk(left); err != nil {
					return err
				}
			}
			continue
		}
		if err := a.walk(child); err != nil {
			return err
		}
	}
	return nil
}

// walkImport records only the names an import binds; module path
// components never become accesses.
func (a *analysis) walkImport(n *sitter.Node) error {
	moduleName := n.ChildByFieldName("module_name")
	for _, child := range pytree.NamedChildren(n) {
		if moduleName != nil && pytree.ID(child) == pytree.ID(moduleName) {
			continue
		}
		switch child.Type() {
		case "dotted_name":
			if child.NamedChildCount() > 0 {
				if err := a.walk(child.NamedChild(0)); err != nil {
					return err
				}
			}
		case "aliased_import":
			if alias := child.ChildByFieldName("alias"); alias != nil {
				if err := a.walk(alias); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// resolveAccesses runs after the traversal completes so assignment/access
// textual order within a scope is irrelevant: names are scope-hoisted.
func (a *analysis) resolveAccesses() {
	for _, access := range a.accesses {
		refs := access.Scope.Resolve(access.Name)
		access.referents = refs
		for _, assignment := range refs {
			assignment.accesses = append(assignment.accesses, access)
		}
	}
}
