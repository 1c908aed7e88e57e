package meta

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/metalens/pymeta/pytree"
)

// Wrapper owns all metadata resolved over one immutable source for its
// lifetime. Resolution is synchronous and idempotent: re-requesting an
// already-resolved analysis is a no-op, and a failing resolve call leaves
// every previously cached analysis intact while committing nothing new.
type Wrapper struct {
	source *pytree.Source
	cache  map[string]Map
}

// NewWrapper wraps a parsed source. The same source can back any number of
// wrappers; their metadata never cross-contaminates.
func NewWrapper(src *pytree.Source) *Wrapper {
	return &Wrapper{source: src, cache: map[string]Map{}}
}

// Source returns the wrapped source.
func (w *Wrapper) Source() *pytree.Source {
	return w.source
}

// Resolved reports whether p has been resolved on this wrapper.
func (w *Wrapper) Resolved(p Provider) bool {
	_, ok := w.cache[p.Name()]
	return ok
}

// Resolve computes the requested analyses plus their transitive
// dependencies, in dependency order, batching compatible analyses into
// shared traversals. It fails with ErrCycle before running anything if the
// dependency graph is cyclic, and with an ExecError if an analysis fails
// mid-run; in both cases no newly requested analysis is committed.
func (w *Wrapper) Resolve(providers ...Provider) error {
	graph, err := buildGraph(providers)
	if err != nil {
		return err
	}
	order := graph.order()
	rc := &Context{wrapper: w, staged: map[string]Map{}}

	i := 0
	for i < len(order) {
		p := order[i]
		if _, ok := w.cache[p.Name()]; ok {
			i++
			continue
		}
		if bp, ok := p.(BatchResolver); ok {
			batch := []BatchResolver{bp}
			j := i + 1
			for j < len(order) {
				next, ok := order[j].(BatchResolver)
				if !ok || !w.satisfied(rc, next) {
					break
				}
				if _, done := w.cache[next.Name()]; done {
					break
				}
				batch = append(batch, next)
				j++
			}
			if err := w.runBatch(rc, batch); err != nil {
				return err
			}
			i = j
			continue
		}
		r, ok := p.(Resolver)
		if !ok {
			return fmt.Errorf("provider %q implements neither Resolver nor BatchResolver", p.Name())
		}
		m, err := r.Resolve(rc)
		if err != nil {
			return execError(p, err)
		}
		rc.staged[p.Name()] = m
		i++
	}

	for name, m := range rc.staged {
		w.cache[name] = m
	}
	return nil
}

// ResolveMany resolves every listed analysis and returns each one's node
// mapping.
func (w *Wrapper) ResolveMany(providers []Provider) (map[Provider]Map, error) {
	if err := w.Resolve(providers...); err != nil {
		return nil, err
	}
	out := make(map[Provider]Map, len(providers))
	for _, p := range providers {
		out[p] = w.cache[p.Name()]
	}
	return out, nil
}

// Get returns the value p recorded for n. It fails with ErrNotResolved if p
// never ran on this wrapper and with ErrNoValue if p did not annotate n.
func (w *Wrapper) Get(p Provider, n *sitter.Node) (any, error) {
	m, ok := w.cache[p.Name()]
	if !ok {
		return nil, fmt.Errorf("%q: %w", p.Name(), ErrNotResolved)
	}
	return valueFrom(m, p, n)
}

// Value is a typed Get.
func Value[T any](w *Wrapper, p Provider, n *sitter.Node) (T, error) {
	var zero T
	v, err := w.Get(p, n)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%q recorded %T for %s, not %T", p.Name(), v, pytree.ID(n), zero)
	}
	return typed, nil
}

func valueFrom(m Map, p Provider, n *sitter.Node) (any, error) {
	v, ok := m[pytree.ID(n)]
	if !ok {
		return nil, fmt.Errorf("%q at %s: %w", p.Name(), pytree.ID(n), ErrNoValue)
	}
	return v, nil
}

// satisfied reports whether every dependency of p is readable already,
// committed or staged earlier in this call.
func (w *Wrapper) satisfied(rc *Context, p Provider) bool {
	for _, dep := range p.Requires() {
		if _, ok := w.cache[dep.Name()]; ok {
			continue
		}
		if _, ok := rc.staged[dep.Name()]; ok {
			continue
		}
		return false
	}
	return true
}

// runBatch drives one shared pre/post-order traversal for a group of
// batch-capable analyses. All visitors observe nodes in the same order.
func (w *Wrapper) runBatch(rc *Context, batch []BatchResolver) error {
	visitors := make([]Visitor, len(batch))
	for i, bp := range batch {
		v, err := bp.Batch(rc)
		if err != nil {
			return execError(bp, err)
		}
		visitors[i] = v
	}

	var walk func(n *sitter.Node) error
	walk = func(n *sitter.Node) error {
		for i, v := range visitors {
			if err := v.Enter(n); err != nil {
				return execErrorAt(batch[i], n, err)
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			if err := walk(n.Child(i)); err != nil {
				return err
			}
		}
		for i, v := range visitors {
			if err := v.Leave(n); err != nil {
				return execErrorAt(batch[i], n, err)
			}
		}
		return nil
	}
	if err := walk(w.source.Root()); err != nil {
		return err
	}
	for i, bp := range batch {
		rc.staged[bp.Name()] = visitors[i].Result()
	}
	return nil
}
