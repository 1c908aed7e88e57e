package meta

import (
	"fmt"
	"sort"
	"strings"
)

// depGraph is the explicit dependency graph built for one resolve call from
// the requested providers' declared dependency lists. There is no ambient
// registry; the graph lives and dies with the call.
type depGraph struct {
	providers map[string]Provider
	edges     map[string][]string // provider -> prerequisites
}

// buildGraph collects the transitive closure of the requested providers and
// rejects cycles before any traversal runs.
func buildGraph(requested []Provider) (*depGraph, error) {
	g := &depGraph{
		providers: map[string]Provider{},
		edges:     map[string][]string{},
	}
	const (
		visiting = 1
		done     = 2
	)
	state := map[string]int{}
	var stack []string

	var visit func(p Provider) error
	visit = func(p Provider) error {
		name := p.Name()
		switch state[name] {
		case done:
			return nil
		case visiting:
			i := 0
			for ; i < len(stack); i++ {
				if stack[i] == name {
					break
				}
			}
			cycle := append(append([]string{}, stack[i:]...), name)
			return fmt.Errorf("%w: %s", ErrCycle, strings.Join(cycle, " -> "))
		}
		state[name] = visiting
		stack = append(stack, name)
		g.providers[name] = p
		for _, dep := range p.Requires() {
			g.edges[name] = append(g.edges[name], dep.Name())
			if err := visit(dep); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		state[name] = done
		return nil
	}
	for _, p := range requested {
		if err := visit(p); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// order returns a deterministic topological order: Kahn's algorithm with
// ready providers taken in name order.
func (g *depGraph) order() []Provider {
	indegree := map[string]int{}
	dependents := map[string][]string{}
	for name := range g.providers {
		indegree[name] = 0
	}
	for name, deps := range g.edges {
		for _, dep := range deps {
			indegree[name]++
			dependents[dep] = append(dependents[dep], name)
		}
	}
	var ready []string
	for name, deg := range indegree {
		if deg == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	out := make([]Provider, 0, len(g.providers))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		out = append(out, g.providers[name])
		var released []string
		for _, dep := range dependents[name] {
			indegree[dep]--
			if indegree[dep] == 0 {
				released = append(released, dep)
			}
		}
		sort.Strings(released)
		ready = mergeSorted(ready, released)
	}
	return out
}

func mergeSorted(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i] <= b[j] {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}
