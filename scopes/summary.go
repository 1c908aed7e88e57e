package scopes

import (
	"gopkg.in/yaml.v3"

	"github.com/metalens/pymeta/pytree"
)

// Summary is a serializable projection of a scope subtree, used for
// reporting and golden tests.
type Summary struct {
	Kind        Kind                `yaml:"kind"`
	Name        string              `yaml:"name,omitempty"`
	Node        string              `yaml:"node,omitempty"`
	Assignments []AssignmentSummary `yaml:"assignments,omitempty"`
	Accesses    []AccessSummary     `yaml:"accesses,omitempty"`
	Children    []*Summary          `yaml:"children,omitempty"`
}

// AssignmentSummary is one binding of a name.
type AssignmentSummary struct {
	Name       string `yaml:"name"`
	Node       string `yaml:"node,omitempty"`
	Builtin    bool   `yaml:"builtin,omitempty"`
	References int    `yaml:"references,omitempty"`
}

// AccessSummary is one read or delete, with its resolution outcome.
type AccessSummary struct {
	Name      string   `yaml:"name"`
	Node      string   `yaml:"node"`
	Context   string   `yaml:"context"`
	Referents []string `yaml:"referents,omitempty"`
}

// Summarize projects the scope subtree rooted at s.
func Summarize(s *Scope) *Summary {
	out := &Summary{Kind: s.Kind, Name: s.Name}
	if s.Node != nil {
		out.Node = pytree.ID(s.Node).String()
	}
	for _, name := range s.names {
		for _, a := range s.assignments[name] {
			out.Assignments = append(out.Assignments, summarizeAssignment(a))
		}
	}
	for _, access := range s.accesses {
		out.Accesses = append(out.Accesses, summarizeAccess(access))
	}
	for _, child := range s.Children {
		out.Children = append(out.Children, Summarize(child))
	}
	return out
}

func summarizeAssignment(a *Assignment) AssignmentSummary {
	s := AssignmentSummary{Name: a.Name, Builtin: a.IsBuiltin(), References: len(a.accesses)}
	if a.Node != nil {
		s.Node = pytree.ID(a.Node).String()
	}
	return s
}

func summarizeAccess(a *Access) AccessSummary {
	s := AccessSummary{Name: a.Name, Node: pytree.ID(a.Node).String(), Context: string(a.Context)}
	for _, ref := range a.referents {
		if ref.IsBuiltin() {
			s.Referents = append(s.Referents, "builtin:"+ref.Name)
			continue
		}
		s.Referents = append(s.Referents, pytree.ID(ref.Node).String())
	}
	return s
}

// Emit renders the scope subtree as YAML.
func Emit(s *Scope) (string, error) {
	data, err := yaml.Marshal(Summarize(s))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
