package meta

import (
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/metalens/pymeta/pytree"
)

var (
	// ErrCycle reports a cyclic provider dependency graph. Raised before
	// any traversal runs.
	ErrCycle = errors.New("cyclic provider dependency")
	// ErrNotResolved reports a query for an analysis never resolved on
	// this wrapper.
	ErrNotResolved = errors.New("analysis not resolved")
	// ErrNoValue reports a query for a node the analysis did not annotate.
	ErrNoValue = errors.New("no value recorded for node")
)

// ExecError wraps a failure raised by a provider mid-resolution. It aborts
// the whole resolve call; analyses cached by earlier calls stay valid.
type ExecError struct {
	Provider string
	Node     pytree.NodeID
	HasNode  bool
	Err      error
}

func (e *ExecError) Error() string {
	if e.HasNode {
		return fmt.Sprintf("analysis %q failed at %s: %v", e.Provider, e.Node, e.Err)
	}
	return fmt.Sprintf("analysis %q failed: %v", e.Provider, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// NodeError lets a standalone provider attach the offending node to an
// error it returns; the engine lifts it into the ExecError.
type NodeError struct {
	Node pytree.NodeID
	Err  error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("%s: %v", e.Node, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

func execError(p Provider, err error) *ExecError {
	var ne *NodeError
	if errors.As(err, &ne) {
		return &ExecError{Provider: p.Name(), Node: ne.Node, HasNode: true, Err: ne.Err}
	}
	return &ExecError{Provider: p.Name(), Err: err}
}

func execErrorAt(p Provider, n *sitter.Node, err error) *ExecError {
	return &ExecError{Provider: p.Name(), Node: pytree.ID(n), HasNode: true, Err: err}
}
