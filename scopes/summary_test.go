package scopes_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/metalens/pymeta/scopes"
)

func TestIsBuiltin(t *testing.T) {
	assert.True(t, scopes.IsBuiltin("len"))
	assert.True(t, scopes.IsBuiltin("ValueError"))
	assert.True(t, scopes.IsBuiltin("True"))
	assert.False(t, scopes.IsBuiltin("definitely_not_builtin"))
}

func TestEmit(t *testing.T) {
	code := `x = 1

def f():
    return x
`
	w, _ := analyze(t, code)
	global, err := scopes.GlobalScope(w)
	require.NoError(t, err)

	text, err := scopes.Emit(global)
	require.NoError(t, err)

	var summary scopes.Summary
	require.NoError(t, yaml.Unmarshal([]byte(text), &summary))
	assert.Equal(t, scopes.Global, summary.Kind)
	require.Len(t, summary.Assignments, 2)
	assert.Equal(t, "x", summary.Assignments[0].Name)
	assert.Equal(t, 1, summary.Assignments[0].References)
	assert.Equal(t, "f", summary.Assignments[1].Name)

	require.Len(t, summary.Children, 1)
	child := summary.Children[0]
	assert.Equal(t, scopes.Function, child.Kind)
	assert.Equal(t, "f", child.Name)
	require.Len(t, child.Accesses, 1)
	assert.Equal(t, "x", child.Accesses[0].Name)
	assert.Equal(t, "LOAD", child.Accesses[0].Context)
	require.Len(t, child.Accesses[0].Referents, 1)
}
