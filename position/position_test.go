package position_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metalens/pymeta/meta"
	"github.com/metalens/pymeta/position"
	"github.com/metalens/pymeta/pytree"
)

func TestProvider(t *testing.T) {
	code := "x = 1\ndef f():\n    pass\n"
	src, err := pytree.Parse(context.Background(), []byte(code))
	require.NoError(t, err)
	defer src.Close()

	w := meta.NewWrapper(src)
	require.NoError(t, w.Resolve(position.Provider))

	root := src.Root()
	got, err := position.Of(w, root)
	require.NoError(t, err)
	assert.Equal(t, position.Position{Line: 1, Column: 0}, got.Start)
	assert.Equal(t, position.Position{Line: 4, Column: 0}, got.End)

	def := pytree.FirstChildOfType(root, "function_definition")
	require.NotNil(t, def)
	got, err = position.Of(w, def)
	require.NoError(t, err)
	assert.Equal(t, position.Position{Line: 2, Column: 0}, got.Start)
	assert.Equal(t, position.Position{Line: 3, Column: 8}, got.End)
}
