package pytree_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metalens/pymeta/pytree"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	full := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	return full
}

func TestLoader_LoadURL(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "main.py", "x = 1\n")

	loader := pytree.NewLoader()
	src, err := loader.LoadURL(context.Background(), path)
	require.NoError(t, err)
	defer src.Close()
	assert.Equal(t, "x = 1\n", string(src.Code()))

	_, err = loader.LoadURL(context.Background(), filepath.Join(dir, "missing.py"))
	assert.Error(t, err)
}

func TestLoader_LoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.py", "x = 1\n")
	writeFile(t, dir, "pkg/b.py", "y = 2\n")
	writeFile(t, dir, "pkg/c.py", "x = 1\n")
	writeFile(t, dir, "notes.txt", "not python")
	writeFile(t, dir, "__pycache__/a.cpython-312.py", "cached = True\n")

	loader := pytree.NewLoader()
	sources, err := loader.LoadDir(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, sources, 3, "only .py files outside cache directories load")

	var a, c *pytree.Source
	for URL, src := range sources {
		switch filepath.Base(URL) {
		case "a.py":
			a = src
		case "c.py":
			c = src
		}
	}
	require.NotNil(t, a)
	require.NotNil(t, c)
	assert.Same(t, a, c, "identical content shares one parsed source")
}

func TestLoader_WithMatcher(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.py", "x = 1\n")
	writeFile(t, dir, "b.py", "y = 2\n")

	loader := pytree.NewLoader(pytree.WithMatcher(func(info os.FileInfo) bool {
		return info.IsDir() || info.Name() == "a.py"
	}))
	sources, err := loader.LoadDir(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, sources, 1)
}

func TestLoader_WithParseOptions(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "big.py", "x = 1\n")

	loader := pytree.NewLoader(pytree.WithParseOptions(pytree.WithMaxSourceSize(3)))
	_, err := loader.LoadURL(context.Background(), path)
	assert.ErrorIs(t, err, pytree.ErrTooLarge)
}
