package scopes_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"
	"gopkg.in/yaml.v3"

	"github.com/metalens/pymeta/meta"
	"github.com/metalens/pymeta/pytree"
	"github.com/metalens/pymeta/scopes"
)

// outline is the shape the golden fixtures describe: the scope tree with
// bindings in first-binding order and accesses in traversal order, each
// access tagged with its resolution outcome.
type outline struct {
	Kind     string     `yaml:"kind"`
	Name     string     `yaml:"name,omitempty"`
	Bindings []string   `yaml:"bindings,omitempty"`
	Accesses []string   `yaml:"accesses,omitempty"`
	Children []*outline `yaml:"children,omitempty"`
}

func outlineOf(s *scopes.Scope) *outline {
	out := &outline{Kind: string(s.Kind), Name: s.Name, Bindings: s.Names()}
	for _, access := range s.Accesses() {
		out.Accesses = append(out.Accesses, describeAccess(access))
	}
	for _, child := range s.Children {
		out.Children = append(out.Children, outlineOf(child))
	}
	return out
}

func describeAccess(a *scopes.Access) string {
	outcome := "unresolved"
	if refs := a.Referents(); len(refs) > 0 {
		outcome = "resolved"
		if refs[0].IsBuiltin() {
			outcome = "builtin"
		}
	}
	return fmt.Sprintf("%s %s %s", a.Name, a.Context, outcome)
}

func TestGolden(t *testing.T) {
	fixtures, err := filepath.Glob(filepath.Join("testdata", "*.txt"))
	require.NoError(t, err)
	require.NotEmpty(t, fixtures)

	for _, fixture := range fixtures {
		t.Run(filepath.Base(fixture), func(t *testing.T) {
			archive, err := txtar.ParseFile(fixture)
			require.NoError(t, err)

			var code, expectYAML []byte
			for _, file := range archive.Files {
				switch file.Name {
				case "source.py":
					code = file.Data
				case "expect.yaml":
					expectYAML = file.Data
				}
			}
			require.NotNil(t, code, "fixture misses source.py")
			require.NotNil(t, expectYAML, "fixture misses expect.yaml")

			src, err := pytree.Parse(context.Background(), code)
			require.NoError(t, err)
			defer src.Close()
			w := meta.NewWrapper(src)
			require.NoError(t, w.Resolve(scopes.Provider))

			global, err := scopes.GlobalScope(w)
			require.NoError(t, err)

			var expected outline
			require.NoError(t, yaml.Unmarshal(expectYAML, &expected))
			assert.Equal(t, &expected, outlineOf(global))
		})
	}
}
