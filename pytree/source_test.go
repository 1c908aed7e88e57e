package pytree_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metalens/pymeta/pytree"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		description string
		code        string
		options     []pytree.Option
		expectErr   error
		syntaxErr   bool
	}{
		{
			description: "valid module",
			code:        "def add(a, b):\n    return a + b\n",
		},
		{
			description: "broken syntax still parses",
			code:        "def add(a, b:\n",
			syntaxErr:   true,
		},
		{
			description: "empty source",
			code:        "",
		},
		{
			description: "invalid utf-8",
			code:        string([]byte{0xff, 0xfe, 0x00}),
			expectErr:   pytree.ErrInvalidContent,
		},
		{
			description: "over size limit",
			code:        "x = 1\n",
			options:     []pytree.Option{pytree.WithMaxSourceSize(3)},
			expectErr:   pytree.ErrTooLarge,
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			src, err := pytree.Parse(context.Background(), []byte(testCase.code), testCase.options...)
			if testCase.expectErr != nil {
				assert.ErrorIs(t, err, testCase.expectErr)
				return
			}
			require.NoError(t, err)
			defer src.Close()
			assert.Equal(t, "module", src.Root().Type())
			assert.Equal(t, testCase.code, src.Text(src.Root()))
			assert.Equal(t, testCase.syntaxErr, src.HasSyntaxErrors())
		})
	}
}

func TestSource_Fingerprint(t *testing.T) {
	ctx := context.Background()
	a, err := pytree.Parse(ctx, []byte("x = 1\n"))
	require.NoError(t, err)
	defer a.Close()
	b, err := pytree.Parse(ctx, []byte("x = 1\n"))
	require.NoError(t, err)
	defer b.Close()
	c, err := pytree.Parse(ctx, []byte("x = 2\n"))
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func TestNodeID(t *testing.T) {
	src, err := pytree.Parse(context.Background(), []byte("x = 1\n"))
	require.NoError(t, err)
	defer src.Close()

	root := src.Root()
	stmt := root.NamedChild(0)
	require.NotNil(t, stmt)
	assign := stmt.NamedChild(0)
	require.NotNil(t, assign)

	assert.Equal(t, pytree.ID(stmt).Start, pytree.ID(assign).Start)
	assert.Equal(t, pytree.ID(stmt).End, pytree.ID(assign).End)
	assert.NotEqual(t, pytree.ID(stmt), pytree.ID(assign), "kind disambiguates same-span nodes")
	assert.Equal(t, "assignment@0-5", pytree.ID(assign).String())
}

func TestNamedChildren(t *testing.T) {
	src, err := pytree.Parse(context.Background(), []byte("x = 1\ny = 2\n"))
	require.NoError(t, err)
	defer src.Close()

	named := pytree.NamedChildren(src.Root())
	require.Len(t, named, 2)
	all := pytree.Children(src.Root())
	assert.GreaterOrEqual(t, len(all), len(named))

	stmt := pytree.FirstChildOfType(src.Root(), "expression_statement")
	require.NotNil(t, stmt)
	assert.Equal(t, "x = 1", src.Text(stmt))
	assert.Nil(t, pytree.FirstChildOfType(src.Root(), "class_definition"))
}
