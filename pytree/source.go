package pytree

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/minio/highwayhash"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

var (
	// ErrInvalidContent indicates the input is not valid UTF-8.
	ErrInvalidContent = errors.New("content is not valid UTF-8")
	// ErrTooLarge indicates the input exceeds the configured size limit.
	ErrTooLarge = errors.New("content exceeds size limit")
)

// DefaultMaxSourceSize bounds how much source a parser accepts (10MB).
const DefaultMaxSourceSize = 10 * 1024 * 1024

var hashKey = []byte("0123456789ABCDEF0123456789ABCDEF")

// Source is one parsed, immutable Python source. It owns the raw bytes and
// the tree-sitter tree; all derived metadata is stored outside the tree,
// keyed by NodeID, so a Source can back any number of independent analyses.
type Source struct {
	code        []byte
	tree        *sitter.Tree
	root        *sitter.Node
	fingerprint uint64
}

// Option configures parsing.
type Option func(*parser)

type parser struct {
	maxSize int
}

// WithMaxSourceSize overrides the maximum accepted source size in bytes.
func WithMaxSourceSize(bytes int) Option {
	return func(p *parser) {
		if bytes > 0 {
			p.maxSize = bytes
		}
	}
}

// Parse parses Python source into a Source. The parse is error-tolerant:
// syntactically broken input still yields a tree (with error nodes), since
// structural analyses are expected to degrade rather than fail outright.
func Parse(ctx context.Context, code []byte, opts ...Option) (*Source, error) {
	cfg := &parser{maxSize: DefaultMaxSourceSize}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(code) > cfg.maxSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooLarge, len(code), cfg.maxSize)
	}
	if !utf8.Valid(code) {
		return nil, ErrInvalidContent
	}
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	tree, err := p.ParseCtx(ctx, nil, code)
	if err != nil {
		return nil, fmt.Errorf("parse python source: %w", err)
	}
	root := tree.RootNode()
	if root == nil {
		return nil, errors.New("parse python source: nil root node")
	}
	fp, err := fingerprint(code)
	if err != nil {
		return nil, err
	}
	return &Source{code: code, tree: tree, root: root, fingerprint: fp}, nil
}

// Root returns the module node.
func (s *Source) Root() *sitter.Node {
	return s.root
}

// Code returns the raw source bytes. Callers must not mutate them.
func (s *Source) Code() []byte {
	return s.code
}

// Text returns the source text covered by n.
func (s *Source) Text(n *sitter.Node) string {
	return n.Content(s.code)
}

// Fingerprint returns a 64-bit content hash of the source.
func (s *Source) Fingerprint() uint64 {
	return s.fingerprint
}

// HasSyntaxErrors reports whether tree-sitter flagged any error nodes.
func (s *Source) HasSyntaxErrors() bool {
	return s.root.HasError()
}

// Close releases the underlying tree. After Close no node of this Source
// may be used.
func (s *Source) Close() {
	if s.tree != nil {
		s.tree.Close()
		s.tree = nil
	}
}

func fingerprint(data []byte) (uint64, error) {
	h, err := highwayhash.New64(hashKey)
	if err != nil {
		return 0, err
	}
	if _, err = h.Write(data); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}
