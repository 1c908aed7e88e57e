package pytree

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"
)

// Loader reads Python sources through an abstract file system and parses
// them. Identical file contents (by fingerprint) parse once per LoadDir
// call.
type Loader struct {
	fs    afs.Service
	match func(info os.FileInfo) bool
	opts  []Option
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithMatcher overrides which files a directory walk picks up.
func WithMatcher(match func(info os.FileInfo) bool) LoaderOption {
	return func(l *Loader) {
		l.match = match
	}
}

// WithParseOptions forwards parse options to every Parse the loader runs.
func WithParseOptions(opts ...Option) LoaderOption {
	return func(l *Loader) {
		l.opts = opts
	}
}

// PythonFiles matches .py sources and skips common cache directories.
func PythonFiles(info os.FileInfo) bool {
	if info.IsDir() {
		name := info.Name()
		return name != "__pycache__" && !strings.HasPrefix(name, ".")
	}
	return filepath.Ext(info.Name()) == ".py"
}

// NewLoader creates a Loader backed by the default afs service.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{fs: afs.New(), match: PythonFiles}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadURL downloads and parses a single source.
func (l *Loader) LoadURL(ctx context.Context, URL string) (*Source, error) {
	code, err := l.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, err
	}
	return Parse(ctx, code, l.opts...)
}

// LoadDir walks root and parses every matched source, returning sources
// keyed by URL. Files with identical content share one Source.
func (l *Loader) LoadDir(ctx context.Context, root string) (map[string]*Source, error) {
	var urls []string
	visitor := func(ctx context.Context, baseURL, parent string, info os.FileInfo, reader io.Reader) (bool, error) {
		if !l.match(info) {
			return !info.IsDir(), nil
		}
		if info.IsDir() {
			return true, nil
		}
		urls = append(urls, url.Join(baseURL, path(parent, info.Name())))
		return true, nil
	}
	if err := l.fs.Walk(ctx, root, storage.OnVisit(visitor)); err != nil {
		return nil, err
	}
	sources := make(map[string]*Source, len(urls))
	byFingerprint := map[uint64]*Source{}
	for _, URL := range urls {
		src, err := l.LoadURL(ctx, URL)
		if err != nil {
			return nil, err
		}
		if prev, ok := byFingerprint[src.Fingerprint()]; ok {
			src.Close()
			sources[URL] = prev
			continue
		}
		byFingerprint[src.Fingerprint()] = src
		sources[URL] = src
	}
	return sources, nil
}

func path(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}
