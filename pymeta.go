// Package pymeta analyzes Python source structurally: it parses code into
// an immutable tree, then resolves metadata analyses over it through a
// dependency-ordered engine. The bundled analyses cover node positions,
// expression contexts, and lexical scopes; callers can register their own.
package pymeta

import (
	"context"

	"github.com/metalens/pymeta/exprcontext"
	"github.com/metalens/pymeta/meta"
	"github.com/metalens/pymeta/position"
	"github.com/metalens/pymeta/pytree"
	"github.com/metalens/pymeta/scopes"
)

// DefaultProviders returns the bundled analyses, resolved by Analyze and
// AnalyzeFile.
func DefaultProviders() []meta.Provider {
	return []meta.Provider{position.Provider, exprcontext.Provider, scopes.Provider}
}

// Analyze parses code and resolves the bundled analyses over it. The
// returned wrapper owns the resulting metadata; close its source when done.
func Analyze(ctx context.Context, code []byte, opts ...pytree.Option) (*meta.Wrapper, error) {
	src, err := pytree.Parse(ctx, code, opts...)
	if err != nil {
		return nil, err
	}
	w := meta.NewWrapper(src)
	if err := w.Resolve(DefaultProviders()...); err != nil {
		src.Close()
		return nil, err
	}
	return w, nil
}

// AnalyzeFile loads one source by URL (file path or any scheme the abstract
// file system supports) and analyzes it.
func AnalyzeFile(ctx context.Context, URL string, opts ...pytree.LoaderOption) (*meta.Wrapper, error) {
	loader := pytree.NewLoader(opts...)
	src, err := loader.LoadURL(ctx, URL)
	if err != nil {
		return nil, err
	}
	w := meta.NewWrapper(src)
	if err := w.Resolve(DefaultProviders()...); err != nil {
		src.Close()
		return nil, err
	}
	return w, nil
}

// AnalyzeDir loads every Python source under root and analyzes each one,
// returning wrappers keyed by URL.
func AnalyzeDir(ctx context.Context, root string, opts ...pytree.LoaderOption) (map[string]*meta.Wrapper, error) {
	loader := pytree.NewLoader(opts...)
	sources, err := loader.LoadDir(ctx, root)
	if err != nil {
		return nil, err
	}
	wrappers := make(map[string]*meta.Wrapper, len(sources))
	shared := map[*pytree.Source]*meta.Wrapper{}
	for URL, src := range sources {
		if w, ok := shared[src]; ok {
			wrappers[URL] = w
			continue
		}
		w := meta.NewWrapper(src)
		if err := w.Resolve(DefaultProviders()...); err != nil {
			return nil, err
		}
		shared[src] = w
		wrappers[URL] = w
	}
	return wrappers, nil
}
