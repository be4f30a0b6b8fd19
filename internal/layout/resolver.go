package layout

import (
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"

	ferrors "git.home.luguber.info/inful/pub/internal/foundation/errors"
)

const defaultResolverSize = 256

// Resolver compiles per-file override layouts on first use and caches them by
// absolute path. A Resolver belongs to a single compile pass; a new pass gets a
// new Resolver so edits to a layout are always picked up.
type Resolver struct {
	cache *lru.Cache[string, *Template]
}

// NewResolver creates a Resolver holding at most size compiled layouts.
func NewResolver(size int) *Resolver {
	if size <= 0 {
		size = defaultResolverSize
	}
	cache, err := lru.New[string, *Template](size)
	if err != nil {
		// lru.New only fails for non-positive sizes.
		panic(err)
	}
	return &Resolver{cache: cache}
}

// Resolve returns the layout named by ref, relative to the directory of sourcePath.
func (r *Resolver) Resolve(sourcePath, ref string) (*Template, error) {
	path := ref
	if !filepath.IsAbs(path) {
		path = filepath.Join(filepath.Dir(sourcePath), ref)
	}
	path = filepath.Clean(path)

	if tpl, ok := r.cache.Get(path); ok {
		return tpl, nil
	}

	st, err := os.Stat(path)
	if err != nil || !st.Mode().IsRegular() {
		return nil, ferrors.LayoutError("layout not found").
			WithFile(sourcePath).
			WithLayout(ref).
			WithCause(err).
			Build()
	}

	tpl, err := Load(path)
	if err != nil {
		return nil, err
	}
	r.cache.Add(path, tpl)
	return tpl, nil
}

// Len reports how many layouts are cached.
func (r *Resolver) Len() int { return r.cache.Len() }
