package transform

import (
	"context"
	"path/filepath"
	"sort"
)

// Registry maps input extensions to transformers. It is read-only once built.
type Registry struct {
	byExt map[string]Transformer
}

// Builtins returns the built-in transformers for opts keyed by extension.
func Builtins(opts Options) map[string]Transformer {
	script := newScriptTransformer(opts)
	m := map[string]Transformer{
		".html":      newMarkupTransformer(opts),
		".htm":       newMarkupTransformer(opts),
		".md":        newMarkdownTransformer(),
		".markdown":  newMarkdownTransformer(),
		".css":       newStyleTransformer(opts),
		".component": newComponentTransformer(opts),
	}
	for _, ext := range ScriptExts {
		m[ext] = script
	}
	return m
}

// NewRegistry builds the registry for one compile pass. overrides replace
// built-ins for the same extension; a nil override removes the built-in.
func NewRegistry(opts Options, overrides map[string]Transformer) *Registry {
	byExt := Builtins(opts)
	for ext, t := range overrides {
		if t == nil {
			delete(byExt, ext)
			continue
		}
		byExt[ext] = t
	}
	return &Registry{byExt: byExt}
}

// Lookup returns the transformer registered for ext.
func (r *Registry) Lookup(ext string) (Transformer, bool) {
	t, ok := r.byExt[ext]
	return t, ok
}

// Exts returns the registered extensions in sorted order.
func (r *Registry) Exts() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// OutputExt reports the artifact extension for a source with extension ext.
// Unregistered extensions keep their own.
func (r *Registry) OutputExt(ext string) string {
	t, ok := r.byExt[ext]
	if !ok || t.OutputExt() == "" {
		return ext
	}
	return t.OutputExt()
}

// Apply transforms content read from path and returns the result with its
// output extension. Unregistered extensions pass through unchanged.
//
// If the output extension differs from the input and has a transformer of its
// own, the result goes through that transformer once more. No further hops are
// taken, whatever the second transformer's output extension is.
func (r *Registry) Apply(ctx context.Context, content, path string) (string, string, error) {
	ext := filepath.Ext(path)
	t, ok := r.byExt[ext]
	if !ok {
		return content, ext, nil
	}

	out, err := t.Transform(ctx, content, path)
	if err != nil {
		return "", "", err
	}

	outExt := r.OutputExt(ext)
	if outExt == ext {
		return out, outExt, nil
	}
	if next, ok := r.byExt[outExt]; ok {
		if out, err = next.Transform(ctx, out, path); err != nil {
			return "", "", err
		}
	}
	return out, outExt, nil
}
