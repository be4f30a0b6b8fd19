package transform

import (
	"context"

	"git.home.luguber.info/inful/pub/internal/frontmatter"
	"git.home.luguber.info/inful/pub/internal/htmlproc"
	"git.home.luguber.info/inful/pub/internal/layout"
)

// markupTransformer lays out a markup document and post-processes it.
//
// Without frontmatter the body goes into the default layout, unless it is
// already a complete document. With frontmatter the keys become layout
// variables and a "layout" key selects a per-file layout.
type markupTransformer struct {
	opts Options
}

func newMarkupTransformer(opts Options) *markupTransformer {
	opts.Resolver = opts.resolver()
	return &markupTransformer{opts: opts}
}

func (t *markupTransformer) OutputExt() string { return ExtHTML }

func (t *markupTransformer) Transform(_ context.Context, content, path string) (string, error) {
	doc, err := t.render(content, path)
	if err != nil {
		return "", err
	}
	return htmlproc.Process(doc, t.opts.htmlOptions())
}

func (t *markupTransformer) render(content, path string) (string, error) {
	fm, body, had := frontmatter.Split(content)
	if !had && htmlproc.IsDocument(body) {
		return body, nil
	}

	tpl, err := t.selectLayout(fm, path)
	if err != nil {
		return "", err
	}
	if tpl == nil {
		return body, nil
	}

	vars := t.opts.layoutVars(path)
	for k, v := range fm.Map() {
		vars[k] = v
	}
	vars[layout.ContentVar] = body
	return tpl.Render(vars)
}

func (t *markupTransformer) selectLayout(fm frontmatter.Frontmatter, path string) (*layout.Template, error) {
	if ref, ok := fm.Get("layout"); ok && ref != "" {
		return t.opts.Resolver.Resolve(path, ref)
	}
	return t.opts.Layout, nil
}
