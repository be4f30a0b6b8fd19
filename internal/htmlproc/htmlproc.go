// Package htmlproc post-processes generated markup: relative script references
// are pointed at the bundled module output, relative URLs are prefixed with the
// site base path, and the result is minified.
//
// Each pass is idempotent, so running Process over its own output is a no-op.
package htmlproc

import (
	"bytes"
	"path"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	ferrors "git.home.luguber.info/inful/pub/internal/foundation/errors"
)

// Options configures Process.
type Options struct {
	// BaseURL is prefixed to every relative URL. Empty means "/".
	BaseURL string
	// ModuleExt is the extension bundled scripts are written with.
	ModuleExt string
	// ScriptExts lists source script extensions rewritten to ModuleExt.
	ScriptExts []string
	// Minify enables the minification pass.
	Minify bool
}

// urlAttrs are the attributes that carry a single URL.
var urlAttrs = map[string]bool{
	"href":       true,
	"src":        true,
	"action":     true,
	"formaction": true,
	"poster":     true,
	"cite":       true,
	"data":       true,
}

const bom = "\ufeff"

// IsDocument reports whether markup is a complete HTML document rather than a
// body fragment: its first token after a byte order mark, whitespace and
// comments is a doctype or an <html> start tag.
func IsDocument(markup string) bool {
	z := html.NewTokenizer(strings.NewReader(strings.TrimPrefix(markup, bom)))
	for {
		switch z.Next() {
		case html.CommentToken:
			continue
		case html.TextToken:
			if strings.TrimSpace(string(z.Text())) == "" {
				continue
			}
			return false
		case html.DoctypeToken:
			return true
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			return atom.Lookup(name) == atom.Html
		default:
			return false
		}
	}
}

// Process runs the rewrite passes and, when enabled, minification.
func Process(markup string, opts Options) (string, error) {
	nodes, err := parse(markup)
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryTransform, "parse html").Build()
	}

	base := normalizeBase(opts.BaseURL)
	exts := make(map[string]bool, len(opts.ScriptExts))
	for _, e := range opts.ScriptExts {
		if e != opts.ModuleExt {
			exts[e] = true
		}
	}

	for _, n := range nodes {
		walk(n, func(el *html.Node) {
			if opts.ModuleExt != "" && el.DataAtom == atom.Script {
				rewriteScriptSrc(el, opts.ModuleExt, exts)
			}
			rewriteURLs(el, base)
		})
	}

	var buf bytes.Buffer
	for _, n := range nodes {
		if err := html.Render(&buf, n); err != nil {
			return "", ferrors.WrapError(err, ferrors.CategoryTransform, "render html").Build()
		}
	}

	out := buf.String()
	if opts.Minify {
		out, err = Minify(out)
		if err != nil {
			return "", err
		}
	}
	return out, nil
}

func parse(markup string) ([]*html.Node, error) {
	markup = strings.TrimPrefix(markup, bom)
	if IsDocument(markup) {
		doc, err := html.Parse(strings.NewReader(markup))
		if err != nil {
			return nil, err
		}
		return []*html.Node{doc}, nil
	}
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	return html.ParseFragment(strings.NewReader(markup), body)
}

func walk(n *html.Node, fn func(*html.Node)) {
	if n.Type == html.ElementNode {
		fn(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func rewriteScriptSrc(n *html.Node, moduleExt string, exts map[string]bool) {
	for i, a := range n.Attr {
		if a.Namespace != "" || a.Key != "src" || !isRelative(a.Val) {
			continue
		}
		p, suffix := splitSuffix(a.Val)
		ext := path.Ext(p)
		if exts[ext] {
			n.Attr[i].Val = strings.TrimSuffix(p, ext) + moduleExt + suffix
		}
	}
}

func rewriteURLs(n *html.Node, base string) {
	for i, a := range n.Attr {
		if a.Namespace != "" {
			continue
		}
		switch {
		case urlAttrs[a.Key]:
			n.Attr[i].Val = withBase(a.Val, base)
		case a.Key == "srcset":
			n.Attr[i].Val = rewriteSrcset(a.Val, base)
		}
	}
}

func rewriteSrcset(v, base string) string {
	candidates := strings.Split(v, ",")
	for i, c := range candidates {
		fields := strings.Fields(c)
		if len(fields) == 0 {
			continue
		}
		fields[0] = withBase(fields[0], base)
		candidates[i] = strings.Join(fields, " ")
	}
	return strings.Join(candidates, ", ")
}

// withBase prefixes a relative URL with base. URLs that already carry the base
// are left alone.
func withBase(u, base string) string {
	if !isRelative(u) {
		return u
	}
	if strings.HasPrefix(u, "/") {
		if base != "/" && (u == strings.TrimSuffix(base, "/") || strings.HasPrefix(u, base)) {
			return u
		}
		return strings.TrimSuffix(base, "/") + u
	}
	return base + strings.TrimPrefix(u, "./")
}

// isRelative reports whether u is a path that the site serves, as opposed to an
// absolute URL, a protocol-relative URL, a fragment or a special scheme.
func isRelative(u string) bool {
	u = strings.TrimSpace(u)
	if u == "" || strings.HasPrefix(u, "#") || strings.HasPrefix(u, "//") || strings.HasPrefix(u, "?") {
		return false
	}
	if i := strings.IndexAny(u, ":/?#"); i > 0 && u[i] == ':' {
		return false
	}
	return true
}

func splitSuffix(u string) (string, string) {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		return u[:i], u[i:]
	}
	return u, ""
}

func normalizeBase(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return "/"
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}
