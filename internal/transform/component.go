package transform

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/evanw/esbuild/pkg/api"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	ferrors "git.home.luguber.info/inful/pub/internal/foundation/errors"
	"git.home.luguber.info/inful/pub/internal/frontmatter"
	"git.home.luguber.info/inful/pub/internal/htmlproc"
	"git.home.luguber.info/inful/pub/internal/layout"
)

// Element id prefixes used to splice a component into its page.
const (
	RootIDPrefix   = "pub-root-"
	StyleIDPrefix  = "pub-styles-"
	ScriptIDPrefix = "pub-script-"
)

// RootDefine is the global the client bundle reads to find its root element id.
const RootDefine = "__PUB_ROOT__"

// componentTransformer compiles a single-file UI component into a page.
//
// A component file holds optional frontmatter (its props) followed by markup.
// Top-level <head>, <style> and <script> blocks are lifted out; the rest is a
// template rendered with the props. The rendered markup is the server side of
// the component and the script, bundled with the root element id defined as
// __PUB_ROOT__, is the client side.
type componentTransformer struct {
	opts Options
}

func newComponentTransformer(opts Options) *componentTransformer {
	opts.Resolver = opts.resolver()
	return &componentTransformer{opts: opts}
}

func (t *componentTransformer) OutputExt() string { return ExtHTML }

// ComponentParts is a component file split into its blocks.
type ComponentParts struct {
	Props     frontmatter.Frontmatter
	Head      string
	Style     string
	Script    string
	ScriptTSX bool
	Markup    string
}

// ComponentID returns the id suffix shared by a component's elements.
func ComponentID(source string) string {
	return strconv.FormatUint(xxhash.Sum64String(source), 36)
}

func (t *componentTransformer) Transform(ctx context.Context, content, path string) (string, error) {
	parts, err := SplitComponent(content)
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryTransform, "split component").
			WithFile(path).
			Build()
	}

	id := ComponentID(content)
	vars := t.opts.layoutVars(path)
	for k, v := range parts.Props.Map() {
		vars[k] = v
	}

	markupTpl, err := layout.Compile(path, parts.Markup)
	if err != nil {
		return "", err
	}
	body, err := markupTpl.Render(vars)
	if err != nil {
		return "", err
	}

	var head strings.Builder
	if strings.TrimSpace(parts.Style) != "" {
		css, err := bundleCSS(ctx, parts.Style, path)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&head, `<style id="%s%s">%s</style>`, StyleIDPrefix, id, css)
	}
	head.WriteString(parts.Head)

	var page strings.Builder
	fmt.Fprintf(&page, `<div id="%s%s">%s</div>`, RootIDPrefix, id, body)
	if strings.TrimSpace(parts.Script) != "" {
		client, err := t.clientBundle(ctx, parts, path, RootIDPrefix+id)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&page, `<script id="%s%s" type="module">%s</script>`, ScriptIDPrefix, id, client)
	}

	vars["head"] = head.String()
	vars[layout.ContentVar] = page.String()
	return t.layout(parts.Props, path, vars)
}

func (t *componentTransformer) clientBundle(ctx context.Context, parts ComponentParts, path, rootID string) (string, error) {
	loader := api.LoaderJSX
	if parts.ScriptTSX {
		loader = api.LoaderTSX
	}
	build := t.opts.scriptBuild(parts.Script, path, loader)
	build.Define = map[string]string{RootDefine: strconv.Quote(rootID)}
	build.MinifyWhitespace = true
	build.MinifyIdentifiers = true
	build.MinifySyntax = true
	return bundle(ctx, build, path)
}

// layout places the component into its layout. The result is always a complete
// document so the chained markup transformer does not wrap it again.
func (t *componentTransformer) layout(props frontmatter.Frontmatter, path string, vars map[string]string) (string, error) {
	tpl := t.opts.Layout
	if ref, ok := props.Get("layout"); ok && ref != "" {
		resolved, err := t.opts.Resolver.Resolve(path, ref)
		if err != nil {
			return "", err
		}
		tpl = resolved
	}

	if tpl == nil {
		return "<!DOCTYPE html><html><head>" + vars["head"] + "</head><body>" + vars[layout.ContentVar] + "</body></html>", nil
	}
	out, err := tpl.Render(vars)
	if err != nil {
		return "", err
	}
	if !htmlproc.IsDocument(out) {
		out = "<!DOCTYPE html>" + out
	}
	return out, nil
}

// SplitComponent separates a component source into props, lifted blocks and
// template markup. Only top-level blocks are lifted; a <script> nested inside
// an element stays part of the markup.
func SplitComponent(source string) (ComponentParts, error) {
	fm, body, _ := frontmatter.Split(source)
	parts := ComponentParts{Props: fm}

	var markup, head, style, script strings.Builder
	z := html.NewTokenizer(strings.NewReader(body))
	depth := 0
	var capture *strings.Builder
	var captureTag atom.Atom

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); err != io.EOF {
				return ComponentParts{}, err
			}
			break
		}
		raw := string(z.Raw())
		tok := z.Token()

		if capture != nil {
			if tt == html.EndTagToken && tok.DataAtom == captureTag {
				capture = nil
				continue
			}
			capture.WriteString(raw)
			continue
		}

		switch tt {
		case html.StartTagToken:
			if depth == 0 {
				switch tok.DataAtom {
				case atom.Head:
					capture, captureTag = &head, atom.Head
					continue
				case atom.Style:
					capture, captureTag = &style, atom.Style
					continue
				case atom.Script:
					capture, captureTag = &script, atom.Script
					parts.ScriptTSX = isTSXScript(tok)
					continue
				}
			}
			if !isVoid(tok.DataAtom) {
				depth++
			}
		case html.EndTagToken:
			if depth > 0 {
				depth--
			}
		}
		markup.WriteString(raw)
	}

	parts.Head = strings.TrimSpace(head.String())
	parts.Style = style.String()
	parts.Script = script.String()
	parts.Markup = strings.TrimSpace(markup.String())
	return parts, nil
}

func isTSXScript(tok html.Token) bool {
	for _, a := range tok.Attr {
		if a.Key == "lang" && (a.Val == "ts" || a.Val == "tsx") {
			return true
		}
	}
	return false
}

var voidElements = map[atom.Atom]bool{
	atom.Area: true, atom.Base: true, atom.Br: true, atom.Col: true,
	atom.Embed: true, atom.Hr: true, atom.Img: true, atom.Input: true,
	atom.Link: true, atom.Meta: true, atom.Source: true, atom.Track: true,
	atom.Wbr: true,
}

func isVoid(a atom.Atom) bool { return voidElements[a] }

var (
	_ Transformer = (*markupTransformer)(nil)
	_ Transformer = (*markdownTransformer)(nil)
	_ Transformer = (*styleTransformer)(nil)
	_ Transformer = (*scriptTransformer)(nil)
	_ Transformer = (*componentTransformer)(nil)
	_ Transformer = Func{}
)
