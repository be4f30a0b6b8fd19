package transform

import (
	"bytes"
	"context"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	ferrors "git.home.luguber.info/inful/pub/internal/foundation/errors"
	"git.home.luguber.info/inful/pub/internal/frontmatter"
)

// markdownTransformer converts markdown to an HTML body. Frontmatter is
// written back in front of the body so the chained markup transformer sees it.
type markdownTransformer struct {
	md goldmark.Markdown
}

func newMarkdownTransformer() *markdownTransformer {
	return &markdownTransformer{md: goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)}
}

func (t *markdownTransformer) OutputExt() string { return ExtHTML }

func (t *markdownTransformer) Transform(_ context.Context, content, path string) (string, error) {
	fm, body, had := frontmatter.Split(content)

	var buf bytes.Buffer
	if err := t.md.Convert([]byte(body), &buf); err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryTransform, "convert markdown").
			WithFile(path).
			Build()
	}
	if !had {
		return buf.String(), nil
	}
	return frontmatter.Join(fm, buf.String()), nil
}
