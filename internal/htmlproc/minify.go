package htmlproc

import (
	"regexp"
	"sync"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	mhtml "github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"

	ferrors "git.home.luguber.info/inful/pub/internal/foundation/errors"
)

var (
	minifierOnce sync.Once
	minifier     *minify.M
)

func htmlMinifier() *minify.M {
	minifierOnce.Do(func() {
		m := minify.New()
		m.AddFunc("text/css", css.Minify)
		m.AddFuncRegexp(regexp.MustCompile(`^(application|text)/(x-)?(java|ecma)script$|^module$`), js.Minify)
		m.Add("text/html", &mhtml.Minifier{
			KeepDocumentTags: true,
			KeepEndTags:      true,
			KeepQuotes:       true,
		})
		minifier = m
	})
	return minifier
}

// Minify minifies a markup document or fragment, including inline styles and
// scripts.
func Minify(markup string) (string, error) {
	out, err := htmlMinifier().String("text/html", markup)
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryTransform, "minify html").Build()
	}
	return out, nil
}
