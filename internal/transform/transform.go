// Package transform maps source files to web artifacts by file extension.
//
// A Registry is built once per compile pass from the built-in transformers
// plus caller overrides. Registry.Apply runs the transformer for a file and,
// when its output extension differs from the input and is itself registered,
// feeds the result through that second transformer. The chain stops there:
// at most one extra hop is ever taken, so a transformer whose output maps back
// to its own input extension cannot loop.
package transform

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/pub/internal/htmlproc"
	"git.home.luguber.info/inful/pub/internal/layout"
)

// Output extensions of the built-in transformers.
const (
	ExtHTML   = ".html"
	ExtCSS    = ".css"
	ExtModule = ".mjs"
)

// ScriptExts are the script source extensions bundled into ExtModule.
var ScriptExts = []string{".js", ".mjs", ".cjs", ".ts", ".jsx", ".tsx"}

// Transformer turns the content of one source file into artifact content.
type Transformer interface {
	// Transform converts content read from path.
	Transform(ctx context.Context, content, path string) (string, error)
	// OutputExt is the extension of the produced artifact. Empty keeps the
	// input extension.
	OutputExt() string
}

// Func adapts a function to Transformer.
type Func struct {
	Ext string
	Fn  func(ctx context.Context, content, path string) (string, error)
}

// Transform calls f.Fn.
func (f Func) Transform(ctx context.Context, content, path string) (string, error) {
	return f.Fn(ctx, content, path)
}

// OutputExt returns f.Ext.
func (f Func) OutputExt() string { return f.Ext }

// Options is shared by all built-in transformers of one Registry.
type Options struct {
	// BaseURL is prefixed to relative URLs in generated markup.
	BaseURL string
	// Layout is the shared default layout. Nil renders bodies without one.
	Layout *layout.Template
	// Resolver compiles per-file layouts named in frontmatter.
	Resolver *layout.Resolver
	// JSXImportSource switches JSX to the automatic runtime from this package.
	JSXImportSource string
	// Alias maps import specifiers to replacement paths when bundling.
	Alias map[string]string
	// Revision is exposed to layouts as the "revision" variable.
	Revision string
	// DisableMinify skips the minification pass on markup.
	DisableMinify bool
	Logger        *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

func (o Options) resolver() *layout.Resolver {
	if o.Resolver == nil {
		return layout.NewResolver(0)
	}
	return o.Resolver
}

func (o Options) htmlOptions() htmlproc.Options {
	return htmlproc.Options{
		BaseURL:    o.BaseURL,
		ModuleExt:  ExtModule,
		ScriptExts: ScriptExts,
		Minify:     !o.DisableMinify,
	}
}

// Title derives a human readable page title from a source file name.
func Title(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	// A Caser keeps state between calls, so each call gets its own.
	return cases.Title(language.English).String(strings.TrimSpace(name))
}

// layoutVars returns the variables every layout can reference for path.
func (o Options) layoutVars(path string) map[string]string {
	return map[string]string{
		layout.ContentVar: "",
		"head":            "",
		"title":           Title(path),
		"revision":        o.Revision,
	}
}
