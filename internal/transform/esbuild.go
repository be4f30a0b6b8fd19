package transform

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	ferrors "git.home.luguber.info/inful/pub/internal/foundation/errors"
)

// browserEngines drives CSS vendor prefixing and syntax lowering.
var browserEngines = []api.Engine{
	{Name: api.EngineChrome, Version: "87"},
	{Name: api.EngineEdge, Version: "88"},
	{Name: api.EngineFirefox, Version: "78"},
	{Name: api.EngineSafari, Version: "14"},
}

// assetPatterns are left as references when bundling stylesheets.
var assetPatterns = []string{
	"*.png", "*.jpg", "*.jpeg", "*.gif", "*.svg", "*.webp", "*.avif", "*.ico",
	"*.woff", "*.woff2", "*.ttf", "*.otf", "*.eot",
}

var scriptLoaders = map[string]api.Loader{
	".js":  api.LoaderJS,
	".mjs": api.LoaderJS,
	".cjs": api.LoaderJS,
	".jsx": api.LoaderJSX,
	".ts":  api.LoaderTS,
	".tsx": api.LoaderTSX,
}

// bundle runs esbuild over an in-memory entry module and returns the single
// output file.
func bundle(ctx context.Context, build api.BuildOptions, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	build.Bundle = true
	build.Write = false
	build.LogLevel = api.LogLevelSilent

	result := api.Build(build)
	if len(result.Errors) > 0 {
		return "", ferrors.TransformError("bundle failed").
			WithFile(path).
			WithCause(esbuildError(result.Errors)).
			Build()
	}
	if len(result.OutputFiles) == 0 {
		return "", ferrors.TransformError("bundle produced no output").
			WithFile(path).
			Build()
	}
	return string(result.OutputFiles[0].Contents), nil
}

type esbuildError []api.Message

func (e esbuildError) Error() string {
	parts := make([]string, 0, len(e))
	for _, m := range e {
		if m.Location != nil {
			parts = append(parts, fmt.Sprintf("%s:%d:%d: %s", m.Location.File, m.Location.Line, m.Location.Column, m.Text))
			continue
		}
		parts = append(parts, m.Text)
	}
	return strings.Join(parts, "; ")
}

// styleTransformer resolves @import rules, prefixes and minifies stylesheets.
type styleTransformer struct{}

func newStyleTransformer(Options) *styleTransformer { return &styleTransformer{} }

func (t *styleTransformer) OutputExt() string { return ExtCSS }

func (t *styleTransformer) Transform(ctx context.Context, content, path string) (string, error) {
	return bundleCSS(ctx, content, path)
}

func bundleCSS(ctx context.Context, content, path string) (string, error) {
	return bundle(ctx, api.BuildOptions{
		Stdin: &api.StdinOptions{
			Contents:   content,
			ResolveDir: filepath.Dir(path),
			Sourcefile: path,
			Loader:     api.LoaderCSS,
		},
		Engines:          browserEngines,
		External:         assetPatterns,
		MinifyWhitespace: true,
		MinifySyntax:     true,
	}, path)
}

// scriptTransformer bundles a script and its local imports into one ES module.
type scriptTransformer struct {
	opts Options
}

func newScriptTransformer(opts Options) *scriptTransformer {
	return &scriptTransformer{opts: opts}
}

func (t *scriptTransformer) OutputExt() string { return ExtModule }

func (t *scriptTransformer) Transform(ctx context.Context, content, path string) (string, error) {
	loader, ok := scriptLoaders[filepath.Ext(path)]
	if !ok {
		loader = api.LoaderJS
	}
	return bundle(ctx, t.opts.scriptBuild(content, path, loader), path)
}

func (o Options) scriptBuild(content, path string, loader api.Loader) api.BuildOptions {
	build := api.BuildOptions{
		Stdin: &api.StdinOptions{
			Contents:   content,
			ResolveDir: filepath.Dir(path),
			Sourcefile: path,
			Loader:     loader,
		},
		Format:      api.FormatESModule,
		Platform:    api.PlatformBrowser,
		TreeShaking: api.TreeShakingTrue,
		Alias:       o.Alias,
	}
	if o.JSXImportSource != "" {
		build.JSX = api.JSXAutomatic
		build.JSXImportSource = o.JSXImportSource
	}
	return build
}
