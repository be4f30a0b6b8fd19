package transform

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/pub/internal/foundation/errors"
)

func writeSources(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestScript_BundlesLocalImportsAndDropsUnusedExports(t *testing.T) {
	dir := writeSources(t, map[string]string{
		"main.ts": `import { greet } from "./util.ts";
const target: string = "world";
console.log(greet(target));
`,
		"util.ts": `export function greet(name: string): string {
	return "hello-from-util " + name;
}

export function unusedHelper(): string {
	return "never-called-marker";
}
`,
	})
	main := filepath.Join(dir, "main.ts")
	src, err := os.ReadFile(main)
	require.NoError(t, err)

	reg := NewRegistry(Options{}, nil)
	out, ext, err := reg.Apply(context.Background(), string(src), main)
	require.NoError(t, err)

	require.Equal(t, ExtModule, ext)
	require.Contains(t, out, "hello-from-util")
	require.NotContains(t, out, "never-called-marker")
	require.NotContains(t, out, "./util")
	require.NotContains(t, out, ": string")
}

func TestScript_ParsesJSX(t *testing.T) {
	dir := writeSources(t, map[string]string{
		"app.jsx": `const el = <div className="greeting">hi</div>;
console.log(el);
`,
	})
	path := filepath.Join(dir, "app.jsx")
	src, err := os.ReadFile(path)
	require.NoError(t, err)

	out, err := newScriptTransformer(Options{}).Transform(context.Background(), string(src), path)
	require.NoError(t, err)
	require.Contains(t, out, "React.createElement")
	require.Contains(t, out, `"greeting"`)
	require.NotContains(t, out, "<div")
}

func TestScript_UnresolvedImportFails(t *testing.T) {
	dir := writeSources(t, map[string]string{
		"main.js": `import { x } from "./missing.js";
console.log(x);
`,
	})
	path := filepath.Join(dir, "main.js")
	src, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = newScriptTransformer(Options{}).Transform(context.Background(), string(src), path)
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryTransform))
	file, ok := ferrors.FileOf(err)
	require.True(t, ok)
	require.Equal(t, path, file)
	require.Contains(t, err.Error(), "missing.js")
}

func TestStyle_InlinesImports(t *testing.T) {
	dir := writeSources(t, map[string]string{
		"a.css": `@import "./b.css";

.page-a {
  color: red;
}
`,
		"b.css": `.page-b {
  margin: 0px;
}
`,
	})
	path := filepath.Join(dir, "a.css")
	src, err := os.ReadFile(path)
	require.NoError(t, err)

	reg := NewRegistry(Options{}, nil)
	out, ext, err := reg.Apply(context.Background(), string(src), path)
	require.NoError(t, err)

	require.Equal(t, ExtCSS, ext)
	require.NotContains(t, out, "@import")
	require.Contains(t, out, ".page-b{")
	require.Contains(t, out, ".page-a{color:red}")
	require.Less(t, strings.Index(out, ".page-b"), strings.Index(out, ".page-a"))
}

func TestStyle_KeepsAssetReferences(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.css")

	out, err := newStyleTransformer(Options{}).Transform(context.Background(), `.hero { background: url("img/hero.png"); }`, path)
	require.NoError(t, err)
	require.Contains(t, out, "img/hero.png")
}
