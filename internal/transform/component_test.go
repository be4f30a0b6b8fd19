package transform

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const counterComponent = `---
label: Clicks
---
<head><meta name="description" content="counter"/></head>
<style>
.card { padding: 4px; }
</style>
<div class="card"><a href="more.html">{{ .label }}</a></div>
<script>
const root = document.getElementById(__PUB_ROOT__);
root.dataset.ready = "yes";
</script>
`

func TestSplitComponent(t *testing.T) {
	parts, err := SplitComponent(counterComponent)
	require.NoError(t, err)

	label, ok := parts.Props.Get("label")
	require.True(t, ok)
	require.Equal(t, "Clicks", label)
	require.Equal(t, `<meta name="description" content="counter"/>`, parts.Head)
	require.Contains(t, parts.Style, ".card { padding: 4px; }")
	require.Contains(t, parts.Script, "__PUB_ROOT__")
	require.False(t, parts.ScriptTSX)
	require.Equal(t, `<div class="card"><a href="more.html">{{ .label }}</a></div>`, parts.Markup)
}

func TestSplitComponent_NestedScriptStaysInMarkup(t *testing.T) {
	parts, err := SplitComponent(`<div><script>inline()</script></div><script lang="ts">let x: number = 1</script>`)
	require.NoError(t, err)
	require.Equal(t, `<div><script>inline()</script></div>`, parts.Markup)
	require.Equal(t, "let x: number = 1", parts.Script)
	require.True(t, parts.ScriptTSX)
}

func TestComponentID_Stable(t *testing.T) {
	require.Equal(t, ComponentID("a"), ComponentID("a"))
	require.NotEqual(t, ComponentID("a"), ComponentID("b"))
}

func TestComponent_ChainedThroughMarkup(t *testing.T) {
	r := NewRegistry(Options{
		BaseURL: "/site/",
		Layout:  mustLayout(t, `<!DOCTYPE html><html><head>{{ .head }}</head><body><main>{{ .content }}</main></body></html>`),
	}, nil)

	out, ext, err := r.Apply(context.Background(), counterComponent, "/src/counter.component")
	require.NoError(t, err)
	require.Equal(t, ExtHTML, ext)

	id := ComponentID(counterComponent)
	require.Equal(t, 1, strings.Count(out, "<main>"), "component must not be wrapped twice")
	require.Contains(t, out, `id="pub-root-`+id+`"`)
	require.Contains(t, out, `id="pub-styles-`+id+`"`)
	require.Contains(t, out, `id="pub-script-`+id+`"`)
	require.Contains(t, out, `"pub-root-`+id+`"`)
	require.NotContains(t, out, "__PUB_ROOT__")
	require.Contains(t, out, "padding:4px")
	require.Contains(t, out, `href="/site/more.html"`)
	require.Contains(t, out, ">Clicks</a>")
	require.Contains(t, out, `name="description"`)
}

func TestComponent_WithoutLayoutIsCompleteDocument(t *testing.T) {
	tr := newComponentTransformer(Options{})
	out, err := tr.Transform(context.Background(), `<p>{{ .title }}</p>`, "/src/hello-world.component")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"), out)
	require.Contains(t, out, "<p>Hello World</p>")
	require.NotContains(t, out, "<script")
}

func TestComponent_BadScriptFails(t *testing.T) {
	tr := newComponentTransformer(Options{})
	_, err := tr.Transform(context.Background(), "<p>x</p><script>const = ;</script>", "/src/bad.component")
	require.Error(t, err)
}
