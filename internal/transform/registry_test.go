package transform

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func appendFunc(ext, suffix string) Func {
	return Func{Ext: ext, Fn: func(_ context.Context, content, _ string) (string, error) {
		return content + suffix, nil
	}}
}

func TestApply_UnregisteredPassesThrough(t *testing.T) {
	r := NewRegistry(Options{}, nil)
	out, ext, err := r.Apply(context.Background(), "\x89PNG", "/site/logo.png")
	require.NoError(t, err)
	require.Equal(t, "\x89PNG", out)
	require.Equal(t, ".png", ext)
}

func TestApply_ChainsAtMostOneHop(t *testing.T) {
	r := NewRegistry(Options{}, map[string]Transformer{
		".a": appendFunc(".b", "A"),
		".b": appendFunc(".c", "B"),
		".c": appendFunc(".c", "C"),
	})

	out, ext, err := r.Apply(context.Background(), "x", "/site/f.a")
	require.NoError(t, err)
	require.Equal(t, "xAB", out)
	require.Equal(t, ".b", ext)
}

func TestApply_SameExtensionDoesNotChain(t *testing.T) {
	r := NewRegistry(Options{}, map[string]Transformer{
		".b": appendFunc(".b", "B"),
	})
	out, ext, err := r.Apply(context.Background(), "x", "/site/f.b")
	require.NoError(t, err)
	require.Equal(t, "xB", out)
	require.Equal(t, ".b", ext)
}

func TestApply_EmptyOutputExtKeepsInput(t *testing.T) {
	r := NewRegistry(Options{}, map[string]Transformer{
		".txt": appendFunc("", "!"),
	})
	out, ext, err := r.Apply(context.Background(), "hi", "/site/a.txt")
	require.NoError(t, err)
	require.Equal(t, "hi!", out)
	require.Equal(t, ".txt", ext)
}

func TestApply_ErrorInEitherHop(t *testing.T) {
	boom := errors.New("boom")
	failing := Func{Ext: ".html", Fn: func(context.Context, string, string) (string, error) { return "", boom }}

	r := NewRegistry(Options{}, map[string]Transformer{".x": failing})
	_, _, err := r.Apply(context.Background(), "", "/site/a.x")
	require.ErrorIs(t, err, boom)

	r = NewRegistry(Options{}, map[string]Transformer{".x": appendFunc(".y", ""), ".y": failing})
	_, _, err = r.Apply(context.Background(), "", "/site/a.x")
	require.ErrorIs(t, err, boom)
}

func TestNewRegistry_Overrides(t *testing.T) {
	r := NewRegistry(Options{}, map[string]Transformer{
		".css": nil,
		".txt": appendFunc(".txt", ""),
	})

	_, ok := r.Lookup(".css")
	require.False(t, ok)
	_, ok = r.Lookup(".txt")
	require.True(t, ok)
	require.Equal(t, ".css", r.OutputExt(".css"))
	require.Equal(t, ExtModule, r.OutputExt(".ts"))
	require.Equal(t, ExtHTML, r.OutputExt(".component"))

	exts := r.Exts()
	require.Contains(t, exts, ".md")
	require.IsIncreasing(t, exts)
}

func TestTitle(t *testing.T) {
	require.Equal(t, "About Us", Title("/site/about-us.html"))
	require.Equal(t, "Getting Started", Title("docs/getting_started.md"))
	require.Equal(t, "Index", Title("index.html"))
}
