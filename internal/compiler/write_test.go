package compiler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrite_MirrorsSourceTree(t *testing.T) {
	root := t.TempDir()
	dest := t.TempDir()
	writeTree(t, root, map[string]string{
		"index.html":      "<p>home</p>",
		"docs/guide.md":   "# Guide\n",
		"img/logo.svg":    "<svg/>",
	})

	res, err := Compile(context.Background(), root, dest, Options{DisableMinify: true, Logger: quietLogger()})
	require.NoError(t, err)
	require.NoError(t, Write(res.Artifacts))

	for _, rel := range []string{"index.html", "docs/guide.html", "img/logo.svg"} {
		_, err := os.Stat(filepath.Join(dest, filepath.FromSlash(rel)))
		require.NoError(t, err, rel)
	}
	data, err := os.ReadFile(filepath.Join(dest, "img", "logo.svg"))
	require.NoError(t, err)
	require.Equal(t, "<svg/>", string(data))
}

func TestWrite_SkipsArtifactsWithoutDistPath(t *testing.T) {
	require.NoError(t, Write(ArtifactMap{"/a.html": {Slug: "/a.html", Content: "x"}}))
}

func TestWrite_ReportsFailures(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := Write(ArtifactMap{
		"/ok.html":  {Slug: "/ok.html", Content: "ok", DistPath: filepath.Join(dir, "ok.html")},
		"/bad.html": {Slug: "/bad.html", Content: "bad", DistPath: filepath.Join(blocker, "bad.html")},
	})
	require.Error(t, err)

	var fe *FileError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, filepath.Join(blocker, "bad.html"), fe.Path)
	_, statErr := os.Stat(filepath.Join(dir, "ok.html"))
	require.NoError(t, statErr)
}

func TestSize(t *testing.T) {
	cases := map[int64]string{
		0:          "0 B ",
		999:        "999 B ",
		1000:       "1.00 kB",
		1500:       "1.50 kB",
		12345:      "12.30 kB",
		1500000:    "1.50 MB",
		2500000000: "2.50 GB",
	}
	for in, want := range cases {
		require.Equal(t, want, Size(in), "size(%d)", in)
	}
}

func TestArtifactMap_Digest(t *testing.T) {
	a := ArtifactMap{"/a.html": {Slug: "/a.html", Fingerprint: "1"}, "/b.css": {Slug: "/b.css", Fingerprint: "2"}}
	b := ArtifactMap{"/b.css": {Slug: "/b.css", Fingerprint: "2"}, "/a.html": {Slug: "/a.html", Fingerprint: "1"}}
	c := ArtifactMap{"/a.html": {Slug: "/a.html", Fingerprint: "1"}, "/b.css": {Slug: "/b.css", Fingerprint: "3"}}

	require.Equal(t, a.Digest(), b.Digest())
	require.NotEqual(t, a.Digest(), c.Digest())
}

func TestSummarize(t *testing.T) {
	res := &Result{
		BuildID:   "id-1",
		Artifacts: ArtifactMap{"/a.html": {Slug: "/a.html", Content: "12345"}},
		Failures:  []*FileError{{Path: "/x", Err: os.ErrNotExist}},
	}
	s := Summarize(TriggerBuild, res.StartedAt, res, nil)
	require.Equal(t, "id-1", s.BuildID)
	require.Equal(t, 1, s.Artifacts)
	require.Equal(t, 1, s.Failures)
	require.Equal(t, int64(5), s.Bytes)
	require.NotEmpty(t, s.Digest)
	require.Empty(t, s.Error)

	failed := Summarize(TriggerWatch, res.StartedAt, nil, os.ErrPermission)
	require.Equal(t, os.ErrPermission.Error(), failed.Error)
	require.Equal(t, TriggerWatch, failed.Trigger)
}
