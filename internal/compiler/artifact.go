package compiler

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Artifact is one compiled output.
type Artifact struct {
	// Slug is the URL path of the artifact, e.g. "/blog/post.html".
	Slug string
	// Content is the artifact body.
	Content string
	// SourcePath is the absolute path of the source file.
	SourcePath string
	// DistPath is the output file path; empty unless a destination was given.
	DistPath string
	// Fingerprint identifies Content and is used as the HTTP entity tag.
	Fingerprint string
}

// Size is the content length in bytes.
func (a *Artifact) Size() int64 { return int64(len(a.Content)) }

// ArtifactMap maps slugs to artifacts. A map is built once per compile pass
// and never modified afterwards.
type ArtifactMap map[string]*Artifact

// Get returns the artifact for slug.
func (m ArtifactMap) Get(slug string) (*Artifact, bool) {
	a, ok := m[slug]
	return a, ok
}

// Slugs returns all slugs in sorted order.
func (m ArtifactMap) Slugs() []string {
	slugs := make([]string, 0, len(m))
	for s := range m {
		slugs = append(slugs, s)
	}
	sort.Strings(slugs)
	return slugs
}

// Digest identifies the map's slugs and contents. Two maps with equal
// digests serve the same site.
func (m ArtifactMap) Digest() string {
	h := xxhash.New()
	for _, slug := range m.Slugs() {
		_, _ = h.WriteString(slug)
		_, _ = h.WriteString("\x00")
		_, _ = h.WriteString(m[slug].Fingerprint)
		_, _ = h.WriteString("\x00")
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

// TotalSize is the sum of all artifact sizes.
func (m ArtifactMap) TotalSize() int64 {
	var n int64
	for _, a := range m {
		n += a.Size()
	}
	return n
}

// FileError is a failure confined to one source file.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }
