package devserver

import (
	"mime"
	"net/http"
	"path"
	"strings"

	"git.home.luguber.info/inful/pub/internal/compiler"
)

const (
	notFoundBody = "404"
	defaultMIME  = "text/plain; charset=utf-8"
	markupExt    = ".html"
	indexSlug    = "/index.html"
)

// Handler serves artifacts from a Store.
type Handler struct {
	store *Store
	// script is injected into markup responses; empty disables injection.
	script string
}

// NewHandler creates a Handler. When liveReloadScript is not empty it is
// injected into every markup response.
func NewHandler(store *Store, liveReloadScript string) *Handler {
	return &Handler{store: store, script: liveReloadScript}
}

// Resolve finds the artifact for a request path: "/" and directory paths map
// to their index document, and a path without the markup extension falls back
// to the ".html" artifact of the same name.
func Resolve(m compiler.ArtifactMap, reqPath string) (*compiler.Artifact, bool) {
	if reqPath == "" || reqPath == "/" {
		return m.Get(indexSlug)
	}
	if !strings.HasPrefix(reqPath, "/") {
		reqPath = "/" + reqPath
	}
	if a, ok := m.Get(reqPath); ok {
		return a, true
	}
	if strings.HasSuffix(reqPath, "/") {
		return m.Get(reqPath + "index.html")
	}
	if path.Ext(reqPath) != markupExt {
		if a, ok := m.Get(reqPath + markupExt); ok {
			return a, true
		}
		return m.Get(reqPath + "/index.html")
	}
	return nil, false
}

// ContentType returns the MIME type for a slug, falling back to plain text.
func ContentType(slug string) string {
	if t := mime.TypeByExtension(path.Ext(path.Base(slug))); t != "" {
		return t
	}
	return defaultMIME
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	art, ok := Resolve(h.store.Load(), r.URL.Path)
	if !ok {
		w.Header().Set("Content-Type", defaultMIME)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(notFoundBody))
		return
	}

	etag := `"` + art.Fingerprint + `"`
	w.Header().Set("Content-Type", ContentType(art.Slug))
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("ETag", etag)
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	body := art.Content
	if h.script != "" && path.Ext(art.Slug) == markupExt {
		body = InjectScript(body, h.script)
	}
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write([]byte(body))
}

// InjectScript places script before the closing body tag, or appends it when
// the document has none.
func InjectScript(doc, script string) string {
	tag := "<script>" + script + "</script>"
	if i := strings.LastIndex(strings.ToLower(doc), "</body>"); i >= 0 {
		return doc[:i] + tag + doc[i:]
	}
	return doc + tag
}
