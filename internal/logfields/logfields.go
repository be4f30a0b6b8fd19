package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyPath       = "path"
	KeySlug       = "slug"
	KeyExt        = "ext"
	KeyLayout     = "layout"
	KeyOp         = "op"
	KeyArtifacts  = "artifacts"
	KeyFailures   = "failures"
	KeyDurationMS = "duration_ms"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyClients    = "clients"
	KeyAddr       = "addr"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr   { return slog.String(KeyBuildID, id) }
func Path(p string) slog.Attr       { return slog.String(KeyPath, p) }
func Slug(s string) slog.Attr       { return slog.String(KeySlug, s) }
func Ext(e string) slog.Attr        { return slog.String(KeyExt, e) }
func Layout(l string) slog.Attr     { return slog.String(KeyLayout, l) }
func Op(op string) slog.Attr        { return slog.String(KeyOp, op) }
func Artifacts(n int) slog.Attr     { return slog.Int(KeyArtifacts, n) }
func Failures(n int) slog.Attr      { return slog.Int(KeyFailures, n) }
func Method(m string) slog.Attr     { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr     { return slog.Int(KeyStatus, code) }
func Clients(n int) slog.Attr       { return slog.Int(KeyClients, n) }
func Addr(a string) slog.Attr       { return slog.String(KeyAddr, a) }
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
