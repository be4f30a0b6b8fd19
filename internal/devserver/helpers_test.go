package devserver

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pub/internal/metrics"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

// countingRecorder counts the events the tests assert on.
type countingRecorder struct {
	metrics.NoopRecorder
	broadcasts atomic.Int64
	clients    atomic.Int64
}

func (c *countingRecorder) IncReloadBroadcast()        { c.broadcasts.Add(1) }
func (c *countingRecorder) SetLiveReloadClients(n int) { c.clients.Store(int64(n)) }

const (
	waitFor = 5 * time.Second
	tick    = 10 * time.Millisecond
)
