package devserver

import (
	"errors"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func wsURL(httpURL, path string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http") + path
}

func dialLiveReload(t *testing.T, url string, protocols ...string) *websocket.Conn {
	t.Helper()
	d := websocket.Dialer{Subprotocols: protocols, HandshakeTimeout: waitFor}
	conn, _, err := d.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestHub_BroadcastReachesClients(t *testing.T) {
	rec := &countingRecorder{}
	hub := NewHub(quietLogger(), rec)
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Shutdown()

	a := dialLiveReload(t, wsURL(srv.URL, LiveReloadPath), LiveReloadProtocol)
	b := dialLiveReload(t, wsURL(srv.URL, LiveReloadPath), LiveReloadProtocol)
	require.Equal(t, LiveReloadProtocol, a.Subprotocol())
	require.Eventually(t, func() bool { return hub.Clients() == 2 }, waitFor, tick)
	require.EqualValues(t, 2, rec.clients.Load())

	require.Equal(t, 2, hub.Broadcast(ReloadMessage))
	for _, c := range []*websocket.Conn{a, b} {
		require.NoError(t, c.SetReadDeadline(time.Now().Add(waitFor)))
		_, msg, err := c.ReadMessage()
		require.NoError(t, err)
		require.JSONEq(t, `{"type":"reload"}`, string(msg))
	}
	require.EqualValues(t, 1, rec.broadcasts.Load())
}

func TestHub_RejectsWrongSubprotocol(t *testing.T) {
	hub := NewHub(quietLogger(), nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	for _, protocols := range [][]string{nil, {"chat"}} {
		conn := dialLiveReload(t, wsURL(srv.URL, LiveReloadPath), protocols...)
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(waitFor)))
		_, _, err := conn.ReadMessage()
		require.Error(t, err)
		require.True(t, websocket.IsCloseError(err, websocket.CloseProtocolError), "got %v", err)
	}
	require.Equal(t, 0, hub.Clients())
}

func TestHub_PlainHTTPIsRefused(t *testing.T) {
	hub := NewHub(quietLogger(), nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + LiveReloadPath)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, 400, resp.StatusCode)
}

func TestHub_ShutdownDisconnects(t *testing.T) {
	hub := NewHub(quietLogger(), nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dialLiveReload(t, wsURL(srv.URL, LiveReloadPath), LiveReloadProtocol)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, waitFor, tick)

	hub.Shutdown()
	require.Equal(t, 0, hub.Clients())
	require.Equal(t, 0, hub.Broadcast(ReloadMessage))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(waitFor)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	var netErr net.Error
	require.False(t, errors.As(err, &netErr) && netErr.Timeout(), "expected close, got timeout")
}

func TestLiveReloadScript(t *testing.T) {
	require.Contains(t, LiveReloadScript, `"/_pub/livereload"`)
	require.Contains(t, LiveReloadScript, `"pub-livereload"`)
	require.Contains(t, LiveReloadScript, "setTimeout(connect, 1000)")
	require.Contains(t, LiveReloadScript, "<= 5")
}
