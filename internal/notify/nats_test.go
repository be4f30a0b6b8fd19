package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pub/internal/compiler"
	ferrors "git.home.luguber.info/inful/pub/internal/foundation/errors"
)

func TestEncode(t *testing.T) {
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	data, err := Encode(compiler.Summary{
		BuildID: "b1", Trigger: compiler.TriggerWatch, StartedAt: started, Artifacts: 4, Digest: "d",
	})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	require.Equal(t, EventCompleted, got["type"])
	require.Equal(t, "b1", got["build_id"])
	require.Equal(t, "watch", got["trigger"])
	require.EqualValues(t, 4, got["artifacts"])
	require.Equal(t, "2026-03-01T12:00:00Z", got["started_at"])
	require.NotContains(t, got, "error")

	data, err = Encode(compiler.Summary{Error: "boom"})
	require.NoError(t, err)
	require.Contains(t, string(data), `"type":"build.failed"`)
	require.Contains(t, string(data), `"error":"boom"`)
}

func TestConnect_EmptyURLDisables(t *testing.T) {
	p, err := Connect("", "pub.builds", nil)
	require.NoError(t, err)
	require.Nil(t, p)

	require.NoError(t, p.Publish(context.Background(), compiler.Summary{}))
	p.Observer()(context.Background(), compiler.Summary{})
	p.Close()
}

func TestConnect_UnreachableIsNetworkError(t *testing.T) {
	_, err := Connect("nats://127.0.0.1:1", "pub.builds", nil)
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryNetwork))
}
