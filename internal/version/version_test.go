package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestString(t *testing.T) {
	require.Equal(t, Version, String())

	prevCommit, prevTime := GitCommit, BuildTime
	t.Cleanup(func() { GitCommit, BuildTime = prevCommit, prevTime })
	GitCommit, BuildTime = "abc1234", "2026-01-02"
	require.Equal(t, Version+" (abc1234, 2026-01-02)", String())
}
