package plugin_logrotate

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MartinSandstromRimsbo/DistroAV"
)

func TestLogRotateWritesFiles(t *testing.T) {
	dir := t.TempDir()
	conf := map[string]any{
		"global":    map[string]any{"listenaddr": "", "loglevel": "error"},
		"logrotate": map[string]any{"path": dir},
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := distroav.NewHost()
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx, conf) }()
	time.Sleep(300 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("host did not stop")
	}

	// the handler stays attached after shutdown, so this lands in the file
	h.Error("rotate probe")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}
