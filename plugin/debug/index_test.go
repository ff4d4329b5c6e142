package plugin_debug

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MartinSandstromRimsbo/DistroAV"
)

func TestDebugChartsAndPprof(t *testing.T) {
	conf := map[string]any{
		"global": map[string]any{"listenaddr": "", "loglevel": "error"},
		"debug":  map[string]any{"chartperiod": "50ms"},
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := distroav.NewHost()
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx, conf) }()
	time.Sleep(400 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("host did not stop")
	}

	srv := httptest.NewServer(h.Engine.GetHandler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/debug/charts/data")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var data DataStorage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&data))
	assert.NotEmpty(t, data.BytesAllocated)
	assert.NotEmpty(t, data.Pprof)

	// /debug/pprof redirects to the index
	resp, err = http.Get(srv.URL + "/debug/pprof")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "goroutine"))
}
