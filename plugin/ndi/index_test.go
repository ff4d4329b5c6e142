package plugin_ndi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MartinSandstromRimsbo/DistroAV"
	"github.com/MartinSandstromRimsbo/DistroAV/pkg"
	"github.com/MartinSandstromRimsbo/DistroAV/pkg/ndi"
)

type fakeImage struct {
	version      string
	initOK       bool
	path         string
	initCalls    int
	destroyCalls int
	closeCalls   int
}

func (f *fakeImage) Initialize() bool     { f.initCalls++; return f.initOK }
func (f *fakeImage) Destroy()             { f.destroyCalls++ }
func (f *fakeImage) Version() string      { return f.version }
func (f *fakeImage) IsSupportedCPU() bool { return true }
func (f *fakeImage) Path() string         { return f.path }
func (f *fakeImage) Close() error         { f.closeCalls++; return nil }

// plantRuntime writes stub files under every platform's library name so the
// locator finds one regardless of OS.
func plantRuntime(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{"libndi.so.6", "libndi.dylib", "Processing.NDI.Lib.x64.dll"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("stub"), 0o644))
	}
	return dir
}

func testConf(dir string) map[string]any {
	return map[string]any{
		"global": map[string]any{"listenaddr": "", "loglevel": "error"},
		"ndi":    map[string]any{"searchdirs": []string{dir}},
	}
}

func runHost(t *testing.T, conf map[string]any) (*distroav.Host, context.CancelFunc, chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	h := distroav.NewHost()
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx, conf) }()
	return h, cancel, done
}

func stopHost(t *testing.T, cancel context.CancelFunc, done chan error) {
	t.Helper()
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("host did not stop")
	}
}

func waitCapabilities(t *testing.T, h *distroav.Host, cancel context.CancelFunc) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for len(h.Capabilities()) < 3 {
		if time.Now().After(deadline) {
			cancel()
			t.Fatal("capabilities never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func ndiPlugin(h *distroav.Host) *distroav.Plugin {
	for _, p := range h.Plugins {
		if p.Meta.Name == "NDI" {
			return p
		}
	}
	return nil
}

func getJSON(t *testing.T, url string, out any) {
	t.Helper()
	res, err := http.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.NoError(t, json.NewDecoder(res.Body).Decode(out))
}

func TestPluginLoadSuccess(t *testing.T) {
	dir := plantRuntime(t)
	fake := &fakeImage{version: "NDI SDK LINUX 14:30:00 6.1.1.0", initOK: true}
	openImage = func(path string) (ndi.Image, error) {
		fake.path = path
		return fake, nil
	}
	t.Cleanup(func() { openImage = nil })

	h, cancel, done := runHost(t, testConf(dir))
	waitCapabilities(t, h, cancel)

	kinds := map[string]string{}
	for _, c := range h.Capabilities() {
		assert.Equal(t, "NDI", c.Plugin)
		kinds[c.ID] = c.Kind
	}
	assert.Equal(t, map[string]string{
		"ndi_source":                 distroav.CapabilitySource,
		"ndi_output":                 distroav.CapabilityOutput,
		"premultiplied_alpha_filter": distroav.CapabilityFilter,
	}, kinds)
	assert.Equal(t, 1, fake.initCalls)

	srv := httptest.NewServer(h.Engine.GetHandler())
	var status map[string]any
	getJSON(t, srv.URL+"/ndi/api/status", &status)
	assert.Equal(t, "active", status["state"])
	assert.Equal(t, "6.1.1.0", status["version"])
	assert.NotEmpty(t, status["path"])
	srv.Close()

	stopHost(t, cancel, done)
	assert.Equal(t, 1, fake.destroyCalls)
	assert.Equal(t, 1, fake.closeCalls)
}

func TestPluginDeclinedOnOldRuntime(t *testing.T) {
	dir := plantRuntime(t)
	fake := &fakeImage{version: "NDI 5.6.0", initOK: true}
	openImage = func(path string) (ndi.Image, error) {
		fake.path = path
		return fake, nil
	}
	t.Cleanup(func() { openImage = nil })

	h, cancel, done := runHost(t, testConf(dir))
	time.Sleep(300 * time.Millisecond)
	assert.False(t, h.IsStopped())
	stopHost(t, cancel, done)

	assert.Empty(t, h.Capabilities())
	p := ndiPlugin(h)
	require.NotNil(t, p)
	assert.True(t, p.StopReasonIs(pkg.ErrPluginDeclined))
	assert.ErrorIs(t, p.StopReason(), ndi.ErrVersionUnsupported)
	assert.Equal(t, 1, fake.destroyCalls)
	assert.Equal(t, 1, fake.closeCalls)

	srv := httptest.NewServer(h.Engine.GetHandler())
	defer srv.Close()
	var status map[string]any
	getJSON(t, srv.URL+"/ndi/api/status", &status)
	assert.Equal(t, "version-unsupported", status["state"])
}

func TestPluginDeclinedWhenRuntimeUnreadable(t *testing.T) {
	dir := plantRuntime(t)
	t.Setenv(ndi.EnvRuntimeDir, dir)

	h, cancel, done := runHost(t, testConf(dir))
	time.Sleep(300 * time.Millisecond)
	assert.False(t, h.IsStopped())
	stopHost(t, cancel, done)

	assert.Empty(t, h.Capabilities())
	p := ndiPlugin(h)
	require.NotNil(t, p)
	assert.True(t, p.StopReasonIs(pkg.ErrPluginDeclined))
	assert.ErrorIs(t, p.StopReason(), ndi.ErrLoadFailed)

	srv := httptest.NewServer(h.Engine.GetHandler())
	defer srv.Close()
	var infos []struct {
		Name  string `json:"name"`
		State string `json:"state"`
	}
	getJSON(t, srv.URL+"/api/plugins", &infos)
	states := map[string]string{}
	for _, info := range infos {
		states[info.Name] = info.State
	}
	assert.Equal(t, "declined", states["NDI"])
}
