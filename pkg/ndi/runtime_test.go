package ndi

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeImage struct {
	version      string
	initOK       bool
	cpuOK        bool
	initCalls    int
	destroyCalls int
	closeCalls   int
}

func (f *fakeImage) Initialize() bool {
	f.initCalls++
	return f.initOK
}

func (f *fakeImage) Destroy() { f.destroyCalls++ }

func (f *fakeImage) Version() string { return f.version }

func (f *fakeImage) IsSupportedCPU() bool { return f.cpuOK }

func (f *fakeImage) Path() string { return "fake" }

func (f *fakeImage) Close() error {
	f.closeCalls++
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testLocator plants a dummy library file in a temp dir and pins the
// strategy to its name, so discovery behaves the same on every platform.
func testLocator(t *testing.T) *Locator {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "libfake.so"), []byte{0x7f}, 0o644))
	return &Locator{Strategy: fixedName{name: "libfake.so"}, ExtraDirs: []string{dir}}
}

func testRuntime(t *testing.T, img Image) *Runtime {
	t.Helper()
	rt := NewRuntime(testLocator(t), discardLogger())
	rt.OpenImage = func(string) (Image, error) { return img, nil }
	return rt
}

func TestRuntimeLoad(t *testing.T) {
	img := &fakeImage{version: "NDI SDK LINUX 14:30:00 6.1.1.0", initOK: true, cpuOK: true}
	rt := testRuntime(t, img)

	require.NoError(t, rt.Load())
	assert.Equal(t, StateLoaded, rt.State())
	assert.Equal(t, "6.1.1.0", rt.Version())
	assert.Equal(t, "libfake.so", filepath.Base(rt.Path()))
	assert.Nil(t, rt.Library())
	assert.Equal(t, 1, img.initCalls)

	require.NoError(t, rt.Activate())
	assert.Equal(t, StateActive, rt.State())

	assert.ErrorIs(t, rt.Load(), ErrAlreadyLoaded)
	assert.Equal(t, 1, img.initCalls)
}

func TestRuntimeLoadNotFound(t *testing.T) {
	rt := NewRuntime(&Locator{Strategy: fixedName{name: "libfake.so"}, ExtraDirs: []string{t.TempDir()}}, discardLogger())
	rt.OpenImage = func(string) (Image, error) {
		t.Fatal("open must not run when discovery fails")
		return nil, nil
	}

	assert.ErrorIs(t, rt.Load(), ErrLibraryNotFound)
	assert.Equal(t, StateLoadFailed, rt.State())
}

func TestRuntimeOpenError(t *testing.T) {
	rt := NewRuntime(testLocator(t), discardLogger())
	rt.OpenImage = func(path string) (Image, error) {
		return nil, errors.Join(ErrLoadFailed, errors.New(path))
	}

	assert.ErrorIs(t, rt.Load(), ErrLoadFailed)
	assert.Equal(t, StateLoadFailed, rt.State())
}

func TestRuntimeInitFailure(t *testing.T) {
	img := &fakeImage{version: "6.1.0", initOK: false, cpuOK: false}
	rt := testRuntime(t, img)

	assert.ErrorIs(t, rt.Load(), ErrInitializationFailed)
	assert.Equal(t, StateInitFailed, rt.State())
	assert.Zero(t, img.destroyCalls, "destroy pairs with a successful initialize")
	assert.Equal(t, 1, img.closeCalls)
}

func TestRuntimeVersionUnsupported(t *testing.T) {
	img := &fakeImage{version: "NDI 5.6.1", initOK: true, cpuOK: true}
	rt := testRuntime(t, img)

	assert.ErrorIs(t, rt.Load(), ErrVersionUnsupported)
	assert.Equal(t, StateVersionUnsupported, rt.State())
	assert.Equal(t, 1, img.destroyCalls)
	assert.Equal(t, 1, img.closeCalls)
	assert.Empty(t, rt.Version())
}

func TestRuntimeVersionGarbage(t *testing.T) {
	img := &fakeImage{version: "no digits here", initOK: true, cpuOK: true}
	rt := testRuntime(t, img)

	assert.ErrorIs(t, rt.Load(), ErrVersionUnsupported)
	assert.Equal(t, StateVersionUnsupported, rt.State())
}

func TestRuntimeUnload(t *testing.T) {
	img := &fakeImage{version: "6.0.0", initOK: true, cpuOK: true}
	rt := testRuntime(t, img)
	require.NoError(t, rt.Load())
	require.NoError(t, rt.Activate())

	rt.Unload()
	assert.Equal(t, StateUnloaded, rt.State())
	assert.Equal(t, 1, img.destroyCalls)
	assert.Equal(t, 1, img.closeCalls)
	assert.Empty(t, rt.Version())
	assert.Empty(t, rt.Path())

	rt.Unload()
	assert.Equal(t, 1, img.destroyCalls)
	assert.Equal(t, 1, img.closeCalls)
}

func TestRuntimeUnloadNeverLoaded(t *testing.T) {
	rt := NewRuntime(nil, discardLogger())
	rt.Unload()
	assert.Equal(t, StateUnloaded, rt.State())
}

func TestRuntimeActivateRequiresLoad(t *testing.T) {
	rt := NewRuntime(nil, discardLogger())
	assert.ErrorIs(t, rt.Activate(), ErrNotLoaded)
}

func TestRuntimeRetryAfterFailure(t *testing.T) {
	img := &fakeImage{version: "6.0.0", initOK: false, cpuOK: true}
	rt := testRuntime(t, img)
	require.ErrorIs(t, rt.Load(), ErrInitializationFailed)

	img.initOK = true
	require.NoError(t, rt.Load())
	assert.Equal(t, StateLoaded, rt.State())
	assert.Equal(t, 2, img.initCalls)
}
