package ndi

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("stub"), 0o644))
}

func TestCandidateDirOrder(t *testing.T) {
	primary := t.TempDir()
	legacy := t.TempDir()
	extra := t.TempDir()
	t.Setenv(EnvRuntimeDir, primary)
	t.Setenv(EnvRedistFolder, legacy)
	l := Locator{ExtraDirs: []string{extra}}
	dirs := l.CandidateDirs()
	pi, li, ei := -1, -1, -1
	for i, d := range dirs {
		switch d {
		case primary:
			pi = i
		case legacy:
			li = i
		case extra:
			ei = i
		}
	}
	require.NotEqual(t, -1, pi)
	require.NotEqual(t, -1, li)
	require.NotEqual(t, -1, ei)
	assert.Equal(t, "Frameworks", filepath.Base(dirs[0]), "bundled dir outranks everything")
	assert.Less(t, pi, li, "runtime dir var must outrank the legacy redist var")
	assert.Less(t, li, ei, "extras come last")
	assert.Equal(t, extra, dirs[len(dirs)-1])
}

func TestCandidateDirsSkipEmptyEnv(t *testing.T) {
	t.Setenv(EnvRuntimeDir, "")
	t.Setenv(EnvRedistFolder, "")
	var l Locator
	for _, d := range l.CandidateDirs() {
		assert.NotEqual(t, "", d)
	}
}

func TestVersionedSelectKeepsGlobalMax(t *testing.T) {
	early := t.TempDir()
	late := t.TempDir()
	touch(t, filepath.Join(early, "libndi.so.5"))
	touch(t, filepath.Join(late, "libndi.so.6"))
	s := versionedName{pattern: soVersion}
	path, ok := s.Select([]string{early, late})
	require.True(t, ok)
	assert.Equal(t, filepath.Join(late, "libndi.so.6"), path)

	// A newer object earlier in the order wins over a later older one.
	touch(t, filepath.Join(early, "libndi.so.7"))
	path, ok = s.Select([]string{early, late})
	require.True(t, ok)
	assert.Equal(t, filepath.Join(early, "libndi.so.7"), path)
}

func TestVersionedSelectIsNumeric(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "libndi.so.9"))
	touch(t, filepath.Join(dir, "libndi.so.10"))
	s := versionedName{pattern: soVersion}
	path, ok := s.Select([]string{dir})
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "libndi.so.10"), path)
}

func TestVersionedSelectIgnoresNoise(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "libndi.so"))
	touch(t, filepath.Join(dir, "libndi.so.x"))
	touch(t, filepath.Join(dir, "other.so.9"))
	s := versionedName{pattern: soVersion}
	_, ok := s.Select([]string{dir})
	assert.False(t, ok)
}

func TestFixedSelectFirstMatchWins(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	touch(t, filepath.Join(first, "libndi.dylib"))
	touch(t, filepath.Join(second, "libndi.dylib"))
	s := fixedName{name: "libndi.dylib"}
	path, ok := s.Select([]string{first, second})
	require.True(t, ok)
	assert.Equal(t, filepath.Join(first, "libndi.dylib"), path)
}

func TestFixedSelectSkipsDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "libndi.dylib"), 0o755))
	s := fixedName{name: "libndi.dylib"}
	_, ok := s.Select([]string{dir})
	assert.False(t, ok)
}

func TestLocateUsesExtraDirs(t *testing.T) {
	t.Setenv(EnvRuntimeDir, "")
	t.Setenv(EnvRedistFolder, "")
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "example.stub"))
	l := Locator{Strategy: fixedName{name: "example.stub"}, ExtraDirs: []string{dir}}
	path, ok := l.Locate()
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "example.stub"), path)
}
