package ndi

import (
	"fmt"
	"time"
	"unsafe"
)

// Finder watches the network for advertised sources.
type Finder struct {
	lib  *Library
	inst uintptr
}

// Binding is complete only when the family's last export resolved, so a
// partial failure is retried from scratch instead of being mistaken for done.
func (lib *Library) bindFind() error {
	if lib.findGetCurrentSources != nil {
		return nil
	}
	if err := lib.register(&lib.findCreateV2, "NDIlib_find_create_v2"); err != nil {
		return err
	}
	if err := lib.register(&lib.findDestroy, "NDIlib_find_destroy"); err != nil {
		return err
	}
	if err := lib.register(&lib.findWaitForSources, "NDIlib_find_wait_for_sources"); err != nil {
		return err
	}
	return lib.register(&lib.findGetCurrentSources, "NDIlib_find_get_current_sources")
}

// NewFinder starts discovery. groups and extraIPs may be empty to accept the
// runtime defaults.
func (lib *Library) NewFinder(showLocalSources bool, groups, extraIPs string) (*Finder, error) {
	if err := lib.bindFind(); err != nil {
		return nil, err
	}
	inst := lib.findCreateV2(&findCreateSettings{
		showLocalSources: showLocalSources,
		groups:           cString(groups),
		extraIPs:         cString(extraIPs),
	})
	if inst == 0 {
		return nil, fmt.Errorf("%w: finder", ErrCreateFailed)
	}
	return &Finder{lib: lib, inst: inst}, nil
}

// WaitForSources blocks until the source list changes or the timeout
// passes. True means the list changed.
func (f *Finder) WaitForSources(timeout time.Duration) bool {
	return f.lib.findWaitForSources(f.inst, uint32(timeout.Milliseconds()))
}

// Sources copies the current source list out of runtime-owned memory. The
// returned slice stays valid after the next WaitForSources call.
func (f *Finder) Sources() []Source {
	var n uint32
	raw := f.lib.findGetCurrentSources(f.inst, &n)
	if raw == 0 || n == 0 {
		return nil
	}
	entries := unsafe.Slice((*sourceRaw)(unsafe.Pointer(raw)), n)
	out := make([]Source, n)
	for i, e := range entries {
		out[i] = Source{Name: goString(e.name), URL: goString(e.urlAddress)}
	}
	return out
}

func (f *Finder) Close() {
	if f.inst != 0 {
		f.lib.findDestroy(f.inst)
		f.inst = 0
	}
}
