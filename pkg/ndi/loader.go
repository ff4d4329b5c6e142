package ndi

import (
	"fmt"
	"unsafe"

	"github.com/ebitengine/purego"
)

// EntrySymbol is the versioned export every v6 runtime provides. Calling it
// yields the function table that is the sole API surface from then on.
const EntrySymbol = "NDIlib_v6_load"

// The table begins with the stable v1.5 block: initialize, destroy, version,
// is_supported_CPU. Only this prefix is read by slot; the find/send/recv
// families are resolved through their exported names instead.
const coreTableSlots = 4

// Library is one mapped runtime image plus typed views over its entry table.
type Library struct {
	handle uintptr
	table  uintptr
	path   string
	closed bool

	initialize     func() bool
	destroy        func()
	version        func() string
	isSupportedCPU func() bool

	findCreateV2          func(settings *findCreateSettings) uintptr
	findDestroy           func(inst uintptr)
	findWaitForSources    func(inst uintptr, timeoutMs uint32) bool
	findGetCurrentSources func(inst uintptr, n *uint32) uintptr

	sendCreate    func(settings *sendCreateSettings) uintptr
	sendDestroy   func(inst uintptr)
	sendSendVideo func(inst uintptr, frame *VideoFrame)
	sendSendAudio func(inst uintptr, frame *AudioFrame)
	sendGetTally  func(inst uintptr, tally *Tally, timeoutMs uint32) bool

	recvCreateV3  func(settings *recvCreateSettings) uintptr
	recvDestroy   func(inst uintptr)
	recvConnect   func(inst uintptr, source *sourceRaw)
	recvCaptureV3 func(inst uintptr, video *VideoFrame, audio *AudioFrame, metadata uintptr, timeoutMs uint32) int32
	recvFreeVideo func(inst uintptr, frame *VideoFrame)
	recvFreeAudio func(inst uintptr, frame *AudioFrame)
}

// Open maps the shared library at path and resolves the versioned entry
// point. Nothing is retained on any failure branch: a handle that was
// already opened is released before the error returns.
func Open(path string) (*Library, error) {
	if path == "" {
		return nil, ErrLibraryNotFound
	}
	handle, err := openLibrary(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLoadFailed, path, err)
	}
	entry, err := lookupSymbol(handle, EntrySymbol)
	if err != nil {
		closeLibrary(handle)
		return nil, fmt.Errorf("%w: no %s in %s", ErrEntryPointMissing, EntrySymbol, path)
	}
	lib := &Library{handle: handle, path: path}
	lib.table, _, _ = purego.SyscallN(entry)
	if lib.table == 0 {
		closeLibrary(handle)
		return nil, fmt.Errorf("%w: %s returned no function table", ErrLoadFailed, EntrySymbol)
	}
	lib.bindCore()
	return lib, nil
}

func (lib *Library) bindCore() {
	slots := unsafe.Slice((*uintptr)(unsafe.Pointer(lib.table)), coreTableSlots)
	purego.RegisterFunc(&lib.initialize, slots[0])
	purego.RegisterFunc(&lib.destroy, slots[1])
	purego.RegisterFunc(&lib.version, slots[2])
	purego.RegisterFunc(&lib.isSupportedCPU, slots[3])
}

func (lib *Library) Path() string { return lib.path }

// Initialize runs the runtime's self test. False means the CPU lacks what
// the runtime needs.
func (lib *Library) Initialize() bool { return lib.initialize() }

func (lib *Library) Destroy() { lib.destroy() }

func (lib *Library) Version() string { return lib.version() }

func (lib *Library) IsSupportedCPU() bool { return lib.isSupportedCPU() }

// Close releases the image. Only the first call unmaps; later calls are
// no-ops so teardown may run from any state.
func (lib *Library) Close() error {
	if lib.closed {
		return nil
	}
	lib.closed = true
	err := closeLibrary(lib.handle)
	lib.handle = 0
	lib.table = 0
	return err
}

func (lib *Library) register(fptr any, name string) error {
	if lib.closed {
		return ErrNotLoaded
	}
	addr, err := lookupSymbol(lib.handle, name)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrEntryPointMissing, name)
	}
	purego.RegisterFunc(fptr, addr)
	return nil
}
