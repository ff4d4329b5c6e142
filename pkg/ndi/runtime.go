package ndi

import (
	"fmt"
	"log/slog"
	"sync/atomic"
)

// MinRuntimeVersion is the oldest runtime the bridge will drive.
const MinRuntimeVersion = "6.0.0"

// State tracks where the runtime is in its lifecycle. Reads are safe from
// any goroutine; transitions happen on the caller of Load and Unload.
type State int32

const (
	StateUnloaded State = iota
	StateLoading
	StateLoadFailed
	StateInitFailed
	StateVersionUnsupported
	StateLoaded
	StateActive
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateLoadFailed:
		return "load-failed"
	case StateInitFailed:
		return "init-failed"
	case StateVersionUnsupported:
		return "version-unsupported"
	case StateLoaded:
		return "loaded"
	case StateActive:
		return "active"
	}
	return "unknown"
}

// Interface is the slice of the entry table the lifecycle drives.
type Interface interface {
	Initialize() bool
	Destroy()
	Version() string
	IsSupportedCPU() bool
}

// Image is a mapped runtime: the entry table plus the handle behind it.
type Image interface {
	Interface
	Path() string
	Close() error
}

// Runtime owns one runtime image from discovery to release.
type Runtime struct {
	Locator    *Locator
	MinVersion string
	Logger     *slog.Logger
	// OpenImage maps the image at path. Replaceable for hosts that bring
	// their own runtime binding.
	OpenImage func(path string) (Image, error)

	img     Image
	path    string
	version string
	state   atomic.Int32
}

func NewRuntime(locator *Locator, logger *slog.Logger) *Runtime {
	if locator == nil {
		locator = &Locator{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runtime{
		Locator:    locator,
		MinVersion: MinRuntimeVersion,
		Logger:     logger,
		OpenImage:  func(path string) (Image, error) { return Open(path) },
	}
}

func (r *Runtime) State() State { return State(r.state.Load()) }

func (r *Runtime) setState(s State) { r.state.Store(int32(s)) }

// Version reports the extracted runtime version, empty until loaded.
func (r *Runtime) Version() string { return r.version }

// Path reports where the image was loaded from, empty until loaded.
func (r *Runtime) Path() string { return r.path }

// Library returns the real mapped image, or nil when the runtime is not
// loaded or drives an injected image.
func (r *Runtime) Library() *Library {
	lib, _ := r.img.(*Library)
	return lib
}

// Load walks the full bring-up: locate, map, initialize, validate the
// version. Every failure releases whatever was acquired before returning,
// so a failed Load can simply be retried.
func (r *Runtime) Load() error {
	if s := r.State(); s == StateLoaded || s == StateActive {
		return ErrAlreadyLoaded
	}
	r.setState(StateLoading)
	path, ok := r.Locator.Locate()
	if !ok {
		r.setState(StateLoadFailed)
		return fmt.Errorf("%w: %s", ErrLibraryNotFound, r.Locator.strategy().LibraryName())
	}
	r.Logger.Debug("ndi runtime found", "path", path)
	img, err := r.OpenImage(path)
	if err != nil {
		r.setState(StateLoadFailed)
		return err
	}
	r.img = img
	r.path = path
	if !img.Initialize() {
		detail := "runtime refused to initialize"
		if !img.IsSupportedCPU() {
			detail = "cpu not supported by runtime"
		}
		r.release(StateInitFailed, false)
		return fmt.Errorf("%w: %s", ErrInitializationFailed, detail)
	}
	reported := img.Version()
	v := ExtractVersion(reported)
	if !IsVersionSupported(v, r.MinVersion) {
		r.release(StateVersionUnsupported, true)
		return fmt.Errorf("%w: runtime reports %q, need %s or newer", ErrVersionUnsupported, reported, r.MinVersion)
	}
	r.version = v
	r.setState(StateLoaded)
	r.Logger.Info("ndi runtime ready", "path", path, "version", v)
	return nil
}

// Activate marks the runtime as in service. It only moves forward from
// Loaded; anything else is a caller ordering bug.
func (r *Runtime) Activate() error {
	if s := r.State(); s != StateLoaded && s != StateActive {
		return ErrNotLoaded
	}
	r.setState(StateActive)
	return nil
}

// Unload tears the runtime down and is safe to call from any state, any
// number of times.
func (r *Runtime) Unload() {
	if r.img == nil {
		r.setState(StateUnloaded)
		return
	}
	s := r.State()
	r.release(StateUnloaded, s == StateLoaded || s == StateActive)
	r.Logger.Info("ndi runtime released", "path", r.path)
	r.path = ""
	r.version = ""
}

func (r *Runtime) release(next State, destroy bool) {
	if destroy {
		r.img.Destroy()
	}
	if err := r.img.Close(); err != nil {
		r.Logger.Warn("ndi runtime close failed", "path", r.path, "error", err)
	}
	r.img = nil
	r.setState(next)
}
