package ndi

import (
	"fmt"
	"time"
)

// ReceiverSettings selects what a receiver connects to and how captured
// frames are delivered.
type ReceiverSettings struct {
	Source           Source
	ColorFormat      int32
	Bandwidth        int32
	AllowVideoFields bool
	Name             string
}

// Receiver pulls frames from one source.
type Receiver struct {
	lib  *Library
	inst uintptr
}

func (lib *Library) bindRecv() error {
	if lib.recvFreeAudio != nil {
		return nil
	}
	if err := lib.register(&lib.recvCreateV3, "NDIlib_recv_create_v3"); err != nil {
		return err
	}
	if err := lib.register(&lib.recvDestroy, "NDIlib_recv_destroy"); err != nil {
		return err
	}
	if err := lib.register(&lib.recvConnect, "NDIlib_recv_connect"); err != nil {
		return err
	}
	if err := lib.register(&lib.recvCaptureV3, "NDIlib_recv_capture_v3"); err != nil {
		return err
	}
	if err := lib.register(&lib.recvFreeVideo, "NDIlib_recv_free_video_v2"); err != nil {
		return err
	}
	return lib.register(&lib.recvFreeAudio, "NDIlib_recv_free_audio_v3")
}

func (lib *Library) NewReceiver(settings ReceiverSettings) (*Receiver, error) {
	if err := lib.bindRecv(); err != nil {
		return nil, err
	}
	inst := lib.recvCreateV3(&recvCreateSettings{
		source: sourceRaw{
			name:       cString(settings.Source.Name),
			urlAddress: cString(settings.Source.URL),
		},
		colorFormat:      settings.ColorFormat,
		bandwidth:        settings.Bandwidth,
		allowVideoFields: settings.AllowVideoFields,
		recvName:         cString(settings.Name),
	})
	if inst == 0 {
		return nil, fmt.Errorf("%w: receiver for %q", ErrCreateFailed, settings.Source.Name)
	}
	return &Receiver{lib: lib, inst: inst}, nil
}

// Connect switches the receiver to another source without recreating it.
func (r *Receiver) Connect(source Source) {
	r.lib.recvConnect(r.inst, &sourceRaw{
		name:       cString(source.Name),
		urlAddress: cString(source.URL),
	})
}

func (r *Receiver) Disconnect() {
	r.lib.recvConnect(r.inst, nil)
}

// Capture waits up to timeout for the next frame and reports its kind. A
// returned video or audio frame points at runtime-owned memory and must go
// back through FreeVideo or FreeAudio.
func (r *Receiver) Capture(video *VideoFrame, audio *AudioFrame, timeout time.Duration) int32 {
	return r.lib.recvCaptureV3(r.inst, video, audio, 0, uint32(timeout.Milliseconds()))
}

func (r *Receiver) FreeVideo(frame *VideoFrame) {
	r.lib.recvFreeVideo(r.inst, frame)
}

func (r *Receiver) FreeAudio(frame *AudioFrame) {
	r.lib.recvFreeAudio(r.inst, frame)
}

func (r *Receiver) Close() {
	if r.inst != 0 {
		r.lib.recvDestroy(r.inst)
		r.inst = 0
	}
}
