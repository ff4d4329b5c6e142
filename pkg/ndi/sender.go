package ndi

import (
	"fmt"
	"time"
)

// Sender advertises one source and pushes frames to whoever connects.
type Sender struct {
	lib  *Library
	inst uintptr
}

func (lib *Library) bindSend() error {
	if lib.sendGetTally != nil {
		return nil
	}
	if err := lib.register(&lib.sendCreate, "NDIlib_send_create"); err != nil {
		return err
	}
	if err := lib.register(&lib.sendDestroy, "NDIlib_send_destroy"); err != nil {
		return err
	}
	if err := lib.register(&lib.sendSendVideo, "NDIlib_send_send_video_v2"); err != nil {
		return err
	}
	if err := lib.register(&lib.sendSendAudio, "NDIlib_send_send_audio_v3"); err != nil {
		return err
	}
	return lib.register(&lib.sendGetTally, "NDIlib_send_get_tally")
}

// NewSender creates a sender named name, optionally scoped to groups. The
// clock flags make the respective Send call pace itself to the frame rate.
func (lib *Library) NewSender(name, groups string, clockVideo, clockAudio bool) (*Sender, error) {
	if err := lib.bindSend(); err != nil {
		return nil, err
	}
	inst := lib.sendCreate(&sendCreateSettings{
		name:       cString(name),
		groups:     cString(groups),
		clockVideo: clockVideo,
		clockAudio: clockAudio,
	})
	if inst == 0 {
		return nil, fmt.Errorf("%w: sender %q", ErrCreateFailed, name)
	}
	return &Sender{lib: lib, inst: inst}, nil
}

// SendVideo submits one frame. The buffer is only borrowed for the duration
// of the call.
func (s *Sender) SendVideo(frame *VideoFrame) {
	s.lib.sendSendVideo(s.inst, frame)
}

func (s *Sender) SendAudio(frame *AudioFrame) {
	s.lib.sendSendAudio(s.inst, frame)
}

// Tally reports the merged tally of all connected receivers. False means
// nothing changed before the timeout.
func (s *Sender) Tally(timeout time.Duration) (Tally, bool) {
	var t Tally
	changed := s.lib.sendGetTally(s.inst, &t, uint32(timeout.Milliseconds()))
	return t, changed
}

func (s *Sender) Close() {
	if s.inst != 0 {
		s.lib.sendDestroy(s.inst)
		s.inst = 0
	}
}
