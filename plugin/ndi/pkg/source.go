package ndi

import (
	"fmt"
	"time"

	ndi "github.com/MartinSandstromRimsbo/DistroAV/pkg/ndi"
	"github.com/MartinSandstromRimsbo/DistroAV/pkg/task"
)

// Capture connects to one network source and hands every frame to the
// caller's handlers until stopped. Frames are runtime-owned; handlers must
// not retain them past the callback.
type Capture struct {
	task.Task
	Runtime     *ndi.Runtime
	Source      ndi.Source
	Name        string
	ColorFormat int32
	Bandwidth   int32
	Timeout     time.Duration
	OnVideo     func(*ndi.VideoFrame)
	OnAudio     func(*ndi.AudioFrame)

	recv *ndi.Receiver
}

func (c *Capture) Start() error {
	lib := c.Runtime.Library()
	if lib == nil {
		return ndi.ErrNotLoaded
	}
	if c.Bandwidth == 0 {
		c.Bandwidth = ndi.BandwidthHighest
	}
	recv, err := lib.NewReceiver(ndi.ReceiverSettings{
		Source:           c.Source,
		ColorFormat:      c.ColorFormat,
		Bandwidth:        c.Bandwidth,
		AllowVideoFields: true,
		Name:             c.Name,
	})
	if err != nil {
		return err
	}
	c.recv = recv
	c.Info("capture up", "source", c.Source.Name)
	return nil
}

func (c *Capture) Go() error {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 100 * time.Millisecond
	}
	var video ndi.VideoFrame
	var audio ndi.AudioFrame
	for {
		select {
		case <-c.Done():
			return c.StopReason()
		default:
		}
		switch c.recv.Capture(&video, &audio, timeout) {
		case ndi.FrameTypeVideo:
			if c.OnVideo != nil {
				c.OnVideo(&video)
			}
			c.recv.FreeVideo(&video)
		case ndi.FrameTypeAudio:
			if c.OnAudio != nil {
				c.OnAudio(&audio)
			}
			c.recv.FreeAudio(&audio)
		case ndi.FrameTypeError:
			return fmt.Errorf("capture from %q reported an error", c.Source.Name)
		}
	}
}

// Connect retargets the running receiver to another source.
func (c *Capture) Connect(source ndi.Source) {
	c.recv.Connect(source)
}

func (c *Capture) Dispose() {
	if c.recv != nil {
		c.recv.Close()
		c.recv = nil
	}
}
