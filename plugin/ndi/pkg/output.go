package ndi

import (
	"time"

	ndi "github.com/MartinSandstromRimsbo/DistroAV/pkg/ndi"
	"github.com/MartinSandstromRimsbo/DistroAV/pkg/task"
)

// Output owns one sender for the lifetime of the task and polls its tally.
// Disabled tally aspects are masked before OnTally sees them.
type Output struct {
	task.Task
	Runtime      *ndi.Runtime
	Name         string
	Groups       string
	ClockVideo   bool
	ClockAudio   bool
	TallyProgram bool
	TallyPreview bool
	PollInterval time.Duration
	OnTally      func(ndi.Tally)

	sender *ndi.Sender
	last   ndi.Tally
	seen   bool
}

func (o *Output) Start() error {
	lib := o.Runtime.Library()
	if lib == nil {
		return ndi.ErrNotLoaded
	}
	sender, err := lib.NewSender(o.Name, o.Groups, o.ClockVideo, o.ClockAudio)
	if err != nil {
		return err
	}
	o.sender = sender
	o.Info("output up", "name", o.Name, "groups", o.Groups)
	return nil
}

func (o *Output) Go() error {
	if o.OnTally == nil || (!o.TallyProgram && !o.TallyPreview) {
		<-o.Done()
		return o.StopReason()
	}
	interval := o.PollInterval
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-o.Done():
			return o.StopReason()
		case <-ticker.C:
			tally, _ := o.sender.Tally(0)
			if !o.TallyProgram {
				tally.OnProgram = false
			}
			if !o.TallyPreview {
				tally.OnPreview = false
			}
			if o.seen && tally == o.last {
				continue
			}
			o.last, o.seen = tally, true
			o.OnTally(tally)
		}
	}
}

// SendVideo submits one frame to every connected receiver.
func (o *Output) SendVideo(frame *ndi.VideoFrame) {
	o.sender.SendVideo(frame)
}

func (o *Output) SendAudio(frame *ndi.AudioFrame) {
	o.sender.SendAudio(frame)
}

func (o *Output) Dispose() {
	if o.sender != nil {
		o.sender.Close()
		o.sender = nil
	}
}
