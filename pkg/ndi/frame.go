package ndi

import "unsafe"

// FourCC codes for the frame payloads this package produces or accepts.
const (
	FourCCVideoUYVY = 'U' | 'Y'<<8 | 'V'<<16 | 'Y'<<24
	FourCCVideoBGRA = 'B' | 'G'<<8 | 'R'<<16 | 'A'<<24
	FourCCVideoBGRX = 'B' | 'G'<<8 | 'R'<<16 | 'X'<<24
	FourCCVideoRGBA = 'R' | 'G'<<8 | 'B'<<16 | 'A'<<24
	FourCCVideoRGBX = 'R' | 'G'<<8 | 'B'<<16 | 'X'<<24
	FourCCVideoNV12 = 'N' | 'V'<<8 | '1'<<16 | '2'<<24
	FourCCVideoI420 = 'I' | '4'<<8 | '2'<<16 | '0'<<24
	FourCCAudioFLTP = 'F' | 'L'<<8 | 'T'<<16 | 'P'<<24
)

const (
	FrameFormatInterleaved = 0
	FrameFormatProgressive = 1
	FrameFormatField0      = 2
	FrameFormatField1      = 3
)

const (
	BandwidthMetadataOnly = -10
	BandwidthLowest       = 0
	BandwidthAudioOnly    = 10
	BandwidthHighest      = 100
)

const (
	ColorFormatBGRXBGRA = 0
	ColorFormatUYVYBGRA = 1
	ColorFormatRGBXRGBA = 2
	ColorFormatUYVYRGBA = 3
	ColorFormatFastest  = 100
	ColorFormatBest     = 101
)

// Frame kinds reported by a capture call.
const (
	FrameTypeNone         = 0
	FrameTypeVideo        = 1
	FrameTypeAudio        = 2
	FrameTypeMetadata     = 3
	FrameTypeError        = 4
	FrameTypeStatusChange = 100
)

// SendTimecodeSynthesize lets the runtime stamp outgoing frames itself.
const SendTimecodeSynthesize = int64(^uint64(0) >> 1)

// VideoFrame matches the runtime's v2 video frame layout. Field order and
// widths are load-bearing; the struct crosses the ABI as-is.
type VideoFrame struct {
	Xres               int32
	Yres               int32
	FourCC             uint32
	FrameRateN         int32
	FrameRateD         int32
	PictureAspectRatio float32
	FrameFormatType    int32
	Timecode           int64
	Data               *byte
	LineStride         int32
	Metadata           *byte
	Timestamp          int64
}

// AudioFrame matches the runtime's v3 audio frame layout: planar float32
// samples, one plane per channel.
type AudioFrame struct {
	SampleRate    int32
	NumChannels   int32
	NumSamples    int32
	Timecode      int64
	FourCC        uint32
	Data          *byte
	ChannelStride int32
	Metadata      *byte
	Timestamp     int64
}

type sourceRaw struct {
	name       *byte
	urlAddress *byte
}

// Source identifies a sender visible on the network.
type Source struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Tally mirrors the runtime's two-flag tally state.
type Tally struct {
	OnProgram bool
	OnPreview bool
}

type findCreateSettings struct {
	showLocalSources bool
	groups           *byte
	extraIPs         *byte
}

type sendCreateSettings struct {
	name       *byte
	groups     *byte
	clockVideo bool
	clockAudio bool
}

type recvCreateSettings struct {
	source           sourceRaw
	colorFormat      int32
	bandwidth        int32
	allowVideoFields bool
	recvName         *byte
}

// cString copies s into a NUL terminated buffer. Empty strings become nil,
// which the runtime treats as "use the default".
func cString(s string) *byte {
	if s == "" {
		return nil
	}
	b := make([]byte, len(s)+1)
	copy(b, s)
	return &b[0]
}

func goString(p *byte) string {
	if p == nil {
		return ""
	}
	var n int
	for *(*byte)(unsafe.Add(unsafe.Pointer(p), n)) != 0 {
		n++
	}
	return string(unsafe.Slice(p, n))
}
