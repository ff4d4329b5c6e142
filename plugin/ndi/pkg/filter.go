package ndi

import (
	"errors"
	"unsafe"

	ndi "github.com/MartinSandstromRimsbo/DistroAV/pkg/ndi"
)

// ErrUnsupportedFormat rejects frames whose pixels carry no straight alpha.
var ErrUnsupportedFormat = errors.New("premultiply needs a BGRA or RGBA frame")

// PremultiplyAlpha scales every color channel by its pixel's alpha, in
// place. Rows are walked by LineStride, so padded buffers survive; the last
// row is addressed without its padding.
func PremultiplyAlpha(frame *ndi.VideoFrame) error {
	switch frame.FourCC {
	case ndi.FourCCVideoBGRA, ndi.FourCCVideoRGBA:
	default:
		return ErrUnsupportedFormat
	}
	width, height, stride := int(frame.Xres), int(frame.Yres), int(frame.LineStride)
	if frame.Data == nil || width <= 0 || height <= 0 || stride < width*4 {
		return nil
	}
	buf := unsafe.Slice(frame.Data, (height-1)*stride+width*4)
	for y := 0; y < height; y++ {
		row := buf[y*stride:]
		for x := 0; x < width*4; x += 4 {
			a := uint16(row[x+3])
			if a == 255 {
				continue
			}
			row[x+0] = byte(uint16(row[x+0]) * a / 255)
			row[x+1] = byte(uint16(row[x+1]) * a / 255)
			row[x+2] = byte(uint16(row[x+2]) * a / 255)
		}
	}
	return nil
}
