package ndi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ndi "github.com/MartinSandstromRimsbo/DistroAV/pkg/ndi"
)

func bgraFrame(width, height, stride int, buf []byte) *ndi.VideoFrame {
	return &ndi.VideoFrame{
		Xres:       int32(width),
		Yres:       int32(height),
		FourCC:     ndi.FourCCVideoBGRA,
		LineStride: int32(stride),
		Data:       &buf[0],
	}
}

func TestPremultiplyAlpha(t *testing.T) {
	// 2x2 BGRA, stride 12: each row carries 4 padding bytes, except the
	// last row which ends at its final pixel.
	buf := []byte{
		10, 20, 30, 255, 200, 100, 50, 128, 0xAA, 0xBB, 0xCC, 0xDD,
		1, 2, 3, 0, 255, 255, 255, 51,
	}
	require.NoError(t, PremultiplyAlpha(bgraFrame(2, 2, 12, buf)))

	// alpha 255 short-circuits
	assert.Equal(t, []byte{10, 20, 30, 255}, buf[0:4])
	// 200*128/255=100, 100*128/255=50, 50*128/255=25
	assert.Equal(t, []byte{100, 50, 25, 128}, buf[4:8])
	// padding untouched
	assert.Equal(t, []byte{0xAA, 0xBB, 0xCC, 0xDD}, buf[8:12])
	// alpha 0 clears the pixel
	assert.Equal(t, []byte{0, 0, 0, 0}, buf[12:16])
	// 255*51/255=51 exactly
	assert.Equal(t, []byte{51, 51, 51, 51}, buf[16:20])
}

func TestPremultiplyAlphaRGBA(t *testing.T) {
	buf := []byte{200, 100, 50, 128}
	frame := bgraFrame(1, 1, 4, buf)
	frame.FourCC = ndi.FourCCVideoRGBA
	require.NoError(t, PremultiplyAlpha(frame))
	assert.Equal(t, []byte{100, 50, 25, 128}, buf)
}

func TestPremultiplyAlphaRejectsOtherFormats(t *testing.T) {
	buf := []byte{1, 2, 3, 4}
	for _, fourCC := range []uint32{ndi.FourCCVideoUYVY, ndi.FourCCVideoBGRX, ndi.FourCCVideoRGBX, ndi.FourCCVideoNV12} {
		frame := bgraFrame(1, 1, 4, buf)
		frame.FourCC = fourCC
		assert.ErrorIs(t, PremultiplyAlpha(frame), ErrUnsupportedFormat)
	}
	assert.Equal(t, []byte{1, 2, 3, 4}, buf)
}

func TestPremultiplyAlphaEmptyFrame(t *testing.T) {
	assert.NoError(t, PremultiplyAlpha(&ndi.VideoFrame{FourCC: ndi.FourCCVideoBGRA}))
	assert.NoError(t, PremultiplyAlpha(&ndi.VideoFrame{FourCC: ndi.FourCCVideoRGBA, Xres: 2, Yres: 2, LineStride: 4}))
}
