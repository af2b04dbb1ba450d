package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestImage_CropPaste(t *testing.T) {
	img := NewImage(4, 3)
	for i := range img.Pix {
		img.Pix[i] = uint8(i)
	}

	crop := img.Crop(1, 1, 2, 2)
	require.Equal(t, 2, crop.Width)
	require.Equal(t, img.Pix[img.Offset(1, 1):img.Offset(1, 1)+8], crop.Pix[0:8])
	require.Equal(t, img.Pix[img.Offset(1, 2):img.Offset(1, 2)+8], crop.Pix[8:16])

	dst := NewImage(4, 3)
	dst.Paste(crop, 1, 1)
	require.Equal(t, img.Pix[img.Offset(2, 2)], dst.Pix[dst.Offset(2, 2)])
	require.Zero(t, dst.Pix[dst.Offset(0, 0)])
}

func TestNewImageFromPix_InvalidLength(t *testing.T) {
	_, err := NewImageFromPix(2, 2, make([]uint8, 15))
	require.ErrorIs(t, err, ErrInvalidDimensions)
}

func TestMask_Threshold(t *testing.T) {
	m := NewMask(3, 1)
	m.Pix[0] = MaskThreshold
	m.Pix[1] = MaskThreshold + 1
	m.Pix[2] = 255

	require.False(t, m.Filled(0, 0))
	require.True(t, m.Filled(1, 0))
	require.Equal(t, 2, m.FilledCount())
	require.Equal(t, []uint8{0, 1, 1}, m.Binary())
}

func TestMask_FillRectClamps(t *testing.T) {
	m := NewMask(5, 5)
	m.FillRect(-2, 3, 2, 10)
	require.Equal(t, 4, m.FilledCount())
}

func TestInferenceInvocationError_Unwrap(t *testing.T) {
	cause := ErrEmptyMask
	err := &InferenceInvocationError{Backend: "onnx", Err: cause}
	require.ErrorIs(t, err, ErrEmptyMask)
	require.Contains(t, err.Error(), "onnx")
}
