package inpaint

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"inpainter/internal/domain/entity"
)

func TestNewAdapter_ContractError(t *testing.T) {
	model := newFakeModel(0, 0, 0)
	model.inputs = []string{"image"}

	_, err := NewAdapter(model, 64)
	var contractErr *entity.InferenceContractError
	require.ErrorAs(t, err, &contractErr)
	require.Equal(t, []string{"image"}, contractErr.Inputs)

	model = newFakeModel(0, 0, 0)
	model.outputs = nil
	_, err = NewAdapter(model, 64)
	require.ErrorAs(t, err, &contractErr)
}

func TestAdapter_ClampsOutput(t *testing.T) {
	model := newFakeModel(300, -5, 127.6)
	adapter, err := NewAdapter(model, 64)
	require.NoError(t, err)

	out, err := adapter.Infer(context.Background(), entity.NewImage(64, 64), entity.NewMask(64, 64))
	require.NoError(t, err)
	require.Equal(t, []uint8{255, 0, 128, 255}, out.Pix[0:4])
	require.Equal(t, 1, model.Calls())
}

func TestAdapter_NonFiniteOutput(t *testing.T) {
	model := newFakeModel(float32(math.NaN()), float32(math.Inf(1)), float32(math.Inf(-1)))
	adapter, err := NewAdapter(model, 64)
	require.NoError(t, err)

	out, err := adapter.Infer(context.Background(), entity.NewImage(64, 64), entity.NewMask(64, 64))
	require.NoError(t, err)
	require.Equal(t, []uint8{0, 255, 0, 255}, out.Pix[0:4])
}

func TestAdapter_InvocationError(t *testing.T) {
	model := newFakeModel(0, 0, 0)
	model.err = errors.New("boom")
	adapter, err := NewAdapter(model, 64)
	require.NoError(t, err)

	_, err = adapter.Infer(context.Background(), entity.NewImage(64, 64), entity.NewMask(64, 64))
	var invErr *entity.InferenceInvocationError
	require.ErrorAs(t, err, &invErr)
	require.Equal(t, "onnx", invErr.Backend)
}

func TestAdapter_BadOutputShape(t *testing.T) {
	model := newFakeModel(0, 0, 0)
	model.shape = []int{1, 3, 32, 32}
	adapter, err := NewAdapter(model, 64)
	require.NoError(t, err)

	_, err = adapter.Infer(context.Background(), entity.NewImage(64, 64), entity.NewMask(64, 64))
	var invErr *entity.InferenceInvocationError
	require.ErrorAs(t, err, &invErr)
}

func TestAdapter_WrongTileSize(t *testing.T) {
	adapter, err := NewAdapter(newFakeModel(0, 0, 0), 64)
	require.NoError(t, err)
	_, err = adapter.Infer(context.Background(), entity.NewImage(32, 32), entity.NewMask(32, 32))
	require.ErrorIs(t, err, entity.ErrSizeMismatch)
}

func TestPackImage_ChannelMajor(t *testing.T) {
	img := entity.NewImage(2, 1)
	copy(img.Pix, []uint8{255, 0, 51, 255, 0, 102, 255, 255})

	tensor := packImage(img)
	require.Equal(t, []int{1, 3, 1, 2}, tensor.Shape)
	require.InDeltaSlice(t, []float32{1, 0, 0, 0.4, 0.2, 1}, tensor.Data, 1e-6)
}

func TestPackMask_Binary(t *testing.T) {
	mask := entity.NewMask(4, 1)
	copy(mask.Pix, []uint8{0, entity.MaskThreshold, entity.MaskThreshold + 1, 255})

	tensor := packMask(mask)
	require.Equal(t, []int{1, 1, 1, 4}, tensor.Shape)
	require.Equal(t, []float32{0, 0, 1, 1}, tensor.Data)
}
