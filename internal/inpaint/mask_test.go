package inpaint

import (
	"testing"

	"github.com/stretchr/testify/require"

	"inpainter/internal/domain/entity"
)

func TestAnalyzeMask_TightBox(t *testing.T) {
	mask := entity.NewMask(50, 40)
	mask.FillRect(10, 5, 20, 15)
	mask.Pix[30*50+45] = 200

	bbox, err := AnalyzeMask(mask)
	require.NoError(t, err)
	require.Equal(t, entity.BoundingBox{X1: 10, Y1: 5, X2: 46, Y2: 31}, bbox)
}

func TestAnalyzeMask_IgnoresFaintPixels(t *testing.T) {
	mask := entity.NewMask(10, 10)
	mask.Pix[0] = entity.MaskThreshold
	mask.Pix[55] = entity.MaskThreshold + 1

	bbox, err := AnalyzeMask(mask)
	require.NoError(t, err)
	require.Equal(t, entity.BoundingBox{X1: 5, Y1: 5, X2: 6, Y2: 6}, bbox)
}

func TestAnalyzeMask_Empty(t *testing.T) {
	_, err := AnalyzeMask(entity.NewMask(10, 10))
	require.ErrorIs(t, err, entity.ErrEmptyMask)
}
