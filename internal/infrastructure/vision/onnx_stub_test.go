//go:build !gocv
// +build !gocv

package vision

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewONNXInferencer_WithoutGoCV(t *testing.T) {
	m, err := NewONNXInferencer("model.onnx", []string{"image", "mask"}, []string{"output"})
	require.ErrorIs(t, err, ErrNotBuilt)
	require.Nil(t, m)
}
