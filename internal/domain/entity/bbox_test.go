package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBoundingBox_Size(t *testing.T) {
	b := BoundingBox{X1: 10, Y1: 20, X2: 18, Y2: 26}
	require.Equal(t, 8, b.Width())
	require.Equal(t, 6, b.Height())
	require.Equal(t, 48, b.Area())
}
