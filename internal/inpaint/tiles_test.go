package inpaint

import (
	"testing"

	"github.com/stretchr/testify/require"

	"inpainter/internal/domain/entity"
)

func TestPlanTiles_SingleTile(t *testing.T) {
	plan := PlanTiles(300, 512, 512, 0.25)
	require.True(t, plan.Single)
	require.Equal(t, []Tile{{W: 300, H: 512}}, plan.Tiles)
}

func TestPlanTiles_TwoByTwo(t *testing.T) {
	plan := PlanTiles(700, 700, 512, 0.25)
	require.False(t, plan.Single)
	require.Equal(t, 128, plan.Overlap)
	require.Equal(t, 384, plan.Stride)
	require.Equal(t, 2, plan.TilesX)
	require.Equal(t, 2, plan.TilesY)
	require.Equal(t, []Tile{
		{X0: 0, Y0: 0, W: 512, H: 512},
		{X0: 188, Y0: 0, W: 512, H: 512},
		{X0: 0, Y0: 188, W: 512, H: 512},
		{X0: 188, Y0: 188, W: 512, H: 512},
	}, plan.Tiles)
}

func TestPlanTiles_LastTilePulledInward(t *testing.T) {
	plan := PlanTiles(1000, 600, 512, 0.25)
	require.Equal(t, 3, plan.TilesX)
	require.Equal(t, 2, plan.TilesY)
	for _, tile := range plan.Tiles {
		require.LessOrEqual(t, tile.X0+tile.W, 1000)
		require.LessOrEqual(t, tile.Y0+tile.H, 600)
		require.Equal(t, 512, tile.W)
	}
	require.Equal(t, 488, plan.Tiles[2].X0)
}

func TestPlanTiles_NarrowAxis(t *testing.T) {
	// по X область уже тайла: тайл обрезается, а не выходит за край
	plan := PlanTiles(200, 900, 512, 0.25)
	require.False(t, plan.Single)
	require.Equal(t, 1, plan.TilesX)
	require.Equal(t, 3, plan.TilesY)
	for _, tile := range plan.Tiles {
		require.Equal(t, 0, tile.X0)
		require.Equal(t, 200, tile.W)
	}
}

func TestPlanTiles_EveryPixelCovered(t *testing.T) {
	for _, size := range [][2]int{{513, 513}, {700, 700}, {1000, 1000}, {2000, 530}, {64, 1500}} {
		plan := PlanTiles(size[0], size[1], 512, 0.25)
		weights := NewWeightMap(512, plan.Overlap)
		acc := NewAccumulator(size[0], size[1])
		tile := entity.NewImage(512, 512)
		for _, tl := range plan.Tiles {
			acc.Add(tl, tile, weights)
		}
		uncovered := 0
		for y := 0; y < size[1]; y++ {
			for x := 0; x < size[0]; x++ {
				if acc.Weight(x, y) <= 0 {
					uncovered++
				}
			}
		}
		require.Zero(t, uncovered, "region %v", size)
	}
}

func TestWeightMap_Taper(t *testing.T) {
	w := NewWeightMap(16, 4)
	require.InDelta(t, 1.0, w.At(8, 8), 1e-9)
	require.InDelta(t, 0.25, w.At(0, 8), 1e-9)
	require.InDelta(t, 0.25, w.At(15, 8), 1e-9)
	require.InDelta(t, 0.5, w.At(8, 1), 1e-9)
	require.InDelta(t, 1.0/16, w.At(0, 0), 1e-9)
	require.InDelta(t, 1.0, w.At(4, 4), 1e-9)
}

func TestAccumulator_WeightMatchesCoveringTiles(t *testing.T) {
	plan := PlanTiles(700, 700, 512, 0.25)
	weights := NewWeightMap(512, plan.Overlap)
	acc := NewAccumulator(700, 700)
	tile := entity.NewImage(512, 512)
	for _, tl := range plan.Tiles {
		acc.Add(tl, tile, weights)
	}

	for _, p := range [][2]int{{0, 0}, {100, 100}, {200, 200}, {350, 350}, {600, 100}, {699, 699}, {511, 190}} {
		want := 0.0
		covering := 0
		for _, tl := range plan.Tiles {
			if tl.Covers(p[0], p[1]) {
				want += weights.At(p[0]-tl.X0, p[1]-tl.Y0)
				covering++
			}
		}
		require.Positive(t, covering)
		require.InDelta(t, want, acc.Weight(p[0], p[1]), 1e-9)
	}
}

func TestAccumulator_ResolveNormalizes(t *testing.T) {
	acc := NewAccumulator(4, 4)
	weights := NewWeightMap(4, 1)
	red := entity.NewImage(4, 4)
	for i := 0; i < 16; i++ {
		red.Pix[i*4] = 200
		red.Pix[i*4+1] = 10
	}
	acc.Add(Tile{W: 4, H: 4}, red, weights)
	acc.Add(Tile{W: 4, H: 4}, red, weights)

	out := acc.Resolve(entity.NewImage(4, 4))
	for i := 0; i < 16; i++ {
		require.Equal(t, []uint8{200, 10, 0, 255}, out.Pix[i*4:i*4+4])
	}
}

func TestTile_HasMask(t *testing.T) {
	mask := entity.NewMask(100, 100)
	mask.FillRect(90, 90, 95, 95)
	require.False(t, Tile{X0: 0, Y0: 0, W: 50, H: 50}.HasMask(mask))
	require.True(t, Tile{X0: 50, Y0: 50, W: 50, H: 50}.HasMask(mask))
}
