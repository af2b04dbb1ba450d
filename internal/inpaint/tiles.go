package inpaint

import (
	"math"

	"inpainter/internal/domain/entity"
)

// Tile положение тайла в рабочей области. W и H меньше стороны тайла,
// если область уже тайла по этой оси.
type Tile struct {
	X0, Y0 int
	W, H   int
}

// TilePlan раскладка рабочей области на тайлы.
type TilePlan struct {
	TileSize int
	Overlap  int
	Stride   int
	TilesX   int
	TilesY   int
	Single   bool
	Tiles    []Tile
}

// PlanTiles выбирает стратегию и считает сетку тайлов для области cw×ch.
// Последний тайл по каждой оси сдвигается внутрь, а не выходит за границу области.
func PlanTiles(cw, ch, tileSize int, overlapFraction float64) TilePlan {
	overlap := int(math.Round(float64(tileSize) * overlapFraction))
	plan := TilePlan{
		TileSize: tileSize,
		Overlap:  overlap,
		Stride:   tileSize - overlap,
	}

	if cw <= tileSize && ch <= tileSize {
		plan.Single = true
		plan.TilesX, plan.TilesY = 1, 1
		plan.Tiles = []Tile{{W: cw, H: ch}}
		return plan
	}

	plan.TilesX = tileCount(cw, overlap, plan.Stride)
	plan.TilesY = tileCount(ch, overlap, plan.Stride)
	plan.Tiles = make([]Tile, 0, plan.TilesX*plan.TilesY)
	for ty := 0; ty < plan.TilesY; ty++ {
		for tx := 0; tx < plan.TilesX; tx++ {
			x0 := min(tx*plan.Stride, max(0, cw-tileSize))
			y0 := min(ty*plan.Stride, max(0, ch-tileSize))
			plan.Tiles = append(plan.Tiles, Tile{
				X0: x0,
				Y0: y0,
				W:  min(tileSize, cw-x0),
				H:  min(tileSize, ch-y0),
			})
		}
	}
	return plan
}

func tileCount(extent, overlap, stride int) int {
	n := int(math.Ceil(float64(extent-overlap) / float64(stride)))
	return max(1, n)
}

// Covers сообщает, покрывает ли тайл точку области (x, y).
func (t Tile) Covers(x, y int) bool {
	return x >= t.X0 && x < t.X0+t.W && y >= t.Y0 && y < t.Y0+t.H
}

// HasMask сообщает, есть ли в следе тайла хотя бы один пиксель к закрашиванию.
func (t Tile) HasMask(mask *entity.Mask) bool {
	for y := t.Y0; y < t.Y0+t.H; y++ {
		for x := t.X0; x < t.X0+t.W; x++ {
			if mask.Filled(x, y) {
				return true
			}
		}
	}
	return false
}

// WeightMap весовое поле тайла: 1 в центре, линейный спад к краям на ширине перекрытия.
type WeightMap struct {
	Size    int
	Weights []float64
}

// NewWeightMap строит весовое поле. Крайний пиксель получает вес 1/overlap,
// угловой 1/overlap², так что покрытый пиксель никогда не имеет нулевого веса.
func NewWeightMap(size, overlap int) *WeightMap {
	w := make([]float64, size*size)
	for i := range w {
		w[i] = 1
	}
	for i := 0; i < overlap && i < size; i++ {
		t := float64(i+1) / float64(overlap)
		for j := 0; j < size; j++ {
			w[i*size+j] *= t
			w[(size-1-i)*size+j] *= t
			w[j*size+i] *= t
			w[j*size+size-1-i] *= t
		}
	}
	return &WeightMap{Size: size, Weights: w}
}

// At возвращает вес в точке тайла (x, y).
func (m *WeightMap) At(x, y int) float64 {
	return m.Weights[y*m.Size+x]
}

// Accumulator накапливает взвешенные выходы тайлов по каналам RGB.
type Accumulator struct {
	Width  int
	Height int
	rgb    []float64
	weight []float64
}

// NewAccumulator создаёт пустые буферы накопления для области w×h.
func NewAccumulator(w, h int) *Accumulator {
	return &Accumulator{
		Width:  w,
		Height: h,
		rgb:    make([]float64, w*h*3),
		weight: make([]float64, w*h),
	}
}

// Add добавляет выход тайла (размером со сторону тайла) в пределах его следа.
func (a *Accumulator) Add(tile Tile, out *entity.Image, weights *WeightMap) {
	for py := 0; py < tile.H; py++ {
		for px := 0; px < tile.W; px++ {
			wt := weights.At(px, py)
			src := out.Offset(px, py)
			dst := (tile.Y0+py)*a.Width + tile.X0 + px
			a.rgb[dst*3] += float64(out.Pix[src]) * wt
			a.rgb[dst*3+1] += float64(out.Pix[src+1]) * wt
			a.rgb[dst*3+2] += float64(out.Pix[src+2]) * wt
			a.weight[dst] += wt
		}
	}
}

// Weight возвращает накопленный вес в точке (x, y).
func (a *Accumulator) Weight(x, y int) float64 {
	return a.weight[y*a.Width+x]
}

// Resolve нормирует накопленные значения. Непокрытые пиксели берутся из base.
func (a *Accumulator) Resolve(base *entity.Image) *entity.Image {
	out := base.Clone()
	for i, wt := range a.weight {
		if wt <= 0 {
			continue
		}
		o := i * 4
		out.Pix[o] = clampByte(a.rgb[i*3] / wt)
		out.Pix[o+1] = clampByte(a.rgb[i*3+1] / wt)
		out.Pix[o+2] = clampByte(a.rgb[i*3+2] / wt)
		out.Pix[o+3] = 255
	}
	return out
}

// clampByte округляет и ограничивает значение диапазоном байта. NaN даёт 0.
func clampByte(v float64) uint8 {
	v = math.Round(v)
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// padTile вырезает след тайла из области и дополняет нулями до стороны size.
func padTile(region *Region, tile Tile, size int) (*entity.Image, *entity.Mask) {
	img := entity.NewImage(size, size)
	mask := entity.NewMask(size, size)
	for y := 0; y < tile.H; y++ {
		src := region.Image.Offset(tile.X0, tile.Y0+y)
		copy(img.Pix[y*size*4:y*size*4+tile.W*4], region.Image.Pix[src:src+tile.W*4])
		msrc := (tile.Y0+y)*region.Mask.Width + tile.X0
		copy(mask.Pix[y*size:y*size+tile.W], region.Mask.Pix[msrc:msrc+tile.W])
	}
	return img, mask
}
