package inpaint

import "inpainter/internal/domain/entity"

// AnalyzeMask находит плотный прямоугольник вокруг пикселей к закрашиванию.
// Для пустой маски возвращает entity.ErrEmptyMask.
func AnalyzeMask(mask *entity.Mask) (entity.BoundingBox, error) {
	x1, y1 := mask.Width, mask.Height
	x2, y2 := 0, 0
	found := false

	for y := 0; y < mask.Height; y++ {
		row := mask.Pix[y*mask.Width : (y+1)*mask.Width]
		for x, v := range row {
			if v <= entity.MaskThreshold {
				continue
			}
			found = true
			x1 = min(x1, x)
			x2 = max(x2, x)
			y1 = min(y1, y)
			y2 = max(y2, y)
		}
	}

	if !found {
		return entity.BoundingBox{}, entity.ErrEmptyMask
	}
	return entity.BoundingBox{X1: x1, Y1: y1, X2: x2 + 1, Y2: y2 + 1}, nil
}
