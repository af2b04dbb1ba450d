package inpaint

import (
	"fmt"
	"math"

	"inpainter/internal/domain/entity"
)

// Region рабочая область вокруг маски вместе с вырезанными изображением и маской.
type Region struct {
	Bounds entity.BoundingBox // координаты области в исходном изображении
	Image  *entity.Image
	Mask   *entity.Mask
}

// Width возвращает ширину области.
func (r *Region) Width() int { return r.Bounds.Width() }

// Height возвращает высоту области.
func (r *Region) Height() int { return r.Bounds.Height() }

// padding считает отступ контекста по одной оси.
func padding(extent, minPad int, fraction float64) int {
	return max(minPad, int(math.Round(float64(extent)*fraction)))
}

// ExtractRegion расширяет bbox контекстом, обрезает по границам изображения
// и вырезает из изображения и маски одинаковые области.
func ExtractRegion(img *entity.Image, mask *entity.Mask, bbox entity.BoundingBox, minPad int, fraction float64) (*Region, error) {
	if img.Width != mask.Width || img.Height != mask.Height {
		return nil, fmt.Errorf("%w: image %dx%d, mask %dx%d", entity.ErrSizeMismatch, img.Width, img.Height, mask.Width, mask.Height)
	}

	padX := padding(bbox.Width(), minPad, fraction)
	padY := padding(bbox.Height(), minPad, fraction)
	bounds := entity.BoundingBox{
		X1: max(0, bbox.X1-padX),
		Y1: max(0, bbox.Y1-padY),
		X2: min(img.Width, bbox.X2+padX),
		Y2: min(img.Height, bbox.Y2+padY),
	}

	cw, ch := bounds.Width(), bounds.Height()
	return &Region{
		Bounds: bounds,
		Image:  img.Crop(bounds.X1, bounds.Y1, cw, ch),
		Mask:   mask.Crop(bounds.X1, bounds.Y1, cw, ch),
	}, nil
}
