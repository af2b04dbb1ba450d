package fallback

import (
	"fmt"
	"math/rand"
	"time"

	"inpainter/internal/domain/entity"
)

// Run выполняет оба этапа над RGBA-буфером pix и маской интенсивности maskPix.
// Входные буферы не изменяются. report получает неубывающий процент готовности.
func Run(pix, maskPix []uint8, w, h int, params Params, report func(percent int)) ([]uint8, error) {
	if w <= 0 || h <= 0 || len(pix) != w*h*4 || len(maskPix) != w*h {
		return nil, fmt.Errorf("%w: %dx%d with %d image bytes and %d mask bytes",
			entity.ErrInvalidDimensions, w, h, len(pix), len(maskPix))
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if report == nil {
		report = func(int) {}
	}
	report = monotonic(report)

	out := make([]uint8, len(pix))
	copy(out, pix)

	masked := make([]bool, w*h)
	unfilled := make([]bool, w*h)
	total := 0
	for i, v := range maskPix {
		if v > entity.MaskThreshold {
			masked[i] = true
			unfilled[i] = true
			total++
		}
	}
	if total == 0 {
		report(100)
		return out, nil
	}

	diffuse(out, unfilled, w, h, total, report)
	report(50)

	refine(out, pix, masked, w, h, params, newRand(params), report)
	report(100)
	return out, nil
}

// newRand возвращает генератор для перемешивания или nil, если порядок обхода фиксирован.
func newRand(params Params) *rand.Rand {
	if !params.Shuffle {
		return nil
	}
	seed := params.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// monotonic отбрасывает проценты меньше уже отправленного.
func monotonic(report func(int)) func(int) {
	last := -1
	return func(percent int) {
		if percent < last {
			return
		}
		last = percent
		report(percent)
	}
}
