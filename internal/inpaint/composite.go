package inpaint

import "inpainter/internal/domain/entity"

// BuildBlendMask бинаризует маску и размывает её разделимым box blur радиуса radius.
// Нормировка идёт по числу соседей внутри изображения, поэтому края не темнеют.
func BuildBlendMask(mask *entity.Mask, radius int) []float32 {
	w, h := mask.Width, mask.Height
	raw := make([]float32, w*h)
	for i, v := range mask.Pix {
		if v > entity.MaskThreshold {
			raw[i] = 1
		}
	}
	if radius <= 0 {
		return raw
	}

	tmp := make([]float32, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float32
			count := 0
			for dx := -radius; dx <= radius; dx++ {
				nx := x + dx
				if nx >= 0 && nx < w {
					sum += raw[y*w+nx]
					count++
				}
			}
			tmp[y*w+x] = sum / float32(count)
		}
	}

	blurred := make([]float32, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float32
			count := 0
			for dy := -radius; dy <= radius; dy++ {
				ny := y + dy
				if ny >= 0 && ny < h {
					sum += tmp[ny*w+x]
					count++
				}
			}
			blurred[y*w+x] = sum / float32(count)
		}
	}
	return blurred
}

// Composite накладывает синтезированные пиксели на оригинал по растушёванной маске.
// Пиксели с нулевой альфой остаются побитово равными оригиналу.
func Composite(orig, synth *entity.Image, mask *entity.Mask, radius int) *entity.Image {
	alpha := BuildBlendMask(mask, radius)
	out := orig.Clone()
	for i, a := range alpha {
		if a <= 0 {
			continue
		}
		o := i * 4
		fa := float64(a)
		for c := 0; c < 3; c++ {
			v := float64(orig.Pix[o+c])*(1-fa) + float64(synth.Pix[o+c])*fa
			out.Pix[o+c] = clampByte(v)
		}
		out.Pix[o+3] = 255
	}
	return out
}
